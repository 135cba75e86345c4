package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Domenick1991/airport/internal/domain"
	"github.com/Domenick1991/airport/internal/middleware"
	"github.com/Domenick1991/airport/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

// Register mounts reads for any authenticated user and writes for staff only.
// Flights are reference data and cannot be deleted through the API.
func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)

	staff := router.Group("", middleware.RequireStaff())
	staff.POST("", h.create)
	staff.PUT("/:id", h.replace)
	staff.PATCH("/:id", h.patch)
}

func (h *FlightHandler) list(c *gin.Context) {
	filter, err := parseFlightFilter(c.Query("companies"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]flightResponse, 0, len(result))
	for i := range result {
		resp = append(resp, newFlightResponse(&result[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFlightResponse(flight))
}

func (h *FlightHandler) create(c *gin.Context) {
	input, ok := bindFullFlight(c)
	if !ok {
		return
	}
	flight, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newFlightResponse(flight))
}

func (h *FlightHandler) replace(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	input, ok := bindFullFlight(c)
	if !ok {
		return
	}
	flight, err := h.service.Update(c.Request.Context(), id, input.Patch())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFlightResponse(flight))
}

func (h *FlightHandler) patch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req flightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	patch := flights.FlightPatch{
		Name:        req.Name,
		RouteID:     req.Route,
		AirplaneID:  req.Airplane,
		CrewIDs:     req.Crew,
		IsCompleted: req.IsCompleted,
	}
	if req.DepartureTime != nil {
		patch.DepartureTime = &req.DepartureTime.Time
	}
	if req.ArrivalTime != nil {
		patch.ArrivalTime = &req.ArrivalTime.Time
	}

	flight, err := h.service.Update(c.Request.Context(), id, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFlightResponse(flight))
}

func bindFullFlight(c *gin.Context) (flights.FlightInput, bool) {
	var req flightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return flights.FlightInput{}, false
	}

	var missing []string
	if req.Name == nil {
		missing = append(missing, "name")
	}
	if req.Route == nil {
		missing = append(missing, "route")
	}
	if req.Airplane == nil {
		missing = append(missing, "airplane")
	}
	if req.DepartureTime == nil {
		missing = append(missing, "departure_time")
	}
	if req.ArrivalTime == nil {
		missing = append(missing, "arrival_time")
	}
	if len(missing) > 0 {
		badRequest(c, "missing required fields: "+strings.Join(missing, ", "))
		return flights.FlightInput{}, false
	}

	input := flights.FlightInput{
		Name:          *req.Name,
		RouteID:       *req.Route,
		AirplaneID:    *req.Airplane,
		DepartureTime: req.DepartureTime.Time,
		ArrivalTime:   req.ArrivalTime.Time,
	}
	if req.Crew != nil {
		input.CrewIDs = *req.Crew
	}
	return input, true
}

// parseFlightFilter reads "companies=1,3" into airline company ids.
func parseFlightFilter(raw string) (domain.FlightFilter, error) {
	var filter domain.FlightFilter
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return domain.FlightFilter{}, fmt.Errorf("companies must be a comma-separated list of ids, got %q", raw)
		}
		filter.AirlineCompanyIDs = append(filter.AirlineCompanyIDs, id)
	}
	return filter, nil
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
