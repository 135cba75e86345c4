package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/airport/internal/domain"
	"github.com/Domenick1991/airport/internal/middleware"
	"github.com/Domenick1991/airport/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service        booking.OrderUseCase
	idempotency    middleware.IdempotencyStore
	idempotencyTTL time.Duration
}

func NewOrderHandler(service booking.OrderUseCase, idempotency middleware.IdempotencyStore, idempotencyTTL time.Duration) *OrderHandler {
	return &OrderHandler{service: service, idempotency: idempotency, idempotencyTTL: idempotencyTTL}
}

func (h *OrderHandler) Register(router *gin.RouterGroup) {
	router.POST("", middleware.Idempotency(h.idempotency, h.idempotencyTTL), h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.delete)
}

func (h *OrderHandler) create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := h.service.CreateOrder(c.Request.Context(), userID, req.Tickets)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newOrderResponse(order))
}

func (h *OrderHandler) list(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, ok := parsePage(c)
	if !ok {
		return
	}

	orders, total, err := h.service.ListOrders(c.Request.Context(), userID, page)
	if err != nil {
		writeError(c, err)
		return
	}

	results := make([]orderResponse, 0, len(orders))
	for i := range orders {
		results = append(results, newOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, orderListResponse{Count: total, Limit: page.Limit, Offset: page.Offset, Results: results})
}

func (h *OrderHandler) get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.service.GetOrder(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderDetailResponse(order))
}

func (h *OrderHandler) delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteOrder(c.Request.Context(), userID, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func currentUser(c *gin.Context) (int64, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "authentication required", Code: "unauthorized"})
		return 0, false
	}
	return userID, true
}

func parsePage(c *gin.Context) (domain.Page, bool) {
	var page domain.Page
	for name, dst := range map[string]*int{"limit": &page.Limit, "offset": &page.Offset} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			badRequest(c, name+" must be a non-negative integer")
			return domain.Page{}, false
		}
		*dst = v
	}
	return page.Normalize(), true
}
