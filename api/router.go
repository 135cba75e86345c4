package api

import (
	"path/filepath"
	"time"

	"github.com/Domenick1991/airport/internal/middleware"
	"github.com/Domenick1991/airport/internal/service/booking"
	"github.com/Domenick1991/airport/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type RouterConfig struct {
	JWTSecret      string
	SwaggerDir     string
	IdempotencyTTL time.Duration
}

// NewRouter builds the public HTTP surface. Everything under /flights and
// /orders requires a valid bearer token.
func NewRouter(cfg RouterConfig, flightSvc flights.FlightUseCase, orderSvc booking.OrderUseCase, idempotency middleware.IdempotencyStore) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.SwaggerDir != "" {
		r.StaticFile("/docs/openapi.json", filepath.Join(cfg.SwaggerDir, "openapi.json"))
		r.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/docs/openapi.json"))))
	}

	authed := r.Group("", middleware.JWTAuth(cfg.JWTSecret))
	NewFlightHandler(flightSvc).Register(authed.Group("/flights"))
	NewOrderHandler(orderSvc, idempotency, cfg.IdempotencyTTL).Register(authed.Group("/orders"))

	return r
}
