package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"vehiclerental/internal/infra/config"
	"vehiclerental/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	ListByVehicle(c *gin.Context)
}

type CatalogHTTP interface {
	VehicleTypes(c *gin.Context)
	Vehicles(c *gin.Context)
	Quote(c *gin.Context)
}

type Handlers struct {
	Booking BookingHTTP
	Catalog CatalogHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter mounts every route twice: under /api/v1 and at the root.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	registerRoutes(router.Group("/api/v1"), h)
	registerRoutes(router.Group(""), h)
	return router
}

func registerRoutes(g *gin.RouterGroup, h Handlers) {
	if h.Catalog != nil {
		g.GET("/vehicle-types", h.Catalog.VehicleTypes)
		g.GET("/vehicles/:typeId", h.Catalog.Vehicles)
		g.GET("/quote", h.Catalog.Quote)
	}
	if h.Booking != nil {
		g.POST("/bookings", h.Booking.Create)
		g.GET("/bookings", h.Booking.ListByVehicle)
		g.GET("/bookings/:id", h.Booking.Get)
	}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
