package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"stayengine/internal/infra/config"
	"stayengine/internal/infra/obs"
)

type BookingHTTP interface {
	Quote(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Transition(c *gin.Context)
}

type BookingListHTTP interface {
	Host(c *gin.Context)
	Mine(c *gin.Context)
}

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
}

type PaymentsHTTP interface {
	Webhook(c *gin.Context)
}

type Handlers struct {
	Booking      BookingHTTP
	BookingList  BookingListHTTP
	Availability AvailabilityHTTP
	Payments     PaymentsHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the engine; split out so tests can drive it with httptest.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", userIDHeader, userRoleHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}))
	router.Use(PrincipalFromHeaders())

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.POST("/quotes", h.Booking.Quote)
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/:id", h.Booking.Get)
		api.POST("/bookings/:id/transitions", h.Booking.Transition)
	}
	if h.BookingList != nil {
		api.GET("/host/bookings", h.BookingList.Host)
		api.GET("/me/bookings", h.BookingList.Mine)
	}
	if h.Availability != nil {
		api.GET("/listings/:id/calendar", h.Availability.Calendar)
	}
	if h.Payments != nil {
		api.POST("/payments/events", h.Payments.Webhook)
	}
	return router
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
