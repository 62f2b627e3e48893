package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mabuhotel/booking-backend/internal/availability"
	availabilityHttp "github.com/mabuhotel/booking-backend/internal/availability/http"
	"github.com/mabuhotel/booking-backend/internal/booking"
	bookingHttp "github.com/mabuhotel/booking-backend/internal/booking/http"
	"github.com/mabuhotel/booking-backend/internal/bookingrequest"
	bookingrequestHttp "github.com/mabuhotel/booking-backend/internal/bookingrequest/http"
	"github.com/mabuhotel/booking-backend/internal/payment"
	paymentHttp "github.com/mabuhotel/booking-backend/internal/payment/http"
	"github.com/mabuhotel/booking-backend/internal/pkg/ratelimit"
	"github.com/mabuhotel/booking-backend/internal/reconcile"
	reconcileHttp "github.com/mabuhotel/booking-backend/internal/reconcile/http"
	"github.com/mabuhotel/booking-backend/internal/roomtype"
	roomtypeHttp "github.com/mabuhotel/booking-backend/internal/roomtype/http"
)

// Initiations per IP inside the rate-limit window.
const (
	initiateLimit  = 6
	initiateWindow = 10 * time.Minute
)

// Config carries everything the router needs to assemble the HTTP surface.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	RoomTypeService       roomtype.Service
	AvailabilityService   availability.Service
	BookingRequestService bookingrequest.Service
	BookingService        booking.Service
	PaymentClient         *payment.Client
	Reconciler            *payment.Reconciler
	ReconcileRunner       *reconcile.Runner
	RateLimitStore        ratelimit.Store
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, rate limiting)
// and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	initiateLimiter := ratelimit.Limit(cfg.RateLimitStore, "initiate", initiateLimit, initiateWindow)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	roomTypeHandler := roomtypeHttp.NewHandler(cfg.RoomTypeService)
	availabilityHandler := availabilityHttp.NewHandler(cfg.AvailabilityService)
	requestHandler := bookingrequestHttp.NewHandler(
		cfg.BookingRequestService, cfg.RoomTypeService, cfg.AvailabilityService, cfg.PaymentClient)
	paymentHandler := paymentHttp.NewHandler(cfg.PaymentClient, cfg.Reconciler, cfg.BookingRequestService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	reconcileHandler := reconcileHttp.NewHandler(cfg.ReconcileRunner)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		roomtypeHttp.RegisterRoutes(v1, roomTypeHandler)
		availabilityHttp.RegisterRoutes(v1, availabilityHandler)
		bookingrequestHttp.RegisterRoutes(v1, requestHandler, initiateLimiter)
		paymentHttp.RegisterRoutes(v1, paymentHandler)
		bookingHttp.RegisterRoutes(v1, bookingHandler)
		reconcileHttp.RegisterRoutes(v1, reconcileHandler)
	}

	return r
}
