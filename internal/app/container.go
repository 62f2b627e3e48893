package app

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mabuhotel/booking-backend/internal/api"
	"github.com/mabuhotel/booking-backend/internal/availability"
	"github.com/mabuhotel/booking-backend/internal/booking"
	"github.com/mabuhotel/booking-backend/internal/bookingrequest"
	"github.com/mabuhotel/booking-backend/internal/config"
	"github.com/mabuhotel/booking-backend/internal/notify"
	"github.com/mabuhotel/booking-backend/internal/payment"
	"github.com/mabuhotel/booking-backend/internal/pkg/ratelimit"
	"github.com/mabuhotel/booking-backend/internal/reconcile"
	"github.com/mabuhotel/booking-backend/internal/room"
	"github.com/mabuhotel/booking-backend/internal/roomtype"
	"github.com/mabuhotel/booking-backend/internal/timepolicy"
)

// Container holds the initialized components that are needed externally.
type Container struct {
	Router          *gin.Engine
	ReconcileRunner *reconcile.Runner
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg *config.Config, pool *pgxpool.Pool) (*Container, error) {
	// Day-boundary and check-in/out policy for the property's timezone.
	policy, err := timepolicy.New(timepolicy.Options{
		Timezone:      cfg.BookingTimezone,
		CheckInTime:   cfg.CheckInTime,
		CheckOutTime:  cfg.CheckOutTime,
		BufferMinutes: cfg.CheckInBufferMinutes,
	})
	if err != nil {
		return nil, err
	}

	// Catalog and inventory modules.
	roomTypeRepo := roomtype.NewPgxRepository(pool)
	roomTypeService := roomtype.NewService(roomTypeRepo)
	roomRepo := room.NewPgxRepository(pool)
	availabilityService := availability.NewService(roomRepo, policy)

	// Notifications are best-effort and disabled without provider credentials.
	var notifier notify.Notifier = notify.Noop{}
	if cfg.BrevoAPIKey != "" {
		notifier = notify.NewBrevoNotifier(notify.BrevoConfig{
			APIKey:       cfg.BrevoAPIKey,
			SenderEmail:  cfg.EmailSender,
			SenderName:   cfg.EmailSenderName,
			ManagerEmail: cfg.ManagerEmail,
		})
	}

	// Booking modules.
	bookingRepo := booking.NewPgxRepository(pool)
	bookingService := booking.NewService(
		bookingRepo, roomRepo, roomTypeRepo, availabilityService, policy, notifier)
	requestRepo := bookingrequest.NewPgxRepository(pool)
	requestService := bookingrequest.NewService(requestRepo, cfg.ReuseWindow)

	// Payment gateway and webhook reconciler.
	paymentClient := payment.NewClient(payment.Config{
		SecretKey:    cfg.PaystackSecretKey,
		BaseURL:      cfg.PaystackBaseURL,
		InitTimeout:  cfg.InitTimeout,
		MaxRetries:   cfg.InitMaxRetries,
		RetryBase:    cfg.InitRetryBase,
		PublicAppURL: cfg.PublicAppURL,
		PlatformURL:  cfg.PlatformURL,
	})
	reconciler := payment.NewReconciler(
		cfg.PaystackSecretKey, requestService, bookingService, availabilityService, paymentClient)

	// Reconciliation sweep.
	reconcileRunner := reconcile.NewRunner(bookingService, requestService)

	// Rate limiting; Redis when configured, in-process otherwise.
	var rateLimitStore ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rateLimitStore = ratelimit.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	router := api.NewRouter(api.Config{
		IsProduction:          cfg.IsProduction,
		ProdOrigins:           cfg.ProdOrigins,
		RoomTypeService:       roomTypeService,
		AvailabilityService:   availabilityService,
		BookingRequestService: requestService,
		BookingService:        bookingService,
		PaymentClient:         paymentClient,
		Reconciler:            reconciler,
		ReconcileRunner:       reconcileRunner,
		RateLimitStore:        rateLimitStore,
	})

	return &Container{
		Router:          router,
		ReconcileRunner: reconcileRunner,
	}, nil
}
