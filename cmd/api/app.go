package main

import (
	"net/http"

	"equiprent/internal/cache"
	"equiprent/internal/config"
	"equiprent/internal/domain/auth"
	"equiprent/internal/domain/booking"
	"equiprent/internal/domain/chat"
	"equiprent/internal/domain/equipment"
	"equiprent/internal/domain/favorite"
	"equiprent/internal/domain/notification"
	"equiprent/internal/domain/payment"
	"equiprent/internal/domain/review"
	"equiprent/internal/domain/upload"
	"equiprent/internal/domain/wallet"
	"equiprent/internal/events"
	"equiprent/internal/mail"
	"equiprent/internal/middleware"
	jwtsvc "equiprent/internal/pkg/jwt"
	"equiprent/internal/pkg/response"
	"equiprent/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	jwt    *jwtsvc.Service

	hub     *realtime.Hub
	uploads *upload.Service

	auth          *auth.Handler
	equipment     *equipment.Handler
	bookings      *booking.Handler
	favorites     *favorite.Handler
	reviews       *review.Handler
	wallet        *wallet.Handler
	payments      *payment.Handler
	chat          *chat.Handler
	notifications *notification.Handler
	uploadHandler *upload.Handler
	ws            *realtime.Handler
}

func newApp(cfg *config.Config, db *gorm.DB, c cache.Cache, bus *events.Bus, logger zerolog.Logger) (*app, error) {
	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	hub := realtime.NewHub(logger)
	policy := booking.Policy{SameDayHandover: cfg.SameDayHandover}

	uploadSvc := upload.NewService(upload.NewRepository(db), cfg.UploadDir, cfg.UploadMaxBytes, logger)

	userRepo := auth.NewRepository(db)

	equipmentSvc := equipment.NewService(
		equipment.NewRepository(db),
		c,
		cfg.CacheTTL,
		equipment.AvailabilityPolicy{
			BlockingStatuses: statusNames(booking.CreationBlockingStatuses),
			Strict:           cfg.SameDayHandover,
		},
		cfg.PaymentCurrency,
		logger,
	)

	bookingRepo := booking.NewRepository(db)
	validator := booking.NewValidator(bookingRepo, policy, cfg.QueryTimeout, logger)
	bookingSvc := booking.NewService(bookingRepo, validator, equipmentSvc, userRepo, bus, logger)

	reviewSvc := review.NewService(review.NewReviewRepository(db), bookingSvc, bus, logger)
	authSvc := auth.NewService(userRepo, j, reviewSvc)

	walletSvc := wallet.NewService(db, cfg.PaymentCurrency)

	var gateway payment.Gateway
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	} else {
		logger.Warn().Msg("STRIPE_SECRET_KEY empty, checkout is disabled")
	}
	paymentSvc := payment.NewService(db, bookingRepo, walletSvc, gateway, bus, logger)
	paymentSvc.Subscribe(bus)

	var (
		typing   chat.TypingTracker
		delivery notification.Delivery
	)
	switch cfg.NotifyMode {
	case config.NotifyModePolling:
		typing = chat.NewCacheTyping(c, cfg.TypingTTL)
		delivery = notification.PollingDelivery{}
	default:
		typing = chat.NewPushTyping(hub, cfg.TypingTTL)
		delivery = notification.NewRealtimeDelivery(hub)
	}
	chatSvc := chat.NewService(chat.NewRepository(db), equipmentSvc, typing, bus, logger)
	hub.Handle("typing", chatSvc.HandleTypingFrame)

	notificationSvc := notification.NewService(notification.NewNotificationRepository(db), delivery, logger)
	notificationSvc.Subscribe(bus)

	dispatcher, err := mail.NewDispatcher(cfg, logger)
	if err != nil {
		return nil, err
	}
	mail.NewNotifier(dispatcher, logger).Subscribe(bus)

	return &app{
		cfg:           cfg,
		logger:        logger,
		jwt:           j,
		hub:           hub,
		uploads:       uploadSvc,
		auth:          auth.NewHandler(authSvc, uploadSvc),
		equipment:     equipment.NewHandler(equipmentSvc, uploadSvc),
		bookings:      booking.NewHandler(bookingSvc, logger),
		favorites:     favorite.NewHandler(favorite.NewRepository(db), equipmentSvc),
		reviews:       review.NewHandler(reviewSvc),
		wallet:        wallet.NewHandler(walletSvc),
		payments:      payment.NewHandler(paymentSvc, logger),
		chat:          chat.NewHandler(chatSvc),
		notifications: notification.NewHandler(notificationSvc),
		uploadHandler: upload.NewHandler(uploadSvc),
		ws:            realtime.NewHandler(hub, j, cfg.CORSAllowedOrigins),
	}, nil
}

func (a *app) router() *gin.Engine {
	if a.cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(a.logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(a.cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static(upload.StaticURLBase, a.uploads.PublicDir())
	if a.cfg.NotifyMode == config.NotifyModeRealtime {
		r.GET("/ws", a.ws.Serve)
	}

	limiter := middleware.NewRateLimiter(a.cfg.RateLimitRPS, a.cfg.RateLimitBurst)
	v1 := r.Group("/api/v1")
	v1.Use(limiter.Middleware())

	a.payments.RegisterWebhookRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(a.jwt))

	a.auth.RegisterRoutes(v1, protected)
	a.equipment.RegisterRoutes(v1, protected)
	a.reviews.RegisterRoutes(v1, protected)
	a.bookings.RegisterRoutes(protected)
	a.favorites.RegisterRoutes(protected)
	a.wallet.RegisterRoutes(protected)
	a.payments.RegisterProtectedRoutes(protected)
	a.chat.RegisterRoutes(protected)
	a.notifications.RegisterRoutes(protected)
	upload.RegisterRoutes(protected, a.uploadHandler)

	return r
}

func statusNames(statuses []booking.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
