package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	mhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/waconnect/backend/internal/analytics"
	"github.com/waconnect/backend/internal/app"
	"github.com/waconnect/backend/internal/audit"
	"github.com/waconnect/backend/internal/auth"
	"github.com/waconnect/backend/internal/booking"
	"github.com/waconnect/backend/internal/business"
	"github.com/waconnect/backend/internal/catalog"
	"github.com/waconnect/backend/internal/common"
	"github.com/waconnect/backend/internal/config"
	"github.com/waconnect/backend/internal/db"
	"github.com/waconnect/backend/internal/events"
	"github.com/waconnect/backend/internal/health"
	tenantmw "github.com/waconnect/backend/internal/http/middleware"
	"github.com/waconnect/backend/internal/notify"
	"github.com/waconnect/backend/internal/obs"
	"github.com/waconnect/backend/internal/order"
	"github.com/waconnect/backend/internal/ratelimit"
	"github.com/waconnect/backend/internal/reviews"
	"github.com/waconnect/backend/internal/security"
	"github.com/waconnect/backend/internal/site"
	"github.com/waconnect/backend/internal/tenant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "waconnect")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "waconnect-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if envBool("DB_AUTO_MIGRATE", true) {
		if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	deps, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	pool := deps.DB
	redisClient := deps.Redis

	authStore := &auth.Store{Pool: pool}
	authService, err := auth.NewService(auth.Config{
		Store:           authStore,
		Secret:          cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{
		Service:           authService,
		AccessCookieName:  "wa_access",
		RefreshCookieName: "wa_refresh",
		CookieDomain:      cfg.CookieDomain,
		CookieSecure:      cfg.CookieSecure,
		CookieSameSite:    cfg.CookieSameSite,
	}
	authMiddleware := auth.Middleware{Service: authService, AccessCookie: "wa_access"}

	businessStore := &business.Store{Pool: pool}
	businessService := &business.Service{Store: businessStore, Validate: deps.Validator}
	businessHandler := &business.Handler{Service: businessService}

	eventStore := &events.Store{Pool: pool}
	dispatcher := &notify.Dispatcher{
		Enqueuer:   deps.Tasks,
		Businesses: businessStore,
		Enabled:    cfg.WhatsAppAPIEnabled,
		Log:        logger,
	}
	bus := &events.Bus{
		Store:     eventStore,
		Notifiers: []events.Notifier{dispatcher},
	}

	catalogStore := &catalog.Store{Pool: pool}
	catalogService := &catalog.Service{
		Store:    catalogStore,
		Owners:   businessService,
		Cache:    catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		Validate: deps.Validator,
	}
	catalogHandler := &catalog.Handler{Service: catalogService}

	bookingService := &booking.Service{
		Store:      &booking.Store{Pool: pool},
		Businesses: businessStore,
		Bus:        bus,
		Validate:   deps.Validator,
		Log:        logger,
	}
	bookingHandler := &booking.Handler{Service: bookingService}

	orderService := &order.Service{
		Store:      &order.Store{Pool: pool},
		Businesses: businessStore,
		Products:   catalogStore,
		Bus:        bus,
		Validate:   deps.Validator,
		Log:        logger,
	}
	orderHandler := &order.Handler{Service: orderService}

	reviewService := &reviews.Service{
		Store:      reviews.Store{Pool: pool},
		Businesses: businessStore,
		Validate:   deps.Validator,
	}
	reviewHandler := &reviews.Handler{Service: reviewService}

	analyticsService := &analytics.Service{
		Counts: &analytics.PgCounter{Pool: pool},
		Owners: businessService,
		R:      redisClient,
		TTL:    cfg.AnalyticsCacheTTL,
	}
	analyticsHandler := &analytics.Handler{Service: analyticsService}

	auditService := audit.Service{
		Store:        audit.PgStore{Pool: pool},
		Enabled:      envBool("AUDIT_ENABLED", true),
		SamplingRate: envFloat("AUDIT_SAMPLING_RATE", 1.0),
	}
	auditRecorder := audit.HTTPRecorder{
		Service: &auditService,
		OnError: func(err error) { logger.Error().Err(err).Msg("record audit entry") },
	}
	auditTrail := auditRecorder.Middleware(audit.HTTPConfig{})
	auditHandler := audit.Handler{Store: auditService.Store}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	publicLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:"},
		Config: ratelimit.Config{
			Key:    func(r *http.Request) string { return common.ClientIP(r) + ":" + r.URL.Path },
			Window: time.Minute,
			Max:    cfg.PublicRateLimitPerMin,
		},
		OnError: func(err error) { logger.Error().Err(err).Msg("rate limit check") },
	}

	tenantResolver := tenant.NewResolver("", cfg.RootDomain, "")

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.CookieSecure}.Middleware)
	r.Use(security.BodyLimit{Max: envInt64("SECURE_MAX_BODY_BYTES", 1<<20)}.Middleware)
	r.Use(tenantResolver.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-CSRF-Token", "X-Tenant-ID"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if lim := app.NewGlobalLimiter(redisClient, cfg.GlobalRateLimit, logger); lim != nil {
		r.Use(mhttp.NewMiddleware(lim).Handler)
	}

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", true) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.CSRF{}.Middleware)

		v.Get("/templates", site.Handler{}.Templates)

		v.Route("/auth", func(a chi.Router) {
			a.Post("/register", authHandler.Register)
			a.Post("/login", authHandler.Login)
			a.Post("/refresh", authHandler.Refresh)
			a.Post("/logout", authHandler.Logout)

			a.Group(func(protected chi.Router) {
				protected.Use(authMiddleware.RequireAuth)
				protected.Get("/me", authHandler.Me)
			})
		})

		// Storefront profile resolved from the request host. Used by customer
		// sites served on their business subdomain.
		v.With(tenantmw.RequireTenant).Get("/site", businessHandler.GetBySite)

		v.Get("/public/businesses/{subdomain}", businessHandler.GetPublic)

		v.Route("/businesses", func(b chi.Router) {
			b.Group(func(owner chi.Router) {
				owner.Use(authMiddleware.RequireAuth)
				owner.Use(auditTrail)
				owner.Post("/", businessHandler.Create)
				owner.Get("/", businessHandler.List)
				owner.Get("/{businessID}", businessHandler.Get)
				owner.Put("/{businessID}", businessHandler.Update)

				owner.Post("/{businessID}/products", catalogHandler.Create)
				owner.Put("/{businessID}/products/{productID}", catalogHandler.Update)
				owner.Delete("/{businessID}/products/{productID}", catalogHandler.Delete)

				owner.Get("/{businessID}/bookings", bookingHandler.List)
				owner.Patch("/{businessID}/bookings/{bookingID}", bookingHandler.UpdateStatus)

				owner.Get("/{businessID}/orders", orderHandler.List)
				owner.Patch("/{businessID}/orders/{orderID}", orderHandler.UpdateStatus)

				owner.Delete("/{businessID}/reviews/{reviewID}", reviewHandler.Delete)

				owner.Get("/{businessID}/analytics", analyticsHandler.Summary)
			})

			// Public storefront surface. Rate limited per client IP, orders
			// additionally accept Idempotency-Key for safe retries.
			b.Get("/{businessID}/products", catalogHandler.List)
			b.Get("/{businessID}/reviews", reviewHandler.List)
			b.Get("/{businessID}/reviews/summary", reviewHandler.Summary)

			b.Group(func(public chi.Router) {
				public.Use(publicLimit.Middleware)
				public.With(idem.Middleware).Post("/{businessID}/orders", orderHandler.Create)
				public.Post("/{businessID}/bookings", bookingHandler.Create)
				public.Post("/{businessID}/reviews", reviewHandler.Create)
			})
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)
			admin.Use(requireRole(authService, auth.RoleAdmin))
			admin.Get("/audit-logs", auditHandler.List)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	health.SetReady(true)
	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-runCtx.Done()

	// Drain: fail readiness first so load balancers stop sending traffic,
	// then let in-flight requests finish.
	health.SetReady(false)
	logger.Info().Msg("shutdown signal received, draining")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), envDurationMillis("SHUTDOWN_TIMEOUT_MS", 10000))
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown incomplete")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func requireRole(svc *auth.Service, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := common.UserID(r.Context())
			if !ok {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "forbidden", nil)
				return
			}
			user, err := svc.Me(r.Context(), userID)
			if err != nil {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "forbidden", nil)
				return
			}
			if user.Role != role {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	return int64(envInt(key, int(fallback)))
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
