package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/velora-hq/backend-salon/internal/analytics"
	"github.com/velora-hq/backend-salon/internal/audit"
	"github.com/velora-hq/backend-salon/internal/auth"
	"github.com/velora-hq/backend-salon/internal/booking"
	"github.com/velora-hq/backend-salon/internal/cart"
	"github.com/velora-hq/backend-salon/internal/catalog"
	"github.com/velora-hq/backend-salon/internal/common"
	"github.com/velora-hq/backend-salon/internal/config"
	"github.com/velora-hq/backend-salon/internal/coupon"
	"github.com/velora-hq/backend-salon/internal/events"
	"github.com/velora-hq/backend-salon/internal/favorites"
	"github.com/velora-hq/backend-salon/internal/health"
	"github.com/velora-hq/backend-salon/internal/notify"
	"github.com/velora-hq/backend-salon/internal/obs"
	"github.com/velora-hq/backend-salon/internal/order"
	"github.com/velora-hq/backend-salon/internal/ratelimit"
	"github.com/velora-hq/backend-salon/internal/security"
)

// accessCookieName is the cookie browser clients authenticate with. Requests
// that carry it are subject to CSRF double-submit checks.
const accessCookieName = "access_token"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "salon-api",
			Endpoint:      cfg.TracingEndpoint,
			Exporter:      "otlp",
			SamplingRatio: cfg.TracingSampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "salon-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	asynqOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}
	taskClient := asynq.NewClient(asynqOpt)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	catalogStore := &catalog.Store{DB: pool}
	catalogCache := catalog.NewCache(redisClient, cfg.CatalogCacheTTL)
	catalogSvc, err := catalog.NewService(catalog.ServiceConfig{Queries: catalogStore, Cache: catalogCache})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogSvc})
	catalogAdmin := &catalog.AdminHandler{Store: catalogStore, Cache: catalogCache}

	couponStore := &coupon.Store{DB: pool}
	couponSvc := &coupon.Service{Store: couponStore}
	couponHandler := &coupon.Handler{Svc: couponSvc, Store: couponStore}

	cartSvc := &cart.Service{
		Store:   &cart.Store{R: redisClient, TTL: cfg.CartTTL},
		Catalog: catalogSvc,
		Coupons: couponSvc,
	}
	cartHandler := &cart.Handler{Svc: cartSvc}

	bus := &events.Bus{Store: &events.PGStore{DB: pool}}

	orderStore := &order.Store{DB: pool}
	orderHandler := &order.Handler{Store: orderStore, Bus: bus}
	orderAdmin := &order.AdminHandler{Store: orderStore, Bus: bus}

	bookingSvc := &booking.Service{
		Carts:    cartSvc,
		Orders:   orderStore,
		Bus:      bus,
		Queue:    &notify.Queue{Client: taskClient},
		Validate: validator.New(),
	}
	bookingHandler := &booking.Handler{Svc: bookingSvc}

	favoritesHandler := &favorites.Handler{Svc: &favorites.Service{R: redisClient}}

	auditSvc := &audit.Service{Store: &audit.PGStore{DB: pool}, Enabled: true}
	auditRecorder := audit.HTTPRecorder{
		Service: auditSvc,
		OnError: func(err error) { logger.Error().Err(err).Msg("record audit log") },
	}
	auditHandler := audit.Handler{Store: auditSvc.Store}

	analyticsSvc := &analytics.Service{
		Q:   &analytics.Store{DB: pool},
		R:   redisClient,
		TTL: cfg.AnalyticsCacheTTL,
	}
	analyticsHandler := &analytics.Handler{Svc: analyticsSvc}

	authMiddleware := auth.Middleware{
		Verifier: auth.Verifier{
			Secret: []byte(cfg.JWTSecret),
			Validator: auth.TokenValidator{
				Issuer:    cfg.JWTIssuer,
				Audience:  cfg.JWTAudience,
				ClockSkew: 30 * time.Second,
				Algorithm: jwa.HS256,
			},
		},
		AccessCookie: accessCookieName,
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	couponLimiter, err := ratelimit.NewRedisLimiter(redisClient, cfg.CouponApplyLimit, cfg.CouponApplyWindow, "rl:coupon")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise coupon rate limiter")
	}
	couponLimit := ratelimit.Handler{
		Limiter: couponLimiter,
		OnError: func(err error) { logger.Error().Err(err).Msg("coupon rate limiter") },
	}

	httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(""), nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(security.CSRF{AuthCookie: accessCookieName}.Middleware)

	r.Handle("/metrics", promhttp.Handler())
	if envBool("OBS_ENABLE_PPROF", false) {
		user := os.Getenv("SECURE_PPROF_BASIC_AUTH_USER")
		pass := os.Getenv("SECURE_PPROF_BASIC_AUTH_PASS")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{Checker: health.Probes{Pool: pool, Redis: redisClient}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(authMiddleware.Authenticate)

		v.Get("/services", catalogHandler.Services)
		v.Get("/services/{id}", catalogHandler.ServiceDetail)
		v.Get("/packages", catalogHandler.Packages)
		v.Get("/packages/{id}", catalogHandler.PackageDetail)
		v.Get("/categories", catalogHandler.Categories)
		v.Get("/testimonials", catalogHandler.Testimonials)
		v.Get("/offers", couponHandler.ListOffers)

		v.Route("/carts", func(c chi.Router) {
			c.Post("/", cartHandler.Ensure)
			c.Get("/{id}", cartHandler.Get)
			c.Post("/{id}/items", cartHandler.AddItem)
			c.Patch("/{id}/items/{itemId}", cartHandler.UpdateQty)
			c.Delete("/{id}/items/{itemId}", cartHandler.RemoveItem)
			c.With(couponLimit.Middleware).Post("/{id}/apply-coupon", cartHandler.ApplyCoupon)
			c.Delete("/{id}/coupon", cartHandler.RemoveCoupon)
		})

		v.With(idem.Middleware).Post("/bookings", bookingHandler.Submit)

		v.Group(func(authR chi.Router) {
			authR.Use(authMiddleware.RequireAuth)
			authR.Get("/me/favorites", favoritesHandler.List)
			authR.Put("/me/favorites/{kind}/{id}", favoritesHandler.Add)
			authR.Delete("/me/favorites/{kind}/{id}", favoritesHandler.Remove)
			authR.Get("/orders", orderHandler.List)
			authR.Get("/orders/{id}", orderHandler.Get)
			authR.Post("/orders/{id}/cancel", orderHandler.Cancel)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)
			admin.Use(authMiddleware.RequireRole("admin"))
			admin.Use(auditRecorder.Middleware(audit.HTTPConfig{ResourceIDParam: "id"}))

			admin.Post("/services", catalogAdmin.CreateService)
			admin.Put("/services/{id}", catalogAdmin.UpdateService)
			admin.Delete("/services/{id}", catalogAdmin.DeleteService)
			admin.Post("/packages", catalogAdmin.CreatePackage)
			admin.Delete("/packages/{id}", catalogAdmin.DeletePackage)
			admin.Post("/testimonials", catalogAdmin.CreateTestimonial)
			admin.Delete("/testimonials/{id}", catalogAdmin.DeleteTestimonial)

			admin.Post("/coupons", couponHandler.Create)
			admin.Put("/coupons/{id}", couponHandler.Update)
			admin.Delete("/coupons/{id}", couponHandler.Delete)

			admin.Get("/audit-logs", auditHandler.List)

			admin.Get("/orders", orderAdmin.List)
			admin.Patch("/orders/{id}/status", orderAdmin.PatchStatus)

			admin.Route("/analytics", func(an chi.Router) {
				an.Get("/overview", analyticsHandler.Overview)
				an.Get("/bookings", analyticsHandler.Bookings)
				an.Get("/top-services", analyticsHandler.TopServices)
			})
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-runCtx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	}
	return fallback
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
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
