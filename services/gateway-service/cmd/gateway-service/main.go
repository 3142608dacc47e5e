package main

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ApexDigital-Tech/Coonecta-consultores/libs/auth"
	"github.com/ApexDigital-Tech/Coonecta-consultores/libs/config"
	"github.com/ApexDigital-Tech/Coonecta-consultores/libs/httpx"
	otelx "github.com/ApexDigital-Tech/Coonecta-consultores/libs/otel"
	"github.com/ApexDigital-Tech/Coonecta-consultores/libs/runtime"
)

func main() {
	_ = godotenv.Load()

	service := config.String("SERVICE_NAME", "gateway-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	// Tokens from the identity provider and from the agenda service's
	// fallback login are both accepted at the edge.
	secrets := tokenSecrets(
		config.String("SUPABASE_JWT_SECRET", ""),
		config.String("SESSION_SECRET", ""),
	)
	if len(secrets) == 0 {
		logger.Warn("no token secrets configured; admin routes will reject everything")
	}

	mux := runtime.NewBaseMuxWithReady()
	registerRoutes(mux, secrets)

	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 60)
	var rateLimitMW httpx.Middleware
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods:   config.List("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS"),
			AllowedHeaders:   config.List("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id"),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           time.Duration(config.Int("CORS_MAX_AGE_SECONDS", 600)) * time.Second,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))),
		httpx.WithTimeout(time.Duration(config.Int("REQUEST_TIMEOUT_SECONDS", 10))*time.Second),
		rateLimitMW,
	)
	handler = otelhttp.NewHandler(handler, "gateway")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func tokenSecrets(secrets ...string) []string {
	out := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func registerRoutes(mux *http.ServeMux, secrets []string) {
	agendaURL := mustParseURL(config.String("AGENDA_URL", "http://agenda-service:8084"))

	agendaProxy := httputil.NewSingleHostReverseProxy(agendaURL)
	agendaProxy.Transport = otelhttp.NewTransport(http.DefaultTransport)

	// The widget, voice webhook and fallback login stay open; the rate
	// limiter is their only throttle.
	registerProxy(mux, "/api/v1/public", agendaProxy)
	registerProxy(mux, "/api/v1/auth", agendaProxy)

	adminProxy := requireAuth(requireRole(agendaProxy, "admin"), secrets)
	registerProxy(mux, "/api/v1/appointments", adminProxy)
	registerProxy(mux, "/api/v1/calendar", adminProxy)
}

func registerProxy(mux *http.ServeMux, prefix string, handler http.Handler) {
	if !strings.HasSuffix(prefix, "/") {
		mux.Handle(prefix, handler)
		mux.Handle(prefix+"/", handler)
		return
	}
	mux.Handle(prefix, handler)
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

func requireAuth(next http.Handler, secrets []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || len(strings.TrimSpace(authHeader)) <= len("Bearer ") {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		var claims *auth.Claims
		for _, secret := range secrets {
			c, err := auth.ParseAndVerifyHS256(token, secret)
			if err == nil {
				claims = c
				break
			}
		}
		if claims == nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		role := claims.Role
		if role == "" {
			// Provider tokens carry no role claim; authenticated means admin
			// in this back-office.
			role = "admin"
		}
		r.Header.Del("X-User-Id")
		r.Header.Del("X-Email")
		r.Header.Del("X-Role")
		r.Header.Set("X-User-Id", claims.Sub)
		r.Header.Set("X-Email", claims.Email)
		r.Header.Set("X-Role", role)
		next.ServeHTTP(w, r)
	})
}

func requireRole(next http.Handler, roles ...string) http.Handler {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := r.Header.Get("X-Role")
		if _, ok := allowed[role]; !ok {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
