package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ApexDigital-Tech/Coonecta-consultores/libs/config"
	"github.com/ApexDigital-Tech/Coonecta-consultores/libs/db"
	"github.com/ApexDigital-Tech/Coonecta-consultores/libs/httpx"
	"github.com/ApexDigital-Tech/Coonecta-consultores/libs/kafkax"
	otelx "github.com/ApexDigital-Tech/Coonecta-consultores/libs/otel"
	"github.com/ApexDigital-Tech/Coonecta-consultores/libs/redisx"
	"github.com/ApexDigital-Tech/Coonecta-consultores/libs/runtime"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/booking"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/cache"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/consumer"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/handlers"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/inbox"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/notify"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/outbox"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/session"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/storage"
)

func main() {
	_ = godotenv.Load()

	service := config.String("SERVICE_NAME", "agenda-service")
	port, err := config.Port("PORT", "8084")
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

	loc, err := time.LoadLocation(config.String("AGENDA_TIMEZONE", "America/Santiago"))
	if err != nil {
		logger.Warn("invalid timezone, using local", "err", err)
		loc = time.Local
	}

	// Redis carries the best-effort change hints, the month-count cache and
	// nothing else; the service degrades to no-op versions without it.
	var bus notify.Bus = notify.NoopBus{}
	var months *cache.MonthCounts
	readyChecks := []runtime.ReadyCheck{}
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb, err := redisx.Open(ctx, addr, config.String("REDIS_PASSWORD", ""), config.Int("REDIS_DB", 0))
		if err != nil {
			logger.Error("redis connection failed", "err", err)
			panic(err)
		}
		defer rdb.Close()
		bus = notify.NewRedisBus(rdb, "", logger)
		months = cache.NewMonthCounts(rdb, time.Duration(config.Int("MONTH_CACHE_TTL_SECONDS", 300))*time.Second, logger)
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: redisx.ReadyCheck(rdb)})
	}

	var repo storage.Repository
	backend := config.String("STORAGE_BACKEND", "supabase")
	switch backend {
	case "postgres":
		dbURL, err := config.RequiredString("DATABASE_URL")
		if err != nil {
			panic(err)
		}
		pool, err := db.Open(ctx, dbURL)
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

		outboxRepo := outbox.NewRepository(pool)
		repo = storage.NewPostgresRepository(pool, outboxRepo, loc)

		brokers := config.String("KAFKA_BROKERS", "")
		if brokers != "" {
			readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})

			publisher := outbox.NewPublisher(outboxRepo, logger, outbox.PublisherConfig{
				Brokers:   brokers,
				PollEvery: 2 * time.Second,
				BatchSize: 50,
			})
			go publisher.Run(ctx)

			// The consumer closes the loop: every durable appointment event
			// flushes the month cache and re-emits the Redis hint, so a
			// view that missed the original fire-and-forget hint converges
			// once the event lands.
			inboxRepo := inbox.NewRepository(pool)
			eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
				Brokers: brokers,
				GroupID: config.String("KAFKA_GROUP_ID", "agenda-service"),
				Topic:   outbox.TopicAppointmentSaved,
			}, func(ctx context.Context, msg kafka.Message) error {
				var evt outbox.AppointmentSaved
				if err := json.Unmarshal(msg.Value, &evt); err != nil {
					logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
					return nil
				}
				months.Invalidate(ctx)
				if err := bus.Publish(ctx, notify.EventAppointmentSaved); err != nil {
					logger.Warn("change hint publish failed", "err", err)
				}
				return nil
			})
			go eventConsumer.Run(ctx)
		}
	case "supabase":
		url, err := config.RequiredString("SUPABASE_URL")
		if err != nil {
			panic(err)
		}
		key, err := config.RequiredString("SUPABASE_SERVICE_KEY")
		if err != nil {
			panic(err)
		}
		repo, err = storage.NewSupabaseRepository(url, key, loc)
		if err != nil {
			logger.Error("supabase client failed", "err", err)
			panic(err)
		}
	default:
		logger.Error("unknown storage backend", "backend", backend)
		panic("unknown STORAGE_BACKEND: " + backend)
	}

	sessions := session.NewService(session.Config{
		ProviderSecret: config.String("SUPABASE_JWT_SECRET", ""),
		LocalSecret:    config.String("SESSION_SECRET", ""),
		AdminEmail:     config.String("ADMIN_EMAIL", ""),
		AdminHash:      config.String("ADMIN_PASSWORD_HASH", ""),
		TokenTTL:       time.Duration(config.Int("SESSION_TTL_HOURS", 12)) * time.Hour,
		Bus:            bus,
	})

	writer := booking.NewWriter(repo, bus, logger, loc, config.Bool("BOOKING_GUARD_SLOTS", false))

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	authed := session.RequireAuth(sessions)
	handlers.NewPublicHandler(writer, logger).Register(mux)
	handlers.NewAuthHandler(sessions, logger).Register(mux)
	handlers.NewAdminHandler(repo, writer, logger).Register(mux, authed)
	handlers.NewCalendarHandler(repo, months, logger, loc).Register(mux, authed)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("MAX_BODY_BYTES", 1<<20))),
		httpx.WithTimeout(15*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "agenda")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
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
