package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/placepicker/internal/adapters/http"
	"github.com/samirrijal/placepicker/internal/adapters/memory"
	natsadapter "github.com/samirrijal/placepicker/internal/adapters/nats"
	"github.com/samirrijal/placepicker/internal/adapters/position"
	"github.com/samirrijal/placepicker/internal/adapters/postgres"
	"github.com/samirrijal/placepicker/internal/adapters/valkey"
	"github.com/samirrijal/placepicker/internal/catalog"
	"github.com/samirrijal/placepicker/internal/core/domain"
	"github.com/samirrijal/placepicker/internal/core/ports"
	"github.com/samirrijal/placepicker/internal/core/usecases"
	"github.com/samirrijal/placepicker/internal/pkg/config"
	"github.com/samirrijal/placepicker/internal/pkg/logging"
	"github.com/samirrijal/placepicker/internal/pkg/metrics"
	"github.com/samirrijal/placepicker/internal/pkg/telemetry"
)

// storage is a selection medium the readiness probe can ping.
type storage interface {
	ports.KeyValueStore
	Ping(ctx context.Context) error
}

func main() {
	cfg, err := config.Load("placepicker-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Catalog
	places, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	slog.Info("catalog loaded", "places", len(places))

	// Selection storage
	kv, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer closeStorage()

	// NATS
	var (
		events   ports.EventPublisher
		natsConn *nats.Conn
	)
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, selection events disabled", "error", err)
		} else {
			defer pub.Close()
			events = pub
			natsConn = pub.Conn()
		}
	}

	// Observer position: a fixed one from config, or the first report over
	// HTTP or NATS.
	sensor := position.NewOneShot()
	if cfg.Observer.Enabled {
		_ = sensor.Resolve(domain.Coordinate{Lat: cfg.Observer.Lat, Lon: cfg.Observer.Lon})
		slog.Info("using static observer position", "lat", cfg.Observer.Lat, "lon", cfg.Observer.Lon)
	} else if natsConn != nil {
		if err := natsadapter.SubscribePosition(ctx, natsConn, sensor); err != nil {
			slog.Warn("position subscription failed", "error", err)
		}
	}

	// Use cases
	store := usecases.NewSelectionStore(kv, cfg.Storage.Key)
	controller := usecases.NewSelectionController(ctx, places, store, events)
	controller.Start(ctx, sensor)

	deps := &http.Dependencies{
		Places:   controller,
		Position: sensor,
		Storage:  kv,
		NATS:     natsConn,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "PlacePicker API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "storage", cfg.Storage.Backend)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// openStorage connects the configured selection backend. The returned func
// releases it.
func openStorage(ctx context.Context, cfg *config.Config) (storage, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendValkey:
		s, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case config.BackendPostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		go reportPoolStats(ctx, db)
		return postgres.NewKVStore(db), db.Close, nil

	default:
		slog.Warn("selection is kept in memory and will not survive a restart")
		return memory.New(), func() {}, nil
	}
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
