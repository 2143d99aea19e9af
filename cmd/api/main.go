package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"

	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/infrastructure/cache"
	"github.com/jhoicas/stockledger/internal/infrastructure/metrics"
	"github.com/jhoicas/stockledger/internal/infrastructure/store"
	httpRouter "github.com/jhoicas/stockledger/internal/interfaces/http"
	"github.com/jhoicas/stockledger/internal/jobs"
	"github.com/jhoicas/stockledger/pkg/config"
	"github.com/jhoicas/stockledger/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("store", cfg.App.StoreDriver).
		Msg("iniciando API")

	ctx := context.Background()
	backend, err := store.Open(ctx, cfg, log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer backend.Close()

	m := metrics.New("stockledger")
	documentUC := inventory.NewDocumentUseCase(backend.TxRunner, backend.MasterData, backend.Documents, m, log.Zerolog())
	queryUC := inventory.NewQueryUseCase(backend.TxRunner, backend.Documents, backend.Levels, backend.Ledger, m, log.Zerolog(), cfg.Reconcile.Concurrency)

	deps := httpRouter.RouterDeps{
		Documents: documentUC,
		Queries:   queryUC,
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
		Logger:    log.Zerolog(),
	}

	// Redis es opcional: sin REDIS_ADDR no hay Idempotency-Key ni barridos bajo demanda.
	if cfg.Redis.Enabled() {
		rdb, err := cache.New(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		ttl := time.Duration(cfg.Idempotency.TTLMinutes) * time.Minute
		deps.Idempotency = cache.NewIdempotencyStore(rdb, cfg.App.Name+":idem", ttl)

		jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer jobClient.Close()
		deps.Sweeps = jobClient
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: idempotencia y barridos encolados deshabilitados")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Zerolog()))
	app.Use(m.Middleware())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Stock Ledger API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.App.StoreDriver}
		if err := backend.Ping(c.Context()); err != nil {
			status["status"] = "degraded"
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
		return c.JSON(status)
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
