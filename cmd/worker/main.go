package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/infrastructure/cache"
	"github.com/jhoicas/stockledger/internal/infrastructure/metrics"
	"github.com/jhoicas/stockledger/internal/infrastructure/store"
	"github.com/jhoicas/stockledger/internal/jobs"
	"github.com/jhoicas/stockledger/pkg/config"
	"github.com/jhoicas/stockledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name + "-worker",
	})
	if !cfg.Redis.Enabled() {
		log.Fatal().Msg("el worker requiere REDIS_ADDR")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg, log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer backend.Close()

	rdb, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer rdb.Close()

	queryUC := inventory.NewQueryUseCase(
		backend.TxRunner, backend.Documents, backend.Levels, backend.Ledger,
		metrics.New("stockledger_worker"), log.Zerolog(), cfg.Reconcile.Concurrency,
	)
	reconcile := jobs.NewReconcileHandler(queryUC, cache.NewLocker(rdb), 15*time.Minute, log.Zerolog())

	var cron []jobs.CronRegistration
	if cfg.Reconcile.Cron != "" {
		task, err := jobs.NewReconcileSweepTask(jobs.ReconcileSweepPayload{})
		if err != nil {
			log.Fatal().Err(err).Msg("construir tarea de conciliación")
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.Reconcile.Cron, Task: task, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB},
		Logger:    log.Zerolog(),
		Reconcile: reconcile,
		Cron:      cron,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configurar worker")
	}

	log.Info().Str("cron", cfg.Reconcile.Cron).Msg("worker iniciado")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker finalizado con error")
	}
	log.Info().Msg("worker detenido")
}
