// Package store selecciona el driver de persistencia (postgres o memoria) según la configuración.
package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/jhoicas/stockledger/internal/infrastructure/memory"
	"github.com/jhoicas/stockledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stockledger/pkg/config"
)

// Backend puertos listos para construir los casos de uso.
type Backend struct {
	TxRunner   inventory.TxRunner
	MasterData repository.MasterDataRepository
	Documents  repository.DocumentRepository
	Levels     repository.StockLevelRepository
	Ledger     repository.StockLedgerRepository
	Ping       func(ctx context.Context) error
	Close      func()
}

// Open abre el driver configurado. Con postgres y DB_AUTO_MIGRATE aplica el esquema embebido.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, error) {
	switch cfg.App.StoreDriver {
	case config.StoreDriverMemory:
		s := memory.NewStore()
		memory.SeedDemo(s)
		log.Warn().Msg("driver en memoria: los datos se pierden al reiniciar")
		return &Backend{
			TxRunner:   memory.NewTxRunner(s),
			MasterData: s.MasterData(),
			Documents:  s.Documents(),
			Levels:     s.StockLevels(),
			Ledger:     s.Ledger(),
			Ping:       func(context.Context) error { return nil },
			Close:      func() {},
		}, nil

	case config.StoreDriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			log.Info().Msg("esquema aplicado")
		}
		return &Backend{
			TxRunner:   postgres.NewTxRunner(pool, cfg.DB.TxMaxRetries, log),
			MasterData: postgres.NewMasterDataRepository(pool),
			Documents:  postgres.NewDocumentRepository(pool),
			Levels:     postgres.NewStockLevelRepository(pool),
			Ledger:     postgres.NewStockLedgerRepository(pool),
			Ping:       pool.Ping,
			Close:      pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("store: driver %q no soportado", cfg.App.StoreDriver)
}
