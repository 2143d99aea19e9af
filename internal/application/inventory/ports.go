package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción de BD.
// MasterData usa la misma conexión: dentro de la tx no se toma otra del pool.
type TxRepos struct {
	Documents  repository.DocumentRepository
	Sequences  repository.DocumentSequenceRepository
	Levels     repository.StockLevelRepository
	Ledger     repository.StockLedgerRepository
	MasterData repository.MasterDataRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario: Commit si fn devuelve nil, Rollback en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error
	// RunSnapshot ejecuta fn de solo lectura sobre una foto consistente (conciliación).
	RunSnapshot(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error
}

// PostingObserver recibe eventos del motor (métricas). Las implementaciones no deben bloquear.
type PostingObserver interface {
	DocumentTransitioned(docType entity.DocType, to entity.DocStatus)
	DocumentPosted(docType entity.DocType, ledgerRows int, elapsed time.Duration)
	TransitionRejected(docType entity.DocType, to entity.DocStatus, reason string)
	ReconcileCompleted(checked, discrepancies int)
}

type noopObserver struct{}

func (noopObserver) DocumentTransitioned(entity.DocType, entity.DocStatus) {}
func (noopObserver) DocumentPosted(entity.DocType, int, time.Duration) {}
func (noopObserver) TransitionRejected(entity.DocType, entity.DocStatus, string) {}
func (noopObserver) ReconcileCompleted(int, int) {}
