package inventory

import (
	"fmt"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// forward secuencia lineal del ciclo de vida: draft → waiting → ready → done.
var forward = map[entity.DocStatus]entity.DocStatus{
	entity.StatusDraft:   entity.StatusWaiting,
	entity.StatusWaiting: entity.StatusReady,
	entity.StatusReady:   entity.StatusDone,
}

// NextStatus devuelve el siguiente estado en la secuencia lineal, si existe.
func NextStatus(from entity.DocStatus) (entity.DocStatus, bool) {
	next, ok := forward[from]
	return next, ok
}

// CheckTransition valida que from → to sea un paso adelante o una cancelación desde un estado no terminal.
// Cualquier otra arista (incluido saltar estados o salir de done/canceled) es ErrInvalidTransition.
func CheckTransition(from, to entity.DocStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: estado destino %q desconocido", domain.ErrInvalidTransition, to)
	}
	if from.Terminal() {
		return fmt.Errorf("%w: %s es terminal", domain.ErrInvalidTransition, from)
	}
	if to == entity.StatusCanceled {
		return nil
	}
	if next, ok := forward[from]; ok && next == to {
		return nil
	}
	return fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, from, to)
}

// CheckEditable valida que las líneas del documento puedan modificarse (solo en draft).
func CheckEditable(status entity.DocStatus) error {
	switch {
	case status == entity.StatusDraft:
		return nil
	case status.Terminal():
		return fmt.Errorf("%w: estado %s", domain.ErrImmutableDocument, status)
	default:
		return fmt.Errorf("%w: estado %s", domain.ErrInvalidState, status)
	}
}
