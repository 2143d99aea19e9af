package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault cola por defecto de los trabajos en segundo plano.
	QueueDefault = "default"
	// TaskReconcileSweep concilia todos los pares (producto, ubicación) contra el libro.
	TaskReconcileSweep = "inventory:reconcile_sweep"
)

// ReconcileSweepPayload datos del barrido. Vacío cuando lo dispara el scheduler.
type ReconcileSweepPayload struct {
	RequestedBy int64  `json:"requested_by,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// NewReconcileSweepTask construye la tarea asynq.
func NewReconcileSweepTask(payload ReconcileSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcileSweep, data), nil
}
