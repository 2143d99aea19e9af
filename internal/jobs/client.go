package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Client encola tareas.
type Client struct {
	client *asynq.Client
}

// NewClient construye el cliente asynq.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// Close libera la conexión.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueReconcileSweep encola un barrido de conciliación bajo demanda.
func (c *Client) EnqueueReconcileSweep(ctx context.Context, requestedBy int64) (*asynq.TaskInfo, error) {
	payload := ReconcileSweepPayload{RequestedBy: requestedBy, RequestID: uuid.NewString()}
	task, err := NewReconcileSweepTask(payload)
	if err != nil {
		return nil, err
	}
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.TaskID(payload.RequestID),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return nil, fmt.Errorf("jobs: encolar barrido: %w", err)
	}
	return info, nil
}
