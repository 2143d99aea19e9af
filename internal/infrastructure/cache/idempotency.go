package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRequestInProgress otra petición con la misma clave aún no termina.
var ErrRequestInProgress = errors.New("cache: petición con la misma Idempotency-Key en curso")

const statusPending = "pending"

// StoredResponse respuesta guardada para repetir ante reintentos con la misma clave.
type StoredResponse struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code,omitempty"`
	Body       []byte `json:"body,omitempty"`
}

// IdempotencyStore reserva claves con SETNX y guarda la respuesta final durante ttl.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewIdempotencyStore construye el almacén. prefix separa espacios de claves (p. ej. "stockledger:idem").
func NewIdempotencyStore(client *redis.Client, prefix string, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, prefix: prefix, ttl: ttl}
}

// Begin reserva la clave. Si ya existía una respuesta completa la devuelve (replay);
// si la reserva previa sigue pendiente devuelve ErrRequestInProgress.
func (s *IdempotencyStore) Begin(ctx context.Context, key string) (*StoredResponse, error) {
	pending, err := json.Marshal(StoredResponse{Status: statusPending})
	if err != nil {
		return nil, err
	}
	ok, err := s.client.SetNX(ctx, s.key(key), pending, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("cache: reservar clave: %w", err)
	}
	if ok {
		return nil, nil
	}

	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// expiró entre SETNX y GET
			return s.Begin(ctx, key)
		}
		return nil, fmt.Errorf("cache: leer clave: %w", err)
	}
	var stored StoredResponse
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("cache: decodificar respuesta: %w", err)
	}
	if stored.Status == statusPending {
		return nil, ErrRequestInProgress
	}
	return &stored, nil
}

// Complete guarda la respuesta final asociada a la clave.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, statusCode int, body []byte) error {
	raw, err := json.Marshal(StoredResponse{Status: "done", StatusCode: statusCode, Body: body})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache: guardar respuesta: %w", err)
	}
	return nil
}

// Release libera la reserva para que el cliente pueda reintentar (errores no deterministas).
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("cache: liberar clave: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(k string) string {
	return s.prefix + ":" + k
}
