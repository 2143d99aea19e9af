package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestRetryClassification(t *testing.T) {
	wrap := func(code string) error {
		return fmt.Errorf("lock stock level: %w", &pgconn.PgError{Code: code})
	}

	assert.True(t, isRetryable(wrap(codeSerializationFailure)))
	assert.True(t, isRetryable(wrap(codeDeadlockDetected)))
	assert.True(t, isRetryable(wrap(codeLockNotAvailable)))
	assert.False(t, isRetryable(wrap(codeUniqueViolation)))
	assert.False(t, isRetryable(errors.New("otra cosa")))

	assert.True(t, isUniqueViolation(wrap(codeUniqueViolation)))
	assert.False(t, isUniqueViolation(nil))
}
