package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionError(t *testing.T) {
	cause := fmt.Errorf("failed to ping MongoDB: %w", context.DeadlineExceeded)
	err := error(&ConnectionError{Endpoint: "mongodb://testhost/db", Err: cause})

	assert.ErrorIs(t, err, ErrConnectionFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrNotConnected)
	assert.Contains(t, err.Error(), "mongodb://testhost/db")
	assert.Contains(t, err.Error(), "context deadline exceeded")

	var connErr *ConnectionError
	assert.True(t, errors.As(fmt.Errorf("bootstrap: %w", err), &connErr))
	assert.Equal(t, cause, connErr.Err)
}
