// Package store provides the session-scoped key-value back-ends that hold
// the wizard snapshot and the long-lived branding selection.
package store

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("store: key not found")

// GlobalScope is the scope for values that outlive a session.
const GlobalScope = "global"

// KeyValue is a durable string-keyed byte store bound to one scope.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// InvalidKeyError is returned for empty or unusable keys.
type InvalidKeyError struct {
	Key string
}

func (e *InvalidKeyError) Error() string {
	return "invalid store key: " + e.Key
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return &InvalidKeyError{Key: key}
	}
	return nil
}
