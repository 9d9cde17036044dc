// Package localstore holds the durable key-value entries the task list
// survives restarts with.
package localstore

import (
	"context"
	"errors"
)

var ErrEmptyKey = errors.New("key required")

// Storage is a small durable key-value store. Get reports ok=false for a
// missing key rather than returning an error.
type Storage interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}
