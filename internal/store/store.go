// Package store provides the durable key-value persistence layer backing the
// entity collections. Values under snapshot keys are JSON-encoded arrays of
// raw records; the store performs no schema validation on them.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrKVMiss signals an absent or expired KV entry.
var ErrKVMiss = errors.New("store: key not found")

// Snapshots persists whole collections as array-of-record values. Load never
// fails on malformed stored content: the snapshot is treated as empty and the
// problem is logged, so a corrupt store cannot crash a caller.
type Snapshots interface {
	Load(ctx context.Context, key string) ([]json.RawMessage, error)
	Save(ctx context.Context, key string, records []json.RawMessage) error
}

// KV stores short-lived string entries (verification codes, refresh tokens).
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Store combines both persistence surfaces.
type Store interface {
	Snapshots
	KV
}
