package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Observer receives the latency of every snapshot and KV operation.
type Observer interface {
	ObserveStoreOp(operation, key string, duration time.Duration)
}

// Instrument wraps a store so each operation reports its latency to the
// observer. Snapshot keys are recorded as-is; KV keys are reduced to their
// prefix to keep label cardinality bounded.
func Instrument(s Store, obs Observer) Store {
	return &instrumented{next: s, obs: obs}
}

type instrumented struct {
	next Store
	obs  Observer
}

func (i *instrumented) Load(ctx context.Context, key string) ([]json.RawMessage, error) {
	defer i.observe("snapshot_load", key, time.Now())
	return i.next.Load(ctx, key)
}

func (i *instrumented) Save(ctx context.Context, key string, records []json.RawMessage) error {
	defer i.observe("snapshot_save", key, time.Now())
	return i.next.Save(ctx, key, records)
}

func (i *instrumented) Get(ctx context.Context, key string) (string, error) {
	defer i.observe("kv_get", kvLabel(key), time.Now())
	return i.next.Get(ctx, key)
}

func (i *instrumented) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	defer i.observe("kv_set", kvLabel(key), time.Now())
	return i.next.SetWithTTL(ctx, key, value, ttl)
}

func (i *instrumented) Delete(ctx context.Context, key string) error {
	defer i.observe("kv_delete", kvLabel(key), time.Now())
	return i.next.Delete(ctx, key)
}

func (i *instrumented) observe(operation, key string, start time.Time) {
	i.obs.ObserveStoreOp(operation, key, time.Since(start))
}

// kvLabel strips the per-entity suffix from a KV key, e.g. "otp:+1555..."
// reports as "otp".
func kvLabel(key string) string {
	if idx := strings.IndexByte(key, ':'); idx > 0 {
		return key[:idx]
	}
	return key
}
