package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notification is a transient message describing a completed state change.
// Messages auto-dismiss: they drop out of Recent once their TTL elapses.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier is the channel mutations report their outcome on.
type Notifier interface {
	Publish(message string)
}

// Center retains published notifications until they expire.
type Center struct {
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	hook func()

	mu      sync.Mutex
	entries []Notification
}

// NewCenter builds a notification center with the given auto-dismiss TTL.
func NewCenter(ttl time.Duration, logger *zap.Logger) *Center {
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Center{ttl: ttl, logger: logger, now: time.Now}
}

// OnPublish registers a callback invoked once per published notification.
// Must be called before the center starts receiving publishes.
func (c *Center) OnPublish(fn func()) {
	c.hook = fn
}

// Publish stamps and retains a notification.
func (c *Center) Publish(message string) {
	now := c.now().UTC()
	n := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	c.prune(now)
	c.entries = append(c.entries, n)
	c.mu.Unlock()

	if c.hook != nil {
		c.hook()
	}
	c.logger.Info("notification", zap.String("message", message))
}

// Recent returns the notifications that have not auto-dismissed yet, newest
// last.
func (c *Center) Recent() []Notification {
	now := c.now().UTC()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune(now)

	out := make([]Notification, len(c.entries))
	copy(out, c.entries)
	return out
}

// prune drops expired entries. Caller must hold the mutex.
func (c *Center) prune(now time.Time) {
	kept := c.entries[:0]
	for _, n := range c.entries {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	c.entries = kept
}
