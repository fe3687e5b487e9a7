package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerScheduleFires(t *testing.T) {
	r := NewRunner(nil)
	defer r.Shutdown()

	var fired atomic.Bool
	require.True(t, r.Schedule("k", 5*time.Millisecond, func(context.Context) {
		fired.Store(true)
	}))
	assert.True(t, r.Pending("k"))

	require.Eventually(t, fired.Load, time.Second, time.Millisecond)
	assert.False(t, r.Pending("k"), "fired task is no longer pending")
}

func TestRunnerDuplicateKeyRejected(t *testing.T) {
	r := NewRunner(nil)
	defer r.Shutdown()

	require.True(t, r.Schedule("k", time.Hour, func(context.Context) {}))
	assert.False(t, r.Schedule("k", time.Hour, func(context.Context) {}))
}

func TestRunnerCancelPreventsFiring(t *testing.T) {
	r := NewRunner(nil)
	defer r.Shutdown()

	var fired atomic.Bool
	require.True(t, r.Schedule("k", 20*time.Millisecond, func(context.Context) {
		fired.Store(true)
	}))
	require.True(t, r.Cancel("k"))
	assert.False(t, r.Pending("k"))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired.Load(), "cancelled task must not fire")

	// The key is free for rescheduling.
	require.True(t, r.Schedule("k", time.Hour, func(context.Context) {}))
}

func TestRunnerCancelUnknownKey(t *testing.T) {
	r := NewRunner(nil)
	defer r.Shutdown()

	assert.False(t, r.Cancel("missing"))
}

func TestRunnerShutdownStopsPending(t *testing.T) {
	r := NewRunner(nil)

	var fired atomic.Bool
	require.True(t, r.Schedule("k", 50*time.Millisecond, func(context.Context) {
		fired.Store(true)
	}))

	r.Shutdown()
	time.Sleep(80 * time.Millisecond)
	assert.False(t, fired.Load())
}
