package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCenterPublishAndRecent(t *testing.T) {
	c := NewCenter(3*time.Second, nil)
	current := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Publish("User added successfully!")
	c.Publish("User deleted successfully!")

	recent := c.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "User added successfully!", recent[0].Message)
	assert.NotEmpty(t, recent[0].ID)
	assert.Equal(t, current.Add(3*time.Second), recent[0].ExpiresAt)
}

func TestCenterAutoDismiss(t *testing.T) {
	c := NewCenter(3*time.Second, nil)
	current := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Publish("first")
	current = current.Add(2 * time.Second)
	c.Publish("second")

	current = current.Add(2 * time.Second)
	recent := c.Recent()
	require.Len(t, recent, 1, "first message dismissed after its TTL")
	assert.Equal(t, "second", recent[0].Message)

	current = current.Add(2 * time.Second)
	assert.Empty(t, c.Recent())
}

func TestCenterOnPublishHook(t *testing.T) {
	c := NewCenter(3*time.Second, nil)

	var fired int
	c.OnPublish(func() { fired++ })

	c.Publish("first")
	c.Publish("second")
	assert.Equal(t, 2, fired, "hook runs once per publish")

	c.Recent()
	assert.Equal(t, 2, fired, "reads do not fire the hook")
}

func TestCenterDefaultTTL(t *testing.T) {
	c := NewCenter(0, nil)
	assert.Equal(t, 3*time.Second, c.ttl)
}
