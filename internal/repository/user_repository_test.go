package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/perfume-store-api/internal/models"
)

type memSnapshots struct {
	data    map[string][]json.RawMessage
	saveErr error
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{data: make(map[string][]json.RawMessage)}
}

func (m *memSnapshots) Load(_ context.Context, key string) ([]json.RawMessage, error) {
	return m.data[key], nil
}

func (m *memSnapshots) Save(_ context.Context, key string, records []json.RawMessage) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = records
	return nil
}

func TestNormalizeUserDefaults(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	user := NormalizeUser(models.RawUser{Email: "solo@example.com"}, 2, now)

	assert.Equal(t, "3", user.ID)
	assert.Equal(t, "solo@example.com", user.Name)
	assert.Equal(t, "+1 000 000 0000", user.Phone)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, models.StatusActive, user.Status)
	assert.Equal(t, "2026-09-01", user.RegistrationDate)
	assert.Equal(t, "2026-09-01", user.LastLogin)
	assert.Equal(t, AvatarColor(2), user.AvatarColor)
}

func TestNormalizeUserNamePrecedence(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		raw  models.RawUser
		want string
	}{
		{"first and last", models.RawUser{FirstName: "Jane", LastName: "Doe", Username: "jd", Email: "j@x.com"}, "Jane Doe"},
		{"username fallback", models.RawUser{Username: "jd", Email: "j@x.com"}, "jd"},
		{"email fallback", models.RawUser{Email: "j@x.com"}, "j@x.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeUser(tt.raw, 0, now).Name)
		})
	}
}

func TestNormalizeUserDeterminism(t *testing.T) {
	raw := models.RawUser{FirstName: "Jane", LastName: "Doe", Email: "jane@x.com"}
	now := time.Now()

	first := NormalizeUser(raw, 5, now)
	second := NormalizeUser(raw, 5, now)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.AvatarColor, second.AvatarColor)
	assert.Equal(t, first, second)
}

func TestAvatarColorWrapsPalette(t *testing.T) {
	assert.Equal(t, AvatarColor(0), AvatarColor(8))
	assert.NotEqual(t, AvatarColor(0), AvatarColor(1))
}

func TestUserRepositoryRoundTrip(t *testing.T) {
	snapshots := newMemSnapshots()
	repo := NewUserRepository(snapshots, "perfume_users", nil)

	users := []models.User{
		{
			ID:               "1",
			Name:             "Jane Doe",
			Email:            "jane@x.com",
			Phone:            "+1 555 0100",
			Role:             models.RoleAdmin,
			Status:           models.StatusActive,
			RegistrationDate: "2024-01-15",
			LastLogin:        "2024-02-01",
		},
	}
	require.NoError(t, repo.Save(context.Background(), users))

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "1", loaded[0].ID)
	assert.Equal(t, "Jane Doe", loaded[0].Name)
	assert.Equal(t, models.RoleAdmin, loaded[0].Role)
	assert.Equal(t, "2024-01-15", loaded[0].RegistrationDate)
	assert.Equal(t, AvatarColor(0), loaded[0].AvatarColor)
}

func TestUserRepositorySkipsUndecodableRecords(t *testing.T) {
	snapshots := newMemSnapshots()
	snapshots.data["perfume_users"] = []json.RawMessage{
		json.RawMessage(`{"email":"ok@x.com"}`),
		json.RawMessage(`"not an object"`),
	}
	repo := NewUserRepository(snapshots, "perfume_users", nil)

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "ok@x.com", loaded[0].Email)
}

func TestDenormalizeUserSplitsName(t *testing.T) {
	raw := DenormalizeUser(models.User{ID: "1", Name: "Jane van Doe", Email: "j@x.com"})

	assert.Equal(t, "Jane", raw.FirstName)
	assert.Equal(t, "van Doe", raw.LastName)
	assert.Equal(t, "Jane van Doe", raw.Username)

	raw = DenormalizeUser(models.User{ID: "2", Name: "Mononym"})
	assert.Equal(t, "Mononym", raw.FirstName)
	assert.Equal(t, "", raw.LastName)
}
