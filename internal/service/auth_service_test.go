package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/perfume-store-api/internal/models"
	"github.com/noah-isme/perfume-store-api/internal/store"
	"github.com/noah-isme/perfume-store-api/pkg/config"
	appErrors "github.com/noah-isme/perfume-store-api/pkg/errors"
)

type mockKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockKV() *mockKV {
	return &mockKV{data: make(map[string]string)}
}

func (m *mockKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return "", store.ErrKVMiss
	}
	return value, nil
}

func (m *mockKV) SetWithTTL(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type mockAccounts struct {
	users      map[string]*models.User
	lastLogins []string
}

func newMockAccounts(users ...*models.User) *mockAccounts {
	m := &mockAccounts{users: make(map[string]*models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockAccounts) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockAccounts) FindByID(_ context.Context, id string) (*models.User, error) {
	return m.users[id], nil
}

func (m *mockAccounts) CreateAccount(_ context.Context, username, email, phone, passwordHash string) (*models.User, error) {
	user := &models.User{
		ID: "10", Name: username, Username: username, Email: email, Phone: phone,
		Role: models.RoleUser, Status: models.StatusActive, PasswordHash: passwordHash,
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *mockAccounts) TouchLastLogin(_ context.Context, id string) error {
	m.lastLogins = append(m.lastLogins, id)
	return nil
}

func jwtTestConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test_secret",
		Expiration:        time.Hour,
		RefreshExpiration: 24 * time.Hour,
		Issuer:            "perfume-store-api",
	}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthServiceLogin(t *testing.T) {
	accounts := newMockAccounts(&models.User{
		ID: "1", Name: "Alice", Email: "alice@example.com",
		Role: models.RoleAdmin, Status: models.StatusActive,
		PasswordHash: hashPassword(t, "secret123"),
	})
	svc := NewAuthService(accounts, newMockKV(), jwtTestConfig(), nil, nil)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "alice@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "1", resp.User.ID)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	assert.Equal(t, []string{"1"}, accounts.lastLogins)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	accounts := newMockAccounts(&models.User{
		ID: "1", Email: "alice@example.com", Status: models.StatusActive,
		PasswordHash: hashPassword(t, "secret123"),
	})
	svc := NewAuthService(accounts, newMockKV(), jwtTestConfig(), nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "alice@example.com", Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(newMockAccounts(), newMockKV(), jwtTestConfig(), nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "ghost@example.com", Password: "whatever",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	accounts := newMockAccounts(&models.User{
		ID: "1", Email: "alice@example.com", Status: models.StatusSuspended,
		PasswordHash: hashPassword(t, "secret123"),
	})
	svc := NewAuthService(accounts, newMockKV(), jwtTestConfig(), nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "alice@example.com", Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegister(t *testing.T) {
	accounts := newMockAccounts()
	svc := NewAuthService(accounts, newMockKV(), jwtTestConfig(), nil, nil)

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "newbie", Email: "new@example.com", Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "newbie", resp.User.Name)
	assert.NotEmpty(t, resp.AccessToken)

	created := accounts.users["10"]
	require.NotNil(t, created)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret123")))
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	accounts := newMockAccounts(&models.User{ID: "1", Email: "taken@example.com"})
	svc := NewAuthService(accounts, newMockKV(), jwtTestConfig(), nil, nil)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "dup", Email: "taken@example.com", Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshIsSingleUse(t *testing.T) {
	accounts := newMockAccounts(&models.User{
		ID: "1", Email: "alice@example.com", Status: models.StatusActive,
		PasswordHash: hashPassword(t, "secret123"),
	})
	svc := NewAuthService(accounts, newMockKV(), jwtTestConfig(), nil, nil)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "alice@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken, "refresh rotates the token")

	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.Error(t, err, "consumed token must not work twice")
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(newMockAccounts(), newMockKV(), jwtTestConfig(), nil, nil)

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
