package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/perfume-store-api/internal/models"
	"github.com/noah-isme/perfume-store-api/internal/store"
)

// avatarPalette is the fixed ordered palette presentation colors are drawn
// from. Assignment is index mod palette size, so re-normalizing the same
// snapshot always yields the same colors.
var avatarPalette = []string{
	"bg-gradient-to-r from-blue-500 to-cyan-400",
	"bg-gradient-to-r from-purple-500 to-pink-400",
	"bg-gradient-to-r from-green-500 to-emerald-400",
	"bg-gradient-to-r from-orange-500 to-amber-400",
	"bg-gradient-to-r from-red-500 to-rose-400",
	"bg-gradient-to-r from-indigo-500 to-blue-400",
	"bg-gradient-to-r from-teal-500 to-cyan-400",
	"bg-gradient-to-r from-pink-500 to-rose-400",
}

const defaultPhone = "+1 000 000 0000"

// AvatarColor returns the palette entry for an insertion index.
func AvatarColor(index int) string {
	if index < 0 {
		index = -index
	}
	return avatarPalette[index%len(avatarPalette)]
}

// UserRepository loads and persists the users collection as a snapshot of raw
// records, normalizing on the way in and denormalizing on the way out.
type UserRepository struct {
	snapshots store.Snapshots
	key       string
	logger    *zap.Logger
	now       func() time.Time
}

// NewUserRepository builds a repository over the given snapshot key.
func NewUserRepository(snapshots store.Snapshots, key string, logger *zap.Logger) *UserRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserRepository{snapshots: snapshots, key: key, logger: logger, now: time.Now}
}

// Load reads the snapshot and normalizes every record into the canonical
// shape. Records that fail to decode individually are skipped, not fatal.
func (r *UserRepository) Load(ctx context.Context) ([]models.User, error) {
	records, err := r.snapshots.Load(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("load users snapshot: %w", err)
	}

	users := make([]models.User, 0, len(records))
	for i, record := range records {
		var raw models.RawUser
		if err := json.Unmarshal(record, &raw); err != nil {
			r.logger.Warn("skipping undecodable user record",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		users = append(users, NormalizeUser(raw, i, r.now()))
	}
	return users, nil
}

// Save denormalizes the collection back to the stored shape and replaces the
// snapshot.
func (r *UserRepository) Save(ctx context.Context, users []models.User) error {
	records := make([]json.RawMessage, 0, len(users))
	for _, user := range users {
		payload, err := json.Marshal(DenormalizeUser(user))
		if err != nil {
			return fmt.Errorf("marshal user %s: %w", user.ID, err)
		}
		records = append(records, payload)
	}
	if err := r.snapshots.Save(ctx, r.key, records); err != nil {
		return fmt.Errorf("save users snapshot: %w", err)
	}
	return nil
}

// NormalizeUser maps a stored record into the canonical entity, filling
// defaults for everything the record omits. Deterministic: the same record at
// the same index always produces the same id and avatar color.
func NormalizeUser(raw models.RawUser, index int, now time.Time) models.User {
	user := models.User{
		ID:           raw.ID,
		Email:        raw.Email,
		Phone:        raw.Phone,
		Username:     raw.Username,
		PasswordHash: raw.PasswordHash,
	}

	if user.ID == "" {
		user.ID = strconv.Itoa(index + 1)
	}

	switch {
	case raw.FirstName != "" && raw.LastName != "":
		user.Name = raw.FirstName + " " + raw.LastName
	case raw.Username != "":
		user.Name = raw.Username
	default:
		user.Name = raw.Email
	}

	if user.Phone == "" {
		user.Phone = defaultPhone
	}

	user.Role = models.UserRole(raw.Role)
	if !models.ValidRole(user.Role) {
		user.Role = models.RoleUser
	}

	user.Status = models.UserStatus(raw.Status)
	if !models.ValidStatus(user.Status) {
		user.Status = models.StatusActive
	}

	today := models.Today(now)
	user.RegistrationDate = raw.JoinDate
	if user.RegistrationDate == "" {
		user.RegistrationDate = today
	}
	user.LastLogin = raw.LastLogin
	if user.LastLogin == "" {
		user.LastLogin = today
	}

	user.AvatarColor = AvatarColor(index)

	return user
}

// DenormalizeUser maps the canonical entity back to the stored record shape.
func DenormalizeUser(user models.User) models.RawUser {
	first := user.Name
	last := ""
	if fields := strings.Fields(user.Name); len(fields) > 1 {
		first = fields[0]
		last = strings.Join(fields[1:], " ")
	}

	username := user.Username
	if username == "" {
		username = user.Name
	}

	return models.RawUser{
		ID:           user.ID,
		FirstName:    first,
		LastName:     last,
		Username:     username,
		Email:        user.Email,
		Phone:        user.Phone,
		Role:         string(user.Role),
		Status:       string(user.Status),
		JoinDate:     user.RegistrationDate,
		LastLogin:    user.LastLogin,
		PasswordHash: user.PasswordHash,
	}
}
