package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/noah-isme/perfume-store-api/internal/models"
	"github.com/noah-isme/perfume-store-api/internal/repository"
	"github.com/noah-isme/perfume-store-api/internal/view"
	appErrors "github.com/noah-isme/perfume-store-api/pkg/errors"
	"github.com/noah-isme/perfume-store-api/pkg/notify"
	"github.com/noah-isme/perfume-store-api/pkg/tasks"
)

type userRepository interface {
	Load(ctx context.Context) ([]models.User, error)
	Save(ctx context.Context, users []models.User) error
}

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Name  string          `json:"name" validate:"required"`
	Email string          `json:"email" validate:"required,email"`
	Phone string          `json:"phone" validate:"required"`
	Role  models.UserRole `json:"role" validate:"omitempty,oneof=admin moderator user"`
}

// UpdateUserRequest payload for updating users. Zero-valued fields keep the
// current value.
type UpdateUserRequest struct {
	Name   string            `json:"name"`
	Email  string            `json:"email" validate:"omitempty,email"`
	Phone  string            `json:"phone"`
	Role   models.UserRole   `json:"role" validate:"omitempty,oneof=admin moderator user"`
	Status models.UserStatus `json:"status" validate:"omitempty,oneof=active inactive suspended"`
}

// UserService owns the users collection: every read goes through the view
// engine, every mutation updates memory first and writes the snapshot back
// before its notification is published.
type UserService struct {
	repo        userRepository
	validator   *validator.Validate
	logger      *zap.Logger
	notifier    notify.Notifier
	runner      *tasks.Runner
	metrics     *MetricsService
	deleteDelay time.Duration
	pageSize    int
	now         func() time.Time

	mu        sync.Mutex
	users     []models.User
	loaded    bool
	lastQuery view.Params
	deleting  map[string]struct{}
}

// UserServiceConfig wires the service's collaborators.
type UserServiceConfig struct {
	Repo        userRepository
	Validator   *validator.Validate
	Logger      *zap.Logger
	Notifier    notify.Notifier
	Runner      *tasks.Runner
	Metrics     *MetricsService
	DeleteDelay time.Duration
	PageSize    int
}

// NewUserService creates an instance of UserService.
func NewUserService(cfg UserServiceConfig) *UserService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Validator == nil {
		cfg.Validator = validator.New()
	}
	if cfg.Runner == nil {
		cfg.Runner = tasks.NewRunner(cfg.Logger)
	}
	if cfg.DeleteDelay <= 0 {
		cfg.DeleteDelay = 800 * time.Millisecond
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 6
	}
	return &UserService{
		repo:        cfg.Repo,
		validator:   cfg.Validator,
		logger:      cfg.Logger,
		notifier:    cfg.Notifier,
		runner:      cfg.Runner,
		metrics:     cfg.Metrics,
		deleteDelay: cfg.DeleteDelay,
		pageSize:    cfg.PageSize,
		now:         time.Now,
		deleting:    make(map[string]struct{}),
	}
}

// userSpec builds the view spec with a fresh collator; collators are not safe
// for concurrent use.
func userSpec() view.Spec[models.User] {
	collator := collate.New(language.English)
	return view.Spec[models.User]{
		Folded: []func(models.User) string{
			func(u models.User) string { return u.Name },
			func(u models.User) string { return u.Email },
		},
		Exact: []func(models.User) string{
			func(u models.User) string { return u.Phone },
		},
		Dimensions: map[string]func(models.User) string{
			"role":   func(u models.User) string { return string(u.Role) },
			"status": func(u models.User) string { return string(u.Status) },
		},
		Compare: map[view.Key]func(a, b models.User) int{
			view.SortName: func(a, b models.User) int {
				return collator.CompareString(a.Name, b.Name)
			},
			view.SortDate: func(a, b models.User) int {
				// Newest first; dates are YYYY-MM-DD so byte order is
				// chronological.
				return strings.Compare(b.RegistrationDate, a.RegistrationDate)
			},
			view.SortStatus: func(a, b models.User) int {
				return strings.Compare(string(a.Status), string(b.Status))
			},
		},
	}
}

// List computes the current page of the users view. Page numbers rebase to 1
// whenever the search term or a filter changed since the previous query.
func (s *UserService) List(ctx context.Context, params view.Params) (*view.View[models.User], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	if params.PageSize <= 0 {
		params.PageSize = s.pageSize
	}
	params = params.Rebase(s.lastQuery)
	s.lastQuery = params

	result := userSpec().Compute(s.users, params)
	for i := range result.Items {
		if _, pending := s.deleting[result.Items[i].ID]; pending {
			result.Items[i].Deleting = true
		}
	}
	return &result, nil
}

// Roster returns the full filtered, sorted collection without pagination,
// used by the export endpoint.
func (s *UserService) Roster(ctx context.Context, params view.Params) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	params.Page = 1
	params.PageSize = len(s.users) + 1
	result := userSpec().Compute(s.users, params)
	return result.Items, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	user := s.users[idx]
	if _, pending := s.deleting[id]; pending {
		user.Deleting = true
	}
	return &user, nil
}

// FindByEmail returns a user by email, or nil when absent. Used by the auth
// flows.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	email = strings.ToLower(email)
	for _, user := range s.users {
		if strings.ToLower(user.Email) == email {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

// FindByID returns a user by id, or nil when absent.
func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if idx := s.indexOf(id); idx >= 0 {
		u := s.users[idx]
		return &u, nil
	}
	return nil, nil
}

// Create validates and appends a new user, persisting the snapshot before
// the success notification fires. Nothing is written when validation fails.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	today := models.Today(s.now())
	user := models.User{
		ID:               s.nextID(),
		Name:             req.Name,
		Email:            strings.ToLower(req.Email),
		Phone:            req.Phone,
		Role:             req.Role,
		Status:           models.StatusActive,
		RegistrationDate: today,
		LastLogin:        today,
		AvatarColor:      repository.AvatarColor(len(s.users)),
	}

	rollback := s.users
	s.users = append(append([]models.User{}, s.users...), user)
	if err := s.persist(ctx, rollback); err != nil {
		return nil, err
	}

	s.publish("User added successfully!")
	return &user, nil
}

// CreateAccount appends a self-registered storefront account. Unlike Create
// it carries a password hash and a username.
func (s *UserService) CreateAccount(ctx context.Context, username, email, phone, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	today := models.Today(s.now())
	if phone == "" {
		phone = "+1 000 000 0000"
	}
	user := models.User{
		ID:               s.nextID(),
		Name:             username,
		Username:         username,
		Email:            strings.ToLower(email),
		Phone:            phone,
		Role:             models.RoleUser,
		Status:           models.StatusActive,
		RegistrationDate: today,
		LastLogin:        today,
		AvatarColor:      repository.AvatarColor(len(s.users)),
		PasswordHash:     passwordHash,
	}

	rollback := s.users
	s.users = append(append([]models.User{}, s.users...), user)
	if err := s.persist(ctx, rollback); err != nil {
		return nil, err
	}

	s.publish("Account created successfully!")
	return &user, nil
}

// TouchLastLogin stamps the user's last login day. Login bookkeeping does not
// emit a notification.
func (s *UserService) TouchLastLogin(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	idx := s.indexOf(id)
	if idx < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}

	rollback := s.users
	s.users = s.cloneUsers()
	s.users[idx].LastLogin = models.Today(s.now())
	return s.persist(ctx, rollback)
}

// Update merges the request into the stored user.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if _, pending := s.deleting[id]; pending {
		return nil, appErrors.Clone(appErrors.ErrDeletePending, "")
	}

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}

	rollback := s.users
	s.users = s.cloneUsers()
	user := &s.users[idx]
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = strings.ToLower(req.Email)
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Role != "" {
		user.Role = req.Role
	}
	if req.Status != "" {
		user.Status = req.Status
	}

	if err := s.persist(ctx, rollback); err != nil {
		return nil, err
	}

	updated := *user
	s.publish("User updated successfully!")
	return &updated, nil
}

// Delete schedules the entity's removal after the grace delay. Until the
// timer fires the entity stays in the collection, flagged as deleting; a
// second mutation against the same id is rejected while the removal is
// pending.
func (s *UserService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	if s.indexOf(id) < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	if _, pending := s.deleting[id]; pending {
		return appErrors.Clone(appErrors.ErrDeletePending, "")
	}

	if !s.runner.Schedule("user:"+id, s.deleteDelay, func(taskCtx context.Context) {
		s.completeDelete(taskCtx, id)
	}) {
		return appErrors.Clone(appErrors.ErrDeletePending, "")
	}
	s.deleting[id] = struct{}{}

	return nil
}

// CancelDelete aborts a pending removal, resolving the entity back to idle.
// Cancellation and firing are mutually exclusive: once the grace timer has
// claimed the task, the removal commits and cancel reports the conflict
// instead of pretending to win.
func (s *UserService) CancelDelete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, pending := s.deleting[id]; !pending {
		return appErrors.Clone(appErrors.ErrNotFound, "no delete pending for this user")
	}

	if !s.runner.Cancel("user:" + id) {
		// The timer fired already; completeDelete is waiting on the lock
		// and will remove the entity as soon as we release it.
		return appErrors.Clone(appErrors.ErrConflict, "delete already completed")
	}

	delete(s.deleting, id)
	s.publish("User delete cancelled")
	return nil
}

// completeDelete runs when the grace delay elapses: the entity is removed
// from the collection and the snapshot. A failed write restores the
// collection and reports the failure instead of silently dropping it.
func (s *UserService) completeDelete(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.deleting, id)

	idx := s.indexOf(id)
	if idx < 0 {
		return
	}

	rollback := s.users
	s.users = append(append([]models.User{}, s.users[:idx]...), s.users[idx+1:]...)
	if err := s.persist(ctx, rollback); err != nil {
		s.logger.Error("delete write-back failed, user restored",
			zap.String("user_id", id), zap.Error(err))
		s.publish("Failed to delete user")
		return
	}

	s.publish("User deleted successfully!")
}

// ChangeStatus transitions the status field only.
func (s *UserService) ChangeStatus(ctx context.Context, id string, status models.UserStatus) (*models.User, error) {
	if !models.ValidStatus(status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", status))
	}
	return s.transition(ctx, id, func(u *models.User) string {
		u.Status = status
		return fmt.Sprintf("User status updated to %s", status)
	})
}

// ChangeRole transitions the role field only.
func (s *UserService) ChangeRole(ctx context.Context, id string, role models.UserRole) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown role %q", role))
	}
	return s.transition(ctx, id, func(u *models.User) string {
		u.Role = role
		return fmt.Sprintf("User role updated to %s", role)
	})
}

// transition applies a single-field mutation through the same
// validate → mutate → persist → notify pipeline as every other write.
func (s *UserService) transition(ctx context.Context, id string, apply func(*models.User) string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if _, pending := s.deleting[id]; pending {
		return nil, appErrors.Clone(appErrors.ErrDeletePending, "")
	}

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}

	rollback := s.users
	s.users = s.cloneUsers()
	message := apply(&s.users[idx])

	if err := s.persist(ctx, rollback); err != nil {
		return nil, err
	}

	updated := s.users[idx]
	s.publish(message)
	return &updated, nil
}

// Stats aggregates the live collection; recomputed on every call, never
// cached across mutations.
func (s *UserService) Stats(ctx context.Context) (*models.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	today := models.Today(s.now())
	stats := &models.UserStats{Total: len(s.users)}
	for _, user := range s.users {
		if user.Status == models.StatusActive {
			stats.Active++
		}
		if user.Role == models.RoleAdmin {
			stats.Admins++
		}
		if user.LastLogin == today {
			stats.TodayLogins++
		}
	}
	return stats, nil
}

// ensureLoaded reads the snapshot once. Caller must hold the mutex.
func (s *UserService) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	users, err := s.repo.Load(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load users")
	}
	s.users = users
	s.loaded = true
	s.metrics.SetCollectionSize("users", len(users))
	return nil
}

// persist writes the snapshot back; on failure the in-memory collection is
// rolled back so memory and store never diverge. Caller must hold the mutex.
func (s *UserService) persist(ctx context.Context, rollback []models.User) error {
	if err := s.repo.Save(ctx, s.users); err != nil {
		s.users = rollback
		return appErrors.Wrap(err, appErrors.ErrStoreWrite.Code, appErrors.ErrStoreWrite.Status, appErrors.ErrStoreWrite.Message)
	}
	s.metrics.SetCollectionSize("users", len(s.users))
	return nil
}

func (s *UserService) publish(message string) {
	if s.notifier != nil {
		s.notifier.Publish(message)
	}
}

func (s *UserService) indexOf(id string) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *UserService) cloneUsers() []models.User {
	return append([]models.User{}, s.users...)
}

// nextID returns the next integer id as a string. Non-numeric ids are
// ignored when computing the maximum.
func (s *UserService) nextID() string {
	max := 0
	for _, user := range s.users {
		if n, err := strconv.Atoi(user.ID); err == nil && n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}
