// Package accounts manages customer and staff accounts: registration,
// login and the admin user-management rules.
package accounts

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/apperrors"
	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/store"
)

const (
	storeTimeout      = 5 * time.Second
	minPasswordLength = 6
)

type Service struct {
	repo   store.UserRepository
	issuer *auth.Issuer
	log    *slog.Logger
	now    func() time.Time
}

func NewService(repo store.UserRepository, issuer *auth.Issuer, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		issuer: issuer,
		log:    log.With("component", "accounts"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Service) Register(ctx context.Context, name, phone, password string) (*Session, error) {
	user, err := s.create(ctx, name, phone, password, models.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

func (s *Service) Login(ctx context.Context, phone, password string) (*Session, error) {
	opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	user, err := s.repo.FindUserByPhone(opCtx, normalizePhone(phone))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Auth("invalid credentials")
	}
	if err != nil {
		return nil, apperrors.Server("failed to load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.Auth("invalid credentials")
	}
	if !user.IsActive {
		return nil, apperrors.Auth("account is disabled")
	}

	s.log.Info("user logged in", "user_id", user.ID)
	return s.session(user)
}

// Authenticate resolves a bearer token to the stored, active account.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return nil, apperrors.Auth("unauthorized")
	}

	user, err := s.Get(ctx, claims.ID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.Auth("account not found")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.Auth("account is disabled")
	}
	if user.Role == "" {
		return nil, apperrors.Auth("account has no role")
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	user, err := s.repo.FindUser(opCtx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	user.Role = models.NormalizeRole(string(user.Role))
	return user, nil
}

/* =========================
   ADMIN
========================= */

func (s *Service) List(ctx context.Context, page store.Page) ([]models.User, int64, error) {
	opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	users, total, err := s.repo.ListUsers(opCtx, page)
	if err != nil {
		return nil, 0, apperrors.Server("failed to list users", err)
	}
	for i := range users {
		users[i].Role = models.NormalizeRole(string(users[i].Role))
	}
	return users, total, nil
}

func (s *Service) Create(ctx context.Context, caller *models.User, name, phone, password, rawRole string) (*models.User, error) {
	role := models.NormalizeRole(rawRole)
	if role == "" {
		return nil, apperrors.Validation("invalid role")
	}
	if role == models.RoleAdmin && caller.Role != models.RoleAdmin {
		return nil, apperrors.Forbidden("only admins can create admin accounts")
	}

	user, err := s.create(ctx, name, phone, password, role)
	if err != nil {
		return nil, err
	}
	s.log.Info("user created", "user_id", user.ID, "role", role, "by", caller.ID)
	return user, nil
}

type UpdateInput struct {
	Name     *string
	Role     *string
	IsActive *bool
}

func (s *Service) Update(ctx context.Context, caller *models.User, id string, in UpdateInput) (*models.User, error) {
	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	upd := store.UserUpdate{Name: in.Name, IsActive: in.IsActive, At: s.now()}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, apperrors.Validation("name must not be empty")
	}
	if in.Role != nil {
		role := models.NormalizeRole(*in.Role)
		if role == "" {
			return nil, apperrors.Validation("invalid role")
		}
		upd.Role = &role
		if role == models.RoleAdmin && caller.Role != models.RoleAdmin {
			return nil, apperrors.Forbidden("only admins can grant the admin role")
		}
	}
	if target.Role == models.RoleAdmin && caller.Role != models.RoleAdmin {
		return nil, apperrors.Forbidden("only admins can modify admin accounts")
	}
	if target.ID == caller.ID && in.IsActive != nil && !*in.IsActive {
		return nil, apperrors.Validation("cannot deactivate your own account")
	}

	opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	updated, err := s.repo.UpdateUser(opCtx, id, upd)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	s.log.Info("user updated", "user_id", id, "by", caller.ID)
	return updated, nil
}

// Delete removes an account. Deleting oneself is never allowed.
func (s *Service) Delete(ctx context.Context, caller *models.User, id string) error {
	if caller.ID == id {
		return apperrors.Validation("cannot delete your own account")
	}
	target, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if target.Role == models.RoleAdmin && caller.Role != models.RoleAdmin {
		return apperrors.Forbidden("only admins can delete admin accounts")
	}

	opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.repo.DeleteUser(opCtx, id); err != nil {
		return mapStoreErr(err)
	}
	s.log.Info("user deleted", "user_id", id, "by", caller.ID)
	return nil
}

func (s *Service) create(ctx context.Context, name, phone, password string, role models.Role) (*models.User, error) {
	name = strings.TrimSpace(name)
	phone = normalizePhone(phone)
	if name == "" || phone == "" {
		return nil, apperrors.Validation("name and phone required")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.Validation("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Server("failed to hash password", err)
	}

	now := s.now()
	user := &models.User{
		ID:             primitive.NewObjectID().Hex(),
		Name:           name,
		Phone:          phone,
		PasswordHash:   string(hash),
		Role:           role,
		IsActive:       true,
		Addresses:      []models.Address{},
		Wishlist:       []string{},
		RecentlyViewed: []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.repo.InsertUser(opCtx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.Conflict("phone already registered")
		}
		return nil, apperrors.Server("failed to create user", err)
	}
	return user, nil
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, err := s.issuer.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.Server("failed to issue token", err)
	}
	return &Session{Token: token, User: user}, nil
}

func normalizePhone(phone string) string {
	return strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
}

func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFound("user not found")
	}
	return apperrors.Server("user store failure", err)
}
