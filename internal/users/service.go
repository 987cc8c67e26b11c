package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursedesk/coursedesk/internal/authz"
	"github.com/coursedesk/coursedesk/internal/platform/httpx"
	"github.com/coursedesk/coursedesk/internal/shared"
)

// RepositoryPort defines data access methods for user management.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	CreateUser(ctx context.Context, user User, passwordHash string) error
	AssignRole(ctx context.Context, userID string, role authz.Role) error
	RemoveRole(ctx context.Context, userID string, role authz.Role) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user management business logic.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// ListUsers returns all users with their role sets.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// CreateUserInput describes an admin-created account.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// CreateUser creates an account with any role, including Admin.
func (s *Service) CreateUser(ctx context.Context, actorID string, input CreateUserInput) (*User, error) {
	role, err := authz.ParseRole(input.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown role", httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := User{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		IsActive: true,
		Roles:    []authz.Role{role},
	}
	if err := s.repo.CreateUser(ctx, user, string(hash)); err != nil {
		return nil, err
	}
	s.record(ctx, actorID, "user.create", user.ID, map[string]any{"role": string(role)})
	return &user, nil
}

// AssignRole grants a role to the user. The grant is visible in tokens only
// after the user's next login.
func (s *Service) AssignRole(ctx context.Context, actorID, userID, roleName string) (*User, error) {
	role, err := authz.ParseRole(roleName)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown role", httpx.ErrValidation)
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AssignRole(ctx, user.ID, role); err != nil {
		return nil, err
	}
	s.record(ctx, actorID, "role.assign", user.ID, map[string]any{"role": string(role)})
	return s.repo.GetUser(ctx, userID)
}

// RemoveRole revokes a role from the user. Outstanding tokens keep the role
// claim until they expire.
func (s *Service) RemoveRole(ctx context.Context, actorID, userID, roleName string) (*User, error) {
	role, err := authz.ParseRole(roleName)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown role", httpx.ErrValidation)
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveRole(ctx, user.ID, role); err != nil {
		return nil, err
	}
	s.record(ctx, actorID, "role.remove", user.ID, map[string]any{"role": string(role)})
	return s.repo.GetUser(ctx, userID)
}

func (s *Service) record(ctx context.Context, actorID, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: entityID,
		Meta:     meta,
	})
}
