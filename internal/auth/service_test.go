package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursedesk/coursedesk/internal/auth"
	"github.com/coursedesk/coursedesk/internal/authz"
	"github.com/coursedesk/coursedesk/internal/platform/httpx"
)

type memoryRepo struct {
	byEmail map[string]*auth.User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byEmail: make(map[string]*auth.User)}
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return user, nil
}

func (r *memoryRepo) CreateUser(ctx context.Context, user auth.User) error {
	if _, ok := r.byEmail[user.Email]; ok {
		return httpx.ErrDuplicate
	}
	r.byEmail[user.Email] = &user
	return nil
}

func (r *memoryRepo) RolesOf(ctx context.Context, userID string) ([]authz.Role, error) {
	for _, user := range r.byEmail {
		if user.ID == userID {
			return user.Roles, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func seedUser(t *testing.T, repo *memoryRepo, email, password string, active bool, roles ...authz.Role) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &auth.User{
		ID:           "user-" + email,
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     active,
		Roles:        roles,
	}
	repo.byEmail[email] = user
	return user
}

func TestAuthenticateSuccess(t *testing.T) {
	repo := newMemoryRepo()
	seeded := seedUser(t, repo, "dana@example.edu", "correcthorse", true, authz.RoleTeacher)
	service := auth.NewService(repo)

	user, err := service.Authenticate(context.Background(), "dana@example.edu", "correcthorse")
	require.NoError(t, err)
	require.Equal(t, seeded.ID, user.ID)
	require.Equal(t, []authz.Role{authz.RoleTeacher}, user.Roles)
}

func TestAuthenticateNormalizesEmail(t *testing.T) {
	repo := newMemoryRepo()
	seedUser(t, repo, "dana@example.edu", "correcthorse", true, authz.RoleTeacher)
	service := auth.NewService(repo)

	_, err := service.Authenticate(context.Background(), "  Dana@Example.EDU ", "correcthorse")
	require.NoError(t, err)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := newMemoryRepo()
	seedUser(t, repo, "dana@example.edu", "correcthorse", true)
	service := auth.NewService(repo)

	_, err := service.Authenticate(context.Background(), "dana@example.edu", "wrong")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	require.True(t, errors.Is(err, httpx.ErrUnauthorized))
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	service := auth.NewService(newMemoryRepo())
	_, err := service.Authenticate(context.Background(), "nobody@example.edu", "whatever")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	repo := newMemoryRepo()
	seedUser(t, repo, "dana@example.edu", "correcthorse", false)
	service := auth.NewService(repo)

	_, err := service.Authenticate(context.Background(), "dana@example.edu", "correcthorse")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRegisterStudent(t *testing.T) {
	repo := newMemoryRepo()
	service := auth.NewService(repo)

	user, err := service.Register(context.Background(), auth.RegisterInput{
		Name:     "Sam Ito",
		Email:    "Sam@Example.edu",
		Password: "longenough",
		Role:     "student",
	})
	require.NoError(t, err)
	require.Equal(t, "sam@example.edu", user.Email)
	require.Equal(t, []authz.Role{authz.RoleStudent}, user.Roles)
	require.NotEmpty(t, user.ID)

	// The stored hash verifies against the original password.
	stored := repo.byEmail["sam@example.edu"]
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("longenough")))
}

func TestRegisterAdminRejected(t *testing.T) {
	service := auth.NewService(newMemoryRepo())
	_, err := service.Register(context.Background(), auth.RegisterInput{
		Name:     "Mallory",
		Email:    "mallory@example.edu",
		Password: "longenough",
		Role:     "Admin",
	})
	require.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestRegisterUnknownRole(t *testing.T) {
	service := auth.NewService(newMemoryRepo())
	_, err := service.Register(context.Background(), auth.RegisterInput{
		Name:     "Sam",
		Email:    "sam@example.edu",
		Password: "longenough",
		Role:     "principal",
	})
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newMemoryRepo()
	seedUser(t, repo, "sam@example.edu", "whatever", true)
	service := auth.NewService(repo)

	_, err := service.Register(context.Background(), auth.RegisterInput{
		Name:     "Sam",
		Email:    "sam@example.edu",
		Password: "longenough",
		Role:     "Student",
	})
	require.True(t, errors.Is(err, httpx.ErrDuplicate))
}
