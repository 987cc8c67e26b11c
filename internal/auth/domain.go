package auth

import (
	"time"

	"github.com/coursedesk/coursedesk/internal/authz"
)

// User represents a durable user account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsActive     bool
	Roles        []authz.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
