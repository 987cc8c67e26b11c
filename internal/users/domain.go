package users

import (
	"time"

	"github.com/coursedesk/coursedesk/internal/authz"
)

// User represents a user account for management.
type User struct {
	ID        string
	Name      string
	Email     string
	IsActive  bool
	Roles     []authz.Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
