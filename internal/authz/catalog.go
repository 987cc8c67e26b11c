// Package authz holds the permission catalog, the role-permission map and
// the per-request authorization checks built on top of them.
package authz

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Permission identifiers, namespaced by resource and action. The catalog is
// fixed at build time; adding a protected operation means adding its
// permission here and granting it in DefaultCatalog.
const (
	PermAssignmentsCreate = "assignments.create"
	PermAssignmentsView   = "assignments.view"
	PermAssignmentsUpdate = "assignments.update"
	PermAssignmentsDelete = "assignments.delete"

	PermSubmissionsCreate = "submissions.create"
	PermSubmissionsView   = "submissions.view"
	PermSubmissionsGrade  = "submissions.grade"

	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"
	PermRolesEdit = "roles.edit"
)

// Role is a named bundle of permissions assigned to a user.
type Role string

// Known roles.
const (
	RoleAdmin   Role = "Admin"
	RoleTeacher Role = "Teacher"
	RoleStudent Role = "Student"
)

var titleCaser = cases.Title(language.English)

// ParseRole normalizes a role name and reports whether it is known.
func ParseRole(name string) (Role, error) {
	role := Role(titleCaser.String(strings.TrimSpace(name)))
	switch role {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return role, nil
	}
	return "", fmt.Errorf("authz: unknown role %q", name)
}

// Catalog is the immutable role-permission map. It is built once at startup
// and passed by value into the token issuer and the route guards; it is safe
// for concurrent reads.
type Catalog struct {
	byRole map[Role][]string
}

// DefaultCatalog returns the catalog used in production. Teachers own the
// assignment lifecycle and grading, students submit and read their own work,
// admins additionally manage users and roles.
func DefaultCatalog() Catalog {
	return NewCatalog(map[Role][]string{
		RoleTeacher: {
			PermAssignmentsCreate,
			PermAssignmentsView,
			PermAssignmentsUpdate,
			PermAssignmentsDelete,
			PermSubmissionsView,
			PermSubmissionsGrade,
		},
		RoleStudent: {
			PermAssignmentsView,
			PermSubmissionsCreate,
			PermSubmissionsView,
		},
		RoleAdmin: {
			PermAssignmentsCreate,
			PermAssignmentsView,
			PermAssignmentsUpdate,
			PermAssignmentsDelete,
			PermSubmissionsCreate,
			PermSubmissionsView,
			PermSubmissionsGrade,
			PermUsersView,
			PermUsersEdit,
			PermRolesEdit,
		},
	})
}

// NewCatalog builds a catalog from an explicit role-permission map. Intended
// for tests that need alternate grants.
func NewCatalog(grants map[Role][]string) Catalog {
	byRole := make(map[Role][]string, len(grants))
	for role, perms := range grants {
		unique := make(map[string]struct{}, len(perms))
		for _, p := range perms {
			unique[p] = struct{}{}
		}
		list := make([]string, 0, len(unique))
		for p := range unique {
			list = append(list, p)
		}
		sort.Strings(list)
		byRole[role] = list
	}
	return Catalog{byRole: byRole}
}

// PermissionsOf returns the permissions granted to a role.
func (c Catalog) PermissionsOf(role Role) []string {
	perms := c.byRole[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// Expand returns the deduplicated union of permissions granted by the given
// roles, sorted for stable token claims.
func (c Catalog) Expand(roles []Role) []string {
	unique := make(map[string]struct{})
	for _, role := range roles {
		for _, p := range c.byRole[role] {
			unique[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(unique))
	for p := range unique {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
