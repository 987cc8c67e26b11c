package authz

import (
	"fmt"

	"github.com/coursedesk/coursedesk/internal/platform/httpx"
)

// ResourceKind identifies the kind of resource an ownership check applies to.
type ResourceKind string

// Resource kinds subject to ownership checks.
const (
	KindAssignment ResourceKind = "assignment"
	KindSubmission ResourceKind = "submission"
)

// Operation identifies what the caller is trying to do with the resource.
type Operation string

// Guarded operations.
const (
	OpUpdate     Operation = "update"
	OpDelete     Operation = "delete"
	OpRead       Operation = "read"
	OpReadRoster Operation = "read_roster"
	OpGrade      Operation = "grade"
)

// Resource carries the owner identifiers of the resource under check.
// TeacherID is the owning teacher: direct for assignments, via the parent
// assignment for submissions. StudentID is set for submissions only.
type Resource struct {
	Kind      ResourceKind
	TeacherID string
	StudentID string
}

// Guard decides whether a caller who already holds the generic permission may
// act on this specific resource. Rules are evaluated in order: the admin role
// bypasses ownership entirely; teachers are confined to assignments they
// created (transitively for submissions); students may only read their own
// submissions. The decision is recomputed on every request, never cached,
// because ownership can change while tokens stay valid.
func Guard(p Principal, res Resource, op Operation) error {
	if p.HasRole(RoleAdmin) {
		return nil
	}

	switch res.Kind {
	case KindAssignment:
		if p.HasRole(RoleTeacher) {
			if res.TeacherID == p.UserID {
				return nil
			}
			return fmt.Errorf("%w: assignment belongs to another teacher", httpx.ErrForbidden)
		}
	case KindSubmission:
		if op == OpRead && p.HasRole(RoleStudent) {
			if res.StudentID == p.UserID {
				return nil
			}
			return fmt.Errorf("%w: you may only view your own submissions", httpx.ErrForbidden)
		}
		if (op == OpRead || op == OpReadRoster || op == OpGrade) && p.HasRole(RoleTeacher) {
			if res.TeacherID == p.UserID {
				return nil
			}
			return fmt.Errorf("%w: submission belongs to another teacher's assignment", httpx.ErrForbidden)
		}
	}

	return fmt.Errorf("%w: no ownership rule grants access", httpx.ErrForbidden)
}
