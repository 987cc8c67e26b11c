package submissions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coursedesk/coursedesk/internal/authz"
	"github.com/coursedesk/coursedesk/internal/platform/httpx"
	"github.com/coursedesk/coursedesk/internal/shared"
)

// Grade bounds, inclusive.
const (
	MinGrade = 0
	MaxGrade = 100
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	CreateIfAbsent(ctx context.Context, sub Submission) error
	Get(ctx context.Context, id string) (*Submission, error)
	ListByStudent(ctx context.Context, studentID string) ([]Submission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]Submission, error)
	SetGrade(ctx context.Context, id string, grade int, gradedAt time.Time) error
	GetParentAssignment(ctx context.Context, assignmentID string) (*ParentAssignment, error)
}

// NotifierPort enqueues background notifications. Implementations must be
// safe to skip; notification failure never fails the request.
type NotifierPort interface {
	SubmissionReceived(ctx context.Context, sub Submission) error
	GradePosted(ctx context.Context, sub Submission) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the submission lifecycle.
type Service struct {
	repo     RepositoryPort
	notifier NotifierPort
	audit    AuditPort
}

// NewService constructs submission service.
func NewService(repo RepositoryPort, notifier NotifierPort, audit AuditPort) *Service {
	return &Service{repo: repo, notifier: notifier, audit: audit}
}

// CreateInput describes a new submission.
type CreateInput struct {
	AssignmentID string
	Content      string
}

// Create records a submission for the calling student. The duplicate check
// and the insert are a single atomic operation in the store: of two racing
// requests for the same (student, assignment) pair exactly one succeeds.
func (s *Service) Create(ctx context.Context, p authz.Principal, input CreateInput) (*Submission, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", httpx.ErrValidation)
	}
	parent, err := s.repo.GetParentAssignment(ctx, input.AssignmentID)
	if err != nil {
		return nil, err
	}
	sub := Submission{
		ID:           uuid.NewString(),
		AssignmentID: parent.ID,
		StudentID:    p.UserID,
		StudentName:  p.Name,
		Content:      input.Content,
		Status:       StatusSubmitted,
		SubmittedAt:  time.Now().UTC(),
		Assignment:   *parent,
	}
	if err := s.repo.CreateIfAbsent(ctx, sub); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		// Best-effort; the submission is already durable.
		_ = s.notifier.SubmissionReceived(ctx, sub)
	}
	return &sub, nil
}

// Get loads a submission after the ownership check: students read their own,
// teachers read submissions to their assignments, admins read everything.
func (s *Service) Get(ctx context.Context, p authz.Principal, id string) (*Submission, error) {
	sub, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res := authz.Resource{
		Kind:      authz.KindSubmission,
		StudentID: sub.StudentID,
		TeacherID: sub.Assignment.TeacherID,
	}
	if err := authz.Guard(p, res, authz.OpRead); err != nil {
		return nil, err
	}
	return sub, nil
}

// ListMine returns the calling student's submissions.
func (s *Service) ListMine(ctx context.Context, p authz.Principal) ([]Submission, error) {
	return s.repo.ListByStudent(ctx, p.UserID)
}

// ListForAssignment returns the roster of submissions for an assignment the
// caller may see: the owning teacher or an admin.
func (s *Service) ListForAssignment(ctx context.Context, p authz.Principal, assignmentID string) ([]Submission, error) {
	parent, err := s.repo.GetParentAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	res := authz.Resource{Kind: authz.KindSubmission, TeacherID: parent.TeacherID}
	if err := authz.Guard(p, res, authz.OpReadRoster); err != nil {
		return nil, err
	}
	return s.repo.ListByAssignment(ctx, assignmentID)
}

// Grade moves the submission to Graded with the given grade. Re-grading an
// already graded submission overwrites the grade and keeps the status.
func (s *Service) Grade(ctx context.Context, p authz.Principal, id string, grade int) (*Submission, error) {
	if grade < MinGrade || grade > MaxGrade {
		return nil, fmt.Errorf("%w: grade must be between %d and %d", httpx.ErrValidation, MinGrade, MaxGrade)
	}
	sub, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res := authz.Resource{
		Kind:      authz.KindSubmission,
		StudentID: sub.StudentID,
		TeacherID: sub.Assignment.TeacherID,
	}
	if err := authz.Guard(p, res, authz.OpGrade); err != nil {
		return nil, err
	}

	gradedAt := time.Now().UTC()
	if err := s.repo.SetGrade(ctx, id, grade, gradedAt); err != nil {
		return nil, err
	}
	sub.Grade = &grade
	sub.Status = StatusGraded
	sub.GradedAt = &gradedAt

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  p.UserID,
			Action:   "submission.grade",
			Entity:   "submission",
			EntityID: sub.ID,
			Meta:     map[string]any{"grade": grade, "assignment_id": sub.AssignmentID},
		})
	}
	if s.notifier != nil {
		_ = s.notifier.GradePosted(ctx, *sub)
	}
	return sub, nil
}
