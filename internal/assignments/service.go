package assignments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coursedesk/coursedesk/internal/authz"
	"github.com/coursedesk/coursedesk/internal/platform/httpx"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	Create(ctx context.Context, a Assignment) error
	Get(ctx context.Context, id string) (*Assignment, error)
	List(ctx context.Context) ([]Assignment, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]Assignment, error)
	Update(ctx context.Context, a Assignment) error
	Delete(ctx context.Context, id string) error
	Roster(ctx context.Context, assignmentID string) ([]SubmissionSummary, error)
	OwnSubmission(ctx context.Context, assignmentID, studentID string) (*SubmissionSummary, error)
}

// Service orchestrates assignment flows.
type Service struct {
	repo RepositoryPort
}

// NewService constructs assignment service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Input describes creation/update payload.
type Input struct {
	Title       string
	Description string
	DueDate     time.Time
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", httpx.ErrValidation)
	}
	if in.DueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", httpx.ErrValidation)
	}
	return nil
}

// Create records a new assignment owned by the calling teacher.
func (s *Service) Create(ctx context.Context, p authz.Principal, input Input) (*Assignment, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	a := Assignment{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		DueDate:     input.DueDate.UTC(),
		TeacherID:   p.UserID,
		TeacherName: p.Name,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns the assignments visible to the caller: teachers see the ones
// they created, everyone else sees the full catalog.
func (s *Service) List(ctx context.Context, p authz.Principal) ([]Assignment, error) {
	if p.HasRole(authz.RoleTeacher) && !p.HasRole(authz.RoleAdmin) {
		return s.repo.ListByTeacher(ctx, p.UserID)
	}
	return s.repo.List(ctx)
}

// Get loads the assignment and shapes it for the caller. Admins and the
// owning teacher get the full roster; everyone else gets public fields plus
// their own submission if present.
func (s *Service) Get(ctx context.Context, p authz.Principal, id string) (*View, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var roster []SubmissionSummary
	var own *SubmissionSummary
	if FullProjection(p, *a) {
		roster, err = s.repo.Roster(ctx, a.ID)
		if err != nil {
			return nil, err
		}
	} else if p.HasRole(authz.RoleStudent) {
		own, err = s.repo.OwnSubmission(ctx, a.ID, p.UserID)
		if err != nil {
			return nil, err
		}
	}
	view := Project(p, *a, roster, own)
	return &view, nil
}

// Update rewrites title, description and due date after the ownership check.
func (s *Service) Update(ctx context.Context, p authz.Principal, id string, input Input) (*Assignment, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Guard(p, authz.Resource{Kind: authz.KindAssignment, TeacherID: a.TeacherID}, authz.OpUpdate); err != nil {
		return nil, err
	}
	a.Title = strings.TrimSpace(input.Title)
	a.Description = input.Description
	a.DueDate = input.DueDate.UTC()
	if err := s.repo.Update(ctx, *a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes the assignment after the ownership check.
func (s *Service) Delete(ctx context.Context, p authz.Principal, id string) error {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Guard(p, authz.Resource{Kind: authz.KindAssignment, TeacherID: a.TeacherID}, authz.OpDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
