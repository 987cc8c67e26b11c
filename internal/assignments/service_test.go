package assignments_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coursedesk/coursedesk/internal/assignments"
	"github.com/coursedesk/coursedesk/internal/authz"
	"github.com/coursedesk/coursedesk/internal/platform/httpx"
)

type memoryRepo struct {
	byID       map[string]*assignments.Assignment
	rosters    map[string][]assignments.SubmissionSummary
	rosterHits int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		byID:    make(map[string]*assignments.Assignment),
		rosters: make(map[string][]assignments.SubmissionSummary),
	}
}

func (r *memoryRepo) Create(ctx context.Context, a assignments.Assignment) error {
	r.byID[a.ID] = &a
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id string) (*assignments.Assignment, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *memoryRepo) List(ctx context.Context) ([]assignments.Assignment, error) {
	out := make([]assignments.Assignment, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, *a)
	}
	return out, nil
}

func (r *memoryRepo) ListByTeacher(ctx context.Context, teacherID string) ([]assignments.Assignment, error) {
	var out []assignments.Assignment
	for _, a := range r.byID {
		if a.TeacherID == teacherID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memoryRepo) Update(ctx context.Context, a assignments.Assignment) error {
	if _, ok := r.byID[a.ID]; !ok {
		return httpx.ErrNotFound
	}
	r.byID[a.ID] = &a
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memoryRepo) Roster(ctx context.Context, assignmentID string) ([]assignments.SubmissionSummary, error) {
	r.rosterHits++
	return r.rosters[assignmentID], nil
}

func (r *memoryRepo) OwnSubmission(ctx context.Context, assignmentID, studentID string) (*assignments.SubmissionSummary, error) {
	for _, entry := range r.rosters[assignmentID] {
		if entry.StudentID == studentID {
			copied := entry
			return &copied, nil
		}
	}
	return nil, nil
}

func teacher(id string) authz.Principal {
	return authz.Principal{UserID: id, Name: "Teacher " + id, Roles: []authz.Role{authz.RoleTeacher}}
}

func student(id string) authz.Principal {
	return authz.Principal{UserID: id, Name: "Student " + id, Roles: []authz.Role{authz.RoleStudent}}
}

func admin(id string) authz.Principal {
	return authz.Principal{UserID: id, Name: "Admin " + id, Roles: []authz.Role{authz.RoleAdmin}}
}

func validInput() assignments.Input {
	return assignments.Input{
		Title:       "Essay 1",
		Description: "Write about Go",
		DueDate:     time.Date(2026, 10, 1, 23, 59, 0, 0, time.UTC),
	}
}

func seedAssignment(repo *memoryRepo, id, teacherID string) {
	repo.byID[id] = &assignments.Assignment{
		ID:          id,
		Title:       "Seeded " + id,
		DueDate:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		TeacherID:   teacherID,
		TeacherName: "Teacher " + teacherID,
	}
}

func TestCreateSetsOwner(t *testing.T) {
	repo := newMemoryRepo()
	service := assignments.NewService(repo)

	a, err := service.Create(context.Background(), teacher("t1"), validInput())
	require.NoError(t, err)
	require.Equal(t, "t1", a.TeacherID)
	require.NotEmpty(t, a.ID)
	require.Equal(t, "Essay 1", a.Title)
}

func TestCreateValidation(t *testing.T) {
	service := assignments.NewService(newMemoryRepo())

	_, err := service.Create(context.Background(), teacher("t1"), assignments.Input{Title: "  ", DueDate: time.Now()})
	require.True(t, errors.Is(err, httpx.ErrValidation))

	_, err = service.Create(context.Background(), teacher("t1"), assignments.Input{Title: "ok"})
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestListScopesTeacher(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	seedAssignment(repo, "a2", "t2")
	service := assignments.NewService(repo)

	mine, err := service.List(context.Background(), teacher("t1"))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "a1", mine[0].ID)

	all, err := service.List(context.Background(), admin("adm"))
	require.NoError(t, err)
	require.Len(t, all, 2)

	visible, err := service.List(context.Background(), student("s1"))
	require.NoError(t, err)
	require.Len(t, visible, 2)
}

func TestGetOwnerSeesRoster(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	grade := 88
	repo.rosters["a1"] = []assignments.SubmissionSummary{
		{ID: "sub1", StudentID: "s1", StudentName: "Student s1", Status: "Graded", Grade: &grade},
		{ID: "sub2", StudentID: "s2", StudentName: "Student s2", Status: "Submitted"},
	}
	service := assignments.NewService(repo)

	view, err := service.Get(context.Background(), teacher("t1"), "a1")
	require.NoError(t, err)
	require.Len(t, view.Roster, 2)
	require.Equal(t, "s1", view.Roster[0].StudentID)
	require.Nil(t, view.OwnSubmission)
}

func TestGetAdminSeesRoster(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	repo.rosters["a1"] = []assignments.SubmissionSummary{{ID: "sub1", StudentID: "s1"}}
	service := assignments.NewService(repo)

	view, err := service.Get(context.Background(), admin("adm"), "a1")
	require.NoError(t, err)
	require.Len(t, view.Roster, 1)
}

func TestGetStudentSeesOwnSubmissionOnly(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	grade := 75
	repo.rosters["a1"] = []assignments.SubmissionSummary{
		{ID: "sub1", StudentID: "s1", StudentName: "Student s1", Status: "Graded", Grade: &grade},
		{ID: "sub2", StudentID: "s2", StudentName: "Student s2", Status: "Submitted"},
	}
	service := assignments.NewService(repo)

	view, err := service.Get(context.Background(), student("s1"), "a1")
	require.NoError(t, err)
	require.Empty(t, view.Roster)
	require.NotNil(t, view.OwnSubmission)
	require.Equal(t, "sub1", view.OwnSubmission.ID)
	require.Equal(t, "Graded", view.OwnSubmission.Status)
	// Student identity fields are stripped from the restricted projection.
	require.Empty(t, view.OwnSubmission.StudentID)
	require.Empty(t, view.OwnSubmission.StudentName)
	// The roster query is never issued for a restricted caller.
	require.Zero(t, repo.rosterHits)
}

func TestGetNonOwnerTeacherRestricted(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	repo.rosters["a1"] = []assignments.SubmissionSummary{{ID: "sub1", StudentID: "s1"}}
	service := assignments.NewService(repo)

	view, err := service.Get(context.Background(), teacher("t2"), "a1")
	require.NoError(t, err)
	require.Empty(t, view.Roster)
	require.Nil(t, view.OwnSubmission)
}

func TestGetMissing(t *testing.T) {
	service := assignments.NewService(newMemoryRepo())
	_, err := service.Get(context.Background(), admin("adm"), "missing")
	require.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestUpdateOwner(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	service := assignments.NewService(repo)

	updated, err := service.Update(context.Background(), teacher("t1"), "a1", validInput())
	require.NoError(t, err)
	require.Equal(t, "Essay 1", updated.Title)
	require.Equal(t, "t1", updated.TeacherID)
}

func TestUpdateNonOwnerForbidden(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	service := assignments.NewService(repo)

	_, err := service.Update(context.Background(), teacher("t2"), "a1", validInput())
	require.True(t, errors.Is(err, httpx.ErrForbidden))

	// The stored record is untouched.
	stored, getErr := repo.Get(context.Background(), "a1")
	require.NoError(t, getErr)
	require.Equal(t, "Seeded a1", stored.Title)
}

func TestUpdateAdminBypassesOwnership(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	service := assignments.NewService(repo)

	updated, err := service.Update(context.Background(), admin("adm"), "a1", validInput())
	require.NoError(t, err)
	require.Equal(t, "Essay 1", updated.Title)
	// Ownership never transfers on update.
	require.Equal(t, "t1", updated.TeacherID)
}

func TestDeleteOwner(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	service := assignments.NewService(repo)

	require.NoError(t, service.Delete(context.Background(), teacher("t1"), "a1"))
	_, err := repo.Get(context.Background(), "a1")
	require.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestDeleteNonOwnerForbidden(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	service := assignments.NewService(repo)

	err := service.Delete(context.Background(), teacher("t2"), "a1")
	require.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestDeleteMissing(t *testing.T) {
	service := assignments.NewService(newMemoryRepo())
	err := service.Delete(context.Background(), admin("adm"), "missing")
	require.True(t, errors.Is(err, httpx.ErrNotFound))
}
