package submissions_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coursedesk/coursedesk/internal/authz"
	"github.com/coursedesk/coursedesk/internal/platform/httpx"
	"github.com/coursedesk/coursedesk/internal/shared"
	"github.com/coursedesk/coursedesk/internal/submissions"
)

// memoryRepo mimics the store's atomic uniqueness guarantee with a mutex held
// across the duplicate check and the insert.
type memoryRepo struct {
	mu          sync.Mutex
	byID        map[string]*submissions.Submission
	assignments map[string]*submissions.ParentAssignment
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		byID:        make(map[string]*submissions.Submission),
		assignments: make(map[string]*submissions.ParentAssignment),
	}
}

func (r *memoryRepo) CreateIfAbsent(ctx context.Context, sub submissions.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.AssignmentID == sub.AssignmentID && existing.StudentID == sub.StudentID {
			return fmt.Errorf("%w: assignment already submitted", httpx.ErrDuplicate)
		}
	}
	r.byID[sub.ID] = &sub
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id string) (*submissions.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *sub
	return &copied, nil
}

func (r *memoryRepo) ListByStudent(ctx context.Context, studentID string) ([]submissions.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []submissions.Submission
	for _, sub := range r.byID {
		if sub.StudentID == studentID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListByAssignment(ctx context.Context, assignmentID string) ([]submissions.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []submissions.Submission
	for _, sub := range r.byID {
		if sub.AssignmentID == assignmentID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (r *memoryRepo) SetGrade(ctx context.Context, id string, grade int, gradedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	sub.Grade = &grade
	sub.Status = submissions.StatusGraded
	sub.GradedAt = &gradedAt
	return nil
}

func (r *memoryRepo) GetParentAssignment(ctx context.Context, assignmentID string) (*submissions.ParentAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	parent, ok := r.assignments[assignmentID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *parent
	return &copied, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	received []string
	graded   []string
	fail     bool
}

func (n *recordingNotifier) SubmissionReceived(ctx context.Context, sub submissions.Submission) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("queue unavailable")
	}
	n.received = append(n.received, sub.ID)
	return nil
}

func (n *recordingNotifier) GradePosted(ctx context.Context, sub submissions.Submission) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("queue unavailable")
	}
	n.graded = append(n.graded, sub.ID)
	return nil
}

type memoryAudit struct {
	entries []shared.AuditLog
}

func (a *memoryAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.entries = append(a.entries, log)
	return nil
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

func seedAssignment(repo *memoryRepo, id, teacherID string) {
	repo.assignments[id] = &submissions.ParentAssignment{
		ID:        id,
		Title:     "Assignment " + id,
		TeacherID: teacherID,
		DueDate:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
}

func mustCreate(t *testing.T, service *submissions.Service, p authz.Principal, assignmentID string) *submissions.Submission {
	t.Helper()
	sub, err := service.Create(context.Background(), p, submissions.CreateInput{
		AssignmentID: assignmentID,
		Content:      "my answer",
	})
	require.NoError(t, err)
	return sub
}

func TestCreateSubmission(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	notifier := &recordingNotifier{}
	service := submissions.NewService(repo, notifier, nil)

	sub := mustCreate(t, service, student("s1"), "a1")
	require.Equal(t, "s1", sub.StudentID)
	require.Equal(t, submissions.StatusSubmitted, sub.Status)
	require.Nil(t, sub.Grade)
	require.Equal(t, "t1", sub.Assignment.TeacherID)
	require.Equal(t, []string{sub.ID}, notifier.received)
}

func TestCreateEmptyContent(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	service := submissions.NewService(repo, nil, nil)

	_, err := service.Create(context.Background(), student("s1"), submissions.CreateInput{
		AssignmentID: "a1",
		Content:      "   ",
	})
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestCreateUnknownAssignment(t *testing.T) {
	service := submissions.NewService(newMemoryRepo(), nil, nil)
	_, err := service.Create(context.Background(), student("s1"), submissions.CreateInput{
		AssignmentID: "missing",
		Content:      "my answer",
	})
	require.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestCreateDuplicate(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	service := submissions.NewService(repo, nil, nil)

	mustCreate(t, service, student("s1"), "a1")
	_, err := service.Create(context.Background(), student("s1"), submissions.CreateInput{
		AssignmentID: "a1",
		Content:      "second try",
	})
	require.True(t, errors.Is(err, httpx.ErrDuplicate))

	// A different student is unaffected.
	mustCreate(t, service, student("s2"), "a1")
}

func TestCreateConcurrentExactlyOneWins(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	service := submissions.NewService(repo, nil, nil)

	const attempts = 16
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Create(context.Background(), student("s1"), submissions.CreateInput{
				AssignmentID: "a1",
				Content:      "racing",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, httpx.ErrDuplicate):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, attempts-1, dup)
}

func TestCreateNotifierFailureIgnored(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	notifier := &recordingNotifier{fail: true}
	service := submissions.NewService(repo, notifier, nil)

	sub := mustCreate(t, service, student("s1"), "a1")
	stored, err := repo.Get(context.Background(), sub.ID)
	require.NoError(t, err)
	require.Equal(t, submissions.StatusSubmitted, stored.Status)
}

func TestGetOwnership(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	service := submissions.NewService(repo, nil, nil)
	sub := mustCreate(t, service, student("s1"), "a1")

	// Owner reads their own.
	got, err := service.Get(context.Background(), student("s1"), sub.ID)
	require.NoError(t, err)
	require.Equal(t, sub.ID, got.ID)

	// Another student is refused.
	_, err = service.Get(context.Background(), student("s2"), sub.ID)
	require.True(t, errors.Is(err, httpx.ErrForbidden))

	// The assignment's teacher reads it transitively.
	_, err = service.Get(context.Background(), teacher("t1"), sub.ID)
	require.NoError(t, err)

	// An unrelated teacher is refused.
	_, err = service.Get(context.Background(), teacher("t2"), sub.ID)
	require.True(t, errors.Is(err, httpx.ErrForbidden))

	// Admin reads everything.
	_, err = service.Get(context.Background(), admin("adm"), sub.ID)
	require.NoError(t, err)
}

func TestListMine(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	seedAssignment(repo, "a2", "t1")
	service := submissions.NewService(repo, nil, nil)
	mustCreate(t, service, student("s1"), "a1")
	mustCreate(t, service, student("s1"), "a2")
	mustCreate(t, service, student("s2"), "a1")

	mine, err := service.ListMine(context.Background(), student("s1"))
	require.NoError(t, err)
	require.Len(t, mine, 2)
}

func TestListForAssignment(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	service := submissions.NewService(repo, nil, nil)
	mustCreate(t, service, student("s1"), "a1")
	mustCreate(t, service, student("s2"), "a1")

	roster, err := service.ListForAssignment(context.Background(), teacher("t1"), "a1")
	require.NoError(t, err)
	require.Len(t, roster, 2)

	_, err = service.ListForAssignment(context.Background(), teacher("t2"), "a1")
	require.True(t, errors.Is(err, httpx.ErrForbidden))

	_, err = service.ListForAssignment(context.Background(), student("s1"), "a1")
	require.True(t, errors.Is(err, httpx.ErrForbidden))

	roster, err = service.ListForAssignment(context.Background(), admin("adm"), "a1")
	require.NoError(t, err)
	require.Len(t, roster, 2)
}

func TestGradeHappyPath(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	notifier := &recordingNotifier{}
	audit := &memoryAudit{}
	service := submissions.NewService(repo, notifier, audit)
	sub := mustCreate(t, service, student("s1"), "a1")

	graded, err := service.Grade(context.Background(), teacher("t1"), sub.ID, 92)
	require.NoError(t, err)
	require.Equal(t, submissions.StatusGraded, graded.Status)
	require.NotNil(t, graded.Grade)
	require.Equal(t, 92, *graded.Grade)
	require.NotNil(t, graded.GradedAt)

	require.Equal(t, []string{sub.ID}, notifier.graded)
	require.Len(t, audit.entries, 1)
	require.Equal(t, "submission.grade", audit.entries[0].Action)
	require.Equal(t, "t1", audit.entries[0].ActorID)
}

func TestGradeBounds(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	service := submissions.NewService(repo, nil, nil)
	sub := mustCreate(t, service, student("s1"), "a1")

	for _, grade := range []int{-1, 101} {
		_, err := service.Grade(context.Background(), teacher("t1"), sub.ID, grade)
		require.True(t, errors.Is(err, httpx.ErrValidation), "grade %d", grade)
	}
	for _, grade := range []int{0, 100} {
		_, err := service.Grade(context.Background(), teacher("t1"), sub.ID, grade)
		require.NoError(t, err, "grade %d", grade)
	}
}

func TestGradeAuthority(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	service := submissions.NewService(repo, nil, nil)
	sub := mustCreate(t, service, student("s1"), "a1")

	// An unrelated teacher cannot grade.
	_, err := service.Grade(context.Background(), teacher("t2"), sub.ID, 50)
	require.True(t, errors.Is(err, httpx.ErrForbidden))

	// The student cannot grade their own work.
	_, err = service.Grade(context.Background(), student("s1"), sub.ID, 100)
	require.True(t, errors.Is(err, httpx.ErrForbidden))

	// Admin can grade without owning the assignment.
	_, err = service.Grade(context.Background(), admin("adm"), sub.ID, 50)
	require.NoError(t, err)
}

func TestGradeMissingSubmission(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	service := submissions.NewService(repo, nil, nil)

	_, err := service.Grade(context.Background(), teacher("t1"), "missing", 50)
	require.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestRegradeOverwritesAndKeepsStatus(t *testing.T) {
	repo := newMemoryRepo()
	seedAssignment(repo, "a1", "t1")
	service := submissions.NewService(repo, nil, nil)
	sub := mustCreate(t, service, student("s1"), "a1")

	_, err := service.Grade(context.Background(), teacher("t1"), sub.ID, 70)
	require.NoError(t, err)

	regraded, err := service.Grade(context.Background(), teacher("t1"), sub.ID, 85)
	require.NoError(t, err)
	require.Equal(t, submissions.StatusGraded, regraded.Status)
	require.Equal(t, 85, *regraded.Grade)

	// The status never returns to Submitted.
	stored, err := repo.Get(context.Background(), sub.ID)
	require.NoError(t, err)
	require.Equal(t, submissions.StatusGraded, stored.Status)
}
