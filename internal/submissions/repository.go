package submissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursedesk/coursedesk/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const submissionColumns = `s.id, s.assignment_id, s.student_id, su.name, s.content, s.grade, s.status, s.submitted_at, s.graded_at,
	a.id, a.title, a.teacher_id, a.due_date`

const submissionJoins = `FROM submissions s
	JOIN users su ON su.id = s.student_id
	JOIN assignments a ON a.id = s.assignment_id`

// CreateIfAbsent inserts the submission. The unique constraint on
// (assignment_id, student_id) makes the duplicate check and the insert one
// atomic operation; a concurrent duplicate surfaces as ErrDuplicate.
func (r *Repository) CreateIfAbsent(ctx context.Context, sub Submission) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO submissions (id, assignment_id, student_id, content, status, submitted_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.AssignmentID, sub.StudentID, sub.Content, string(sub.Status), sub.SubmittedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: assignment already submitted", httpx.ErrDuplicate)
		}
		return err
	}
	return nil
}

// Get fetches a submission with its owning assignment.
func (r *Repository) Get(ctx context.Context, id string) (*Submission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+submissionColumns+` `+submissionJoins+` WHERE s.id = $1`, id)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: submission %s", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return sub, nil
}

// ListByStudent returns the student's submissions, newest first.
func (r *Repository) ListByStudent(ctx context.Context, studentID string) ([]Submission, error) {
	return r.list(ctx, `SELECT `+submissionColumns+` `+submissionJoins+` WHERE s.student_id = $1 ORDER BY s.submitted_at DESC`, studentID)
}

// ListByAssignment returns all submissions for an assignment.
func (r *Repository) ListByAssignment(ctx context.Context, assignmentID string) ([]Submission, error) {
	return r.list(ctx, `SELECT `+submissionColumns+` `+submissionJoins+` WHERE s.assignment_id = $1 ORDER BY s.submitted_at`, assignmentID)
}

// SetGrade stores the grade and moves the submission to Graded. Re-grading
// overwrites the grade; the status never reverts.
func (r *Repository) SetGrade(ctx context.Context, id string, grade int, gradedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions SET grade = $2, status = $3, graded_at = $4 WHERE id = $1`,
		id, grade, string(StatusGraded), gradedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: submission %s", httpx.ErrNotFound, id)
	}
	return nil
}

// GetParentAssignment loads the assignment a submission would belong to.
func (r *Repository) GetParentAssignment(ctx context.Context, assignmentID string) (*ParentAssignment, error) {
	var parent ParentAssignment
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, teacher_id, due_date FROM assignments WHERE id = $1`, assignmentID,
	).Scan(&parent.ID, &parent.Title, &parent.TeacherID, &parent.DueDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: assignment %s", httpx.ErrNotFound, assignmentID)
		}
		return nil, err
	}
	return &parent, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Submission, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sub)
	}
	return out, rows.Err()
}

func scanSubmission(row pgx.Row) (*Submission, error) {
	var sub Submission
	var status string
	if err := row.Scan(
		&sub.ID, &sub.AssignmentID, &sub.StudentID, &sub.StudentName, &sub.Content, &sub.Grade, &status, &sub.SubmittedAt, &sub.GradedAt,
		&sub.Assignment.ID, &sub.Assignment.Title, &sub.Assignment.TeacherID, &sub.Assignment.DueDate,
	); err != nil {
		return nil, err
	}
	sub.Status = Status(status)
	return &sub, nil
}
