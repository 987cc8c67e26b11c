package assignments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
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

const assignmentColumns = `a.id, a.title, a.description, a.due_date, a.teacher_id, u.name, a.created_at, a.updated_at`

// Create inserts a new assignment.
func (r *Repository) Create(ctx context.Context, a Assignment) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO assignments (id, title, description, due_date, teacher_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		a.ID, a.Title, a.Description, a.DueDate, a.TeacherID, now,
	)
	return err
}

// Get fetches an assignment with the teacher display name.
func (r *Repository) Get(ctx context.Context, id string) (*Assignment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM assignments a JOIN users u ON u.id = a.teacher_id WHERE a.id = $1`, id)
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: assignment %s", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return a, nil
}

// List returns all assignments.
func (r *Repository) List(ctx context.Context) ([]Assignment, error) {
	return r.list(ctx,
		`SELECT `+assignmentColumns+` FROM assignments a JOIN users u ON u.id = a.teacher_id ORDER BY a.due_date`)
}

// ListByTeacher returns assignments created by the given teacher.
func (r *Repository) ListByTeacher(ctx context.Context, teacherID string) ([]Assignment, error) {
	return r.list(ctx,
		`SELECT `+assignmentColumns+` FROM assignments a JOIN users u ON u.id = a.teacher_id WHERE a.teacher_id = $1 ORDER BY a.due_date`,
		teacherID)
}

// Update rewrites the mutable fields. The owning teacher never changes.
func (r *Repository) Update(ctx context.Context, a Assignment) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assignments SET title = $2, description = $3, due_date = $4, updated_at = $5 WHERE id = $1`,
		a.ID, a.Title, a.Description, a.DueDate, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: assignment %s", httpx.ErrNotFound, a.ID)
	}
	return nil
}

// Delete removes the assignment and its submissions.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: assignment %s", httpx.ErrNotFound, id)
	}
	return nil
}

// Roster returns every submission for the assignment with student names.
func (r *Repository) Roster(ctx context.Context, assignmentID string) ([]SubmissionSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.student_id, u.name, s.status, s.grade, s.submitted_at
		 FROM submissions s JOIN users u ON u.id = s.student_id
		 WHERE s.assignment_id = $1 ORDER BY s.submitted_at`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roster []SubmissionSummary
	for rows.Next() {
		var entry SubmissionSummary
		if err := rows.Scan(&entry.ID, &entry.StudentID, &entry.StudentName, &entry.Status, &entry.Grade, &entry.SubmittedAt); err != nil {
			return nil, err
		}
		roster = append(roster, entry)
	}
	return roster, rows.Err()
}

// OwnSubmission returns the caller's submission for the assignment, if any.
func (r *Repository) OwnSubmission(ctx context.Context, assignmentID, studentID string) (*SubmissionSummary, error) {
	var entry SubmissionSummary
	err := r.pool.QueryRow(ctx,
		`SELECT s.id, s.student_id, u.name, s.status, s.grade, s.submitted_at
		 FROM submissions s JOIN users u ON u.id = s.student_id
		 WHERE s.assignment_id = $1 AND s.student_id = $2`, assignmentID, studentID,
	).Scan(&entry.ID, &entry.StudentID, &entry.StudentName, &entry.Status, &entry.Grade, &entry.SubmittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	if err := row.Scan(&a.ID, &a.Title, &a.Description, &a.DueDate, &a.TeacherID, &a.TeacherName, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
