package assignments

import "time"

// Assignment domain model. TeacherID is set at creation and never changes.
type Assignment struct {
	ID          string
	Title       string
	Description string
	DueDate     time.Time
	TeacherID   string
	TeacherName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SubmissionSummary is a roster entry for an assignment.
type SubmissionSummary struct {
	ID          string
	StudentID   string
	StudentName string
	Status      string
	Grade       *int
	SubmittedAt time.Time
}
