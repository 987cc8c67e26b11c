package submissions

import "time"

// Status is the submission lifecycle state. The transition is one-way:
// Submitted -> Graded. A graded submission may be re-graded (the grade is
// overwritten) but never returns to Submitted.
type Status string

// Lifecycle states.
const (
	StatusSubmitted Status = "Submitted"
	StatusGraded    Status = "Graded"
)

// Submission domain model. StudentID is set at creation and never changes.
// At most one submission exists per (StudentID, AssignmentID) pair.
type Submission struct {
	ID           string
	AssignmentID string
	StudentID    string
	StudentName  string
	Content      string
	Grade        *int
	Status       Status
	SubmittedAt  time.Time
	GradedAt     *time.Time
	Assignment   ParentAssignment
}

// ParentAssignment carries the owning assignment loaded alongside a
// submission. TeacherID is the basis of transitive grading authority.
type ParentAssignment struct {
	ID        string
	Title     string
	TeacherID string
	DueDate   time.Time
}
