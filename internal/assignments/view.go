package assignments

import (
	"time"

	"github.com/coursedesk/coursedesk/internal/authz"
)

// View is the role-shaped representation of an assignment. Roster is present
// only for the administrative/owning-teacher projection; OwnSubmission only
// for a student who has submitted.
type View struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	DueDate       time.Time          `json:"dueDate"`
	TeacherName   string             `json:"teacherName"`
	Roster        []SubmissionView   `json:"roster,omitempty"`
	OwnSubmission *SubmissionView    `json:"ownSubmission,omitempty"`
}

// SubmissionView is the wire shape of a roster entry.
type SubmissionView struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"studentId,omitempty"`
	StudentName string    `json:"studentName,omitempty"`
	Status      string    `json:"status"`
	Grade       *int      `json:"grade,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// FullProjection reports whether the caller gets the administrative view with
// the complete submission roster.
func FullProjection(p authz.Principal, a Assignment) bool {
	if p.HasRole(authz.RoleAdmin) {
		return true
	}
	return p.HasRole(authz.RoleTeacher) && a.TeacherID == p.UserID
}

// Project shapes the assignment for the caller. It is a pure function of the
// already-authorized inputs; no further authorization decision happens here.
// The restricted projection exposes public fields and at most the caller's
// own submission, never other students' work.
func Project(p authz.Principal, a Assignment, roster []SubmissionSummary, own *SubmissionSummary) View {
	view := View{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		DueDate:     a.DueDate,
		TeacherName: a.TeacherName,
	}
	if FullProjection(p, a) {
		view.Roster = make([]SubmissionView, len(roster))
		for i, entry := range roster {
			view.Roster[i] = toSubmissionView(entry, true)
		}
		return view
	}
	if own != nil {
		v := toSubmissionView(*own, false)
		view.OwnSubmission = &v
	}
	return view
}

func toSubmissionView(entry SubmissionSummary, withStudent bool) SubmissionView {
	view := SubmissionView{
		ID:          entry.ID,
		Status:      entry.Status,
		Grade:       entry.Grade,
		SubmittedAt: entry.SubmittedAt,
	}
	if withStudent {
		view.StudentID = entry.StudentID
		view.StudentName = entry.StudentName
	}
	return view
}
