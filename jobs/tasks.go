// Package jobs defines background tasks processed by the worker binary.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSubmissionReceived notifies the teacher about a new submission.
	TaskTypeSubmissionReceived = "submission:received"
	// TaskTypeGradePosted notifies the student about a posted grade.
	TaskTypeGradePosted = "submission:graded"
)

// SubmissionReceivedPayload describes a freshly created submission.
type SubmissionReceivedPayload struct {
	SubmissionID    string `json:"submission_id"`
	AssignmentID    string `json:"assignment_id"`
	AssignmentTitle string `json:"assignment_title"`
	StudentName     string `json:"student_name"`
	TeacherID       string `json:"teacher_id"`
}

// GradePostedPayload describes a posted grade.
type GradePostedPayload struct {
	SubmissionID    string `json:"submission_id"`
	AssignmentTitle string `json:"assignment_title"`
	StudentID       string `json:"student_id"`
	Grade           int    `json:"grade"`
}

// NewSubmissionReceivedTask constructs an Asynq task.
func NewSubmissionReceivedTask(payload SubmissionReceivedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSubmissionReceived, data), nil
}

// NewGradePostedTask constructs an Asynq task.
func NewGradePostedTask(payload GradePostedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeGradePosted, data), nil
}

// Processor handles notification tasks in the worker.
type Processor struct {
	Logger *slog.Logger
}

// HandleSubmissionReceived processes TaskTypeSubmissionReceived tasks.
func (p *Processor) HandleSubmissionReceived(ctx context.Context, t *asynq.Task) error {
	var payload SubmissionReceivedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder for the mail integration; delivery channel is logged for now.
	p.Logger.Info("submission received",
		slog.String("submission_id", payload.SubmissionID),
		slog.String("assignment", payload.AssignmentTitle),
		slog.String("student", payload.StudentName),
		slog.String("teacher_id", payload.TeacherID),
	)
	return nil
}

// HandleGradePosted processes TaskTypeGradePosted tasks.
func (p *Processor) HandleGradePosted(ctx context.Context, t *asynq.Task) error {
	var payload GradePostedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	p.Logger.Info("grade posted",
		slog.String("submission_id", payload.SubmissionID),
		slog.String("assignment", payload.AssignmentTitle),
		slog.String("student_id", payload.StudentID),
		slog.Int("grade", payload.Grade),
	)
	return nil
}
