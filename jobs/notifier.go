package jobs

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/coursedesk/coursedesk/internal/submissions"
)

// Notifier enqueues notification tasks for the worker. It implements the
// submission service's notifier port.
type Notifier struct {
	client *asynq.Client
}

// NewNotifier constructs a Notifier.
func NewNotifier(client *asynq.Client) *Notifier {
	return &Notifier{client: client}
}

// SubmissionReceived enqueues a teacher notification.
func (n *Notifier) SubmissionReceived(ctx context.Context, sub submissions.Submission) error {
	task, err := NewSubmissionReceivedTask(SubmissionReceivedPayload{
		SubmissionID:    sub.ID,
		AssignmentID:    sub.AssignmentID,
		AssignmentTitle: sub.Assignment.Title,
		StudentName:     sub.StudentName,
		TeacherID:       sub.Assignment.TeacherID,
	})
	if err != nil {
		return err
	}
	_, err = n.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// GradePosted enqueues a student notification.
func (n *Notifier) GradePosted(ctx context.Context, sub submissions.Submission) error {
	grade := 0
	if sub.Grade != nil {
		grade = *sub.Grade
	}
	task, err := NewGradePostedTask(GradePostedPayload{
		SubmissionID:    sub.ID,
		AssignmentTitle: sub.Assignment.Title,
		StudentID:       sub.StudentID,
		Grade:           grade,
	})
	if err != nil {
		return err
	}
	_, err = n.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

var _ submissions.NotifierPort = (*Notifier)(nil)
