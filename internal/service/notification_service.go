package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/freightdesk-api/internal/models"
	"github.com/noah-isme/freightdesk-api/pkg/jobs"
	"github.com/noah-isme/freightdesk-api/pkg/mailer"
)

// JobTypeDecisionEmail is the queue job that mails an approval decision.
const JobTypeDecisionEmail = "approval_decision_email"

// DecisionNotice describes an approve or reject decision for its recipient.
type DecisionNotice struct {
	Type        models.TransactionType
	ID          int64
	ReferenceNo string
	Action      models.ApprovalAction
	Status      models.TransactionStatus
	Comments    *string
	RecipientID int64
	ActorName   string
	DecidedAt   time.Time
}

type recipientDirectory interface {
	EmailsByIDs(ctx context.Context, ids []int64) (map[int64]string, error)
}

// NotificationService mails approval decisions through the background queue.
type NotificationService struct {
	queue  *jobs.Queue
	sender mailer.Sender
	users  recipientDirectory
	logger *zap.Logger
}

// NewNotificationService registers the decision e-mail handler on queue. A nil
// sender logs messages instead of sending them.
func NewNotificationService(queue *jobs.Queue, sender mailer.Sender, users recipientDirectory, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{queue: queue, sender: sender, users: users, logger: logger}
	if queue != nil {
		queue.Handle(JobTypeDecisionEmail, svc.deliver)
	}
	return svc
}

// NotifyDecision enqueues the decision e-mail. Without a queue it is delivered inline.
func (s *NotificationService) NotifyDecision(ctx context.Context, notice DecisionNotice) error {
	job := jobs.Job{Type: JobTypeDecisionEmail, Payload: notice}
	if s.queue == nil {
		return s.deliver(ctx, job)
	}
	return s.queue.Enqueue(job)
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	notice, ok := job.Payload.(DecisionNotice)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	emails, err := s.users.EmailsByIDs(ctx, []int64{notice.RecipientID})
	if err != nil {
		return fmt.Errorf("lookup recipient: %w", err)
	}
	address := emails[notice.RecipientID]
	if address == "" {
		s.logger.Info("decision notification skipped, recipient has no active address", zap.Int64("recipient_id", notice.RecipientID))
		return nil
	}
	msg := decisionMessage(address, notice)
	if s.sender == nil {
		s.logger.Info("decision notification",
			zap.String("to", address),
			zap.String("subject", msg.Subject),
			zap.String("body", msg.Text))
		return nil
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return err
	}
	s.logger.Debug("decision notification sent", zap.String("to", address), zap.String("reference", notice.ReferenceNo))
	return nil
}

func decisionMessage(to string, notice DecisionNotice) mailer.Message {
	label := "Quotation"
	if notice.Type == models.TransactionRFP {
		label = "Request for payment"
	}
	reference := notice.ReferenceNo
	if reference == "" {
		reference = fmt.Sprintf("#%d", notice.ID)
	}
	subject := fmt.Sprintf("%s %s %s", label, reference, notice.Action)

	var body strings.Builder
	fmt.Fprintf(&body, "%s %s was %s", label, reference, notice.Action)
	if notice.ActorName != "" {
		fmt.Fprintf(&body, " by %s", notice.ActorName)
	}
	if !notice.DecidedAt.IsZero() {
		fmt.Fprintf(&body, " on %s", notice.DecidedAt.Format("2006-01-02 15:04 MST"))
	}
	body.WriteString(".\n")
	if notice.Comments != nil && *notice.Comments != "" {
		fmt.Fprintf(&body, "\nComments: %s\n", *notice.Comments)
	}
	if notice.Action == models.ActionRejected {
		body.WriteString("\nRevise the document and submit it again when ready.\n")
	}
	return mailer.Message{To: []string{to}, Subject: subject, Text: body.String()}
}
