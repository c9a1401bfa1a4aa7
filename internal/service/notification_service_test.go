package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/freightdesk-api/internal/models"
	"github.com/noah-isme/freightdesk-api/pkg/jobs"
	"github.com/noah-isme/freightdesk-api/pkg/mailer"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []mailer.Message
	failures int
}

func (r *recordingSender) Send(ctx context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return errors.New("smtp unavailable")
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingSender) sent() []mailer.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mailer.Message(nil), r.messages...)
}

type staticDirectory map[int64]string

func (d staticDirectory) EmailsByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	result := make(map[int64]string)
	for _, id := range ids {
		if email, ok := d[id]; ok {
			result[id] = email
		}
	}
	return result, nil
}

func TestNotificationServiceDeliversThroughQueue(t *testing.T) {
	queue := jobs.NewQueue("notifications", jobs.QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 10 * time.Millisecond})
	sender := &recordingSender{failures: 1}
	svc := NewNotificationService(queue, sender, staticDirectory{10: "sam@example.com"}, nil)
	queue.Start(context.Background())
	defer queue.Stop()

	comments := "missing invoice"
	err := svc.NotifyDecision(context.Background(), DecisionNotice{
		Type:        models.TransactionQuotation,
		ID:          1,
		ReferenceNo: "QT-202405-00001",
		Action:      models.ActionRejected,
		Status:      models.StatusRejected,
		Comments:    &comments,
		RecipientID: 10,
		ActorName:   "Mia Manager",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(sender.sent()) == 1 }, time.Second, 10*time.Millisecond)
	msg := sender.sent()[0]
	assert.Equal(t, []string{"sam@example.com"}, msg.To)
	assert.Equal(t, "Quotation QT-202405-00001 rejected", msg.Subject)
	assert.Contains(t, msg.Text, "by Mia Manager")
	assert.Contains(t, msg.Text, "Comments: missing invoice")
}

func TestNotificationServiceSkipsUnknownRecipient(t *testing.T) {
	sender := &recordingSender{}
	svc := NewNotificationService(nil, sender, staticDirectory{}, nil)

	err := svc.NotifyDecision(context.Background(), DecisionNotice{Type: models.TransactionRFP, ID: 4, Action: models.ActionApproved, RecipientID: 77})
	require.NoError(t, err)
	assert.Empty(t, sender.sent())
}

func TestDecisionMessageForRFP(t *testing.T) {
	msg := decisionMessage("ops@example.com", DecisionNotice{Type: models.TransactionRFP, ID: 4, Action: models.ActionApproved})
	assert.Equal(t, "Request for payment #4 approved", msg.Subject)
	assert.NotContains(t, msg.Text, "Comments")
}
