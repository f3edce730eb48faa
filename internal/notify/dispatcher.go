// Package notify dispatches lifecycle notification emails. Dispatch is
// fire-and-forget: the lifecycle transition's outcome never depends on
// whether the notification could be enqueued or delivered.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stm32-workshop/backend/internal/models"
	"github.com/stm32-workshop/backend/pkg/queue"
)

// Dispatcher fires lifecycle notifications. Implementations must not block
// the caller on delivery and must swallow (log) their own failures.
type Dispatcher interface {
	RegistrationSubmitted(reg *models.Registration)
	RegistrationConfirmed(reg *models.Registration)
	RegistrationRejected(reg *models.Registration)
}

// QueueDispatcher hands notifications to the email worker via the Redis job
// queue. The worker loads the registration (and the QR blob for
// confirmations) at send time.
type QueueDispatcher struct {
	queue   *queue.Queue
	logger  *zap.Logger
	timeout time.Duration
}

// NewQueueDispatcher creates a queue-backed dispatcher.
func NewQueueDispatcher(q *queue.Queue, logger *zap.Logger) *QueueDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueDispatcher{queue: q, logger: logger, timeout: 5 * time.Second}
}

// RegistrationSubmitted enqueues the "processing" email.
func (d *QueueDispatcher) RegistrationSubmitted(reg *models.Registration) {
	d.enqueue(models.EmailTypeProcessing, reg)
}

// RegistrationConfirmed enqueues the confirmation email with QR attachment.
func (d *QueueDispatcher) RegistrationConfirmed(reg *models.Registration) {
	d.enqueue(models.EmailTypeConfirmation, reg)
}

// RegistrationRejected enqueues the rejection email.
func (d *QueueDispatcher) RegistrationRejected(reg *models.Registration) {
	d.enqueue(models.EmailTypeRejection, reg)
}

func (d *QueueDispatcher) enqueue(emailType string, reg *models.Registration) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	err := d.queue.EnqueueEmail(ctx, queue.EmailPayload{
		EmailType:      emailType,
		RegistrationID: reg.ID,
		RecipientEmail: reg.Email,
	})
	if err != nil {
		d.logger.Error("enqueue notification failed",
			zap.Error(err),
			zap.String("email_type", emailType),
			zap.String("registration_id", reg.ID.String()),
		)
	}
}

// Nop discards all notifications. Used when no queue is configured.
type Nop struct{}

func (Nop) RegistrationSubmitted(*models.Registration) {}
func (Nop) RegistrationConfirmed(*models.Registration) {}
func (Nop) RegistrationRejected(*models.Registration)  {}
