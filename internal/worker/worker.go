// Package worker runs the email delivery loop. It consumes lifecycle email
// jobs from the Redis queue, renders the event template, pulls the QR blob
// for confirmations, sends via SMTP and records the outcome in email_logs.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stm32-workshop/backend/internal/emaillogs"
	"github.com/stm32-workshop/backend/internal/mailer"
	"github.com/stm32-workshop/backend/internal/models"
	"github.com/stm32-workshop/backend/internal/registrations"
	"github.com/stm32-workshop/backend/pkg/queue"
	"github.com/stm32-workshop/backend/pkg/storage"
)

// EmailProcessor processes lifecycle email jobs.
type EmailProcessor struct {
	store     registrations.Store
	blobs     storage.Store
	mailer    *mailer.Mailer
	emailLogs *emaillogs.Repository
	queue     *queue.Queue
	logger    *zap.Logger
}

// NewEmailProcessor creates an email job processor.
func NewEmailProcessor(store registrations.Store, blobs storage.Store, m *mailer.Mailer, logs *emaillogs.Repository, q *queue.Queue, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{store: store, blobs: blobs, mailer: m, emailLogs: logs, queue: q, logger: logger}
}

// Process executes one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	reg, err := p.store.GetByID(ctx, payload.RegistrationID)
	if err != nil {
		return fmt.Errorf("load registration %s: %w", payload.RegistrationID, err)
	}

	var subject, html string
	var attachments []mailer.Attachment
	switch payload.EmailType {
	case models.EmailTypeProcessing:
		subject, html, err = mailer.ProcessingEmail(reg)
	case models.EmailTypeConfirmation:
		subject, html, err = mailer.ConfirmationEmail(reg)
		if err == nil && reg.QRCode.Present() {
			data, contentType, blobErr := p.blobs.Get(ctx, reg.QRCode.Key)
			if blobErr != nil {
				return fmt.Errorf("load qr blob: %w", blobErr)
			}
			attachments = append(attachments, mailer.Attachment{
				Filename:    "entry-qrcode.png",
				ContentType: contentType,
				Data:        data,
			})
		}
	case models.EmailTypeRejection:
		subject, html, err = mailer.RejectionEmail(reg)
	default:
		return fmt.Errorf("unknown email type: %s", payload.EmailType)
	}
	if err != nil {
		return err
	}

	msg := mailer.Message{
		To:          payload.RecipientEmail,
		Subject:     subject,
		HTML:        html,
		Attachments: attachments,
	}
	if err := p.mailer.Send(msg); err != nil {
		if logErr := p.emailLogs.RecordFailed(ctx, reg.ID, payload.EmailType, payload.RecipientEmail, subject, err.Error()); logErr != nil {
			p.logger.Error("record failed email log", zap.Error(logErr))
		}
		return err
	}

	if err := p.emailLogs.RecordSent(ctx, reg.ID, payload.EmailType, payload.RecipientEmail, subject); err != nil {
		p.logger.Error("record sent email log", zap.Error(err))
	}
	p.logger.Info("email delivered",
		zap.String("email_type", payload.EmailType),
		zap.String("registration_id", reg.ID.String()),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
