package emaillogs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stm32-workshop/backend/internal/models"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RecordSent inserts a log row for a delivered email.
func (r *Repository) RecordSent(ctx context.Context, registrationID uuid.UUID, emailType, recipient, subject string) error {
	const q = `INSERT INTO email_logs (registration_id, email_type, recipient_email, subject, status, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, q, registrationID, emailType, recipient, subject, models.EmailLogStatusSent, time.Now())
	return err
}

// RecordFailed inserts a log row for a failed delivery attempt.
func (r *Repository) RecordFailed(ctx context.Context, registrationID uuid.UUID, emailType, recipient, subject, errMsg string) error {
	const q = `INSERT INTO email_logs (registration_id, email_type, recipient_email, subject, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, q, registrationID, emailType, recipient, subject, models.EmailLogStatusFailed, errMsg)
	return err
}

// ListByRegistration returns email logs for a registration, newest first.
func (r *Repository) ListByRegistration(ctx context.Context, registrationID uuid.UUID) ([]*models.EmailLog, error) {
	const q = `SELECT id, registration_id, email_type, recipient_email, subject, status, sent_at, error_message, created_at
		FROM email_logs
		WHERE registration_id = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, registrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.EmailLog
	for rows.Next() {
		var el models.EmailLog
		var subject, errMsg *string
		if err := rows.Scan(&el.ID, &el.RegistrationID, &el.EmailType, &el.RecipientEmail, &subject, &el.Status, &el.SentAt, &errMsg, &el.CreatedAt); err != nil {
			return nil, err
		}
		if subject != nil {
			el.Subject = *subject
		}
		if errMsg != nil {
			el.ErrorMessage = *errMsg
		}
		list = append(list, &el)
	}
	return list, rows.Err()
}
