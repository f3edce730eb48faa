package registrations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stm32-workshop/backend/internal/models"
)

// Repository is the PostgreSQL-backed registration store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const registrationColumns = `id, first_name, last_name, email, mobile, college, specialization, course,
	kit_option, amount, transaction_id,
	resume_key, resume_content_type, resume_filename,
	payment_proof_key, payment_proof_content_type, payment_proof_filename,
	qr_code_key, qr_code_content_type,
	status, rejection_reason, unique_token,
	attended_day1, attended_day2, created_at, updated_at`

// Create inserts a registration. The sparse unique index on transaction_id
// is the authoritative duplicate guard; violations surface as
// ErrDuplicateTransaction.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	const q = `INSERT INTO registrations (
			id, first_name, last_name, email, mobile, college, specialization, course,
			kit_option, amount, transaction_id,
			resume_key, resume_content_type, resume_filename,
			payment_proof_key, payment_proof_content_type, payment_proof_filename,
			status, unique_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''),
			$12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q,
		reg.ID, reg.FirstName, reg.LastName, reg.Email, reg.Mobile,
		reg.College, reg.Specialization, reg.Course,
		reg.KitOption, reg.Amount, reg.TransactionID,
		reg.Resume.Key, reg.Resume.ContentType, reg.Resume.Filename,
		reg.PaymentProof.Key, reg.PaymentProof.ContentType, reg.PaymentProof.Filename,
		reg.Status, reg.UniqueToken,
	).Scan(&reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateTransaction
		}
		return err
	}
	return nil
}

// GetByID returns a registration by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	reg, err := scanRegistration(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// TransactionExists reports whether a registration holds the transaction id.
func (r *Repository) TransactionExists(ctx context.Context, transactionID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM registrations WHERE transaction_id = $1)`
	var exists bool
	err := r.pool.QueryRow(ctx, q, transactionID).Scan(&exists)
	return exists, err
}

// Confirm applies processing -> confirmed and stores the QR reference. The
// status predicate makes the transition a compare-and-set, so a racing
// confirm/reject leaves exactly one terminal state.
func (r *Repository) Confirm(ctx context.Context, id uuid.UUID, qrCode models.FileRef) error {
	const q = `UPDATE registrations
		SET status = 'confirmed', qr_code_key = $2, qr_code_content_type = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'`
	tag, err := r.pool.Exec(ctx, q, id, qrCode.Key, qrCode.ContentType)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.transitionFailure(ctx, id)
	}
	return nil
}

// Reject applies processing -> rejected with the given reason.
func (r *Repository) Reject(ctx context.Context, id uuid.UUID, reason string) error {
	const q = `UPDATE registrations
		SET status = 'rejected', rejection_reason = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'`
	tag, err := r.pool.Exec(ctx, q, id, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.transitionFailure(ctx, id)
	}
	return nil
}

// transitionFailure distinguishes a missing row from a lost status race.
func (r *Repository) transitionFailure(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM registrations WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrAlreadyFinalized
}

// MarkAttendance flips the day's flag false -> true. The WHERE predicate is
// the idempotence guard: the loser of a concurrent double scan affects zero
// rows and reports already-marked.
func (r *Repository) MarkAttendance(ctx context.Context, id uuid.UUID, day int) (bool, error) {
	var q string
	switch day {
	case 1:
		q = `UPDATE registrations SET attended_day1 = TRUE, updated_at = NOW()
			WHERE id = $1 AND status = 'confirmed' AND attended_day1 = FALSE`
	case 2:
		q = `UPDATE registrations SET attended_day2 = TRUE, updated_at = NOW()
			WHERE id = $1 AND status = 'confirmed' AND attended_day2 = FALSE`
	default:
		return false, fmt.Errorf("invalid day: %d", day)
	}
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// List returns registrations matching the filter, newest first, plus the
// total match count. Binary data never lives in this table so listing is
// cheap.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.Registration, int, error) {
	var where []string
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR transaction_id ILIKE $%d)",
			n, n, n, n))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registrations`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	q := `SELECT ` + registrationColumns + ` FROM registrations` + clause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *reg)
	}
	return list, total, rows.Err()
}

// Stats returns dashboard counts in a single query.
func (r *Repository) Stats(ctx context.Context) (*models.Stats, error) {
	const q = `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'processing'),
		COUNT(*) FILTER (WHERE status = 'confirmed'),
		COUNT(*) FILTER (WHERE status = 'rejected'),
		COUNT(*) FILTER (WHERE kit_option = 'with-kit'),
		COUNT(*) FILTER (WHERE kit_option = 'without-kit'),
		COUNT(*) FILTER (WHERE attended_day1),
		COUNT(*) FILTER (WHERE attended_day2)
		FROM registrations`
	var s models.Stats
	err := r.pool.QueryRow(ctx, q).Scan(
		&s.Total, &s.Processing, &s.Confirmed, &s.Rejected,
		&s.WithKit, &s.WithoutKit, &s.Day1, &s.Day2,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	var txID, rejection *string
	var resumeKey, resumeCT, resumeName *string
	var proofKey, proofCT, proofName *string
	var qrKey, qrCT *string
	err := row.Scan(
		&reg.ID, &reg.FirstName, &reg.LastName, &reg.Email, &reg.Mobile,
		&reg.College, &reg.Specialization, &reg.Course,
		&reg.KitOption, &reg.Amount, &txID,
		&resumeKey, &resumeCT, &resumeName,
		&proofKey, &proofCT, &proofName,
		&qrKey, &qrCT,
		&reg.Status, &rejection, &reg.UniqueToken,
		&reg.AttendedDay1, &reg.AttendedDay2, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	reg.TransactionID = deref(txID)
	reg.RejectionReason = deref(rejection)
	reg.Resume = models.FileRef{Key: deref(resumeKey), ContentType: deref(resumeCT), Filename: deref(resumeName)}
	reg.PaymentProof = models.FileRef{Key: deref(proofKey), ContentType: deref(proofCT), Filename: deref(proofName)}
	reg.QRCode = models.FileRef{Key: deref(qrKey), ContentType: deref(qrCT)}
	return &reg, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
