package registrations

import (
	"context"

	"github.com/google/uuid"

	"github.com/stm32-workshop/backend/internal/models"
)

// ListFilter narrows admin listing queries.
type ListFilter struct {
	Status string // processing | confirmed | rejected, empty = all
	Search string // case-insensitive match on name, email, transaction id
	Page   int    // 1-based
	Limit  int
}

// Store persists registrations. Implementations must enforce transaction id
// uniqueness at the storage level (not read-then-write) and apply status and
// attendance transitions as atomic conditional updates.
type Store interface {
	// Create inserts a new registration. Returns ErrDuplicateTransaction
	// when the transaction id is already taken.
	Create(ctx context.Context, reg *models.Registration) error

	// GetByID returns a registration or ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)

	// TransactionExists reports whether any registration holds the
	// transaction id. Advisory only; Create re-checks authoritatively.
	TransactionExists(ctx context.Context, transactionID string) (bool, error)

	// Confirm transitions processing -> confirmed and records the QR image
	// reference. Returns ErrAlreadyFinalized if the registration is no
	// longer processing, ErrNotFound if it does not exist.
	Confirm(ctx context.Context, id uuid.UUID, qrCode models.FileRef) error

	// Reject transitions processing -> rejected and records the reason.
	// Same error contract as Confirm.
	Reject(ctx context.Context, id uuid.UUID, reason string) error

	// MarkAttendance flips the day's attendance flag false -> true as a
	// compare-and-set. Returns false without error when the flag was
	// already set (or the registration left the confirmed state), so two
	// concurrent scans yield exactly one true.
	MarkAttendance(ctx context.Context, id uuid.UUID, day int) (bool, error)

	// List returns a page of registrations plus the total match count.
	List(ctx context.Context, f ListFilter) ([]models.Registration, int, error)

	// Stats returns dashboard counts.
	Stats(ctx context.Context) (*models.Stats, error)
}
