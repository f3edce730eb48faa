package models

import (
	"time"

	"github.com/google/uuid"
)

// KitOption is the purchased workshop package tier.
type KitOption string

const (
	KitWithKit    KitOption = "with-kit"
	KitWithoutKit KitOption = "without-kit"
)

// Valid reports whether the kit option is one of the two offered packages.
func (k KitOption) Valid() bool {
	return k == KitWithKit || k == KitWithoutKit
}

// Amount returns the payable amount for the kit option in INR.
// The amount is always derived server-side; client-supplied values are ignored.
func (k KitOption) Amount() int {
	if k == KitWithKit {
		return 1200
	}
	return 699
}

// Status is the registration lifecycle state.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusConfirmed  Status = "confirmed"
	StatusRejected   Status = "rejected"
)

// FileRef points at an uploaded artifact in the blob store. The registration
// row stores only the handle and metadata, never the bytes.
type FileRef struct {
	Key         string `json:"-"`
	ContentType string `json:"content_type,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

// Present reports whether a blob has been stored for this reference.
func (f FileRef) Present() bool { return f.Key != "" }

// Registration is one person's application to attend the workshop.
type Registration struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Mobile         string    `json:"mobile"`
	College        string    `json:"college"`
	Specialization string    `json:"specialization"`
	Course         string    `json:"course"`

	KitOption     KitOption `json:"kit_option"`
	Amount        int       `json:"amount"`
	TransactionID string    `json:"transaction_id,omitempty"`

	Resume       FileRef `json:"resume"`
	PaymentProof FileRef `json:"payment_proof"`
	QRCode       FileRef `json:"qr_code"`

	Status          Status `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`

	// UniqueToken is the entry secret embedded in the QR payload. Minted
	// once at creation, never regenerated. Excluded from all JSON output.
	UniqueToken string `json:"-"`

	AttendedDay1 bool `json:"attended_day1"`
	AttendedDay2 bool `json:"attended_day2"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns the registrant's full name as shown to staff.
func (r *Registration) DisplayName() string {
	return r.FirstName + " " + r.LastName
}

// Stats summarizes registrations for the admin dashboard.
type Stats struct {
	Total      int `json:"total"`
	Processing int `json:"processing"`
	Confirmed  int `json:"confirmed"`
	Rejected   int `json:"rejected"`
	WithKit    int `json:"withKit"`
	WithoutKit int `json:"withoutKit"`
	Day1       int `json:"day1"`
	Day2       int `json:"day2"`
}
