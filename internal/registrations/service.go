package registrations

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stm32-workshop/backend/internal/models"
	"github.com/stm32-workshop/backend/internal/notify"
	"github.com/stm32-workshop/backend/internal/qr"
	"github.com/stm32-workshop/backend/internal/upload"
	"github.com/stm32-workshop/backend/pkg/storage"
)

// Service applies registration lifecycle transitions: submit, confirm,
// reject. Notifications are dispatched fire-and-forget after the data
// mutation commits.
type Service struct {
	store      Store
	blobs      storage.Store
	dispatcher notify.Dispatcher
	logger     *zap.Logger
}

// NewService creates a registration lifecycle service.
func NewService(store Store, blobs storage.Store, dispatcher notify.Dispatcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dispatcher == nil {
		dispatcher = notify.Nop{}
	}
	return &Service{store: store, blobs: blobs, dispatcher: dispatcher, logger: logger}
}

// SubmitInput carries the public registration form plus its uploads.
type SubmitInput struct {
	FirstName      string
	LastName       string
	Email          string
	Mobile         string
	College        string
	Specialization string
	Course         string
	KitOption      string
	TransactionID  string
	Resume         upload.File
	PaymentProof   upload.File
}

// Submit validates and stores a new registration in the processing state.
// The amount is derived from the kit option server-side and the entry token
// is minted here, once, for the lifetime of the record.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.Registration, error) {
	required := []struct{ name, value string }{
		{"first name", in.FirstName},
		{"last name", in.LastName},
		{"email", in.Email},
		{"mobile", in.Mobile},
		{"college", in.College},
		{"specialization", in.Specialization},
		{"course", in.Course},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return nil, validationErrorf("%s is required", f.name)
		}
	}

	kitOption := models.KitOption(strings.TrimSpace(in.KitOption))
	if !kitOption.Valid() {
		return nil, validationErrorf("kit option must be %q or %q", models.KitWithKit, models.KitWithoutKit)
	}

	transactionID := strings.TrimSpace(in.TransactionID)
	if transactionID == "" {
		return nil, validationErrorf("transaction id is required")
	}

	if err := upload.ValidateResume(in.Resume); err != nil {
		return nil, &ValidationError{msg: err.Error()}
	}
	if err := upload.ValidatePaymentProof(in.PaymentProof); err != nil {
		return nil, &ValidationError{msg: err.Error()}
	}

	// Advisory pre-check for a friendlier error; the unique index on insert
	// is what actually closes the race.
	exists, err := s.store.TransactionExists(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("check transaction: %w", err)
	}
	if exists {
		return nil, ErrDuplicateTransaction
	}

	reg := &models.Registration{
		ID:             uuid.New(),
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		Mobile:         strings.TrimSpace(in.Mobile),
		College:        strings.TrimSpace(in.College),
		Specialization: strings.TrimSpace(in.Specialization),
		Course:         strings.TrimSpace(in.Course),
		KitOption:      kitOption,
		Amount:         kitOption.Amount(),
		TransactionID:  transactionID,
		Status:         models.StatusProcessing,
		UniqueToken:    uuid.NewString(),
	}

	resumeKey := storage.ResumeKey(reg.ID.String(), in.Resume.Filename)
	if err := s.blobs.Put(ctx, resumeKey, in.Resume.ContentType, in.Resume.Data); err != nil {
		return nil, fmt.Errorf("store resume: %w", err)
	}
	reg.Resume = models.FileRef{Key: resumeKey, ContentType: in.Resume.ContentType, Filename: in.Resume.Filename}

	proofKey := storage.PaymentProofKey(reg.ID.String(), in.PaymentProof.Filename)
	if err := s.blobs.Put(ctx, proofKey, in.PaymentProof.ContentType, in.PaymentProof.Data); err != nil {
		return nil, fmt.Errorf("store payment proof: %w", err)
	}
	reg.PaymentProof = models.FileRef{Key: proofKey, ContentType: in.PaymentProof.ContentType, Filename: in.PaymentProof.Filename}

	if err := s.store.Create(ctx, reg); err != nil {
		return nil, err
	}

	s.dispatcher.RegistrationSubmitted(reg)
	s.logger.Info("registration submitted",
		zap.String("registration_id", reg.ID.String()),
		zap.String("kit_option", string(reg.KitOption)),
	)
	return reg, nil
}

// Confirm transitions a processing registration to confirmed, minting its
// entry QR image. The token is never regenerated; only the image is drawn
// here. Returns ErrAlreadyFinalized when the registration has already been
// confirmed or rejected.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) error {
	reg, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if reg.Status != models.StatusProcessing {
		return ErrAlreadyFinalized
	}

	payload := qr.Payload{
		ID:    reg.ID.String(),
		Token: reg.UniqueToken,
		Name:  reg.DisplayName(),
	}
	png, err := qr.Image(payload)
	if err != nil {
		return fmt.Errorf("render qr: %w", err)
	}

	qrRef := models.FileRef{Key: storage.QRCodeKey(reg.ID.String()), ContentType: "image/png"}
	if err := s.blobs.Put(ctx, qrRef.Key, qrRef.ContentType, png); err != nil {
		return fmt.Errorf("store qr: %w", err)
	}

	if err := s.store.Confirm(ctx, id, qrRef); err != nil {
		return err
	}

	reg.Status = models.StatusConfirmed
	reg.QRCode = qrRef
	s.dispatcher.RegistrationConfirmed(reg)
	s.logger.Info("registration confirmed", zap.String("registration_id", id.String()))
	return nil
}

// Reject transitions a processing registration to rejected, recording the
// reason. The reason is required and trimmed.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return validationErrorf("rejection reason is required")
	}

	reg, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if reg.Status != models.StatusProcessing {
		return ErrAlreadyFinalized
	}

	if err := s.store.Reject(ctx, id, reason); err != nil {
		return err
	}

	reg.Status = models.StatusRejected
	reg.RejectionReason = reason
	s.dispatcher.RegistrationRejected(reg)
	s.logger.Info("registration rejected", zap.String("registration_id", id.String()))
	return nil
}

// TransactionExists is the advisory pre-submission duplicate check.
func (s *Service) TransactionExists(ctx context.Context, transactionID string) (bool, error) {
	return s.store.TransactionExists(ctx, transactionID)
}

// GetByID returns a registration for the admin console.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	return s.store.GetByID(ctx, id)
}

// List returns a page of registrations for the admin console.
func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Registration, int, error) {
	return s.store.List(ctx, f)
}

// Stats returns dashboard counts.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	return s.store.Stats(ctx)
}
