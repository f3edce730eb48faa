package registrations

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stm32-workshop/backend/internal/models"
	"github.com/stm32-workshop/backend/internal/upload"
	"github.com/stm32-workshop/backend/pkg/storage"
)

// recordingDispatcher captures dispatched notification types in order.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []string
}

func (d *recordingDispatcher) RegistrationSubmitted(*models.Registration) { d.record("processing") }
func (d *recordingDispatcher) RegistrationConfirmed(*models.Registration) { d.record("confirmation") }
func (d *recordingDispatcher) RegistrationRejected(*models.Registration)  { d.record("rejection") }

func (d *recordingDispatcher) record(event string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *recordingDispatcher) Events() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.events...)
}

func newTestService() (*Service, *MemoryStore, *storage.Memory, *recordingDispatcher) {
	store := NewMemoryStore()
	blobs := storage.NewMemory()
	dispatcher := &recordingDispatcher{}
	return NewService(store, blobs, dispatcher, nil), store, blobs, dispatcher
}

func validSubmitInput(txID string) SubmitInput {
	return SubmitInput{
		FirstName:      "Asha",
		LastName:       "Nair",
		Email:          "Asha.Nair@example.com",
		Mobile:         "9876543210",
		College:        "NIT Trichy",
		Specialization: "ECE",
		Course:         "B.Tech",
		KitOption:      string(models.KitWithKit),
		TransactionID:  txID,
		Resume:         upload.File{Filename: "resume.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 resume")},
		PaymentProof:   upload.File{Filename: "proof.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	}
}

func TestSubmitCreatesProcessingRegistration(t *testing.T) {
	svc, store, blobs, dispatcher := newTestService()
	ctx := context.Background()

	reg, err := svc.Submit(ctx, validSubmitInput("TXN-1001"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusProcessing, reg.Status)
	assert.Equal(t, 1200, reg.Amount)
	assert.Equal(t, "asha.nair@example.com", reg.Email)
	assert.NotEmpty(t, reg.UniqueToken)
	_, err = uuid.Parse(reg.UniqueToken)
	assert.NoError(t, err, "entry token should be a UUID")
	assert.False(t, reg.AttendedDay1)
	assert.False(t, reg.AttendedDay2)
	assert.False(t, reg.QRCode.Present(), "no QR before confirmation")

	stored, err := store.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, reg.UniqueToken, stored.UniqueToken)

	// Both uploads land in the blob store; the row carries handles only.
	data, contentType, err := blobs.Get(ctx, reg.Resume.Key)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.Equal(t, []byte("%PDF-1.4 resume"), data)
	_, _, err = blobs.Get(ctx, reg.PaymentProof.Key)
	require.NoError(t, err)

	assert.Equal(t, []string{"processing"}, dispatcher.Events())
}

func TestSubmitWithoutKitAmount(t *testing.T) {
	svc, _, _, _ := newTestService()
	in := validSubmitInput("TXN-1002")
	in.KitOption = string(models.KitWithoutKit)

	reg, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 699, reg.Amount)
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SubmitInput)
	}{
		{"missing first name", func(in *SubmitInput) { in.FirstName = "  " }},
		{"missing email", func(in *SubmitInput) { in.Email = "" }},
		{"missing mobile", func(in *SubmitInput) { in.Mobile = "" }},
		{"invalid kit option", func(in *SubmitInput) { in.KitOption = "deluxe" }},
		{"missing transaction id", func(in *SubmitInput) { in.TransactionID = "  " }},
		{"missing resume", func(in *SubmitInput) { in.Resume = upload.File{} }},
		{"resume wrong type", func(in *SubmitInput) {
			in.Resume = upload.File{Filename: "resume.exe", ContentType: "application/octet-stream", Data: []byte{1}}
		}},
		{"missing payment proof", func(in *SubmitInput) { in.PaymentProof = upload.File{} }},
		{"payment proof pdf", func(in *SubmitInput) {
			in.PaymentProof = upload.File{Filename: "proof.pdf", ContentType: "application/pdf", Data: []byte{1}}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, _, dispatcher := newTestService()
			in := validSubmitInput("TXN-2000")
			tc.mutate(&in)

			_, err := svc.Submit(context.Background(), in)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)

			// Nothing persisted, nothing dispatched.
			_, total, err := store.List(context.Background(), ListFilter{})
			require.NoError(t, err)
			assert.Zero(t, total)
			assert.Empty(t, dispatcher.Events())
		})
	}
}

func TestSubmitDuplicateTransaction(t *testing.T) {
	svc, _, _, dispatcher := newTestService()
	ctx := context.Background()

	_, err := svc.Submit(ctx, validSubmitInput("TXN-3000"))
	require.NoError(t, err)

	in := validSubmitInput("TXN-3000")
	in.Email = "someone.else@example.com"
	_, err = svc.Submit(ctx, in)
	assert.ErrorIs(t, err, ErrDuplicateTransaction)
	assert.Equal(t, []string{"processing"}, dispatcher.Events())
}

func TestSubmitConcurrentSameTransaction(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(ctx, validSubmitInput("TXN-RACE"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, ErrDuplicateTransaction)
			dup++
		}
	}
	assert.Equal(t, 1, ok, "exactly one submission wins")
	assert.Equal(t, attempts-1, dup)

	_, total, err := store.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestConfirmMintsQRAndKeepsToken(t *testing.T) {
	svc, store, blobs, dispatcher := newTestService()
	ctx := context.Background()

	reg, err := svc.Submit(ctx, validSubmitInput("TXN-4000"))
	require.NoError(t, err)
	tokenBefore := reg.UniqueToken

	require.NoError(t, svc.Confirm(ctx, reg.ID))

	after, err := store.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, after.Status)
	assert.Equal(t, tokenBefore, after.UniqueToken, "confirmation never rotates the entry token")
	require.True(t, after.QRCode.Present())

	png, contentType, err := blobs.Get(ctx, after.QRCode.Key)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])

	assert.Equal(t, []string{"processing", "confirmation"}, dispatcher.Events())
}

func TestConfirmNotFound(t *testing.T) {
	svc, _, _, _ := newTestService()
	err := svc.Confirm(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConfirmAlreadyFinalized(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	reg, err := svc.Submit(ctx, validSubmitInput("TXN-5000"))
	require.NoError(t, err)
	require.NoError(t, svc.Confirm(ctx, reg.ID))

	assert.ErrorIs(t, svc.Confirm(ctx, reg.ID), ErrAlreadyFinalized)
	assert.ErrorIs(t, svc.Reject(ctx, reg.ID, "late"), ErrAlreadyFinalized)
}

func TestRejectRecordsReason(t *testing.T) {
	svc, store, _, dispatcher := newTestService()
	ctx := context.Background()

	reg, err := svc.Submit(ctx, validSubmitInput("TXN-6000"))
	require.NoError(t, err)
	require.NoError(t, svc.Reject(ctx, reg.ID, "  payment could not be verified  "))

	after, err := store.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, after.Status)
	assert.Equal(t, "payment could not be verified", after.RejectionReason)
	assert.False(t, after.QRCode.Present(), "no QR for rejected registrations")

	assert.ErrorIs(t, svc.Confirm(ctx, reg.ID), ErrAlreadyFinalized)
	assert.Equal(t, []string{"processing", "rejection"}, dispatcher.Events())
}

func TestRejectRequiresReason(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	reg, err := svc.Submit(ctx, validSubmitInput("TXN-7000"))
	require.NoError(t, err)

	var vErr *ValidationError
	assert.ErrorAs(t, svc.Reject(ctx, reg.ID, "   "), &vErr)

	after, err := store.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, after.Status)
}

func TestTransactionExists(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	exists, err := svc.TransactionExists(ctx, "TXN-8000")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = svc.Submit(ctx, validSubmitInput("TXN-8000"))
	require.NoError(t, err)

	exists, err = svc.TransactionExists(ctx, "TXN-8000")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestListFiltersAndStats(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	a, err := svc.Submit(ctx, validSubmitInput("TXN-A"))
	require.NoError(t, err)

	inB := validSubmitInput("TXN-B")
	inB.FirstName = "Ravi"
	inB.Email = "ravi@example.com"
	inB.KitOption = string(models.KitWithoutKit)
	b, err := svc.Submit(ctx, inB)
	require.NoError(t, err)

	require.NoError(t, svc.Confirm(ctx, a.ID))
	require.NoError(t, svc.Reject(ctx, b.ID, "illegible payment proof"))

	confirmed, total, err := svc.List(ctx, ListFilter{Status: string(models.StatusConfirmed)})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, confirmed, 1)
	assert.Equal(t, a.ID, confirmed[0].ID)

	byName, total, err := svc.List(ctx, ListFilter{Search: "ravi"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, byName, 1)
	assert.Equal(t, b.ID, byName[0].ID)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 0, stats.Processing)
	assert.Equal(t, 1, stats.Confirmed)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 1, stats.WithKit)
	assert.Equal(t, 1, stats.WithoutKit)
}
