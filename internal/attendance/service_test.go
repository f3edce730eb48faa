package attendance

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stm32-workshop/backend/internal/models"
	"github.com/stm32-workshop/backend/internal/qr"
	"github.com/stm32-workshop/backend/internal/registrations"
	"github.com/stm32-workshop/backend/internal/upload"
	"github.com/stm32-workshop/backend/pkg/storage"
)

func seedRegistration(t *testing.T, store *registrations.MemoryStore, confirm bool) *models.Registration {
	t.Helper()
	svc := registrations.NewService(store, storage.NewMemory(), nil, nil)
	reg, err := svc.Submit(context.Background(), registrations.SubmitInput{
		FirstName:      "Meera",
		LastName:       "Pillai",
		Email:          "meera@example.com",
		Mobile:         "9876501234",
		College:        "IIT Madras",
		Specialization: "EEE",
		Course:         "B.Tech",
		KitOption:      string(models.KitWithKit),
		TransactionID:  "TXN-" + uuid.NewString(),
		Resume:         upload.File{Filename: "resume.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
		PaymentProof:   upload.File{Filename: "proof.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	})
	require.NoError(t, err)
	if confirm {
		require.NoError(t, svc.Confirm(context.Background(), reg.ID))
	}
	current, err := store.GetByID(context.Background(), reg.ID)
	require.NoError(t, err)
	return current
}

func qrData(t *testing.T, reg *models.Registration) json.RawMessage {
	t.Helper()
	encoded, err := qr.Payload{ID: reg.ID.String(), Token: reg.UniqueToken, Name: reg.DisplayName()}.Encode()
	require.NoError(t, err)
	return json.RawMessage(encoded)
}

func TestScanMarksAttendance(t *testing.T) {
	store := registrations.NewMemoryStore()
	reg := seedRegistration(t, store, true)
	svc := NewService(store, nil)
	ctx := context.Background()

	result, err := svc.Scan(ctx, qrData(t, reg), 1)
	require.NoError(t, err)
	assert.Equal(t, "Meera Pillai", result.Name)
	assert.Equal(t, "IIT Madras", result.College)
	assert.Equal(t, models.KitWithKit, result.KitOption)
	assert.Equal(t, 1, result.Day)
	assert.Contains(t, result.Message, "Day 1")

	after, err := store.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.True(t, after.AttendedDay1)
	assert.False(t, after.AttendedDay2, "day 2 untouched by a day 1 scan")
}

func TestScanRepeatSameDay(t *testing.T) {
	store := registrations.NewMemoryStore()
	reg := seedRegistration(t, store, true)
	svc := NewService(store, nil)
	ctx := context.Background()

	_, err := svc.Scan(ctx, qrData(t, reg), 1)
	require.NoError(t, err)

	_, err = svc.Scan(ctx, qrData(t, reg), 1)
	var already *AlreadyScannedError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, "Meera Pillai", already.Name)
	assert.Equal(t, 1, already.Day)

	// The repeat scan changes nothing.
	after, err := store.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.True(t, after.AttendedDay1)
	assert.False(t, after.AttendedDay2)
}

func TestScanDaysAreIndependent(t *testing.T) {
	store := registrations.NewMemoryStore()
	reg := seedRegistration(t, store, true)
	svc := NewService(store, nil)
	ctx := context.Background()

	_, err := svc.Scan(ctx, qrData(t, reg), 1)
	require.NoError(t, err)
	_, err = svc.Scan(ctx, qrData(t, reg), 2)
	require.NoError(t, err)

	after, err := store.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.True(t, after.AttendedDay1)
	assert.True(t, after.AttendedDay2)

	_, err = svc.Scan(ctx, qrData(t, reg), 2)
	var already *AlreadyScannedError
	assert.ErrorAs(t, err, &already)
}

func TestScanConcurrentSameDay(t *testing.T) {
	store := registrations.NewMemoryStore()
	reg := seedRegistration(t, store, true)
	svc := NewService(store, nil)
	data := qrData(t, reg)

	const scans = 8
	errs := make(chan error, scans)
	var wg sync.WaitGroup
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Scan(context.Background(), data, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, repeat int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			var already *AlreadyScannedError
			require.ErrorAs(t, err, &already)
			repeat++
		}
	}
	assert.Equal(t, 1, ok, "exactly one scan wins the check-in")
	assert.Equal(t, scans-1, repeat)
}

func TestScanNotConfirmed(t *testing.T) {
	store := registrations.NewMemoryStore()
	reg := seedRegistration(t, store, false)
	svc := NewService(store, nil)

	_, err := svc.Scan(context.Background(), qrData(t, reg), 1)
	var notConfirmed *NotConfirmedError
	require.ErrorAs(t, err, &notConfirmed)
	assert.Equal(t, models.StatusProcessing, notConfirmed.Status)
}

func TestScanWrongToken(t *testing.T) {
	store := registrations.NewMemoryStore()
	reg := seedRegistration(t, store, true)
	svc := NewService(store, nil)

	encoded, err := qr.Payload{ID: reg.ID.String(), Token: uuid.NewString(), Name: reg.DisplayName()}.Encode()
	require.NoError(t, err)

	_, err = svc.Scan(context.Background(), json.RawMessage(encoded), 1)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestScanUnknownRegistration(t *testing.T) {
	store := registrations.NewMemoryStore()
	svc := NewService(store, nil)

	encoded, err := qr.Payload{ID: uuid.NewString(), Token: uuid.NewString(), Name: "Ghost"}.Encode()
	require.NoError(t, err)

	_, err = svc.Scan(context.Background(), json.RawMessage(encoded), 1)
	assert.ErrorIs(t, err, registrations.ErrNotFound)
}

func TestScanInvalidInput(t *testing.T) {
	store := registrations.NewMemoryStore()
	reg := seedRegistration(t, store, true)
	svc := NewService(store, nil)
	ctx := context.Background()

	t.Run("day out of range", func(t *testing.T) {
		_, err := svc.Scan(ctx, qrData(t, reg), 3)
		assert.ErrorIs(t, err, ErrInvalidDay)
		_, err = svc.Scan(ctx, qrData(t, reg), 0)
		assert.ErrorIs(t, err, ErrInvalidDay)
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := svc.Scan(ctx, json.RawMessage(`not json at all`), 1)
		assert.ErrorIs(t, err, qr.ErrInvalidFormat)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Scan(ctx, json.RawMessage(`{"name":"only a name"}`), 1)
		assert.ErrorIs(t, err, qr.ErrInvalidData)
	})

	t.Run("id not a uuid", func(t *testing.T) {
		_, err := svc.Scan(ctx, json.RawMessage(`{"id":"42","token":"abc"}`), 1)
		assert.ErrorIs(t, err, qr.ErrInvalidData)
	})
}

func TestScanStringWrappedPayload(t *testing.T) {
	store := registrations.NewMemoryStore()
	reg := seedRegistration(t, store, true)
	svc := NewService(store, nil)

	inner := string(qrData(t, reg))
	wrapped, err := json.Marshal(inner)
	require.NoError(t, err)

	result, err := svc.Scan(context.Background(), wrapped, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Day)
}
