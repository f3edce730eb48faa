package registrations

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stm32-workshop/backend/internal/models"
)

// MemoryStore is an in-memory Store for tests and local development. It
// mirrors the repository's concurrency contract: transaction uniqueness and
// status/attendance transitions are checked under one lock, so racing
// callers observe the same outcomes as with the Postgres implementation.
type MemoryStore struct {
	mu   sync.Mutex
	regs map[uuid.UUID]*models.Registration
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{regs: make(map[uuid.UUID]*models.Registration)}
}

// Create inserts a registration, enforcing transaction id uniqueness.
func (s *MemoryStore) Create(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reg.TransactionID != "" {
		for _, existing := range s.regs {
			if existing.TransactionID == reg.TransactionID {
				return ErrDuplicateTransaction
			}
		}
	}
	now := time.Now()
	reg.CreatedAt = now
	reg.UpdatedAt = now
	cp := *reg
	s.regs[reg.ID] = &cp
	return nil
}

// GetByID returns a copy of the registration or ErrNotFound.
func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.regs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

// TransactionExists reports whether any registration holds the transaction id.
func (s *MemoryStore) TransactionExists(_ context.Context, transactionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reg := range s.regs {
		if reg.TransactionID != "" && reg.TransactionID == transactionID {
			return true, nil
		}
	}
	return false, nil
}

// Confirm applies processing -> confirmed.
func (s *MemoryStore) Confirm(_ context.Context, id uuid.UUID, qrCode models.FileRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.regs[id]
	if !ok {
		return ErrNotFound
	}
	if reg.Status != models.StatusProcessing {
		return ErrAlreadyFinalized
	}
	reg.Status = models.StatusConfirmed
	reg.QRCode = qrCode
	reg.UpdatedAt = time.Now()
	return nil
}

// Reject applies processing -> rejected.
func (s *MemoryStore) Reject(_ context.Context, id uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.regs[id]
	if !ok {
		return ErrNotFound
	}
	if reg.Status != models.StatusProcessing {
		return ErrAlreadyFinalized
	}
	reg.Status = models.StatusRejected
	reg.RejectionReason = reason
	reg.UpdatedAt = time.Now()
	return nil
}

// MarkAttendance flips the day's flag false -> true under the store lock.
func (s *MemoryStore) MarkAttendance(_ context.Context, id uuid.UUID, day int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.regs[id]
	if !ok {
		return false, nil
	}
	if reg.Status != models.StatusConfirmed {
		return false, nil
	}
	var flag *bool
	switch day {
	case 1:
		flag = &reg.AttendedDay1
	case 2:
		flag = &reg.AttendedDay2
	default:
		return false, nil
	}
	if *flag {
		return false, nil
	}
	*flag = true
	reg.UpdatedAt = time.Now()
	return true, nil
}

// List returns registrations matching the filter, newest first.
func (s *MemoryStore) List(_ context.Context, f ListFilter) ([]models.Registration, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Registration
	search := strings.ToLower(f.Search)
	for _, reg := range s.regs {
		if f.Status != "" && string(reg.Status) != f.Status {
			continue
		}
		if search != "" && !matchesSearch(reg, search) {
			continue
		}
		matched = append(matched, *reg)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func matchesSearch(reg *models.Registration, search string) bool {
	for _, v := range []string{reg.FirstName, reg.LastName, reg.Email, reg.TransactionID} {
		if strings.Contains(strings.ToLower(v), search) {
			return true
		}
	}
	return false
}

// Stats returns dashboard counts.
func (s *MemoryStore) Stats(_ context.Context) (*models.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st models.Stats
	for _, reg := range s.regs {
		st.Total++
		switch reg.Status {
		case models.StatusProcessing:
			st.Processing++
		case models.StatusConfirmed:
			st.Confirmed++
		case models.StatusRejected:
			st.Rejected++
		}
		if reg.KitOption == models.KitWithKit {
			st.WithKit++
		} else {
			st.WithoutKit++
		}
		if reg.AttendedDay1 {
			st.Day1++
		}
		if reg.AttendedDay2 {
			st.Day2++
		}
	}
	return &st, nil
}
