// Package attendance validates scanned entry QR payloads and applies the
// idempotent per-day check-in mark.
package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stm32-workshop/backend/internal/models"
	"github.com/stm32-workshop/backend/internal/qr"
	"github.com/stm32-workshop/backend/internal/registrations"
)

var (
	// ErrInvalidDay means the day is not 1 or 2.
	ErrInvalidDay = errors.New("invalid day, must be 1 or 2")
	// ErrInvalidToken means the QR token does not match the registration's
	// entry token. Token equality is the sole proof of entry eligibility.
	ErrInvalidToken = errors.New("invalid QR token")
)

// NotConfirmedError means the registration is not in a check-in-eligible
// state. It names the actual status so front-desk staff can explain the
// denial.
type NotConfirmedError struct {
	Status models.Status
}

func (e *NotConfirmedError) Error() string {
	return fmt.Sprintf("registration is %s, only confirmed attendees can enter", e.Status)
}

// AlreadyScannedError signals a repeat scan for a day already marked. Not a
// hard failure: the scanner UI shows "already checked in" with the name.
type AlreadyScannedError struct {
	Name string
	Day  int
}

func (e *AlreadyScannedError) Error() string {
	return fmt.Sprintf("%s has already been marked present for Day %d", e.Name, e.Day)
}

// ScanResult is the door-verification payload returned on a first scan.
type ScanResult struct {
	Message   string           `json:"message"`
	Name      string           `json:"name"`
	College   string           `json:"college"`
	KitOption models.KitOption `json:"kitOption"`
	Day       int              `json:"day"`
}

// Service applies scan check-ins against the registration store.
type Service struct {
	store  registrations.Store
	logger *zap.Logger
}

// NewService creates an attendance service.
func NewService(store registrations.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Scan validates the QR payload and marks attendance for the day. The flag
// flip is a compare-and-set in the store, so two concurrent scans of the
// same QR produce exactly one success; the loser gets AlreadyScannedError.
func (s *Service) Scan(ctx context.Context, rawPayload json.RawMessage, day int) (*ScanResult, error) {
	if day != 1 && day != 2 {
		return nil, ErrInvalidDay
	}

	payload, err := qr.ParsePayload(rawPayload)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(payload.ID)
	if err != nil {
		return nil, qr.ErrInvalidData
	}

	reg, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Exact string equality, no normalization.
	if reg.UniqueToken != payload.Token {
		return nil, ErrInvalidToken
	}
	if reg.Status != models.StatusConfirmed {
		return nil, &NotConfirmedError{Status: reg.Status}
	}

	marked, err := s.store.MarkAttendance(ctx, id, day)
	if err != nil {
		return nil, err
	}
	if !marked {
		// Lost the race or a repeat scan; re-read to tell the two apart.
		current, err := s.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status != models.StatusConfirmed {
			return nil, &NotConfirmedError{Status: current.Status}
		}
		return nil, &AlreadyScannedError{Name: current.DisplayName(), Day: day}
	}

	s.logger.Info("attendance marked",
		zap.String("registration_id", id.String()),
		zap.Int("day", day),
	)
	return &ScanResult{
		Message:   fmt.Sprintf("Welcome! %s marked present for Day %d.", reg.DisplayName(), day),
		Name:      reg.DisplayName(),
		College:   reg.College,
		KitOption: reg.KitOption,
		Day:       day,
	}, nil
}
