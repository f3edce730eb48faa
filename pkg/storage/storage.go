// Package storage provides the blob store for uploaded artifacts (resumes,
// payment proofs, QR images). Registration rows hold only blob keys; the
// bytes live behind this interface so the backend (S3 or Postgres) can be
// swapped by configuration.
package storage

import (
	"context"
	"errors"
	"path"
)

// ErrNotFound is returned when no blob exists for the key.
var ErrNotFound = errors.New("blob not found")

// Store is a minimal put/get blob store.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)
	Delete(ctx context.Context, key string) error
}

// Object key prefixes per artifact kind.
const (
	FolderResumes       = "resumes"
	FolderPaymentProofs = "payment-proofs"
	FolderQRCodes       = "qrcodes"
)

// ResumeKey returns the blob key for a registration's resume.
func ResumeKey(registrationID, filename string) string {
	return path.Join(FolderResumes, registrationID, path.Base(filename))
}

// PaymentProofKey returns the blob key for a registration's payment proof.
func PaymentProofKey(registrationID, filename string) string {
	return path.Join(FolderPaymentProofs, registrationID, path.Base(filename))
}

// QRCodeKey returns the blob key for a registration's entry QR image.
func QRCodeKey(registrationID string) string {
	return path.Join(FolderQRCodes, registrationID+".png")
}
