// Package upload validates uploaded files against per-artifact whitelists.
// Both the declared content type and the file extension must pass; checking
// one alone makes renaming a file enough to slip through.
package upload

import (
	"fmt"
	"path"
	"strings"
)

// MaxFileSize is the hard cap per uploaded file (1 MiB).
const MaxFileSize = 1 * 1024 * 1024

// File is an uploaded file as received at the HTTP boundary.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

var (
	resumeMIMETypes = map[string]bool{
		"application/pdf": true,
		"image/jpeg":      true,
		"image/jpg":       true, // some older browsers send this
		"image/png":       true,
	}
	resumeExtensions = map[string]bool{
		".pdf": true, ".jpg": true, ".jpeg": true, ".png": true,
	}

	proofMIMETypes = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
	}
	proofExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true,
	}
)

// ValidateResume checks the resume upload (PDF/JPEG/PNG, max 1 MiB).
func ValidateResume(f File) error {
	return validate(f, "resume", resumeMIMETypes, resumeExtensions)
}

// ValidatePaymentProof checks the payment proof upload (JPEG/PNG, max 1 MiB).
func ValidatePaymentProof(f File) error {
	return validate(f, "payment proof", proofMIMETypes, proofExtensions)
}

func validate(f File, field string, mimeTypes, extensions map[string]bool) error {
	if len(f.Data) == 0 {
		return fmt.Errorf("%s is required", field)
	}
	if len(f.Data) > MaxFileSize {
		return fmt.Errorf("%s exceeds the 1 MB size limit", field)
	}
	ext := strings.ToLower(path.Ext(f.Filename))
	if !extensions[ext] {
		return fmt.Errorf("%s has an unsupported file extension", field)
	}
	if !mimeTypes[strings.ToLower(f.ContentType)] {
		return fmt.Errorf("%s has an unsupported content type", field)
	}
	return nil
}
