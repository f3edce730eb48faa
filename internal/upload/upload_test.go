package upload

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func pdf(size int) File {
	return File{Filename: "resume.pdf", ContentType: "application/pdf", Data: bytes.Repeat([]byte{1}, size)}
}

func TestValidateResume(t *testing.T) {
	tests := []struct {
		name    string
		file    File
		wantErr string
	}{
		{"valid pdf", pdf(1024), ""},
		{"valid jpeg", File{Filename: "resume.jpg", ContentType: "image/jpeg", Data: []byte{1}}, ""},
		{"valid png", File{Filename: "resume.png", ContentType: "image/png", Data: []byte{1}}, ""},
		{"legacy jpg mime", File{Filename: "resume.jpeg", ContentType: "image/jpg", Data: []byte{1}}, ""},
		{"empty", File{Filename: "resume.pdf", ContentType: "application/pdf"}, "resume is required"},
		{"too large", pdf(MaxFileSize + 1), "resume exceeds the 1 MB size limit"},
		{"exactly at limit", pdf(MaxFileSize), ""},
		{"bad extension", File{Filename: "resume.exe", ContentType: "application/pdf", Data: []byte{1}}, "resume has an unsupported file extension"},
		{"renamed executable", File{Filename: "resume.pdf", ContentType: "application/x-msdownload", Data: []byte{1}}, "resume has an unsupported content type"},
		{"extension mime mismatch", File{Filename: "resume.pdf", ContentType: "video/mp4", Data: []byte{1}}, "resume has an unsupported content type"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateResume(tc.file)
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tc.wantErr)
			}
		})
	}
}

func TestValidatePaymentProof(t *testing.T) {
	tests := []struct {
		name    string
		file    File
		wantErr bool
	}{
		{"valid jpeg", File{Filename: "proof.jpg", ContentType: "image/jpeg", Data: []byte{1}}, false},
		{"valid png", File{Filename: "proof.png", ContentType: "image/png", Data: []byte{1}}, false},
		{"pdf not allowed for proof", File{Filename: "proof.pdf", ContentType: "application/pdf", Data: []byte{1}}, true},
		{"missing", File{Filename: "proof.png", ContentType: "image/png"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePaymentProof(tc.file)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
