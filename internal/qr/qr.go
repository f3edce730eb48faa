// Package qr defines the entry QR payload contract and renders it to a
// scannable PNG. The payload is JSON with exactly id, token and name; only
// id and token are load-bearing for check-in, name is informational.
package qr

import (
	"encoding/json"
	"errors"

	qrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrInvalidFormat means the scanned data is not parseable JSON.
	ErrInvalidFormat = errors.New("invalid QR code format")
	// ErrInvalidData means the payload parsed but id or token is missing.
	ErrInvalidData = errors.New("invalid QR code data")
)

// Payload is the authoritative QR payload schema.
type Payload struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Name  string `json:"name"`
}

// Encode returns the payload as its canonical JSON string.
func (p Payload) Encode() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Image renders the payload into a 300x300 PNG.
func Image(p Payload) ([]byte, error) {
	s, err := p.Encode()
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(s, qrcode.Medium, 300)
}

// ParsePayload decodes scanned QR data. Scanner clients send either the
// payload object itself or the decoded QR text as a JSON string, so a
// string value is unwrapped and parsed again.
func ParsePayload(raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 {
		return Payload{}, ErrInvalidFormat
	}
	data := []byte(raw)
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		data = []byte(asString)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, ErrInvalidFormat
	}
	if p.ID == "" || p.Token == "" {
		return Payload{}, ErrInvalidData
	}
	return p, nil
}
