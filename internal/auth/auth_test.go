package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stm32-workshop/backend/config"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 8)

	token, err := svc.Generate("admin", "admin")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Role)
}

func TestJWTValidateRejects(t *testing.T) {
	svc := NewJWTService("test-secret", 8)

	_, err := svc.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewJWTService("different-secret", 8)
	token, err := other.Generate("admin", "admin")
	require.NoError(t, err)
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCredentialsValid(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		cfg      config.AdminConfig
		username string
		password string
		want     bool
	}{
		{"plaintext match", config.AdminConfig{Username: "admin", Password: "s3cret"}, "admin", "s3cret", true},
		{"plaintext wrong password", config.AdminConfig{Username: "admin", Password: "s3cret"}, "admin", "wrong", false},
		{"plaintext wrong username", config.AdminConfig{Username: "admin", Password: "s3cret"}, "root", "s3cret", false},
		{"bcrypt match", config.AdminConfig{Username: "admin", PasswordHash: string(hash)}, "admin", "s3cret", true},
		{"bcrypt wrong password", config.AdminConfig{Username: "admin", PasswordHash: string(hash)}, "admin", "wrong", false},
		{"hash preferred over plaintext", config.AdminConfig{Username: "admin", Password: "other", PasswordHash: string(hash)}, "admin", "s3cret", true},
		{"no password configured refuses all", config.AdminConfig{Username: "admin"}, "admin", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(tc.cfg, NewJWTService("test-secret", 1), nil)
			assert.Equal(t, tc.want, h.credentialsValid(tc.username, tc.password))
		})
	}
}
