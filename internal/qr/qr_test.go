package qr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadRoundTrip(t *testing.T) {
	cases := []Payload{
		{ID: "6f1c2b9e-0b1a-4a7e-9d3c-111111111111", Token: "8a9b0c1d-2e3f-4a5b-8c7d-222222222222", Name: "Priya Raman"},
		{ID: "id-1", Token: "tok-1", Name: `O'Connor "Mac" D`},
		{ID: "id-2", Token: "tok-2", Name: "Zoë Müller — 日本語テスト"},
		{ID: "id-3", Token: "tok-3", Name: ""},
	}
	for _, p := range cases {
		encoded, err := p.Encode()
		require.NoError(t, err)

		decoded, err := ParsePayload(json.RawMessage(encoded))
		require.NoError(t, err)
		assert.Equal(t, p, decoded)
	}
}

func TestParsePayloadStringWrapped(t *testing.T) {
	p := Payload{ID: "abc", Token: "def", Name: "Asha"}
	inner, err := p.Encode()
	require.NoError(t, err)

	// Scanner clients often send the decoded QR text as a JSON string value.
	wrapped, err := json.Marshal(inner)
	require.NoError(t, err)

	decoded, err := ParsePayload(wrapped)
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
}

func TestParsePayloadErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrInvalidFormat},
		{"not json", `{{{`, ErrInvalidFormat},
		{"string of not json", `"not a payload"`, ErrInvalidFormat},
		{"missing token", `{"id":"abc"}`, ErrInvalidData},
		{"missing id", `{"token":"def"}`, ErrInvalidData},
		{"empty fields", `{"id":"","token":""}`, ErrInvalidData},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePayload(json.RawMessage(tc.raw))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestImageProducesPNG(t *testing.T) {
	png, err := Image(Payload{ID: "abc", Token: "def", Name: "Asha"})
	require.NoError(t, err)
	require.NotEmpty(t, png)
	// PNG magic bytes.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
