package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "****", MaskSecret("abcd"))
	assert.Equal(t, "****3456", MaskSecret("sk123456"))
	// Prefixed secrets keep their prefix for traceability.
	assert.Equal(t, "sk_live_****cdef", MaskSecret("sk_live_00abcdef"))
}

func TestMaskDetailsRedactsSensitiveKeysOnly(t *testing.T) {
	masked := MaskDetails(map[string]any{
		"password":      "hunter42secret",
		"refresh_token": "rt-123456789",
		"api_key":       12345,
		"email":         "user@example.test",
		"nested": map[string]any{
			"client_secret": "very-hidden-value",
			"count":         3,
		},
	})

	assert.Equal(t, "user@example.test", masked["email"])
	assert.NotContains(t, masked["password"], "hunter42")
	assert.NotContains(t, masked["refresh_token"], "rt-12345")
	// Non string secrets are dropped entirely.
	assert.Equal(t, "****", masked["api_key"])

	nested, ok := masked["nested"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, 3, nested["count"])
	assert.NotContains(t, nested["client_secret"], "very-hidden")
}

func TestMaskDetailsEmptyInput(t *testing.T) {
	assert.Nil(t, MaskDetails(nil))
	assert.Nil(t, MaskDetails(map[string]any{}))
	assert.Nil(t, MaskDetails(map[string]any{"  ": "blank key dropped"}))
}
