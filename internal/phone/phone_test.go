package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"formatted national", "(555) 123-4567", "+15551234567"},
		{"dashes", "555-123-4567", "+15551234567"},
		{"already canonical", "+15551234567", "+15551234567"},
		{"international", "+44 20 7946 0958", "+442079460958"},
		{"empty", "   ", ""},
		{"garbage falls back to input", " call me ", "call me"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	once := Normalize("(555) 123-4567")
	assert.Equal(t, once, Normalize(once))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "(555) 123-4567", Display("+15551234567"))
	assert.Equal(t, "", Display(""))
}
