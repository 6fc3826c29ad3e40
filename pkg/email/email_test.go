package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveNameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"dana.holt@example.com", "Dana Holt"},
		{"dana_holt@example.com", "Dana Holt"},
		{"dana-holt+invites@example.com", "Dana Holt Invites"},
		{"dana@example.com", "Dana"},
		{"@example.com", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveNameFromEmail(tt.email))
		})
	}
}
