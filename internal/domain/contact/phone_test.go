package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trunk prefix 8 replaced", "89161234567", "+79161234567"},
		{"ten digits get country code", "9161234567", "+79161234567"},
		{"already international", "+79161234567", "+79161234567"},
		{"eleven digits with country code", "79161234567", "+79161234567"},
		{"formatted input", "8 (916) 123-45-67", "+79161234567"},
		{"plus with formatting", "+7 916 123 45 67", "+79161234567"},
		{"too short", "123", ""},
		{"empty", "", ""},
		{"letters only", "abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.in))
		})
	}
}
