package lead

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		cc   string
		want string
	}{
		{"plain mobile", "300 123 4567", "57", "+573001234567"},
		{"leading trunk zero", "0300 123 4567", "57", "+573001234567"},
		{"already international", "+1 234 567 8900", "57", "+12345678900"},
		{"already has country code", "573001234567", "57", "+573001234567"},
		{"parens and dashes", "(300) 123-4567", "57", "+573001234567"},
		{"empty", "", "57", ""},
		{"whitespace only", "   ", "57", ""},
		{"other country default", "5512345678", "52", "+525512345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizePhone(tt.raw, tt.cc))
		})
	}
}
