package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidContactNumber(t *testing.T) {
	tests := []struct {
		name   string
		number string
		valid  bool
	}{
		{
			name:   "ten digits",
			number: "9876543210",
			valid:  true,
		},
		{
			name:   "nine digits",
			number: "987654321",
			valid:  false,
		},
		{
			name:   "eleven digits",
			number: "98765432101",
			valid:  false,
		},
		{
			name:   "contains letters",
			number: "98765a3210",
			valid:  false,
		},
		{
			name:   "empty string",
			number: "",
			valid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidContactNumber(tt.number)
			if got != tt.valid {
				t.Fatalf("IsValidContactNumber(%q) = %v, want %v", tt.number, got, tt.valid)
			}
		})
	}
}

func TestIsValidSortCode(t *testing.T) {
	assert.True(t, IsValidSortCode("SBIN01"))
	assert.True(t, IsValidSortCode("123456"))
	assert.False(t, IsValidSortCode("SBIN0"))
	assert.False(t, IsValidSortCode("SBIN012"))
	assert.False(t, IsValidSortCode("      "))
}

type supplierForm struct {
	Name    string `validate:"notblank"`
	Contact string `validate:"contact10"`
	Account string `validate:"digits"`
	Sort    string `validate:"sortcode"`
}

func TestNew_RegistersCatalogRules(t *testing.T) {
	v := New()

	ok := supplierForm{Name: "Acme", Contact: "9876543210", Account: "00123", Sort: "SBIN01"}
	assert.NoError(t, v.Struct(ok))

	bad := supplierForm{Name: " ", Contact: "123", Account: "12a", Sort: "x"}
	err := v.Struct(bad)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "notblank")
		assert.Contains(t, err.Error(), "contact10")
		assert.Contains(t, err.Error(), "digits")
		assert.Contains(t, err.Error(), "sortcode")
	}
}
