package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("jane.roe@acme.example"))
	assert.NoError(t, ValidateEmail("ops+alerts@sub.acme.co"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("jane@"))
	assert.Error(t, ValidateEmail("@acme.example"))
	assert.Error(t, ValidateEmail(""))
}

func TestValidateContractValue(t *testing.T) {
	assert.NoError(t, ValidateContractValue(0))
	assert.NoError(t, ValidateContractValue(125000.50))
	assert.Error(t, ValidateContractValue(-1))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Acme Corp", SanitizeString("Acme\x00 Corp\x1f"))
	assert.Equal(t, "plain", SanitizeString("plain"))
}
