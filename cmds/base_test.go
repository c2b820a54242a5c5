package cmds

import (
	"errors"
	"testing"

	"github.com/lainio/err2/assert"
)

func TestValidateSeed(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	assert.NoError(ValidateSeed(""))
	assert.NoError(ValidateSeed("000000000000000000000000Steward1"))
	err := ValidateSeed("short")
	assert.That(errors.Is(err, ErrInvalid))
}

func TestValidateEndpoint(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	assert.NoError(ValidateEndpoint("http://localhost:8080/a2a"))
	assert.Error(ValidateEndpoint("localhost:8080"))
	assert.Error(ValidateEndpoint("/a2a"))
}
