package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecureWipe(t *testing.T) {
	data := []byte("hunter2")

	assert.NoError(t, SecureWipe(data))
	assert.Equal(t, make([]byte, 7), data)

	assert.Error(t, SecureWipe(nil))
	assert.NotPanics(t, func() { ZeroBytes(nil) })
}
