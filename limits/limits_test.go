package limits

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/nacl/secretbox"
)

// TestSealOverheadMatchesSecretbox verifies that SealOverhead matches the
// actual overhead from golang.org/x/crypto/nacl/secretbox
func TestSealOverheadMatchesSecretbox(t *testing.T) {
	assert.Equal(t, secretbox.Overhead, SealOverhead)
}

func TestValidateChatMessage(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"empty", "", ErrMessageEmpty},
		{"one byte", "a", nil},
		{"at limit", strings.Repeat("a", MaxChatMessage), nil},
		{"over limit", strings.Repeat("a", MaxChatMessage+1), ErrMessageTooLarge},
		{"multibyte counted in bytes", strings.Repeat("é", MaxChatMessage/2+1), ErrMessageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChatMessage(tt.text)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestValidateSettingValue(t *testing.T) {
	assert.NoError(t, ValidateSettingValue(""))
	assert.NoError(t, ValidateSettingValue(strings.Repeat("x", MaxSettingValue)))

	err := ValidateSettingValue(strings.Repeat("x", MaxSettingValue+1))
	assert.ErrorIs(t, err, ErrMessageTooLarge)
	assert.Contains(t, err.Error(), "setting size")
}

func TestValidateProcessingBuffer(t *testing.T) {
	assert.ErrorIs(t, ValidateProcessingBuffer(nil), ErrMessageEmpty)
	assert.NoError(t, ValidateProcessingBuffer([]byte("{}")))
	assert.ErrorIs(t, ValidateProcessingBuffer(make([]byte, MaxProcessingBuffer+1)), ErrMessageTooLarge)
}

func TestValidateMessageSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		maxSize int
		wantErr error
	}{
		{"empty", 0, 100, ErrMessageEmpty},
		{"within", 50, 100, nil},
		{"exact", 100, 100, nil},
		{"over", 101, 100, ErrMessageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessageSize(make([]byte, tt.size), tt.maxSize)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func BenchmarkValidateChatMessage(b *testing.B) {
	text := strings.Repeat("a", MaxChatMessage)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ValidateChatMessage(text)
	}
}
