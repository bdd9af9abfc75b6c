// Package limits provides centralized size limits for chat traffic, stored
// settings and remote replies.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxChatMessage is the largest outgoing chat message, in bytes, the
	// session will hand to the transport.
	MaxChatMessage = 2048

	// MaxSettingValue bounds a single persisted account setting after
	// sealing. Session tokens are well below this.
	MaxSettingValue = 4096

	// SealOverhead is the overhead added by secretbox when sealing a
	// setting (the Poly1305 tag).
	SealOverhead = 16 // golang.org/x/crypto/nacl/secretbox.Overhead

	// MaxProcessingBuffer is the absolute maximum for any reply received from
	// the remote service (1MB).
	MaxProcessingBuffer = 1024 * 1024
)

var (
	// ErrMessageEmpty indicates an empty message was provided
	ErrMessageEmpty = errors.New("empty message")

	// ErrMessageTooLarge indicates message exceeds maximum size
	ErrMessageTooLarge = errors.New("message too large")
)

// ValidateMessageSize validates a message against the specified maximum size.
// Returns an error with context including the actual and maximum sizes.
func ValidateMessageSize(message []byte, maxSize int) error {
	if len(message) == 0 {
		return ErrMessageEmpty
	}
	if len(message) > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrMessageTooLarge, len(message), maxSize)
	}
	return nil
}

// ValidateChatMessage validates outgoing chat text against MaxChatMessage.
func ValidateChatMessage(text string) error {
	if len(text) == 0 {
		return ErrMessageEmpty
	}
	if len(text) > MaxChatMessage {
		return fmt.Errorf("%w: chat message size %d exceeds limit %d", ErrMessageTooLarge, len(text), MaxChatMessage)
	}
	return nil
}

// ValidateSettingValue validates a setting value before it is persisted.
// Empty values are allowed; they are stored as deletions.
func ValidateSettingValue(value string) error {
	if len(value) > MaxSettingValue {
		return fmt.Errorf("%w: setting size %d exceeds limit %d", ErrMessageTooLarge, len(value), MaxSettingValue)
	}
	return nil
}

// ValidateProcessingBuffer validates data against the absolute maximum (MaxProcessingBuffer).
// All replies from the remote service pass through it before decoding.
func ValidateProcessingBuffer(data []byte) error {
	if len(data) == 0 {
		return ErrMessageEmpty
	}
	if len(data) > MaxProcessingBuffer {
		return fmt.Errorf("%w: buffer size %d exceeds limit %d", ErrMessageTooLarge, len(data), MaxProcessingBuffer)
	}
	return nil
}
