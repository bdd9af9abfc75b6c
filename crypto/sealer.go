package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// PBKDF2Iterations is the number of iterations for key derivation (NIST recommendation)
	PBKDF2Iterations = 100000
	// SaltSize is the size of the per-value salt for PBKDF2
	SaltSize = 16
	// NonceSize is the secretbox nonce size
	NonceSize = 24

	// SealedPrefix marks a sealed value. Values without it are plaintext.
	SealedPrefix = "v1:"
)

var (
	// ErrEmptyPassphrase is returned when a sealer is created without a passphrase.
	ErrEmptyPassphrase = errors.New("passphrase cannot be empty")
	// ErrCorruptValue is returned when a sealed value cannot be decoded.
	ErrCorruptValue = errors.New("corrupt sealed value")
	// ErrAuthentication is returned when a sealed value fails authentication,
	// usually because the passphrase changed.
	ErrAuthentication = errors.New("sealed value failed authentication")
)

// Sealer encrypts short secrets such as session tokens before they are
// written to an account store.
//
// Format: "v1:" + base64(salt[16] || nonce[24] || secretbox(value)).
type Sealer struct {
	passphrase []byte
	iterations int
	random     io.Reader
}

// NewSealer creates a sealer deriving keys from passphrase.
func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	return &Sealer{
		passphrase: []byte(passphrase),
		iterations: PBKDF2Iterations,
		random:     rand.Reader,
	}, nil
}

// Seal encrypts value. The empty string is returned unchanged so that
// cleared settings stay cleared.
func (s *Sealer) Seal(value string) (string, error) {
	if value == "" {
		return "", nil
	}

	buf := make([]byte, SaltSize+NonceSize)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", fmt.Errorf("failed to generate salt and nonce: %w", err)
	}
	salt := buf[:SaltSize]
	var nonce [NonceSize]byte
	copy(nonce[:], buf[SaltSize:])

	key := s.deriveKey(salt)
	defer ZeroBytes(key[:])

	out := secretbox.Seal(buf, []byte(value), &nonce, key)
	return SealedPrefix + base64.StdEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal. Values without the sealed prefix
// are returned as is, which lets stores written before a passphrase was
// configured keep working.
func (s *Sealer) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, SealedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptValue, err)
	}
	if len(raw) < SaltSize+NonceSize+secretbox.Overhead {
		return "", fmt.Errorf("%w: %d bytes", ErrCorruptValue, len(raw))
	}

	salt := raw[:SaltSize]
	var nonce [NonceSize]byte
	copy(nonce[:], raw[SaltSize:SaltSize+NonceSize])

	key := s.deriveKey(salt)
	defer ZeroBytes(key[:])

	out, ok := secretbox.Open(nil, raw[SaltSize+NonceSize:], &nonce, key)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"function": "Open",
			"package":  "crypto",
		}).Warn("Sealed value failed authentication")
		return "", ErrAuthentication
	}
	return string(out), nil
}

// Wipe erases the passphrase. The sealer must not be used afterwards.
func (s *Sealer) Wipe() {
	ZeroBytes(s.passphrase)
}

func (s *Sealer) deriveKey(salt []byte) *[32]byte {
	derived := pbkdf2.Key(s.passphrase, salt, s.iterations, 32, sha256.New)
	var key [32]byte
	copy(key[:], derived)
	ZeroBytes(derived)
	return &key
}

// IsSealed reports whether value was produced by Seal.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, SealedPrefix)
}
