// Package crypto seals account secrets at rest.
//
// A Sealer derives a fresh key for every value with PBKDF2-SHA256 and a random
// salt, then encrypts with NaCl secretbox:
//
//	sealer, err := crypto.NewSealer(passphrase)
//	if err != nil {
//	    return err
//	}
//	sealed, err := sealer.Seal(token)
//	token, err = sealer.Open(sealed)
//
// Open passes through values that were stored before sealing was enabled.
// Changing the passphrase makes existing sealed values fail with
// ErrAuthentication; callers treat that as a missing value.
package crypto
