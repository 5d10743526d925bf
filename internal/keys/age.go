package keys

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"

	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

// Seal encrypts plaintext to an age scrypt recipient derived from password.
func Seal(plaintext []byte, password string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	return buf.Bytes(), nil
}

// Open decrypts an age file sealed with password into locked memory.
// A wrong password yields ErrDecryptionFailed.
func Open(ciphertext []byte, password string) (*SecureBytes, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, pocketerr.Wrap(pocketerr.ErrDecryptionFailed, "opening key file: %v", err)
	}

	plaintext, err := io.ReadAll(r)
	defer ZeroBytes(plaintext)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted data: %w", err)
	}
	return NewSecureBytes(plaintext), nil
}
