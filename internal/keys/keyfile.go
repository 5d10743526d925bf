package keys

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mrz1836/pocket/internal/fileutil"
	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

// keyFileMode keeps key files readable by the owner only.
const keyFileMode = 0o600

// Save encrypts priv with password and writes it to path.
func Save(path string, priv *ecdsa.PrivateKey, password string) error {
	raw := crypto.FromECDSA(priv)
	defer ZeroBytes(raw)

	sealed, err := Seal(raw, password)
	if err != nil {
		return err
	}
	if err := fileutil.WriteAtomic(path, sealed, keyFileMode); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}
	return nil
}

// Load reads and decrypts the key file at path.
func Load(path string, password string) (*ecdsa.PrivateKey, error) {
	sealed, err := os.ReadFile(path) //nolint:gosec // path comes from config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, pocketerr.WithDetails(pocketerr.ErrKeyNotFound, map[string]string{"path": path})
		}
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	sb, err := Open(sealed, password)
	if err != nil {
		return nil, err
	}
	defer sb.Destroy()

	priv, err := crypto.ToECDSA(sb.Bytes())
	if err != nil {
		return nil, fmt.Errorf("parsing key file: %w", err)
	}
	return priv, nil
}

// Exists reports whether a key file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
