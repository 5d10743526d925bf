package keys

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"golang.org/x/crypto/sha3"
)

// DefaultPath is the first account on the Ethereum BIP44 path, shared by
// BNB Smart Chain wallets.
const DefaultPath = "m/44'/60'/0'/0/0"

//nolint:gochecknoglobals // Fixed derivation path
var defaultPath = []uint32{
	bip32.FirstHardenedChild + 44,
	bip32.FirstHardenedChild + 60,
	bip32.FirstHardenedChild,
	0,
	0,
}

// DeriveKey walks DefaultPath from a BIP39 seed and returns the account
// private key.
func DeriveKey(seed []byte) (*ecdsa.PrivateKey, error) {
	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("creating master key: %w", err)
	}
	for _, idx := range defaultPath {
		key, err = key.NewChildKey(idx)
		if err != nil {
			return nil, fmt.Errorf("deriving %s: %w", DefaultPath, err)
		}
	}

	priv, err := crypto.ToECDSA(key.Key)
	ZeroBytes(key.Key)
	if err != nil {
		return nil, fmt.Errorf("converting derived key: %w", err)
	}
	return priv, nil
}

// FromMnemonic derives the account key for phrase with an empty BIP39
// passphrase.
func FromMnemonic(phrase string) (*ecdsa.PrivateKey, error) {
	seed, err := Seed(phrase, "")
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(seed)
	return DeriveKey(seed)
}

// Address returns the EIP-55 address for a public key: the last 20 bytes
// of keccak256 over the uncompressed point without its 0x04 prefix.
func Address(pub *ecdsa.PublicKey) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(crypto.FromECDSAPub(pub)[1:])
	return common.BytesToAddress(h.Sum(nil)[12:]).Hex()
}
