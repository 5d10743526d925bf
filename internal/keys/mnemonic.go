// Package keys manages the local signing key: BIP39 mnemonics, BIP32
// derivation on the Ethereum path, and age-encrypted key files.
package keys

import (
	"errors"
	"regexp"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// ErrInvalidMnemonic indicates a phrase failed word list or checksum checks.
var ErrInvalidMnemonic = errors.New("invalid mnemonic phrase")

//nolint:gochecknoglobals // Compiled once
var (
	listPrefix = regexp.MustCompile(`(?m)^\s*(\d+[.):]|[-*•])\s*`)
	spaces     = regexp.MustCompile(`\s+`)
)

// NewMnemonic returns a fresh 12 or 24 word phrase.
func NewMnemonic(words int) (string, error) {
	var bits int
	switch words {
	case 12:
		bits = 128
	case 24:
		bits = 256
	default:
		return "", errors.New("word count must be 12 or 24")
	}

	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", err
	}
	defer ZeroBytes(entropy)
	return bip39.NewMnemonic(entropy)
}

// NormalizeMnemonic lowercases a pasted phrase and strips list markers,
// commas and extra whitespace.
func NormalizeMnemonic(input string) string {
	s := strings.ToLower(input)
	s = listPrefix.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, ",", " ")
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ValidateMnemonic checks word count, word list membership and checksum.
func ValidateMnemonic(phrase string) error {
	normalized := NormalizeMnemonic(phrase)
	if n := len(strings.Fields(normalized)); n != 12 && n != 24 {
		return ErrInvalidMnemonic
	}
	if _, err := bip39.MnemonicToByteArray(normalized); err != nil {
		return ErrInvalidMnemonic
	}
	return nil
}

// Seed converts a phrase to its 64-byte BIP39 seed.
func Seed(phrase, passphrase string) ([]byte, error) {
	if err := ValidateMnemonic(phrase); err != nil {
		return nil, err
	}
	return bip39.NewSeed(NormalizeMnemonic(phrase), passphrase), nil
}
