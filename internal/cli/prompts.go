package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/mrz1836/pocket/internal/keys"
	"github.com/mrz1836/pocket/internal/provider/local"
	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

// minPasswordLength is the shortest key password accepted on import.
const minPasswordLength = 8

// Prompt hooks, replaced in tests.
//
//nolint:gochecknoglobals // Swappable for tests
var (
	promptPasswordFn    = promptPassword
	promptNewPasswordFn = promptNewPassword
	promptConfirmFn     = promptConfirmation
	promptMnemonicFn    = promptMnemonic
)

// promptPassword prompts for a password with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)

	password, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return password, nil
}

// promptNewPassword prompts for a new password with confirmation.
// The caller is responsible for zeroing the returned bytes after use.
func promptNewPassword() ([]byte, error) {
	password, err := promptPasswordFn("Enter encryption password: ")
	if err != nil {
		return nil, err
	}

	if len(password) < minPasswordLength {
		keys.ZeroBytes(password)
		return nil, pocketerr.WithSuggestion(
			pocketerr.ErrInvalidInput,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength),
		)
	}

	confirm, err := promptPasswordFn("Confirm password: ")
	if err != nil {
		keys.ZeroBytes(password)
		return nil, err
	}
	defer keys.ZeroBytes(confirm)

	if string(password) != string(confirm) {
		keys.ZeroBytes(password)
		return nil, pocketerr.WithSuggestion(
			pocketerr.ErrInvalidInput,
			"passwords do not match",
		)
	}

	return password, nil
}

// promptConfirmation asks a yes/no question on stderr.
func promptConfirmation(question string) bool {
	out(os.Stderr, "%s [y/N]: ", question)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	response := strings.ToLower(strings.TrimSpace(line))
	return response == "y" || response == "yes"
}

// promptMnemonic reads a recovery phrase from one line of stdin.
func promptMnemonic() (string, error) {
	outln(os.Stderr, "Enter your recovery phrase (12 or 24 words on one line):")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading recovery phrase: %w", err)
	}

	phrase := keys.NormalizeMnemonic(line)
	if phrase == "" {
		return "", pocketerr.WithSuggestion(pocketerr.ErrInvalidInput, "no input provided")
	}
	return phrase, nil
}

// promptApprover asks the owner to approve wallet actions on the terminal.
type promptApprover struct {
	assumeYes bool
}

func newPromptApprover(assumeYes bool) local.Approver {
	return promptApprover{assumeYes: assumeYes}
}

// Approve implements local.Approver.
func (a promptApprover) Approve(_ context.Context, p local.Prompt) (bool, error) {
	if a.assumeYes {
		return true, nil
	}
	return promptConfirmFn(p.Summary + "\nApprove?"), nil
}
