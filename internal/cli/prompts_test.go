package cli

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/pocket/internal/provider/local"
	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

var errTerminal = errors.New("terminal error")

// withStdin feeds input to os.Stdin and silences stderr for the test.
func withStdin(t *testing.T, input string) {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString(input)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	require.NoError(t, err)

	origStdin, origStderr := os.Stdin, os.Stderr
	os.Stdin, os.Stderr = r, devNull
	t.Cleanup(func() {
		os.Stdin, os.Stderr = origStdin, origStderr
		_ = r.Close()
		_ = devNull.Close()
	})
}

// scriptPasswords makes promptPasswordFn answer with each entry in turn.
func scriptPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := promptPasswordFn
	t.Cleanup(func() { promptPasswordFn = orig })

	i := 0
	promptPasswordFn = func(_ string) ([]byte, error) {
		if i >= len(answers) {
			return nil, errTerminal
		}
		a := answers[i]
		i++
		return []byte(a), nil
	}
}

func TestPromptNewPassword_Success(t *testing.T) {
	scriptPasswords(t, "validpass123", "validpass123")

	got, err := promptNewPassword()
	require.NoError(t, err)
	assert.Equal(t, []byte("validpass123"), got)
}

func TestPromptNewPassword_TooShort(t *testing.T) {
	scriptPasswords(t, "short")

	got, err := promptNewPassword()
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, pocketerr.ErrInvalidInput)

	var pe *pocketerr.PocketError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Suggestion, "at least 8 characters")
}

func TestPromptNewPassword_Mismatch(t *testing.T) {
	scriptPasswords(t, "validpass123", "validpass124")

	got, err := promptNewPassword()
	require.Error(t, err)
	assert.Nil(t, got)

	var pe *pocketerr.PocketError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Suggestion, "do not match")
}

func TestPromptNewPassword_ReadError(t *testing.T) {
	scriptPasswords(t, "validpass123")

	_, err := promptNewPassword()
	require.ErrorIs(t, err, errTerminal)
}

func TestPromptConfirmation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "lowercase y", input: "y\n", want: true},
		{name: "uppercase Y", input: "Y\n", want: true},
		{name: "yes", input: "yes\n", want: true},
		{name: "mixed case Yes with spaces", input: "  Yes \n", want: true},
		{name: "no trailing newline", input: "y", want: true},
		{name: "n", input: "n\n", want: false},
		{name: "empty line", input: "\n", want: false},
		{name: "random text", input: "maybe\n", want: false},
		{name: "eof", input: "", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			withStdin(t, tc.input)
			assert.Equal(t, tc.want, promptConfirmation("Continue?"))
		})
	}
}

func TestPromptMnemonic(t *testing.T) {
	withStdin(t, "  Abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon ABOUT  \n")

	got, err := promptMnemonic()
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, got)
}

func TestPromptMnemonic_Empty(t *testing.T) {
	withStdin(t, "   \n")

	_, err := promptMnemonic()
	require.Error(t, err)
	assert.ErrorIs(t, err, pocketerr.ErrInvalidInput)
}

func TestPromptMnemonic_EOF(t *testing.T) {
	withStdin(t, "")

	_, err := promptMnemonic()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading recovery phrase")
}

func TestPromptApprover(t *testing.T) {
	prompt := local.Prompt{Kind: "connect", Summary: "Connect to pocket"}

	t.Run("assume yes skips the prompt", func(t *testing.T) {
		orig := promptConfirmFn
		t.Cleanup(func() { promptConfirmFn = orig })
		promptConfirmFn = func(string) bool {
			t.Fatal("prompted despite --yes")
			return false
		}

		ok, err := newPromptApprover(true).Approve(context.Background(), prompt)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("asks with the summary", func(t *testing.T) {
		orig := promptConfirmFn
		t.Cleanup(func() { promptConfirmFn = orig })
		var asked string
		promptConfirmFn = func(q string) bool {
			asked = q
			return false
		}

		ok, err := newPromptApprover(false).Approve(context.Background(), prompt)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Contains(t, asked, "Connect to pocket")
	})
}
