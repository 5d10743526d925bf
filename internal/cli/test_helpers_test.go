package cli

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/pocket/internal/config"
	"github.com/mrz1836/pocket/internal/metrics"
	"github.com/mrz1836/pocket/internal/output"
	"github.com/mrz1836/pocket/internal/provider"
	"github.com/mrz1836/pocket/internal/provider/providertest"
	"github.com/mrz1836/pocket/internal/store"
)

const (
	testAddress   = "0x1111111111111111111111111111111111111111"
	testRecipient = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
	testMnemonic  = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testPassword  = "correct horse battery"

	// oneBNB is 10^18 wei.
	oneBNB = "0xde0b6b3a7640000"
)

// setupTestEnv points the global config, logger and formatter at a fresh
// home directory and restores them on cleanup.
func setupTestEnv(t *testing.T) (string, func()) {
	t.Helper()

	origCfg := cfg
	origLogger := logger
	origFormatter := formatter

	tmpDir, err := os.MkdirTemp("", "pocket-cli-test")
	require.NoError(t, err)

	testCfg := config.Defaults()
	testCfg.Home = tmpDir
	testCfg.Logging.Level = "off"
	cfg = testCfg

	logger = config.NullLogger()
	formatter = output.NewFormatter(output.FormatText, os.Stdout)

	cleanup := func() {
		cfg = origCfg
		logger = origLogger
		formatter = origFormatter
		_ = os.RemoveAll(tmpDir)
	}
	return tmpDir, cleanup
}

// withMockPrompts replaces prompt functions for testing and restores on cleanup.
func withMockPrompts(t *testing.T, password []byte, confirm bool) {
	t.Helper()
	origPW := promptPasswordFn
	origNewPW := promptNewPasswordFn
	origConfirm := promptConfirmFn
	origMnemonic := promptMnemonicFn
	t.Cleanup(func() {
		promptPasswordFn = origPW
		promptNewPasswordFn = origNewPW
		promptConfirmFn = origConfirm
		promptMnemonicFn = origMnemonic
	})
	promptPasswordFn = func(_ string) ([]byte, error) {
		cp := make([]byte, len(password))
		copy(cp, password)
		return cp, nil
	}
	promptNewPasswordFn = func() ([]byte, error) {
		cp := make([]byte, len(password))
		copy(cp, password)
		return cp, nil
	}
	promptConfirmFn = func(string) bool { return confirm }
	promptMnemonicFn = func() (string, error) {
		return testMnemonic, nil
	}
}

// happyWallet returns a TokenPocket fake on BSC with one account and one BNB.
func happyWallet() *providertest.Fake {
	return providertest.New().
		Respond(provider.MethodRequestAccounts, []string{testAddress}).
		Respond(provider.MethodAccounts, []string{testAddress}).
		Respond(provider.MethodChainID, "0x38").
		Respond(provider.MethodGetBalance, oneBNB)
}

// testEnv is a command context around a fake wallet with JSON output
// captured in buf.
type testEnv struct {
	cc   *CommandContext
	fake *providertest.Fake
	buf  *bytes.Buffer
}

func newTestEnv(t *testing.T, fake *providertest.Fake) *testEnv {
	t.Helper()

	c := config.Defaults()
	c.Home = t.TempDir()

	st, err := store.Open(c.StorePath())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	var p provider.Provider
	if fake != nil {
		p = fake
	}

	buf := &bytes.Buffer{}
	f := output.NewFormatter(output.FormatJSON, buf)
	return &testEnv{
		cc:   NewCommandContext(c, config.NullLogger(), f, st, p, metrics.New()),
		fake: fake,
		buf:  buf,
	}
}

// cmd returns a bare command carrying the environment's context.
func (e *testEnv) cmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	SetCmdContext(cmd, e.cc)
	return cmd
}

// connect runs the connect sequence and discards its output.
func (e *testEnv) connect(t *testing.T) {
	t.Helper()
	_, err := e.cc.Session.Connect(context.Background())
	require.NoError(t, err)
}
