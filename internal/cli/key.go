package cli

import (
	"crypto/ecdsa"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/pocket/internal/config"
	"github.com/mrz1836/pocket/internal/keys"
	"github.com/mrz1836/pocket/internal/provider/local"
	"github.com/mrz1836/pocket/internal/store"
	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	keyMnemonic string
	keyWords    int
	keyForce    bool
)

// keyCmd is the parent command for signing key management.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keyCmd = &cobra.Command{
	Use:     "key",
	Short:   "Manage the local wallet's signing key",
	Long:    `Create, import and inspect the age-encrypted key the local wallet signs with.`,
	GroupID: groupKeys,
}

// keyImportCmd imports a key from a recovery phrase.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keyImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a key from a BIP39 recovery phrase",
	Long: `Derive the account key at m/44'/60'/0'/0/0 from a 12 or 24 word recovery
phrase and store it encrypted with a password. The phrase is read from the
terminal unless --mnemonic is given. The password comes from
POCKET_PASSWORD or a prompt.`,
	Example: `  pocket key import
  pocket key import --force`,
	Args: cobra.NoArgs,
	RunE: runKeyImport,
}

// keyCreateCmd generates a new key.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate a new recovery phrase and key",
	Long: `Generate a fresh BIP39 recovery phrase, derive its account key and store
the key encrypted with a password. The phrase is shown once.`,
	Example: `  pocket key create
  pocket key create --words 24`,
	Args: cobra.NoArgs,
	RunE: runKeyCreate,
}

// keyShowCmd shows the configured account.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the account of the configured key",
	Long:  `Show the account address and key file location. The key is not decrypted.`,
	Example: `  pocket key show
  pocket key show -o json`,
	Args: cobra.NoArgs,
	RunE: runKeyShow,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keyImportCmd, keyCreateCmd, keyShowCmd)

	keyImportCmd.Flags().StringVar(&keyMnemonic, "mnemonic", "", "recovery phrase (visible in shell history; prefer the prompt)")
	keyImportCmd.Flags().BoolVar(&keyForce, "force", false, "replace an existing key")
	keyCreateCmd.Flags().IntVar(&keyWords, "words", 12, "number of words: 12 or 24")
	keyCreateCmd.Flags().BoolVar(&keyForce, "force", false, "replace an existing key")
}

func runKeyImport(_ *cobra.Command, _ []string) error {
	if keys.Exists(cfg.KeyPath()) && !keyForce {
		return pocketerr.WithDetails(pocketerr.ErrKeyExists, map[string]string{"path": cfg.KeyPath()})
	}

	phrase := keyMnemonic
	if phrase == "" {
		var err error
		if phrase, err = promptMnemonicFn(); err != nil {
			return err
		}
	}
	phrase = keys.NormalizeMnemonic(phrase)
	if err := keys.ValidateMnemonic(phrase); err != nil {
		return pocketerr.WithSuggestion(
			pocketerr.Wrap(pocketerr.ErrInvalidInput, "%v", err),
			"Check the spelling and order of the words",
		)
	}

	priv, err := keys.FromMnemonic(phrase)
	if err != nil {
		return err
	}

	view, err := storeKey(priv)
	if err != nil {
		return err
	}
	view.Path = keys.DefaultPath
	return formatter.Print(view)
}

func runKeyCreate(_ *cobra.Command, _ []string) error {
	if keys.Exists(cfg.KeyPath()) && !keyForce {
		return pocketerr.WithDetails(pocketerr.ErrKeyExists, map[string]string{"path": cfg.KeyPath()})
	}

	phrase, err := keys.NewMnemonic(keyWords)
	if err != nil {
		return pocketerr.Wrap(pocketerr.ErrInvalidInput, "%v", err)
	}
	priv, err := keys.FromMnemonic(phrase)
	if err != nil {
		return err
	}

	view, err := storeKey(priv)
	if err != nil {
		return err
	}
	view.Path = keys.DefaultPath
	view.Mnemonic = phrase
	return formatter.Print(view)
}

func runKeyShow(_ *cobra.Command, _ []string) error {
	st, err := store.Open(cfg.StorePath())
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	account, err := local.LoadAccount(st)
	if err != nil {
		return err
	}
	if account == "" || !keys.Exists(cfg.KeyPath()) {
		return pocketerr.WithDetails(pocketerr.ErrKeyNotFound, map[string]string{"path": cfg.KeyPath()})
	}
	return formatter.Print(keyView{Address: account, KeyFile: cfg.KeyPath()})
}

// storeKey encrypts priv into the key file and records its address as the
// wallet account. Reconnect hints of the previous account are cleared.
func storeKey(priv *ecdsa.PrivateKey) (keyView, error) {
	password, err := newKeyPassword()
	if err != nil {
		return keyView{}, err
	}

	if err := keys.Save(cfg.KeyPath(), priv, password); err != nil {
		return keyView{}, err
	}

	st, err := store.Open(cfg.StorePath())
	if err != nil {
		return keyView{}, err
	}
	defer func() { _ = st.Close() }()

	address := keys.Address(&priv.PublicKey)
	if err := local.SaveAccount(st, address); err != nil {
		return keyView{}, err
	}
	if err := st.ClearHints(); err != nil {
		logger.Error("clearing reconnect hints: %v", err)
	}
	logger.Debug("key: stored account %s at %s", address, cfg.KeyPath())

	return keyView{Address: address, KeyFile: cfg.KeyPath()}, nil
}

// newKeyPassword reads the encryption password from the environment or
// asks for it twice.
func newKeyPassword() (string, error) {
	if pw := os.Getenv(config.EnvPassword); pw != "" {
		return pw, nil
	}
	pw, err := promptNewPasswordFn()
	if err != nil {
		return "", err
	}
	defer keys.ZeroBytes(pw)
	return string(pw), nil
}
