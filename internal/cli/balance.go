package cli

import (
	"github.com/spf13/cobra"
)

// balanceCmd shows the native balance.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the native BNB balance",
	Long: `Restore the session and read the native balance of the active account,
rounded to four decimal places.`,
	Example: `  pocket balance
  pocket balance -o json`,
	GroupID:     groupWallet,
	Args:        cobra.NoArgs,
	Annotations: walletAnnotation(),
	RunE:        runBalance,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, requestTimeout)
	defer cancel()

	if err := requireSession(ctx, cc); err != nil {
		return err
	}

	// Restore refreshes best-effort; read again so a node failure surfaces.
	st := cc.Session.Store().Snapshot()
	if err := cc.Balance.UpdateBalance(ctx, st.Address); err != nil {
		return err
	}
	st = cc.Session.Store().Snapshot()

	return cc.Fmt.Print(balanceView{
		Address: st.Address,
		ChainID: st.ChainID,
		Balance: st.NativeBalance,
		Symbol:  cc.Session.Target().NativeCurrency.Symbol,
	})
}
