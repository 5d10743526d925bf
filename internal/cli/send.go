package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	sendTo     string
	sendAmount string
)

// sendCmd transfers BNB.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send BNB from the active account",
	Long: `Submit a native BNB transfer through the wallet. The amount is checked
against the displayed balance before the wallet is asked, and the wallet
asks for approval before signing. The command returns once the wallet has
submitted the transaction; it does not wait for confirmation.

The local wallet reads its key password from POCKET_PASSWORD or prompts
for it the first time a signature is needed.`,
	Example: `  pocket send --to 0x742d35Cc6634C0532925a3b844Bc454e4438f44e --amount 0.05
  pocket send --to 0x742d35Cc6634C0532925a3b844Bc454e4438f44e --amount 1 --yes -o json`,
	GroupID:     groupWallet,
	Args:        cobra.NoArgs,
	Annotations: walletAnnotation(),
	RunE:        runSend,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVar(&sendTo, "to", "", "recipient address (required)")
	sendCmd.Flags().StringVar(&sendAmount, "amount", "", "amount of BNB to send, e.g. 0.05 (required)")
	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("amount")
}

func runSend(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, approvalTimeout)
	defer cancel()

	to := strings.TrimSpace(sendTo)
	amount := sanitizeAmount(sendAmount)

	if err := requireSession(ctx, cc); err != nil {
		return err
	}

	res, err := cc.Sender.SendNative(ctx, to, amount)
	if err != nil {
		return err
	}

	target := cc.Session.Target()
	return cc.Fmt.Print(sendView{
		SendResult:  res,
		To:          to,
		Amount:      amount,
		Symbol:      target.NativeCurrency.Symbol,
		ExplorerURL: target.ExplorerTxURL(res.Hash),
	})
}

// sanitizeAmount strips whitespace, thousands separators and a trailing
// currency symbol pasted along with the number.
func sanitizeAmount(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "BNB"), "bnb")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "_", "")
	return strings.TrimSpace(s)
}
