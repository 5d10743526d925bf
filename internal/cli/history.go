package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/pocket/internal/service/history"
	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var historyLimit int

// historyCmd scans recent blocks.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent transactions of the active account",
	Long: `Walk back from the latest block and list transactions sent from or to the
active account. The scan stops after --limit matches or after ten blocks
per requested record (at most 1000 blocks), so older activity may not
appear. Blocks that fail to load are skipped.`,
	Example: `  pocket history
  pocket history --limit 5 -o json`,
	GroupID:     groupWallet,
	Args:        cobra.NoArgs,
	Annotations: walletAnnotation(),
	RunE:        runHistory,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum number of transactions (default from config)")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, historyTimeout)
	defer cancel()

	limit := historyLimit
	if limit < 0 {
		return pocketerr.WithDetails(pocketerr.ErrInvalidInput, map[string]string{"limit": "must not be negative"})
	}
	if limit == 0 {
		limit = cc.Cfg.GetHistoryLimit()
	}
	if limit <= 0 {
		limit = history.DefaultLimit
	}

	if err := requireSession(ctx, cc); err != nil {
		return err
	}

	cc.Log.Debug("history: scanning up to %d blocks for %d records", history.BlockBudget(limit), limit)
	records := cc.History.GetHistory(ctx, limit)
	return cc.Fmt.Print(historyView{
		Address: cc.Session.Store().Snapshot().Address,
		Records: records,
	})
}
