package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/pocket/internal/output"
	"github.com/mrz1836/pocket/internal/session"
	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

const (
	defaultRefreshInterval = 30 * time.Second
	shutdownTimeout        = 5 * time.Second
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	watchAddr     string
	watchInterval time.Duration
)

// watchCmd keeps a session open and serves it over HTTP.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the session open and follow wallet events",
	Long: `Restore the session, then apply account, chain and disconnect events from
the wallet as they arrive and refresh the native balance on an interval.
Every change of account, chain or balance is printed.

While watching, pocket holds the wallet database, so other pocket commands
cannot open it. The same actions are served over HTTP on --addr:
/session, /session/connect, /session/disconnect, /session/switch, /tokens,
/tokens/{token}, /history, /send, /healthz and Prometheus /metrics.`,
	Example: `  pocket watch
  pocket watch --addr 127.0.0.1:9500 --interval 1m
  curl -s localhost:9464/session`,
	GroupID:     groupSession,
	Args:        cobra.NoArgs,
	Annotations: walletAnnotation(),
	RunE:        runWatch,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchAddr, "addr", "", "listen address for the HTTP API (default from config metrics.addr)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", defaultRefreshInterval, "native balance refresh interval")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	if watchInterval <= 0 {
		return pocketerr.WithDetails(pocketerr.ErrInvalidInput, map[string]string{"interval": watchInterval.String()})
	}
	addr := watchAddr
	if addr == "" {
		addr = cc.Cfg.GetMetricsAddr()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bridge := session.NewBridge(cc.Session)
	bridge.Attach(cc.Provider)
	defer bridge.Detach()

	bridgeErr := make(chan error, 1)
	go func() { bridgeErr <- bridge.Run(ctx) }()

	restoreCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	if !restoreSession(restoreCtx, cc) {
		cc.Log.Debug("watch: no session to restore, waiting for connect")
	}
	cancel()

	if err := cc.Fmt.Print(newSessionView(cc.Session.Store().Snapshot(), cc.Session.Target())); err != nil {
		return err
	}
	cc.Session.Store().OnChange(changePrinter(cc))

	srv := &http.Server{
		Addr:              addr,
		Handler:           newWatchRouter(cc, requestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if !cc.Fmt.IsJSON() {
		output.Info(cmd.ErrOrStderr(), "Serving the session API on http://%s (Ctrl+C to stop)", addr)
	}
	srvErr := make(chan error, 1)
	go func() {
		cc.Log.Debug("watch: serving on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	err := watchLoop(ctx, cc, watchInterval, srvErr, bridgeErr)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		cc.Log.Error("watch: shutting down http server: %v", shutdownErr)
	}
	cc.Session.Store().OnChange(nil)
	return err
}

// watchLoop refreshes the balance until ctx ends or the server or bridge
// fails.
func watchLoop(ctx context.Context, cc *CommandContext, interval time.Duration, srvErr, bridgeErr <-chan error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-srvErr:
			if ok && err != nil {
				return pocketerr.Wrap(pocketerr.ErrGeneral, "http api: %v", err)
			}
			srvErr = nil
		case err := <-bridgeErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case <-ticker.C:
			refreshBalance(ctx, cc)
		}
	}
}

func refreshBalance(ctx context.Context, cc *CommandContext) {
	st := cc.Session.Store().Snapshot()
	if !st.Connected {
		return
	}
	rctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if err := cc.Balance.UpdateBalance(rctx, st.Address); err != nil {
		cc.Log.Error("watch: refreshing balance: %v", err)
	}
}

// changePrinter prints the session whenever account, chain, connection or
// balance change. Loading and error flips are not printed.
func changePrinter(cc *CommandContext) func(session.State) {
	var mu sync.Mutex
	last := cc.Session.Store().Snapshot()
	return func(next session.State) {
		mu.Lock()
		defer mu.Unlock()
		if next.Connected == last.Connected &&
			next.Address == last.Address &&
			next.ChainID == last.ChainID &&
			next.NativeBalance == last.NativeBalance {
			return
		}
		last = next
		if err := cc.Fmt.Print(newSessionView(next, cc.Session.Target())); err != nil {
			cc.Log.Error("watch: printing session: %v", err)
		}
	}
}
