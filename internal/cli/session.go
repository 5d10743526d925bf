package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mrz1836/pocket/internal/provider"
	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var disconnectRevoke bool

// probeCmd reports the wallet identity flags.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Show which wallet app the provider identifies as",
	Long: `Read the identity flags of the wallet provider without sending it any
request. Only a provider that identifies as TokenPocket can be connected.`,
	Example: `  pocket probe
  pocket probe -o json`,
	GroupID:     groupSession,
	Args:        cobra.NoArgs,
	Annotations: walletAnnotation(),
	RunE:        runProbe,
}

// connectCmd runs the connect sequence.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect the wallet and switch it to BNB Smart Chain",
	Long: `Ask the wallet for its accounts, make sure it is on BNB Smart Chain
(switching, or adding the network when the wallet does not know it), then
load the native balance. The wallet asks for approval before sharing an
account or adding a network.`,
	Example: `  pocket connect
  pocket connect --yes`,
	GroupID:     groupSession,
	Args:        cobra.NoArgs,
	Annotations: walletAnnotation(),
	RunE:        runConnect,
}

// disconnectCmd ends the session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "End the session",
	Long: `Forget the session and its reconnect hint. The wallet keeps its
authorization unless --revoke is given.`,
	Example: `  pocket disconnect
  pocket disconnect --revoke`,
	GroupID:     groupSession,
	Args:        cobra.NoArgs,
	Annotations: walletAnnotation(),
	RunE:        runDisconnect,
}

// statusCmd shows the session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session state",
	Long: `Restore the session the wallet already authorized, without prompting,
and show the account, chain and native balance.`,
	Example: `  pocket status
  pocket status -o json`,
	GroupID:     groupSession,
	Args:        cobra.NoArgs,
	Annotations: walletAnnotation(),
	RunE:        runStatus,
}

// switchCmd moves the wallet back to the target chain.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var switchCmd = &cobra.Command{
	Use:   "switch",
	Short: "Switch the wallet to BNB Smart Chain",
	Long: `Switch the wallet to the target chain, adding the network first when
the wallet reports it as unknown, then refresh the session.`,
	Example: `  pocket switch
  pocket --home ~/.pocket-testnet switch`,
	GroupID:     groupSession,
	Args:        cobra.NoArgs,
	Annotations: walletAnnotation(),
	RunE:        runSwitch,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(probeCmd, connectCmd, disconnectCmd, statusCmd, switchCmd)

	disconnectCmd.Flags().BoolVar(&disconnectRevoke, "revoke", false, "also withdraw the wallet's account authorization")
}

func runProbe(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	caps := provider.Probe(cc.Provider, cc.Log)
	return cc.Fmt.Print(probeView{
		Present:      cc.Provider != nil,
		Capabilities: caps,
		Supported:    caps.TokenPocket,
	})
}

func runConnect(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, approvalTimeout)
	defer cancel()

	res, err := cc.Session.Connect(ctx)
	if err != nil {
		return err
	}
	return cc.Fmt.Print(connectView{
		ConnectResult: res,
		Session:       newSessionView(cc.Session.Store().Snapshot(), cc.Session.Target()),
	})
}

func runDisconnect(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	cc.Session.Disconnect()

	msg := "Disconnected"
	if disconnectRevoke && cc.Wallet != nil {
		if err := cc.Wallet.Revoke(); err != nil {
			return err
		}
		msg = "Disconnected and revoked wallet authorization"
	}
	return cc.Fmt.Print(messageView{OK: true, Message: msg})
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, requestTimeout)
	defer cancel()

	restoreSession(ctx, cc)
	return cc.Fmt.Print(newSessionView(cc.Session.Store().Snapshot(), cc.Session.Target()))
}

func runSwitch(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, approvalTimeout)
	defer cancel()

	restoreSession(ctx, cc)
	if err := cc.Session.SwitchToTarget(ctx); err != nil {
		return err
	}
	return cc.Fmt.Print(newSessionView(cc.Session.Store().Snapshot(), cc.Session.Target()))
}

// restoreSession re-establishes the session of an earlier connect. A
// session the user disconnected stays disconnected even though the wallet
// still authorizes the account.
func restoreSession(ctx context.Context, cc *CommandContext) bool {
	if cc.Store != nil {
		hints, err := cc.Store.LoadHints()
		if err != nil {
			cc.Log.Error("loading reconnect hints: %v", err)
			return false
		}
		if !hints.Connected {
			cc.Log.Debug("restore: no earlier session")
			return false
		}
		cc.Log.Debug("restore: last session was %s", hints.LastAddress)
	}
	return cc.Session.Restore(ctx)
}

// requireSession restores the session or fails with ErrNotConnected.
func requireSession(ctx context.Context, cc *CommandContext) error {
	if !restoreSession(ctx, cc) {
		return pocketerr.ErrNotConnected
	}
	return nil
}
