package cli

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/mrz1836/pocket/internal/chain"
	"github.com/mrz1836/pocket/internal/service/balance"
	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

// tokenCmd is the parent command for BEP-20 token operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var tokenCmd = &cobra.Command{
	Use:         "token",
	Short:       "BEP-20 token balances and tracking",
	Long:        `Look up BEP-20 token balances of the active account and manage the tokens the wallet tracks.`,
	GroupID:     groupWallet,
	Annotations: walletAnnotation(),
}

// tokenBalanceCmd shows token balances.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var tokenBalanceCmd = &cobra.Command{
	Use:   "balance [symbol|address]",
	Short: "Show a token balance, or the whole portfolio",
	Long: `Read the active account's balance of one token, given by registry symbol
or contract address. Without an argument every watched and configured
token is read in turn. A failed lookup is reported as unavailable with the
reason instead of failing the command.`,
	Example: `  pocket token balance USDT
  pocket token balance 0x55d398326f99059fF775485246999027B3197955
  pocket token balance -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTokenBalance,
}

// tokenListCmd lists known tokens.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watched and registry tokens",
	Long:  `List the tokens the wallet tracks followed by the built-in BSC token registry.`,
	Example: `  pocket token list
  pocket token list -o json`,
	Args: cobra.NoArgs,
	RunE: runTokenList,
}

// tokenWatchCmd asks the wallet to track a token.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var tokenWatchCmd = &cobra.Command{
	Use:   "watch <symbol>",
	Short: "Ask the wallet to track a token",
	Long: `Send a watch-asset request for a registry token. The wallet asks for
approval before adding it.`,
	Example: `  pocket token watch CAKE
  pocket token watch usdt --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runTokenWatch,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenBalanceCmd, tokenListCmd, tokenWatchCmd)
}

func runTokenBalance(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, historyTimeout)
	defer cancel()

	var tokens []chain.Token
	if len(args) == 1 {
		tok, err := resolveToken(args[0])
		if err != nil {
			return err
		}
		tokens = []chain.Token{tok}
	} else {
		tokens = portfolioTokens(cc)
	}

	if err := requireSession(ctx, cc); err != nil {
		return err
	}

	var results []balance.Result
	if len(args) == 1 && tokens[0].Symbol == "" {
		results = []balance.Result{cc.Balance.GetTokenBalance(ctx, tokens[0].Address, balance.ERC20ABI)}
	} else {
		results = cc.Balance.Portfolio(ctx, tokens)
	}

	return cc.Fmt.Print(tokenBalancesView{
		Address: cc.Session.Store().Snapshot().Address,
		Tokens:  results,
	})
}

func runTokenList(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	view := tokenListView{Registry: chain.Tokens(), Watched: []chain.Token{}}
	if cc.Wallet != nil {
		watched, err := cc.Wallet.WatchedAssets()
		if err != nil {
			return err
		}
		view.Watched = watched
	}
	return cc.Fmt.Print(view)
}

func runTokenWatch(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, approvalTimeout)
	defer cancel()

	tok, ok := chain.LookupToken(args[0])
	if !ok {
		return unknownToken(args[0])
	}
	if err := requireSession(ctx, cc); err != nil {
		return err
	}

	if !cc.Balance.WatchAsset(ctx, tok) {
		return cc.Fmt.Print(messageView{Message: "Wallet did not add " + tok.Symbol})
	}
	return cc.Fmt.Print(messageView{OK: true, Message: "Wallet now tracks " + tok.Symbol})
}

// resolveToken accepts a registry symbol or a contract address. Addresses
// resolve to their registry symbol when listed.
func resolveToken(arg string) (chain.Token, error) {
	if common.IsHexAddress(arg) {
		addr := common.HexToAddress(arg).Hex()
		for _, tok := range chain.Tokens() {
			if strings.EqualFold(tok.Address, addr) {
				return tok, nil
			}
		}
		return chain.Token{Address: addr, Decimals: chain.RegistryDecimals}, nil
	}
	if tok, ok := chain.LookupToken(arg); ok {
		return tok, nil
	}
	return chain.Token{}, unknownToken(arg)
}

func unknownToken(symbol string) error {
	details := map[string]string{"symbol": symbol}
	if suggestion := chain.SuggestToken(symbol); suggestion != "" {
		return pocketerr.WithSuggestion(
			pocketerr.WithDetails(pocketerr.ErrTokenNotFound, details),
			"Did you mean "+suggestion+"?",
		)
	}
	return pocketerr.WithSuggestion(
		pocketerr.WithDetails(pocketerr.ErrTokenNotFound, details),
		"Run 'pocket token list' to see known tokens",
	)
}

// portfolioTokens returns the watched tokens followed by the configured
// ones, without duplicates.
func portfolioTokens(cc *CommandContext) []chain.Token {
	var tokens []chain.Token
	if cc.Wallet != nil {
		watched, err := cc.Wallet.WatchedAssets()
		if err != nil {
			cc.Log.Error("reading watched assets: %v", err)
		}
		tokens = append(tokens, watched...)
	}
	tokens = append(tokens, cc.Cfg.GetTokens()...)

	seen := make(map[string]bool, len(tokens))
	unique := tokens[:0]
	for _, tok := range tokens {
		key := strings.ToLower(tok.Address)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, tok)
	}
	return unique
}

// lookupTokens is used by the watch API to read a portfolio.
func lookupTokens(ctx context.Context, cc *CommandContext) []balance.Result {
	return cc.Balance.Portfolio(ctx, portfolioTokens(cc))
}
