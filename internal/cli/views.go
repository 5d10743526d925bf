package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mrz1836/pocket/internal/chain"
	"github.com/mrz1836/pocket/internal/output"
	"github.com/mrz1836/pocket/internal/provider"
	"github.com/mrz1836/pocket/internal/service/balance"
	"github.com/mrz1836/pocket/internal/service/history"
	"github.com/mrz1836/pocket/internal/service/transaction"
	"github.com/mrz1836/pocket/internal/session"
)

// probeView is the result of pocket probe.
type probeView struct {
	Present      bool                  `json:"present"`
	Capabilities provider.Capabilities `json:"capabilities"`
	Supported    bool                  `json:"supported"`
}

func (v probeView) WriteText(w io.Writer, s output.Style) error {
	if !v.Present {
		out(w, "%s\n", s.Bad("No wallet provider present"))
		return nil
	}
	t := output.NewTable("FLAG", "VALUE")
	t.AddRow("isTokenPocket", yesNo(v.Capabilities.TokenPocket))
	t.AddRow("isMetaMask", yesNo(v.Capabilities.MetaMask))
	t.AddRow("isSafePal", yesNo(v.Capabilities.SafePal))
	if err := t.Render(w); err != nil {
		return err
	}
	outln(w)
	if v.Supported {
		out(w, "%s\n", s.Good("TokenPocket detected"))
	} else {
		out(w, "%s\n", s.Warn("Not TokenPocket: connect will be refused"))
	}
	return nil
}

// sessionView is the session state plus target chain details.
type sessionView struct {
	session.State

	Target     string `json:"target_chain"`
	ChainName  string `json:"chain_name,omitempty"`
	Symbol     string `json:"symbol"`
	AddressURL string `json:"explorer_url,omitempty"`
}

func newSessionView(st session.State, target chain.Config) sessionView {
	v := sessionView{
		State:  st,
		Target: target.ChainID,
		Symbol: target.NativeCurrency.Symbol,
	}
	if st.OnTargetChain {
		v.ChainName = target.ChainName
	}
	if st.Connected {
		v.AddressURL = target.ExplorerAddressURL(st.Address)
	}
	return v
}

func (v sessionView) WriteText(w io.Writer, s output.Style) error {
	if !v.Connected {
		out(w, "%s\n", s.Dim("Not connected"))
		if v.LastError != "" {
			out(w, "Last error: %s\n", s.Bad(v.LastError))
		}
		return nil
	}

	chainLine := v.ChainID
	if v.ChainName != "" {
		chainLine = fmt.Sprintf("%s (%s)", v.ChainName, v.ChainID)
	}
	if !v.OnTargetChain {
		chainLine = s.Warn(chainLine + ", expected " + v.Target)
	}

	out(w, "%s %s\n", s.Good("●"), s.Bold("Connected"))
	out(w, "Address:  %s\n", v.Address)
	out(w, "Chain:    %s\n", chainLine)
	out(w, "Balance:  %s %s\n", v.NativeBalance, v.Symbol)
	if v.AddressURL != "" {
		out(w, "Explorer: %s\n", s.Dim(v.AddressURL))
	}
	if !v.OnTargetChain {
		output.Warn(w, "Wallet is off the target chain. Run 'pocket switch'.")
	}
	return nil
}

// connectView is the result of pocket connect.
type connectView struct {
	session.ConnectResult

	Session sessionView `json:"session"`
}

func (v connectView) WriteText(w io.Writer, s output.Style) error {
	if !v.Success {
		out(w, "%s %s\n", s.Bad("Connect failed:"), v.Error)
		return nil
	}
	return v.Session.WriteText(w, s)
}

// messageView is a one-line confirmation.
type messageView struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func (v messageView) WriteText(w io.Writer, s output.Style) error {
	if v.OK {
		out(w, "%s\n", s.Good(v.Message))
	} else {
		out(w, "%s\n", s.Warn(v.Message))
	}
	return nil
}

// balanceView is the native balance of the active account.
type balanceView struct {
	Address string `json:"address"`
	ChainID string `json:"chain_id"`
	Balance string `json:"balance"`
	Symbol  string `json:"symbol"`
}

func (v balanceView) WriteText(w io.Writer, s output.Style) error {
	out(w, "%s %s\n", s.Bold(v.Balance), v.Symbol)
	out(w, "%s\n", s.Dim(v.Address))
	return nil
}

// tokenBalancesView lists token lookups.
type tokenBalancesView struct {
	Address string           `json:"address"`
	Tokens  []balance.Result `json:"tokens"`
}

func (v tokenBalancesView) WriteText(w io.Writer, s output.Style) error {
	t := output.NewTable("TOKEN", "BALANCE", "CONTRACT", "NOTE").AlignRight(1)
	for _, r := range v.Tokens {
		note := ""
		value := r.Value
		if !r.OK() {
			note = s.Warn("unavailable: " + r.Reason)
			value = s.Dim(value)
		}
		t.AddRow(displaySymbol(r), value, chain.ShortAddress(r.Token), note)
	}
	return t.Render(w)
}

func displaySymbol(r balance.Result) string {
	if r.Symbol != "" {
		return r.Symbol
	}
	return chain.ShortAddress(r.Token)
}

// tokenListView lists known tokens.
type tokenListView struct {
	Watched  []chain.Token `json:"watched"`
	Registry []chain.Token `json:"registry"`
}

func (v tokenListView) WriteText(w io.Writer, s output.Style) error {
	if len(v.Watched) > 0 {
		out(w, "%s\n", s.Bold("Watched"))
		if err := tokenTable(v.Watched).Render(w); err != nil {
			return err
		}
		outln(w)
	}
	out(w, "%s\n", s.Bold("Registry"))
	return tokenTable(v.Registry).Render(w)
}

func tokenTable(tokens []chain.Token) *output.Table {
	t := output.NewTable("SYMBOL", "CONTRACT", "DECIMALS").AlignRight(2)
	for _, tok := range tokens {
		t.AddRow(tok.Symbol, tok.Address, fmt.Sprintf("%d", tok.Decimals))
	}
	return t
}

// sendView is the result of pocket send.
type sendView struct {
	transaction.SendResult

	To          string `json:"to"`
	Amount      string `json:"amount"`
	Symbol      string `json:"symbol"`
	ExplorerURL string `json:"explorer_url,omitempty"`
}

func (v sendView) WriteText(w io.Writer, s output.Style) error {
	if !v.Success {
		out(w, "%s %s\n", s.Bad("Send failed:"), v.Error)
		return nil
	}
	out(w, "%s %s %s to %s\n", s.Good("Sent"), v.Amount, v.Symbol, v.To)
	out(w, "Hash: %s\n", v.Hash)
	if v.ExplorerURL != "" {
		out(w, "%s\n", s.Dim(v.ExplorerURL))
	}
	return nil
}

// historyView lists recent transactions of the active account.
type historyView struct {
	Address string           `json:"address"`
	Records []history.Record `json:"records"`
}

func (v historyView) WriteText(w io.Writer, s output.Style) error {
	if len(v.Records) == 0 {
		out(w, "%s\n", s.Dim("No recent transactions found"))
		return nil
	}
	t := output.NewTable("BLOCK", "TIME", "DIR", "COUNTERPARTY", "VALUE", "GAS (GWEI)", "HASH").AlignRight(0).AlignRight(4)
	for _, r := range v.Records {
		dir := s.Good("in")
		counterparty := r.From
		if r.Direction == history.DirectionSent {
			dir = s.Warn("out")
			counterparty = r.To
		}
		if counterparty == "" {
			counterparty = "contract creation"
		}
		t.AddRow(
			fmt.Sprintf("%d", r.BlockNumber),
			formatTimestamp(r.Timestamp),
			dir,
			chain.ShortAddress(counterparty),
			r.Value,
			r.GasPrice,
			chain.ShortAddress(r.Hash),
		)
	}
	return t.Render(w)
}

// keyView describes the configured signing key.
type keyView struct {
	Address  string `json:"address"`
	KeyFile  string `json:"key_file"`
	Path     string `json:"derivation_path,omitempty"`
	Mnemonic string `json:"mnemonic,omitempty"`
}

func (v keyView) WriteText(w io.Writer, s output.Style) error {
	if v.Mnemonic != "" {
		out(w, "%s\n", s.Warn("Write down this recovery phrase and keep it offline:"))
		outln(w)
		words := strings.Fields(v.Mnemonic)
		for i, word := range words {
			out(w, "  %2d. %s\n", i+1, word)
		}
		outln(w)
	}
	out(w, "Address:  %s\n", s.Bold(v.Address))
	out(w, "Key file: %s\n", v.KeyFile)
	if v.Path != "" {
		out(w, "Path:     %s\n", v.Path)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatTimestamp(ts uint64) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(int64(ts), 0).UTC().Format("2006-01-02 15:04") //nolint:gosec // block timestamps fit in int64
}
