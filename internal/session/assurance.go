package session

import (
	"context"

	"github.com/mrz1836/pocket/internal/chain"
	"github.com/mrz1836/pocket/internal/provider"
)

type switchParams struct {
	ChainID string `json:"chainId"`
}

// EnsureChain makes target the provider's active chain. It asks the wallet
// to switch and, if the wallet does not know the chain (code 4902), asks it
// once to add the chain. Every other failure is returned unchanged.
func EnsureChain(ctx context.Context, p provider.Provider, target chain.Config, log Logger) error {
	if log == nil {
		log = nopLogger{}
	}

	current, err := provider.Call[string](ctx, p, provider.MethodChainID)
	if err != nil {
		return err
	}
	if chain.SameChain(current, target.ChainID) {
		log.Debug("chain assurance: already on %s", target.ChainID)
		return nil
	}

	log.Debug("chain assurance: switching %s -> %s", current, target.ChainID)
	_, err = p.Request(ctx, provider.MethodSwitchChain, switchParams{ChainID: target.ChainID})
	if err == nil {
		return nil
	}
	if !provider.IsUnrecognizedChain(err) {
		return err
	}

	log.Debug("chain assurance: wallet does not know %s, adding it", target.ChainID)
	_, err = p.Request(ctx, provider.MethodAddChain, target)
	return err
}
