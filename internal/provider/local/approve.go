package local

import "context"

// Approval kinds.
const (
	KindConnect     = "connect"
	KindAddChain    = "add_chain"
	KindWatchAsset  = "watch_asset"
	KindTransaction = "transaction"
)

// Prompt describes an action that needs the owner's consent.
type Prompt struct {
	Kind    string
	Summary string
}

// Approver asks the owner to confirm a wallet action. Returning false
// makes the request fail with code 4001.
type Approver interface {
	Approve(ctx context.Context, p Prompt) (bool, error)
}

// ApproverFunc adapts a function to Approver.
type ApproverFunc func(ctx context.Context, p Prompt) (bool, error)

// Approve calls f.
func (f ApproverFunc) Approve(ctx context.Context, p Prompt) (bool, error) {
	return f(ctx, p)
}

// AutoApprove consents to everything.
type AutoApprove struct{}

// Approve always returns true.
func (AutoApprove) Approve(context.Context, Prompt) (bool, error) { return true, nil }
