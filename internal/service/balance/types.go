package balance

// Status tells a real balance apart from a failed lookup.
type Status string

// Result statuses.
const (
	StatusOK          Status = "ok"
	StatusUnavailable Status = "unavailable"
)

// Result is the outcome of one token balance lookup. An unavailable result
// still carries Value "0" for display.
type Result struct {
	Token    string `json:"token"`
	Symbol   string `json:"symbol,omitempty"`
	Status   Status `json:"status"`
	Value    string `json:"value"`
	Decimals int    `json:"decimals,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// OK reports whether the lookup succeeded.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

func unavailable(token, reason string) Result {
	return Result{Token: token, Status: StatusUnavailable, Value: "0", Reason: reason}
}

// ERC20ABI is the subset of the ERC-20 interface the dashboard uses.
const ERC20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function","stateMutability":"view"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function","stateMutability":"view"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function","stateMutability":"view"},
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"type":"function","stateMutability":"view"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function","stateMutability":"nonpayable"}
]`
