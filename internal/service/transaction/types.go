package transaction

// SendResult is the outcome of a native transfer submission.
type SendResult struct {
	Success bool   `json:"success"`
	Hash    string `json:"hash,omitempty"`
	Error   string `json:"error,omitempty"`
}

// txRequest is the eth_sendTransaction parameter object.
type txRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
}
