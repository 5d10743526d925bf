package history

import "github.com/ethereum/go-ethereum/common/hexutil"

// Direction tells whether the active account sent or received a transfer.
type Direction string

// Directions.
const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// StatusSuccess is reported for every record. Only mined transactions are
// visible to the scan and receipts are not fetched.
const StatusSuccess = "success"

// Record is one transaction touching the active account.
type Record struct {
	Hash        string    `json:"hash"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Value       string    `json:"value"`
	BlockNumber uint64    `json:"blockNumber"`
	Timestamp   uint64    `json:"timestamp"`
	Direction   Direction `json:"direction"`
	Status      string    `json:"status"`
	GasPrice    string    `json:"gasPrice"`
}

// rpcBlock is the subset of a full eth_getBlockByNumber result we read.
type rpcBlock struct {
	Number       hexutil.Uint64 `json:"number"`
	Timestamp    hexutil.Uint64 `json:"timestamp"`
	Transactions []rpcTx        `json:"transactions"`
}

type rpcTx struct {
	Hash     string       `json:"hash"`
	From     string       `json:"from"`
	To       *string      `json:"to"`
	Value    *hexutil.Big `json:"value"`
	GasPrice *hexutil.Big `json:"gasPrice"`
}
