package types

import (
	"math/big"

	"github.com/web3ekko/ekko-streams/internal/chain"
)

// RawTransaction is the per-transaction record published by the block
// fetcher (§3.1). Integer fields are carried in both hex and parsed form so
// that downstream stages never have to re-derive one from the other.
type RawTransaction struct {
	Network chain.Network `json:"network"`
	Subnet  chain.Subnet  `json:"subnet"`
	VMType  chain.VMType  `json:"vm_type"`
	ChainID chain.ChainID `json:"chain_id"`

	BlockNumber    uint64 `json:"block_number"`
	BlockHash      string `json:"block_hash"`
	BlockTimestamp uint64 `json:"block_timestamp"`

	TransactionIndex uint64  `json:"transaction_index"`
	TransactionHash  string  `json:"transaction_hash"`
	From             string  `json:"from"`
	To               *string `json:"to,omitempty"`

	ValueHex    string `json:"value"`
	ValueWeiHex string `json:"-"` // alias kept for clarity at call sites

	GasLimitHex string `json:"gas_limit"`
	GasPriceHex string `json:"gas_price"`
	InputData   string `json:"input_data"`
	NonceHex    string `json:"nonce"`

	// EIP-1559 fee caps, optional.
	MaxFeePerGasHex         *string `json:"max_fee_per_gas,omitempty"`
	MaxPriorityFeePerGasHex *string `json:"max_priority_fee_per_gas,omitempty"`

	TransactionType *uint8 `json:"transaction_type,omitempty"`

	V *string `json:"v,omitempty"`
	R *string `json:"r,omitempty"`
	S *string `json:"s,omitempty"`

	// Receipt-derived fields, populated when the fetcher/caller has a
	// receipt available (the call enricher requires these).
	ReceiptStatus       *string  `json:"receipt_status,omitempty"`
	GasUsedHex          *string  `json:"gas_used,omitempty"`
	ContractAddress     *string  `json:"contract_address,omitempty"`
	RevertReason        *string  `json:"revert_reason,omitempty"`
	ReceiptLogs         []RawLog `json:"receipt_logs,omitempty"`
	CorrelationID       string   `json:"correlation_id,omitempty"`
}

// RawLog is a receipt-embedded log, as opposed to one fetched independently
// by the log ingestor.
type RawLog struct {
	Address  string   `json:"address"`
	Topics   []string `json:"topics"`
	Data     string   `json:"data"`
	LogIndex uint64   `json:"log_index"`
}

// ParsedValueWei returns the transaction value as a *big.Int in wei.
func (r RawTransaction) ParsedValueWei() (*big.Int, error) {
	return HexBigInt(r.ValueHex)
}

// ParsedGasLimit returns the gas limit as a uint64.
func (r RawTransaction) ParsedGasLimit() (uint64, error) {
	return HexUint64(r.GasLimitHex)
}

// ParsedGasPriceWei returns the gas price in wei as a *big.Int.
func (r RawTransaction) ParsedGasPriceWei() (*big.Int, error) {
	return HexBigInt(r.GasPriceHex)
}
