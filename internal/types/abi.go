package types

import (
	"fmt"
	"strings"
	"time"
)

// DecodedParameter is a single ABI-decoded call or event parameter.
type DecodedParameter struct {
	Name       string `json:"name"`
	TypeString string `json:"type"`
	Value      string `json:"value"`
}

// DecodedFunction is a decoded call.
type DecodedFunction struct {
	Name       string             `json:"name"`
	Selector   string             `json:"selector"`
	Signature  string             `json:"signature"`
	Parameters []DecodedParameter `json:"parameters"`
}

// DecodingStatus enumerates the terminal states of a decode attempt (§4.7).
type DecodingStatus string

const (
	DecodingSuccess         DecodingStatus = "Success"
	DecodingNativeTransfer  DecodingStatus = "NativeTransfer"
	DecodingContractCreate  DecodingStatus = "ContractCreation"
	DecodingAbiNotFound     DecodingStatus = "AbiNotFound"
	DecodingAbiAutoFetched  DecodingStatus = "AbiAutoFetched"
	DecodingInvalidInput    DecodingStatus = "InvalidInput"
	DecodingRateLimited     DecodingStatus = "RateLimited"
)

// DecodingFailed renders the "DecodingFailed: {reason}" status string.
func DecodingFailed(reason string) DecodingStatus {
	return DecodingStatus(fmt.Sprintf("DecodingFailed: %s", reason))
}

// IsFailure reports whether a status string denotes a decode failure.
func (s DecodingStatus) IsFailure() bool {
	return strings.HasPrefix(string(s), "DecodingFailed:") ||
		s == DecodingAbiNotFound || s == DecodingInvalidInput
}

// DecodedTransaction is the payload published on
// blockchain.{network}.{subnet}.contracts.decoded.
type DecodedTransaction struct {
	TxHash          string           `json:"tx_hash"`
	Network         string           `json:"network"`
	Subnet          string           `json:"subnet"`
	ContractAddress string           `json:"contract_address"`
	DecodingStatus  DecodingStatus   `json:"decoding_status"`
	Function        *DecodedFunction `json:"function,omitempty"`
}

// AbiInfo is a cached contract ABI (§3.1).
type AbiInfo struct {
	Address  string `json:"address"`
	Network  string `json:"network"`
	AbiJSON  string `json:"abi_json"`
	Source   string `json:"source"`
	Verified bool   `json:"verified"`
	CachedAt int64  `json:"cached_at"` // unix seconds
}

// AbiCacheKey builds the abi:{network}:{lowercase_address} KV key.
func AbiCacheKey(network, address string) string {
	return fmt.Sprintf("abi:%s:%s", strings.ToLower(network), strings.ToLower(address))
}

// NewAbiInfo constructs an AbiInfo stamped with the current time.
func NewAbiInfo(address, network, abiJSON, source string, verified bool, now time.Time) AbiInfo {
	return AbiInfo{
		Address:  strings.ToLower(address),
		Network:  network,
		AbiJSON:  abiJSON,
		Source:   source,
		Verified: verified,
		CachedAt: now.Unix(),
	}
}
