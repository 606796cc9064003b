// Package deployment implements the deployment enricher (§4.5): bytecode
// analysis and transactions/address_transactions rows for contract creation.
package deployment

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/web3ekko/ekko-streams/internal/chain"
	"github.com/web3ekko/ekko-streams/internal/types"
	"github.com/web3ekko/ekko-streams/pkg/bus"
)

const (
	TransactionsTable        = "transactions"
	AddressTransactionsTable = "address_transactions"
)

// Proxy-pattern byte sequences, §6.4.
const (
	eip1167Prefix = "363d3d373d3d3d363d73"
	eip1967Slot   = "360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc"
	eip1822Slot   = "c5f16f0fcc639fa48a6947836d9850f504798523bf8c9a3a87d5876cf622bcf7"
	delegatecallOpcode = "f4"
)

// ContractType is the best-effort classification of §4.5 step 2.
type ContractType string

const (
	ContractERC20    ContractType = "ERC20"
	ContractERC721   ContractType = "ERC721"
	ContractERC1155  ContractType = "ERC1155"
	ContractProxy    ContractType = "ProxyContract"
	ContractUnknown  ContractType = ""
)

// erc20Selectors, erc721Selectors, erc1155Selectors are the function
// selectors used by the §4.5 heuristic.
var (
	erc20Selectors   = []string{"a9059cbb", "095ea7b3", "70a08231"} // transfer, approve, balanceOf
	erc721Selectors  = []string{"42842e0e", "c87b56dd"}             // safeTransferFrom, tokenURI
	erc1155Selectors = []string{"f242432a", "2eb2c2d6"}             // safeTransferFrom, safeBatchTransferFrom
)

// BytecodeAnalysis carries the §4.5 step 2 derived fields.
type BytecodeAnalysis struct {
	Size         int          `json:"bytecode_size"`
	Hash         string       `json:"bytecode_hash"`
	Complexity   int          `json:"bytecode_complexity"`
	Patterns     []string     `json:"patterns"`
	ContractType ContractType `json:"contract_type"`
	IsProxy      bool         `json:"is_proxy"`
}

// AnalyzeBytecode implements §4.5 step 2.
func AnalyzeBytecode(code string) BytecodeAnalysis {
	raw := strings.TrimPrefix(strings.ToLower(code), "0x")
	a := BytecodeAnalysis{
		Size: len(raw) / 2,
		Hash: bytecodeHash(raw),
	}
	a.Complexity = distinctBytePairs(raw)

	var patterns []string
	if strings.HasPrefix(raw, eip1167Prefix) {
		patterns = append(patterns, "EIP-1167")
	}
	if strings.Contains(raw, eip1967Slot) {
		patterns = append(patterns, "EIP-1967")
	}
	if strings.Contains(raw, eip1822Slot) {
		patterns = append(patterns, "EIP-1822")
	}
	hasAllSelectors := func(selectors []string) bool {
		for _, s := range selectors {
			if !strings.Contains(raw, s) {
				return false
			}
		}
		return true
	}
	if hasAllSelectors(erc20Selectors) {
		patterns = append(patterns, "token_template")
	}
	a.Patterns = patterns

	isProxyPattern := len(patterns) > 0 && containsAny(patterns, "EIP-1167", "EIP-1967", "EIP-1822")
	a.IsProxy = isProxyPattern || strings.Contains(raw, delegatecallOpcode)

	switch {
	case hasAllSelectors(erc20Selectors):
		a.ContractType = ContractERC20
	case hasAllSelectors(erc721Selectors):
		a.ContractType = ContractERC721
	case hasAllSelectors(erc1155Selectors):
		a.ContractType = ContractERC1155
	case isProxyPattern:
		a.ContractType = ContractProxy
	default:
		a.ContractType = ContractUnknown
	}
	return a
}

func containsAny(haystack []string, needles ...string) bool {
	set := make(map[string]struct{}, len(haystack))
	for _, h := range haystack {
		set[h] = struct{}{}
	}
	for _, n := range needles {
		if _, ok := set[n]; ok {
			return true
		}
	}
	return false
}

func bytecodeHash(rawHex string) string {
	if len(rawHex)%2 != 0 {
		rawHex = "0" + rawHex
	}
	code, err := hex.DecodeString(rawHex)
	if err != nil {
		return ""
	}
	return "0x" + hex.EncodeToString(crypto.Keccak256(code))
}

func distinctBytePairs(rawHex string) int {
	seen := make(map[string]struct{})
	for i := 0; i+2 <= len(rawHex); i += 2 {
		seen[rawHex[i:i+2]] = struct{}{}
	}
	return len(seen)
}

// PlaceholderContractAddress derives a deterministic contract address from
// (sender, nonce) when the receipt supplies none, per §4.5 step 1. This is
// not bit-exact RLP+Keccak CREATE address derivation; it is a deterministic
// stand-in: the last 20 bytes of Keccak-256 over "{lower(sender)}:{nonce}".
func PlaceholderContractAddress(sender string, nonce uint64) string {
	input := fmt.Sprintf("%s:%d", strings.ToLower(sender), nonce)
	sum := crypto.Keccak256([]byte(input))
	return "0x" + hex.EncodeToString(sum[12:])
}

// Enricher is the deployment enricher stage.
type Enricher struct {
	log zerolog.Logger
	bus bus.Bus
}

// New builds an Enricher.
func New(b bus.Bus) *Enricher {
	return &Enricher{log: log.With().Str("component", "enrich.deployment").Logger(), bus: b}
}

// Subscribe attaches the enricher to the given inbound subject.
func (e *Enricher) Subscribe(ctx context.Context, subject string) (bus.Subscription, error) {
	return e.bus.Subscribe(ctx, subject, "enrich-deployment", func(ctx context.Context, msg bus.Message) {
		var typed types.TypedTransaction
		if err := json.Unmarshal(msg.Body, &typed); err != nil {
			e.log.Error().Err(err).Msg("decoding typed transaction")
			return
		}
		if err := e.HandleTypedTransaction(ctx, typed); err != nil {
			e.log.Error().Err(err).Str("tx_hash", typed.Raw.TransactionHash).Msg("enriching deployment failed")
		}
	})
}

// HandleTypedTransaction implements the §4.5 steps.
func (e *Enricher) HandleTypedTransaction(ctx context.Context, typed types.TypedTransaction) error {
	raw := typed.Raw

	contractAddress := ""
	if raw.ContractAddress != nil && *raw.ContractAddress != "" {
		contractAddress = types.NormalizeAddress(*raw.ContractAddress)
	} else {
		nonce, err := types.HexUint64(raw.NonceHex)
		if err != nil {
			return errors.Wrap(err, "parsing nonce")
		}
		contractAddress = PlaceholderContractAddress(raw.From, nonce)
	}

	analysis := AnalyzeBytecode(raw.InputData)

	protocol := protocolFor(analysis.ContractType)

	blockDate := types.BlockDate(raw.BlockTimestamp)
	partition := types.PartitionKey{
		ChainIDString: fmt.Sprintf("%s_%s", raw.Network, raw.Subnet),
		BlockDate:     blockDate,
		Shard:         types.Shard(raw.TransactionHash, 64),
	}

	txRecord := types.EnrichedRecord{
		Table:     TransactionsTable,
		Partition: partition,
		Fields: map[string]interface{}{
			"tx_hash":             raw.TransactionHash,
			"from":                raw.From,
			"contract_address":    contractAddress,
			"transaction_type":    "contract_deployment",
			"transaction_subtype": "create",
			"bytecode_size":       analysis.Size,
			"bytecode_hash":       analysis.Hash,
			"bytecode_complexity": analysis.Complexity,
			"patterns":            analysis.Patterns,
			"contract_type":       analysis.ContractType,
			"is_proxy":            analysis.IsProxy,
			"protocol":            protocol,
			"category":            "infrastructure",
			"chain_id":            int64(chain.ResolveChainID(raw.Network, raw.Subnet)),
			"block_number":        raw.BlockNumber,
			"block_timestamp":     raw.BlockTimestamp,
		},
	}
	if err := e.publish(ctx, raw.Network, raw.Subnet, txRecord); err != nil {
		return err
	}

	for _, side := range []struct {
		address  string
		isSender bool
		counter  string
	}{
		{address: raw.From, isSender: true, counter: contractAddress},
		{address: contractAddress, isSender: false, counter: raw.From},
	} {
		row := types.EnrichedRecord{
			Table:     AddressTransactionsTable,
			Partition: partitionForAddress(partition, side.address),
			Fields: map[string]interface{}{
				"address":         types.NormalizeAddress(side.address),
				"tx_hash":         raw.TransactionHash,
				"is_sender":       side.isSender,
				"counterparty":    types.NormalizeAddress(side.counter),
				"block_number":    raw.BlockNumber,
				"block_timestamp": raw.BlockTimestamp,
			},
		}
		if err := e.publish(ctx, raw.Network, raw.Subnet, row); err != nil {
			return err
		}
	}
	return nil
}

func partitionForAddress(base types.PartitionKey, address string) types.PartitionKey {
	p := base
	p.AddressPrefix = types.AddressPrefix(address)
	return p
}

func protocolFor(ct ContractType) string {
	switch ct {
	case ContractERC20:
		return "erc20"
	case ContractERC721:
		return "erc721"
	case ContractERC1155:
		return "erc1155"
	case ContractProxy:
		return "proxy"
	default:
		return ""
	}
}

func (e *Enricher) publish(ctx context.Context, network chain.Network, subnet chain.Subnet, rec types.EnrichedRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshaling enriched record")
	}
	subject := fmt.Sprintf("ducklake.%s.%s.%s.write", rec.Table, network, subnet)
	return errors.Wrap(e.bus.Publish(ctx, subject, body), "publishing enriched record")
}
