// Package call implements the call enricher (§4.6): categorizes contract
// calls, derives transaction status, transforms receipt logs, and
// fire-and-forgets an ABI decode request.
package call

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/web3ekko/ekko-streams/internal/chain"
	"github.com/web3ekko/ekko-streams/internal/types"
	"github.com/web3ekko/ekko-streams/pkg/bus"
)

const (
	ContractCallsTable       = "contract_calls"
	TransactionsTable        = "transactions"
	AddressTransactionsTable = "address_transactions"
)

// AbiDecodeRequestSubject is the decoder's async intake subject (§4.6 step 5).
const AbiDecodeRequestSubject = "abi.decode.request"

// ProcessedCallSubject fans out the processed call for downstream short-circuits.
const ProcessedCallSubject = "contract-calls.processed.evm"

// FunctionCategory enumerates the §4.6 step 2 / §6.4 categories.
type FunctionCategory string

const (
	CategoryTransfer   FunctionCategory = "Transfer"
	CategoryApproval   FunctionCategory = "Approval"
	CategorySwap       FunctionCategory = "Swap"
	CategoryStake      FunctionCategory = "Stake"
	CategoryUnstake    FunctionCategory = "Unstake"
	CategoryBorrow     FunctionCategory = "Borrow"
	CategoryRepay      FunctionCategory = "Repay"
	CategoryLiquidate  FunctionCategory = "Liquidate"
	CategoryGovernance FunctionCategory = "Governance"
	CategoryUnknown    FunctionCategory = "Unknown"
)

// selectorCategoryTable is the §6.4 function-selector category table.
var selectorCategoryTable = map[string]FunctionCategory{
	"a9059cbb": CategoryTransfer,
	"23b872dd": CategoryTransfer,
	"095ea7b3": CategoryApproval,
	"38ed1739": CategorySwap,
	"7ff36ab5": CategorySwap,
	"18cbafe5": CategorySwap,
	"a694fc3a": CategoryStake,
	"b6b55f25": CategoryStake,
	"2e1a7d4d": CategoryUnstake,
	"c5ebeaec": CategoryBorrow,
	"573ade81": CategoryRepay,
	"00a718a9": CategoryLiquidate,
	"da95691a": CategoryGovernance,
	"15373e3d": CategoryGovernance,
}

// CategorizeSelector implements §4.6 step 2.
func CategorizeSelector(selector string) FunctionCategory {
	if cat, ok := selectorCategoryTable[strings.ToLower(strings.TrimPrefix(selector, "0x"))]; ok {
		return cat
	}
	return CategoryUnknown
}

// TransactionStatus is the §4.6 step 3 status, possibly parameterized with a
// revert reason via Reverted.
type TransactionStatus string

const (
	StatusSuccess TransactionStatus = "Success"
	StatusOutOfGas TransactionStatus = "OutOfGas"
	StatusFailed  TransactionStatus = "Failed"
)

// Reverted renders the "Reverted({reason})" status string.
func Reverted(reason string) TransactionStatus {
	return TransactionStatus(fmt.Sprintf("Reverted(%s)", reason))
}

// DetermineStatus implements §4.6 step 3.
func DetermineStatus(receiptStatus *string, gasUsed, gasLimit uint64, revertReason *string) TransactionStatus {
	if receiptStatus != nil && strings.EqualFold(*receiptStatus, "0x1") {
		return StatusSuccess
	}
	if gasUsed >= gasLimit && gasLimit > 0 {
		return StatusOutOfGas
	}
	if revertReason != nil && *revertReason != "" {
		return Reverted(*revertReason)
	}
	return StatusFailed
}

// Enricher is the call enricher stage.
type Enricher struct {
	log zerolog.Logger
	bus bus.Bus
}

// New builds an Enricher.
func New(b bus.Bus) *Enricher {
	return &Enricher{log: log.With().Str("component", "enrich.call").Logger(), bus: b}
}

// Subscribe attaches the enricher to the given inbound subject.
func (e *Enricher) Subscribe(ctx context.Context, subject string) (bus.Subscription, error) {
	return e.bus.Subscribe(ctx, subject, "enrich-call", func(ctx context.Context, msg bus.Message) {
		var typed types.TypedTransaction
		if err := json.Unmarshal(msg.Body, &typed); err != nil {
			e.log.Error().Err(err).Msg("decoding typed transaction")
			return
		}
		if err := e.HandleTypedTransaction(ctx, typed); err != nil {
			e.log.Error().Err(err).Str("tx_hash", typed.Raw.TransactionHash).Msg("enriching call failed")
		}
	})
}

// HandleTypedTransaction implements the §4.6 steps.
func (e *Enricher) HandleTypedTransaction(ctx context.Context, typed types.TypedTransaction) error {
	raw := typed.Raw
	if len(raw.InputData) < 10 {
		return errors.New("call transaction missing function selector")
	}
	selector := strings.ToLower(raw.InputData[:10])
	category := CategorizeSelector(selector)

	gasLimit, err := raw.ParsedGasLimit()
	if err != nil {
		return errors.Wrap(err, "parsing gas_limit")
	}
	var gasUsed uint64
	if raw.GasUsedHex != nil {
		gasUsed, _ = types.HexUint64(*raw.GasUsedHex)
	}
	status := DetermineStatus(raw.ReceiptStatus, gasUsed, gasLimit, raw.RevertReason)

	eventLogs := make([]types.EventLog, 0, len(raw.ReceiptLogs))
	hasTokenTransferLog := false
	for _, rl := range raw.ReceiptLogs {
		el := types.NewEventLogFromTopics(rl.Address, rl.Topics, rl.Data, raw.TransactionHash, rl.LogIndex, raw.BlockNumber)
		if el.Topic0 != nil {
			if name, ok := types.EventNameForTopic0(*el.Topic0); ok {
				el.EventName = &name
				if name == "Transfer" && len(rl.Topics) >= 3 {
					hasTokenTransferLog = true
				}
			}
		}
		eventLogs = append(eventLogs, el)
	}

	if err := e.requestAbiDecode(ctx, raw, selector); err != nil {
		e.log.Warn().Err(err).Msg("requesting abi decode failed")
	}

	valueWei, err := raw.ParsedValueWei()
	if err != nil {
		return errors.Wrap(err, "parsing value")
	}
	currency, valueStr := determineCurrencyAndValue(raw.Network, valueWei, hasTokenTransferLog)

	blockDate := types.BlockDate(raw.BlockTimestamp)
	partition := types.PartitionKey{
		ChainIDString: fmt.Sprintf("%s_%s", raw.Network, raw.Subnet),
		BlockDate:     blockDate,
		Shard:         types.Shard(raw.TransactionHash, 64),
	}

	to := ""
	if raw.To != nil {
		to = *raw.To
	}

	callRecord := types.EnrichedRecord{
		Table:     ContractCallsTable,
		Partition: partition,
		Fields: map[string]interface{}{
			"tx_hash":           raw.TransactionHash,
			"contract_address":  types.NormalizeAddress(to),
			"function_selector": selector,
			"category":          category,
			"status":            status,
			"currency":          currency,
			"value":             valueStr,
			"event_count":       len(eventLogs),
			"block_number":      raw.BlockNumber,
			"block_timestamp":   raw.BlockTimestamp,
		},
	}
	if err := e.publish(ctx, raw.Network, raw.Subnet, callRecord); err != nil {
		return err
	}

	txRecord := types.EnrichedRecord{
		Table:     TransactionsTable,
		Partition: partition,
		Fields: map[string]interface{}{
			"tx_hash":             raw.TransactionHash,
			"from":                raw.From,
			"to":                  to,
			"transaction_type":    "CONTRACT_CALL",
			"transaction_subtype": strings.ToLower(string(category)),
			"status":              status,
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
		{address: raw.From, isSender: true, counter: to},
		{address: to, isSender: false, counter: raw.From},
	} {
		if side.address == "" {
			continue
		}
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

	processed := struct {
		TxHash   string              `json:"tx_hash"`
		Network  string              `json:"network"`
		Subnet   string              `json:"subnet"`
		Category FunctionCategory    `json:"category"`
		Status   TransactionStatus   `json:"status"`
		Events   []types.EventLog    `json:"events"`
	}{
		TxHash:   raw.TransactionHash,
		Network:  string(raw.Network),
		Subnet:   string(raw.Subnet),
		Category: category,
		Status:   status,
		Events:   eventLogs,
	}
	body, err := json.Marshal(processed)
	if err != nil {
		return errors.Wrap(err, "marshaling processed call")
	}
	return errors.Wrap(e.bus.Publish(ctx, ProcessedCallSubject, body), "publishing processed call")
}

func determineCurrencyAndValue(network chain.Network, valueWei *big.Int, hasTokenTransferLog bool) (string, string) {
	if valueWei.Sign() > 0 {
		native := weiToNative(valueWei)
		return chain.NativeCurrency(network), fmt.Sprintf("%.6f %s", native, chain.NativeCurrency(network))
	}
	if hasTokenTransferLog {
		return "TOKEN", "UNKNOWN TOKEN"
	}
	return "NONE", "0"
}

var weiPerEther = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

func weiToNative(wei *big.Int) float64 {
	f := new(big.Float).SetInt(wei)
	f.Quo(f, weiPerEther)
	v, _ := f.Float64()
	return v
}

func partitionForAddress(base types.PartitionKey, address string) types.PartitionKey {
	p := base
	p.AddressPrefix = types.AddressPrefix(address)
	return p
}

func (e *Enricher) requestAbiDecode(ctx context.Context, raw types.RawTransaction, selector string) error {
	to := ""
	if raw.To != nil {
		to = *raw.To
	}
	req := struct {
		TxHash          string `json:"tx_hash"`
		Network         string `json:"network"`
		Subnet          string `json:"subnet"`
		ContractAddress string `json:"contract_address"`
		FunctionSelector string `json:"function_selector"`
		InputData       string `json:"input_data"`
	}{
		TxHash:           raw.TransactionHash,
		Network:          string(raw.Network),
		Subnet:           string(raw.Subnet),
		ContractAddress:  types.NormalizeAddress(to),
		FunctionSelector: selector,
		InputData:        raw.InputData,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "marshaling abi decode request")
	}
	return errors.Wrap(e.bus.Publish(ctx, AbiDecodeRequestSubject, body), "publishing abi decode request")
}

func (e *Enricher) publish(ctx context.Context, network chain.Network, subnet chain.Subnet, rec types.EnrichedRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshaling enriched record")
	}
	subject := fmt.Sprintf("ducklake.%s.%s.%s.write", rec.Table, network, subnet)
	return errors.Wrap(e.bus.Publish(ctx, subject, body), "publishing enriched record")
}
