// Package transfer implements the transfer enricher (§4.4): turns a raw
// native-value transfer into transactions/address_transactions rows plus an
// event-driven schedule request.
package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/web3ekko/ekko-streams/internal/alerttypes"
	"github.com/web3ekko/ekko-streams/internal/chain"
	"github.com/web3ekko/ekko-streams/internal/types"
	"github.com/web3ekko/ekko-streams/pkg/bus"
)

// TransactionsTable, AddressTransactionsTable name the logical destination
// tables the columnar writer consumes (§4.8, §6).
const (
	TransactionsTable        = "transactions"
	AddressTransactionsTable = "address_transactions"
)

var weiPerEther = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// AmountTier bins a native-unit amount per §4.4.
type AmountTier string

const (
	AmountMicro  AmountTier = "Micro"
	AmountSmall  AmountTier = "Small"
	AmountMedium AmountTier = "Medium"
	AmountLarge  AmountTier = "Large"
	AmountWhale  AmountTier = "Whale"
)

// ClassifyAmountTier bins a native-unit amount into the §4.4 table.
func ClassifyAmountTier(amountNative float64) AmountTier {
	switch {
	case amountNative < 0.01:
		return AmountMicro
	case amountNative < 1:
		return AmountSmall
	case amountNative < 10:
		return AmountMedium
	case amountNative < 100:
		return AmountLarge
	default:
		return AmountWhale
	}
}

// Enricher is the transfer enricher stage.
type Enricher struct {
	log zerolog.Logger
	bus bus.Bus
}

// New builds an Enricher.
func New(b bus.Bus) *Enricher {
	return &Enricher{log: log.With().Str("component", "enrich.transfer").Logger(), bus: b}
}

// SubjectFor builds the transfer-variant inbound subject the classifier
// publishes on.
func SubjectFor(network, subnet, vm string) string {
	return fmt.Sprintf("transfer-transactions.%s.%s.%s.raw", network, subnet, vm)
}

// ScheduleEventSubject is the event-driven scheduler's intake subject.
const ScheduleEventSubject = "alerts.schedule.event_driven"

// Subscribe attaches the enricher to the given inbound subject.
func (e *Enricher) Subscribe(ctx context.Context, subject string) (bus.Subscription, error) {
	return e.bus.Subscribe(ctx, subject, "enrich-transfer", func(ctx context.Context, msg bus.Message) {
		var typed types.TypedTransaction
		if err := json.Unmarshal(msg.Body, &typed); err != nil {
			e.log.Error().Err(err).Msg("decoding typed transaction")
			return
		}
		if err := e.HandleTypedTransaction(ctx, typed); err != nil {
			e.log.Error().Err(err).Str("tx_hash", typed.Raw.TransactionHash).Msg("enriching transfer failed")
		}
	})
}

// HandleTypedTransaction implements the §4.4 steps.
func (e *Enricher) HandleTypedTransaction(ctx context.Context, typed types.TypedTransaction) error {
	raw := typed.Raw

	valueWei, err := raw.ParsedValueWei()
	if err != nil {
		return errors.Wrap(err, "parsing value")
	}
	amountNative := weiToNative(valueWei)
	amountTier := ClassifyAmountTier(amountNative)

	gasLimit, err := raw.ParsedGasLimit()
	if err != nil {
		return errors.Wrap(err, "parsing gas_limit")
	}
	gasPriceWei, err := raw.ParsedGasPriceWei()
	if err != nil {
		return errors.Wrap(err, "parsing gas_price")
	}
	feeWei := new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), gasPriceWei)
	feeNative := weiToNative(feeWei)

	chainID := chain.ResolveChainID(raw.Network, raw.Subnet)
	currency := chain.NativeCurrency(raw.Network)

	to := ""
	if raw.To != nil {
		to = *raw.To
	}
	decoded := types.NewNativeTransferDecoded(amountNative, currency, to)

	blockDate := types.BlockDate(raw.BlockTimestamp)
	shard := types.Shard(raw.TransactionHash, 64)
	partition := types.PartitionKey{
		ChainIDString: fmt.Sprintf("%s_%s", raw.Network, raw.Subnet),
		BlockDate:     blockDate,
		Shard:         shard,
	}

	txRecord := types.EnrichedRecord{
		Table:     TransactionsTable,
		Partition: partition,
		Fields: map[string]interface{}{
			"tx_hash":             raw.TransactionHash,
			"from":                raw.From,
			"to":                  raw.To,
			"value_wei":           valueWei.String(),
			"value_native":        amountNative,
			"amount_tier":         amountTier,
			"transaction_fee_wei": feeWei.String(),
			"transaction_fee":     feeNative,
			"transaction_type":    "TRANSFER",
			"transaction_subtype": "native",
			"decoding_status":     decoded.DecodingStatus,
			"summary":             decoded.Summary,
			"chain_id":            int64(chainID),
			"block_number":        raw.BlockNumber,
			"block_timestamp":     raw.BlockTimestamp,
			"gas_tier":            typed.GasTier,
		},
	}
	if err := e.publish(ctx, raw.Network, raw.Subnet, txRecord); err != nil {
		return err
	}

	for _, side := range []struct {
		address     string
		isSender    bool
		counterpart string
	}{
		{address: raw.From, isSender: true, counterpart: to},
		{address: to, isSender: false, counterpart: raw.From},
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
				"counterparty":    types.NormalizeAddress(side.counterpart),
				"value_native":    amountNative,
				"block_number":    raw.BlockNumber,
				"block_timestamp": raw.BlockTimestamp,
			},
		}
		if err := e.publish(ctx, raw.Network, raw.Subnet, row); err != nil {
			return err
		}
	}

	return e.emitSchedule(ctx, raw, typed)
}

func partitionForAddress(base types.PartitionKey, address string) types.PartitionKey {
	p := base
	p.AddressPrefix = types.AddressPrefix(address)
	return p
}

func (e *Enricher) publish(ctx context.Context, network chain.Network, subnet chain.Subnet, rec types.EnrichedRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshaling enriched record")
	}
	subject := fmt.Sprintf("ducklake.%s.%s.%s.write", rec.Table, network, subnet)
	return errors.Wrap(e.bus.Publish(ctx, subject, body), "publishing enriched record")
}

func (e *Enricher) emitSchedule(ctx context.Context, raw types.RawTransaction, typed types.TypedTransaction) error {
	var candidates []alerttypes.TargetKey
	if raw.From != "" {
		candidates = append(candidates, alerttypes.NewTargetKey(string(raw.Network), string(raw.Subnet), raw.From))
	}
	if raw.To != nil && *raw.To != "" {
		candidates = append(candidates, alerttypes.NewTargetKey(string(raw.Network), string(raw.Subnet), *raw.To))
	}
	if len(candidates) == 0 {
		return nil
	}

	evmTx := alerttypes.EvmTxV1{
		Hash:           raw.TransactionHash,
		From:           raw.From,
		Input:          raw.InputData,
		ValueWeiHex:    raw.ValueHex,
		BlockNumber:    raw.BlockNumber,
		BlockTimestamp: raw.BlockTimestamp,
	}
	if raw.To != nil {
		evmTx.To = *raw.To
	}
	if len(raw.InputData) >= 10 {
		evmTx.MethodSelector = raw.InputData[:10]
	}

	req := struct {
		Kind       alerttypes.EventKind   `json:"kind"`
		Network    string                 `json:"network"`
		Subnet     string                 `json:"subnet"`
		Candidates []alerttypes.TargetKey `json:"candidates"`
		Tx         alerttypes.EvmTxV1     `json:"tx"`
	}{
		Kind:       alerttypes.EventKindTx,
		Network:    string(raw.Network),
		Subnet:     string(raw.Subnet),
		Candidates: candidates,
		Tx:         evmTx,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "marshaling schedule request")
	}
	return errors.Wrap(e.bus.Publish(ctx, ScheduleEventSubject, body), "publishing schedule request")
}

func weiToNative(wei *big.Int) float64 {
	f := new(big.Float).SetInt(wei)
	f.Quo(f, weiPerEther)
	v, _ := f.Float64()
	return v
}
