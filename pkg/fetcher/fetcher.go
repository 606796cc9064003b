// Package fetcher implements the block fetcher stage (§4.1): consumes
// BlockHeader messages and publishes one RawTransaction per transaction in
// the block.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/web3ekko/ekko-streams/internal/chain"
	"github.com/web3ekko/ekko-streams/internal/types"
	"github.com/web3ekko/ekko-streams/pkg/bus"
	"github.com/web3ekko/ekko-streams/pkg/kv"
	"github.com/web3ekko/ekko-streams/pkg/rpcclient"
)

// RawTxSubject is the single raw-tx subject every fetched transaction is
// published on (§6.1: transactions.raw.evm).
const RawTxSubject = "transactions.raw.evm"

// BlockHeadsSubject builds the per-(network,subnet) inbound subject.
func BlockHeadsSubject(network chain.Network, subnet chain.Subnet) string {
	return fmt.Sprintf("newheads.%s.%s.evm", network, subnet)
}

// ErrNetworkDisabled is the terminal error when a network's KV config is
// disabled or missing an RPC URL (§4.1).
var ErrNetworkDisabled = errors.New("network disabled or missing rpc_url")

// Fetcher is the block fetcher stage.
type Fetcher struct {
	log    zerolog.Logger
	bus    bus.Bus
	kv     kv.Store
	client rpcclient.Client
}

// New builds a Fetcher.
func New(b bus.Bus, store kv.Store, client rpcclient.Client) *Fetcher {
	return &Fetcher{
		log:    log.With().Str("component", "fetcher").Logger(),
		bus:    b,
		kv:     store,
		client: client,
	}
}

// Subscribe attaches the fetcher to the block-heads subject for (network,
// subnet), queue-grouped so horizontally-scaled instances share the load.
func (f *Fetcher) Subscribe(ctx context.Context, network chain.Network, subnet chain.Subnet) (bus.Subscription, error) {
	subject := BlockHeadsSubject(network, subnet)
	return f.bus.Subscribe(ctx, subject, "fetcher", func(ctx context.Context, msg bus.Message) {
		var header chain.BlockHeader
		if err := json.Unmarshal(msg.Body, &header); err != nil {
			f.log.Error().Err(err).Msg("decoding block header")
			return
		}
		if err := f.HandleHeader(ctx, header); err != nil {
			f.log.Error().Err(err).
				Uint64("block_number", header.BlockNumber).
				Str("block_hash", header.BlockHash).
				Msg("fetching block failed")
		}
	})
}

// HandleHeader fetches all transactions for header and publishes one
// RawTransaction per transaction, preserving in-block index order.
func (f *Fetcher) HandleHeader(ctx context.Context, header chain.BlockHeader) error {
	netCfg, err := loadNetworkConfig(ctx, f.kv, header.Network, header.Subnet)
	if err != nil {
		return err
	}

	result, err := f.client.GetBlockByHash(ctx, netCfg.RPCURL, header.BlockHash)
	if err != nil {
		return errors.Wrap(err, "get block by hash")
	}

	var block struct {
		Transactions []wireTransaction `json:"transactions"`
	}
	if err := json.Unmarshal(result, &block); err != nil {
		return errors.Wrap(rpcclient.ErrParse, "decoding block result")
	}

	for _, wtx := range block.Transactions {
		raw, err := wtx.toRawTransaction(header)
		if err != nil {
			f.log.Warn().Err(err).Str("tx_hash", wtx.Hash).Msg("skipping malformed transaction")
			continue
		}
		body, err := json.Marshal(raw)
		if err != nil {
			return errors.Wrap(err, "marshaling raw transaction")
		}
		if err := f.bus.Publish(ctx, RawTxSubject, body); err != nil {
			return errors.Wrap(err, "publishing raw transaction")
		}
	}
	return nil
}

func loadNetworkConfig(ctx context.Context, store kv.Store, network chain.Network, subnet chain.Subnet) (chain.NetworkConfig, error) {
	var cfg chain.NetworkConfig
	if err := kv.GetJSON(ctx, store, chain.KVKey(network, subnet), &cfg); err != nil {
		return chain.NetworkConfig{}, errors.Wrap(err, "loading network config")
	}
	if !cfg.Enabled || cfg.RPCURL == "" {
		return chain.NetworkConfig{}, ErrNetworkDisabled
	}
	return cfg, nil
}

// wireTransaction mirrors the JSON-RPC transaction shape: hex-encoded
// fields verbatim from the node.
type wireTransaction struct {
	Hash                 string  `json:"hash"`
	From                 string  `json:"from"`
	To                   *string `json:"to"`
	Value                string  `json:"value"`
	Gas                  string  `json:"gas"`
	GasPrice             string  `json:"gasPrice"`
	Input                string  `json:"input"`
	Nonce                string  `json:"nonce"`
	TransactionIndex     string  `json:"transactionIndex"`
	Type                 *string `json:"type,omitempty"`
	MaxFeePerGas         *string `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *string `json:"maxPriorityFeePerGas,omitempty"`
	V                    *string `json:"v,omitempty"`
	R                    *string `json:"r,omitempty"`
	S                    *string `json:"s,omitempty"`
}

func (w wireTransaction) toRawTransaction(header chain.BlockHeader) (types.RawTransaction, error) {
	txIndex, err := types.HexUint64(w.TransactionIndex)
	if err != nil {
		return types.RawTransaction{}, errors.Wrap(err, "parsing transactionIndex")
	}

	raw := types.RawTransaction{
		Network:          header.Network,
		Subnet:           header.Subnet,
		VMType:           header.VMType,
		ChainID:          header.ChainID,
		BlockNumber:      header.BlockNumber,
		BlockHash:        header.BlockHash,
		BlockTimestamp:   header.Timestamp,
		TransactionIndex: txIndex,
		TransactionHash:  types.NormalizeAddress(w.Hash),
		From:             types.NormalizeAddress(w.From),
		ValueHex:         w.Value,
		GasLimitHex:      w.Gas,
		GasPriceHex:      w.GasPrice,
		InputData:        w.Input,
		NonceHex:         w.Nonce,
		MaxFeePerGasHex:         w.MaxFeePerGas,
		MaxPriorityFeePerGasHex: w.MaxPriorityFeePerGas,
		V: w.V,
		R: w.R,
		S: w.S,
	}
	if w.To != nil {
		to := types.NormalizeAddress(*w.To)
		raw.To = &to
	}
	if w.Type != nil {
		n, err := strconv.ParseUint((*w.Type)[2:], 16, 8)
		if err == nil {
			t := uint8(n)
			raw.TransactionType = &t
		}
	}
	return raw, nil
}
