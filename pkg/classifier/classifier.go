// Package classifier implements the transaction classifier stage (§4.3): a
// total function of (to, input_data) that fans a RawTransaction out onto
// one of three typed subjects.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/web3ekko/ekko-streams/internal/types"
	"github.com/web3ekko/ekko-streams/pkg/bus"
)

var weiPerGwei = big.NewFloat(1e9)

// TransferSubject, DeploymentSubject, CallSubject build the per-variant
// subjects of §4.3.
func TransferSubject(network, subnet, vm string) string {
	return fmt.Sprintf("transfer-transactions.%s.%s.%s.raw", network, subnet, vm)
}

func DeploymentSubject(network, subnet, vm string) string {
	return fmt.Sprintf("contract-creations.%s.%s.%s.raw", network, subnet, vm)
}

func CallSubject(network, subnet, vm string) string {
	return fmt.Sprintf("contract-transactions.%s.%s.%s.raw", network, subnet, vm)
}

// DeploymentMirrorSubject is the mirrored subject deployments are also
// published to, so downstream enrichers subscribed to either pattern
// receive the event exactly once (§4.3).
func DeploymentMirrorSubject(network, subnet string) string {
	return fmt.Sprintf("blockchain.%s.%s.contracts.creation", network, subnet)
}

// Classifier is the tx classifier stage.
type Classifier struct {
	log zerolog.Logger
	bus bus.Bus
}

// New builds a Classifier.
func New(b bus.Bus) *Classifier {
	return &Classifier{log: log.With().Str("component", "classifier").Logger(), bus: b}
}

// Subscribe attaches the classifier to the raw-tx subject.
func (c *Classifier) Subscribe(ctx context.Context, subject string) (bus.Subscription, error) {
	return c.bus.Subscribe(ctx, subject, "classifier", func(ctx context.Context, msg bus.Message) {
		var raw types.RawTransaction
		if err := json.Unmarshal(msg.Body, &raw); err != nil {
			c.log.Error().Err(err).Msg("decoding raw transaction")
			return
		}
		if err := c.HandleRawTransaction(ctx, raw); err != nil {
			c.log.Error().Err(err).Str("tx_hash", raw.TransactionHash).Msg("classifying transaction failed")
		}
	})
}

// HandleRawTransaction classifies raw and publishes the typed variant.
func (c *Classifier) HandleRawTransaction(ctx context.Context, raw types.RawTransaction) error {
	kind := types.Classify(raw.To, raw.InputData)

	gasPriceWei, err := raw.ParsedGasPriceWei()
	if err != nil {
		return errors.Wrap(err, "parsing gas_price")
	}
	gasPriceGwei := weiToGwei(gasPriceWei)

	typed := types.TypedTransaction{
		Kind:         kind,
		Raw:          canonicalizeHex(raw),
		GasPriceGwei: gasPriceGwei,
		GasTier:      types.ClassifyGasTier(gasPriceGwei),
	}

	body, err := json.Marshal(typed)
	if err != nil {
		return errors.Wrap(err, "marshaling typed transaction")
	}

	vm := string(raw.VMType)
	if vm == "" {
		vm = "evm"
	}

	var subject string
	switch kind {
	case types.KindTransfer:
		subject = TransferSubject(string(raw.Network), string(raw.Subnet), vm)
	case types.KindDeployment:
		subject = DeploymentSubject(string(raw.Network), string(raw.Subnet), vm)
	case types.KindCall:
		subject = CallSubject(string(raw.Network), string(raw.Subnet), vm)
	default:
		subject = TransferSubject(string(raw.Network), string(raw.Subnet), vm)
	}
	if err := c.bus.Publish(ctx, subject, body); err != nil {
		return errors.Wrap(err, "publishing typed transaction")
	}

	if kind == types.KindDeployment {
		mirror := DeploymentMirrorSubject(string(raw.Network), string(raw.Subnet))
		if err := c.bus.Publish(ctx, mirror, body); err != nil {
			return errors.Wrap(err, "publishing deployment mirror")
		}
	}
	return nil
}

func weiToGwei(wei *big.Int) float64 {
	f := new(big.Float).SetInt(wei)
	f.Quo(f, weiPerGwei)
	gwei, _ := f.Float64()
	return gwei
}

func canonicalizeHex(raw types.RawTransaction) types.RawTransaction {
	if n, err := types.HexUint64(raw.NonceHex); err == nil {
		raw.NonceHex = types.CanonicalHexUint64(n)
	}
	if n, err := types.HexUint64(raw.GasLimitHex); err == nil {
		raw.GasLimitHex = types.CanonicalHexUint64(n)
	}
	if b, err := types.HexBigInt(raw.GasPriceHex); err == nil {
		raw.GasPriceHex = types.CanonicalHexBigInt(b)
	}
	if b, err := types.HexBigInt(raw.ValueHex); err == nil {
		raw.ValueHex = types.CanonicalHexBigInt(b)
	}
	return raw
}
