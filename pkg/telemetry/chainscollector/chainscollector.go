// Package chainscollector periodically snapshots the last block number each
// (network, subnet) pipeline has observed and publishes it as telemetry.
package chainscollector

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	logger "github.com/rs/zerolog/log"

	"github.com/web3ekko/ekko-streams/internal/chain"
	"github.com/web3ekko/ekko-streams/pkg/bus"
	"github.com/web3ekko/ekko-streams/pkg/telemetry"
)

// ChainsCollector tracks the last block number seen per (network, subnet)
// and periodically publishes a ChainStacksMetric snapshot.
type ChainsCollector struct {
	log              zerolog.Logger
	collectFrequency time.Duration

	mu            sync.Mutex
	lastBlockNums map[string]uint64
}

// New returns a new *ChainsCollector.
func New(collectFrequency time.Duration) (*ChainsCollector, error) {
	if collectFrequency <= time.Second {
		return nil, fmt.Errorf("collect frequency should be greater than one second")
	}
	return &ChainsCollector{
		log:              logger.With().Str("component", "chainscollector").Logger(),
		collectFrequency: collectFrequency,
		lastBlockNums:    map[string]uint64{},
	}, nil
}

// Record updates the last-seen block number for chainIDString ("{network}_{subnet}").
// Out-of-order headers (lower block number than already recorded) are ignored.
func (cc *ChainsCollector) Record(chainIDString string, blockNumber uint64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if blockNumber > cc.lastBlockNums[chainIDString] {
		cc.lastBlockNums[chainIDString] = blockNumber
	}
}

// Subscribe attaches the collector to the block-heads subject for (network,
// subnet) as its own (non-queue-grouped) subscription, so it observes every
// header independently of which fetcher/logingestor instance handles it.
func (cc *ChainsCollector) Subscribe(ctx context.Context, b bus.Bus, network chain.Network, subnet chain.Subnet) (bus.Subscription, error) {
	subject := fmt.Sprintf("newheads.%s.%s.evm", network, subnet)
	return b.Subscribe(ctx, subject, "", func(_ context.Context, msg bus.Message) {
		var header chain.BlockHeader
		if err := json.Unmarshal(msg.Body, &header); err != nil {
			cc.log.Error().Err(err).Msg("decoding block header")
			return
		}
		cc.Record(header.ChainIDString(), header.BlockNumber)
	})
}

// Start publishes chains stack telemetry metrics on collectFrequency until
// the context is canceled.
func (cc *ChainsCollector) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			cc.log.Info().Msg("gracefully closed")
			return
		case <-time.After(cc.collectFrequency):
			cc.mu.Lock()
			snapshot := make(map[string]uint64, len(cc.lastBlockNums))
			for k, v := range cc.lastBlockNums {
				snapshot[k] = v
			}
			cc.mu.Unlock()

			metric := telemetry.ChainStacksMetric{
				Version:                   telemetry.ChainStacksMetricV1,
				LastProcessedBlockNumbers: snapshot,
			}
			if err := telemetry.Collect(ctx, metric); err != nil {
				cc.log.Error().Err(err).Msg("collecting chain stack metric")
			}
		}
	}
}
