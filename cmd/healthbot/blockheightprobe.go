package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	logger "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/global"
	"go.opentelemetry.io/otel/metric/instrument"

	"github.com/web3ekko/ekko-streams/pkg/metrics"
	"github.com/web3ekko/ekko-streams/pkg/rpcclient"
)

// BlockHeightProbe polls one chain's RPC endpoint for its current block
// height and flags the chain as stalled once the height stops advancing
// across StallAfter consecutive checks.
type BlockHeightProbe struct {
	network, subnet string
	rpcURL          string
	checkInterval   time.Duration
	stallAfter      int

	client rpcclient.Client
	log    zerolog.Logger

	mu              sync.Mutex
	mBaseLabels     []attribute.KeyValue
	lastHeight      uint64
	unchangedChecks int
	unhealthy       int64
}

// NewBlockHeightProbe returns a *BlockHeightProbe for the given chain.
func NewBlockHeightProbe(
	network, subnet, rpcURL string,
	checkInterval time.Duration,
	stallAfter int,
	client rpcclient.Client,
) (*BlockHeightProbe, error) {
	log := logger.With().
		Str("component", "healthbot").
		Str("network", network).
		Str("subnet", subnet).
		Logger()

	p := &BlockHeightProbe{
		network:       network,
		subnet:        subnet,
		rpcURL:        rpcURL,
		checkInterval: checkInterval,
		stallAfter:    stallAfter,
		client:        client,
		log:           log,
	}
	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("initializing metrics: %s", err)
	}
	return p, nil
}

// Run runs the probe until ctx is canceled.
func (p *BlockHeightProbe) Run(ctx context.Context) {
	p.log.Info().Msg("starting block height probe...")

	p.check(ctx)
	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("closing gracefully...")
			return
		case <-time.After(p.checkInterval):
			p.check(ctx)
		}
	}
}

func (p *BlockHeightProbe) check(ctx context.Context) {
	ctx, cls := context.WithTimeout(ctx, 15*time.Second)
	defer cls()

	height, err := p.client.GetBlockNumber(ctx, p.rpcURL)
	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.unhealthy = 1
		p.log.Error().Err(err).Msg("block number check failed")
		return
	}
	p.unhealthy = 0

	if height == p.lastHeight {
		p.unchangedChecks++
	} else {
		p.unchangedChecks = 0
	}
	p.lastHeight = height

	p.log.Info().
		Uint64("height", height).
		Int("unchanged_checks", p.unchangedChecks).
		Msg("check block height")
}

// stalled reports whether the chain has gone quiet. Caller must hold p.mu.
func (p *BlockHeightProbe) stalled() int64 {
	if p.unchangedChecks >= p.stallAfter {
		return 1
	}
	return 0
}

func (p *BlockHeightProbe) initMetrics() error {
	meter := global.MeterProvider().Meter("ekko-streams")
	p.mBaseLabels = append([]attribute.KeyValue{
		attribute.String("network", p.network),
		attribute.String("subnet", p.subnet),
	}, metrics.BaseAttrs...)

	mHeight, err := meter.Int64ObservableGauge("ekko.healthbot.rpc.block_height")
	if err != nil {
		return fmt.Errorf("creating block height metric: %s", err)
	}
	mUnhealthy, err := meter.Int64ObservableGauge("ekko.healthbot.rpc.unhealthy")
	if err != nil {
		return fmt.Errorf("creating rpc unhealthy metric: %s", err)
	}
	mStalled, err := meter.Int64ObservableGauge("ekko.healthbot.rpc.stalled")
	if err != nil {
		return fmt.Errorf("creating stalled metric: %s", err)
	}

	if _, err = meter.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			p.mu.Lock()
			defer p.mu.Unlock()
			o.ObserveInt64(mHeight, int64(p.lastHeight), p.mBaseLabels...)
			o.ObserveInt64(mUnhealthy, p.unhealthy, p.mBaseLabels...)
			o.ObserveInt64(mStalled, p.stalled(), p.mBaseLabels...)
			return nil
		}, []instrument.Asynchronous{
			mHeight,
			mUnhealthy,
			mStalled,
		}...); err != nil {
		return fmt.Errorf("registering async metric callback: %s", err)
	}

	return nil
}
