// Command healthbot is an external liveness watchdog (§6.6): unlike
// pkg/healthprobe (which reports this process's own KV/table-store
// connectivity), healthbot polls each configured chain's RPC endpoint
// directly and flags block-height stalls, independent of streamproc.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/web3ekko/ekko-streams/buildinfo"
	"github.com/web3ekko/ekko-streams/pkg/logging"
	"github.com/web3ekko/ekko-streams/pkg/metrics"
	"github.com/web3ekko/ekko-streams/pkg/rpcclient"
)

func main() {
	cfg := setupConfig()
	logging.SetupLogger(buildinfo.GitCommit, cfg.Log.Debug, cfg.Log.Human)
	if err := metrics.SetupInstrumentation(":"+cfg.Metrics.Port, "ekko-streams:healthbot"); err != nil {
		log.Fatal().Err(err).Str("port", cfg.Metrics.Port).Msg("could not setup instrumentation")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	client := rpcclient.NewHTTPClient(rpcclient.DefaultRetryConfig())

	var wg sync.WaitGroup
	for _, chainCfg := range cfg.Chains {
		checkInterval, err := time.ParseDuration(chainCfg.Probe.CheckInterval)
		if err != nil {
			log.Fatal().Err(err).Msgf("check interval has invalid format: %s", chainCfg.Probe.CheckInterval)
		}

		probe, err := NewBlockHeightProbe(
			chainCfg.Network,
			chainCfg.Subnet,
			chainCfg.RPCURL,
			checkInterval,
			chainCfg.Probe.StallAfter,
			client,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("initializing block height probe")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			probe.Run(ctx)
		}()
	}
	wg.Wait()
	log.Info().Msg("daemon closed")
}
