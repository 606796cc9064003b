package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/textileio/cli"

	"github.com/web3ekko/ekko-streams/buildinfo"
	"github.com/web3ekko/ekko-streams/internal/chain"
	"github.com/web3ekko/ekko-streams/pkg/abidecoder"
	"github.com/web3ekko/ekko-streams/pkg/bus"
	"github.com/web3ekko/ekko-streams/pkg/classifier"
	"github.com/web3ekko/ekko-streams/pkg/columnar"
	"github.com/web3ekko/ekko-streams/pkg/enrich/call"
	"github.com/web3ekko/ekko-streams/pkg/enrich/deployment"
	"github.com/web3ekko/ekko-streams/pkg/enrich/transfer"
	"github.com/web3ekko/ekko-streams/pkg/evaluator"
	"github.com/web3ekko/ekko-streams/pkg/fetcher"
	"github.com/web3ekko/ekko-streams/pkg/healthprobe"
	"github.com/web3ekko/ekko-streams/pkg/kv"
	"github.com/web3ekko/ekko-streams/pkg/logingestor"
	"github.com/web3ekko/ekko-streams/pkg/logging"
	"github.com/web3ekko/ekko-streams/pkg/metrics"
	"github.com/web3ekko/ekko-streams/pkg/notifier"
	"github.com/web3ekko/ekko-streams/pkg/rpcclient"
	"github.com/web3ekko/ekko-streams/pkg/scheduler"
	"github.com/web3ekko/ekko-streams/pkg/telemetry"
	"github.com/web3ekko/ekko-streams/pkg/telemetry/chainscollector"
	"github.com/web3ekko/ekko-streams/pkg/telemetry/publisher"
	telemetrystorage "github.com/web3ekko/ekko-streams/pkg/telemetry/storage"
)

type moduleCloser func(ctx context.Context) error

var closerNoop = func(context.Context) error { return nil }

// priorities is the fixed set of evaluator/scheduler priority tiers the
// process subscribes to (§4.9, §4.11).
var priorities = []string{"high", "normal", "low"}

func main() {
	config, _ := setupConfig()

	logging.SetupLogger(buildinfo.GitCommit, config.Log.Debug, config.Log.Human)

	if err := metrics.SetupInstrumentation(":"+config.Metrics.Port, "ekko-streams:streamproc"); err != nil {
		log.Fatal().Err(err).Str("port", config.Metrics.Port).Msg("could not setup instrumentation")
	}

	requestTimeout, err := time.ParseDuration(config.Bus.RequestTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing bus request timeout")
	}
	natsBus, err := bus.NewNatsBus(config.Bus.URL, requestTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to nats bus")
	}

	store, closeKV, err := setupKV(natsBus, config.Bus)
	if err != nil {
		log.Fatal().Err(err).Msg("setting up kv store")
	}

	if err := seedChainConfigs(context.Background(), store, config.Chains); err != nil {
		log.Fatal().Err(err).Msg("seeding chain configs")
	}

	db, err := columnar.Open(config.Columnar.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening columnar store")
	}

	closeWriter, err := wireColumnarWriter(context.Background(), natsBus, db, config.Chains)
	if err != nil {
		log.Fatal().Err(err).Msg("wiring columnar writer")
	}

	client := rpcclient.NewHTTPClient(rpcclient.DefaultRetryConfig())

	chainsCollector, err := chainscollector.New(parseDurationOr(config.Telemetry.ChainStackCollectFrequency, 15*time.Minute))
	if err != nil {
		log.Fatal().Err(err).Msg("creating chains collector")
	}
	collectorCtx, cancelCollector := context.WithCancel(context.Background())
	go chainsCollector.Start(collectorCtx)

	if err := wireChainStages(context.Background(), natsBus, store, client, chainsCollector, config.Chains); err != nil {
		log.Fatal().Err(err).Msg("wiring per-chain stages")
	}

	closeEvaluator, err := wireEvaluator(context.Background(), natsBus, store, db)
	if err != nil {
		log.Fatal().Err(err).Msg("wiring evaluator")
	}

	notifyRouter := notifier.New(natsBus, store)
	if _, err := notifyRouter.SubscribeAll(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("subscribing notification router")
	}

	closeTelemetry, err := configureTelemetry(config.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("configuring telemetry")
	}

	healthSrv := healthprobe.New(store, db)
	go func() {
		if err := healthSrv.Serve(":" + config.Health.Port); err != nil {
			log.Error().Err(err).Msg("health probe server stopped")
		}
	}()

	cli.HandleInterrupt(func() {
		cancelCollector()

		ctx, cls := context.WithTimeout(context.Background(), 10*time.Second)
		defer cls()
		if err := closeWriter(ctx); err != nil {
			log.Error().Err(err).Msg("closing columnar writer")
		}
		if err := closeEvaluator(ctx); err != nil {
			log.Error().Err(err).Msg("closing evaluator resources")
		}
		if err := closeTelemetry(ctx); err != nil {
			log.Error().Err(err).Msg("closing telemetry module")
		}
		if err := closeKV(ctx); err != nil {
			log.Error().Err(err).Msg("closing kv store")
		}
		if err := natsBus.Close(ctx); err != nil {
			log.Error().Err(err).Msg("closing nats bus")
		}
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("closing columnar db")
		}
	})
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// setupKV binds (creating if absent) the JetStream key-value bucket used
// for all pipeline state (§6.2).
func setupKV(natsBus *bus.NatsBus, cfg BusConfig) (kv.Store, moduleCloser, error) {
	js, err := natsBus.Conn().JetStream()
	if err != nil {
		return nil, nil, fmt.Errorf("opening jetstream context: %s", err)
	}
	bucket, err := js.KeyValue(cfg.KVBucket)
	if err != nil {
		bucket, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:   cfg.KVBucket,
			Replicas: cfg.KVBucketReplicas,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("creating kv bucket: %s", err)
		}
	}
	return kv.NewNatsKV(bucket), closerNoop, nil
}

// seedChainConfigs writes each configured chain's RPC endpoint into KV at
// startup, so fetcher/log-ingestor's loadNetworkConfig calls resolve.
func seedChainConfigs(ctx context.Context, store kv.Store, chains []ChainConfig) error {
	for _, c := range chains {
		if !c.Enabled {
			continue
		}
		netCfg := chain.NetworkConfig{RPCURL: c.RPCURL, Enabled: c.Enabled}
		raw, err := kv.MarshalJSON(netCfg)
		if err != nil {
			return fmt.Errorf("marshaling config for %s/%s: %s", c.Network, c.Subnet, err)
		}
		if err := store.Set(ctx, chain.KVKey(c.Network, c.Subnet), raw); err != nil {
			return fmt.Errorf("seeding config for %s/%s: %s", c.Network, c.Subnet, err)
		}
	}
	return nil
}

// chainTables is every logical table the columnar writer owns that's keyed
// by a real (network, subnet) rather than the fixed "ekko/default" pseudo-
// chain used for cross-chain tables like notifications (§4.8).
var chainTables = []string{"transactions", "address_transactions", "logs", "contract_calls"}

// pseudoChainTables are written under a fixed network/subnet pair shared by
// every chain, since their rows aren't scoped to one blockchain.
var pseudoChainTables = []string{"notifications", "notification_content"}

const pseudoNetwork, pseudoSubnet = "ekko", "default"

// wireColumnarWriter starts the writer and subscribes it to every table it
// owns for every configured (network, subnet), plus the fixed pseudo-chain
// tables.
func wireColumnarWriter(ctx context.Context, b bus.Bus, db *sql.DB, chains []ChainConfig) (moduleCloser, error) {
	w := columnar.New(b, db)

	for _, c := range chains {
		if !c.Enabled || !c.Stages.ColumnarWriter {
			continue
		}
		for _, table := range chainTables {
			if _, err := w.Subscribe(ctx, table, string(c.Network), string(c.Subnet)); err != nil {
				return nil, fmt.Errorf("subscribing writer to %s/%s/%s: %s", table, c.Network, c.Subnet, err)
			}
		}
	}
	for _, table := range pseudoChainTables {
		if _, err := w.Subscribe(ctx, table, pseudoNetwork, pseudoSubnet); err != nil {
			return nil, fmt.Errorf("subscribing writer to %s: %s", table, err)
		}
	}

	return w.Close, nil
}

// wireChainStages subscribes the abi decoder and the classifier once, the
// fetcher, log ingestor and enrichers for each enabled chain, and attaches
// the chains collector to each chain's block-heads subject for telemetry.
func wireChainStages(
	ctx context.Context,
	b bus.Bus,
	store kv.Store,
	client rpcclient.Client,
	collector *chainscollector.ChainsCollector,
	chains []ChainConfig,
) error {
	f := fetcher.New(b, store, client)
	ing := logingestor.New(b, store, client)
	cls := classifier.New(b)
	transferEnricher := transfer.New(b)
	deploymentEnricher := deployment.New(b)
	callEnricher := call.New(b)
	decoder := abidecoder.New(b, store)

	if _, err := decoder.Subscribe(ctx); err != nil {
		return fmt.Errorf("subscribing abi decoder: %s", err)
	}

	classifierWired := false
	for _, c := range chains {
		if !c.Enabled {
			continue
		}
		if c.Stages.Fetcher {
			if _, err := f.Subscribe(ctx, c.Network, c.Subnet); err != nil {
				return fmt.Errorf("subscribing fetcher %s/%s: %s", c.Network, c.Subnet, err)
			}
		}
		if c.Stages.LogIngestor {
			if _, err := ing.Subscribe(ctx, c.Network, c.Subnet); err != nil {
				return fmt.Errorf("subscribing log ingestor %s/%s: %s", c.Network, c.Subnet, err)
			}
		}
		if _, err := collector.Subscribe(ctx, b, c.Network, c.Subnet); err != nil {
			return fmt.Errorf("subscribing chains collector %s/%s: %s", c.Network, c.Subnet, err)
		}

		// The raw-tx subject is chain-agnostic, so the classifier (unlike
		// the per-chain enrichers below) only needs a single subscription.
		if c.Stages.Classifier && !classifierWired {
			if _, err := cls.Subscribe(ctx, fetcher.RawTxSubject); err != nil {
				return fmt.Errorf("subscribing classifier: %s", err)
			}
			classifierWired = true
		}

		vm := string(c.VMType)
		if c.Stages.TransferEnrich {
			if _, err := transferEnricher.Subscribe(ctx, transfer.SubjectFor(string(c.Network), string(c.Subnet), vm)); err != nil {
				return fmt.Errorf("subscribing transfer enricher %s/%s: %s", c.Network, c.Subnet, err)
			}
		}
		if c.Stages.DeploymentEnrich {
			if _, err := deploymentEnricher.Subscribe(ctx, classifier.DeploymentSubject(string(c.Network), string(c.Subnet), vm)); err != nil {
				return fmt.Errorf("subscribing deployment enricher %s/%s: %s", c.Network, c.Subnet, err)
			}
		}
		if c.Stages.CallEnrich {
			if _, err := callEnricher.Subscribe(ctx, classifier.CallSubject(string(c.Network), string(c.Subnet), vm)); err != nil {
				return fmt.Errorf("subscribing call enricher %s/%s: %s", c.Network, c.Subnet, err)
			}
		}
	}
	return nil
}

// wireEvaluator wires the scheduler and evaluator, one subscription per
// priority tier (§4.9, §4.11).
func wireEvaluator(ctx context.Context, b bus.Bus, store kv.Store, db *sql.DB) (moduleCloser, error) {
	sched := scheduler.New(b, store)
	if _, err := sched.Subscribe(ctx); err != nil {
		return nil, fmt.Errorf("subscribing scheduler: %s", err)
	}

	runner := evaluator.NewDatasourceRunner(db, store)
	eval := evaluator.New(b, store, runner)
	for _, priority := range priorities {
		if _, err := eval.Subscribe(ctx, priority); err != nil {
			return nil, fmt.Errorf("subscribing evaluator priority %q: %s", priority, err)
		}
	}
	return closerNoop, nil
}

// configureTelemetry wires the telemetry store and, if enabled, starts the
// publisher exporting to the configured metrics hub.
func configureTelemetry(cfg TelemetryPublisherConfig) (moduleCloser, error) {
	store, err := telemetrystorage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening telemetry store: %s", err)
	}
	telemetry.SetMetricStore(store)

	if !cfg.Enabled {
		return func(context.Context) error { return store.Close() }, nil
	}

	exporter, err := publisher.NewHTTPExporter(cfg.MetricsHubURL, cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("creating telemetry exporter: %s", err)
	}
	interval := parseDurationOr(cfg.PublishingInterval, 10*time.Second)
	pub := publisher.NewPublisher(store, exporter, interval, cfg.FetchAmount)
	pub.Start()

	return func(context.Context) error {
		pub.Stop()
		return store.Close()
	}, nil
}
