package main

import (
	"encoding/json"
	"flag"
	"os"
	"path"
	"strings"

	"github.com/omeid/uconfig"
	"github.com/omeid/uconfig/plugins"
	"github.com/omeid/uconfig/plugins/file"
	"github.com/rs/zerolog/log"

	"github.com/web3ekko/ekko-streams/internal/chain"
)

// configFilename is the filename of the config file automatically loaded.
var configFilename = "config.json"

type config struct {
	Dir string // This will default to "", NOT the default dir value set via the flag package

	Bus       BusConfig
	Columnar  ColumnarConfig
	Health    HealthConfig
	Telemetry TelemetryPublisherConfig

	Metrics struct {
		Port string `default:"9090"`
	}
	Log struct {
		Human bool `default:"false"`
		Debug bool `default:"false"`
	}

	Chains []ChainConfig
}

// BusConfig contains connection settings for the NATS message bus and its
// JetStream-backed key-value store (§6.1, §6.2).
type BusConfig struct {
	URL               string `default:"nats://127.0.0.1:4222"`
	RequestTimeout    string `default:"5s"`
	KVBucket          string `default:"ekko_streams"`
	KVBucketReplicas  int    `default:"1"`
}

// ColumnarConfig contains the DuckDB columnar table store location (§4.8).
type ColumnarConfig struct {
	DBPath string `default:"${HOME}/.ekko-streams/columnar.duckdb"`
}

// HealthConfig contains configuration for the §6.6 health-probe HTTP server.
type HealthConfig struct {
	Port string `default:"8081"`
}

// TelemetryPublisherConfig mirrors the teacher's telemetry module, pointed
// at this pipeline's own metrics hub instead of Tableland's.
type TelemetryPublisherConfig struct {
	Enabled            bool   `default:"false"`
	DBPath             string `default:"${HOME}/.ekko-streams/telemetry.duckdb"`
	MetricsHubURL      string `default:""`
	NodeID             string `default:""`
	PublishingInterval string `default:"10s"`
	FetchAmount        int    `default:"100"`

	ChainStackCollectFrequency string `default:"15m"`
}

// ChainConfig describes one (network, subnet) this process subscribes to
// and the RPC node config it seeds into the KV store at startup.
type ChainConfig struct {
	Network chain.Network `default:""`
	Subnet  chain.Subnet  `default:""`
	VMType  chain.VMType  `default:"evm"`
	RPCURL  string        `default:""`
	Enabled bool          `default:"true"`

	// Stages this process runs for the chain. Horizontally-scaled
	// deployments may run, say, only fetcher+logingestor on one instance
	// and evaluator+notifier on another, sharing state through KV/bus.
	Stages ChainStages
}

// ChainStages toggles which pipeline stages this process runs for a chain.
type ChainStages struct {
	Fetcher         bool `default:"true"`
	LogIngestor     bool `default:"true"`
	Classifier      bool `default:"true"`
	TransferEnrich  bool `default:"true"`
	DeploymentEnrich bool `default:"true"`
	CallEnrich      bool `default:"true"`
	AbiDecoder      bool `default:"true"`
	ColumnarWriter  bool `default:"true"`
}

func setupConfig() (*config, string) {
	flagDirPath := flag.String("dir", "${HOME}/.ekko-streams", "Directory where the configuration exists")
	flag.Parse()
	if flagDirPath == nil {
		log.Fatal().Msg("--dir is null")
		return nil, "" // Helping the linter know the next line is safe.
	}
	dirPath := os.ExpandEnv(*flagDirPath)

	_ = os.MkdirAll(dirPath, 0o755)

	var confPlugins []plugins.Plugin
	fullPath := path.Join(dirPath, configFilename)
	configFileBytes, err := os.ReadFile(fullPath)
	if os.IsNotExist(err) {
		log.Info().Str("config_file_path", fullPath).Msg("config file not found")
	} else if err != nil {
		log.Fatal().Str("config_file_path", fullPath).Err(err).Msg("opening config file")
	} else {
		fileStr := os.ExpandEnv(string(configFileBytes))
		confPlugins = append(confPlugins, file.NewReader(strings.NewReader(fileStr), json.Unmarshal))
	}

	conf := &config{}
	c, err := uconfig.Classic(&conf, file.Files{}, confPlugins...)
	if err != nil {
		c.Usage()
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	return conf, dirPath
}
