package telemetry

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/web3ekko/ekko-streams/internal/chain"
)

// MetricType defines the metric type.
type MetricType int

const (
	// StateHashType is the type for the StateHashMetric.
	StateHashType MetricType = iota
	// GitSummaryType is the type for the GitSummaryMetric.
	GitSummaryType
	// ChainStacksSummaryType is the type for the ChainStacksMetric.
	ChainStacksSummaryType
	// ReadQueryType keeps its numeric slot; no metric struct maps to it.
	ReadQueryType
	// NewBlockType is the type for the NewBlockMetric.
	NewBlockType
	// NewLogType is the type for the NewLogMetric.
	NewLogType
	// DatasourceQueryType is the type for the DatasourceQueryMetric.
	DatasourceQueryType
)

// Metric defines a metric.
type Metric struct {
	RowID     int64       `json:"-"`
	Version   int         `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MetricType  `json:"type"`
	Payload   interface{} `json:"payload"`
}

// Serialize serializes the metric.
func (m Metric) Serialize() ([]byte, error) {
	b, err := json.Marshal(m.Payload)
	if err != nil {
		return []byte(nil), errors.Errorf("marshal: %s", err)
	}

	return b, nil
}

// StateHashMetricVersion is a type for versioning StateHash metrics.
type StateHashMetricVersion int64

// StateHashMetricV1 is the V1 version of StateHash metric.
const StateHashMetricV1 StateHashMetricVersion = iota

// StateHashMetric defines a state hash metric.
type StateHashMetric struct {
	Version StateHashMetricVersion `json:"version"`

	ChainID     int64  `json:"chain_id"`
	BlockNumber int64  `json:"block_number"`
	Hash        string `json:"hash"`
}

// GitSummaryMetricVersion is a type for versioning GitSummary metrics.
type GitSummaryMetricVersion int64

// GitSummaryMetricV1 is the V1 version of GitSummary metric.
const GitSummaryMetricV1 GitSummaryMetricVersion = iota

// GitSummaryMetric contains Git information of the binary.
type GitSummaryMetric struct {
	Version GitSummaryMetricVersion `json:"version"`

	GitCommit     string `json:"git_commit"`
	GitBranch     string `json:"git_branch"`
	GitState      string `json:"git_state"`
	GitSummary    string `json:"git_summary"`
	BuildDate     string `json:"build_date"`
	BinaryVersion string `json:"binary_version"`
}

// ChainStacksMetricVersion is a type for versioning ChainStacks metrics.
type ChainStacksMetricVersion int64

// ChainStacksMetricV1 is the V1 version of ChainStacks metric.
const ChainStacksMetricV1 ChainStacksMetricVersion = iota

// ChainStacksMetric contains the last processed block number per chain
// stage (fetcher or log ingestor), keyed by "{network}_{subnet}".
type ChainStacksMetric struct {
	Version ChainStacksMetricVersion `json:"version"`

	LastProcessedBlockNumbers map[string]uint64 `json:"last_processed_block_number"`
}

// DatasourceQueryMetricVersion is a type for versioning DatasourceQuery metrics.
type DatasourceQueryMetricVersion int64

// DatasourceQueryMetricV1 is the V1 version of DatasourceQuery metric.
const DatasourceQueryMetricV1 DatasourceQueryMetricVersion = iota

// DatasourceQueryMetric contains information about one evaluator datasource
// query executed against the columnar store (§4.10).
type DatasourceQueryMetric struct {
	Version DatasourceQueryMetricVersion `json:"version"`

	InstanceID   string `json:"instance_id"`
	DatasourceID string `json:"datasource_id"`
	SQLStatement string `json:"sql_statement"`
	RowCount     int    `json:"row_count"`
	TookMilli    int64  `json:"took_milli"`
}

// NewBlockMetricVersion is a type for versioning NewBlock metrics.
type NewBlockMetricVersion int64

// NewBlockMetricV1 is the V1 version of NewBlock metric.
const NewBlockMetricV1 NewBlockMetricVersion = iota

// NewBlockMetric contains information about a newly detected block.
type NewBlockMetric struct {
	Version NewBlockMetricVersion `json:"version"`

	Network            chain.Network `json:"network"`
	Subnet             chain.Subnet  `json:"subnet"`
	ChainID            chain.ChainID `json:"chain_id"`
	BlockNumber        uint64        `json:"block_number"`
	BlockTimestampUnix uint64        `json:"block_timestamp_unix"`
}

// NewLogMetricVersion is a type for versioning NewLog metrics.
type NewLogMetricVersion int64

// NewLogMetricV1 is the V1 version of NewLog metric.
const NewLogMetricV1 NewLogMetricVersion = iota

// NewLogMetric contains information about a newly ingested EVM log (§4.2).
type NewLogMetric struct {
	Version NewLogMetricVersion `json:"version"`

	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	BlockNumber uint64   `json:"block_number"`
	TxHash      string   `json:"tx_hash"`
	TxIndex     uint     `json:"tx_index"`
	BlockHash   string   `json:"block_hash"`
	Index       uint     `json:"index"`
	ChainID     chain.ChainID `json:"chain_id"`
}
