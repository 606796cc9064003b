package alerttypes

// Partition identifies the (network, subnet, chain_id) an EvaluationJob runs
// against.
type Partition struct {
	Network string `json:"network"`
	Subnet  string `json:"subnet"`
	ChainID int64  `json:"chain_id"`
}

// String renders "{network}:{subnet}", the form used by network allow-lists.
func (p Partition) String() string {
	return p.Network + ":" + p.Subnet
}

// ScheduleV1 carries the periodic/one-time schedule block (§3.1).
type ScheduleV1 struct {
	ScheduledFor   int64 `json:"scheduled_for"`   // unix seconds
	DataLagSecs    int64 `json:"data_lag_secs"`
	EffectiveAsOf  int64 `json:"effective_as_of"` // scheduled_for - data_lag_secs
}

// NewSchedule builds a ScheduleV1 enforcing effective_as_of's definition.
func NewSchedule(scheduledFor, dataLagSecs int64) ScheduleV1 {
	return ScheduleV1{
		ScheduledFor:  scheduledFor,
		DataLagSecs:   dataLagSecs,
		EffectiveAsOf: scheduledFor - dataLagSecs,
	}
}

// EventKind tags the sum type carried by an event-driven schedule request or
// job (§9): a Log event only carries log fields, a Tx event only carries tx
// fields.
type EventKind string

const (
	EventKindTx  EventKind = "Tx"
	EventKindLog EventKind = "Log"
)

// EvmTxV1 is the compact view of a triggering transaction carried by an
// event-driven job so the evaluator can render tx fields in the frame.
type EvmTxV1 struct {
	Hash           string `json:"hash"`
	From           string `json:"from"`
	To             string `json:"to,omitempty"`
	Input          string `json:"input,omitempty"`
	MethodSelector string `json:"method_selector,omitempty"`
	ValueWeiHex    string `json:"value,omitempty"`
	BlockNumber    uint64 `json:"block_number"`
	BlockTimestamp uint64 `json:"block_timestamp"`
}

// EvmLogV1 is the compact view of a triggering log.
type EvmLogV1 struct {
	Topic0      string `json:"topic0,omitempty"`
	Topic1      string `json:"topic1,omitempty"`
	Topic2      string `json:"topic2,omitempty"`
	Topic3      string `json:"topic3,omitempty"`
	Data        string `json:"data"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	BlockNumber uint64 `json:"block_number"`
	BlockTimestamp uint64 `json:"block_timestamp"`
}

// EvaluationTxV1 wraps whichever of Tx/Log triggered an event-driven job.
type EvaluationTxV1 struct {
	Kind EventKind `json:"kind"`
	Tx   *EvmTxV1  `json:"tx,omitempty"`
	Log  *EvmLogV1 `json:"log,omitempty"`
}

// JobTargets is the (mode, keys) pair carried by an EvaluationJob, bounded by
// the micro-batch cap at scheduling time.
type JobTargets struct {
	Mode TargetMode  `json:"mode"`
	Keys []TargetKey `json:"keys"`
}

// EvaluationJob is one scheduler output (§3.1).
type EvaluationJob struct {
	JobID        string                 `json:"job_id"`
	RunID        string                 `json:"run_id"`
	Priority     string                 `json:"priority"`
	Attempt      int                    `json:"attempt"`
	TriggerType  TriggerType            `json:"trigger_type"`
	InstanceID   string                 `json:"instance_id"`
	TemplateID   string                 `json:"template_id"`
	TemplateVer  int64                  `json:"template_version"`
	Partition    Partition              `json:"partition"`
	Targets      JobTargets             `json:"targets"`
	Variables    map[string]interface{} `json:"variables"`
	Trigger      *EvaluationTxV1        `json:"trigger_event,omitempty"`
	Schedule     *ScheduleV1            `json:"schedule,omitempty"`
}
