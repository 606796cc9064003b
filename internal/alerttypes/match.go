package alerttypes

// MatchV1 is a single surviving row from the evaluator's filter/project step.
type MatchV1 struct {
	TargetKey    TargetKey              `json:"target_key"`
	MatchContext map[string]interface{} `json:"match_context"`
}

// Timing carries the evaluator's per-stage latency counters, in
// milliseconds.
type Timing struct {
	EnrichmentsMs int64 `json:"enrichments_ms"`
	ConditionsMs  int64 `json:"conditions_ms"`
	TotalMs       int64 `json:"total_ms"`
}

// EvalError is the typed error an evaluator response carries when it could
// not produce a match batch (I5).
type EvalError struct {
	Kind    string `json:"kind"` // "schema_mismatch", "invalid_template", "payload_too_large"
	Message string `json:"message"`
}

// MatchBatch is the evaluator's per-job output (§3.1).
type MatchBatch struct {
	JobID      string          `json:"job_id"`
	RunID      string          `json:"run_id"`
	InstanceID string          `json:"instance_id"`
	Partition  Partition       `json:"partition"`
	Schedule   *ScheduleV1     `json:"schedule,omitempty"`
	Trigger    *EvaluationTxV1 `json:"trigger_event,omitempty"`
	Matches    []MatchV1       `json:"matches"`
	Timing     Timing          `json:"timing"`
	Error      *EvalError      `json:"error,omitempty"`
}

// Succeeded reports whether the batch carries a usable result, per I5: a
// match batch is only emitted when the evaluator succeeded.
func (m MatchBatch) Succeeded() bool {
	return m.Error == nil
}
