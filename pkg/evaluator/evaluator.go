// Package evaluator implements the alert evaluator stage (§4.10): it resolves
// an EvaluationJob's datasources into an EvaluationFrame, applies enrichments
// and the condition tree, and emits a MatchBatch.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/web3ekko/ekko-streams/internal/alerttypes"
	"github.com/web3ekko/ekko-streams/pkg/bus"
	"github.com/web3ekko/ekko-streams/pkg/kv"
)

const (
	defaultMaxRows              = 10_000
	defaultMaxColumns           = 256
	defaultMaxDecodedFrameBytes = 8 << 20
	defaultMaxConditionNodes    = 64
	defaultMaxExpressionDepth   = 12
)

// TriggeredSubject builds alerts.triggered.{instance} (§6.1). Production
// wiring subscribes per known instance; the in-memory bus used in tests
// matches literal subjects only, so there is no wildcard equivalent here
// (see DESIGN.md).
func TriggeredSubject(instanceID string) string {
	return fmt.Sprintf("alerts.triggered.%s", instanceID)
}

// Evaluator is the alert evaluation stage.
type Evaluator struct {
	log zerolog.Logger
	bus bus.Bus
	kv  kv.Store
	ds  *DatasourceRunner

	MaxRows              int
	MaxColumns           int
	MaxDecodedFrameBytes int
	MaxConditionNodes    int
	MaxExpressionDepth   int
}

// New builds an Evaluator against the columnar store db used to execute
// datasource queries.
func New(b bus.Bus, store kv.Store, runner *DatasourceRunner) *Evaluator {
	return &Evaluator{
		log:                  log.With().Str("component", "evaluator").Logger(),
		bus:                  b,
		kv:                   store,
		ds:                   runner,
		MaxRows:              defaultMaxRows,
		MaxColumns:           defaultMaxColumns,
		MaxDecodedFrameBytes: defaultMaxDecodedFrameBytes,
		MaxConditionNodes:    defaultMaxConditionNodes,
		MaxExpressionDepth:   defaultMaxExpressionDepth,
	}
}

// Subscribe attaches the evaluator to its priority-tiered work queue
// (alerts.jobs.create.{priority}), queue-grouped so multiple evaluator
// workers share the load.
func (e *Evaluator) Subscribe(ctx context.Context, priority string) (bus.Subscription, error) {
	subject := fmt.Sprintf("alerts.jobs.create.%s", priority)
	return e.bus.Subscribe(ctx, subject, "evaluator", func(ctx context.Context, msg bus.Message) {
		var job alerttypes.EvaluationJob
		if err := json.Unmarshal(msg.Body, &job); err != nil {
			e.log.Error().Err(err).Msg("decoding evaluation job")
			return
		}
		batch := e.Evaluate(ctx, job)
		body, err := json.Marshal(batch)
		if err != nil {
			e.log.Error().Err(err).Msg("marshaling match batch")
			return
		}
		if err := e.bus.Publish(ctx, TriggeredSubject(job.InstanceID), body); err != nil {
			e.log.Error().Err(err).Str("instance_id", job.InstanceID).Msg("publishing match batch")
		}
	})
}

// Evaluate runs the full §4.10 pipeline for one job, loading the pinned
// executable (falling back to the template) and producing a MatchBatch. It
// never returns an error: failures are carried as a typed EvalError inside
// the batch per I5.
func (e *Evaluator) Evaluate(ctx context.Context, job alerttypes.EvaluationJob) alerttypes.MatchBatch {
	start := time.Now()
	batch := alerttypes.MatchBatch{
		JobID:      job.JobID,
		RunID:      job.RunID,
		InstanceID: job.InstanceID,
		Partition:  job.Partition,
		Schedule:   job.Schedule,
		Trigger:    job.Trigger,
	}

	exec, err := e.loadExecutable(ctx, job)
	if err != nil {
		batch.Error = &alerttypes.EvalError{Kind: "invalid_template", Message: err.Error()}
		return batch
	}

	frame, err := e.buildFrame(ctx, job, exec)
	if err != nil {
		batch.Error = &alerttypes.EvalError{Kind: "schema_mismatch", Message: err.Error()}
		return batch
	}
	if err := e.validateFrame(frame, job.Targets.Keys); err != nil {
		kind := "schema_mismatch"
		if errors.Is(err, errPayloadTooLarge) {
			kind = "payload_too_large"
		}
		batch.Error = &alerttypes.EvalError{Kind: kind, Message: err.Error()}
		return batch
	}

	enrichStart := time.Now()
	if err := applyEnrichments(frame, exec.Enrichments, job.Variables); err != nil {
		batch.Error = &alerttypes.EvalError{Kind: "schema_mismatch", Message: err.Error()}
		return batch
	}
	enrichMs := time.Since(enrichStart).Milliseconds()

	condStart := time.Now()
	predicate, err := compileConditionSet(exec.Conditions, e.MaxConditionNodes, e.MaxExpressionDepth)
	if err != nil {
		batch.Error = &alerttypes.EvalError{Kind: "invalid_template", Message: err.Error()}
		return batch
	}

	matches, err := projectMatches(frame, predicate, exec.OutputFields, job.Variables)
	if err != nil {
		batch.Error = &alerttypes.EvalError{Kind: "schema_mismatch", Message: err.Error()}
		return batch
	}
	condMs := time.Since(condStart).Milliseconds()

	batch.Matches = matches
	batch.Timing = alerttypes.Timing{
		EnrichmentsMs: enrichMs,
		ConditionsMs:  condMs,
		TotalMs:       time.Since(start).Milliseconds(),
	}
	return batch
}

// loadExecutable loads the pinned AlertExecutable, falling back to the
// template when no compiled executable is cached, matching the scheduler's
// own executable-then-template fallback (§4.9 step 3).
func (e *Evaluator) loadExecutable(ctx context.Context, job alerttypes.EvaluationJob) (alerttypes.AlertExecutable, error) {
	var exec alerttypes.AlertExecutable
	err := kv.GetJSON(ctx, e.kv, alerttypes.ExecutableKey(job.TemplateID, job.TemplateVer), &exec)
	if err == nil {
		return exec, nil
	}
	if !errors.Is(err, kv.ErrNotFound) {
		return alerttypes.AlertExecutable{}, errors.Wrap(err, "loading pinned executable")
	}

	var tmpl alerttypes.AlertTemplate
	if err := kv.GetJSON(ctx, e.kv, alerttypes.TemplateKey(job.TemplateID, job.TemplateVer), &tmpl); err != nil {
		return alerttypes.AlertExecutable{}, errors.Wrap(err, "loading pinned template fallback")
	}
	return alerttypes.AlertExecutable{AlertTemplate: tmpl}, nil
}

// buildFrame assembles the initial frame: a target_key column seeded from
// the job's targets, joined with each datasource's result by target_key.
func (e *Evaluator) buildFrame(
	ctx context.Context, job alerttypes.EvaluationJob, exec alerttypes.AlertExecutable,
) (*alerttypes.EvaluationFrame, error) {
	frame := alerttypes.NewFrame(job.Targets.Keys)
	if e.ds == nil {
		return frame, nil
	}
	for _, ds := range exec.Datasources {
		cols, err := e.ds.Run(ctx, ds, job.Targets.Keys)
		if err != nil {
			return nil, errors.Wrapf(err, "running datasource %q", ds.ID)
		}
		for name, values := range cols {
			if err := frame.AddColumn(alerttypes.DatasourceColumnName(ds.ID, name), values); err != nil {
				return nil, err
			}
		}
	}
	return frame, nil
}

var errPayloadTooLarge = errors.New("payload_too_large")

// validateFrame enforces I3 (height/target_key alignment) and the §4.10 size
// bounds.
func (e *Evaluator) validateFrame(frame *alerttypes.EvaluationFrame, targets []alerttypes.TargetKey) error {
	if err := frame.ValidateAgainstTargets(targets); err != nil {
		return err
	}
	if len(frame.Columns) > e.MaxColumns {
		return errors.Wrapf(errPayloadTooLarge, "%d columns exceeds max_columns %d", len(frame.Columns), e.MaxColumns)
	}
	if frame.Height() > e.MaxRows {
		return errors.Wrapf(errPayloadTooLarge, "%d rows exceeds max_rows %d", frame.Height(), e.MaxRows)
	}
	raw, err := json.Marshal(frame.Columns)
	if err != nil {
		return errors.Wrap(err, "measuring frame size")
	}
	if len(raw) > e.MaxDecodedFrameBytes {
		return errors.Wrapf(errPayloadTooLarge, "%d bytes exceeds max_decoded_frame_bytes %d", len(raw), e.MaxDecodedFrameBytes)
	}
	return nil
}
