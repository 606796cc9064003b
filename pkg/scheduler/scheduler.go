// Package scheduler implements the three alert scheduling intake surfaces
// (§4.9): periodic and one-time cadence ticks driven by the caller, and an
// event-driven surface fed by candidate target keys from the transfer
// enricher and log ingestor.
package scheduler

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/web3ekko/ekko-streams/internal/alerttypes"
	"github.com/web3ekko/ekko-streams/internal/chain"
	"github.com/web3ekko/ekko-streams/pkg/bus"
	"github.com/web3ekko/ekko-streams/pkg/kv"
)

// EventDrivenSubject is the only scheduling intake surface named as a bus
// subject in §6.1; periodic and one-time ticks have no subject and reach the
// scheduler through direct calls to HandlePeriodic/HandleOneTime. The
// Scheduler has no clock of its own; the caller drives the cadence.
const EventDrivenSubject = "alerts.schedule.event_driven"

const (
	defaultMicroBatchSize     = 200
	defaultEventJobTargetsCap = 500
	dedupeTTL                 = 10 * time.Minute
)

// urlNS is URL_NS from §4.9's uuidv5 derivation.
var urlNS = uuid.NameSpaceURL

// JobsCreateSubject builds alerts.jobs.create.{priority}.
func JobsCreateSubject(priority string) string {
	if priority == "" {
		priority = "normal"
	}
	return fmt.Sprintf("alerts.jobs.create.%s", priority)
}

// Tick is one cadence firing for an instance: the caller's ticker loop rounds
// wall-clock time down to the instance's cadence and supplies a RequestID
// that is stable across redelivery of the same tick.
type Tick struct {
	RequestID    string `json:"request_id"`
	InstanceID   string `json:"instance_id"`
	ScheduledFor int64  `json:"scheduled_for"`
}

// EventRequest is one arrival on EventDrivenSubject: a triggering tx or log
// plus the candidate target keys extracted from it.
type EventRequest struct {
	Kind       alerttypes.EventKind   `json:"kind"`
	Network    string                 `json:"network"`
	Subnet     string                 `json:"subnet"`
	ChainID    int64                  `json:"chain_id"`
	Candidates []alerttypes.TargetKey `json:"candidates"`
	Tx         *alerttypes.EvmTxV1    `json:"tx,omitempty"`
	Log        *alerttypes.EvmLogV1   `json:"log,omitempty"`
}

// Scheduler is the alert scheduling stage.
type Scheduler struct {
	log zerolog.Logger
	bus bus.Bus
	kv  kv.Store

	MicroBatchSize     int
	EventJobTargetsCap int
}

// New builds a Scheduler.
func New(b bus.Bus, store kv.Store) *Scheduler {
	return &Scheduler{
		log:                log.With().Str("component", "scheduler").Logger(),
		bus:                b,
		kv:                 store,
		MicroBatchSize:     defaultMicroBatchSize,
		EventJobTargetsCap: defaultEventJobTargetsCap,
	}
}

// Subscribe attaches the scheduler to its bus-driven intake surface
// (event-driven only; periodic/one-time are called directly by a cadence
// driver).
func (s *Scheduler) Subscribe(ctx context.Context) (bus.Subscription, error) {
	return s.bus.Subscribe(ctx, EventDrivenSubject, "scheduler", func(ctx context.Context, msg bus.Message) {
		var req EventRequest
		if err := json.Unmarshal(msg.Body, &req); err != nil {
			s.log.Error().Err(err).Msg("decoding event-driven schedule request")
			return
		}
		if err := s.HandleEventDriven(ctx, req); err != nil {
			s.log.Error().Err(err).Msg("event-driven scheduling failed")
		}
	})
}

func dedupeKey(requestID string) string {
	return fmt.Sprintf("alerts:schedule:dedupe:%s", requestID)
}

func oneTimeFiredKey(instanceID string) string {
	return fmt.Sprintf("alerts:one_time:fired:%s", instanceID)
}

func groupMembersKey(group string) string {
	return fmt.Sprintf("alerts:targets:group_members:%s", group)
}

func eventIdxTargetInstancesKey(key alerttypes.TargetKey) string {
	return fmt.Sprintf("alerts:event_idx:target_instances:%s", key)
}

func eventIdxTargetGroupsKey(key alerttypes.TargetKey) string {
	return fmt.Sprintf("alerts:event_idx:target_groups:%s", key)
}

func eventIdxGroupInstancesKey(group string) string {
	return fmt.Sprintf("alerts:event_idx:group_instances:%s", group)
}

// HandlePeriodic implements §4.9's periodic intake surface.
func (s *Scheduler) HandlePeriodic(ctx context.Context, tick Tick) error {
	ok, err := s.kv.SetIfAbsent(ctx, dedupeKey(tick.RequestID), []byte("1"), dedupeTTL)
	if err != nil {
		return errors.Wrap(err, "setting schedule dedupe marker")
	}
	if !ok {
		return nil
	}
	return s.schedule(ctx, alerttypes.TriggerPeriodic, tick)
}

// HandleOneTime implements §4.9's one-time intake surface: identical to
// periodic, except a permanent marker makes every later firing a no-op.
func (s *Scheduler) HandleOneTime(ctx context.Context, tick Tick) error {
	fired, err := s.kv.Exists(ctx, oneTimeFiredKey(tick.InstanceID))
	if err != nil {
		return errors.Wrap(err, "checking one-time fired marker")
	}
	if fired {
		return nil
	}
	ok, err := s.kv.SetIfAbsent(ctx, dedupeKey(tick.RequestID), []byte("1"), dedupeTTL)
	if err != nil {
		return errors.Wrap(err, "setting schedule dedupe marker")
	}
	if !ok {
		return nil
	}
	if err := s.schedule(ctx, alerttypes.TriggerOneTime, tick); err != nil {
		return err
	}
	return errors.Wrap(s.kv.Set(ctx, oneTimeFiredKey(tick.InstanceID), []byte("1")), "setting one-time fired marker")
}

func (s *Scheduler) schedule(ctx context.Context, trigger alerttypes.TriggerType, tick Tick) error {
	var inst alerttypes.AlertInstance
	if err := kv.GetJSON(ctx, s.kv, alerttypes.InstanceKey(tick.InstanceID), &inst); err != nil {
		return errors.Wrap(err, "loading instance snapshot")
	}
	if !inst.Enabled {
		return nil
	}

	targets, err := s.resolveTargets(ctx, inst.Targets)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}

	sched := alerttypes.NewSchedule(tick.ScheduledFor, inst.Trigger.DataLagSecs)

	for _, group := range partitionTargets(targets) {
		if !inst.Trigger.AllowsNetwork(group.partition.String()) {
			continue
		}
		runID := scheduledRunID(trigger, inst.InstanceID, group.partition.Network, group.partition.Subnet, tick.ScheduledFor, tick.RequestID)
		for _, chunk := range chunkTargets(group.keys, s.MicroBatchSize) {
			job := alerttypes.EvaluationJob{
				RunID:       runID,
				JobID:       jobID(runID, inst.InstanceID, chunk),
				Priority:    inst.Priority,
				TriggerType: trigger,
				InstanceID:  inst.InstanceID,
				TemplateID:  inst.TemplateID,
				TemplateVer: inst.TemplateVersion,
				Partition:   group.partition,
				Targets:     alerttypes.JobTargets{Mode: alerttypes.TargetModeLiteral, Keys: chunk},
				Variables:   inst.Variables,
				Schedule:    &sched,
			}
			if err := s.publishJob(ctx, job); err != nil {
				return err
			}
		}
	}
	return nil
}

// HandleEventDriven implements §4.9's event-driven intake surface.
func (s *Scheduler) HandleEventDriven(ctx context.Context, req EventRequest) error {
	instanceTargets := map[string]map[alerttypes.TargetKey]bool{}

	for _, key := range req.Candidates {
		directs, err := s.kv.SMembers(ctx, eventIdxTargetInstancesKey(key))
		if err != nil {
			return errors.Wrap(err, "reading target instance index")
		}
		for _, id := range directs {
			addCandidate(instanceTargets, id, key)
		}

		groups, err := s.kv.SMembers(ctx, eventIdxTargetGroupsKey(key))
		if err != nil {
			return errors.Wrap(err, "reading target group index")
		}
		for _, group := range groups {
			groupInstances, err := s.kv.SMembers(ctx, eventIdxGroupInstancesKey(group))
			if err != nil {
				return errors.Wrap(err, "reading group instance index")
			}
			for _, id := range groupInstances {
				addCandidate(instanceTargets, id, key)
			}
		}
	}

	instanceIDs := make([]string, 0, len(instanceTargets))
	for id := range instanceTargets {
		instanceIDs = append(instanceIDs, id)
	}
	sort.Strings(instanceIDs)

	for _, instanceID := range instanceIDs {
		if err := s.scheduleEventInstance(ctx, req, instanceID, instanceTargets[instanceID]); err != nil {
			s.log.Error().Err(err).Str("instance_id", instanceID).Msg("event-driven scheduling for instance failed")
		}
	}
	return nil
}

func addCandidate(m map[string]map[alerttypes.TargetKey]bool, instanceID string, key alerttypes.TargetKey) {
	set, ok := m[instanceID]
	if !ok {
		set = map[alerttypes.TargetKey]bool{}
		m[instanceID] = set
	}
	set[key] = true
}

func (s *Scheduler) scheduleEventInstance(
	ctx context.Context, req EventRequest, instanceID string, keySet map[alerttypes.TargetKey]bool,
) error {
	var inst alerttypes.AlertInstance
	if err := kv.GetJSON(ctx, s.kv, alerttypes.InstanceKey(instanceID), &inst); err != nil {
		return errors.Wrap(err, "loading instance snapshot")
	}
	if !inst.Enabled || inst.Trigger.Type != alerttypes.TriggerEventDriven {
		return nil
	}
	partitionStr := fmt.Sprintf("%s:%s", strings.ToUpper(req.Network), req.Subnet)
	if !inst.Trigger.AllowsNetwork(partitionStr) {
		return nil
	}

	trig, err := s.loadTrigger(ctx, inst)
	if err != nil {
		return err
	}

	keys := make([]alerttypes.TargetKey, 0, len(keySet))
	for k := range keySet {
		if passesPruning(trig, req) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	hash, logIndex := req.triggerIdentity()
	runID := eventRunID(req.Kind, req.ChainID, hash, logIndex)

	var evalTx *alerttypes.EvaluationTxV1
	switch req.Kind {
	case alerttypes.EventKindTx:
		evalTx = &alerttypes.EvaluationTxV1{Kind: alerttypes.EventKindTx, Tx: req.Tx}
	case alerttypes.EventKindLog:
		evalTx = &alerttypes.EvaluationTxV1{Kind: alerttypes.EventKindLog, Log: req.Log}
	}
	sched := alerttypes.NewSchedule(time.Now().Unix(), inst.Trigger.DataLagSecs)

	for _, chunk := range chunkTargets(keys, s.EventJobTargetsCap) {
		job := alerttypes.EvaluationJob{
			RunID:       runID,
			JobID:       jobID(runID, inst.InstanceID, chunk),
			Priority:    inst.Priority,
			TriggerType: alerttypes.TriggerEventDriven,
			InstanceID:  inst.InstanceID,
			TemplateID:  inst.TemplateID,
			TemplateVer: inst.TemplateVersion,
			Partition:   alerttypes.Partition{Network: req.Network, Subnet: req.Subnet, ChainID: req.ChainID},
			Targets:     alerttypes.JobTargets{Mode: alerttypes.TargetModeLiteral, Keys: chunk},
			Variables:   inst.Variables,
			Trigger:     evalTx,
			Schedule:    &sched,
		}
		if err := s.publishJob(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

// loadTrigger attempts the pinned executable first, falling back to the
// pinned template if the executable isn't cached (§4.9 step 3).
func (s *Scheduler) loadTrigger(ctx context.Context, inst alerttypes.AlertInstance) (alerttypes.Trigger, error) {
	var exec alerttypes.AlertExecutable
	err := kv.GetJSON(ctx, s.kv, alerttypes.ExecutableKey(inst.TemplateID, inst.TemplateVersion), &exec)
	if err == nil {
		return exec.Trigger, nil
	}
	if !errors.Is(err, kv.ErrNotFound) {
		return alerttypes.Trigger{}, errors.Wrap(err, "loading pinned executable")
	}

	var tmpl alerttypes.AlertTemplate
	if err := kv.GetJSON(ctx, s.kv, alerttypes.TemplateKey(inst.TemplateID, inst.TemplateVersion), &tmpl); err != nil {
		return alerttypes.Trigger{}, errors.Wrap(err, "loading pinned template fallback")
	}
	return tmpl.Trigger, nil
}

// passesPruning applies §4.9 step 3's trigger pruning block.
func passesPruning(trig alerttypes.Trigger, req EventRequest) bool {
	if len(trig.ChainIDAllowList) > 0 && !containsInt64(trig.ChainIDAllowList, req.ChainID) {
		return false
	}
	switch req.Kind {
	case alerttypes.EventKindTx:
		if req.Tx == nil {
			return true
		}
		if len(trig.ToAnyOf) > 0 && !containsFold(trig.ToAnyOf, req.Tx.To) {
			return false
		}
		if len(trig.MethodSelectors) > 0 && !containsFold(trig.MethodSelectors, req.Tx.MethodSelector) {
			return false
		}
	case alerttypes.EventKindLog:
		if req.Log == nil {
			return true
		}
		if len(trig.EventTopic0s) > 0 && !containsFold(trig.EventTopic0s, req.Log.Topic0) {
			return false
		}
	}
	return true
}

func containsInt64(list []int64, v int64) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func containsFold(list []string, v string) bool {
	for _, x := range list {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}

// triggerIdentity returns the hash (and, for logs, the log index) the
// run_id derivation hashes over.
func (r EventRequest) triggerIdentity() (string, *uint64) {
	if r.Kind == alerttypes.EventKindLog && r.Log != nil {
		li := r.Log.LogIndex
		return r.Log.TxHash, &li
	}
	if r.Tx != nil {
		return r.Tx.Hash, nil
	}
	return "", nil
}

func (s *Scheduler) resolveTargets(ctx context.Context, sel alerttypes.TargetSelector) ([]alerttypes.TargetKey, error) {
	switch sel.Mode {
	case alerttypes.TargetModeLiteral:
		return sel.Keys, nil
	case alerttypes.TargetModeGroup:
		members, err := s.kv.SMembers(ctx, groupMembersKey(sel.Group))
		if err != nil {
			return nil, errors.Wrap(err, "resolving target group")
		}
		keys := make([]alerttypes.TargetKey, len(members))
		for i, m := range members {
			keys[i] = alerttypes.TargetKey(m)
		}
		return keys, nil
	default:
		return nil, errors.Errorf("unknown target selector mode %q", sel.Mode)
	}
}

type partitionGroup struct {
	partition alerttypes.Partition
	keys      []alerttypes.TargetKey
}

// partitionTargets splits keys by (network, subnet, chain_id), since a
// group's membership can span multiple chains (§4.9 "partitions keys by
// (network, subnet)"). Groups are returned sorted by partition string for
// deterministic job emission order.
func partitionTargets(targets []alerttypes.TargetKey) []partitionGroup {
	index := map[alerttypes.Partition]*partitionGroup{}
	var order []alerttypes.Partition
	for _, t := range targets {
		p := partitionFor(t)
		g, ok := index[p]
		if !ok {
			g = &partitionGroup{partition: p}
			index[p] = g
			order = append(order, p)
		}
		g.keys = append(g.keys, t)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].String() < order[j].String() })
	out := make([]partitionGroup, len(order))
	for i, p := range order {
		out[i] = *index[p]
	}
	return out
}

func partitionFor(key alerttypes.TargetKey) alerttypes.Partition {
	network, subnet, _ := splitTargetKey(key)
	chainID := chain.ResolveChainID(chain.Network(strings.ToLower(network)), chain.Subnet(subnet))
	return alerttypes.Partition{Network: network, Subnet: subnet, ChainID: int64(chainID)}
}

func splitTargetKey(key alerttypes.TargetKey) (network, subnet, address string) {
	parts := strings.SplitN(string(key), ":", 3)
	if len(parts) != 3 {
		return "", "", ""
	}
	return parts[0], parts[1], parts[2]
}

func chunkTargets(keys []alerttypes.TargetKey, size int) [][]alerttypes.TargetKey {
	if size <= 0 {
		size = defaultMicroBatchSize
	}
	var chunks [][]alerttypes.TargetKey
	for i := 0; i < len(keys); i += size {
		end := i + size
		if end > len(keys) {
			end = len(keys)
		}
		chunks = append(chunks, keys[i:end])
	}
	return chunks
}

func scheduledRunID(trigger alerttypes.TriggerType, instanceID, network, subnet string, scheduledFor int64, requestID string) string {
	name := fmt.Sprintf("scheduled:%s:%s:%s:%s:%d:%s", trigger, instanceID, network, subnet, scheduledFor, requestID)
	return uuid.NewSHA1(urlNS, []byte(name)).String()
}

func eventRunID(kind alerttypes.EventKind, chainID int64, hash string, logIndex *uint64) string {
	var name string
	if kind == alerttypes.EventKindLog && logIndex != nil {
		name = fmt.Sprintf("evm:log:%d:%s:%d", chainID, hash, *logIndex)
	} else {
		name = fmt.Sprintf("evm:tx:%d:%s", chainID, hash)
	}
	return uuid.NewSHA1(urlNS, []byte(name)).String()
}

func jobID(runID, instanceID string, targets []alerttypes.TargetKey) string {
	joined := make([]string, len(targets))
	for i, t := range targets {
		joined[i] = string(t)
	}
	sum := sha256.Sum256([]byte(runID + instanceID + strings.Join(joined, ",")))
	return uuid.NewSHA1(urlNS, sum[:]).String()
}

func (s *Scheduler) publishJob(ctx context.Context, job alerttypes.EvaluationJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, "marshaling evaluation job")
	}
	return errors.Wrap(s.bus.Publish(ctx, JobsCreateSubject(job.Priority), body), "publishing evaluation job")
}
