package scheduler_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/web3ekko/ekko-streams/internal/alerttypes"
	"github.com/web3ekko/ekko-streams/pkg/bus"
	"github.com/web3ekko/ekko-streams/pkg/kv"
	"github.com/web3ekko/ekko-streams/pkg/scheduler"
)

func putJSON(t *testing.T, store kv.Store, key string, v interface{}) {
	t.Helper()
	body, err := kv.MarshalJSON(v)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), key, body))
}

func TestHandlePeriodicEmitsOneJobPerPartition(t *testing.T) {
	b := bus.NewInMemoryBus()
	store := kv.NewMemoryStore()

	inst := alerttypes.AlertInstance{
		InstanceID: "inst-1",
		Enabled:    true,
		TemplateID: "tmpl-1",
		Priority:   "normal",
		Targets: alerttypes.TargetSelector{
			Mode: alerttypes.TargetModeLiteral,
			Keys: []alerttypes.TargetKey{
				alerttypes.NewTargetKey("ethereum", "mainnet", "0xAAA"),
				alerttypes.NewTargetKey("polygon", "mainnet", "0xBBB"),
			},
		},
		Trigger: alerttypes.InstanceTriggerConfig{Type: alerttypes.TriggerPeriodic},
	}
	putJSON(t, store, alerttypes.InstanceKey("inst-1"), inst)

	var jobs []alerttypes.EvaluationJob
	_, err := b.Subscribe(context.Background(), scheduler.JobsCreateSubject("normal"), "", func(_ context.Context, m bus.Message) {
		var job alerttypes.EvaluationJob
		require.NoError(t, json.Unmarshal(m.Body, &job))
		jobs = append(jobs, job)
	})
	require.NoError(t, err)

	sch := scheduler.New(b, store)
	tick := scheduler.Tick{RequestID: "req-1", InstanceID: "inst-1", ScheduledFor: 1_700_000_000}
	require.NoError(t, sch.HandlePeriodic(context.Background(), tick))

	require.Len(t, jobs, 2)
	require.NotEqual(t, jobs[0].RunID, jobs[1].RunID)
	for _, j := range jobs {
		require.Equal(t, "inst-1", j.InstanceID)
		require.Equal(t, alerttypes.TriggerPeriodic, j.TriggerType)
		require.NotEmpty(t, j.JobID)
		require.Len(t, j.Targets.Keys, 1)
	}
}

func TestHandlePeriodicDedupeSuppressesRedelivery(t *testing.T) {
	b := bus.NewInMemoryBus()
	store := kv.NewMemoryStore()

	inst := alerttypes.AlertInstance{
		InstanceID: "inst-1",
		Enabled:    true,
		Targets: alerttypes.TargetSelector{
			Mode: alerttypes.TargetModeLiteral,
			Keys: []alerttypes.TargetKey{alerttypes.NewTargetKey("ethereum", "mainnet", "0xAAA")},
		},
	}
	putJSON(t, store, alerttypes.InstanceKey("inst-1"), inst)

	var count int
	_, err := b.Subscribe(context.Background(), scheduler.JobsCreateSubject("normal"), "", func(_ context.Context, m bus.Message) {
		count++
	})
	require.NoError(t, err)

	sch := scheduler.New(b, store)
	tick := scheduler.Tick{RequestID: "req-1", InstanceID: "inst-1", ScheduledFor: 1_700_000_000}
	require.NoError(t, sch.HandlePeriodic(context.Background(), tick))
	require.NoError(t, sch.HandlePeriodic(context.Background(), tick))
	require.Equal(t, 1, count)
}

func TestHandleOneTimeFiresOnceForever(t *testing.T) {
	b := bus.NewInMemoryBus()
	store := kv.NewMemoryStore()

	inst := alerttypes.AlertInstance{
		InstanceID: "inst-1",
		Enabled:    true,
		Targets: alerttypes.TargetSelector{
			Mode: alerttypes.TargetModeLiteral,
			Keys: []alerttypes.TargetKey{alerttypes.NewTargetKey("ethereum", "mainnet", "0xAAA")},
		},
	}
	putJSON(t, store, alerttypes.InstanceKey("inst-1"), inst)

	var count int
	_, err := b.Subscribe(context.Background(), scheduler.JobsCreateSubject("normal"), "", func(_ context.Context, m bus.Message) {
		count++
	})
	require.NoError(t, err)

	sch := scheduler.New(b, store)
	require.NoError(t, sch.HandleOneTime(context.Background(), scheduler.Tick{RequestID: "r1", InstanceID: "inst-1", ScheduledFor: 1}))
	require.NoError(t, sch.HandleOneTime(context.Background(), scheduler.Tick{RequestID: "r2", InstanceID: "inst-1", ScheduledFor: 2}))
	require.Equal(t, 1, count)
}

func TestHandleEventDrivenPrunesByMethodSelector(t *testing.T) {
	b := bus.NewInMemoryBus()
	store := kv.NewMemoryStore()

	target := alerttypes.NewTargetKey("ethereum", "mainnet", "0xAAA")
	require.NoError(t, store.SAdd(context.Background(), "alerts:event_idx:target_instances:"+string(target), "inst-1"))

	inst := alerttypes.AlertInstance{
		InstanceID: "inst-1",
		Enabled:    true,
		TemplateID: "tmpl-1",
		Priority:   "high",
		Trigger:    alerttypes.InstanceTriggerConfig{Type: alerttypes.TriggerEventDriven},
	}
	putJSON(t, store, alerttypes.InstanceKey("inst-1"), inst)

	tmpl := alerttypes.AlertTemplate{
		ID:      "tmpl-1",
		Version: 1,
		Trigger: alerttypes.Trigger{MethodSelectors: []string{"0xa9059cbb"}},
	}
	putJSON(t, store, alerttypes.TemplateKey("tmpl-1", 0), tmpl)

	var jobs []alerttypes.EvaluationJob
	_, err := b.Subscribe(context.Background(), scheduler.JobsCreateSubject("high"), "", func(_ context.Context, m bus.Message) {
		var job alerttypes.EvaluationJob
		require.NoError(t, json.Unmarshal(m.Body, &job))
		jobs = append(jobs, job)
	})
	require.NoError(t, err)

	sch := scheduler.New(b, store)

	matching := scheduler.EventRequest{
		Kind:       alerttypes.EventKindTx,
		Network:    "ethereum",
		Subnet:     "mainnet",
		ChainID:    1,
		Candidates: []alerttypes.TargetKey{target},
		Tx:         &alerttypes.EvmTxV1{Hash: "0xtx1", MethodSelector: "0xa9059cbb"},
	}
	require.NoError(t, sch.HandleEventDriven(context.Background(), matching))
	require.Len(t, jobs, 1)
	require.Equal(t, alerttypes.TriggerEventDriven, jobs[0].TriggerType)
	require.Equal(t, alerttypes.EventKindTx, jobs[0].Trigger.Kind)

	nonMatching := scheduler.EventRequest{
		Kind:       alerttypes.EventKindTx,
		Network:    "ethereum",
		Subnet:     "mainnet",
		ChainID:    1,
		Candidates: []alerttypes.TargetKey{target},
		Tx:         &alerttypes.EvmTxV1{Hash: "0xtx2", MethodSelector: "0xdeadbeef"},
	}
	require.NoError(t, sch.HandleEventDriven(context.Background(), nonMatching))
	require.Len(t, jobs, 1, "pruned candidate must not produce a second job")
}
