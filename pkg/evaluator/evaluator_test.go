package evaluator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/web3ekko/ekko-streams/internal/alerttypes"
	"github.com/web3ekko/ekko-streams/pkg/bus"
	"github.com/web3ekko/ekko-streams/pkg/evaluator"
	"github.com/web3ekko/ekko-streams/pkg/kv"
)

func num(n float64) alerttypes.Expr { return alerttypes.LitNum(n) }
func col(ref string) alerttypes.Expr { return alerttypes.Lit(ref) }

func baseJob(targets ...alerttypes.TargetKey) alerttypes.EvaluationJob {
	return alerttypes.EvaluationJob{
		JobID:       "job-1",
		RunID:       "run-1",
		InstanceID:  "inst-1",
		TemplateID:  "tmpl-1",
		TemplateVer: 1,
		Targets:     alerttypes.JobTargets{Mode: alerttypes.TargetModeLiteral, Keys: targets},
		Variables:   map[string]interface{}{},
	}
}

func putTemplate(t *testing.T, store kv.Store, tmpl alerttypes.AlertTemplate) {
	t.Helper()
	body, err := kv.MarshalJSON(tmpl)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), alerttypes.TemplateKey(tmpl.ID, tmpl.Version), body))
}

func TestEvaluateFiltersByCondition(t *testing.T) {
	store := kv.NewMemoryStore()
	ev := evaluator.New(bus.NewInMemoryBus(), store, nil)

	tmpl := alerttypes.AlertTemplate{
		ID:      "tmpl-1",
		Version: 1,
		Enrichments: []alerttypes.Enrichment{
			{Name: "doubled", Expr: alerttypes.Node(alerttypes.OpMul, col("{{factor}}"), num(2))},
		},
		Conditions: alerttypes.ConditionSet{
			All: []alerttypes.Condition{{Op: alerttypes.OpGt, Left: col("$.enrichment.doubled"), Right: num(1)}},
		},
		OutputFields: []alerttypes.OutputField{{Ref: "$.enrichment.doubled"}},
	}
	putTemplate(t, store, tmpl)

	job := baseJob("ethereum:mainnet:0xAAA", "ethereum:mainnet:0xBBB")
	job.Variables["factor"] = 1.0

	batch := ev.Evaluate(context.Background(), job)
	require.Nil(t, batch.Error)
	require.Len(t, batch.Matches, 2)
	for _, m := range batch.Matches {
		require.Equal(t, 2.0, m.MatchContext["doubled"])
	}
}

func TestEvaluateConditionExcludesNonMatchingRows(t *testing.T) {
	store := kv.NewMemoryStore()
	ev := evaluator.New(bus.NewInMemoryBus(), store, nil)

	tmpl := alerttypes.AlertTemplate{
		ID:      "tmpl-1",
		Version: 1,
		Enrichments: []alerttypes.Enrichment{
			{Name: "threshold", Expr: col("{{threshold}}")},
		},
		Conditions: alerttypes.ConditionSet{
			All: []alerttypes.Condition{{
				Op:    alerttypes.OpEq,
				Left:  col("$.target_key"),
				Right: col("{{wanted}}"),
			}},
		},
		OutputFields: []alerttypes.OutputField{{Ref: "$.enrichment.threshold", Alias: "t"}},
	}
	putTemplate(t, store, tmpl)

	job := baseJob("ethereum:mainnet:0xAAA", "ethereum:mainnet:0xBBB")
	job.Variables["threshold"] = 1.0
	job.Variables["wanted"] = "ethereum:mainnet:0xAAA"

	batch := ev.Evaluate(context.Background(), job)
	require.Nil(t, batch.Error)
	require.Len(t, batch.Matches, 1)
	require.Equal(t, alerttypes.TargetKey("ethereum:mainnet:0xAAA"), batch.Matches[0].TargetKey)
}

func TestEvaluateMissingTemplateProducesTypedError(t *testing.T) {
	store := kv.NewMemoryStore()
	ev := evaluator.New(bus.NewInMemoryBus(), store, nil)

	job := baseJob("ethereum:mainnet:0xAAA")
	batch := ev.Evaluate(context.Background(), job)

	require.NotNil(t, batch.Error)
	require.Empty(t, batch.Matches)
}

func TestEvaluateUndefinedEnrichmentReferenceFails(t *testing.T) {
	store := kv.NewMemoryStore()
	ev := evaluator.New(bus.NewInMemoryBus(), store, nil)

	tmpl := alerttypes.AlertTemplate{
		ID:      "tmpl-1",
		Version: 1,
		Enrichments: []alerttypes.Enrichment{
			{Name: "bad", Expr: col("$.enrichment.not_yet_defined")},
		},
	}
	putTemplate(t, store, tmpl)

	job := baseJob("ethereum:mainnet:0xAAA")
	batch := ev.Evaluate(context.Background(), job)

	require.NotNil(t, batch.Error)
	require.Equal(t, "schema_mismatch", batch.Error.Kind)
}
