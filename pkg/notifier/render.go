package notifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/web3ekko/ekko-streams/internal/alerttypes"
)

// buildRenderContext builds the §4.11 step 2 object: instance metadata, partition,
// triggering tx, target key, variables, and flattened match_context, plus
// the vars.*/trigger.* backward-compatible aliases.
func buildRenderContext(inst alerttypes.AlertInstance, batch alerttypes.MatchBatch, match alerttypes.MatchV1) map[string]interface{} {
	ctx := map[string]interface{}{
		"instance_id": inst.InstanceID,
		"user_id":     inst.UserID,
		"template_id": inst.TemplateID,
		"run_id":      batch.RunID,
		"job_id":      batch.JobID,
		"partition": map[string]interface{}{
			"network":  batch.Partition.Network,
			"subnet":   batch.Partition.Subnet,
			"chain_id": batch.Partition.ChainID,
		},
		"target": map[string]interface{}{
			"key":   string(match.TargetKey),
			"short": match.TargetKey.Short(),
		},
	}

	vars := map[string]interface{}{}
	for k, v := range inst.Variables {
		vars[k] = v
	}
	ctx["variables"] = vars
	ctx["vars"] = vars

	for k, v := range match.MatchContext {
		ctx[k] = v
	}

	if batch.Trigger != nil {
		trigger := map[string]interface{}{"kind": string(batch.Trigger.Kind)}
		if batch.Trigger.Tx != nil {
			trigger["hash"] = batch.Trigger.Tx.Hash
			trigger["from"] = batch.Trigger.Tx.From
			trigger["to"] = batch.Trigger.Tx.To
			trigger["method_selector"] = batch.Trigger.Tx.MethodSelector
		}
		if batch.Trigger.Log != nil {
			trigger["tx_hash"] = batch.Trigger.Log.TxHash
			trigger["topic0"] = batch.Trigger.Log.Topic0
		}
		ctx["trigger"] = trigger
	}

	return ctx
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// render substitutes every "{{dotted.path}}" placeholder in tmpl with its
// lookup in ctx, rendering an empty string for any path that doesn't
// resolve (§4.10's "a match with a null variable still renders").
func render(tmpl string, ctx map[string]interface{}) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		path := placeholderPattern.FindStringSubmatch(m)[1]
		v, ok := lookupPath(ctx, path)
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprintf("%v", v)
	})
}

func lookupPath(ctx map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var cur interface{} = ctx
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

var hexAddressPattern = regexp.MustCompile(`0x[0-9a-fA-F]{40}`)

// shortenAddresses rewrites every bare 0x-prefixed 40-char hex address in s
// to its 0xAAAA…BBBB short form (§4.11 step 3c).
func shortenAddresses(s string) string {
	return hexAddressPattern.ReplaceAllStringFunc(s, func(addr string) string {
		return addr[:6] + "…" + addr[len(addr)-4:]
	})
}
