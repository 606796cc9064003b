package evaluator

import (
	"github.com/pkg/errors"

	"github.com/web3ekko/ekko-streams/internal/alerttypes"
)

// predicate is the compiled `and_all AND or_any AND not_disallowed` formula
// of §4.10 step 3.
type predicate struct {
	all []compiledExpr
	any []compiledExpr
	not []compiledExpr
}

// compileConditionSet compiles a ConditionSet's all/any/not branches.
func compileConditionSet(cs alerttypes.ConditionSet, maxNodes, maxDepth int) (predicate, error) {
	var p predicate
	var err error
	if p.all, err = compileConditions(cs.All, maxNodes, maxDepth); err != nil {
		return predicate{}, err
	}
	if p.any, err = compileConditions(cs.Any, maxNodes, maxDepth); err != nil {
		return predicate{}, err
	}
	if p.not, err = compileConditions(cs.Not, maxNodes, maxDepth); err != nil {
		return predicate{}, err
	}
	return p, nil
}

func compileConditions(conds []alerttypes.Condition, maxNodes, maxDepth int) ([]compiledExpr, error) {
	out := make([]compiledExpr, 0, len(conds))
	for _, c := range conds {
		compiled, err := compileExpr(conditionExpr(c), maxNodes, maxDepth)
		if err != nil {
			return nil, err
		}
		out = append(out, compiled)
	}
	return out, nil
}

// conditionExpr folds a Condition's (op, left, right) into a single Expr
// node, treating a zero-value Right as absent (a unary condition, e.g. Not).
func conditionExpr(c alerttypes.Condition) alerttypes.Expr {
	if isZeroExpr(c.Right) {
		return alerttypes.Node(c.Op, c.Left)
	}
	return alerttypes.Node(c.Op, c.Left, c.Right)
}

func isZeroExpr(e alerttypes.Expr) bool {
	return e.Op == "" && e.Str == nil && e.Num == nil && e.Bool == nil && len(e.Args) == 0
}

// eval runs the predicate against one row, treating any compile/runtime
// null outcome as false (§4.10 step 3 "null outcomes -> false").
func (p predicate) eval(row map[string]interface{}, vars map[string]interface{}) bool {
	andAll := true
	for _, e := range p.all {
		if !asBool(e.run(row, vars)) {
			andAll = false
			break
		}
	}

	orAny := true
	if len(p.any) > 0 {
		orAny = false
		for _, e := range p.any {
			if asBool(e.run(row, vars)) {
				orAny = true
				break
			}
		}
	}

	notDisallowed := true
	for _, e := range p.not {
		if asBool(e.run(row, vars)) {
			notDisallowed = false
			break
		}
	}

	return andAll && orAny && notDisallowed
}

func asBool(v interface{}, err error) bool {
	if err != nil || v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// projectMatches filters frame by predicate and projects the surviving rows
// into MatchV1 values per §4.10 steps 3-5.
func projectMatches(
	frame *alerttypes.EvaluationFrame, p predicate, fields []alerttypes.OutputField, vars map[string]interface{},
) ([]alerttypes.MatchV1, error) {
	targetCol, ok := frame.Column("target_key")
	if !ok {
		return nil, errors.Wrap(alerttypes.ErrSchemaMismatch, "missing target_key column")
	}

	resolved := make([]struct {
		column string
		alias  string
	}, len(fields))
	for i, f := range fields {
		col, ok := resolveColumnRef(f.Ref)
		if !ok {
			return nil, errors.Wrapf(alerttypes.ErrSchemaMismatch, "invalid output field ref %q", f.Ref)
		}
		if _, ok := frame.Column(col); !ok {
			return nil, errors.Wrapf(alerttypes.ErrSchemaMismatch, "output field ref %q resolves to missing column %q", f.Ref, col)
		}
		alias := f.Alias
		if alias == "" {
			alias = outputAlias(col)
		}
		resolved[i].column = col
		resolved[i].alias = alias
	}

	var matches []alerttypes.MatchV1
	for i := 0; i < frame.Height(); i++ {
		row, err := rowAt(frame, i)
		if err != nil {
			return nil, err
		}
		if !p.eval(row, vars) {
			continue
		}
		ctx := make(map[string]interface{}, len(resolved))
		for _, r := range resolved {
			ctx[r.alias] = row[r.column]
		}
		key, _ := targetCol.Values[i].(string)
		matches = append(matches, alerttypes.MatchV1{
			TargetKey:    alerttypes.TargetKey(key),
			MatchContext: ctx,
		})
	}
	return matches, nil
}
