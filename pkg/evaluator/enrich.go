package evaluator

import (
	"github.com/pkg/errors"

	"github.com/web3ekko/ekko-streams/internal/alerttypes"
)

// applyEnrichments compiles and runs each enrichment in declared order,
// appending an "enrichment__{name}" column to frame. It enforces the I4
// forward-reference rule: an enrichment's expr may not reference
// "$.enrichment.{name}" for a name not yet computed.
func applyEnrichments(frame *alerttypes.EvaluationFrame, enrichments []alerttypes.Enrichment, vars map[string]interface{}) error {
	defined := map[string]bool{}
	for _, en := range enrichments {
		if err := checkForwardRefs(en.Expr, defined); err != nil {
			return err
		}
		compiled, err := compileExpr(en.Expr, defaultMaxConditionNodes, defaultMaxExpressionDepth)
		if err != nil {
			return errors.Wrapf(err, "compiling enrichment %q", en.Name)
		}

		values := make([]interface{}, frame.Height())
		for i := 0; i < frame.Height(); i++ {
			row, err := rowAt(frame, i)
			if err != nil {
				return err
			}
			out, err := compiled.run(row, vars)
			if err != nil {
				values[i] = nil
				continue
			}
			values[i] = out
		}
		if err := frame.AddColumn(alerttypes.EnrichmentColumnName(en.Name), values); err != nil {
			return err
		}
		defined[en.Name] = true
	}
	return nil
}

// checkForwardRefs walks e looking for "$.enrichment.{name}" literals that
// reference a not-yet-defined enrichment.
func checkForwardRefs(e alerttypes.Expr, defined map[string]bool) error {
	if !e.IsNode() {
		if e.Str == nil {
			return nil
		}
		col, ok := resolveColumnRef(*e.Str)
		if !ok {
			return nil
		}
		const prefix = "enrichment__"
		if len(col) > len(prefix) && col[:len(prefix)] == prefix {
			name := col[len(prefix):]
			if !defined[name] {
				return errors.Wrapf(alerttypes.ErrSchemaMismatch, "enrichment references undefined enrichment %q", name)
			}
		}
		return nil
	}
	for _, arg := range e.Args {
		if err := checkForwardRefs(arg, defined); err != nil {
			return err
		}
	}
	return nil
}

// rowAt builds a column-name -> value map for row i of frame, keyed by
// resolved column names for "$." prefixed expr references.
func rowAt(frame *alerttypes.EvaluationFrame, i int) (map[string]interface{}, error) {
	row := make(map[string]interface{}, len(frame.Columns))
	for _, col := range frame.Columns {
		if i >= len(col.Values) {
			return nil, errors.Wrapf(alerttypes.ErrSchemaMismatch, "column %q shorter than frame height", col.Name)
		}
		row[col.Name] = col.Values[i]
	}
	return row, nil
}
