package evaluator

import (
	"fmt"
	"strings"

	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"
	"github.com/pkg/errors"

	"github.com/web3ekko/ekko-streams/internal/alerttypes"
)

// ErrInvalidTemplate is returned when an expression tree violates the §4.10
// compiler bounds (condition node count, nesting depth) or references a
// literal that does not resolve to a known form.
var ErrInvalidTemplate = errors.New("invalid_template")

// compiledExpr evaluates e against a row (column name -> value) and a set of
// job variables.
type compiledExpr struct {
	program *vm.Program
}

func (c compiledExpr) run(row map[string]interface{}, vars map[string]interface{}) (interface{}, error) {
	out, err := expr.Run(c.program, map[string]interface{}{"row": row, "vars": vars})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// compileExpr translates an alerttypes.Expr tree into an expr-lang program,
// using bracket-indexed row["col"]/vars["name"] references so arbitrary
// column names (including the "__" separator used by I4) are safe.
func compileExpr(e alerttypes.Expr, maxNodes, maxDepth int) (compiledExpr, error) {
	count := 0
	src, err := exprSource(e, 0, maxDepth, &count, maxNodes)
	if err != nil {
		return compiledExpr{}, err
	}
	program, err := expr.Compile(src, expr.AllowUndefinedVariables())
	if err != nil {
		return compiledExpr{}, errors.Wrapf(ErrInvalidTemplate, "compiling expression %q: %v", src, err)
	}
	return compiledExpr{program: program}, nil
}

func exprSource(e alerttypes.Expr, depth int, maxDepth int, count *int, maxNodes int) (string, error) {
	*count++
	if *count > maxNodes {
		return "", errors.Wrapf(ErrInvalidTemplate, "expression exceeds max_condition_nodes %d", maxNodes)
	}
	if depth > maxDepth {
		return "", errors.Wrapf(ErrInvalidTemplate, "expression exceeds max_expression_depth %d", maxDepth)
	}

	if !e.IsNode() {
		return literalSource(e)
	}

	switch e.Op {
	case alerttypes.OpNot:
		if len(e.Args) != 1 {
			return "", errors.Wrap(ErrInvalidTemplate, "Not requires exactly one argument")
		}
		arg, err := exprSource(e.Args[0], depth+1, maxDepth, count, maxNodes)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(!(%s))", arg), nil
	case alerttypes.OpCoalesce:
		return joinBinaryChain(e.Args, depth, maxDepth, count, maxNodes, "??")
	case alerttypes.OpAnd:
		return joinBinaryChain(e.Args, depth, maxDepth, count, maxNodes, "&&")
	case alerttypes.OpOr:
		return joinBinaryChain(e.Args, depth, maxDepth, count, maxNodes, "||")
	}

	if len(e.Args) != 2 {
		return "", errors.Wrapf(ErrInvalidTemplate, "%s requires exactly two arguments", e.Op)
	}
	sym, ok := binaryOps[e.Op]
	if !ok {
		return "", errors.Wrapf(ErrInvalidTemplate, "unknown operator %q", e.Op)
	}
	left, err := exprSource(e.Args[0], depth+1, maxDepth, count, maxNodes)
	if err != nil {
		return "", err
	}
	right, err := exprSource(e.Args[1], depth+1, maxDepth, count, maxNodes)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s %s)", left, sym, right), nil
}

var binaryOps = map[alerttypes.Op]string{
	alerttypes.OpAdd:  "+",
	alerttypes.OpSub:  "-",
	alerttypes.OpMul:  "*",
	alerttypes.OpDiv:  "/",
	alerttypes.OpGt:   ">",
	alerttypes.OpGte:  ">=",
	alerttypes.OpLt:   "<",
	alerttypes.OpLte:  "<=",
	alerttypes.OpEq:   "==",
	alerttypes.OpNeq:  "!=",
}

func joinBinaryChain(args []alerttypes.Expr, depth, maxDepth int, count *int, maxNodes int, sym string) (string, error) {
	if len(args) == 0 {
		return "true", nil
	}
	parts := make([]string, 0, len(args))
	for _, a := range args {
		s, err := exprSource(a, depth+1, maxDepth, count, maxNodes)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return "(" + strings.Join(parts, fmt.Sprintf(" %s ", sym)) + ")", nil
}

// literalSource renders a literal leaf: "$."-prefixed strings become row
// references to the column resolveColumnRef maps them to, "{{name}}" strings
// become variable references, other strings are quoted literals.
func literalSource(e alerttypes.Expr) (string, error) {
	switch {
	case e.Str != nil:
		s := *e.Str
		if strings.HasPrefix(s, "$.") {
			col, _ := resolveColumnRef(s)
			return fmt.Sprintf("row[%q]", col), nil
		}
		if strings.HasPrefix(s, "{{") && strings.HasSuffix(s, "}}") {
			name := strings.TrimSuffix(strings.TrimPrefix(s, "{{"), "}}")
			return fmt.Sprintf("vars[%q]", name), nil
		}
		return fmt.Sprintf("%q", s), nil
	case e.Num != nil:
		return fmt.Sprintf("%v", *e.Num), nil
	case e.Bool != nil:
		return fmt.Sprintf("%v", *e.Bool), nil
	default:
		return "", errors.Wrap(ErrInvalidTemplate, "empty literal")
	}
}

// columnRef extracts the "$.col" reference from a string expr literal, with
// the "$." prefix stripped and no further mapping. Returns ok=false for
// anything else.
func columnRef(e alerttypes.Expr) (string, bool) {
	if e.Str == nil || !strings.HasPrefix(*e.Str, "$.") {
		return "", false
	}
	return strings.TrimPrefix(*e.Str, "$."), true
}
