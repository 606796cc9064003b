package alerttypes

// Op is an expression-tree operator, per §4.10.
type Op string

const (
	OpAdd      Op = "Add"
	OpSub      Op = "Sub"
	OpMul      Op = "Mul"
	OpDiv      Op = "Div"
	OpGt       Op = "Gt"
	OpGte      Op = "Gte"
	OpLt       Op = "Lt"
	OpLte      Op = "Lte"
	OpEq       Op = "Eq"
	OpNeq      Op = "Neq"
	OpAnd      Op = "And"
	OpOr       Op = "Or"
	OpNot      Op = "Not"
	OpCoalesce Op = "Coalesce"
)

// Expr is an operand in the expression language: either a nested expression
// node or a literal (column reference, variable reference, string, number,
// or bool). It is represented as a tagged union over JSON so templates can
// author it directly as declarative JSON/YAML.
type Expr struct {
	// Node form: Op + Args.
	Op   Op     `json:"op,omitempty"`
	Args []Expr `json:"args,omitempty"`

	// Literal form. Exactly one of these is set when Op is empty.
	Str    *string  `json:"str,omitempty"`
	Num    *float64 `json:"num,omitempty"`
	Bool   *bool    `json:"bool,omitempty"`
}

// IsNode reports whether e is an operator node rather than a literal.
func (e Expr) IsNode() bool {
	return e.Op != ""
}

// Lit builds a string literal expression. Strings starting with "$." are
// column references; strings matching "{{name}}" are variable references;
// anything else is a plain string literal (§4.10).
func Lit(s string) Expr {
	return Expr{Str: &s}
}

// LitNum builds a numeric literal expression.
func LitNum(n float64) Expr {
	return Expr{Num: &n}
}

// LitBool builds a boolean literal expression.
func LitBool(b bool) Expr {
	return Expr{Bool: &b}
}

// Node builds an operator node.
func Node(op Op, args ...Expr) Expr {
	return Expr{Op: op, Args: args}
}
