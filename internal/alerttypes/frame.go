package alerttypes

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// ErrSchemaMismatch is returned when a frame fails the I3 invariant.
var ErrSchemaMismatch = errors.New("schema_mismatch")

// Column is a single named, typed column of an EvaluationFrame. Values are
// stored boxed (string/float64/bool/nil) so a column can hold nulls, matching
// the "tx__* fields are null-filled when absent" requirement in §3.1.
type Column struct {
	Name   string        `json:"name"`
	Values []interface{} `json:"values"`
}

// EvaluationFrame is the columnar table passed from input assembly to the
// evaluator (§3.1). Columns preserve insertion order; TargetKeyColumn is
// always present and first.
type EvaluationFrame struct {
	Columns []Column `json:"columns"`
}

const targetKeyColumnName = "target_key"

// NewFrame builds a frame whose first column is target_key, matching the
// element order of targets (I3).
func NewFrame(targets []TargetKey) *EvaluationFrame {
	vals := make([]interface{}, len(targets))
	for i, t := range targets {
		vals[i] = string(t)
	}
	return &EvaluationFrame{Columns: []Column{{Name: targetKeyColumnName, Values: vals}}}
}

// Height returns the number of rows (length of every column).
func (f *EvaluationFrame) Height() int {
	if len(f.Columns) == 0 {
		return 0
	}
	return len(f.Columns[0].Values)
}

// Column looks up a column by name.
func (f *EvaluationFrame) Column(name string) (Column, bool) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// AddColumn appends a new column, padding/truncating to the frame's height is
// the caller's responsibility — callers must supply Height() values.
func (f *EvaluationFrame) AddColumn(name string, values []interface{}) error {
	if len(values) != f.Height() {
		return errors.Wrapf(ErrSchemaMismatch, "column %q has %d rows, frame has %d", name, len(values), f.Height())
	}
	f.Columns = append(f.Columns, Column{Name: name, Values: values})
	return nil
}

// ValidateAgainstTargets enforces I3: height(frame) == len(targets) and the
// target_key column equals the targets vector element-for-element.
func (f *EvaluationFrame) ValidateAgainstTargets(targets []TargetKey) error {
	col, ok := f.Column(targetKeyColumnName)
	if !ok {
		return errors.Wrap(ErrSchemaMismatch, "missing target_key column")
	}
	if f.Height() != len(targets) {
		return errors.Wrapf(ErrSchemaMismatch, "frame height %d != targets %d", f.Height(), len(targets))
	}
	for i, t := range targets {
		v, _ := col.Values[i].(string)
		if v != string(t) {
			return errors.Wrapf(ErrSchemaMismatch, "target_key[%d] = %q, want %q", i, v, t)
		}
	}
	return nil
}

// DatasourceColumnName returns "{ds}__{col}" per the I4 mapping.
func DatasourceColumnName(datasourceID, column string) string {
	return fmt.Sprintf("%s__%s", datasourceID, column)
}

// EnrichmentColumnName returns "enrichment__{name}" per the I4 mapping.
func EnrichmentColumnName(name string) string {
	return fmt.Sprintf("enrichment__%s", name)
}

// ArrowFrameV1 is the §6.5 wire envelope. The spec permits any equivalent
// ordered columnar format as long as producer/evaluator/test harness agree;
// this implementation carries a JSON-encoded Column slice as the "arrow_ipc"
// payload rather than a true Arrow IPC stream.
type ArrowFrameV1 struct {
	Format string `json:"format"`
	Data   string `json:"data"` // base64(payload)
}

const arrowFrameFormat = "arrow_ipc_stream_base64"

// EncodeArrowFrameV1 serialises a frame into the wire envelope.
func EncodeArrowFrameV1(f *EvaluationFrame) (ArrowFrameV1, error) {
	raw, err := json.Marshal(f.Columns)
	if err != nil {
		return ArrowFrameV1{}, errors.Wrap(err, "marshaling frame columns")
	}
	return ArrowFrameV1{
		Format: arrowFrameFormat,
		Data:   base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// DecodeArrowFrameV1 reconstructs a frame from the wire envelope.
func DecodeArrowFrameV1(env ArrowFrameV1) (*EvaluationFrame, error) {
	if env.Format != arrowFrameFormat {
		return nil, errors.Errorf("unsupported frame format %q", env.Format)
	}
	raw, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, errors.Wrap(err, "decoding base64 frame payload")
	}
	var cols []Column
	if err := json.Unmarshal(raw, &cols); err != nil {
		return nil, errors.Wrap(err, "unmarshaling frame columns")
	}
	return &EvaluationFrame{Columns: cols}, nil
}
