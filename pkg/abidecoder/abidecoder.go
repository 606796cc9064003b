// Package abidecoder implements the ABI decoder stage (§4.7): a KV-backed
// ABI cache plus a selector-matching, canonical-string-rendering decoder
// exposed both as a fire-and-forget consumer of call-enricher requests and
// as a direct single/batch request-reply surface.
package abidecoder

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/web3ekko/ekko-streams/internal/types"
	"github.com/web3ekko/ekko-streams/pkg/bus"
	"github.com/web3ekko/ekko-streams/pkg/kv"
)

// Subjects, per §4.7 and §6.6.
const (
	RequestSubject      = "abi.decode.request"
	BatchRequestSubject = "abi.decode.batch"
	ResultSubject       = "abi.decode.result"
	BatchResultSubject  = "abi.decode.batch.result"
)

// DecodeRequest is the shape the call enricher (and any direct caller)
// publishes on RequestSubject/BatchRequestSubject.
type DecodeRequest struct {
	TxHash           string         `json:"tx_hash"`
	Network          string         `json:"network"`
	Subnet           string         `json:"subnet"`
	ContractAddress  string         `json:"contract_address"`
	FunctionSelector string         `json:"function_selector"`
	InputData        string         `json:"input_data"`
	Kind             types.TypedKind `json:"kind,omitempty"`
}

// BatchDecodeRequest wraps a batch of items.
type BatchDecodeRequest struct {
	Items []DecodeRequest `json:"items"`
}

// BatchDecodeResult wraps a batch of results, index-aligned to the request.
type BatchDecodeResult struct {
	Items []types.DecodedTransaction `json:"items"`
}

// DecodedSubject builds blockchain.{network}.{subnet}.contracts.decoded.
func DecodedSubject(network, subnet string) string {
	return fmt.Sprintf("blockchain.%s.%s.contracts.decoded", network, subnet)
}

// Decoder is the ABI decoder stage.
type Decoder struct {
	log zerolog.Logger
	bus bus.Bus
	kv  kv.Store
}

// New builds a Decoder.
func New(b bus.Bus, store kv.Store) *Decoder {
	return &Decoder{log: log.With().Str("component", "abidecoder").Logger(), bus: b, kv: store}
}

// Subscribe attaches the decoder to its fire-and-forget request subject
// (published by the call enricher) and to the direct single/batch surfaces.
func (d *Decoder) Subscribe(ctx context.Context) ([]bus.Subscription, error) {
	var subs []bus.Subscription

	s1, err := d.bus.Subscribe(ctx, RequestSubject, "abidecoder", func(ctx context.Context, msg bus.Message) {
		var req DecodeRequest
		if err := json.Unmarshal(msg.Body, &req); err != nil {
			d.log.Error().Err(err).Msg("decoding abi decode request")
			return
		}
		result := d.decodeOne(ctx, req)
		d.publishResult(ctx, req, result)
	})
	if err != nil {
		return nil, err
	}
	subs = append(subs, s1)

	s2, err := d.bus.Subscribe(ctx, BatchRequestSubject, "abidecoder", func(ctx context.Context, msg bus.Message) {
		var batch BatchDecodeRequest
		if err := json.Unmarshal(msg.Body, &batch); err != nil {
			d.log.Error().Err(err).Msg("decoding batch abi decode request")
			return
		}
		out := BatchDecodeResult{Items: make([]types.DecodedTransaction, 0, len(batch.Items))}
		for _, req := range batch.Items {
			out.Items = append(out.Items, d.decodeOne(ctx, req))
		}
		body, err := json.Marshal(out)
		if err != nil {
			d.log.Error().Err(err).Msg("marshaling batch decode result")
			return
		}
		if err := d.bus.Publish(ctx, BatchResultSubject, body); err != nil {
			d.log.Error().Err(err).Msg("publishing batch decode result")
		}
	})
	if err != nil {
		return nil, err
	}
	subs = append(subs, s2)

	return subs, nil
}

func (d *Decoder) publishResult(ctx context.Context, req DecodeRequest, result types.DecodedTransaction) {
	body, err := json.Marshal(result)
	if err != nil {
		d.log.Error().Err(err).Msg("marshaling decode result")
		return
	}
	if err := d.bus.Publish(ctx, ResultSubject, body); err != nil {
		d.log.Error().Err(err).Msg("publishing decode result")
	}
	if err := d.bus.Publish(ctx, DecodedSubject(req.Network, req.Subnet), body); err != nil {
		d.log.Error().Err(err).Msg("publishing decoded transaction")
	}
}

// decodeOne resolves the terminal decoding status for one request.
func (d *Decoder) decodeOne(ctx context.Context, req DecodeRequest) types.DecodedTransaction {
	out := types.DecodedTransaction{
		TxHash:          req.TxHash,
		Network:         req.Network,
		Subnet:          req.Subnet,
		ContractAddress: req.ContractAddress,
	}

	switch req.Kind {
	case types.KindTransfer:
		out.DecodingStatus = types.DecodingNativeTransfer
		return out
	case types.KindDeployment:
		out.DecodingStatus = types.DecodingContractCreate
		return out
	}

	if len(req.InputData) < 10 {
		out.DecodingStatus = types.DecodingInvalidInput
		return out
	}

	var abiInfo types.AbiInfo
	key := types.AbiCacheKey(req.Network, req.ContractAddress)
	if err := kv.GetJSON(ctx, d.kv, key, &abiInfo); err != nil {
		out.DecodingStatus = types.DecodingAbiNotFound
		return out
	}

	fn, status := DecodeFunction(abiInfo.AbiJSON, req.FunctionSelector, req.InputData)
	out.DecodingStatus = status
	out.Function = fn
	return out
}

// DecodeFunction implements §4.7 "Decode": it parses abiJSON, matches
// selector against each function's computed 4-byte Keccak-256 selector, and
// decodes input_data[10:] into canonically-rendered parameters.
func DecodeFunction(abiJSON, selector, inputData string) (*types.DecodedFunction, types.DecodingStatus) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, types.DecodingFailed("invalid abi json: " + err.Error())
	}

	sel := strings.ToLower(strings.TrimPrefix(selector, "0x"))
	var method *abi.Method
	for name := range parsed.Methods {
		m := parsed.Methods[name]
		if hex.EncodeToString(m.ID) == sel {
			mCopy := m
			method = &mCopy
			break
		}
	}
	if method == nil {
		return nil, types.DecodingAbiNotFound
	}

	raw := strings.TrimPrefix(strings.ToLower(inputData), "0x")
	if len(raw) < 8 {
		return nil, types.DecodingInvalidInput
	}
	paramBytes, err := hex.DecodeString(raw[8:])
	if err != nil {
		return nil, types.DecodingInvalidInput
	}

	values, err := method.Inputs.UnpackValues(paramBytes)
	if err != nil {
		return nil, types.DecodingFailed(err.Error())
	}

	params := make([]types.DecodedParameter, 0, len(values))
	for i, arg := range method.Inputs {
		var v interface{}
		if i < len(values) {
			v = values[i]
		}
		params = append(params, types.DecodedParameter{
			Name:       arg.Name,
			TypeString: arg.Type.String(),
			Value:      renderValue(arg.Type, v),
		})
	}

	fn := &types.DecodedFunction{
		Name:       method.Name,
		Selector:   "0x" + hex.EncodeToString(method.ID),
		Signature:  method.Sig,
		Parameters: params,
	}
	return fn, types.DecodingSuccess
}

// maxDecimalUint is 2^128, the §4.7 step 4 threshold below which a uint256
// renders as decimal rather than compact hex.
var maxDecimalUint = new(big.Int).Lsh(big.NewInt(1), 128)

// renderValue implements the §4.7 step 4 canonical-string rendering rules.
func renderValue(t abi.Type, v interface{}) string {
	switch t.T {
	case abi.AddressTy:
		addr, _ := v.(common.Address)
		return strings.ToLower(addr.Hex())
	case abi.BoolTy:
		b, _ := v.(bool)
		if b {
			return "true"
		}
		return "false"
	case abi.UintTy:
		n := toBigInt(v)
		if n == nil {
			return "0"
		}
		if n.CmpAbs(maxDecimalUint) < 0 {
			return n.String()
		}
		return "0x" + n.Text(16)
	case abi.IntTy:
		n := toBigInt(v)
		if n == nil {
			return "0"
		}
		return n.String()
	case abi.StringTy:
		s, _ := v.(string)
		return s
	case abi.BytesTy, abi.FixedBytesTy:
		b := toBytes(v)
		return "0x" + hex.EncodeToString(b)
	case abi.SliceTy, abi.ArrayTy:
		return renderComposite(t, v)
	case abi.TupleTy:
		return renderTuple(t, v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func renderComposite(t abi.Type, v interface{}) string {
	elems := reflectSlice(v)
	rendered := make([]string, len(elems))
	for i, e := range elems {
		rendered[i] = renderValue(*t.Elem, e)
	}
	return "[" + strings.Join(rendered, ",") + "]"
}

func renderTuple(t abi.Type, v interface{}) string {
	elems := reflectSlice(v)
	rendered := make([]string, 0, len(t.TupleElems))
	for i, elemType := range t.TupleElems {
		if i < len(elems) {
			rendered = append(rendered, renderValue(*elemType, elems[i]))
		}
	}
	return "(" + strings.Join(rendered, ",") + ")"
}

func toBigInt(v interface{}) *big.Int {
	if n, ok := v.(*big.Int); ok {
		return n
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int())
	default:
		return nil
	}
}

func toBytes(v interface{}) []byte {
	switch b := v.(type) {
	case []byte:
		return b
	default:
		return nil
	}
}

// reflectSlice flattens any concretely-typed slice or array returned by
// abi.UnpackValues (e.g. []common.Address) into []interface{} so
// renderValue can recurse on each element uniformly.
func reflectSlice(v interface{}) []interface{} {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// StoreAbi caches an AbiInfo for a (network, address) pair.
func StoreAbi(ctx context.Context, store kv.Store, info types.AbiInfo) error {
	body, err := kv.MarshalJSON(info)
	if err != nil {
		return errors.Wrap(err, "marshaling abi info")
	}
	return errors.Wrap(store.Set(ctx, types.AbiCacheKey(info.Network, info.Address), body), "storing abi info")
}
