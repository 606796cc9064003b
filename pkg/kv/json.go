package kv

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func unmarshal(raw []byte, v interface{}) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrap(err, "unmarshaling kv value")
	}
	return nil
}

// MarshalJSON is the jsoniter-backed equivalent of json.Marshal, used by
// callers that write JSON documents into the KV store (e.g. instance
// snapshots, dedupe markers).
func MarshalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling kv value")
	}
	return raw, nil
}
