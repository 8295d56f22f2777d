// Package jsonx centralizes JSON encode/decode on bytedance/sonic. The
// router is invoked once per hook event on the hot path of every tool
// call (spec.md §5 performance budget), so stdin decode and stdout
// encode use sonic's faster codec rather than encoding/json.
package jsonx

import (
	"io"

	"github.com/bytedance/sonic"
)

var api = sonic.ConfigStd

// Decode reads and unmarshals a JSON document from r.
func Decode(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return api.Unmarshal(data, v)
}

// Marshal returns the JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// Unmarshal parses JSON data into v.
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}
