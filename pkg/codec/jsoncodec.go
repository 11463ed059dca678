// pkg/codec/jsoncodec.go
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// EncodeParams renders a parameter set as compact JSON text with sorted keys
// and no HTML escaping, suitable for storing inside a session value.
func EncodeParams(p map[string]string) (string, error) {
	if p == nil {
		p = map[string]string{}
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// DecodeParams parses text written by EncodeParams. Anything but a single
// JSON object of strings is rejected.
func DecodeParams(s string) (map[string]string, error) {
	out := map[string]string{}
	if s == "" {
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("params decode: %w", err)
	}
	// Probe for trailing data (must be EOF)
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, fmt.Errorf("params trailing content")
	}
	if out == nil {
		out = map[string]string{}
	}
	return out, nil
}
