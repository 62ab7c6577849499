// Copyright (C) 2025, The webrpc Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package webrpc

import (
	"bytes"
	"encoding/json"
)

// JSONCodec encodes arguments the way a browser's JSON.stringify does:
// compact, with <, > and & left unescaped.
type JSONCodec struct{}

func (JSONCodec) Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (JSONCodec) Decode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

var defaultCodec Codec = JSONCodec{}
