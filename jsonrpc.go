// Copyright (C) 2025, The webrpc Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package webrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	json2 "github.com/gorilla/rpc/v2/json2"
)

// jsonrpcTransport wraps each call in a JSON-RPC 2.0 envelope whose method
// is "Service.Method". The shard still selects the proxy path.
type jsonrpcTransport struct {
	*httpPoster
}

func dialJSONRPC(_ context.Context, addr string, o *dialOptions) (Transport, error) {
	p, err := newHTTPPoster(addr, o)
	if err != nil {
		return nil, err
	}
	return &jsonrpcTransport{httpPoster: p}, nil
}

// Prepare wraps the arguments in the request envelope.
func (t *jsonrpcTransport) Prepare(req Request, payload []byte) ([]byte, error) {
	return json2.EncodeClientRequest(req.Service+"."+req.Method, json.RawMessage(payload))
}

func (t *jsonrpcTransport) RoundTrip(ctx context.Context, req Request, body []byte) ([]byte, error) {
	resp, err := t.post(ctx, req.Path(), body)
	if err != nil {
		return nil, err
	}

	var result json.RawMessage
	if err := json2.DecodeClientResponse(bytes.NewReader(resp), &result); err != nil {
		var rpcErr *json2.Error
		if errors.As(err, &rpcErr) {
			return nil, &StatusError{Err: fmt.Errorf("remote error %d: %s", rpcErr.Code, rpcErr.Message)}
		}
		return nil, fmt.Errorf("%w: %w", ErrDecodeResponse, err)
	}
	return result, nil
}
