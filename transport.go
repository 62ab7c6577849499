// Copyright (C) 2025, The webrpc Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package webrpc

import (
	"context"
	"sort"
	"sync"
)

// Transport types
const (
	TransportHTTP    = "http"    // Plain JSON over the admin proxy, default
	TransportJSONRPC = "jsonrpc" // JSON-RPC 2.0 envelope over the admin proxy
	TransportGRPC    = "grpc"    // Google RPC with Struct payloads
)

// DefaultTransport is the default transport type (HTTP)
const DefaultTransport = TransportHTTP

type dialFunc func(ctx context.Context, addr string, o *dialOptions) (Transport, error)

var (
	transportsMu sync.RWMutex
	transports   = map[string]dialFunc{
		TransportHTTP:    dialHTTP,
		TransportJSONRPC: dialJSONRPC,
	}
)

// registerTransport registers a new transport (used from init)
func registerTransport(name string, dial dialFunc) {
	transportsMu.Lock()
	defer transportsMu.Unlock()
	transports[name] = dial
}

func lookupTransport(name string) (dialFunc, bool) {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	dial, ok := transports[name]
	return dial, ok
}

// AvailableTransports returns the sorted list of available transport types
func AvailableTransports() []string {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	result := make([]string, 0, len(transports))
	for name := range transports {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// HasTransport checks if a transport is available
func HasTransport(name string) bool {
	_, ok := lookupTransport(name)
	return ok
}
