// Copyright (C) 2025, The webrpc Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package webrpc

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Client is the transport-agnostic RPC client interface.
// All application code should use this interface.
type Client interface {
	// Invoke starts a call and returns a channel that receives exactly one
	// Result once the call completes. The error is non-nil only when args
	// cannot be encoded, in which case nothing is sent.
	Invoke(ctx context.Context, req Request, args interface{}) (<-chan Result, error)

	// InvokeFunc is like Invoke but hands the Result to callback, which
	// always runs on another goroutine.
	InvokeFunc(ctx context.Context, req Request, args interface{}, callback func(Result)) error

	// Call makes a blocking call
	Call(ctx context.Context, req Request, args interface{}) (Result, error)

	// Close releases the transport
	Close() error
}

// Codec encodes arguments and decodes replies. Every transport sends the
// encoded arguments as application/json, so Encode must produce JSON text.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error
}

// Transport carries one encoded call to the remote service.
type Transport interface {
	io.Closer

	// Prepare turns the codec output into the transport's request body. It
	// runs before the call is started, so args the transport cannot carry
	// are rejected synchronously.
	Prepare(req Request, payload []byte) ([]byte, error)

	// RoundTrip sends a prepared body and returns the raw response body.
	// A nil body means the remote answered without content. Failed
	// exchanges are reported as *StatusError.
	RoundTrip(ctx context.Context, req Request, body []byte) ([]byte, error)
}

// DialOption configures client connections
type DialOption func(*dialOptions)

type dialOptions struct {
	codec          Codec
	transport      string // "http", "jsonrpc", "grpc"
	httpClient     *http.Client
	headers        http.Header
	timeout        time.Duration
	logger         logrus.FieldLogger
	tracerProvider trace.TracerProvider
	grpcOptions    []grpc.DialOption
}

// WithCodec sets a custom codec
func WithCodec(c Codec) DialOption {
	return func(o *dialOptions) { o.codec = c }
}

// WithTransport explicitly sets the transport type
func WithTransport(t string) DialOption {
	return func(o *dialOptions) { o.transport = t }
}

// WithHTTPClient makes the HTTP based transports use c instead of building
// their own client. The timeout option is ignored in that case.
func WithHTTPClient(c *http.Client) DialOption {
	return func(o *dialOptions) { o.httpClient = c }
}

// WithHeader adds a header sent with every HTTP request.
func WithHeader(key, value string) DialOption {
	return func(o *dialOptions) {
		if o.headers == nil {
			o.headers = make(http.Header)
		}
		o.headers.Add(key, value)
	}
}

// WithTimeout bounds each HTTP exchange. Zero means no limit.
func WithTimeout(d time.Duration) DialOption {
	return func(o *dialOptions) { o.timeout = d }
}

// WithLogger sets the logger used for request and failure logging.
func WithLogger(l logrus.FieldLogger) DialOption {
	return func(o *dialOptions) { o.logger = l }
}

// WithTracerProvider sets where spans are recorded. The global provider is
// used otherwise.
func WithTracerProvider(tp trace.TracerProvider) DialOption {
	return func(o *dialOptions) { o.tracerProvider = tp }
}

// WithGRPCDialOptions appends options passed to grpc.NewClient by the grpc transport.
func WithGRPCDialOptions(opts ...grpc.DialOption) DialOption {
	return func(o *dialOptions) { o.grpcOptions = append(o.grpcOptions, opts...) }
}
