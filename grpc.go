// Copyright (C) 2025, The webrpc Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package webrpc

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ShardMetadataKey carries the shard of a grpc call.
const ShardMetadataKey = "webrpc-shard"

func init() {
	registerTransport(TransportGRPC, dialGRPC)
}

func dialGRPC(_ context.Context, addr string, o *dialOptions) (Transport, error) {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler(otelgrpc.WithTracerProvider(o.tracerProvider))),
	}, o.grpcOptions...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &grpcTransport{conn: conn}, nil
}

type grpcTransport struct {
	conn *grpc.ClientConn
}

// FullMethod returns the grpc method name for req.
func FullMethod(req Request) string {
	return "/" + req.Service + "/" + req.Method
}

// Prepare converts the JSON arguments to a google.protobuf.Struct in wire
// form. Anything but a JSON object is rejected.
func (t *grpcTransport) Prepare(_ Request, payload []byte) ([]byte, error) {
	args := &structpb.Struct{}
	if err := protojson.Unmarshal(payload, args); err != nil {
		return nil, fmt.Errorf("args must be a JSON object: %w", err)
	}
	return proto.Marshal(args)
}

func (t *grpcTransport) RoundTrip(ctx context.Context, req Request, body []byte) ([]byte, error) {
	args := &structpb.Struct{}
	if err := proto.Unmarshal(body, args); err != nil {
		return nil, &StatusError{Err: fmt.Errorf("unmarshal prepared args: %w", err)}
	}

	ctx = metadata.AppendToOutgoingContext(ctx, ShardMetadataKey, req.Shard)
	reply := &structpb.Struct{}
	if err := t.conn.Invoke(ctx, FullMethod(req), args, reply); err != nil {
		return nil, &StatusError{Code: httpCodeFromGRPC(err), Err: err}
	}
	return protojson.Marshal(reply)
}

func (t *grpcTransport) Close() error {
	return t.conn.Close()
}

// httpCodeFromGRPC maps a grpc error onto the HTTP status the admin proxy
// would have answered with. Errors without a grpc status map to 0.
func httpCodeFromGRPC(err error) int {
	st, ok := status.FromError(err)
	if !ok {
		return 0
	}
	switch st.Code() {
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.NotFound:
		return http.StatusNotFound
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
