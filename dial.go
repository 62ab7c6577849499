// Copyright (C) 2025, The webrpc Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package webrpc

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/cms-dev/webrpc"

// Dial creates a client for the service proxy at addr using the default
// transport (HTTP). For the HTTP transports addr is the admin server base
// URL; for grpc it is a gRPC target.
func Dial(ctx context.Context, addr string, opts ...DialOption) (Client, error) {
	o := &dialOptions{
		transport: DefaultTransport,
		codec:     defaultCodec,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.codec == nil {
		o.codec = defaultCodec
	}
	if o.logger == nil {
		o.logger = logrus.StandardLogger()
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}

	dial, ok := lookupTransport(o.transport)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransport, o.transport)
	}
	t, err := dial(ctx, addr, o)
	if err != nil {
		return nil, err
	}
	return &client{
		transport: t,
		codec:     o.codec,
		log:       o.logger.WithField("transport", o.transport),
		tracer:    o.tracerProvider.Tracer(tracerName),
	}, nil
}

// client implements Client on top of any Transport
type client struct {
	transport Transport
	codec     Codec
	log       logrus.FieldLogger
	tracer    trace.Tracer
}

func (c *client) Invoke(ctx context.Context, req Request, args interface{}) (<-chan Result, error) {
	payload, err := c.prepare(req, args)
	if err != nil {
		return nil, err
	}

	done := make(chan Result, 1)
	go func() {
		done <- c.roundTrip(ctx, req, payload)
	}()
	return done, nil
}

func (c *client) InvokeFunc(ctx context.Context, req Request, args interface{}, callback func(Result)) error {
	if callback == nil {
		return ErrNilCallback
	}
	payload, err := c.prepare(req, args)
	if err != nil {
		return err
	}

	go func() {
		callback(c.roundTrip(ctx, req, payload))
	}()
	return nil
}

func (c *client) Call(ctx context.Context, req Request, args interface{}) (Result, error) {
	payload, err := c.prepare(req, args)
	if err != nil {
		return Result{}, err
	}
	return c.roundTrip(ctx, req, payload), nil
}

func (c *client) Close() error {
	return c.transport.Close()
}

// prepare serializes args and hands them to the transport. A nil args value
// is sent as an empty object. Every failure here wraps ErrEncodeArgs.
func (c *client) prepare(req Request, args interface{}) ([]byte, error) {
	if args == nil {
		args = map[string]interface{}{}
	}
	payload, err := c.codec.Encode(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeArgs, err)
	}
	body, err := c.transport.Prepare(req, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeArgs, err)
	}
	return body, nil
}

func (c *client) roundTrip(ctx context.Context, req Request, payload []byte) Result {
	ctx, span := c.tracer.Start(ctx, "webrpc "+req.Service+"/"+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.service", req.Service),
			attribute.String("rpc.method", req.Method),
			attribute.String("webrpc.shard", req.Shard),
		),
	)
	defer span.End()

	log := c.log.WithFields(logrus.Fields{
		"service": req.Service,
		"shard":   req.Shard,
		"method":  req.Method,
	})
	log.Debug("Sending RPC request")

	res := c.exchange(ctx, req, payload)

	span.SetAttributes(attribute.String("webrpc.status", res.Status.String()))
	if !res.OK() {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Status.String())
		log.WithError(res.Err).WithFields(logrus.Fields{
			"status": res.Status.String(),
			"code":   res.Code,
		}).Warn("RPC request failed")
	}
	return res
}

func (c *client) exchange(ctx context.Context, req Request, payload []byte) Result {
	body, err := c.transport.RoundTrip(ctx, req, payload)
	if err != nil {
		return failedResult(err)
	}

	if body == nil {
		return okResult(map[string]interface{}{})
	}
	var data map[string]interface{}
	if err := c.codec.Decode(body, &data); err != nil {
		return failedResult(fmt.Errorf("%w: %w", ErrDecodeResponse, err))
	}
	if data == nil {
		return failedResult(ErrDecodeResponse)
	}
	return okResult(data)
}
