// Copyright (C) 2025, The webrpc Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package webrpc

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"
)

func TestDialUnknownTransport(t *testing.T) {
	_, err := Dial(context.Background(), "http://localhost:8889", WithTransport("zmq"))
	assert.ErrorIs(t, err, ErrUnknownTransport)
}

func TestDialBadBaseURL(t *testing.T) {
	_, err := Dial(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestInvokeDeliversAsynchronously(t *testing.T) {
	release := make(chan struct{})
	client := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		replyJSON(`{"foo": 1}`)(w, r)
	})

	done, err := client.Invoke(context.Background(), NewRequest("svc", 0, "m"), nil)
	require.NoError(t, err)

	// The server has not answered yet, so nothing can have been delivered.
	select {
	case res := <-done:
		t.Fatalf("result delivered before the server replied: %v", res.Map())
	default:
	}
	close(release)

	select {
	case res := <-done:
		assert.Equal(t, map[string]interface{}{"foo": 1.0, "status": "ok"}, res.Map())
	case <-time.After(5 * time.Second):
		t.Fatal("no result")
	}
}

func TestInvokeFuncCallsBackOnce(t *testing.T) {
	client := newProxy(t, replyStatus(http.StatusServiceUnavailable))

	var got Result
	called := make(chan struct{})
	err := client.InvokeFunc(context.Background(), NewRequest("svc", 0, "m"), nil, func(res Result) {
		got = res
		close(called) // a second delivery panics here
	})
	require.NoError(t, err)

	select {
	case <-called:
	case <-time.After(5 * time.Second):
		t.Fatal("callback not invoked")
	}
	require.NoError(t, client.Close())
	assert.Equal(t, map[string]interface{}{"status": "unconnected"}, got.Map())
}

func TestInvokeFuncNilCallback(t *testing.T) {
	client := newProxy(t, replyJSON(`{}`))
	err := client.InvokeFunc(context.Background(), NewRequest("svc", 0, "m"), nil, nil)
	assert.ErrorIs(t, err, ErrNilCallback)
}

func TestEncodeFailureFailsFast(t *testing.T) {
	var hits atomic.Int32
	client := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		replyJSON(`{}`)(w, r)
	})
	req := NewRequest("svc", 0, "m")
	bad := map[string]interface{}{"x": math.Inf(1)}

	done, err := client.Invoke(context.Background(), req, bad)
	assert.ErrorIs(t, err, ErrEncodeArgs)
	assert.Nil(t, done)

	err = client.InvokeFunc(context.Background(), req, map[string]interface{}{"c": make(chan int)}, func(Result) {
		t.Error("callback must not run")
	})
	assert.ErrorIs(t, err, ErrEncodeArgs)

	res, err := client.Call(context.Background(), req, bad)
	assert.ErrorIs(t, err, ErrEncodeArgs)
	assert.False(t, res.OK())

	assert.Zero(t, hits.Load())
}

func TestInvocationsAreIndependent(t *testing.T) {
	// The first request to arrive is held until the second one has been
	// answered, so the two results come back in reverse order.
	var n atomic.Int32
	second := make(chan struct{})
	client := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			<-second
			replyStatus(http.StatusForbidden)(w, r)
			return
		}
		replyJSON(`{"n": 2}`)(w, r)
		close(second)
	})

	req := NewRequest("svc", 0, "m")
	args := map[string]interface{}{"same": true}
	first, err := client.Invoke(context.Background(), req, args)
	require.NoError(t, err)
	for n.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	other, err := client.Invoke(context.Background(), req, args)
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{"n": 2.0, "status": "ok"}, (<-other).Map())
	assert.Equal(t, map[string]interface{}{"status": "not authorized"}, (<-first).Map())
}

func TestConcurrentInvocations(t *testing.T) {
	client := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			done, err := client.Invoke(context.Background(), NewRequest("svc", i, "echo"), map[string]interface{}{"i": i})
			if !assert.NoError(t, err) {
				return
			}
			res := <-done
			assert.Equal(t, float64(i), res.Payload["i"])
		}(i)
	}
	wg.Wait()
}

func TestInvokeContextCanceled(t *testing.T) {
	client := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done, err := client.Invoke(ctx, NewRequest("svc", 0, "m"), nil)
	require.NoError(t, err)
	cancel()

	res := <-done
	assert.Equal(t, StatusFail, res.Status)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestInvokeLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	server := httptest.NewServer(replyJSON(`{"ok": true}`))
	defer server.Close()

	logger, _ := logtest.NewNullLogger()
	client, err := Dial(context.Background(), server.URL, WithLogger(logger))
	require.NoError(t, err)
	defer client.Close()

	for i := 0; i < 5; i++ {
		done, err := client.Invoke(context.Background(), NewRequest("svc", i, "m"), nil)
		require.NoError(t, err)
		assert.True(t, (<-done).OK())
	}
}

func TestRoundTripSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	traceparent := make(chan string, 2)
	client := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		traceparent <- r.Header.Get("Traceparent")
		if r.URL.EscapedPath() == "/admin/rpc/svc/1/down" {
			replyStatus(http.StatusServiceUnavailable)(w, r)
			return
		}
		replyJSON(`{}`)(w, r)
	}, WithTracerProvider(tp))

	call(t, client, NewRequest("svc", 1, "up"), nil)
	call(t, client, NewRequest("svc", 1, "down"), nil)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "webrpc svc/up", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("webrpc.shard", "1"))
	assert.Contains(t, spans[0].Attributes(), attribute.String("webrpc.status", "ok"))
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)

	assert.Equal(t, "webrpc svc/down", spans[1].Name())
	assert.Contains(t, spans[1].Attributes(), attribute.String("webrpc.status", "unconnected"))
	assert.Equal(t, codes.Error, spans[1].Status().Code)

	// W3C traceparent: version-traceid-spanid-flags
	assert.Contains(t, <-traceparent, spans[0].SpanContext().TraceID().String())
}
