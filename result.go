// Copyright (C) 2025, The webrpc Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package webrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrEncodeArgs       = errors.New("webrpc: encode args")
	ErrDecodeResponse   = errors.New("webrpc: response is not a JSON object")
	ErrNilCallback      = errors.New("webrpc: nil callback")
	ErrUnknownTransport = errors.New("webrpc: unknown transport")
)

// StatusKey is the key carrying the outcome tag in Result.Map.
const StatusKey = "status"

// Status is the outcome of one invocation. The zero value is not a valid
// outcome and reads as "fail".
type Status int

const (
	StatusOK Status = iota + 1
	StatusNotAuthorized
	StatusUnconnected
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotAuthorized:
		return "not authorized"
	case StatusUnconnected:
		return "unconnected"
	default:
		return "fail"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StatusFromCode classifies a failed exchange by its HTTP status code.
// A zero code means the exchange produced no response at all.
func StatusFromCode(code int) Status {
	switch code {
	case http.StatusForbidden:
		return StatusNotAuthorized
	case http.StatusServiceUnavailable:
		return StatusUnconnected
	default:
		return StatusFail
	}
}

// StatusError is returned by a Transport when the exchange did not
// succeed. Code is the HTTP (or HTTP-equivalent) status, 0 if none.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	if e.Code == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("status %d: %v", e.Code, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Result is what a caller receives for every invocation.
type Result struct {
	Status Status

	// Payload holds the decoded response object. Only set when Status is StatusOK.
	Payload map[string]interface{}

	// Code is the status code of a failed exchange, 0 when there was none.
	Code int

	// Err is the underlying failure, nil when Status is StatusOK.
	Err error
}

// OK reports whether the remote call succeeded.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Map returns the result as a flat mapping: the payload plus a "status"
// key on success (overwriting any status sent by the server), and only the
// "status" key on failure.
func (r Result) Map() map[string]interface{} {
	if r.Status != StatusOK {
		return map[string]interface{}{StatusKey: r.Status.String()}
	}
	m := make(map[string]interface{}, len(r.Payload)+1)
	for k, v := range r.Payload {
		m[k] = v
	}
	m[StatusKey] = StatusOK.String()
	return m
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

func okResult(payload map[string]interface{}) Result {
	return Result{Status: StatusOK, Payload: payload}
}

func failedResult(err error) Result {
	code := 0
	var se *StatusError
	if errors.As(err, &se) {
		code = se.Code
	}
	return Result{
		Status: StatusFromCode(code),
		Code:   code,
		Err:    err,
	}
}
