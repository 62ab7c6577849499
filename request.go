// Copyright (C) 2025, The webrpc Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package webrpc

import (
	"fmt"
	"strings"
)

// PathPrefix is where the admin server mounts its RPC proxy.
const PathPrefix = "/admin/rpc/"

// Request names the remote method to invoke.
type Request struct {
	Service string
	Shard   string
	Method  string
}

// NewRequest builds a Request, formatting shard with fmt.Sprint so both
// numeric and string shard identifiers are accepted.
func NewRequest(service string, shard interface{}, method string) Request {
	return Request{
		Service: service,
		Shard:   fmt.Sprint(shard),
		Method:  method,
	}
}

// Path returns the escaped proxy path for the request.
func (r Request) Path() string {
	var b strings.Builder
	b.WriteString(PathPrefix)
	b.WriteString(EscapeComponent(r.Service))
	b.WriteByte('/')
	b.WriteString(EscapeComponent(r.Shard))
	b.WriteByte('/')
	b.WriteString(EscapeComponent(r.Method))
	return b.String()
}

func (r Request) String() string {
	return r.Service + "/" + r.Shard + "/" + r.Method
}

const upperhex = "0123456789ABCDEF"

// EscapeComponent percent-encodes s so it can be used as a single path
// segment. Only ALPHA, DIGIT and -_.!~*'() are left as is.
func EscapeComponent(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !isComponentSafe(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	buf := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isComponentSafe(c) {
			buf = append(buf, c)
			continue
		}
		buf = append(buf, '%', upperhex[c>>4], upperhex[c&15])
	}
	return string(buf)
}

func isComponentSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
