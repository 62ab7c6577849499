// Copyright (C) 2025, The webrpc Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package webrpc invokes methods of remote services through the admin
// server's RPC proxy.
//
// A call is addressed by service, shard and method and is sent as
//
//	POST /admin/rpc/<service>/<shard>/<method>
//	Content-Type: application/json
//
// with the keyword arguments as the JSON body. Each path segment is
// percent-encoded on its own, so identifiers never introduce extra path
// separators.
//
// # Outcomes
//
// Every call ends in exactly one Result:
//
//	2xx, JSON object body  -> StatusOK, Payload = body
//	403                    -> StatusNotAuthorized
//	503                    -> StatusUnconnected
//	anything else          -> StatusFail
//
// Result.Map gives the flat form used by the admin web pages, where the
// outcome is stored under the "status" key.
//
// # Transport Selection
//
//	http     plain JSON over the admin proxy (default)
//	jsonrpc  JSON-RPC 2.0 envelope over the admin proxy
//	grpc     google.protobuf.Struct calls on a gRPC channel
//
// # Usage
//
//	client, err := webrpc.Dial(ctx, "http://localhost:8889")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	done, err := client.Invoke(ctx, webrpc.NewRequest("EvaluationService", 0, "workers_status"), nil)
//	if err != nil {
//	    log.Fatal(err) // args could not be encoded
//	}
//	res := <-done
//	if res.Status == webrpc.StatusUnconnected {
//	    // the service is down
//	}
//
// Calls are independent. There are no retries and no ordering between
// concurrent calls.
package webrpc
