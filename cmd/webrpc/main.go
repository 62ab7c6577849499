// Copyright (C) 2025, The webrpc Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Command webrpc calls a method of a remote service through the admin
// server's RPC proxy and prints the result.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cms-dev/webrpc"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "webrpc",
		Short:        "Call remote services through the admin RPC proxy",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.AddCommand(newCallCmd(), newTransportsCmd())
	return root
}

type callFlags struct {
	args      string
	url       string
	transport string
	timeout   time.Duration
}

func newCallCmd() *cobra.Command {
	var f callFlags
	cmd := &cobra.Command{
		Use:   "call SERVICE SHARD METHOD",
		Short: "Invoke METHOD on the given shard of SERVICE",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, f, webrpc.NewRequest(args[0], args[1], args[2]))
		},
	}
	cmd.Flags().StringVar(&f.args, "args", "{}", "keyword arguments as a JSON object")
	cmd.Flags().StringVar(&f.url, "url", "", "admin server base URL (overrides WEBRPC_BASE_URL)")
	cmd.Flags().StringVar(&f.transport, "transport", "", "transport to use (overrides WEBRPC_TRANSPORT)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "request timeout (overrides WEBRPC_TIMEOUT)")
	return cmd
}

func runCall(cmd *cobra.Command, f callFlags, req webrpc.Request) error {
	cfg, err := webrpc.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	if f.url != "" {
		cfg.BaseURL = f.url
	}
	if f.transport != "" {
		cfg.Transport = f.transport
	}
	if f.timeout > 0 {
		cfg.Timeout = f.timeout
	}

	var args map[string]interface{}
	if err := json.Unmarshal([]byte(f.args), &args); err != nil {
		return fmt.Errorf("parse --args: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := setupTracing(ctx, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer shutdown(context.Background())

	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(cfg.Level())

	client, err := webrpc.Dial(ctx, cfg.BaseURL, append(cfg.DialOptions(), webrpc.WithLogger(logger))...)
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := client.Call(ctx, req, args)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("%s: %s", req, res.Status)
	}
	return nil
}

func newTransportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transports",
		Short: "List the available transports",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range webrpc.AvailableTransports() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
