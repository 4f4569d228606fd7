// Copyright (c) 2025 The RVDM Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rvdm/rvdm/api"
	"github.com/rvdm/rvdm/broker"
	"github.com/rvdm/rvdm/scheduler"
	"github.com/rvdm/rvdm/sizecache"
)

// Builds the `rvdm scheduler` command: the periodic transfer submitter.
func schedulerCommand() *cobra.Command {
	var intervalMinutes int
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "submit periodic transfer jobs and purge old transfer logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			submitter, err := broker.NewClient()
			if err != nil {
				return err
			}
			defer submitter.Close()

			s := scheduler.New(api.NewClient(), submitter,
				time.Duration(intervalMinutes)*time.Minute)
			return runUntilSignalled(s.Run)
		},
	}
	cmd.Flags().IntVar(&intervalMinutes, "interval", 0,
		"minutes between scheduling passes (0: use the configured default)")
	return cmd
}

// Builds the `rvdm sizecache` command: the directory-size publisher.
func sizeCacheCommand() *cobra.Command {
	var intervalSeconds int
	cmd := &cobra.Command{
		Use:   "sizecache",
		Short: "periodically publish cruise and lowering directory sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := sizecache.New(api.NewClient(),
				time.Duration(intervalSeconds)*time.Second)
			return runUntilSignalled(c.Run)
		},
	}
	cmd.Flags().IntVar(&intervalSeconds, "interval", 0,
		"seconds between measurements (0: use the configured default)")
	return cmd
}

// Runs a loop until SIGINT or SIGTERM arrives. A return caused by the signal
// is not an error.
func runUntilSignalled(run func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
