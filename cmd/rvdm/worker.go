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
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rvdm/rvdm/api"
	"github.com/rvdm/rvdm/broker"
	"github.com/rvdm/rvdm/handlers"
	"github.com/rvdm/rvdm/journal"
	"github.com/rvdm/rvdm/worker"
)

// Builds the `rvdm worker <group>` command. Each group subscribes one
// process to a related set of task names; SIGQUIT aborts the current job
// without exiting, SIGINT and SIGTERM drain and exit.
func workerCommand() *cobra.Command {
	groups := handlers.New(nil).Groups()
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	return &cobra.Command{
		Use:       "worker <group>",
		Short:     "run a task worker for one group of task names",
		Long:      "Available groups: " + strings.Join(names, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(args[0])
		},
	}
}

func runWorker(group string) error {
	submitter, err := broker.NewClient()
	if err != nil {
		return err
	}
	defer submitter.Close()

	if err := journal.Init(); err != nil {
		slog.Warn("Couldn't open the transfer journal", "error", err)
	} else {
		defer journal.Finalize()
	}

	runtime := worker.New(api.NewClient(), submitter)
	if !handlers.New(submitter).Register(runtime, group) {
		return fmt.Errorf("unknown worker group %q", group)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for sig := range signals {
			if sig == syscall.SIGQUIT {
				slog.Info("Stopping the current job")
				runtime.Stop()
				continue
			}
			slog.Info("Shutting down")
			runtime.Quit()
			return
		}
	}()

	return runtime.Run()
}
