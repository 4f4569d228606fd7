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

// rvdm is the shipboard data manager's command-line entry point. One binary
// serves every role: each worker group, the scheduler, and the size cacher
// run as separate invocations supervised by the init system.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rvdm/rvdm/config"
)

var (
	configFile string
	verbosity  int
)

func main() {
	root := &cobra.Command{
		Use:           "rvdm",
		Short:         "shipboard research vessel data manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			return loadConfig()
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c",
		"/etc/rvdm/config.yml", "path to the configuration file")
	root.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase log verbosity (repeatable)")

	root.AddCommand(workerCommand())
	root.AddCommand(schedulerCommand())
	root.AddCommand(sizeCacheCommand())
	root.AddCommand(journalCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rvdm: %s\n", err.Error())
		os.Exit(1)
	}
}

// Installs the structured logger. Repeated -v flags lower the level.
func setupLogging() {
	level := new(slog.LevelVar)
	switch {
	case verbosity >= 2:
		level.Set(slog.LevelDebug)
	case verbosity == 1:
		level.Set(slog.LevelInfo)
	default:
		level.Set(slog.LevelWarn)
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// Reads and installs the global configuration.
func loadConfig() error {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("couldn't read %s: %s", configFile, err.Error())
	}
	if err := config.Init(data); err != nil {
		return fmt.Errorf("couldn't initialize the configuration: %s", err.Error())
	}
	return nil
}
