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

// Package scheduler submits the periodic transfer jobs: on every tick it
// queues a run for each active collection system transfer, each enabled
// cruise data transfer, and the required ship-to-shore transfer, then purges
// stale transfer logs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/rvdm/rvdm/api"
	"github.com/rvdm/rvdm/broker"
	"github.com/rvdm/rvdm/config"
	"github.com/rvdm/rvdm/warehouse"
	"github.com/rvdm/rvdm/worker"
)

// the name of the required ship-to-shore cruise data transfer
const shipToShoreTransferName = "SSDW"

// the subdirectory of the cruise root holding transfer logs
const transferLogDirName = "Transfer_Logs"

// A Scheduler drives the periodic transfer submissions.
type Scheduler struct {
	api      *api.Client
	broker   broker.Submitter
	interval time.Duration
}

func New(apiClient *api.Client, submitter broker.Submitter, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Duration(config.Site.SchedulerInterval) * time.Minute
	}
	return &Scheduler{api: apiClient, broker: submitter, interval: interval}
}

// Runs the scheduling loop until the context is cancelled. The first tick is
// aligned to the next wall-clock minute boundary; each later tick fires an
// interval after the previous one started.
func (s *Scheduler) Run(ctx context.Context) error {
	select {
	case <-time.After(untilNextMinute(time.Now())):
	case <-ctx.Done():
		return ctx.Err()
	}

	for {
		started := time.Now()
		s.tick(ctx)

		sleep := s.interval - time.Since(started)
		if sleep < 0 {
			sleep = 0
		}
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Returns the duration until the next wall-clock minute boundary.
func untilNextMinute(now time.Time) time.Duration {
	return now.Truncate(time.Minute).Add(time.Minute).Sub(now)
}

// one scheduling pass: submit the transfer jobs, then purge old logs
func (s *Scheduler) tick(ctx context.Context) {
	status, err := s.api.SystemStatus()
	if err != nil {
		slog.Warn("Couldn't read the system status", "error", err)
		return
	}
	if !status.Bool() {
		slog.Debug("System is off, skipping the scheduling pass")
		return
	}

	s.submitCollectionSystemTransfers()
	s.submitCruiseDataTransfers()
	s.submitShipToShoreTransfer()
	s.purgeTransferLogs()
}

func (s *Scheduler) submitCollectionSystemTransfers() {
	transfers, err := s.api.ActiveCollectionSystemTransfers()
	if err != nil {
		slog.Warn("Couldn't list collection system transfers", "error", err)
		return
	}
	for _, cst := range transfers {
		payload := worker.Payload{CollectionSystemTransfer: &cst}
		if _, err := s.broker.SubmitBackground("runCollectionSystemTransfer",
			payload.Encode()); err != nil {
			slog.Warn(fmt.Sprintf("Couldn't submit a run for %s", cst.Name), "error", err)
		}
	}
}

func (s *Scheduler) submitCruiseDataTransfers() {
	transfers, err := s.api.CruiseDataTransfers()
	if err != nil {
		slog.Warn("Couldn't list cruise data transfers", "error", err)
		return
	}
	for _, cdt := range transfers {
		if !cdt.Enable.Bool() {
			continue
		}
		payload := worker.Payload{CruiseDataTransfer: &cdt}
		if _, err := s.broker.SubmitBackground("runCruiseDataTransfer",
			payload.Encode()); err != nil {
			slog.Warn(fmt.Sprintf("Couldn't submit a run for %s", cdt.Name), "error", err)
		}
	}
}

func (s *Scheduler) submitShipToShoreTransfer() {
	required, err := s.api.RequiredCruiseDataTransfers()
	if err != nil {
		slog.Warn("Couldn't list required cruise data transfers", "error", err)
		return
	}
	for _, cdt := range required {
		if cdt.Name != shipToShoreTransferName {
			continue
		}
		payload := worker.Payload{CruiseDataTransfer: &cdt}
		if _, err := s.broker.SubmitBackground("runShipToShoreTransfer",
			payload.Encode()); err != nil {
			slog.Warn("Couldn't submit the ship-to-shore run", "error", err)
		}
		return
	}
}

// Removes transfer logs older than the configured purge interval. The
// control plane's setting wins; the site config is the fallback.
func (s *Scheduler) purgeTransferLogs() {
	phrase, err := s.api.LogfilePurgeInterval()
	if err != nil || phrase == "" {
		phrase = config.Site.TransferLogPurge
	}
	if phrase == "" {
		return
	}
	age, err := warehouse.ParseTimedelta(phrase)
	if err != nil {
		slog.Warn(fmt.Sprintf("Bad purge interval %q", phrase), "error", err)
		return
	}

	cfg, err := s.api.WarehouseConfig()
	if err != nil {
		slog.Warn("Couldn't read the warehouse config", "error", err)
		return
	}
	cruise, err := s.api.CurrentCruise()
	if err != nil {
		slog.Warn("Couldn't read the current cruise", "error", err)
		return
	}

	logDir := filepath.Join(cfg.BaseDir, cruise.CruiseID, transferLogDirName)
	if err := warehouse.PurgeOldFiles(logDir, time.Now().Add(-age), false); err != nil {
		slog.Warn("Couldn't purge old transfer logs", "error", err)
	}
}
