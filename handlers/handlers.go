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

// Package handlers implements every task the worker runtime dispatches:
// cruise and lowering lifecycle, the four-kind transfers, MD5 summary and
// data dashboard maintenance, post-hooks, and job stopping.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rvdm/rvdm/api"
	"github.com/rvdm/rvdm/broker"
	"github.com/rvdm/rvdm/filespec"
	"github.com/rvdm/rvdm/warehouse"
	"github.com/rvdm/rvdm/worker"
)

const (
	transferLogDirName = "Transfer_Logs"
	dashboardDirName   = "Dashboard_Data"
	publicDataDirName  = "From_PublicData"
	logStampLayout     = "20060102T150405Z"
)

// Handlers binds every task handler to the job broker, which several of
// them use to chain or await other jobs.
type Handlers struct {
	broker broker.Submitter
}

func New(submitter broker.Submitter) *Handlers {
	return &Handlers{broker: submitter}
}

// the per-job view of the warehouse: the standing configuration plus the
// current cruise and lowering
type env struct {
	warehouse     api.WarehouseConfig
	cruise        api.Cruise
	lowering      api.Lowering
	showLowerings bool
}

// Loads the warehouse configuration and current cruise/lowering. Ids named
// in the payload take precedence over the control plane's current records,
// so hook jobs operate on the episode their predecessor saw.
func loadEnv(j *worker.Job) (env, error) {
	var e env
	var err error
	if e.warehouse, err = j.Api.WarehouseConfig(); err != nil {
		return e, err
	}
	if e.cruise, err = j.Api.CurrentCruise(); err != nil {
		return e, err
	}
	if j.Payload.CruiseID != "" {
		e.cruise.CruiseID = j.Payload.CruiseID
	}
	if e.showLowerings, err = j.Api.ShowLoweringComponents(); err != nil {
		return e, err
	}
	if e.showLowerings {
		if e.lowering, err = j.Api.CurrentLowering(); err != nil {
			return e, err
		}
		if j.Payload.LoweringID != "" {
			e.lowering.LoweringID = j.Payload.LoweringID
		}
	}
	return e, nil
}

func (e env) cruiseDir() string {
	return filepath.Join(e.warehouse.BaseDir, e.cruise.CruiseID)
}

func (e env) loweringDir() string {
	return filepath.Join(e.cruiseDir(), e.warehouse.LoweringDataBaseDir,
		e.lowering.LoweringID)
}

func (e env) transferLogDir() string {
	return filepath.Join(e.cruiseDir(), transferLogDirName)
}

func (e env) context() filespec.Context {
	return filespec.Context{
		CruiseID:            e.cruise.CruiseID,
		LoweringID:          e.lowering.LoweringID,
		LoweringDataBaseDir: e.warehouse.LoweringDataBaseDir,
	}
}

// Builds the data time window for a transfer: the cruise or lowering bounds
// when useStartDate is set, otherwise fully open, with the staleness
// pull-back applied either way.
func (e env) timeWindow(cst *api.CollectionSystemTransfer) (filespec.TimeWindow, error) {
	window := filespec.OpenTimeWindow()
	if cst.UseStartDate.Bool() {
		startStr, endStr := e.cruise.StartDate, e.cruise.EndDate
		if cst.CruiseOrLowering == api.ScopeLowering {
			startStr, endStr = e.lowering.StartDate, e.lowering.EndDate
		}
		start, err := api.ParseDate(startStr)
		if err != nil {
			return window, err
		}
		end, err := api.ParseDate(endStr)
		if err != nil {
			return window, err
		}
		window = filespec.NewTimeWindow(start, end)
	}
	if cst.Staleness > 0 {
		window = window.WithStaleness(time.Duration(cst.Staleness)*time.Second, time.Now())
	}
	return window, nil
}

// Submits a job and waits for it, translating a Fail verdict into an error.
func (h *Handlers) await(ctx context.Context, jobName string, payload worker.Payload) error {
	data, err := h.broker.SubmitAndWait(ctx, jobName, payload.Encode())
	if err != nil {
		return err
	}
	var result worker.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("%s returned garbage: %s", jobName, err)
	}
	if final := result.Final(); final.Result == worker.Fail {
		return fmt.Errorf("%s: %s", final.PartName, final.Reason)
	}
	return nil
}

// Writes the two per-run transfer logs: the timestamped file-set log and the
// exclusion log, both owned by the warehouse user.
func (e env) writeTransferLogs(name string, stamp time.Time, files worker.FileSet) error {
	logDir := e.transferLogDir()
	if err := warehouse.CreateDirectory(logDir); err != nil {
		return err
	}

	body, err := json.MarshalIndent(map[string]worker.FileSet{"files": files}, "", "    ")
	if err != nil {
		return err
	}
	runLog := filepath.Join(logDir,
		fmt.Sprintf("%s_%s.log", name, stamp.UTC().Format(logStampLayout)))
	if err := warehouse.AtomicWrite(runLog, body, warehouse.FileMode); err != nil {
		return err
	}

	excluded, err := json.MarshalIndent(
		map[string][]string{"exclude": files.Exclude}, "", "    ")
	if err != nil {
		return err
	}
	excludeLog := filepath.Join(logDir, fmt.Sprintf("%s_Exclude.log", name))
	if err := warehouse.AtomicWrite(excludeLog, excluded, warehouse.FileMode); err != nil {
		return err
	}

	for _, path := range []string{runLog, excludeLog} {
		if err := warehouse.SetOwnerGroupPermissions(e.warehouse.Username, path); err != nil {
			return err
		}
	}
	return nil
}

// Deletes the contents of a directory without removing the directory itself.
func emptyDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
