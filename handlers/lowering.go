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

package handlers

import (
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/rvdm/rvdm/api"
	"github.com/rvdm/rvdm/warehouse"
	"github.com/rvdm/rvdm/worker"
)

// Brings a freshly-created lowering into service: directory tree, exported
// config, and a zeroed published size.
func (h *Handlers) SetupNewLowering(j *worker.Job) worker.Result {
	var result worker.Result

	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve lowering configuration", err.Error())
		return result
	}
	if e.lowering.LoweringID == "" {
		result.Fail("Verify lowering", "No lowering is currently selected")
		return result
	}
	payload := worker.Payload{
		CruiseID:   e.cruise.CruiseID,
		LoweringID: e.lowering.LoweringID,
	}

	if err := h.await(j.Ctx, "createLoweringDirectory", payload); err != nil {
		result.Fail("Create lowering directory", err.Error())
		return result
	}
	result.Pass("Create lowering directory")
	j.Progress(40)

	if err := e.exportLoweringConfig(j.Api, false); err != nil {
		result.Fail("Export lowering configuration", err.Error())
		return result
	}
	result.Pass("Export lowering configuration")
	j.Progress(80)

	if err := j.Api.SetLoweringSize(0); err != nil {
		result.Fail("Update lowering size", err.Error())
		return result
	}
	result.Pass("Update lowering size")
	j.Progress(100)
	return result
}

// Closes out the current lowering: a last run of every active
// lowering-scoped collection system transfer, then a finalized config
// export. Pre-finalize hooks run synchronously before this body, driven by
// the worker runtime.
func (h *Handlers) FinalizeCurrentLowering(j *worker.Job) worker.Result {
	var result worker.Result

	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve lowering configuration", err.Error())
		return result
	}
	if e.lowering.LoweringID == "" {
		result.Fail("Verify lowering", "No lowering is currently selected")
		return result
	}
	if info, err := os.Stat(e.loweringDir()); err != nil || !info.IsDir() {
		result.Fail("Verify lowering directory",
			"The lowering directory "+e.loweringDir()+" does not exist")
		return result
	}
	result.Pass("Verify lowering directory")
	j.Progress(10)

	transfers, err := j.Api.ActiveCollectionSystemTransfers()
	if err != nil {
		result.Fail("Retrieve collection system transfers", err.Error())
		return result
	}
	var group errgroup.Group
	for _, cst := range transfers {
		if cst.CruiseOrLowering != api.ScopeLowering {
			continue
		}
		payload := worker.Payload{
			CruiseID:                 e.cruise.CruiseID,
			LoweringID:               e.lowering.LoweringID,
			CollectionSystemTransfer: &cst,
		}
		group.Go(func() error {
			return h.await(j.Ctx, "runCollectionSystemTransfer", payload)
		})
	}
	if err := group.Wait(); err != nil {
		result.Fail("Run collection system transfers", err.Error())
		return result
	}
	result.Pass("Run collection system transfers")
	j.Progress(80)

	if err := e.exportLoweringConfig(j.Api, true); err != nil {
		result.Fail("Export lowering configuration", err.Error())
		return result
	}
	result.Pass("Export lowering configuration")
	j.Progress(100)
	return result
}

// Re-exports the lowering configuration file on operator request.
func (h *Handlers) ExportLoweringConfig(j *worker.Job) worker.Result {
	var result worker.Result

	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve lowering configuration", err.Error())
		return result
	}
	if e.lowering.LoweringID == "" {
		result.Fail("Verify lowering", "No lowering is currently selected")
		return result
	}
	if err := e.exportLoweringConfig(j.Api, false); err != nil {
		result.Fail("Export lowering configuration", err.Error())
		return result
	}
	result.Pass("Export lowering configuration")
	return result
}

// Writes the lowering configuration document to
// {lowering}/{loweringConfigFn}, atomically and owned by the warehouse user.
func (e env) exportLoweringConfig(client *api.Client, finalize bool) error {
	doc, err := client.LoweringConfig()
	if err != nil {
		return err
	}
	if finalize {
		var fields map[string]any
		if err := json.Unmarshal(doc, &fields); err != nil {
			return err
		}
		fields["loweringFinalizedOn"] = fields["configCreatedOn"]
		if doc, err = json.MarshalIndent(fields, "", "    "); err != nil {
			return err
		}
	}
	path := filepath.Join(e.loweringDir(), e.warehouse.LoweringConfigFn)
	if err := warehouse.AtomicWrite(path, doc, warehouse.FileMode); err != nil {
		return err
	}
	return warehouse.SetOwnerGroupPermissions(e.warehouse.Username, path)
}
