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
	"github.com/rvdm/rvdm/transfer"
	"github.com/rvdm/rvdm/warehouse"
	"github.com/rvdm/rvdm/worker"
)

// Brings a freshly-created cruise into service: permissions, directory
// tree, empty MD5 summary, exported config, dashboard tree, and published
// sizes.
func (h *Handlers) SetupNewCruise(j *worker.Job) worker.Result {
	var result worker.Result

	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve cruise configuration", err.Error())
		return result
	}
	payload := worker.Payload{CruiseID: e.cruise.CruiseID}

	steps := []struct {
		part string
		job  string
	}{
		{"Set cruise data directory permissions", "setCruiseDataDirectoryPermissions"},
		{"Create cruise directory", "createCruiseDirectory"},
		{"Rebuild MD5 summary", "rebuildMD5Summary"},
	}
	for i, step := range steps {
		if err := h.await(j.Ctx, step.job, payload); err != nil {
			result.Fail(step.part, err.Error())
			return result
		}
		result.Pass(step.part)
		j.Progress(10 + 20*i)
	}

	if err := e.exportCruiseConfig(j.Api, false); err != nil {
		result.Fail("Export cruise configuration", err.Error())
		return result
	}
	result.Pass("Export cruise configuration")
	j.Progress(70)

	if err := h.await(j.Ctx, "rebuildDataDashboard", payload); err != nil {
		result.Fail("Rebuild data dashboard", err.Error())
		return result
	}
	result.Pass("Rebuild data dashboard")
	j.Progress(80)

	if mirrored, err := j.Api.TransferPublicData(); err == nil && mirrored {
		if err := emptyDirectory(e.warehouse.PublicDataDir); err != nil {
			result.Fail("Empty PublicData share", err.Error())
			return result
		}
		result.Pass("Empty PublicData share")
	}
	j.Progress(90)

	if err := e.publishCruiseSize(j.Api); err != nil {
		result.Fail("Update cruise size", err.Error())
		return result
	}
	if err := j.Api.SetLoweringSize(0); err != nil {
		result.Fail("Update lowering size", err.Error())
		return result
	}
	result.Pass("Update cruise size")
	j.Progress(100)
	return result
}

// Closes out the current cruise: a last run of every active cruise-scoped
// collection system transfer, an optional PublicData import, and a config
// export stamped with the finalization date.
func (h *Handlers) FinalizeCurrentCruise(j *worker.Job) worker.Result {
	var result worker.Result

	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve cruise configuration", err.Error())
		return result
	}
	if info, err := os.Stat(e.cruiseDir()); err != nil || !info.IsDir() {
		result.Fail("Verify cruise directory",
			"The cruise directory "+e.cruiseDir()+" does not exist")
		return result
	}
	result.Pass("Verify cruise directory")
	j.Progress(10)

	transfers, err := j.Api.ActiveCollectionSystemTransfers()
	if err != nil {
		result.Fail("Retrieve collection system transfers", err.Error())
		return result
	}
	var group errgroup.Group
	for _, cst := range transfers {
		if cst.CruiseOrLowering != api.ScopeCruise {
			continue
		}
		payload := worker.Payload{
			CruiseID:                 e.cruise.CruiseID,
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
	j.Progress(70)

	if mirrored, err := j.Api.TransferPublicData(); err == nil && mirrored {
		if err := h.importPublicData(j, e); err != nil {
			result.Fail("Transfer PublicData", err.Error())
			return result
		}
		result.Pass("Transfer PublicData")
	}
	j.Progress(90)

	if err := e.exportCruiseConfig(j.Api, true); err != nil {
		result.Fail("Export cruise configuration", err.Error())
		return result
	}
	result.Pass("Export cruise configuration")
	j.Progress(100)
	return result
}

// Re-exports the cruise configuration file on operator request.
func (h *Handlers) ExportOVDMConfig(j *worker.Job) worker.Result {
	var result worker.Result

	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve cruise configuration", err.Error())
		return result
	}
	if err := e.exportCruiseConfig(j.Api, false); err != nil {
		result.Fail("Export cruise configuration", err.Error())
		return result
	}
	result.Pass("Export cruise configuration")
	return result
}

// Mirrors the PublicData share into the cruise tree.
func (h *Handlers) RsyncPublicDataToCruiseData(j *worker.Job) worker.Result {
	var result worker.Result

	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve cruise configuration", err.Error())
		return result
	}
	if err := h.importPublicData(j, e); err != nil {
		result.Fail("Transfer PublicData", err.Error())
		return result
	}
	result.Pass("Transfer PublicData")

	dest := filepath.Join(e.cruiseDir(), publicDataDirName)
	if err := warehouse.SetOwnerGroupPermissions(e.warehouse.Username, dest); err != nil {
		result.Fail("Set ownership and permissions", err.Error())
		return result
	}
	result.Pass("Set ownership and permissions")
	return result
}

// Rsyncs the PublicData share into {cruise}/From_PublicData/.
func (h *Handlers) importPublicData(j *worker.Job, e env) error {
	src := e.warehouse.PublicDataDir
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return &transfer.EnumerationError{Source: src,
			Message: "the PublicData share is not a directory"}
	}
	dest := filepath.Join(e.cruiseDir(), publicDataDirName)
	if err := warehouse.CreateDirectory(dest); err != nil {
		return err
	}

	cmd := transfer.RsyncCommand(j.Ctx, transfer.RsyncOptions{}, nil, "",
		src+string(os.PathSeparator), dest)
	_, err := transfer.RunTransfer(j.Ctx, cmd, 1, j.StepProgress(20, 80))
	return err
}

// Writes the cruise configuration document to {cruise}/{cruiseConfigFn},
// atomically and owned by the warehouse user. Finalizing stamps
// cruiseFinalizedOn with the document's own creation timestamp.
func (e env) exportCruiseConfig(client *api.Client, finalize bool) error {
	doc, err := client.CruiseConfig()
	if err != nil {
		return err
	}
	if finalize {
		var fields map[string]any
		if err := json.Unmarshal(doc, &fields); err != nil {
			return err
		}
		fields["cruiseFinalizedOn"] = fields["configCreatedOn"]
		if doc, err = json.MarshalIndent(fields, "", "    "); err != nil {
			return err
		}
	}
	path := filepath.Join(e.cruiseDir(), e.warehouse.CruiseConfigFn)
	if err := warehouse.AtomicWrite(path, doc, warehouse.FileMode); err != nil {
		return err
	}
	return warehouse.SetOwnerGroupPermissions(e.warehouse.Username, path)
}

// Measures the cruise tree and posts its size to the control plane.
func (e env) publishCruiseSize(client *api.Client) error {
	size, err := warehouse.DirSize(e.cruiseDir())
	if err != nil {
		return err
	}
	return client.SetCruiseSize(size)
}
