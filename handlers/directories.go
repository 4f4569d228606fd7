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
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/rvdm/rvdm/api"
	"github.com/rvdm/rvdm/filespec"
	"github.com/rvdm/rvdm/warehouse"
	"github.com/rvdm/rvdm/worker"
)

func (h *Handlers) CreateCruiseDirectory(j *worker.Job) worker.Result {
	return h.buildCruiseDirectories(j, false)
}

func (h *Handlers) RebuildCruiseDirectory(j *worker.Job) worker.Result {
	return h.buildCruiseDirectories(j, true)
}

// Creates (or re-creates) the cruise directory tree: the union of the cruise
// root, required and active extra directories, the lowering base dir, and
// every active collection-system destination that is fully resolvable.
func (h *Handlers) buildCruiseDirectories(j *worker.Job, rebuild bool) worker.Result {
	var result worker.Result

	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve cruise configuration", err.Error())
		return result
	}
	if rebuild {
		if info, err := os.Stat(e.cruiseDir()); err != nil || !info.IsDir() {
			result.Fail("Verify cruise directory",
				"The cruise directory "+e.cruiseDir()+" does not exist")
			return result
		}
		result.Pass("Verify cruise directory")
	}

	dirs, err := h.cruiseDirectorySet(j, e)
	if err != nil {
		result.Fail("Determine directory set", err.Error())
		return result
	}
	result.Pass("Determine directory set")
	j.Progress(30)

	var failures []string
	for _, dir := range dirs {
		if err := warehouse.CreateDirectory(dir); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		result.Fail("Create directories", strings.Join(failures, "; "))
		return result
	}
	result.Pass("Create directories")
	j.Progress(60)

	if hideSiblings, err := j.Api.ShowOnlyCurrentCruiseDir(); err == nil && hideSiblings {
		if err := warehouse.LockdownSiblings(e.warehouse.BaseDir, e.cruiseDir()); err != nil {
			result.Fail("Lock down sibling cruises", err.Error())
			return result
		}
		result.Pass("Lock down sibling cruises")
	}
	j.Progress(80)

	if err := warehouse.SetOwnerGroupPermissions(e.warehouse.Username, e.cruiseDir()); err != nil {
		result.Fail("Set ownership and permissions", err.Error())
		return result
	}
	result.Pass("Set ownership and permissions")
	j.Progress(100)
	return result
}

// Computes the cruise directory set. Destinations with unresolved lowering
// tokens are skipped when no lowering is current; the PublicData import
// directory appears only when that transfer is enabled.
func (h *Handlers) cruiseDirectorySet(j *worker.Job, e env) ([]string, error) {
	ctx := e.context()
	dirs := []string{e.cruiseDir(), e.transferLogDir(),
		filepath.Join(e.cruiseDir(), dashboardDirName)}

	if e.showLowerings {
		dirs = append(dirs, filepath.Join(e.cruiseDir(), e.warehouse.LoweringDataBaseDir))
		if e.lowering.LoweringID != "" {
			dirs = append(dirs, e.loweringDir())
		}
	}
	if mirrored, err := j.Api.TransferPublicData(); err == nil && mirrored {
		dirs = append(dirs, filepath.Join(e.cruiseDir(), publicDataDirName))
	}

	required, err := j.Api.RequiredExtraDirectories()
	if err != nil {
		return nil, err
	}
	active, err := j.Api.ActiveExtraDirectories()
	if err != nil {
		return nil, err
	}
	for _, extra := range append(required, active...) {
		if dir, ok := e.resolveDestDir(extra.DestDir, extra.CruiseOrLowering, ctx); ok {
			dirs = append(dirs, dir)
		}
	}

	transfers, err := j.Api.ActiveCollectionSystemTransfers()
	if err != nil {
		return nil, err
	}
	for _, cst := range transfers {
		if dir, ok := e.resolveDestDir(cst.DestDir, cst.CruiseOrLowering, ctx); ok {
			dirs = append(dirs, dir)
		}
	}
	return lo.Uniq(dirs), nil
}

// Expands a destination template under the cruise or lowering root. The
// second return is false when the template needs a lowering and none is
// current.
func (e env) resolveDestDir(template, scope string, ctx filespec.Context) (string, bool) {
	expanded := filespec.KeywordReplace(template, ctx)
	if filespec.HasUnresolvedLoweringID(expanded) {
		return "", false
	}
	if scope == api.ScopeLowering {
		if !e.showLowerings || e.lowering.LoweringID == "" {
			return "", false
		}
		return filepath.Join(e.loweringDir(), expanded), true
	}
	return filepath.Join(e.cruiseDir(), expanded), true
}

// Resets ownership and permissions across the cruise-data root, and hides
// sibling cruises when the installation asks for that.
func (h *Handlers) SetCruiseDataDirectoryPermissions(j *worker.Job) worker.Result {
	var result worker.Result

	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve cruise configuration", err.Error())
		return result
	}

	if hideSiblings, err := j.Api.ShowOnlyCurrentCruiseDir(); err == nil && hideSiblings {
		if err := warehouse.LockdownSiblings(e.warehouse.BaseDir, e.cruiseDir()); err != nil {
			result.Fail("Lock down sibling cruises", err.Error())
			return result
		}
		result.Pass("Lock down sibling cruises")
	}
	j.Progress(50)

	if _, err := os.Stat(e.cruiseDir()); err == nil {
		if err := warehouse.SetOwnerGroupPermissions(e.warehouse.Username, e.cruiseDir()); err != nil {
			result.Fail("Set ownership and permissions", err.Error())
			return result
		}
	}
	result.Pass("Set ownership and permissions")
	j.Progress(100)
	return result
}

func (h *Handlers) CreateLoweringDirectory(j *worker.Job) worker.Result {
	return h.buildLoweringDirectories(j, false)
}

func (h *Handlers) RebuildLoweringDirectory(j *worker.Job) worker.Result {
	return h.buildLoweringDirectories(j, true)
}

// The lowering analogue of buildCruiseDirectories, rooted under
// {cruise}/{loweringBaseDir}/{loweringID}.
func (h *Handlers) buildLoweringDirectories(j *worker.Job, rebuild bool) worker.Result {
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
	if rebuild {
		if info, err := os.Stat(e.loweringDir()); err != nil || !info.IsDir() {
			result.Fail("Verify lowering directory",
				"The lowering directory "+e.loweringDir()+" does not exist")
			return result
		}
		result.Pass("Verify lowering directory")
	}

	ctx := e.context()
	dirs := []string{e.loweringDir()}

	extras, err := j.Api.ActiveExtraDirectories()
	if err != nil {
		result.Fail("Determine directory set", err.Error())
		return result
	}
	for _, extra := range extras {
		if extra.CruiseOrLowering != api.ScopeLowering {
			continue
		}
		if dir, ok := e.resolveDestDir(extra.DestDir, extra.CruiseOrLowering, ctx); ok {
			dirs = append(dirs, dir)
		}
	}
	transfers, err := j.Api.ActiveCollectionSystemTransfers()
	if err != nil {
		result.Fail("Determine directory set", err.Error())
		return result
	}
	for _, cst := range transfers {
		if cst.CruiseOrLowering != api.ScopeLowering {
			continue
		}
		if dir, ok := e.resolveDestDir(cst.DestDir, cst.CruiseOrLowering, ctx); ok {
			dirs = append(dirs, dir)
		}
	}
	result.Pass("Determine directory set")
	j.Progress(40)

	var failures []string
	for _, dir := range lo.Uniq(dirs) {
		if err := warehouse.CreateDirectory(dir); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		result.Fail("Create directories", strings.Join(failures, "; "))
		return result
	}
	result.Pass("Create directories")
	j.Progress(70)

	if err := warehouse.SetOwnerGroupPermissions(e.warehouse.Username, e.loweringDir()); err != nil {
		result.Fail("Set ownership and permissions", err.Error())
		return result
	}
	result.Pass("Set ownership and permissions")
	j.Progress(100)
	return result
}

// Resets ownership and permissions across the current lowering directory.
func (h *Handlers) SetLoweringDataDirectoryPermissions(j *worker.Job) worker.Result {
	var result worker.Result

	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve lowering configuration", err.Error())
		return result
	}
	if e.lowering.LoweringID == "" {
		result.Ignore("Verify lowering")
		return result
	}
	if _, err := os.Stat(e.loweringDir()); err == nil {
		if err := warehouse.SetOwnerGroupPermissions(e.warehouse.Username, e.loweringDir()); err != nil {
			result.Fail("Set ownership and permissions", err.Error())
			return result
		}
	}
	result.Pass("Set ownership and permissions")
	return result
}
