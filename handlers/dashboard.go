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
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/rvdm/rvdm/config"
	"github.com/rvdm/rvdm/dashboard"
	"github.com/rvdm/rvdm/warehouse"
	"github.com/rvdm/rvdm/worker"
)

// Parses the files a collection system transfer just moved and folds the
// results into the data-dashboard tree and manifest. A missing plugin means
// the collection system has no dashboard presence, which is not an error.
func (h *Handlers) UpdateDataDashboard(j *worker.Job) worker.Result {
	var result worker.Result

	name := j.Payload.CollectionSystemTransferName
	if name == "" && j.Payload.CollectionSystemTransfer != nil {
		name = j.Payload.CollectionSystemTransfer.Name
	}
	if name == "" {
		result.Fail("Retrieve collection system transfer data",
			"the payload names no collection system transfer")
		return result
	}
	if j.Payload.Files == nil {
		result.Ignore("Retrieve file set")
		return result
	}
	files := lo.Uniq(append(j.Payload.Files.New, j.Payload.Files.Updated...))
	if len(files) == 0 {
		result.Ignore("Retrieve file set")
		return result
	}

	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve cruise configuration", err.Error())
		return result
	}

	plugin, err := dashboard.FindPlugin(config.Dashboard.PluginDir,
		config.Dashboard.PluginSuffix, config.Dashboard.Interpreter, name)
	if err != nil {
		var noPlugin *dashboard.NoPluginError
		if errors.As(err, &noPlugin) {
			result.Ignore("Locate parser plugin")
			return result
		}
		result.Fail("Locate parser plugin", err.Error())
		return result
	}
	result.Pass("Locate parser plugin")
	j.Progress(10)

	lock, err := warehouse.AcquireCruiseLock(e.cruiseDir(), "dashboard")
	if err != nil {
		result.Fail("Lock dashboard manifest", err.Error())
		return result
	}
	defer lock.Release()

	manifestPath := filepath.Join(e.cruiseDir(), dashboardDirName,
		e.warehouse.DataDashboardManifestFn)
	manifest, err := dashboard.Load(manifestPath)
	if err != nil {
		result.Fail("Read dashboard manifest", err.Error())
		return result
	}
	result.Pass("Read dashboard manifest")
	j.Progress(20)

	failures := h.parseIntoDashboard(j, e, plugin, manifest, files,
		j.StepProgress(20, 90))
	if len(failures) > 0 {
		j.Api.SendMessage("Data dashboard errors for "+name,
			strings.Join(failures, "\n"))
	}
	result.Pass("Parse data files")

	if err := e.writeManifest(manifest, manifestPath); err != nil {
		result.Fail("Write dashboard manifest", err.Error())
		return result
	}
	result.Pass("Write dashboard manifest")
	j.Progress(100)
	return result
}

// Re-parses the destination trees of every active collection system
// transfer and rewrites the manifest from scratch.
func (h *Handlers) RebuildDataDashboard(j *worker.Job) worker.Result {
	var result worker.Result

	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve cruise configuration", err.Error())
		return result
	}
	transfers, err := j.Api.ActiveCollectionSystemTransfers()
	if err != nil {
		result.Fail("Retrieve collection system transfers", err.Error())
		return result
	}
	j.Progress(10)

	lock, err := warehouse.AcquireCruiseLock(e.cruiseDir(), "dashboard")
	if err != nil {
		result.Fail("Lock dashboard manifest", err.Error())
		return result
	}
	defer lock.Release()

	manifest := dashboard.New()
	progress := j.StepProgress(10, 90)
	var failures []string
	for i, cst := range transfers {
		plugin, err := dashboard.FindPlugin(config.Dashboard.PluginDir,
			config.Dashboard.PluginSuffix, config.Dashboard.Interpreter, cst.Name)
		if err != nil {
			continue
		}
		destDir, ok := e.resolveDestDir(cst.DestDir, cst.CruiseOrLowering, e.context())
		if !ok {
			continue
		}
		var files []string
		filepath.WalkDir(destDir, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			if rel, err := filepath.Rel(e.cruiseDir(), path); err == nil {
				files = append(files, rel)
			}
			return nil
		})
		failures = append(failures,
			h.parseIntoDashboard(j, e, plugin, manifest, files, nil)...)
		progress(100 * (i + 1) / len(transfers))
	}
	if len(failures) > 0 {
		j.Api.SendMessage("Data dashboard errors", strings.Join(failures, "\n"))
	}
	result.Pass("Parse data files")

	manifestPath := filepath.Join(e.cruiseDir(), dashboardDirName,
		e.warehouse.DataDashboardManifestFn)
	if err := e.writeManifest(manifest, manifestPath); err != nil {
		result.Fail("Write dashboard manifest", err.Error())
		return result
	}
	result.Pass("Write dashboard manifest")
	j.Progress(100)
	return result
}

// Runs the plugin over each cruise-relative raw file, writing the JSON
// output under Dashboard_Data and updating the manifest. A file the plugin
// cannot handle is skipped: its failure is collected, its manifest entry
// removed, and its orphaned dd_json deleted.
func (h *Handlers) parseIntoDashboard(j *worker.Job, e env,
	plugin dashboard.Plugin, manifest *dashboard.Manifest,
	files []string, progress func(int)) []string {
	var failures []string
	for i, rel := range files {
		rawFile := filepath.Join(e.cruiseDir(), rel)
		rawRel := filepath.Join(e.cruise.CruiseID, rel)

		fail := func(message string) {
			failures = append(failures, message)
			if entry, found := manifest.Remove(rawRel); found {
				os.Remove(filepath.Join(e.warehouse.BaseDir, entry.DdJson))
			}
		}

		dataType, err := plugin.DataType(j.Ctx, rawFile)
		if err != nil {
			fail(err.Error())
			continue
		}
		parsed, err := plugin.Parse(j.Ctx, rawFile)
		if err != nil {
			fail(err.Error())
			continue
		}

		jsonRel := filepath.Join(dashboardDirName,
			strings.TrimSuffix(rel, filepath.Ext(rel))+".json")
		jsonPath := filepath.Join(e.cruiseDir(), jsonRel)
		if err := warehouse.CreateDirectory(filepath.Dir(jsonPath)); err != nil {
			fail(err.Error())
			continue
		}
		if err := warehouse.AtomicWrite(jsonPath, parsed, warehouse.FileMode); err != nil {
			fail(err.Error())
			continue
		}
		warehouse.SetOwnerGroupPermissions(e.warehouse.Username, jsonPath)

		manifest.Set(dashboard.Entry{
			Type:    dataType,
			DdJson:  filepath.Join(e.cruise.CruiseID, jsonRel),
			RawData: rawRel,
		})
		if progress != nil {
			progress(100 * (i + 1) / len(files))
		}
	}
	return failures
}

// Writes the manifest owned by the warehouse user.
func (e env) writeManifest(manifest *dashboard.Manifest, path string) error {
	if err := warehouse.CreateDirectory(filepath.Dir(path)); err != nil {
		return err
	}
	if err := manifest.Write(path); err != nil {
		return err
	}
	return warehouse.SetOwnerGroupPermissions(e.warehouse.Username, path)
}
