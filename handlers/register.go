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
	"github.com/rvdm/rvdm/worker"
)

// Each worker binary subscribes to one group of task names.
func (h *Handlers) Groups() map[string]map[string]worker.HandlerFunc {
	return map[string]map[string]worker.HandlerFunc{
		"cruise": {
			"setupNewCruise":              h.SetupNewCruise,
			"finalizeCurrentCruise":       h.FinalizeCurrentCruise,
			"exportOVDMConfig":            h.ExportOVDMConfig,
			"rsyncPublicDataToCruiseData": h.RsyncPublicDataToCruiseData,
		},
		"cruise-directory": {
			"createCruiseDirectory":             h.CreateCruiseDirectory,
			"rebuildCruiseDirectory":            h.RebuildCruiseDirectory,
			"setCruiseDataDirectoryPermissions": h.SetCruiseDataDirectoryPermissions,
		},
		"lowering": {
			"setupNewLowering":        h.SetupNewLowering,
			"finalizeCurrentLowering": h.FinalizeCurrentLowering,
			"exportLoweringConfig":    h.ExportLoweringConfig,
		},
		"lowering-directory": {
			"createLoweringDirectory":             h.CreateLoweringDirectory,
			"rebuildLoweringDirectory":            h.RebuildLoweringDirectory,
			"setLoweringDataDirectoryPermissions": h.SetLoweringDataDirectoryPermissions,
		},
		"cst": {
			"runCollectionSystemTransfer":  h.RunCollectionSystemTransfer,
			"testCollectionSystemTransfer": h.TestCollectionSystemTransfer,
		},
		"cdt": {
			"runCruiseDataTransfer":  h.RunCruiseDataTransfer,
			"testCruiseDataTransfer": h.TestCruiseDataTransfer,
		},
		"s2s": {
			"runShipToShoreTransfer": h.RunShipToShoreTransfer,
		},
		"md5": {
			"updateMD5Summary":  h.UpdateMD5Summary,
			"rebuildMD5Summary": h.RebuildMD5Summary,
		},
		"dashboard": {
			"updateDataDashboard":  h.UpdateDataDashboard,
			"rebuildDataDashboard": h.RebuildDataDashboard,
		},
		"post-hooks": {
			"postCollectionSystemTransfer": h.PostHook,
			"postDataDashboard":            h.PostHook,
			"postSetupNewCruise":           h.PostHook,
			"postSetupNewLowering":         h.PostHook,
			"preFinalizeCurrentCruise":     h.PostHook,
			"postFinalizeCurrentCruise":    h.PostHook,
			"preFinalizeCurrentLowering":   h.PostHook,
			"postFinalizeCurrentLowering":  h.PostHook,
		},
		"stop-job": {
			"stopJob": h.StopJob,
		},
	}
}

// Subscribes the named group's handlers on a runtime. Unknown groups
// register nothing.
func (h *Handlers) Register(r *worker.Runtime, group string) bool {
	tasks, found := h.Groups()[group]
	if !found {
		return false
	}
	for name, handler := range tasks {
		r.Register(name, handler)
	}
	return true
}
