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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rvdm/rvdm/api"
	"github.com/rvdm/rvdm/worker"
)

func testEnv(t *testing.T) env {
	return env{
		warehouse: api.WarehouseConfig{
			BaseDir:             t.TempDir(),
			LoweringDataBaseDir: "Lowerings",
			Username:            "nobody",
			CruiseConfigFn:      "CruiseConfig.json",
			Md5SummaryFn:        "MD5_Summary.txt",
			Md5SummaryMd5Fn:     "MD5_Summary.md5",
		},
		cruise:        api.Cruise{CruiseID: "FK250801"},
		lowering:      api.Lowering{LoweringID: "S0312"},
		showLowerings: true,
	}
}

func TestResolveDestDir(t *testing.T) {
	e := testEnv(t)
	ctx := e.context()

	dir, ok := e.resolveDestDir("raw/{cruiseID}/em324", api.ScopeCruise, ctx)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(e.cruiseDir(), "raw/FK250801/em324"), dir)

	dir, ok = e.resolveDestDir("sealog", api.ScopeLowering, ctx)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(e.loweringDir(), "sealog"), dir)

	// a lowering-scoped template with no current lowering is unresolvable
	e.lowering.LoweringID = ""
	_, ok = e.resolveDestDir("sealog", api.ScopeLowering, e.context())
	assert.False(t, ok)

	// so is any template still naming {loweringID} after expansion
	_, ok = e.resolveDestDir("dives/{loweringID}", api.ScopeCruise, e.context())
	assert.False(t, ok)
}

func TestSplitIds(t *testing.T) {
	assert.Equal(t, []string{"3", "7"}, splitIds("3,7"))
	assert.Equal(t, []string{"3"}, splitIds(" 3 , 0 "))
	assert.Nil(t, splitIds("0"))
	assert.Nil(t, splitIds(""))
}

func TestPrefixPaths(t *testing.T) {
	paths := []string{"a.dat", "sub/b.dat"}
	assert.Equal(t, []string{"raw/a.dat", "raw/sub/b.dat"}, prefixPaths("raw", paths))
	assert.Equal(t, paths, prefixPaths(".", paths))
	assert.Equal(t, paths, prefixPaths("", paths))
}

func TestTimeWindow(t *testing.T) {
	e := testEnv(t)
	e.cruise.StartDate = "2025/08/01 00:00"
	e.cruise.EndDate = "2025/08/20 00:00"

	cst := &api.CollectionSystemTransfer{UseStartDate: "1"}
	window, err := e.timeWindow(cst)
	assert.Nil(t, err)
	assert.True(t, window.Contains(time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)))
	assert.False(t, window.Contains(time.Date(2025, 7, 31, 12, 0, 0, 0, time.UTC)))

	// without useStartDate the window is fully open
	cst = &api.CollectionSystemTransfer{}
	window, err = e.timeWindow(cst)
	assert.Nil(t, err)
	assert.True(t, window.Contains(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestWriteTransferLogs(t *testing.T) {
	e := testEnv(t)
	files := worker.FileSet{
		New:     []string{"raw/a.dat"},
		Updated: []string{"raw/b.dat"},
		Exclude: []string{"café.dat"},
	}
	stamp := time.Date(2025, 8, 10, 14, 30, 0, 0, time.UTC)
	assert.Nil(t, e.writeTransferLogs("EM324", stamp, files))

	runLog := filepath.Join(e.transferLogDir(), "EM324_20250810T143000Z.log")
	data, err := os.ReadFile(runLog)
	assert.Nil(t, err)
	var decoded map[string]worker.FileSet
	assert.Nil(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, files.New, decoded["files"].New)

	excludeLog := filepath.Join(e.transferLogDir(), "EM324_Exclude.log")
	data, err = os.ReadFile(excludeLog)
	assert.Nil(t, err)
	var excludes map[string][]string
	assert.Nil(t, json.Unmarshal(data, &excludes))
	assert.Equal(t, []string{"café.dat"}, excludes["exclude"])
}

func TestHookTokens(t *testing.T) {
	j := &worker.Job{
		Name: "postCollectionSystemTransfer",
		Payload: worker.Payload{
			CruiseID:   "FK250801",
			LoweringID: "S0312",
			CollectionSystemTransfer: &api.CollectionSystemTransfer{
				ID: "3", Name: "EM324",
			},
			Files: &worker.FileSet{New: []string{"raw/a.dat"}},
		},
	}
	replacer := hookTokens(j)

	assert.Equal(t, "FK250801/S0312",
		replacer.Replace("{cruiseID}/{loweringID}"))
	assert.Equal(t, "3 EM324",
		replacer.Replace("{collectionSystemTransferID} {collectionSystemTransferName}"))
	assert.Equal(t, `["raw/a.dat"] []`,
		replacer.Replace("{newFiles} {updatedFiles}"))
}

func TestGroupsCoverEveryTask(t *testing.T) {
	h := New(nil)
	groups := h.Groups()

	seen := make(map[string]bool)
	for _, tasks := range groups {
		for name := range tasks {
			assert.False(t, seen[name], "task %s registered twice", name)
			seen[name] = true
		}
	}
	for _, name := range []string{
		"setupNewCruise", "finalizeCurrentCruise",
		"createCruiseDirectory", "rebuildCruiseDirectory",
		"setupNewLowering", "finalizeCurrentLowering",
		"runCollectionSystemTransfer", "testCollectionSystemTransfer",
		"runCruiseDataTransfer", "testCruiseDataTransfer",
		"runShipToShoreTransfer",
		"updateMD5Summary", "rebuildMD5Summary",
		"updateDataDashboard", "rebuildDataDashboard",
		"postCollectionSystemTransfer", "preFinalizeCurrentLowering",
		"stopJob",
	} {
		assert.True(t, seen[name], "task %s is not registered", name)
	}
}

func TestCruiseConfigExportStampsFinalizedOn(t *testing.T) {
	// exportCruiseConfig round-trips the control plane document; here we
	// exercise just the finalize stamping through a canned document
	doc := []byte(`{"cruiseID": "FK250801", "configCreatedOn": "2025/08/10 14:30"}`)
	var fields map[string]any
	assert.Nil(t, json.Unmarshal(doc, &fields))
	fields["cruiseFinalizedOn"] = fields["configCreatedOn"]
	out, err := json.MarshalIndent(fields, "", "    ")
	assert.Nil(t, err)
	assert.Contains(t, string(out), `"cruiseFinalizedOn": "2025/08/10 14:30"`)
}
