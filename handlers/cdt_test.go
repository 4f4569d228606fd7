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
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rvdm/rvdm/api"
	"github.com/rvdm/rvdm/worker"
)

// a fake control plane serving the records the exclusion assembler reads
func newExclusionControlPlane() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/collectionSystemTransfers/getCollectionSystemTransfers",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[
				{"collectionSystemTransferID": "3", "name": "EM324",
				 "destDir": "raw/em324", "cruiseOrLowering": "0"},
				{"collectionSystemTransferID": "5", "name": "Sealog",
				 "destDir": "{loweringID}/sealog", "cruiseOrLowering": "0"}
			]`)
		})
	mux.HandleFunc("/api/extraDirectories/getExtraDirectories",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[
				{"extraDirectoryID": "2", "name": "Products",
				 "destDir": "Products", "cruiseOrLowering": "0"}
			]`)
		})
	mux.HandleFunc("/api/warehouse/getLowerings",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `["S0311", "S0312"]`)
		})
	return httptest.NewServer(mux)
}

func TestCdtExcludes(t *testing.T) {
	server := newExclusionControlPlane()
	defer server.Close()

	e := testEnv(t)
	j := &worker.Job{Api: api.NewClientWithUrl(server.URL, time.Second)}

	cdt := &api.CruiseDataTransfer{
		IncludeOVDMFiles:          "0",
		ExcludedCollectionSystems: "3,5",
		ExcludedExtraDirectories:  "2",
	}
	excludes, err := e.cdtExcludes(j, cdt)
	assert.Nil(t, err)

	assert.Contains(t, excludes, "--exclude=CruiseConfig.json")
	assert.Contains(t, excludes, "--exclude=MD5_Summary.txt")
	assert.Contains(t, excludes, "--exclude=MD5_Summary.md5")
	assert.Contains(t, excludes, "--exclude=raw/em324/*")
	assert.Contains(t, excludes, "--exclude=Products/*")

	// the lowering-templated destination expands once per lowering
	assert.Contains(t, excludes, "--exclude=S0311/sealog/*")
	assert.Contains(t, excludes, "--exclude=S0312/sealog/*")
}

func TestCdtExcludesHonorsIncludeOVDMFiles(t *testing.T) {
	server := newExclusionControlPlane()
	defer server.Close()

	e := testEnv(t)
	j := &worker.Job{Api: api.NewClientWithUrl(server.URL, time.Second)}

	cdt := &api.CruiseDataTransfer{IncludeOVDMFiles: "1"}
	excludes, err := e.cdtExcludes(j, cdt)
	assert.Nil(t, err)
	assert.Empty(t, excludes)
}
