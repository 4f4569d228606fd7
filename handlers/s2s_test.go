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

func newShoreControlPlane() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/shipToShoreTransfers/getShipToShoreTransfers",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[
				{"shipToShoreTransferID": "10", "name": "NavData",
				 "priority": "2", "enable": "1",
				 "collectionSystem": "3", "extraDirectory": "0",
				 "includeFilter": "*.txt,*.csv"},
				{"shipToShoreTransferID": "11", "name": "Disabled",
				 "priority": "1", "enable": "0",
				 "collectionSystem": "0", "extraDirectory": "0",
				 "includeFilter": "*.bin"}
			]`)
		})
	mux.HandleFunc("/api/shipToShoreTransfers/getRequiredShipToShoreTransfers",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[
				{"shipToShoreTransferID": "12", "name": "DiveReports",
				 "priority": "1", "enable": "1", "required": "1",
				 "collectionSystem": "5", "extraDirectory": "0",
				 "includeFilter": "*.pdf"}
			]`)
		})
	mux.HandleFunc("/api/collectionSystemTransfers/getCollectionSystemTransfers",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[
				{"collectionSystemTransferID": "3", "name": "NavLogger",
				 "destDir": "nav", "cruiseOrLowering": "0"},
				{"collectionSystemTransferID": "5", "name": "Sealog",
				 "destDir": "sealog", "cruiseOrLowering": "1"}
			]`)
		})
	mux.HandleFunc("/api/extraDirectories/getExtraDirectories",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[]`)
		})
	mux.HandleFunc("/api/warehouse/getLowerings",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `["S0311", "S0312"]`)
		})
	return httptest.NewServer(mux)
}

func TestShoreIncludePatterns(t *testing.T) {
	server := newShoreControlPlane()
	defer server.Close()

	h := New(nil)
	e := testEnv(t)
	j := &worker.Job{Api: api.NewClientWithUrl(server.URL, time.Second)}

	patterns, err := h.shoreIncludePatterns(j, e)
	assert.Nil(t, err)

	// the required lowering-scoped bundle outranks the cruise-scoped one and
	// fans out across both lowerings
	assert.Equal(t, []string{
		"Lowerings/S0311/sealog/*.pdf",
		"Lowerings/S0312/sealog/*.pdf",
		"nav/*.txt",
		"nav/*.csv",
	}, patterns)
}

func TestShoreIncludePatternsSkipsDisabledBundles(t *testing.T) {
	server := newShoreControlPlane()
	defer server.Close()

	h := New(nil)
	j := &worker.Job{Api: api.NewClientWithUrl(server.URL, time.Second)}

	patterns, err := h.shoreIncludePatterns(j, testEnv(t))
	assert.Nil(t, err)
	assert.NotContains(t, patterns, "*.bin")
}
