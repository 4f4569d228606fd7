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

package sizecache

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rvdm/rvdm/api"
	"github.com/rvdm/rvdm/rvdmtest"
)

func TestMeasurePublishesSizes(t *testing.T) {
	baseDir := t.TempDir()
	assert.Nil(t, rvdmtest.WriteTree(filepath.Join(baseDir, "FK250801"),
		map[string]int{
			"a.dat":                 1000,
			"Lowerings/S0312/b.dat": 400,
		}))

	writes := make(map[string]string)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/warehouse/getShipboardDataWarehouseConfig",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"shipboardDataWarehouseBaseDir": %q,
				"loweringDataBaseDir": "Lowerings"}`, baseDir)
		})
	mux.HandleFunc("/api/warehouse/getCurrentCruise",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"cruiseID": "FK250801"}`)
		})
	mux.HandleFunc("/api/warehouse/getShowLoweringComponents",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"showLoweringComponents": "On"}`)
		})
	mux.HandleFunc("/api/warehouse/getCurrentLowering",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"loweringID": "S0312"}`)
		})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			r.ParseForm()
			writes[r.URL.Path] = r.Form.Encode()
			fmt.Fprint(w, `{}`)
			return
		}
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(api.NewClientWithUrl(server.URL, time.Second), time.Second)
	assert.Nil(t, c.measure())

	// both sizes are published; du's exact figure includes directory inodes,
	// so only the shape of the write is asserted here
	assert.Contains(t, writes, "/api/warehouse/setCruiseSize")
	assert.Contains(t, writes, "/api/warehouse/setLoweringSize")
	assert.Contains(t, writes["/api/warehouse/setCruiseSize"], "bytes=")
}

func TestMeasureWithoutCurrentCruise(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/warehouse/getShipboardDataWarehouseConfig",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"shipboardDataWarehouseBaseDir": "/tmp"}`)
		})
	mux.HandleFunc("/api/warehouse/getCurrentCruise",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"cruiseID": ""}`)
		})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(api.NewClientWithUrl(server.URL, time.Second), time.Second)
	assert.Nil(t, c.measure())
}
