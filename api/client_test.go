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

package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// a fake control plane serving canned responses and recording writes
func newFakeControlPlane(t *testing.T, writes *map[string]string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/warehouse/getShipboardDataWarehouseConfig",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{
				"shipboardDataWarehouseBaseDir": "/vault/CruiseData",
				"loweringDataBaseDir": "Lowerings",
				"shipboardDataWarehouseUsername": "survey",
				"md5SummaryFn": "MD5_Summary.txt",
				"md5SummaryMd5Fn": "MD5_Summary.md5",
				"cruiseConfigFn": "CruiseConfig.json",
				"loweringConfigFn": "LoweringConfig.json",
				"dataDashboardManifestFn": "manifest.json"
			}`)
		})
	mux.HandleFunc("/api/warehouse/getCurrentCruise",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"cruiseID": "FK250801",
				"cruiseStartDate": "2025/08/01 00:00",
				"cruiseEndDate": "2025/08/20 00:00",
				"cruiseFinalizedOn": ""}`)
		})
	mux.HandleFunc("/api/collectionSystemTransfers/getActiveCollectionSystemTransfers",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{
				"collectionSystemTransferID": "3",
				"name": "EM324",
				"longName": "EM324 Multibeam",
				"status": "2",
				"enable": "1",
				"transferType": "rsync",
				"sourceDir": "/data/em324",
				"destDir": "raw/{cruiseID}/em324",
				"cruiseOrLowering": "0",
				"syncFromSource": "1",
				"staleness": "5",
				"bandwidthLimit": "0",
				"useStartDate": "0",
				"includeFilter": "*.all,*.kmall",
				"excludeFilter": "",
				"ignoreFilter": ""
			}]`)
		})
	mux.HandleFunc("/api/tasks/getTasks",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[
				{"taskID": "4", "name": "rebuildMD5Summary",
				 "longName": "Rebuild MD5 Summary", "status": "2", "enable": "1"}
			]`)
		})
	mux.HandleFunc("/api/warehouse/getMd5FilesizeLimit",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"md5FilesizeLimit": "10", "md5FilesizeLimitStatus": "On"}`)
		})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			r.ParseForm()
			(*writes)[r.URL.Path] = r.Form.Encode()
			fmt.Fprint(w, `{}`)
			return
		}
		http.NotFound(w, r)
	})
	return httptest.NewServer(mux)
}

func TestWarehouseConfig(t *testing.T) {
	writes := make(map[string]string)
	server := newFakeControlPlane(t, &writes)
	defer server.Close()
	client := NewClientWithUrl(server.URL, time.Second)

	cfg, err := client.WarehouseConfig()
	assert.Nil(t, err)
	assert.Equal(t, "/vault/CruiseData", cfg.BaseDir)
	assert.Equal(t, "Lowerings", cfg.LoweringDataBaseDir)
	assert.Equal(t, "MD5_Summary.txt", cfg.Md5SummaryFn)
}

func TestCurrentCruise(t *testing.T) {
	writes := make(map[string]string)
	server := newFakeControlPlane(t, &writes)
	defer server.Close()
	client := NewClientWithUrl(server.URL, time.Second)

	cruise, err := client.CurrentCruise()
	assert.Nil(t, err)
	assert.Equal(t, "FK250801", cruise.CruiseID)
	start, err := ParseDate(cruise.StartDate)
	assert.Nil(t, err)
	assert.Equal(t, 2025, start.Year())

	// an empty date parses to the zero time
	finalized, err := ParseDate(cruise.FinalizedOn)
	assert.Nil(t, err)
	assert.True(t, finalized.IsZero())
}

func TestActiveCollectionSystemTransfers(t *testing.T) {
	writes := make(map[string]string)
	server := newFakeControlPlane(t, &writes)
	defer server.Close()
	client := NewClientWithUrl(server.URL, time.Second)

	transfers, err := client.ActiveCollectionSystemTransfers()
	assert.Nil(t, err)
	assert.Len(t, transfers, 1)
	cst := transfers[0]
	assert.Equal(t, "EM324", cst.Name)
	assert.Equal(t, KindRsync, cst.TransferType)
	assert.Equal(t, 5, cst.Staleness)
	assert.True(t, cst.SyncFromSource.Bool())
	assert.False(t, cst.UseStartDate.Bool())
}

func TestTaskByName(t *testing.T) {
	writes := make(map[string]string)
	server := newFakeControlPlane(t, &writes)
	defer server.Close()
	client := NewClientWithUrl(server.URL, time.Second)

	task, err := client.TaskByName("rebuildMD5Summary")
	assert.Nil(t, err)
	assert.Equal(t, "4", task.TaskID)
	assert.False(t, task.Synthetic())

	_, err = client.TaskByName("noSuchTask")
	assert.NotNil(t, err)
	assert.IsType(t, &NotFoundError{}, err)
}

func TestMd5FilesizeLimit(t *testing.T) {
	writes := make(map[string]string)
	server := newFakeControlPlane(t, &writes)
	defer server.Close()
	client := NewClientWithUrl(server.URL, time.Second)

	limit, enforced, err := client.Md5FilesizeLimit()
	assert.Nil(t, err)
	assert.Equal(t, int64(10), limit)
	assert.True(t, enforced)
}

func TestStateTransitions(t *testing.T) {
	writes := make(map[string]string)
	server := newFakeControlPlane(t, &writes)
	defer server.Close()
	client := NewClientWithUrl(server.URL, time.Second)

	assert.Nil(t, client.SetRunningCollectionSystemTransfer("3", 1234, "H:job:1"))
	assert.Contains(t, writes["/api/collectionSystemTransfers/setRunningCollectionSystemTransfer/3"], "pid=1234")

	assert.Nil(t, client.SetErrorTask("4", "the dog ate it"))
	assert.Contains(t, writes["/api/tasks/setErrorTask/4"], "reason=")

	assert.Nil(t, client.SendMessage("Data Transfer failed", "connection refused"))
	assert.Contains(t, writes["/api/messages/newMessage"], "messageTitle=")
}

func TestUnreachableControlPlane(t *testing.T) {
	client := NewClientWithUrl("http://127.0.0.1:1", 100*time.Millisecond)
	_, err := client.CurrentCruise()
	assert.NotNil(t, err)
	assert.IsType(t, &TransportError{}, err)
}
