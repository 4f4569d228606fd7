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

package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rvdm/rvdm/api"
	"github.com/rvdm/rvdm/worker"
)

// a submitter that records every background submission
type fakeSubmitter struct {
	jobs     []string
	payloads [][]byte
}

func (f *fakeSubmitter) SubmitBackground(jobName string, payload []byte) (string, error) {
	f.jobs = append(f.jobs, jobName)
	f.payloads = append(f.payloads, payload)
	return "H:fake:1", nil
}

func (f *fakeSubmitter) SubmitAndWait(ctx context.Context, jobName string,
	payload []byte) ([]byte, error) {
	return nil, nil
}

func newFakeControlPlane(systemOn bool) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/warehouse/getSystemStatus",
		func(w http.ResponseWriter, r *http.Request) {
			status := "Off"
			if systemOn {
				status = "On"
			}
			fmt.Fprintf(w, `{"systemStatus": "%s"}`, status)
		})
	mux.HandleFunc("/api/collectionSystemTransfers/getActiveCollectionSystemTransfers",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[
				{"collectionSystemTransferID": "3", "name": "EM324", "enable": "1"},
				{"collectionSystemTransferID": "5", "name": "Sealog", "enable": "1"}
			]`)
		})
	mux.HandleFunc("/api/cruiseDataTransfers/getCruiseDataTransfers",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[
				{"cruiseDataTransferID": "1", "name": "ShoreNAS", "enable": "1"},
				{"cruiseDataTransferID": "2", "name": "Disabled", "enable": "0"}
			]`)
		})
	mux.HandleFunc("/api/cruiseDataTransfers/getRequiredCruiseDataTransfers",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[
				{"cruiseDataTransferID": "9", "name": "SSDW", "enable": "1", "required": "1"}
			]`)
		})
	mux.HandleFunc("/api/warehouse/getLogfilePurgeInterval",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"logfilePurgeInterval": ""}`)
		})
	mux.HandleFunc("/api/warehouse/getShipboardDataWarehouseConfig",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"shipboardDataWarehouseBaseDir": "/nonexistent"}`)
		})
	mux.HandleFunc("/api/warehouse/getCurrentCruise",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"cruiseID": "FK250801"}`)
		})
	return httptest.NewServer(mux)
}

func TestTickSubmitsTransferJobs(t *testing.T) {
	server := newFakeControlPlane(true)
	defer server.Close()

	submitter := &fakeSubmitter{}
	s := New(api.NewClientWithUrl(server.URL, time.Second), submitter, time.Minute)
	s.tick(context.Background())

	assert.Equal(t, []string{
		"runCollectionSystemTransfer",
		"runCollectionSystemTransfer",
		"runCruiseDataTransfer",
		"runShipToShoreTransfer",
	}, submitter.jobs)

	// each submission carries the record it should run
	var payload worker.Payload
	assert.Nil(t, json.Unmarshal(submitter.payloads[0], &payload))
	assert.Equal(t, "EM324", payload.CollectionSystemTransfer.Name)
	assert.Nil(t, json.Unmarshal(submitter.payloads[3], &payload))
	assert.Equal(t, "SSDW", payload.CruiseDataTransfer.Name)
}

func TestTickRespectsSystemStatus(t *testing.T) {
	server := newFakeControlPlane(false)
	defer server.Close()

	submitter := &fakeSubmitter{}
	s := New(api.NewClientWithUrl(server.URL, time.Second), submitter, time.Minute)
	s.tick(context.Background())
	assert.Empty(t, submitter.jobs)
}

func TestUntilNextMinute(t *testing.T) {
	now := time.Date(2025, 8, 10, 14, 30, 15, 0, time.UTC)
	assert.Equal(t, 45*time.Second, untilNextMinute(now))

	boundary := time.Date(2025, 8, 10, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Minute, untilNextMinute(boundary))
}
