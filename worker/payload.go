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

package worker

import (
	"encoding/json"

	"github.com/rvdm/rvdm/api"
)

// A Payload is the decoded form of a broker job's JSON body. It is decoded
// exactly once, at the runtime boundary; every field is optional and a
// handler reads only the fields its task name implies.
type Payload struct {
	CruiseID   string `json:"cruiseID,omitempty"`
	LoweringID string `json:"loweringID,omitempty"`

	// the transfer record this job operates on, when it is a transfer job
	CollectionSystemTransfer *api.CollectionSystemTransfer `json:"collectionSystemTransfer,omitempty"`
	CruiseDataTransfer       *api.CruiseDataTransfer       `json:"cruiseDataTransfer,omitempty"`

	// the name of the collection system a dashboard or hook job refers to
	CollectionSystemTransferName string `json:"collectionSystemTransferName,omitempty"`

	// file sets produced by the job this one was chained from
	Files *FileSet `json:"files,omitempty"`

	// the pid a stopJob request targets
	Pid int `json:"pid,string,omitempty"`
}

// Decodes a job body. An empty body is a valid empty payload; several task
// names take no arguments at all.
func DecodePayload(data []byte) (Payload, error) {
	var payload Payload
	if len(data) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, &PayloadError{Message: err.Error()}
	}
	return payload, nil
}

// Encodes a payload for submission to the broker.
func (p Payload) Encode() []byte {
	data, _ := json.Marshal(p)
	return data
}
