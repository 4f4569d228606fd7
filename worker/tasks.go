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

import "github.com/rvdm/rvdm/api"

// Tasks owned by a transfer record or chained from another job have no row
// in the control plane's task table. They are tracked via trackGearmanJob
// instead of the task status machine.
var syntheticTasks = map[string]api.Task{
	"runCollectionSystemTransfer":  {TaskID: "0", Name: "runCollectionSystemTransfer", LongName: "Run Collection System Transfer"},
	"testCollectionSystemTransfer": {TaskID: "0", Name: "testCollectionSystemTransfer", LongName: "Test Collection System Transfer"},
	"runCruiseDataTransfer":        {TaskID: "0", Name: "runCruiseDataTransfer", LongName: "Run Cruise Data Transfer"},
	"testCruiseDataTransfer":       {TaskID: "0", Name: "testCruiseDataTransfer", LongName: "Test Cruise Data Transfer"},
	"runShipToShoreTransfer":       {TaskID: "0", Name: "runShipToShoreTransfer", LongName: "Run Ship-to-Shore Transfer"},
	"updateMD5Summary":             {TaskID: "0", Name: "updateMD5Summary", LongName: "Update MD5 Summary"},
	"updateDataDashboard":          {TaskID: "0", Name: "updateDataDashboard", LongName: "Update Data Dashboard"},
	"stopJob":                      {TaskID: "0", Name: "stopJob", LongName: "Stop Job"},

	"postCollectionSystemTransfer": {TaskID: "0", Name: "postCollectionSystemTransfer", LongName: "Post Collection System Transfer Hook"},
	"postDataDashboard":            {TaskID: "0", Name: "postDataDashboard", LongName: "Post Data Dashboard Hook"},
	"postSetupNewCruise":           {TaskID: "0", Name: "postSetupNewCruise", LongName: "Post Setup New Cruise Hook"},
	"postSetupNewLowering":         {TaskID: "0", Name: "postSetupNewLowering", LongName: "Post Setup New Lowering Hook"},
	"preFinalizeCurrentCruise":     {TaskID: "0", Name: "preFinalizeCurrentCruise", LongName: "Pre Finalize Current Cruise Hook"},
	"postFinalizeCurrentCruise":    {TaskID: "0", Name: "postFinalizeCurrentCruise", LongName: "Post Finalize Current Cruise Hook"},
	"preFinalizeCurrentLowering":   {TaskID: "0", Name: "preFinalizeCurrentLowering", LongName: "Pre Finalize Current Lowering Hook"},
	"postFinalizeCurrentLowering":  {TaskID: "0", Name: "postFinalizeCurrentLowering", LongName: "Post Finalize Current Lowering Hook"},
}

// Resolves task metadata: the built-in table first, then the control plane's
// task table.
func (r *Runtime) findTask(name string) (api.Task, error) {
	if task, found := syntheticTasks[name]; found {
		return task, nil
	}
	task, err := r.api.TaskByName(name)
	if err != nil {
		return api.Task{}, &UnknownTaskError{Name: name}
	}
	return task, nil
}
