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
	"context"
	"log/slog"
	"time"
)

// Follow-on jobs chained after a Pass verdict, in submission order. A
// successful collection system transfer refreshes the dashboard and MD5
// summary before its user-configured hook fires.
var followOnJobs = map[string][]string{
	"setupNewCruise":              {"postSetupNewCruise"},
	"finalizeCurrentCruise":       {"postFinalizeCurrentCruise"},
	"setupNewLowering":            {"postSetupNewLowering"},
	"finalizeCurrentLowering":     {"postFinalizeCurrentLowering"},
	"runCollectionSystemTransfer": {"updateDataDashboard", "updateMD5Summary", "postCollectionSystemTransfer"},
	"updateDataDashboard":         {"postDataDashboard"},
	"rebuildDataDashboard":        {"postDataDashboard"},
}

// Hook jobs a task must run synchronously before its main body.
var preHookJobs = map[string]string{
	"finalizeCurrentLowering": "preFinalizeCurrentLowering",
}

// Builds the payload a chained job receives: a snapshot of the originating
// job's identity and file sets. The chained job observes no later updates.
func hookPayload(p Payload, result Result) Payload {
	hook := Payload{
		CruiseID:   p.CruiseID,
		LoweringID: p.LoweringID,
		Files:      result.Files,
	}
	if p.CollectionSystemTransfer != nil {
		hook.CollectionSystemTransfer = p.CollectionSystemTransfer
		hook.CollectionSystemTransferName = p.CollectionSystemTransfer.Name
	}
	return hook
}

// Submits the follow-on jobs for a task that just passed. Submission
// failures are logged; the originating job has already reported its verdict.
func (r *Runtime) chainFollowOnJobs(taskName string, p Payload, result Result) {
	hook := hookPayload(p, result)
	for _, jobName := range followOnJobs[taskName] {
		if _, err := r.broker.SubmitBackground(jobName, hook.Encode()); err != nil {
			slog.Error("Couldn't submit follow-on job", "job", jobName, "error", err)
		}
	}
}

// Runs a task's pre-hook job and waits for it, bounded so a wedged hook
// worker cannot hold the main body hostage forever.
func (r *Runtime) runPreHook(ctx context.Context, taskName string, p Payload) {
	jobName, found := preHookJobs[taskName]
	if !found {
		return
	}
	hookCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()
	if _, err := r.broker.SubmitAndWait(hookCtx, jobName, hookPayload(p, Result{}).Encode()); err != nil {
		slog.Error("Pre-hook job failed", "job", jobName, "error", err)
	}
}
