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
	"log/slog"
	"strconv"
	"syscall"

	"github.com/rvdm/rvdm/worker"
)

// Stops a running job on operator request: finds which record owns the pid
// carried in the payload, sends the worker process a SIGQUIT, and sets the
// record idle. A missing pid or unknown owner is not an error.
func (h *Handlers) StopJob(j *worker.Job) worker.Result {
	var result worker.Result

	pid := j.Payload.Pid
	if pid == 0 {
		result.Ignore("Find job owner")
		return result
	}

	idle, owner, err := findPidOwner(j, pid)
	if err != nil {
		result.Fail("Find job owner", err.Error())
		return result
	}
	if idle == nil {
		slog.Warn(fmt.Sprintf("no record owns pid %d", pid))
		result.Ignore("Find job owner")
		return result
	}
	result.Pass("Find job owner")
	j.Progress(30)

	if err := syscall.Kill(pid, syscall.SIGQUIT); err != nil && err != syscall.ESRCH {
		result.Fail("Stop job", err.Error())
		return result
	}
	result.Pass("Stop job")
	j.Progress(60)

	if err := idle(); err != nil {
		result.Fail("Set record idle", err.Error())
		return result
	}
	result.Pass("Set record idle")

	j.Api.SendMessage("Manual Stop", "The running job for "+owner+" was stopped")
	j.Progress(100)
	return result
}

// Walks collection system transfers, cruise data transfers, and tasks
// looking for the record whose tracked pid matches. Returns the idle setter
// for that record, or nil when nothing owns the pid.
func findPidOwner(j *worker.Job, pid int) (func() error, string, error) {
	pidStr := strconv.Itoa(pid)

	transfers, err := j.Api.CollectionSystemTransfers()
	if err != nil {
		return nil, "", err
	}
	for _, cst := range transfers {
		if cst.Pid == pidStr {
			id := cst.ID
			return func() error { return j.Api.SetIdleCollectionSystemTransfer(id) },
				cst.LongName, nil
		}
	}

	cdts, err := j.Api.CruiseDataTransfers()
	if err != nil {
		return nil, "", err
	}
	for _, cdt := range cdts {
		if cdt.Pid == pidStr {
			id := cdt.ID
			return func() error { return j.Api.SetIdleCruiseDataTransfer(id) },
				cdt.LongName, nil
		}
	}

	tasks, err := j.Api.Tasks()
	if err != nil {
		return nil, "", err
	}
	for _, task := range tasks {
		if task.Pid == pidStr {
			id := task.TaskID
			return func() error { return j.Api.SetIdleTask(id) },
				task.LongName, nil
		}
	}
	return nil, "", nil
}
