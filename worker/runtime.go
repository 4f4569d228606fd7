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

// Package worker is the job runtime shared by every worker binary: it
// subscribes to task names on the broker, decodes payloads, tracks record
// state on the control plane, dispatches to handlers, and chains follow-on
// jobs.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gearworker "github.com/mikespook/gearman-go/worker"

	"github.com/rvdm/rvdm/api"
	"github.com/rvdm/rvdm/broker"
	"github.com/rvdm/rvdm/config"
	"github.com/rvdm/rvdm/journal"
)

// A Job is everything a handler needs to do its work.
type Job struct {
	Ctx     context.Context
	Name    string
	Handle  string
	Payload Payload
	Api     *api.Client
	Task    api.Task

	update func(numerator, denominator int)
}

// Reports overall job progress as a percentage.
func (j *Job) Progress(percent int) {
	if j.update != nil {
		j.update(percent, 100)
	}
}

// Returns a progress function that maps a step's 0..100 range into the
// job's outer lo..hi range.
func (j *Job) StepProgress(lo, hi int) func(int) {
	return func(percent int) {
		j.Progress(lo + (hi-lo)*percent/100)
	}
}

// A HandlerFunc implements one task.
type HandlerFunc func(*Job) Result

// The Runtime owns one broker subscription and runs one job at a time.
type Runtime struct {
	api      *api.Client
	broker   broker.Submitter
	worker   *gearworker.Worker
	handlers map[string]HandlerFunc

	mu            sync.Mutex
	cancelCurrent context.CancelFunc
	quitting      bool
}

// Creates a runtime bound to the control plane and broker.
func New(apiClient *api.Client, submitter broker.Submitter) *Runtime {
	w := gearworker.New(gearworker.OneByOne)
	w.ErrorHandler = func(err error) {
		slog.Error("Broker worker error", "error", err)
	}
	return &Runtime{
		api:      apiClient,
		broker:   submitter,
		worker:   w,
		handlers: make(map[string]HandlerFunc),
	}
}

// Subscribes a handler to a task name.
func (r *Runtime) Register(name string, handler HandlerFunc) {
	r.handlers[name] = handler
	r.worker.AddFunc(name, r.jobFunc(name, handler), gearworker.Unlimited)
}

// Connects to every configured broker server and processes jobs until Quit
// is called.
func (r *Runtime) Run() error {
	for _, server := range config.Broker.Servers {
		if err := r.worker.AddServer("tcp", server); err != nil {
			return &broker.ConnectError{Server: server, Message: err.Error()}
		}
	}
	if err := r.worker.Ready(); err != nil {
		return &broker.ConnectError{Server: strings.Join(config.Broker.Servers, ","),
			Message: err.Error()}
	}
	slog.Info(fmt.Sprintf("Worker subscribed to %d task(s)", len(r.handlers)))
	r.worker.Work()
	return nil
}

// Aborts the current job, if any. The handler observes a cancelled context
// and returns its verdict cleanly.
func (r *Runtime) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelCurrent != nil {
		r.cancelCurrent()
	}
}

// Aborts the current job and unsubscribes from the broker.
func (r *Runtime) Quit() {
	r.mu.Lock()
	r.quitting = true
	if r.cancelCurrent != nil {
		r.cancelCurrent()
	}
	r.mu.Unlock()
	r.worker.Close()
}

func (r *Runtime) jobFunc(name string, handler HandlerFunc) gearworker.JobFunc {
	return func(gj gearworker.Job) ([]byte, error) {
		result := r.execute(name, handler, gj)
		return json.Marshal(result)
	}
}

// the per-job state machine: decode, resolve, mark running, dispatch,
// translate the verdict, chain hooks
func (r *Runtime) execute(name string, handler HandlerFunc, gj gearworker.Job) Result {
	var result Result
	started := time.Now()

	payload, err := DecodePayload(gj.Data())
	if err != nil {
		result.Fail("Retrieve job data", err.Error())
		return result
	}

	task, err := r.findTask(name)
	if err != nil {
		result.Fail("Retrieve job data", err.Error())
		return result
	}

	own := r.resolveOwner(name, task, payload)
	logger := slog.With("task", own.logName)

	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancelCurrent = cancel
	r.mu.Unlock()
	defer func() {
		cancel()
		r.mu.Lock()
		r.cancelCurrent = nil
		r.mu.Unlock()
	}()

	if err := own.setRunning(os.Getpid(), gj.Handle()); err != nil {
		logger.Warn("Couldn't mark the record running", "error", err)
	}

	job := &Job{
		Ctx:     ctx,
		Name:    name,
		Handle:  gj.Handle(),
		Payload: payload,
		Api:     r.api,
		Task:    task,
		update:  gj.UpdateStatus,
	}

	r.runPreHook(ctx, name, payload)

	func() {
		defer func() {
			if p := recover(); p != nil {
				logger.Error(fmt.Sprintf("Worker crashed: %v", p))
				result.Fail("Worker crashed", fmt.Sprintf("%v", p))
			}
		}()
		result = handler(job)
	}()

	final := result.Final()
	switch final.Result {
	case Pass:
		if err := own.setIdle(); err != nil {
			logger.Warn("Couldn't mark the record idle", "error", err)
		}
		r.chainFollowOnJobs(name, payload, result)
	case Fail:
		if err := own.setError(final.Reason); err != nil {
			logger.Warn("Couldn't mark the record errored", "error", err)
		}
		if err := r.api.SendMessage(own.failTitle, final.Reason); err != nil {
			logger.Warn("Couldn't post the failure message", "error", err)
		}
	case Ignore:
		// a no-op job leaves record state untouched
	}
	logger.Info(fmt.Sprintf("Job finished with verdict %s", final.Result))

	r.recordTransferRun(payload, result, started)
	return result
}

// the record a job's verdict is applied to
type owner struct {
	logName    string
	failTitle  string
	setRunning func(pid int, handle string) error
	setIdle    func() error
	setError   func(reason string) error
}

func noopIdle() error        { return nil }
func noopError(string) error { return nil }

// Binds the verdict callbacks to whichever record owns this job: a
// collection system transfer, a cruise data transfer, a real task, or (for
// synthetic tasks) just the gearman job tracker.
func (r *Runtime) resolveOwner(name string, task api.Task, payload Payload) owner {
	isTest := strings.HasPrefix(name, "test")

	if cst := payload.CollectionSystemTransfer; cst != nil {
		own := owner{
			logName:   cst.Name,
			failTitle: fmt.Sprintf("%s failed", task.LongName),
			setRunning: func(pid int, handle string) error {
				return r.api.SetRunningCollectionSystemTransfer(cst.ID, pid, handle)
			},
			setIdle: func() error { return r.api.SetIdleCollectionSystemTransfer(cst.ID) },
			setError: func(reason string) error {
				return r.api.SetErrorCollectionSystemTransfer(cst.ID, reason)
			},
		}
		if isTest {
			own.failTitle = "Connection test failed"
			own.setIdle = func() error { return r.api.SetIdleCollectionSystemTransferTest(cst.ID) }
			own.setError = func(reason string) error {
				return r.api.SetErrorCollectionSystemTransferTest(cst.ID, reason)
			}
		}
		return own
	}

	if cdt := payload.CruiseDataTransfer; cdt != nil {
		own := owner{
			logName:   cdt.Name,
			failTitle: "Data Transfer failed",
			setRunning: func(pid int, handle string) error {
				return r.api.SetRunningCruiseDataTransfer(cdt.ID, pid, handle)
			},
			setIdle: func() error { return r.api.SetIdleCruiseDataTransfer(cdt.ID) },
			setError: func(reason string) error {
				return r.api.SetErrorCruiseDataTransfer(cdt.ID, reason)
			},
		}
		if isTest {
			own.failTitle = "Connection test failed"
			own.setIdle = func() error { return r.api.SetIdleCruiseDataTransferTest(cdt.ID) }
			own.setError = func(reason string) error {
				return r.api.SetErrorCruiseDataTransferTest(cdt.ID, reason)
			}
		}
		return own
	}

	if !task.Synthetic() {
		return owner{
			logName:   task.LongName,
			failTitle: fmt.Sprintf("%s failed", task.LongName),
			setRunning: func(pid int, handle string) error {
				return r.api.SetRunningTask(task.TaskID, pid, handle)
			},
			setIdle:  func() error { return r.api.SetIdleTask(task.TaskID) },
			setError: func(reason string) error { return r.api.SetErrorTask(task.TaskID, reason) },
		}
	}

	// synthetic tasks only register themselves with the job tracker
	return owner{
		logName:   task.LongName,
		failTitle: fmt.Sprintf("%s failed", task.LongName),
		setRunning: func(pid int, handle string) error {
			return r.api.TrackGearmanJob(name, pid, handle)
		},
		setIdle:  noopIdle,
		setError: noopError,
	}
}

// Writes a journal record for jobs that ran a transfer, when the journal is
// open on this host.
func (r *Runtime) recordTransferRun(payload Payload, result Result, started time.Time) {
	var name, kind string
	switch {
	case payload.CollectionSystemTransfer != nil:
		name = payload.CollectionSystemTransfer.Name
		kind = string(payload.CollectionSystemTransfer.TransferType)
	case payload.CruiseDataTransfer != nil:
		name = payload.CruiseDataTransfer.Name
		kind = string(payload.CruiseDataTransfer.TransferType)
	default:
		return
	}
	if !journal.IsOpen() {
		return
	}

	record := journal.Record{
		Id:        uuid.New(),
		Name:      name,
		Kind:      kind,
		StartTime: started,
		StopTime:  time.Now(),
	}
	switch result.Final().Result {
	case Pass:
		record.Verdict = "passed"
	case Fail:
		record.Verdict = "failed"
	default:
		record.Verdict = "canceled"
	}
	if result.Files != nil {
		record.NewFiles = len(result.Files.New)
		record.UpdatedFiles = len(result.Files.Updated)
		record.DeletedFiles = len(result.Files.Deleted)
		record.ExcludedFiles = len(result.Files.Exclude)
	}
	if err := journal.RecordRun(record); err != nil {
		slog.Warn("Couldn't journal the transfer run", "error", err)
	}
}
