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
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/rvdm/rvdm/md5summary"
	"github.com/rvdm/rvdm/warehouse"
	"github.com/rvdm/rvdm/worker"
)

// Merges the files a transfer just moved into the cruise MD5 summary.
func (h *Handlers) UpdateMD5Summary(j *worker.Job) worker.Result {
	var result worker.Result

	if j.Payload.Files == nil {
		result.Ignore("Retrieve file set")
		return result
	}
	files := *j.Payload.Files
	if len(files.New)+len(files.Updated)+len(files.Deleted) == 0 {
		result.Ignore("Retrieve file set")
		return result
	}

	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve cruise configuration", err.Error())
		return result
	}
	limitBytes, err := hashSizeLimit(j)
	if err != nil {
		result.Fail("Retrieve filesize limit", err.Error())
		return result
	}
	j.Progress(10)

	lock, err := warehouse.AcquireCruiseLock(e.cruiseDir(), "md5")
	if err != nil {
		result.Fail("Lock MD5 summary", err.Error())
		return result
	}
	defer lock.Release()

	summaryPath := filepath.Join(e.cruiseDir(), e.warehouse.Md5SummaryFn)
	summary, err := md5summary.Load(summaryPath)
	if err != nil {
		result.Fail("Read MD5 summary", err.Error())
		return result
	}
	result.Pass("Read MD5 summary")
	j.Progress(20)

	toHash := lo.Uniq(append(files.New, files.Updated...))
	progress := j.StepProgress(20, 80)
	var failures []string
	for i, rel := range toHash {
		hash, err := md5summary.HashFile(filepath.Join(e.cruiseDir(), rel), limitBytes)
		if err != nil {
			failures = append(failures, rel+": "+err.Error())
			continue
		}
		summary.Set(rel, hash)
		progress(100 * (i + 1) / len(toHash))
	}
	for _, rel := range files.Deleted {
		summary.Delete(rel)
	}
	if len(failures) > 0 {
		result.Fail("Hash files", strings.Join(failures, "; "))
		return result
	}
	result.Pass("Hash files")
	j.Progress(80)

	if err := e.writeSummary(summary, summaryPath); err != nil {
		result.Fail("Write MD5 summary", err.Error())
		return result
	}
	result.Pass("Write MD5 summary")
	j.Progress(100)
	return result
}

// Recomputes the MD5 summary from scratch with a full cruise walk. The
// summary files themselves and the transfer logs are left out of the index.
func (h *Handlers) RebuildMD5Summary(j *worker.Job) worker.Result {
	var result worker.Result

	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve cruise configuration", err.Error())
		return result
	}
	limitBytes, err := hashSizeLimit(j)
	if err != nil {
		result.Fail("Retrieve filesize limit", err.Error())
		return result
	}
	j.Progress(10)

	var paths []string
	err = filepath.WalkDir(e.cruiseDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !d.Type().IsRegular() {
			return err
		}
		rel, err := filepath.Rel(e.cruiseDir(), path)
		if err != nil {
			return err
		}
		if rel == e.warehouse.Md5SummaryFn || rel == e.warehouse.Md5SummaryMd5Fn ||
			strings.HasPrefix(rel, transferLogDirName+string(filepath.Separator)) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		result.Fail("Enumerate cruise files", err.Error())
		return result
	}
	result.Pass("Enumerate cruise files")
	j.Progress(20)

	lock, err := warehouse.AcquireCruiseLock(e.cruiseDir(), "md5")
	if err != nil {
		result.Fail("Lock MD5 summary", err.Error())
		return result
	}
	defer lock.Release()

	summary := md5summary.New()
	progress := j.StepProgress(20, 90)
	var failures []string
	for i, rel := range paths {
		hash, err := md5summary.HashFile(filepath.Join(e.cruiseDir(), rel), limitBytes)
		if err != nil {
			failures = append(failures, rel+": "+err.Error())
			continue
		}
		summary.Set(rel, hash)
		progress(100 * (i + 1) / len(paths))
	}
	if len(failures) > 0 {
		result.Fail("Hash files", strings.Join(failures, "; "))
		return result
	}
	result.Pass("Hash files")

	summaryPath := filepath.Join(e.cruiseDir(), e.warehouse.Md5SummaryFn)
	if err := e.writeSummary(summary, summaryPath); err != nil {
		result.Fail("Write MD5 summary", err.Error())
		return result
	}
	result.Pass("Write MD5 summary")
	j.Progress(100)
	return result
}

// Translates the control plane's filesize-limit setting into bytes; zero
// means unlimited.
func hashSizeLimit(j *worker.Job) (int64, error) {
	limitMB, enabled, err := j.Api.Md5FilesizeLimit()
	if err != nil {
		return 0, err
	}
	if !enabled {
		return 0, nil
	}
	return limitMB * 1024 * 1024, nil
}

// Writes the summary and its MD5 sibling, both owned by the warehouse user.
func (e env) writeSummary(summary *md5summary.Summary, summaryPath string) error {
	md5Path := filepath.Join(e.cruiseDir(), e.warehouse.Md5SummaryMd5Fn)
	if err := summary.Write(summaryPath, md5Path); err != nil {
		return err
	}
	for _, path := range []string{summaryPath, md5Path} {
		if err := warehouse.SetOwnerGroupPermissions(e.warehouse.Username, path); err != nil {
			return err
		}
	}
	return nil
}
