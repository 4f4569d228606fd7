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
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/rvdm/rvdm/api"
	"github.com/rvdm/rvdm/filespec"
	"github.com/rvdm/rvdm/transfer"
	"github.com/rvdm/rvdm/worker"
)

// a kind-specific connection to a cruise data transfer's destination
type destConn struct {
	// the rsync destination argument for the push
	pushDst string
	opts    transfer.RsyncOptions
	peer    *transfer.SshPeer
	cleanup func()
}

// Opens a cruise data transfer's destination for pushing.
func openDest(ctx context.Context, cdt *api.CruiseDataTransfer, workDir string) (*destConn, error) {
	conn := &destConn{cleanup: func() {}}
	destDir := cdt.DestDir

	switch cdt.TransferType {
	case api.KindLocal:
		if info, err := os.Stat(destDir); err != nil || !info.IsDir() {
			return nil, &transfer.EnumerationError{Source: destDir,
				Message: "the destination directory does not exist"}
		}
		conn.pushDst = destDir

	case api.KindSmb:
		share := transfer.SmbShare{
			Server: cdt.SmbServer,
			User:   cdt.SmbUser,
			Pass:   cdt.SmbPass,
			Domain: cdt.SmbDomain,
		}
		vers, err := transfer.SmbVersion(ctx, share)
		if err != nil {
			return nil, err
		}
		mountPoint, cleanup, err := transfer.SmbMount(ctx, share, vers, false, workDir)
		if err != nil {
			return nil, err
		}
		conn.pushDst = filepath.Join(mountPoint, destDir)
		conn.cleanup = cleanup

	case api.KindRsync:
		passwordFile, err := transfer.WritePasswordFile(workDir, cdt.RsyncPass)
		if err != nil {
			return nil, err
		}
		conn.pushDst = fmt.Sprintf("rsync://%s@%s%s/", cdt.RsyncUser, cdt.RsyncServer,
			"/"+strings.TrimPrefix(destDir, "/"))
		conn.opts.PasswordFile = passwordFile

	case api.KindSsh:
		peer := transfer.SshPeer{
			Server: cdt.SshServer,
			User:   cdt.SshUser,
			Pass:   cdt.SshPass,
			UseKey: cdt.SshUseKey.Bool(),
		}
		conn.pushDst = fmt.Sprintf("%s@%s:%s", peer.User, peer.Server, destDir)
		conn.opts.SshPeer = true
		conn.opts.ProtectArgs = !transfer.IsDarwin(ctx, peer)
		conn.peer = &peer

	default:
		return nil, &transfer.EnumerationError{Source: destDir,
			Message: fmt.Sprintf("unknown transfer kind %q", cdt.TransferType)}
	}
	return conn, nil
}

// Builds the push command for this destination.
func (d *destConn) pushCommand(ctx context.Context, opts transfer.RsyncOptions,
	excludes []string, src string) *exec.Cmd {
	opts.PasswordFile = d.opts.PasswordFile
	opts.SshPeer = d.opts.SshPeer
	opts.ProtectArgs = d.opts.ProtectArgs

	if d.peer != nil && !d.peer.UseKey {
		args := append(opts.Args(), excludes...)
		args = append(args, src, d.pushDst)
		return d.peer.WrapCommand(ctx, "rsync", args...)
	}
	return transfer.RsyncCommand(ctx, opts, excludes, "", src, d.pushDst)
}

// Assembles the rsync exclusion arguments for a cruise data transfer:
// optionally the warehouse metadata files, then the destination subtrees of
// every excluded collection system and extra directory, expanded against
// each lowering when the template names one.
func (e env) cdtExcludes(j *worker.Job, cdt *api.CruiseDataTransfer) ([]string, error) {
	var patterns []string
	ctx := e.context()

	if !cdt.IncludeOVDMFiles.Bool() {
		patterns = append(patterns,
			e.warehouse.CruiseConfigFn,
			e.warehouse.Md5SummaryFn,
			e.warehouse.Md5SummaryMd5Fn)
	}

	loweringIDs := []string{e.lowering.LoweringID}
	if all, err := j.Api.Lowerings(); err == nil && len(all) > 0 {
		loweringIDs = all
	}

	expand := func(template string) []string {
		if !filespec.HasUnresolvedLoweringID(template) {
			return []string{filespec.KeywordReplace(template, ctx)}
		}
		// a lowering-templated destination excludes its subtree under every
		// lowering of the cruise, not just the current one
		var out []string
		for _, id := range loweringIDs {
			if id == "" {
				continue
			}
			perLowering := ctx
			perLowering.LoweringID = id
			out = append(out, filespec.KeywordReplace(template, perLowering))
		}
		return out
	}

	if ids := splitIds(cdt.ExcludedCollectionSystems); len(ids) > 0 {
		transfers, err := j.Api.CollectionSystemTransfers()
		if err != nil {
			return nil, err
		}
		for _, cst := range transfers {
			if !lo.Contains(ids, cst.ID) {
				continue
			}
			for _, dir := range expand(cst.DestDir) {
				patterns = append(patterns, dir+"/*")
			}
		}
	}
	if ids := splitIds(cdt.ExcludedExtraDirectories); len(ids) > 0 {
		extras, err := j.Api.ExtraDirectories()
		if err != nil {
			return nil, err
		}
		for _, extra := range extras {
			if !lo.Contains(ids, extra.ID) {
				continue
			}
			for _, dir := range expand(extra.DestDir) {
				patterns = append(patterns, dir+"/*")
			}
		}
	}

	args := make([]string, 0, len(patterns))
	for _, pattern := range lo.Uniq(patterns) {
		args = append(args, "--exclude="+pattern)
	}
	return args, nil
}

// Splits a comma-separated id list; "0" is the control plane's encoding of
// "none".
func splitIds(list string) []string {
	var ids []string
	for _, id := range strings.Split(list, ",") {
		id = strings.TrimSpace(id)
		if id != "" && id != "0" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Pushes the assembled cruise tree to an archive or replica. Two phases: a
// dry run with --stats learns the regular-file count, then the real run
// moves the data; the second phase is skipped when there is nothing to move.
func (h *Handlers) RunCruiseDataTransfer(j *worker.Job) worker.Result {
	var result worker.Result

	cdt := j.Payload.CruiseDataTransfer
	if cdt == nil {
		result.Fail("Retrieve cruise data transfer data",
			"the payload names no cruise data transfer")
		return result
	}
	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve cruise configuration", err.Error())
		return result
	}
	if info, err := os.Stat(e.cruiseDir()); err != nil || !info.IsDir() {
		result.Fail("Verify cruise directory",
			"The cruise directory "+e.cruiseDir()+" does not exist")
		return result
	}
	result.Pass("Verify cruise directory")
	j.Progress(5)

	workDir, err := os.MkdirTemp("", "rvdm-cdt.*")
	if err != nil {
		result.Fail("Create work directory", err.Error())
		return result
	}
	defer os.RemoveAll(workDir)

	conn, err := openDest(j.Ctx, cdt, workDir)
	if err != nil {
		result.Fail("Verify destination", err.Error())
		return result
	}
	defer conn.cleanup()
	result.Pass("Verify destination")
	j.Progress(10)

	excludes, err := e.cdtExcludes(j, cdt)
	if err != nil {
		result.Fail("Assemble exclusion list", err.Error())
		return result
	}
	result.Pass("Assemble exclusion list")
	j.Progress(15)

	opts := transfer.RsyncOptions{
		SkipEmptyFiles: cdt.SkipEmptyFiles.Bool(),
		SkipEmptyDirs:  cdt.SkipEmptyDirs.Bool(),
		BandwidthLimit: cdt.BandwidthLimit,
		Delete:         cdt.SyncToDest.Bool(),
	}
	src := e.cruiseDir()

	dryOpts := opts
	dryOpts.DryRun = true
	dryRun, err := transfer.RunTransfer(j.Ctx,
		conn.pushCommand(j.Ctx, dryOpts, excludes, src), 1, nil)
	if err != nil {
		result.Fail("Estimate transfer size", err.Error())
		return result
	}
	count := transfer.ParseStatsFileCount(dryRun.Output)
	result.Pass("Estimate transfer size")
	j.Progress(20)

	run, err := transfer.RunTransfer(j.Ctx,
		conn.pushCommand(j.Ctx, opts, excludes, src), count, j.StepProgress(20, 95))
	result.Files = &worker.FileSet{New: run.New, Updated: run.Updated}
	if err != nil {
		result.Fail("Transfer files", err.Error())
		return result
	}
	result.Pass("Transfer files")
	j.Progress(100)
	return result
}

// Probes a cruise data transfer's destination without moving any data.
func (h *Handlers) TestCruiseDataTransfer(j *worker.Job) worker.Result {
	var result worker.Result

	cdt := j.Payload.CruiseDataTransfer
	if cdt == nil {
		result.Fail("Retrieve cruise data transfer data",
			"the payload names no cruise data transfer")
		return result
	}
	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve cruise configuration", err.Error())
		return result
	}
	if info, err := os.Stat(e.cruiseDir()); err != nil || !info.IsDir() {
		result.Fail("Source test",
			"The cruise directory "+e.cruiseDir()+" does not exist")
		return result
	}
	result.Pass("Source test")
	j.Progress(50)

	workDir, err := os.MkdirTemp("", "rvdm-cdt-test.*")
	if err != nil {
		result.Fail("Create work directory", err.Error())
		return result
	}
	defer os.RemoveAll(workDir)

	conn, err := openDest(j.Ctx, cdt, workDir)
	if err != nil {
		result.Fail("Destination test", err.Error())
		return result
	}
	conn.cleanup()
	result.Pass("Destination test")
	j.Progress(100)
	return result
}
