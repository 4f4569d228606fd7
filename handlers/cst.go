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
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rvdm/rvdm/api"
	"github.com/rvdm/rvdm/filespec"
	"github.com/rvdm/rvdm/transfer"
	"github.com/rvdm/rvdm/warehouse"
	"github.com/rvdm/rvdm/worker"
)

// a kind-specific connection to a collection system's source tree
type sourceConn struct {
	// enumerates the source for the file-list builder
	enum transfer.Enumerator
	// the rsync source argument for the pull (trailing slash included)
	pullSrc string
	opts    transfer.RsyncOptions
	// set for ssh sources using password auth
	peer    *transfer.SshPeer
	cleanup func()
}

// Opens a collection system's source for enumeration and pulling. The
// returned cleanup must run on every exit path; it unmounts SMB shares and
// leaves temp credentials to the caller's workDir removal.
func openSource(ctx context.Context, cst *api.CollectionSystemTransfer,
	sourceDir, workDir string) (*sourceConn, error) {
	conn := &sourceConn{cleanup: func() {}}

	switch cst.TransferType {
	case api.KindLocal:
		if info, err := os.Stat(sourceDir); err != nil || !info.IsDir() {
			return nil, &transfer.EnumerationError{Source: sourceDir,
				Message: "the source directory does not exist"}
		}
		conn.enum = transfer.LocalEnumerator{Root: sourceDir}
		conn.pullSrc = sourceDir + string(os.PathSeparator)

	case api.KindSmb:
		share := transfer.SmbShare{
			Server: cst.SmbServer,
			User:   cst.SmbUser,
			Pass:   cst.SmbPass,
			Domain: cst.SmbDomain,
		}
		vers, err := transfer.SmbVersion(ctx, share)
		if err != nil {
			return nil, err
		}
		mountPoint, cleanup, err := transfer.SmbMount(ctx, share, vers, true, workDir)
		if err != nil {
			return nil, err
		}
		root := filepath.Join(mountPoint, sourceDir)
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			cleanup()
			return nil, &transfer.EnumerationError{Source: share.Server + "/" + sourceDir,
				Message: "the source directory does not exist on the share"}
		}
		conn.enum = transfer.LocalEnumerator{Root: root}
		conn.pullSrc = root + string(os.PathSeparator)
		conn.cleanup = cleanup

	case api.KindRsync:
		url := fmt.Sprintf("rsync://%s@%s%s/", cst.RsyncUser, cst.RsyncServer,
			"/"+strings.TrimPrefix(sourceDir, "/"))
		passwordFile, err := transfer.WritePasswordFile(workDir, cst.RsyncPass)
		if err != nil {
			return nil, err
		}
		conn.enum = transfer.NewRsyncEnumerator(url, passwordFile)
		conn.pullSrc = url
		conn.opts.RsyncSource = true
		conn.opts.PasswordFile = passwordFile

	case api.KindSsh:
		peer := transfer.SshPeer{
			Server: cst.SshServer,
			User:   cst.SshUser,
			Pass:   cst.SshPass,
			UseKey: cst.SshUseKey.Bool(),
		}
		conn.enum = transfer.NewSshEnumerator(peer, sourceDir)
		conn.pullSrc = fmt.Sprintf("%s@%s:%s/", peer.User, peer.Server,
			strings.TrimSuffix(sourceDir, "/"))
		conn.opts.SshPeer = true
		conn.opts.ProtectArgs = !transfer.IsDarwin(ctx, peer)
		conn.peer = &peer

	default:
		return nil, &transfer.EnumerationError{Source: sourceDir,
			Message: fmt.Sprintf("unknown transfer kind %q", cst.TransferType)}
	}
	return conn, nil
}

// Builds the pull command for this source, wrapping with sshpass when the
// peer uses password auth.
func (s *sourceConn) pullCommand(ctx context.Context, opts transfer.RsyncOptions,
	includeFile, destDir string) *exec.Cmd {
	opts.RsyncSource = s.opts.RsyncSource
	opts.PasswordFile = s.opts.PasswordFile
	opts.SshPeer = s.opts.SshPeer
	opts.ProtectArgs = s.opts.ProtectArgs

	if s.peer != nil && !s.peer.UseKey {
		args := opts.Args()
		if includeFile != "" {
			args = append(args, "--files-from="+includeFile)
		}
		args = append(args, s.pullSrc, destDir)
		return s.peer.WrapCommand(ctx, "rsync", args...)
	}
	return transfer.RsyncCommand(ctx, opts, nil, includeFile, s.pullSrc, destDir)
}

// Pulls one collection system's new data into the cruise tree: probe,
// enumerate, filter, rsync, optionally mirror deletions, fix ownership, and
// write the transfer logs.
func (h *Handlers) RunCollectionSystemTransfer(j *worker.Job) worker.Result {
	var result worker.Result
	started := time.Now()

	cst := j.Payload.CollectionSystemTransfer
	if cst == nil {
		result.Fail("Retrieve collection system transfer data",
			"the payload names no collection system transfer")
		return result
	}

	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve cruise configuration", err.Error())
		return result
	}
	ctx := e.context()
	if cst.CruiseOrLowering == api.ScopeLowering && e.lowering.LoweringID == "" {
		result.Fail("Verify lowering", "No lowering is currently selected")
		return result
	}

	sourceDir := filespec.KeywordReplace(cst.SourceDir, ctx)
	destDir, ok := e.resolveDestDir(cst.DestDir, cst.CruiseOrLowering, ctx)
	if !ok {
		result.Fail("Verify destination directory",
			"The destination template "+cst.DestDir+" cannot be resolved")
		return result
	}
	if info, err := os.Stat(destDir); err != nil || !info.IsDir() {
		result.Fail("Verify destination directory",
			"The destination directory "+destDir+" does not exist")
		return result
	}
	result.Pass("Verify destination directory")
	j.Progress(5)

	workDir, err := os.MkdirTemp("", "rvdm-cst.*")
	if err != nil {
		result.Fail("Create work directory", err.Error())
		return result
	}
	defer os.RemoveAll(workDir)

	conn, err := openSource(j.Ctx, cst, sourceDir, workDir)
	if err != nil {
		result.Fail("Verify source directory", err.Error())
		return result
	}
	defer conn.cleanup()
	result.Pass("Verify source directory")
	j.Progress(10)

	window, err := e.timeWindow(cst)
	if err != nil {
		result.Fail("Build file list", err.Error())
		return result
	}
	filters, err := filespec.BuildFilters(cst.IncludeFilter, cst.ExcludeFilter,
		cst.IgnoreFilter, ctx)
	if err != nil {
		result.Fail("Build file list", err.Error())
		return result
	}
	list, err := transfer.BuildFileList(j.Ctx, conn.enum, filters, window,
		time.Duration(cst.Staleness)*time.Second)
	if err != nil {
		result.Fail("Build file list", err.Error())
		return result
	}
	result.Pass("Build file list")
	j.Progress(20)

	includeFile, err := transfer.WriteIncludeFile(workDir, list.Include)
	if err != nil {
		result.Fail("Write include file", err.Error())
		return result
	}

	opts := transfer.RsyncOptions{
		SkipEmptyFiles:    cst.SkipEmptyFiles.Bool(),
		SkipEmptyDirs:     cst.SkipEmptyDirs.Bool(),
		BandwidthLimit:    cst.BandwidthLimit,
		RemoveSourceFiles: cst.RemoveSourceFiles.Bool(),
	}
	cmd := conn.pullCommand(j.Ctx, opts, includeFile, destDir)
	run, err := transfer.RunTransfer(j.Ctx, cmd, len(list.Include), j.StepProgress(20, 70))

	// downstream consumers (logs, MD5 summary, dashboard) want paths
	// relative to the cruise root, not the transfer destination
	destRel, _ := filepath.Rel(e.cruiseDir(), destDir)
	files := worker.FileSet{
		New:     prefixPaths(destRel, run.New),
		Updated: prefixPaths(destRel, run.Updated),
		Exclude: list.Exclude,
	}
	result.Files = &files
	if err != nil {
		var cancelled *transfer.CancelledError
		if errors.As(err, &cancelled) && len(run.New)+len(run.Updated) == 0 {
			result.Ignore("Transfer files")
			return result
		}
		result.Fail("Transfer files", err.Error())
		return result
	}
	result.Pass("Transfer files")
	j.Progress(70)

	if cst.SyncFromSource.Bool() {
		deleted, err := transfer.DeleteFromDest(j.Ctx, destDir, list.Include)
		files.Deleted = prefixPaths(destRel, deleted)
		result.Files = &files
		if err != nil {
			result.Fail("Delete from destination", err.Error())
			return result
		}
		result.Pass("Delete from destination")
	}
	j.Progress(80)

	if !warehouse.IsMountPoint(destDir) {
		if err := warehouse.SetOwnerGroupPermissions(e.warehouse.Username, destDir); err != nil {
			result.Fail("Set ownership and permissions", err.Error())
			return result
		}
		result.Pass("Set ownership and permissions")
	}
	j.Progress(90)

	if err := e.writeTransferLogs(cst.Name, started, files); err != nil {
		result.Fail("Write transfer logs", err.Error())
		return result
	}
	result.Pass("Write transfer logs")
	j.Progress(100)
	return result
}

// Rebases a slice of file paths under a parent directory. A "." parent
// leaves the paths untouched.
func prefixPaths(parent string, paths []string) []string {
	if parent == "" || parent == "." {
		return paths
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Join(parent, p)
	}
	return out
}

// Probes a collection system transfer's source and destination without
// moving any data.
func (h *Handlers) TestCollectionSystemTransfer(j *worker.Job) worker.Result {
	var result worker.Result

	cst := j.Payload.CollectionSystemTransfer
	if cst == nil {
		result.Fail("Retrieve collection system transfer data",
			"the payload names no collection system transfer")
		return result
	}
	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve cruise configuration", err.Error())
		return result
	}
	ctx := e.context()
	sourceDir := filespec.KeywordReplace(cst.SourceDir, ctx)

	workDir, err := os.MkdirTemp("", "rvdm-cst-test.*")
	if err != nil {
		result.Fail("Create work directory", err.Error())
		return result
	}
	defer os.RemoveAll(workDir)

	if err := testSourceReachable(j.Ctx, cst, sourceDir, workDir); err != nil {
		result.Fail("Source test", err.Error())
		return result
	}
	result.Pass("Source test")
	j.Progress(50)

	destDir, ok := e.resolveDestDir(cst.DestDir, cst.CruiseOrLowering, ctx)
	if !ok {
		result.Fail("Destination test",
			"The destination template "+cst.DestDir+" cannot be resolved")
		return result
	}
	if info, err := os.Stat(destDir); err != nil || !info.IsDir() {
		result.Fail("Destination test",
			"The destination directory "+destDir+" does not exist")
		return result
	}
	result.Pass("Destination test")
	j.Progress(100)
	return result
}

// the kind-dispatched source reachability probe used by the test handlers
func testSourceReachable(ctx context.Context, cst *api.CollectionSystemTransfer,
	sourceDir, workDir string) error {
	switch cst.TransferType {
	case api.KindLocal:
		if info, err := os.Stat(sourceDir); err != nil || !info.IsDir() {
			return &transfer.EnumerationError{Source: sourceDir,
				Message: "the source directory does not exist"}
		}
		return nil

	case api.KindSmb:
		conn, err := openSource(ctx, cst, sourceDir, workDir)
		if err != nil {
			return err
		}
		conn.cleanup()
		return nil

	case api.KindRsync:
		url := fmt.Sprintf("rsync://%s@%s/", cst.RsyncUser, cst.RsyncServer)
		passwordFile, err := transfer.WritePasswordFile(workDir, cst.RsyncPass)
		if err != nil {
			return err
		}
		output, err := exec.CommandContext(ctx, "rsync", "--no-motd",
			"--password-file="+passwordFile, url).CombinedOutput()
		if err != nil {
			return &transfer.ServerUnreachableError{Server: cst.RsyncServer,
				Message: strings.TrimSpace(string(output))}
		}
		return nil

	case api.KindSsh:
		peer := transfer.SshPeer{
			Server: cst.SshServer,
			User:   cst.SshUser,
			Pass:   cst.SshPass,
			UseKey: cst.SshUseKey.Bool(),
		}
		cmd := peer.WrapCommand(ctx, "ssh", peer.User+"@"+peer.Server,
			"ls "+sourceDir)
		if output, err := cmd.CombinedOutput(); err != nil {
			return &transfer.ServerUnreachableError{Server: cst.SshServer,
				Message: strings.TrimSpace(string(output))}
		}
		return nil
	}
	return &transfer.EnumerationError{Source: sourceDir,
		Message: fmt.Sprintf("unknown transfer kind %q", cst.TransferType)}
}
