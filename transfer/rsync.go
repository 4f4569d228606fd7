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

// Package transfer implements the transfer subsystem: rsync command
// building, SMB and SSH probes, source enumeration and filtering, and the
// streaming transfer executor.
package transfer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// RsyncOptions selects the rsync flags for one invocation. The zero value is
// a real (non-dry-run) local transfer with no extras.
type RsyncOptions struct {
	// trial run with --stats instead of a real copy
	DryRun bool
	// the peer is not Darwin, so --protect-args is safe to pass
	ProtectArgs bool
	// skip zero-length files (--min-size=1)
	SkipEmptyFiles bool
	// prune empty directory chains (-m)
	SkipEmptyDirs bool
	// bandwidth cap in kB/s; zero means unlimited
	BandwidthLimit int
	// remove source files after transfer (real mode only)
	RemoveSourceFiles bool
	// the source is an rsync daemon (adds --no-motd in real mode)
	RsyncSource bool
	// delete-to-mirror (real mode only)
	Delete bool
	// password file for an rsync daemon peer
	PasswordFile string
	// the peer is reached over ssh (-e ssh)
	SshPeer bool
}

// Renders the option list. Dry runs use -trinv with --stats; real runs use
// -triv with --progress.
func (o RsyncOptions) Args() []string {
	var args []string
	if o.DryRun {
		args = append(args, "-trinv", "--stats")
	} else {
		args = append(args, "-triv", "--progress")
	}
	if o.ProtectArgs {
		args = append(args, "--protect-args")
	}
	if o.SkipEmptyFiles {
		args = append(args, "--min-size=1")
	}
	if o.SkipEmptyDirs {
		args = append(args, "-m")
	}
	if o.BandwidthLimit != 0 {
		args = append(args, "--bwlimit="+strconv.Itoa(o.BandwidthLimit))
	}
	if !o.DryRun {
		if o.RemoveSourceFiles {
			args = append(args, "--remove-source-files")
		}
		if o.RsyncSource {
			args = append(args, "--no-motd")
		}
		if o.Delete {
			args = append(args, "--delete")
		}
	}
	if o.PasswordFile != "" {
		args = append(args, "--password-file="+o.PasswordFile)
	}
	if o.SshPeer {
		args = append(args, "-e", "ssh")
	}
	return args
}

// Builds the rsync command: rsync <flags> <extra> [--files-from=<f>] <src>
// [<dst>]. An empty filesFrom or dst omits the corresponding argument.
func RsyncCommand(ctx context.Context, opts RsyncOptions, extra []string, filesFrom, src, dst string) *exec.Cmd {
	args := opts.Args()
	args = append(args, extra...)
	if filesFrom != "" {
		args = append(args, "--files-from="+filesFrom)
	}
	args = append(args, src)
	if dst != "" {
		args = append(args, dst)
	}
	return exec.CommandContext(ctx, "rsync", args...)
}

// Materializes the include file consumed via --files-from: one path per
// line, each followed by a NUL, so the rsync side is terminator-agnostic.
func WriteIncludeFile(dir string, paths []string) (string, error) {
	file, err := os.CreateTemp(dir, "include.*")
	if err != nil {
		return "", err
	}
	defer file.Close()
	for _, path := range paths {
		if _, err := fmt.Fprintf(file, "%s\x00\n", path); err != nil {
			os.Remove(file.Name())
			return "", err
		}
	}
	return file.Name(), nil
}

// Writes an rsync daemon password file, mode 0600, inside the scoped work
// directory.
func WritePasswordFile(dir, password string) (string, error) {
	path := filepath.Join(dir, "passwdfile")
	if err := os.WriteFile(path, []byte(password+"\n"), 0600); err != nil {
		return "", err
	}
	return path, nil
}
