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

// Package warehouse gathers the filesystem operations every writer of the
// cruise tree must honor: ownership and permission walking, atomic writes,
// directory sizing, and stale-file purging.
package warehouse

import (
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// standard modes for everything written beneath the warehouse base
const (
	DirMode  fs.FileMode = 0755
	FileMode fs.FileMode = 0644

	// lockdown modes for non-current cruise directories
	LockedDirMode  fs.FileMode = 0700
	LockedFileMode fs.FileMode = 0600
)

// Resolves the warehouse user's uid and gid via the passwd database.
func LookupUser(username string) (uid, gid int, err error) {
	u, err := user.Lookup(username)
	if err != nil {
		return 0, 0, &UnknownUserError{Username: username}
	}
	uid, _ = strconv.Atoi(u.Uid)
	gid, _ = strconv.Atoi(u.Gid)
	return uid, gid, nil
}

// Recursively sets ownership to the given warehouse user and applies the
// standard modes (0755 directories, 0644 files) beneath root, including root
// itself. Individual failures are collected into a single error so the
// caller can report one reason.
func SetOwnerGroupPermissions(username, root string) error {
	uid, gid, err := LookupUser(username)
	if err != nil {
		return err
	}

	var failures []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			failures = append(failures, err.Error())
			return nil
		}
		mode := FileMode
		if d.IsDir() {
			mode = DirMode
		}
		if err := os.Chown(path, uid, gid); err != nil {
			failures = append(failures, err.Error())
		}
		if err := os.Chmod(path, mode); err != nil {
			failures = append(failures, err.Error())
		}
		return nil
	})
	if walkErr != nil {
		failures = append(failures, walkErr.Error())
	}
	if len(failures) > 0 {
		return &PermissionsError{Path: root, Failures: failures}
	}
	return nil
}

// Locks down every sibling of currentDir beneath base (mode 0700 for
// directories, 0600 for files) so that only the current cruise is visible to
// unprivileged users.
func LockdownSiblings(base, currentDir string) error {
	entries, err := os.ReadDir(base)
	if err != nil {
		return err
	}
	var failures []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == filepath.Base(currentDir) {
			continue
		}
		sibling := filepath.Join(base, entry.Name())
		err := filepath.WalkDir(sibling, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				failures = append(failures, err.Error())
				return nil
			}
			mode := LockedFileMode
			if d.IsDir() {
				mode = LockedDirMode
			}
			if err := os.Chmod(path, mode); err != nil {
				failures = append(failures, err.Error())
			}
			return nil
		})
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return &PermissionsError{Path: base, Failures: failures}
	}
	return nil
}

// Creates the given directory (and any missing parents). An existing
// directory is success.
func CreateDirectory(path string) error {
	err := os.MkdirAll(path, DirMode)
	if err != nil && !os.IsExist(err) {
		return err
	}
	return nil
}

// Writes data to path atomically: a temp file in the same directory, fsync,
// then rename into place with the given mode.
func AtomicWrite(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Measures the on-disk size of a directory tree in bytes using du -sb, the
// same measurement the control plane displays.
func DirSize(path string) (int64, error) {
	output, err := exec.Command("du", "-sb", path).Output()
	if err != nil {
		return 0, fmt.Errorf("Couldn't measure %s: %s", path, err.Error())
	}
	fields := strings.Fields(string(output))
	if len(fields) < 1 {
		return 0, fmt.Errorf("Couldn't parse du output for %s", path)
	}
	return strconv.ParseInt(fields[0], 10, 64)
}

// Removes files under dir whose modification time is older than the cutoff.
// Directories are only descended into when recurse is set; they are never
// removed themselves.
func PurgeOldFiles(dir string, olderThan time.Time, recurse bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var failures []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if recurse {
				if err := PurgeOldFiles(path, olderThan, recurse); err != nil {
					failures = append(failures, err.Error())
				}
			}
			continue
		}
		info, err := entry.Info()
		if err != nil {
			failures = append(failures, err.Error())
			continue
		}
		if info.ModTime().Before(olderThan) {
			if err := os.Remove(path); err != nil {
				failures = append(failures, err.Error())
			}
		}
	}
	if len(failures) > 0 {
		return &PurgeError{Path: dir, Failures: failures}
	}
	return nil
}

// Reports whether the given path is a mount point. Written trees on mounted
// destinations keep the mount's ownership, so callers skip the permissions
// walk for them.
func IsMountPoint(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	parent, err := os.Stat(filepath.Dir(path))
	if err != nil {
		return false
	}
	// different devices, or the filesystem root
	return deviceOf(info) != deviceOf(parent) || filepath.Dir(path) == path
}
