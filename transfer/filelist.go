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

package transfer

import (
	"context"
	"io/fs"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/deliveryhero/pipeline/v2"

	"github.com/rvdm/rvdm/filespec"
)

const (
	classifyWorkers   = 16
	classifyBatchSize = 500
)

// A FileList is the outcome of enumerating and filtering one source tree.
// Paths are relative to the source root. Sizes carries the byte size of every
// included path. Order of the lists is not guaranteed.
type FileList struct {
	Include []string
	Exclude []string
	Sizes   map[string]int64
}

// A SourceEntry is one regular file found during enumeration.
type SourceEntry struct {
	// path relative to the source root
	Path    string
	Size    int64
	ModTime time.Time
}

// An Enumerator lists the regular files beneath one source root, skipping
// symbolic links.
type Enumerator interface {
	Enumerate(ctx context.Context) ([]SourceEntry, error)
}

// A LocalEnumerator walks a locally-visible directory tree (the local kind,
// or an SMB share after mounting).
type LocalEnumerator struct {
	Root string
}

func (e LocalEnumerator) Enumerate(ctx context.Context) ([]SourceEntry, error) {
	var entries []SourceEntry
	err := filepath.WalkDir(e.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || d.Type()&fs.ModeSymlink != 0 || !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(e.Root, path)
		if err != nil {
			return err
		}
		entries = append(entries, SourceEntry{
			Path:    rel,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, &EnumerationError{Source: e.Root, Message: err.Error()}
	}
	return entries, nil
}

// matches one file line of "rsync -r" listing output: mode, comma-grouped
// size, mtime, path
var listingRegex = regexp.MustCompile(
	`^(\S+)\s+([\d,]+)\s+(\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2})\s+(.+)$`)

const listingTimeLayout = "2006/01/02 15:04:05"

// A RemoteEnumerator lists a remote tree by parsing "rsync -r" listing
// output. Command builds the listing invocation; Source names the peer for
// error reporting.
type RemoteEnumerator struct {
	Source  string
	Command func(ctx context.Context) ([]byte, error)
}

// Builds an enumerator for an rsync daemon source, optionally authenticated
// through a password file.
func NewRsyncEnumerator(url, passwordFile string) RemoteEnumerator {
	return RemoteEnumerator{
		Source: url,
		Command: func(ctx context.Context) ([]byte, error) {
			args := []string{"-r"}
			if passwordFile != "" {
				args = append(args, "--password-file="+passwordFile)
			}
			args = append(args, url)
			return exec.CommandContext(ctx, "rsync", args...).Output()
		},
	}
}

// Builds an enumerator for an SSH source, wrapping the listing command with
// sshpass when the peer uses password auth.
func NewSshEnumerator(peer SshPeer, sourceDir string) RemoteEnumerator {
	source := peer.User + "@" + peer.Server + ":" + sourceDir
	return RemoteEnumerator{
		Source: source,
		Command: func(ctx context.Context) ([]byte, error) {
			return peer.WrapCommand(ctx, "rsync", "-r", "-e", "ssh", source).Output()
		},
	}
}

func (e RemoteEnumerator) Enumerate(ctx context.Context) ([]SourceEntry, error) {
	output, err := e.Command(ctx)
	if err != nil {
		return nil, &EnumerationError{Source: e.Source, Message: err.Error()}
	}
	return parseListing(output), nil
}

// Extracts the regular-file entries from rsync listing output, dropping
// directories, links, and the "." entry.
func parseListing(output []byte) []SourceEntry {
	var entries []SourceEntry
	for _, line := range strings.Split(string(output), "\n") {
		m := listingRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		mode := m[1]
		if strings.HasPrefix(mode, "d") || strings.HasPrefix(mode, "l") {
			continue
		}
		size, err := strconv.ParseInt(strings.ReplaceAll(m[2], ",", ""), 10, 64)
		if err != nil {
			continue
		}
		mtime, err := time.Parse(listingTimeLayout, m[3])
		if err != nil {
			continue
		}
		path := strings.TrimPrefix(m[4], "./")
		if path == "." || path == "" {
			continue
		}
		entries = append(entries, SourceEntry{Path: path, Size: size, ModTime: mtime})
	}
	return entries
}

// the filtering outcome for one enumerated entry
type classified struct {
	action filespec.FilterAction
	entry  SourceEntry
}

// Enumerates the source, classifies every entry against the filter set and
// time window, and optionally re-checks the surviving entries after the
// staleness delay to catch files still being written.
func BuildFileList(ctx context.Context, enum Enumerator, filters filespec.Filters,
	window filespec.TimeWindow, staleness time.Duration) (FileList, error) {
	list := FileList{Sizes: make(map[string]int64)}

	entries, err := enum.Enumerate(ctx)
	if err != nil {
		return list, err
	}
	for result := range classify(ctx, entries, filters, window) {
		switch result.action {
		case filespec.Include:
			list.Include = append(list.Include, result.entry.Path)
			list.Sizes[result.entry.Path] = result.entry.Size
		case filespec.Exclude:
			list.Exclude = append(list.Exclude, result.entry.Path)
		}
	}
	if err := ctx.Err(); err != nil {
		return list, err
	}

	if staleness > 0 && len(list.Include) > 0 {
		select {
		case <-time.After(staleness):
		case <-ctx.Done():
			return list, ctx.Err()
		}
		if err := list.removeChanged(ctx, enum); err != nil {
			return list, err
		}
	}
	return list, nil
}

// Runs the per-entry filter rules over a bounded worker pool, batching
// entries to keep the goroutine count flat on very large trees.
func classify(ctx context.Context, entries []SourceEntry, filters filespec.Filters,
	window filespec.TimeWindow) <-chan classified {
	processBatch := func(ctx context.Context, batch []SourceEntry) ([]classified, error) {
		results := make([]classified, 0, len(batch))
		for _, entry := range batch {
			results = append(results, classified{classifyEntry(entry, filters, window), entry})
		}
		return results, nil
	}
	return pipeline.ProcessBatchConcurrently(ctx, classifyWorkers, classifyBatchSize,
		time.Second, pipeline.NewProcessor(processBatch,
			func([]SourceEntry, error) {}), pipeline.Emit(entries...))
}

// Applies the per-entry rules in order: partials and out-of-window entries
// are dropped, non-ASCII names are excluded before filters ever see them.
func classifyEntry(entry SourceEntry, filters filespec.Filters,
	window filespec.TimeWindow) filespec.FilterAction {
	if filespec.IsRsyncPartial(filepath.Base(entry.Path)) {
		return filespec.Drop
	}
	if !window.Contains(entry.ModTime) {
		return filespec.Drop
	}
	if !filespec.IsASCII(entry.Path) {
		return filespec.Exclude
	}
	return filters.Apply(entry.Path)
}

// Re-enumerates the source and drops any included entry whose size changed
// since the first pass.
func (l *FileList) removeChanged(ctx context.Context, enum Enumerator) error {
	entries, err := enum.Enumerate(ctx)
	if err != nil {
		return err
	}
	current := make(map[string]int64, len(entries))
	for _, entry := range entries {
		current[entry.Path] = entry.Size
	}
	kept := l.Include[:0]
	for _, path := range l.Include {
		size, ok := current[path]
		if ok && size == l.Sizes[path] {
			kept = append(kept, path)
		} else {
			delete(l.Sizes, path)
		}
	}
	l.Include = kept
	return nil
}
