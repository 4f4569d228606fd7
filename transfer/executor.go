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
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// rsync reports 24 when a source file vanished mid-transfer, which is
// routine on a tree that instruments are still writing to
const exitVanishedSource = 24

// A ProgressFunc receives the transfer's integer percent complete. Callers
// map it into the outer progress range of the surrounding job step.
type ProgressFunc func(percent int)

// A RunResult reports what one transfer invocation did.
type RunResult struct {
	New     []string
	Updated []string
	// the merged stdout+stderr stream, kept for stats parsing and logs
	Output string
}

// Spawns the built command and consumes its merged output line by line,
// collecting created and updated paths and reporting progress whenever the
// integer percent changes. A zero estimate means there is nothing to move,
// so the child is never spawned. Context cancellation kills the child. An
// rsync exit status of 24 counts as success.
func RunTransfer(ctx context.Context, cmd *exec.Cmd, estimated int, progress ProgressFunc) (RunResult, error) {
	var result RunResult
	if estimated == 0 {
		return result, nil
	}

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		return result, &RunError{Command: cmd.Path, Message: err.Error()}
	}
	waitErr := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		waitErr <- err
	}()

	var output strings.Builder
	lastPercent := -1
	cancelled := false
	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil && !cancelled {
			cancelled = true
			cmd.Process.Kill()
		}
		line := scanner.Text()
		output.WriteString(line)
		output.WriteByte('\n')
		kind, path, percent := ClassifyLine(line)
		switch kind {
		case LineNewFile:
			result.New = append(result.New, path)
		case LineUpdatedFile:
			result.Updated = append(result.Updated, path)
		case LineProgress:
			if percent != lastPercent {
				lastPercent = percent
				if progress != nil {
					progress(percent)
				}
			}
		}
	}
	err := <-waitErr
	result.Output = output.String()

	if cancelled || ctx.Err() != nil {
		return result, &CancelledError{Command: cmd.Path}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == exitVanishedSource {
			return result, nil
		}
		code := -1
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return result, &RunError{Command: cmd.Path, ExitCode: code, Message: lastLines(result.Output, 3)}
	}
	return result, nil
}

// Mirrors a source-driven deletion: every regular file under destRoot that
// is not in the include set is removed. Returns the deleted paths, relative
// to destRoot.
func DeleteFromDest(ctx context.Context, destRoot string, include []string) ([]string, error) {
	keep := make(map[string]struct{}, len(include))
	for _, path := range include {
		keep[path] = struct{}{}
	}
	entries, err := LocalEnumerator{Root: destRoot}.Enumerate(ctx)
	if err != nil {
		return nil, err
	}
	var deleted []string
	for _, entry := range entries {
		if _, ok := keep[entry.Path]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(destRoot, entry.Path)); err != nil {
			return deleted, err
		}
		deleted = append(deleted, entry.Path)
	}
	return deleted, nil
}

func lastLines(output string, n int) string {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "; ")
}
