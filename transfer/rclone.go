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
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// the remote name used in generated rclone configuration files
const rcloneRemote = "shore"

// Writes a throwaway rclone configuration file describing an sftp remote for
// the given peer. Password-auth peers get their password obscured with
// `rclone obscure`, which is what rclone requires in its config format.
func WriteRcloneConfig(workDir string, peer SshPeer) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", rcloneRemote)
	b.WriteString("type = sftp\n")
	fmt.Fprintf(&b, "host = %s\n", peer.Server)
	fmt.Fprintf(&b, "user = %s\n", peer.User)
	if peer.UseKey {
		b.WriteString("key_use_agent = true\n")
	} else {
		obscured, err := exec.Command("rclone", "obscure", peer.Pass).Output()
		if err != nil {
			return "", &RunError{Command: "rclone obscure", Message: err.Error()}
		}
		fmt.Fprintf(&b, "pass = %s\n", strings.TrimSpace(string(obscured)))
	}

	path := filepath.Join(workDir, "rclone.conf")
	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return "", err
	}
	return path, nil
}

// Builds an `rclone copy` command moving the files named in filesFrom out of
// srcDir to destDir on the configured remote. bwLimit is in KB/s, matching
// rsync's --bwlimit unit; zero means uncapped.
func RcloneCommand(ctx context.Context, configFile string, bwLimit int,
	filesFrom, srcDir, destDir string) *exec.Cmd {
	args := []string{
		"--config", configFile,
		"copy",
		"--progress",
		"--stats-one-line",
	}
	if bwLimit > 0 {
		args = append(args, fmt.Sprintf("--bwlimit=%dK", bwLimit))
	}
	if filesFrom != "" {
		args = append(args, "--files-from-raw", filesFrom)
	}
	args = append(args, srcDir, fmt.Sprintf("%s:%s", rcloneRemote, destDir))
	return exec.CommandContext(ctx, "rclone", args...)
}

// Runs an rclone command, deriving progress from its "Transferred: ... nn%"
// lines. The contract mirrors RunTransfer: progress fires on integer percent
// changes, cancellation kills the process and surfaces a CancelledError.
func RunRclone(ctx context.Context, cmd *exec.Cmd, progress ProgressFunc) (string, error) {
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		return "", &RunError{Command: cmd.Path, Message: err.Error()}
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		pw.Close()
	}()

	var output strings.Builder
	killed := false
	lastPercent := -1
	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		output.WriteString(line)
		output.WriteByte('\n')

		if ctx.Err() != nil && !killed {
			cmd.Process.Kill()
			killed = true
		}
		if percent := ParseRclonePercent(line); percent >= 0 &&
			percent != lastPercent && progress != nil {
			lastPercent = percent
			progress(percent)
		}
	}
	err := <-waitErr

	if ctx.Err() != nil {
		return output.String(), &CancelledError{Command: cmd.Path}
	}
	if err != nil {
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			return output.String(), &RunError{Command: cmd.Path,
				ExitCode: exit.ExitCode(), Message: lastLines(output.String(), 3)}
		}
		return output.String(), &RunError{Command: cmd.Path, Message: err.Error()}
	}
	return output.String(), nil
}
