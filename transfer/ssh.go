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
	"os/exec"
	"strings"
)

// An SshPeer holds the credentials for one SSH source or sink.
type SshPeer struct {
	Server string
	User   string
	Pass   string
	// use the worker's ssh key instead of password auth
	UseKey bool
}

// Wraps a command line with sshpass when the peer uses password auth.
func (p SshPeer) WrapCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	if p.UseKey {
		return exec.CommandContext(ctx, name, args...)
	}
	wrapped := append([]string{"-p", p.Pass, name}, args...)
	return exec.CommandContext(ctx, "sshpass", wrapped...)
}

// Probes the peer's OS over ssh: a "Darwin" line from uname -s means the
// peer's rsync can't take --protect-args. An unreachable peer reports as
// non-Darwin; the subsequent transfer surfaces the real failure.
func IsDarwin(ctx context.Context, peer SshPeer) bool {
	cmd := peer.WrapCommand(ctx, "ssh",
		peer.User+"@"+peer.Server, "uname -s")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(output), "\n") {
		if strings.Contains(line, "Darwin") {
			return true
		}
	}
	return false
}
