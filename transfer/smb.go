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
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// An SmbShare holds the credentials for one SMB source or sink. An empty
// user means guest access.
type SmbShare struct {
	// //server/share
	Server string
	User   string
	Pass   string
	Domain string
}

func (s SmbShare) guest() bool {
	return s.User == "" || strings.EqualFold(s.User, "guest")
}

// Probes the server's SMB dialect with smbclient. A server announcing
// "OS=[Windows 5.1]" only speaks SMB 1.0; everything else gets 2.1. A
// non-zero exit or NT_STATUS/failed output means the server is unreachable.
func SmbVersion(ctx context.Context, share SmbShare) (string, error) {
	args := []string{"-L", share.Server, "-W", share.Domain, "-m", "SMB2", "-g"}
	if share.guest() {
		args = append(args, "-N")
	} else {
		args = append(args, "-U", share.User+"%"+share.Pass)
	}
	output, err := exec.CommandContext(ctx, "smbclient", args...).CombinedOutput()
	lines := strings.Split(string(output), "\n")
	if err != nil {
		return "", &ServerUnreachableError{Server: share.Server, Message: firstNonEmpty(lines)}
	}
	for _, line := range lines {
		lowered := strings.ToLower(line)
		if strings.Contains(lowered, "nt_status") || strings.Contains(lowered, "failed") {
			return "", &ServerUnreachableError{Server: share.Server, Message: strings.TrimSpace(line)}
		}
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "OS=[Windows 5.1]") {
			return "1.0", nil
		}
	}
	return "2.1", nil
}

// Mounts the share read-only or read-write on a fresh mount point beneath
// workDir. The returned cleanup attempts an umount before removing the mount
// point and must run on every exit path.
func SmbMount(ctx context.Context, share SmbShare, vers string, readOnly bool, workDir string) (string, func(), error) {
	mountPoint, err := os.MkdirTemp(workDir, "smbmount.*")
	if err != nil {
		return "", nil, err
	}

	rw := "rw"
	if readOnly {
		rw = "ro"
	}
	options := fmt.Sprintf("%s,domain=%s,vers=%s", rw, share.Domain, vers)
	if share.guest() {
		options += ",guest"
	} else {
		options += fmt.Sprintf(",username=%s,password=%s", share.User, share.Pass)
	}

	cleanup := func() {
		// the umount may fail if the mount never happened; that's fine
		exec.Command("umount", mountPoint).Run()
		os.RemoveAll(mountPoint)
	}

	output, err := exec.CommandContext(ctx, "mount", "-t", "cifs",
		share.Server, mountPoint, "-o", options).CombinedOutput()
	if err != nil {
		cleanup()
		return "", nil, &MountError{Server: share.Server,
			Message: firstNonEmpty(strings.Split(string(output), "\n"))}
	}
	return mountPoint, cleanup, nil
}

func firstNonEmpty(lines []string) string {
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line)
		}
	}
	return "no output"
}
