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
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rvdm/rvdm/filespec"
)

func TestClassifyLine(t *testing.T) {
	kind, _, percent := ClassifyLine(
		"          32,768  45%    1.23MB/s    0:00:01 (xfr#3, to-chk=55/100)")
	assert.Equal(t, LineProgress, kind)
	assert.Equal(t, 45, percent)

	kind, path, _ := ClassifyLine(">f+++++++++ path/to/new.bin")
	assert.Equal(t, LineNewFile, kind)
	assert.Equal(t, "path/to/new.bin", path)

	kind, path, _ = ClassifyLine(">f.st...... path/to/upd.bin")
	assert.Equal(t, LineUpdatedFile, kind)
	assert.Equal(t, "path/to/upd.bin", path)

	// pull-to-local itemization uses "<f"
	kind, path, _ = ClassifyLine("<f+++++++++ pulled.dat")
	assert.Equal(t, LineNewFile, kind)
	assert.Equal(t, "pulled.dat", path)

	kind, _, _ = ClassifyLine("sent 1,234 bytes  received 56 bytes")
	assert.Equal(t, LineOther, kind)
}

func TestProgressPercentDerivation(t *testing.T) {
	_, _, percent := ClassifyLine("(xfr#1, to-chk=100/100)")
	assert.Equal(t, 0, percent)
	_, _, percent = ClassifyLine("(xfr#99, to-chk=0/100)")
	assert.Equal(t, 100, percent)
	_, _, percent = ClassifyLine("(xfr#2, to-chk=1/3)")
	assert.Equal(t, 66, percent)
}

func TestParseRclonePercent(t *testing.T) {
	assert.Equal(t, 37,
		ParseRclonePercent("Transferred:   	  370 MiB / 1 GiB, 37%, 2.5 MiB/s, ETA 4m"))
	assert.Equal(t, -1, ParseRclonePercent("Checks:    12 / 12, 100%"))
}

func TestParseStatsFileCount(t *testing.T) {
	stats := `
Number of files: 1,205 (reg: 1,180, dir: 25)
Number of created files: 14
Number of regular files transferred: 1,180
Total file size: 4,404,019,200 bytes
`
	assert.Equal(t, 1180, ParseStatsFileCount(stats))
	assert.Equal(t, 0, ParseStatsFileCount("sent 1,234 bytes"))
}

func TestRsyncArgs(t *testing.T) {
	dry := RsyncOptions{DryRun: true, ProtectArgs: true, SkipEmptyFiles: true,
		RemoveSourceFiles: true, Delete: true}
	assert.Equal(t,
		[]string{"-trinv", "--stats", "--protect-args", "--min-size=1"},
		dry.Args())

	real := RsyncOptions{BandwidthLimit: 2000, RemoveSourceFiles: true,
		RsyncSource: true, Delete: true, SshPeer: true}
	assert.Equal(t,
		[]string{"-triv", "--progress", "--bwlimit=2000", "--remove-source-files",
			"--no-motd", "--delete", "-e", "ssh"},
		real.Args())
}

func TestWriteIncludeFile(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteIncludeFile(dir, []string{"a/b.txt", "c.dat"})
	assert.NoError(t, err)
	content, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "a/b.txt\x00\nc.dat\x00\n", string(content))
}

func TestParseListing(t *testing.T) {
	listing := `drwxr-xr-x          4,096 2025/08/01 00:00:00 .
drwxr-xr-x          4,096 2025/08/01 00:00:00 nav
-rw-r--r--      1,234,567 2025/08/02 12:34:56 nav/pos.raw
lrwxrwxrwx             11 2025/08/02 12:00:00 latest
-rw-r--r--              0 2025/08/03 08:00:00 nav/empty.raw`
	entries := parseListing([]byte(listing))
	assert.Len(t, entries, 2)
	assert.Equal(t, "nav/pos.raw", entries[0].Path)
	assert.Equal(t, int64(1234567), entries[0].Size)
	assert.Equal(t, 2025, entries[0].ModTime.Year())
	assert.Equal(t, "nav/empty.raw", entries[1].Path)
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, path)
		assert.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		assert.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
}

func TestBuildFileList(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"nav/pos.txt":          "1,2",
		"sonar/deep/ping.txt":  "ping",
		"sonar/deep/ping.tmp":  "scratch",
		"nav/café.txt":    "non-ascii name",
		".pos.raw.k3U9zq":      "rsync partial",
		"Transfer_Logs/old.log": "ignored",
	})
	os.Symlink(filepath.Join(root, "nav/pos.txt"), filepath.Join(root, "link.txt"))

	filters, err := filespec.BuildFilters("*.txt", "", "Transfer_Logs/*", filespec.Context{})
	assert.NoError(t, err)

	list, err := BuildFileList(context.Background(), LocalEnumerator{Root: root},
		filters, filespec.OpenTimeWindow(), 0)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"nav/pos.txt", "sonar/deep/ping.txt"}, list.Include)
	assert.ElementsMatch(t, []string{"sonar/deep/ping.tmp", "nav/café.txt"}, list.Exclude)
	assert.Equal(t, int64(3), list.Sizes["nav/pos.txt"])
}

func TestStalenessRecheck(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "stable", "b.txt": "grow"})
	filters, err := filespec.BuildFilters("*", "", "", filespec.Context{})
	assert.NoError(t, err)

	go func() {
		// b.txt grows while the builder sleeps out the staleness delay
		os.WriteFile(filepath.Join(root, "b.txt"), []byte("grown larger"), 0644)
	}()
	list, err := BuildFileList(context.Background(), LocalEnumerator{Root: root},
		filters, filespec.OpenTimeWindow(), 500*time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, list.Include)
}

func TestRunTransfer(t *testing.T) {
	script := `echo ">f+++++++++ new1.dat"
echo ">f.st...... upd1.dat"
echo "          32,768  45%    1.23MB/s    0:00:01 (xfr#3, to-chk=1/2)"
echo "          65,536 100%    1.23MB/s    0:00:02 (xfr#4, to-chk=0/2)"`
	cmd := exec.Command("sh", "-c", script)
	var percents []int
	result, err := RunTransfer(context.Background(), cmd, 2,
		func(p int) { percents = append(percents, p) })
	assert.NoError(t, err)
	assert.Equal(t, []string{"new1.dat"}, result.New)
	assert.Equal(t, []string{"upd1.dat"}, result.Updated)
	assert.Equal(t, []int{50, 100}, percents)
	assert.Contains(t, result.Output, "new1.dat")
}

func TestRunTransferEmptyEstimate(t *testing.T) {
	// the child must never be spawned when there is nothing to move
	cmd := exec.Command("sh", "-c", "exit 1")
	result, err := RunTransfer(context.Background(), cmd, 0, nil)
	assert.NoError(t, err)
	assert.Empty(t, result.New)
}

func TestRunTransferToleratesVanishedSources(t *testing.T) {
	cmd := exec.Command("sh", "-c", "exit 24")
	_, err := RunTransfer(context.Background(), cmd, 1, nil)
	assert.NoError(t, err)

	cmd = exec.Command("sh", "-c", "echo broken pipe >&2; exit 12")
	_, err = RunTransfer(context.Background(), cmd, 1, nil)
	assert.Error(t, err)
	assert.IsType(t, &RunError{}, err)
}

func TestDeleteFromDest(t *testing.T) {
	dest := t.TempDir()
	writeTree(t, dest, map[string]string{
		"keep/a.txt":  "a",
		"stale/b.txt": "b",
	})
	deleted, err := DeleteFromDest(context.Background(), dest, []string{"keep/a.txt"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"stale/b.txt"}, deleted)
	assert.FileExists(t, filepath.Join(dest, "keep/a.txt"))
	assert.NoFileExists(t, filepath.Join(dest, "stale/b.txt"))
}
