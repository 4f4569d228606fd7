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

package warehouse

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "MD5_Summary.txt")

	assert.Nil(t, AtomicWrite(path, []byte("first\n"), FileMode))
	data, err := os.ReadFile(path)
	assert.Nil(t, err)
	assert.Equal(t, "first\n", string(data))

	// a rewrite replaces the content wholesale and leaves no temp litter
	assert.Nil(t, AtomicWrite(path, []byte("second\n"), FileMode))
	data, _ = os.ReadFile(path)
	assert.Equal(t, "second\n", string(data))
	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, 1)

	info, _ := os.Stat(path)
	assert.Equal(t, FileMode, info.Mode().Perm())
}

func TestCreateDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "raw", "em324")
	assert.Nil(t, CreateDirectory(path))

	// creating an existing directory is success
	assert.Nil(t, CreateDirectory(path))
	info, err := os.Stat(path)
	assert.Nil(t, err)
	assert.True(t, info.IsDir())
}

func TestPurgeOldFiles(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "EM324_20250701T000000Z.log")
	newFile := filepath.Join(dir, "EM324_20250826T000000Z.log")
	subDir := filepath.Join(dir, "nested")
	subFile := filepath.Join(subDir, "stale.log")
	assert.Nil(t, os.WriteFile(oldFile, []byte("x"), 0644))
	assert.Nil(t, os.WriteFile(newFile, []byte("x"), 0644))
	assert.Nil(t, os.MkdirAll(subDir, 0755))
	assert.Nil(t, os.WriteFile(subFile, []byte("x"), 0644))

	stale := time.Now().Add(-48 * time.Hour)
	assert.Nil(t, os.Chtimes(oldFile, stale, stale))
	assert.Nil(t, os.Chtimes(subFile, stale, stale))

	// without recursion, only the top-level stale file goes
	assert.Nil(t, PurgeOldFiles(dir, time.Now().Add(-24*time.Hour), false))
	assert.NoFileExists(t, oldFile)
	assert.FileExists(t, newFile)
	assert.FileExists(t, subFile)

	// with recursion, nested stale files go too; directories stay
	assert.Nil(t, PurgeOldFiles(dir, time.Now().Add(-24*time.Hour), true))
	assert.NoFileExists(t, subFile)
	assert.DirExists(t, subDir)
}

func TestParseTimedelta(t *testing.T) {
	d, err := ParseTimedelta("12 hours")
	assert.Nil(t, err)
	assert.Equal(t, 12*time.Hour, d)

	d, err = ParseTimedelta("3 days 6 hours")
	assert.Nil(t, err)
	assert.Equal(t, 78*time.Hour, d)

	d, err = ParseTimedelta("1 week")
	assert.Nil(t, err)
	assert.Equal(t, 7*24*time.Hour, d)

	for _, bad := range []string{"", "fortnight", "3 fortnights", "3", "x hours"} {
		_, err = ParseTimedelta(bad)
		assert.NotNil(t, err, "phrase %q should not parse", bad)
	}
}

func TestCruiseLock(t *testing.T) {
	dir := t.TempDir()
	lock, err := AcquireCruiseLock(dir, "md5")
	assert.Nil(t, err)
	assert.Nil(t, lock.Release())

	// re-acquisition after release succeeds
	lock, err = AcquireCruiseLock(dir, "md5")
	assert.Nil(t, err)
	assert.Nil(t, lock.Release())
	// releasing twice is harmless
	assert.Nil(t, lock.Release())
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "a.dat"), make([]byte, 4096), 0644))
	size, err := DirSize(dir)
	assert.Nil(t, err)
	assert.Greater(t, size, int64(0))
}
