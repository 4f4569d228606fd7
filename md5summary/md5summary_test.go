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

package md5summary

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadMissing(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "MD5_Summary.txt"))
	assert.Nil(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestMergeAndWrite(t *testing.T) {
	dir := t.TempDir()
	summaryPath := filepath.Join(dir, "MD5_Summary.txt")
	md5Path := filepath.Join(dir, "MD5_Summary.md5")

	existing := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa  dir/a.txt\n" +
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb  dir/b.txt\n"
	assert.Nil(t, os.WriteFile(summaryPath, []byte(existing), 0644))

	s, err := Load(summaryPath)
	assert.Nil(t, err)
	assert.Equal(t, 2, s.Len())

	// updated file replaces its entry, new file adds one, deleted goes away
	s.Set("dir/a.txt", strings.Repeat("c", 32))
	s.Set("dir/c.txt", strings.Repeat("d", 32))
	s.Delete("dir/b.txt")
	assert.Nil(t, s.Write(summaryPath, md5Path))

	data, err := os.ReadFile(summaryPath)
	assert.Nil(t, err)
	expected := "cccccccccccccccccccccccccccccccc  dir/a.txt\n" +
		"dddddddddddddddddddddddddddddddd  dir/c.txt\n"
	assert.Equal(t, expected, string(data))

	// the sibling holds the MD5 of the summary just written
	sidecar, err := os.ReadFile(md5Path)
	assert.Nil(t, err)
	assert.Equal(t, fmt.Sprintf("%x\n", md5.Sum(data)), string(sidecar))
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	summaryPath := filepath.Join(dir, "MD5_Summary.txt")
	md5Path := filepath.Join(dir, "MD5_Summary.md5")

	s := New()
	s.Set("z/last.dat", strings.Repeat("1", 32))
	s.Set("a/first.dat", strings.Repeat("2", 32))
	assert.Nil(t, s.Write(summaryPath, md5Path))

	reloaded, err := Load(summaryPath)
	assert.Nil(t, err)
	assert.Equal(t, s.Bytes(), reloaded.Bytes())

	// paths come back sorted
	assert.Equal(t, []string{"a/first.dat", "z/last.dat"}, reloaded.Paths())
}

func TestMalformedSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MD5_Summary.txt")
	assert.Nil(t, os.WriteFile(path, []byte("not a summary line\n"), 0644))
	_, err := Load(path)
	assert.NotNil(t, err)
	assert.IsType(t, &MalformedSummaryError{}, err)
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nav.dat")
	assert.Nil(t, os.WriteFile(path, []byte("heading 042\n"), 0644))

	hash, err := HashFile(path, 0)
	assert.Nil(t, err)
	assert.Equal(t, fmt.Sprintf("%x", md5.Sum([]byte("heading 042\n"))), hash)

	// over the filesize limit, the hash is 32 asterisks
	hash, err = HashFile(path, 4)
	assert.Nil(t, err)
	assert.Equal(t, OverLimitHash, hash)
	assert.Len(t, hash, 32)
}
