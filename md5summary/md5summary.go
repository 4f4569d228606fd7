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

// Package md5summary maintains the cruise MD5 summary: a sorted
// "hash  path" index of the cruise tree with a sibling MD5-of-summary file.
// MD5 here is a content fingerprint, not a security primitive.
package md5summary

import (
	"bufio"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rvdm/rvdm/warehouse"
)

// the hash recorded for files above the configured filesize limit
const OverLimitHash = "********************************"

// A Summary indexes hashes by path relative to the cruise root.
type Summary struct {
	entries map[string]string
}

func New() *Summary {
	return &Summary{entries: make(map[string]string)}
}

// Loads a summary file. A missing file yields an empty summary; a malformed
// line is an error.
func Load(path string) (*Summary, error) {
	s := New()
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		hash, filename, found := strings.Cut(line, " ")
		if !found || len(hash) != 32 {
			return nil, &MalformedSummaryError{Path: path, Line: lineNo}
		}
		s.entries[strings.TrimLeft(filename, " ")] = hash
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// Records (or replaces) the hash for a path.
func (s *Summary) Set(path, hash string) {
	s.entries[path] = hash
}

// Removes the entry for a path, if present.
func (s *Summary) Delete(path string) {
	delete(s.entries, path)
}

// Returns the hash recorded for a path.
func (s *Summary) Hash(path string) (string, bool) {
	hash, found := s.entries[path]
	return hash, found
}

func (s *Summary) Len() int {
	return len(s.entries)
}

// Returns the paths in the summary, sorted.
func (s *Summary) Paths() []string {
	paths := make([]string, 0, len(s.entries))
	for path := range s.entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Renders the summary as its on-disk form: one "hash  path" line per unique
// path, sorted by path.
func (s *Summary) Bytes() []byte {
	var b strings.Builder
	for _, path := range s.Paths() {
		fmt.Fprintf(&b, "%s  %s\n", s.entries[path], path)
	}
	return []byte(b.String())
}

// Writes the summary and its MD5-of-summary sibling atomically. The sibling
// always reflects the summary just written.
func (s *Summary) Write(summaryPath, md5Path string) error {
	content := s.Bytes()
	if err := warehouse.AtomicWrite(summaryPath, content, warehouse.FileMode); err != nil {
		return err
	}
	sum := fmt.Sprintf("%x\n", md5.Sum(content))
	return warehouse.AtomicWrite(md5Path, []byte(sum), warehouse.FileMode)
}

// Computes the MD5 of the named file. Files larger than limitBytes (when
// positive) are not read; their hash is recorded as 32 asterisks.
func HashFile(path string, limitBytes int64) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if limitBytes > 0 && info.Size() > limitBytes {
		return OverLimitHash, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := md5.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
