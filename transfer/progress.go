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
	"regexp"
	"strconv"
	"strings"
)

// The classification of one line of rsync itemized output.
type LineKind int

const (
	LineOther LineKind = iota
	LineNewFile
	LineUpdatedFile
	LineProgress
)

var (
	// ">f+++++++++ path" (or "<f" when pulling to local) is a newly
	// created file; ">f." prefixes are updates to existing files
	newFileRegex     = regexp.MustCompile(`^[<>]f\+{9}`)
	updatedFileRegex = regexp.MustCompile(`^[<>]f[.c]`)
	toChkRegex       = regexp.MustCompile(`to-chk=(\d+)/(\d+)`)
	rcloneRegex      = regexp.MustCompile(`Transferred:.*\s(\d+)%`)
)

// Classifies one line of rsync output. For file lines, path is everything
// after the first space; for progress lines, percent is derived from
// to-chk=<remaining>/<total>.
func ClassifyLine(line string) (kind LineKind, path string, percent int) {
	trimmed := strings.TrimSpace(line)
	if m := toChkRegex.FindStringSubmatch(trimmed); m != nil {
		remaining, _ := strconv.Atoi(m[1])
		total, _ := strconv.Atoi(m[2])
		if total > 0 {
			return LineProgress, "", 100 * (total - remaining) / total
		}
		return LineProgress, "", 0
	}
	if newFileRegex.MatchString(trimmed) {
		if _, p, found := strings.Cut(trimmed, " "); found {
			return LineNewFile, p, 0
		}
		return LineOther, "", 0
	}
	if updatedFileRegex.MatchString(trimmed) {
		if _, p, found := strings.Cut(trimmed, " "); found {
			return LineUpdatedFile, p, 0
		}
	}
	return LineOther, "", 0
}

// Parses the percentage out of an rclone "Transferred: ... nn%" progress
// line, for the alternate ship-to-shore mover. Returns -1 when the line is
// not a progress line.
func ParseRclonePercent(line string) int {
	if m := rcloneRegex.FindStringSubmatch(line); m != nil {
		percent, _ := strconv.Atoi(m[1])
		return percent
	}
	return -1
}

var statsFileCountRegex = regexp.MustCompile(
	`Number of (?:regular )?files transferred:\s+([\d,]+)`)

// Extracts the regular-file count from rsync --stats output. Returns zero
// when the stats block carries no count.
func ParseStatsFileCount(output string) int {
	if m := statsFileCountRegex.FindStringSubmatch(output); m != nil {
		count, _ := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		return count
	}
	return 0
}
