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

// Package filespec holds the path and filter primitives shared by the
// transfer subsystem: destination-template token substitution, filename
// checks, glob filter precedence, and time-window predicates.
package filespec

import (
	"regexp"
	"strings"
	"time"
)

// the context against which destination templates and filter patterns are
// expanded
type Context struct {
	// identifier of the current cruise (empty if none)
	CruiseID string
	// identifier of the current lowering (empty if none, or if the walk is
	// lowering-agnostic)
	LoweringID string
	// name of the lowering subdirectory beneath the cruise root
	LoweringDataBaseDir string
}

// date tokens expand to glob character classes, not to literal digits, so
// that a template like raw/{YYYY}{mm}{DD} matches any day's directory
var dateTokens = [][2]string{
	{"{YYYY}", "20[0-9][0-9]"},
	{"{YY}", "[0-9][0-9]"},
	{"{mm}", "[0-1][0-9]"},
	{"{DD}", "[0-3][0-9]"},
	{"{HH}", "[0-2][0-9]"},
	{"{MM}", "[0-5][0-9]"},
	{"{SS}", "[0-5][0-9]"},
}

// Performs deterministic left-to-right substitution of the recognized tokens
// within the given template. Tokens whose context value is unbound are left
// in place (see HasUnresolvedLoweringID). A trailing slash is stripped unless
// the template is the single character "/".
func KeywordReplace(template string, ctx Context) string {
	s := template
	if ctx.CruiseID != "" {
		s = strings.ReplaceAll(s, "{cruiseID}", ctx.CruiseID)
	}
	if ctx.LoweringDataBaseDir != "" {
		s = strings.ReplaceAll(s, "{loweringDataBaseDir}", ctx.LoweringDataBaseDir)
	}
	if ctx.LoweringID != "" {
		s = strings.ReplaceAll(s, "{loweringID}", ctx.LoweringID)
	}
	for _, token := range dateTokens {
		s = strings.ReplaceAll(s, token[0], token[1])
	}
	if s != "/" {
		s = strings.TrimRight(s, "/")
	}
	return s
}

// Reports whether an expanded template still carries a {loweringID} token.
// In a lowering-agnostic context this is a signal to skip the template, not
// an error.
func HasUnresolvedLoweringID(expanded string) bool {
	return strings.Contains(expanded, "{loweringID}")
}

// Reports whether every code unit of s fits in U+0000..U+007F. Files with
// non-ASCII names are routed to the exclude bucket and never transferred.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}

var rsyncPartialRegex = regexp.MustCompile(`^\..+\.[A-Za-z0-9_]{6}$`)

// Reports whether the given basename looks like an rsync partial file
// (".name.XXXXXX").
func IsRsyncPartial(name string) bool {
	return rsyncPartialRegex.MatchString(name)
}

// A TimeWindow bounds the modification times of files eligible for transfer.
type TimeWindow struct {
	Start, End time.Time
}

// the open-ended upper bound used when no data end time applies
var farFuture = time.Date(9999, time.January, 1, 0, 0, 0, 0, time.UTC)

// Returns the widest possible window: the Unix epoch through year 9999.
func OpenTimeWindow() TimeWindow {
	return TimeWindow{Start: time.Unix(0, 0).UTC(), End: farFuture}
}

// Returns a window narrowed to the given bounds. A zero start keeps the
// epoch; a zero end keeps year 9999.
func NewTimeWindow(start, end time.Time) TimeWindow {
	w := OpenTimeWindow()
	if !start.IsZero() {
		w.Start = start
	}
	if !end.IsZero() {
		w.End = end
	}
	return w
}

// Pulls the end of the window back by the given staleness interval from
// "now", whichever is earlier. Used to keep files still being written out of
// a transfer.
func (w TimeWindow) WithStaleness(staleness time.Duration, now time.Time) TimeWindow {
	if staleness <= 0 {
		return w
	}
	cutoff := now.Add(-staleness)
	if cutoff.Before(w.End) {
		w.End = cutoff
	}
	return w
}

// Reports whether the given modification time falls within the window
// (inclusive on both ends).
func (w TimeWindow) Contains(mtime time.Time) bool {
	return !mtime.Before(w.Start) && !mtime.After(w.End)
}
