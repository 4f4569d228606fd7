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

package filespec

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/lo"
)

// The outcome of filtering a single path. Drop means the path is discarded
// entirely; Exclude means it is reported but not transferred.
type FilterAction int

const (
	Drop FilterAction = iota
	Include
	Exclude
)

// A compiled set of include/exclude/ignore glob patterns. Patterns match the
// full relative path, and "*" crosses directory separators, matching the
// behavior transfer operators expect from shell-style filters.
type Filters struct {
	include, exclude, ignore []glob.Glob
}

// Compiles filter patterns from comma-separated pattern strings, expanding
// recognized tokens against the given context first. Empty segments are
// dropped, so "" yields an empty pattern list.
func BuildFilters(includes, excludes, ignores string, ctx Context) (Filters, error) {
	var f Filters
	var err error
	if f.include, err = compilePatterns(includes, ctx); err != nil {
		return f, err
	}
	if f.exclude, err = compilePatterns(excludes, ctx); err != nil {
		return f, err
	}
	f.ignore, err = compilePatterns(ignores, ctx)
	return f, err
}

func compilePatterns(patterns string, ctx Context) ([]glob.Glob, error) {
	segments := lo.Filter(strings.Split(patterns, ","), func(s string, _ int) bool {
		return strings.TrimSpace(s) != ""
	})
	globs := make([]glob.Glob, 0, len(segments))
	for _, segment := range segments {
		g, err := glob.Compile(KeywordReplace(strings.TrimSpace(segment), ctx))
		if err != nil {
			return nil, &BadFilterPatternError{Pattern: segment, Message: err.Error()}
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// Classifies a path against the filter set: Drop if any ignore pattern
// matches; otherwise Include if an include pattern matches and no exclude
// pattern does; Exclude in every other case.
func (f Filters) Apply(path string) FilterAction {
	for _, g := range f.ignore {
		if g.Match(path) {
			return Drop
		}
	}
	included := lo.SomeBy(f.include, func(g glob.Glob) bool { return g.Match(path) })
	excluded := lo.SomeBy(f.exclude, func(g glob.Glob) bool { return g.Match(path) })
	if included && !excluded {
		return Include
	}
	return Exclude
}
