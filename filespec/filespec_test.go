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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testContext = Context{
	CruiseID:            "FK250801",
	LoweringID:          "S0412",
	LoweringDataBaseDir: "Lowerings",
}

func TestKeywordReplace(t *testing.T) {
	expanded := KeywordReplace("raw/{cruiseID}/{loweringID}/nav", testContext)
	assert.Equal(t, "raw/FK250801/S0412/nav", expanded)

	// a bound context leaves no recognized tokens behind
	assert.NotContains(t, expanded, "{")

	// date tokens expand to glob character classes
	expanded = KeywordReplace("sonar/{YYYY}{mm}{DD}", testContext)
	assert.Equal(t, "sonar/20[0-9][0-9][0-1][0-9][0-3][0-9]", expanded)

	// trailing slashes are stripped, except for the bare root
	assert.Equal(t, "raw/FK250801", KeywordReplace("raw/{cruiseID}/", testContext))
	assert.Equal(t, "/", KeywordReplace("/", testContext))
}

func TestUnresolvedLoweringID(t *testing.T) {
	cruiseOnly := Context{CruiseID: "FK250801", LoweringDataBaseDir: "Lowerings"}
	expanded := KeywordReplace("raw/{cruiseID}/{loweringID}/nav", cruiseOnly)
	assert.True(t, HasUnresolvedLoweringID(expanded))
	assert.False(t, HasUnresolvedLoweringID(KeywordReplace("raw/{cruiseID}", cruiseOnly)))
}

func TestIsASCII(t *testing.T) {
	assert.True(t, IsASCII("gravimeter_2025-08-26.raw"))
	assert.False(t, IsASCII("datos_batimetría.raw"))
	assert.True(t, IsASCII(""))
}

func TestIsRsyncPartial(t *testing.T) {
	assert.True(t, IsRsyncPartial(".ctd_cast12.dat.Xu3f9Q"))
	assert.False(t, IsRsyncPartial("ctd_cast12.dat"))
	assert.False(t, IsRsyncPartial(".hidden"))
	assert.False(t, IsRsyncPartial(".file.toolong1"))
}

func TestFilterPrecedence(t *testing.T) {
	f, err := BuildFilters("*.txt,*.log", "tmp/*", "*.bak", testContext)
	assert.Nil(t, err)

	assert.Equal(t, Include, f.Apply("a/b.txt"))
	assert.Equal(t, Exclude, f.Apply("tmp/c.txt"))
	assert.Equal(t, Drop, f.Apply("d.bak"))
	assert.Equal(t, Exclude, f.Apply("e.md"))
}

func TestFilterTokens(t *testing.T) {
	f, err := BuildFilters("{cruiseID}/*.raw", "", "", testContext)
	assert.Nil(t, err)
	assert.Equal(t, Include, f.Apply("FK250801/sub/dive.raw"))
	assert.Equal(t, Exclude, f.Apply("FK250722/sub/dive.raw"))
}

func TestBadFilterPattern(t *testing.T) {
	_, err := BuildFilters("[", "", "", testContext)
	assert.NotNil(t, err)
	assert.IsType(t, &BadFilterPatternError{}, err)
}

func TestTimeWindow(t *testing.T) {
	window := OpenTimeWindow()
	assert.True(t, window.Contains(time.Now()))

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
	window = NewTimeWindow(start, end)
	assert.True(t, window.Contains(start))  // inclusive bounds
	assert.True(t, window.Contains(end))
	assert.False(t, window.Contains(start.Add(-time.Second)))
	assert.False(t, window.Contains(end.Add(time.Second)))

	// staleness pulls the end of the window back from "now"
	now := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	narrowed := window.WithStaleness(60*time.Second, now)
	assert.Equal(t, now.Add(-60*time.Second), narrowed.End)

	// staleness never widens a window that already ends earlier
	early := NewTimeWindow(start, now.Add(-time.Hour))
	assert.Equal(t, now.Add(-time.Hour), early.WithStaleness(60*time.Second, now).End)
}

func TestCondenseToRanges(t *testing.T) {
	assert.Equal(t, []string{"1-3", "5", "7-9"}, CondenseToRanges([]int{1, 2, 3, 5, 7, 8, 9}))
	assert.Equal(t, []string{"4"}, CondenseToRanges([]int{4}))
	assert.Equal(t, []string{}, CondenseToRanges(nil))

	// order and duplicates don't matter
	assert.Equal(t, []string{"1-3"}, CondenseToRanges([]int{3, 1, 2, 2}))
}
