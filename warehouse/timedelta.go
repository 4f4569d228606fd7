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
	"strconv"
	"strings"
	"time"
)

// units recognized in purge-interval phrases
var timedeltaUnits = map[string]time.Duration{
	"second":  time.Second,
	"seconds": time.Second,
	"minute":  time.Minute,
	"minutes": time.Minute,
	"hour":    time.Hour,
	"hours":   time.Hour,
	"day":     24 * time.Hour,
	"days":    24 * time.Hour,
	"week":    7 * 24 * time.Hour,
	"weeks":   7 * 24 * time.Hour,
}

// Parses a purge-interval phrase like "12 hours" or "3 days 6 hours" into a
// duration. An unknown unit or a malformed phrase is an error.
func ParseTimedelta(phrase string) (time.Duration, error) {
	fields := strings.Fields(phrase)
	if len(fields) == 0 || len(fields)%2 != 0 {
		return 0, &BadTimedeltaError{Phrase: phrase}
	}
	var total time.Duration
	for i := 0; i < len(fields); i += 2 {
		count, err := strconv.Atoi(fields[i])
		if err != nil || count < 0 {
			return 0, &BadTimedeltaError{Phrase: phrase}
		}
		unit, found := timedeltaUnits[strings.ToLower(fields[i+1])]
		if !found {
			return 0, &BadTimedeltaError{Phrase: phrase}
		}
		total += time.Duration(count) * unit
	}
	return total, nil
}
