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
	"fmt"
	"strings"
)

// indicates that the warehouse user is not in the passwd database
type UnknownUserError struct {
	Username string
}

func (e UnknownUserError) Error() string {
	return fmt.Sprintf("The warehouse user '%s' was not found.", e.Username)
}

// collects individual chown/chmod failures beneath a root into one reason
type PermissionsError struct {
	Path     string
	Failures []string
}

func (e PermissionsError) Error() string {
	return fmt.Sprintf("Couldn't set ownership/permissions under %s: %s",
		e.Path, strings.Join(e.Failures, "; "))
}

// collects individual removal failures during a purge
type PurgeError struct {
	Path     string
	Failures []string
}

func (e PurgeError) Error() string {
	return fmt.Sprintf("Couldn't purge old files under %s: %s",
		e.Path, strings.Join(e.Failures, "; "))
}

// indicates an unparseable purge-interval phrase
type BadTimedeltaError struct {
	Phrase string
}

func (e BadTimedeltaError) Error() string {
	return fmt.Sprintf("Couldn't parse time interval '%s'.", e.Phrase)
}
