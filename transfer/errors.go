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

import "fmt"

// indicates that a remote server failed its reachability probe
type ServerUnreachableError struct {
	Server  string
	Message string
}

func (e ServerUnreachableError) Error() string {
	return fmt.Sprintf("Server %s is unreachable: %s", e.Server, e.Message)
}

// indicates that a CIFS mount failed
type MountError struct {
	Server  string
	Message string
}

func (e MountError) Error() string {
	return fmt.Sprintf("Couldn't mount %s: %s", e.Server, e.Message)
}

// indicates that source enumeration failed
type EnumerationError struct {
	Source  string
	Message string
}

func (e EnumerationError) Error() string {
	return fmt.Sprintf("Couldn't enumerate %s: %s", e.Source, e.Message)
}

// indicates that a spawned transfer process failed outright
type RunError struct {
	Command  string
	ExitCode int
	Message  string
}

func (e RunError) Error() string {
	return fmt.Sprintf("%s exited with status %d: %s", e.Command, e.ExitCode, e.Message)
}

// indicates that the transfer was cancelled by a stop or quit request
type CancelledError struct {
	Command string
}

func (e CancelledError) Error() string {
	return fmt.Sprintf("%s was cancelled", e.Command)
}
