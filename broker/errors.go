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

package broker

import "fmt"

// indicates that the broker server is unreachable
type ConnectError struct {
	Server  string
	Message string
}

func (e ConnectError) Error() string {
	return fmt.Sprintf("Couldn't connect to job broker %s: %s", e.Server, e.Message)
}

// indicates that a job submission was refused
type SubmitError struct {
	JobName string
	Message string
}

func (e SubmitError) Error() string {
	return fmt.Sprintf("Couldn't submit job %s: %s", e.JobName, e.Message)
}

// indicates that an awaited job reported failure at the broker level
type JobFailedError struct {
	JobName string
	Message string
}

func (e JobFailedError) Error() string {
	return fmt.Sprintf("Job %s failed: %s", e.JobName, e.Message)
}
