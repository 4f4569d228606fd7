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

package api

import "fmt"

// indicates a network-level failure talking to the control plane
type TransportError struct {
	Op      string
	Message string
}

func (e TransportError) Error() string {
	return fmt.Sprintf("Control-plane request %s failed: %s", e.Op, e.Message)
}

// indicates a non-200 response from the control plane
type UnexpectedStatusError struct {
	Op   string
	Code int
}

func (e UnexpectedStatusError) Error() string {
	return fmt.Sprintf("Control-plane request %s returned status %d.", e.Op, e.Code)
}

// indicates a response body that couldn't be decoded
type BadResponseError struct {
	Op      string
	Message string
}

func (e BadResponseError) Error() string {
	return fmt.Sprintf("Couldn't decode control-plane response for %s: %s", e.Op, e.Message)
}

// indicates that a referenced record does not exist
type NotFoundError struct {
	Kind string
	Name string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("The %s '%s' was not found.", e.Kind, e.Name)
}
