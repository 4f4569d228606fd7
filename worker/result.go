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

package worker

// the outcome of one part of a job
type Outcome string

const (
	Pass   Outcome = "Pass"
	Fail   Outcome = "Fail"
	Ignore Outcome = "Ignore"
)

// A Part is one step of a handler's state machine. The last part of a
// result is the job's final verdict.
type Part struct {
	PartName string  `json:"partName"`
	Result   Outcome `json:"result"`
	Reason   string  `json:"reason,omitempty"`
}

// A FileSet carries the paths a transfer touched, relative to its
// destination root.
type FileSet struct {
	New     []string `json:"new"`
	Updated []string `json:"updated"`
	Deleted []string `json:"deleted,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// A Result is the completion report a handler returns to the broker.
type Result struct {
	Parts []Part   `json:"parts"`
	Files *FileSet `json:"files,omitempty"`
}

func (r *Result) Pass(name string) {
	r.Parts = append(r.Parts, Part{PartName: name, Result: Pass})
}

func (r *Result) Fail(name, reason string) {
	r.Parts = append(r.Parts, Part{PartName: name, Result: Fail, Reason: reason})
}

func (r *Result) Ignore(name string) {
	r.Parts = append(r.Parts, Part{PartName: name, Result: Ignore})
}

// Returns the final verdict: the last part, or an Ignore verdict for a
// handler that emitted nothing.
func (r Result) Final() Part {
	if len(r.Parts) == 0 {
		return Part{PartName: "No work", Result: Ignore}
	}
	return r.Parts[len(r.Parts)-1]
}
