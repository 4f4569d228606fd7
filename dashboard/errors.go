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

package dashboard

import "fmt"

// indicates a manifest file that couldn't be decoded
type MalformedManifestError struct {
	Path    string
	Message string
}

func (e MalformedManifestError) Error() string {
	return fmt.Sprintf("Couldn't decode dashboard manifest %s: %s", e.Path, e.Message)
}

// indicates that a parser plugin for a collection system is absent
type NoPluginError struct {
	CollectionSystem string
	Path             string
}

func (e NoPluginError) Error() string {
	return fmt.Sprintf("No data dashboard plugin for %s (looked for %s).",
		e.CollectionSystem, e.Path)
}

// indicates that a plugin produced no output, malformed JSON, or an embedded
// error field for one file; per-file failures skip the file, they don't fail
// the job
type PluginFailureError struct {
	Plugin  string
	File    string
	Message string
}

func (e PluginFailureError) Error() string {
	return fmt.Sprintf("Plugin %s failed on %s: %s", e.Plugin, e.File, e.Message)
}
