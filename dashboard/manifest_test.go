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

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")

	m := New()
	m.Set(Entry{Type: "gga", DdJson: "FK250801/Dashboard_Data/nav1.json",
		RawData: "FK250801/nav/nav1.raw"})
	m.Set(Entry{Type: "tsg", DdJson: "FK250801/Dashboard_Data/tsg1.json",
		RawData: "FK250801/tsg/tsg1.raw"})
	assert.Nil(t, m.Write(path))

	reloaded, err := Load(path)
	assert.Nil(t, err)
	assert.Equal(t, 2, reloaded.Len())
	entry, found := reloaded.Get("FK250801/nav/nav1.raw")
	assert.True(t, found)
	assert.Equal(t, "gga", entry.Type)
}

func TestManifestReplaceAndRemove(t *testing.T) {
	m := New()
	m.Set(Entry{Type: "gga", DdJson: "a.json", RawData: "a.raw"})

	// one entry per raw_data path: a second Set replaces
	m.Set(Entry{Type: "gga-v2", DdJson: "a.json", RawData: "a.raw"})
	assert.Equal(t, 1, m.Len())
	entry, _ := m.Get("a.raw")
	assert.Equal(t, "gga-v2", entry.Type)

	removed, found := m.Remove("a.raw")
	assert.True(t, found)
	assert.Equal(t, "a.json", removed.DdJson)
	assert.Equal(t, 0, m.Len())

	_, found = m.Remove("a.raw")
	assert.False(t, found)
}

func TestLoadMissingManifest(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "manifest.json"))
	assert.Nil(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestLoadMalformedManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	assert.Nil(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err := Load(path)
	assert.NotNil(t, err)
	assert.IsType(t, &MalformedManifestError{}, err)
}

// writes a small shell plugin that mimics a parser's two invocations
func writeTestPlugin(t *testing.T, dir, name, script string) string {
	path := filepath.Join(dir, name)
	assert.Nil(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func TestFindPlugin(t *testing.T) {
	dir := t.TempDir()
	writeTestPlugin(t, dir, "em324_parser", "echo gga")

	plugin, err := FindPlugin(dir, "_parser", "", "EM324")
	assert.Nil(t, err)
	assert.Equal(t, filepath.Join(dir, "em324_parser"), plugin.Path)

	_, err = FindPlugin(dir, "_parser", "", "SBE45")
	assert.NotNil(t, err)
	assert.IsType(t, &NoPluginError{}, err)
}

func TestPluginInvocation(t *testing.T) {
	dir := t.TempDir()
	writeTestPlugin(t, dir, "nav_parser", `
if [ "$1" = "--dataType" ]; then
  echo gga
else
  echo '{"visualizerData": [], "qualityTests": [], "stats": []}'
fi
`)
	plugin, err := FindPlugin(dir, "_parser", "", "NAV")
	assert.Nil(t, err)

	dataType, err := plugin.DataType(context.Background(), "whatever.raw")
	assert.Nil(t, err)
	assert.Equal(t, "gga", dataType)

	output, err := plugin.Parse(context.Background(), "whatever.raw")
	assert.Nil(t, err)
	assert.Contains(t, string(output), "visualizerData")
}

func TestPluginFailures(t *testing.T) {
	dir := t.TempDir()

	// no output
	writeTestPlugin(t, dir, "silent_parser", "exit 0")
	plugin, _ := FindPlugin(dir, "_parser", "", "SILENT")
	_, err := plugin.Parse(context.Background(), "f.raw")
	assert.IsType(t, &PluginFailureError{}, err)

	// malformed JSON
	writeTestPlugin(t, dir, "garbled_parser", "echo '{oops'")
	plugin, _ = FindPlugin(dir, "_parser", "", "GARBLED")
	_, err = plugin.Parse(context.Background(), "f.raw")
	assert.IsType(t, &PluginFailureError{}, err)

	// embedded error field
	writeTestPlugin(t, dir, "sad_parser", `echo '{"error": "unsupported format"}'`)
	plugin, _ = FindPlugin(dir, "_parser", "", "SAD")
	_, err = plugin.Parse(context.Background(), "f.raw")
	assert.IsType(t, &PluginFailureError{}, err)
	assert.Contains(t, err.Error(), "unsupported format")
}
