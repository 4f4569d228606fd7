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
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// A Plugin is the per-collection-system parser executable that turns a raw
// data file into its dashboard JSON.
type Plugin struct {
	// path to the plugin executable
	Path string
	// optional interpreter the plugin is run under
	Interpreter string
}

// Locates the parser plugin for a collection system: the file named
// {pluginDir}/{lowercased system name}{suffix}.
func FindPlugin(pluginDir, suffix, interpreter, collectionSystemName string) (Plugin, error) {
	path := filepath.Join(pluginDir, strings.ToLower(collectionSystemName)+suffix)
	if _, err := os.Stat(path); err != nil {
		return Plugin{}, &NoPluginError{CollectionSystem: collectionSystemName, Path: path}
	}
	return Plugin{Path: path, Interpreter: interpreter}, nil
}

func (p Plugin) command(ctx context.Context, args ...string) *exec.Cmd {
	if p.Interpreter != "" {
		return exec.CommandContext(ctx, p.Interpreter, append([]string{p.Path}, args...)...)
	}
	return exec.CommandContext(ctx, p.Path, args...)
}

// Asks the plugin for the semantic data type of the given file (the
// --dataType invocation).
func (p Plugin) DataType(ctx context.Context, rawFile string) (string, error) {
	output, err := p.command(ctx, "--dataType", rawFile).Output()
	if err != nil {
		return "", &PluginFailureError{Plugin: p.Path, File: rawFile, Message: err.Error()}
	}
	dataType := strings.TrimSpace(string(output))
	if dataType == "" {
		return "", &PluginFailureError{Plugin: p.Path, File: rawFile, Message: "no data type reported"}
	}
	return dataType, nil
}

// Runs the plugin on the given file and returns its JSON output. No output,
// undecodable JSON, or an embedded "error" field all count as plugin
// failures for this file.
func (p Plugin) Parse(ctx context.Context, rawFile string) (json.RawMessage, error) {
	output, err := p.command(ctx, rawFile).Output()
	if err != nil {
		return nil, &PluginFailureError{Plugin: p.Path, File: rawFile, Message: err.Error()}
	}
	if len(strings.TrimSpace(string(output))) == 0 {
		return nil, &PluginFailureError{Plugin: p.Path, File: rawFile, Message: "no output"}
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(output, &decoded); err != nil {
		return nil, &PluginFailureError{Plugin: p.Path, File: rawFile, Message: "malformed JSON output"}
	}
	if errField, found := decoded["error"]; found && string(errField) != "null" {
		return nil, &PluginFailureError{Plugin: p.Path, File: rawFile,
			Message: "plugin reported: " + strings.Trim(string(errField), `"`)}
	}
	return output, nil
}
