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

package handlers

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rvdm/rvdm/worker"
)

// Runs the user-configured commands bound to a hook point. The hook name is
// the job's own name; transfer-related hooks are additionally filtered by
// the collection system transfer that triggered them. Command failures are
// collected into a single failing part; a hook with no commands is a no-op.
func (h *Handlers) PostHook(j *worker.Job) worker.Result {
	var result worker.Result

	actions, err := j.Api.PostHookCommands(j.Name, j.Payload.CollectionSystemTransferName)
	if err != nil {
		result.Fail("Retrieve hook commands", err.Error())
		return result
	}
	if len(actions) == 0 {
		result.Ignore("Retrieve hook commands")
		return result
	}
	result.Pass("Retrieve hook commands")
	j.Progress(10)

	tokens := hookTokens(j)
	progress := j.StepProgress(10, 100)
	var failures []string
	for i, action := range actions {
		command := make([]string, len(action.Command))
		for k, word := range action.Command {
			command[k] = tokens.Replace(word)
		}
		if len(command) == 0 {
			continue
		}
		output, err := exec.CommandContext(j.Ctx, command[0], command[1:]...).CombinedOutput()
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %s: %s", action.Name, err,
				strings.TrimSpace(string(output))))
		}
		progress(100 * (i + 1) / len(actions))
	}
	if len(failures) > 0 {
		result.Fail("Run hook commands", strings.Join(failures, "; "))
		return result
	}
	result.Pass("Run hook commands")
	return result
}

// Encodes a path list as a JSON array; a nil list is an empty array, not
// null.
func jsonList(paths []string) string {
	if len(paths) == 0 {
		return "[]"
	}
	encoded, err := json.Marshal(paths)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

// Builds the token replacer for hook commands. The file-set tokens expand to
// JSON arrays so downstream scripts can decode them unambiguously.
func hookTokens(j *worker.Job) *strings.Replacer {
	cstID, cstName := "", j.Payload.CollectionSystemTransferName
	if cst := j.Payload.CollectionSystemTransfer; cst != nil {
		cstID = cst.ID
		if cstName == "" {
			cstName = cst.Name
		}
	}
	newFiles, updatedFiles := "[]", "[]"
	if files := j.Payload.Files; files != nil {
		newFiles = jsonList(files.New)
		updatedFiles = jsonList(files.Updated)
	}
	return strings.NewReplacer(
		"{cruiseID}", j.Payload.CruiseID,
		"{loweringID}", j.Payload.LoweringID,
		"{collectionSystemTransferID}", cstID,
		"{collectionSystemTransferName}", cstName,
		"{newFiles}", newFiles,
		"{updatedFiles}", updatedFiles,
	)
}
