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

// Package dashboard maintains the data-dashboard manifest: the index mapping
// raw data files to their parsed JSON summaries.
package dashboard

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/rvdm/rvdm/warehouse"
)

// One manifest entry. Paths are relative to the warehouse base directory;
// each raw_data path maps to exactly one entry.
type Entry struct {
	Type    string `json:"type"`
	DdJson  string `json:"dd_json"`
	RawData string `json:"raw_data"`
}

// A Manifest is the full set of entries, keyed by raw_data.
type Manifest struct {
	entries map[string]Entry
}

func New() *Manifest {
	return &Manifest{entries: make(map[string]Entry)}
}

// Loads a manifest file. A missing file yields an empty manifest.
func Load(path string) (*Manifest, error) {
	m := New()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &MalformedManifestError{Path: path, Message: err.Error()}
	}
	for _, entry := range entries {
		m.entries[entry.RawData] = entry
	}
	return m, nil
}

// Records (or replaces) the entry for its raw_data path.
func (m *Manifest) Set(entry Entry) {
	m.entries[entry.RawData] = entry
}

// Removes the entry for the given raw_data path, returning the removed entry
// so the caller can delete the orphaned dd_json file.
func (m *Manifest) Remove(rawData string) (Entry, bool) {
	entry, found := m.entries[rawData]
	if found {
		delete(m.entries, rawData)
	}
	return entry, found
}

func (m *Manifest) Get(rawData string) (Entry, bool) {
	entry, found := m.entries[rawData]
	return entry, found
}

func (m *Manifest) Len() int {
	return len(m.entries)
}

// Returns the entries ordered by raw_data path.
func (m *Manifest) Entries() []Entry {
	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	entries := make([]Entry, len(keys))
	for i, key := range keys {
		entries[i] = m.entries[key]
	}
	return entries
}

// Writes the manifest wholesale as a JSON array, atomically, mode 0644.
func (m *Manifest) Write(path string) error {
	data, err := json.MarshalIndent(m.Entries(), "", "    ")
	if err != nil {
		return err
	}
	return warehouse.AtomicWrite(path, append(data, '\n'), warehouse.FileMode)
}
