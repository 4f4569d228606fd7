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

// These tests must be run serially, since the journal is coordinated by a
// single goroutine.

package journal

import (
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/rvdm/rvdm/config"
	"github.com/rvdm/rvdm/rvdmtest"
)

// runs all tests serially
func TestRunner(t *testing.T) {
	tester := SerialTests{Test: t}
	tester.TestInitAndFinalize()
	tester.TestRecordRuns()
	tester.TestRejectsBadVerdict()
}

// This runs setup, runs all tests, and does breakdown.
func TestMain(m *testing.M) {
	var status int
	setup()
	status = m.Run()
	breakdown()
	os.Exit(status)
}

// this function gets called at the beginning of a test session
func setup() {
	rvdmtest.EnableDebugLogging()
	log.Print("Creating testing directory...\n")
	var err error
	TESTING_DIR, err = os.MkdirTemp(os.TempDir(), "rvdm-journal-tests-")
	if err != nil {
		log.Panicf("Couldn't create testing directory: %s", err)
	}

	myConfig := strings.ReplaceAll(journalConfig, "TESTING_DIR", TESTING_DIR)
	err = config.Init([]byte(myConfig))
	if err != nil {
		log.Panicf("Couldn't initialize configuration: %s", err)
	}
}

// this function gets called after all tests have been run
func breakdown() {
	if IsOpen() {
		Finalize()
	}
	if TESTING_DIR != "" {
		log.Printf("Deleting testing directory %s...\n", TESTING_DIR)
		os.RemoveAll(TESTING_DIR)
	}
}

// To run the tests serially, we attach them to a SerialTests type and
// have them run by a single test runner.
type SerialTests struct{ Test *testing.T }

func (t *SerialTests) TestInitAndFinalize() {
	assert := assert.New(t.Test)

	assert.False(IsOpen())
	err := Init()
	assert.Nil(err)
	assert.True(IsOpen())
	err = Finalize()
	assert.Nil(err)
	assert.False(IsOpen())
}

func (t *SerialTests) TestRecordRuns() {
	assert := assert.New(t.Test)

	err := Init()
	assert.Nil(err)

	start := time.Now().Round(time.Second)
	passed := Record{
		Id:           uuid.New(),
		Name:         "GNSS",
		Kind:         "rsync",
		StartTime:    start,
		StopTime:     start.Add(30 * time.Second),
		Verdict:      "passed",
		NewFiles:     12,
		UpdatedFiles: 3,
	}
	assert.Nil(RecordRun(passed))

	failed := Record{
		Id:        uuid.New(),
		Name:      "EM124",
		Kind:      "smb",
		StartTime: start.Add(time.Minute),
		StopTime:  start.Add(2 * time.Minute),
		Verdict:   "failed",
	}
	assert.Nil(RecordRun(failed))

	// both runs fall inside the queried range
	records, err := Records(start.Add(-time.Hour), start.Add(time.Hour))
	assert.Nil(err)
	assert.Equal(2, len(records))
	assert.Equal(passed.Id, records[0].Id)
	assert.Equal("GNSS", records[0].Name)
	assert.Equal(12, records[0].NewFiles)
	assert.Equal(failed.Id, records[1].Id)
	assert.Equal("failed", records[1].Verdict)

	// a narrower range excludes the later run
	records, err = Records(start.Add(-time.Hour), start.Add(30*time.Second))
	assert.Nil(err)
	assert.Equal(1, len(records))
	assert.Equal(passed.Id, records[0].Id)

	err = Finalize()
	assert.Nil(err)
}

func (t *SerialTests) TestRejectsBadVerdict() {
	assert := assert.New(t.Test)

	err := Init()
	assert.Nil(err)

	err = RecordRun(Record{Id: uuid.New(), Name: "GNSS", Verdict: "sideways"})
	assert.NotNil(err)

	err = Finalize()
	assert.Nil(err)
}

// temporary testing directory
var TESTING_DIR string

// configuration
const journalConfig string = `
site:
  data_dir: TESTING_DIR
`
