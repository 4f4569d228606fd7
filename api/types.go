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

// Package api is the typed client for the control-plane HTTP API. The client
// never caches: the UI and other workers mutate the same records, so every
// read is live.
package api

import "time"

// record status values shared by collection system transfers, cruise data
// transfers, and tasks
const (
	StatusRunning = "1"
	StatusIdle    = "2"
	StatusError   = "3"
	StatusUnused  = "4"
)

// The control plane encodes booleans as the strings "0"/"1".
type Flag string

func (f Flag) Bool() bool {
	return f == "1"
}

// Some control-plane flags are encoded as "On"/"Off" instead.
type OnOff string

func (o OnOff) Bool() bool {
	return o == "On"
}

// the four source/sink kinds of a transfer
type TransferKind string

const (
	KindLocal TransferKind = "local"
	KindRsync TransferKind = "rsync"
	KindSmb   TransferKind = "smb"
	KindSsh   TransferKind = "ssh"
)

// scoping of a transfer's destination template
const (
	ScopeCruise   = "0"
	ScopeLowering = "1"
)

// the date layout used by the control plane
const DateLayout = "2006/01/02 15:04"

// Parses a control-plane date string, returning the zero time for an empty
// value.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, s)
}

// A Cruise is a top-level data-collection episode. One at a time is current.
type Cruise struct {
	CruiseID    string `json:"cruiseID"`
	StartDate   string `json:"cruiseStartDate"`
	EndDate     string `json:"cruiseEndDate"`
	FinalizedOn string `json:"cruiseFinalizedOn"`
}

// A Lowering is a nested sub-episode (e.g. a single ROV dive) within a cruise.
type Lowering struct {
	LoweringID  string `json:"loweringID"`
	StartDate   string `json:"loweringStartDate"`
	EndDate     string `json:"loweringEndDate"`
	FinalizedOn string `json:"loweringFinalizedOn"`
}

// A CollectionSystemTransfer describes the inbound pipeline from one
// acquisition source into the cruise tree.
type CollectionSystemTransfer struct {
	ID                string       `json:"collectionSystemTransferID"`
	Name              string       `json:"name"`
	LongName          string       `json:"longName"`
	Status            string       `json:"status"`
	Pid               string       `json:"pid"`
	Enable            Flag         `json:"enable"`
	TransferType      TransferKind `json:"transferType"`
	SourceDir         string       `json:"sourceDir"`
	DestDir           string       `json:"destDir"`
	CruiseOrLowering  string       `json:"cruiseOrLowering"`
	SyncFromSource    Flag         `json:"syncFromSource"`
	Staleness         int          `json:"staleness,string"`
	BandwidthLimit    int          `json:"bandwidthLimit,string"`
	RemoveSourceFiles Flag         `json:"removeSourceFiles"`
	SkipEmptyFiles    Flag         `json:"skipEmptyFiles"`
	SkipEmptyDirs     Flag         `json:"skipEmptyDirs"`
	UseStartDate      Flag         `json:"useStartDate"`
	IncludeFilter     string       `json:"includeFilter"`
	ExcludeFilter     string       `json:"excludeFilter"`
	IgnoreFilter      string       `json:"ignoreFilter"`

	// rsync credentials
	RsyncServer string `json:"rsyncServer"`
	RsyncUser   string `json:"rsyncUser"`
	RsyncPass   string `json:"rsyncPass"`

	// smb credentials
	SmbServer string `json:"smbServer"`
	SmbUser   string `json:"smbUser"`
	SmbPass   string `json:"smbPass"`
	SmbDomain string `json:"smbDomain"`

	// ssh credentials
	SshServer string `json:"sshServer"`
	SshUser   string `json:"sshUser"`
	SshPass   string `json:"sshPass"`
	SshUseKey Flag   `json:"sshUseKey"`
}

// A CruiseDataTransfer describes the outbound pipeline of the assembled
// cruise tree to an archive or replica.
type CruiseDataTransfer struct {
	ID               string       `json:"cruiseDataTransferID"`
	Name             string       `json:"name"`
	LongName         string       `json:"longName"`
	Status           string       `json:"status"`
	Pid              string       `json:"pid"`
	Enable           Flag         `json:"enable"`
	Required         Flag         `json:"required"`
	TransferType     TransferKind `json:"transferType"`
	DestDir          string       `json:"destDir"`
	BandwidthLimit   int          `json:"bandwidthLimit,string"`
	SkipEmptyFiles   Flag         `json:"skipEmptyFiles"`
	SkipEmptyDirs    Flag         `json:"skipEmptyDirs"`
	SyncToDest       Flag         `json:"syncToDest"`
	IncludeOVDMFiles Flag         `json:"includeOVDMFiles"`
	// comma-separated IDs of collection systems excluded from the transfer
	ExcludedCollectionSystems string `json:"excludedCollectionSystems"`
	// comma-separated IDs of extra directories excluded from the transfer
	ExcludedExtraDirectories string `json:"excludedExtraDirectories"`

	RsyncServer string `json:"rsyncServer"`
	RsyncUser   string `json:"rsyncUser"`
	RsyncPass   string `json:"rsyncPass"`
	SmbServer   string `json:"smbServer"`
	SmbUser     string `json:"smbUser"`
	SmbPass     string `json:"smbPass"`
	SmbDomain   string `json:"smbDomain"`
	SshServer   string `json:"sshServer"`
	SshUser     string `json:"sshUser"`
	SshPass     string `json:"sshPass"`
	SshUseKey   Flag   `json:"sshUseKey"`
}

// A ShipToShoreTransfer is a prioritized include-filter bundle selecting a
// subset of the cruise for the bandwidth-limited shore path.
type ShipToShoreTransfer struct {
	ID               string `json:"shipToShoreTransferID"`
	Name             string `json:"name"`
	LongName         string `json:"longName"`
	Priority         int    `json:"priority,string"`
	Enable           Flag   `json:"enable"`
	Required         Flag   `json:"required"`
	CollectionSystem string `json:"collectionSystem"`
	ExtraDirectory   string `json:"extraDirectory"`
	IncludeFilter    string `json:"includeFilter"`
}

// An ExtraDirectory is an additional destination directory under the cruise
// root.
type ExtraDirectory struct {
	ID               string `json:"extraDirectoryID"`
	Name             string `json:"name"`
	DestDir          string `json:"destDir"`
	Enable           Flag   `json:"enable"`
	Required         Flag   `json:"required"`
	CruiseOrLowering string `json:"cruiseOrLowering"`
}

// A Task is a named, persistent unit of work. Synthetic tasks carry
// TaskID "0" and do not persist state.
type Task struct {
	TaskID   string `json:"taskID"`
	Name     string `json:"name"`
	LongName string `json:"longName"`
	Status   string `json:"status"`
	Pid      string `json:"pid"`
	Enable   Flag   `json:"enable"`
}

// Reports whether this is a synthetic (non-persistent) task record.
func (t Task) Synthetic() bool {
	return t.TaskID == "0"
}

// The ShipboardDataWarehouseConfig describes the shipboard staging
// filesystem and its standard file names.
type WarehouseConfig struct {
	BaseDir                 string `json:"shipboardDataWarehouseBaseDir"`
	PublicDataDir           string `json:"shipboardDataWarehousePublicDataDir"`
	LoweringDataBaseDir     string `json:"loweringDataBaseDir"`
	Username                string `json:"shipboardDataWarehouseUsername"`
	Md5SummaryFn            string `json:"md5SummaryFn"`
	Md5SummaryMd5Fn         string `json:"md5SummaryMd5Fn"`
	CruiseConfigFn          string `json:"cruiseConfigFn"`
	LoweringConfigFn        string `json:"loweringConfigFn"`
	DataDashboardManifestFn string `json:"dataDashboardManifestFn"`
}

// A HookAction is one user-configured command bound to a hook point.
type HookAction struct {
	Name    string   `json:"name"`
	Command []string `json:"command"`
}
