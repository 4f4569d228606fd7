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

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rvdm/rvdm/config"
)

// A Client issues requests against the control-plane API. Every call carries
// a short absolute deadline and fails loudly; callers decide whether to
// retry or surface the failure.
type Client struct {
	baseUrl string
	http    http.Client
}

// Creates a client from the global configuration.
func NewClient() *Client {
	return NewClientWithUrl(config.Api.Url, time.Duration(config.Api.Timeout)*time.Second)
}

// Creates a client against an explicit base URL (used by tests).
func NewClientWithUrl(baseUrl string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseUrl: strings.TrimRight(baseUrl, "/"),
		http:    http.Client{Timeout: timeout},
	}
}

// issues a GET against the given API path and decodes the JSON response into
// result (when result is non-nil)
func (c *Client) get(path string, result any) error {
	resp, err := c.http.Get(c.baseUrl + path)
	if err != nil {
		return &TransportError{Op: path, Message: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &UnexpectedStatusError{Op: path, Code: resp.StatusCode}
	}
	if result == nil {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: path, Message: err.Error()}
	}
	if err := json.Unmarshal(body, result); err != nil {
		return &BadResponseError{Op: path, Message: err.Error()}
	}
	return nil
}

// issues a POST of form values against the given API path
func (c *Client) post(path string, form url.Values) error {
	resp, err := c.http.PostForm(c.baseUrl+path, form)
	if err != nil {
		return &TransportError{Op: path, Message: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &UnexpectedStatusError{Op: path, Code: resp.StatusCode}
	}
	return nil
}

//-----------
// Warehouse
//-----------

func (c *Client) WarehouseConfig() (WarehouseConfig, error) {
	var cfg WarehouseConfig
	err := c.get("/api/warehouse/getShipboardDataWarehouseConfig", &cfg)
	return cfg, err
}

func (c *Client) CurrentCruise() (Cruise, error) {
	var cruise Cruise
	err := c.get("/api/warehouse/getCurrentCruise", &cruise)
	return cruise, err
}

func (c *Client) CurrentLowering() (Lowering, error) {
	var lowering Lowering
	err := c.get("/api/warehouse/getCurrentLowering", &lowering)
	return lowering, err
}

// Returns the ids of every lowering in the current cruise.
func (c *Client) Lowerings() ([]string, error) {
	var ids []string
	err := c.get("/api/warehouse/getLowerings", &ids)
	return ids, err
}

// Returns "On" when the data manager is active, "Off" when idled by the
// operator.
func (c *Client) SystemStatus() (OnOff, error) {
	var status struct {
		SystemStatus OnOff `json:"systemStatus"`
	}
	err := c.get("/api/warehouse/getSystemStatus", &status)
	return status.SystemStatus, err
}

// Reports whether this installation shows lowering components at all.
func (c *Client) ShowLoweringComponents() (bool, error) {
	var result struct {
		ShowLoweringComponents OnOff `json:"showLoweringComponents"`
	}
	err := c.get("/api/warehouse/getShowLoweringComponents", &result)
	return result.ShowLoweringComponents.Bool(), err
}

// Reports whether only the current cruise directory should be visible.
func (c *Client) ShowOnlyCurrentCruiseDir() (bool, error) {
	var result struct {
		ShowOnlyCurrentCruiseDir Flag `json:"showOnlyCurrentCruiseDir"`
	}
	err := c.get("/api/warehouse/getShowOnlyCurrentCruiseDir", &result)
	return result.ShowOnlyCurrentCruiseDir.Bool(), err
}

// Reports whether PublicData is mirrored into the cruise tree.
func (c *Client) TransferPublicData() (bool, error) {
	var result struct {
		TransferPublicData Flag `json:"transferPubicData"`
	}
	err := c.get("/api/warehouse/getTransferPublicData", &result)
	return result.TransferPublicData.Bool(), err
}

func (c *Client) ShipToShoreBWLimitStatus() (bool, error) {
	var result struct {
		ShipToShoreBWLimitStatus OnOff `json:"shipToShoreBWLimitStatus"`
	}
	err := c.get("/api/warehouse/getShipToShoreBWLimitStatus", &result)
	return result.ShipToShoreBWLimitStatus.Bool(), err
}

// Returns the MD5 filesize limit in megabytes and whether the limit is
// enforced at all.
func (c *Client) Md5FilesizeLimit() (int64, bool, error) {
	var result struct {
		Limit  int64 `json:"md5FilesizeLimit,string"`
		Status OnOff `json:"md5FilesizeLimitStatus"`
	}
	err := c.get("/api/warehouse/getMd5FilesizeLimit", &result)
	return result.Limit, result.Status.Bool(), err
}

// Returns the configured transfer-log purge interval as a phrase like
// "3 days 6 hours".
func (c *Client) LogfilePurgeInterval() (string, error) {
	var result struct {
		Interval string `json:"logfilePurgeTimedelta"`
	}
	err := c.get("/api/warehouse/getLogfilePurgeInterval", &result)
	return result.Interval, err
}

// Returns the full cruise configuration as exported to the cruise config
// file; the document is opaque to the core.
func (c *Client) CruiseConfig() (json.RawMessage, error) {
	var doc json.RawMessage
	err := c.get("/api/warehouse/getCruiseConfig", &doc)
	return doc, err
}

func (c *Client) LoweringConfig() (json.RawMessage, error) {
	var doc json.RawMessage
	err := c.get("/api/warehouse/getLoweringConfig", &doc)
	return doc, err
}

func (c *Client) SetCruiseSize(bytes int64) error {
	return c.post("/api/warehouse/setCruiseSize",
		url.Values{"bytes": {strconv.FormatInt(bytes, 10)}})
}

func (c *Client) SetLoweringSize(bytes int64) error {
	return c.post("/api/warehouse/setLoweringSize",
		url.Values{"bytes": {strconv.FormatInt(bytes, 10)}})
}

//-----------------------------
// Collection system transfers
//-----------------------------

func (c *Client) CollectionSystemTransfers() ([]CollectionSystemTransfer, error) {
	var transfers []CollectionSystemTransfer
	err := c.get("/api/collectionSystemTransfers/getCollectionSystemTransfers", &transfers)
	return transfers, err
}

func (c *Client) ActiveCollectionSystemTransfers() ([]CollectionSystemTransfer, error) {
	var transfers []CollectionSystemTransfer
	err := c.get("/api/collectionSystemTransfers/getActiveCollectionSystemTransfers", &transfers)
	return transfers, err
}

func (c *Client) CollectionSystemTransfer(id string) (CollectionSystemTransfer, error) {
	var transfer CollectionSystemTransfer
	err := c.get("/api/collectionSystemTransfers/getCollectionSystemTransfer/"+id, &transfer)
	return transfer, err
}

func (c *Client) CollectionSystemTransferByName(name string) (CollectionSystemTransfer, error) {
	transfers, err := c.CollectionSystemTransfers()
	if err != nil {
		return CollectionSystemTransfer{}, err
	}
	for _, transfer := range transfers {
		if transfer.Name == name {
			return transfer, nil
		}
	}
	return CollectionSystemTransfer{}, &NotFoundError{Kind: "collection system transfer", Name: name}
}

func (c *Client) SetRunningCollectionSystemTransfer(id string, pid int, jobHandle string) error {
	return c.post("/api/collectionSystemTransfers/setRunningCollectionSystemTransfer/"+id,
		url.Values{"pid": {strconv.Itoa(pid)}, "jobHandle": {jobHandle}})
}

func (c *Client) SetIdleCollectionSystemTransfer(id string) error {
	return c.post("/api/collectionSystemTransfers/setIdleCollectionSystemTransfer/"+id, url.Values{})
}

func (c *Client) SetErrorCollectionSystemTransfer(id, reason string) error {
	return c.post("/api/collectionSystemTransfers/setErrorCollectionSystemTransfer/"+id,
		url.Values{"reason": {reason}})
}

// The -test variant records a connection-test failure without touching the
// persistent transfer row.
func (c *Client) SetErrorCollectionSystemTransferTest(id, reason string) error {
	return c.post("/api/collectionSystemTransfers/setErrorCollectionSystemTransferTest/"+id,
		url.Values{"reason": {reason}})
}

func (c *Client) SetIdleCollectionSystemTransferTest(id string) error {
	return c.post("/api/collectionSystemTransfers/setIdleCollectionSystemTransferTest/"+id, url.Values{})
}

//------------------------
// Cruise data transfers
//------------------------

func (c *Client) CruiseDataTransfers() ([]CruiseDataTransfer, error) {
	var transfers []CruiseDataTransfer
	err := c.get("/api/cruiseDataTransfers/getCruiseDataTransfers", &transfers)
	return transfers, err
}

func (c *Client) RequiredCruiseDataTransfers() ([]CruiseDataTransfer, error) {
	var transfers []CruiseDataTransfer
	err := c.get("/api/cruiseDataTransfers/getRequiredCruiseDataTransfers", &transfers)
	return transfers, err
}

func (c *Client) CruiseDataTransfer(id string) (CruiseDataTransfer, error) {
	var transfer CruiseDataTransfer
	err := c.get("/api/cruiseDataTransfers/getCruiseDataTransfer/"+id, &transfer)
	return transfer, err
}

func (c *Client) SetRunningCruiseDataTransfer(id string, pid int, jobHandle string) error {
	return c.post("/api/cruiseDataTransfers/setRunningCruiseDataTransfer/"+id,
		url.Values{"pid": {strconv.Itoa(pid)}, "jobHandle": {jobHandle}})
}

func (c *Client) SetIdleCruiseDataTransfer(id string) error {
	return c.post("/api/cruiseDataTransfers/setIdleCruiseDataTransfer/"+id, url.Values{})
}

func (c *Client) SetErrorCruiseDataTransfer(id, reason string) error {
	return c.post("/api/cruiseDataTransfers/setErrorCruiseDataTransfer/"+id,
		url.Values{"reason": {reason}})
}

func (c *Client) SetErrorCruiseDataTransferTest(id, reason string) error {
	return c.post("/api/cruiseDataTransfers/setErrorCruiseDataTransferTest/"+id,
		url.Values{"reason": {reason}})
}

func (c *Client) SetIdleCruiseDataTransferTest(id string) error {
	return c.post("/api/cruiseDataTransfers/setIdleCruiseDataTransferTest/"+id, url.Values{})
}

//-------------------------
// Ship-to-shore transfers
//-------------------------

func (c *Client) ShipToShoreTransfers() ([]ShipToShoreTransfer, error) {
	var transfers []ShipToShoreTransfer
	err := c.get("/api/shipToShoreTransfers/getShipToShoreTransfers", &transfers)
	return transfers, err
}

func (c *Client) RequiredShipToShoreTransfers() ([]ShipToShoreTransfer, error) {
	var transfers []ShipToShoreTransfer
	err := c.get("/api/shipToShoreTransfers/getRequiredShipToShoreTransfers", &transfers)
	return transfers, err
}

//---------------------
// Extra directories
//---------------------

func (c *Client) ExtraDirectories() ([]ExtraDirectory, error) {
	var dirs []ExtraDirectory
	err := c.get("/api/extraDirectories/getExtraDirectories", &dirs)
	return dirs, err
}

func (c *Client) ActiveExtraDirectories() ([]ExtraDirectory, error) {
	var dirs []ExtraDirectory
	err := c.get("/api/extraDirectories/getActiveExtraDirectories", &dirs)
	return dirs, err
}

func (c *Client) RequiredExtraDirectories() ([]ExtraDirectory, error) {
	var dirs []ExtraDirectory
	err := c.get("/api/extraDirectories/getRequiredExtraDirectories", &dirs)
	return dirs, err
}

//-------
// Tasks
//-------

func (c *Client) Tasks() ([]Task, error) {
	var tasks []Task
	err := c.get("/api/tasks/getTasks", &tasks)
	return tasks, err
}

func (c *Client) Task(id string) (Task, error) {
	var task Task
	err := c.get("/api/tasks/getTask/"+id, &task)
	return task, err
}

func (c *Client) TaskByName(name string) (Task, error) {
	tasks, err := c.Tasks()
	if err != nil {
		return Task{}, err
	}
	for _, task := range tasks {
		if task.Name == name {
			return task, nil
		}
	}
	return Task{}, &NotFoundError{Kind: "task", Name: name}
}

func (c *Client) SetRunningTask(id string, pid int, jobHandle string) error {
	return c.post("/api/tasks/setRunningTask/"+id,
		url.Values{"pid": {strconv.Itoa(pid)}, "jobHandle": {jobHandle}})
}

func (c *Client) SetIdleTask(id string) error {
	return c.post("/api/tasks/setIdleTask/"+id, url.Values{})
}

func (c *Client) SetErrorTask(id, reason string) error {
	return c.post("/api/tasks/setErrorTask/"+id, url.Values{"reason": {reason}})
}

//--------------------
// Jobs and messages
//--------------------

// Registers a broker job against a synthetic task so the UI can track and
// stop it.
func (c *Client) TrackGearmanJob(jobName string, pid int, jobHandle string) error {
	return c.post("/api/gearman/newJob/"+url.PathEscape(jobHandle),
		url.Values{"jobName": {jobName}, "pid": {strconv.Itoa(pid)}})
}

func (c *Client) ClearAllJobsFromDB() error {
	return c.post("/api/gearman/clearAllJobsFromDB", url.Values{})
}

// Posts a user-visible message to the control-plane message bus.
func (c *Client) SendMessage(title, body string) error {
	return c.post("/api/messages/newMessage",
		url.Values{"messageTitle": {title}, "messageBody": {body}})
}

//-------
// Hooks
//-------

// Returns the user-configured command list for the given hook point,
// optionally filtered by collection system transfer name for
// transfer-related hooks.
func (c *Client) PostHookCommands(hookName, collectionSystemTransferName string) ([]HookAction, error) {
	var result struct {
		CommandList []HookAction `json:"commandList"`
	}
	path := "/api/hooks/getPostHookCommands/" + url.PathEscape(hookName)
	if collectionSystemTransferName != "" {
		path += "?collectionSystemTransferName=" + url.QueryEscape(collectionSystemTransferName)
	}
	err := c.get(path, &result)
	return result.CommandList, err
}

// helper for handlers that report sizes in messages
func FormatMessageTitle(longName string) string {
	return fmt.Sprintf("%s failed", longName)
}
