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
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/rvdm/rvdm/api"
	"github.com/rvdm/rvdm/config"
	"github.com/rvdm/rvdm/filespec"
	"github.com/rvdm/rvdm/transfer"
	"github.com/rvdm/rvdm/worker"
)

// the name of the required cruise data transfer that carries the shore link
const shipToShoreTransferName = "SSDW"

// Moves the prioritized ship-to-shore subset of the cruise over the shore
// link. The include set is assembled from every enabled ship-to-shore
// bundle, ordered by priority, then pushed with an ssh-based rsync (or
// rclone, when the site is configured that way). The bandwidth cap applies
// only while the ship-to-shore bandwidth-limit flag is on.
func (h *Handlers) RunShipToShoreTransfer(j *worker.Job) worker.Result {
	var result worker.Result
	started := time.Now()

	e, err := loadEnv(j)
	if err != nil {
		result.Fail("Retrieve cruise configuration", err.Error())
		return result
	}
	if info, err := os.Stat(e.cruiseDir()); err != nil || !info.IsDir() {
		result.Fail("Verify cruise directory",
			"The cruise directory "+e.cruiseDir()+" does not exist")
		return result
	}
	result.Pass("Verify cruise directory")
	j.Progress(5)

	cdt := j.Payload.CruiseDataTransfer
	if cdt == nil {
		found, err := h.shoreTransfer(j)
		if err != nil {
			result.Fail("Retrieve cruise data transfer data", err.Error())
			return result
		}
		cdt = found
	}
	if cdt.TransferType != api.KindSsh {
		result.Fail("Verify destination",
			"The ship-to-shore transfer must use an ssh destination")
		return result
	}

	patterns, err := h.shoreIncludePatterns(j, e)
	if err != nil {
		result.Fail("Assemble include filters", err.Error())
		return result
	}
	if len(patterns) == 0 {
		result.Ignore("Assemble include filters")
		return result
	}
	result.Pass("Assemble include filters")
	j.Progress(10)

	filters, err := filespec.BuildFilters(strings.Join(patterns, ","), "", "",
		e.context())
	if err != nil {
		result.Fail("Build file list", err.Error())
		return result
	}
	list, err := transfer.BuildFileList(j.Ctx,
		transfer.LocalEnumerator{Root: e.cruiseDir()}, filters,
		filespec.OpenTimeWindow(), 0)
	if err != nil {
		result.Fail("Build file list", err.Error())
		return result
	}
	result.Pass("Build file list")
	j.Progress(20)

	workDir, err := os.MkdirTemp("", "rvdm-s2s.*")
	if err != nil {
		result.Fail("Create work directory", err.Error())
		return result
	}
	defer os.RemoveAll(workDir)

	includeFile, err := transfer.WriteIncludeFile(workDir, list.Include)
	if err != nil {
		result.Fail("Write include file", err.Error())
		return result
	}

	bwLimit := 0
	if capped, err := j.Api.ShipToShoreBWLimitStatus(); err == nil && capped {
		bwLimit = cdt.BandwidthLimit
	}
	peer := transfer.SshPeer{
		Server: cdt.SshServer,
		User:   cdt.SshUser,
		Pass:   cdt.SshPass,
		UseKey: cdt.SshUseKey.Bool(),
	}

	files := worker.FileSet{Exclude: list.Exclude}
	if config.Site.S2SUseRclone {
		files.New, err = h.pushShoreRclone(j, peer, cdt.DestDir, workDir,
			includeFile, bwLimit, e.cruiseDir(), list)
	} else {
		files.New, files.Updated, err = h.pushShoreRsync(j, peer, cdt.DestDir,
			includeFile, bwLimit, e.cruiseDir(), len(list.Include))
	}
	result.Files = &files
	if err != nil {
		result.Fail("Transfer files", err.Error())
		return result
	}
	result.Pass("Transfer files")
	j.Progress(95)

	if err := e.writeTransferLogs(shipToShoreTransferName, started, files); err != nil {
		result.Fail("Write transfer logs", err.Error())
		return result
	}
	result.Pass("Write transfer logs")
	j.Progress(100)
	return result
}

// Finds the required cruise data transfer that carries the shore link.
func (h *Handlers) shoreTransfer(j *worker.Job) (*api.CruiseDataTransfer, error) {
	required, err := j.Api.RequiredCruiseDataTransfers()
	if err != nil {
		return nil, err
	}
	for _, cdt := range required {
		if cdt.Name == shipToShoreTransferName {
			return &cdt, nil
		}
	}
	return nil, fmt.Errorf("no required cruise data transfer is named %q",
		shipToShoreTransferName)
}

// Assembles the include patterns for the shore subset: every enabled
// ship-to-shore bundle plus the required ones, walked in priority order.
// Each bundle's filters are rooted under the destination directory of its
// collection system and/or extra directory, and templates still naming a
// lowering are expanded against every lowering of the cruise.
func (h *Handlers) shoreIncludePatterns(j *worker.Job, e env) ([]string, error) {
	all, err := j.Api.ShipToShoreTransfers()
	if err != nil {
		return nil, err
	}
	required, err := j.Api.RequiredShipToShoreTransfers()
	if err != nil {
		return nil, err
	}
	bundles := append(lo.Filter(all, func(s api.ShipToShoreTransfer, _ int) bool {
		return s.Enable.Bool()
	}), required...)
	bundles = lo.UniqBy(bundles, func(s api.ShipToShoreTransfer) string { return s.ID })
	sort.SliceStable(bundles, func(i, k int) bool {
		return bundles[i].Priority < bundles[k].Priority
	})

	transfers, err := j.Api.CollectionSystemTransfers()
	if err != nil {
		return nil, err
	}
	extras, err := j.Api.ExtraDirectories()
	if err != nil {
		return nil, err
	}
	cstDest := make(map[string]api.CollectionSystemTransfer)
	for _, cst := range transfers {
		cstDest[cst.ID] = cst
	}
	extraDest := make(map[string]api.ExtraDirectory)
	for _, extra := range extras {
		extraDest[extra.ID] = extra
	}

	loweringIDs := []string{e.lowering.LoweringID}
	if ids, err := j.Api.Lowerings(); err == nil && len(ids) > 0 {
		loweringIDs = ids
	}

	var patterns []string
	for _, bundle := range bundles {
		base := ""
		if cst, ok := cstDest[bundle.CollectionSystem]; ok &&
			bundle.CollectionSystem != "" && bundle.CollectionSystem != "0" {
			base = cst.DestDir
			if cst.CruiseOrLowering == api.ScopeLowering {
				base = path.Join(e.warehouse.LoweringDataBaseDir, "{loweringID}", base)
			}
		}
		if extra, ok := extraDest[bundle.ExtraDirectory]; ok &&
			bundle.ExtraDirectory != "" && bundle.ExtraDirectory != "0" {
			base = path.Join(base, extra.DestDir)
		}
		for _, filter := range strings.Split(bundle.IncludeFilter, ",") {
			filter = strings.TrimSpace(filter)
			if filter == "" {
				continue
			}
			template := path.Join(base, filter)
			if !filespec.HasUnresolvedLoweringID(template) {
				patterns = append(patterns, filespec.KeywordReplace(template, e.context()))
				continue
			}
			// lowering-templated bundles select data from every lowering of
			// the cruise, not just the current one
			for _, id := range loweringIDs {
				if id == "" {
					continue
				}
				perLowering := e.context()
				perLowering.LoweringID = id
				patterns = append(patterns, filespec.KeywordReplace(template, perLowering))
			}
		}
	}
	return lo.Uniq(patterns), nil
}

// Pushes the shore subset with an ssh-based rsync.
func (h *Handlers) pushShoreRsync(j *worker.Job, peer transfer.SshPeer,
	destDir, includeFile string, bwLimit int, srcDir string,
	estimated int) (newFiles, updatedFiles []string, err error) {
	opts := transfer.RsyncOptions{
		SshPeer:        true,
		ProtectArgs:    !transfer.IsDarwin(j.Ctx, peer),
		BandwidthLimit: bwLimit,
	}
	dst := fmt.Sprintf("%s@%s:%s", peer.User, peer.Server, destDir)

	cmd := transfer.RsyncCommand(j.Ctx, opts, nil, includeFile,
		srcDir+string(os.PathSeparator), dst)
	if !peer.UseKey {
		args := append(opts.Args(), "--files-from="+includeFile,
			srcDir+string(os.PathSeparator), dst)
		cmd = peer.WrapCommand(j.Ctx, "rsync", args...)
	}
	run, err := transfer.RunTransfer(j.Ctx, cmd, estimated, j.StepProgress(20, 95))
	return run.New, run.Updated, err
}

// Pushes the shore subset with rclone instead of rsync. rclone does not
// itemize, so the whole include set is reported as new on success.
func (h *Handlers) pushShoreRclone(j *worker.Job, peer transfer.SshPeer,
	destDir, workDir, includeFile string, bwLimit int, srcDir string,
	list transfer.FileList) ([]string, error) {
	configFile, err := transfer.WriteRcloneConfig(workDir, peer)
	if err != nil {
		return nil, err
	}
	cmd := transfer.RcloneCommand(j.Ctx, configFile, bwLimit, includeFile,
		srcDir, destDir)
	if _, err := transfer.RunRclone(j.Ctx, cmd, j.StepProgress(20, 95)); err != nil {
		return nil, err
	}
	return list.Include, nil
}
