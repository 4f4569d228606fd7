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

// Package sizecache periodically measures the cruise (and, when shown, the
// current lowering) directory and publishes the sizes to the control plane,
// so the UI can show them without walking the tree on every page load.
package sizecache

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/rvdm/rvdm/api"
	"github.com/rvdm/rvdm/config"
	"github.com/rvdm/rvdm/warehouse"
)

// A Cacher runs the size measurement loop.
type Cacher struct {
	api      *api.Client
	interval time.Duration
}

func New(apiClient *api.Client, interval time.Duration) *Cacher {
	if interval <= 0 {
		interval = time.Duration(config.Site.SizeCacheInterval) * time.Second
	}
	return &Cacher{api: apiClient, interval: interval}
}

// Runs the measurement loop until the context is cancelled. A failed pass is
// logged and retried on the next tick.
func (c *Cacher) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if err := c.measure(); err != nil {
			slog.Warn("Couldn't publish directory sizes", "error", err)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// one measurement pass: cruise size, plus the lowering size when the
// installation shows lowerings
func (c *Cacher) measure() error {
	cfg, err := c.api.WarehouseConfig()
	if err != nil {
		return err
	}
	cruise, err := c.api.CurrentCruise()
	if err != nil {
		return err
	}
	if cruise.CruiseID == "" {
		return nil
	}

	cruiseDir := filepath.Join(cfg.BaseDir, cruise.CruiseID)
	size, err := warehouse.DirSize(cruiseDir)
	if err != nil {
		return err
	}
	if err := c.api.SetCruiseSize(size); err != nil {
		return err
	}

	shown, err := c.api.ShowLoweringComponents()
	if err != nil || !shown {
		return err
	}
	lowering, err := c.api.CurrentLowering()
	if err != nil {
		return err
	}
	if lowering.LoweringID == "" {
		return nil
	}

	loweringDir := filepath.Join(cruiseDir, cfg.LoweringDataBaseDir, lowering.LoweringID)
	size, err = warehouse.DirSize(loweringDir)
	if err != nil {
		return err
	}
	return c.api.SetLoweringSize(size)
}
