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

package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rvdm/rvdm/journal"
	"github.com/rvdm/rvdm/warehouse"
)

// Builds the `rvdm journal` command: lists recent transfer runs from the
// local journal.
func journalCommand() *cobra.Command {
	var since string
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "list recent transfer runs recorded on this host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			age, err := warehouse.ParseTimedelta(since)
			if err != nil {
				return err
			}
			if err := journal.Init(); err != nil {
				return err
			}
			defer journal.Finalize()

			now := time.Now()
			records, err := journal.Records(now.Add(-age), now)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tNAME\tKIND\tVERDICT\tNEW\tUPDATED\tDELETED\tEXCLUDED")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
					humanize.Time(rec.StartTime), rec.Name, rec.Kind, rec.Verdict,
					rec.NewFiles, rec.UpdatedFiles, rec.DeletedFiles, rec.ExcludedFiles)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&since, "since", "1 day",
		`how far back to list, as a phrase like "12 hours" or "3 days"`)
	return cmd
}
