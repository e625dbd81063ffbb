// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/vodcache/internal/database"
	"github.com/tomtom215/vodcache/internal/logging"
	"github.com/tomtom215/vodcache/internal/report"
)

var runsKeys = []flagKey{
	{"duckdb", "database.path"},
}

func newRunsCmd(g *globalFlags) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Summarize the runs exported to DuckDB",
		Long: `runs lists every run in the export database, then prints the
download summary and the busiest assets of the latest one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadDatabaseConfig(cmd, g, runsKeys)
			if err != nil {
				return err
			}
			if cfg.Database.Path == "" {
				return errors.New("no export database configured (--duckdb or DUCKDB_PATH)")
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			db, err := database.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := db.Close(); cerr != nil {
					logging.Err(cerr).Msg("Error closing database")
				}
			}()

			ids, err := db.Runs(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(w, "No runs exported")
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(w, id)
			}

			latest := ids[len(ids)-1]
			summary, err := db.DownloadSummary(ctx, latest)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "\nLatest run %s\n", latest)
			for _, s := range summary {
				fmt.Fprintf(w, "  keep-alive %s: %d downloads, %d Gb loaded, %d Gb peak memory\n",
					report.Span(s.KeepAlive), s.Downloads, report.Gb(s.BytesLoaded), report.Gb(s.PeakMemory))
			}

			assets, err := db.TopAssets(ctx, database.SessionFilter{RunID: latest}, top)
			if err != nil {
				return err
			}
			for _, a := range assets {
				fmt.Fprintf(w, "  %s: %d sessions, %d Mb\n", a.AssetID, a.Sessions, report.Mb(a.Filesize))
			}
			return nil
		},
	}
	cmd.Flags().String("duckdb", "", "export database to read")
	cmd.Flags().IntVar(&top, "top", 10, "number of busiest assets to print; 0 prints all")
	return cmd
}
