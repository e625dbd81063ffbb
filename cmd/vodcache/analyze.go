// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/vodcache/internal/logging"
	"github.com/tomtom215/vodcache/internal/pipeline"
	"github.com/tomtom215/vodcache/internal/report"
)

// inputKeys are the flags shared by analyze and assets.
var inputKeys = []flagKey{
	{"input", "input.dir"},
	{"output", "output.dir"},
	{"timezone", "input.timezone"},
	{"max-session-duration", "input.max_session_duration"},
	{"traxis-url", "catalog.traxis_url"},
	{"workers", "catalog.workers"},
	{"snapshot-backend", "snapshot.backend"},
	{"snapshot-dir", "snapshot.dir"},
	{"metrics-textfile", "metrics.textfile"},
}

var analyzeKeys = []flagKey{
	{"keep-alive-from", "simulate.keep_alive_from"},
	{"keep-alive-to", "simulate.keep_alive_to"},
	{"keep-alive-step", "simulate.keep_alive_step"},
	{"window", "simulate.window"},
	{"download-bitrate", "simulate.download_bitrate"},
	{"bucket-widths", "simulate.bucket_widths"},
	{"verify-input", "snapshot.verify_input"},
	{"capacity-gb", "capacity.sizes_gb"},
	{"duckdb", "database.path"},
}

func addInputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("input", "", "folder holding the VODUsage*.xml files")
	f.String("output", "", "report folder (default: <input>/Analysis)")
	f.String("timezone", "", "IANA time zone for day boundaries and reports (default: local)")
	f.Duration("max-session-duration", 0, "sessions longer than this are dropped as corrupt")
	f.String("traxis-url", "", "Traxis metadata service base URL; empty runs offline")
	f.Int("workers", 0, "concurrent metadata requests")
	f.String("snapshot-backend", "", "snapshot store: file, badger or none")
	f.String("snapshot-dir", "", "snapshot location (default: <output>/cache)")
	f.String("metrics-textfile", "", "write Prometheus metrics to this file after the run")
}

func newAnalyzeCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyse usage logs and write the cache capacity reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, g, append(inputKeys, analyzeKeys...))
			if err != nil {
				return err
			}
			p, err := pipeline.New(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			res, err := p.Run(ctx)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	addInputFlags(cmd)
	f := cmd.Flags()
	f.Duration("keep-alive-from", 0, "smallest keep-alive value simulated")
	f.Duration("keep-alive-to", 0, "largest keep-alive value simulated")
	f.Duration("keep-alive-step", 0, "keep-alive sweep step")
	f.Duration("window", 0, "only session starts within this window before the last start are simulated; 0 walks all")
	f.Int64("download-bitrate", 0, "origin to cache transfer rate in bits per second")
	f.DurationSlice("bucket-widths", nil, "bucket widths for the peak download counts")
	f.Bool("verify-input", false, "discard simulation snapshots taken over different sessions")
	f.Int64Slice("capacity-gb", nil, "cache sizes in Gb to replay session starts against")
	f.String("duckdb", "", "export the run to this DuckDB database")
	return cmd
}

func printResult(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "Run %s: %d sessions (%d corrupt) from %d files, %d assets, %d full days\n",
		res.RunID, res.Usage.Accepted, res.Usage.Corrupt, res.Usage.Files, res.Assets, res.Days)
	for _, s := range res.Sweep {
		fmt.Fprintf(w, "  keep-alive %s: %d Gb peak memory, %d downloads\n",
			report.Span(s.KeepAlive), report.Gb(s.PeakMemory), s.Downloads)
	}
	for _, c := range res.Capacity {
		fmt.Fprintf(w, "  cache %d Gb: %.1f%% hit ratio\n", report.Gb(c.CapacityBytes), 100*c.HitRatio())
	}
	if res.Exported {
		fmt.Fprintln(w, "  exported to DuckDB")
	}
	fmt.Fprintf(w, "%d report files written in %s\n", len(res.Files), res.Elapsed.Round(time.Millisecond))
	logging.Debug().Strs("files", res.Files).Msg("Report files")
}
