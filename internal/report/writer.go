// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tomtom215/vodcache/internal/aggregate"
	"github.com/tomtom215/vodcache/internal/capacity"
)

// Output file names.
const (
	SessionFile  = "SessionAnalysis.txt"
	MemoryFile   = "MemoryAnalysis.txt"
	CapacityFile = "CapacityAnalysis.txt"
)

// DayLayout names the per-day folders.
const DayLayout = "2006-01-02"

// Writer writes the report tree under a root folder.
type Writer struct {
	root string
	loc  *time.Location
}

// NewWriter returns a Writer rooted at root, rendering times in loc.
func NewWriter(root string, loc *time.Location) *Writer {
	if loc == nil {
		loc = time.Local
	}
	return &Writer{root: root, loc: loc}
}

// Root returns the output folder.
func (w *Writer) Root() string {
	return w.root
}

// WriteSessions writes the full-period session analysis.
func (w *Writer) WriteSessions(stats aggregate.SessionStats) (string, error) {
	path := filepath.Join(w.root, SessionFile)
	return path, WriteLinesFile(path, SessionLines(stats, w.loc))
}

// WriteDay writes the session analysis of a day and of every asset started
// on it into the day's folder.
func (w *Writer) WriteDay(day aggregate.DayStats) (string, error) {
	dir := filepath.Join(w.root, day.Day.Start.In(w.loc).Format(DayLayout))
	if err := WriteLinesFile(filepath.Join(dir, SessionFile), SessionLines(day.Sessions, w.loc)); err != nil {
		return dir, err
	}
	for _, asset := range day.Assets {
		path := filepath.Join(dir, AssetFileName(asset.AssetID))
		if err := WriteLinesFile(path, AssetLines(asset, w.loc)); err != nil {
			return dir, err
		}
	}
	return dir, nil
}

// WriteMemory writes the keep-alive sweep.
func (w *Writer) WriteMemory(sweep []aggregate.DownloadStats) (string, error) {
	path := filepath.Join(w.root, MemoryFile)
	return path, WriteLinesFile(path, MemoryLines(sweep, w.loc))
}

// WriteConcurrent writes the concurrent download export of one keep-alive
// value.
func (w *Writer) WriteConcurrent(keepAlive time.Duration, series aggregate.ConcurrentSeries) (string, error) {
	path := filepath.Join(w.root, ConcurrentFileName(keepAlive))
	return path, WriteFile(path, func(out io.Writer) error {
		return WriteConcurrentTSV(out, series, w.loc)
	})
}

// WriteCapacity writes the fixed-size cache replays.
func (w *Writer) WriteCapacity(results []capacity.Result) (string, error) {
	path := filepath.Join(w.root, CapacityFile)
	return path, WriteLinesFile(path, CapacityLines(results))
}

// ConcurrentFileName names the concurrent download export of keepAlive.
func ConcurrentFileName(keepAlive time.Duration) string {
	return fmt.Sprintf("ConcurrentBitrates_%d.txt", int64(keepAlive/time.Minute))
}

var unsafeNameChars = strings.NewReplacer("/", "_", `\`, "_", ":", "_")

// AssetFileName names the analysis file of assetID.
func AssetFileName(assetID string) string {
	return fmt.Sprintf("SessionAnalysis_%s.txt", unsafeNameChars.Replace(assetID))
}

// WriteLinesFile writes lines to path, each terminated by a newline.
func WriteLinesFile(path string, lines []string) error {
	return WriteFile(path, func(out io.Writer) error {
		for _, line := range lines {
			if _, err := io.WriteString(out, line+"\n"); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteFile creates path and its parent folders and fills the file with
// write. On any failure the file is removed.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	f, err := os.Create(path) //nolint:gosec // G304: path is built from the configured output folder
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			f.Close() //nolint:errcheck // Best effort cleanup on error
			_ = os.Remove(path)
		}
	}()

	bw := bufio.NewWriter(f)
	if err = write(bw); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("flush report %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close report %s: %w", path, err)
	}
	return nil
}
