// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package vodusage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/vodcache/internal/models"
	"github.com/tomtom215/vodcache/internal/snapshot"
)

type row struct {
	asset, start, end string
}

func usageXML(rows ...row) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<VODUsage xmlns=%q>\n  <FinishedSessions>\n", Namespace)
	for _, r := range rows {
		fmt.Fprintf(&b, "    <FinishedSession>\n      <AssetId>%s</AssetId>\n      <SessionPeriod startDate=%q endDate=%q/>\n    </FinishedSession>\n",
			r.asset, r.start, r.end)
	}
	b.WriteString("  </FinishedSessions>\n</VODUsage>\n")
	return b.String()
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestParse(t *testing.T) {
	amsterdam, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		t.Skipf("time zone database unavailable: %v", err)
	}

	doc := usageXML(
		row{"asset-1", "2013-08-29T10:00:00Z", "2013-08-29T10:45:00Z"},
		row{" asset-2 ", "2013-08-29T12:00:00+02:00", "2013-08-29T12:30:00.5+02:00"},
		row{"asset-3", "2013-08-29T14:00:00", "2013-08-29T14:20:00"},
	)

	sessions, stats, err := NewReader(WithLocation(amsterdam)).Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if stats.Accepted != 3 || stats.Corrupt != 0 {
		t.Fatalf("stats = %+v, want 3 accepted", stats)
	}

	want := []models.Session{
		{AssetID: "asset-1", StartTime: time.Date(2013, 8, 29, 10, 0, 0, 0, time.UTC), EndTime: time.Date(2013, 8, 29, 10, 45, 0, 0, time.UTC)},
		{AssetID: "asset-2", StartTime: time.Date(2013, 8, 29, 10, 0, 0, 0, time.UTC), EndTime: time.Date(2013, 8, 29, 10, 30, 0, 500_000_000, time.UTC)},
		// No offset: read in the configured location.
		{AssetID: "asset-3", StartTime: time.Date(2013, 8, 29, 14, 0, 0, 0, amsterdam), EndTime: time.Date(2013, 8, 29, 14, 20, 0, 0, amsterdam)},
	}
	for i, w := range want {
		got := sessions[i]
		if got.AssetID != w.AssetID || !got.StartTime.Equal(w.StartTime) || !got.EndTime.Equal(w.EndTime) {
			t.Errorf("session %d = %+v, want %+v", i, got, w)
		}
		if got.StartTime.Location() != amsterdam {
			t.Errorf("session %d location = %v, want Europe/Amsterdam", i, got.StartTime.Location())
		}
	}
}

func TestParseDropsCorruptSessions(t *testing.T) {
	tests := []struct {
		name string
		row  row
	}{
		{"end before start", row{"a", "2013-08-29T10:00:00Z", "2013-08-29T09:00:00Z"}},
		{"zero duration", row{"a", "2013-08-29T10:00:00Z", "2013-08-29T10:00:00Z"}},
		{"longer than six hours", row{"a", "2013-08-29T10:00:00Z", "2013-08-29T16:00:01Z"}},
		{"bad start", row{"a", "yesterday", "2013-08-29T10:00:00Z"}},
		{"missing end", row{"a", "2013-08-29T10:00:00Z", ""}},
		{"missing asset", row{"", "2013-08-29T10:00:00Z", "2013-08-29T11:00:00Z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := usageXML(tt.row, row{"ok", "2013-08-29T10:00:00Z", "2013-08-29T11:00:00Z"})
			sessions, stats, err := NewReader(WithLocation(time.UTC)).Parse(strings.NewReader(doc))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if stats.Corrupt != 1 || stats.Accepted != 1 {
				t.Errorf("stats = %+v, want 1 accepted, 1 corrupt", stats)
			}
			if len(sessions) != 1 || sessions[0].AssetID != "ok" {
				t.Errorf("sessions = %+v, want only the valid one", sessions)
			}
		})
	}
}

func TestParseAcceptsExactlyMaxDuration(t *testing.T) {
	doc := usageXML(row{"a", "2013-08-29T10:00:00Z", "2013-08-29T16:00:00Z"})
	_, stats, err := NewReader().Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if stats.Accepted != 1 {
		t.Errorf("a six hour session should be accepted, stats = %+v", stats)
	}
}

func TestParseIgnoresOtherNamespaces(t *testing.T) {
	doc := strings.Replace(usageXML(row{"a", "2013-08-29T10:00:00Z", "2013-08-29T11:00:00Z"}),
		Namespace, "urn:example:other", 1)
	sessions, _, err := NewReader().Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("got %d sessions from a foreign namespace, want 0", len(sessions))
	}
}

func TestParseMalformedDocument(t *testing.T) {
	if _, _, err := NewReader().Parse(strings.NewReader("<VODUsage><FinishedSessions>")); err == nil {
		t.Error("Parse() of a truncated document should fail")
	}
}

func TestReadFolder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "VODUsage_2.xml", usageXML(row{"b", "2013-08-29T11:00:00Z", "2013-08-29T12:00:00Z"}))
	writeFile(t, dir, "VODUsage_1.xml", usageXML(
		row{"a", "2013-08-29T10:00:00Z", "2013-08-29T11:00:00Z"},
		row{"x", "2013-08-29T10:00:00Z", "2013-08-29T09:00:00Z"},
	))
	writeFile(t, dir, "Other.xml", usageXML(row{"c", "2013-08-29T10:00:00Z", "2013-08-29T11:00:00Z"}))

	sessions, stats, err := NewReader(WithLocation(time.UTC)).ReadFolder(context.Background(), dir)
	if err != nil {
		t.Fatalf("ReadFolder() error = %v", err)
	}
	if stats != (Stats{Files: 2, Accepted: 2, Corrupt: 1}) {
		t.Errorf("stats = %+v, want 2 files, 2 accepted, 1 corrupt", stats)
	}
	if len(sessions) != 2 || sessions[0].AssetID != "a" || sessions[1].AssetID != "b" {
		t.Errorf("sessions = %+v, want a then b", sessions)
	}
}

func TestReadFolderErrors(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := NewReader().ReadFolder(context.Background(), filepath.Join(dir, "missing")); err == nil {
		t.Error("ReadFolder() of a missing folder should fail")
	}

	writeFile(t, dir, "VODUsage_bad.xml", "<VODUsage")
	if _, _, err := NewReader().ReadFolder(context.Background(), dir); err == nil {
		t.Error("ReadFolder() with a malformed file should fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewReader().ReadFolder(ctx, dir); !errors.Is(err, context.Canceled) {
		t.Errorf("ReadFolder() with cancelled context error = %v, want context.Canceled", err)
	}
}

func TestFilterPlausible(t *testing.T) {
	t0 := time.Date(2013, 8, 29, 10, 0, 0, 0, time.UTC)
	sessions := []models.Session{
		{AssetID: "ok", StartTime: t0, EndTime: t0.Add(time.Hour)},
		{AssetID: "long", StartTime: t0, EndTime: t0.Add(3 * time.Hour)},
		{AssetID: "inverted", StartTime: t0, EndTime: t0.Add(-time.Minute)},
	}

	kept, dropped := FilterPlausible(sessions, 2*time.Hour)
	if dropped != 2 || len(kept) != 1 || kept[0].AssetID != "ok" {
		t.Errorf("FilterPlausible() = %+v, %d; want only ok, 2 dropped", kept, dropped)
	}
}

func TestFindOrRead(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "VODUsage_1.xml", usageXML(
		row{"a", "2013-08-29T10:00:00Z", "2013-08-29T11:00:00Z"},
		row{"b", "2013-08-29T10:00:00Z", "2013-08-29T13:00:00Z"},
	))

	store, err := snapshot.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	first, _, err := NewReader(WithStore(store), WithLocation(time.UTC)).FindOrRead(ctx, dir)
	if err != nil {
		t.Fatalf("FindOrRead() error = %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first read got %d sessions, want 2", len(first))
	}

	// The snapshot is used even though the folder is gone now.
	if err := os.Remove(filepath.Join(dir, "VODUsage_1.xml")); err != nil {
		t.Fatal(err)
	}
	second, stats, err := NewReader(WithStore(store), WithLocation(time.UTC), WithMaxDuration(2*time.Hour)).FindOrRead(ctx, dir)
	if err != nil {
		t.Fatalf("FindOrRead() from snapshot error = %v", err)
	}
	if len(second) != 1 || second[0].AssetID != "a" {
		t.Errorf("snapshot sessions = %+v, want only a under a 2h limit", second)
	}
	if stats.Accepted != 1 || stats.Corrupt != 1 {
		t.Errorf("snapshot stats = %+v, want 1 accepted, 1 corrupt", stats)
	}
	if !second[0].StartTime.Equal(first[0].StartTime) {
		t.Errorf("StartTime = %v, want %v", second[0].StartTime, first[0].StartTime)
	}
}

func TestFindOrReadIgnoresOtherFolder(t *testing.T) {
	store, err := snapshot.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	dirA := t.TempDir()
	writeFile(t, dirA, "VODUsage_a.xml", usageXML(row{"a", "2013-08-29T10:00:00Z", "2013-08-29T11:00:00Z"}))
	dirB := t.TempDir()
	writeFile(t, dirB, "VODUsage_b.xml", usageXML(row{"b", "2013-08-29T10:00:00Z", "2013-08-29T11:00:00Z"}))

	if _, _, err := NewReader(WithStore(store)).FindOrRead(ctx, dirA); err != nil {
		t.Fatalf("FindOrRead(dirA) error = %v", err)
	}
	sessions, _, err := NewReader(WithStore(store)).FindOrRead(ctx, dirB)
	if err != nil {
		t.Fatalf("FindOrRead(dirB) error = %v", err)
	}
	if len(sessions) != 1 || sessions[0].AssetID != "b" {
		t.Errorf("sessions = %+v, want the sessions of dirB", sessions)
	}
}

type failingStore struct {
	snapshot.NopStore
}

func (failingStore) Save(context.Context, string, any) error { return errors.New("disk full") }

func TestFindOrReadReturnsWriteFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "VODUsage_1.xml", usageXML(row{"a", "2013-08-29T10:00:00Z", "2013-08-29T11:00:00Z"}))

	if _, _, err := NewReader(WithStore(failingStore{})).FindOrRead(context.Background(), dir); err == nil {
		t.Error("FindOrRead() should return the snapshot write failure")
	}
}
