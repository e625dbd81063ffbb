// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/vodcache/internal/config"
	"github.com/tomtom215/vodcache/internal/models"
)

const vodContentXML = `<?xml version="1.0" encoding="utf-8"?>
<Content id="crid://example/vod-1" xmlns="urn:eventis:traxisweb:1.0">
  <DurationInSeconds>5400</DurationInSeconds>
  <FirstAvailability>2013-08-01T00:00:00Z</FirstAvailability>
  <MaxBitrateInBps>3500000</MaxBitrateInBps>
</Content>`

const restartContentXML = `<?xml version="1.0" encoding="utf-8"?>
<Content id="crid://example/live-1" xmlns="urn:eventis:traxisweb:1.0">
  <Tstv>
    <Options>
      <Option model="Delay" type="Restart"/>
    </Options>
  </Tstv>
  <DurationInSeconds>3600</DurationInSeconds>
  <FirstAvailability>2013-09-01T18:00:00Z</FirstAvailability>
  <MaxBitrateInBps>4000000</MaxBitrateInBps>
</Content>`

func TestParseTraxisContent(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantBitrate int64
		wantDur     int64
		wantRestart bool
		wantErr     bool
	}{
		{"vod", vodContentXML, 3_500_000, 5400, false, false},
		{"restart tv", restartContentXML, 4_000_000, 3600, true, false},
		{
			name:    "missing bitrate",
			body:    `<Content xmlns="urn:eventis:traxisweb:1.0"><DurationInSeconds>1</DurationInSeconds></Content>`,
			wantErr: true,
		},
		{
			name:    "wrong namespace",
			body:    `<Content><DurationInSeconds>1</DurationInSeconds><MaxBitrateInBps>1</MaxBitrateInBps></Content>`,
			wantErr: true,
		},
		{
			name:    "not a number",
			body:    `<Content xmlns="urn:eventis:traxisweb:1.0"><DurationInSeconds>x</DurationInSeconds><MaxBitrateInBps>1</MaxBitrateInBps></Content>`,
			wantErr: true,
		},
		{"empty body", "", 0, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asset, err := ParseTraxisContent(strings.NewReader(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTraxisContent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if asset.Bitrate != tt.wantBitrate || asset.Duration != tt.wantDur {
				t.Errorf("asset = %+v", asset)
			}
			if asset.RestartTV() != tt.wantRestart {
				t.Errorf("RestartTV() = %v, want %v", asset.RestartTV(), tt.wantRestart)
			}
		})
	}
}

func TestParseTraxisContentRecordingStart(t *testing.T) {
	asset, err := ParseTraxisContent(strings.NewReader(restartContentXML))
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2013, 9, 1, 18, 0, 0, 0, time.UTC)
	if !asset.RecordingStart.Equal(want) {
		t.Errorf("RecordingStart = %v, want %v", asset.RecordingStart, want)
	}
	if !asset.LiveAt(want.Add(30 * time.Minute)) {
		t.Error("asset should be live during its recording")
	}
}

func newTestClient(url string) *TraxisClient {
	c := NewTraxisClient(&config.CatalogConfig{TraxisURL: url, Timeout: 5 * time.Second})
	c.retryBaseDelay = time.Millisecond
	return c
}

func TestTraxisClientFetch(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		switch {
		case strings.Contains(r.URL.Path, "/missing/"):
			http.NotFound(w, r)
		case strings.Contains(r.URL.Path, "/broken/"):
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write([]byte(vodContentXML))
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL + "/")

	asset, err := client.Fetch(context.Background(), "vod-1")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if asset.ID != "vod-1" || asset.Bitrate != 3_500_000 {
		t.Errorf("asset = %+v", asset)
	}
	if want := "/traxis/web/Content/vod-1/props/" + traxisProps; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
	if gotQuery != "aliasidtype=VodBackOfficeId" {
		t.Errorf("query = %q", gotQuery)
	}

	if _, err := client.Fetch(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := client.Fetch(context.Background(), "broken"); err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("Fetch(broken) error = %v, want status 500", err)
	}
}

func TestTraxisClientRetriesRateLimit(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(vodContentXML))
	}))
	defer server.Close()

	asset, err := newTestClient(server.URL).Fetch(context.Background(), "vod-1")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if asset.Duration != 5400 {
		t.Errorf("asset = %+v", asset)
	}
	if got := atomic.LoadInt32(&requests); got != 3 {
		t.Errorf("requests = %d, want 3", got)
	}
}

func TestTraxisClientGivesUpOnRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.maxRetries = 2
	if _, err := client.Fetch(context.Background(), "vod-1"); err == nil {
		t.Fatal("Fetch() should fail after exhausting retries")
	}
}

func TestCircuitBreakerFetcherOpens(t *testing.T) {
	var calls int32
	failing := FetcherFunc(func(context.Context, string) (models.Asset, error) {
		atomic.AddInt32(&calls, 1)
		return models.Asset{}, errors.New("unavailable")
	})

	f := NewCircuitBreakerFetcher("test-open", failing)
	for i := 0; i < 10; i++ {
		_, _ = f.Fetch(context.Background(), "a")
	}
	if f.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", f.State())
	}

	_, err := f.Fetch(context.Background(), "a")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Fetch() on open circuit error = %v, want ErrOpenState", err)
	}
	if got := atomic.LoadInt32(&calls); got != 10 {
		t.Errorf("underlying calls = %d, want 10", got)
	}
}

func TestCircuitBreakerFetcherIgnoresNotFound(t *testing.T) {
	notFound := FetcherFunc(func(_ context.Context, id string) (models.Asset, error) {
		return models.Asset{}, ErrNotFound
	})

	f := NewCircuitBreakerFetcher("test-not-found", notFound)
	for i := 0; i < 20; i++ {
		_, _ = f.Fetch(context.Background(), "a")
	}
	if f.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", f.State())
	}
}
