// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package catalog

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/vodcache/internal/config"
	"github.com/tomtom215/vodcache/internal/models"
)

// ErrNotFound is returned when the metadata service does not know an asset.
var ErrNotFound = errors.New("asset not found")

// TraxisNamespace is the XML namespace of Traxis web responses.
const TraxisNamespace = "urn:eventis:traxisweb:1.0"

// traxisProps are the content properties requested for every asset.
const traxisProps = "Tstv,DurationInSeconds,FirstAvailability,MaxBitrateInBps"

// maxErrorBodySize limits how much of an error response is read
const maxErrorBodySize = 64 * 1024 // 64KB

// readBodyForError reads at most maxErrorBodySize bytes of r for an error message.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// TraxisClient fetches asset metadata from the Traxis web content API.
//
// Features:
//   - Client-side rate limit (requests per second with burst)
//   - Automatic retry on HTTP 429 with exponential backoff (1s, 2s, 4s, ...)
//     honoring Retry-After
//   - Context support for cancellation during waits
//
// Thread Safety: Safe for concurrent use.
type TraxisClient struct {
	baseURL        string
	client         *http.Client
	limiter        *rate.Limiter
	maxRetries     int           // Maximum retries for rate limiting
	retryBaseDelay time.Duration // Base delay for exponential backoff
}

// NewTraxisClient creates a client for the configured Traxis base URL.
func NewTraxisClient(cfg *config.CatalogConfig) *TraxisClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &TraxisClient{
		baseURL:        strings.TrimRight(cfg.TraxisURL, "/"),
		client:         &http.Client{Timeout: timeout},
		limiter:        rate.NewLimiter(limit, burst),
		maxRetries:     5,
		retryBaseDelay: 1 * time.Second,
	}
}

// contentURL returns the props URL of asset id.
func (c *TraxisClient) contentURL(id string) string {
	return fmt.Sprintf("%s/traxis/web/Content/%s/props/%s?aliasidtype=VodBackOfficeId",
		c.baseURL, url.PathEscape(id), traxisProps)
}

// Fetch implements Fetcher.
func (c *TraxisClient) Fetch(ctx context.Context, id string) (models.Asset, error) {
	resp, err := c.doRequestWithRateLimit(ctx, c.contentURL(id))
	if err != nil {
		return models.Asset{}, fmt.Errorf("failed to fetch asset %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return models.Asset{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case resp.StatusCode != http.StatusOK:
		body := readBodyForError(resp.Body)
		return models.Asset{}, fmt.Errorf("asset %s request failed with status %d: %s", id, resp.StatusCode, string(body))
	}

	asset, err := ParseTraxisContent(resp.Body)
	if err != nil {
		return models.Asset{}, fmt.Errorf("failed to decode asset %s: %w", id, err)
	}
	asset.ID = id
	return asset, nil
}

// doRequestWithRateLimit performs a GET honoring the client-side limiter and
// retrying HTTP 429 responses with exponential backoff.
func (c *TraxisClient) doRequestWithRateLimit(ctx context.Context, reqURL string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		// Rate limited (HTTP 429) - close body and retry with backoff
		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			return nil, fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries)
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				delay = time.Duration(seconds) * time.Second
			}
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

// ParseTraxisContent decodes a Traxis content props document.
//
// MaxBitrateInBps and DurationInSeconds are required. An asset that has an
// Option element with model="Delay" is a restart-TV recording, and its
// FirstAvailability becomes the recording start. Elements are matched
// anywhere in the document.
func ParseTraxisContent(r io.Reader) (models.Asset, error) {
	var (
		asset             models.Asset
		bitrate, duration string
		firstAvailability string
		restartTV         bool
	)

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.Asset{}, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Space != TraxisNamespace {
			continue
		}

		switch start.Name.Local {
		case "Option":
			for _, attr := range start.Attr {
				if attr.Name.Local == "model" && attr.Value == "Delay" {
					restartTV = true
				}
			}
		case "MaxBitrateInBps":
			if err := dec.DecodeElement(&bitrate, &start); err != nil {
				return models.Asset{}, err
			}
		case "DurationInSeconds":
			if err := dec.DecodeElement(&duration, &start); err != nil {
				return models.Asset{}, err
			}
		case "FirstAvailability":
			if err := dec.DecodeElement(&firstAvailability, &start); err != nil {
				return models.Asset{}, err
			}
		}
	}

	var err error
	if asset.Bitrate, err = parseRequiredInt("MaxBitrateInBps", bitrate); err != nil {
		return models.Asset{}, err
	}
	if asset.Duration, err = parseRequiredInt("DurationInSeconds", duration); err != nil {
		return models.Asset{}, err
	}

	if restartTV {
		if firstAvailability == "" {
			return models.Asset{}, errors.New("restart-TV asset without FirstAvailability")
		}
		recStart, err := time.Parse(time.RFC3339, strings.TrimSpace(firstAvailability))
		if err != nil {
			return models.Asset{}, fmt.Errorf("invalid FirstAvailability: %w", err)
		}
		asset.RecordingStart = &recStart
	}
	return asset, nil
}

func parseRequiredInt(name, value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}
