// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package config

import (
	"fmt"
	"net/url"

	"github.com/tomtom215/vodcache/internal/validation"
)

// Validate checks that required configuration is present and valid.
// Field rules come from the validate struct tags; rules spanning several
// fields are checked here.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}

	if err := c.validateCatalog(); err != nil {
		return err
	}

	if err := c.validateSimulate(); err != nil {
		return err
	}

	return c.validateInput()
}

// validateCatalog validates the metadata service URL when one is configured
func (c *Config) validateCatalog() error {
	if c.Catalog.TraxisURL == "" {
		return nil // Offline: assets come from the snapshot only
	}
	if err := validateHTTPURL(c.Catalog.TraxisURL, "TRAXIS_URL"); err != nil {
		return fmt.Errorf("TRAXIS_URL is invalid: %w", err)
	}
	return nil
}

// validateSimulate validates the keep-alive sweep bounds
func (c *Config) validateSimulate() error {
	if c.Simulate.KeepAliveTo < c.Simulate.KeepAliveFrom {
		return fmt.Errorf("KEEP_ALIVE_TO (%s) must not be before KEEP_ALIVE_FROM (%s)",
			c.Simulate.KeepAliveTo, c.Simulate.KeepAliveFrom)
	}
	return nil
}

// validateInput validates that the configured time zone can be loaded
func (c *Config) validateInput() error {
	if _, err := c.Input.Location(); err != nil {
		return fmt.Errorf("INPUT_TIMEZONE is invalid: %w", err)
	}
	return nil
}

// validateHTTPURL validates that a URL is properly formatted for HTTP/HTTPS services.
// Validates: scheme (http/https), host present, no paths or query params.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	// Allow trailing slash but no other paths
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, parsedURL.Path)
	}

	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}

	return nil
}
