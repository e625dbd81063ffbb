// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

// Package snapshot persists expensive derived data between runs: parsed
// sessions, asset metadata and simulated download moments.
//
// Values are encoded as JSON (goccy/go-json) and compressed with zstd. A
// round trip reproduces the in-memory value exactly. Readers treat any load
// failure as "not cached" and recompute; writers never leave a partial
// snapshot behind.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

// Backend selects a Store implementation.
type Backend string

const (
	// BackendFile stores one compressed file per key under a directory.
	BackendFile Backend = "file"

	// BackendBadger stores all keys in an embedded BadgerDB.
	BackendBadger Backend = "badger"

	// BackendNone disables persistence.
	BackendNone Backend = "none"
)

// Store persists values by key.
type Store interface {
	// Load decodes the value stored under key into v.
	// It returns false, nil when nothing is stored under key.
	Load(ctx context.Context, key string, v any) (bool, error)

	// Save replaces the value stored under key. On failure no partial
	// value remains.
	Save(ctx context.Context, key string, v any) error

	// Close releases the underlying resources.
	Close() error
}

// Open creates the Store for backend at location (a directory for the file
// and badger backends).
func Open(backend Backend, location string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(location)
	case BackendBadger:
		return OpenBadgerStore(location)
	case BackendNone:
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", backend)
	}
}

// ErrInvalidKey is returned for keys that are empty or escape the store.
var ErrInvalidKey = errors.New("invalid snapshot key")

func validateKey(key string) error {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// zstd codecs are safe for concurrent EncodeAll/DecodeAll use.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// encode marshals v to compressed JSON.
func encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return encoder.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

// decode decompresses data and unmarshals it into v.
func decode(data []byte, v any) error {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("decompress snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return nil
}

// NopStore stores nothing; every Load misses.
type NopStore struct{}

// Load always reports a miss.
func (NopStore) Load(context.Context, string, any) (bool, error) { return false, nil }

// Save discards v.
func (NopStore) Save(context.Context, string, any) error { return nil }

// Close does nothing.
func (NopStore) Close() error { return nil }
