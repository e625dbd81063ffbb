// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package snapshot

import (
	"encoding/binary"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/tomtom215/vodcache/internal/models"
)

// Fingerprint returns an order-independent hash of a session set. It is
// stored next to derived snapshots when input verification is enabled.
func Fingerprint(sessions []models.Session) string {
	sorted := make([]models.Session, len(sessions))
	copy(sorted, sessions)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		if !a.EndTime.Equal(b.EndTime) {
			return a.EndTime.Before(b.EndTime)
		}
		return a.AssetID < b.AssetID
	})

	h := xxhash.New()
	var buf [8]byte
	for _, s := range sorted {
		_, _ = h.WriteString(s.AssetID)
		_, _ = h.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], uint64(s.StartTime.UnixNano()))
		_, _ = h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(s.EndTime.UnixNano()))
		_, _ = h.Write(buf[:])
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
