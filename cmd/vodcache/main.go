// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package main

import (
	"github.com/tomtom215/vodcache/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.Fatal().Err(err).Msg("vodcache failed")
	}
}
