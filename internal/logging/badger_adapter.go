// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// BadgerLogger implements badger.Logger on top of zerolog so the snapshot
// store's database messages share the run's log stream.
//
// Badger reports compaction and flush progress at info level; those are
// demoted to debug.
//
//	opts := badger.DefaultOptions(path).WithLogger(logging.NewBadgerLogger())
type BadgerLogger struct {
	logger zerolog.Logger
}

// NewBadgerLogger creates a BadgerLogger from the global logger.
func NewBadgerLogger() *BadgerLogger {
	return NewBadgerLoggerWithLogger(Logger())
}

// NewBadgerLoggerWithLogger creates a BadgerLogger with a specific zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBadgerLoggerWithLogger(logger zerolog.Logger) *BadgerLogger {
	return &BadgerLogger{logger: logger.With().Str("component", "badger").Logger()}
}

// Errorf logs at error level.
func (l *BadgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(trimNewline(format), args...)
}

// Warningf logs at warn level.
func (l *BadgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(trimNewline(format), args...)
}

// Infof logs at debug level.
func (l *BadgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug().Msgf(trimNewline(format), args...)
}

// Debugf logs at trace level.
func (l *BadgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Trace().Msgf(trimNewline(format), args...)
}

// Badger terminates its format strings with a newline.
func trimNewline(format string) string {
	return strings.TrimSuffix(format, "\n")
}
