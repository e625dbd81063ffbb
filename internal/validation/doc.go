// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

// Package validation provides struct validation using go-playground/validator v10.
//
// A thread-safe singleton validator is shared by the configuration loader and
// the session log reader. Validation failures are returned as
// *StructValidationError, whose messages name the failing field.
//
// # Custom Validators
//
//   - whole_minutes: a time.Duration that is a whole number of minutes.
//     Keep-alive values appear in snapshot keys and output file names as
//     minutes, so fractional values would collide.
//
// # Usage
//
//	type SimulateConfig struct {
//	    KeepAliveStep time.Duration `validate:"gt=0,whole_minutes"`
//	}
//
//	if err := validation.Validate(&cfg); err != nil {
//	    return fmt.Errorf("invalid simulate config: %w", err)
//	}
//
// ValidateStruct returns the concrete error type so callers can check
// individual fields:
//
//	if verr := validation.ValidateStruct(&session); verr != nil {
//	    if verr.HasField("EndTime") {
//	        // end before start
//	    }
//	}
//
// # Thread Safety
//
// GetValidator initializes the validator once; all functions are safe for
// concurrent use.
package validation
