// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package query

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestWhereBuilder_Empty(t *testing.T) {
	wb := NewWhereBuilder()

	if !wb.IsEmpty() {
		t.Error("Expected new builder to be empty")
	}
	if wb.Count() != 0 {
		t.Errorf("Expected count 0, got %d", wb.Count())
	}

	whereClause, args := wb.Build()
	if whereClause != "1=1" {
		t.Errorf("Expected '1=1' for empty builder, got %q", whereClause)
	}
	if len(args) != 0 {
		t.Errorf("Expected 0 args, got %d", len(args))
	}
}

func TestWhereBuilder_AddRun(t *testing.T) {
	id := uuid.MustParse("6f1c2a9e-3b4d-4c5e-8f70-0123456789ab")
	whereClause, args := NewWhereBuilder().AddRun("run_id", id).Build()

	if whereClause != "run_id = ?" {
		t.Errorf("Expected %q, got %q", "run_id = ?", whereClause)
	}
	if len(args) != 1 || args[0] != id.String() {
		t.Errorf("Expected the run id string as the only arg, got %v", args)
	}
}

func TestWhereBuilder_AddTimeRange(t *testing.T) {
	cest := time.FixedZone("CEST", 2*3600)
	start := time.Date(2013, 8, 29, 2, 0, 0, 0, cest)
	end := time.Date(2013, 8, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		start, end *time.Time
		wantClause string
		wantArgs   []interface{}
	}{
		{"both", &start, &end, "start_time >= ? AND start_time < ?", []interface{}{start.UTC(), end}},
		{"start only", &start, nil, "start_time >= ?", []interface{}{start.UTC()}},
		{"end only", nil, &end, "start_time < ?", []interface{}{end}},
		{"neither", nil, nil, "1=1", []interface{}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			whereClause, args := NewWhereBuilder().AddTimeRange("start_time", tt.start, tt.end).Build()
			if whereClause != tt.wantClause {
				t.Errorf("Expected %q, got %q", tt.wantClause, whereClause)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("Expected args %v, got %v", tt.wantArgs, args)
			}
		})
	}

	_, args := NewWhereBuilder().AddTimeRange("start_time", &start, nil).Build()
	if got := args[0].(time.Time).Location(); got != time.UTC {
		t.Errorf("Expected UTC bound, got %v", got)
	}
}

func TestWhereBuilder_AddIn(t *testing.T) {
	whereClause, args := NewWhereBuilder().AddIn("asset_id", []string{"a", "b", "c"}).Build()
	if want := "asset_id IN (?, ?, ?)"; whereClause != want {
		t.Errorf("Expected %q, got %q", want, whereClause)
	}
	if want := []interface{}{"a", "b", "c"}; !reflect.DeepEqual(args, want) {
		t.Errorf("Expected args %v, got %v", want, args)
	}

	wb := NewWhereBuilder().AddIn("asset_id", nil)
	if !wb.IsEmpty() {
		t.Error("Expected empty value list to be skipped")
	}
}

func TestWhereBuilder_Combined(t *testing.T) {
	id := uuid.New()
	start := time.Date(2013, 8, 29, 0, 0, 0, 0, time.UTC)

	wb := NewWhereBuilder().
		AddRun("s.run_id", id).
		AddTimeRange("s.start_time", &start, nil).
		AddIn("s.asset_id", []string{"x"}).
		AddClause("s.duration_seconds > ?", 60.0)

	if wb.Count() != 4 {
		t.Errorf("Expected count 4, got %d", wb.Count())
	}
	whereClause, args := wb.BuildWithPrefix()
	want := "WHERE s.run_id = ? AND s.start_time >= ? AND s.asset_id IN (?) AND s.duration_seconds > ?"
	if whereClause != want {
		t.Errorf("Expected %q, got %q", want, whereClause)
	}
	if len(args) != 4 {
		t.Errorf("Expected 4 args, got %d", len(args))
	}
}

func TestWhereBuilder_BuildWithPrefixEmpty(t *testing.T) {
	whereClause, _ := NewWhereBuilder().BuildWithPrefix()
	if whereClause != "WHERE 1=1" {
		t.Errorf("Expected 'WHERE 1=1', got %q", whereClause)
	}
}
