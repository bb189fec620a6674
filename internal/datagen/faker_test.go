//-------------------------------------------------------------------------
//
// Sparkify Data Warehouse Pipeline
//
// Copyright (c) 2025 - 2026, Sparkify, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"testing"
	"time"
)

func TestNewFaker(t *testing.T) {
	f := NewFaker()
	if f == nil {
		t.Fatal("NewFaker returned nil")
	}
	if f.FirstName() == "" {
		t.Error("FirstName returned empty string")
	}
}

func TestNewFakerWithSeedIsDeterministic(t *testing.T) {
	f1 := NewFakerWithSeed(42)
	f2 := NewFakerWithSeed(42)

	for i := 0; i < 10; i++ {
		n1, n2 := f1.FirstName(), f2.FirstName()
		if n1 != n2 {
			t.Fatalf("Same seed produced different names: %q vs %q", n1, n2)
		}
	}
}

func TestIntRange(t *testing.T) {
	f := NewFakerWithSeed(7)
	for i := 0; i < 100; i++ {
		n := f.Int(5, 10)
		if n < 5 || n > 10 {
			t.Fatalf("Int(5, 10) returned %d, out of range", n)
		}
	}
}

func TestFloat64Range(t *testing.T) {
	f := NewFakerWithSeed(7)
	for i := 0; i < 100; i++ {
		v := f.Float64(1.5, 3.5)
		if v < 1.5 || v > 3.5 {
			t.Fatalf("Float64(1.5, 3.5) returned %f, out of range", v)
		}
	}
}

func TestDateRange(t *testing.T) {
	f := NewFakerWithSeed(7)
	start := time.Date(2018, 11, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2018, 11, 30, 23, 59, 59, 0, time.UTC)
	for i := 0; i < 100; i++ {
		d := f.DateRange(start, end)
		if d.Before(start) || d.After(end) {
			t.Fatalf("DateRange returned %v, outside [%v, %v]", d, start, end)
		}
	}
}

func TestChoose(t *testing.T) {
	f := NewFakerWithSeed(7)
	items := []string{"free", "paid"}
	for i := 0; i < 100; i++ {
		got := Choose(f, items)
		if got != "free" && got != "paid" {
			t.Fatalf("Choose returned %q, not in input slice", got)
		}
	}
}

func TestChooseEmptySlice(t *testing.T) {
	f := NewFakerWithSeed(7)
	if got := Choose(f, []string{}); got != "" {
		t.Errorf("Choose on empty slice = %q, want zero value", got)
	}
	if got := Choose(f, []int{}); got != 0 {
		t.Errorf("Choose on empty slice = %d, want zero value", got)
	}
}
