/*
NAME
  tables_test.go

DESCRIPTION
  tables_test.go contains tests for tables.go.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package lhe

import "testing"

func TestHopMagnitudeMonotoneInDistance(t *testing.T) {
	tbl := getTables()
	for h1 := MinHop1; h1 <= MaxHop1; h1++ {
		prev := 0
		for dist := 1; dist <= 4; dist++ {
			m := tbl.hopMagnitudeFor(h1, dist)
			if m <= prev {
				t.Fatalf("hopMagnitudeFor(%d, %d) = %d; want > %d (monotone in distance)", h1, dist, m, prev)
			}
			prev = m
		}
	}
}

func TestHopMagnitudeMonotoneInH1(t *testing.T) {
	tbl := getTables()
	for dist := 1; dist <= 4; dist++ {
		prev := 0
		for h1 := MinHop1; h1 <= MaxHop1; h1++ {
			m := tbl.hopMagnitudeFor(h1, dist)
			if m < prev {
				t.Fatalf("hopMagnitudeFor(%d, %d) = %d; want >= %d (monotone in h1)", h1, dist, m, prev)
			}
			prev = m
		}
	}
}

func TestCompressionFactorRange(t *testing.T) {
	tbl := getTables()
	for p := 1.0; p <= PPPMax; p++ {
		for ql := 0; ql <= 99; ql += 10 {
			cf := tbl.CompressionFactor(p, ql)
			if cf < 0 || cf > 1 {
				t.Fatalf("CompressionFactor(%v, %d) = %v; want in [0,1]", p, ql, cf)
			}
		}
	}
}

func TestCompressionFactorDecreasesWithQuality(t *testing.T) {
	tbl := getTables()
	lowQL := tbl.CompressionFactor(4, 0)
	highQL := tbl.CompressionFactor(4, 99)
	if highQL >= lowQL {
		t.Fatalf("CompressionFactor(4, 99) = %v; want < CompressionFactor(4, 0) = %v", highQL, lowQL)
	}
}

func TestCompressionFactorClampsOutOfRangeInputs(t *testing.T) {
	tbl := getTables()
	// Out-of-range ppp/ql inputs must clamp rather than panic or index out
	// of bounds.
	if cf := tbl.CompressionFactor(-5, -5); cf < 0 || cf > 1 {
		t.Fatalf("CompressionFactor(-5, -5) = %v; want clamped into [0,1]", cf)
	}
	if cf := tbl.CompressionFactor(1000, 1000); cf < 0 || cf > 1 {
		t.Fatalf("CompressionFactor(1000, 1000) = %v; want clamped into [0,1]", cf)
	}
}
