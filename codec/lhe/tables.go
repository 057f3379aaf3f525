/*
NAME
  tables.go

DESCRIPTION
  tables.go builds the two cache tables (C1): the quantized-hop magnitude
  table consulted by the predictor for hops of distance >= 2, and the
  compression-factor table consulted by the PR -> PPP geometry step. Both
  are pure functions of the algorithm constants, built once on first use.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package lhe

import "sync"

// numH1 is the number of distinct h1 values, [MinHop1, MaxHop1].
const numH1 = MaxHop1 - MinHop1 + 1

// hopMagnitudeGrowth scales h1 into the magnitude of each non-small hop
// distance (1..4, indices 0..3). Index 0 reproduces the direct p +/- h1
// step used for POS_1/NEG_1 so the table is uniform across all four
// distances even though the predictor shortcuts distance 1 directly.
// The growth is super-linear so that a fixed h1 budget still reaches
// toward the sample range at distance 4, the way adpcm's stepTable grows
// faster than linearly with nibble magnitude.
var hopMagnitudeGrowth = [4]float64{1.0, 2.25, 4.0, 6.5}

// cacheTables holds the process-wide precomputed tables described in §4.1.
type cacheTables struct {
	// hopMagnitude[h1-MinHop1][dist] is the unsigned sample offset for a
	// hop of distance dist+1 (dist in 0..3) at the given h1.
	hopMagnitude [numH1][4]int

	// compressionFactor[pppIdx][ql] is the compression factor used by the
	// PR -> PPP formula (§4.5), for theoretical ppp bucket pppIdx in
	// [0, pppMaxTheory) and quality level ql in [0, 99].
	compressionFactor [pppMaxTheory][100]float64
}

var (
	tablesOnce sync.Once
	tables     cacheTables
)

// getTables returns the process-wide cache tables, building them on first
// use.
func getTables() *cacheTables {
	tablesOnce.Do(buildTables)
	return &tables
}

func buildTables() {
	for h1 := MinHop1; h1 <= MaxHop1; h1++ {
		idx := h1 - MinHop1
		for dist := 0; dist < 4; dist++ {
			m := float64(h1) * hopMagnitudeGrowth[dist]
			tables.hopMagnitude[idx][dist] = int(m + 0.5)
		}
	}

	// compression_factor grows with the theoretical ppp bucket (busier
	// scenes can afford a stronger compression factor) and shrinks with
	// quality level (higher quality spends more bits, so less of the
	// compression factor is applied against irrelevant regions).
	for p := 0; p < pppMaxTheory; p++ {
		for ql := 0; ql < 100; ql++ {
			cf := (float64(p+1) / float64(pppMaxTheory)) * (1.0 - float64(ql)/100.0)
			if cf < 0.01 {
				cf = 0.01
			}
			if cf > 1.0 {
				cf = 1.0
			}
			tables.compressionFactor[p][ql] = cf
		}
	}
}

// hopMagnitudeFor returns the unsigned offset for a hop of the given distance
// (1..4) at the given h1.
func (t *cacheTables) hopMagnitudeFor(h1, distance int) int {
	return t.hopMagnitude[h1-MinHop1][distance-1]
}

// CompressionFactor returns the compression factor for a theoretical ppp
// bucket (rounded, clamped to [1, PPPMax]) and quality level.
func (t *cacheTables) CompressionFactor(pppTheoretical float64, ql int) float64 {
	idx := int(pppTheoretical+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= pppMaxTheory {
		idx = pppMaxTheory - 1
	}
	if ql < 0 {
		ql = 0
	}
	if ql > 99 {
		ql = 99
	}
	return t.compressionFactor[idx][ql]
}
