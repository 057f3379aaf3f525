/*
NAME
  predictor.go

DESCRIPTION
  predictor.go implements the per-pixel hop predictor (C3): spatial
  prediction from already-reconstructed neighbors, minimum-error hop
  selection for the encoder, hop reconstruction shared by encoder and
  decoder, and the h1/gradient adaptation state machine.

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

// Plane is a flat, row-major 8-bit sample buffer with an explicit stride,
// the owned mutable buffer the reconstruction loop indexes into (see
// Design Note "Cyclic neighbor references").
type Plane struct {
	Pix    []byte
	Stride int
}

// NewPlane allocates a Plane of the given dimensions.
func NewPlane(width, height int) Plane {
	return Plane{Pix: make([]byte, width*height), Stride: width}
}

// At returns the sample at (x, y).
func (p Plane) At(x, y int) int { return int(p.Pix[y*p.Stride+x]) }

// Set stores v (clamped to [SampleMin, SampleMax] by the caller) at (x, y).
func (p Plane) Set(x, y int, v int) { p.Pix[y*p.Stride+x] = byte(v) }

// HopState is the per-block-row-traversal predictor state (§3): h1, the
// last-small-hop flag, and the non-delta gradient correction.
type HopState struct {
	H1           int
	LastSmallHop bool
	Grad         int
}

// NewHopState returns the state a block or row starts with.
func NewHopState() HopState {
	return HopState{H1: MinHop1, LastSmallHop: true, Grad: 0}
}

// Reset restores s to its block/row-start values.
func (s *HopState) Reset() { *s = NewHopState() }

// Adapt updates h1 and LastSmallHop after hop has been coded (§4.3).
func (s *HopState) Adapt(hop int) {
	small := hop == HopNeg1 || hop == HopZero || hop == HopPos1
	if small && s.LastSmallHop {
		s.H1--
		if s.H1 < MinHop1 {
			s.H1 = MinHop1
		}
	} else {
		s.H1 = MaxHop1
	}
	s.LastSmallHop = small
}

// UpdateGrad updates the non-delta gradient correction after hop has been
// coded. It is a no-op in delta mode, where the gradient correction is
// disabled (§4.3, §4.9).
func (s *HopState) UpdateGrad(hop int, deltaMode bool) {
	if deltaMode {
		return
	}
	switch {
	case hop == HopPos1:
		s.Grad = 1
	case hop == HopNeg1:
		s.Grad = -1
	case hopDistance(hop) >= 2:
		s.Grad = 0
	}
	// hop == HopZero: Grad is left unchanged.
}

// hopDistance returns the unsigned distance of hop from HopZero.
func hopDistance(hop int) int {
	d := hop - HopZero
	if d < 0 {
		return -d
	}
	return d
}

// hopSign returns the signed direction of hop relative to HopZero (-1, 0,
// or +1).
func hopSign(hop int) int {
	switch {
	case hop > HopZero:
		return 1
	case hop < HopZero:
		return -1
	default:
		return 0
	}
}

// hopForDistanceSign maps a (distance, sign) pair back to a hop symbol.
func hopForDistanceSign(dist, sign int) int {
	return HopZero + sign*dist
}

func clampSample(v int) int {
	if v < SampleMin {
		return SampleMin
	}
	if v > SampleMax {
		return SampleMax
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// magnitudeFor returns the unsigned sample offset for a hop of the given
// distance (1..4) at h1, consulting the C1 cache table for distances 2-4
// and using h1 directly for distance 1 (§4.3).
func magnitudeFor(h1, dist int) int {
	if dist == 1 {
		return h1
	}
	return getTables().hopMagnitudeFor(h1, dist)
}

// ReconstructHop returns the reconstructed sample for hop given spatial
// predictor p and step size h1 (§4.3, "Reconstruction"). It is used by the
// decoder, and by the encoder to re-derive the same value it just wrote so
// later pixels see identical neighbors.
func ReconstructHop(hop, p, h1 int) int {
	if hop == HopZero {
		return clampSample(p)
	}
	dist := hopDistance(hop)
	sign := hopSign(hop)
	return clampSample(p + sign*magnitudeFor(h1, dist))
}

// SelectHop finds the minimum-error hop for original sample oc given
// spatial predictor p and step size h1 (§4.3, "Hop selection"). It returns
// the chosen hop and the quantum (reconstructed value) that hop produces.
func SelectHop(oc, p, h1 int) (hop, quantum int) {
	diff := oc - p
	if absInt(diff) <= h1/2 {
		return HopZero, clampSample(p)
	}
	sign := 1
	if diff < 0 {
		sign = -1
	}

	bestErr := -1
	bestHop := HopZero
	bestQuantum := clampSample(p)
	for dist := 1; dist <= 4; dist++ {
		val := clampSample(p + sign*magnitudeFor(h1, dist))
		e := absInt(oc - val)
		if bestErr != -1 && e >= bestErr {
			break // candidates are monotone in magnitude; first non-improvement aborts.
		}
		bestErr = e
		bestHop = hopForDistanceSign(dist, sign)
		bestQuantum = val
	}
	return bestHop, bestQuantum
}

// blockEdges describes the geometry a predictCtx needs to classify a pixel
// position within its block, and whether west/north neighbor blocks exist.
type blockEdges struct {
	XIni, YIni, XFin, YFin int
	TopRow, LeftCol        bool
}

// predictSpatial computes the spatial predictor for (x, y) from already
// reconstructed neighbors in plane, per the location table in §4.3. It does
// not apply the gradient correction; callers add that separately (grad is
// disabled entirely in delta mode).
func predictSpatial(plane Plane, x, y int, e blockEdges, firstColor int) int {
	switch {
	case x == 0 && y == 0:
		return firstColor

	case y == e.YIni && e.TopRow:
		// First block row of the whole frame: left neighbor. At x == XIni
		// of any block but the first, that neighbor lies in the west
		// block, which an earlier diagonal has already completed.
		return plane.At(x-1, y)

	case y == e.YIni:
		// Interior block's top row: blend the sample just left of the
		// block (west block's right edge) with the sample just above
		// (north block's bottom edge).
		if e.LeftCol {
			return plane.At(x, e.YIni-1)
		}
		return (plane.At(e.XIni-1, y) + plane.At(x, e.YIni-1) + 1) / 2

	case x == e.XIni:
		// Mid-block row, left edge: blend with top-right when it is still
		// inside this block (safe: already written this pass); otherwise
		// fall back to the top neighbor.
		if e.LeftCol {
			return plane.At(x, y-1)
		}
		left := plane.At(x-1, y)
		if x+1 < e.XFin {
			return (left + plane.At(x+1, y-1) + 1) / 2
		}
		return plane.At(x, y-1)

	case x == e.XFin-1:
		// Right edge: top-right would cross into a not-yet-decoded
		// neighbor block on the same anti-diagonal, so average left/top.
		return (plane.At(x-1, y) + plane.At(x, y-1) + 1) / 2

	default:
		return (plane.At(x-1, y) + plane.At(x+1, y-1) + 1) / 2
	}
}
