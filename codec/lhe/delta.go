/*
NAME
  delta.go

DESCRIPTION
  delta.go implements the MLHE delta-frame pipeline (C9): resolution
  adaptation of the previous reconstruction to the current block geometry,
  companded residual coding, player-image reconstruction, the per-block
  I/P decision, and double-buffered frame references.

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

// companding half-widths. halfPass is the pass-through band's half-width
// on the (delta+128)-centered domain the two named breakpoints describe:
// deltaTramo1/deltaTramo2 (52/204) sit symmetric distances of 76 below and
// above center 128. The remaining distance out to the ±127 clamp is split
// evenly between the x2 ("mid") and x4 ("large") bands — the spec names
// only the two center breakpoints, so the mid/large split point is an
// invented-but-reasoned symmetric choice; see DESIGN.md.
const (
	halfPass = (deltaTramo2 - deltaTramo1) / 2 // 76
	midWidth = (127 - halfPass) / 2            // 25
)

func signOfInt(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}

// compand maps a delta in [-127, 127] to a companded code in the same
// range: small deltas pass through unchanged, mid deltas are compressed by
// 2x, large deltas by 4x (§4.9). The decoder's decompand is its inverse,
// exact inside the pass-through band and lossy (quantized) beyond it.
func compand(delta int) int {
	ad := delta
	sign := signOfInt(delta)
	if ad < 0 {
		ad = -ad
	}
	switch {
	case ad <= halfPass:
		return delta
	case ad <= halfPass+2*midWidth:
		over := ad - halfPass
		return sign * (halfPass + over/2)
	default:
		over := ad - halfPass - 2*midWidth
		return sign * (halfPass + midWidth + over/4)
	}
}

// decompand reverses compand, expanding the mid/large bands back out by
// 2x/4x (§4.9, "matching inverse in the decoder").
func decompand(code int) int {
	ac := code
	sign := signOfInt(code)
	if ac < 0 {
		ac = -ac
	}
	switch {
	case ac <= halfPass:
		return code
	case ac <= halfPass+midWidth:
		over := ac - halfPass
		return sign * (halfPass + over*2)
	default:
		over := ac - halfPass - midWidth
		return sign * (halfPass + 2*midWidth + over*4)
	}
}

// adaptBlock remaps src (prevW x prevH) into a curW x curH buffer via a
// ratio-mapped nearest lookup (§4.9, "Resolution adaptation").
func adaptBlock(src []int, prevW, prevH, curW, curH int) []int {
	out := make([]int, curW*curH)
	if prevW == 0 || prevH == 0 {
		return out
	}
	for y := 0; y < curH; y++ {
		sy := y * prevH / curH
		if sy >= prevH {
			sy = prevH - 1
		}
		for x := 0; x < curW; x++ {
			sx := x * prevW / curW
			if sx >= prevW {
				sx = prevW - 1
			}
			out[y*curW+x] = src[sy*prevW+sx]
		}
	}
	return out
}

// codeDelta computes the companded, byte-biased delta plane sample for one
// pixel: clamp(original-adapted, -127, 127), companded, then +128 (§4.9,
// "Companded residual").
func codeDelta(original, adapted int) int {
	d := original - adapted
	if d < -127 {
		d = -127
	}
	if d > 127 {
		d = 127
	}
	return compand(d) + 128
}

// reconstructPlayer reverses codeDelta given the plane's reconstructed hop
// value (after hop coding/decoding the delta plane) and the adapted
// previous-frame sample, producing the next frame's reference sample
// (§4.9, "Reconstruct player image").
func reconstructPlayer(adapted, deltaPlaneSample int) int {
	return clampSample(adapted + decompand(deltaPlaneSample-128))
}

// blockMovement computes the movement scalar from the change in PR mesh
// values at block (bx, by)'s 4 corners between the previous and current
// frame's meshes (§4.9, "Per-block I/P decision").
func blockMovement(prev, cur PRMesh, bx, by int) float64 {
	var sum float64
	for _, c := range blockCorners(bx, by) {
		sum += absFloat(cur.X[c[1]][c[0]] - prev.X[c[1]][c[0]])
		sum += absFloat(cur.Y[c[1]][c[0]] - prev.Y[c[1]][c[0]])
	}
	return sum / 8
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// decideBlockMode reports whether a block must be forced to I (ADVANCED,
// no delta) this frame: either it moved more than movementThreshold, or
// its TTL has expired (§4.9).
func decideBlockMode(movement float64, ttl int) bool {
	return movement > movementThreshold || ttl <= 0
}

// PlaneBuffer double-buffers a reference Plane as two owned buffers with a
// selector flip, per Design Note "Double buffering of last": no pointer
// aliasing, no ownership transfer on swap. A downsampled composite plane's
// extents can change frame to frame as geometry is recomputed, so Reset
// reallocates only the slot being written; Last keeps whatever size it was
// committed at, exactly what adaptBlock's ratio mapping expects.
type PlaneBuffer struct {
	bufs    [2]Plane
	current int
}

// NewPlaneBuffer allocates both buffers at the given extents.
func NewPlaneBuffer(width, height int) *PlaneBuffer {
	return &PlaneBuffer{bufs: [2]Plane{NewPlane(width, height), NewPlane(width, height)}}
}

// Current returns the buffer being written this frame.
func (b *PlaneBuffer) Current() Plane { return b.bufs[b.current] }

// Last returns the committed reconstruction from the previous frame.
func (b *PlaneBuffer) Last() Plane { return b.bufs[1-b.current] }

// Swap flips the selector at end-of-frame.
func (b *PlaneBuffer) Swap() { b.current = 1 - b.current }

// Reset reallocates the Current slot to width x height, leaving Last
// untouched.
func (b *PlaneBuffer) Reset(width, height int) {
	b.bufs[b.current] = NewPlane(width, height)
}

// SetCurrent installs p as the Current slot directly, used when a frame's
// reconstruction is built as its own Plane rather than written in place
// into Current.
func (b *PlaneBuffer) SetCurrent(p Plane) {
	b.bufs[b.current] = p
}

// blockModeGrid is the per-block I/P decision for one DELTA_MLHE frame (§4.9).
type blockModeGrid [][]bool

// decideBlockModes computes, for every block, whether it is forced to I
// (movement above threshold or TTL exhausted), updating each block's
// BlockTTL in place: I blocks reset to gop, P blocks decrement. Both
// encoder and decoder call this identically (it depends only on the
// previous/current PR meshes and state already tracked by both sides), so
// no explicit per-block flag needs to cross the wire.
func decideBlockModes(prev, cur PRMesh, blocks [][]AdvancedBlock, gop uint) blockModeGrid {
	isI := make(blockModeGrid, len(blocks))
	for by := range blocks {
		isI[by] = make([]bool, len(blocks[by]))
		for bx := range blocks[by] {
			mv := blockMovement(prev, cur, bx, by)
			b := &blocks[by][bx]
			i := decideBlockMode(mv, b.BlockTTL)
			isI[by][bx] = i
			if i {
				b.BlockTTL = int(gop)
			} else {
				b.BlockTTL--
			}
		}
	}
	return isI
}

// buildDeltaComposite assembles one DELTA_MLHE plane: I blocks get their
// downsampled original samples directly (§4.9, "encode as ADVANCED"); P
// blocks get the companded residual against the resolution-adapted previous
// reconstruction.
func buildDeltaComposite(orig Plane, blocks, prevBlocks [][]AdvancedBlock, prevDS Plane, downMode int, isI blockModeGrid) Plane {
	w, h := compositeExtents(blocks)
	out := NewPlane(w, h)
	for by := range blocks {
		for bx := range blocks[by] {
			b := blocks[by][bx]
			src := extractRegion(orig, b.Basic.XIni, b.Basic.YIni, b.Basic.XFin, b.Basic.YFin)
			ds := downsampleBlock(src, b.Basic.Width(), b.Basic.Height(), b.DownsampledXSide, b.DownsampledYSide, downMode)
			if isI[by][bx] {
				writeRegion(out, b.XIniDownsampled, b.YIniDownsampled, b.XFinDownsampled, b.YFinDownsampled, ds)
				continue
			}
			pb := prevBlocks[by][bx]
			prevPix := extractRegion(prevDS, pb.XIniDownsampled, pb.YIniDownsampled, pb.XFinDownsampled, pb.YFinDownsampled)
			adapted := adaptBlock(prevPix, pb.DownsampledXSide, pb.DownsampledYSide, b.DownsampledXSide, b.DownsampledYSide)
			delta := make([]int, len(ds))
			for i := range ds {
				delta[i] = codeDelta(ds[i], adapted[i])
			}
			writeRegion(out, b.XIniDownsampled, b.YIniDownsampled, b.XFinDownsampled, b.YFinDownsampled, delta)
		}
	}
	return out
}

// reconstructDeltaComposite is decodeBlockGrid's companion for DELTA_MLHE:
// given the hop-decoded composite plane (I blocks already holding their true
// downsampled samples, P blocks holding decoded delta codes), it reconstructs
// the player image in place for P blocks and returns it as the next frame's
// reference.
func reconstructDeltaComposite(hopDecoded Plane, blocks, prevBlocks [][]AdvancedBlock, prevDS Plane, isI blockModeGrid) Plane {
	w, h := compositeExtents(blocks)
	out := NewPlane(w, h)
	for by := range blocks {
		for bx := range blocks[by] {
			b := blocks[by][bx]
			region := extractRegion(hopDecoded, b.XIniDownsampled, b.YIniDownsampled, b.XFinDownsampled, b.YFinDownsampled)
			if isI[by][bx] {
				writeRegion(out, b.XIniDownsampled, b.YIniDownsampled, b.XFinDownsampled, b.YFinDownsampled, region)
				continue
			}
			pb := prevBlocks[by][bx]
			prevPix := extractRegion(prevDS, pb.XIniDownsampled, pb.YIniDownsampled, pb.XFinDownsampled, pb.YFinDownsampled)
			adapted := adaptBlock(prevPix, pb.DownsampledXSide, pb.DownsampledYSide, b.DownsampledXSide, b.DownsampledYSide)
			player := make([]int, len(region))
			for i := range region {
				player[i] = reconstructPlayer(adapted[i], region[i])
			}
			writeRegion(out, b.XIniDownsampled, b.YIniDownsampled, b.XFinDownsampled, b.YFinDownsampled, player)
		}
	}
	return out
}
