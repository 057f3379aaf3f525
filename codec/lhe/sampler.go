/*
NAME
  sampler.go

DESCRIPTION
  sampler.go implements the downsampler/upsampler pair (C6): SPS, AVG and
  mixed downsampling driven by a block's PPP gradient fields, and
  nearest-neighbor or adaptive upsampling driven by the same geometry plus
  the PR mesh.

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

// adaptiveBlend is the PR threshold under which the adaptive upsampler
// blends two neighboring source samples rather than picking the nearest
// one (§4.6).
const adaptiveBlend = 0.251

// cellBoundaries returns length+1 fractional source-space boundaries for a
// block of srcLen source samples downsampled to length output samples. All
// cells have the same width srcLen/length: the block's PPP values enter only
// through length (C5's downsampled side), and the PPP gradient across the
// block does not vary the cell widths.
func cellBoundaries(srcLen, length int) []float64 {
	bounds := make([]float64, length+1)
	if length == 0 {
		return bounds
	}
	step := float64(srcLen) / float64(length)
	for i := 0; i <= length; i++ {
		bounds[i] = step * float64(i)
	}
	if bounds[length] > float64(srcLen) {
		bounds[length] = float64(srcLen)
	}
	return bounds
}

// downsampleSPS picks the sample nearest the center of each cell.
func downsampleSPS(src []int, bounds []float64) []int {
	out := make([]int, len(bounds)-1)
	for i := range out {
		center := (bounds[i] + bounds[i+1]) / 2
		idx := int(center)
		if idx >= len(src) {
			idx = len(src) - 1
		}
		out[i] = src[idx]
	}
	return out
}

// downsampleAVG computes the weighted average of source samples covered by
// each fractional cell.
func downsampleAVG(src []int, bounds []float64) []int {
	out := make([]int, len(bounds)-1)
	for i := range out {
		lo, hi := bounds[i], bounds[i+1]
		if hi <= lo {
			idx := int(lo)
			if idx >= len(src) {
				idx = len(src) - 1
			}
			out[i] = src[idx]
			continue
		}
		var sum, weight float64
		for idx := int(lo); float64(idx) < hi; idx++ {
			if idx >= len(src) {
				break
			}
			segLo, segHi := float64(idx), float64(idx+1)
			if segLo < lo {
				segLo = lo
			}
			if segHi > hi {
				segHi = hi
			}
			w := segHi - segLo
			sum += w * float64(src[idx])
			weight += w
		}
		if weight == 0 {
			out[i] = src[int(lo)]
		} else {
			out[i] = int(sum/weight + 0.5)
		}
	}
	return out
}

// downsample1D dispatches to SPS or AVG per mode.
func downsample1D(src []int, bounds []float64, avg bool) []int {
	if avg {
		return downsampleAVG(src, bounds)
	}
	return downsampleSPS(src, bounds)
}

// downsampleBlock reduces a srcW x srcH block (row-major, stride srcW) to
// dstW x dstH using mode (§4.6). Rows are resampled first, then columns,
// mirroring "avg-x then sps-y" style mixed modes: the x pass uses AVG when
// mode is DownAVG or DownAVGxSPSy, the y pass uses AVG only for DownAVG.
func downsampleBlock(src []int, srcW, srcH, dstW, dstH, mode int) []int {
	xAVG := mode == DownAVG || mode == DownAVGxSPSy
	yAVG := mode == DownAVG

	xBounds := cellBoundaries(srcW, dstW)
	mid := make([]int, dstW*srcH)
	row := make([]int, srcW)
	for y := 0; y < srcH; y++ {
		copy(row, src[y*srcW:(y+1)*srcW])
		r := downsample1D(row, xBounds, xAVG)
		for x := 0; x < dstW; x++ {
			mid[y*dstW+x] = r[x]
		}
	}

	yBounds := cellBoundaries(srcH, dstH)
	out := make([]int, dstW*dstH)
	col := make([]int, srcH)
	for x := 0; x < dstW; x++ {
		for y := 0; y < srcH; y++ {
			col[y] = mid[y*dstW+x]
		}
		c := downsample1D(col, yBounds, yAVG)
		for y := 0; y < dstH; y++ {
			out[y*dstW+x] = c[y]
		}
	}
	return out
}

// upsampleNearest distributes each of the len(src) source samples across the
// destination span bounds assigns to it, one axis per call (the caller does
// vertical then horizontal at the block level).
func upsampleNearest(src []int, bounds []float64, dstLen int) []int {
	out := make([]int, dstLen)
	si := 0
	for d := 0; d < dstLen; d++ {
		for si < len(bounds)-2 && bounds[si+1] <= float64(d) {
			si++
		}
		out[d] = src[si]
	}
	return out
}

// upsampleAdaptive is identical to upsampleNearest except that destination
// samples whose local PR is below adaptiveBlend are a linear blend of the
// two source samples straddling them rather than a nearest pick (§4.6).
// prAt returns the PR scalar governing destination sample d.
func upsampleAdaptive(src []int, bounds []float64, dstLen int, prAt func(d int) float64) []int {
	out := make([]int, dstLen)
	si := 0
	for d := 0; d < dstLen; d++ {
		for si < len(bounds)-2 && bounds[si+1] <= float64(d) {
			si++
		}
		if prAt(d) >= adaptiveBlend || si+1 >= len(src) {
			out[d] = src[si]
			continue
		}
		center := (bounds[si] + bounds[si+1]) / 2
		next := (bounds[si+1] + boundOrLast(bounds, si+2)) / 2
		if next == center {
			out[d] = src[si]
			continue
		}
		t := (float64(d) - center) / (next - center)
		if t < 0 {
			t = 0
		}
		if t > 1 {
			t = 1
		}
		blended := float64(src[si])*(1-t) + float64(src[si+1])*t
		out[d] = int(blended + 0.5)
	}
	return out
}

func boundOrLast(bounds []float64, i int) float64 {
	if i >= len(bounds) {
		return bounds[len(bounds)-1]
	}
	return bounds[i]
}

// upsampleBlock restores a dstW x dstH block from a srcW x srcH downsampled
// block, vertical pass then horizontal pass, matching the encoder's
// horizontal-then-vertical downsample order in reverse. Interpolation stays
// inside the block: no pass reads samples of a neighboring block.
func upsampleBlock(src []int, srcW, srcH, dstW, dstH int, adaptive bool, prX, prY func(i int) float64) []int {
	yBounds := cellBoundaries(dstH, srcH)
	mid := make([]int, srcW*dstH)
	col := make([]int, srcH)
	for x := 0; x < srcW; x++ {
		for y := 0; y < srcH; y++ {
			col[y] = src[y*srcW+x]
		}
		var c []int
		if adaptive {
			c = upsampleAdaptive(col, yBounds, dstH, prY)
		} else {
			c = upsampleNearest(col, yBounds, dstH)
		}
		for y := 0; y < dstH; y++ {
			mid[y*srcW+x] = c[y]
		}
	}

	xBounds := cellBoundaries(dstW, srcW)
	out := make([]int, dstW*dstH)
	row := make([]int, srcW)
	for y := 0; y < dstH; y++ {
		copy(row, mid[y*srcW:(y+1)*srcW])
		var r []int
		if adaptive {
			r = upsampleAdaptive(row, xBounds, dstW, prX)
		} else {
			r = upsampleNearest(row, xBounds, dstW)
		}
		copy(out[y*dstW:(y+1)*dstW], r)
	}
	return out
}
