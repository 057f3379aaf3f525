/*
NAME
  prmesh.go

DESCRIPTION
  prmesh.go computes the per-block-corner perceptual-relevance mesh (C4):
  a sign-change-weighted luminance-gradient scan, histogram expansion,
  5-level quantization, and the protected-rectangle override.

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

// PRMesh is the (blocksH+1) x (blocksW+1) lattice of quantized PRx/PRy
// scalars, shared between adjacent blocks (§3).
type PRMesh struct {
	BlocksW, BlocksH int
	X, Y             [][]float64 // [by][bx], each in prQuantLevels.
}

// newPRMesh allocates a zeroed mesh for the given grid.
func newPRMesh(g grid) PRMesh {
	m := PRMesh{BlocksW: g.blocksW, BlocksH: g.blocksH}
	m.X = make([][]float64, g.blocksH+1)
	m.Y = make([][]float64, g.blocksH+1)
	for i := range m.X {
		m.X[i] = make([]float64, g.blocksW+1)
		m.Y[i] = make([]float64, g.blocksW+1)
	}
	return m
}

// prQuantaCounter accumulates per-level occurrence counts across both the
// PRx and PRy meshes, feeding the mesh Huffman builder (§4.7).
type prQuantaCounter [numPRSymbols]int

// quantBucket maps an unsigned luminance delta to its bucket index 0..4
// using the QUANT_LUM0..3 thresholds (§4.4).
func quantBucket(d int) int {
	switch {
	case d < QuantLum0:
		return 0
	case d < QuantLum1:
		return 1
	case d < QuantLum2:
		return 2
	case d < QuantLum3:
		return 3
	default:
		return 4
	}
}

func signOf(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// quantizePR rounds v to the nearest of the 5 PR quantization levels and
// returns the level's value and index.
func quantizePR(v float64) (level float64, idx int) {
	best := 0
	bestDist := -1.0
	for i, l := range prQuantLevels {
		d := v - l
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = i
		}
	}
	return prQuantLevels[best], best
}

// rectangleOverride scans rects for the first one covering (bx, by) and
// returns the forced PR value it implies. The scan terminates at the first
// inactive entry (§4.4).
func rectangleOverride(rects []Rectangle, bx, by int) (forced float64, ok bool) {
	for _, r := range rects {
		if !r.Active {
			break
		}
		if r.contains(bx, by) {
			if r.Protection == 1 {
				return 1.0, true
			}
			return 0.0, true
		}
	}
	return 0, false
}

// computeCornerWindow scans the window around pixel (cx, cy), half a
// (theoretical) block in each direction and clipped to plane bounds, at
// stride prFactor, accumulating the sign-change-weighted PRx/PRy sums
// described in §4.4.
func computeCornerWindow(img Plane, width, height, cx, cy, halfW, halfH, prFactor int) (prx, pry float64) {
	x0, x1 := cx-halfW, cx+halfW
	if x0 < 0 {
		x0 = 0
	}
	if x1 > width-1 {
		x1 = width - 1
	}
	y0, y1 := cy-halfH, cy+halfH
	if y0 < 0 {
		y0 = 0
	}
	if y1 > height-1 {
		y1 = height - 1
	}

	var sumX float64
	var countX int
	for y := y0; y <= y1; y++ {
		prevSign := 0
		for x := x0; x+prFactor <= x1; x += prFactor {
			dl := img.At(x+prFactor, y) - img.At(x, y)
			bucket := quantBucket(absInt(dl))
			countX++
			if bucket > 0 {
				sign := signOf(dl)
				if sign != prevSign || bucket == 4 {
					sumX += float64(bucket)
				}
				prevSign = sign
			}
		}
	}
	if countX == 0 {
		countX = 1
	}
	prx = sumX / (4 * float64(countX))

	var sumY float64
	var countY int
	for x := x0; x <= x1; x++ {
		prevSign := 0
		for y := y0; y+prFactor <= y1; y += prFactor {
			dl := img.At(x, y+prFactor) - img.At(x, y)
			bucket := quantBucket(absInt(dl))
			countY++
			if bucket > 0 {
				sign := signOf(dl)
				if sign != prevSign || bucket == 4 {
					sumY += float64(bucket)
				}
				prevSign = sign
			}
		}
	}
	if countY == 0 {
		countY = 1
	}
	pry = sumY / (4 * float64(countY))

	return prx, pry
}

// computePRMesh builds the PR mesh for the original Y plane (§4.4). It runs
// only on the encoder; the decoder reads the mesh verbatim off the wire.
func computePRMesh(y Plane, width, height int, g grid, rects []Rectangle) (PRMesh, prQuantaCounter) {
	mesh := newPRMesh(g)
	var counts prQuantaCounter

	prFactor := width / 128
	if prFactor < 1 {
		prFactor = 1
	}
	halfW := (width / g.blocksW) / 2
	halfH := (height / g.blocksH) / 2
	if halfW < 1 {
		halfW = 1
	}
	if halfH < 1 {
		halfH = 1
	}

	for by := 0; by <= g.blocksH; by++ {
		cy := g.yLines[clampIdx(by, len(g.yLines)-1)]
		for bx := 0; bx <= g.blocksW; bx++ {
			cx := g.xLines[clampIdx(bx, len(g.xLines)-1)]

			var prx, pry float64
			if forced, ok := rectangleOverride(rects, bx, by); ok {
				prx, pry = forced, forced
			} else {
				rawX, rawY := computeCornerWindow(y, width, height, cx, cy, halfW, halfH, prFactor)
				prx = histogramExpand(clip(rawX, prMin, prMax))
				pry = histogramExpand(clip(rawY, prMin, prMax))
			}

			qx, ix := quantizePR(prx)
			qy, iy := quantizePR(pry)
			mesh.X[by][bx] = qx
			mesh.Y[by][bx] = qy
			counts[ix]++
			counts[iy]++
		}
	}
	return mesh, counts
}

func histogramExpand(v float64) float64 {
	return (v - prMin) / prDif
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampIdx(i, max int) int {
	if i > max {
		return max
	}
	return i
}

// prLevelIndex returns the prQuantLevels index matching v exactly (v is
// always a value quantizePR produced, so an exact match always exists).
func prLevelIndex(v float64) int {
	for i, l := range prQuantLevels {
		if l == v {
			return i
		}
	}
	return 0
}

// meshToSymbols flattens mesh's two corner lattices into the PRx-then-PRy
// symbol order the bitstream carries (§4.8), row-major within each.
func meshToSymbols(mesh PRMesh) (prx, pry []int) {
	prx = make([]int, 0, (mesh.BlocksH+1)*(mesh.BlocksW+1))
	pry = make([]int, 0, (mesh.BlocksH+1)*(mesh.BlocksW+1))
	for by := 0; by <= mesh.BlocksH; by++ {
		for bx := 0; bx <= mesh.BlocksW; bx++ {
			prx = append(prx, prLevelIndex(mesh.X[by][bx]))
			pry = append(pry, prLevelIndex(mesh.Y[by][bx]))
		}
	}
	return prx, pry
}

// meshFromSymbols is meshToSymbols's inverse, rebuilding a PRMesh from
// decoded PRx/PRy symbol streams.
func meshFromSymbols(g grid, prx, pry []int) PRMesh {
	mesh := newPRMesh(g)
	i := 0
	for by := 0; by <= g.blocksH; by++ {
		for bx := 0; bx <= g.blocksW; bx++ {
			mesh.X[by][bx] = prQuantLevels[prx[i]]
			mesh.Y[by][bx] = prQuantLevels[pry[i]]
			i++
		}
	}
	return mesh
}
