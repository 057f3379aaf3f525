/*
NAME
  hopgrid.go

DESCRIPTION
  hopgrid.go drives the C3 hop predictor over a whole block grid, anti-
  diagonally scheduled (schedule.go's runDiagonals), shared by BASIC_LHE (full-resolution
  blocks), ADVANCED_LHE (downsampled blocks) and DELTA_MLHE (downsampled
  blocks, some coding original samples and some coding companded deltas).
  It also holds the plane composition helpers that assemble and disassemble
  the rectangular composite buffer a block grid's downsampled extents tile.

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

import "context"

// basicEdges builds a blockEdges for (bx, by) addressed directly in a
// full-resolution plane's own coordinates (BASIC_LHE has no downsampling).
func basicEdges(g grid, bx, by int) blockEdges {
	b := g.block(bx, by)
	return blockEdges{XIni: b.XIni, YIni: b.YIni, XFin: b.XFin, YFin: b.YFin, TopRow: by == 0, LeftCol: bx == 0}
}

// advancedEdges builds a blockEdges addressed in the downsampled composite
// plane's coordinates (ADVANCED_LHE and DELTA_MLHE).
func advancedEdges(block AdvancedBlock, bx, by int) blockEdges {
	return blockEdges{
		XIni: block.XIniDownsampled, YIni: block.YIniDownsampled,
		XFin: block.XFinDownsampled, YFin: block.YFinDownsampled,
		TopRow: by == 0, LeftCol: bx == 0,
	}
}

// encodeBlockGrid hop-codes every block of a composite plane via the
// anti-diagonal scheduler (§5), writing reconstructed samples into recon and
// returning each block's hop symbols, indexed by*blocksW+bx (raster block
// order, the order the bitstream concatenates blocks in). deltaModeAt
// reports, per block, whether the non-delta gradient correction is disabled
// for that block (true only for DELTA_MLHE's P blocks; §4.9).
func encodeBlockGrid(ctx context.Context, blocksW, blocksH int, edgesOf func(bx, by int) blockEdges, orig, recon Plane, firstColor int, deltaModeAt func(bx, by int) bool) ([][]int, error) {
	hops := make([][]int, blocksW*blocksH)
	err := runDiagonals(ctx, blocksW, blocksH, func(_ context.Context, bx, by int) error {
		e := edgesOf(bx, by)
		deltaMode := deltaModeAt(bx, by)
		s := NewHopState()
		local := make([]int, 0, (e.XFin-e.XIni)*(e.YFin-e.YIni))
		for y := e.YIni; y < e.YFin; y++ {
			s.Reset()
			for x := e.XIni; x < e.XFin; x++ {
				p := clampSample(predictSpatial(recon, x, y, e, firstColor) + s.Grad)
				oc := orig.At(x, y)
				hop, q := SelectHop(oc, p, s.H1)
				recon.Set(x, y, q)
				s.Adapt(hop)
				s.UpdateGrad(hop, deltaMode)
				local = append(local, hop)
			}
		}
		hops[by*blocksW+bx] = local
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hops, nil
}

// decodeBlockGrid is encodeBlockGrid's mirror: given each block's already
// hop-decoded symbols (hopsByBlock, same raster order), it reconstructs the
// composite plane.
func decodeBlockGrid(ctx context.Context, blocksW, blocksH int, edgesOf func(bx, by int) blockEdges, hopsByBlock [][]int, recon Plane, firstColor int, deltaModeAt func(bx, by int) bool) error {
	return runDiagonals(ctx, blocksW, blocksH, func(_ context.Context, bx, by int) error {
		e := edgesOf(bx, by)
		deltaMode := deltaModeAt(bx, by)
		s := NewHopState()
		hops := hopsByBlock[by*blocksW+bx]
		i := 0
		for y := e.YIni; y < e.YFin; y++ {
			s.Reset()
			for x := e.XIni; x < e.XFin; x++ {
				p := clampSample(predictSpatial(recon, x, y, e, firstColor) + s.Grad)
				hop := hops[i]
				i++
				q := ReconstructHop(hop, p, s.H1)
				recon.Set(x, y, q)
				s.Adapt(hop)
				s.UpdateGrad(hop, deltaMode)
			}
		}
		return nil
	})
}

// flattenHops concatenates per-block hop slices (already in raster block
// order) into the one flat stream the entropy layer encodes per plane.
func flattenHops(hops [][]int) []int {
	n := 0
	for _, h := range hops {
		n += len(h)
	}
	out := make([]int, 0, n)
	for _, h := range hops {
		out = append(out, h...)
	}
	return out
}

// splitHopsByBlock is flattenHops's inverse, given each block's expected
// symbol count from its geometry.
func splitHopsByBlock(flat []int, blocksW, blocksH int, edgesOf func(bx, by int) blockEdges) [][]int {
	out := make([][]int, blocksW*blocksH)
	i := 0
	for by := 0; by < blocksH; by++ {
		for bx := 0; bx < blocksW; bx++ {
			e := edgesOf(bx, by)
			n := (e.XFin - e.XIni) * (e.YFin - e.YIni)
			out[by*blocksW+bx] = flat[i : i+n]
			i += n
		}
	}
	return out
}

// noDelta is a deltaModeAt that never disables the gradient correction, for
// BASIC_LHE and ADVANCED_LHE.
func noDelta(int, int) bool { return false }

// extractRegion copies the rectangle [xIni,xFin) x [yIni,yFin) of p into a
// flat, row-major slice.
func extractRegion(p Plane, xIni, yIni, xFin, yFin int) []int {
	w, h := xFin-xIni, yFin-yIni
	out := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = p.At(xIni+x, yIni+y)
		}
	}
	return out
}

// writeRegion writes flat row-major data into the rectangle [xIni,xFin) x
// [yIni,yFin) of p, clamping every sample to the valid sample range.
func writeRegion(p Plane, xIni, yIni, xFin, yFin int, data []int) {
	w := xFin - xIni
	for y := 0; y < yFin-yIni; y++ {
		for x := 0; x < w; x++ {
			p.Set(xIni+x, yIni+y, clampSample(data[y*w+x]))
		}
	}
}

// compositeExtents returns the total pixel size of the rectangular
// composite plane blocks' harmonized downsampled extents tile (§4.5).
func compositeExtents(blocks [][]AdvancedBlock) (w, h int) {
	last := blocks[len(blocks)-1]
	corner := last[len(last)-1]
	return corner.XFinDownsampled, corner.YFinDownsampled
}

// buildDownsampledComposite downsamples orig block by block into one
// rectangular composite plane (ADVANCED_LHE's per-plane image, or a DELTA
// frame's I blocks).
func buildDownsampledComposite(orig Plane, blocks [][]AdvancedBlock, downMode int) Plane {
	w, h := compositeExtents(blocks)
	out := NewPlane(w, h)
	for by := range blocks {
		for bx := range blocks[by] {
			b := blocks[by][bx]
			src := extractRegion(orig, b.Basic.XIni, b.Basic.YIni, b.Basic.XFin, b.Basic.YFin)
			ds := downsampleBlock(src, b.Basic.Width(), b.Basic.Height(), b.DownsampledXSide, b.DownsampledYSide, downMode)
			writeRegion(out, b.XIniDownsampled, b.YIniDownsampled, b.XFinDownsampled, b.YFinDownsampled, ds)
		}
	}
	return out
}

// buildUpsampledPlane restores a full-resolution plane from a downsampled
// composite, block by block (§4.6). adaptive selects upsampleAdaptive over
// upsampleNearest; mesh supplies the PR scalars adaptive upsampling blends on.
func buildUpsampledPlane(composite Plane, blocks [][]AdvancedBlock, width, height int, adaptive bool, mesh PRMesh) Plane {
	out := NewPlane(width, height)
	for by := range blocks {
		for bx := range blocks[by] {
			b := blocks[by][bx]
			src := extractRegion(composite, b.XIniDownsampled, b.YIniDownsampled, b.XFinDownsampled, b.YFinDownsampled)
			prX := func(i int) float64 { return cornerPRAvg(mesh, bx, by) }
			prY := func(i int) float64 { return cornerPRAvg(mesh, bx, by) }
			up := upsampleBlock(src, b.DownsampledXSide, b.DownsampledYSide, b.Basic.Width(), b.Basic.Height(), adaptive, prX, prY)
			writeRegion(out, b.Basic.XIni, b.Basic.YIni, b.Basic.XFin, b.Basic.YFin, up)
		}
	}
	return out
}
