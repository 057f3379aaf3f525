/*
NAME
  geometry.go

DESCRIPTION
  geometry.go implements the PR -> PPP -> rectangle-shape -> downsampled
  extents pipeline (C5): per-corner PPP from the PR mesh and the
  compression-factor table, the rectangle-shape ratio constraint, one-sided
  adjacency smoothing, and discrete integration of the PPP gradient field
  into downsampled block extents.

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

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// pppFromPR maps a single corner's PR scalars to a floating PPP (§4.5).
//
// Resolution of an Open Question: spec.md's literal formula
// (theoretical_side * (1 - compression_factor*pr_avg_c)) produces *more*
// downsampling as pr_avg_c rises toward 1, which contradicts S4 (a
// protection=1 rectangle, forcing PR to 1, must yield no downsampling at
// all). We resolve this the way a protected, fully-relevant corner has to
// behave: the compression term is driven by (1 - pr_avg_c) instead of
// pr_avg_c, so pr_avg_c == 1 collapses the term to zero (ppp == 1, no
// downsampling) and pr_avg_c == 0 lets the full compression factor apply
// (ppp up to PPPMax). See DESIGN.md.
func pppFromPR(prAvg, theoreticalSide, compressionFactor float64) float64 {
	denom := theoreticalSide * (1 - compressionFactor*(1-prAvg))
	if denom < SideMin {
		denom = SideMin
	}
	ppp := theoreticalSide / denom
	if ppp < 1.0 {
		ppp = 1.0
	}
	if ppp > PPPMax {
		ppp = PPPMax
	}
	return ppp
}

// cornerPRAvg averages the PRx and PRy scalars recorded at mesh corner
// (bx, by). Both axes are blended here (rather than feeding PRx only into
// ppp_x and PRy only into ppp_y) because a corner's relevance for
// "should I downsample near here" is inherently two-dimensional.
func cornerPRAvg(mesh PRMesh, bx, by int) float64 {
	return stat.Mean([]float64{mesh.X[by][bx], mesh.Y[by][bx]}, nil)
}

// pppLattice is the (blocksH+1) x (blocksW+1) lattice of corner PPPs,
// shared between adjacent blocks exactly like PRMesh. Using one shared
// value per lattice point (rather than a private copy per block corner)
// is what makes invariant 5 ("for two adjacent blocks the shared corner's
// ppp_x and ppp_y are within numerical epsilon") hold by construction: a
// shared corner is one slice element, not two independently-touched
// copies that happen to be kept in sync by discipline.
type pppLattice struct {
	X, Y [][]float64 // [by][bx], size (blocksH+1) x (blocksW+1).
}

func newPPPLattice(g grid) pppLattice {
	l := pppLattice{X: make([][]float64, g.blocksH+1), Y: make([][]float64, g.blocksH+1)}
	for i := range l.X {
		l.X[i] = make([]float64, g.blocksW+1)
		l.Y[i] = make([]float64, g.blocksW+1)
	}
	return l
}

// computeRawPPP fills l from the PR mesh, the grid's theoretical
// (remainder-free) block size, and the quality level (§4.5, "PR -> PPP per
// corner").
func computeRawPPP(l pppLattice, mesh PRMesh, g grid, ql int) {
	theoreticalW := float64(g.width) / float64(g.blocksW)
	theoreticalH := float64(g.height) / float64(g.blocksH)
	cf := getTables().CompressionFactor(PPPMax, ql)

	for by := 0; by <= g.blocksH; by++ {
		for bx := 0; bx <= g.blocksW; bx++ {
			avg := cornerPRAvg(mesh, bx, by)
			l.X[by][bx] = pppFromPR(avg, theoreticalW, cf)
			l.Y[by][bx] = pppFromPR(avg, theoreticalH, cf)
		}
	}
}

// blockCorners returns the 4 lattice coordinates (in cornerTL..cornerBR
// order) touched by block (bx, by).
func blockCorners(bx, by int) [4][2]int {
	return [4][2]int{
		cornerTL: {bx, by},
		cornerTR: {bx + 1, by},
		cornerBL: {bx, by + 1},
		cornerBR: {bx + 1, by + 1},
	}
}

// enforceRatioLattice applies the rectangle-shape constraint (§4.5) to
// field (l.X or l.Y) for every block, raising the lower corners toward the
// block's max until max/min <= PPPMaxRatio. Because corners are lattice
// points, a raise made while visiting one block is visible to every other
// block sharing that point.
func enforceRatioLattice(field [][]float64, g grid) {
	for by := 0; by < g.blocksH; by++ {
		for bx := 0; bx < g.blocksW; bx++ {
			corners := blockCorners(bx, by)
			for {
				mn, mx := field[corners[0][1]][corners[0][0]], field[corners[0][1]][corners[0][0]]
				for _, c := range corners {
					v := field[c[1]][c[0]]
					if v < mn {
						mn = v
					}
					if v > mx {
						mx = v
					}
				}
				if mn <= 0 || mx/mn <= PPPMaxRatio {
					break
				}
				target := mx / PPPMaxRatio
				changed := false
				for _, c := range corners {
					if field[c[1]][c[0]] < target {
						field[c[1]][c[0]] = target
						changed = true
					}
				}
				if !changed {
					break
				}
			}
		}
	}
}

// smoothAdjacencyLattice blends each interior lattice point with its east
// and south neighbor point whenever the neighbor is larger (§4.5,
// "Adjacency smoothing"). Operating directly on the lattice, rather than
// per-block corner copies, means there is nothing left to reconcile
// afterward: Design Note "Adjacent-block geometry coupling"'s two-pass
// formulation (raw pass, then a fuse pass reading the raw snapshot) is
// what keeps the fuse pass from seeing its own just-written output as if
// it were another neighbor's raw value.
func smoothAdjacencyLattice(field [][]float64) {
	h := len(field)
	w := len(field[0])
	raw := make([][]float64, h)
	for y := range field {
		raw[y] = append([]float64(nil), field[y]...)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x+1 < w {
				blendIfLarger(&field[y][x], raw[y][x+1])
			}
			if y+1 < h {
				blendIfLarger(&field[y][x], raw[y+1][x])
			}
		}
	}
}

func blendIfLarger(dst *float64, neighbor float64) {
	if neighbor > *dst {
		*dst = (*dst + neighbor) / 2
	}
}

// integratePPP discretely integrates a linear PPP gradient from pppStart to
// pppEnd across length samples, returning the number of downsampled
// samples the block compresses down to (§4.5, "Downsampled extents").
func integratePPP(pppStart, pppEnd float64, length int) (int, error) {
	if length <= 0 {
		return 0, errors.Wrapf(ErrGeometryOverflow, "non-positive block length %d", length)
	}
	field := make([]float64, length)
	for i := 0; i < length; i++ {
		t := float64(i) / float64(maxInt(1, length-1))
		ppp := pppStart + (pppEnd-pppStart)*t
		if ppp < 1.0 {
			ppp = 1.0
		}
		field[i] = 1.0 / ppp
	}
	cum := make([]float64, length)
	floats.CumSum(cum, field)
	side := int(cum[length-1] + 0.5)
	if side <= 0 {
		return 0, errors.Wrapf(ErrGeometryOverflow, "integrated ppp field produced non-positive side for block length %d", length)
	}
	if side < SideMin {
		side = SideMin
	}
	if side > length {
		side = length
	}
	return side, nil
}

// snapshotBlockCorners copies the lattice's 4 corners touching (bx, by)
// into block's PPPX/PPPY, the per-block view §3's data model names.
func snapshotBlockCorners(block *AdvancedBlock, l pppLattice, bx, by int) {
	for c, mc := range blockCorners(bx, by) {
		block.PPPX[c] = l.X[mc[1]][mc[0]]
		block.PPPY[c] = l.Y[mc[1]][mc[0]]
	}
}

// computeBlockExtents fills DownsampledXSide/YSide from block's corner PPPs.
func computeBlockExtents(block *AdvancedBlock) error {
	xStart := (block.PPPX[cornerTL] + block.PPPX[cornerBL]) / 2
	xEnd := (block.PPPX[cornerTR] + block.PPPX[cornerBR]) / 2
	xSide, err := integratePPP(xStart, xEnd, block.Basic.Width())
	if err != nil {
		return err
	}

	yStart := (block.PPPY[cornerTL] + block.PPPY[cornerTR]) / 2
	yEnd := (block.PPPY[cornerBL] + block.PPPY[cornerBR]) / 2
	ySide, err := integratePPP(yStart, yEnd, block.Basic.Height())
	if err != nil {
		return err
	}

	block.DownsampledXSide = xSide
	block.DownsampledYSide = ySide
	return nil
}

// computeGeometry runs the full C5 pipeline over every block of the grid, in
// place: corner PPPs, per-block downsampled extents, then a harmonization
// pass and cumulative placement so the downsampled blocks tile one
// rectangular composite plane per component, the way the basic grid tiles
// the full-resolution one.
//
// The basic grid's column widths and row heights are already uniform (xLines
// and yLines are shared across every row/column), but a column's *downsampled*
// width, computed independently per block from that block's own corner PPPs,
// generally is not: two blocks in the same column can integrate different
// PPP gradients if their row's corners differ. A composite downsampled plane
// addressable the way Plane already is (one stride, one buffer) needs every
// block in a column to agree on width and every block in a row to agree on
// height, so harmonizeExtents snaps each block's downsampled side to its
// column/row average after the elastic per-corner computation has run. This
// is an explicit simplification of "fully independent per-block elastic
// downsampling" spec.md's prose describes, made necessary to keep the
// bitstream's per-plane buffers rectangular; see DESIGN.md.
func computeGeometry(blocks [][]AdvancedBlock, mesh PRMesh, g grid, ql int) error {
	lattice := newPPPLattice(g)
	computeRawPPP(lattice, mesh, g, ql)
	enforceRatioLattice(lattice.X, g)
	enforceRatioLattice(lattice.Y, g)
	smoothAdjacencyLattice(lattice.X)
	smoothAdjacencyLattice(lattice.Y)

	for by := range blocks {
		for bx := range blocks[by] {
			snapshotBlockCorners(&blocks[by][bx], lattice, bx, by)
			if err := computeBlockExtents(&blocks[by][bx]); err != nil {
				return err
			}
		}
	}

	harmonizeExtents(blocks, g)

	for by := range blocks {
		xFin := 0
		for bx := range blocks[by] {
			b := &blocks[by][bx]
			b.XIniDownsampled = xFin
			xFin += b.DownsampledXSide
			b.XFinDownsampled = xFin
		}
	}
	for bx := 0; bx < g.blocksW; bx++ {
		yFin := 0
		for by := 0; by < g.blocksH; by++ {
			b := &blocks[by][bx]
			b.YIniDownsampled = yFin
			yFin += b.DownsampledYSide
			b.YFinDownsampled = yFin
		}
	}
	return nil
}

// harmonizeExtents snaps every block's DownsampledXSide to its column's
// rounded mean and DownsampledYSide to its row's rounded mean, so every
// block in a column shares one width and every block in a row shares one
// height (see computeGeometry's doc comment).
func harmonizeExtents(blocks [][]AdvancedBlock, g grid) {
	colWidth := make([]int, g.blocksW)
	for bx := 0; bx < g.blocksW; bx++ {
		sum := 0
		for by := 0; by < g.blocksH; by++ {
			sum += blocks[by][bx].DownsampledXSide
		}
		colWidth[bx] = (sum + g.blocksH/2) / g.blocksH
	}
	rowHeight := make([]int, g.blocksH)
	for by := 0; by < g.blocksH; by++ {
		sum := 0
		for bx := 0; bx < g.blocksW; bx++ {
			sum += blocks[by][bx].DownsampledYSide
		}
		rowHeight[by] = (sum + g.blocksW/2) / g.blocksW
	}

	for by := range blocks {
		for bx := range blocks[by] {
			b := &blocks[by][bx]
			b.DownsampledXSide = clampSide(colWidth[bx], b.Basic.Width())
			b.DownsampledYSide = clampSide(rowHeight[by], b.Basic.Height())
		}
	}
}

func clampSide(side, max int) int {
	if side < SideMin {
		side = SideMin
	}
	if side > max {
		side = max
	}
	return side
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
