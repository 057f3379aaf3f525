/*
NAME
  blocks.go

DESCRIPTION
  blocks.go computes the basic block grid (§3) and declares the per-block
  state carried by the advanced/delta pipeline.

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

// BasicBlock is one cell of the fixed HorizontalBlocks-wide grid that tiles
// a plane exactly; the last row/column absorb any remainder (§3).
type BasicBlock struct {
	XIni, XFin, YIni, YFin int
}

// Width and Height return the block's pixel extents.
func (b BasicBlock) Width() int  { return b.XFin - b.XIni }
func (b BasicBlock) Height() int { return b.YFin - b.YIni }

// AdvancedBlock is the advanced-mode per-block state: corner PPPs, the
// downsampled side lengths they imply, and (delta mode only) the
// forced-refresh countdown (§3).
type AdvancedBlock struct {
	Basic BasicBlock

	// PPPX and PPPY hold the four corner PPPs in the order top-left,
	// top-right, bot-left, bot-right.
	PPPX, PPPY [4]float64

	DownsampledXSide, DownsampledYSide int
	XIniDownsampled, YIniDownsampled   int
	XFinDownsampled, YFinDownsampled   int

	// BlockTTL counts remaining frames until this block is forcibly
	// refreshed as an I block (delta-frame mode only).
	BlockTTL int
}

// Corner indices into PPPX/PPPY and into a PR-mesh window.
const (
	cornerTL = iota
	cornerTR
	cornerBL
	cornerBR
)

// grid describes the block layout of one plane: total block counts and the
// per-row/column pixel grid lines.
type grid struct {
	width, height   int // plane pixel extents.
	blocksW, blocksH int
	xLines          []int // blocksW+1 cumulative column boundaries.
	yLines          []int // blocksH+1 cumulative row boundaries.
}

// newGrid computes the basic block grid for a plane of the given pixel
// extents, tiling exactly with HorizontalBlocks columns and a derived row
// count so blocks are as close to square as the theoretical block width
// allows (mirrors lhe_encode_init's total_blocks_height derivation).
func newGrid(width, height int) grid {
	blocksW := HorizontalBlocks
	if blocksW > width {
		blocksW = width
	}
	if blocksW < 1 {
		blocksW = 1
	}
	pixelsBlock := width / blocksW
	if pixelsBlock < 1 {
		pixelsBlock = 1
	}
	blocksH := height / pixelsBlock
	if blocksH < 1 {
		blocksH = 1
	}

	g := grid{width: width, height: height, blocksW: blocksW, blocksH: blocksH}
	g.xLines = tileLine(width, blocksW)
	g.yLines = tileLine(height, blocksH)
	return g
}

// tileLine returns n+1 cumulative boundaries tiling [0, total) into n
// blocks of total/n each; the last block absorbs the remainder.
func tileLine(total, n int) []int {
	lines := make([]int, n+1)
	base := total / n
	pos := 0
	for i := 0; i < n; i++ {
		lines[i] = pos
		step := base
		if i == n-1 {
			step = total - pos // last block absorbs the remainder.
		}
		pos += step
	}
	lines[n] = total
	return lines
}

// block returns the BasicBlock at grid coordinate (bx, by).
func (g grid) block(bx, by int) BasicBlock {
	return BasicBlock{
		XIni: g.xLines[bx], XFin: g.xLines[bx+1],
		YIni: g.yLines[by], YFin: g.yLines[by+1],
	}
}

// newChromaGrid builds a grid for a chroma plane of the given pixel extents
// that shares luma's block counts (so a PR mesh computed once over Y indexes
// identically into every plane's geometry) but tiles its own, smaller pixel
// extents.
func newChromaGrid(luma grid, width, height int) grid {
	g := grid{width: width, height: height, blocksW: luma.blocksW, blocksH: luma.blocksH}
	g.xLines = tileLine(width, g.blocksW)
	g.yLines = tileLine(height, g.blocksH)
	return g
}

// newBasicBlocks allocates and fills the basic_block[][] grid for a plane.
func newBasicBlocks(width, height int) (grid, [][]BasicBlock) {
	g := newGrid(width, height)
	blocks := make([][]BasicBlock, g.blocksH)
	for by := range blocks {
		blocks[by] = make([]BasicBlock, g.blocksW)
		for bx := range blocks[by] {
			blocks[by][bx] = g.block(bx, by)
		}
	}
	return g, blocks
}

// newAdvancedBlocks allocates the advanced_block[][] grid with BlockTTL
// initialized to gop, matching the encoder's initial-I-frame convention.
func newAdvancedBlocks(g grid, gop uint) [][]AdvancedBlock {
	blocks := make([][]AdvancedBlock, g.blocksH)
	for by := range blocks {
		blocks[by] = make([]AdvancedBlock, g.blocksW)
		for bx := range blocks[by] {
			blocks[by][bx] = AdvancedBlock{Basic: g.block(bx, by), BlockTTL: int(gop)}
		}
	}
	return blocks
}
