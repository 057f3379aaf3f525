/*
NAME
  decoder.go

DESCRIPTION
  decoder.go implements the top-level Decoder: header dispatch by mode and
  reconstruction of a full-resolution YUV frame from a BASIC_LHE,
  ADVANCED_LHE or DELTA_MLHE packet.

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
	"context"

	"github.com/jjaranda13/lhe/codec/lhe/lhebit"
	"github.com/pkg/errors"
)

// Decoder holds the state a video session's decode side carries across
// frames: the PR mesh and per-plane advanced-block geometry of the last
// decoded reference, its downsampled composite planes, and the pixel
// format/dimensions a DELTA packet inherits (§4.8, "Delta header").
type Decoder struct {
	// BlockGOP must match the value the encoder was configured with: the
	// per-block forced-refresh countdown is never carried on the wire (only
	// the I/P decision it drives is re-derived independently), so the two
	// sides have to agree on it out of band.
	BlockGOP uint

	haveRef       bool
	width, height int
	pixFmt        PixelFormat
	lumaGrid      grid
	chromaGrid    grid
	ql            int

	refMesh      PRMesh
	refAdvBlocks [3][][]AdvancedBlock
	refDS        [3]*PlaneBuffer
}

// NewDecoder returns a Decoder with no reference frame yet. gop is the
// block GOP the paired encoder was configured with; zero selects the same
// default the encoder substitutes for an unset Config.BlockGOP.
func NewDecoder(gop uint) *Decoder {
	if gop == 0 {
		gop = defaultBlockGOP
	}
	return &Decoder{BlockGOP: gop}
}

func (d *Decoder) gridFor(plane int) grid {
	if plane == 0 {
		return d.lumaGrid
	}
	return d.chromaGrid
}

// DecodeFrame parses one packet and returns its Y, U, V planes at full
// resolution.
func (d *Decoder) DecodeFrame(data []byte) (y, u, v Plane, err error) {
	r := lhebit.NewReader(data, -1)
	mode, err := ReadCommonHeader(r)
	if err != nil {
		return y, u, v, err
	}
	switch mode {
	case ModeBasic:
		return d.decodeBasic(r)
	case ModeAdvanced:
		return d.decodeAdvanced(r)
	default:
		return d.decodeDelta(r)
	}
}

func (d *Decoder) decodeBasic(r *lhebit.Reader) (y, u, v Plane, err error) {
	h, err := ReadImageHeader(r)
	if err != nil {
		return y, u, v, err
	}
	cfw, cfh, err := h.PixelFormat.ChromaFactors()
	if err != nil {
		return y, u, v, err
	}
	chromaW, chromaH := chromaDim(h.Width, cfw), chromaDim(h.Height, cfh)
	g := newGrid(h.Width, h.Height)
	cg := newChromaGrid(g, chromaW, chromaH)
	grids := [3]grid{g, cg, cg}

	counts := [3]int{g.width * g.height, cg.width * cg.height, cg.width * cg.height}
	hopStreams, err := ReadBasicBody(r, counts)
	if err != nil {
		return y, u, v, err
	}

	var out planes
	for i := 0; i < 3; i++ {
		recon := NewPlane(grids[i].width, grids[i].height)
		edgesOf := func(bx, by int) blockEdges { return basicEdges(grids[i], bx, by) }
		hopsByBlock := splitHopsByBlock(hopStreams[i], grids[i].blocksW, grids[i].blocksH, edgesOf)
		if err := decodeBlockGrid(context.Background(), grids[i].blocksW, grids[i].blocksH, edgesOf, hopsByBlock, recon, h.FirstColor[i], noDelta); err != nil {
			return y, u, v, err
		}
		out[i] = recon
	}
	return out[0], out[1], out[2], nil
}

func (d *Decoder) decodeAdvanced(r *lhebit.Reader) (y, u, v Plane, err error) {
	h, err := ReadImageHeader(r)
	if err != nil {
		return y, u, v, err
	}
	cfw, cfh, err := h.PixelFormat.ChromaFactors()
	if err != nil {
		return y, u, v, err
	}
	d.width, d.height, d.pixFmt = h.Width, h.Height, h.PixelFormat
	d.lumaGrid = newGrid(h.Width, h.Height)
	d.chromaGrid = newChromaGrid(d.lumaGrid, chromaDim(h.Width, cfw), chromaDim(h.Height, cfh))

	meshSymbols := (d.lumaGrid.blocksW + 1) * (d.lumaGrid.blocksH + 1)
	_, prx, pry, ql, err := ReadAdvancedMesh(r, meshSymbols, true, 0)
	if err != nil {
		return y, u, v, err
	}
	mesh := meshFromSymbols(d.lumaGrid, prx, pry)

	var advBlocks [3][][]AdvancedBlock
	var hopCounts [3]int
	for i := 0; i < 3; i++ {
		g := d.gridFor(i)
		advBlocks[i] = newAdvancedBlocks(g, d.BlockGOP)
		if err := computeGeometry(advBlocks[i], mesh, g, ql); err != nil {
			return y, u, v, err
		}
		w, hgt := compositeExtents(advBlocks[i])
		hopCounts[i] = w * hgt
	}

	hopStreams, err := ReadAdvancedHops(r, hopCounts)
	if err != nil {
		return y, u, v, err
	}

	var composite, full planes
	for i := 0; i < 3; i++ {
		g := d.gridFor(i)
		w, hgt := compositeExtents(advBlocks[i])
		recon := NewPlane(w, hgt)
		edgesOf := func(bx, by int) blockEdges { return advancedEdges(advBlocks[i][by][bx], bx, by) }
		hopsByBlock := splitHopsByBlock(hopStreams[i], g.blocksW, g.blocksH, edgesOf)
		if err := decodeBlockGrid(context.Background(), g.blocksW, g.blocksH, edgesOf, hopsByBlock, recon, h.FirstColor[i], noDelta); err != nil {
			return y, u, v, err
		}
		composite[i] = recon
	}

	fullW, fullH := h.Width, h.Height
	chromaW, chromaH := chromaDim(fullW, cfw), chromaDim(fullH, cfh)
	fullDims := [3][2]int{{fullW, fullH}, {chromaW, chromaH}, {chromaW, chromaH}}
	for i := 0; i < 3; i++ {
		// The decoder always uses the adaptive upsampler: it degrades to a
		// nearest pick itself wherever local PR sits at or above
		// adaptiveBlend, so there is no bitstream signal choosing between
		// adaptive and nearest (§4.6).
		full[i] = buildUpsampledPlane(composite[i], advBlocks[i], fullDims[i][0], fullDims[i][1], true, mesh)
	}

	d.refMesh = mesh
	d.refAdvBlocks = advBlocks
	d.ql = ql
	for i := 0; i < 3; i++ {
		d.refDS[i] = NewPlaneBuffer(0, 0)
		d.refDS[i].SetCurrent(composite[i])
		d.refDS[i].Swap()
	}
	d.haveRef = true

	return full[0], full[1], full[2], nil
}

func (d *Decoder) decodeDelta(r *lhebit.Reader) (y, u, v Plane, err error) {
	if !d.haveRef {
		return y, u, v, errors.Wrap(ErrDeltaWithoutReference, "lhe: decoding delta packet")
	}
	firstColor, err := ReadDeltaHeader(r)
	if err != nil {
		return y, u, v, err
	}

	meshSymbols := (d.lumaGrid.blocksW + 1) * (d.lumaGrid.blocksH + 1)
	_, prx, pry, _, err := ReadAdvancedMesh(r, meshSymbols, false, d.ql)
	if err != nil {
		return y, u, v, err
	}
	mesh := meshFromSymbols(d.lumaGrid, prx, pry)

	var advBlocks [3][][]AdvancedBlock
	for i := 0; i < 3; i++ {
		g := d.gridFor(i)
		advBlocks[i] = newAdvancedBlocks(g, d.BlockGOP)
		for by := range advBlocks[i] {
			for bx := range advBlocks[i][by] {
				advBlocks[i][by][bx].BlockTTL = d.refAdvBlocks[i][by][bx].BlockTTL
			}
		}
		if err := computeGeometry(advBlocks[i], mesh, g, d.ql); err != nil {
			return y, u, v, err
		}
	}

	isI := decideBlockModes(d.refMesh, mesh, advBlocks[0], d.BlockGOP)
	for pl := 1; pl < 3; pl++ {
		for by := range advBlocks[pl] {
			for bx := range advBlocks[pl][by] {
				if isI[by][bx] {
					advBlocks[pl][by][bx].BlockTTL = int(d.BlockGOP)
				} else {
					advBlocks[pl][by][bx].BlockTTL = d.refAdvBlocks[pl][by][bx].BlockTTL - 1
				}
			}
		}
	}

	var hopCounts [3]int
	for i := 0; i < 3; i++ {
		w, hgt := compositeExtents(advBlocks[i])
		hopCounts[i] = w * hgt
	}
	hopStreams, err := ReadAdvancedHops(r, hopCounts)
	if err != nil {
		return y, u, v, err
	}

	deltaModeAt := func(bx, by int) bool { return !isI[by][bx] }
	var hopDecoded, player, full planes
	for i := 0; i < 3; i++ {
		g := d.gridFor(i)
		w, hgt := compositeExtents(advBlocks[i])
		recon := NewPlane(w, hgt)
		edgesOf := func(bx, by int) blockEdges { return advancedEdges(advBlocks[i][by][bx], bx, by) }
		hopsByBlock := splitHopsByBlock(hopStreams[i], g.blocksW, g.blocksH, edgesOf)
		if err := decodeBlockGrid(context.Background(), g.blocksW, g.blocksH, edgesOf, hopsByBlock, recon, firstColor[i], deltaModeAt); err != nil {
			return y, u, v, err
		}
		hopDecoded[i] = recon
	}

	for i := 0; i < 3; i++ {
		player[i] = reconstructDeltaComposite(hopDecoded[i], advBlocks[i], d.refAdvBlocks[i], d.refDS[i].Last(), isI)
	}

	cfw, cfh, _ := d.pixFmt.ChromaFactors()
	chromaW, chromaH := chromaDim(d.width, cfw), chromaDim(d.height, cfh)
	fullDims := [3][2]int{{d.width, d.height}, {chromaW, chromaH}, {chromaW, chromaH}}
	for i := 0; i < 3; i++ {
		full[i] = buildUpsampledPlane(player[i], advBlocks[i], fullDims[i][0], fullDims[i][1], true, mesh)
	}

	d.refMesh = mesh
	d.refAdvBlocks = advBlocks
	for i := 0; i < 3; i++ {
		d.refDS[i].SetCurrent(player[i])
		d.refDS[i].Swap()
	}

	return full[0], full[1], full[2], nil
}
