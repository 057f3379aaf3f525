/*
NAME
  encoder.go

DESCRIPTION
  encoder.go implements the top-level Encoder: Config validation, mode
  selection (BASIC_LHE, ADVANCED_LHE keyframe, or DELTA_MLHE), and
  orchestration of C1-C9 into a bitstream packet per frame (§4.8).

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
)

// Encoder holds the state a video session carries across frames: the last
// committed PR mesh, per-plane advanced-block geometry (with its BlockTTL
// countdowns), and the last reconstructed downsampled composite plane that
// DELTA_MLHE frames adapt against. A single still image only ever needs the
// zero-value Encoder's first call.
type Encoder struct {
	cfg Config

	initialized bool
	width, height int
	pixFmt        PixelFormat
	lumaGrid      grid
	chromaGrid    grid

	haveRef      bool
	refMesh      PRMesh
	refAdvBlocks [3][][]AdvancedBlock
	refDS        [3]*PlaneBuffer
}

// NewEncoder validates cfg and returns a ready Encoder, rejecting an invalid
// configuration before any state is allocated (§7).
func NewEncoder(cfg Config) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Encoder{cfg: cfg}, nil
}

// planes bundles the 3 YUV component planes of one frame.
type planes = [3]Plane

func (e *Encoder) init(width, height int, pixFmt PixelFormat) error {
	cfw, cfh, err := pixFmt.ChromaFactors()
	if err != nil {
		return err
	}
	e.width, e.height, e.pixFmt = width, height, pixFmt
	e.lumaGrid = newGrid(width, height)
	e.chromaGrid = newChromaGrid(e.lumaGrid, chromaDim(width, cfw), chromaDim(height, cfh))
	e.refDS = [3]*PlaneBuffer{NewPlaneBuffer(0, 0), NewPlaneBuffer(0, 0), NewPlaneBuffer(0, 0)}
	e.initialized = true
	e.haveRef = false
	return nil
}

func (e *Encoder) gridFor(plane int) grid {
	if plane == 0 {
		return e.lumaGrid
	}
	return e.chromaGrid
}

// EncodeFrame encodes one YUV frame, choosing BASIC_LHE, ADVANCED_LHE or
// DELTA_MLHE per Config and session state (§4.1, "Mode selection").
// Dimension or pixel-format changes from the previous call start a fresh
// ADVANCED_LHE keyframe, discarding any DELTA_MLHE reference.
func (e *Encoder) EncodeFrame(y, u, v Plane, width, height int, pixFmt PixelFormat) ([]byte, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if e.cfg.BasicLHE {
		return e.encodeBasic(y, u, v, width, height, pixFmt)
	}
	if !e.initialized || width != e.width || height != e.height || pixFmt != e.pixFmt {
		if err := e.init(width, height, pixFmt); err != nil {
			return nil, err
		}
	}
	if !e.haveRef {
		return e.encodeAdvanced(y, u, v)
	}
	return e.encodeDelta(y, u, v)
}

func (e *Encoder) encodeBasic(y, u, v Plane, width, height int, pixFmt PixelFormat) ([]byte, error) {
	cfw, cfh, err := pixFmt.ChromaFactors()
	if err != nil {
		return nil, err
	}
	chromaW, chromaH := chromaDim(width, cfw), chromaDim(height, cfh)
	g := newGrid(width, height)
	cg := newChromaGrid(g, chromaW, chromaH)
	grids := [3]grid{g, cg, cg}

	in := planes{y, u, v}
	firstColor := [3]int{y.At(0, 0), u.At(0, 0), v.At(0, 0)}

	var hopsFlat [3][]int
	for i := 0; i < 3; i++ {
		recon := NewPlane(grids[i].width, grids[i].height)
		edgesOf := func(bx, by int) blockEdges { return basicEdges(grids[i], bx, by) }
		hops, err := encodeBlockGrid(context.Background(), grids[i].blocksW, grids[i].blocksH, edgesOf, in[i], recon, firstColor[i], noDelta)
		if err != nil {
			return nil, err
		}
		hopsFlat[i] = flattenHops(hops)
	}

	w := lhebit.NewWriter()
	WriteCommonHeader(w, ModeBasic)
	WriteImageHeader(w, FrameHeader{Mode: ModeBasic, PixelFormat: pixFmt, Width: width, Height: height, FirstColor: firstColor})
	WriteBasicBody(w, hopsFlat)
	return w.FlushToByte(), nil
}

func (e *Encoder) encodeAdvanced(y, u, v Plane) ([]byte, error) {
	mesh, counts := computePRMesh(y, e.width, e.height, e.lumaGrid, e.cfg.Rectangles)

	var advBlocks [3][][]AdvancedBlock
	for i := 0; i < 3; i++ {
		g := e.gridFor(i)
		advBlocks[i] = newAdvancedBlocks(g, e.cfg.gop())
		if err := computeGeometry(advBlocks[i], mesh, g, e.cfg.QL); err != nil {
			return nil, err
		}
	}

	in := planes{y, u, v}
	var composite, recon planes
	var firstColor [3]int
	for i := 0; i < 3; i++ {
		composite[i] = buildDownsampledComposite(in[i], advBlocks[i], e.cfg.DownMode)
		firstColor[i] = composite[i].At(0, 0)
		w, h := compositeExtents(advBlocks[i])
		recon[i] = NewPlane(w, h)
	}

	var hopsFlat [3][]int
	for i := 0; i < 3; i++ {
		g := e.gridFor(i)
		edgesOf := func(bx, by int) blockEdges { return advancedEdges(advBlocks[i][by][bx], bx, by) }
		hops, err := encodeBlockGrid(context.Background(), g.blocksW, g.blocksH, edgesOf, composite[i], recon[i], firstColor[i], noDelta)
		if err != nil {
			return nil, err
		}
		hopsFlat[i] = flattenHops(hops)
	}

	huff := buildMeshHuffman(counts)
	prx, pry := meshToSymbols(mesh)

	w := lhebit.NewWriter()
	WriteCommonHeader(w, ModeAdvanced)
	WriteImageHeader(w, FrameHeader{Mode: ModeAdvanced, PixelFormat: e.pixFmt, Width: e.width, Height: e.height, FirstColor: firstColor})
	WriteAdvancedBody(w, huff, prx, pry, e.cfg.QL, true, hopsFlat)

	e.refMesh = mesh
	e.refAdvBlocks = advBlocks
	for i := 0; i < 3; i++ {
		e.refDS[i].SetCurrent(recon[i])
		e.refDS[i].Swap()
	}
	e.haveRef = true

	e.cfg.logger().Debug("encoded ADVANCED_LHE keyframe", "width", e.width, "height", e.height)
	return w.FlushToByte(), nil
}

func (e *Encoder) encodeDelta(y, u, v Plane) ([]byte, error) {
	mesh, counts := computePRMesh(y, e.width, e.height, e.lumaGrid, e.cfg.Rectangles)

	var advBlocks [3][][]AdvancedBlock
	for i := 0; i < 3; i++ {
		g := e.gridFor(i)
		advBlocks[i] = newAdvancedBlocks(g, e.cfg.gop())
		for by := range advBlocks[i] {
			for bx := range advBlocks[i][by] {
				advBlocks[i][by][bx].BlockTTL = e.refAdvBlocks[i][by][bx].BlockTTL
			}
		}
		if err := computeGeometry(advBlocks[i], mesh, g, e.cfg.QL); err != nil {
			return nil, err
		}
	}

	// The per-block I/P decision is computed once from luma's PR movement
	// and applied uniformly to chroma (§4.9 does not distinguish components;
	// color planes follow luma's motion judgement rather than tracking a
	// second, independent TTL/movement state per chroma plane).
	isI := decideBlockModes(e.refMesh, mesh, advBlocks[0], e.cfg.gop())
	for pl := 1; pl < 3; pl++ {
		for by := range advBlocks[pl] {
			for bx := range advBlocks[pl][by] {
				if isI[by][bx] {
					advBlocks[pl][by][bx].BlockTTL = int(e.cfg.gop())
				} else {
					advBlocks[pl][by][bx].BlockTTL = e.refAdvBlocks[pl][by][bx].BlockTTL - 1
				}
			}
		}
	}

	in := planes{y, u, v}
	var composite, recon, player planes
	var firstColor [3]int
	for i := 0; i < 3; i++ {
		composite[i] = buildDeltaComposite(in[i], advBlocks[i], e.refAdvBlocks[i], e.refDS[i].Last(), e.cfg.DownMode, isI)
		firstColor[i] = composite[i].At(0, 0)
		w, h := compositeExtents(advBlocks[i])
		recon[i] = NewPlane(w, h)
	}

	deltaModeAt := func(bx, by int) bool { return !isI[by][bx] }
	var hopsFlat [3][]int
	for i := 0; i < 3; i++ {
		g := e.gridFor(i)
		edgesOf := func(bx, by int) blockEdges { return advancedEdges(advBlocks[i][by][bx], bx, by) }
		hops, err := encodeBlockGrid(context.Background(), g.blocksW, g.blocksH, edgesOf, composite[i], recon[i], firstColor[i], deltaModeAt)
		if err != nil {
			return nil, err
		}
		hopsFlat[i] = flattenHops(hops)
	}

	for i := 0; i < 3; i++ {
		player[i] = reconstructDeltaComposite(recon[i], advBlocks[i], e.refAdvBlocks[i], e.refDS[i].Last(), isI)
	}

	huff := buildMeshHuffman(counts)
	prx, pry := meshToSymbols(mesh)

	w := lhebit.NewWriter()
	WriteCommonHeader(w, ModeDelta)
	WriteDeltaHeader(w, firstColor)
	WriteAdvancedBody(w, huff, prx, pry, e.cfg.QL, false, hopsFlat)

	e.refMesh = mesh
	e.refAdvBlocks = advBlocks
	for i := 0; i < 3; i++ {
		e.refDS[i].SetCurrent(player[i])
		e.refDS[i].Swap()
	}

	e.cfg.logger().Debug("encoded DELTA_MLHE frame")
	return w.FlushToByte(), nil
}
