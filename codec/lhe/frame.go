/*
NAME
  frame.go

DESCRIPTION
  frame.go implements the frame assembler (C8): the common/image/delta
  headers and the basic and advanced/delta packet bodies, all MSB-first
  per §4.8.

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
	"github.com/jjaranda13/lhe/codec/lhe/lhebit"
	"github.com/pkg/errors"
)

// FrameHeader is the common + image header carried by BASIC_LHE and
// ADVANCED_LHE packets (§4.8).
type FrameHeader struct {
	Mode        int
	PixelFormat PixelFormat
	Width       int
	Height      int
	FirstColor  [3]int // Y, U, V seeds.
}

// WriteCommonHeader writes the 2-bit lhe_mode field shared by every packet.
func WriteCommonHeader(w *lhebit.Writer, mode int) {
	w.Put(2, uint32(mode))
}

// ReadCommonHeader reads and validates the lhe_mode field.
func ReadCommonHeader(r *lhebit.Reader) (int, error) {
	v, err := r.Get(2)
	if err != nil {
		return 0, errors.Wrap(err, "lhe: reading common header")
	}
	if int(v) > ModeDelta {
		return 0, errors.Wrapf(ErrInvalidHeader, "unknown lhe_mode %d", v)
	}
	return int(v), nil
}

// WriteImageHeader writes the pixel-format, width, height, and first-color
// seed fields carried by BASIC_LHE and ADVANCED_LHE packets.
func WriteImageHeader(w *lhebit.Writer, h FrameHeader) {
	w.Put(3, uint32(h.PixelFormat))
	w.Put(16, uint32(h.Width))
	w.Put(16, uint32(h.Height))
	for _, c := range h.FirstColor {
		w.Put(8, uint32(c))
	}
}

// ReadImageHeader reads and validates an image header.
func ReadImageHeader(r *lhebit.Reader) (FrameHeader, error) {
	var h FrameHeader

	pf, err := r.Get(3)
	if err != nil {
		return h, errors.Wrap(err, "lhe: reading pixel format")
	}
	if pf > YUV444 {
		return h, errors.Wrapf(ErrInvalidHeader, "unknown pixel format %d", pf)
	}
	h.PixelFormat = PixelFormat(pf)

	width, err := r.Get(16)
	if err != nil {
		return h, errors.Wrap(err, "lhe: reading width")
	}
	h.Width = int(width)

	height, err := r.Get(16)
	if err != nil {
		return h, errors.Wrap(err, "lhe: reading height")
	}
	h.Height = int(height)

	for i := range h.FirstColor {
		c, err := r.Get(8)
		if err != nil {
			return h, errors.Wrap(err, "lhe: reading first-color seed")
		}
		h.FirstColor[i] = int(c)
	}
	return h, nil
}

// WriteDeltaHeader writes a DELTA_MLHE header: first-color seeds only,
// since geometry and pixel format are inherited from the reference frame.
func WriteDeltaHeader(w *lhebit.Writer, firstColor [3]int) {
	for _, c := range firstColor {
		w.Put(8, uint32(c))
	}
}

// ReadDeltaHeader reads a DELTA_MLHE header.
func ReadDeltaHeader(r *lhebit.Reader) ([3]int, error) {
	var firstColor [3]int
	for i := range firstColor {
		c, err := r.Get(8)
		if err != nil {
			return firstColor, errors.Wrap(err, "lhe: reading delta first-color seed")
		}
		firstColor[i] = int(c)
	}
	return firstColor, nil
}

// WriteBasicBody writes a raw hop stream for each plane, a fresh
// HUFFMAN/RLC state per plane since entropy coding is serialized per
// plane (§5, "Entropy coding: serialized per plane").
func WriteBasicBody(w *lhebit.Writer, planes [3][]int) {
	for _, p := range planes {
		newHopEncoder(w).EncodeStream(p)
	}
}

// ReadBasicBody reads a raw hop stream for each plane, given the expected
// per-plane symbol counts (W·H for Y, chroma-scaled for U/V).
func ReadBasicBody(r *lhebit.Reader, counts [3]int) ([3][]int, error) {
	var out [3][]int
	for i, c := range counts {
		hops, err := newHopDecoder(r).DecodeStream(c)
		if err != nil {
			return out, err
		}
		out[i] = hops
	}
	return out, nil
}

// WriteAdvancedBody writes the shared ADVANCED/DELTA body: the mesh
// Huffman table, an optional quality level, the PRx/PRy mesh symbols, and
// the three plane hop streams (§4.8). writeQL is false for DELTA packets
// that inherit the quality level from their reference frame.
func WriteAdvancedBody(w *lhebit.Writer, huff meshHuffman, prx, pry []int, ql int, writeQL bool, planes [3][]int) {
	huff.WriteLengths(w)
	if writeQL {
		w.Put(8, uint32(ql))
	}
	for _, s := range prx {
		huff.Encode(w, s)
	}
	for _, s := range pry {
		huff.Encode(w, s)
	}
	for _, p := range planes {
		newHopEncoder(w).EncodeStream(p)
	}
}

// ReadAdvancedMesh reads steps 1-3 of the ADVANCED/DELTA body: the mesh
// Huffman table, the optional quality level, and the PRx/PRy mesh symbols.
// It stops short of the per-plane hop streams (step 4) because their
// expected lengths depend on the geometry the just-decoded mesh implies,
// which the caller must compute (via computeGeometry) before it knows how
// many hops to ask ReadAdvancedHops for.
func ReadAdvancedMesh(r *lhebit.Reader, meshSymbols int, readQL bool, inheritedQL int) (meshHuffman, []int, []int, int, error) {
	huff, err := readMeshHuffman(r)
	if err != nil {
		return huff, nil, nil, 0, err
	}

	ql := inheritedQL
	if readQL {
		v, err := r.Get(8)
		if err != nil {
			return huff, nil, nil, 0, errors.Wrap(err, "lhe: reading quality level")
		}
		ql = int(v)
	}

	prx := make([]int, meshSymbols)
	for i := range prx {
		sym, err := huff.Decode(r)
		if err != nil {
			return huff, nil, nil, 0, err
		}
		prx[i] = sym
	}
	pry := make([]int, meshSymbols)
	for i := range pry {
		sym, err := huff.Decode(r)
		if err != nil {
			return huff, nil, nil, 0, err
		}
		pry[i] = sym
	}

	return huff, prx, pry, ql, nil
}

// ReadAdvancedHops reads step 4 of the ADVANCED/DELTA body: the three plane
// hop streams, given each plane's expected symbol count.
func ReadAdvancedHops(r *lhebit.Reader, hopCounts [3]int) ([3][]int, error) {
	var planes [3][]int
	for i, c := range hopCounts {
		hops, err := newHopDecoder(r).DecodeStream(c)
		if err != nil {
			return planes, err
		}
		planes[i] = hops
	}
	return planes, nil
}
