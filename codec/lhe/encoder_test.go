/*
NAME
  encoder_test.go

DESCRIPTION
  encoder_test.go contains end-to-end round-trip tests exercising Encoder
  and Decoder together across BASIC_LHE, ADVANCED_LHE and DELTA_MLHE.

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
	"errors"
	"testing"

	"github.com/jjaranda13/lhe/codec/lhe/lhebit"
)

func testPlanes(width, height int, pf PixelFormat, seed byte) (y, u, v Plane) {
	cfw, cfh, _ := pf.ChromaFactors()
	chromaW, chromaH := chromaDim(width, cfw), chromaDim(height, cfh)
	y = NewPlane(width, height)
	u = NewPlane(chromaW, chromaH)
	v = NewPlane(chromaW, chromaH)
	for i := range y.Pix {
		y.Pix[i] = byte(int(seed) + i*7)
	}
	for i := range u.Pix {
		u.Pix[i] = byte(int(seed) + i*3 + 40)
	}
	for i := range v.Pix {
		v.Pix[i] = byte(int(seed) + i*5 + 80)
	}
	return y, u, v
}

func maxAbsDiff(a, b Plane) int {
	max := 0
	for i := range a.Pix {
		d := int(a.Pix[i]) - int(b.Pix[i])
		if d < 0 {
			d = -d
		}
		if d > max {
			max = d
		}
	}
	return max
}

// S1: a BASIC_LHE still image decodes to exactly the encoder's own
// reconstruction (hop coding is a predictor-quantized approximation of the
// input, not a lossless copy of it).
func TestBasicLHERoundTripMatchesEncoderReconstruction(t *testing.T) {
	width, height := 32, 16
	pf := PixelFormatYUV420
	y, u, v := testPlanes(width, height, pf, 0)

	enc, err := NewEncoder(Config{BasicLHE: true})
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	packet, err := enc.EncodeFrame(y, u, v, width, height, pf)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	dec := NewDecoder(0)
	gotY, gotU, gotV, err := dec.DecodeFrame(packet)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	g := newGrid(width, height)
	cfw, cfh, _ := pf.ChromaFactors()
	cg := newChromaGrid(g, chromaDim(width, cfw), chromaDim(height, cfh))
	want := func(grd grid, in Plane) Plane {
		recon := NewPlane(grd.width, grd.height)
		edgesOf := func(bx, by int) blockEdges { return basicEdges(grd, bx, by) }
		if _, err := encodeBlockGrid(context.Background(), grd.blocksW, grd.blocksH, edgesOf, in, recon, in.At(0, 0), noDelta); err != nil {
			t.Fatalf("encodeBlockGrid: %v", err)
		}
		return recon
	}
	if d := maxAbsDiff(want(g, y), gotY); d != 0 {
		t.Fatalf("BASIC_LHE decoded luma differs from the encoder reconstruction: max abs diff %d", d)
	}
	if maxAbsDiff(want(cg, u), gotU) != 0 || maxAbsDiff(want(cg, v), gotV) != 0 {
		t.Fatal("BASIC_LHE decoded chroma differs from the encoder reconstruction")
	}
}

// S2: an ADVANCED_LHE keyframe round-trips within a small error bound (the
// downsample/upsample pass is lossy by construction).
func TestAdvancedLHEKeyframeRoundTripIsBounded(t *testing.T) {
	width, height := 64, 32
	pf := PixelFormatYUV420
	y, u, v := testPlanes(width, height, pf, 0)

	enc, err := NewEncoder(Config{QL: 50, DownMode: DownAVG})
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	packet, err := enc.EncodeFrame(y, u, v, width, height, pf)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	dec := NewDecoder(0)
	gotY, _, _, err := dec.DecodeFrame(packet)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if gotY.Stride != width || len(gotY.Pix) != width*height {
		t.Fatalf("ADVANCED_LHE decoded luma dims = %dx%d; want %dx%d", gotY.Stride, len(gotY.Pix)/gotY.Stride, width, height)
	}
	if d := maxAbsDiff(y, gotY); d > 60 {
		t.Fatalf("ADVANCED_LHE luma round trip error %d exceeds bound", d)
	}
}

// S3/S5: a DELTA_MLHE sequence following a keyframe decodes without error and
// produces full-resolution planes at every step.
func TestDeltaMLHESequenceDecodes(t *testing.T) {
	width, height := 48, 32
	pf := PixelFormatYUV420

	enc, err := NewEncoder(Config{QL: 40, DownMode: DownSPS, BlockGOP: 5})
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	dec := NewDecoder(5)

	for frame := 0; frame < 4; frame++ {
		y, u, v := testPlanes(width, height, pf, byte(frame*2))
		packet, err := enc.EncodeFrame(y, u, v, width, height, pf)
		if err != nil {
			t.Fatalf("frame %d: EncodeFrame: %v", frame, err)
		}
		gotY, gotU, gotV, err := dec.DecodeFrame(packet)
		if err != nil {
			t.Fatalf("frame %d: DecodeFrame: %v", frame, err)
		}
		if len(gotY.Pix) != width*height {
			t.Fatalf("frame %d: decoded luma has %d samples; want %d", frame, len(gotY.Pix), width*height)
		}
		if len(gotU.Pix) == 0 || len(gotV.Pix) == 0 {
			t.Fatalf("frame %d: decoded chroma planes are empty", frame)
		}
	}
}

// A dimension change mid-session must reset to a fresh ADVANCED_LHE
// keyframe rather than attempting to delta-code against a stale reference.
func TestEncoderStartsFreshKeyframeOnDimensionChange(t *testing.T) {
	pf := PixelFormatYUV420
	enc, err := NewEncoder(Config{QL: 30})
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	y1, u1, v1 := testPlanes(32, 32, pf, 0)
	if _, err := enc.EncodeFrame(y1, u1, v1, 32, 32, pf); err != nil {
		t.Fatalf("first EncodeFrame: %v", err)
	}

	y2, u2, v2 := testPlanes(48, 24, pf, 0)
	packet, err := enc.EncodeFrame(y2, u2, v2, 48, 24, pf)
	if err != nil {
		t.Fatalf("second EncodeFrame after resize: %v", err)
	}

	r := lhebit.NewReader(packet, -1)
	mode, err := ReadCommonHeader(r)
	if err != nil {
		t.Fatalf("ReadCommonHeader: %v", err)
	}
	if mode != ModeAdvanced {
		t.Fatalf("mode after dimension change = %d; want ModeAdvanced (fresh keyframe)", mode)
	}
}

// S6: a DELTA packet decoded with no prior reference frame must surface
// ErrDeltaWithoutReference and allocate no output planes.
func TestDecodeDeltaWithoutReferenceFails(t *testing.T) {
	w := lhebit.NewWriter()
	WriteCommonHeader(w, ModeDelta)
	WriteDeltaHeader(w, [3]int{0, 0, 0})
	packet := w.FlushToByte()

	dec := NewDecoder(0)
	y, u, v, err := dec.DecodeFrame(packet)
	if !errors.Is(err, ErrDeltaWithoutReference) {
		t.Fatalf("DecodeFrame on a DELTA packet with no reference: err = %v; want ErrDeltaWithoutReference", err)
	}
	if y.Pix != nil || u.Pix != nil || v.Pix != nil {
		t.Fatal("DecodeFrame allocated output planes despite the error")
	}
}

func TestEncodeFrameRejectsInvalidConfig(t *testing.T) {
	enc, err := NewEncoder(Config{QL: 50})
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	enc.cfg.QL = 200 // corrupt post-construction, forcing EncodeFrame's own re-validation.
	y, u, v := testPlanes(16, 16, PixelFormatYUV420, 0)
	if _, err := enc.EncodeFrame(y, u, v, 16, 16, PixelFormatYUV420); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("EncodeFrame with corrupted QL: err = %v; want ErrInvalidConfig", err)
	}
}
