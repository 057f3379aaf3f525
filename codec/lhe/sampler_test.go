/*
NAME
  sampler_test.go

DESCRIPTION
  sampler_test.go contains tests for sampler.go.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package lhe

import "testing"

func TestCellBoundariesSpansFullSourceRange(t *testing.T) {
	bounds := cellBoundaries(16, 4)
	if len(bounds) != 5 {
		t.Fatalf("len(bounds) = %d; want 5", len(bounds))
	}
	if bounds[0] != 0 {
		t.Fatalf("bounds[0] = %v; want 0", bounds[0])
	}
	if bounds[len(bounds)-1] != 16 {
		t.Fatalf("bounds[last] = %v; want 16", bounds[len(bounds)-1])
	}
}

func TestCellBoundariesEmptyLength(t *testing.T) {
	bounds := cellBoundaries(16, 0)
	if len(bounds) != 1 {
		t.Fatalf("len(bounds) = %d; want 1", len(bounds))
	}
}

func TestDownsampleSPSPicksCellCenterSample(t *testing.T) {
	src := []int{10, 20, 30, 40}
	bounds := cellBoundaries(4, 2)
	got := downsampleSPS(src, bounds)
	want := []int{src[1], src[3]}
	if got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("downsampleSPS = %v; want %v", got, want)
	}
}

func TestDownsampleAVGConstantSourceReturnsSameValue(t *testing.T) {
	src := []int{50, 50, 50, 50, 50, 50, 50, 50}
	bounds := cellBoundaries(8, 3)
	got := downsampleAVG(src, bounds)
	for i, v := range got {
		if v != 50 {
			t.Fatalf("downsampleAVG[%d] = %d; want 50 on a constant source", i, v)
		}
	}
}

func TestDownsampleAVGAveragesAcrossCellBoundary(t *testing.T) {
	src := []int{0, 0, 100, 100}
	bounds := []float64{0, 2.5, 4}
	got := downsampleAVG(src, bounds)
	if got[0] != 20 {
		t.Fatalf("downsampleAVG[0] = %d; want 20 (weighted average (0+0+0.5*100)/2.5 straddling the boundary)", got[0])
	}
}

func TestDownsampleBlockRoundNumberOfSamples(t *testing.T) {
	srcW, srcH := 8, 8
	src := make([]int, srcW*srcH)
	for i := range src {
		src[i] = i % 256
	}
	for _, mode := range []int{DownSPS, DownAVG, DownAVGxSPSy} {
		out := downsampleBlock(src, srcW, srcH, 4, 4, mode)
		if len(out) != 16 {
			t.Fatalf("mode %d: len(downsampleBlock) = %d; want 16", mode, len(out))
		}
	}
}

func TestDownsampleBlockIdentityWhenSameSize(t *testing.T) {
	srcW, srcH := 4, 4
	src := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	out := downsampleBlock(src, srcW, srcH, srcW, srcH, DownSPS)
	for i := range src {
		if out[i] != src[i] {
			t.Fatalf("identity downsample[%d] = %d; want %d", i, out[i], src[i])
		}
	}
}

func TestUpsampleNearestFillsEntireDestination(t *testing.T) {
	src := []int{10, 20}
	bounds := cellBoundaries(8, 2)
	out := upsampleNearest(src, bounds, 8)
	if len(out) != 8 {
		t.Fatalf("len(out) = %d; want 8", len(out))
	}
	for _, v := range out {
		if v != 10 && v != 20 {
			t.Fatalf("upsampleNearest produced %d; want 10 or 20", v)
		}
	}
}

func TestUpsampleAdaptiveHighPRMatchesNearest(t *testing.T) {
	src := []int{10, 20}
	bounds := cellBoundaries(8, 2)
	alwaysHigh := func(d int) float64 { return 1.0 }
	nearest := upsampleNearest(src, bounds, 8)
	adaptive := upsampleAdaptive(src, bounds, 8, alwaysHigh)
	for i := range nearest {
		if nearest[i] != adaptive[i] {
			t.Fatalf("upsampleAdaptive[%d] = %d with PR=1.0; want to match upsampleNearest = %d", i, adaptive[i], nearest[i])
		}
	}
}

func TestUpsampleAdaptiveLowPRBlendsAtCellBoundary(t *testing.T) {
	src := []int{0, 100, 0}
	bounds := cellBoundaries(9, 3)
	alwaysLow := func(d int) float64 { return 0.0 }
	out := upsampleAdaptive(src, bounds, 9, alwaysLow)
	for i, v := range out {
		if v < 0 || v > 100 {
			t.Fatalf("upsampleAdaptive[%d] = %d; out of blended source range [0,100]", i, v)
		}
	}
}

func TestUpsampleBlockRestoresRequestedDimensions(t *testing.T) {
	srcW, srcH := 2, 2
	dstW, dstH := 8, 8
	src := []int{10, 20, 30, 40}
	prAll := func(i int) float64 { return 1.0 }
	out := upsampleBlock(src, srcW, srcH, dstW, dstH, false, prAll, prAll)
	if len(out) != dstW*dstH {
		t.Fatalf("len(upsampleBlock) = %d; want %d", len(out), dstW*dstH)
	}
}

func TestDownsampleUpsampleBlockRoundTripPreservesFlatRegion(t *testing.T) {
	srcW, srcH := 8, 8
	src := make([]int, srcW*srcH)
	for i := range src {
		src[i] = 77
	}
	down := downsampleBlock(src, srcW, srcH, 4, 4, DownAVG)
	prAll := func(i int) float64 { return 1.0 }
	up := upsampleBlock(down, 4, 4, srcW, srcH, true, prAll, prAll)
	for i, v := range up {
		if v != 77 {
			t.Fatalf("round trip[%d] = %d on a flat block; want 77", i, v)
		}
	}
}
