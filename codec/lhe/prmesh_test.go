/*
NAME
  prmesh_test.go

DESCRIPTION
  prmesh_test.go contains tests for prmesh.go.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package lhe

import "testing"

func TestQuantBucketThresholds(t *testing.T) {
	cases := []struct {
		d    int
		want int
	}{
		{0, 0}, {3, 0},
		{4, 1}, {15, 1},
		{16, 2}, {31, 2},
		{32, 3}, {63, 3},
		{64, 4}, {1000, 4},
	}
	for _, c := range cases {
		if got := quantBucket(c.d); got != c.want {
			t.Fatalf("quantBucket(%d) = %d; want %d", c.d, got, c.want)
		}
	}
}

func TestQuantizePRSnapsToNearestLevel(t *testing.T) {
	cases := []struct {
		v        float64
		wantIdx  int
		wantVal  float64
	}{
		{0, 0, 0},
		{0.06, 0, 0},
		{0.1, 1, 0.125},
		{0.2, 2, 0.25},
		{0.4, 3, 0.5},
		{0.9, 4, 1.0},
		{1.0, 4, 1.0},
	}
	for _, c := range cases {
		level, idx := quantizePR(c.v)
		if idx != c.wantIdx || level != c.wantVal {
			t.Fatalf("quantizePR(%v) = (%v,%d); want (%v,%d)", c.v, level, idx, c.wantVal, c.wantIdx)
		}
	}
}

func TestRectangleOverrideProtectionOne(t *testing.T) {
	rects := []Rectangle{{XIni: 0, XFin: 2, YIni: 0, YFin: 2, Protection: 1, Active: true}}
	forced, ok := rectangleOverride(rects, 1, 1)
	if !ok || forced != 1.0 {
		t.Fatalf("rectangleOverride = (%v,%v); want (1.0,true)", forced, ok)
	}
}

func TestRectangleOverrideProtectionZero(t *testing.T) {
	rects := []Rectangle{{XIni: 0, XFin: 2, YIni: 0, YFin: 2, Protection: 0, Active: true}}
	forced, ok := rectangleOverride(rects, 0, 0)
	if !ok || forced != 0.0 {
		t.Fatalf("rectangleOverride = (%v,%v); want (0.0,true)", forced, ok)
	}
}

func TestRectangleOverrideStopsAtFirstInactive(t *testing.T) {
	rects := []Rectangle{
		{Active: false},
		{XIni: 0, XFin: 10, YIni: 0, YFin: 10, Protection: 1, Active: true},
	}
	_, ok := rectangleOverride(rects, 5, 5)
	if ok {
		t.Fatal("rectangleOverride matched a rectangle past the first inactive entry; want scan to terminate early")
	}
}

func TestRectangleOverrideOutsideBounds(t *testing.T) {
	rects := []Rectangle{{XIni: 0, XFin: 2, YIni: 0, YFin: 2, Protection: 1, Active: true}}
	_, ok := rectangleOverride(rects, 5, 5)
	if ok {
		t.Fatal("rectangleOverride matched a coordinate outside the rectangle")
	}
}

func TestMeshSymbolRoundTrip(t *testing.T) {
	g := newGrid(64, 32)
	mesh := newPRMesh(g)
	for by := range mesh.X {
		for bx := range mesh.X[by] {
			mesh.X[by][bx] = prQuantLevels[(bx+by)%numPRSymbols]
			mesh.Y[by][bx] = prQuantLevels[(bx*2+by)%numPRSymbols]
		}
	}

	prx, pry := meshToSymbols(mesh)
	got := meshFromSymbols(g, prx, pry)

	for by := range mesh.X {
		for bx := range mesh.X[by] {
			if got.X[by][bx] != mesh.X[by][bx] || got.Y[by][bx] != mesh.Y[by][bx] {
				t.Fatalf("mesh round trip mismatch at (%d,%d): got X=%v Y=%v; want X=%v Y=%v", bx, by, got.X[by][bx], got.Y[by][bx], mesh.X[by][bx], mesh.Y[by][bx])
			}
		}
	}
}

func TestComputePRMeshRespectsRectangleOverride(t *testing.T) {
	width, height := 64, 64
	y := NewPlane(width, height)
	for i := range y.Pix {
		y.Pix[i] = byte(i % 256)
	}
	g := newGrid(width, height)
	rects := []Rectangle{{XIni: 0, XFin: g.blocksW + 1, YIni: 0, YFin: g.blocksH + 1, Protection: 1, Active: true}}

	mesh, _ := computePRMesh(y, width, height, g, rects)
	for by := 0; by <= g.blocksH; by++ {
		for bx := 0; bx <= g.blocksW; bx++ {
			if mesh.X[by][bx] != 1.0 || mesh.Y[by][bx] != 1.0 {
				t.Fatalf("mesh at (%d,%d) = (%v,%v); want (1,1) under full protection", bx, by, mesh.X[by][bx], mesh.Y[by][bx])
			}
		}
	}
}

func TestComputePRMeshFlatImageIsLowRelevance(t *testing.T) {
	width, height := 64, 64
	y := NewPlane(width, height)
	for i := range y.Pix {
		y.Pix[i] = 128
	}
	g := newGrid(width, height)
	mesh, _ := computePRMesh(y, width, height, g, nil)
	for by := 0; by <= g.blocksH; by++ {
		for bx := 0; bx <= g.blocksW; bx++ {
			if mesh.X[by][bx] != 0 || mesh.Y[by][bx] != 0 {
				t.Fatalf("mesh at (%d,%d) = (%v,%v) on a flat image; want (0,0) (no luminance change)", bx, by, mesh.X[by][bx], mesh.Y[by][bx])
			}
		}
	}
}
