/*
NAME
  schedule.go

DESCRIPTION
  schedule.go implements the anti-diagonal block scheduler (§5): blocks on
  the same anti-diagonal (block_x + block_y = const) are mutually
  independent for the hop predictor and run concurrently; diagonals
  themselves are processed in increasing order since a block's west/north
  neighbors always lie on an earlier diagonal.

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

	"golang.org/x/sync/errgroup"
)

// blockCoord is one (block_x, block_y) tuple of an anti-diagonal.
type blockCoord struct{ BX, BY int }

// antiDiagonals groups every (bx, by) in a blocksW x blocksH grid by
// bx+by, in increasing diagonal order (Design Note "Parallelism": expose
// this as a producer of tuples grouped by block_x+block_y rather than
// ad-hoc worker code).
func antiDiagonals(blocksW, blocksH int) [][]blockCoord {
	diags := make([][]blockCoord, blocksW+blocksH-1)
	for by := 0; by < blocksH; by++ {
		for bx := 0; bx < blocksW; bx++ {
			k := bx + by
			diags[k] = append(diags[k], blockCoord{BX: bx, BY: by})
		}
	}
	return diags
}

// runDiagonals invokes fn for every block in the grid, diagonal by
// diagonal, with every block on one diagonal running concurrently and a
// barrier between diagonals (matching filter.Basic's WaitGroup fan-out,
// upgraded to errgroup so any block's error cancels the rest of its
// diagonal instead of being silently dropped). fn must not touch any
// state outside the block it owns other than already-reconstructed
// neighbor samples (§5, "Shared resources").
func runDiagonals(ctx context.Context, blocksW, blocksH int, fn func(ctx context.Context, bx, by int) error) error {
	for _, diag := range antiDiagonals(blocksW, blocksH) {
		g, gctx := errgroup.WithContext(ctx)
		for _, c := range diag {
			c := c
			g.Go(func() error {
				return fn(gctx, c.BX, c.BY)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}
