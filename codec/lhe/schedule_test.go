/*
NAME
  schedule_test.go

DESCRIPTION
  schedule_test.go contains tests for schedule.go.

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
	"fmt"
	"sync"
	"testing"
)

func TestAntiDiagonalsCoversEveryBlockExactlyOnce(t *testing.T) {
	blocksW, blocksH := 4, 3
	diags := antiDiagonals(blocksW, blocksH)

	seen := make(map[blockCoord]bool)
	for _, diag := range diags {
		for _, c := range diag {
			if seen[c] {
				t.Fatalf("block (%d,%d) appears in more than one diagonal", c.BX, c.BY)
			}
			seen[c] = true
		}
	}
	if len(seen) != blocksW*blocksH {
		t.Fatalf("antiDiagonals covered %d blocks; want %d", len(seen), blocksW*blocksH)
	}
}

func TestAntiDiagonalsGroupsBySumOfCoordinates(t *testing.T) {
	diags := antiDiagonals(3, 3)
	for k, diag := range diags {
		for _, c := range diag {
			if c.BX+c.BY != k {
				t.Fatalf("diagonal %d contains block (%d,%d) with bx+by=%d", k, c.BX, c.BY, c.BX+c.BY)
			}
		}
	}
}

func TestRunDiagonalsVisitsEveryBlock(t *testing.T) {
	blocksW, blocksH := 5, 4
	var mu sync.Mutex
	visited := make(map[blockCoord]bool)

	err := runDiagonals(context.Background(), blocksW, blocksH, func(_ context.Context, bx, by int) error {
		mu.Lock()
		visited[blockCoord{BX: bx, BY: by}] = true
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("runDiagonals: %v", err)
	}
	if len(visited) != blocksW*blocksH {
		t.Fatalf("runDiagonals visited %d blocks; want %d", len(visited), blocksW*blocksH)
	}
}

func TestRunDiagonalsRespectsNeighborOrdering(t *testing.T) {
	// Every block's west and north neighbor must already have been visited
	// (they lie on a strictly earlier diagonal) by the time it runs.
	blocksW, blocksH := 4, 4
	var mu sync.Mutex
	done := make(map[blockCoord]bool)

	err := runDiagonals(context.Background(), blocksW, blocksH, func(_ context.Context, bx, by int) error {
		mu.Lock()
		westOK := bx == 0 || done[blockCoord{BX: bx - 1, BY: by}]
		northOK := by == 0 || done[blockCoord{BX: bx, BY: by - 1}]
		mu.Unlock()
		if !westOK {
			return fmt.Errorf("block (%d,%d) ran before west neighbor", bx, by)
		}
		if !northOK {
			return fmt.Errorf("block (%d,%d) ran before north neighbor", bx, by)
		}
		mu.Lock()
		done[blockCoord{BX: bx, BY: by}] = true
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("runDiagonals: %v", err)
	}
}

func TestRunDiagonalsPropagatesBlockError(t *testing.T) {
	blocksW, blocksH := 3, 3
	wantErr := fmt.Errorf("boom")

	err := runDiagonals(context.Background(), blocksW, blocksH, func(_ context.Context, bx, by int) error {
		if bx == 1 && by == 1 {
			return wantErr
		}
		return nil
	})
	if err == nil {
		t.Fatal("runDiagonals: want propagated error, got nil")
	}
}

func TestRunDiagonalsCancelsRestOfDiagonalOnError(t *testing.T) {
	// One diagonal (bx+by == 4) with one failing block: the context passed to
	// every other block on that diagonal must observe cancellation.
	blocksW, blocksH := 6, 6
	targetDiag := blocksW + blocksH - 2 // the single-block last diagonal's sum.
	_ = targetDiag

	var canceledSeen bool
	var mu sync.Mutex
	err := runDiagonals(context.Background(), blocksW, blocksH, func(ctx context.Context, bx, by int) error {
		if bx+by == 4 {
			if bx == 0 && by == 4 {
				return fmt.Errorf("fail block")
			}
			<-ctx.Done()
			mu.Lock()
			canceledSeen = true
			mu.Unlock()
		}
		return nil
	})
	if err == nil {
		t.Fatal("runDiagonals: want error from failing block")
	}
	mu.Lock()
	defer mu.Unlock()
	if !canceledSeen {
		t.Fatal("runDiagonals: sibling blocks on the failing diagonal never observed context cancellation")
	}
}
