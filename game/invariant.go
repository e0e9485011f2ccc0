package game

import "fmt"

// checkInvariants verifies the representation invariants and returns the
// first violation found. It runs inside the board loop.
//
//  - an empty cell is face-down and unclaimed
//  - a controlled cell is face-up and holds a card
//  - no player controls more than two cells
//  - every controlled cell is pointed at by its controller's turn record
//  - every waiter queue is non-empty and sits on an in-bounds position
func (b *Board) checkInvariants() error {
	controlled := make(map[string]int)
	for i := range b.cells {
		c := &b.cells[i]
		p := pos{i / b.cols, i % b.cols}
		if c.value == "" {
			if c.faceUp {
				return fmt.Errorf("empty cell %d,%d is face-up", p.row, p.col)
			}
			if c.controller != "" {
				return fmt.Errorf("empty cell %d,%d is controlled by %s", p.row, p.col, c.controller)
			}
			continue
		}
		if c.controller != "" {
			if !c.faceUp {
				return fmt.Errorf("cell %d,%d is controlled by %s but face-down", p.row, p.col, c.controller)
			}
			controlled[c.controller]++
			t := b.turns[c.controller]
			if t == nil || (t.first != p && t.second != p) {
				return fmt.Errorf("cell %d,%d is controlled by %s but their turn record does not point at it", p.row, p.col, c.controller)
			}
		}
	}
	for player, n := range controlled {
		if n > 2 {
			return fmt.Errorf("player %s controls %d cells", player, n)
		}
	}
	for p, q := range b.waiters {
		if len(q) == 0 {
			return fmt.Errorf("empty waiter queue left at %d,%d", p.row, p.col)
		}
		if _, ok := b.index(p); !ok {
			return fmt.Errorf("waiter queue at out-of-bounds position %d,%d", p.row, p.col)
		}
	}
	return nil
}
