package game

import (
	"context"
	"fmt"
	"strings"
)

// Look renders the board from the given player's perspective. The snapshot
// is produced at a single point in the board's serialization order.
func (b *Board) Look(player string) string {
	reply := make(chan string, 1)
	select {
	case b.actions <- action{typ: ActionLook, player: player, lookReply: reply}:
	case <-b.done:
		return ""
	}
	select {
	case snap := <-reply:
		return snap
	case <-b.done:
		return ""
	}
}

// Watch blocks until the next board mutation and returns the snapshot
// rendered for the player just after it. Watch itself never counts as a
// mutation.
func (b *Board) Watch(ctx context.Context, player string) (string, error) {
	reply := make(chan string, 1)
	select {
	case b.actions <- action{typ: ActionWatch, player: player, watchReply: reply}:
	case <-ctx.Done():
		return "", ctx.Err()
	case <-b.done:
		return "", ErrClosed
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-b.done:
		return "", ErrClosed
	}
}

// Check re-verifies the representation invariants inside the serialization
// order and returns the first violation found, if any.
func (b *Board) Check() error {
	reply := make(chan error, 1)
	select {
	case b.actions <- action{typ: ActionCheck, checkReply: reply}:
	case <-b.done:
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-b.done:
		return ErrClosed
	}
}

// renderLook builds the snapshot wire format: a RxC header, then one line
// per cell in row-major order reading none, down, "my <symbol>", or
// "up <symbol>".
func (b *Board) renderLook(player string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%dx%d\n", b.rows, b.cols)
	for i := range b.cells {
		c := &b.cells[i]
		switch {
		case c.value == "":
			sb.WriteString("none\n")
		case !c.faceUp:
			sb.WriteString("down\n")
		case c.controller == player:
			sb.WriteString("my ")
			sb.WriteString(c.value)
			sb.WriteByte('\n')
		default:
			sb.WriteString("up ")
			sb.WriteString(c.value)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
