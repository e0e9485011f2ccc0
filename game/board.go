package game

import (
	"context"
	"log/slog"
	"sync"
)

// pos is a board position. Row and col are zero-based.
type pos struct {
	row, col int
}

// noPos marks an unset turn slot.
var noPos = pos{-1, -1}

// cell is one position on the grid. An empty value means the card has been
// removed; an empty controller means no player holds the card.
type cell struct {
	value      string
	faceUp     bool
	controller string
}

// turn tracks the at-most-two positions a player has flipped in their
// current turn. Cleanup of a finished turn happens lazily on the player's
// next flip.
type turn struct {
	first   pos
	second  pos
	matched bool
}

// waiter is a parked first-card flip queued on a controlled cell. It is
// answered during the loop iteration that releases or removes the cell.
type waiter struct {
	ctx    context.Context
	player string
	p      pos
	reply  chan error
}

// watcher is a one-shot listener registered by Watch. It resolves with the
// snapshot for its player rendered after the next mutation.
type watcher struct {
	player string
	reply  chan string
}

// ActionType enumerates the kinds of requests the board loop processes.
type ActionType int

const (
	ActionFlip ActionType = iota
	ActionLook
	ActionWatch
	ActionMap
	ActionMapApply // internal: transforms resolved, write results back
	ActionCheck
)

// action is one request on the board's serialization channel. Reply channels
// are buffered so the loop never blocks on a caller.
type action struct {
	typ    ActionType
	ctx    context.Context
	player string
	p      pos

	flipReply  chan error
	lookReply  chan string
	watchReply chan string
	checkReply chan error

	transform Transform
	mapResult map[string]string
	mapReply  chan error
}

// Board is a shared Memory Scramble board. All state is owned by the single
// goroutine running Run; public operations are requests on the action
// channel, so they linearize in arrival order. Flip stays pending while its
// target card is controlled by another player, and Watch until the next
// mutation; Map runs its transforms off the loop and applies results in one
// step.
type Board struct {
	rows, cols int
	cells      []cell
	turns      map[string]*turn
	waiters    map[pos][]*waiter
	watchers   []*watcher

	actions chan action
	done    chan struct{}
	closing sync.Once

	checkRep bool
	dirty    bool
	log      *slog.Logger
}

// newBoard builds a stopped board from row-major cell values. Callers start
// the loop with go b.Run().
func newBoard(rows, cols int, values []string) *Board {
	cells := make([]cell, rows*cols)
	for i, v := range values {
		cells[i] = cell{value: v}
	}
	return &Board{
		rows:     rows,
		cols:     cols,
		cells:    cells,
		turns:    make(map[string]*turn),
		waiters:  make(map[pos][]*waiter),
		actions:  make(chan action, 16),
		done:     make(chan struct{}),
		log:      slog.Default(),
	}
}

// Size returns the board dimensions.
func (b *Board) Size() (rows, cols int) {
	return b.rows, b.cols
}

// SetLogger replaces the board's logger. Call before Run.
func (b *Board) SetLogger(log *slog.Logger) {
	b.log = log
}

// EnableInvariantChecks makes the loop re-verify the representation
// invariants after every mutation and panic on violation. Call before Run.
func (b *Board) EnableInvariantChecks() {
	b.checkRep = true
}

// Run is the board's main loop. It processes requests sequentially until
// Close is called. It should be run as a goroutine.
func (b *Board) Run() {
	for {
		select {
		case <-b.done:
			return
		case a := <-b.actions:
			// select picks at random when Close has already happened and an
			// action is waiting; a closed board answers nothing.
			select {
			case <-b.done:
				return
			default:
			}
			b.handle(a)
			if b.dirty {
				b.dirty = false
				b.notifyWatchers()
				if b.checkRep {
					if err := b.checkInvariants(); err != nil {
						panic("board invariant violated: " + err.Error())
					}
				}
			}
		}
	}
}

func (b *Board) handle(a action) {
	switch a.typ {
	case ActionFlip:
		b.handleFlip(a)
	case ActionLook:
		a.lookReply <- b.renderLook(a.player)
	case ActionWatch:
		b.watchers = append(b.watchers, &watcher{player: a.player, reply: a.watchReply})
	case ActionMap:
		b.beginMap(a)
	case ActionMapApply:
		b.applyMap(a)
	case ActionCheck:
		a.checkReply <- b.checkInvariants()
	}
}

// Close stops the loop. Pending and future calls return ErrClosed; Look
// returns an empty snapshot instead.
func (b *Board) Close() {
	b.closing.Do(func() { close(b.done) })
}

// Flip flips the card at (row, col) for the given player, completing the
// player's previous turn first. It blocks while the target card is
// controlled by another player; cancelling ctx abandons the attempt.
func (b *Board) Flip(ctx context.Context, player string, row, col int) error {
	reply := make(chan error, 1)
	a := action{typ: ActionFlip, ctx: ctx, player: player, p: pos{row, col}, flipReply: reply}
	select {
	case b.actions <- a:
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrClosed
	}
}

// turnFor returns the player's turn record, creating it on first reference.
func (b *Board) turnFor(player string) *turn {
	t, ok := b.turns[player]
	if !ok {
		t = &turn{first: noPos, second: noPos}
		b.turns[player] = t
	}
	return t
}

// index maps a position to a cell index, reporting whether it is in bounds.
func (b *Board) index(p pos) (int, bool) {
	if p.row < 0 || p.row >= b.rows || p.col < 0 || p.col >= b.cols {
		return 0, false
	}
	return p.row*b.cols + p.col, true
}

// notifyWatchers resolves every registered watcher with a fresh snapshot,
// in registration order, then clears the list.
func (b *Board) notifyWatchers() {
	if len(b.watchers) == 0 {
		return
	}
	for _, w := range b.watchers {
		w.reply <- b.renderLook(w.player)
	}
	b.watchers = nil
}
