package game

// handleFlip runs one flip request: finish the caller's previous turn if it
// is complete, then do a first- or second-card flip depending on the turn
// record.
func (b *Board) handleFlip(a action) {
	t := b.turnFor(a.player)
	if t.first != noPos && t.second != noPos {
		b.finishTurn(a.player, t)
	}
	if t.first != noPos {
		b.flipSecond(a, t)
		return
	}
	b.flipFirst(a, t)
}

// finishTurn closes out a completed turn before the player's next flip. A
// matched pair whose cards are still intact is removed from the board, and
// every waiter queued on either card is woken to observe the empty cells.
// Otherwise any card of the turn left face-up and unclaimed is turned back
// face-down.
func (b *Board) finishTurn(player string, t *turn) {
	fi, fok := b.index(t.first)
	si, sok := b.index(t.second)

	removed := false
	if t.matched && fok && sok {
		f, s := &b.cells[fi], &b.cells[si]
		if f.value != "" && s.value != "" && f.value == s.value {
			f.value, f.faceUp, f.controller = "", false, ""
			s.value, s.faceUp, s.controller = "", false, ""
			b.dirty = true
			b.wakeAll(t.first)
			b.wakeAll(t.second)
			removed = true
		}
	}
	if !removed {
		if fok {
			b.releaseIfHeldBy(fi, t.first, player)
			b.turnFaceDown(fi)
		}
		if sok {
			b.releaseIfHeldBy(si, t.second, player)
			b.turnFaceDown(si)
		}
	}

	t.first, t.second, t.matched = noPos, noPos, false
}

// turnFaceDown hides a card left face-up and unclaimed at the end of a turn.
func (b *Board) turnFaceDown(i int) {
	c := &b.cells[i]
	if c.value != "" && c.faceUp && c.controller == "" {
		c.faceUp = false
		b.dirty = true
	}
}

// releaseIfHeldBy drops the player's own claim on a cell. Turns that end
// normally have already relinquished, so this only matters when a matched
// pair could not be removed; control must not outlive the turn record.
func (b *Board) releaseIfHeldBy(i int, p pos, player string) {
	if b.cells[i].controller == player {
		b.release(i, p)
	}
}

// flipFirst applies the first-card rule: an empty or out-of-bounds target
// fails, an unclaimed card is taken, and a card held by another player parks
// the request on the cell's waiter queue.
func (b *Board) flipFirst(a action, t *turn) {
	i, ok := b.index(a.p)
	if !ok || b.cells[i].value == "" {
		a.flipReply <- &NoCardError{a.p.row, a.p.col}
		return
	}
	c := &b.cells[i]
	if c.controller == "" {
		c.faceUp = true
		c.controller = a.player
		t.first = a.p
		b.dirty = true
		a.flipReply <- nil
		return
	}
	b.waiters[a.p] = append(b.waiters[a.p], &waiter{ctx: a.ctx, player: a.player, p: a.p, reply: a.flipReply})
}

// flipSecond applies the second-card rule. It never parks: a held target
// fails immediately, which is what keeps the board deadlock-free.
func (b *Board) flipSecond(a action, t *turn) {
	fi, _ := b.index(t.first)
	i, ok := b.index(a.p)

	if !ok || b.cells[i].value == "" {
		b.release(fi, t.first)
		t.second = a.p
		t.matched = false
		a.flipReply <- &NoCardError{a.p.row, a.p.col}
		return
	}

	c := &b.cells[i]
	if holder := c.controller; holder != "" {
		// Capture the holder first: the target may be the caller's own
		// first card, whose claim the release below clears.
		b.release(fi, t.first)
		t.second = a.p
		t.matched = false
		a.flipReply <- &ControlledError{a.p.row, a.p.col, holder}
		return
	}

	if !c.faceUp {
		c.faceUp = true
	}
	t.second = a.p
	if b.cells[fi].value == c.value {
		c.controller = a.player
		t.matched = true
	} else {
		b.release(fi, t.first)
		b.release(i, a.p)
		t.matched = false
	}
	b.dirty = true
	a.flipReply <- nil
}

// release clears a cell's controller and hands the card to the next waiter
// in line, if any.
func (b *Board) release(i int, p pos) {
	if b.cells[i].controller != "" {
		b.cells[i].controller = ""
		b.dirty = true
	}
	b.wakeNext(p)
}

// wakeNext resumes the head waiter on a released cell. Waiters whose caller
// has gone away are discarded so an abandoned token never consumes the
// wakeup.
func (b *Board) wakeNext(p pos) {
	for {
		q := b.waiters[p]
		if len(q) == 0 {
			delete(b.waiters, p)
			return
		}
		w := q[0]
		if len(q) == 1 {
			delete(b.waiters, p)
		} else {
			b.waiters[p] = q[1:]
		}
		if w.ctx != nil && w.ctx.Err() != nil {
			w.reply <- w.ctx.Err()
			continue
		}
		b.resumeFirst(w)
		return
	}
}

// resumeFirst re-examines the cell for a woken waiter: the card may be gone,
// free to take, or (if something raced ahead of the wake discipline) held
// again, in which case the waiter goes back to the tail of the queue.
func (b *Board) resumeFirst(w *waiter) {
	i, ok := b.index(w.p)
	if !ok || b.cells[i].value == "" {
		w.reply <- &NoCardError{w.p.row, w.p.col}
		return
	}
	c := &b.cells[i]
	if c.controller != "" {
		b.waiters[w.p] = append(b.waiters[w.p], w)
		return
	}
	c.faceUp = true
	c.controller = w.player
	b.turnFor(w.player).first = w.p
	b.dirty = true
	w.reply <- nil
}

// wakeAll resumes every waiter queued on a removed cell; each observes that
// the card is gone.
func (b *Board) wakeAll(p pos) {
	for _, w := range b.waiters[p] {
		if w.ctx != nil && w.ctx.Err() != nil {
			w.reply <- w.ctx.Err()
			continue
		}
		w.reply <- &NoCardError{p.row, p.col}
	}
	delete(b.waiters, p)
}
