package game

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Transform rewrites one card symbol. It may block; the board keeps serving
// flips and looks while transforms are in flight.
type Transform func(ctx context.Context, value string) (string, error)

// Map rewrites every card value on the board through the transform. The
// transform is invoked exactly once per distinct value, so matching pairs
// stay matching pairs, and the results are written back in a single step.
// If any transform fails, the board is left unchanged and the failure is
// returned wrapped in a TransformError.
func (b *Board) Map(ctx context.Context, transform Transform) error {
	reply := make(chan error, 1)
	a := action{typ: ActionMap, ctx: ctx, transform: transform, mapReply: reply}
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

// beginMap collects the distinct card values present right now and hands
// them to a goroutine that runs the transforms. The grid is not touched
// until every transform has returned; results come back as an ActionMapApply.
func (b *Board) beginMap(a action) {
	seen := make(map[string]struct{})
	for i := range b.cells {
		if v := b.cells[i].value; v != "" {
			seen[v] = struct{}{}
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)

	go b.runTransforms(a.ctx, a.transform, values, a.mapReply)
}

// runTransforms invokes the transform once per distinct value, concurrently,
// then feeds the results back into the board loop. On failure it answers the
// caller directly; no apply action is sent and no cell changes.
func (b *Board) runTransforms(ctx context.Context, transform Transform, values []string, reply chan error) {
	results := make(map[string]string, len(values))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, v := range values {
		g.Go(func() error {
			out, err := transform(gctx, v)
			if err != nil {
				return err
			}
			mu.Lock()
			results[v] = out
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		b.log.Warn("map aborted", "tag", "board", "err", err)
		reply <- &TransformError{Err: err}
		return
	}

	select {
	case b.actions <- action{typ: ActionMapApply, mapResult: results, mapReply: reply}:
	case <-b.done:
		reply <- ErrClosed
	}
}

// applyMap writes transform results back to the grid in one atomic step.
// Face-up flags and controllers are untouched; cells emptied since the
// values were collected are skipped.
func (b *Board) applyMap(a action) {
	for i := range b.cells {
		c := &b.cells[i]
		if c.value == "" {
			continue
		}
		if out, ok := a.mapResult[c.value]; ok {
			c.value = out
		}
	}
	b.dirty = true
	b.log.Debug("map applied", "tag", "board", "values", len(a.mapResult))
	a.mapReply <- nil
}
