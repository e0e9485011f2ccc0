package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"memory-scramble-server/game"
)

// DefaultBoardID names the board built at startup. Transports fall back to
// it when a request does not name a board.
const DefaultBoardID = "main"

// Registry holds the boards served by this process, keyed by id. Boards are
// never destroyed during a session; CloseAll exists for shutdown and tests.
type Registry struct {
	mu     sync.RWMutex
	boards map[string]*game.Board
	log    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		boards: make(map[string]*game.Board),
		log:    log,
	}
}

// Add registers a board under the given id and starts its loop. The empty
// id registers the default board.
func (r *Registry) Add(id string, b *game.Board) string {
	if id == "" {
		id = DefaultBoardID
	}
	r.mu.Lock()
	r.boards[id] = b
	r.mu.Unlock()

	go b.Run()
	rows, cols := b.Size()
	r.log.Info("board registered", "tag", "session", "board", id, "rows", rows, "cols", cols)
	return id
}

// Create registers a board under a fresh uuid and starts its loop.
func (r *Registry) Create(b *game.Board) string {
	return r.Add(uuid.NewString(), b)
}

// Get returns the board with the given id. The empty id resolves to the
// default board.
func (r *Registry) Get(id string) (*game.Board, bool) {
	if id == "" {
		id = DefaultBoardID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.boards[id]
	return b, ok
}

// Default returns the startup board, or nil if none was registered.
func (r *Registry) Default() *game.Board {
	b, _ := r.Get(DefaultBoardID)
	return b
}

// CloseAll stops every registered board.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.boards {
		b.Close()
		delete(r.boards, id)
	}
}
