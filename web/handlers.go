package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"memory-scramble-server/config"
	"memory-scramble-server/game"
	"memory-scramble-server/session"
)

// maxBoardUpload bounds the size of an uploaded board description.
const maxBoardUpload = 1 << 20

// Handler serves the plain-text board API. Responses on the game endpoints
// are the look snapshot wire format; flip failures carry the error text.
type Handler struct {
	Config *config.Config
	Boards *session.Registry
	Log    *slog.Logger
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(cfg *config.Config, boards *session.Registry, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{Config: cfg, Boards: boards, Log: log}
}

// Register installs the API routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /look/{player}", h.Look)
	mux.HandleFunc("GET /flip/{player}/{position}", h.Flip)
	mux.HandleFunc("GET /watch/{player}", h.Watch)
	mux.HandleFunc("POST /map/{player}", h.Map)
	mux.HandleFunc("POST /boards", h.CreateBoard)
}

// CORS sets CORS headers on the response. Call before writing body.
func CORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// board resolves the board a request addresses via the optional ?board=
// query parameter, defaulting to the startup board.
func (h *Handler) board(w http.ResponseWriter, r *http.Request) (*game.Board, bool) {
	id := r.URL.Query().Get("board")
	b, ok := h.Boards.Get(id)
	if !ok {
		http.Error(w, "unknown board: "+id, http.StatusNotFound)
		return nil, false
	}
	return b, true
}

// player validates the player path segment.
func (h *Handler) player(w http.ResponseWriter, r *http.Request) (string, bool) {
	player := r.PathValue("player")
	if player == "" || len(player) > h.Config.MaxNameLength {
		http.Error(w, "player id must be between 1 and "+strconv.Itoa(h.Config.MaxNameLength)+" characters", http.StatusBadRequest)
		return "", false
	}
	return player, true
}

func writeSnapshot(w http.ResponseWriter, snapshot string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, snapshot)
}

// Look returns the board as seen by the player.
func (h *Handler) Look(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	player, ok := h.player(w, r)
	if !ok {
		return
	}
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	writeSnapshot(w, b.Look(player))
}

// Flip flips one card for the player. The position path segment is
// "row,col". The request blocks while the card is held by another player;
// a client that gives up cancels the request context and abandons its spot
// in line.
func (h *Handler) Flip(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	player, ok := h.player(w, r)
	if !ok {
		return
	}
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	row, col, err := parsePosition(r.PathValue("position"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = b.Flip(r.Context(), player, row, col)
	var noCard *game.NoCardError
	var held *game.ControlledError
	switch {
	case err == nil:
		writeSnapshot(w, b.Look(player))
	case errors.As(err, &noCard):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &held):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client gone; nothing useful to write.
	default:
		h.Log.Error("flip failed", "tag", "web", "player", player, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// Watch long-polls until the board next changes, then returns the fresh
// snapshot. A poll that outlives the configured timeout gets 204 so the
// client can re-arm.
func (h *Handler) Watch(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	player, ok := h.player(w, r)
	if !ok {
		return
	}
	b, ok := h.board(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if h.Config.WatchTimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(h.Config.WatchTimeoutSec)*time.Second)
		defer cancel()
	}
	snapshot, err := b.Watch(ctx, player)
	switch {
	case err == nil:
		writeSnapshot(w, snapshot)
	case errors.Is(err, context.DeadlineExceeded):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, context.Canceled):
		// Client gone.
	default:
		h.Log.Error("watch failed", "tag", "web", "player", player, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// Map rewrites card values. The body is a JSON object of replacements;
// symbols not listed keep their value. The response is the snapshot after
// the rewrite.
func (h *Handler) Map(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	player, ok := h.player(w, r)
	if !ok {
		return
	}
	b, ok := h.board(w, r)
	if !ok {
		return
	}

	var replacements map[string]string
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBoardUpload)).Decode(&replacements); err != nil {
		http.Error(w, "body must be a JSON object of symbol replacements", http.StatusBadRequest)
		return
	}
	transform := func(ctx context.Context, value string) (string, error) {
		if out, ok := replacements[value]; ok {
			return out, nil
		}
		return value, nil
	}
	if err := b.Map(r.Context(), transform); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		h.Log.Error("map failed", "tag", "web", "player", player, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeSnapshot(w, b.Look(player))
}

// CreateBoard parses an uploaded board description, registers it, and
// returns its id.
func (h *Handler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBoardUpload))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	b, err := game.Parse(string(data))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b.SetLogger(h.Log)
	if h.Config.CheckInvariants {
		b.EnableInvariantChecks()
	}
	id := h.Boards.Create(b)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	fmt.Fprintln(w, id)
}

// parsePosition splits a "row,col" path segment.
func parsePosition(s string) (row, col int, err error) {
	left, right, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("position %q must be row,col", s)
	}
	row, err = strconv.Atoi(left)
	if err != nil {
		return 0, 0, fmt.Errorf("bad row in position %q", s)
	}
	col, err = strconv.Atoi(right)
	if err != nil {
		return 0, 0, fmt.Errorf("bad column in position %q", s)
	}
	return row, col, nil
}
