package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memory-scramble-server/config"
	"memory-scramble-server/game"
	"memory-scramble-server/session"
)

const testBoardText = "3x3\nA\nA\nB\nB\nC\nC\nD\nD\nE\n"

func setupServer(t *testing.T) (*httptest.Server, *session.Registry) {
	t.Helper()

	cfg := config.Defaults()
	cfg.CheckInvariants = true
	cfg.WatchTimeoutSec = 5

	boards := session.NewRegistry(nil)
	t.Cleanup(boards.CloseAll)

	b, err := game.Parse(testBoardText)
	require.NoError(t, err)
	b.EnableInvariantChecks()
	boards.Add(session.DefaultBoardID, b)

	mux := http.NewServeMux()
	NewHandler(cfg, boards, nil).Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, boards
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestLookEndpoint(t *testing.T) {
	server, _ := setupServer(t)

	status, body := get(t, server.URL+"/look/alice")
	assert.Equal(t, http.StatusOK, status)

	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, "3x3", lines[0])
	for _, line := range lines[1:] {
		assert.Equal(t, "down", line)
	}
}

func TestFlipEndpoint(t *testing.T) {
	server, _ := setupServer(t)

	status, body := get(t, server.URL+"/flip/alice/0,0")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "my A")

	// An out-of-bounds flip closes the turn and reports the missing card.
	status, body = get(t, server.URL+"/flip/alice/9,9")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "No card at position")
}

func TestFlipControlledCardConflicts(t *testing.T) {
	server, _ := setupServer(t)

	status, _ := get(t, server.URL+"/flip/alice/0,0")
	require.Equal(t, http.StatusOK, status)

	// Second card on the player's own controlled card fails immediately.
	status, body := get(t, server.URL+"/flip/alice/0,0")
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body, "controlled by")
}

func TestFlipBadPosition(t *testing.T) {
	server, _ := setupServer(t)

	status, _ := get(t, server.URL+"/flip/alice/zero")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUnknownBoard(t *testing.T) {
	server, _ := setupServer(t)

	status, _ := get(t, server.URL+"/look/alice?board=missing")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMapEndpoint(t *testing.T) {
	server, _ := setupServer(t)

	status, _ := get(t, server.URL+"/flip/alice/0,0")
	require.Equal(t, http.StatusOK, status)

	resp, err := http.Post(server.URL+"/map/alice", "application/json", strings.NewReader(`{"A":"Z"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "my Z")
}

func TestMapRejectsBadBody(t *testing.T) {
	server, _ := setupServer(t)

	resp, err := http.Post(server.URL+"/map/alice", "application/json", strings.NewReader(`not json`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWatchLongPoll(t *testing.T) {
	server, _ := setupServer(t)

	type result struct {
		status int
		body   string
	}
	watchDone := make(chan result, 1)
	go func() {
		status, body := get(t, server.URL+"/watch/bob")
		watchDone <- result{status, body}
	}()

	// Give the poll a moment to register, then mutate the board.
	time.Sleep(100 * time.Millisecond)
	status, _ := get(t, server.URL+"/flip/alice/0,0")
	require.Equal(t, http.StatusOK, status)

	select {
	case res := <-watchDone:
		assert.Equal(t, http.StatusOK, res.status)
		assert.Contains(t, res.body, "up A")
	case <-time.After(3 * time.Second):
		t.Fatal("watch poll did not resolve after a flip")
	}
}

func TestCreateBoard(t *testing.T) {
	server, boards := setupServer(t)

	resp, err := http.Post(server.URL+"/boards", "text/plain", strings.NewReader("2x2\nX\nX\nY\nY\n"))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	id := strings.TrimSpace(string(body))
	require.NotEmpty(t, id)
	_, ok := boards.Get(id)
	assert.True(t, ok, "created board should be registered")

	status, lookBody := get(t, server.URL+"/look/alice?board="+id)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, strings.HasPrefix(lookBody, "2x2\n"))
}

func TestCreateBoardRejectsBadDescription(t *testing.T) {
	server, _ := setupServer(t)

	resp, err := http.Post(server.URL+"/boards", "text/plain", strings.NewReader("2x2\nX\n"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
