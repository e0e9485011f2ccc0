package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"memory-scramble-server/config"
	"memory-scramble-server/game"
	"memory-scramble-server/loghandler"
	"memory-scramble-server/session"
	"memory-scramble-server/web"
	"memory-scramble-server/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found; using environment variables")
	}

	cfg := config.Load()

	logger := slog.New(loghandler.NewCompactHandler(os.Stderr, loghandler.ParseLevel(cfg.Level())))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		"board_file", cfg.BoardFile, "rows", cfg.BoardRows, "cols", cfg.BoardCols,
		"port", cfg.WSPort, "check_invariants", cfg.CheckInvariants)

	board, err := buildBoard(cfg)
	if err != nil {
		logger.Error("failed to build board", "err", err)
		os.Exit(1)
	}
	board.SetLogger(logger)
	if cfg.CheckInvariants {
		board.EnableInvariantChecks()
	}

	boards := session.NewRegistry(logger)
	boards.Add(session.DefaultBoardID, board)
	defer boards.CloseAll()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub(cfg, boards, logger)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r)
	})
	web.NewHandler(cfg, boards, logger).Register(mux)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WSPort),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("Memory Scramble server listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// buildBoard loads the configured board file, or deals a random board when
// no file is configured.
func buildBoard(cfg *config.Config) (*game.Board, error) {
	if cfg.BoardFile != "" {
		return game.LoadFile(cfg.BoardFile)
	}
	return game.Generate(cfg.BoardRows, cfg.BoardCols, config.DefaultSymbols)
}
