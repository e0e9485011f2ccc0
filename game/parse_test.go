package game

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseValidBoard(t *testing.T) {
	b, err := Parse(testBoardText)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	rows, cols := b.Size()
	if rows != 3 || cols != 3 {
		t.Errorf("expected 3x3, got %dx%d", rows, cols)
	}
	if len(b.cells) != 9 {
		t.Fatalf("expected 9 cells, got %d", len(b.cells))
	}
	want := []string{"A", "A", "B", "B", "C", "C", "D", "D", "E"}
	for i, v := range want {
		if b.cells[i].value != v {
			t.Errorf("cell %d: expected %q, got %q", i, v, b.cells[i].value)
		}
		if b.cells[i].faceUp || b.cells[i].controller != "" {
			t.Errorf("cell %d should start face-down and unclaimed", i)
		}
	}
}

func TestParseWithoutTrailingNewline(t *testing.T) {
	if _, err := Parse("1x2\nA\nA"); err != nil {
		t.Errorf("Parse failed on input without trailing newline: %v", err)
	}
}

func TestParseBadHeader(t *testing.T) {
	bad := []string{
		"3y3\nA\n",
		"0x3\n",
		"-1x3\n",
		"3x\nA\nA\nA\n",
		"x3\n",
		"3x3x3\n",
		"three by three\n",
		"",
	}
	for _, text := range bad {
		_, err := Parse(text)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Parse(%q): expected ParseError, got %v", text, err)
		}
	}
}

func TestParseWrongCellCount(t *testing.T) {
	_, err := Parse("2x2\nA\nA\nB\n")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError for missing cell, got %v", err)
	}

	_, err = Parse("2x2\nA\nA\nB\nB\nB\n")
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError for extra cell, got %v", err)
	}
}

func TestParseRejectsEmptyCellLine(t *testing.T) {
	_, err := Parse("2x2\nA\n\nB\nB\n")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError for empty line, got %v", err)
	}
	if pe.Line != 3 {
		t.Errorf("expected error at line 3, got %d", pe.Line)
	}

	if _, err := Parse("2x2\nA\nA\n   \nB\n"); !errors.As(err, &pe) {
		t.Errorf("expected ParseError for whitespace-only line, got %v", err)
	}
}

func TestParseAllowsUnpairedSymbols(t *testing.T) {
	// Symbols need not pair up; a match is simply value equality.
	if _, err := Parse("1x3\nA\nB\nC\n"); err != nil {
		t.Errorf("Parse rejected unpaired symbols: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.txt")
	if err := os.WriteFile(path, []byte(testBoardText), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if rows, cols := b.Size(); rows != 3 || cols != 3 {
		t.Errorf("expected 3x3, got %dx%d", rows, cols)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGeneratePairsUp(t *testing.T) {
	symbols := []string{"X", "Y", "Z"}
	b, err := Generate(4, 4, symbols)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(b.cells) != 16 {
		t.Fatalf("expected 16 cells, got %d", len(b.cells))
	}

	counts := make(map[string]int)
	for i := range b.cells {
		v := b.cells[i].value
		found := false
		for _, s := range symbols {
			if v == s {
				found = true
			}
		}
		if !found {
			t.Errorf("cell %d holds unknown symbol %q", i, v)
		}
		counts[v]++
	}
	for v, n := range counts {
		if n%2 != 0 {
			t.Errorf("symbol %q appears %d times, want an even count", v, n)
		}
	}
}

func TestGenerateRejectsOddBoards(t *testing.T) {
	var pe *ParseError
	if _, err := Generate(3, 3, []string{"X"}); !errors.As(err, &pe) {
		t.Errorf("expected ParseError for odd cell count, got %v", err)
	}
	if _, err := Generate(0, 4, []string{"X"}); !errors.As(err, &pe) {
		t.Errorf("expected ParseError for zero rows, got %v", err)
	}
	if _, err := Generate(2, 2, nil); !errors.As(err, &pe) {
		t.Errorf("expected ParseError for empty symbol set, got %v", err)
	}
}

func TestParseErrorMessage(t *testing.T) {
	_, err := Parse("nope\n")
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("header error should name line 1, got %v", err)
	}
}
