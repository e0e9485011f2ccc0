package game

import (
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var headerPattern = regexp.MustCompile(`^([1-9][0-9]*)x([1-9][0-9]*)$`)

// Parse builds a board from its textual description: a RxC header line
// followed by R*C lines with one card symbol each, in row-major order.
// Symbols are opaque strings compared by equality; they need not form
// pairs. The returned board is not running; start it with go b.Run().
func Parse(text string) (*Board, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	// A single trailing newline is the usual way these files end.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) == 0 {
		return nil, &ParseError{Reason: "empty input"}
	}

	m := headerPattern.FindStringSubmatch(strings.TrimSpace(lines[0]))
	if m == nil {
		return nil, &ParseError{Line: 1, Reason: fmt.Sprintf("header %q does not match ROWSxCOLS", lines[0])}
	}
	rows, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, &ParseError{Line: 1, Reason: "row count out of range"}
	}
	cols, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, &ParseError{Line: 1, Reason: "column count out of range"}
	}

	body := lines[1:]
	if len(body) != rows*cols {
		return nil, &ParseError{Reason: fmt.Sprintf("expected %d card lines for a %dx%d board, got %d", rows*cols, rows, cols, len(body))}
	}
	values := make([]string, len(body))
	for i, line := range body {
		v := strings.TrimSpace(line)
		if v == "" {
			return nil, &ParseError{Line: i + 2, Reason: "empty card line"}
		}
		values[i] = v
	}
	return newBoard(rows, cols, values), nil
}

// LoadFile reads a board description from disk.
func LoadFile(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Generate builds a randomly shuffled board where every symbol appears an
// even number of times, cycling through the given symbols. The cell count
// must be even so the cards pair up.
func Generate(rows, cols int, symbols []string) (*Board, error) {
	if rows < 1 || cols < 1 {
		return nil, &ParseError{Reason: "rows and cols must be positive"}
	}
	if len(symbols) == 0 {
		return nil, &ParseError{Reason: "no symbols to deal"}
	}
	total := rows * cols
	if total%2 != 0 {
		return nil, &ParseError{Reason: fmt.Sprintf("%dx%d board has an odd number of cells", rows, cols)}
	}

	values := make([]string, total)
	for i := 0; i < total/2; i++ {
		s := symbols[i%len(symbols)]
		values[2*i] = s
		values[2*i+1] = s
	}
	rand.Shuffle(total, func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})
	return newBoard(rows, cols, values), nil
}
