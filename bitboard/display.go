package bitboard

import (
	"errors"
	"fmt"
	"strings"
)

const (
	filledRune = '#'
	emptyRune  = '.'
)

var ErrBadBoardText = errors.New("malformed board text")

// String renders the board in its compact one-line form, rows separated by
// slashes, e.g. "########/......../...".
func (b Board) String() string {
	var sb strings.Builder
	for y := 0; y < Dim; y++ {
		if y > 0 {
			sb.WriteByte('/')
		}
		for x := 0; x < Dim; x++ {
			if b.Get(x, y) {
				sb.WriteRune(filledRune)
			} else {
				sb.WriteRune(emptyRune)
			}
		}
	}
	return sb.String()
}

// ToDisplayText renders the board as a labelled grid for terminals.
func (b Board) ToDisplayText() string {
	var sb strings.Builder
	sb.WriteString("   ")
	for x := 0; x < Dim; x++ {
		fmt.Fprintf(&sb, "%d ", x)
	}
	sb.WriteString("\n")
	for y := 0; y < Dim; y++ {
		fmt.Fprintf(&sb, "%2d ", y)
		for x := 0; x < Dim; x++ {
			if b.Get(x, y) {
				sb.WriteRune(filledRune)
			} else {
				sb.WriteRune(emptyRune)
			}
			sb.WriteByte(' ')
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Parse reads a board from text. Rows are separated by newlines or slashes
// and whitespace inside a row is ignored. '#', 'x', 'X' and '1' mark an
// occupied cell; '.', '-' and '0' mark an empty one.
func Parse(s string) (Board, error) {
	rows := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == '/' || r == '\n'
	})
	var cleaned []string
	for _, r := range rows {
		r = strings.Join(strings.Fields(r), "")
		if r != "" {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) != Dim {
		return Empty, fmt.Errorf("%w: want %d rows, got %d", ErrBadBoardText, Dim, len(cleaned))
	}
	var b Board
	for y, row := range cleaned {
		if len(row) != Dim {
			return Empty, fmt.Errorf("%w: row %d has %d cells", ErrBadBoardText, y, len(row))
		}
		for x, c := range row {
			switch c {
			case '#', 'x', 'X', '1':
				b = b.Set(x, y)
			case '.', '-', '0':
			default:
				return Empty, fmt.Errorf("%w: unexpected %q at (%d,%d)", ErrBadBoardText, c, x, y)
			}
		}
	}
	return b, nil
}

// Grid returns the board as grid[y][x] booleans.
func (b Board) Grid() [][]bool {
	grid := make([][]bool, Dim)
	for y := range grid {
		grid[y] = make([]bool, Dim)
		for x := range grid[y] {
			grid[y][x] = b.Get(x, y)
		}
	}
	return grid
}

// FromGrid builds a board from grid[y][x] booleans. Cells beyond the 8x8
// bounds are ignored.
func FromGrid(grid [][]bool) Board {
	var b Board
	for y, row := range grid {
		if y >= Dim {
			break
		}
		for x, cell := range row {
			if x >= Dim {
				break
			}
			if cell {
				b = b.Set(x, y)
			}
		}
	}
	return b
}
