package life

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/suyash-sneo/lifeback/hash"
)

// Edges selects how cells beyond the border are treated.
type Edges string

const (
	// EdgesDead treats every cell outside the board as dead.
	EdgesDead Edges = "dead"
	// EdgesWrap joins opposite borders into a torus.
	EdgesWrap Edges = "wrap"
)

// ParseEdges validates an edges mode name.
func ParseEdges(s string) (Edges, error) {
	switch Edges(strings.ToLower(strings.TrimSpace(s))) {
	case EdgesDead, "":
		return EdgesDead, nil
	case EdgesWrap:
		return EdgesWrap, nil
	default:
		return "", fmt.Errorf("unknown edges mode %q (want dead or wrap)", s)
	}
}

// Grid is an immutable board. Every method that changes cells returns a new
// Grid, so a Grid handed to the history is never modified afterwards.
type Grid struct {
	width  int
	height int
	cells  []uint8
}

// NewGrid returns an all-dead board.
func NewGrid(width, height int) (Grid, error) {
	if width <= 0 || height <= 0 {
		return Grid{}, fmt.Errorf("grid size must be positive, got %dx%d", width, height)
	}
	return Grid{width: width, height: height, cells: make([]uint8, width*height)}, nil
}

// Width returns the number of columns.
func (g Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g Grid) Height() int { return g.height }

// InBounds reports whether (x, y) lies on the board.
func (g Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

// Alive reports the cell state; out-of-bounds cells are dead.
func (g Grid) Alive(x, y int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	return g.cells[y*g.width+x] == 1
}

// Population counts live cells.
func (g Grid) Population() int {
	n := 0
	for _, c := range g.cells {
		n += int(c)
	}
	return n
}

// Cells returns a copy of the row-major cell array (1 = alive).
func (g Grid) Cells() []uint8 {
	return append([]uint8(nil), g.cells...)
}

// Toggle flips one cell. Out-of-bounds coordinates return g unchanged.
func (g Grid) Toggle(x, y int) Grid {
	return g.Set(x, y, !g.Alive(x, y))
}

// Set assigns one cell. Out-of-bounds coordinates return g unchanged.
func (g Grid) Set(x, y int, alive bool) Grid {
	if !g.InBounds(x, y) {
		return g
	}
	out := g.clone()
	out.cells[y*g.width+x] = boolCell(alive)
	return out
}

// Clear returns an all-dead board of the same size.
func (g Grid) Clear() Grid {
	return Grid{width: g.width, height: g.height, cells: make([]uint8, len(g.cells))}
}

// Randomize fills a board of the same size, each cell alive with the given
// probability.
func (g Grid) Randomize(rng *rand.Rand, density float64) Grid {
	out := g.Clear()
	for i := range out.cells {
		if rng.Float64() < density {
			out.cells[i] = 1
		}
	}
	return out
}

// Step computes the next generation.
func (g Grid) Step(rule Rule, edges Edges) Grid {
	out := g.Clear()
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			n := g.neighbors(x, y, edges)
			idx := y*g.width + x
			if g.cells[idx] == 1 {
				out.cells[idx] = boolCell(rule.Survive[n])
			} else {
				out.cells[idx] = boolCell(rule.Birth[n])
			}
		}
	}
	return out
}

func (g Grid) neighbors(x, y int, edges Edges) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if edges == EdgesWrap {
				nx = (nx + g.width) % g.width
				ny = (ny + g.height) % g.height
			} else if !g.InBounds(nx, ny) {
				continue
			}
			n += int(g.cells[ny*g.width+nx])
		}
	}
	return n
}

// Equal reports whether both boards have the same size and cells.
func (g Grid) Equal(other Grid) bool {
	if g.width != other.width || g.height != other.height {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Fingerprint hashes the board for cheap repeat detection.
func (g Grid) Fingerprint() uint64 {
	return hash.Board(g.width, g.height, g.cells)
}

// Rows renders the board in plaintext form, one string per row.
func (g Grid) Rows(alive, dead rune) []string {
	rows := make([]string, g.height)
	var b strings.Builder
	for y := 0; y < g.height; y++ {
		b.Reset()
		for x := 0; x < g.width; x++ {
			if g.cells[y*g.width+x] == 1 {
				b.WriteRune(alive)
			} else {
				b.WriteRune(dead)
			}
		}
		rows[y] = b.String()
	}
	return rows
}

// String renders the board with 'O' for live cells and '.' for dead ones.
func (g Grid) String() string {
	return strings.Join(g.Rows('O', '.'), "\n")
}

func (g Grid) clone() Grid {
	return Grid{width: g.width, height: g.height, cells: append([]uint8(nil), g.cells...)}
}

func boolCell(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
