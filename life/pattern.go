package life

import (
	"bufio"
	"fmt"
	"sort"
	"strings"
)

// Pattern is a named starting arrangement in plaintext rows where 'O' or '*'
// marks a live cell and any other rune a dead one.
type Pattern struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Rows        []string `json:"rows" yaml:"rows"`
}

// Size returns the bounding box of the pattern.
func (p Pattern) Size() (width, height int) {
	for _, r := range p.Rows {
		if n := len([]rune(r)); n > width {
			width = n
		}
	}
	return width, len(p.Rows)
}

// Validate rejects unnamed or empty patterns.
func (p Pattern) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("pattern name is required")
	}
	if w, h := p.Size(); w == 0 || h == 0 {
		return fmt.Errorf("pattern %q has no cells", p.Name)
	}
	return nil
}

// ParsePlaintext reads the .cells format: lines starting with '!' are
// comments, "!Name: x" names the pattern and the remaining lines are rows.
func ParsePlaintext(src string) (Pattern, error) {
	var p Pattern
	var desc []string
	scanner := bufio.NewScanner(strings.NewReader(src))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, "!") {
			body := strings.TrimSpace(line[1:])
			if name, ok := strings.CutPrefix(body, "Name:"); ok {
				p.Name = strings.TrimSpace(name)
			} else if body != "" {
				desc = append(desc, body)
			}
			continue
		}
		p.Rows = append(p.Rows, line)
	}
	if err := scanner.Err(); err != nil {
		return Pattern{}, fmt.Errorf("read pattern: %w", err)
	}
	for len(p.Rows) > 0 && strings.TrimSpace(p.Rows[len(p.Rows)-1]) == "" {
		p.Rows = p.Rows[:len(p.Rows)-1]
	}
	p.Description = strings.Join(desc, " ")
	if w, h := p.Size(); w == 0 || h == 0 {
		return Pattern{}, fmt.Errorf("pattern has no rows")
	}
	return p, nil
}

// FromGrid captures the live bounding box of g as a pattern.
func FromGrid(name string, g Grid) Pattern {
	minX, minY, maxX, maxY := g.width, g.height, -1, -1
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if !g.Alive(x, y) {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	p := Pattern{Name: name}
	if maxX < 0 {
		p.Rows = []string{"."}
		return p
	}
	var b strings.Builder
	for y := minY; y <= maxY; y++ {
		b.Reset()
		for x := minX; x <= maxX; x++ {
			if g.Alive(x, y) {
				b.WriteByte('O')
			} else {
				b.WriteByte('.')
			}
		}
		p.Rows = append(p.Rows, b.String())
	}
	return p
}

// Place stamps the pattern's live cells onto g with its top-left corner at
// (x, y). Cells falling outside the board are dropped.
func Place(g Grid, p Pattern, x, y int) Grid {
	out := g.clone()
	for dy, row := range p.Rows {
		for dx, c := range []rune(row) {
			if c != 'O' && c != '*' {
				continue
			}
			if out.InBounds(x+dx, y+dy) {
				out.cells[(y+dy)*out.width+x+dx] = 1
			}
		}
	}
	return out
}

// PlaceCentered stamps the pattern in the middle of g.
func PlaceCentered(g Grid, p Pattern) Grid {
	w, h := p.Size()
	return Place(g, p, (g.width-w)/2, (g.height-h)/2)
}

// Builtins returns the bundled pattern library sorted by name.
func Builtins() []Pattern {
	out := make([]Pattern, len(builtins))
	copy(out, builtins)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

var builtins = []Pattern{
	{Name: "block", Description: "still life", Rows: []string{"OO", "OO"}},
	{Name: "blinker", Description: "period 2 oscillator", Rows: []string{"OOO"}},
	{Name: "toad", Description: "period 2 oscillator", Rows: []string{".OOO", "OOO."}},
	{Name: "beacon", Description: "period 2 oscillator", Rows: []string{"OO..", "OO..", "..OO", "..OO"}},
	{Name: "glider", Description: "smallest spaceship", Rows: []string{".O.", "..O", "OOO"}},
	{Name: "lwss", Description: "lightweight spaceship", Rows: []string{".O..O", "O....", "O...O", "OOOO."}},
	{Name: "r-pentomino", Description: "methuselah, stabilizes after 1103 generations", Rows: []string{".OO", "OO.", ".O."}},
	{Name: "diehard", Description: "vanishes after 130 generations", Rows: []string{"......O.", "OO......", ".O...OOO"}},
	{Name: "acorn", Description: "methuselah", Rows: []string{".O.....", "...O...", "OO..OOO"}},
	{Name: "pulsar", Description: "period 3 oscillator", Rows: []string{
		"..OOO...OOO..",
		".............",
		"O....O.O....O",
		"O....O.O....O",
		"O....O.O....O",
		"..OOO...OOO..",
		".............",
		"..OOO...OOO..",
		"O....O.O....O",
		"O....O.O....O",
		"O....O.O....O",
		".............",
		"..OOO...OOO..",
	}},
	{Name: "gosper-glider-gun", Description: "emits a glider every 30 generations", Rows: []string{
		"........................O...........",
		"......................O.O...........",
		"............OO......OO............OO",
		"...........O...O....OO............OO",
		"OO........O.....O...OO..............",
		"OO........O...O.OO....O.O...........",
		"..........O.....O.......O...........",
		"...........O...O....................",
		"............OO......................",
	}},
}
