package export

import (
	"strings"

	"github.com/lawnchairsociety/dungen/internal/grid"
)

var roleGlyphs = map[grid.RoomRole]byte{
	grid.RoleStart:      'S',
	grid.RoleExit:       'E',
	grid.RoleBossArena:  'B',
	grid.RoleTreasure:   'T',
	grid.RoleCheckpoint: 'C',
}

var objectiveGlyphs = map[string]byte{
	"boss":      'b',
	"miniboss":  'm',
	"treasure":  't',
	"key":       'k',
	"safe_room": 's',
	"puzzle":    'p',
	"secret":    'x',
}

// ASCII draws the grid one character per tile with a capital letter at the
// centre of every room that has a role and a small letter on every
// objective.
func ASCII(g *grid.Grid) string {
	rows := make([][]byte, g.Height)
	for y := 0; y < g.Height; y++ {
		rows[y] = make([]byte, g.Width)
		for x := 0; x < g.Width; x++ {
			rows[y][x] = Glyph(g.At(x, y))
		}
	}
	for _, r := range g.Rooms {
		c, ok := roleGlyphs[r.Role]
		if !ok {
			continue
		}
		p := r.Center()
		if g.InBounds(p.X, p.Y) {
			rows[p.Y][p.X] = c
		}
	}
	for _, o := range g.Objectives {
		c, ok := objectiveGlyphs[o.Kind]
		if ok && g.InBounds(o.At.X, o.At.Y) {
			rows[o.At.Y][o.At.X] = c
		}
	}

	var b strings.Builder
	b.Grow((g.Width + 1) * g.Height)
	for _, row := range rows {
		b.Write(row)
		b.WriteByte('\n')
	}
	return b.String()
}

// Legend explains the characters used by ASCII.
func Legend() string {
	return strings.Join([]string{
		"# wall   . floor   + door   * marker",
		"S start  E exit    B boss arena  T treasure  C checkpoint",
		"b boss   m miniboss  t treasure  k key  s safe room  p puzzle  x secret",
	}, "\n")
}
