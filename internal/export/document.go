// Package export serializes finished levels for the renderer: a document
// for YAML files and the WebSocket handoff, and a plain ASCII map.
package export

import (
	"fmt"
	"strings"

	"github.com/lawnchairsociety/dungen/internal/grid"
	"github.com/lawnchairsociety/dungen/internal/mission"
)

// FormatVersion is bumped whenever the document layout changes.
const FormatVersion = 2

// Info is the generation metadata stored alongside the tiles.
type Info struct {
	Input       string
	Source      string
	Algorithm   string
	Params      map[string]any
	Mission     mission.Spec
	Seed        int64
	Fingerprint string
}

// Document is a level in renderer-ready form.
type Document struct {
	Version     int               `yaml:"version" json:"version"`
	Width       int               `yaml:"width" json:"width"`
	Height      int               `yaml:"height" json:"height"`
	Seed        int64             `yaml:"seed" json:"seed"`
	Input       string            `yaml:"input,omitempty" json:"input,omitempty"`
	Source      string            `yaml:"source,omitempty" json:"source,omitempty"`
	Algorithm   string            `yaml:"algorithm" json:"algorithm"`
	Fingerprint string            `yaml:"fingerprint" json:"fingerprint"`
	Params      map[string]any    `yaml:"params" json:"params"`
	Mission     mission.Spec      `yaml:"mission" json:"mission"`
	Legend      map[string]string `yaml:"legend" json:"legend"`
	Tiles       []string          `yaml:"tiles" json:"tiles"`
	Rooms       []RoomDoc         `yaml:"rooms" json:"rooms"`
	Corridors   []CorridorDoc     `yaml:"corridors,omitempty" json:"corridors,omitempty"`
	Objectives  []ObjectiveDoc    `yaml:"objectives,omitempty" json:"objectives,omitempty"`
}

// RoomDoc is a room in a Document.
type RoomDoc struct {
	ID     int      `yaml:"id" json:"id"`
	Role   string   `yaml:"role" json:"role"`
	X      int      `yaml:"x" json:"x"`
	Y      int      `yaml:"y" json:"y"`
	Width  int      `yaml:"width" json:"width"`
	Height int      `yaml:"height" json:"height"`
	Cells  [][2]int `yaml:"cells,omitempty,flow" json:"cells,omitempty"`
}

// CorridorDoc is a corridor in a Document. From and To are room IDs, -1
// when the end is not a room.
type CorridorDoc struct {
	From   int      `yaml:"from" json:"from"`
	To     int      `yaml:"to" json:"to"`
	Branch bool     `yaml:"branch,omitempty" json:"branch,omitempty"`
	Path   [][2]int `yaml:"path,flow" json:"path"`
}

// ObjectiveDoc is a placed objective in a Document. Room is -1 outside
// rooms.
type ObjectiveDoc struct {
	Type        string `yaml:"type" json:"type"`
	Placement   string `yaml:"placement" json:"placement"`
	X           int    `yaml:"x" json:"x"`
	Y           int    `yaml:"y" json:"y"`
	Room        int    `yaml:"room" json:"room"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

var glyphs = map[grid.TileKind]byte{
	grid.TileWall:   '#',
	grid.TileFloor:  '.',
	grid.TileDoor:   '+',
	grid.TileMarker: '*',
}

// Glyph returns the map character for a tile kind.
func Glyph(t grid.TileKind) byte {
	if c, ok := glyphs[t]; ok {
		return c
	}
	return '?'
}

// ParseGlyph returns the tile kind drawn as c.
func ParseGlyph(c byte) (grid.TileKind, bool) {
	for t, g := range glyphs {
		if g == c {
			return t, true
		}
	}
	return grid.TileWall, false
}

func tileLegend() map[string]string {
	out := make(map[string]string, len(glyphs))
	for t, g := range glyphs {
		out[string(g)] = t.String()
	}
	return out
}

// NewDocument builds a document from a finished grid.
func NewDocument(g *grid.Grid, info Info) Document {
	doc := Document{
		Version:     FormatVersion,
		Width:       g.Width,
		Height:      g.Height,
		Seed:        info.Seed,
		Input:       info.Input,
		Source:      info.Source,
		Algorithm:   info.Algorithm,
		Fingerprint: info.Fingerprint,
		Params:      info.Params,
		Mission:     info.Mission,
		Legend:      tileLegend(),
		Tiles:       tileRows(g),
	}
	if doc.Fingerprint == "" {
		doc.Fingerprint = g.Fingerprint()
	}

	for _, r := range g.Rooms {
		rd := RoomDoc{
			ID:     r.ID,
			Role:   r.Role.String(),
			X:      r.Bounds.X1,
			Y:      r.Bounds.Y1,
			Width:  r.Bounds.Width(),
			Height: r.Bounds.Height(),
		}
		for _, c := range r.Cells {
			rd.Cells = append(rd.Cells, [2]int{c.X, c.Y})
		}
		doc.Rooms = append(doc.Rooms, rd)
	}
	for _, c := range g.Corridors {
		cd := CorridorDoc{From: c.From, To: c.To, Branch: c.Branch}
		for _, p := range c.Path {
			cd.Path = append(cd.Path, [2]int{p.X, p.Y})
		}
		doc.Corridors = append(doc.Corridors, cd)
	}
	for _, o := range g.Objectives {
		doc.Objectives = append(doc.Objectives, ObjectiveDoc{
			Type:        o.Kind,
			Placement:   o.Rule,
			X:           o.At.X,
			Y:           o.At.Y,
			Room:        o.Room,
			Description: o.Description,
		})
	}
	return doc
}

func tileRows(g *grid.Grid) []string {
	rows := make([]string, g.Height)
	line := make([]byte, g.Width)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			line[x] = Glyph(g.At(x, y))
		}
		rows[y] = string(line)
	}
	return rows
}

// Grid rebuilds the grid a document describes. Room IDs are reassigned in
// document order.
func (d Document) Grid() (*grid.Grid, error) {
	if d.Width <= 0 || d.Height <= 0 || len(d.Tiles) != d.Height {
		return nil, fmt.Errorf("document has %d rows for a %dx%d grid", len(d.Tiles), d.Width, d.Height)
	}
	g := grid.New(d.Width, d.Height)
	for y, row := range d.Tiles {
		if len(row) != d.Width {
			return nil, fmt.Errorf("row %d has %d tiles, want %d", y, len(row), d.Width)
		}
		for x := 0; x < len(row); x++ {
			t, ok := ParseGlyph(row[x])
			if !ok {
				return nil, fmt.Errorf("unknown tile %q at %d,%d", row[x], x, y)
			}
			g.Set(x, y, t)
		}
	}

	ids := map[int]int{-1: -1}
	for _, rd := range d.Rooms {
		role, ok := grid.ParseRoomRole(rd.Role)
		if !ok {
			return nil, fmt.Errorf("room %d has unknown role %q", rd.ID, rd.Role)
		}
		if len(rd.Cells) > 0 {
			cells := make([]grid.Point, len(rd.Cells))
			for i, c := range rd.Cells {
				cells[i] = grid.Point{X: c[0], Y: c[1]}
			}
			ids[rd.ID] = g.AddIrregularRoom(cells, role)
			continue
		}
		ids[rd.ID] = g.AddRoom(grid.NewRect(rd.X, rd.Y, rd.Width, rd.Height), role)
	}
	for _, cd := range d.Corridors {
		c := grid.Corridor{From: lookupID(ids, cd.From), To: lookupID(ids, cd.To), Branch: cd.Branch}
		for _, p := range cd.Path {
			c.Path = append(c.Path, grid.Point{X: p[0], Y: p[1]})
		}
		g.AddCorridor(c)
	}
	for _, od := range d.Objectives {
		if !g.InBounds(od.X, od.Y) {
			return nil, fmt.Errorf("objective %q at %d,%d is off the map", od.Type, od.X, od.Y)
		}
		g.AddObjective(grid.Objective{
			Kind:        od.Type,
			Rule:        od.Placement,
			At:          grid.Point{X: od.X, Y: od.Y},
			Room:        lookupID(ids, od.Room),
			Description: od.Description,
		})
	}
	return g, nil
}

func lookupID(ids map[int]int, id int) int {
	if mapped, ok := ids[id]; ok {
		return mapped
	}
	return -1
}

// Summary is a short human-readable description of the document.
func (d Document) Summary() string {
	roles := map[string]int{}
	for _, r := range d.Rooms {
		roles[r.Role]++
	}
	var parts []string
	for _, role := range []string{"start", "exit", "boss_arena", "checkpoint", "treasure", "normal"} {
		if n := roles[role]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", role, n))
		}
	}
	out := fmt.Sprintf("%s %dx%d seed=%d mission=%s rooms[%s]",
		d.Algorithm, d.Width, d.Height, d.Seed, d.Mission.Type, strings.Join(parts, " "))
	if len(d.Objectives) == 0 {
		return out
	}
	kinds := map[string]int{}
	var order []string
	for _, o := range d.Objectives {
		if kinds[o.Type] == 0 {
			order = append(order, o.Type)
		}
		kinds[o.Type]++
	}
	parts = parts[:0]
	for _, k := range order {
		parts = append(parts, fmt.Sprintf("%s=%d", k, kinds[k]))
	}
	return out + " objectives[" + strings.Join(parts, " ") + "]"
}
