package grid

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a short hex digest of the tiles, room layout and
// objective placements.
// Two grids with the same fingerprint render identically.
func (g *Grid) Fingerprint() string {
	h, _ := blake2b.New256(nil)
	var buf [8]byte
	writeInt := func(n int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(n)))
		h.Write(buf[:])
	}
	writeInt(g.Width)
	writeInt(g.Height)
	tiles := make([]byte, len(g.Tiles))
	for i, t := range g.Tiles {
		tiles[i] = byte(t)
	}
	h.Write(tiles)
	for _, r := range g.Rooms {
		writeInt(r.ID)
		writeInt(int(r.Role))
		writeInt(r.Bounds.X1)
		writeInt(r.Bounds.Y1)
		writeInt(r.Bounds.X2)
		writeInt(r.Bounds.Y2)
	}
	for _, o := range g.Objectives {
		h.Write([]byte(o.Kind))
		writeInt(o.At.X)
		writeInt(o.At.Y)
	}
	return hex.EncodeToString(h.Sum(nil)[:12])
}
