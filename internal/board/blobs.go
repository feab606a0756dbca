package board

import "github.com/gravitas-games/haxagon/internal/hex"

// FindBlobs returns every connected group of same-colored marbles with at
// least ClearBlobSize members.
func (b *Board) FindBlobs() [][]hex.Axial {
	seen := make(map[hex.Axial]bool, len(b.marbles))
	var out [][]hex.Axial
	for _, c := range b.occupied() {
		if seen[c] {
			continue
		}
		blob := b.floodfill(c)
		for _, m := range blob {
			seen[m] = true
		}
		if len(blob) >= b.settings.ClearBlobSize {
			out = append(out, blob)
		}
	}
	return out
}

// floodfill collects every cell connected to c through marbles of c's color.
func (b *Board) floodfill(c hex.Axial) []hex.Axial {
	color, ok := b.marbles[c]
	if !ok {
		return nil
	}

	seen := map[hex.Axial]bool{c: true}
	todo := []hex.Axial{c}
	var blob []hex.Axial
	for len(todo) > 0 {
		cur := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		blob = append(blob, cur)
		for _, n := range cur.Neighbors() {
			if seen[n] {
				continue
			}
			if m, ok := b.marbles[n]; ok && m == color {
				seen[n] = true
				todo = append(todo, n)
			}
		}
	}
	return blob
}
