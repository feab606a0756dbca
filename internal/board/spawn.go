package board

import "github.com/gravitas-games/haxagon/internal/hex"

// findNextSpawnPoint picks the spawn point that follows prev. It walks the
// edge of the marble mass keeping a wall on its left; when there is no wall to
// follow it takes the nearest empty cell. The result is always settled by
// gravity, even on boards without it. It reports false when the board is full.
func (b *Board) findNextSpawnPoint(prev hex.Axial) (hex.Axial, bool) {
	for _, d := range hex.AllDirections() {
		ahead := prev.Neighbor(d)
		wall := prev.Neighbor(d.Rotate(hex.Left))
		if !b.IsSolid(ahead) && b.IsSolid(wall) {
			return b.gravityAll(ahead), true
		}
	}

	best, found, bestDist := hex.Axial{}, false, 0
	for _, c := range b.cells {
		if _, taken := b.marbles[c]; taken {
			continue
		}
		if d := c.Distance(prev); !found || d < bestDist {
			best, found, bestDist = c, true, d
		}
	}
	if !found {
		return hex.Axial{}, false
	}
	return b.gravityAll(best), true
}
