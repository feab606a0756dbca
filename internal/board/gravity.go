package board

import "github.com/gravitas-games/haxagon/internal/hex"

// centerGravity is the fall direction for the center cell, which has no sextant.
const centerGravity hex.Direction = 4

// fallTurns are tried in priority order relative to the local down direction.
var fallTurns = [3]hex.Angle{hex.Forward, hex.Left, hex.Right}

// gravitate lets every marble fall until none can move.
func (b *Board) gravitate() {
	if !b.settings.Gravity {
		return
	}
	for {
		moved := false
		for _, c := range b.occupied() {
			if to, ok := b.gravityStep(c); ok {
				b.marbles[to] = b.marbles[c]
				delete(b.marbles, c)
				moved = true
			}
		}
		if !moved {
			return
		}
	}
}

// gravityStep finds where c falls to, if it falls at all. A cell is held in
// place when at least two of the three cells below it are solid.
func (b *Board) gravityStep(c hex.Axial) (hex.Axial, bool) {
	down, ok := c.DirectionFromCenterCW()
	if !ok {
		down = centerGravity
	}

	var target hex.Axial
	open := false
	solid := 0
	for _, turn := range fallTurns {
		next := c.Neighbor(down.Rotate(turn))
		if b.IsSolid(next) {
			solid++
			continue
		}
		if !open {
			target, open = next, true
		}
	}
	if solid < 2 && open {
		return target, true
	}
	return c, false
}

// gravityAll follows gravityStep from c until it stops. c need not hold a
// marble, and the board's gravity setting is ignored.
func (b *Board) gravityAll(c hex.Axial) hex.Axial {
	for {
		next, ok := b.gravityStep(c)
		if !ok {
			return c
		}
		c = next
	}
}

// occupied lists the cells holding marbles in board order.
func (b *Board) occupied() []hex.Axial {
	out := make([]hex.Axial, 0, len(b.marbles))
	for _, c := range b.cells {
		if _, ok := b.marbles[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
