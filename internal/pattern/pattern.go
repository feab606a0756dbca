// Package pattern checks the loops players draw across the board and turns
// closed loops into board actions.
package pattern

import (
	"slices"

	"github.com/gravitas-games/haxagon/internal/board"
	"github.com/gravitas-games/haxagon/internal/hex"
)

// Marbles is the read side of a board that patterns are checked against.
type Marbles interface {
	Marble(c hex.Axial) (board.Marble, bool)
}

// Validity says what a path can become.
type Validity int

const (
	// Continue means the path is valid but not yet a closed loop.
	Continue Validity = iota
	// Invalid paths should be discarded.
	Invalid
	// Finished paths are closed loops.
	Finished
)

func (v Validity) String() string {
	switch v {
	case Continue:
		return "continue"
	case Invalid:
		return "invalid"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// Validate classifies a path drawn across occupied cells. Paths are grown one
// cell at a time, so only the newest cell is checked for crossings.
func Validate(path []hex.Axial, marbles Marbles) Validity {
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		if _, ok := marbles.Marble(a); !ok {
			return Invalid
		}
		if _, ok := marbles.Marble(b); !ok {
			return Invalid
		}
		if a.Distance(b) != 1 {
			return Invalid
		}
	}

	n := len(path)
	switch {
	case n <= 2:
		return Continue
	case n == 3:
		// out and straight back again
		if path[2] == path[0] {
			return Invalid
		}
		return Continue
	}

	first, last := path[0], path[n-1]
	if slices.Contains(path[1:n-1], last) {
		return Invalid
	}
	if first == last {
		return Finished
	}
	return Continue
}

// Classify turns a finished loop into the action it triggers. A regular
// hexagon whose corners share a color deletes that color; any other loop
// cycles its marbles.
func Classify(loop []hex.Axial, marbles Marbles) board.Action {
	if color, ok := hexagonColor(loop, marbles); ok {
		return board.DeleteColor(color)
	}
	// the closing cell repeats the first; a cycle must not
	return board.Cycle(loop[:len(loop)-1])
}

// hexagonColor reports the shared corner color when loop is a regular hexagon:
// every turn goes the same way by one sixth, the sides between turns are the
// same length, and the marbles on the corners and the start all match.
func hexagonColor(loop []hex.Axial, marbles Marbles) (board.Marble, bool) {
	if len(loop) < 2 {
		return 0, false
	}
	headings := make([]hex.Direction, 0, len(loop)-1)
	for i := 1; i < len(loop); i++ {
		d, ok := loop[i-1].DirectionTo(loop[i])
		if !ok {
			return 0, false
		}
		headings = append(headings, d)
	}

	color, ok := marbles.Marble(loop[0])
	if !ok {
		return 0, false
	}

	side, sideSet := 0, false
	var turn hex.Angle
	run := 0
	for i := 1; i < len(headings); i++ {
		angle := headings[i].Sub(headings[i-1])
		switch angle {
		case hex.Forward:
			run++
			continue
		case hex.Left, hex.Right:
		default:
			return 0, false
		}

		if corner, ok := marbles.Marble(loop[i]); !ok || corner != color {
			return 0, false
		}
		if !sideSet {
			side, turn, sideSet = run, angle, true
		} else if run != side || angle != turn {
			return 0, false
		}
		run = 0
	}
	return color, true
}
