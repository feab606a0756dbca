package board

import (
	"fmt"

	"github.com/gravitas-games/haxagon/internal/hex"
)

// overflowThreshold is the marble count past which each cleared marble counts double.
const overflowThreshold = 6

// Score is one award of points.
type Score struct {
	Points     int
	Multiplier int
	// Blobs cleared at once; zero for color deletion.
	Blobs int
}

func (b *Board) execute(a Action) {
	switch a.Kind {
	case KindCycle:
		// swapping from the tail backwards moves every marble one step forward
		for i := len(a.Path) - 2; i >= 0; i-- {
			b.swap(a.Path[i], a.Path[i+1])
		}
	case KindDeleteColor:
		removed := 0
		for c, m := range b.marbles {
			if m == a.Color {
				delete(b.marbles, c)
				removed++
			}
		}
		b.award(Score{Points: removed, Multiplier: 1})
	case KindClearBlobs:
		blobs := b.FindBlobs()
		if len(blobs) == 0 {
			return
		}
		b.award(clearScore(blobs, a.Multiplier))
		// the fall after this clear may form new blobs; look again straight away
		b.pushFront(ClearBlobs(a.Multiplier + 1))
		for _, blob := range blobs {
			for _, c := range blob {
				delete(b.marbles, c)
			}
		}
	default:
		panic(fmt.Sprintf("board: cannot execute action kind %d", a.Kind))
	}
}

// ScoreFor previews the points a would award if it executed now.
func (b *Board) ScoreFor(a Action) (Score, bool) {
	switch a.Kind {
	case KindDeleteColor:
		n := 0
		for _, m := range b.marbles {
			if m == a.Color {
				n++
			}
		}
		return Score{Points: n, Multiplier: 1}, n > 0
	case KindClearBlobs:
		blobs := b.FindBlobs()
		if len(blobs) == 0 {
			return Score{}, false
		}
		return clearScore(blobs, a.Multiplier), true
	}
	return Score{}, false
}

// PendingClear lists the cells the front action will clear when it is a blob clear.
func (b *Board) PendingClear() []hex.Axial {
	if len(b.queue) == 0 || b.queue[0].Kind != KindClearBlobs {
		return nil
	}
	var out []hex.Axial
	for _, blob := range b.FindBlobs() {
		out = append(out, blob...)
	}
	return out
}

func clearScore(blobs [][]hex.Axial, multiplier int) Score {
	n := 0
	for _, blob := range blobs {
		n += len(blob)
	}
	points := (n + max(n-overflowThreshold, 0)) * multiplier * len(blobs)
	return Score{Points: points, Multiplier: multiplier, Blobs: len(blobs)}
}

func (b *Board) award(s Score) {
	if s.Points == 0 {
		return
	}
	b.score += s.Points
	b.recent = append([]Score{s}, b.recent...)
	if len(b.recent) > recentScoreLimit {
		b.recent = b.recent[:recentScoreLimit]
	}
}

func (b *Board) swap(x, y hex.Axial) {
	mx, okx := b.marbles[x]
	my, oky := b.marbles[y]
	delete(b.marbles, x)
	delete(b.marbles, y)
	if okx {
		b.marbles[y] = mx
	}
	if oky {
		b.marbles[x] = my
	}
}
