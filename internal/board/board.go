// Package board is the marble simulation: a hex board that spawns marbles on a
// timer, lets them fall away from the center, and resolves a queue of actions
// that rotate, delete, and clear them.
//
// A Board is not safe for concurrent use. Presentation code should read it
// through Snapshot between ticks.
package board

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/haxagon/internal/hex"
)

// recentScoreLimit caps the RecentScores history.
const recentScoreLimit = 8

// Board is the play field and everything that drives it.
type Board struct {
	marbles map[hex.Axial]Marble
	// every in-bounds cell in a fixed order; all whole-board passes walk this
	cells []hex.Axial
	score int

	queue []Action
	// counts up until the front action executes
	actionTimer int

	// counts up until the next marble spawns
	spawnTimer   int
	nextSpawn    hex.Axial
	hasNextSpawn bool

	tickCount int
	recent    []Score

	settings Settings
	rng      *rand.Rand
}

// Option configures New.
type Option func(*options)

type options struct {
	rng    *rand.Rand
	layout Layout
}

// WithRand sets the random source used for every marble the board creates.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithSeed seeds a private random source.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithLayout starts the board from the given marbles instead of random rings.
func WithLayout(layout Layout) Option {
	return func(o *options) { o.layout = layout }
}

// New builds a board from settings. Unless WithLayout is given, the outer
// BorderWidth rings are filled with random marbles, none of which starts in a
// clearable blob.
func New(settings Settings, opts ...Option) (*Board, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	pad := settings.Radius - settings.BorderWidth
	b := &Board{
		marbles:      make(map[hex.Axial]Marble),
		cells:        hex.Disk(hex.Origin, settings.Radius),
		nextSpawn:    hex.Axial{Q: pad, R: 0},
		hasNextSpawn: true,
		settings:     settings,
		rng:          o.rng,
	}

	if o.layout != nil {
		for c, m := range o.layout {
			if !b.IsInBounds(c) {
				return nil, fmt.Errorf("%w: layout cell %v outside radius %d", ErrInvalidSettings, c, settings.Radius)
			}
			if int(m) >= MarbleColors {
				return nil, fmt.Errorf("%w: layout cell %v holds unknown marble %d", ErrInvalidSettings, c, m)
			}
			b.marbles[c] = m
		}
	} else {
		for dist := pad + 1; dist <= settings.Radius; dist++ {
			for _, c := range hex.Ring(hex.Origin, dist) {
				b.spawnMarble(c)
			}
		}
	}
	b.resettleSpawn()

	logrus.WithFields(logrus.Fields{
		"radius":  settings.Radius,
		"mode":    settings.ModeKey,
		"marbles": len(b.marbles),
	}).Debug("board created")
	return b, nil
}

// Tick runs one simulation step. It returns true when the board has no room
// left to spawn, which ends the game.
func (b *Board) Tick() bool {
	b.spawnTimer++
	if b.spawnTimer >= b.SpawnInterval() {
		b.spawnTimer = 0

		if !b.hasNextSpawn {
			return true
		}
		sp := b.nextSpawn
		b.spawnMarble(sp)
		b.gravitate()
		b.queue = append(b.queue, ClearBlobs(1))
		b.nextSpawn, b.hasNextSpawn = b.findNextSpawnPoint(sp)
	}

	if b.advanceQueue() {
		b.execute(b.popAction())
		b.actionTimer = 0
		b.gravitate()
		// the action likely moved marbles out from under the spawn point
		b.resettleSpawn()
	}

	b.tickCount++
	return false
}

// advanceQueue drops stale blob clears from the front of the queue and counts
// the front action down. It reports whether the front action is due.
func (b *Board) advanceQueue() bool {
	for len(b.queue) > 0 {
		front := b.queue[0]
		if front.Kind == KindClearBlobs && len(b.FindBlobs()) == 0 {
			b.queue = b.queue[1:]
			continue
		}
		b.actionTimer++
		return b.actionTimer >= front.Duration()
	}
	return false
}

func (b *Board) popAction() Action {
	if len(b.queue) == 0 {
		panic("board: executing an action from an empty queue")
	}
	a := b.queue[0]
	b.queue = b.queue[1:]
	return a
}

func (b *Board) pushFront(a Action) {
	b.queue = slices.Insert(b.queue, 0, a)
}

// resettleSpawn moves the planned spawn point to where it would come to rest,
// picking a fresh point if that cell has been filled.
func (b *Board) resettleSpawn() {
	if !b.hasNextSpawn {
		return
	}
	sp := b.gravityAll(b.nextSpawn)
	if _, taken := b.marbles[sp]; taken {
		b.nextSpawn, b.hasNextSpawn = b.findNextSpawnPoint(sp)
		return
	}
	b.nextSpawn = sp
}

// SpawnInterval is the number of ticks between spawns at the current tick count.
func (b *Board) SpawnInterval() int {
	var out int
	switch t := b.tickCount; {
	case t < 60*10:
		out = 60
	case t < 60*20:
		out = 50
	case t < 60*40:
		out = 40
	case t < 60*60:
		out = 30
	case t < 60*120:
		out = 40
	default:
		out = max(40-t/(60*30), 20)
	}
	return int(float32(out) / b.settings.SpawnMultiplier)
}

// PushAction queues an action behind everything already queued. Cycle paths
// must lie inside the board.
func (b *Board) PushAction(a Action) {
	if a.Kind == KindCycle {
		for _, c := range a.Path {
			if !b.IsInBounds(c) {
				panic(fmt.Sprintf("board: cycle through out-of-bounds cell %v", c))
			}
		}
	}
	a.Duration() // rejects unknown kinds
	b.queue = append(b.queue, a.Clone())
}

// NextAction returns the action at the front of the queue.
func (b *Board) NextAction() (Action, bool) {
	if len(b.queue) == 0 {
		return Action{}, false
	}
	return b.queue[0].Clone(), true
}

// QueueLen is the number of queued actions.
func (b *Board) QueueLen() int { return len(b.queue) }

// ActionTimer is how long the front action has been resolving.
func (b *Board) ActionTimer() int { return b.actionTimer }

// NextSpawnTimer is how long since the last spawn.
func (b *Board) NextSpawnTimer() int { return b.spawnTimer }

// NextSpawnPoint is where the next marble will appear, if anywhere.
func (b *Board) NextSpawnPoint() (hex.Axial, bool) { return b.nextSpawn, b.hasNextSpawn }

// Marbles returns a copy of every marble on the board.
func (b *Board) Marbles() Layout { return maps.Clone(b.marbles) }

// Marble returns the marble at c.
func (b *Board) Marble(c hex.Axial) (Marble, bool) {
	m, ok := b.marbles[c]
	return m, ok
}

// IsInBounds reports whether c lies on the board.
func (b *Board) IsInBounds(c hex.Axial) bool {
	return c.Distance(hex.Origin) <= b.settings.Radius
}

// IsSolid reports whether c is off the board or holds a marble.
func (b *Board) IsSolid(c hex.Axial) bool {
	if !b.IsInBounds(c) {
		return true
	}
	_, ok := b.marbles[c]
	return ok
}

// Radius of the board.
func (b *Board) Radius() int { return b.settings.Radius }

// Settings the board was built from.
func (b *Board) Settings() Settings { return b.settings }

// Score so far.
func (b *Board) Score() int { return b.score }

// TickCount is the number of completed ticks.
func (b *Board) TickCount() int { return b.tickCount }

// RecentScores lists the latest awards, newest first.
func (b *Board) RecentScores() []Score { return slices.Clone(b.recent) }

// spawnMarble places a random marble at c without clobbering an existing one
// or forming a blob big enough to clear. It reports whether it placed one.
func (b *Board) spawnMarble(c hex.Axial) bool {
	if b.IsSolid(c) {
		return false
	}
	m := RandomMarble(b.rng, b.settings.MarbleColorCount)
	for range MarbleColors {
		b.marbles[c] = m
		if len(b.floodfill(c)) < b.settings.ClearBlobSize {
			return true
		}
		m = m.Next()
	}
	panic(fmt.Sprintf("board: no color fits at %v", c))
}
