// Package play runs one game of Haxagon: it owns a board, turns pointer
// gestures into queued actions and steps the simulation.
package play

import (
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/haxagon/internal/board"
	"github.com/gravitas-games/haxagon/internal/hex"
	"github.com/gravitas-games/haxagon/internal/pattern"
)

// Event is what a gesture input did, for presentation cues.
type Event int

const (
	// None means the input was ignored.
	None Event = iota
	// Extended means the gesture grew by a cell.
	Extended
	// Closed means a finished loop was turned into an action.
	Closed
	// Rejected means the gesture was dropped without an action.
	Rejected
)

func (e Event) String() string {
	switch e {
	case None:
		return "none"
	case Extended:
		return "extended"
	case Closed:
		return "closed"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Outcome reports the result of one step.
type Outcome struct {
	Over  bool
	Score int
}

// View is a snapshot of the game for rendering.
type View struct {
	board.Snapshot
	Gesture []hex.Axial
	Paused  bool
	Over    bool
}

// Game is not safe for concurrent use.
type Game struct {
	board   *board.Board
	gesture []hex.Axial
	paused  bool
	over    bool
	logger  *logrus.Entry
}

// New wraps a fresh board.
func New(b *board.Board, logger *logrus.Entry) *Game {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Game{board: b, logger: logger}
}

// Start builds a board from settings and wraps it.
func Start(settings board.Settings, logger *logrus.Entry, opts ...board.Option) (*Game, error) {
	b, err := board.New(settings, opts...)
	if err != nil {
		return nil, err
	}
	return New(b, logger), nil
}

// Board exposes the underlying board for reads.
func (g *Game) Board() *board.Board { return g.board }

// Gesture returns a copy of the loop being drawn.
func (g *Game) Gesture() []hex.Axial { return slices.Clone(g.gesture) }

// Paused reports whether stepping is suspended.
func (g *Game) Paused() bool { return g.paused }

// Over reports whether the board has filled up.
func (g *Game) Over() bool { return g.over }

// Pause suspends stepping and drops any gesture in progress.
func (g *Game) Pause() {
	if g.over {
		return
	}
	g.paused = true
	g.gesture = nil
}

// Resume continues a paused game.
func (g *Game) Resume() { g.paused = false }

func (g *Game) accepting() bool { return !g.paused && !g.over }

// Press starts a new gesture at c, replacing any gesture in progress.
func (g *Game) Press(c hex.Axial) Event {
	if !g.accepting() || !g.board.IsInBounds(c) {
		return None
	}
	g.gesture = []hex.Axial{c}
	return Extended
}

// Drag extends the gesture to c. The gesture only grows while it is still
// open and the longer path is either still open or closes the loop.
func (g *Game) Drag(c hex.Axial) Event {
	if !g.accepting() || len(g.gesture) == 0 || g.gesture[len(g.gesture)-1] == c {
		return None
	}
	if pattern.Validate(g.gesture, g.board) != pattern.Continue {
		return None
	}
	next := append(slices.Clone(g.gesture), c)
	switch pattern.Validate(next, g.board) {
	case pattern.Continue, pattern.Finished:
		g.gesture = next
		return Extended
	}
	return None
}

// Release ends the gesture. A closed loop is classified and queued, followed
// by a blob clear for whatever the action leaves behind. That first clear
// scores nothing; only the cascades after it do.
func (g *Game) Release() Event {
	if len(g.gesture) == 0 {
		return None
	}
	gesture := g.gesture
	g.gesture = nil
	if !g.accepting() || pattern.Validate(gesture, g.board) != pattern.Finished {
		return Rejected
	}

	action := pattern.Classify(gesture, g.board)
	g.board.PushAction(action)
	g.board.PushAction(board.ClearBlobs(0))
	g.logger.WithField("action", action.String()).Debug("action queued")
	return Closed
}

// Step advances the board one tick unless the game is paused or over.
func (g *Game) Step() Outcome {
	if g.accepting() && g.board.Tick() {
		g.over = true
		g.gesture = nil
		g.logger.WithFields(logrus.Fields{
			"score": g.board.Score(),
			"ticks": g.board.TickCount(),
		}).Info("board full")
	}
	return Outcome{Over: g.over, Score: g.board.Score()}
}

// View snapshots the game.
func (g *Game) View() View {
	return View{
		Snapshot: g.board.Snapshot(),
		Gesture:  g.Gesture(),
		Paused:   g.paused,
		Over:     g.over,
	}
}
