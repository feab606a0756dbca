package main

import (
	"context"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/haxagon/internal/board"
	"github.com/gravitas-games/haxagon/internal/hex"
	"github.com/gravitas-games/haxagon/internal/play"
	"github.com/gravitas-games/haxagon/internal/scores"
)

type cueLog struct {
	played []cue
}

func (l *cueLog) Play(c cue) { l.played = append(l.played, c) }
func (l *cueLog) Close()     {}

func (l *cueLog) count(c cue) int {
	n := 0
	for _, p := range l.played {
		if p == c {
			n++
		}
	}
	return n
}

func newTestClient(t *testing.T, settings board.Settings, store scores.Store) (*client, *cueLog) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 40)
	t.Cleanup(screen.Fini)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	cues := &cueLog{}
	c := &client{
		screen:   screen,
		settings: settings,
		player:   "ada",
		seed:     1,
		store:    store,
		cues:     cues,
		log:      logrus.NewEntry(logger),
	}
	require.NoError(t, c.newGame(context.Background()))
	return c, cues
}

func tiny() board.Settings {
	return board.Settings{
		Radius:           0,
		Gravity:          true,
		ClearBlobSize:    2,
		SpawnMultiplier:  60,
		MarbleColorCount: 3,
	}
}

func rowText(s tcell.SimulationScreen, y int) string {
	w, _ := s.Size()
	var b strings.Builder
	for x := range w {
		r, _, _, _ := s.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func TestCellMapping(t *testing.T) {
	c, _ := newTestClient(t, board.Classic(), nil)

	for _, a := range hex.Disk(hex.Origin, 5) {
		x, y := c.cellPos(a)
		assert.Equal(t, a, c.cellAt(x, y))
		assert.Equal(t, a, c.cellAt(x+1, y), "gap right of %v", a)
	}

	ox, oy := c.origin()
	assert.Equal(t, 40, ox)
	assert.Equal(t, 20, oy)
}

func TestDrawBoard(t *testing.T) {
	c, _ := newTestClient(t, board.Classic(), nil)
	c.draw()
	screen := c.screen.(tcell.SimulationScreen)

	// the border rings start full and the center starts empty
	x, y := c.cellPos(hex.Axial{Q: 5, R: 0})
	r, _, _, _ := screen.GetContent(x, y)
	assert.Equal(t, marbleRune, r)

	x, y = c.cellPos(hex.Origin)
	r, _, _, _ = screen.GetContent(x, y)
	assert.Equal(t, emptyRune, r)

	assert.Contains(t, rowText(screen, 0), "HAXAGON  classic  score 0  best 0")
	assert.Contains(t, rowText(screen, 1), "spawn 0/60")
	assert.Contains(t, rowText(screen, 39), "p: pause")
}

func TestMouseGestures(t *testing.T) {
	c, cues := newTestClient(t, board.Classic(), nil)
	triangle := board.Layout{
		{Q: 0, R: 0}: board.Red,
		{Q: 1, R: 0}: board.Green,
		{Q: 0, R: 1}: board.Blue,
	}
	b, err := board.New(board.Classic(), board.WithSeed(1), board.WithLayout(triangle))
	require.NoError(t, err)
	c.game = play.New(b, c.log)

	// an open path is rejected on release
	x, y := c.cellPos(hex.Origin)
	c.mouse(x, y, true)
	c.mouse(x, y, false)
	assert.Equal(t, []cue{cueReject}, cues.played)

	for _, a := range []hex.Axial{{Q: 0, R: 0}, {Q: 1, R: 0}, {Q: 0, R: 1}, {Q: 0, R: 0}} {
		x, y := c.cellPos(a)
		c.mouse(x, y, true)
	}
	assert.Len(t, c.game.Gesture(), 4)
	c.mouse(x, y, false)

	assert.Equal(t, 1, cues.count(cueClose))
	next, ok := c.game.Board().NextAction()
	require.True(t, ok)
	assert.Equal(t, board.KindCycle, next.Kind)
}

func TestKeys(t *testing.T) {
	c, _ := newTestClient(t, board.Classic(), nil)
	ctx := context.Background()
	key := func(r rune) {
		require.NoError(t, c.handle(ctx, tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)))
	}

	key('p')
	assert.True(t, c.game.Paused())
	assert.Contains(t, c.statusLine(c.game.View()), "PAUSED")
	key('p')
	assert.False(t, c.game.Paused())

	// restart only applies once the board is full
	game := c.game
	key('r')
	assert.Same(t, game, c.game)

	key('q')
	assert.True(t, c.quit)
}

func TestEscapeQuits(t *testing.T) {
	c, _ := newTestClient(t, board.Classic(), nil)
	require.NoError(t, c.handle(context.Background(), tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
	assert.True(t, c.quit)
}

func TestGameOverAndRestart(t *testing.T) {
	store := scores.NewMemory()
	c, cues := newTestClient(t, tiny(), store)
	ctx := context.Background()

	for range 10 {
		c.step(ctx)
	}
	require.True(t, c.game.Over())
	assert.Equal(t, 1, cues.count(cueOver))
	assert.Contains(t, c.statusLine(c.game.View()), "GAME OVER")
	assert.Nil(t, c.result, "custom boards are not recorded")

	require.NoError(t, c.handle(ctx, tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone)))
	assert.False(t, c.game.Over())
	assert.Equal(t, 2, c.games)
}

func TestFinishRecordsRankedScore(t *testing.T) {
	store := scores.NewMemory()
	ctx := context.Background()
	c, _ := newTestClient(t, board.Advanced(), store)

	c.finish(ctx, 120)
	require.NotNil(t, c.result)
	assert.True(t, c.result.NewBest())
	assert.Equal(t, 120, c.best)

	c.finish(ctx, 80)
	assert.False(t, c.result.NewBest())
	assert.Equal(t, 120, c.best)

	require.NoError(t, c.newGame(ctx))
	assert.Equal(t, 120, c.best)
	assert.Contains(t, c.header(c.game.View()), "best 120")
}

func TestQueueLine(t *testing.T) {
	v := play.View{Snapshot: board.Snapshot{
		SpawnTimer:    12,
		SpawnInterval: 40,
		RecentScores:  []board.Score{{Points: 6, Multiplier: 1}, {Points: 8, Multiplier: 2}},
	}}
	assert.Equal(t, "spawn 12/40  recent +6 +8x2", queueLine(v))

	next := board.ClearBlobs(2)
	v.NextAction = &next
	v.ActionTimer = 5
	v.QueueLen = 3
	v.PendingScore = &board.Score{Points: 4, Multiplier: 2}
	assert.Equal(t, "next clear_blobs 5/20 (+4x2) +2 queued  spawn 12/40  recent +6 +8x2", queueLine(v))
}

func TestElapsed(t *testing.T) {
	assert.Equal(t, "0:00", elapsed(0))
	assert.Equal(t, "1:05", elapsed(65*60))
}
