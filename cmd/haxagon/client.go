package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/haxagon/internal/board"
	"github.com/gravitas-games/haxagon/internal/hex"
	"github.com/gravitas-games/haxagon/internal/play"
	"github.com/gravitas-games/haxagon/internal/scores"
)

// client drives one terminal session: it feeds tcell input into a game,
// steps it on a ticker and redraws the screen.
type client struct {
	screen   tcell.Screen
	settings board.Settings
	player   string
	seed     uint64
	store    scores.Store
	cues     cuePlayer
	log      *logrus.Entry

	game    *play.Game
	games   int
	best    int
	result  *scores.Result
	status  string
	pressed bool
	quit    bool
}

// newGame replaces the current game with a fresh board.
func (c *client) newGame(ctx context.Context) error {
	var opts []board.Option
	if c.seed != 0 {
		opts = append(opts, board.WithSeed(c.seed+uint64(c.games)))
	}
	game, err := play.Start(c.settings, c.log, opts...)
	if err != nil {
		return err
	}
	best, err := bestScore(ctx, c.store, c.player, c.settings.ModeKey)
	if err != nil {
		c.log.WithError(err).Warn("Failed to load best score")
	}

	c.game = game
	c.games++
	c.best = best
	c.result = nil
	c.status = ""
	c.pressed = false
	return nil
}

func (c *client) loop(ctx context.Context, tickRate int) error {
	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := c.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	c.draw()
	for !c.quit {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if err := c.handle(ctx, ev); err != nil {
				return err
			}
		case <-ticker.C:
			c.step(ctx)
		}
		c.draw()
	}
	return nil
}

func (c *client) handle(ctx context.Context, ev tcell.Event) error {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			c.quit = true
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				c.quit = true
			case 'p', ' ':
				c.togglePause()
			case 'r':
				if c.game.Over() {
					return c.newGame(ctx)
				}
			}
		}
	case *tcell.EventMouse:
		x, y := ev.Position()
		c.mouse(x, y, ev.Buttons()&tcell.Button1 != 0)
	case *tcell.EventResize:
		c.screen.Sync()
	}
	return nil
}

func (c *client) togglePause() {
	c.pressed = false
	if c.game.Paused() {
		c.game.Resume()
	} else {
		c.game.Pause()
	}
}

// mouse turns button state into press, drag and release on the board.
func (c *client) mouse(x, y int, down bool) {
	var event play.Event
	switch {
	case down && !c.pressed:
		c.pressed = true
		event = c.game.Press(c.cellAt(x, y))
	case down:
		event = c.game.Drag(c.cellAt(x, y))
	case c.pressed:
		c.pressed = false
		event = c.game.Release()
	}

	switch event {
	case play.Closed:
		c.cues.Play(cueClose)
	case play.Rejected:
		c.cues.Play(cueReject)
	}
}

func (c *client) step(ctx context.Context) {
	before := c.game.Board().Score()
	wasOver := c.game.Over()
	out := c.game.Step()
	if out.Score > before {
		c.cues.Play(cueScore)
	}
	if out.Over && !wasOver {
		c.pressed = false
		c.finish(ctx, out.Score)
		c.cues.Play(cueOver)
	}
}

// finish records the final score of a ranked game.
func (c *client) finish(ctx context.Context, score int) {
	mode := c.settings.ModeKey
	if c.store == nil || !mode.Ranked() {
		return
	}
	res, err := c.store.Record(ctx, c.player, mode, score)
	if err != nil {
		c.log.WithError(err).Error("Failed to record score")
		c.status = "score not saved"
		return
	}
	c.result = &res
	c.best = res.Best
	c.log.WithFields(logrus.Fields{
		"score":    score,
		"best":     res.Best,
		"new_best": res.NewBest(),
	}).Info("Score recorded")
}

// origin is the screen position of the center cell.
func (c *client) origin() (x, y int) {
	w, h := c.screen.Size()
	return w / 2, (h + headerRows - footerRows) / 2
}

func (c *client) cellPos(a hex.Axial) (x, y int) {
	ox, oy := c.origin()
	col, row := hex.AxialToCell(a)
	return ox + col, oy + row
}

// cellAt maps a screen position to the hex under it. The blank column to the
// right of a marble belongs to that marble.
func (c *client) cellAt(x, y int) hex.Axial {
	ox, oy := c.origin()
	col, row := x-ox, y-oy
	if a, ok := hex.CellToAxial(col, row); ok {
		return a
	}
	a, _ := hex.CellToAxial(col-1, row)
	return a
}

func (c *client) statusLine(v play.View) string {
	switch {
	case v.Over && c.result != nil && c.result.NewBest():
		return fmt.Sprintf("GAME OVER  new best %d!  r: restart  q: quit", v.Score)
	case v.Over:
		return "GAME OVER  r: restart  q: quit"
	case v.Paused:
		return "PAUSED  p: resume  q: quit"
	case c.status != "":
		return c.status
	}
	return "drag a loop over marbles  p: pause  q: quit"
}
