package main

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/gravitas-games/haxagon/internal/board"
	"github.com/gravitas-games/haxagon/internal/hex"
	"github.com/gravitas-games/haxagon/internal/play"
)

const (
	headerRows = 2
	footerRows = 1

	marbleRune = '●'
	emptyRune  = '·'
	spawnRune  = '○'
)

var marbleColors = [board.MarbleColors]tcell.Color{
	board.Red:    tcell.ColorRed,
	board.Green:  tcell.ColorGreen,
	board.Blue:   tcell.ColorBlue,
	board.Yellow: tcell.ColorYellow,
	board.Cyan:   tcell.ColorAqua,
	board.Purple: tcell.ColorPurple,
	board.Pink:   tcell.ColorPink,
}

var (
	textStyle    = tcell.StyleDefault
	dimStyle     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	gestureStyle = tcell.StyleDefault.Background(tcell.ColorDarkSlateGray)
)

func (c *client) draw() {
	c.screen.Clear()
	v := c.game.View()

	c.drawText(0, 0, textStyle.Bold(true), c.header(v))
	c.drawText(0, 1, dimStyle, queueLine(v))
	c.drawBoard(v)

	_, h := c.screen.Size()
	c.drawText(0, h-1, textStyle, c.statusLine(v))
	c.screen.Show()
}

func (c *client) drawBoard(v play.View) {
	inGesture := make(map[hex.Axial]bool, len(v.Gesture))
	for _, a := range v.Gesture {
		inGesture[a] = true
	}
	clearing := make(map[hex.Axial]bool, len(v.PendingClear))
	for _, a := range v.PendingClear {
		clearing[a] = true
	}

	for _, a := range hex.Disk(hex.Origin, v.Radius) {
		x, y := c.cellPos(a)
		r, style := emptyRune, dimStyle
		if m, ok := v.Marbles[a]; ok {
			r, style = marbleRune, textStyle.Foreground(marbleColors[m])
			if clearing[a] {
				style = style.Blink(true).Bold(true)
			}
		} else if v.NextSpawn != nil && *v.NextSpawn == a {
			r = spawnRune
		}
		if inGesture[a] {
			style = style.Background(tcell.ColorDarkSlateGray)
		}
		c.screen.SetContent(x, y, r, nil, style)
	}

	// shade the gap between consecutive gesture cells on the same row
	for i := 1; i < len(v.Gesture); i++ {
		ax, ay := c.cellPos(v.Gesture[i-1])
		bx, by := c.cellPos(v.Gesture[i])
		if ay == by && abs(ax-bx) == 2 {
			c.screen.SetContent(min(ax, bx)+1, ay, ' ', nil, gestureStyle)
		}
	}
}

func (c *client) header(v play.View) string {
	mode := string(v.Settings.ModeKey)
	if mode == "" {
		mode = "custom"
	}
	return fmt.Sprintf("HAXAGON  %s  score %d  best %d  %s", mode, v.Score, max(c.best, v.Score), elapsed(v.TickCount))
}

func queueLine(v play.View) string {
	var b strings.Builder
	if v.NextAction != nil {
		fmt.Fprintf(&b, "next %s %d/%d", v.NextAction.Kind, v.ActionTimer, v.NextAction.Duration())
		if v.PendingScore != nil {
			fmt.Fprintf(&b, " (%s)", formatScore(*v.PendingScore))
		}
		if v.QueueLen > 1 {
			fmt.Fprintf(&b, " +%d queued", v.QueueLen-1)
		}
		b.WriteString("  ")
	}
	fmt.Fprintf(&b, "spawn %d/%d", v.SpawnTimer, v.SpawnInterval)
	if len(v.RecentScores) > 0 {
		b.WriteString("  recent")
		for _, s := range v.RecentScores {
			b.WriteString(" " + formatScore(s))
		}
	}
	return b.String()
}

func formatScore(s board.Score) string {
	if s.Multiplier > 1 {
		return fmt.Sprintf("+%dx%d", s.Points, s.Multiplier)
	}
	return fmt.Sprintf("+%d", s.Points)
}

// elapsed formats a tick count as minutes and seconds of play at 60 ticks a second.
func elapsed(ticks int) string {
	secs := ticks / 60
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func (c *client) drawText(x, y int, style tcell.Style, s string) {
	for _, r := range s {
		c.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
