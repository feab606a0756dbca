package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/haxagon/internal/board"
	"github.com/gravitas-games/haxagon/internal/config"
	"github.com/gravitas-games/haxagon/internal/logging"
	"github.com/gravitas-games/haxagon/internal/scores"
)

func main() {
	mode := flag.String("mode", string(board.ModeClassic), "board preset: classic, advanced or no_gravity")
	dbPath := flag.String("db", defaultDBPath(), "sqlite file for high scores, empty to disable")
	name := flag.String("player", os.Getenv("USER"), "name high scores are recorded under")
	seed := flag.Uint64("seed", 0, "board seed, 0 for random")
	tickRate := flag.Int("tick", 60, "simulation steps per second")
	mute := flag.Bool("mute", false, "disable sound cues")
	logPath := flag.String("log", "", "write logs to this file")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	if err := run(options{
		mode:     board.ModeKey(*mode),
		dbPath:   *dbPath,
		player:   *name,
		seed:     *seed,
		tickRate: *tickRate,
		mute:     *mute,
		logPath:  *logPath,
		logLevel: *logLevel,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "haxagon:", err)
		os.Exit(1)
	}
}

type options struct {
	mode     board.ModeKey
	dbPath   string
	player   string
	seed     uint64
	tickRate int
	mute     bool
	logPath  string
	logLevel string
}

func run(opts options) error {
	settings, ok := board.PresetFor(opts.mode)
	if !ok {
		return fmt.Errorf("unknown mode %q", opts.mode)
	}
	if opts.tickRate < 1 || opts.tickRate > 240 {
		return fmt.Errorf("tick rate must be between 1 and 240, got %d", opts.tickRate)
	}
	if opts.player == "" {
		opts.player = "player"
	}

	// the screen owns the terminal, so logs go to a file or nowhere
	var out io.Writer = io.Discard
	if opts.logPath != "" {
		f, err := os.OpenFile(opts.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := logging.Setup(config.LogConfig{Level: opts.logLevel, Format: "text"}, out); err != nil {
		return err
	}

	var store scores.Store
	if opts.dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.dbPath), 0o755); err != nil {
			return fmt.Errorf("create score directory: %w", err)
		}
		db, err := scores.OpenSQLite(opts.dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		store = db
	}

	cues := newCues(!opts.mute)
	defer cues.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	logrus.WithFields(logrus.Fields{
		"mode":   opts.mode,
		"player": opts.player,
	}).Info("Starting Haxagon")

	c := &client{
		screen:   screen,
		settings: settings,
		player:   opts.player,
		seed:     opts.seed,
		store:    store,
		cues:     cues,
		log:      logrus.WithField("mode", opts.mode),
	}
	if err := c.newGame(context.Background()); err != nil {
		return err
	}
	return c.loop(context.Background(), opts.tickRate)
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "haxagon", "scores.db")
}

// bestScore reads the stored best, treating a missing entry as zero.
func bestScore(ctx context.Context, store scores.Store, player string, mode board.ModeKey) (int, error) {
	if store == nil || !mode.Ranked() {
		return 0, nil
	}
	best, err := store.Best(ctx, player, mode)
	if errors.Is(err, scores.ErrNotFound) {
		return 0, nil
	}
	return best, err
}
