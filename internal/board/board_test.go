package board

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/haxagon/internal/hex"
)

// flat is a gravity-free custom board so layouts stay where they are put.
func flat(radius int) Settings {
	return Settings{
		Radius:           radius,
		BorderWidth:      0,
		Gravity:          false,
		ClearBlobSize:    4,
		SpawnMultiplier:  1,
		MarbleColorCount: 7,
	}
}

func newBoard(t *testing.T, s Settings, layout Layout) *Board {
	t.Helper()
	opts := []Option{WithSeed(7)}
	if layout != nil {
		opts = append(opts, WithLayout(layout))
	}
	b, err := New(s, opts...)
	require.NoError(t, err)
	return b
}

// row returns n cells along r=0 starting at q.
func row(q, n int) []hex.Axial {
	out := make([]hex.Axial, n)
	for i := range out {
		out[i] = hex.Axial{Q: q + i, R: 0}
	}
	return out
}

func paint(l Layout, m Marble, cells ...hex.Axial) Layout {
	for _, c := range cells {
		l[c] = m
	}
	return l
}

func countColor(l Layout, color Marble) int {
	n := 0
	for _, m := range l {
		if m == color {
			n++
		}
	}
	return n
}

func TestNewSeedsBorderRings(t *testing.T) {
	b := newBoard(t, Classic(), nil)

	for _, c := range hex.Disk(hex.Origin, 5) {
		_, ok := b.Marble(c)
		if c.Distance(hex.Origin) >= 4 {
			assert.True(t, ok, "border cell %v should be filled", c)
		} else {
			assert.False(t, ok, "inner cell %v should be empty", c)
		}
	}
	assert.Len(t, b.Marbles(), 54)
	assert.Empty(t, b.FindBlobs())

	sp, ok := b.NextSpawnPoint()
	require.True(t, ok)
	assert.Equal(t, hex.Axial{Q: 3, R: 0}, sp)
}

func TestNewNeverSeedsClearableBlobs(t *testing.T) {
	for seed := uint64(1); seed <= 25; seed++ {
		for _, s := range []Settings{Classic(), Advanced(), NoGravity()} {
			b, err := New(s, WithSeed(seed))
			require.NoError(t, err)
			assert.Empty(t, b.FindBlobs(), "seed %d mode %s", seed, s.ModeKey)
		}
	}
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	bad := map[string]func(*Settings){
		"negative radius":  func(s *Settings) { s.Radius = -1 },
		"huge radius":      func(s *Settings) { s.Radius = MaxRadius + 1 },
		"border too wide":  func(s *Settings) { s.BorderWidth = s.Radius + 1 },
		"blob size one":    func(s *Settings) { s.ClearBlobSize = 1 },
		"zero multiplier":  func(s *Settings) { s.SpawnMultiplier = 0 },
		"tiny multiplier":  func(s *Settings) { s.SpawnMultiplier = 1e-40 },
		"too many colors":  func(s *Settings) { s.MarbleColorCount = 8 },
		"no colors":        func(s *Settings) { s.MarbleColorCount = 0 },
		"tampered preset":  func(s *Settings) { s.ModeKey = ModeClassic },
		"unknown mode key": func(s *Settings) { s.ModeKey = "speedrun" },
	}
	for name, mutate := range bad {
		t.Run(name, func(t *testing.T) {
			s := flat(3)
			mutate(&s)
			_, err := New(s)
			assert.ErrorIs(t, err, ErrInvalidSettings)
		})
	}

	_, err := New(flat(2), WithLayout(Layout{{Q: 3, R: 0}: Red}))
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestPresetsAreValid(t *testing.T) {
	for _, key := range Modes {
		s, ok := PresetFor(key)
		require.True(t, ok)
		assert.NoError(t, s.Validate())
		assert.Equal(t, key, s.ModeKey)
		assert.True(t, key.Ranked())
	}
	assert.False(t, ModeCustom.Ranked())
	assert.NoError(t, Classic().Custom().Validate())
}

func TestSpawnInterval(t *testing.T) {
	b := newBoard(t, flat(2), Layout{})
	cases := map[int]int{
		0:     60,
		599:   60,
		600:   50,
		1199:  50,
		1200:  40,
		2399:  40,
		2400:  30,
		3599:  30,
		3600:  40,
		7199:  40,
		7200:  36,
		9000:  35,
		36000: 20,
		90000: 20,
	}
	for ticks, want := range cases {
		b.tickCount = ticks
		assert.Equal(t, want, b.SpawnInterval(), "at tick %d", ticks)
	}

	s := flat(2)
	s.SpawnMultiplier = 0.8
	b = newBoard(t, s, Layout{})
	assert.Equal(t, 75, b.SpawnInterval())

	s.SpawnMultiplier = 2
	b = newBoard(t, s, Layout{})
	assert.Equal(t, 30, b.SpawnInterval())
}

func TestGravityFallsOutward(t *testing.T) {
	s := flat(2)
	s.Gravity = true

	b := newBoard(t, s, Layout{{Q: 1, R: 0}: Red})
	b.gravitate()
	assert.Equal(t, Layout{{Q: 2, R: 0}: Red}, b.Marbles())

	s.Radius = 1
	b = newBoard(t, s, Layout{hex.Origin: Blue})
	b.gravitate()
	assert.Equal(t, Layout{{Q: -1, R: 1}: Blue}, b.Marbles())
}

func TestGravityDisabledLeavesMarbles(t *testing.T) {
	layout := Layout{{Q: 1, R: 0}: Red, hex.Origin: Green}
	b := newBoard(t, flat(2), layout)
	b.gravitate()
	assert.Equal(t, layout, b.Marbles())
}

func TestGravityReachesFixedPoint(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		b, err := New(Classic(), WithSeed(seed))
		require.NoError(t, err)
		rng := rand.New(rand.NewPCG(seed, 1))
		for _, c := range hex.Disk(hex.Origin, 3) {
			if rng.IntN(2) == 0 {
				b.marbles[c] = RandomMarble(rng, 6)
			}
		}
		before := len(b.marbles)
		b.gravitate()

		assert.Len(t, b.marbles, before, "gravity must not create or destroy marbles")
		for c := range b.marbles {
			assert.True(t, b.IsInBounds(c))
			_, falls := b.gravityStep(c)
			assert.False(t, falls, "seed %d: %v can still fall", seed, c)
		}
	}
}

func TestGravityAllSettlesBareCoordinate(t *testing.T) {
	s := flat(3)
	b := newBoard(t, s, Layout{})
	// gravityAll ignores the gravity flag
	got := b.gravityAll(hex.Axial{Q: 1, R: 0})
	assert.Equal(t, 3, got.Distance(hex.Origin))
	_, falls := b.gravityStep(got)
	assert.False(t, falls)
}

func TestFindBlobsRespectsSizeFloor(t *testing.T) {
	layout := paint(Layout{}, Red, row(-3, 4)...)
	paint(layout, Blue, hex.Axial{Q: 0, R: 1}, hex.Axial{Q: 1, R: 1}, hex.Axial{Q: 2, R: 1})
	b := newBoard(t, flat(3), layout)

	blobs := b.FindBlobs()
	require.Len(t, blobs, 1)
	assert.ElementsMatch(t, row(-3, 4), blobs[0])

	for seed := uint64(1); seed <= 10; seed++ {
		rng := rand.New(rand.NewPCG(seed, 2))
		random := Layout{}
		for _, c := range hex.Disk(hex.Origin, 4) {
			random[c] = RandomMarble(rng, 3)
		}
		s := flat(4)
		s.ClearBlobSize = 5
		b := newBoard(t, s, random)
		seen := map[hex.Axial]bool{}
		for _, blob := range b.FindBlobs() {
			assert.GreaterOrEqual(t, len(blob), 5)
			color := random[blob[0]]
			for _, c := range blob {
				assert.Equal(t, color, random[c])
				assert.False(t, seen[c], "cell %v reported twice", c)
				seen[c] = true
			}
		}
	}
}

func TestQueueSkipIsNoOp(t *testing.T) {
	layout := paint(Layout{}, Red, row(-3, 3)...)
	b := newBoard(t, flat(3), layout)
	b.PushAction(ClearBlobs(5))

	b.Tick()

	assert.Equal(t, 0, b.QueueLen())
	assert.Equal(t, 0, b.Score())
	assert.Equal(t, 0, b.ActionTimer())
	assert.Equal(t, layout, b.Marbles())
}

func TestDeleteColorIsExact(t *testing.T) {
	layout := paint(Layout{}, Red, hex.Origin, hex.Axial{Q: 2, R: 0}, hex.Axial{Q: -2, R: 1})
	paint(layout, Blue, hex.Axial{Q: 1, R: 0}, hex.Axial{Q: 0, R: 2})
	b := newBoard(t, flat(3), layout)
	b.PushAction(DeleteColor(Red))

	for range DeleteColorTime - 1 {
		require.False(t, b.Tick())
	}
	assert.Equal(t, 1, b.QueueLen(), "delete should still be pending")
	require.False(t, b.Tick())

	assert.Equal(t, 0, countColor(b.Marbles(), Red))
	assert.Equal(t, 2, countColor(b.Marbles(), Blue))
	assert.Equal(t, 3, b.Score())
	assert.Equal(t, []Score{{Points: 3, Multiplier: 1}}, b.RecentScores())
}

func TestCycleRotatesForward(t *testing.T) {
	path := row(-2, 5)
	colors := []Marble{Red, Green, Blue, Yellow, Cyan}
	layout := Layout{}
	for i, c := range path {
		layout[c] = colors[i]
	}
	b := newBoard(t, flat(3), layout)
	b.execute(Cycle(path))

	got := b.Marbles()
	assert.Equal(t, Cyan, got[path[0]])
	for i := 1; i < len(path); i++ {
		assert.Equal(t, colors[i-1], got[path[i]])
	}

	var before, after []Marble
	for _, c := range path {
		before = append(before, layout[c])
		after = append(after, got[c])
	}
	assert.ElementsMatch(t, before, after)
}

func TestCycleCarriesGaps(t *testing.T) {
	a, mid, c := hex.Axial{Q: 0, R: 0}, hex.Axial{Q: 1, R: 0}, hex.Axial{Q: 1, R: 1}
	b := newBoard(t, flat(2), Layout{a: Red, c: Blue})
	b.execute(Cycle([]hex.Axial{a, mid, c}))
	assert.Equal(t, Layout{a: Blue, mid: Red}, b.Marbles())
}

func TestCycleWaitsItsDuration(t *testing.T) {
	path := []hex.Axial{{Q: 0, R: 0}, {Q: 1, R: 0}, {Q: 0, R: 1}}
	b := newBoard(t, flat(2), Layout{path[0]: Red, path[1]: Green, path[2]: Blue})
	b.PushAction(Cycle(path))

	for range CycleTime - 1 {
		b.Tick()
	}
	m, _ := b.Marble(path[0])
	assert.Equal(t, Red, m)
	b.Tick()
	m, _ = b.Marble(path[0])
	assert.Equal(t, Blue, m)
	assert.Equal(t, 0, b.QueueLen())
}

func TestClearBlobsScoring(t *testing.T) {
	t.Run("six marbles", func(t *testing.T) {
		b := newBoard(t, flat(3), paint(Layout{}, Red, row(-3, 6)...))
		b.execute(ClearBlobs(1))
		assert.Equal(t, 6, b.Score())
		assert.Empty(t, b.Marbles())
	})
	t.Run("seven marbles", func(t *testing.T) {
		b := newBoard(t, flat(3), paint(Layout{}, Red, row(-3, 7)...))
		b.execute(ClearBlobs(1))
		assert.Equal(t, 8, b.Score())
	})
	t.Run("two blobs with multiplier", func(t *testing.T) {
		layout := paint(Layout{}, Red, row(-3, 4)...)
		paint(layout, Green, hex.Axial{Q: -3, R: 2}, hex.Axial{Q: -2, R: 2}, hex.Axial{Q: -1, R: 2}, hex.Axial{Q: 0, R: 2})
		b := newBoard(t, flat(3), layout)
		preview, ok := b.ScoreFor(ClearBlobs(2))
		require.True(t, ok)
		b.execute(ClearBlobs(2))
		// (8 + 2) * 2 * 2
		assert.Equal(t, 40, b.Score())
		assert.Equal(t, Score{Points: 40, Multiplier: 2, Blobs: 2}, preview)
	})
	t.Run("requeues at the front", func(t *testing.T) {
		b := newBoard(t, flat(3), paint(Layout{}, Red, row(-3, 4)...))
		b.PushAction(DeleteColor(Blue))
		b.execute(ClearBlobs(3))
		next, ok := b.NextAction()
		require.True(t, ok)
		assert.Equal(t, ClearBlobs(4), next)
		assert.Equal(t, 2, b.QueueLen())
	})
	t.Run("nothing to clear", func(t *testing.T) {
		b := newBoard(t, flat(3), paint(Layout{}, Red, row(-3, 3)...))
		b.execute(ClearBlobs(1))
		assert.Equal(t, 0, b.Score())
		assert.Equal(t, 0, b.QueueLen())
		_, ok := b.ScoreFor(ClearBlobs(1))
		assert.False(t, ok)
	})
}

func TestCascadeEndsWithFreeSkip(t *testing.T) {
	b := newBoard(t, flat(3), paint(Layout{}, Red, row(-3, 4)...))
	b.PushAction(ClearBlobs(1))
	assert.ElementsMatch(t, row(-3, 4), b.PendingClear())

	for range ClearBlobsTime {
		b.Tick()
	}
	assert.Equal(t, 4, b.Score())
	next, ok := b.NextAction()
	require.True(t, ok)
	assert.Equal(t, ClearBlobs(2), next)

	b.Tick()
	assert.Equal(t, 0, b.QueueLen())
	assert.Equal(t, 4, b.Score())
}

func TestFullSingleCellBoardLoses(t *testing.T) {
	s := Settings{
		Radius:           0,
		BorderWidth:      0,
		Gravity:          true,
		ClearBlobSize:    2,
		SpawnMultiplier:  60,
		MarbleColorCount: 3,
	}
	b := newBoard(t, s, nil)
	sp, ok := b.NextSpawnPoint()
	require.True(t, ok)
	assert.Equal(t, hex.Origin, sp)

	assert.False(t, b.Tick(), "first spawn fills the only cell")
	_, ok = b.Marble(hex.Origin)
	assert.True(t, ok)
	_, ok = b.NextSpawnPoint()
	assert.False(t, ok)
	_, ok = b.findNextSpawnPoint(hex.Origin)
	assert.False(t, ok)

	assert.True(t, b.Tick(), "no spawn point left")
}

func TestSpawnPointFollowsWall(t *testing.T) {
	// a single marble to the left of the previous point is a wall to follow
	b := newBoard(t, flat(3), Layout{{Q: -1, R: 1}: Red})
	next, ok := b.findNextSpawnPoint(hex.Origin)
	require.True(t, ok)
	// (0,1) has the marble on its left, then settles outwards to the edge
	assert.Equal(t, hex.Axial{Q: 0, R: 3}, next)
	assert.False(t, b.IsSolid(next))
	_, falls := b.gravityStep(next)
	assert.False(t, falls)
}

func TestSpawnPointSettlesAfterAction(t *testing.T) {
	// the planned spawn rests on two greens; deleting them lets it fall to
	// the edge even though marbles never fall on this board
	rest := hex.Axial{Q: 1, R: 0}
	b := newBoard(t, flat(3), Layout{{Q: 2, R: 0}: Green, {Q: 2, R: -1}: Green, {Q: -1, R: 0}: Red})
	b.nextSpawn, b.hasNextSpawn = rest, true
	_, falls := b.gravityStep(rest)
	require.False(t, falls)

	b.PushAction(DeleteColor(Green))
	for range DeleteColorTime - 1 {
		require.False(t, b.Tick())
	}
	sp, ok := b.NextSpawnPoint()
	require.True(t, ok)
	assert.Equal(t, rest, sp)

	require.False(t, b.Tick())
	assert.Zero(t, countColor(b.Marbles(), Green))
	sp, ok = b.NextSpawnPoint()
	require.True(t, ok)
	assert.Equal(t, hex.Axial{Q: 3, R: 0}, sp)
}

func TestSpawnPointMovesWhenActionFillsIt(t *testing.T) {
	// the cycle carries the blue onto the planned spawn at (0,1), so a new
	// point is found from there
	path := []hex.Axial{{Q: 0, R: 0}, {Q: 1, R: 0}, {Q: 0, R: 1}}
	b := newBoard(t, flat(3), Layout{
		path[0]:       Red,
		path[1]:       Blue,
		{Q: 0, R: 2}:  Yellow,
		{Q: -1, R: 2}: Green,
	})
	b.nextSpawn, b.hasNextSpawn = path[2], true
	_, falls := b.gravityStep(path[2])
	require.False(t, falls)

	b.PushAction(Cycle(path))
	for range CycleTime {
		require.False(t, b.Tick())
	}
	m, ok := b.Marble(path[2])
	require.True(t, ok)
	assert.Equal(t, Blue, m)

	// (1,1) follows the yellow wall and falls to rest at (1,2)
	sp, ok := b.NextSpawnPoint()
	require.True(t, ok)
	assert.Equal(t, hex.Axial{Q: 1, R: 2}, sp)
	assert.False(t, b.IsSolid(sp))
}

func TestSpawnPointFallsBackToNearestEmpty(t *testing.T) {
	layout := Layout{}
	for _, c := range hex.Disk(hex.Origin, 2) {
		layout[c] = Marble(c.Distance(hex.Origin) % MarbleColors)
	}
	hole := hex.Axial{Q: 2, R: -2}
	delete(layout, hole)
	b := newBoard(t, flat(2), layout)

	next, ok := b.findNextSpawnPoint(hex.Axial{Q: -2, R: 2})
	require.True(t, ok)
	assert.Equal(t, hole, next)
}

func TestLongRunInvariants(t *testing.T) {
	for _, s := range []Settings{Classic(), Advanced(), NoGravity()} {
		b, err := New(s, WithSeed(42))
		require.NoError(t, err)
		for range 6000 {
			if b.Tick() {
				break
			}
			for c := range b.marbles {
				require.True(t, b.IsInBounds(c))
			}
			if sp, ok := b.NextSpawnPoint(); ok {
				require.True(t, b.IsInBounds(sp), "%s: spawn %v out of bounds", s.ModeKey, sp)
				require.False(t, b.IsSolid(sp), "%s: spawn %v occupied", s.ModeKey, sp)
			}
			if b.QueueLen() == 0 {
				require.Empty(t, b.FindBlobs(), "%s: settled board still has blobs", s.ModeKey)
			}
			clears := 0
			for _, a := range b.queue {
				if a.Kind == KindClearBlobs && a.Multiplier > 1 {
					clears++
				}
			}
			require.LessOrEqual(t, clears, 1)
		}
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	path := []hex.Axial{{Q: 0, R: 0}, {Q: 1, R: 0}, {Q: 0, R: 1}}
	b := newBoard(t, flat(2), Layout{path[0]: Red, path[1]: Green, path[2]: Blue})
	b.PushAction(Cycle(path))

	snap := b.Snapshot()
	require.NotNil(t, snap.NextAction)
	snap.Marbles[path[0]] = Pink
	snap.NextAction.Path[0] = hex.Axial{Q: 9, R: 9}

	m, _ := b.Marble(path[0])
	assert.Equal(t, Red, m)
	next, _ := b.NextAction()
	assert.True(t, slices.Equal(path, next.Path))
	assert.Equal(t, 60, snap.SpawnInterval)
	assert.Nil(t, snap.PendingScore)
}

func TestInvariantViolationsPanic(t *testing.T) {
	b := newBoard(t, flat(1), Layout{})
	assert.Panics(t, func() { b.popAction() })
	assert.Panics(t, func() { b.PushAction(Cycle([]hex.Axial{{Q: 0, R: 0}, {Q: 2, R: 0}})) })
	assert.Panics(t, func() { b.PushAction(Action{}) })
}

func TestMarbleColors(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	for range 200 {
		assert.Less(t, int(RandomMarble(rng, 4)), 4)
	}
	drawn := map[Marble]bool{}
	for range 500 {
		drawn[RandomMarble(rng, MarbleColors)] = true
	}
	assert.True(t, drawn[Pink], "all seven colors are in play")
	seen := map[Marble]bool{}
	m := Red
	for range MarbleColors {
		seen[m] = true
		m = m.Next()
	}
	assert.Len(t, seen, MarbleColors)
	assert.Equal(t, Red, m)

	text, err := Purple.MarshalText()
	require.NoError(t, err)
	var back Marble
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, Purple, back)
	assert.Error(t, back.UnmarshalText([]byte("mauve")))
}
