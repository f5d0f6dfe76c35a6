package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borglike/bot/internal/world"
)

// Scenario: adjacent monster, full HP, melee class → attack it and set up a
// KILL goal.
func TestTickAdjacentMonsterAttacks(t *testing.T) {
	lvl := testLevel(20, 20, 1)
	exploreAll(lvl)
	ch := testChar("warrior", world.Point{X: 10, Y: 10}, 1)
	m := testMonster(31, world.Point{X: 11, Y: 10}, basicTemplate(1, "kobold", 4, 100, 20))
	w := testSnapshot(3, lvl, ch, m)

	e := testEngine(t, "aggressive", defaultCaps())
	s := NewState()

	act := e.RunTick(w, s)
	assert.Equal(t, world.ActAttack, act.Kind)
	assert.Equal(t, 31, act.TargetID)
	require.NotNil(t, s.CurrentGoal)
	assert.Equal(t, GoalKill, s.CurrentGoal.Kind)
	assert.Equal(t, 3, s.LastProgressTurn)
}

// Scenario: HP at 15% with enemies nearby and a potion in the pack → drink.
func TestTickLowHPDrinksPotion(t *testing.T) {
	lvl := testLevel(20, 20, 1)
	exploreAll(lvl)
	ch := testChar("warrior", world.Point{X: 10, Y: 10}, 1)
	ch.HP = 15
	heal := giveItem(ch, 77, itemTemplate(1, "potion", "heal", 30, 30))
	m1 := testMonster(1, world.Point{X: 12, Y: 10}, basicTemplate(1, "orc", 6, 100, 20))
	m2 := testMonster(2, world.Point{X: 10, Y: 13}, basicTemplate(2, "orc", 6, 100, 20))
	w := testSnapshot(5, lvl, ch, m1, m2)

	e := testEngine(t, "cautious", defaultCaps())
	s := NewState()

	act := e.RunTick(w, s)
	assert.Equal(t, world.ActUseItem, act.Kind)
	assert.Equal(t, heal.ID, act.ItemID)
}

// Scenario: no monsters, partial exploration, stairs unknown → explore with
// a move.
func TestTickExploresWhenUnknown(t *testing.T) {
	lvl := testLevel(24, 16, 1)
	// Explore and reveal a patch around the agent only.
	for y := 2; y <= 10; y++ {
		for x := 2; x <= 10; x++ {
			lvl.MarkExplored(x, y)
			lvl.Visible[lvl.Idx(x, y)] = true
		}
	}
	ch := testChar("warrior", world.Point{X: 6, Y: 6}, 1)
	w := testSnapshot(2, lvl, ch)

	e := testEngine(t, "cautious", defaultCaps())
	s := NewState()

	act := e.RunTick(w, s)
	assert.Equal(t, world.ActMove, act.Kind)
	require.NotNil(t, s.CurrentGoal)
	assert.Equal(t, GoalExplore, s.CurrentGoal.Kind)
	require.NotNil(t, s.CurrentGoal.Target)
	assert.False(t, s.Blacklisted(*s.CurrentGoal.Target, w.Turn))
}

// Scenario: under-levelled for the next depth with preparedness on → enter
// farming and retreat upstairs.
func TestTickUnderLevelledEntersFarming(t *testing.T) {
	lvl := testLevel(20, 20, 6)
	exploreAll(lvl)
	up := world.Point{X: 4, Y: 4}
	lvl.SetTile(up.X, up.Y, world.TileStairsUp)
	lvl.StairsUp = &up
	down := world.Point{X: 15, Y: 15}
	lvl.SetTile(down.X, down.Y, world.TileStairsDown)
	lvl.StairsDown = &down

	ch := testChar("mage", world.Point{X: 10, Y: 10}, 6)
	ch.Level = 5 // squishy wants depth+5 = 12
	w := testSnapshot(40, lvl, ch)

	e := testEngine(t, "cautious", defaultCaps())
	s := NewState()

	// First tick trips the descend gate and arms farming.
	e.RunTick(w, s)
	s.TurnsOnLevel = 600 // patience exhausted
	w.Turn++
	e.RunTick(w, s)
	assert.True(t, s.Farming.Mode)
	assert.Equal(t, 7, s.Farming.BlockedDepth)

	w.Turn++
	e.RunTick(w, s)
	require.NotNil(t, s.CurrentGoal)
	assert.Equal(t, GoalAscendToFarm, s.CurrentGoal.Kind)
	assert.Contains(t, s.CurrentGoal.Reason, "Under-levelled for D7")
	assert.Equal(t, up, *s.CurrentGoal.Target)
}

// Scenario: A-B-A-B oscillation with no monsters → wall follow with a
// cardinal step.
func TestTickOscillationWallFollows(t *testing.T) {
	lvl := testLevel(20, 20, 1)
	exploreAll(lvl)
	a := world.Point{X: 5, Y: 5}
	b := world.Point{X: 6, Y: 5}
	ch := testChar("warrior", b, 1)
	w := testSnapshot(30, lvl, ch)

	e := testEngine(t, "cautious", defaultCaps())
	s := NewState()
	s.enterLevel(w)
	s.CurrentDepth = 1
	s.Recent = []world.Point{a, b, a}
	s.LastProgressTurn = 30

	act := e.RunTick(w, s)
	assert.Equal(t, world.ActMove, act.Kind)
	assert.True(t, act.Dir.Cardinal())
	// Right-hand rule relative to the A→B (east) facing: south first.
	assert.Equal(t, world.DirS, act.Dir)
}

// Standing on the up stairs with an ASCEND_TO_FARM goal must emit ascend on
// the same tick instead of pre-empting on arrival.
func TestTickAscendGoalOnStairs(t *testing.T) {
	lvl := testLevel(20, 20, 6)
	exploreAll(lvl)
	up := world.Point{X: 10, Y: 10}
	lvl.SetTile(up.X, up.Y, world.TileStairsUp)
	lvl.StairsUp = &up

	ch := testChar("mage", up, 6)
	ch.Level = 5
	w := testSnapshot(10, lvl, ch)

	e := testEngine(t, "cautious", defaultCaps())
	s := NewState()
	s.enterLevel(w)
	s.CurrentDepth = 6
	s.Farming = FarmingState{Mode: true, BlockedDepth: 7, GoldTarget: 500, StartTurn: 1}
	s.Tether = TetherState{}
	tp := up
	s.CurrentGoal = newGoal(GoalAscendToFarm, &tp, 0, "Under-levelled for D7", 9)

	act := e.RunTick(w, s)
	assert.Equal(t, world.ActAscend, act.Kind)
}

func TestTickHistoryAndSeenInvariants(t *testing.T) {
	lvl := testLevel(20, 20, 1)
	exploreAll(lvl)
	ch := testChar("warrior", world.Point{X: 10, Y: 10}, 1)
	w := testSnapshot(0, lvl, ch)

	e := testEngine(t, "cautious", defaultCaps())
	s := NewState()
	for i := 0; i < 40; i++ {
		w.Turn = i
		act := e.RunTick(w, s)
		if act.Kind == world.ActMove {
			dx, dy := act.Dir.Delta()
			ch.Pos = world.Point{X: ch.Pos.X + dx, Y: ch.Pos.Y + dy}
		}
	}
	assert.LessOrEqual(t, len(s.Recent), historyLen)

	// Seen count matches the set bits exactly.
	n := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if s.Seen.Has(x, y) {
				n++
			}
		}
	}
	assert.Equal(t, n, s.Seen.Count())
}

// Unreachable goals resolve to wait and clear themselves.
func TestTickUnreachableGoalWaits(t *testing.T) {
	// Sealed 3x3 cell around the agent inside a larger level.
	lvl := world.NewLevel(20, 20, 1, world.GenClassic)
	for y := 4; y <= 6; y++ {
		for x := 4; x <= 6; x++ {
			lvl.SetTile(x, y, world.TileFloor)
		}
	}
	for y := 10; y <= 15; y++ {
		for x := 10; x <= 15; x++ {
			lvl.SetTile(x, y, world.TileFloor)
		}
	}
	for y := 4; y <= 6; y++ {
		for x := 4; x <= 6; x++ {
			lvl.MarkExplored(x, y)
			lvl.Visible[lvl.Idx(x, y)] = true
		}
	}
	ch := testChar("warrior", world.Point{X: 5, Y: 5}, 1)
	w := testSnapshot(1, lvl, ch)

	e := testEngine(t, "cautious", defaultCaps())
	s := NewState()
	act := e.RunTick(w, s)
	assert.Equal(t, world.ActWait, act.Kind)
}

// At depth 50 with the boss invisible and low coverage, the engine sweeps;
// with coverage at 80% it ascends for a level flip.
func TestTickMorgothSweepAndFlip(t *testing.T) {
	lvl := testLevel(20, 20, 50)
	exploreAll(lvl)
	// Only a small patch is actually in view this turn.
	for i := range lvl.Visible {
		lvl.Visible[i] = false
	}
	for y := 8; y <= 12; y++ {
		for x := 8; x <= 12; x++ {
			lvl.Visible[lvl.Idx(x, y)] = true
		}
	}
	up := world.Point{X: 3, Y: 3}
	lvl.SetTile(up.X, up.Y, world.TileStairsUp)
	lvl.StairsUp = &up

	boss := &world.Monster{
		ID: 99, Pos: world.Point{X: 18, Y: 18}, HP: 4000, Awake: false,
		Tmpl: bossTemplate(),
	}
	ch := testChar("warrior", world.Point{X: 10, Y: 10}, 50)
	ch.Level = 50
	w := testSnapshot(5, lvl, ch, boss)
	// The boss hides in the dark corner.
	lvl.Visible[lvl.Idx(18, 18)] = false

	e := testEngine(t, "aggressive", defaultCaps())
	s := NewState()
	s.enterLevel(w)
	s.CurrentDepth = 50
	s.Seen.Reset(20, 20)

	e.RunTick(w, s)
	require.NotNil(t, s.CurrentGoal)
	assert.Equal(t, GoalExplore, s.CurrentGoal.Kind)
	assert.True(t, s.Sweep.Mode)

	// Cover (nearly) the whole floor: the flip arms and heads upstairs.
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			s.Seen.Add(x, y)
		}
	}
	w.Turn++
	e.RunTick(w, s)
	require.NotNil(t, s.CurrentGoal)
	assert.Equal(t, GoalAscendToFarm, s.CurrentGoal.Kind)
	assert.True(t, s.Morgoth.FlipActive)

	// The boss steps into view: flip state clears, KILL resumes.
	lvl.Visible[lvl.Idx(18, 18)] = true
	w.Turn++
	e.RunTick(w, s)
	require.NotNil(t, s.CurrentGoal)
	assert.Equal(t, GoalKill, s.CurrentGoal.Kind)
	assert.False(t, s.Morgoth.FlipActive)
}
