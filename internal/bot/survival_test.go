package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borglike/bot/internal/world"
)

func survivalFixture(t *testing.T) (*world.Snapshot, *State, EffectiveProfile) {
	t.Helper()
	lvl := testLevel(16, 16, 3)
	exploreAll(lvl)
	ch := testChar("warrior", world.Point{X: 8, Y: 8}, 3)
	w := testSnapshot(10, lvl, ch)
	s := NewState()
	s.Seen.Reset(16, 16)
	eff := effFor(t, "warrior")
	return w, s, eff
}

func TestSurvivalParalysisWaits(t *testing.T) {
	w, s, eff := survivalFixture(t)
	w.Char.Statuses[world.StatusParalysis] = &world.Status{Remaining: 2}
	var danger DangerGrid
	danger.Resize(16, 16)

	act, ok := survivalAction(w, s, &eff, TierSafe, &danger, 100)
	require.True(t, ok)
	assert.Equal(t, world.ActWait, act.Kind)
}

func TestSurvivalHealBeforeEscape(t *testing.T) {
	w, s, eff := survivalFixture(t)
	w.Char.HP = 30 // 30%
	heal := giveItem(w.Char, 1, itemTemplate(2, "potion", "heal", 30, 80))
	giveItem(w.Char, 2, itemTemplate(10, "scroll", "phase_door", 10, 35))
	var danger DangerGrid
	danger.Resize(16, 16)

	act, ok := survivalAction(w, s, &eff, TierCritical, &danger, 100)
	require.True(t, ok)
	assert.Equal(t, world.ActUseItem, act.Kind)
	assert.Equal(t, heal.ID, act.ItemID)
}

func TestSurvivalEscapePrefersSafePhaseDoor(t *testing.T) {
	w, s, eff := survivalFixture(t)
	w.Char.HP = 30
	pd := giveItem(w.Char, 1, itemTemplate(10, "scroll", "phase_door", 10, 35))
	var danger DangerGrid
	danger.Resize(16, 16)

	act, ok := survivalAction(w, s, &eff, TierCritical, &danger, 100)
	require.True(t, ok)
	assert.Equal(t, pd.ID, act.ItemID)
}

func TestSurvivalTeleportLevelWhenPhaseDoorUnsafe(t *testing.T) {
	w, s, eff := survivalFixture(t)
	w.Char.HP = 30
	giveItem(w.Char, 1, itemTemplate(10, "scroll", "phase_door", 10, 35))
	tl := giveItem(w.Char, 2, itemTemplate(12, "scroll", "teleport_level", 0, 100))

	// Every landing tile is hot: phase door is off the table, and the
	// teleport-level scroll (which goes up) takes over.
	var danger DangerGrid
	danger.Resize(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			danger.add(x, y, 999)
		}
	}

	act, ok := survivalAction(w, s, &eff, TierCritical, &danger, 100)
	require.True(t, ok)
	assert.Equal(t, tl.ID, act.ItemID)
}

func TestSurvivalCurePoisonUnderDOT(t *testing.T) {
	w, s, eff := survivalFixture(t)
	w.Char.Statuses[world.StatusPoison] = &world.Status{Remaining: 20, Power: 3}
	cure := giveItem(w.Char, 1, itemTemplate(4, "potion", "cure_poison", 0, 40))
	var danger DangerGrid
	danger.Resize(16, 16)

	// 60 projected damage against 100 HP clears the one-third bar.
	act, ok := survivalAction(w, s, &eff, TierSafe, &danger, 100)
	require.True(t, ok)
	assert.Equal(t, cure.ID, act.ItemID)
}

func TestSurvivalNothingToDo(t *testing.T) {
	w, s, eff := survivalFixture(t)
	var danger DangerGrid
	danger.Resize(16, 16)
	_, ok := survivalAction(w, s, &eff, TierSafe, &danger, 100)
	assert.False(t, ok)
}

func TestPhaseDoorSafety(t *testing.T) {
	lvl := testLevel(16, 16, 3)
	ch := testChar("warrior", world.Point{X: 8, Y: 8}, 3)
	w := testSnapshot(1, lvl, ch)

	var danger DangerGrid
	danger.Resize(16, 16)
	assert.True(t, phaseDoorSafe(w, &danger, 50))

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			danger.add(x, y, 200)
		}
	}
	assert.False(t, phaseDoorSafe(w, &danger, 50))
}

func TestLevelEntryResetIdempotent(t *testing.T) {
	lvl := testLevel(16, 16, 4)
	exploreAll(lvl)
	ch := testChar("warrior", world.Point{X: 8, Y: 8}, 4)
	w := testSnapshot(60, lvl, ch)

	s := NewState()
	s.Farming = FarmingState{Mode: true, BlockedDepth: 5, GoldTarget: 400, StartTurn: 10}
	s.AddBlacklist(world.Point{X: 2, Y: 2}, 50)
	s.RecordStep(world.Point{X: 1, Y: 1})

	s.enterLevel(w)
	farming := s.Farming
	tetherOrigin := *s.Tether.Origin
	turns := s.TurnsOnLevel

	s.enterLevel(w)
	assert.Equal(t, farming, s.Farming)
	assert.Equal(t, tetherOrigin, *s.Tether.Origin)
	assert.Equal(t, turns, s.TurnsOnLevel)
	assert.Empty(t, s.Recent)
	assert.Empty(t, s.Blacklist)
	assert.Nil(t, s.CurrentGoal)
}
