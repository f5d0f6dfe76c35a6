package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borglike/bot/internal/world"
)

func TestMonsterThreat(t *testing.T) {
	ch := testChar("warrior", world.Point{X: 5, Y: 5}, 1)
	tmpl := basicTemplate(1, "kobold", 10, 100, 20)
	m := testMonster(1, world.Point{X: 8, Y: 5}, tmpl)

	// base 2*10 = 20, speed x1.0, awake x1.5 = 30. Player melee 5 → 4 hits
	// to kill → tanky x2 = 60. No armor, not evil-protected.
	assert.Equal(t, 60, monsterThreat(m, ch))

	m.Awake = false
	// 20 * 0.3 = 6, tanky x2 = 12.
	assert.Equal(t, 12, monsterThreat(m, ch))
}

func TestDangerGridFalloffRadius(t *testing.T) {
	lvl := testLevel(20, 20, 1)
	ch := testChar("warrior", world.Point{X: 2, Y: 2}, 1)
	m := testMonster(1, world.Point{X: 10, Y: 10}, basicTemplate(1, "orc", 10, 100, 20))
	w := testSnapshot(1, lvl, ch, m)

	s := NewState()
	danger, maxDanger := s.computeDangerGrid(w)

	threat := monsterThreat(m, ch)
	require.Positive(t, threat)

	assert.Equal(t, 2*threat, danger.At(10, 10))
	assert.Equal(t, threat, danger.At(11, 10))
	assert.Equal(t, int(0.35*float64(threat)), danger.At(13, 10))
	// Beyond Chebyshev 4 the monster contributes nothing.
	assert.Zero(t, danger.At(15, 10))
	assert.Zero(t, danger.At(10, 15))
	assert.Equal(t, 2*threat, maxDanger)
}

func TestDangerGridCache(t *testing.T) {
	lvl := testLevel(16, 16, 1)
	ch := testChar("warrior", world.Point{X: 2, Y: 2}, 1)
	m := testMonster(1, world.Point{X: 8, Y: 8}, basicTemplate(1, "orc", 8, 100, 30))
	w := testSnapshot(1, lvl, ch, m)

	s := NewState()
	s.computeDangerGrid(w)
	hash := s.dangerHash

	// Same inputs: cache hit, timestamp refreshed.
	w.Turn = 5
	s.computeDangerGrid(w)
	assert.Equal(t, hash, s.dangerHash)
	assert.Equal(t, 5, s.dangerTurn)

	// A wounded monster changes the hash and the field.
	m.HP = 10
	w.Turn = 6
	s.computeDangerGrid(w)
	assert.NotEqual(t, hash, s.dangerHash)
}

func TestStatusEffectDanger(t *testing.T) {
	lvl := testLevel(12, 12, 1)
	ch := testChar("warrior", world.Point{X: 5, Y: 5}, 1)
	ch.Statuses[world.StatusParalysis] = &world.Status{Remaining: 3}
	m := testMonster(1, world.Point{X: 6, Y: 5}, basicTemplate(1, "ghoul", 5, 100, 25))
	w := testSnapshot(1, lvl, ch, m)

	s := NewState()
	danger, _ := s.computeDangerGrid(w)

	// Paralysis adds 150 + 50 per adjacent monster on our own tile.
	base := monsterThreat(m, ch)
	assert.Equal(t, base+150+50, danger.At(5, 5))
}

func TestPoisonDangerScaling(t *testing.T) {
	lvl := testLevel(12, 12, 1)
	ch := testChar("warrior", world.Point{X: 5, Y: 5}, 1)
	ch.Statuses[world.StatusPoison] = &world.Status{Remaining: 10, Power: 3}
	w := testSnapshot(1, lvl, ch)

	s := NewState()
	danger, _ := s.computeDangerGrid(w)
	assert.Equal(t, 2*10*3, danger.At(5, 5))

	// Holding a cure cuts the contribution by 70%.
	giveItem(ch, 50, itemTemplate(4, "potion", "cure_poison", 0, 40))
	s.dangerValid = false
	danger, _ = s.computeDangerGrid(w)
	assert.Equal(t, 60*30/100, danger.At(5, 5))
}

func TestPersonalityThresholdClamps(t *testing.T) {
	ch := testChar("warrior", world.Point{}, 1)
	hot := EffectiveProfile{Personality: Personality{Aggression: 100, Caution: 0}}
	cold := EffectiveProfile{Personality: Personality{Aggression: 0, Caution: 100}}
	assert.Equal(t, 200, personalityThreshold(&hot, ch))
	assert.Equal(t, 50, personalityThreshold(&cold, ch))

	// HP scaling: under 25% the tolerance drops to 30%.
	ch.HP = 20
	assert.Equal(t, 60, personalityThreshold(&hot, ch))
}

func TestClassifyTier(t *testing.T) {
	assert.Equal(t, TierSafe, classifyTier(49, 100))
	assert.Equal(t, TierCaution, classifyTier(50, 100))
	assert.Equal(t, TierDanger, classifyTier(100, 100))
	assert.Equal(t, TierCritical, classifyTier(150, 100))
}

func TestImmediateTierNoMonsters(t *testing.T) {
	lvl := testLevel(10, 10, 1)
	ch := testChar("warrior", world.Point{X: 5, Y: 5}, 1)
	w := testSnapshot(1, lvl, ch)
	assert.Equal(t, TierSafe, immediateTier(w))
}

func TestImmediateTierAdjacent(t *testing.T) {
	lvl := testLevel(10, 10, 1)
	ch := testChar("warrior", world.Point{X: 5, Y: 5}, 1)
	weak := testMonster(1, world.Point{X: 6, Y: 5}, basicTemplate(1, "rat", 2, 100, 4))
	w := testSnapshot(1, lvl, ch, weak)
	// Tiny threat but adjacent: CAUTION, never SAFE.
	assert.Equal(t, TierCaution, immediateTier(w))

	big := testMonster(2, world.Point{X: 4, Y: 5}, basicTemplate(2, "troll", 40, 100, 300))
	w = testSnapshot(1, lvl, ch, weak, big)
	assert.GreaterOrEqual(t, immediateTier(w), TierDanger)
}
