package bot

import "github.com/borglike/bot/internal/world"

// DangerTier classifies the global threat on the character's tile.
type DangerTier uint8

const (
	TierSafe DangerTier = iota
	TierCaution
	TierDanger
	TierCritical
)

func (t DangerTier) String() string {
	switch t {
	case TierCaution:
		return "caution"
	case TierDanger:
		return "danger"
	case TierCritical:
		return "critical"
	}
	return "safe"
}

// Distance falloff for monster threat projection, indexed by Chebyshev
// distance 0..4. Beyond radius 4 a monster contributes nothing.
var dangerFalloff = [5]float64{2.0, 1.0, 0.6, 0.35, 0.2}

const dangerRadius = 4

// Status-effect danger added on the character's own tile. Paralysis is
// handled separately (it scales with adjacent monsters).
var statusDanger = map[world.StatusEffect]int{
	world.StatusConfusion: 40,
	world.StatusBlind:     35,
	world.StatusSlow:      25,
	world.StatusTerrified: 20,
	world.StatusDrained:   15,
}

// monsterThreat computes T(m): expected pressure the monster can apply,
// scaled by speed, wakefulness, effective tankiness against our damage, and
// our armor mitigation.
func monsterThreat(m *world.Monster, ch *world.Character) int {
	t := m.Tmpl
	if t == nil {
		return 0
	}
	statusKinds, paralyzes := t.StatusAttackCount()
	base := float64(2 * t.AvgAttackDamage())
	base += float64(5 * statusKinds)
	if paralyzes {
		base += 10
	}
	base += float64(3 * len(t.Spells))
	if t.Breath {
		base += 15
	}

	base *= float64(t.Speed) / 100.0
	if m.Awake {
		base *= 1.5
	} else {
		base *= 0.3
	}

	playerDmg := ch.MeleeDamage()
	if rd := ch.RangedDamage(); rd > playerDmg {
		playerDmg = rd
	}
	if playerDmg < 1 {
		playerDmg = 1
	}
	hitsToKill := (m.HP + playerDmg - 1) / playerDmg
	tanky := float64(hitsToKill) / 2.0
	if tanky > 3 {
		tanky = 3
	}
	if tanky < 1 {
		tanky = 1
	}
	base *= tanky

	armorReduc := ch.Armor() / 2
	if armorReduc > 50 {
		armorReduc = 50
	}
	base *= float64(100-armorReduc) / 100.0

	if ch.HasStatus(world.StatusProtEvil) && t.Evil && ch.Level >= t.Depth {
		base *= 0.5
	}
	return int(base)
}

// dangerGridHash is FNV-1a over live monsters' (id, x, y, hp) plus the
// character position. A matching hash means the cached field is still exact.
func dangerGridHash(w *world.Snapshot) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	mix := func(v int) {
		for i := 0; i < 4; i++ {
			h ^= uint64(byte(v >> (8 * i)))
			h *= prime64
		}
	}
	for _, m := range w.Monsters {
		if !m.Alive() {
			continue
		}
		mix(m.ID)
		mix(m.Pos.X)
		mix(m.Pos.Y)
		mix(m.HP)
	}
	mix(w.Char.Pos.X)
	mix(w.Char.Pos.Y)
	return h
}

// computeDangerGrid fills the per-tile threat field. Results are cached on
// the monster hash; a hit returns the stored field with only the timestamp
// refreshed.
func (s *State) computeDangerGrid(w *world.Snapshot) (*DangerGrid, int) {
	lvl := w.Level
	hash := dangerGridHash(w)
	if s.dangerValid && s.dangerHash == hash &&
		s.danger.W == lvl.Width && s.danger.H == lvl.Height {
		s.dangerTurn = w.Turn
		return &s.danger, s.dangerMax
	}

	s.danger.Resize(lvl.Width, lvl.Height)
	for _, m := range w.Monsters {
		if !m.Alive() {
			continue
		}
		threat := monsterThreat(m, w.Char)
		if threat <= 0 {
			continue
		}
		x0 := m.Pos.X - dangerRadius
		x1 := m.Pos.X + dangerRadius
		y0 := m.Pos.Y - dangerRadius
		y1 := m.Pos.Y + dangerRadius
		for y := y0; y <= y1; y++ {
			if y < 0 || y >= lvl.Height {
				continue
			}
			for x := x0; x <= x1; x++ {
				if x < 0 || x >= lvl.Width {
					continue
				}
				d := world.Chebyshev(m.Pos, world.Point{X: x, Y: y})
				s.danger.add(x, y, int(float64(threat)*dangerFalloff[d]))
			}
		}
	}

	// Status effects weigh on the tile we stand on.
	ch := w.Char
	if lvl.InBounds(ch.Pos.X, ch.Pos.Y) {
		if ch.HasStatus(world.StatusParalysis) {
			s.danger.add(ch.Pos.X, ch.Pos.Y, 150+50*w.AdjacentMonsters(ch.Pos))
		}
		for effect, amount := range statusDanger {
			if ch.HasStatus(effect) {
				s.danger.add(ch.Pos.X, ch.Pos.Y, amount)
			}
		}
		if st := ch.StatusFor(world.StatusPoison); st != nil {
			poison := 2 * st.Remaining * st.Power
			if findConsumable(ch, "cure_poison") != nil {
				poison = poison * 30 / 100
			}
			if ch.MaxHP > 0 && ch.HP*100 < ch.MaxHP*30 {
				poison = poison * 3 / 2
			}
			s.danger.add(ch.Pos.X, ch.Pos.Y, poison)
		}
	}

	maxDanger := 0
	for _, v := range s.danger.Cells {
		if int(v) > maxDanger {
			maxDanger = int(v)
		}
	}

	s.dangerHash = hash
	s.dangerValid = true
	s.dangerMax = maxDanger
	s.dangerTurn = w.Turn
	return &s.danger, maxDanger
}

// personalityThreshold is the HP-scaled base danger tolerance.
func personalityThreshold(eff *EffectiveProfile, ch *world.Character) int {
	base := 100.0 * (1 + (2*float64(eff.Aggression)-1.5*float64(eff.Caution))/100.0)
	if base < 50 {
		base = 50
	}
	if base > 200 {
		base = 200
	}
	ratio := hpRatio(ch)
	switch {
	case ratio < 0.25:
		base *= 0.3
	case ratio < 0.50:
		base *= 0.6
	case ratio < 0.75:
		base *= 0.8
	}
	return int(base)
}

// avoidanceThreshold is the flow-avoidance cutoff: the base tolerance scaled
// by HP (floored at 30%) and by consumable reserves.
func avoidanceThreshold(eff *EffectiveProfile, ch *world.Character) int {
	base := 100.0 * (1 + (2*float64(eff.Aggression)-1.5*float64(eff.Caution))/100.0)
	if base < 50 {
		base = 50
	}
	if base > 200 {
		base = 200
	}
	ratio := hpRatio(ch)
	if ratio < 0.3 {
		ratio = 0.3
	}
	bonus := 1.0
	if findConsumable(ch, "heal") != nil {
		bonus += 0.15
	}
	if findEscapeScroll(ch) != nil {
		bonus += 0.10
	}
	return int(base * ratio * bonus)
}

// classifyTier buckets the danger on the character's tile against the
// avoidance threshold.
func classifyTier(dangerHere, avoidance int) DangerTier {
	if avoidance <= 0 {
		avoidance = 1
	}
	v := float64(dangerHere) / float64(avoidance)
	switch {
	case v < 0.5:
		return TierSafe
	case v < 1.0:
		return TierCaution
	case v < 1.5:
		return TierDanger
	}
	return TierCritical
}

// immediateTier classifies only what can reach us next turn: adjacent
// monsters at full weight plus fast monsters two tiles out at half weight.
func immediateTier(w *world.Snapshot) DangerTier {
	sum := 0
	adjacent := false
	for _, m := range w.Monsters {
		if !m.Alive() {
			continue
		}
		d := world.Chebyshev(m.Pos, w.Char.Pos)
		switch {
		case d <= 1:
			sum += monsterThreat(m, w.Char)
			adjacent = true
		case d == 2 && m.Tmpl != nil && m.Tmpl.Speed > 100:
			sum += monsterThreat(m, w.Char) / 2
		}
	}
	hp := w.Char.HP
	if hp < 1 {
		hp = 1
	}
	switch {
	case sum*2 < hp:
		if !adjacent {
			return TierSafe
		}
		return TierCaution
	case sum < hp:
		return TierDanger
	}
	return TierCritical
}

func hpRatio(ch *world.Character) float64 {
	if ch.MaxHP <= 0 {
		return 1
	}
	return float64(ch.HP) / float64(ch.MaxHP)
}
