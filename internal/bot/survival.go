package bot

import (
	"github.com/borglike/bot/internal/data"
	"github.com/borglike/bot/internal/world"
)

// Survival runs before any goal work: tier-gated consumable triage and
// escape decisions. Returning an action short-circuits the tick.

const (
	phaseDoorRadius = 10
	fleeCooldown    = 20
)

// survivalAction is the tier-gated consumable ladder. It never moves the
// character; movement-based escape belongs to the FLEE goal.
func survivalAction(w *world.Snapshot, s *State, eff *EffectiveProfile, tier DangerTier, danger *DangerGrid, avoidThreshold int) (world.Action, bool) {
	ch := w.Char

	// Paralysis: nothing can be done, burn the turn.
	if ch.HasStatus(world.StatusParalysis) {
		return world.Wait(), true
	}

	ratio := hpRatio(ch)

	// Critical pressure with low HP: heal first, escape second.
	if tier >= TierDanger && ratio < 0.5 {
		if heal := findBestHeal(ch); heal != nil {
			return world.UseItem(heal.ID), true
		}
	}
	if tier == TierCritical && ratio < 0.35 {
		if pd := findConsumable(ch, "phase_door"); pd != nil && phaseDoorSafe(w, danger, avoidThreshold) {
			return world.UseItem(pd.ID), true
		}
		// Teleport Level moves the character up a floor. That is what the
		// scroll does here; do not "fix" it to descend.
		if tl := findConsumable(ch, "teleport_level"); tl != nil && ch.Depth > 0 {
			return world.UseItem(tl.ID), true
		}
	}

	// Emergency heal regardless of tier when nearly dead.
	if ratio < 0.2 {
		if heal := findBestHeal(ch); heal != nil {
			return world.UseItem(heal.ID), true
		}
	}

	// Damage-over-time: cure poison before it outruns the potion stock.
	if st := ch.StatusFor(world.StatusPoison); st != nil {
		projected := st.Remaining * st.Power
		if projected >= ch.HP/3 || s.hpDropRate() > 0 && ratio < 0.6 {
			if cure := findConsumable(ch, "cure_poison"); cure != nil {
				return world.UseItem(cure.ID), true
			}
		}
	}

	// Buff window: protection from evil when evil monsters close in.
	if tier >= TierCaution && !ch.HasStatus(world.StatusProtEvil) {
		evil := 0
		for _, m := range w.VisibleMonsters() {
			if m.Tmpl != nil && m.Tmpl.Evil && world.Chebyshev(m.Pos, ch.Pos) <= 3 {
				evil++
			}
		}
		if evil >= 2 {
			if sc := findConsumable(ch, "protection_evil"); sc != nil {
				return world.UseItem(sc.ID), true
			}
		}
	}

	// Haste into a hard fight, for every class outside the tank tier.
	if tier >= TierDanger && !ch.HasStatus(world.StatusHaste) && eff.Tier() != data.TierTank {
		if sp := findConsumable(ch, "haste"); sp != nil {
			return world.UseItem(sp.ID), true
		}
	}

	return world.Action{}, false
}

// phaseDoorSafe estimates whether a short random displacement is likely to
// land somewhere tolerable: at least half of the candidate tiles within the
// phase-door radius must sit under the avoidance threshold.
func phaseDoorSafe(w *world.Snapshot, danger *DangerGrid, avoidThreshold int) bool {
	lvl := w.Level
	p := w.Char.Pos
	total, safe := 0, 0
	for y := p.Y - phaseDoorRadius; y <= p.Y+phaseDoorRadius; y++ {
		for x := p.X - phaseDoorRadius; x <= p.X+phaseDoorRadius; x++ {
			if !lvl.IsPassable(x, y) {
				continue
			}
			total++
			if danger.At(x, y) <= avoidThreshold {
				safe++
			}
		}
	}
	if total == 0 {
		return false
	}
	return safe*2 >= total
}

// shouldFlee decides whether the FLEE goal may trigger: real danger, low HP,
// class willing, and not inside the post-flee cooldown.
func shouldFlee(w *world.Snapshot, s *State, eff *EffectiveProfile, caps *Capabilities, tier DangerTier) bool {
	if caps.Retreat == 0 || eff.NeverRetreats() {
		return false
	}
	if tier < TierDanger {
		return false
	}
	if w.Turn < s.FleeCooldownTurn {
		return false
	}
	cautionFloor := 0.35 + float64(eff.Caution)/400.0 // 0.35..0.60
	return hpRatio(w.Char) < cautionFloor
}

// fleeDestination picks where FLEE runs to: known stairs up when retreat is
// drilled in, otherwise the reachable tile that minimises danger within a
// short horizon.
func fleeDestination(w *world.Snapshot, s *State, caps *Capabilities, danger *DangerGrid) (world.Point, bool) {
	if caps.Retreat >= 2 && s.KnownStairsUp != nil && *s.KnownStairsUp != w.Char.Pos {
		return *s.KnownStairsUp, true
	}
	// Escape-route search: scan explored floor in a widening box for the
	// calmest tile that is not where we already stand.
	lvl := w.Level
	best := w.Char.Pos
	bestDanger := danger.AtPoint(w.Char.Pos)
	found := false
	for radius := 3; radius <= 12; radius += 3 {
		for y := w.Char.Pos.Y - radius; y <= w.Char.Pos.Y+radius; y++ {
			for x := w.Char.Pos.X - radius; x <= w.Char.Pos.X+radius; x++ {
				if !lvl.IsPassable(x, y) || !lvl.IsExplored(x, y) {
					continue
				}
				p := world.Point{X: x, Y: y}
				if p == w.Char.Pos {
					continue
				}
				d := danger.At(x, y)
				if !found || d < bestDanger {
					found = true
					best = p
					bestDanger = d
				}
			}
		}
		if found && bestDanger == 0 {
			break
		}
	}
	return best, found
}
