package bot

import (
	"fmt"

	"github.com/borglike/bot/internal/world"
)

// Progression machinery: readiness gating, farming, tether geometry, sweep
// and the two level-flip machines. The goal selector consumes these helpers;
// all state lives on State so the engine stays re-entrant.

const (
	sweepTimeoutTurns  = 500
	tetherCoveragePct  = 80
	morgothSweepPct    = 80
	uniqueBlockerCount = 2
)

// readinessIssue checks whether the agent may enter the given depth. A
// non-empty string names the first failed rule; empty means ready.
func readinessIssue(w *world.Snapshot, eff *EffectiveProfile, caps *Capabilities, depth int) string {
	ch := w.Char

	minLevel := eff.Tier().MinLevelForDepth(depth) + caps.DepthGateOffset
	if ch.Level < minLevel {
		return fmt.Sprintf("Under-levelled for D%d (level %d < %d)", depth, ch.Level, minLevel)
	}

	wantHeals := 1 + depth/10
	if countConsumables(ch, "heal") < wantHeals {
		return fmt.Sprintf("Need %d healing potions for D%d", wantHeals, depth)
	}

	if caps.Town && depth > 5 && countConsumables(ch, "teleport_town") == 0 {
		return fmt.Sprintf("No town scroll for D%d", depth)
	}

	if depth > 8 {
		wantEscape := 1
		if eff.Tier().String() == "squishy" {
			wantEscape = 2
		}
		if countConsumables(ch, "phase_door")+countConsumables(ch, "teleport_level") < wantEscape {
			return fmt.Sprintf("Need %d escape scrolls for D%d", wantEscape, depth)
		}
	}

	return ""
}

// underLevelled reports whether the level gate alone blocks the depth.
func underLevelled(ch *world.Character, eff *EffectiveProfile, caps *Capabilities, depth int) bool {
	return ch.Level < eff.Tier().MinLevelForDepth(depth)+caps.DepthGateOffset
}

// farmGoldTarget is the bankroll farming aims for before the next shop trip.
func farmGoldTarget(depth int) int {
	return 200 + depth*60
}

// enterFarming flips on the farming loop for a blocked depth.
func (s *State) enterFarming(w *world.Snapshot, blockedDepth int) {
	s.Farming.Mode = true
	s.Farming.BlockedDepth = blockedDepth
	s.Farming.GoldTarget = farmGoldTarget(blockedDepth)
	s.Farming.StartTurn = w.Turn
	origin := w.Char.Pos
	s.Tether.Origin = &origin
	s.Tether.RadiusIdx = 0
	s.Tether.Radius = 0
	s.Tether.FlipCount = 0
}

// exitFarming clears the loop once readiness holds again.
func (s *State) exitFarming() {
	s.Farming = FarmingState{}
	s.Tether = TetherState{}
}

// tetherRadii returns the unlocked tether box radii for the surf grade.
func tetherRadii(caps *Capabilities) []int {
	switch caps.Surf {
	case 0:
		return nil
	case 1:
		return tetherRadiiL1
	case 2:
		return tetherRadiiL2
	}
	return tetherRadiiL3
}

var (
	tetherRadiiL1 = []int{2}
	tetherRadiiL2 = []int{2, 4}
	tetherRadiiL3 = []int{2, 4, 10}
)

// currentTetherRadius resolves the active radius, arming it lazily.
func (s *State) currentTetherRadius(caps *Capabilities) int {
	radii := tetherRadii(caps)
	if len(radii) == 0 || s.Tether.Origin == nil {
		return 0
	}
	if s.Tether.RadiusIdx >= len(radii) {
		return 0
	}
	s.Tether.Radius = radii[s.Tether.RadiusIdx]
	return s.Tether.Radius
}

// tetherBoxCoverage returns the percentage of non-wall tiles inside the box
// already seen this visit.
func tetherBoxCoverage(lvl *world.Level, seen *SeenGrid, origin world.Point, radius int) int {
	total, covered := 0, 0
	for y := origin.Y - radius; y <= origin.Y+radius; y++ {
		for x := origin.X - radius; x <= origin.X+radius; x++ {
			if !lvl.InBounds(x, y) || !lvl.Passable[lvl.Idx(x, y)] {
				continue
			}
			total++
			if seen.Has(x, y) {
				covered++
			}
		}
	}
	if total == 0 {
		return 100
	}
	return 100 * covered / total
}

// advanceTether checks box completion and widens or finishes the tether.
// Returns true while the tether still binds the agent.
func (s *State) advanceTether(lvl *world.Level, caps *Capabilities) bool {
	radius := s.currentTetherRadius(caps)
	if radius == 0 || s.Tether.Origin == nil {
		return false
	}
	if tetherBoxCoverage(lvl, &s.Seen, *s.Tether.Origin, radius) >= tetherCoveragePct {
		s.Tether.FlipCount++
		s.Tether.RadiusIdx++
		if s.Tether.RadiusIdx >= len(tetherRadii(caps)) {
			return false
		}
	}
	return true
}

// sweepThresholdPct maps the sweep grade to its coverage requirement.
// Grade 0 effectively disables completion.
func sweepThresholdPct(caps *Capabilities) int {
	switch caps.Sweep {
	case 1:
		return 60
	case 2:
		return 75
	case 3:
		return 90
	}
	return 100
}

// seenFloorPercent is the share of passable floor seen this visit.
func seenFloorPercent(lvl *world.Level, seen *SeenGrid) int {
	if lvl.PassableCount == 0 {
		return 100
	}
	covered := 0
	for y := 0; y < lvl.Height; y++ {
		for x := 0; x < lvl.Width; x++ {
			if lvl.Passable[lvl.Idx(x, y)] && seen.Has(x, y) {
				covered++
			}
		}
	}
	return 100 * covered / lvl.PassableCount
}

// sweepEligible gates sweep mode: capability, depth window, squishy class or
// explicit range, and no exhaustion this level.
func sweepEligible(s *State, eff *EffectiveProfile, caps *Capabilities, depth int) bool {
	if caps.Sweep == 0 || s.Sweep.Exhausted || depth == 0 {
		return false
	}
	if !caps.SweepRange.Contains(depth) {
		return false
	}
	if eff.Tier().String() == "squishy" {
		return true
	}
	return caps.SweepRange.Start > 0 || caps.SweepRange.End > 0
}

// tickSweep updates sweep progress. Returns completed=true exactly once per
// level when coverage crosses the threshold.
func (s *State) tickSweep(w *world.Snapshot, eff *EffectiveProfile, caps *Capabilities) (completed bool) {
	if !s.Sweep.Mode {
		return false
	}
	if w.Turn-s.Sweep.StartTurn > sweepTimeoutTurns {
		s.Sweep.Mode = false
		s.Sweep.Exhausted = true
		return false
	}
	threshold := sweepThresholdPct(caps)
	if w.Level.Generator == world.GenLabyrinth {
		threshold = threshold * 3 / 4
	}
	if seenFloorPercent(w.Level, &s.Seen) >= threshold {
		s.Sweep.Mode = false
		return true
	}
	return false
}

// beginSweepFlip arms the descend-then-ascend spawn regeneration cycle.
// Independent from the unique-hunt flip by construction: separate struct,
// separate fields, no shared reads.
func (s *State) beginSweepFlip(targetDepth int) {
	s.Sweep.Flip = SweepFlipState{Active: true, TargetDepth: targetDepth}
}

// sweepFlipAction drives an active flip. On the target depth it marks the
// visit and turns back; above it, it keeps descending.
func (s *State) sweepFlipAction(w *world.Snapshot) (world.Action, bool) {
	if !s.Sweep.Flip.Active {
		return world.Action{}, false
	}
	depth := w.Char.Depth
	f := &s.Sweep.Flip
	switch {
	case depth == f.TargetDepth && !f.VisitedBlocked:
		f.VisitedBlocked = true
		if onTile(w, world.TileStairsDown) {
			return world.Descend(), true
		}
		return world.Action{}, false
	case depth == f.TargetDepth && f.VisitedBlocked:
		if onTile(w, world.TileStairsUp) {
			return world.Ascend(), true
		}
		return world.Action{}, false
	case depth < f.TargetDepth:
		// Back above the blocked floor with the visit done: flip complete.
		if f.VisitedBlocked {
			s.Sweep.Flip = SweepFlipState{}
			s.Seen.Reset(w.Level.Width, w.Level.Height)
			return world.Action{}, false
		}
		if onTile(w, world.TileStairsDown) {
			return world.Descend(), true
		}
	}
	return world.Action{}, false
}

// countUniqueBlockers counts living uniques on the level gated at or below
// the next depth.
func countUniqueBlockers(w *world.Snapshot, depth int) (int, *world.Monster) {
	count := 0
	var nearest *world.Monster
	for _, m := range w.Monsters {
		if !m.Alive() || m.Tmpl == nil || !m.Tmpl.Unique || m.Tmpl.Boss {
			continue
		}
		if m.Tmpl.Depth <= depth+1 {
			count++
			if nearest == nil ||
				world.Chebyshev(m.Pos, w.Char.Pos) < world.Chebyshev(nearest.Pos, w.Char.Pos) {
				nearest = m
			}
		}
	}
	return count, nearest
}

// morgothVisible reports whether the victory boss is in the current FOV.
func morgothVisible(w *world.Snapshot) bool {
	for _, m := range w.VisibleMonsters() {
		if m.Tmpl != nil && m.Tmpl.Boss {
			return true
		}
	}
	return false
}

// bossAlive reports whether the boss still lives anywhere on the level.
func bossAlive(w *world.Snapshot) bool {
	for _, m := range w.Monsters {
		if m.Alive() && m.Tmpl != nil && m.Tmpl.Boss {
			return true
		}
	}
	return false
}

// onTile reports whether the character stands on the given tile kind.
func onTile(w *world.Snapshot, t world.Tile) bool {
	return w.Level.TileAt(w.Char.Pos.X, w.Char.Pos.Y) == t
}
