package bot

import (
	"fmt"

	"github.com/borglike/bot/internal/world"
)

// tickContext carries the per-tick derived values every phase reads.
type tickContext struct {
	w    *world.Snapshot
	eff  EffectiveProfile
	caps *Capabilities

	danger    *DangerGrid
	maxDanger int

	tier      DangerTier
	immediate DangerTier

	personalityThr int
	avoidThr       int

	visMonsters []*world.Monster
}

// selectGoal arbitrates the priority table with persistence: the standing
// goal survives until its re-eval interval passes, its validity check fails,
// or a strictly higher-priority candidate appears.
func (e *Engine) selectGoal(ctx *tickContext, s *State) *Goal {
	w := ctx.w
	cand := e.bestCandidate(ctx, s)

	cur := s.CurrentGoal
	if cur != nil {
		if !e.goalStillValid(ctx, s, cur) {
			s.lastGoalInvalid = true
			cur = nil
		} else {
			e.refreshGoalTarget(ctx, s, cur)
			if cand != nil && cand.Kind.Priority() > cur.Kind.Priority() {
				return e.adoptGoal(s, cand)
			}
			if w.Turn-cur.StartTurn < cur.Kind.reevalInterval() {
				return cur
			}
			if cand != nil && cand.Kind != cur.Kind {
				return e.adoptGoal(s, cand)
			}
			if cand != nil && cand.Kind == cur.Kind {
				// Same idea, possibly a fresher target; restart the clock.
				return e.adoptGoal(s, cand)
			}
			return cur
		}
	}

	if cand == nil {
		cand = newGoal(GoalWait, nil, 0, "nothing to do", w.Turn)
	}
	return e.adoptGoal(s, cand)
}

func (e *Engine) adoptGoal(s *State, g *Goal) *Goal {
	prev := s.CurrentGoal
	if prev == nil || prev.Kind != g.Kind || !samePoint(prev.Target, g.Target) {
		s.flowSingle.invalidate()
	}
	if prev == nil || prev.Kind != g.Kind {
		e.emitGoalChanged(prev, g)
	}
	s.CurrentGoal = g
	s.lastGoalInvalid = false
	return g
}

func samePoint(a, b *world.Point) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// bestCandidate walks the priority ladder top-down and returns the first
// triggered goal.
func (e *Engine) bestCandidate(ctx *tickContext, s *State) *Goal {
	w := ctx.w
	ch := w.Char
	turn := w.Turn

	// FLEE (100)
	if shouldFlee(w, s, &ctx.eff, ctx.caps, ctx.tier) {
		if dest, ok := fleeDestination(w, s, ctx.caps, ctx.danger); ok {
			t := dest
			return newGoal(GoalFlee, &t, 0, "danger over caution floor", turn)
		}
	}

	// KITE (90)
	if ctx.caps.Kiting > 0 && ctx.eff.PrefersRanged() && len(ctx.visMonsters) > 0 {
		if m := e.kiteTarget(ctx); m != nil {
			t := m.Pos
			return newGoal(GoalKite, &t, m.ID, "ranged class keeps distance", turn)
		}
	}

	// Town business (88/85/82) plus portal/exit.
	if ch.Depth == 0 && ctx.caps.Town {
		if g := e.townGoal(ctx, s); g != nil {
			return g
		}
	}

	// RECOVER (80)
	if ch.MaxHP > 0 && ch.HP*2 < ch.MaxHP &&
		ctx.danger.AtPoint(ch.Pos) < ctx.personalityThr &&
		findBestHeal(ch) != nil {
		return newGoal(GoalRecover, nil, 0, "low HP, quiet enough to recover", turn)
	}

	if ch.Depth > 0 {
		if g := e.dungeonGoal(ctx, s); g != nil {
			return g
		}
	}

	return nil
}

// dungeonGoal covers the in-dungeon half of the ladder (75..30).
func (e *Engine) dungeonGoal(ctx *tickContext, s *State) *Goal {
	w := ctx.w
	ch := w.Char
	turn := w.Turn
	depth := ch.Depth

	// Morgoth endgame owns depth 50.
	if depth == 50 {
		if g := e.morgothGoal(ctx, s); g != nil {
			return g
		}
	}
	// A pending Morgoth flip at depth 49 dives straight back down.
	if depth == 49 && s.Morgoth.FlipActive && s.KnownStairsDown != nil {
		t := *s.KnownStairsDown
		return newGoal(GoalDescend, &t, 0, "regenerate the final floor", turn)
	}

	// An armed sweep flip owns navigation until it unwinds.
	if s.Sweep.Flip.Active {
		if s.Sweep.Flip.VisitedBlocked {
			if s.KnownStairsUp != nil {
				t := *s.KnownStairsUp
				return newGoal(GoalAscendToFarm, &t, 0, "sweep flip return", turn)
			}
		} else if s.KnownStairsDown != nil {
			t := *s.KnownStairsDown
			return newGoal(GoalDescend, &t, 0, "sweep flip descent", turn)
		}
	}

	// HUNT_UNIQUE (75)
	if blockers, nearest := countUniqueBlockers(w, depth); blockers >= uniqueBlockerCount && nearest != nil {
		s.Unique.TargetID = nearest.ID
		s.Unique.FlipDepth = depth
		t := nearest.Pos
		return newGoal(GoalHuntUnique, &t, nearest.ID,
			fmt.Sprintf("%d uniques block D%d", blockers, depth+1), turn)
	}
	if s.Unique.TargetID != 0 {
		s.Unique = UniqueHuntState{}
	}

	// FARM (72)
	if s.Farming.Mode {
		if g := e.farmGoal(ctx, s); g != nil {
			return g
		}
	}

	// KILL (70)
	if m := e.killTarget(ctx); m != nil {
		t := m.Pos
		return newGoal(GoalKill, &t, m.ID, "engage "+m.Tmpl.Name, turn)
	}

	// TOWN_TRIP (68)
	if ctx.caps.Town && depth > 1 && findTownScroll(ch) != nil && e.wantsTownTrip(ctx, s) {
		return newGoal(GoalTownTrip, nil, 0, "restock in town", turn)
	}

	// ASCEND_TO_FARM (66)
	if g := e.ascendGoal(ctx, s); g != nil {
		return g
	}

	// USE_ALTAR (55)
	if ctx.tier == TierSafe {
		if p, ok := findVisibleTile(w, world.TileAltar); ok && !s.fountainUsed[p] && ch.Gold > 100 {
			t := p
			return newGoal(GoalUseAltar, &t, 0, "altar within reach", turn)
		}
	}

	// TAKE (50)
	if g := findPickupTarget(w, &ctx.eff); g != nil {
		t := g.Pos
		return newGoal(GoalTake, &t, g.ID, "pick up "+g.Item.Tmpl.Name, turn)
	}

	// DESCEND (40)
	if g := e.descendGoal(ctx, s); g != nil {
		return g
	}

	// EXPLORE (30)
	if g := e.exploreGoal(ctx, s); g != nil {
		return g
	}

	return nil
}

// morgothGoal runs the depth-50 script: kill when visible, otherwise sweep
// to 80% coverage, then flip through depth 49 to reroll spawns.
func (e *Engine) morgothGoal(ctx *tickContext, s *State) *Goal {
	w := ctx.w
	turn := w.Turn
	if !bossAlive(w) {
		return nil
	}
	if morgothVisible(w) {
		s.Morgoth.FlipActive = false
		for _, m := range w.VisibleMonsters() {
			if m.Tmpl != nil && m.Tmpl.Boss {
				t := m.Pos
				return newGoal(GoalKill, &t, m.ID, "the Lord of Darkness", turn)
			}
		}
	}
	if seenFloorPercent(w.Level, &s.Seen) >= morgothSweepPct {
		if s.KnownStairsUp != nil {
			s.Morgoth.FlipActive = true
			t := *s.KnownStairsUp
			return newGoal(GoalAscendToFarm, &t, 0, "flip the final floor", turn)
		}
	}
	if !s.Sweep.Mode {
		s.Sweep.Mode = true
		s.Sweep.StartTurn = turn
	}
	if target, ok := s.findSweepTarget(w); ok {
		t := target
		return newGoal(GoalExplore, &t, 0, "sweep for the boss", turn)
	}
	return nil
}

// farmGoal dispatches inside the farming loop: shop trip, climb to the farm
// floor, kill/loot inside the tether, then tether sweep.
func (e *Engine) farmGoal(ctx *tickContext, s *State) *Goal {
	w := ctx.w
	ch := w.Char
	turn := w.Turn

	// Done farming the moment the gate opens again.
	if readinessIssue(w, &ctx.eff, ctx.caps, s.Farming.BlockedDepth) == "" {
		s.exitFarming()
		return nil
	}

	// Still under-levelled at or near the blocked floor: climbing comes
	// first; the tether re-anchors on the easier level.
	if underLevelled(ch, &ctx.eff, ctx.caps, s.Farming.BlockedDepth) &&
		ch.Depth >= s.Farming.BlockedDepth-1 {
		return nil
	}

	if s.Tether.Origin != nil {
		radius := s.currentTetherRadius(ctx.caps)
		if radius > 0 {
			origin := *s.Tether.Origin
			// Targets inside the box first.
			var target *world.Monster
			for _, m := range ctx.visMonsters {
				if world.Chebyshev(m.Pos, origin) <= radius {
					if target == nil ||
						world.Chebyshev(m.Pos, ch.Pos) < world.Chebyshev(target.Pos, ch.Pos) {
						target = m
					}
				}
			}
			if target != nil {
				t := target.Pos
				return newGoal(GoalFarm, &t, target.ID, "farm kill in tether", turn)
			}
			for _, g := range w.VisibleGroundItems() {
				if world.Chebyshev(g.Pos, origin) <= radius {
					t := g.Pos
					return newGoal(GoalFarm, &t, -g.ID, "farm loot in tether", turn)
				}
			}
			// Nothing to do: sweep the box for coverage.
			if s.advanceTether(w.Level, ctx.caps) {
				if target, ok := s.findTetherSweepTarget(w, origin, radius); ok {
					t := target
					return newGoal(GoalExplore, &t, 0, "tether sweep", turn)
				}
			}
			return nil
		}
	}
	return nil
}

// ascendGoal covers both retreat-to-farm and the danger-blocked-descent
// fallback.
func (e *Engine) ascendGoal(ctx *tickContext, s *State) *Goal {
	w := ctx.w
	turn := w.Turn
	if s.KnownStairsUp == nil {
		return nil
	}
	if s.DangerBlockedDescent {
		t := *s.KnownStairsUp
		return newGoal(GoalAscendToFarm, &t, 0, "stairs camped by danger", turn)
	}
	if !s.Farming.Mode {
		return nil
	}
	// Farm above the blocked floor while the level gate still fails.
	issue := readinessIssue(w, &ctx.eff, ctx.caps, s.Farming.BlockedDepth)
	if issue == "" {
		return nil
	}
	if underLevelled(w.Char, &ctx.eff, ctx.caps, s.Farming.BlockedDepth) &&
		w.Char.Depth >= s.Farming.BlockedDepth-1 {
		t := *s.KnownStairsUp
		return newGoal(GoalAscendToFarm, &t, 0, issue, turn)
	}
	return nil
}

// descendGoal gates descent on exploration/patience and readiness.
func (e *Engine) descendGoal(ctx *tickContext, s *State) *Goal {
	w := ctx.w
	ch := w.Char
	turn := w.Turn
	depth := ch.Depth
	if depth >= 50 {
		return nil
	}

	explored := explorationPercent(w.Level) >= explorationThreshold(&ctx.eff, w.Level.Generator)
	patient := s.TurnsOnLevel >= ctx.eff.Patience
	if !explored && !patient {
		return nil
	}
	if s.KnownStairsDown == nil {
		return nil
	}

	// Sweep before leaving when the class wants the full walk.
	if sweepEligible(s, &ctx.eff, ctx.caps, depth) && !s.Sweep.Mode {
		threshold := sweepThresholdPct(ctx.caps)
		if w.Level.Generator == world.GenLabyrinth {
			threshold = threshold * 3 / 4
		}
		if seenFloorPercent(w.Level, &s.Seen) < threshold {
			s.Sweep.Mode = true
			s.Sweep.StartTurn = turn
			if target, ok := s.findSweepTarget(w); ok {
				t := target
				return newGoal(GoalExplore, &t, 0, "level sweep", turn)
			}
		}
	}

	if ctx.caps.Preparedness > 0 {
		if issue := readinessIssue(w, &ctx.eff, ctx.caps, depth+1); issue != "" {
			if !s.Farming.Mode {
				s.enterFarming(w, depth+1)
				e.emitFarmingStarted(depth+1, issue)
			}
			return nil
		}
		if s.Farming.Mode {
			s.exitFarming()
		}
	}

	t := *s.KnownStairsDown
	return newGoal(GoalDescend, &t, 0, "level done, heading down", turn)
}

// exploreGoal picks a frontier, or a sweep target when the level is fully
// explored but sweep coverage still lags.
func (e *Engine) exploreGoal(ctx *tickContext, s *State) *Goal {
	w := ctx.w
	turn := w.Turn
	if target, ok := s.findExplorationTarget(w); ok {
		t := target
		return newGoal(GoalExplore, &t, 0, "frontier", turn)
	}
	if s.Sweep.Mode {
		if target, ok := s.findSweepTarget(w); ok {
			t := target
			return newGoal(GoalExplore, &t, 0, "sweep remainder", turn)
		}
	}
	return nil
}

// killTarget picks the monster KILL would engage: anything adjacent, or a
// visible one within the tactical engage envelope.
func (e *Engine) killTarget(ctx *tickContext) *world.Monster {
	w := ctx.w
	var best *world.Monster
	bestDist := 0
	for _, m := range ctx.visMonsters {
		d := world.Chebyshev(m.Pos, w.Char.Pos)
		engage := 1
		if ctx.caps.Tactics > 0 {
			engage = 2 + ctx.eff.Aggression/20 // 2..7
		}
		if d > engage && d > ctx.eff.EngageDistance() {
			continue
		}
		if best == nil || d < bestDist || (d == bestDist && m.ID < best.ID) {
			best = m
			bestDist = d
		}
	}
	return best
}

// kiteTarget picks the ranged-class target when a usable ranged attack
// exists.
func (e *Engine) kiteTarget(ctx *tickContext) *world.Monster {
	w := ctx.w
	ch := w.Char
	hasRanged := ch.RangedDamage() > 0
	hasSpell := ctx.eff.Class != nil && ctx.eff.Class.Caster && ch.MP >= 2
	if !hasRanged && !hasSpell {
		return nil
	}
	var best *world.Monster
	bestDist := 0
	for _, m := range ctx.visMonsters {
		d := world.Chebyshev(m.Pos, ch.Pos)
		if best == nil || d < bestDist || (d == bestDist && m.ID < best.ID) {
			best = m
			bestDist = d
		}
	}
	return best
}

// wantsTownTrip triggers the restock run once farming met its gold target or
// consumable stocks ran dry.
func (e *Engine) wantsTownTrip(ctx *tickContext, s *State) bool {
	ch := ctx.w.Char
	needHealing := countConsumables(ch, "heal") == 0
	needEscape := ch.Depth > 8 && countConsumables(ch, "phase_door") == 0
	goldMet := s.Farming.Mode && ch.Gold >= s.Farming.GoldTarget
	if !needHealing && !needEscape && !goldMet {
		return false
	}
	s.Town.Needs = TownNeeds{
		TP:      countConsumables(ch, "teleport_town") <= 1,
		Healing: needHealing || countConsumables(ch, "heal") < 3,
		Escape:  needEscape,
	}
	return true
}

// findVisibleTile scans the FOV for a tile kind.
func findVisibleTile(w *world.Snapshot, t world.Tile) (world.Point, bool) {
	lvl := w.Level
	for y := 0; y < lvl.Height; y++ {
		for x := 0; x < lvl.Width; x++ {
			if lvl.Visible[lvl.Idx(x, y)] && lvl.Tiles[lvl.Idx(x, y)] == t {
				return world.Point{X: x, Y: y}, true
			}
		}
	}
	return world.Point{}, false
}

// findSweepTarget returns the nearest explored-but-unseen tile.
func (s *State) findSweepTarget(w *world.Snapshot) (world.Point, bool) {
	s.goalScratch = s.sweepTargets(w.Level, s.goalScratch)
	best := world.Point{}
	bestDist := -1
	for _, p := range s.goalScratch {
		if s.Blacklisted(p, w.Turn) {
			continue
		}
		d := world.Chebyshev(p, w.Char.Pos)
		if bestDist < 0 || d < bestDist {
			best = p
			bestDist = d
		}
	}
	return best, bestDist >= 0
}

// findTetherSweepTarget restricts the sweep to the tether box.
func (s *State) findTetherSweepTarget(w *world.Snapshot, origin world.Point, radius int) (world.Point, bool) {
	lvl := w.Level
	best := world.Point{}
	bestDist := -1
	for y := origin.Y - radius; y <= origin.Y+radius; y++ {
		for x := origin.X - radius; x <= origin.X+radius; x++ {
			if !lvl.IsPassable(x, y) || s.Seen.Has(x, y) {
				continue
			}
			p := world.Point{X: x, Y: y}
			if s.Blacklisted(p, w.Turn) {
				continue
			}
			d := world.Chebyshev(p, w.Char.Pos)
			if bestDist < 0 || d < bestDist {
				best = p
				bestDist = d
			}
		}
	}
	return best, bestDist >= 0
}
