package bot

import (
	"github.com/borglike/bot/internal/core/event"
	"github.com/borglike/bot/internal/data"
	"github.com/borglike/bot/internal/world"
)

// RunTick is the engine entry point: one world snapshot in, exactly one
// action out. It never returns an error — unresolvable situations degrade to
// wait and the next tick re-plans.
//
// Phase order: level-entry reset → context build → danger → tier-gated
// survival → flip machines → stuck recovery → goal-driven movement.
func (e *Engine) RunTick(w *world.Snapshot, s *State) world.Action {
	ch := w.Char

	// Phase 1: level change detection.
	if ch.Depth != s.CurrentDepth {
		s.enterLevel(w)
		if ch.Depth == 50 {
			// Fresh final floor: any pending flip has done its job.
			s.Morgoth.FlipActive = false
		}
		event.Emit(e.bus, event.LevelChanged{Depth: ch.Depth, Turn: w.Turn})
	}

	// Phase 2: per-turn bookkeeping.
	s.TurnsOnLevel++
	s.gcBlacklist(w.Turn)
	s.RecordStep(ch.Pos)
	s.recordHP(ch.HP)

	// Phase 3: context build.
	var class *data.ClassProfile
	if e.classes != nil {
		class = e.classes.Get(ch.ClassID)
	}
	eff := effectiveProfile(e.pers, class)
	ctx := &tickContext{
		w:           w,
		eff:         eff,
		caps:        &e.caps,
		visMonsters: w.VisibleMonsters(),
	}

	// Phase 4: fold the FOV into the seen-this-visit set, learning stairs as
	// they come into view.
	e.recordVisible(w, s)

	// Phase 5: danger field and tiers.
	ctx.danger, ctx.maxDanger = s.computeDangerGrid(w)
	ctx.personalityThr = personalityThreshold(&ctx.eff, ch)
	ctx.avoidThr = avoidanceThreshold(&ctx.eff, ch)
	ctx.tier = classifyTier(ctx.danger.AtPoint(ch.Pos), ctx.avoidThr)
	ctx.immediate = immediateTier(w)

	// Phase 6: tier-gated survival actions.
	if act, ok := survivalAction(w, s, &ctx.eff, ctx.immediate, ctx.danger, ctx.avoidThr); ok {
		return act
	}

	// The sweep flip machine owns stair usage while armed.
	if act, ok := s.sweepFlipAction(w); ok {
		s.markProgress(w.Turn)
		return act
	}

	// Phase 7: stuck recovery, dungeon only.
	if ch.Depth > 0 {
		if act, ok := e.stuckRecovery(ctx, s); ok {
			return act
		}
	}

	// Sweep completion arms the flip one floor above the blocked depth.
	if s.tickSweep(w, &ctx.eff, &e.caps) {
		if s.Farming.Mode && ch.Depth == s.Farming.BlockedDepth-1 && s.KnownStairsDown != nil {
			s.beginSweepFlip(s.Farming.BlockedDepth)
		}
	}

	// Phase 8: goal-driven movement. Arrival can consume a goal and ask for
	// one re-selection within the same tick.
	for attempt := 0; attempt < 2; attempt++ {
		g := e.selectGoal(ctx, s)
		act, done, rerun := e.pursueGoal(ctx, s, g)
		if done {
			return act
		}
		if !rerun {
			break
		}
	}
	return world.Wait()
}

// recordVisible adds the FOV to the seen set and notes stairs positions.
func (e *Engine) recordVisible(w *world.Snapshot, s *State) {
	lvl := w.Level
	if s.Seen.W != lvl.Width || s.Seen.H != lvl.Height {
		s.Seen.Reset(lvl.Width, lvl.Height)
	}
	for y := 0; y < lvl.Height; y++ {
		row := y * lvl.Width
		for x := 0; x < lvl.Width; x++ {
			if !lvl.Visible[row+x] {
				continue
			}
			s.Seen.Add(x, y)
			switch lvl.Tiles[row+x] {
			case world.TileStairsUp:
				if s.KnownStairsUp == nil {
					p := world.Point{X: x, Y: y}
					s.KnownStairsUp = &p
				}
			case world.TileStairsDown:
				if s.KnownStairsDown == nil {
					p := world.Point{X: x, Y: y}
					s.KnownStairsDown = &p
				}
			}
		}
	}
}

// pursueGoal executes the standing goal: arrival action when there, a step
// otherwise. done=false with rerun=true asks the tick loop to reselect once.
func (e *Engine) pursueGoal(ctx *tickContext, s *State, g *Goal) (act world.Action, done, rerun bool) {
	w := ctx.w
	ch := w.Char

	switch g.Kind {
	case GoalWait:
		return world.Wait(), true, false

	case GoalRecover:
		if ch.HP*2 < ch.MaxHP {
			if heal := findBestHeal(ch); heal != nil {
				return world.UseItem(heal.ID), true, false
			}
		}
		// Quiet rest; regeneration does the work.
		return world.Wait(), true, false

	case GoalTownTrip:
		if tp := findTownScroll(ch); tp != nil {
			s.markProgress(w.Turn)
			return world.UseItem(tp.ID), true, false
		}
		return world.Action{}, false, true
	}

	t, hasTarget := g.TargetPoint()
	if !hasTarget {
		return world.Wait(), true, false
	}

	switch g.Kind {
	case GoalKill, GoalHuntUnique:
		return e.pursueCombat(ctx, s, g, false)
	case GoalKite:
		return e.pursueCombat(ctx, s, g, true)

	case GoalFarm:
		if g.TargetID > 0 {
			return e.pursueCombat(ctx, s, g, ctx.eff.PrefersRanged())
		}
		if gi := w.GroundItemByID(-g.TargetID); gi != nil {
			if ch.Pos == gi.Pos {
				s.markProgress(w.Turn)
				return world.Pickup(gi.ID), true, false
			}
			return e.approach(ctx, s, g, gi.Pos)
		}
		return world.Action{}, false, true

	case GoalTake:
		if gi := w.GroundItemByID(g.TargetID); gi != nil {
			if ch.Pos == gi.Pos {
				s.markProgress(w.Turn)
				return world.Pickup(gi.ID), true, false
			}
			return e.approach(ctx, s, g, gi.Pos)
		}
		return world.Action{}, false, true

	case GoalDescend:
		if onTile(w, world.TileStairsDown) {
			s.markProgress(w.Turn)
			return world.Descend(), true, false
		}
		return e.approachStairs(ctx, s, g, t)

	case GoalAscendToFarm:
		if onTile(w, world.TileStairsUp) {
			s.markProgress(w.Turn)
			s.DangerBlockedDescent = false
			return world.Ascend(), true, false
		}
		return e.approach(ctx, s, g, t)

	case GoalExplore:
		if ch.Pos == t {
			s.markProgress(w.Turn)
			s.CurrentGoal = nil
			return world.Action{}, false, true
		}
		return e.approachExplore(ctx, s, g, t)

	case GoalFlee:
		if ch.Pos == t {
			s.CurrentGoal = nil
			s.FleeCooldownTurn = w.Turn + fleeCooldown
			return world.Action{}, false, true
		}
		// Flee ignores danger avoidance: any way out beats standing still.
		return e.approach(ctx, s, g, t)

	case GoalSellToMerchant, GoalBuyFromMerchant, GoalVisitHealer,
		GoalReturnPortal, GoalExitTown:
		if ch.Pos == t || world.Chebyshev(ch.Pos, t) == 1 {
			s.markProgress(w.Turn)
			if act, ok := e.townArrival(ctx, s, g); ok {
				s.CurrentGoal = nil
				return act, true, false
			}
			return world.Wait(), true, false
		}
		return e.approach(ctx, s, g, t)

	case GoalUseAltar:
		if ch.Pos == t || world.Chebyshev(ch.Pos, t) == 1 {
			s.markProgress(w.Turn)
			s.fountainUsed[t] = true
			s.CurrentGoal = nil
			return world.UseAltar(), true, false
		}
		return e.approach(ctx, s, g, t)

	case GoalVisitMerchant:
		if ch.Pos == t || world.Chebyshev(ch.Pos, t) == 1 {
			s.markProgress(w.Turn)
			s.CurrentGoal = nil
			return world.Buy(), true, false
		}
		return e.approach(ctx, s, g, t)
	}

	return world.Wait(), true, false
}

// pursueCombat closes to range and swings. Kiting classes back off when the
// target crowds them.
func (e *Engine) pursueCombat(ctx *tickContext, s *State, g *Goal, kite bool) (world.Action, bool, bool) {
	w := ctx.w
	ch := w.Char
	m := w.MonsterByID(g.TargetID)
	if m == nil {
		return world.Action{}, false, true
	}
	dist := world.Chebyshev(m.Pos, ch.Pos)

	if kite {
		kiteRange := ctx.eff.EngageDistance()
		if kiteRange < 3 {
			kiteRange = 3
		}
		switch {
		case dist <= 1:
			if dir, ok := awayStep(w, m.Pos, ctx.danger); ok {
				return world.Move(dir), true, false
			}
			s.markProgress(w.Turn)
			return world.Attack(m.ID), true, false
		case dist <= kiteRange:
			s.markProgress(w.Turn)
			if ctx.eff.Class != nil && ctx.eff.Class.Caster && ch.MP >= 2 {
				return world.Cast("magic_missile", m.ID), true, false
			}
			if ch.RangedDamage() > 0 {
				return world.RangedAttack(m.ID), true, false
			}
			return world.Attack(m.ID), true, false
		}
		return e.approach(ctx, s, g, m.Pos)
	}

	if dist <= 1 {
		s.markProgress(w.Turn)
		return world.Attack(m.ID), true, false
	}
	if ctx.eff.PrefersRanged() && ch.RangedDamage() > 0 && dist <= ctx.eff.EngageDistance() {
		s.markProgress(w.Turn)
		return world.RangedAttack(m.ID), true, false
	}
	return e.approach(ctx, s, g, m.Pos)
}

// approach computes a flow to the target and takes one step. Unreachable
// goals are dropped with the flow caches so the next tick re-plans.
func (e *Engine) approach(ctx *tickContext, s *State, g *Goal, t world.Point) (world.Action, bool, bool) {
	w := ctx.w
	var avoid *Avoidance
	if e.useAvoidance(ctx, g) {
		avoid = &Avoidance{Danger: ctx.danger, Threshold: ctx.avoidThr}
	}
	flow := s.singleFlow(w.Level, t, avoid, w.Turn)
	if flow.AtPoint(w.Char.Pos) == FlowUnreachable && avoid != nil {
		flow = s.singleFlow(w.Level, t, nil, w.Turn)
	}
	if flow.AtPoint(w.Char.Pos) == FlowUnreachable {
		s.CurrentGoal = nil
		s.invalidateFlows()
		s.AddBlacklist(t, w.Turn)
		return world.Wait(), true, false
	}
	return e.stepAlong(ctx, s, flow)
}

// approachStairs implements the cautious-descend rule: when danger walls off
// the stairs, fall back to a direct flow — bull-rush if they are close,
// otherwise flag the descent as blocked and retreat next tick.
func (e *Engine) approachStairs(ctx *tickContext, s *State, g *Goal, t world.Point) (world.Action, bool, bool) {
	w := ctx.w
	var avoid *Avoidance
	if e.useAvoidance(ctx, g) {
		avoid = &Avoidance{Danger: ctx.danger, Threshold: ctx.avoidThr}
	}
	flow := s.singleFlow(w.Level, t, avoid, w.Turn)
	if flow.AtPoint(w.Char.Pos) == FlowUnreachable {
		direct := s.singleFlow(w.Level, t, nil, w.Turn)
		dist := direct.AtPoint(w.Char.Pos)
		if dist == FlowUnreachable {
			s.CurrentGoal = nil
			s.invalidateFlows()
			return world.Wait(), true, false
		}
		if dist <= 6 {
			return e.stepAlong(ctx, s, direct)
		}
		s.DangerBlockedDescent = true
		s.CurrentGoal = nil
		return world.Wait(), true, false
	}
	return e.stepAlong(ctx, s, flow)
}

// approachExplore routes exploration movement: corridor-following in
// labyrinths, the multi-source sweep field during sweeps, the exploration
// flow otherwise.
func (e *Engine) approachExplore(ctx *tickContext, s *State, g *Goal, t world.Point) (world.Action, bool, bool) {
	w := ctx.w
	lvl := w.Level

	if lvl.Generator == world.GenLabyrinth && s.CorridorFacing >= 0 {
		if dir, ok := s.corridorStep(w); ok {
			return world.Move(dir), true, false
		}
	}
	if lvl.Generator == world.GenLabyrinth && s.CorridorFacing < 0 {
		// Arm corridor mode when no frontier is within reach.
		near := false
		s.refreshFrontiers(lvl)
		for _, f := range s.frontiers {
			if world.Chebyshev(f.entry, w.Char.Pos) <= corridorExitRange {
				near = true
				break
			}
		}
		if !near {
			if dir, ok := s.corridorStep(w); ok {
				return world.Move(dir), true, false
			}
		}
	}

	if s.Sweep.Mode && !s.Seen.Has(t.X, t.Y) && lvl.IsExplored(t.X, t.Y) {
		s.goalScratch = s.sweepTargets(lvl, s.goalScratch)
		flow := s.sweepFlow(lvl, w.Char.Pos, s.goalScratch, w.Turn)
		if flow.AtPoint(w.Char.Pos) != FlowUnreachable {
			return e.stepAlong(ctx, s, flow)
		}
	}

	var avoid *Avoidance
	if e.useAvoidance(ctx, g) {
		avoid = &Avoidance{Danger: ctx.danger, Threshold: ctx.avoidThr}
	}
	flow := s.explorationFlow(lvl, t, avoid, w.Turn)
	if flow.AtPoint(w.Char.Pos) == FlowUnreachable && avoid != nil {
		flow = s.explorationFlow(lvl, t, nil, w.Turn)
	}
	if flow.AtPoint(w.Char.Pos) == FlowUnreachable {
		s.AddBlacklist(t, w.Turn)
		s.CurrentGoal = nil
		s.invalidateFlows()
		return world.Wait(), true, false
	}
	return e.stepAlong(ctx, s, flow)
}

// stepAlong picks one step down the flow and tracks progress.
func (e *Engine) stepAlong(ctx *tickContext, s *State, flow *FlowGrid) (world.Action, bool, bool) {
	w := ctx.w
	dir, ok := pickStep(w, s, flow)
	if !ok {
		// Every neighbour blocked; hold the goal and let the step selector
		// try again when something moves.
		return world.Wait(), true, false
	}
	if dir == world.DirWait {
		return world.Wait(), true, false
	}
	dx, dy := dir.Delta()
	next := world.Point{X: w.Char.Pos.X + dx, Y: w.Char.Pos.Y + dy}
	if flow.AtPoint(next) < flow.AtPoint(w.Char.Pos) {
		s.markProgress(w.Turn)
	}
	return world.Move(dir), true, false
}

// useAvoidance decides whether movement for this goal should path around
// danger. Combat and flight never do.
func (e *Engine) useAvoidance(ctx *tickContext, g *Goal) bool {
	if e.caps.Tactics == 0 {
		return false
	}
	switch g.Kind {
	case GoalFlee, GoalKill, GoalKite, GoalHuntUnique, GoalFarm:
		return false
	}
	return ctx.maxDanger > 0
}

// awayStep retreats one tile from a threat, preferring low-danger ground.
func awayStep(w *world.Snapshot, from world.Point, danger *DangerGrid) (world.Direction, bool) {
	best := world.DirWait
	bestDist, bestDanger := -1, 0
	for d := 0; d < 8; d++ {
		nx := w.Char.Pos.X + dirDX[d]
		ny := w.Char.Pos.Y + dirDY[d]
		if !w.Level.IsPassable(nx, ny) {
			continue
		}
		np := world.Point{X: nx, Y: ny}
		if w.MonsterAt(np) != nil {
			continue
		}
		dist := world.Chebyshev(np, from)
		dng := danger.At(nx, ny)
		if dist > bestDist || (dist == bestDist && dng < bestDanger) {
			best = world.Direction(d)
			bestDist = dist
			bestDanger = dng
		}
	}
	return best, bestDist > world.Chebyshev(w.Char.Pos, from)
}
