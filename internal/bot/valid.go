package bot

import "github.com/borglike/bot/internal/world"

// goalStillValid runs the per-variant validity check for the standing goal.
func (e *Engine) goalStillValid(ctx *tickContext, s *State, g *Goal) bool {
	w := ctx.w
	ch := w.Char

	switch g.Kind {
	case GoalWait:
		return false

	case GoalFlee:
		if ctx.tier < TierDanger && hpRatio(ch) > 0.5 {
			s.FleeCooldownTurn = w.Turn + fleeCooldown
			return false
		}
		return true

	case GoalKill, GoalKite, GoalHuntUnique:
		m := w.MonsterByID(g.TargetID)
		if m == nil {
			return false
		}
		return w.Level.IsVisible(m.Pos.X, m.Pos.Y) || world.Chebyshev(m.Pos, ch.Pos) <= 1

	case GoalFarm:
		if g.TargetID > 0 {
			return w.MonsterByID(g.TargetID) != nil
		}
		if g.TargetID < 0 {
			return w.GroundItemByID(-g.TargetID) != nil
		}
		return true

	case GoalTake:
		return w.GroundItemByID(g.TargetID) != nil

	case GoalExplore:
		t, ok := g.TargetPoint()
		if !ok {
			return false
		}
		if s.Blacklisted(t, w.Turn) {
			return false
		}
		return t != ch.Pos

	case GoalDescend:
		return ch.Depth > 0 && ch.Depth < 50 && s.KnownStairsDown != nil

	case GoalAscendToFarm:
		// Standing on the stairs keeps the goal alive: the arrival handler
		// emits ascend on this very tick. Do not pre-empt on "already there".
		return ch.Depth > 0 && s.KnownStairsUp != nil

	case GoalSellToMerchant:
		t, ok := g.TargetPoint()
		return ok && ch.Depth == 0 && !s.Town.ShopsSold[t]

	case GoalBuyFromMerchant:
		t, ok := g.TargetPoint()
		return ok && ch.Depth == 0 && !s.Town.ShopsBought[t]

	case GoalVisitHealer:
		return ch.Depth == 0 && !s.Town.HealerVisited && ch.HP < ch.MaxHP

	case GoalReturnPortal, GoalExitTown:
		return ch.Depth == 0

	case GoalRecover:
		return ch.HP*10 < ch.MaxHP*9 &&
			ctx.danger.AtPoint(ch.Pos) < ctx.personalityThr

	case GoalTownTrip:
		return ch.Depth > 1 && findTownScroll(ch) != nil

	case GoalUseAltar:
		t, ok := g.TargetPoint()
		return ok && !s.fountainUsed[t]

	case GoalVisitMerchant:
		return true
	}
	return false
}

// refreshGoalTarget follows a drifting target in place: when the goal's
// monster moved, the target point is updated and the single-goal flow cache
// dropped.
func (e *Engine) refreshGoalTarget(ctx *tickContext, s *State, g *Goal) {
	switch g.Kind {
	case GoalKill, GoalKite, GoalHuntUnique:
	default:
		return
	}
	m := ctx.w.MonsterByID(g.TargetID)
	if m == nil || g.Target == nil {
		return
	}
	if *g.Target != m.Pos {
		*g.Target = m.Pos
		s.flowSingle.invalidate()
	}
}
