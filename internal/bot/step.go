package bot

import "github.com/borglike/bot/internal/world"

// pickStep chooses one adjacent step down the flow field, or Wait when we
// already stand on a source tile. Candidates are scored and the minimum wins;
// ties resolve by scan order (NW,N,NE,W,E,SW,S,SE).
func pickStep(w *world.Snapshot, s *State, flow *FlowGrid) (world.Direction, bool) {
	p := w.Char.Pos
	here := flow.AtPoint(p)
	if here == 0 {
		return world.DirWait, true
	}

	bestDir := world.DirWait
	bestScore := 0
	found := false
	for d := 0; d < 8; d++ {
		nx := p.X + dirDX[d]
		ny := p.Y + dirDY[d]
		if !w.Level.InBounds(nx, ny) {
			continue
		}
		if !w.Level.Passable[w.Level.Idx(nx, ny)] {
			continue
		}
		cost := flow.At(nx, ny)
		if cost == FlowUnreachable {
			continue
		}
		np := world.Point{X: nx, Y: ny}
		if w.MonsterAt(np) != nil {
			continue
		}

		score := cost
		if here != FlowUnreachable {
			if cost > here {
				score += 100
			} else if cost == here {
				score += 50
			}
		}
		dir := world.Direction(d)
		if dir.Cardinal() {
			score -= 5
		}
		score += s.recencyPenalty(np)

		if !found || score < bestScore {
			found = true
			bestScore = score
			bestDir = dir
		}
	}
	if !found {
		return world.DirWait, false
	}
	return bestDir, true
}

// stepToward is pickStep against a throwaway single-goal field. Used by the
// stuck recovery and survival paths that steer without a standing goal.
func (s *State) stepToward(w *world.Snapshot, goal world.Point, avoid *Avoidance) (world.Direction, bool) {
	flow := s.singleFlow(w.Level, goal, avoid, w.Turn)
	if flow.AtPoint(w.Char.Pos) == FlowUnreachable {
		return world.DirWait, false
	}
	return pickStep(w, s, flow)
}
