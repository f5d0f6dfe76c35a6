package bot

import "github.com/borglike/bot/internal/world"

// frontierTile is an unexplored passable tile touching explored ground,
// paired with the explored entry point the bot actually walks to.
type frontierTile struct {
	pos        world.Point
	entry      world.Point
	unexplored int // unexplored passable 8-neighbours of pos
}

const (
	frontierMaxDist   = 50
	hysteresisWindow  = 30
	corridorExitRange = 8
)

// refreshFrontiers rebuilds the frontier list when the explored counter
// moved. Positions are cached; scores are always recomputed fresh.
func (s *State) refreshFrontiers(lvl *world.Level) {
	if s.frontierValid && s.frontierKey == lvl.ExploredCount {
		return
	}
	s.frontiers = s.frontiers[:0]
	for y := 0; y < lvl.Height; y++ {
		for x := 0; x < lvl.Width; x++ {
			i := lvl.Idx(x, y)
			if lvl.Explored[i] || !lvl.Passable[i] {
				continue
			}
			entry, ok := exploredEntry(lvl, x, y)
			if !ok {
				continue
			}
			s.frontiers = append(s.frontiers, frontierTile{
				pos:        world.Point{X: x, Y: y},
				entry:      entry,
				unexplored: unexploredNeighbours(lvl, x, y),
			})
		}
	}
	s.frontierKey = lvl.ExploredCount
	s.frontierValid = true
}

// exploredEntry returns the first explored passable 8-neighbour in scan
// order, which doubles as the frontier's approach target.
func exploredEntry(lvl *world.Level, x, y int) (world.Point, bool) {
	for d := 0; d < 8; d++ {
		nx, ny := x+dirDX[d], y+dirDY[d]
		if !lvl.InBounds(nx, ny) {
			continue
		}
		i := lvl.Idx(nx, ny)
		if lvl.Explored[i] && lvl.Passable[i] {
			return world.Point{X: nx, Y: ny}, true
		}
	}
	return world.Point{}, false
}

func unexploredNeighbours(lvl *world.Level, x, y int) int {
	n := 0
	for d := 0; d < 8; d++ {
		nx, ny := x+dirDX[d], y+dirDY[d]
		if !lvl.InBounds(nx, ny) {
			continue
		}
		i := lvl.Idx(nx, ny)
		if !lvl.Explored[i] && lvl.Passable[i] {
			n++
		}
	}
	return n
}

func walkableNeighbours(lvl *world.Level, p world.Point) int {
	n := 0
	for d := 0; d < 8; d++ {
		if lvl.IsPassable(p.X+dirDX[d], p.Y+dirDY[d]) {
			n++
		}
	}
	return n
}

// findExplorationTarget picks the next frontier entry point, with hysteresis
// toward the current goal so the bot does not thrash between two fronts.
func (s *State) findExplorationTarget(w *world.Snapshot) (world.Point, bool) {
	lvl := w.Level
	s.refreshFrontiers(lvl)
	if len(s.frontiers) == 0 {
		return world.Point{}, false
	}

	var curTarget *world.Point
	var curDir world.Point
	if s.CurrentGoal != nil && s.CurrentGoal.Kind == GoalExplore && s.CurrentGoal.Target != nil {
		curTarget = s.CurrentGoal.Target
		curDir = world.Point{
			X: curTarget.X - w.Char.Pos.X,
			Y: curTarget.Y - w.Char.Pos.Y,
		}
	}

	// A dead-end candidate is only penalised when a richer front exists.
	richerExists := false
	for _, f := range s.frontiers {
		if f.unexplored >= 2 {
			richerExists = true
			break
		}
	}

	bestScore := 0
	var best world.Point
	var curScore int
	curSeen := false
	found := false

	for _, f := range s.frontiers {
		target := f.entry
		if target == w.Char.Pos {
			continue
		}
		if s.Blacklisted(target, w.Turn) {
			continue
		}
		dist := world.Chebyshev(target, w.Char.Pos)
		if dist > frontierMaxDist {
			continue
		}

		score := 15 * f.unexplored

		if curTarget != nil {
			if target == *curTarget {
				score += 150
			} else if d := world.Chebyshev(target, *curTarget); d <= 8 {
				score += 75 * (8 - d) / 8
			}
			score += directionalBonus(w.Char.Pos, target, curDir)
		}

		score -= dist
		score -= s.recencyPenalty(target)

		if f.unexplored == 1 && walkableNeighbours(lvl, f.entry) <= 3 && richerExists {
			score -= 50
		}
		if dist < 5 {
			score -= (5 - dist) * 12
		}

		if curTarget != nil && target == *curTarget {
			curScore = score
			curSeen = true
		}
		if !found || score > bestScore {
			found = true
			bestScore = score
			best = target
		}
	}
	if !found {
		return world.Point{}, false
	}

	// Hysteresis: keep a still-valid current target when the challenger's
	// edge is inside the window.
	if curSeen && bestScore-curScore <= hysteresisWindow {
		return *curTarget, true
	}
	return best, true
}

// directionalBonus rewards targets in line with the current heading, up to
// +/-30 by the dot product of the normalised direction vectors.
func directionalBonus(from, to world.Point, curDir world.Point) int {
	if curDir.X == 0 && curDir.Y == 0 {
		return 0
	}
	nd := world.Point{X: to.X - from.X, Y: to.Y - from.Y}
	if nd.X == 0 && nd.Y == 0 {
		return 0
	}
	dot := float64(nd.X*curDir.X + nd.Y*curDir.Y)
	mag := vecLen(nd) * vecLen(curDir)
	if mag == 0 {
		return 0
	}
	return int(30 * dot / mag)
}

func vecLen(p world.Point) float64 {
	return float64(intSqrt(p.X*p.X + p.Y*p.Y))
}

// intSqrt is a tiny integer Newton iteration; exploration scoring does not
// need float precision.
func intSqrt(v int) int {
	if v <= 0 {
		return 0
	}
	x := v
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + v/x) / 2
	}
	return x
}

// sweepTargets lists explored passable tiles not yet seen this visit. These
// seed the multi-source sweep flow.
func (s *State) sweepTargets(lvl *world.Level, out []world.Point) []world.Point {
	out = out[:0]
	for y := 0; y < lvl.Height; y++ {
		for x := 0; x < lvl.Width; x++ {
			i := lvl.Idx(x, y)
			if !lvl.Passable[i] || !lvl.Explored[i] {
				continue
			}
			if s.Seen.Has(x, y) {
				continue
			}
			out = append(out, world.Point{X: x, Y: y})
		}
	}
	return out
}

// explorationPercent is explored passable floor over all passable floor.
func explorationPercent(lvl *world.Level) int {
	if lvl.PassableCount == 0 {
		return 100
	}
	return 100 * lvl.ExploredPassableCount / lvl.PassableCount
}

// explorationThreshold is the completion percentage that unlocks descent,
// derived from the exploration slider. Labyrinths settle for 3/4 of it —
// full coverage there costs more turns than it is worth.
func explorationThreshold(eff *EffectiveProfile, gen world.GeneratorType) int {
	base := 50 + eff.Exploration*2/5
	if gen == world.GenLabyrinth {
		base = base * 3 / 4
	}
	return base
}

// corridorStep follows labyrinth corridors: stay on the current heading when
// possible, otherwise branch toward unexplored potential, otherwise take the
// least-recently-visited cardinal. Exits corridor mode when a frontier sits
// within reach.
func (s *State) corridorStep(w *world.Snapshot) (world.Direction, bool) {
	lvl := w.Level
	s.refreshFrontiers(lvl)
	for _, f := range s.frontiers {
		if world.Chebyshev(f.entry, w.Char.Pos) <= corridorExitRange {
			s.CorridorFacing = -1
			return world.DirWait, false
		}
	}

	type cand struct {
		dir   world.Direction
		score int
	}
	var cands []cand
	for _, d := range [4]world.Direction{world.DirN, world.DirE, world.DirS, world.DirW} {
		dx, dy := d.Delta()
		nx, ny := w.Char.Pos.X+dx, w.Char.Pos.Y+dy
		if !lvl.IsPassable(nx, ny) {
			continue
		}
		np := world.Point{X: nx, Y: ny}
		if w.MonsterAt(np) != nil {
			continue
		}
		score := 0
		if int(d) == s.CorridorFacing {
			score += 40
		}
		score += 10 * unexploredNeighbours(lvl, nx, ny)
		score -= s.recencyPenalty(np)
		cands = append(cands, cand{dir: d, score: score})
	}
	if len(cands) == 0 {
		return world.DirWait, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.score > best.score {
			best = c
		}
	}
	s.CorridorFacing = int(best.dir)
	return best.dir, true
}
