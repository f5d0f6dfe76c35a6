package bot

import "github.com/borglike/bot/internal/world"

// Stuck detection and the six-level twitch escalation. Progress is anything
// that moved the needle: stepping down the flow field, arriving, landing an
// attack, a pickup, a stair transition.

// stuckThresholds maps turns-since-progress to escalation levels 1..6.
var stuckThresholds = [6]int{5, 12, 25, 50, 100, 200}

// stuckLevel derives the escalation level, with oscillation detection
// promoting to at least level 1 immediately.
func (s *State) stuckLevel(turn int) int {
	level := 0
	since := turn - s.LastProgressTurn
	for i, thr := range stuckThresholds {
		if since >= thr {
			level = i + 1
		}
	}
	if level < 1 && s.oscillating() {
		level = 1
	}
	return level
}

// oscillating inspects recent history for A-B-A-B (4 entries) or
// A-B-C-A-B-C (6 entries) loops.
func (s *State) oscillating() bool {
	n := len(s.Recent)
	if n >= 4 {
		a, b, c, d := s.Recent[n-4], s.Recent[n-3], s.Recent[n-2], s.Recent[n-1]
		if a == c && b == d && a != b {
			return true
		}
	}
	if n >= 6 {
		r := s.Recent[n-6:]
		if r[0] == r[3] && r[1] == r[4] && r[2] == r[5] &&
			!(r[0] == r[1] && r[1] == r[2]) {
			return true
		}
	}
	return false
}

// markProgress refreshes the progress clock.
func (s *State) markProgress(turn int) {
	s.LastProgressTurn = turn
	s.TwitchCounter = 0
}

// stuckRecovery runs the escalation table. It may return a terminal action,
// or mutate state (history/goal/blacklist purges) and let the tick continue.
func (e *Engine) stuckRecovery(ctx *tickContext, s *State) (world.Action, bool) {
	w := ctx.w
	level := s.stuckLevel(w.Turn)
	if level == 0 {
		return world.Action{}, false
	}
	s.TwitchCounter = level

	adjacent := adjacentMonster(w)

	switch level {
	case 1:
		if s.CurrentGoal != nil && s.CurrentGoal.Kind == GoalFlee {
			// stop_fleeing: drop the goal and cool the trigger down.
			s.CurrentGoal = nil
			s.FleeCooldownTurn = w.Turn + fleeCooldown
			return world.Action{}, false
		}
		if dir, ok := wallFollowStep(w, s); ok {
			return world.Move(dir), true
		}
	case 2:
		if adjacent != nil {
			return world.Attack(adjacent.ID), true
		}
		s.Recent = s.Recent[:0]
	case 3:
		if s.KnownStairsDown != nil && w.Char.Depth > 0 && w.Char.Depth < 50 {
			if onTile(w, world.TileStairsDown) {
				s.markProgress(w.Turn)
				return world.Descend(), true
			}
			if dir, ok := s.stepToward(w, *s.KnownStairsDown, nil); ok && dir != world.DirWait {
				return world.Move(dir), true
			}
		}
		if adjacent != nil {
			return world.Attack(adjacent.ID), true
		}
		s.Recent = s.Recent[:0]
	case 4:
		return world.Wait(), true
	case 5:
		// clear_goals: null the goal and give the clock a partial reset.
		s.CurrentGoal = nil
		s.invalidateFlows()
		s.LastProgressTurn = w.Turn - stuckThresholds[2]
	case 6:
		// clear_blacklist: full purge.
		s.CurrentGoal = nil
		s.Blacklist = make(map[world.Point]int)
		s.invalidateFlows()
		s.frontierValid = false
		s.markProgress(w.Turn)
	}
	return world.Action{}, false
}

// adjacentMonster returns a live monster in melee reach, lowest id first.
func adjacentMonster(w *world.Snapshot) *world.Monster {
	var best *world.Monster
	for _, m := range w.Monsters {
		if !m.Alive() || world.Chebyshev(m.Pos, w.Char.Pos) != 1 {
			continue
		}
		if best == nil || m.ID < best.ID {
			best = m
		}
	}
	return best
}

// wallFollowStep applies the right-hand rule over the four cardinals
// relative to the last-move facing: right, straight, left, back.
func wallFollowStep(w *world.Snapshot, s *State) (world.Direction, bool) {
	facing := lastFacing(s)
	order := [4]world.Direction{
		rightOf(facing),
		facing,
		leftOf(facing),
		opposite(facing),
	}
	for _, d := range order {
		dx, dy := d.Delta()
		nx, ny := w.Char.Pos.X+dx, w.Char.Pos.Y+dy
		if !w.Level.IsPassable(nx, ny) {
			continue
		}
		if w.MonsterAt(world.Point{X: nx, Y: ny}) != nil {
			continue
		}
		return d, true
	}
	return world.DirWait, false
}

// lastFacing reconstructs the cardinal heading of the most recent move,
// defaulting north.
func lastFacing(s *State) world.Direction {
	n := len(s.Recent)
	if n < 2 {
		return world.DirN
	}
	d := world.DirectionTo(s.Recent[n-2], s.Recent[n-1])
	switch d {
	case world.DirN, world.DirS, world.DirE, world.DirW:
		return d
	case world.DirNE, world.DirNW:
		return world.DirN
	case world.DirSE, world.DirSW:
		return world.DirS
	}
	return world.DirN
}

func rightOf(d world.Direction) world.Direction {
	switch d {
	case world.DirN:
		return world.DirE
	case world.DirE:
		return world.DirS
	case world.DirS:
		return world.DirW
	}
	return world.DirN
}

func leftOf(d world.Direction) world.Direction {
	switch d {
	case world.DirN:
		return world.DirW
	case world.DirW:
		return world.DirS
	case world.DirS:
		return world.DirE
	}
	return world.DirN
}

func opposite(d world.Direction) world.Direction {
	switch d {
	case world.DirN:
		return world.DirS
	case world.DirS:
		return world.DirN
	case world.DirE:
		return world.DirW
	}
	return world.DirE
}
