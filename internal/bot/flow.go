package bot

import "github.com/borglike/bot/internal/world"

// Avoidance excludes tiles whose danger exceeds the threshold from a flow
// computation. A nil Avoidance means no exclusion.
type Avoidance struct {
	Danger    *DangerGrid
	Threshold int
}

func (a *Avoidance) blocks(x, y int) bool {
	return a != nil && a.Danger != nil && a.Danger.At(x, y) > a.Threshold
}

// computeFlowInto runs a multi-source FIFO BFS over the level's passable
// bitmap into g. Cardinal and diagonal steps cost the same; costs saturate at
// 254 and unreachable tiles stay 255. Goal seeds are planted even on
// dangerous tiles — avoidance gates expansion, not the sources.
func computeFlowInto(g *FlowGrid, q *bfsQueue, lvl *world.Level, goals []world.Point, avoid *Avoidance) {
	g.Resize(lvl.Width, lvl.Height)
	q.ensure(lvl.Width * lvl.Height)

	for _, p := range goals {
		if !lvl.InBounds(p.X, p.Y) || !lvl.Passable[lvl.Idx(p.X, p.Y)] {
			continue
		}
		i := g.W*p.Y + p.X
		if g.Cells[i] != 0 {
			g.Cells[i] = 0
			q.push(bfsCell{x: uint16(p.X), y: uint16(p.Y), cost: 0})
		}
	}

	for {
		c, ok := q.pop()
		if !ok {
			break
		}
		if c.cost >= flowMax {
			continue
		}
		next := c.cost + 1
		cx, cy := int(c.x), int(c.y)
		for d := 0; d < 8; d++ {
			nx := cx + dirDX[d]
			ny := cy + dirDY[d]
			if nx < 0 || ny < 0 || nx >= g.W || ny >= g.H {
				continue
			}
			i := ny*g.W + nx
			if g.Cells[i] != FlowUnreachable {
				continue
			}
			if !lvl.Passable[i] {
				continue
			}
			if avoid.blocks(nx, ny) {
				continue
			}
			g.Cells[i] = next
			q.push(bfsCell{x: uint16(nx), y: uint16(ny), cost: next})
		}
	}
}

// dirDX/dirDY mirror world.AdjacentPositions scan order (NW,N,NE,W,E,SW,S,SE).
var dirDX = [8]int{-1, 0, 1, -1, 1, -1, 0, 1}
var dirDY = [8]int{-1, -1, -1, 0, 0, 1, 1, 1}

// Cache ages after which a stored flow field is discarded.
const (
	singleFlowMaxAge  = 10
	exploreFlowMaxAge = 5
	sweepFlowMaxAge   = 5
)

// flowCache is one retained flow result with its validity key.
type flowCache struct {
	grid       FlowGrid
	valid      bool
	goal       world.Point
	key        int
	depth      int
	computedAt int
}

func (c *flowCache) invalidate() { c.valid = false }

// singleFlow returns the cached single-goal field when the goal, depth and
// age still match, recomputing otherwise.
func (s *State) singleFlow(lvl *world.Level, goal world.Point, avoid *Avoidance, turn int) *FlowGrid {
	c := &s.flowSingle
	if c.valid && c.goal == goal && c.depth == lvl.Depth &&
		turn-c.computedAt <= singleFlowMaxAge && avoid == nil {
		return &c.grid
	}
	s.goalScratch = s.goalScratch[:0]
	s.goalScratch = append(s.goalScratch, goal)
	computeFlowInto(&c.grid, &s.bfs, lvl, s.goalScratch, avoid)
	c.valid = avoid == nil // avoidance fields depend on the danger snapshot; do not reuse
	c.goal = goal
	c.depth = lvl.Depth
	c.computedAt = turn
	return &c.grid
}

// explorationFlow returns the field toward the current exploration target,
// cached on the level's explored counter and the target itself.
func (s *State) explorationFlow(lvl *world.Level, goal world.Point, avoid *Avoidance, turn int) *FlowGrid {
	c := &s.flowExplore
	if c.valid && c.key == lvl.ExploredCount && c.goal == goal && c.depth == lvl.Depth &&
		turn-c.computedAt <= exploreFlowMaxAge && avoid == nil {
		return &c.grid
	}
	s.goalScratch = s.goalScratch[:0]
	s.goalScratch = append(s.goalScratch, goal)
	computeFlowInto(&c.grid, &s.bfs, lvl, s.goalScratch, avoid)
	c.goal = goal
	c.valid = avoid == nil
	c.key = lvl.ExploredCount
	c.depth = lvl.Depth
	c.computedAt = turn
	return &c.grid
}

// sweepFlow returns a field seeded from sweep targets, cached on the
// seen-this-visit counter and the bot position.
func (s *State) sweepFlow(lvl *world.Level, pos world.Point, goals []world.Point, turn int) *FlowGrid {
	c := &s.flowSweep
	if c.valid && c.key == s.Seen.Count() && c.goal == pos && c.depth == lvl.Depth &&
		turn-c.computedAt <= sweepFlowMaxAge {
		return &c.grid
	}
	computeFlowInto(&c.grid, &s.bfs, lvl, goals, nil)
	c.valid = true
	c.key = s.Seen.Count()
	c.goal = pos
	c.depth = lvl.Depth
	c.computedAt = turn
	return &c.grid
}
