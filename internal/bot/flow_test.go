package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borglike/bot/internal/world"
)

func TestComputeFlowBasic(t *testing.T) {
	lvl := testLevel(12, 10, 1)
	var g FlowGrid
	var q bfsQueue
	goal := world.Point{X: 6, Y: 5}
	computeFlowInto(&g, &q, lvl, []world.Point{goal}, nil)

	assert.Equal(t, 0, g.AtPoint(goal))

	// Walls stay unreachable; open tiles carry their Chebyshev distance on a
	// fully open floor.
	assert.Equal(t, FlowUnreachable, g.At(0, 0))
	assert.Equal(t, 1, g.At(5, 4))
	assert.Equal(t, 4, g.At(2, 5))

	// Gradient property: every reachable tile has a neighbour one step
	// closer (or is the source).
	for y := 0; y < lvl.Height; y++ {
		for x := 0; x < lvl.Width; x++ {
			c := g.At(x, y)
			if c == FlowUnreachable || c == 0 {
				continue
			}
			found := false
			for d := 0; d < 8; d++ {
				if g.At(x+dirDX[d], y+dirDY[d]) == c-1 {
					found = true
					break
				}
			}
			assert.True(t, found, "tile (%d,%d) cost %d has no downhill neighbour", x, y, c)
		}
	}
}

func TestComputeFlowEmptyGoals(t *testing.T) {
	lvl := testLevel(8, 8, 1)
	var g FlowGrid
	var q bfsQueue
	computeFlowInto(&g, &q, lvl, nil, nil)
	for _, v := range g.Cells {
		assert.Equal(t, uint8(FlowUnreachable), v)
	}
}

func TestComputeFlowIdempotent(t *testing.T) {
	lvl := testLevel(10, 10, 1)
	var g1, g2 FlowGrid
	var q bfsQueue
	goal := world.Point{X: 3, Y: 3}
	computeFlowInto(&g1, &q, lvl, []world.Point{goal}, nil)
	computeFlowInto(&g2, &q, lvl, []world.Point{goal}, nil)
	assert.Equal(t, g1.Cells, g2.Cells)
}

func TestComputeFlowAvoidance(t *testing.T) {
	// A single corridor with a dangerous tile in the middle: with avoidance
	// the far side becomes unreachable, without it the path goes through.
	lvl := world.NewLevel(9, 3, 1, world.GenClassic)
	for x := 1; x < 8; x++ {
		lvl.SetTile(x, 1, world.TileFloor)
	}
	var danger DangerGrid
	danger.Resize(9, 3)
	danger.add(4, 1, 500)

	var g FlowGrid
	var q bfsQueue
	goal := world.Point{X: 7, Y: 1}

	computeFlowInto(&g, &q, lvl, []world.Point{goal}, &Avoidance{Danger: &danger, Threshold: 100})
	assert.Equal(t, FlowUnreachable, g.At(1, 1))
	assert.Equal(t, FlowUnreachable, g.At(4, 1))

	computeFlowInto(&g, &q, lvl, []world.Point{goal}, nil)
	assert.Equal(t, 6, g.At(1, 1))
}

func TestComputeFlowMultiSource(t *testing.T) {
	lvl := testLevel(12, 8, 1)
	var g FlowGrid
	var q bfsQueue
	goals := []world.Point{{X: 2, Y: 2}, {X: 9, Y: 5}}
	computeFlowInto(&g, &q, lvl, goals, nil)
	assert.Equal(t, 0, g.At(2, 2))
	assert.Equal(t, 0, g.At(9, 5))
	// A tile between the two sources takes the closer one.
	assert.Equal(t, 3, g.At(5, 3))
}

func TestFlowCacheInvalidation(t *testing.T) {
	lvl := testLevel(10, 10, 1)
	s := NewState()
	goalA := world.Point{X: 3, Y: 3}
	goalB := world.Point{X: 7, Y: 7}

	f1 := s.singleFlow(lvl, goalA, nil, 10)
	require.Equal(t, 0, f1.AtPoint(goalA))
	s.singleFlow(lvl, goalA, nil, 12)
	assert.Equal(t, 10, s.flowSingle.computedAt, "same goal within max age reuses the cache")

	f3 := s.singleFlow(lvl, goalB, nil, 13)
	assert.Equal(t, 0, f3.AtPoint(goalB))
	assert.Equal(t, 13, s.flowSingle.computedAt)

	// Expired by age even with a matching goal.
	s.singleFlow(lvl, goalB, nil, 13+singleFlowMaxAge+1)
	assert.Equal(t, 13+singleFlowMaxAge+1, s.flowSingle.computedAt)
}
