package world

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLevelStairsAndConnectivity(t *testing.T) {
	for _, depth := range []int{1, 5, 7, 20} {
		rng := rand.New(rand.NewSource(42))
		l := GenerateLevel(rng, depth)

		require.NotNil(t, l.StairsUp, "depth %d", depth)
		if depth < 50 {
			require.NotNil(t, l.StairsDown, "depth %d", depth)
		}
		assert.Greater(t, l.PassableCount, 50, "depth %d too cramped", depth)
		assert.True(t, reachable(l, *l.StairsUp, *l.StairsDown), "depth %d stairs disconnected", depth)
	}
}

func TestGeneratorTypeCycle(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	assert.Equal(t, GenClassic, GenerateLevel(rng, 1).Generator)
	assert.Equal(t, GenCavern, GenerateLevel(rng, 5).Generator)
	assert.Equal(t, GenLabyrinth, GenerateLevel(rng, 7).Generator)
	// Labyrinth wins the 35 tie.
	assert.Equal(t, GenLabyrinth, GenerateLevel(rng, 35).Generator)
}

func TestGenerateLevelNoStairsDownAtBottom(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	l := GenerateLevel(rng, 50)
	assert.Nil(t, l.StairsDown)
}

func TestGenerateTownFixtures(t *testing.T) {
	town := GenerateTown()
	assert.Equal(t, 0, town.Depth)

	found := map[Tile]bool{}
	for _, tile := range town.Tiles {
		found[tile] = true
	}
	for _, want := range []Tile{
		TileShopWeapon, TileShopArmor, TileShopAlchemy, TileShopGeneral,
		TileHealer, TileFountainActive, TileAltar, TileDungeonEntrance,
	} {
		assert.True(t, found[want], "town lacks %v", want)
	}
}

// reachable floods 8-connected passable tiles from a.
func reachable(l *Level, a, b Point) bool {
	seen := make([]bool, l.Width*l.Height)
	queue := []Point{a}
	seen[l.Idx(a.X, a.Y)] = true
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if p == b {
			return true
		}
		var out [8]Point
		AdjacentPositions(p, &out)
		for _, n := range out {
			if !l.IsPassable(n.X, n.Y) {
				continue
			}
			i := l.Idx(n.X, n.Y)
			if !seen[i] {
				seen[i] = true
				queue = append(queue, n)
			}
		}
	}
	return false
}
