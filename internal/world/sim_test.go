package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/borglike/bot/internal/data"
)

func testWorld(t *testing.T) *World {
	t.Helper()
	monsters, err := data.LoadMonsterTable("")
	require.NoError(t, err)
	items, err := data.LoadItemTable("")
	require.NoError(t, err)
	return NewWorld(7, "warrior", monsters, items, nil, zap.NewNop())
}

func TestNewWorldStartsInTown(t *testing.T) {
	w := testWorld(t)
	assert.Equal(t, 0, w.Char.Depth)
	assert.True(t, w.Alive())
	assert.NotNil(t, w.Char.Weapon())
	assert.NotEmpty(t, w.Char.Inventory)

	snap := w.Snapshot()
	assert.Same(t, w.Char, snap.Char)
	assert.Empty(t, snap.Monsters)
}

func TestApplyMove(t *testing.T) {
	w := testWorld(t)
	start := w.Char.Pos
	w.Apply(Move(DirE))
	assert.Equal(t, Point{X: start.X + 1, Y: start.Y}, w.Char.Pos)
	assert.Equal(t, 1, w.Turn)
}

func TestDescendIntoDungeon(t *testing.T) {
	w := testWorld(t)
	entrance := *w.town.StairsDown
	w.Char.Pos = entrance
	w.Apply(Descend())

	assert.Equal(t, 1, w.Char.Depth)
	assert.NotSame(t, w.town, w.level)
	assert.NotEmpty(t, w.alive, "fresh floor spawns monsters")

	// Standing on the up stairs after descending.
	assert.Equal(t, TileStairsUp, w.level.TileAt(w.Char.Pos.X, w.Char.Pos.Y))
}

func TestLevelFlipRegeneratesSpawns(t *testing.T) {
	w := testWorld(t)
	w.Char.Pos = *w.town.StairsDown
	w.Apply(Descend())
	first := w.level

	w.Apply(Ascend())
	assert.Equal(t, 0, w.Char.Depth)

	w.Char.Pos = *w.town.StairsDown
	w.Apply(Descend())
	assert.NotSame(t, first, w.level, "re-entry builds a fresh floor")
}

func TestUseHealPotion(t *testing.T) {
	w := testWorld(t)
	w.Char.HP = 5
	var potion *Item
	for _, it := range w.Char.Inventory {
		if it.Tmpl != nil && it.Tmpl.Effect == "heal" {
			potion = it
			break
		}
	}
	require.NotNil(t, potion)
	before := len(w.Char.Inventory)

	w.Apply(UseItem(potion.ID))
	assert.Greater(t, w.Char.HP, 5)
	assert.Len(t, w.Char.Inventory, before-1, "potion consumed")
}

func TestTeleportLevelScrollGoesUp(t *testing.T) {
	w := testWorld(t)
	w.Char.Pos = *w.town.StairsDown
	w.Apply(Descend())
	w.Char.Pos = *w.level.StairsDown
	w.Apply(Descend())
	require.Equal(t, 2, w.Char.Depth)

	tmpl := w.items.ByEffect("teleport_level")[0]
	scroll := &Item{ID: w.newID(), Tmpl: tmpl, Count: 1}
	w.Char.Inventory = append(w.Char.Inventory, scroll)

	w.Apply(UseItem(scroll.ID))
	assert.Equal(t, 1, w.Char.Depth, "teleport level carries the character up")
}

func TestHealerAndMerchants(t *testing.T) {
	w := testWorld(t)
	ch := w.Char
	ch.HP = 10
	ch.Gold = 500

	healer, ok := findTile(w.town, TileHealer)
	require.True(t, ok)
	ch.Pos = Point{X: healer.X + 1, Y: healer.Y}
	w.Apply(UseHealer())
	assert.Equal(t, ch.MaxHP, ch.HP)

	// Buying restocks heal potions up to the cap.
	shop, ok := findTile(w.town, TileShopAlchemy)
	require.True(t, ok)
	ch.Pos = Point{X: shop.X + 1, Y: shop.Y}
	w.Apply(Buy())
	assert.GreaterOrEqual(t, countEffect(ch, "heal"), 3)

	// Selling clears unequipped gear.
	extra := &Item{ID: w.newID(), Tmpl: w.items.Get(31), Count: 1}
	ch.Inventory = append(ch.Inventory, extra)
	goldBefore := ch.Gold
	w.Apply(Sell())
	assert.Greater(t, ch.Gold, goldBefore)
	assert.Nil(t, ch.FindItem(extra.ID))
}

func TestWordOfRecallAndPortal(t *testing.T) {
	w := testWorld(t)
	w.Char.Pos = *w.town.StairsDown
	w.Apply(Descend())
	w.Char.Pos = *w.level.StairsDown
	w.Apply(Descend())
	w.Char.Pos = *w.level.StairsDown
	w.Apply(Descend())
	require.Equal(t, 3, w.Char.Depth)

	tmpl := w.items.ByEffect("teleport_town")[0]
	scroll := &Item{ID: w.newID(), Tmpl: tmpl, Count: 1}
	w.Char.Inventory = append(w.Char.Inventory, scroll)
	w.Apply(UseItem(scroll.ID))
	require.Equal(t, 0, w.Char.Depth)

	portal, ok := findTile(w.town, TilePortal)
	require.True(t, ok, "recall opens a return portal in town")
	w.Char.Pos = portal
	w.Apply(UsePortal())
	assert.Equal(t, 3, w.Char.Depth, "the portal returns to the recall depth")
}

func findTile(l *Level, t Tile) (Point, bool) {
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			if l.TileAt(x, y) == t {
				return Point{X: x, Y: y}, true
			}
		}
	}
	return Point{}, false
}
