package bot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/borglike/bot/internal/data"
	"github.com/borglike/bot/internal/world"
)

// Test fixtures: hand-built levels and snapshots so every case is exact.

func testLevel(w, h, depth int) *world.Level {
	lvl := world.NewLevel(w, h, depth, world.GenClassic)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			lvl.SetTile(x, y, world.TileFloor)
		}
	}
	return lvl
}

// exploreAll marks the whole level explored and visible.
func exploreAll(lvl *world.Level) {
	for y := 0; y < lvl.Height; y++ {
		for x := 0; x < lvl.Width; x++ {
			lvl.MarkExplored(x, y)
			lvl.Visible[lvl.Idx(x, y)] = true
		}
	}
}

func testClassTable(t *testing.T) *data.ClassTable {
	t.Helper()
	table, err := data.LoadClassTable("")
	require.NoError(t, err)
	return table
}

func basicTemplate(id int, name string, dmg, speed, hp int) *data.MonsterTemplate {
	return &data.MonsterTemplate{
		ID:    id,
		Name:  name,
		Depth: 1,
		HP:    hp,
		Speed: speed,
		Attacks: []data.Attack{
			{Damage: dmg, Kind: "hit"},
		},
		Exp: 5,
	}
}

func bossTemplate() *data.MonsterTemplate {
	return &data.MonsterTemplate{
		ID:    23,
		Name:  "Morgoth",
		Depth: 50,
		HP:    4000,
		Speed: 120,
		Attacks: []data.Attack{
			{Damage: 45, Kind: "hit"},
		},
		Unique: true,
		Evil:   true,
		Boss:   true,
	}
}

func testMonster(id int, pos world.Point, tmpl *data.MonsterTemplate) *world.Monster {
	return &world.Monster{
		ID:    id,
		Pos:   pos,
		HP:    tmpl.HP,
		Awake: true,
		Tmpl:  tmpl,
	}
}

func testChar(classID string, pos world.Point, depth int) *world.Character {
	ch := world.NewCharacter(classID)
	ch.Pos = pos
	ch.Depth = depth
	ch.Level = 10
	ch.HP = 100
	ch.MaxHP = 100
	return ch
}

func itemTemplate(id int, kind, effect string, power, value int) *data.ItemTemplate {
	return &data.ItemTemplate{ID: id, Name: effect, Kind: kind, Effect: effect, Power: power, Value: value}
}

func giveItem(ch *world.Character, id int, tmpl *data.ItemTemplate) *world.Item {
	it := &world.Item{ID: id, Tmpl: tmpl, Count: 1}
	ch.Inventory = append(ch.Inventory, it)
	return it
}

func testSnapshot(turn int, lvl *world.Level, ch *world.Character, monsters ...*world.Monster) *world.Snapshot {
	return &world.Snapshot{
		Turn:     turn,
		Level:    lvl,
		Char:     ch,
		Monsters: monsters,
	}
}

func defaultCaps() Capabilities {
	return Capabilities{
		Tactics:      2,
		Retreat:      2,
		Sweep:        1,
		Surf:         2,
		Kiting:       2,
		Targeting:    2,
		Preparedness: 2,
		Town:         true,
		Farming:      true,
	}
}

func testEngine(t *testing.T, preset string, caps Capabilities) *Engine {
	t.Helper()
	pers := PresetPersonality(preset, Personality{})
	return New(pers, caps, testClassTable(t))
}
