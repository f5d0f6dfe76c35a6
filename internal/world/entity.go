package world

import (
	"github.com/borglike/bot/internal/data"
)

// StatusEffect enumerates character afflictions and buffs the bot reasons
// about.
type StatusEffect uint8

const (
	StatusPoison StatusEffect = iota
	StatusParalysis
	StatusConfusion
	StatusBlind
	StatusSlow
	StatusTerrified
	StatusDrained
	StatusHaste
	StatusProtEvil
)

func (s StatusEffect) String() string {
	switch s {
	case StatusPoison:
		return "poison"
	case StatusParalysis:
		return "paralysis"
	case StatusConfusion:
		return "confusion"
	case StatusBlind:
		return "blind"
	case StatusSlow:
		return "slow"
	case StatusTerrified:
		return "terrified"
	case StatusDrained:
		return "drained"
	case StatusHaste:
		return "haste"
	case StatusProtEvil:
		return "protection_evil"
	}
	return "unknown"
}

// Status is one active effect instance. Power carries the per-turn damage for
// poison and the strength for buffs.
type Status struct {
	Remaining int
	Power     int
}

// Item is one item instance, in inventory or on the ground.
type Item struct {
	ID      int
	Tmpl    *data.ItemTemplate
	Enchant int
	Count   int
	// ShopPrice is set while the item sits in a merchant's stock.
	ShopPrice int
}

// GoldValue returns what a merchant pays for the item.
func (i *Item) GoldValue() int {
	if i.Tmpl == nil {
		return 0
	}
	v := i.Tmpl.Value + i.Enchant*50
	if i.Count > 1 {
		v *= i.Count
	}
	return v
}

// Character is the player-side agent body the bot steers.
type Character struct {
	Pos   Point
	Depth int // 0 = town, 1..50 dungeon

	HP, MaxHP int
	MP, MaxMP int
	Level     int
	Exp       int
	ClassID   string

	Str, Dex, Con, Wis, Intl int

	Gold int

	Inventory []*Item
	Equipment map[string]*Item // keyed by slot

	Statuses  map[StatusEffect]*Status
	Cooldowns map[string]int

	Speed int // 100 = normal
}

// NewCharacter builds a level-1 character of the given class in town.
func NewCharacter(classID string) *Character {
	return &Character{
		Depth:     0,
		HP:        30,
		MaxHP:     30,
		MP:        10,
		MaxMP:     10,
		Level:     1,
		ClassID:   classID,
		Str:       12,
		Dex:       12,
		Con:       12,
		Wis:       10,
		Intl:      10,
		Speed:     100,
		Equipment: make(map[string]*Item),
		Statuses:  make(map[StatusEffect]*Status),
		Cooldowns: make(map[string]int),
	}
}

// HasStatus reports whether the effect is active.
func (c *Character) HasStatus(s StatusEffect) bool {
	st, ok := c.Statuses[s]
	return ok && st.Remaining > 0
}

// StatusFor returns the active effect instance, or nil.
func (c *Character) StatusFor(s StatusEffect) *Status {
	st, ok := c.Statuses[s]
	if !ok || st.Remaining <= 0 {
		return nil
	}
	return st
}

// Armor sums equipment armor contributions.
func (c *Character) Armor() int {
	total := 0
	for slot, it := range c.Equipment {
		if it == nil || it.Tmpl == nil || slot == "weapon" {
			continue
		}
		total += it.Tmpl.Power + it.Enchant
	}
	return total
}

// Weapon returns the equipped weapon, or nil (fists).
func (c *Character) Weapon() *Item { return c.Equipment["weapon"] }

// MeleeDamage estimates the per-swing damage the character deals.
func (c *Character) MeleeDamage() int {
	dmg := 2 + c.Str/4
	if w := c.Weapon(); w != nil && w.Tmpl != nil && !w.Tmpl.Ranged {
		dmg += w.Tmpl.Power + w.Enchant
	}
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

// RangedDamage estimates per-shot damage, or 0 with no ranged weapon.
func (c *Character) RangedDamage() int {
	w := c.Weapon()
	if w == nil || w.Tmpl == nil || !w.Tmpl.Ranged {
		return 0
	}
	return w.Tmpl.Power + w.Enchant + c.Dex/5
}

// LightRadius is the dynamic sight radius: grows slowly with level, shrinks
// to 1 while blind.
func (c *Character) LightRadius() int {
	if c.HasStatus(StatusBlind) {
		return 1
	}
	r := 4 + c.Level/10
	if r > 8 {
		r = 8
	}
	return r
}

// FindItem returns the inventory item with the given id, or nil.
func (c *Character) FindItem(id int) *Item {
	for _, it := range c.Inventory {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// RemoveItem takes an item instance out of the ordered inventory.
func (c *Character) RemoveItem(id int) *Item {
	for i, it := range c.Inventory {
		if it.ID == id {
			c.Inventory = append(c.Inventory[:i], c.Inventory[i+1:]...)
			return it
		}
	}
	return nil
}

// Monster is one live monster on the current level.
type Monster struct {
	ID    int
	Pos   Point
	HP    int
	Awake bool
	Tmpl  *data.MonsterTemplate

	// Debuffs maps effect name to remaining turns.
	Debuffs map[string]int
}

// Alive reports whether the monster is still in play.
func (m *Monster) Alive() bool { return m != nil && m.HP > 0 }

// GroundItem is an item lying on the floor.
type GroundItem struct {
	ID   int
	Pos  Point
	Item *Item
}
