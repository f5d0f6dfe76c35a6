package bot

import "github.com/borglike/bot/internal/world"

// Inventory finders walk the ordered inventory front to back so the same
// stock always resolves to the same item.

// findConsumable returns the first potion/scroll with the given effect.
func findConsumable(ch *world.Character, effect string) *world.Item {
	for _, it := range ch.Inventory {
		if it.Tmpl != nil && it.Tmpl.Consumable() && it.Tmpl.Effect == effect {
			return it
		}
	}
	return nil
}

// findBestHeal returns the heal potion whose power best matches the missing
// HP: the smallest one that covers the deficit, else the largest held.
func findBestHeal(ch *world.Character) *world.Item {
	missing := ch.MaxHP - ch.HP
	var best *world.Item
	var bestOver *world.Item
	for _, it := range ch.Inventory {
		if it.Tmpl == nil || it.Tmpl.Effect != "heal" {
			continue
		}
		if it.Tmpl.Power >= missing {
			if bestOver == nil || it.Tmpl.Power < bestOver.Tmpl.Power {
				bestOver = it
			}
		} else if best == nil || it.Tmpl.Power > best.Tmpl.Power {
			best = it
		}
	}
	if bestOver != nil {
		return bestOver
	}
	return best
}

// findEscapeScroll returns a phase door or teleport-level scroll, preferring
// phase door (shorter, safer displacement).
func findEscapeScroll(ch *world.Character) *world.Item {
	if it := findConsumable(ch, "phase_door"); it != nil {
		return it
	}
	return findConsumable(ch, "teleport_level")
}

// findTownScroll returns a word-of-recall scroll.
func findTownScroll(ch *world.Character) *world.Item {
	return findConsumable(ch, "teleport_town")
}

// countConsumables counts inventory items with the effect.
func countConsumables(ch *world.Character, effect string) int {
	n := 0
	for _, it := range ch.Inventory {
		if it.Tmpl != nil && it.Tmpl.Consumable() && it.Tmpl.Effect == effect {
			n++
		}
	}
	return n
}

// scoreGroundItem rates a pickup candidate. Consumables we are short on and
// upgrades over current equipment score high; junk scores near zero.
func scoreGroundItem(ch *world.Character, g *world.GroundItem) int {
	it := g.Item
	if it == nil || it.Tmpl == nil {
		return 0
	}
	t := it.Tmpl
	score := t.Value / 10
	switch t.Kind {
	case "potion", "scroll":
		score += 20
		if t.Effect == "heal" && countConsumables(ch, "heal") < 3 {
			score += 40
		}
		if t.Effect == "teleport_town" && countConsumables(ch, "teleport_town") == 0 {
			score += 50
		}
		if t.Effect == "phase_door" && countConsumables(ch, "phase_door") < 2 {
			score += 30
		}
	case "weapon":
		cur := ch.Weapon()
		curPower := 0
		if cur != nil && cur.Tmpl != nil {
			curPower = cur.Tmpl.Power + cur.Enchant
		}
		if t.Power+it.Enchant > curPower {
			score += 30 + 5*(t.Power+it.Enchant-curPower)
		}
	case "armor":
		cur := ch.Equipment[t.Slot]
		curPower := 0
		if cur != nil && cur.Tmpl != nil {
			curPower = cur.Tmpl.Power + cur.Enchant
		}
		if t.Power+it.Enchant > curPower {
			score += 25 + 5*(t.Power+it.Enchant-curPower)
		}
	}
	return score
}

// maxPickupDetour is how far out of the way the bot will walk for loot,
// scaled by greed.
func maxPickupDetour(eff *EffectiveProfile) int {
	return 4 + eff.Greed/10
}

// findPickupTarget scans visible ground items for the best worthwhile pickup
// within the greed-scaled detour.
func findPickupTarget(w *world.Snapshot, eff *EffectiveProfile) *world.GroundItem {
	detour := maxPickupDetour(eff)
	var best *world.GroundItem
	bestScore := 0
	for _, g := range w.VisibleGroundItems() {
		dist := world.Chebyshev(g.Pos, w.Char.Pos)
		if dist > detour {
			continue
		}
		score := scoreGroundItem(w.Char, g) - dist
		if score > bestScore || (score == bestScore && best != nil && g.ID < best.ID) {
			best = g
			bestScore = score
		}
	}
	if bestScore < 15 {
		return nil
	}
	return best
}
