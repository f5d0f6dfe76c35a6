package bot

import "github.com/borglike/bot/internal/world"

// Town behaviour: sell everything spare, patch up at the healer, restock,
// then head back down. Shop-visit sets prevent ping-ponging between
// counters.

const healerFee = 20

// townGoal sequences the town errands by priority (sell 88, heal 85,
// buy 82), then routes the agent back toward the dungeon.
func (e *Engine) townGoal(ctx *tickContext, s *State) *Goal {
	w := ctx.w
	ch := w.Char
	turn := w.Turn

	if s.Town.ShopsSold == nil {
		s.Town.ShopsSold = make(map[world.Point]bool)
	}
	if s.Town.ShopsBought == nil {
		s.Town.ShopsBought = make(map[world.Point]bool)
	}

	// SELL_TO_MERCHANT (88)
	if len(sellableItems(ch)) > 0 {
		if shop, ok := nearestShop(w, ch.Pos, s.Town.ShopsSold); ok {
			t := shop
			return newGoal(GoalSellToMerchant, &t, 0, "unload loot", turn)
		}
	}

	// VISIT_HEALER (85)
	if ch.HP < ch.MaxHP && !s.Town.HealerVisited && ch.Gold >= healerFee {
		if healer, ok := findTownTile(w.Level, world.TileHealer); ok {
			t := healer
			return newGoal(GoalVisitHealer, &t, 0, "patch up", turn)
		}
	}

	// BUY_FROM_MERCHANT (82)
	if (s.Town.Needs.TP || s.Town.Needs.Healing || s.Town.Needs.Escape) && ch.Gold > 50 {
		if shop, ok := nearestShop(w, ch.Pos, s.Town.ShopsBought); ok {
			t := shop
			return newGoal(GoalBuyFromMerchant, &t, 0, "restock consumables", turn)
		}
	}

	// Errands done: portal back if one is open, else walk to the entrance.
	if portal, ok := findTownTile(w.Level, world.TilePortal); ok {
		t := portal
		return newGoal(GoalReturnPortal, &t, 0, "portal back down", turn)
	}
	if entrance, ok := findTownTile(w.Level, world.TileDungeonEntrance); ok {
		t := entrance
		return newGoal(GoalExitTown, &t, 0, "back to the dungeon", turn)
	}
	return nil
}

// townArrival executes the errand once the agent reaches its counter.
func (e *Engine) townArrival(ctx *tickContext, s *State, g *Goal) (world.Action, bool) {
	t, ok := g.TargetPoint()
	if !ok {
		return world.Action{}, false
	}
	switch g.Kind {
	case GoalSellToMerchant:
		s.Town.ShopsSold[t] = true
		return world.Sell(), true
	case GoalBuyFromMerchant:
		s.Town.ShopsBought[t] = true
		return world.Buy(), true
	case GoalVisitHealer:
		s.Town.HealerVisited = true
		return world.UseHealer(), true
	case GoalReturnPortal:
		return world.UsePortal(), true
	case GoalExitTown:
		return world.Descend(), true
	}
	return world.Action{}, false
}

// sellableItems lists unequipped gear and surplus junk worth carrying to a
// counter. Consumables stay: they are the reason we shop at all.
func sellableItems(ch *world.Character) []*world.Item {
	equipped := make(map[int]bool, len(ch.Equipment))
	for _, it := range ch.Equipment {
		if it != nil {
			equipped[it.ID] = true
		}
	}
	var out []*world.Item
	for _, it := range ch.Inventory {
		if it.Tmpl == nil || equipped[it.ID] {
			continue
		}
		switch it.Tmpl.Kind {
		case "weapon", "armor", "misc":
			if it.GoldValue() > 0 {
				out = append(out, it)
			}
		}
	}
	return out
}

// nearestShop returns the closest shop counter not in the visited set.
func nearestShop(w *world.Snapshot, from world.Point, visited map[world.Point]bool) (world.Point, bool) {
	lvl := w.Level
	best := world.Point{}
	bestDist := -1
	for y := 0; y < lvl.Height; y++ {
		for x := 0; x < lvl.Width; x++ {
			if !lvl.Tiles[lvl.Idx(x, y)].Shop() {
				continue
			}
			p := world.Point{X: x, Y: y}
			if visited[p] {
				continue
			}
			d := world.Chebyshev(p, from)
			if bestDist < 0 || d < bestDist {
				best = p
				bestDist = d
			}
		}
	}
	return best, bestDist >= 0
}

// findTownTile locates the first tile of the given kind.
func findTownTile(lvl *world.Level, t world.Tile) (world.Point, bool) {
	for y := 0; y < lvl.Height; y++ {
		for x := 0; x < lvl.Width; x++ {
			if lvl.Tiles[lvl.Idx(x, y)] == t {
				return world.Point{X: x, Y: y}, true
			}
		}
	}
	return world.Point{}, false
}
