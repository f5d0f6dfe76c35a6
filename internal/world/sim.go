package world

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/borglike/bot/internal/data"
	"github.com/borglike/bot/internal/scripting"
)

// World is the sim-side game state: it owns the character, the current
// level's entities, and applies one bot action per turn followed by the
// monsters' responses. Dungeon floors regenerate on every entry, which is
// exactly what the agent's level-flip strategies rely on.
type World struct {
	rng *rand.Rand
	log *zap.Logger

	monsters *data.MonsterTable
	items    *data.ItemTable
	lua      *scripting.Engine

	Turn int
	Char *Character

	level    *Level
	town     *Level
	alive    []*Monster
	ground   []*GroundItem
	townKept struct {
		ground []*GroundItem
	}

	// Word-of-recall bookkeeping: where the portal leads back to.
	portalReturnDepth int

	nextID int

	// KilledBy is set when the character dies.
	KilledBy string
}

// NewWorld creates a fresh run: character in town, dungeon untouched.
func NewWorld(seed int64, classID string, monsters *data.MonsterTable, items *data.ItemTable, lua *scripting.Engine, log *zap.Logger) *World {
	w := &World{
		rng:      rand.New(rand.NewSource(seed)),
		log:      log,
		monsters: monsters,
		items:    items,
		lua:      lua,
		Char:     NewCharacter(classID),
		nextID:   1,
	}
	w.town = GenerateTown()
	w.level = w.town
	w.Char.Pos = Point{X: w.town.Width / 2, Y: w.town.Height / 2}
	w.Char.Gold = 120
	w.giveStarterKit()
	w.refreshFOV()
	return w
}

func (w *World) giveStarterKit() {
	give := func(tmplID, count int) {
		tmpl := w.items.Get(tmplID)
		if tmpl == nil {
			return
		}
		for i := 0; i < count; i++ {
			w.Char.Inventory = append(w.Char.Inventory, &Item{ID: w.newID(), Tmpl: tmpl, Count: 1})
		}
	}
	give(1, 2)  // cure light wounds
	give(10, 1) // phase door
	sword := w.items.Get(30)
	if sword != nil {
		it := &Item{ID: w.newID(), Tmpl: sword, Count: 1}
		w.Char.Inventory = append(w.Char.Inventory, it)
		w.Char.Equipment["weapon"] = it
	}
	armor := w.items.Get(40)
	if armor != nil {
		it := &Item{ID: w.newID(), Tmpl: armor, Count: 1}
		w.Char.Inventory = append(w.Char.Inventory, it)
		w.Char.Equipment["body"] = it
	}
}

func (w *World) newID() int {
	w.nextID++
	return w.nextID
}

// Snapshot exposes the current read-only view for the bot.
func (w *World) Snapshot() *Snapshot {
	return &Snapshot{
		Turn:     w.Turn,
		Level:    w.level,
		Char:     w.Char,
		Monsters: w.alive,
		Ground:   w.ground,
	}
}

// Alive reports whether the character survives.
func (w *World) Alive() bool { return w.Char.HP > 0 }

// Won reports whether the final boss is dead.
func (w *World) Won() bool {
	if w.Char.Depth != 50 {
		return false
	}
	for _, m := range w.alive {
		if m.Tmpl != nil && m.Tmpl.Boss && m.Alive() {
			return false
		}
	}
	return true
}

// Apply executes the bot's action, then runs monster turns, status effects
// and regeneration, and advances the clock.
func (w *World) Apply(a Action) {
	if !w.Alive() {
		return
	}
	w.applyCharAction(a)
	if w.Alive() {
		w.monsterTurns()
		w.tickStatuses()
		w.regen()
	}
	w.Turn++
	w.refreshFOV()
}

func (w *World) refreshFOV() {
	ComputeFOV(w.level, w.Char.Pos, w.Char.LightRadius())
	// Waking: monsters notice the character at short range.
	for _, m := range w.alive {
		if !m.Awake && Chebyshev(m.Pos, w.Char.Pos) <= 6 && w.rng.Intn(3) > 0 {
			m.Awake = true
		}
	}
}

func (w *World) applyCharAction(a Action) {
	ch := w.Char
	if ch.HasStatus(StatusParalysis) {
		return
	}
	switch a.Kind {
	case ActMove:
		w.moveChar(a.Dir)
	case ActAttack:
		if m := w.monsterByID(a.TargetID); m != nil && Chebyshev(m.Pos, ch.Pos) <= 1 {
			w.charMelee(m)
		}
	case ActRangedAttack:
		if m := w.monsterByID(a.TargetID); m != nil && Chebyshev(m.Pos, ch.Pos) <= 8 {
			w.charRanged(m)
		}
	case ActCast:
		if m := w.monsterByID(a.TargetID); m != nil && ch.MP >= 2 {
			ch.MP -= 2
			w.charSpell(m)
		}
	case ActPickup:
		w.pickupItem(a.ItemID)
	case ActUseItem:
		w.useItem(a.ItemID)
	case ActDescend:
		t := w.level.TileAt(ch.Pos.X, ch.Pos.Y)
		if t == TileStairsDown || t == TileDungeonEntrance {
			w.enterDepth(ch.Depth + 1)
		}
	case ActAscend:
		if w.level.TileAt(ch.Pos.X, ch.Pos.Y) == TileStairsUp {
			w.enterDepth(ch.Depth - 1)
		}
	case ActUseHealer:
		w.useHealer()
	case ActUseAltar:
		w.useAltar()
	case ActUseFountain:
		w.useFountain()
	case ActUsePortal:
		if w.level.TileAt(ch.Pos.X, ch.Pos.Y) == TilePortal ||
			nearTile(w.level, ch.Pos, TilePortal) {
			w.enterDepth(w.portalReturnDepth)
		}
	case ActSell:
		if w.nearShop(ch.Pos) {
			w.sellToMerchant()
		}
	case ActBuy:
		if w.nearShop(ch.Pos) {
			w.buyFromMerchant()
		}
	}
}

func (w *World) moveChar(d Direction) {
	ch := w.Char
	dx, dy := d.Delta()
	if dx == 0 && dy == 0 {
		return
	}
	// Confusion scrambles one step in three.
	if ch.HasStatus(StatusConfusion) && w.rng.Intn(3) == 0 {
		dx, dy = w.rng.Intn(3)-1, w.rng.Intn(3)-1
	}
	nx, ny := ch.Pos.X+dx, ch.Pos.Y+dy
	if !w.level.InBounds(nx, ny) {
		return
	}
	np := Point{X: nx, Y: ny}
	if m := w.monsterAt(np); m != nil {
		w.charMelee(m)
		return
	}
	t := w.level.TileAt(nx, ny)
	if t == TileDoorClosed {
		w.level.SetTile(nx, ny, TileDoorOpen)
		return
	}
	if !t.Walkable() {
		return
	}
	ch.Pos = np
	// Walking over loose gold scoops it up.
	if g := w.groundAt(np); g != nil && g.Item != nil && g.Item.Tmpl == nil {
		ch.Gold += g.Item.Count
		w.removeGround(g.ID)
	}
}

func (w *World) monsterByID(id int) *Monster {
	for _, m := range w.alive {
		if m.ID == id && m.Alive() {
			return m
		}
	}
	return nil
}

func (w *World) monsterAt(p Point) *Monster {
	for _, m := range w.alive {
		if m.Alive() && m.Pos == p {
			return m
		}
	}
	return nil
}

func (w *World) groundAt(p Point) *GroundItem {
	for _, g := range w.ground {
		if g.Pos == p {
			return g
		}
	}
	return nil
}

func (w *World) removeGround(id int) {
	for i, g := range w.ground {
		if g.ID == id {
			w.ground = append(w.ground[:i], w.ground[i+1:]...)
			return
		}
	}
}

func (w *World) combatRoll() int { return w.rng.Intn(10000) }

func (w *World) charMelee(m *Monster) {
	ch := w.Char
	ctx := scripting.CombatContext{
		AttackerLevel: ch.Level,
		AttackerStr:   ch.Str,
		AttackerDex:   ch.Dex,
		WeaponDamage:  ch.MeleeDamage(),
		TargetArmor:   0,
		TargetLevel:   m.Tmpl.Depth,
		Roll:          w.combatRoll(),
	}
	res := w.calcMelee(ctx)
	if res.IsHit {
		w.damageMonster(m, res.Damage)
	}
	m.Awake = true
}

func (w *World) charRanged(m *Monster) {
	ch := w.Char
	ctx := scripting.CombatContext{
		AttackerLevel: ch.Level,
		AttackerStr:   ch.Str,
		AttackerDex:   ch.Dex,
		WeaponDamage:  ch.RangedDamage(),
		TargetLevel:   m.Tmpl.Depth,
		Roll:          w.combatRoll(),
	}
	res := w.calcRanged(ctx)
	if res.IsHit {
		w.damageMonster(m, res.Damage)
	}
	m.Awake = true
}

func (w *World) charSpell(m *Monster) {
	ch := w.Char
	ctx := scripting.CombatContext{
		AttackerLevel: ch.Level,
		AttackerStr:   ch.Intl,
		AttackerDex:   ch.Dex,
		WeaponDamage:  2 + ch.Level/2,
		TargetLevel:   m.Tmpl.Depth,
		Roll:          w.combatRoll(),
	}
	res := w.calcSpell(ctx)
	if res.IsHit {
		w.damageMonster(m, res.Damage)
	}
	m.Awake = true
}

func (w *World) calcMelee(ctx scripting.CombatContext) scripting.CombatResult {
	if w.lua != nil {
		return w.lua.CalcMeleeAttack(ctx)
	}
	return scripting.Fallback(ctx)
}

func (w *World) calcRanged(ctx scripting.CombatContext) scripting.CombatResult {
	if w.lua != nil {
		return w.lua.CalcRangedAttack(ctx)
	}
	return scripting.Fallback(ctx)
}

func (w *World) calcSpell(ctx scripting.CombatContext) scripting.CombatResult {
	if w.lua != nil {
		return w.lua.CalcSpellDamage(ctx)
	}
	return scripting.Fallback(ctx)
}

func (w *World) damageMonster(m *Monster, dmg int) {
	m.HP -= dmg
	if m.HP > 0 {
		return
	}
	// Death: exp, gold, maybe a drop.
	ch := w.Char
	ch.Exp += m.Tmpl.Exp
	w.checkLevelUp()
	if m.Tmpl.Gold > 0 {
		ch.Gold += m.Tmpl.Gold/2 + w.rng.Intn(m.Tmpl.Gold+1)/2
	}
	if w.rng.Intn(5) == 0 {
		all := w.items.All()
		if len(all) > 0 {
			tmpl := all[w.rng.Intn(len(all))]
			w.ground = append(w.ground, &GroundItem{
				ID:   w.newID(),
				Pos:  m.Pos,
				Item: &Item{ID: w.newID(), Tmpl: tmpl, Count: 1},
			})
		}
	}
	for i, mm := range w.alive {
		if mm == m {
			w.alive = append(w.alive[:i], w.alive[i+1:]...)
			break
		}
	}
}

func (w *World) checkLevelUp() {
	ch := w.Char
	for ch.Exp >= ch.Level*ch.Level*20 && ch.Level < 50 {
		ch.Level++
		gain := 6 + ch.Con/4
		ch.MaxHP += gain
		ch.HP += gain
		ch.MaxMP += 2
		ch.MP += 2
	}
}

func (w *World) pickupItem(id int) {
	for _, g := range w.ground {
		if g.ID != id || g.Pos != w.Char.Pos {
			continue
		}
		if g.Item != nil && g.Item.Tmpl == nil {
			w.Char.Gold += g.Item.Count
		} else if g.Item != nil {
			g.Item.ShopPrice = 0
			w.Char.Inventory = append(w.Char.Inventory, g.Item)
			w.autoEquip(g.Item)
		}
		w.removeGround(id)
		return
	}
}

// autoEquip swaps in strictly better gear on pickup.
func (w *World) autoEquip(it *Item) {
	if it.Tmpl == nil || it.Tmpl.Slot == "" {
		return
	}
	cur := w.Char.Equipment[it.Tmpl.Slot]
	if cur == nil || cur.Tmpl == nil ||
		it.Tmpl.Power+it.Enchant > cur.Tmpl.Power+cur.Enchant {
		w.Char.Equipment[it.Tmpl.Slot] = it
	}
}

func (w *World) useItem(id int) {
	ch := w.Char
	it := ch.FindItem(id)
	if it == nil || it.Tmpl == nil {
		return
	}
	if !it.Tmpl.Consumable() {
		w.autoEquip(it)
		return
	}
	switch it.Tmpl.Effect {
	case "heal":
		ch.HP += it.Tmpl.Power
		if ch.HP > ch.MaxHP {
			ch.HP = ch.MaxHP
		}
	case "cure_poison":
		delete(ch.Statuses, StatusPoison)
	case "haste":
		ch.Statuses[StatusHaste] = &Status{Remaining: it.Tmpl.Power}
	case "protection_evil":
		ch.Statuses[StatusProtEvil] = &Status{Remaining: it.Tmpl.Power}
	case "phase_door":
		w.phaseDoor(it.Tmpl.Power)
	case "teleport_town":
		if ch.Depth > 0 {
			w.portalReturnDepth = ch.Depth
			w.enterDepth(0)
			w.openTownPortal()
		}
	case "teleport_level":
		// The scroll carries the character up a floor, never down.
		if ch.Depth > 0 {
			w.enterDepth(ch.Depth - 1)
		}
	}
	ch.RemoveItem(id)
}

func (w *World) phaseDoor(radius int) {
	if radius <= 0 {
		radius = 10
	}
	for i := 0; i < 100; i++ {
		nx := w.Char.Pos.X + w.rng.Intn(2*radius+1) - radius
		ny := w.Char.Pos.Y + w.rng.Intn(2*radius+1) - radius
		if w.level.IsPassable(nx, ny) && w.monsterAt(Point{X: nx, Y: ny}) == nil {
			w.Char.Pos = Point{X: nx, Y: ny}
			return
		}
	}
}

func (w *World) openTownPortal() {
	// Drop the return portal next to the town centre.
	p := Point{X: w.town.Width/2 + 2, Y: w.town.Height / 2}
	w.town.SetTile(p.X, p.Y, TilePortal)
}

func (w *World) useHealer() {
	ch := w.Char
	if !nearTile(w.level, ch.Pos, TileHealer) || ch.Gold < 20 {
		return
	}
	ch.Gold -= 20
	ch.HP = ch.MaxHP
	delete(ch.Statuses, StatusPoison)
	delete(ch.Statuses, StatusDrained)
}

func (w *World) useAltar() {
	ch := w.Char
	if ch.Gold < 100 {
		return
	}
	ch.Gold -= 100
	// A small blessing: one stat point, round-robin by turn parity.
	if w.Turn%2 == 0 {
		ch.Str++
	} else {
		ch.Con++
	}
}

func (w *World) useFountain() {
	ch := w.Char
	p := ch.Pos
	if w.level.TileAt(p.X, p.Y) != TileFountainActive && !nearTile(w.level, p, TileFountainActive) {
		return
	}
	ch.HP += 10
	if ch.HP > ch.MaxHP {
		ch.HP = ch.MaxHP
	}
}

func nearTile(l *Level, p Point, t Tile) bool {
	if l.TileAt(p.X, p.Y) == t {
		return true
	}
	for d := 0; d < 8; d++ {
		if l.TileAt(p.X+dirDX[d], p.Y+dirDY[d]) == t {
			return true
		}
	}
	return false
}

func (w *World) nearShop(p Point) bool {
	if w.level.TileAt(p.X, p.Y).Shop() {
		return true
	}
	for d := 0; d < 8; d++ {
		if w.level.TileAt(p.X+dirDX[d], p.Y+dirDY[d]).Shop() {
			return true
		}
	}
	return false
}

func (w *World) sellToMerchant() {
	ch := w.Char
	equipped := make(map[int]bool)
	for _, it := range ch.Equipment {
		if it != nil {
			equipped[it.ID] = true
		}
	}
	var keep []*Item
	for _, it := range ch.Inventory {
		sellable := it.Tmpl != nil && !equipped[it.ID] &&
			(it.Tmpl.Kind == "weapon" || it.Tmpl.Kind == "armor" || it.Tmpl.Kind == "misc")
		if sellable {
			ch.Gold += it.GoldValue() / 2
		} else {
			keep = append(keep, it)
		}
	}
	ch.Inventory = keep
}

// buyFromMerchant restocks the consumable belt: heal potions to five, two
// town scrolls, two phase doors, a cure — greed ends where the gold does.
func (w *World) buyFromMerchant() {
	ch := w.Char
	type want struct {
		effect string
		count  int
	}
	wants := []want{
		{"heal", 5},
		{"teleport_town", 2},
		{"phase_door", 2},
		{"cure_poison", 1},
	}
	for _, wnt := range wants {
		tmpls := w.items.ByEffect(wnt.effect)
		if len(tmpls) == 0 {
			continue
		}
		tmpl := tmpls[0]
		for countEffect(ch, wnt.effect) < wnt.count && ch.Gold >= tmpl.Value {
			ch.Gold -= tmpl.Value
			ch.Inventory = append(ch.Inventory, &Item{ID: w.newID(), Tmpl: tmpl, Count: 1})
		}
	}
}

func countEffect(ch *Character, effect string) int {
	n := 0
	for _, it := range ch.Inventory {
		if it.Tmpl != nil && it.Tmpl.Effect == effect {
			n++
		}
	}
	return n
}

// enterDepth moves the character between floors. Dungeon floors are built
// fresh every time; the town persists.
func (w *World) enterDepth(depth int) {
	ch := w.Char
	if depth < 0 {
		depth = 0
	}
	if depth > 50 {
		depth = 50
	}
	descending := depth > ch.Depth
	ch.Depth = depth

	if depth == 0 {
		w.level = w.town
		w.alive = nil
		w.ground = w.townKept.ground
		ch.Pos = Point{X: w.town.Width / 2, Y: w.town.Height / 2}
		w.refreshFOV()
		return
	}

	if w.level == w.town {
		w.townKept.ground = w.ground
	}
	lvl := GenerateLevel(w.rng, depth)
	w.level = lvl
	if descending && lvl.StairsUp != nil {
		ch.Pos = *lvl.StairsUp
	} else if !descending && lvl.StairsDown != nil {
		ch.Pos = *lvl.StairsDown
	} else {
		ch.Pos = FindOpenPosition(w.rng, lvl)
	}
	w.spawnMonsters(lvl, depth)
	w.spawnItems(lvl, depth)
	w.refreshFOV()
}

// spawnMonsters populates a fresh floor from the template table.
func (w *World) spawnMonsters(lvl *Level, depth int) {
	w.alive = nil
	pool := w.monsters.ForDepth(depth)
	if len(pool) == 0 {
		return
	}
	count := 8 + depth/2
	for i := 0; i < count; i++ {
		tmpl := pool[w.rng.Intn(len(pool))]
		if tmpl.Boss || tmpl.Unique {
			continue
		}
		w.placeMonster(lvl, tmpl)
	}
	// Uniques and the boss spawn once each when the depth qualifies.
	for _, tmpl := range pool {
		if tmpl.Boss || (tmpl.Unique && w.rng.Intn(2) == 0) {
			w.placeMonster(lvl, tmpl)
		}
	}
}

func (w *World) placeMonster(lvl *Level, tmpl *data.MonsterTemplate) {
	pos := FindOpenPosition(w.rng, lvl)
	if Chebyshev(pos, w.Char.Pos) < 6 {
		pos = FindOpenPosition(w.rng, lvl)
	}
	w.alive = append(w.alive, &Monster{
		ID:      w.newID(),
		Pos:     pos,
		HP:      tmpl.HP,
		Tmpl:    tmpl,
		Debuffs: make(map[string]int),
	})
}

// spawnItems scatters a little loot and gold.
func (w *World) spawnItems(lvl *Level, depth int) {
	w.ground = nil
	all := w.items.All()
	for i := 0; i < 3+depth/5; i++ {
		pos := FindOpenPosition(w.rng, lvl)
		if w.rng.Intn(2) == 0 {
			// Loose gold, carried as a template-less item.
			w.ground = append(w.ground, &GroundItem{
				ID:   w.newID(),
				Pos:  pos,
				Item: &Item{ID: w.newID(), Count: 10 + w.rng.Intn(20*depth+10)},
			})
		} else if len(all) > 0 {
			tmpl := all[w.rng.Intn(len(all))]
			w.ground = append(w.ground, &GroundItem{
				ID:   w.newID(),
				Pos:  pos,
				Item: &Item{ID: w.newID(), Tmpl: tmpl, Count: 1},
			})
		}
	}
}

// tickStatuses counts down effects and applies poison damage.
func (w *World) tickStatuses() {
	ch := w.Char
	for eff, st := range ch.Statuses {
		if eff == StatusPoison && st.Remaining > 0 {
			ch.HP -= st.Power
			if ch.HP <= 0 {
				ch.HP = 0
				w.KilledBy = "poison"
			}
		}
		st.Remaining--
		if st.Remaining <= 0 {
			delete(ch.Statuses, eff)
		}
	}
}

// regen trickles HP/MP back while out of immediate combat.
func (w *World) regen() {
	ch := w.Char
	if !w.Alive() {
		return
	}
	if w.Turn%8 == 0 && ch.HP < ch.MaxHP {
		ch.HP += 1 + ch.Con/8
		if ch.HP > ch.MaxHP {
			ch.HP = ch.MaxHP
		}
	}
	if w.Turn%10 == 0 && ch.MP < ch.MaxMP {
		ch.MP++
	}
}
