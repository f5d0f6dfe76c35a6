package world

import (
	"github.com/borglike/bot/internal/data"
	"github.com/borglike/bot/internal/scripting"
)

// Sim monster AI: awake monsters chase and hit the character, asleep ones
// stand around until noticed. One move or one attack per turn; a direct step
// tries two side-steps before giving up.

const monsterAggroRange = 8

func (w *World) monsterTurns() {
	for _, m := range w.alive {
		if !m.Alive() || !w.Alive() {
			continue
		}
		w.tickMonsterDebuffs(m)
		if m.Debuffs["paralyze"] > 0 || m.Debuffs["sleep"] > 0 {
			continue
		}
		if !m.Awake {
			continue
		}
		dist := Chebyshev(m.Pos, w.Char.Pos)
		if dist > monsterAggroRange*3 {
			continue // far out of play, save the work
		}
		// Slow monsters skip every other turn; fast ones never do and get a
		// bonus action every third turn.
		if m.Tmpl.Speed < 100 && w.Turn%2 == 1 {
			continue
		}
		w.monsterAct(m, dist)
		if m.Tmpl.Speed > 100 && w.Turn%3 == 0 && w.Alive() {
			w.monsterAct(m, Chebyshev(m.Pos, w.Char.Pos))
		}
	}
}

func (w *World) monsterAct(m *Monster, dist int) {
	if dist <= 1 {
		w.monsterAttack(m)
		return
	}
	if dist <= monsterAggroRange*2 {
		w.monsterMoveToward(m, w.Char.Pos)
	}
}

// monsterAttack resolves one natural attack, possibly inflicting a status.
func (w *World) monsterAttack(m *Monster) {
	ch := w.Char
	if len(m.Tmpl.Attacks) == 0 {
		return
	}
	atk := m.Tmpl.Attacks[w.rng.Intn(len(m.Tmpl.Attacks))]
	ctx := scripting.CombatContext{
		AttackerLevel: m.Tmpl.Depth,
		AttackerStr:   10 + m.Tmpl.Depth,
		AttackerDex:   10,
		WeaponDamage:  atk.Damage,
		TargetArmor:   ch.Armor(),
		TargetLevel:   ch.Level,
		Roll:          w.combatRoll(),
	}
	res := w.calcMelee(ctx)
	if !res.IsHit {
		return
	}
	dmg := res.Damage
	if ch.HasStatus(StatusProtEvil) && m.Tmpl.Evil && ch.Level >= m.Tmpl.Depth {
		dmg /= 2
	}
	ch.HP -= dmg
	if ch.HP <= 0 {
		ch.HP = 0
		w.KilledBy = m.Tmpl.Name
		return
	}
	w.applyAttackStatus(m, atk)
}

func (w *World) applyAttackStatus(m *Monster, atk data.Attack) {
	ch := w.Char
	if atk.Kind == "" || atk.Kind == "hit" || w.rng.Intn(4) != 0 {
		return
	}
	switch atk.Kind {
	case "poison":
		ch.Statuses[StatusPoison] = &Status{Remaining: 8, Power: 1 + m.Tmpl.Depth/8}
	case "paralyze":
		ch.Statuses[StatusParalysis] = &Status{Remaining: 2}
	case "confuse":
		ch.Statuses[StatusConfusion] = &Status{Remaining: 6}
	case "blind":
		ch.Statuses[StatusBlind] = &Status{Remaining: 6}
	case "slow":
		ch.Statuses[StatusSlow] = &Status{Remaining: 10}
	case "terrify":
		ch.Statuses[StatusTerrified] = &Status{Remaining: 6}
	case "drain":
		ch.Statuses[StatusDrained] = &Status{Remaining: 20}
		if ch.MaxHP > 10 {
			ch.MaxHP--
		}
	}
}

// monsterMoveToward steps one tile toward the target, trying the direct
// heading first and two side-steps when blocked.
func (w *World) monsterMoveToward(m *Monster, target Point) {
	dx := sign(target.X - m.Pos.X)
	dy := sign(target.Y - m.Pos.Y)

	cands := make([]Point, 0, 3)
	cands = append(cands, Point{m.Pos.X + dx, m.Pos.Y + dy})
	if dx != 0 && dy != 0 {
		cands = append(cands, Point{m.Pos.X + dx, m.Pos.Y})
		cands = append(cands, Point{m.Pos.X, m.Pos.Y + dy})
	} else if dx != 0 {
		cands = append(cands, Point{m.Pos.X + dx, m.Pos.Y + 1})
		cands = append(cands, Point{m.Pos.X + dx, m.Pos.Y - 1})
	} else if dy != 0 {
		cands = append(cands, Point{m.Pos.X + 1, m.Pos.Y + dy})
		cands = append(cands, Point{m.Pos.X - 1, m.Pos.Y + dy})
	}

	for _, c := range cands {
		if c == m.Pos || !w.level.IsPassable(c.X, c.Y) {
			continue
		}
		if w.level.TileAt(c.X, c.Y) == TileDoorClosed {
			continue
		}
		if c == w.Char.Pos || w.monsterAt(c) != nil {
			continue
		}
		m.Pos = c
		return
	}
}

// tickMonsterDebuffs counts down status timers.
func (w *World) tickMonsterDebuffs(m *Monster) {
	for k, v := range m.Debuffs {
		v--
		if v <= 0 {
			delete(m.Debuffs, k)
		} else {
			m.Debuffs[k] = v
		}
	}
}
