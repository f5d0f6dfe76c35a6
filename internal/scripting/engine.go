package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding the combat formulas. The sim
// world calls it from the game loop goroutine only; the decision engine never
// touches it, so bot output stays deterministic for a given world seed.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the directory.
// A missing directory is not an error: every formula has a Go fallback.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(filepath.Join(scriptsDir, "combat")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load combat scripts: %w", err)
	}
	return e, nil
}

// Close releases the VM.
func (e *Engine) Close() { e.vm.Close() }

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// CombatContext holds pre-packed data for an attack calculation.
type CombatContext struct {
	AttackerLevel  int
	AttackerStr    int
	AttackerDex    int
	WeaponDamage   int
	TargetArmor    int
	TargetLevel    int
	Roll           int // caller-provided die roll, keeps Lua side pure
}

// CombatResult is returned by the Lua combat functions.
type CombatResult struct {
	IsHit  bool
	Damage int
}

// CalcMeleeAttack calls the Lua calc_melee_attack function, falling back to
// the built-in formula when the script does not define it.
func (e *Engine) CalcMeleeAttack(ctx CombatContext) CombatResult {
	return e.callCombat("calc_melee_attack", ctx)
}

// CalcRangedAttack calls the Lua calc_ranged_attack function.
func (e *Engine) CalcRangedAttack(ctx CombatContext) CombatResult {
	return e.callCombat("calc_ranged_attack", ctx)
}

// CalcSpellDamage calls the Lua calc_spell_damage function.
func (e *Engine) CalcSpellDamage(ctx CombatContext) CombatResult {
	return e.callCombat("calc_spell_damage", ctx)
}

func (e *Engine) callCombat(name string, ctx CombatContext) CombatResult {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return fallbackCombat(ctx)
	}

	tbl := e.vm.NewTable()
	e.vm.SetField(tbl, "attacker_level", lua.LNumber(ctx.AttackerLevel))
	e.vm.SetField(tbl, "attacker_str", lua.LNumber(ctx.AttackerStr))
	e.vm.SetField(tbl, "attacker_dex", lua.LNumber(ctx.AttackerDex))
	e.vm.SetField(tbl, "weapon_damage", lua.LNumber(ctx.WeaponDamage))
	e.vm.SetField(tbl, "target_armor", lua.LNumber(ctx.TargetArmor))
	e.vm.SetField(tbl, "target_level", lua.LNumber(ctx.TargetLevel))
	e.vm.SetField(tbl, "roll", lua.LNumber(ctx.Roll))

	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true}, tbl); err != nil {
		e.log.Error("lua combat call failed", zap.String("fn", name), zap.Error(err))
		return fallbackCombat(ctx)
	}
	dmg := e.vm.Get(-1)
	hit := e.vm.Get(-2)
	e.vm.Pop(2)

	res := CombatResult{IsHit: lua.LVAsBool(hit)}
	if n, ok := dmg.(lua.LNumber); ok {
		res.Damage = int(n)
	}
	if res.Damage < 0 {
		res.Damage = 0
	}
	return res
}

// Fallback exposes the built-in formula for worlds running without a VM.
func Fallback(ctx CombatContext) CombatResult { return fallbackCombat(ctx) }

// fallbackCombat mirrors calc_melee_attack in scripts/combat/formulas.lua so
// headless runs work without the script tree. Ranged and spell calls without
// a script use this same melee formula.
func fallbackCombat(ctx CombatContext) CombatResult {
	hitChance := 60 + 3*(ctx.AttackerLevel-ctx.TargetLevel) + ctx.AttackerDex/4
	if hitChance < 10 {
		hitChance = 10
	}
	if hitChance > 95 {
		hitChance = 95
	}
	if ctx.Roll%100 >= hitChance {
		return CombatResult{IsHit: false}
	}
	dmg := ctx.WeaponDamage + ctx.AttackerStr/4 + ctx.Roll%4
	reduc := ctx.TargetArmor / 2
	if reduc > dmg-1 {
		reduc = dmg - 1
	}
	if reduc > 0 {
		dmg -= reduc
	}
	if dmg < 1 {
		dmg = 1
	}
	return CombatResult{IsHit: true, Damage: dmg}
}
