package bot

import "github.com/borglike/bot/internal/data"

// Personality holds the five behaviour sliders. All but Patience run 0-100;
// Patience is a per-level turn allowance between 50 and 500.
type Personality struct {
	Aggression  int
	Greed       int
	Caution     int
	Exploration int
	Patience    int
}

// Preset personalities. "custom" keeps whatever the config carries.
var presets = map[string]Personality{
	"cautious":    {Aggression: 25, Greed: 40, Caution: 85, Exploration: 60, Patience: 400},
	"aggressive":  {Aggression: 85, Greed: 35, Caution: 20, Exploration: 50, Patience: 150},
	"greedy":      {Aggression: 50, Greed: 90, Caution: 45, Exploration: 70, Patience: 300},
	"speedrunner": {Aggression: 60, Greed: 10, Caution: 30, Exploration: 25, Patience: 80},
}

// PresetPersonality resolves a preset name; unknown names (including
// "custom") return the fallback with its sliders clamped.
func PresetPersonality(name string, fallback Personality) Personality {
	if p, ok := presets[name]; ok {
		return p
	}
	return fallback.clamped()
}

func clampSlider(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func (p Personality) clamped() Personality {
	p.Aggression = clampSlider(p.Aggression)
	p.Greed = clampSlider(p.Greed)
	p.Caution = clampSlider(p.Caution)
	p.Exploration = clampSlider(p.Exploration)
	if p.Patience < 50 {
		p.Patience = 50
	}
	if p.Patience > 500 {
		p.Patience = 500
	}
	return p
}

// DepthRange bounds a capability to a depth window. Zero means unbounded on
// that side.
type DepthRange struct {
	Start int
	End   int
}

// Contains reports whether the depth falls inside the range.
func (r DepthRange) Contains(depth int) bool {
	if r.Start > 0 && depth < r.Start {
		return false
	}
	if r.End > 0 && depth > r.End {
		return false
	}
	return true
}

// Capabilities are graded 0-3 enable levels plus feature toggles.
type Capabilities struct {
	Tactics      int
	Retreat      int
	Sweep        int
	Surf         int
	Kiting       int
	Targeting    int
	Preparedness int

	Town    bool
	Farming bool

	SweepRange DepthRange
	SurfRange  DepthRange

	DepthGateOffset int
}

func clampLevel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 3 {
		return 3
	}
	return v
}

// Clamped normalises all grades into 0..3.
func (c Capabilities) Clamped() Capabilities {
	c.Tactics = clampLevel(c.Tactics)
	c.Retreat = clampLevel(c.Retreat)
	c.Sweep = clampLevel(c.Sweep)
	c.Surf = clampLevel(c.Surf)
	c.Kiting = clampLevel(c.Kiting)
	c.Targeting = clampLevel(c.Targeting)
	c.Preparedness = clampLevel(c.Preparedness)
	return c
}

// EffectiveProfile is the personality after class modifiers, plus the class
// profile itself. Built once per tick into the context.
type EffectiveProfile struct {
	Personality
	Class *data.ClassProfile
}

// effectiveProfile projects the raw sliders through the class tendencies.
func effectiveProfile(p Personality, class *data.ClassProfile) EffectiveProfile {
	out := p
	if class != nil {
		out.Aggression = clampSlider(p.Aggression + class.AggressionMod)
		out.Caution = clampSlider(p.Caution + class.CautionMod)
	}
	return EffectiveProfile{Personality: out, Class: class}
}

// Tier returns the class durability tier, defaulting to MEDIUM.
func (e *EffectiveProfile) Tier() data.ClassTier {
	if e.Class == nil {
		return data.TierMedium
	}
	return e.Class.TierValue()
}

// PrefersRanged reports the class ranged tendency.
func (e *EffectiveProfile) PrefersRanged() bool {
	return e.Class != nil && e.Class.PrefersRanged
}

// NeverRetreats reports whether the class refuses to flee.
func (e *EffectiveProfile) NeverRetreats() bool {
	return e.Class != nil && e.Class.NeverRetreats
}

// EngageDistance is the preferred combat range (1 = melee).
func (e *EffectiveProfile) EngageDistance() int {
	if e.Class == nil || e.Class.EngageDistance < 1 {
		return 1
	}
	return e.Class.EngageDistance
}
