package data

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ClassTier buckets classes by durability. It drives the under-levelled
// check: TANK may run 4 levels behind the depth, MEDIUM matches it, SQUISHY
// needs 5 levels over.
type ClassTier uint8

const (
	TierTank ClassTier = iota
	TierMedium
	TierSquishy
)

func (t ClassTier) String() string {
	switch t {
	case TierTank:
		return "tank"
	case TierSquishy:
		return "squishy"
	}
	return "medium"
}

// MinLevelForDepth returns the minimum character level the tier wants before
// entering the given depth, before any configured gate offset.
func (t ClassTier) MinLevelForDepth(depth int) int {
	switch t {
	case TierTank:
		return depth - 4
	case TierSquishy:
		return depth + 5
	}
	return depth
}

// ClassProfile carries per-class behaviour modifiers layered on top of the
// personality sliders.
type ClassProfile struct {
	ID             string `yaml:"id"`
	Name           string `yaml:"name"`
	Tier           string `yaml:"tier"`
	AggressionMod  int    `yaml:"aggression_mod"`
	CautionMod     int    `yaml:"caution_mod"`
	PrefersRanged  bool   `yaml:"prefers_ranged"`
	NeverRetreats  bool   `yaml:"never_retreats"`
	EngageDistance int    `yaml:"engage_distance"`
	Caster         bool   `yaml:"caster"`
}

// TierValue parses the tier string; unknown values fall back to MEDIUM.
func (p *ClassProfile) TierValue() ClassTier {
	switch p.Tier {
	case "tank":
		return TierTank
	case "squishy":
		return TierSquishy
	}
	return TierMedium
}

// ClassTable indexes class profiles by id string.
type ClassTable struct {
	byID  map[string]*ClassProfile
	order []*ClassProfile
}

type classListFile struct {
	Classes []ClassProfile `yaml:"classes"`
}

// LoadClassTable loads class profiles from a YAML file. An empty path loads
// the embedded defaults.
func LoadClassTable(path string) (*ClassTable, error) {
	raw, err := readDataFile(path, "yaml/class_list.yaml")
	if err != nil {
		return nil, fmt.Errorf("read class list: %w", err)
	}
	var file classListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse class list: %w", err)
	}
	table := &ClassTable{byID: make(map[string]*ClassProfile, len(file.Classes))}
	for i := range file.Classes {
		p := &file.Classes[i]
		table.byID[p.ID] = p
		table.order = append(table.order, p)
	}
	return table, nil
}

// Get returns a profile by class id, or nil.
func (t *ClassTable) Get(id string) *ClassProfile { return t.byID[id] }

// Count returns the number of loaded profiles.
func (t *ClassTable) Count() int { return len(t.order) }
