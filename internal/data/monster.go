package data

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed yaml/monster_list.yaml yaml/item_list.yaml yaml/class_list.yaml
var defaultYAML embed.FS

// Attack is one natural attack of a monster template.
// Kind "hit" is plain damage; anything else names the status it inflicts
// (poison, paralyze, confuse, blind, slow, terrify, drain).
type Attack struct {
	Damage int    `yaml:"damage"`
	Kind   string `yaml:"kind"`
}

// MonsterTemplate is the static definition of one monster species.
type MonsterTemplate struct {
	ID      int      `yaml:"id"`
	Name    string   `yaml:"name"`
	Depth   int      `yaml:"depth"` // native minimum depth
	HP      int      `yaml:"hp"`
	Speed   int      `yaml:"speed"` // 100 = normal
	Attacks []Attack `yaml:"attacks"`
	Spells  []string `yaml:"spells"`
	Breath  bool     `yaml:"breath"`
	Unique  bool     `yaml:"unique"`
	Evil    bool     `yaml:"evil"`
	Boss    bool     `yaml:"boss"` // the depth-50 victory target
	Resists []string `yaml:"resists"`
	Immune  []string `yaml:"immune"`
	Exp     int      `yaml:"exp"`
	Gold    int      `yaml:"gold"`
}

// AvgAttackDamage returns the mean damage across natural attacks.
func (t *MonsterTemplate) AvgAttackDamage() int {
	if len(t.Attacks) == 0 {
		return 0
	}
	sum := 0
	for _, a := range t.Attacks {
		sum += a.Damage
	}
	return sum / len(t.Attacks)
}

// StatusAttackCount returns how many attacks inflict a status effect, and
// whether any of them paralyzes.
func (t *MonsterTemplate) StatusAttackCount() (count int, paralyzes bool) {
	for _, a := range t.Attacks {
		if a.Kind != "" && a.Kind != "hit" {
			count++
			if a.Kind == "paralyze" {
				paralyzes = true
			}
		}
	}
	return count, paralyzes
}

// MonsterTable indexes monster templates by id.
type MonsterTable struct {
	byID  map[int]*MonsterTemplate
	order []*MonsterTemplate
}

type monsterListFile struct {
	Monsters []MonsterTemplate `yaml:"monsters"`
}

// LoadMonsterTable loads monster templates from a YAML file. An empty path
// loads the embedded defaults.
func LoadMonsterTable(path string) (*MonsterTable, error) {
	raw, err := readDataFile(path, "yaml/monster_list.yaml")
	if err != nil {
		return nil, fmt.Errorf("read monster list: %w", err)
	}
	var file monsterListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse monster list: %w", err)
	}
	table := &MonsterTable{byID: make(map[int]*MonsterTemplate, len(file.Monsters))}
	for i := range file.Monsters {
		tmpl := &file.Monsters[i]
		if tmpl.Speed <= 0 {
			tmpl.Speed = 100
		}
		table.byID[tmpl.ID] = tmpl
		table.order = append(table.order, tmpl)
	}
	return table, nil
}

// Get returns a template by id, or nil.
func (t *MonsterTable) Get(id int) *MonsterTemplate { return t.byID[id] }

// Count returns the number of loaded templates.
func (t *MonsterTable) Count() int { return len(t.order) }

// All returns the templates in file order.
func (t *MonsterTable) All() []*MonsterTemplate { return t.order }

// ForDepth returns templates whose native depth is within [depth-2, depth],
// plus the boss at depth 50. Used by the spawner.
func (t *MonsterTable) ForDepth(depth int) []*MonsterTemplate {
	var out []*MonsterTemplate
	for _, tmpl := range t.order {
		if tmpl.Boss {
			if depth == 50 {
				out = append(out, tmpl)
			}
			continue
		}
		if tmpl.Depth <= depth && tmpl.Depth >= depth-2 {
			out = append(out, tmpl)
		}
	}
	return out
}

// readDataFile reads from disk, or from the embedded defaults when path is "".
func readDataFile(path, embedded string) ([]byte, error) {
	if path == "" {
		return defaultYAML.ReadFile(embedded)
	}
	return os.ReadFile(path)
}
