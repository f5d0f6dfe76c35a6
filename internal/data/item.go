package data

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ItemTemplate is the static definition of one item kind.
//
// Kind: potion | scroll | weapon | armor | food | misc.
// Effect names what a consumable does when used: heal, cure_poison,
// phase_door, teleport_town, teleport_level, haste, protection_evil.
type ItemTemplate struct {
	ID     int    `yaml:"id"`
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Effect string `yaml:"effect"`
	Slot   string `yaml:"slot"` // weapon | body | shield | helm | ring
	Tier   int    `yaml:"tier"`
	Value  int    `yaml:"value"` // base gold value
	Power  int    `yaml:"power"` // heal amount, weapon damage, armor bonus
	Ranged bool   `yaml:"ranged"`
}

// Consumable reports whether using the item consumes it.
func (t *ItemTemplate) Consumable() bool {
	return t.Kind == "potion" || t.Kind == "scroll" || t.Kind == "food"
}

// ItemTable indexes item templates by id and by effect.
type ItemTable struct {
	byID     map[int]*ItemTemplate
	byEffect map[string][]*ItemTemplate
	order    []*ItemTemplate
}

type itemListFile struct {
	Items []ItemTemplate `yaml:"items"`
}

// LoadItemTable loads item templates from a YAML file. An empty path loads
// the embedded defaults.
func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := readDataFile(path, "yaml/item_list.yaml")
	if err != nil {
		return nil, fmt.Errorf("read item list: %w", err)
	}
	var file itemListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse item list: %w", err)
	}
	table := &ItemTable{
		byID:     make(map[int]*ItemTemplate, len(file.Items)),
		byEffect: make(map[string][]*ItemTemplate),
	}
	for i := range file.Items {
		tmpl := &file.Items[i]
		table.byID[tmpl.ID] = tmpl
		if tmpl.Effect != "" {
			table.byEffect[tmpl.Effect] = append(table.byEffect[tmpl.Effect], tmpl)
		}
		table.order = append(table.order, tmpl)
	}
	return table, nil
}

// Get returns a template by id, or nil.
func (t *ItemTable) Get(id int) *ItemTemplate { return t.byID[id] }

// ByEffect returns all templates with the given consumable effect.
func (t *ItemTable) ByEffect(effect string) []*ItemTemplate { return t.byEffect[effect] }

// Count returns the number of loaded templates.
func (t *ItemTable) Count() int { return len(t.order) }

// All returns the templates in file order.
func (t *ItemTable) All() []*ItemTemplate { return t.order }
