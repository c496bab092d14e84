// Package items holds the static item-side definitions the market trades in:
// item types with stack limits, enchantment kinds, and armor-trim materials
// and patterns. Definitions are loaded once at startup and treated as
// immutable afterwards.
package items

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

const DefaultMaxStack = 64

type Definitions struct {
	Items         map[string]ItemDef
	Enchants      map[string]EnchantDef
	TrimMaterials map[string]TrimMaterialDef
	TrimPatterns  map[string]TrimPatternDef

	Digest string
}

type ItemDef struct {
	ID            string `yaml:"id"`
	MaxStack      int    `yaml:"max_stack,omitempty"`
	MaxDurability int    `yaml:"max_durability,omitempty"`
	Enchantable   bool   `yaml:"enchantable,omitempty"`
	Trimmable     bool   `yaml:"trimmable,omitempty"`
}

type EnchantDef struct {
	ID       string `yaml:"id"`
	MaxLevel int    `yaml:"max_level,omitempty"`
}

type TrimMaterialDef struct {
	ID string `yaml:"id"`
}

type TrimPatternDef struct {
	ID string `yaml:"id"`
}

type defsFile struct {
	Items         []ItemDef         `yaml:"items"`
	Enchants      []EnchantDef      `yaml:"enchantments"`
	TrimMaterials []TrimMaterialDef `yaml:"trim_materials"`
	TrimPatterns  []TrimPatternDef  `yaml:"trim_patterns"`
}

// Load reads definitions.yaml from configDir.
func Load(configDir string) (*Definitions, error) {
	path := filepath.Join(configDir, "definitions.yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f defsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("definitions.yaml: %w", err)
	}
	d, err := fromFile(f)
	if err != nil {
		return nil, fmt.Errorf("definitions.yaml: %w", err)
	}
	d.Digest = sha256Hex(raw)
	return d, nil
}

func fromFile(f defsFile) (*Definitions, error) {
	d := &Definitions{
		Items:         map[string]ItemDef{},
		Enchants:      map[string]EnchantDef{},
		TrimMaterials: map[string]TrimMaterialDef{},
		TrimPatterns:  map[string]TrimPatternDef{},
	}
	for _, it := range f.Items {
		if it.ID == "" {
			return nil, fmt.Errorf("item with empty id")
		}
		if it.MaxStack <= 0 {
			it.MaxStack = DefaultMaxStack
		}
		d.Items[it.ID] = it
	}
	for _, e := range f.Enchants {
		if e.ID == "" {
			return nil, fmt.Errorf("enchantment with empty id")
		}
		if e.MaxLevel <= 0 {
			e.MaxLevel = 1
		}
		d.Enchants[e.ID] = e
	}
	for _, m := range f.TrimMaterials {
		if m.ID == "" {
			return nil, fmt.Errorf("trim material with empty id")
		}
		d.TrimMaterials[m.ID] = m
	}
	for _, p := range f.TrimPatterns {
		if p.ID == "" {
			return nil, fmt.Errorf("trim pattern with empty id")
		}
		d.TrimPatterns[p.ID] = p
	}
	return d, nil
}

// Defaults returns a small built-in definition set. It backs tests and
// servers started without a config directory.
func Defaults() *Definitions {
	d, _ := fromFile(defsFile{
		Items: []ItemDef{
			{ID: "stone"},
			{ID: "oak_log"},
			{ID: "bread", MaxStack: 64},
			{ID: "ender_pearl", MaxStack: 16},
			{ID: "diamond"},
			{ID: "iron_sword", MaxStack: 1, MaxDurability: 250, Enchantable: true},
			{ID: "diamond_pickaxe", MaxStack: 1, MaxDurability: 1561, Enchantable: true},
			{ID: "iron_chestplate", MaxStack: 1, MaxDurability: 240, Enchantable: true, Trimmable: true},
		},
		Enchants: []EnchantDef{
			{ID: "sharpness", MaxLevel: 5},
			{ID: "efficiency", MaxLevel: 5},
			{ID: "unbreaking", MaxLevel: 3},
			{ID: "protection", MaxLevel: 4},
			{ID: "mending", MaxLevel: 1},
		},
		TrimMaterials: []TrimMaterialDef{
			{ID: "gold"}, {ID: "redstone"}, {ID: "amethyst"},
		},
		TrimPatterns: []TrimPatternDef{
			{ID: "rib"}, {ID: "sentry"}, {ID: "ward"},
		},
	})
	ids := make([]string, 0, len(d.Items))
	for id := range d.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	raw, _ := yaml.Marshal(ids)
	d.Digest = sha256Hex(raw)
	return d
}

// MaxStack returns the stack limit for an item type, defaulting to 64 for
// unknown types so foreign items still pack sanely.
func (d *Definitions) MaxStack(itemType string) int {
	if d != nil {
		if def, ok := d.Items[itemType]; ok && def.MaxStack > 0 {
			return def.MaxStack
		}
	}
	return DefaultMaxStack
}

func (d *Definitions) KnownItem(itemType string) bool {
	if d == nil {
		return false
	}
	_, ok := d.Items[itemType]
	return ok
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
