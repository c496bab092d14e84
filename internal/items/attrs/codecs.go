package attrs

import (
	"encoding/json"
	"fmt"
	"sort"

	"shopcraft.gg/internal/items"
)

type nameCodec struct{}

func (nameCodec) Decode(raw json.RawMessage) (Value, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s == "" {
		return nil, fmt.Errorf("empty name")
	}
	return s, nil
}

func (nameCodec) Encode(v Value) (json.RawMessage, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("name value must be string")
	}
	return json.Marshal(s)
}

func (nameCodec) Apply(st *items.Stack, v Value) {
	if s, ok := v.(string); ok {
		st.Name = s
	}
}

func (nameCodec) Extract(st items.Stack) (Value, bool) {
	if st.Name == "" {
		return nil, false
	}
	return st.Name, true
}

type enchantEntry struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
}

type enchantCodec struct {
	defs *items.Definitions
}

func (c enchantCodec) Decode(raw json.RawMessage) (Value, error) {
	var list []enchantEntry
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	out := make([]items.Enchant, 0, len(list))
	for _, e := range list {
		def, ok := c.defs.Enchants[e.ID]
		if !ok {
			// Unknown enchant ids fail soft: drop the entry, keep the rest.
			continue
		}
		lvl := e.Level
		if lvl < 1 {
			lvl = 1
		}
		if def.MaxLevel > 0 && lvl > def.MaxLevel {
			lvl = def.MaxLevel
		}
		out = append(out, items.Enchant{ID: e.ID, Level: lvl})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) == 0 {
		return nil, fmt.Errorf("no known enchantments")
	}
	return out, nil
}

func (enchantCodec) Encode(v Value) (json.RawMessage, error) {
	list, ok := v.([]items.Enchant)
	if !ok {
		return nil, fmt.Errorf("enchant value must be []Enchant")
	}
	out := make([]enchantEntry, 0, len(list))
	for _, e := range list {
		out = append(out, enchantEntry{ID: e.ID, Level: e.Level})
	}
	return json.Marshal(out)
}

func (enchantCodec) Apply(st *items.Stack, v Value) {
	if list, ok := v.([]items.Enchant); ok {
		st.Enchants = list
	}
}

func (enchantCodec) Extract(st items.Stack) (Value, bool) {
	if len(st.Enchants) == 0 {
		return nil, false
	}
	list := append([]items.Enchant(nil), st.Enchants...)
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, true
}

type trimEntry struct {
	Material string `json:"material"`
	Pattern  string `json:"pattern"`
}

type trimCodec struct {
	defs *items.Definitions
}

func (c trimCodec) Decode(raw json.RawMessage) (Value, error) {
	var t trimEntry
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	if _, ok := c.defs.TrimMaterials[t.Material]; !ok {
		return nil, fmt.Errorf("unknown trim material %q", t.Material)
	}
	if _, ok := c.defs.TrimPatterns[t.Pattern]; !ok {
		return nil, fmt.Errorf("unknown trim pattern %q", t.Pattern)
	}
	return items.Trim{Material: t.Material, Pattern: t.Pattern}, nil
}

func (trimCodec) Encode(v Value) (json.RawMessage, error) {
	t, ok := v.(items.Trim)
	if !ok {
		return nil, fmt.Errorf("trim value must be Trim")
	}
	return json.Marshal(trimEntry{Material: t.Material, Pattern: t.Pattern})
}

func (trimCodec) Apply(st *items.Stack, v Value) {
	if t, ok := v.(items.Trim); ok {
		st.Trim = &t
	}
}

func (trimCodec) Extract(st items.Stack) (Value, bool) {
	if st.Trim == nil {
		return nil, false
	}
	return *st.Trim, true
}

type durabilityCodec struct {
	max bool
}

func (durabilityCodec) Decode(raw json.RawMessage) (Value, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("negative durability")
	}
	return n, nil
}

func (durabilityCodec) Encode(v Value) (json.RawMessage, error) {
	n, ok := v.(int)
	if !ok {
		return nil, fmt.Errorf("durability value must be int")
	}
	return json.Marshal(n)
}

func (c durabilityCodec) Apply(st *items.Stack, v Value) {
	n, ok := v.(int)
	if !ok {
		return
	}
	if c.max {
		st.MaxDurability = n
	} else {
		st.Durability = n
	}
}

func (c durabilityCodec) Extract(st items.Stack) (Value, bool) {
	if c.max {
		if st.MaxDurability == 0 {
			return nil, false
		}
		return st.MaxDurability, true
	}
	if st.Durability == 0 {
		return nil, false
	}
	return st.Durability, true
}
