package attrs

import (
	"encoding/json"
	"sort"

	"shopcraft.gg/internal/items"
)

// applyFallback hand-decodes the well-known kinds when no registered codec
// handled them. Each fallback resolves its sub-entities (enchant ids, trim
// materials/patterns) against the definitions and skips entries it does not
// recognize.
func (r *Registry) applyFallback(st *items.Stack, kind string, raw json.RawMessage) bool {
	switch kind {
	case KindName:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return false
		}
		st.Name = s
		return true

	case KindEnchants:
		var list []enchantEntry
		if err := json.Unmarshal(raw, &list); err != nil {
			return false
		}
		out := st.Enchants
		for _, e := range list {
			if r.defs != nil {
				if _, ok := r.defs.Enchants[e.ID]; !ok {
					r.logf("attrs: unknown enchantment %q on %s", e.ID, st.Type)
					continue
				}
			}
			lvl := e.Level
			if lvl < 1 {
				lvl = 1
			}
			out = append(out, items.Enchant{ID: e.ID, Level: lvl})
		}
		if len(out) == 0 {
			return false
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		st.Enchants = out
		return true

	case KindTrim:
		var t trimEntry
		if err := json.Unmarshal(raw, &t); err != nil {
			return false
		}
		if r.defs != nil {
			if _, ok := r.defs.TrimMaterials[t.Material]; !ok {
				r.logf("attrs: unknown trim material %q on %s", t.Material, st.Type)
				return false
			}
			if _, ok := r.defs.TrimPatterns[t.Pattern]; !ok {
				r.logf("attrs: unknown trim pattern %q on %s", t.Pattern, st.Type)
				return false
			}
		}
		st.Trim = &items.Trim{Material: t.Material, Pattern: t.Pattern}
		return true
	}
	return false
}
