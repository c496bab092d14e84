// Package attrs reconstructs opaque per-listing attribute documents onto
// concrete item stacks and back. A document is a JSON object keyed by
// attribute kind; each kind is resolved through a codec registry, with
// hand-coded fallbacks for the well-known kinds when no codec applies.
// Decoding is best-effort and never fails the caller: unknown kinds and
// malformed values are logged and skipped.
package attrs

import (
	"encoding/json"
	"log"
	"sort"

	"shopcraft.gg/internal/items"
)

// Attribute kind identifiers.
const (
	KindName          = "custom_name"
	KindEnchants      = "enchantments"
	KindTrim          = "trim"
	KindDurability    = "durability"
	KindMaxDurability = "max_durability"
)

type Value any

// Codec is the per-kind capability: structured decode/encode of the raw
// value, application to a stack, and extraction back out of one.
type Codec interface {
	Decode(raw json.RawMessage) (Value, error)
	Encode(v Value) (json.RawMessage, error)
	Apply(st *items.Stack, v Value)
	Extract(st items.Stack) (Value, bool)
}

// Registry maps attribute kinds to codecs. The zero registry is unusable;
// build one with NewRegistry, which installs the built-in kinds.
type Registry struct {
	defs   *items.Definitions
	codecs map[string]Codec
	log    *log.Logger
}

func NewRegistry(defs *items.Definitions, logger *log.Logger) *Registry {
	r := &Registry{
		defs:   defs,
		codecs: map[string]Codec{},
		log:    logger,
	}
	r.Register(KindName, nameCodec{})
	r.Register(KindEnchants, enchantCodec{defs: defs})
	r.Register(KindTrim, trimCodec{defs: defs})
	r.Register(KindDurability, durabilityCodec{max: false})
	r.Register(KindMaxDurability, durabilityCodec{max: true})
	return r
}

func (r *Registry) Register(kind string, c Codec) {
	r.codecs[kind] = c
}

// Decode builds a fresh stack of the given type and count and applies the
// attribute document to it. The boolean reports whether any attribute was
// actually applied.
func (r *Registry) Decode(itemType string, count int, doc string) (items.Stack, bool) {
	st := items.Stack{Type: itemType, Count: count}
	if doc == "" {
		return st, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		r.logf("attrs: malformed document for %s: %v", itemType, err)
		return st, false
	}
	kinds := make([]string, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	applied := false
	for _, kind := range kinds {
		raw := m[kind]
		if c, ok := r.codecs[kind]; ok {
			v, err := c.Decode(raw)
			if err == nil {
				c.Apply(&st, v)
				applied = true
				continue
			}
			r.logf("attrs: decode %s on %s: %v", kind, itemType, err)
		}
		if r.applyFallback(&st, kind, raw) {
			applied = true
			continue
		}
		r.logf("attrs: skipping unknown kind %q on %s", kind, itemType)
	}
	return st, applied
}

// Encode serializes the attribute kinds the market actively lists back into
// a document. Kinds the stack does not carry are omitted; a fully plain
// stack encodes to the empty string.
func (r *Registry) Encode(st items.Stack) string {
	out := map[string]json.RawMessage{}
	for kind, c := range r.codecs {
		v, ok := c.Extract(st)
		if !ok {
			continue
		}
		raw, err := c.Encode(v)
		if err != nil {
			r.logf("attrs: encode %s on %s: %v", kind, st.Type, err)
			continue
		}
		out[kind] = raw
	}
	if len(out) == 0 {
		return ""
	}
	b, err := json.Marshal(out)
	if err != nil {
		return ""
	}
	return string(b)
}

// Normalize rewrites a document into a canonical key-sorted form so that
// structurally equal documents compare equal as strings. Unknown kinds are
// preserved; a malformed or empty document normalizes to "".
func Normalize(doc string) string {
	if doc == "" {
		return ""
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return ""
	}
	if len(m) == 0 {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}

func (r *Registry) logf(format string, args ...any) {
	if r.log != nil {
		r.log.Printf(format, args...)
	}
}
