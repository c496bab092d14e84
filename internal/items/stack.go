package items

// Stack is one concrete item instance: a type, a count, and the decoded
// attributes that make it distinct from a plain stack of the same type.
type Stack struct {
	Type  string
	Count int

	Name     string
	Enchants []Enchant
	Trim     *Trim

	Durability    int
	MaxDurability int
}

type Enchant struct {
	ID    string
	Level int
}

type Trim struct {
	Material string
	Pattern  string
}

// Plain reports whether the stack carries no attributes at all.
func (s Stack) Plain() bool {
	return s.Name == "" && len(s.Enchants) == 0 && s.Trim == nil &&
		s.Durability == 0 && s.MaxDurability == 0
}

// Clone returns a deep copy; Trim and the enchant slice are not shared.
func (s Stack) Clone() Stack {
	out := s
	if s.Trim != nil {
		t := *s.Trim
		out.Trim = &t
	}
	if len(s.Enchants) > 0 {
		out.Enchants = append([]Enchant(nil), s.Enchants...)
	}
	return out
}
