package counters

// Set is a collection of counters keyed by type label (e.g. "+1/+1",
// "loyalty", "poison"). Counts are always positive: an entry is created on
// the first apply and deleted the moment its count reaches zero, so a Set
// never contains zero-valued entries.
type Set map[string]int

// Apply increments the counter of the given type by one, creating the
// entry if absent. Returns the updated set (allocating if s is nil).
func (s Set) Apply(name string) Set {
	if s == nil {
		s = make(Set)
	}
	s[name]++
	return s
}

// Remove decrements the counter of the given type by one, floored at
// zero. The entry is deleted once the count reaches zero. Removing from an
// absent entry is a no-op.
func (s Set) Remove(name string) Set {
	if s == nil {
		return nil
	}
	if count, ok := s[name]; ok {
		if count <= 1 {
			delete(s, name)
		} else {
			s[name] = count - 1
		}
	}
	return s
}

// RemoveAll deletes the entry for the given type outright regardless of
// its count.
func (s Set) RemoveAll(name string) Set {
	if s == nil {
		return nil
	}
	delete(s, name)
	return s
}

// Count returns the number of counters of the given type, zero if absent.
func (s Set) Count(name string) int {
	return s[name]
}

// Total returns the total number of counters across all types.
func (s Set) Total() int {
	total := 0
	for _, count := range s {
		total += count
	}
	return total
}

// Clone creates a copy of the set. A nil set clones to nil.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for name, count := range s {
		out[name] = count
	}
	return out
}

// Boost is the power/toughness contribution of one counter type, e.g.
// "+1/+1" contributes (1, 1) per counter.
type Boost struct {
	Power     int
	Toughness int
}

// ParseBoost parses a counter label of the form "<int>/<int>" (with
// optional leading signs, e.g. "+1/+1", "-1/-1", "2/0") into its
// power/toughness deltas. Labels in any other shape are not boosts.
func ParseBoost(name string) (Boost, bool) {
	slash := -1
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			slash = i
			break
		}
	}
	if slash < 0 {
		return Boost{}, false
	}
	power, ok := parseSignedInt(name[:slash])
	if !ok {
		return Boost{}, false
	}
	toughness, ok := parseSignedInt(name[slash+1:])
	if !ok {
		return Boost{}, false
	}
	return Boost{Power: power, Toughness: toughness}, true
}

// SumBoosts totals the power/toughness contribution of every boost-shaped
// counter in the set, weighted by count.
func (s Set) SumBoosts() Boost {
	var total Boost
	for name, count := range s {
		if boost, ok := ParseBoost(name); ok {
			total.Power += boost.Power * count
			total.Toughness += boost.Toughness * count
		}
	}
	return total
}

func parseSignedInt(s string) (int, bool) {
	if len(s) == 0 {
		return 0, false
	}
	negative := false
	start := 0
	switch s[0] {
	case '+':
		start = 1
	case '-':
		negative = true
		start = 1
	}
	if start >= len(s) {
		return 0, false
	}
	value := 0
	for i := start; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		value = value*10 + int(s[i]-'0')
	}
	if negative {
		value = -value
	}
	return value, true
}
