package life

import (
	"fmt"
	"strings"
)

// Rule is an outer-totalistic birth/survival rule indexed by live neighbor
// count.
type Rule struct {
	Birth   [9]bool
	Survive [9]bool
}

// Conway is B3/S23.
var Conway = MustParseRule("B3/S23")

// ParseRule accepts "B3/S23" notation (case-insensitive, either order) and
// the older "S/B" form such as "23/3".
func ParseRule(s string) (Rule, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		s = "B3/S23"
	}
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return Rule{}, fmt.Errorf("invalid rule %q: expected one '/'", s)
	}
	var r Rule
	if !strings.HasPrefix(parts[0], "B") && !strings.HasPrefix(parts[0], "S") &&
		!strings.HasPrefix(parts[1], "B") && !strings.HasPrefix(parts[1], "S") {
		if err := fillDigits(&r.Survive, parts[0]); err != nil {
			return Rule{}, fmt.Errorf("invalid rule %q: %w", s, err)
		}
		if err := fillDigits(&r.Birth, parts[1]); err != nil {
			return Rule{}, fmt.Errorf("invalid rule %q: %w", s, err)
		}
		return r, nil
	}
	seen := map[byte]bool{}
	for _, p := range parts {
		if p == "" {
			return Rule{}, fmt.Errorf("invalid rule %q: empty section", s)
		}
		kind := p[0]
		if seen[kind] {
			return Rule{}, fmt.Errorf("invalid rule %q: duplicate %c section", s, kind)
		}
		seen[kind] = true
		var target *[9]bool
		switch kind {
		case 'B':
			target = &r.Birth
		case 'S':
			target = &r.Survive
		default:
			return Rule{}, fmt.Errorf("invalid rule %q: section must start with B or S", s)
		}
		if err := fillDigits(target, p[1:]); err != nil {
			return Rule{}, fmt.Errorf("invalid rule %q: %w", s, err)
		}
	}
	if !seen['B'] || !seen['S'] {
		return Rule{}, fmt.Errorf("invalid rule %q: need both B and S sections", s)
	}
	return r, nil
}

// MustParseRule is ParseRule that panics on error, for package-level rules.
func MustParseRule(s string) Rule {
	r, err := ParseRule(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String renders the rule in B/S notation.
func (r Rule) String() string {
	var b strings.Builder
	b.WriteByte('B')
	for i, on := range r.Birth {
		if on {
			b.WriteByte(byte('0' + i))
		}
	}
	b.WriteString("/S")
	for i, on := range r.Survive {
		if on {
			b.WriteByte(byte('0' + i))
		}
	}
	return b.String()
}

func fillDigits(target *[9]bool, digits string) error {
	for _, c := range digits {
		if c < '0' || c > '8' {
			return fmt.Errorf("neighbor count %q out of range 0-8", c)
		}
		target[c-'0'] = true
	}
	return nil
}
