package model

import (
	"fmt"
	"strings"
)

// Gender is a flag set; a mask of several flags matches a user holding any
// one of them.
type Gender uint8

const (
	GenderMale Gender = 1 << iota
	GenderFemale

	GenderNone Gender = 0
	GenderAny         = GenderMale | GenderFemale
)

var genderNames = []struct {
	flag Gender
	name string
}{
	{GenderMale, "male"},
	{GenderFemale, "female"},
}

func (g Gender) Has(flag Gender) bool { return g&flag != 0 }

func (g Gender) IsValid() bool { return g&^GenderAny == 0 }

func (g Gender) String() string {
	if g == GenderNone {
		return "none"
	}

	parts := make([]string, 0, len(genderNames))
	for _, n := range genderNames {
		if g.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}

	if rest := g &^ GenderAny; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint8(rest)))
	}

	return strings.Join(parts, "|")
}

// ParseGender accepts flag names joined by "|", e.g. "male|female".
func ParseGender(s string) (Gender, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "none" {
		return GenderNone, nil
	}

	var g Gender

	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)

		found := false
		for _, n := range genderNames {
			if n.name == part {
				g |= n.flag
				found = true

				break
			}
		}

		if !found {
			return GenderNone, fmt.Errorf("%w: %q", ErrInvalidGender, part)
		}
	}

	return g, nil
}
