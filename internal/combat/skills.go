package combat

import (
	"fmt"
	"strings"
)

// AbilityKind is the closed set of special abilities.
type AbilityKind int

const (
	AbilityEvasion AbilityKind = iota
	AbilityCriticalStrike
	AbilityPoison
	AbilityStun
	AbilityHealSelf
	AbilityHealOthers
	AbilityBuff
	abilityKindCount
)

var abilityNames = [abilityKindCount]string{
	"evasion", "critical strike", "poison", "stun", "heal self", "heal others", "buff",
}

var abilityDescriptions = [abilityKindCount]string{
	"Evade attacks to certain extent",
	"Chance to deal certain multiple of damage",
	"Deal damage over time",
	"Stun the enemy for a turn",
	"Heal self",
	"Heal others",
	"Increase armor to certain extent",
}

func (k AbilityKind) String() string {
	if k < 0 || k >= abilityKindCount {
		return fmt.Sprintf("ability(%d)", int(k))
	}
	return abilityNames[k]
}

func (k AbilityKind) Description() string {
	if k < 0 || k >= abilityKindCount {
		return ""
	}
	return abilityDescriptions[k]
}

// NeedsTarget reports whether the ability acts on an enemy.
func (k AbilityKind) NeedsTarget() bool {
	switch k {
	case AbilityCriticalStrike, AbilityPoison, AbilityStun:
		return true
	}
	return false
}

// Duration is the number of turns the status effect created by k lasts, or 0
// when k is instantaneous.
func (k AbilityKind) Duration() int {
	switch k {
	case AbilityEvasion, AbilityStun:
		return 1
	case AbilityPoison:
		return 3
	}
	return 0
}

func ParseAbilityKind(name string) (AbilityKind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range abilityNames {
		if s == n {
			return AbilityKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAbility, name)
}

// SpecialAbility is immutable once attached to a character.
type SpecialAbility struct {
	Kind   AbilityKind
	Label  string
	Value  float64
	MPCost float64
}

func NewSpecialAbility(kind AbilityKind, label string, value, mpCost float64) SpecialAbility {
	if label == "" {
		label = kind.String()
	}
	return SpecialAbility{Kind: kind, Label: label, Value: value, MPCost: mpCost}
}

func (a SpecialAbility) String() string {
	if a.Label != "" && a.Label != a.Kind.String() {
		return fmt.Sprintf("%s (%s)", a.Label, a.Kind)
	}
	return a.Kind.String()
}
