package combat

import (
	"errors"
	"fmt"

	"squadsim/internal/config"
)

// ErrMissingAttribute is returned when a record omits one of the fixed attributes.
var ErrMissingAttribute = errors.New("config: missing attribute")

// CharacterFromRecord builds a character from its name/value record. Every
// attribute in the vocabulary must be present.
func CharacterFromRecord(def config.CharacterDef) (*Character, error) {
	var attrs Attributes
	seen := make(map[Attr]bool, attrCount)
	for _, v := range def.Attributes {
		a, err := ParseAttr(v.Name)
		if err != nil {
			return nil, fmt.Errorf("character %s: %w", def.Name, err)
		}
		*attrs.field(a) = v.Value
		seen[a] = true
	}
	for _, a := range AllAttrs() {
		if !seen[a] {
			return nil, fmt.Errorf("character %s: %w: %s", def.Name, ErrMissingAttribute, a)
		}
	}

	abilities := make([]SpecialAbility, 0, len(def.Abilities))
	for _, ad := range def.Abilities {
		kind, err := ParseAbilityKind(ad.Name)
		if err != nil {
			return nil, fmt.Errorf("character %s: %w", def.Name, err)
		}
		abilities = append(abilities, NewSpecialAbility(kind, ad.JutsuName, ad.Value, ad.MPCost))
	}

	ctl, err := ParseControl(def.Control)
	if err != nil {
		return nil, fmt.Errorf("character %s: %w", def.Name, err)
	}
	c := NewCharacter(def.Name, def.Class, attrs, abilities...)
	c.Control = ctl
	return c, nil
}

// TeamFromRecord builds a team and all of its members. Members inherit the
// team's control mode unless their own record sets one.
func TeamFromRecord(def config.TeamDef) (*Team, error) {
	ctl, err := ParseControl(def.Control)
	if err != nil {
		return nil, fmt.Errorf("team %s: %w", def.Name, err)
	}
	t, _ := NewTeam(def.Name, ctl)
	for _, cd := range def.Characters {
		c, err := CharacterFromRecord(cd)
		if err != nil {
			return nil, fmt.Errorf("team %s: %w", def.Name, err)
		}
		if cd.Control == "" {
			c.Control = ctl
		}
		if err := t.Add(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}
