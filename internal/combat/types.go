package combat

import (
	"errors"
	"fmt"
	"strings"

	"squadsim/internal/grid"
)

var (
	ErrAttributeNotFound = errors.New("attribute not found")
	ErrAbilityNotFound   = errors.New("special ability not found")
	ErrUnknownAbility    = errors.New("unknown special ability")
	ErrAlreadyOnTeam     = errors.New("character already belongs to a team")
)

// Attr names one of the fixed character attributes.
type Attr int

const (
	AttrHP Attr = iota
	AttrMP
	AttrArmor
	AttrRange
	AttrDmg
	AttrSpeed
	AttrStamina
	attrCount
)

var attrNames = [attrCount]string{"hp", "mp", "armor", "range", "dmg", "speed", "stamina"}

func (a Attr) String() string {
	if a < 0 || a >= attrCount {
		return fmt.Sprintf("attr(%d)", int(a))
	}
	return attrNames[a]
}

func ParseAttr(name string) (Attr, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range attrNames {
		if s == n {
			return Attr(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrAttributeNotFound, name)
}

// AllAttrs lists the attribute vocabulary in declaration order.
func AllAttrs() []Attr {
	out := make([]Attr, attrCount)
	for i := range out {
		out[i] = Attr(i)
	}
	return out
}

type Attributes struct {
	HP      float64 `json:"hp"`
	MP      float64 `json:"mp"`
	Armor   float64 `json:"armor"`
	Range   float64 `json:"range"`
	Dmg     float64 `json:"dmg"`
	Speed   float64 `json:"speed"`
	Stamina float64 `json:"stamina"`
}

func (a *Attributes) field(at Attr) *float64 {
	switch at {
	case AttrHP:
		return &a.HP
	case AttrMP:
		return &a.MP
	case AttrArmor:
		return &a.Armor
	case AttrRange:
		return &a.Range
	case AttrDmg:
		return &a.Dmg
	case AttrSpeed:
		return &a.Speed
	case AttrStamina:
		return &a.Stamina
	}
	return nil
}

func (a Attributes) Sum() float64 {
	return a.HP + a.MP + a.Armor + a.Range + a.Dmg + a.Speed + a.Stamina
}

type Control int

const (
	ControlAI Control = iota
	ControlHuman
)

func ParseControl(s string) (Control, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ai":
		return ControlAI, nil
	case "human":
		return ControlHuman, nil
	}
	return ControlAI, fmt.Errorf("unknown control mode %q", s)
}

func (c Control) String() string {
	if c == ControlHuman {
		return "human"
	}
	return "ai"
}

// Character is one combatant. Attribute values are never clamped here; the
// turn engine decides what a non-positive hp means.
type Character struct {
	Name    string
	Class   string
	Control Control
	Pos     *grid.Pos

	attrs     Attributes
	base      Attributes
	abilities []SpecialAbility
	rank      float64
	team      *Team
}

func NewCharacter(name, class string, attrs Attributes, abilities ...SpecialAbility) *Character {
	c := &Character{
		Name:      name,
		Class:     class,
		attrs:     attrs,
		base:      attrs,
		abilities: append([]SpecialAbility(nil), abilities...),
		rank:      attrs.Sum(),
	}
	for _, ab := range abilities {
		c.rank += ab.Value
	}
	return c
}

func (c *Character) Attribute(a Attr) (float64, error) {
	f := c.attrs.field(a)
	if f == nil {
		return 0, fmt.Errorf("%s: %w: %s", c.Name, ErrAttributeNotFound, a)
	}
	return *f, nil
}

func (c *Character) AttributeByName(name string) (float64, error) {
	a, err := ParseAttr(name)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", c.Name, err)
	}
	return c.Attribute(a)
}

func (c *Character) ModifyAttribute(a Attr, delta float64) error {
	f := c.attrs.field(a)
	if f == nil {
		return fmt.Errorf("%s: %w: %s", c.Name, ErrAttributeNotFound, a)
	}
	*f += delta
	return nil
}

func (c *Character) ModifyAttributeByName(name string, delta float64) error {
	a, err := ParseAttr(name)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	return c.ModifyAttribute(a, delta)
}

func (c *Character) HP() float64      { return c.attrs.HP }
func (c *Character) MP() float64      { return c.attrs.MP }
func (c *Character) Armor() float64   { return c.attrs.Armor }
func (c *Character) Range() float64   { return c.attrs.Range }
func (c *Character) Dmg() float64     { return c.attrs.Dmg }
func (c *Character) Speed() float64   { return c.attrs.Speed }
func (c *Character) Stamina() float64 { return c.attrs.Stamina }

// Attributes returns a copy of the current values.
func (c *Character) Attributes() Attributes { return c.attrs }

// Base returns the values the character was built with. Base().HP is the
// reference maximum used for hp ratios.
func (c *Character) Base() Attributes { return c.base }

func (c *Character) Alive() bool { return c.attrs.HP > 0 }

func (c *Character) SpecialAbilities() []SpecialAbility {
	return append([]SpecialAbility(nil), c.abilities...)
}

func (c *Character) SpecialAbility(kind AbilityKind) (SpecialAbility, error) {
	for _, ab := range c.abilities {
		if ab.Kind == kind {
			return ab, nil
		}
	}
	return SpecialAbility{}, fmt.Errorf("%s: %w: %s", c.Name, ErrAbilityNotFound, kind)
}

func (c *Character) HasAbility(kind AbilityKind) bool {
	_, err := c.SpecialAbility(kind)
	return err == nil
}

// Rank is the attribute and ability total fixed at construction.
func (c *Character) Rank() float64 { return c.rank }

// Tier buckets Rank into a letter grade.
func (c *Character) Tier() string {
	switch r := c.rank; {
	case r <= 4000:
		return "E"
	case r <= 6000:
		return "D"
	case r <= 8000:
		return "C"
	case r <= 10000:
		return "B"
	case r <= 14000:
		return "A"
	}
	return "S"
}

// Team returns the team the character is on, or nil.
func (c *Character) Team() *Team { return c.team }

func (c *Character) String() string { return c.Name }

// Position returns the grid cell and whether the character has been placed.
func (c *Character) Position() (grid.Pos, bool) {
	if c.Pos == nil {
		return grid.Pos{}, false
	}
	return *c.Pos, true
}

func (c *Character) placeAt(p grid.Pos) {
	c.Pos = &grid.Pos{X: p.X, Y: p.Y}
}
