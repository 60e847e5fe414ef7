package combat

import (
	"fmt"
	"strings"
)

// Team is an ordered roster of live characters sharing a side.
type Team struct {
	Name    string
	Control Control

	members []*Character
	joined  []*Character
}

func NewTeam(name string, control Control, members ...*Character) (*Team, error) {
	t := &Team{Name: name, Control: control}
	for _, c := range members {
		if err := t.Add(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Add appends c to the roster. A character can only be on one team.
func (t *Team) Add(c *Character) error {
	if c.team != nil {
		return fmt.Errorf("%s -> %s: %w (%s)", c.Name, t.Name, ErrAlreadyOnTeam, c.team.Name)
	}
	c.team = t
	t.members = append(t.members, c)
	t.joined = append(t.joined, c)
	return nil
}

// Remove drops c from the roster, keeping the order of everyone else. It
// reports whether c was a member.
func (t *Team) Remove(c *Character) bool {
	for i, m := range t.members {
		if m != c {
			continue
		}
		copy(t.members[i:], t.members[i+1:])
		t.members[len(t.members)-1] = nil
		t.members = t.members[:len(t.members)-1]
		c.team = nil
		return true
	}
	return false
}

func (t *Team) Contains(c *Character) bool {
	for _, m := range t.members {
		if m == c {
			return true
		}
	}
	return false
}

// Members returns a snapshot of the roster.
func (t *Team) Members() []*Character {
	return append([]*Character(nil), t.members...)
}

func (t *Team) Len() int { return len(t.members) }

func (t *Team) Empty() bool { return len(t.members) == 0 }

// Rating is the sum of the current members' ranks.
func (t *Team) Rating() float64 {
	total := 0.0
	for _, m := range t.members {
		total += m.Rank()
	}
	return total
}

// HPRatio compares the roster's current hp with the base hp of everyone who
// ever joined, so fallen members count as zero.
func (t *Team) HPRatio() float64 {
	base := 0.0
	for _, m := range t.joined {
		base += m.Base().HP
	}
	if base <= 0 {
		return 0
	}
	cur := 0.0
	for _, m := range t.members {
		if m.HP() > 0 {
			cur += m.HP()
		}
	}
	return cur / base
}

// Names lists the roster in order, comma separated.
func (t *Team) Names() string {
	names := make([]string, len(t.members))
	for i, m := range t.members {
		names[i] = m.Name
	}
	return strings.Join(names, ", ")
}

func (t *Team) String() string { return t.Name }
