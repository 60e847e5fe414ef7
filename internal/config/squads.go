package config

import (
	"errors"
	"fmt"
)

// ErrTeamCount is returned when a squads file does not hold exactly two teams.
var ErrTeamCount = errors.New("config: a battle needs exactly two teams")

type SquadsConfig struct {
	Teams []TeamDef `yaml:"teams"`
}

type TeamDef struct {
	Name       string         `yaml:"name"`
	Control    string         `yaml:"control"`
	Difficulty string         `yaml:"difficulty"`
	Characters []CharacterDef `yaml:"characters"`
}

// CharacterDef is the nested name/value record a character is built from.
type CharacterDef struct {
	Name       string       `yaml:"name"`
	Class      string       `yaml:"class"`
	Control    string       `yaml:"control"`
	Attributes []ValueDef   `yaml:"attributes"`
	Abilities  []AbilityDef `yaml:"special_abilities"`
}

type ValueDef struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
}

type AbilityDef struct {
	Name      string  `yaml:"name"`
	Value     float64 `yaml:"value"`
	MPCost    float64 `yaml:"mp_cost"`
	JutsuName string  `yaml:"jutsu_name"`
}

func (sc *SquadsConfig) Validate() error {
	if len(sc.Teams) != 2 {
		return fmt.Errorf("%w: got %d", ErrTeamCount, len(sc.Teams))
	}
	for _, t := range sc.Teams {
		if t.Name == "" {
			return errors.New("config: team without a name")
		}
		if len(t.Characters) == 0 {
			return fmt.Errorf("config: team %s has no characters", t.Name)
		}
		seen := map[string]bool{}
		for _, c := range t.Characters {
			for _, a := range c.Attributes {
				if seen[c.Name+"|"+a.Name] {
					return fmt.Errorf("config: %s lists attribute %s twice", c.Name, a.Name)
				}
				seen[c.Name+"|"+a.Name] = true
			}
		}
	}
	return nil
}
