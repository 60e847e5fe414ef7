package ai

import (
	"fmt"
	"strings"
)

type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

// ParseDifficulty accepts easy, medium or hard. An empty string means medium.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "", "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return Medium, fmt.Errorf("ai: unknown difficulty %q", s)
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Hard:
		return "hard"
	}
	return "medium"
}

type Strategy int

const (
	Random Strategy = iota
	Defensive
	Aggressive
	Tactical
)

func (s Strategy) String() string {
	switch s {
	case Defensive:
		return "defensive"
	case Aggressive:
		return "aggressive"
	case Tactical:
		return "tactical"
	}
	return "random"
}

// candidates are the strategies a difficulty may start with.
var candidates = map[Difficulty][]Strategy{
	Easy:   {Random, Defensive},
	Medium: {Defensive, Aggressive},
	Hard:   {Aggressive, Tactical},
}

// Hp ratio thresholds for switching strategy mid-battle.
const (
	criticalRatio = 0.3
	healthyRatio  = 0.7
)
