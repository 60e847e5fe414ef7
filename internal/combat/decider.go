package combat

import "squadsim/internal/grid"

// Snapshot is the read-only view a Decider gets of the battlefield for one
// acting character. Allies include the actor.
type Snapshot struct {
	Turn     int
	Actor    *Character
	Allies   []*Character
	Enemies  []*Character
	Bounds   grid.Bounds
	Metric   grid.Metric
	Occupied map[grid.Pos]bool
	Gridded  bool
}

// Plan is a proposed move and target for grid mode. A nil Target means the
// actor has nothing to act on.
type Plan struct {
	Move   grid.Pos
	Target *Character
}

type ActionKind int

const (
	ActionWait ActionKind = iota
	ActionAttack
	ActionHealSelf
	ActionHealAlly
)

func (k ActionKind) String() string {
	switch k {
	case ActionAttack:
		return "attack"
	case ActionHealSelf:
		return "heal self"
	case ActionHealAlly:
		return "heal ally"
	}
	return "wait"
}

// Action is a decision for squad mode.
type Action struct {
	Kind   ActionKind
	Target *Character
}

// Decider chooses what the characters of one side do. Implementations must
// not mutate battle state.
type Decider interface {
	Plan(Snapshot) Plan
	ChooseAction(Snapshot) Action
	UpdateStrategy(teamHPRatio, enemyHPRatio float64)
}

// Side pairs a team with whoever decides for it.
type Side struct {
	Team    *Team
	Decider Decider
}
