// Package ai decides moves, targets and actions for computer-controlled
// characters. It reads battle state and never changes it.
package ai

import (
	"math"
	"math/rand"

	"squadsim/internal/combat"
	"squadsim/internal/grid"
)

// BattleAI decides for every character of one side.
type BattleAI struct {
	difficulty Difficulty
	strategy   Strategy
	rng        *rand.Rand
}

var _ combat.Decider = (*BattleAI)(nil)

// New picks the starting strategy from the difficulty's candidates using rng.
func New(d Difficulty, rng *rand.Rand) *BattleAI {
	cs := candidates[d]
	return &BattleAI{difficulty: d, strategy: cs[rng.Intn(len(cs))], rng: rng}
}

func (ai *BattleAI) Difficulty() Difficulty { return ai.difficulty }

func (ai *BattleAI) Strategy() Strategy { return ai.strategy }

// UpdateStrategy reacts to the state of the battle. Only hard opponents adapt.
func (ai *BattleAI) UpdateStrategy(teamHPRatio, enemyHPRatio float64) {
	if ai.difficulty != Hard {
		return
	}
	switch {
	case teamHPRatio < criticalRatio:
		ai.strategy = Defensive
	case enemyHPRatio < criticalRatio:
		ai.strategy = Aggressive
	case teamHPRatio > healthyRatio:
		ai.strategy = Tactical
	}
}

// Plan chooses a target for the actor and the cell to move to before acting.
func (ai *BattleAI) Plan(s combat.Snapshot) combat.Plan {
	an := Analyze(s.Actor, s.Allies, s.Enemies, s.Metric, s.Bounds)
	target := ai.ChooseAttackTarget(s.Actor, s.Enemies, s.Metric)
	cur, _ := s.Actor.Position()
	plan := combat.Plan{Move: cur, Target: target}
	if target != nil {
		plan.Move = ai.ChooseMove(s, target, an)
	}
	return plan
}

// distance is the metric distance between two characters, or zero when either
// is off the grid.
func distance(m grid.Metric, a, b *combat.Character) int {
	ap, ok1 := a.Position()
	bp, ok2 := b.Position()
	if !ok1 || !ok2 {
		return 0
	}
	return m.Dist(ap, bp)
}

// ChooseAttackTarget picks which living enemy to go after. Ties keep roster
// order.
func (ai *BattleAI) ChooseAttackTarget(actor *combat.Character, enemies []*combat.Character, m grid.Metric) *combat.Character {
	var live []*combat.Character
	for _, e := range enemies {
		if e.HP() > 0 {
			live = append(live, e)
		}
	}
	if len(live) == 0 {
		return nil
	}

	switch ai.difficulty {
	case Easy:
		weights := make([]float64, len(live))
		total := 0.0
		for i, e := range live {
			weights[i] = 1 / float64(distance(m, actor, e)+1)
			total += weights[i]
		}
		r := ai.rng.Float64() * total
		acc := 0.0
		for i, w := range weights {
			acc += w
			if r < acc {
				return live[i]
			}
		}
		return live[len(live)-1]

	case Hard:
		var best *combat.Character
		bestScore := math.Inf(-1)
		for _, e := range live {
			score := ThreatScore(e) / float64(distance(m, actor, e)+1)
			if score > bestScore {
				best, bestScore = e, score
			}
		}
		return best

	default:
		var best *combat.Character
		bestScore := math.Inf(1)
		for _, e := range live {
			score := e.HP() + 5*float64(distance(m, actor, e))
			if score < bestScore {
				best, bestScore = e, score
			}
		}
		return best
	}
}

// ChooseMove returns the cell the actor should end its move on. Far targets
// are approached directly; near ones are kept at the edge of attack range.
func (ai *BattleAI) ChooseMove(s combat.Snapshot, target *combat.Character, an Analysis) grid.Pos {
	actor := s.Actor
	cur, ok := actor.Position()
	tp, ok2 := target.Position()
	if !ok || !ok2 {
		return cur
	}
	steps := grid.MoveRange(actor.Speed())
	reach := actor.Range() + 1

	if float64(s.Metric.Dist(cur, tp)) > reach {
		p := cur
		for i := 0; i < steps; i++ {
			next := grid.StepToward(p, tp)
			if next == p || !s.Bounds.Contains(next) || s.Occupied[next] {
				break
			}
			p = next
		}
		return p
	}

	moves := grid.CandidateMoves(cur, steps, s.Bounds, s.Occupied)
	if len(moves) == 0 {
		return cur
	}
	var within []grid.Pos
	for _, p := range moves {
		if float64(s.Metric.Dist(p, tp)) <= reach {
			within = append(within, p)
		}
	}
	pool := moves
	if len(within) > 0 {
		pool = within
	}

	best := math.MaxInt
	var ties []grid.Pos
	for _, p := range pool {
		d := s.Metric.Dist(p, tp)
		switch {
		case d < best:
			best, ties = d, []grid.Pos{p}
		case d == best:
			ties = append(ties, p)
		}
	}
	return ai.breakTie(ties, s, an)
}

// breakTie chooses among equally close cells according to the current
// strategy. The first cell wins when scores are equal.
func (ai *BattleAI) breakTie(ties []grid.Pos, s combat.Snapshot, an Analysis) grid.Pos {
	if len(ties) == 1 {
		return ties[0]
	}
	var score func(grid.Pos) float64
	switch ai.strategy {
	case Random:
		return ties[ai.rng.Intn(len(ties))]
	case Defensive:
		score = func(p grid.Pos) float64 {
			v := float64(s.Metric.Dist(p, an.Formation.Centroid))
			if an.DangerZone[p] {
				v += 100
			}
			return v
		}
	case Aggressive:
		score = func(p grid.Pos) float64 {
			v := 0.0
			for _, o := range an.Opportunities {
				if op, ok := o.Target.Position(); ok {
					v += float64(s.Metric.Dist(p, op))
				}
			}
			return v
		}
	case Tactical:
		score = func(p grid.Pos) float64 {
			v := 0.0
			if an.DangerZone[p] {
				v += 100
			}
			for _, a := range s.Allies {
				ap, ok := a.Position()
				if a == s.Actor || !ok {
					continue
				}
				if d := s.Metric.Dist(p, ap); d < 2 || d > 4 {
					v++
				}
			}
			return v
		}
	}
	best, bestScore := ties[0], score(ties[0])
	for _, p := range ties[1:] {
		if v := score(p); v < bestScore {
			best, bestScore = p, v
		}
	}
	return best
}

// ChooseAction decides between healing and attacking for squad battles. When
// the actor stands on the grid only enemies in range are considered.
func (ai *BattleAI) ChooseAction(s combat.Snapshot) combat.Action {
	actor := s.Actor
	enemies := ai.attackable(s)

	if ai.difficulty == Hard {
		if actor.HP() < criticalRatio*actor.Base().HP && canCast(actor, combat.AbilityHealSelf) {
			return combat.Action{Kind: combat.ActionHealSelf, Target: actor}
		}
		if canCast(actor, combat.AbilityHealOthers) {
			if ally := criticalAlly(actor, s.Allies); ally != nil {
				return combat.Action{Kind: combat.ActionHealAlly, Target: ally}
			}
		}
		an := Analyze(actor, s.Allies, enemies, s.Metric, s.Bounds)
		if len(an.Opportunities) > 0 {
			return combat.Action{Kind: combat.ActionAttack, Target: an.Opportunities[0].Target}
		}
	}

	if len(enemies) == 0 {
		return combat.Action{Kind: combat.ActionWait}
	}
	if ai.difficulty == Easy {
		return combat.Action{Kind: combat.ActionAttack, Target: enemies[ai.rng.Intn(len(enemies))]}
	}
	return combat.Action{Kind: combat.ActionAttack, Target: priorityTarget(enemies)}
}

// canCast reports whether actor knows kind and has the mana to pay for it.
func canCast(actor *combat.Character, kind combat.AbilityKind) bool {
	ab, err := actor.SpecialAbility(kind)
	return err == nil && actor.MP() >= ab.MPCost
}

// attackable lists the living enemies the actor could hit right now.
func (ai *BattleAI) attackable(s combat.Snapshot) []*combat.Character {
	ap, placed := s.Actor.Position()
	var out []*combat.Character
	for _, e := range s.Enemies {
		if !e.Alive() {
			continue
		}
		if s.Gridded && placed {
			ep, ok := e.Position()
			if !ok || !grid.InRange(s.Metric, ap, ep, s.Actor.Range()) {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

func criticalAlly(actor *combat.Character, allies []*combat.Character) *combat.Character {
	var best *combat.Character
	for _, a := range allies {
		if a == actor || !a.Alive() || a.HP() >= criticalRatio*a.Base().HP {
			continue
		}
		if best == nil || a.HP() < best.HP() {
			best = a
		}
	}
	return best
}

// PriorityScore favours wounded, hard-hitting and healing enemies.
func PriorityScore(e *combat.Character) float64 {
	score := 0.0
	if base := e.Base().HP; base > 0 {
		score += (1 - e.HP()/base) * 50
	}
	score += math.Min(50, e.Dmg()/4)
	if e.HasAbility(combat.AbilityHealSelf) || e.HasAbility(combat.AbilityHealOthers) {
		score += 30
	}
	return score
}

func priorityTarget(enemies []*combat.Character) *combat.Character {
	var best *combat.Character
	bestScore := math.Inf(-1)
	for _, e := range enemies {
		if v := PriorityScore(e); v > bestScore {
			best, bestScore = e, v
		}
	}
	return best
}
