package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squadsim/internal/combat"
	"squadsim/internal/grid"
	"squadsim/internal/util"
)

func unit(name string, hp, dmg, speed, rng float64, at *grid.Pos, abilities ...combat.SpecialAbility) *combat.Character {
	c := combat.NewCharacter(name, "", combat.Attributes{
		HP: hp, MP: 100, Armor: 10, Range: rng, Dmg: dmg, Speed: speed, Stamina: 1000,
	}, abilities...)
	if at != nil {
		c.Pos = &grid.Pos{X: at.X, Y: at.Y}
	}
	return c
}

func at(x, y int) *grid.Pos { return &grid.Pos{X: x, Y: y} }

func snap(actor *combat.Character, allies, enemies []*combat.Character) combat.Snapshot {
	s := combat.Snapshot{
		Actor:    actor,
		Allies:   allies,
		Enemies:  enemies,
		Bounds:   grid.Bounds{Width: 10, Height: 10},
		Metric:   grid.Chebyshev,
		Occupied: map[grid.Pos]bool{},
		Gridded:  actor.Pos != nil,
	}
	for _, c := range append(append([]*combat.Character{}, allies...), enemies...) {
		if p, ok := c.Position(); ok && c != actor {
			s.Occupied[p] = true
		}
	}
	return s
}

func TestParseDifficulty(t *testing.T) {
	tests := map[string]Difficulty{"easy": Easy, "": Medium, "Medium": Medium, " hard ": Hard}
	for in, want := range tests {
		got, err := ParseDifficulty(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseDifficulty("nightmare")
	assert.Error(t, err)
}

func TestNewDrawsFromCandidates(t *testing.T) {
	for _, d := range []Difficulty{Easy, Medium, Hard} {
		for seed := int64(1); seed <= 20; seed++ {
			ai := New(d, util.New(seed))
			assert.Contains(t, candidates[d], ai.Strategy(), "%s seed %d", d, seed)
		}
	}
}

func TestUpdateStrategy(t *testing.T) {
	hard := &BattleAI{difficulty: Hard, strategy: Aggressive}
	hard.UpdateStrategy(0.2, 0.1)
	assert.Equal(t, Defensive, hard.Strategy())
	hard.UpdateStrategy(0.5, 0.2)
	assert.Equal(t, Aggressive, hard.Strategy())
	hard.UpdateStrategy(0.8, 0.5)
	assert.Equal(t, Tactical, hard.Strategy())
	hard.UpdateStrategy(0.5, 0.5)
	assert.Equal(t, Tactical, hard.Strategy())

	medium := &BattleAI{difficulty: Medium, strategy: Aggressive}
	medium.UpdateStrategy(0.1, 0.1)
	assert.Equal(t, Aggressive, medium.Strategy())
}

func TestThreatScore(t *testing.T) {
	assert.InDelta(t, 1.0, ThreatScore(unit("x", 1000, 300, 500, 1, nil)), 1e-9)
	assert.InDelta(t, 0.0, ThreatScore(unit("x", 0, 0, 0, 1, nil)), 1e-9)
}

func TestAnalyze(t *testing.T) {
	actor := unit("Actor", 500, 100, 300, 1, at(0, 0))
	ally := unit("Ally", 500, 100, 300, 1, at(4, 0))
	brute := unit("Brute", 1500, 400, 500, 1, at(8, 8))
	weak := unit("Weak", 150, 50, 100, 1, at(5, 5))
	wounded := unit("Wounded", 1000, 50, 100, 1, at(6, 6))
	require.NoError(t, wounded.ModifyAttribute(combat.AttrHP, -750))

	an := Analyze(actor, []*combat.Character{actor, ally}, []*combat.Character{brute, weak, wounded}, grid.Chebyshev, grid.Bounds{Width: 10, Height: 10})

	assert.Equal(t, []*combat.Character{brute}, an.Threats)
	assert.Len(t, an.DangerZone, 9)
	assert.True(t, an.DangerZone[grid.Pos{X: 7, Y: 7}])
	require.Len(t, an.Opportunities, 2)
	assert.Equal(t, FinishingBlow, an.Opportunities[0].Kind)
	assert.Equal(t, weak, an.Opportunities[0].Target)
	assert.Equal(t, WoundedTarget, an.Opportunities[1].Kind)
	assert.Equal(t, wounded, an.Opportunities[1].Target)

	assert.Equal(t, grid.Pos{X: 2, Y: 0}, an.Formation.Centroid)
	assert.Equal(t, 2.0, an.Formation.Spread)
	assert.Equal(t, Balanced, an.Formation.Type)
}

func TestFormationTypes(t *testing.T) {
	solo := formationOf([]*combat.Character{unit("a", 1, 1, 1, 1, at(3, 3))}, grid.Chebyshev)
	assert.Equal(t, Solo, solo.Type)

	tight := formationOf([]*combat.Character{unit("a", 1, 1, 1, 1, at(3, 3)), unit("b", 1, 1, 1, 1, at(4, 3))}, grid.Chebyshev)
	assert.Equal(t, Clustered, tight.Type)

	wide := formationOf([]*combat.Character{unit("a", 1, 1, 1, 1, at(0, 0)), unit("b", 1, 1, 1, 1, at(9, 9))}, grid.Chebyshev)
	assert.Equal(t, Scattered, wide.Type)
}

func TestChooseAttackTargetByDifficulty(t *testing.T) {
	actor := unit("Actor", 500, 100, 300, 1, at(0, 0))
	near := unit("Near", 400, 100, 300, 1, at(1, 0))
	far := unit("Far", 300, 100, 300, 1, at(9, 0))
	brute := unit("Brute", 1000, 300, 500, 1, at(3, 0))
	dead := unit("Dead", 0, 900, 900, 1, at(0, 1))
	enemies := []*combat.Character{dead, near, far, brute}

	medium := &BattleAI{difficulty: Medium}
	// near: 400+5, far: 300+45, brute: 1000+15
	assert.Equal(t, far, medium.ChooseAttackTarget(actor, enemies, grid.Chebyshev))

	hard := &BattleAI{difficulty: Hard}
	// brute: 1.0/4 beats near: 0.43/2
	assert.Equal(t, brute, hard.ChooseAttackTarget(actor, enemies, grid.Chebyshev))

	assert.Nil(t, medium.ChooseAttackTarget(actor, []*combat.Character{dead}, grid.Chebyshev))
}

func TestChooseAttackTargetTiesKeepRosterOrder(t *testing.T) {
	actor := unit("Actor", 500, 100, 300, 1, nil)
	first := unit("First", 300, 100, 300, 1, nil)
	second := unit("Second", 300, 100, 300, 1, nil)
	ai := &BattleAI{difficulty: Medium}
	assert.Equal(t, first, ai.ChooseAttackTarget(actor, []*combat.Character{first, second}, grid.Chebyshev))
	ai.difficulty = Hard
	assert.Equal(t, first, ai.ChooseAttackTarget(actor, []*combat.Character{first, second}, grid.Chebyshev))
}

func TestEasyTargetFavoursCloseEnemies(t *testing.T) {
	actor := unit("Actor", 500, 100, 300, 1, at(0, 0))
	near := unit("Near", 400, 100, 300, 1, at(0, 0))
	far := unit("Far", 400, 100, 300, 1, at(9, 9))
	ai := &BattleAI{difficulty: Easy, rng: util.New(11)}

	hits := 0
	for i := 0; i < 1000; i++ {
		if ai.ChooseAttackTarget(actor, []*combat.Character{far, near}, grid.Chebyshev) == near {
			hits++
		}
	}
	// near weighs 1, far 0.1
	assert.Greater(t, hits, 800)
	assert.Less(t, hits, 1000)
}

func TestChooseMoveApproachesFarTarget(t *testing.T) {
	actor := unit("Actor", 500, 100, 300, 1, at(0, 0))
	target := unit("Target", 500, 100, 300, 1, at(9, 5))
	ai := &BattleAI{difficulty: Medium, strategy: Defensive}
	s := snap(actor, []*combat.Character{actor}, []*combat.Character{target})

	assert.Equal(t, grid.Pos{X: 3, Y: 3}, ai.ChooseMove(s, target, Analysis{}))

	s.Occupied[grid.Pos{X: 2, Y: 2}] = true
	assert.Equal(t, grid.Pos{X: 1, Y: 1}, ai.ChooseMove(s, target, Analysis{}))
}

func TestChooseMoveStaysNearTarget(t *testing.T) {
	actor := unit("Actor", 500, 100, 100, 1, at(5, 5))
	target := unit("Target", 500, 100, 300, 1, at(7, 5))
	ai := &BattleAI{difficulty: Medium, strategy: Defensive}
	s := snap(actor, []*combat.Character{actor}, []*combat.Character{target})

	assert.Equal(t, grid.Pos{X: 6, Y: 5}, ai.ChooseMove(s, target, Analysis{}))
}

func TestChooseMoveTieBreaks(t *testing.T) {
	actor := unit("Actor", 500, 100, 200, 2, at(5, 5))
	target := unit("Target", 500, 100, 300, 1, at(7, 5))
	s := snap(actor, []*combat.Character{actor}, []*combat.Character{target})
	// (6,4), (6,5) and (6,6) are all one cell from the target
	defensive := &BattleAI{difficulty: Medium, strategy: Defensive}
	an := Analysis{Formation: Formation{Centroid: grid.Pos{X: 5, Y: 0}}, DangerZone: map[grid.Pos]bool{}}
	assert.Equal(t, grid.Pos{X: 6, Y: 4}, defensive.ChooseMove(s, target, an))

	an.DangerZone[grid.Pos{X: 6, Y: 4}] = true
	assert.Equal(t, grid.Pos{X: 6, Y: 5}, defensive.ChooseMove(s, target, an))
}

func TestChooseMoveWithoutCandidatesStays(t *testing.T) {
	actor := unit("Actor", 500, 100, 100, 1, at(0, 0))
	target := unit("Target", 500, 100, 300, 1, at(1, 1))
	s := snap(actor, []*combat.Character{actor}, []*combat.Character{target})
	s.Occupied[grid.Pos{X: 1, Y: 0}] = true
	s.Occupied[grid.Pos{X: 0, Y: 1}] = true
	ai := &BattleAI{difficulty: Medium, strategy: Aggressive}
	assert.Equal(t, grid.Pos{X: 0, Y: 0}, ai.ChooseMove(s, target, Analysis{}))
}

func TestPlanWithoutEnemies(t *testing.T) {
	actor := unit("Actor", 500, 100, 100, 1, at(2, 2))
	ai := &BattleAI{difficulty: Medium, strategy: Defensive}
	plan := ai.Plan(snap(actor, []*combat.Character{actor}, nil))
	assert.Nil(t, plan.Target)
	assert.Equal(t, grid.Pos{X: 2, Y: 2}, plan.Move)
}

func TestChooseActionHard(t *testing.T) {
	heal := combat.NewSpecialAbility(combat.AbilityHealSelf, "", 100, 10)
	mend := combat.NewSpecialAbility(combat.AbilityHealOthers, "", 100, 10)
	hard := &BattleAI{difficulty: Hard, strategy: Tactical}
	enemy := unit("Enemy", 800, 100, 300, 1, nil)

	t.Run("heal self when critical", func(t *testing.T) {
		actor := unit("Actor", 1000, 100, 300, 1, nil, heal)
		require.NoError(t, actor.ModifyAttribute(combat.AttrHP, -800))
		act := hard.ChooseAction(snap(actor, []*combat.Character{actor}, []*combat.Character{enemy}))
		assert.Equal(t, combat.ActionHealSelf, act.Kind)
	})
	t.Run("heal ally when critical", func(t *testing.T) {
		actor := unit("Actor", 1000, 100, 300, 1, nil, mend)
		ally := unit("Ally", 1000, 100, 300, 1, nil)
		require.NoError(t, ally.ModifyAttribute(combat.AttrHP, -900))
		act := hard.ChooseAction(snap(actor, []*combat.Character{actor, ally}, []*combat.Character{enemy}))
		assert.Equal(t, combat.ActionHealAlly, act.Kind)
		assert.Equal(t, ally, act.Target)
	})
	t.Run("attack when heals cannot be paid for", func(t *testing.T) {
		actor := unit("Actor", 1000, 100, 300, 1, nil, heal, mend)
		ally := unit("Ally", 1000, 100, 300, 1, nil)
		require.NoError(t, actor.ModifyAttribute(combat.AttrHP, -800))
		require.NoError(t, actor.ModifyAttribute(combat.AttrMP, -95))
		require.NoError(t, ally.ModifyAttribute(combat.AttrHP, -900))
		act := hard.ChooseAction(snap(actor, []*combat.Character{actor, ally}, []*combat.Character{enemy}))
		assert.Equal(t, combat.ActionAttack, act.Kind)
		assert.Equal(t, enemy, act.Target)
	})
	t.Run("finish a weak enemy", func(t *testing.T) {
		actor := unit("Actor", 1000, 100, 300, 1, nil)
		weak := unit("Weak", 150, 10, 100, 1, nil)
		act := hard.ChooseAction(snap(actor, []*combat.Character{actor}, []*combat.Character{enemy, weak}))
		assert.Equal(t, combat.ActionAttack, act.Kind)
		assert.Equal(t, weak, act.Target)
	})
}

func TestChooseActionPriorityTarget(t *testing.T) {
	actor := unit("Actor", 1000, 100, 300, 1, nil)
	brawler := unit("Brawler", 800, 120, 300, 1, nil)
	medic := unit("Medic", 800, 40, 300, 1, nil, combat.NewSpecialAbility(combat.AbilityHealOthers, "", 50, 10))
	ai := &BattleAI{difficulty: Medium, strategy: Defensive}

	// brawler: 30, medic: 10 + 30
	act := ai.ChooseAction(snap(actor, []*combat.Character{actor}, []*combat.Character{brawler, medic}))
	assert.Equal(t, combat.ActionAttack, act.Kind)
	assert.Equal(t, medic, act.Target)
	assert.InDelta(t, 40.0, PriorityScore(medic), 1e-9)
}

func TestChooseActionOnGridNeedsRange(t *testing.T) {
	actor := unit("Actor", 1000, 100, 300, 1, at(0, 0))
	far := unit("Far", 800, 100, 300, 1, at(5, 5))
	ai := &BattleAI{difficulty: Easy, strategy: Random, rng: util.New(1)}
	act := ai.ChooseAction(snap(actor, []*combat.Character{actor}, []*combat.Character{far}))
	assert.Equal(t, combat.ActionWait, act.Kind)

	near := unit("Near", 800, 100, 300, 1, at(1, 1))
	act = ai.ChooseAction(snap(actor, []*combat.Character{actor}, []*combat.Character{far, near}))
	assert.Equal(t, combat.ActionAttack, act.Kind)
	assert.Equal(t, near, act.Target)
}
