package combat

import "fmt"

const reasonNoMana = "insufficient mana"

// Outcome describes what one ability execution did.
type Outcome struct {
	Applied  bool
	Reason   string
	Kind     AbilityKind
	Amount   float64
	Receiver *Character
	Effect   *StatusEffect
}

// Resolver applies special abilities. Turn is stamped onto the status effects
// it creates.
type Resolver struct {
	Sink         Sink
	Effects      *Effects
	PoisonDamage float64
	Turn         int
}

func NewResolver(sink Sink, effects *Effects, poisonDamage float64) *Resolver {
	if sink == nil {
		sink = discard{}
	}
	if effects == nil {
		effects = &Effects{}
	}
	return &Resolver{Sink: sink, Effects: effects, PoisonDamage: poisonDamage, Turn: 1}
}

// Execute casts ability from caster at target. Running out of mana or lacking
// a target is reported through the Outcome; only an ability kind outside the
// vocabulary is an error.
func (r *Resolver) Execute(ability SpecialAbility, caster, target *Character) (Outcome, error) {
	kind := ability.Kind
	out := Outcome{Kind: kind}
	if kind < 0 || kind >= abilityKindCount {
		return out, fmt.Errorf("%s: %w: %s", caster.Name, ErrUnknownAbility, kind)
	}
	payload := map[string]any{"caster": caster.Name, "ability": kind.String(), "label": ability.Label}

	if kind.NeedsTarget() && target == nil {
		out.Reason = "no target"
		logLine(r.Sink, r.Turn, EventNoAction, payload, "%s has no target for %s", caster.Name, ability)
		return out, nil
	}
	if caster.MP() < ability.MPCost {
		out.Reason = reasonNoMana
		logLine(r.Sink, r.Turn, EventNoAction, payload, "%s lacks MP to activate %s", caster.Name, ability)
		return out, nil
	}
	_ = caster.ModifyAttribute(AttrMP, -ability.MPCost)
	out.Applied = true

	switch kind {
	case AbilityEvasion:
		out.Receiver = caster
		out.Effect = r.Effects.Apply(kind, ability.Value, caster, caster, r.Turn)
		logLine(r.Sink, r.Turn, EventAbility, payload, "%s activates %s for %d turns", caster.Name, ability, kind.Duration())

	case AbilityCriticalStrike:
		extra := caster.Dmg() * ability.Value
		_ = target.ModifyAttribute(AttrHP, -extra)
		out.Receiver, out.Amount = target, extra
		payload["target"] = target.Name
		logLine(r.Sink, r.Turn, EventAbility, payload, "%s uses %s on %s dealing an extra %.0f damage. %s has %.0f HP left",
			caster.Name, ability, target.Name, extra, target.Name, target.HP())

	case AbilityPoison:
		per := ability.Value
		if per <= 0 {
			per = r.PoisonDamage
		}
		out.Receiver, out.Amount = target, per
		out.Effect = r.Effects.Apply(kind, per, target, caster, r.Turn)
		payload["target"] = target.Name
		logLine(r.Sink, r.Turn, EventAbility, payload, "%s uses %s on %s for %d turns (damage: %.0f/turn)",
			caster.Name, ability, target.Name, kind.Duration(), per)

	case AbilityStun:
		out.Receiver = target
		out.Effect = r.Effects.Apply(kind, ability.Value, target, caster, r.Turn)
		payload["target"] = target.Name
		logLine(r.Sink, r.Turn, EventAbility, payload, "%s uses %s on %s causing them to miss their next attack",
			caster.Name, ability, target.Name)

	case AbilityHealSelf:
		_ = caster.ModifyAttribute(AttrHP, ability.Value)
		out.Receiver, out.Amount = caster, ability.Value
		logLine(r.Sink, r.Turn, EventAbility, payload, "%s uses %s on self for %.0f HP", caster.Name, ability, ability.Value)

	case AbilityHealOthers:
		mate := weakestTeammate(caster)
		_ = mate.ModifyAttribute(AttrHP, ability.Value)
		out.Receiver, out.Amount = mate, ability.Value
		payload["target"] = mate.Name
		logLine(r.Sink, r.Turn, EventAbility, payload, "%s uses %s on %s for %.0f HP", caster.Name, ability, mate.Name, ability.Value)

	case AbilityBuff:
		_ = caster.ModifyAttribute(AttrArmor, ability.Value)
		out.Receiver, out.Amount = caster, ability.Value
		logLine(r.Sink, r.Turn, EventAbility, payload, "%s uses %s to buff their armor by %.0f", caster.Name, ability, ability.Value)

	default:
		return out, fmt.Errorf("%s: %w: %s", caster.Name, ErrUnknownAbility, kind)
	}
	return out, nil
}

// weakestTeammate is the lowest-hp living member of caster's team other than
// caster, or caster when it fights alone.
func weakestTeammate(caster *Character) *Character {
	t := caster.Team()
	if t == nil {
		return caster
	}
	var best *Character
	for _, m := range t.Members() {
		if m == caster || !m.Alive() {
			continue
		}
		if best == nil || m.HP() < best.HP() {
			best = m
		}
	}
	if best == nil {
		return caster
	}
	return best
}
