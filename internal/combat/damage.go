package combat

import "math"

// AttackRules are the tunable constants of the basic attack.
type AttackRules struct {
	ArmorReduction   float64
	MaxStamina       float64
	StaminaCost      float64
	ClampSpeedFactor bool
}

func DefaultAttackRules() AttackRules {
	return AttackRules{ArmorReduction: 0.3, MaxStamina: 1000, StaminaCost: 4}
}

// Damage is the result of one basic attack before it is applied.
type Damage struct {
	HP     float64
	Armor  float64
	Factor float64
}

// EffectiveSpeed scales speed by the remaining share of stamina.
func EffectiveSpeed(c *Character, maxStamina float64) float64 {
	if maxStamina <= 0 {
		return math.Max(0, c.Speed())
	}
	return math.Max(0, c.Speed()*c.Stamina()/maxStamina)
}

// ComputeDamage evaluates the basic attack formula for attacker hitting
// target with the current attribute values.
func ComputeDamage(attacker, target *Character, r AttackRules) Damage {
	d := attacker.Dmg()
	if d <= 0 {
		return Damage{Factor: 1}
	}
	a := math.Max(0, target.Armor())

	hp := d * 100 / (100 + a)
	armor := (1 - hp/d) * a * r.ArmorReduction

	factor := 1.0
	if tgt := EffectiveSpeed(target, r.MaxStamina); tgt > 0 {
		factor = EffectiveSpeed(attacker, r.MaxStamina) / tgt
	}
	if r.ClampSpeedFactor && factor > 1 {
		factor = 1
	}
	hp *= factor

	return Damage{HP: math.Max(1, hp), Armor: math.Max(0, armor), Factor: factor}
}
