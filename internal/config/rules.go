package config

// RulesConfig carries the tunable battle constants. ArmorReduction and
// StaminaCost are pointers so that an explicit 0 switches them off.
type RulesConfig struct {
	Mode             string     `yaml:"mode"`
	Grid             GridConfig `yaml:"grid"`
	MovesPerTurn     int        `yaml:"moves_per_turn"`
	MaxTurns         int        `yaml:"max_turns"`
	Metric           string     `yaml:"metric"`
	ArmorReduction   *float64   `yaml:"armor_reduction"`
	PoisonDamage     float64    `yaml:"poison_damage"`
	MaxStamina       float64    `yaml:"max_stamina"`
	StaminaCost      *float64   `yaml:"stamina_cost"`
	SpecialEvery     int        `yaml:"special_every"`
	ClampSpeedFactor bool       `yaml:"clamp_speed_factor"`
}

type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func (rc *RulesConfig) ApplyDefaults() {
	if rc.Mode == "" {
		rc.Mode = "grid"
	}
	if rc.Grid.Width == 0 {
		rc.Grid.Width = 20
	}
	if rc.Grid.Height == 0 {
		rc.Grid.Height = 10
	}
	if rc.MovesPerTurn == 0 {
		rc.MovesPerTurn = 3
	}
	if rc.MaxTurns == 0 {
		rc.MaxTurns = 200
	}
	if rc.Metric == "" {
		rc.Metric = "chebyshev"
	}
	if rc.ArmorReduction == nil {
		rc.ArmorReduction = float(0.3)
	}
	if rc.PoisonDamage == 0 {
		rc.PoisonDamage = 10
	}
	if rc.MaxStamina == 0 {
		rc.MaxStamina = 1000
	}
	if rc.StaminaCost == nil {
		rc.StaminaCost = float(4)
	}
	if rc.SpecialEvery == 0 {
		rc.SpecialEvery = 3
	}
}

func float(v float64) *float64 { return &v }
