package ai

import (
	"squadsim/internal/combat"
	"squadsim/internal/grid"
)

// threatLine is the score above which an enemy counts as a threat.
const threatLine = 0.7

// ThreatScore weighs an enemy's hp, damage and speed.
func ThreatScore(c *combat.Character) float64 {
	return 0.3*(c.HP()/1000) + 0.4*(c.Dmg()/300) + 0.3*(c.Speed()/500)
}

type OpportunityKind int

const (
	FinishingBlow OpportunityKind = iota
	WoundedTarget
)

func (k OpportunityKind) String() string {
	if k == FinishingBlow {
		return "finishing_blow"
	}
	return "wounded_target"
}

type Opportunity struct {
	Kind   OpportunityKind
	Target *combat.Character
}

type FormationType string

const (
	Solo      FormationType = "solo"
	Clustered FormationType = "clustered"
	Balanced  FormationType = "balanced"
	Scattered FormationType = "scattered"
)

// Formation summarises where a team stands.
type Formation struct {
	Centroid grid.Pos
	Spread   float64
	Type     FormationType
}

// Analysis is what one character knows about the battlefield before deciding.
type Analysis struct {
	Threats       []*combat.Character
	DangerZone    map[grid.Pos]bool
	Opportunities []Opportunity
	Formation     Formation
}

// Analyze scores the enemies of actor and summarises its team's formation.
// Allies include the actor itself.
func Analyze(actor *combat.Character, allies, enemies []*combat.Character, m grid.Metric, b grid.Bounds) Analysis {
	an := Analysis{DangerZone: map[grid.Pos]bool{}}
	for _, e := range enemies {
		if !e.Alive() {
			continue
		}
		if ThreatScore(e) > threatLine {
			an.Threats = append(an.Threats, e)
			if p, ok := e.Position(); ok {
				for _, cell := range grid.Area(m, p, int(e.Range()), b) {
					an.DangerZone[cell] = true
				}
			}
		}
		switch {
		case e.HP() < 2*actor.Dmg():
			an.Opportunities = append(an.Opportunities, Opportunity{Kind: FinishingBlow, Target: e})
		case e.HP() < criticalRatio*e.Base().HP:
			an.Opportunities = append(an.Opportunities, Opportunity{Kind: WoundedTarget, Target: e})
		}
	}
	an.Formation = formationOf(allies, m)
	return an
}

func formationOf(allies []*combat.Character, m grid.Metric) Formation {
	var ps []grid.Pos
	for _, a := range allies {
		if !a.Alive() {
			continue
		}
		if p, ok := a.Position(); ok {
			ps = append(ps, p)
		}
	}
	f := Formation{Centroid: grid.Centroid(ps), Type: Solo}
	if len(ps) <= 1 {
		return f
	}
	total := 0
	for _, p := range ps {
		total += m.Dist(p, f.Centroid)
	}
	f.Spread = float64(total) / float64(len(ps))
	switch {
	case f.Spread < 2:
		f.Type = Clustered
	case f.Spread < 4:
		f.Type = Balanced
	default:
		f.Type = Scattered
	}
	return f
}
