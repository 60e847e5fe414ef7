package combat

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"squadsim/internal/config"
	"squadsim/internal/grid"
	"squadsim/internal/logging"
	"squadsim/internal/util"
)

var (
	ErrNoDecider   = errors.New("side has no decider")
	ErrNoTeam      = errors.New("side has no team")
	ErrGridFull    = errors.New("no free cell to place character")
	ErrSameTeam    = errors.New("both sides field the same team")
	ErrUnknownMode = errors.New("unknown battle mode")
)

type Mode int

const (
	ModeGrid Mode = iota
	ModeSquad
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "grid":
		return ModeGrid, nil
	case "squad":
		return ModeSquad, nil
	}
	return ModeGrid, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) String() string {
	if m == ModeSquad {
		return "squad"
	}
	return "grid"
}

// Config holds everything a battle needs besides the two sides. A zero
// Attack means DefaultAttackRules; otherwise its values are taken as given,
// zero armor reduction and stamina cost included.
type Config struct {
	Mode         Mode
	Bounds       grid.Bounds
	Metric       grid.Metric
	MovesPerTurn int
	MaxTurns     int
	SpecialEvery int
	PoisonDamage float64
	Attack       AttackRules

	Rng    *rand.Rand
	Sink   Sink
	Logger *zap.Logger
}

// ConfigFromRules converts loaded rules into a battle Config. Rng, Sink and
// Logger are left for the caller.
func ConfigFromRules(rc *config.RulesConfig) (Config, error) {
	mode, err := ParseMode(rc.Mode)
	if err != nil {
		return Config{}, err
	}
	metric, err := grid.ParseMetric(rc.Metric)
	if err != nil {
		return Config{}, err
	}
	attack := DefaultAttackRules()
	if rc.ArmorReduction != nil {
		attack.ArmorReduction = *rc.ArmorReduction
	}
	if rc.StaminaCost != nil {
		attack.StaminaCost = *rc.StaminaCost
	}
	if rc.MaxStamina > 0 {
		attack.MaxStamina = rc.MaxStamina
	}
	attack.ClampSpeedFactor = rc.ClampSpeedFactor
	return Config{
		Mode:         mode,
		Bounds:       grid.Bounds{Width: rc.Grid.Width, Height: rc.Grid.Height},
		Metric:       metric,
		MovesPerTurn: rc.MovesPerTurn,
		MaxTurns:     rc.MaxTurns,
		SpecialEvery: rc.SpecialEvery,
		PoisonDamage: rc.PoisonDamage,
		Attack:       attack,
	}, nil
}

func (c *Config) fill() {
	def := DefaultAttackRules()
	if c.Bounds.Width <= 0 || c.Bounds.Height <= 0 {
		c.Bounds = grid.Bounds{Width: 20, Height: 10}
	}
	if c.MovesPerTurn <= 0 {
		c.MovesPerTurn = 1
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = 200
	}
	if c.SpecialEvery <= 0 {
		c.SpecialEvery = 3
	}
	if c.PoisonDamage <= 0 {
		c.PoisonDamage = 10
	}
	if c.Attack == (AttackRules{}) {
		c.Attack = def
	}
	if c.Attack.MaxStamina <= 0 {
		c.Attack.MaxStamina = def.MaxStamina
	}
	if c.Rng == nil {
		c.Rng = util.New(1)
	}
	c.Logger = logging.OrNop(c.Logger)
}

type Stage int

const (
	StageAwaitingTurn Stage = iota
	StageResolvingAction
	StageCheckingDeaths
	StageAdvancingTurn
	StageConcluded
)

func (s Stage) String() string {
	switch s {
	case StageResolvingAction:
		return "resolving_action"
	case StageCheckingDeaths:
		return "checking_deaths"
	case StageAdvancingTurn:
		return "advancing_turn"
	case StageConcluded:
		return "concluded"
	}
	return "awaiting_turn"
}

// Result is the outcome of a concluded battle. Winner is empty on a draw or
// when the turn cap ended the battle.
type Result struct {
	ID        string             `json:"id,omitempty"`
	Seed      int64              `json:"seed,omitempty"`
	Winner    string             `json:"winner"`
	Draw      bool               `json:"draw"`
	TurnCap   bool               `json:"turn_cap"`
	Turns     int                `json:"turns"`
	Survivors []string           `json:"survivors"`
	Ratings   map[string]float64 `json:"ratings"`
	Events    []Event            `json:"events,omitempty"`
	Lines     []string           `json:"lines"`
}

func MarshalPretty(v any) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}

// Battle runs two sides against each other one team turn at a time. It is
// not safe for concurrent use.
type Battle struct {
	cfg      Config
	sides    [2]Side
	active   int
	turn     int
	stage    Stage
	effects  *Effects
	resolver *Resolver
	log      *Commentary
	sink     Sink
	rng      *rand.Rand
	zl       *zap.Logger
	result   *Result
}

type tee struct{ a, b Sink }

func (t tee) Append(ev Event) {
	t.a.Append(ev)
	t.b.Append(ev)
}

// NewBattle validates both sides, places characters when the battle is
// fought on the grid and logs the opening lines.
func NewBattle(a, b Side, cfg Config) (*Battle, error) {
	for i, s := range []Side{a, b} {
		if s.Team == nil {
			return nil, fmt.Errorf("side %d: %w", i+1, ErrNoTeam)
		}
		if s.Decider == nil {
			return nil, fmt.Errorf("side %s: %w", s.Team.Name, ErrNoDecider)
		}
	}
	if a.Team == b.Team {
		return nil, fmt.Errorf("%s: %w", a.Team.Name, ErrSameTeam)
	}
	cfg.fill()

	bt := &Battle{
		cfg:     cfg,
		sides:   [2]Side{a, b},
		turn:    1,
		effects: &Effects{},
		log:     &Commentary{},
		rng:     cfg.Rng,
		zl:      cfg.Logger.With(zap.String("battle", a.Team.Name+" vs "+b.Team.Name)),
	}
	bt.sink = Sink(bt.log)
	if cfg.Sink != nil {
		bt.sink = tee{bt.log, cfg.Sink}
	}
	bt.resolver = NewResolver(bt.sink, bt.effects, cfg.PoisonDamage)

	if cfg.Mode == ModeGrid {
		if err := bt.place(); err != nil {
			return nil, err
		}
	}
	bt.opening()
	bt.checkDefeat()
	return bt, nil
}

func (b *Battle) opening() {
	a, c := b.sides[0].Team, b.sides[1].Team
	logLine(b.sink, b.turn, EventBattleStart, map[string]any{"mode": b.cfg.Mode.String()}, "Battle begins: %s vs %s", a.Name, c.Name)
	for _, s := range b.sides {
		t := s.Team
		logLine(b.sink, b.turn, EventBattleStart, map[string]any{"team": t.Name, "rating": t.Rating()},
			"%s (%s) rating %.0f: %s", t.Name, t.Control, t.Rating(), t.Names())
	}
	logLine(b.sink, b.turn, EventTurn, nil, "Turn %d", b.turn)
	b.zl.Info("battle started",
		zap.String("mode", b.cfg.Mode.String()),
		zap.Int("team_a", a.Len()),
		zap.Int("team_b", c.Len()),
		zap.Int("max_turns", b.cfg.MaxTurns))
}

// place puts every unplaced character on the grid. Side A fills column 1 and
// side B column width-2, evenly spread down the column.
func (b *Battle) place() error {
	occupied := map[grid.Pos]bool{}
	for _, s := range b.sides {
		for _, m := range s.Team.Members() {
			if p, ok := m.Position(); ok {
				occupied[p] = true
			}
		}
	}
	cols := [2]int{1, b.cfg.Bounds.Width - 2}
	for si, s := range b.sides {
		members := s.Team.Members()
		gap := b.cfg.Bounds.Height / (len(members) + 1)
		for i, m := range members {
			if _, ok := m.Position(); ok {
				continue
			}
			want := grid.Pos{X: cols[si], Y: (i + 1) * gap}
			p, ok := b.freeCellNear(want, occupied)
			if !ok {
				return fmt.Errorf("%s: %w", m.Name, ErrGridFull)
			}
			m.placeAt(p)
			occupied[p] = true
		}
	}
	return nil
}

// freeCellNear scans down the preferred column from want, wrapping to the
// top, then tries the neighbouring columns moving outward.
func (b *Battle) freeCellNear(want grid.Pos, occupied map[grid.Pos]bool) (grid.Pos, bool) {
	h := b.cfg.Bounds.Height
	for off := 0; off < 2*b.cfg.Bounds.Width; off++ {
		dx := (off + 1) / 2
		if off%2 == 0 {
			dx = -dx
		}
		x := want.X + dx
		if x < 0 || x >= b.cfg.Bounds.Width {
			continue
		}
		for dy := 0; dy < h; dy++ {
			p := grid.Pos{X: x, Y: (want.Y + dy) % h}
			if b.cfg.Bounds.Contains(p) && !occupied[p] {
				return p, true
			}
		}
	}
	return grid.Pos{}, false
}

func (b *Battle) Turn() int { return b.turn }

func (b *Battle) Stage() Stage { return b.stage }

func (b *Battle) Concluded() bool { return b.result != nil }

// Active returns the side whose turn it is.
func (b *Battle) Active() Side { return b.sides[b.active] }

func (b *Battle) Effects() *Effects { return b.effects }

func (b *Battle) Commentary() *Commentary { return b.log }

// Result returns the outcome once the battle has concluded.
func (b *Battle) Result() (Result, bool) {
	if b.result == nil {
		return Result{}, false
	}
	return *b.result, true
}

// AdvanceOneTurn plays the active team's turn and advances to the next one.
// The battle concludes without a winner once turn MaxTurns has been played.
// It reports whether the battle has concluded; once it has, further calls do
// nothing.
func (b *Battle) AdvanceOneTurn() (bool, error) {
	if b.result != nil {
		return true, nil
	}
	own, foe := b.sides[b.active], b.sides[1-b.active]
	own.Decider.UpdateStrategy(own.Team.HPRatio(), foe.Team.HPRatio())

	switch b.cfg.Mode {
	case ModeSquad:
		for i := 0; i < b.cfg.MovesPerTurn && !own.Team.Empty(); i++ {
			members := own.Team.Members()
			actor := members[b.rng.Intn(len(members))]
			if err := b.act(actor, own, foe); err != nil {
				return false, err
			}
			if b.result != nil {
				return true, nil
			}
		}
	default:
		for _, actor := range own.Team.Members() {
			if !own.Team.Contains(actor) {
				continue
			}
			if err := b.act(actor, own, foe); err != nil {
				return false, err
			}
			if b.result != nil {
				return true, nil
			}
		}
	}

	if b.turn >= b.cfg.MaxTurns {
		b.concludeTurnCap()
		return true, nil
	}
	b.advance()
	return b.result != nil, nil
}

// Run advances until the battle concludes.
func (b *Battle) Run() (Result, error) {
	for {
		done, err := b.AdvanceOneTurn()
		if err != nil {
			return Result{}, err
		}
		if done {
			return *b.result, nil
		}
	}
}

func (b *Battle) snapshot(actor *Character, own, foe Side) Snapshot {
	snap := Snapshot{
		Turn:    b.turn,
		Actor:   actor,
		Allies:  own.Team.Members(),
		Enemies: foe.Team.Members(),
		Bounds:  b.cfg.Bounds,
		Metric:  b.cfg.Metric,
		Gridded: b.cfg.Mode == ModeGrid,
	}
	if snap.Gridded {
		snap.Occupied = map[grid.Pos]bool{}
		for _, s := range b.sides {
			for _, m := range s.Team.Members() {
				if p, ok := m.Position(); ok && m != actor {
					snap.Occupied[p] = true
				}
			}
		}
	}
	return snap
}

func (b *Battle) act(actor *Character, own, foe Side) error {
	b.stage = StageResolvingAction
	b.resolver.Turn = b.turn
	snap := b.snapshot(actor, own, foe)

	var target *Character
	gridded := b.cfg.Mode == ModeGrid
	if gridded {
		plan := own.Decider.Plan(snap)
		b.move(actor, plan.Move, snap.Occupied)
		target = plan.Target
		if target != nil && !foe.Team.Contains(target) {
			target = nil
		}
	}

	abilities := actor.SpecialAbilities()
	if b.turn%b.cfg.SpecialEvery == 0 && len(abilities) > 0 {
		ab := abilities[b.rng.Intn(len(abilities))]
		if err := b.special(actor, ab, target, snap, own, foe); err != nil {
			return err
		}
	} else if gridded {
		b.gridAttack(actor, target)
	} else {
		if err := b.squadAction(actor, snap, own, foe); err != nil {
			return err
		}
	}

	b.stage = StageCheckingDeaths
	b.sweepDeaths(actor)
	if b.result == nil {
		b.stage = StageAwaitingTurn
	}
	return nil
}

func (b *Battle) special(actor *Character, ab SpecialAbility, target *Character, snap Snapshot, own, foe Side) error {
	if ab.Kind.NeedsTarget() {
		if b.cfg.Mode == ModeGrid {
			if target == nil || !b.inRange(actor, target) {
				b.noAction(actor, "has no target in range for %s", ab)
				return nil
			}
		} else {
			act := own.Decider.ChooseAction(snap)
			target = act.Target
			if target == nil || !foe.Team.Contains(target) {
				target = nil
				if enemies := foe.Team.Members(); len(enemies) > 0 {
					target = enemies[b.rng.Intn(len(enemies))]
				}
			}
		}
	}
	out, err := b.resolver.Execute(ab, actor, target)
	if err != nil {
		return fmt.Errorf("turn %d: %w", b.turn, err)
	}
	b.zl.Debug("ability",
		zap.Int("turn", b.turn),
		zap.String("actor", actor.Name),
		zap.String("ability", ab.Kind.String()),
		zap.Bool("applied", out.Applied),
		zap.String("reason", out.Reason))
	return nil
}

func (b *Battle) squadAction(actor *Character, snap Snapshot, own, foe Side) error {
	act := own.Decider.ChooseAction(snap)
	switch act.Kind {
	case ActionAttack:
		if act.Target == nil || !foe.Team.Contains(act.Target) {
			b.noAction(actor, "has no one to attack")
			return nil
		}
		b.attack(actor, act.Target)
	case ActionHealSelf, ActionHealAlly:
		kind := AbilityHealSelf
		if act.Kind == ActionHealAlly {
			kind = AbilityHealOthers
		}
		ab, err := actor.SpecialAbility(kind)
		if err != nil {
			b.noAction(actor, "cannot %s", act.Kind)
			return nil
		}
		if _, err := b.resolver.Execute(ab, actor, act.Target); err != nil {
			return fmt.Errorf("turn %d: %w", b.turn, err)
		}
	default:
		b.noAction(actor, "waits")
	}
	return nil
}

func (b *Battle) gridAttack(actor, target *Character) {
	if target == nil {
		b.noAction(actor, "has no one to attack")
		return
	}
	if !b.inRange(actor, target) {
		b.noAction(actor, "is out of range of %s", target.Name)
		return
	}
	b.attack(actor, target)
}

func (b *Battle) inRange(actor, target *Character) bool {
	ap, ok1 := actor.Position()
	tp, ok2 := target.Position()
	if !ok1 || !ok2 {
		return false
	}
	return grid.InRange(b.cfg.Metric, ap, tp, actor.Range())
}

// move applies a proposed move. A move is accepted when the destination is
// on the board, free, and reachable in MoveRange king steps.
func (b *Battle) move(actor *Character, to grid.Pos, occupied map[grid.Pos]bool) {
	from, ok := actor.Position()
	if !ok || to == from {
		return
	}
	payload := map[string]any{"actor": actor.Name, "from": from.String(), "to": to.String()}
	var reason string
	switch {
	case !b.cfg.Bounds.Contains(to):
		reason = "off the grid"
	case occupied[to]:
		reason = "occupied"
	case grid.Chebyshev.Dist(from, to) > grid.MoveRange(actor.Speed()):
		reason = "too far"
	}
	if reason != "" {
		logLine(b.sink, b.turn, EventNoAction, payload, "%s cannot move to %s (%s)", actor.Name, to, reason)
		return
	}
	actor.placeAt(to)
	logLine(b.sink, b.turn, EventMove, payload, "%s moves from %s to %s", actor.Name, from, to)
}

// attack resolves a basic attack.
func (b *Battle) attack(attacker, target *Character) {
	payload := map[string]any{"actor": attacker.Name, "target": target.Name}
	if b.effects.Has(attacker, AbilityStun) {
		logLine(b.sink, b.turn, EventStunned, payload, "%s is stunned and cannot attack %s", attacker.Name, target.Name)
		return
	}

	dmg := ComputeDamage(attacker, target, b.cfg.Attack)
	_ = attacker.ModifyAttribute(AttrStamina, -b.cfg.Attack.StaminaCost)
	_ = target.ModifyAttribute(AttrStamina, -b.cfg.Attack.StaminaCost)

	if ev := b.effects.Find(target, AbilityEvasion); ev != nil {
		b.effects.Remove(ev)
		logLine(b.sink, b.turn, EventDodge, payload, "%s dodges the attack from %s and their evasion is spent", target.Name, attacker.Name)
		return
	}

	_ = target.ModifyAttribute(AttrHP, -dmg.HP)
	_ = target.ModifyAttribute(AttrArmor, -dmg.Armor)
	payload["hp_damage"] = dmg.HP
	payload["armor_damage"] = dmg.Armor
	logLine(b.sink, b.turn, EventAttack, payload, "%s attacks %s for %.0f damage (armor -%.0f). %s has %.0f HP left",
		attacker.Name, target.Name, dmg.HP, dmg.Armor, target.Name, target.HP())
	b.zl.Debug("attack",
		zap.Int("turn", b.turn),
		zap.String("actor", attacker.Name),
		zap.String("target", target.Name),
		zap.Float64("hp_damage", dmg.HP),
		zap.Float64("armor_damage", dmg.Armor),
		zap.Float64("speed_factor", dmg.Factor))
}

func (b *Battle) noAction(actor *Character, format string, args ...any) {
	logLine(b.sink, b.turn, EventNoAction, map[string]any{"actor": actor.Name}, "%s "+format, append([]any{actor.Name}, args...)...)
}

// advance flips the active side, bumps the turn counter and ticks status
// effects. Non-poison effects applied during the turn that is ending are left
// alone so they last through the other side's turn.
func (b *Battle) advance() {
	b.stage = StageAdvancingTurn
	ending := b.turn
	b.active = 1 - b.active
	b.turn++
	b.resolver.Turn = b.turn
	logLine(b.sink, b.turn, EventTurn, nil, "Turn %d", b.turn)

	for _, se := range b.effects.All() {
		if !se.Active || se.Kind != AbilityPoison {
			continue
		}
		r := se.Receiver
		_ = r.ModifyAttribute(AttrHP, -se.Value)
		se.Remaining--
		logLine(b.sink, b.turn, EventEffectTick, map[string]any{"receiver": r.Name, "damage": se.Value},
			"%s takes %.0f poison damage, %d turns left. %s has %.0f HP left", r.Name, se.Value, se.Remaining, r.Name, r.HP())
		if r.HP() <= 0 {
			b.kill(r, se.Source)
			continue
		}
		if se.Remaining <= 0 {
			b.expire(se)
		}
	}
	for _, se := range b.effects.All() {
		if !se.Active || se.Kind == AbilityPoison || se.AppliedTurn >= ending {
			continue
		}
		se.Remaining--
		if se.Remaining <= 0 {
			b.expire(se)
		}
	}

	b.checkDefeat()
	if b.result == nil {
		b.stage = StageAwaitingTurn
	}
}

func (b *Battle) expire(se *StatusEffect) {
	b.effects.Remove(se)
	logLine(b.sink, b.turn, EventEffectExpire, map[string]any{"receiver": se.Receiver.Name, "effect": se.Kind.String()},
		"%s's %s wore off", se.Receiver.Name, se.Kind)
}

// sweepDeaths removes every character at or below zero hp, crediting killer,
// then checks whether a side has been wiped out.
func (b *Battle) sweepDeaths(killer *Character) {
	for _, s := range b.sides {
		for _, m := range s.Team.Members() {
			if m.HP() <= 0 {
				b.kill(m, killer)
			}
		}
	}
	b.checkDefeat()
}

func (b *Battle) kill(victim, killer *Character) {
	t := victim.Team()
	if t == nil || !t.Remove(victim) {
		return
	}
	b.effects.Purge(victim)
	payload := map[string]any{"victim": victim.Name, "team": t.Name}
	if killer != nil && killer != victim {
		payload["killer"] = killer.Name
		logLine(b.sink, b.turn, EventDeath, payload, "%s has been killed by %s", victim.Name, killer.Name)
	} else {
		logLine(b.sink, b.turn, EventDeath, payload, "%s has died", victim.Name)
	}
	b.zl.Debug("death", zap.Int("turn", b.turn), zap.String("victim", victim.Name), zap.String("team", t.Name))
}

func (b *Battle) checkDefeat() {
	if b.result != nil {
		return
	}
	aDown, bDown := b.sides[0].Team.Empty(), b.sides[1].Team.Empty()
	switch {
	case aDown && bDown:
		for _, s := range b.sides {
			logLine(b.sink, b.turn, EventDefeat, map[string]any{"team": s.Team.Name}, "%s has been defeated", s.Team.Name)
		}
		b.conclude(nil, false)
	case aDown:
		logLine(b.sink, b.turn, EventDefeat, map[string]any{"team": b.sides[0].Team.Name}, "%s has been defeated", b.sides[0].Team.Name)
		b.conclude(b.sides[1].Team, false)
	case bDown:
		logLine(b.sink, b.turn, EventDefeat, map[string]any{"team": b.sides[1].Team.Name}, "%s has been defeated", b.sides[1].Team.Name)
		b.conclude(b.sides[0].Team, false)
	}
}

func (b *Battle) concludeTurnCap() {
	b.conclude(nil, true)
}

func (b *Battle) conclude(winner *Team, turnCap bool) {
	b.stage = StageConcluded
	res := &Result{
		Turns:   b.turn,
		Ratings: map[string]float64{},
		TurnCap: turnCap,
	}
	for _, s := range b.sides {
		res.Ratings[s.Team.Name] = s.Team.Rating()
	}

	logLine(b.sink, b.turn, EventBattleEnd, nil, "Battle finished after %d turns", res.Turns)
	a, c := b.sides[0].Team, b.sides[1].Team
	switch {
	case turnCap:
		logLine(b.sink, b.turn, EventBattleEnd, map[string]any{"ratings": res.Ratings},
			"Turn limit of %d reached with no winner: %s rating %.0f, %s rating %.0f",
			b.cfg.MaxTurns, a.Name, a.Rating(), c.Name, c.Rating())
	case winner == nil:
		res.Draw = true
		logLine(b.sink, b.turn, EventBattleEnd, nil, "The battle ends in a draw")
	default:
		res.Winner = winner.Name
		for _, m := range winner.Members() {
			res.Survivors = append(res.Survivors, m.Name)
		}
		logLine(b.sink, b.turn, EventBattleEnd, map[string]any{"winner": winner.Name, "survivors": res.Survivors},
			"%s wins with %s standing", winner.Name, winner.Names())
	}

	res.Events = b.log.Events()
	res.Lines = b.log.Lines()
	b.result = res
	b.zl.Info("battle concluded",
		zap.Int("turns", res.Turns),
		zap.String("winner", res.Winner),
		zap.Bool("draw", res.Draw),
		zap.Bool("turn_cap", res.TurnCap))
}
