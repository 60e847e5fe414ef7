package combat

import "fmt"

// Event types. Start, turn, defeat and end events frame a battle; everything
// else records something a character did or suffered.
const (
	EventBattleStart  = "battle_start"
	EventTurn         = "turn"
	EventMove         = "move"
	EventAttack       = "attack"
	EventDodge        = "dodge"
	EventStunned      = "stunned"
	EventAbility      = "ability"
	EventNoAction     = "no_action"
	EventEffectTick   = "effect_tick"
	EventEffectExpire = "effect_expired"
	EventDeath        = "death"
	EventDefeat       = "defeat"
	EventBattleEnd    = "battle_end"
)

type Event struct {
	Turn    int            `json:"turn"`
	Type    string         `json:"type"`
	Text    string         `json:"text"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Administrative reports whether the event frames the battle rather than
// describing an action.
func (e Event) Administrative() bool {
	switch e.Type {
	case EventBattleStart, EventTurn, EventDefeat, EventBattleEnd:
		return true
	}
	return false
}

// Sink receives commentary in battle order.
type Sink interface {
	Append(Event)
}

// Commentary is an append-only in-memory Sink.
type Commentary struct {
	events []Event
}

func (c *Commentary) Append(ev Event) { c.events = append(c.events, ev) }

func (c *Commentary) Events() []Event { return append([]Event(nil), c.events...) }

func (c *Commentary) Len() int { return len(c.events) }

func (c *Commentary) Lines() []string {
	out := make([]string, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.Text
	}
	return out
}

// LastAction returns the most recent non-administrative event.
func (c *Commentary) LastAction() (Event, bool) {
	for i := len(c.events) - 1; i >= 0; i-- {
		if !c.events[i].Administrative() {
			return c.events[i], true
		}
	}
	return Event{}, false
}

type discard struct{}

func (discard) Append(Event) {}

// logLine formats one commentary line and hands it to sink.
func logLine(sink Sink, turn int, typ string, payload map[string]any, format string, args ...any) {
	sink.Append(Event{Turn: turn, Type: typ, Text: fmt.Sprintf(format, args...), Payload: payload})
}
