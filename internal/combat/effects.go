package combat

// StatusEffect is a time-boxed modifier on one character.
type StatusEffect struct {
	Kind        AbilityKind
	Value       float64
	Remaining   int
	Receiver    *Character
	Source      *Character
	AppliedTurn int
	Active      bool
}

// Effects is the live status-effect registry of a battle, kept in
// application order.
type Effects struct {
	list []*StatusEffect
}

func (e *Effects) Apply(kind AbilityKind, value float64, receiver, source *Character, turn int) *StatusEffect {
	se := &StatusEffect{
		Kind:        kind,
		Value:       value,
		Remaining:   kind.Duration(),
		Receiver:    receiver,
		Source:      source,
		AppliedTurn: turn,
		Active:      true,
	}
	e.list = append(e.list, se)
	return se
}

// Find returns the oldest active effect of kind on receiver.
func (e *Effects) Find(receiver *Character, kind AbilityKind) *StatusEffect {
	for _, se := range e.list {
		if se.Active && se.Receiver == receiver && se.Kind == kind {
			return se
		}
	}
	return nil
}

func (e *Effects) Has(receiver *Character, kind AbilityKind) bool {
	return e.Find(receiver, kind) != nil
}

// Remove deactivates se and drops it from the registry.
func (e *Effects) Remove(se *StatusEffect) {
	for i, cur := range e.list {
		if cur == se {
			se.Active = false
			e.list = append(e.list[:i], e.list[i+1:]...)
			return
		}
	}
}

// Purge removes every effect on receiver and returns how many were dropped.
func (e *Effects) Purge(receiver *Character) int {
	kept := e.list[:0]
	n := 0
	for _, se := range e.list {
		if se.Receiver == receiver {
			se.Active = false
			n++
			continue
		}
		kept = append(kept, se)
	}
	for i := len(kept); i < len(e.list); i++ {
		e.list[i] = nil
	}
	e.list = kept
	return n
}

// On lists the active effects on receiver.
func (e *Effects) On(receiver *Character) []*StatusEffect {
	var out []*StatusEffect
	for _, se := range e.list {
		if se.Receiver == receiver {
			out = append(out, se)
		}
	}
	return out
}

// All returns a snapshot of the registry.
func (e *Effects) All() []*StatusEffect {
	return append([]*StatusEffect(nil), e.list...)
}

func (e *Effects) Len() int { return len(e.list) }
