package sprint

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// Library is the union of built-in and facilitator-added challenges, plus
// the set of challenges eligible for the next sprint.
type Library struct {
	builtin []Challenge
	custom  []Challenge
	enabled map[uuid.UUID]bool
}

// NewLibrary seeds a library with the given built-ins, all enabled.
func NewLibrary(builtin []Fields) (*Library, error) {
	l := &Library{
		enabled: make(map[uuid.UUID]bool),
	}

	for i, f := range builtin {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("built-in challenge %d: %w", i+1, err)
		}
		if _, ok := l.findTitle(f.Title); ok {
			return nil, fmt.Errorf("built-in challenge %d: duplicate title %q", i+1, f.Title)
		}

		c := newChallenge(f, true)
		l.builtin = append(l.builtin, c)
		l.enabled[c.ID] = true
	}

	return l, nil
}

// All returns built-ins followed by custom challenges, in creation order.
func (l *Library) All() []Challenge {
	out := make([]Challenge, 0, len(l.builtin)+len(l.custom))
	out = append(out, l.builtin...)
	return append(out, l.custom...)
}

// Custom returns only the facilitator-added challenges.
func (l *Library) Custom() []Challenge {
	return append([]Challenge(nil), l.custom...)
}

func (l *Library) BuiltinCount() int {
	return len(l.builtin)
}

func (l *Library) Lookup(id uuid.UUID) (Challenge, bool) {
	for _, c := range l.builtin {
		if c.ID == id {
			return c, true
		}
	}
	for _, c := range l.custom {
		if c.ID == id {
			return c, true
		}
	}

	return Challenge{}, false
}

func (l *Library) findTitle(title string) (Challenge, bool) {
	for _, c := range l.builtin {
		if sameTitle(c.Title, title) {
			return c, true
		}
	}
	for _, c := range l.custom {
		if sameTitle(c.Title, title) {
			return c, true
		}
	}

	return Challenge{}, false
}

// AddChallenge appends a custom challenge and enables it.
func (l *Library) AddChallenge(f Fields) (Challenge, error) {
	if err := f.Validate(); err != nil {
		return Challenge{}, err
	}

	if _, ok := l.findTitle(f.Title); ok {
		return Challenge{}, invalid("A challenge with this title already exists. Please use a different title.")
	}

	return l.insert(f), nil
}

// insert assumes f is valid and its title is free.
func (l *Library) insert(f Fields) Challenge {
	c := newChallenge(f, false)
	l.custom = append(l.custom, c)
	l.enabled[c.ID] = true

	return c
}

func (l *Library) IsEnabled(id uuid.UUID) bool {
	return l.enabled[id]
}

// Toggle flips whether the challenge is eligible for selection.
func (l *Library) Toggle(id uuid.UUID) error {
	if _, ok := l.Lookup(id); !ok {
		return invalid("That challenge no longer exists.")
	}

	if l.enabled[id] {
		delete(l.enabled, id)
	} else {
		l.enabled[id] = true
	}

	return nil
}

func (l *Library) SelectAll() {
	for _, c := range l.All() {
		l.enabled[c.ID] = true
	}
}

func (l *Library) DeselectAll() {
	clear(l.enabled)
}

// Enabled returns the eligible challenges in library order.
func (l *Library) Enabled() []Challenge {
	var out []Challenge
	for _, c := range l.All() {
		if l.enabled[c.ID] {
			out = append(out, c)
		}
	}

	return out
}

// PickRandom draws uniformly from the enabled challenges.
func (l *Library) PickRandom(rng *rand.Rand) (Challenge, error) {
	enabled := l.Enabled()
	if len(enabled) == 0 {
		return Challenge{}, invalid("Please enable at least one challenge in settings before starting")
	}

	return enabled[rng.Intn(len(enabled))], nil
}
