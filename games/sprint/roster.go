package sprint

import (
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	MaxMembers = 20

	minNameRunes = 2
	maxNameRunes = 50
)

// Roster is the ordered list of team members for Team mode.
type Roster struct {
	members []string
}

// Add appends a trimmed, unique member name.
func (r *Roster) Add(name string) error {
	name = strings.TrimSpace(name)

	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return invalid("Please enter a team member name")
	case n < minNameRunes:
		return invalid("Please enter a valid name (at least 2 characters)")
	case n > maxNameRunes:
		return invalid("Name is too long (maximum 50 characters)")
	}

	if r.Has(name) {
		return invalid("This team member has already been added")
	}

	if len(r.members) >= MaxMembers {
		return invalid("Maximum 20 team members allowed")
	}

	r.members = append(r.members, name)

	return nil
}

// Remove drops a member, reporting whether they were present.
func (r *Roster) Remove(name string) bool {
	i := slices.Index(r.members, strings.TrimSpace(name))
	if i < 0 {
		return false
	}

	r.members = slices.Delete(r.members, i, i+1)

	return true
}

func (r *Roster) Has(name string) bool {
	return slices.Contains(r.members, name)
}

func (r *Roster) Len() int {
	return len(r.members)
}

func (r *Roster) Members() []string {
	return slices.Clone(r.members)
}
