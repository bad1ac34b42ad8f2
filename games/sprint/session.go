package sprint

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// Mode is how a sprint is being played.
type Mode string

const (
	ModeNone Mode = ""
	ModeSolo Mode = "solo"
	ModeTeam Mode = "team"
)

// Idea is one Ideate submission. Contributor is only set in Team mode.
type Idea struct {
	Text        string `json:"text"`
	Contributor string `json:"contributor,omitempty"`
}

// String renders the idea the way it appears in reports.
func (i Idea) String() string {
	if i.Contributor == "" {
		return i.Text
	}
	return fmt.Sprintf("%s [by %s]", i.Text, i.Contributor)
}

// Session is one run through the five phases.
//
// Invariants: Phase never decreases, every entry of Selected indexes Ideas,
// len(Selected) <= MaxSelected, and Score only grows.
type Session struct {
	Mode      Mode
	TeamName  string
	Members   []string
	Challenge Challenge

	Phase          Phase
	HMW            string
	Ideas          []Idea
	Selected       []int // indexes into Ideas, in selection order
	Prototype      string
	IterationNotes string
	Score          int
	Countdown      Countdown

	selectionBonus bool
}

func newSession(mode Mode, teamName string, members []string, c Challenge, timerSeconds int) *Session {
	s := &Session{
		Mode:      mode,
		Challenge: c,
		Phase:     PhaseEmpathize,
		Countdown: NewCountdown(timerSeconds),
	}

	if mode == ModeTeam {
		s.TeamName = teamName
		s.Members = slices.Clone(members)
	}

	return s
}

func runes(s string) int {
	return utf8.RuneCountInString(s)
}

func (s *Session) expect(p Phase) error {
	if s.Phase != p {
		return invalid("That action is not available during the %s phase.", s.Phase)
	}
	return nil
}

// Submit routes free-text input to the active phase.
func (s *Session) Submit(text, contributor string) error {
	switch s.Phase {
	case PhaseEmpathize:
		return s.SubmitHMW(text)
	case PhaseIdeate:
		return s.AddIdea(text, contributor)
	case PhaseSelect:
		return invalid("Pick your top 3 ideas, then continue.")
	case PhasePrototype:
		return s.SubmitPrototype(text)
	case PhaseIterate:
		return s.SubmitIteration(text)
	}

	return invalid("This sprint is already complete.")
}

// SubmitHMW records the How Might We statement and opens Ideate.
func (s *Session) SubmitHMW(text string) error {
	if err := s.expect(PhaseEmpathize); err != nil {
		return err
	}

	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return invalid(`Please enter a "How Might We" statement`)
	case runes(text) < minHMWRunes:
		return invalid(`Please provide a more detailed "How Might We" statement`)
	case !strings.Contains(strings.ToLower(text), hmwPhrase):
		return invalid("Try starting with 'How might we...'")
	}

	s.HMW = text
	s.Score += PointsHMW
	s.Phase = PhaseIdeate

	return nil
}

// AddIdea appends one idea. In Team mode a non-empty contributor must be
// on the roster; in Solo mode it is ignored.
func (s *Session) AddIdea(text, contributor string) error {
	if err := s.expect(PhaseIdeate); err != nil {
		return err
	}

	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return invalid("Please enter some text before submitting")
	case runes(text) < minIdeaRunes:
		return invalid("Please provide a more detailed idea")
	}

	idea := Idea{Text: text}
	if s.Mode == ModeTeam {
		contributor = strings.TrimSpace(contributor)
		if contributor != "" && !slices.Contains(s.Members, contributor) {
			return invalid("Pick a contributor from the team roster.")
		}
		idea.Contributor = contributor
	}

	s.Ideas = append(s.Ideas, idea)
	s.Score += PointsIdea

	return nil
}

// IsSelected reports whether the idea at index i is in the top 3.
func (s *Session) IsSelected(i int) bool {
	return slices.Contains(s.Selected, i)
}

// ToggleIdea selects or deselects the idea at index i. Reaching three
// selections awards the selection bonus once per session.
func (s *Session) ToggleIdea(i int) error {
	if err := s.expect(PhaseSelect); err != nil {
		return err
	}

	if i < 0 || i >= len(s.Ideas) {
		return invalid("That idea does not exist.")
	}

	if at := slices.Index(s.Selected, i); at >= 0 {
		s.Selected = slices.Delete(s.Selected, at, at+1)
		return nil
	}

	if len(s.Selected) >= MaxSelected {
		return invalid("You can only select 3 ideas. Please deselect one first.")
	}

	s.Selected = append(s.Selected, i)
	if len(s.Selected) == MaxSelected && !s.selectionBonus {
		s.selectionBonus = true
		s.Score += PointsSelection
	}

	return nil
}

// SelectedIdeas returns the chosen ideas in selection order.
func (s *Session) SelectedIdeas() []Idea {
	out := make([]Idea, 0, len(s.Selected))
	for _, i := range s.Selected {
		out = append(out, s.Ideas[i])
	}
	return out
}

// Advance performs the explicit Ideate to Select and Select to Prototype
// moves. Other phases advance by submitting text.
func (s *Session) Advance() error {
	switch s.Phase {
	case PhaseIdeate:
		if len(s.Ideas) < MinIdeas {
			return invalid("Generate at least %d ideas before moving on (%d so far).", MinIdeas, len(s.Ideas))
		}
		s.Countdown.Stop()
		s.Phase = PhaseSelect
		return nil

	case PhaseSelect:
		if len(s.Selected) != MaxSelected {
			return invalid("Select exactly %d ideas before prototyping (%d selected).", MaxSelected, len(s.Selected))
		}
		s.Phase = PhasePrototype
		return nil
	}

	return invalid("Submit this phase to continue.")
}

// SubmitPrototype records the prototype description and opens Iterate.
func (s *Session) SubmitPrototype(text string) error {
	if err := s.expect(PhasePrototype); err != nil {
		return err
	}

	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return invalid("Please describe your prototype")
	case runes(text) < minPrototypeRunes:
		return invalid("Describe your prototype in more detail! (At least 20 characters)")
	}

	s.Prototype = text
	s.Score += PointsPrototype
	s.Phase = PhaseIterate

	return nil
}

// SubmitIteration records the reflection and completes the sprint.
func (s *Session) SubmitIteration(text string) error {
	if err := s.expect(PhaseIterate); err != nil {
		return err
	}

	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return invalid("Please share your iteration thoughts")
	case runes(text) < minIterationRunes:
		return invalid("Share more thoughts on how to improve! (At least 15 characters)")
	}

	s.IterationNotes = text
	s.Score += PointsIteration
	s.Phase = PhaseComplete

	return nil
}

// StartTimer starts the idea countdown. It only runs during Ideate.
func (s *Session) StartTimer() error {
	if err := s.expect(PhaseIdeate); err != nil {
		return invalid("The idea timer only runs during the Ideate phase.")
	}

	if s.Countdown.Active {
		return invalid("The timer is already running.")
	}

	s.Countdown.Start()

	return nil
}

func (s *Session) StopTimer() {
	s.Countdown.Stop()
}

// Tick applies one second of the countdown. When it expires during Ideate
// with enough ideas the session moves on to Select; otherwise it just stops.
func (s *Session) Tick() (expired bool) {
	if !s.Countdown.Tick() {
		return false
	}

	if s.Phase == PhaseIdeate && len(s.Ideas) >= MinIdeas {
		s.Phase = PhaseSelect
	}

	return true
}
