package sprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChallenge() Challenge {
	return newChallenge(Fields{
		Title:       "Campus Coffee Crisis",
		Description: "Long lines at the campus coffee shop.",
		Persona:     "Sarah, a sophomore",
		PainPoint:   "Can't miss class waiting in line",
		Topic:       "Education",
	}, true)
}

func soloSession() *Session {
	return newSession(ModeSolo, "", nil, testChallenge(), DefaultTimerSeconds)
}

// sessionAt walks a fresh session forward to phase p using minimal inputs.
func sessionAt(t *testing.T, p Phase) *Session {
	t.Helper()

	s := soloSession()
	if p == PhaseEmpathize {
		return s
	}
	require.NoError(t, s.SubmitHMW("how might we"))
	if p == PhaseIdeate {
		return s
	}
	for i := 0; i < MinIdeas; i++ {
		require.NoError(t, s.AddIdea("idea "+string(rune('a'+i)), ""))
	}
	require.NoError(t, s.Advance())
	if p == PhaseSelect {
		return s
	}
	for i := 0; i < MaxSelected; i++ {
		require.NoError(t, s.ToggleIdea(i))
	}
	require.NoError(t, s.Advance())
	if p == PhasePrototype {
		return s
	}
	require.NoError(t, s.SubmitPrototype(strings.Repeat("p", 20)))
	if p == PhaseIterate {
		return s
	}
	require.NoError(t, s.SubmitIteration(strings.Repeat("i", 15)))
	return s
}

func requireNotice(t *testing.T, err error, kind NoticeKind) *Notice {
	t.Helper()

	require.Error(t, err)
	var n *Notice
	require.ErrorAs(t, err, &n)
	assert.Equal(t, kind, n.Kind)
	assert.NotEmpty(t, n.Message)

	return n
}

func TestSubmitHMWRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace", input: "     \t  "},
		{name: "too short after trim", input: "   how might  "},
		{name: "short phrase", input: "how might"},
		{name: "long without phrase", input: "What if we helped Sarah get coffee faster?"},
		{name: "phrase split", input: "how might  we help Sarah"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := soloSession()

			err := s.SubmitHMW(tt.input)

			requireNotice(t, err, KindValidation)
			assert.Equal(t, PhaseEmpathize, s.Phase)
			assert.Zero(t, s.Score)
			assert.Empty(t, s.HMW)
		})
	}
}

func TestSubmitHMWAccepts(t *testing.T) {
	s := soloSession()

	require.NoError(t, s.SubmitHMW("  So, HOW MIGHT WE help Sarah get coffee?  "))

	assert.Equal(t, PhaseIdeate, s.Phase)
	assert.Equal(t, PointsHMW, s.Score)
	assert.Equal(t, "So, HOW MIGHT WE help Sarah get coffee?", s.HMW)
}

func TestAddIdea(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "empty", input: "", wantErr: true},
		{name: "two chars", input: "ab", wantErr: true},
		{name: "two chars padded", input: "  ab   ", wantErr: true},
		{name: "three chars", input: "abc"},
		{name: "sentence", input: "Mobile pre-ordering with pickup lockers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sessionAt(t, PhaseIdeate)
			before := s.Score

			err := s.AddIdea(tt.input, "")

			if tt.wantErr {
				requireNotice(t, err, KindValidation)
				assert.Empty(t, s.Ideas)
				assert.Equal(t, before, s.Score)
				return
			}

			require.NoError(t, err)
			require.Len(t, s.Ideas, 1)
			assert.Equal(t, strings.TrimSpace(tt.input), s.Ideas[0].Text)
			assert.Equal(t, before+PointsIdea, s.Score)
		})
	}
}

func TestAddIdeaContributor(t *testing.T) {
	s := newSession(ModeTeam, "Baristas", []string{"Ana", "Ben"}, testChallenge(), DefaultTimerSeconds)
	require.NoError(t, s.SubmitHMW("How might we speed up coffee?"))

	err := s.AddIdea("drone delivery", "Zed")
	requireNotice(t, err, KindValidation)
	assert.Empty(t, s.Ideas)

	require.NoError(t, s.AddIdea("drone delivery", "Ana"))
	require.NoError(t, s.AddIdea("coffee cart", ""))

	assert.Equal(t, "drone delivery [by Ana]", s.Ideas[0].String())
	assert.Equal(t, "coffee cart", s.Ideas[1].String())
}

func TestAddIdeaSoloIgnoresContributor(t *testing.T) {
	s := sessionAt(t, PhaseIdeate)

	require.NoError(t, s.AddIdea("coffee cart", "Ana"))

	assert.Equal(t, "coffee cart", s.Ideas[0].String())
}

func TestAdvanceFromIdeateNeedsFiveIdeas(t *testing.T) {
	s := sessionAt(t, PhaseIdeate)

	for i := 0; i < MinIdeas-1; i++ {
		require.NoError(t, s.AddIdea("idea number", ""))
		requireNotice(t, s.Advance(), KindValidation)
		assert.Equal(t, PhaseIdeate, s.Phase)
	}

	require.NoError(t, s.AddIdea("idea number", ""))
	require.NoError(t, s.Advance())
	assert.Equal(t, PhaseSelect, s.Phase)
}

func TestToggleIdeaSelectionBonus(t *testing.T) {
	s := sessionAt(t, PhaseSelect)
	base := s.Score

	require.NoError(t, s.ToggleIdea(0))
	assert.Equal(t, base, s.Score, "first selection")

	require.NoError(t, s.ToggleIdea(1))
	assert.Equal(t, base, s.Score, "second selection")

	require.NoError(t, s.ToggleIdea(2))
	assert.Equal(t, base+PointsSelection, s.Score, "third selection")

	require.NoError(t, s.ToggleIdea(2))
	assert.Equal(t, []int{0, 1}, s.Selected)
	assert.Equal(t, base+PointsSelection, s.Score, "deselect")

	require.NoError(t, s.ToggleIdea(4))
	assert.Equal(t, base+PointsSelection, s.Score, "reselect")
}

func TestToggleIdeaRejectsFourth(t *testing.T) {
	s := sessionAt(t, PhaseSelect)
	for i := 0; i < MaxSelected; i++ {
		require.NoError(t, s.ToggleIdea(i))
	}
	score := s.Score

	n := requireNotice(t, s.ToggleIdea(3), KindValidation)

	assert.Equal(t, "You can only select 3 ideas. Please deselect one first.", n.Message)
	assert.Equal(t, []int{0, 1, 2}, s.Selected)
	assert.Equal(t, score, s.Score)
}

func TestToggleIdeaOutOfRange(t *testing.T) {
	s := sessionAt(t, PhaseSelect)

	requireNotice(t, s.ToggleIdea(-1), KindValidation)
	requireNotice(t, s.ToggleIdea(len(s.Ideas)), KindValidation)
	assert.Empty(t, s.Selected)
}

func TestAdvanceFromSelectNeedsThree(t *testing.T) {
	s := sessionAt(t, PhaseSelect)

	requireNotice(t, s.Advance(), KindValidation)
	require.NoError(t, s.ToggleIdea(0))
	require.NoError(t, s.ToggleIdea(1))
	requireNotice(t, s.Advance(), KindValidation)
	assert.Equal(t, PhaseSelect, s.Phase)

	require.NoError(t, s.ToggleIdea(2))
	require.NoError(t, s.Advance())
	assert.Equal(t, PhasePrototype, s.Phase)
	assert.Equal(t, []string{"idea a", "idea b", "idea c"}, []string{
		s.SelectedIdeas()[0].Text, s.SelectedIdeas()[1].Text, s.SelectedIdeas()[2].Text,
	})
}

func TestSubmitPrototypeLength(t *testing.T) {
	s := sessionAt(t, PhasePrototype)
	score := s.Score

	requireNotice(t, s.SubmitPrototype(""), KindValidation)
	requireNotice(t, s.SubmitPrototype("   "+strings.Repeat("p", 19)+"   "), KindValidation)
	assert.Equal(t, PhasePrototype, s.Phase)
	assert.Equal(t, score, s.Score)

	require.NoError(t, s.SubmitPrototype(strings.Repeat("p", 20)))
	assert.Equal(t, PhaseIterate, s.Phase)
	assert.Equal(t, score+PointsPrototype, s.Score)
}

func TestSubmitIterationLength(t *testing.T) {
	s := sessionAt(t, PhaseIterate)
	score := s.Score

	requireNotice(t, s.SubmitIteration(""), KindValidation)
	requireNotice(t, s.SubmitIteration(strings.Repeat("i", 14)), KindValidation)
	assert.Equal(t, PhaseIterate, s.Phase)
	assert.Equal(t, score, s.Score)

	require.NoError(t, s.SubmitIteration(strings.Repeat("i", 15)))
	assert.Equal(t, PhaseComplete, s.Phase)
}

func TestMinimumSprintScores120(t *testing.T) {
	s := sessionAt(t, PhaseComplete)

	assert.Equal(t, PhaseComplete, s.Phase)
	assert.Equal(t, 120, s.Score)
	assert.Equal(t, PointsHMW+MinIdeas*PointsIdea+PointsSelection+PointsPrototype+PointsIteration, s.Score)
}

func TestSubmitRoutesByPhase(t *testing.T) {
	s := soloSession()

	require.NoError(t, s.Submit("how might we help?", ""))
	assert.Equal(t, PhaseIdeate, s.Phase)

	require.NoError(t, s.Submit("coffee cart", ""))
	assert.Len(t, s.Ideas, 1)

	requireNotice(t, s.SubmitHMW("how might we again"), KindValidation)
	assert.Equal(t, "how might we help?", s.HMW)

	done := sessionAt(t, PhaseComplete)
	requireNotice(t, done.Submit("anything at all", ""), KindValidation)
}

func TestTimerOnlyDuringIdeate(t *testing.T) {
	s := soloSession()
	requireNotice(t, s.StartTimer(), KindValidation)
	assert.False(t, s.Countdown.Active)

	s = sessionAt(t, PhaseIdeate)
	require.NoError(t, s.StartTimer())
	assert.True(t, s.Countdown.Active)
	requireNotice(t, s.StartTimer(), KindValidation)
}

func TestTickExpiryAdvancesWithEnoughIdeas(t *testing.T) {
	s := sessionAt(t, PhaseIdeate)
	for i := 0; i < MinIdeas; i++ {
		require.NoError(t, s.AddIdea("idea number", ""))
	}
	s.Countdown = NewCountdown(2)
	require.NoError(t, s.StartTimer())

	assert.False(t, s.Tick())
	assert.Equal(t, PhaseIdeate, s.Phase)

	assert.True(t, s.Tick())
	assert.Equal(t, PhaseSelect, s.Phase)
	assert.False(t, s.Countdown.Active)
}

func TestTickExpiryStopsWithoutEnoughIdeas(t *testing.T) {
	s := sessionAt(t, PhaseIdeate)
	require.NoError(t, s.AddIdea("only one", ""))
	s.Countdown = NewCountdown(1)
	require.NoError(t, s.StartTimer())

	assert.True(t, s.Tick())
	assert.Equal(t, PhaseIdeate, s.Phase)
	assert.False(t, s.Countdown.Active)
	assert.Zero(t, s.Countdown.Remaining)

	// still accepts ideas and explicit advancement once the threshold is met
	for i := 0; i < MinIdeas-1; i++ {
		require.NoError(t, s.AddIdea("late idea", ""))
	}
	require.NoError(t, s.Advance())
	assert.Equal(t, PhaseSelect, s.Phase)
}

func TestAdvanceStopsTimer(t *testing.T) {
	s := sessionAt(t, PhaseIdeate)
	require.NoError(t, s.StartTimer())
	for i := 0; i < MinIdeas; i++ {
		require.NoError(t, s.AddIdea("idea number", ""))
	}

	require.NoError(t, s.Advance())

	assert.False(t, s.Countdown.Active)
	assert.False(t, s.Tick())
}
