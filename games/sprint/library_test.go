package sprint

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLibrary(t *testing.T) *Library {
	t.Helper()

	builtin, err := BuiltinChallenges()
	require.NoError(t, err)

	lib, err := NewLibrary(builtin)
	require.NoError(t, err)

	return lib
}

func sampleFields(title string) Fields {
	return Fields{
		Title:       title,
		Description: "Commuters miss the last bus home.",
		Persona:     "Dana, a night-shift nurse",
		PainPoint:   "Stranded after late shifts",
		Topic:       "Service Design",
	}
}

func TestBuiltinChallenges(t *testing.T) {
	lib := testLibrary(t)

	titles := make([]string, 0, lib.BuiltinCount())
	for _, c := range lib.All() {
		assert.True(t, c.BuiltIn)
		assert.True(t, lib.IsEnabled(c.ID))
		assert.NotEqual(t, uuid.Nil, c.ID)
		titles = append(titles, c.Title)
	}

	assert.Equal(t, []string{
		"Campus Coffee Crisis",
		"Remote Team Disconnect",
		"Sustainable Shopping Struggle",
		"Fitness Motivation Gap",
	}, titles)
	assert.Empty(t, lib.Custom())
}

func TestNewLibraryRejectsDuplicateBuiltins(t *testing.T) {
	_, err := NewLibrary([]Fields{sampleFields("Night Bus"), sampleFields("night bus")})
	assert.Error(t, err)
}

func TestAddChallenge(t *testing.T) {
	tests := []struct {
		name    string
		fields  Fields
		wantErr string
	}{
		{
			name:   "valid",
			fields: sampleFields("Night Bus Gap"),
		},
		{
			name:    "missing title",
			fields:  Fields{Description: "d", Persona: "p", PainPoint: "pp", Topic: "t"},
			wantErr: "Please enter a challenge title",
		},
		{
			name:    "blank description",
			fields:  Fields{Title: "T", Description: "   ", Persona: "p", PainPoint: "pp", Topic: "t"},
			wantErr: "Please enter a challenge description",
		},
		{
			name:    "missing persona",
			fields:  Fields{Title: "T", Description: "d", PainPoint: "pp", Topic: "t"},
			wantErr: "Please enter a user persona",
		},
		{
			name:    "missing pain point",
			fields:  Fields{Title: "T", Description: "d", Persona: "p", Topic: "t"},
			wantErr: "Please enter a pain point",
		},
		{
			name:    "missing topic",
			fields:  Fields{Title: "T", Description: "d", Persona: "p", PainPoint: "pp"},
			wantErr: "Please select or enter a topic",
		},
		{
			name:    "duplicate of built-in ignoring case",
			fields:  sampleFields("  campus COFFEE crisis "),
			wantErr: "A challenge with this title already exists. Please use a different title.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := testLibrary(t)

			c, err := lib.AddChallenge(tt.fields)

			if tt.wantErr != "" {
				n := requireNotice(t, err, KindValidation)
				assert.Equal(t, tt.wantErr, n.Message)
				assert.Empty(t, lib.Custom())
				return
			}

			require.NoError(t, err)
			assert.False(t, c.BuiltIn)
			assert.True(t, lib.IsEnabled(c.ID))
			assert.Equal(t, []Challenge{c}, lib.Custom())
		})
	}
}

func TestAddChallengeTrimsFields(t *testing.T) {
	lib := testLibrary(t)

	c, err := lib.AddChallenge(Fields{
		Title:       "  Night Bus Gap ",
		Description: " d ",
		Persona:     " p ",
		PainPoint:   " pp ",
		Topic:       " Custom ",
	})
	require.NoError(t, err)

	assert.Equal(t, Fields{Title: "Night Bus Gap", Description: "d", Persona: "p", PainPoint: "pp", Topic: "Custom"}, c.Fields)
}

func TestToggleAndBulkSelection(t *testing.T) {
	lib := testLibrary(t)
	first := lib.All()[0]

	require.NoError(t, lib.Toggle(first.ID))
	assert.False(t, lib.IsEnabled(first.ID))
	assert.Len(t, lib.Enabled(), 3)

	require.NoError(t, lib.Toggle(first.ID))
	assert.True(t, lib.IsEnabled(first.ID))

	requireNotice(t, lib.Toggle(uuid.New()), KindValidation)

	lib.DeselectAll()
	assert.Empty(t, lib.Enabled())

	lib.SelectAll()
	assert.Len(t, lib.Enabled(), 4)
}

func TestPickRandom(t *testing.T) {
	lib := testLibrary(t)
	rng := rand.New(rand.NewSource(7))

	lib.DeselectAll()
	_, err := lib.PickRandom(rng)
	requireNotice(t, err, KindValidation)

	only := lib.All()[2]
	require.NoError(t, lib.Toggle(only.ID))
	for i := 0; i < 20; i++ {
		c, err := lib.PickRandom(rng)
		require.NoError(t, err)
		assert.Equal(t, only.ID, c.ID)
	}

	lib.SelectAll()
	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 400; i++ {
		c, err := lib.PickRandom(rng)
		require.NoError(t, err)
		seen[c.ID] = true
	}
	assert.Len(t, seen, 4, "every enabled challenge should eventually be drawn")
}
