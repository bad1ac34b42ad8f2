package main

import (
	"time"

	"github.com/Seednode/designsprint/games/sprint"
	"github.com/google/uuid"
)

// StateMessage is the full snapshot sent after every action and tick. The
// page renders from it alone.
type StateMessage struct {
	Type         string          `json:"type"` // "state"
	Screen       sprint.Screen   `json:"screen"`
	Mode         sprint.Mode     `json:"mode"`
	TeamName     string          `json:"team_name"`
	Members      []string        `json:"members"`
	TimerSeconds int             `json:"timer_seconds"`
	Topics       []string        `json:"topics"`
	Challenges   []ChallengeView `json:"challenges"`
	Pending      *sprint.Preview `json:"pending_import,omitempty"`
	Session      *SessionView    `json:"session,omitempty"`
	Results      *sprint.Results `json:"results,omitempty"` // complete screen only
	Panel        string          `json:"panel,omitempty"`   // on-screen results
	Summary      string          `json:"summary,omitempty"` // clipboard payload
	Clients      int             `json:"clients"`
}

type ChallengeView struct {
	ID uuid.UUID `json:"id"`
	sprint.Fields
	BuiltIn bool `json:"built_in"`
	Enabled bool `json:"enabled"`
}

type SessionView struct {
	Phase          sprint.Phase  `json:"phase"`
	Guide          sprint.Guide  `json:"guide"`
	Challenge      sprint.Fields `json:"challenge"`
	Score          int           `json:"score"`
	HMW            string        `json:"hmw_statement"`
	Ideas          []sprint.Idea `json:"ideas"`
	Selected       []int         `json:"selected"`
	Prototype      string        `json:"prototype"`
	IterationNotes string        `json:"iteration_notes"`
	Timer          TimerView     `json:"timer"`
}

type TimerView struct {
	Remaining int    `json:"remaining"`
	Active    bool   `json:"active"`
	Clock     string `json:"clock"`
}

// NoticeMessage is sent only to the client whose action produced it.
type NoticeMessage struct {
	Type    string              `json:"type"` // "notice"
	Kind    sprint.NoticeKind   `json:"kind"`
	Message string              `json:"message"`
	Fields  []sprint.FieldError `json:"fields,omitempty"`
}

// kindSuccess marks notices that report a completed action.
const kindSuccess sprint.NoticeKind = "success"

func noticeMessage(n *sprint.Notice) NoticeMessage {
	return NoticeMessage{
		Type:    "notice",
		Kind:    n.Kind,
		Message: n.Message,
		Fields:  n.Fields,
	}
}

func snapshot(app *sprint.App, clients int, shareURL string, now time.Time) StateMessage {
	msg := StateMessage{
		Type:         "state",
		Screen:       app.Screen,
		Mode:         app.Mode,
		TeamName:     app.TeamName,
		Members:      app.Roster.Members(),
		TimerSeconds: app.TimerSeconds,
		Topics:       sprint.Topics,
		Challenges:   make([]ChallengeView, 0, len(app.Library.All())),
		Pending:      app.Pending,
		Clients:      clients,
	}

	if msg.Members == nil {
		msg.Members = []string{}
	}

	for _, c := range app.Library.All() {
		msg.Challenges = append(msg.Challenges, ChallengeView{
			ID:      c.ID,
			Fields:  c.Fields,
			BuiltIn: c.BuiltIn,
			Enabled: app.Library.IsEnabled(c.ID),
		})
	}

	if s := app.Session; s != nil {
		msg.Session = &SessionView{
			Phase:          s.Phase,
			Guide:          s.Phase.Guide(),
			Challenge:      s.Challenge.Fields,
			Score:          s.Score,
			HMW:            s.HMW,
			Ideas:          append([]sprint.Idea{}, s.Ideas...),
			Selected:       append([]int{}, s.Selected...),
			Prototype:      s.Prototype,
			IterationNotes: s.IterationNotes,
			Timer: TimerView{
				Remaining: s.Countdown.Remaining,
				Active:    s.Countdown.Active,
				Clock:     s.Countdown.Clock(),
			},
		}
	}

	if app.Screen == sprint.ScreenComplete {
		if r, err := app.Results(now); err == nil {
			msg.Results = &r
			msg.Panel = r.Panel()
			msg.Summary = r.Summary(shareURL)
		}
	}

	return msg
}
