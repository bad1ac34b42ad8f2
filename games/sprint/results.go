package sprint

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

const soloLabel = "Solo Player"

// Results is the snapshot shared by every results rendering.
type Results struct {
	TeamName       string   `json:"team_name"` // team name, or "Solo Player"
	Team           bool     `json:"team"`
	Challenge      string   `json:"challenge"`
	Date           string   `json:"date"`
	Score          int      `json:"score"`
	HMW            string   `json:"hmw_statement"`
	Ideas          []string `json:"ideas"`
	TopIdeas       []string `json:"top_ideas"`
	Prototype      string   `json:"prototype"`
	IterationNotes string   `json:"iteration_notes"`
	Members        []string `json:"team_members"`
}

// Results captures the session as of now. It works mid-sprint too.
func (s *Session) Results(now time.Time) Results {
	r := Results{
		TeamName:       soloLabel,
		Team:           s.Mode == ModeTeam,
		Challenge:      s.Challenge.Title,
		Date:           now.Format("1/2/2006"),
		Score:          s.Score,
		HMW:            s.HMW,
		Ideas:          make([]string, 0, len(s.Ideas)),
		TopIdeas:       make([]string, 0, len(s.Selected)),
		Prototype:      s.Prototype,
		IterationNotes: s.IterationNotes,
		Members:        []string{},
	}

	if r.Team {
		r.TeamName = s.TeamName
		r.Members = append(r.Members, s.Members...)
	}

	for _, idea := range s.Ideas {
		r.Ideas = append(r.Ideas, idea.String())
	}
	for _, idea := range s.SelectedIdeas() {
		r.TopIdeas = append(r.TopIdeas, idea.String())
	}

	return r
}

func numbered(items []string) string {
	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
	}
	return strings.Join(lines, "\n")
}

// Report renders the full plain-text download.
func (r Results) Report() string {
	var b strings.Builder

	b.WriteString("IDEO DESIGN SPRINT RESULTS\n")
	b.WriteString("========================\n\n")

	if r.Team {
		fmt.Fprintf(&b, "Team: %s\n", r.TeamName)
		fmt.Fprintf(&b, "Members: %s\n", strings.Join(r.Members, ", "))
	} else {
		b.WriteString("Solo Sprint\n\n")
	}

	fmt.Fprintf(&b, "Challenge: %s\n", r.Challenge)
	fmt.Fprintf(&b, "Date: %s\n", r.Date)
	fmt.Fprintf(&b, "Score: %d points\n\n", r.Score)

	fmt.Fprintf(&b, "HOW MIGHT WE STATEMENT\n%s\n\n", r.HMW)
	fmt.Fprintf(&b, "IDEAS GENERATED (%d total)\n%s\n\n", len(r.Ideas), numbered(r.Ideas))
	fmt.Fprintf(&b, "TOP 3 SELECTED IDEAS\n%s\n\n", numbered(r.TopIdeas))
	fmt.Fprintf(&b, "PROTOTYPE\n%s\n\n", r.Prototype)
	fmt.Fprintf(&b, "ITERATION & REFLECTION\n%s\n\n", r.IterationNotes)

	b.WriteString("---\nGenerated by IDEO Design Sprint Game")

	return b.String()
}

// Summary renders the short clipboard payload.
func (r Results) Summary(shareURL string) string {
	if shareURL == "" {
		shareURL = "[Your URL Here]"
	}

	who := "🧑 Solo Sprint"
	if r.Team {
		who = "👥 Team: " + r.TeamName
	}

	top := "N/A"
	if len(r.TopIdeas) > 0 {
		top = r.TopIdeas[0]
	}

	return fmt.Sprintf(`🎨 IDEO Design Sprint Results

%s
🎯 Challenge: %s
⭐ Score: %d points
💡 Ideas Generated: %d

Top Concept: %s

Play your own Design Sprint: %s`, who, r.Challenge, r.Score, len(r.Ideas), top, shareURL)
}

// Markdown renders the on-screen share panel.
func (r Results) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Challenge)
	fmt.Fprintf(&b, "**%s** · %s · **%d points**\n\n", r.TeamName, r.Date, r.Score)

	if r.Team && len(r.Members) > 0 {
		fmt.Fprintf(&b, "Members: %s\n\n", strings.Join(r.Members, ", "))
	}

	fmt.Fprintf(&b, "## How might we\n\n> %s\n\n", r.HMW)
	fmt.Fprintf(&b, "## Ideas (%d)\n\n%s\n\n", len(r.Ideas), numbered(r.Ideas))
	fmt.Fprintf(&b, "## Top 3\n\n%s\n\n", numbered(r.TopIdeas))
	fmt.Fprintf(&b, "## Prototype\n\n%s\n\n", r.Prototype)
	fmt.Fprintf(&b, "## Iteration & reflection\n\n%s\n", r.IterationNotes)

	return b.String()
}

// Panel renders the browser's results panel as plain text.
func (r Results) Panel() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", r.Challenge)
	fmt.Fprintf(&b, "%s - %s - %d points\n", r.TeamName, r.Date, r.Score)
	if r.Team {
		fmt.Fprintf(&b, "Team Members: %s\n", strings.Join(r.Members, ", "))
	}

	fmt.Fprintf(&b, "\nHow might we: %s\n", r.HMW)
	fmt.Fprintf(&b, "\nIdeas Generated: %d\n%s\n", len(r.Ideas), numbered(r.Ideas))
	fmt.Fprintf(&b, "\nTop ideas:\n%s\n", numbered(r.TopIdeas))
	fmt.Fprintf(&b, "\nPrototype: %s\n", r.Prototype)
	fmt.Fprintf(&b, "\nIteration: %s", r.IterationNotes)

	return b.String()
}

// ResultsFilename names the download after the team, or "solo".
func ResultsFilename(teamName string, now time.Time) string {
	if teamName == "" {
		teamName = "solo"
	}

	slug := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return '-'
	}, teamName)

	return fmt.Sprintf("design-sprint-%s-%d.txt", slug, now.UnixMilli())
}

// ErrClipboardUnavailable is returned by a Clipboard that cannot be used
// at all, which selects the fallback path.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// Copy writes text to cb. When cb is nil or unavailable the text is handed
// to fallback instead, which typically shows it in a selectable buffer.
func Copy(cb Clipboard, fallback func(string) error, text string) error {
	failed := newNotice(KindEnvironment, "Failed to copy to clipboard. Please try downloading results instead.")

	if cb != nil {
		err := cb.WriteAll(text)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrClipboardUnavailable) {
			failed.cause = err
			return failed
		}
	}

	if fallback == nil {
		return failed
	}

	if err := fallback(text); err != nil {
		failed.cause = err
		return failed
	}

	return nil
}
