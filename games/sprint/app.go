package sprint

import (
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Screen is the top-level view of the game.
type Screen string

const (
	ScreenIntro    Screen = "intro"
	ScreenPlaying  Screen = "playing"
	ScreenComplete Screen = "complete"
)

// App is the entire state of one game screen. Every exported method is a
// user action: on failure it returns a *Notice and leaves App untouched.
type App struct {
	Screen       Screen
	Mode         Mode
	TeamName     string
	Roster       Roster
	Library      *Library
	Pending      *Preview
	Session      *Session
	TimerSeconds int
}

func NewApp(lib *Library, timerSeconds int) *App {
	if timerSeconds <= 0 {
		timerSeconds = DefaultTimerSeconds
	}

	return &App{
		Screen:       ScreenIntro,
		Library:      lib,
		TimerSeconds: timerSeconds,
	}
}

func (a *App) SelectMode(m Mode) error {
	if a.Screen != ScreenIntro {
		return invalid("Finish or leave the current sprint before changing modes.")
	}

	switch m {
	case ModeSolo, ModeTeam:
		a.Mode = m
		return nil
	}

	return invalid("Please select a game mode (Solo or Team)")
}

func (a *App) ClearMode() {
	if a.Screen == ScreenIntro {
		a.Mode = ModeNone
	}
}

func (a *App) SetTeamName(name string) error {
	if a.Screen != ScreenIntro {
		return invalid("The team name can only be changed before the sprint starts.")
	}

	a.TeamName = strings.TrimSpace(name)

	return nil
}

func (a *App) AddMember(name string) error {
	if a.Screen != ScreenIntro {
		return invalid("Team members can only be changed before the sprint starts.")
	}

	return a.Roster.Add(name)
}

func (a *App) RemoveMember(name string) error {
	if a.Screen != ScreenIntro {
		return invalid("Team members can only be changed before the sprint starts.")
	}

	a.Roster.Remove(name)

	return nil
}

// StartSprint draws a challenge and begins a fresh session. It is also
// "try a new challenge" from the complete screen.
func (a *App) StartSprint(rng *rand.Rand) error {
	switch a.Mode {
	case ModeSolo:
	case ModeTeam:
		if a.TeamName == "" {
			return invalid("Please enter a team name")
		}
		if a.Roster.Len() == 0 {
			return invalid("Please add at least one team member")
		}
	default:
		return invalid("Please select a game mode (Solo or Team)")
	}

	c, err := a.Library.PickRandom(rng)
	if err != nil {
		return err
	}

	a.Session = newSession(a.Mode, a.TeamName, a.Roster.Members(), c, a.TimerSeconds)
	a.Screen = ScreenPlaying

	return nil
}

func (a *App) playing() (*Session, error) {
	if a.Screen != ScreenPlaying || a.Session == nil {
		return nil, invalid("Start a sprint first.")
	}
	return a.Session, nil
}

func (a *App) settle() {
	if a.Session != nil && a.Session.Phase == PhaseComplete {
		a.Session.Countdown.Stop()
		a.Screen = ScreenComplete
	}
}

// Submit hands free-text input to the current phase.
func (a *App) Submit(text, contributor string) error {
	s, err := a.playing()
	if err != nil {
		return err
	}

	if err := s.Submit(text, contributor); err != nil {
		return err
	}

	a.settle()

	return nil
}

func (a *App) ToggleIdea(i int) error {
	s, err := a.playing()
	if err != nil {
		return err
	}
	return s.ToggleIdea(i)
}

func (a *App) Advance() error {
	s, err := a.playing()
	if err != nil {
		return err
	}
	return s.Advance()
}

func (a *App) StartTimer() error {
	s, err := a.playing()
	if err != nil {
		return err
	}
	return s.StartTimer()
}

func (a *App) StopTimer() {
	if a.Session != nil {
		a.Session.StopTimer()
	}
}

// TimerRunning reports whether something should be calling Tick.
func (a *App) TimerRunning() bool {
	return a.Screen == ScreenPlaying && a.Session != nil && a.Session.Countdown.Active
}

// Tick applies one countdown second and reports whether it expired.
func (a *App) Tick() bool {
	if !a.TimerRunning() {
		return false
	}
	return a.Session.Tick()
}

// Exit discards the session and returns to the intro screen. The
// challenge library and team setup are kept.
func (a *App) Exit() {
	a.Session = nil
	a.Mode = ModeNone
	a.Screen = ScreenIntro
}

func (a *App) SetTimerDuration(seconds int) error {
	if seconds < MinTimerSeconds || seconds > MaxTimerSeconds {
		return invalid("The idea timer must be between %d seconds and %d minutes.", MinTimerSeconds, MaxTimerSeconds/60)
	}

	a.TimerSeconds = seconds

	return nil
}

func (a *App) AddChallenge(f Fields) (Challenge, error) {
	return a.Library.AddChallenge(f)
}

func (a *App) ToggleChallenge(id uuid.UUID) error {
	return a.Library.Toggle(id)
}

func (a *App) SelectAllChallenges() {
	a.Library.SelectAll()
}

func (a *App) DeselectAllChallenges() {
	a.Library.DeselectAll()
}

func (a *App) ExportChallenges(now time.Time) (string, []byte, error) {
	return a.Library.Export(now)
}

// ReceiveImport runs intake checks and validation on a selected file and
// holds the result as the pending preview.
func (a *App) ReceiveImport(name string, size int64, body []byte) (*Preview, error) {
	if err := CheckFile(name, size); err != nil {
		return nil, err
	}

	fields, err := ParseDocument(body)
	if err != nil {
		return nil, err
	}

	a.Pending = a.Library.Preview(fields)

	return a.Pending, nil
}

// ConfirmImport merges the pending preview, skipping duplicates.
func (a *App) ConfirmImport() (ImportResult, error) {
	if a.Pending == nil || len(a.Pending.Entries) == 0 {
		return ImportResult{}, invalid("No challenges to import.")
	}

	res := a.Library.Merge(a.Pending)
	a.Pending = nil

	return res, nil
}

func (a *App) CancelImport() {
	a.Pending = nil
}

// Results snapshots the current session for sharing.
func (a *App) Results(now time.Time) (Results, error) {
	if a.Session == nil {
		return Results{}, invalid("No results to download. Please complete a design sprint first.")
	}
	return a.Session.Results(now), nil
}

// DownloadResults renders the plain-text report and its filename.
func (a *App) DownloadResults(now time.Time) (string, []byte, error) {
	r, err := a.Results(now)
	if err != nil {
		return "", nil, err
	}

	return ResultsFilename(a.Session.TeamName, now), []byte(r.Report()), nil
}

// CopyResults puts the short summary on the clipboard.
func (a *App) CopyResults(now time.Time, cb Clipboard, fallback func(string) error, shareURL string) error {
	if a.Session == nil {
		return invalid("No results to copy. Please complete a design sprint first.")
	}

	return Copy(cb, fallback, a.Session.Results(now).Summary(shareURL))
}
