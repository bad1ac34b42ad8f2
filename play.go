package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	mrand "math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Seednode/designsprint/games/sprint"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return sprint.ErrClipboardUnavailable
	}
	return clipboardWriteAll(text)
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E8453C"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E8453C"))
)

type tickMsg struct {
	gen int
}

type playModel struct {
	cfg       *Config
	app       *sprint.App
	rng       *mrand.Rand
	input     textinput.Model
	renderer  *glamour.TermRenderer
	clipboard sprint.Clipboard

	notice  string
	success bool
	tickGen int
	width   int

	// fallback holds summaries the clipboard could not take. They are
	// printed once the program exits.
	fallback []string

	now      func() time.Time
	saveFile func(name string, body []byte) error
}

func newPlayModel(cfg *Config, app *sprint.App, renderer *glamour.TermRenderer) *playModel {
	ti := textinput.New()
	ti.CharLimit = 2000
	ti.Width = 72
	ti.Focus()

	m := &playModel{
		cfg:       cfg,
		app:       app,
		rng:       mrand.New(mrand.NewSource(time.Now().UnixNano())),
		input:     ti,
		renderer:  renderer,
		clipboard: systemClipboard{},
		width:     80,
		now:       time.Now,
		saveFile: func(name string, body []byte) error {
			return os.WriteFile(name, body, 0o644)
		},
	}
	m.refreshPrompt()

	return m
}

func (m *playModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *playModel) tick() tea.Cmd {
	gen := m.tickGen
	return tea.Tick(m.cfg.tickInterval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m *playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(20, msg.Width-4)
		return m, nil

	case tickMsg:
		if msg.gen != m.tickGen || !m.app.TimerRunning() {
			return m, nil
		}
		if m.app.Tick() {
			m.say("Time's up!", true)
		}
		m.refreshPrompt()
		if m.app.TimerRunning() {
			return m, m.tick()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit

		case tea.KeyEsc:
			switch {
			case m.app.Screen != sprint.ScreenIntro:
				m.app.Exit()
			case m.app.Mode != sprint.ModeNone:
				m.app.ClearMode()
			default:
				return m, tea.Quit
			}
			m.clearNotice()
			m.refreshPrompt()
			return m, nil

		case tea.KeyCtrlT:
			cmd := m.toggleTimer()
			m.refreshPrompt()
			return m, cmd

		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			cmd := m.submit(text)
			m.refreshPrompt()
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *playModel) say(text string, success bool) {
	m.notice = text
	m.success = success
}

func (m *playModel) clearNotice() {
	m.notice = ""
}

// fail shows err to the player and reports whether there was one.
func (m *playModel) fail(err error) bool {
	if err == nil {
		m.clearNotice()
		return false
	}

	n := sprint.AsNotice(err)
	if n.Kind == sprint.KindInternal {
		errorf(m.cfg, "PLAY: %v", err)
	}
	m.say(n.Message, false)

	return true
}

func (m *playModel) toggleTimer() tea.Cmd {
	if m.app.TimerRunning() {
		m.app.StopTimer()
		m.say("Timer paused.", true)
		return nil
	}

	if m.fail(m.app.StartTimer()) {
		return nil
	}

	m.tickGen++
	return m.tick()
}

func (m *playModel) submit(text string) tea.Cmd {
	switch m.app.Screen {
	case sprint.ScreenIntro:
		m.submitIntro(text)
	case sprint.ScreenPlaying:
		m.submitPlaying(text)
	case sprint.ScreenComplete:
		return m.submitComplete(text)
	}

	return nil
}

func (m *playModel) submitIntro(text string) {
	app := m.app

	if app.Mode == sprint.ModeNone {
		switch strings.ToLower(text) {
		case "s", "solo":
			if !m.fail(app.SelectMode(sprint.ModeSolo)) {
				m.fail(app.StartSprint(m.rng))
			}
		case "t", "team":
			m.fail(app.SelectMode(sprint.ModeTeam))
		default:
			m.say("Type s for a solo sprint or t for a team sprint.", false)
		}
		return
	}

	switch {
	case app.TeamName == "":
		if text == "" {
			m.say("Please enter a team name", false)
			return
		}
		m.fail(app.SetTeamName(text))
	case text == "":
		m.fail(app.StartSprint(m.rng))
	case strings.HasPrefix(text, "-"):
		m.fail(app.RemoveMember(strings.TrimPrefix(text, "-")))
	default:
		m.fail(app.AddMember(text))
	}
}

// contributorOf splits "Name: idea" when Name is on the roster.
func contributorOf(members []string, text string) (string, string) {
	name, idea, ok := strings.Cut(text, ":")
	if !ok {
		return "", text
	}

	name = strings.TrimSpace(name)
	for _, member := range members {
		if strings.EqualFold(member, name) {
			return member, strings.TrimSpace(idea)
		}
	}

	return "", text
}

func (m *playModel) submitPlaying(text string) {
	s := m.app.Session

	switch s.Phase {
	case sprint.PhaseIdeate:
		if text == "" {
			m.fail(m.app.Advance())
			return
		}
		contributor, idea := contributorOf(s.Members, text)
		m.fail(m.app.Submit(idea, contributor))

	case sprint.PhaseSelect:
		if text == "" {
			m.fail(m.app.Advance())
			return
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			m.say("Type an idea number to select it, or press Enter to continue.", false)
			return
		}
		m.fail(m.app.ToggleIdea(n - 1))

	default:
		m.fail(m.app.Submit(text, ""))
	}
}

func (m *playModel) submitComplete(text string) tea.Cmd {
	switch strings.ToLower(text) {
	case "d":
		name, body, err := m.app.DownloadResults(m.now())
		if m.fail(err) {
			return nil
		}
		if err := m.saveFile(name, body); err != nil {
			m.fail(&sprint.Notice{Kind: sprint.KindEnvironment, Message: "Failed to save results: " + err.Error()})
			return nil
		}
		m.say("Results saved to "+name, true)

	case "c":
		fellBack := false
		err := m.app.CopyResults(m.now(), m.clipboard, func(text string) error {
			m.fallback = append(m.fallback, text)
			fellBack = true
			return nil
		}, "")
		switch {
		case m.fail(err):
		case fellBack:
			m.say("No clipboard available. The summary will be printed when you quit.", true)
		default:
			m.say("Results copied to clipboard!", true)
		}

	case "n":
		m.fail(m.app.StartSprint(m.rng))

	case "q":
		return tea.Quit

	default:
		m.say("Type d to download, c to copy, n for a new challenge or q to quit.", false)
	}

	return nil
}

func (m *playModel) refreshPrompt() {
	app := m.app

	switch app.Screen {
	case sprint.ScreenIntro:
		switch {
		case app.Mode == sprint.ModeNone:
			m.input.Placeholder = "s = solo, t = team"
		case app.TeamName == "":
			m.input.Placeholder = "Team name"
		default:
			m.input.Placeholder = "Add a member (-name removes, Enter starts)"
		}
	case sprint.ScreenPlaying:
		switch p := app.Session.Phase; p {
		case sprint.PhaseIdeate:
			if app.Mode == sprint.ModeTeam {
				m.input.Placeholder = "Name: idea (Enter on empty continues)"
			} else {
				m.input.Placeholder = p.Guide().Placeholder
			}
		case sprint.PhaseSelect:
			m.input.Placeholder = "Idea number (Enter on empty continues)"
		default:
			m.input.Placeholder = p.Guide().Placeholder
		}
	case sprint.ScreenComplete:
		m.input.Placeholder = "d, c, n or q"
	}
}

func (m *playModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Design Sprint"))
	b.WriteString("\n\n")

	switch m.app.Screen {
	case sprint.ScreenIntro:
		b.WriteString(m.viewIntro())
	case sprint.ScreenPlaying:
		b.WriteString(m.viewPlaying())
	case sprint.ScreenComplete:
		b.WriteString(m.viewComplete())
	}

	if m.notice != "" {
		style := errorStyle
		if m.success {
			style = successStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("esc back • ctrl+t timer • ctrl+c quit"))
	b.WriteString("\n")

	return b.String()
}

func (m *playModel) viewIntro() string {
	app := m.app
	var b strings.Builder

	enabled := len(app.Library.Enabled())
	fmt.Fprintf(&b, "%d of %d challenges enabled.\n\n", enabled, len(app.Library.All()))

	switch app.Mode {
	case sprint.ModeNone:
		b.WriteString("Play solo or as a team?\n")
	case sprint.ModeTeam:
		name := app.TeamName
		if name == "" {
			name = mutedStyle.Render("(not set)")
		}
		fmt.Fprintf(&b, "Team: %s\n", name)
		members := app.Roster.Members()
		if len(members) == 0 {
			b.WriteString(mutedStyle.Render("No members yet.") + "\n")
		}
		for _, member := range members {
			fmt.Fprintf(&b, "  • %s\n", member)
		}
	}

	return b.String()
}

func (m *playModel) viewPlaying() string {
	s := m.app.Session
	guide := s.Phase.Guide()
	var b strings.Builder

	fmt.Fprintf(&b, "Phase %d of 5: %s    %d points\n\n", int(s.Phase)+1, guide.Name, s.Score)

	c := s.Challenge
	b.WriteString(cardStyle.Render(fmt.Sprintf("%s\n%s\nPersona: %s\nPain point: %s\n%s",
		titleStyle.Render(c.Title), c.Description, c.Persona, c.PainPoint, mutedStyle.Render(c.Topic))))
	b.WriteString("\n\n")

	b.WriteString(guide.Instruction + "\n")
	b.WriteString(mutedStyle.Render("Tip: "+guide.Tip) + "\n")

	if s.HMW != "" && s.Phase > sprint.PhaseEmpathize {
		fmt.Fprintf(&b, "\nHow might we: %s\n", s.HMW)
	}

	if s.Phase == sprint.PhaseIdeate {
		state := "paused"
		if s.Countdown.Active {
			state = "running"
		}
		fmt.Fprintf(&b, "\nTimer %s (%s) • %d/%d ideas\n", s.Countdown.Clock(), state, len(s.Ideas), sprint.MinIdeas)
	}

	if s.Phase == sprint.PhaseIdeate || s.Phase == sprint.PhaseSelect {
		b.WriteString("\n")
		for i, idea := range s.Ideas {
			line := fmt.Sprintf("%2d. %s", i+1, idea)
			if s.IsSelected(i) {
				line = selectedStyle.Render(line + "  ★")
			}
			b.WriteString(line + "\n")
		}
	}

	if s.Phase == sprint.PhaseSelect {
		fmt.Fprintf(&b, "\n%d/%d selected\n", len(s.Selected), sprint.MaxSelected)
	}

	return b.String()
}

func (m *playModel) viewComplete() string {
	r, err := m.app.Results(m.now())
	if err != nil {
		return ""
	}

	out := r.Report()
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(r.Markdown()); err == nil {
			out = rendered
		}
	}

	return out + "\n" + "d download • c copy summary • n new challenge • q quit\n"
}

// importFile runs a challenge export file through preview and confirm.
func importFile(app *sprint.App, path string) (sprint.ImportResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return sprint.ImportResult{}, err
	}

	if err := sprint.CheckFile(filepath.Base(path), info.Size()); err != nil {
		return sprint.ImportResult{}, err
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return sprint.ImportResult{}, err
	}

	if _, err := app.ReceiveImport(filepath.Base(path), info.Size(), body); err != nil {
		return sprint.ImportResult{}, err
	}

	return app.ConfirmImport()
}

func runPlay(ctx context.Context, cfg *Config, importPaths []string, out io.Writer) error {
	lib, err := sprint.NewLibrary(cfg.builtin)
	if err != nil {
		return err
	}

	app := sprint.NewApp(lib, cfg.timerSeconds())

	for _, path := range importPaths {
		res, err := importFile(app, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(out, "%s: %s\n", path, res.Message())
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		logf(cfg, "PLAY: Falling back to plain results: %v", err)
	}

	m := newPlayModel(cfg, app, renderer)

	_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	for _, text := range m.fallback {
		fmt.Fprintf(out, "\n%s\n", text)
	}

	return nil
}

func newPlayCmd(cfg *Config) *cobra.Command {
	var imports []string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a design sprint in the terminal.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), cfg, imports, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringArrayVar(&imports, "import", nil, "challenge export file to add before playing (repeatable)")

	return cmd
}
