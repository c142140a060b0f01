package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"kiln/internal/buildpipeline"
)

// stageInfo is how a working stage is shown and how far along a file in it
// counts.
var stageInfo = map[buildpipeline.Stage]struct {
	verb   string
	weight float64
}{
	buildpipeline.StageLoad:    {"loading", 0.05},
	buildpipeline.StageCompile: {"compiling", 0.3},
	buildpipeline.StageEmit:    {"emitting", 0.95},
	buildpipeline.StageRun:     {"running", 0.95},
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	workingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// row is the latest known state of one file.
type row struct {
	name    string
	stage   buildpipeline.Stage
	status  buildpipeline.Status
	elapsed time.Duration
	err     error
}

func (r row) label() string {
	if r.status == buildpipeline.StatusWorking {
		return stageInfo[r.stage].verb
	}
	return r.status.String()
}

func (r row) style() lipgloss.Style {
	switch r.status {
	case buildpipeline.StatusDone:
		return okStyle
	case buildpipeline.StatusError:
		return failStyle
	case buildpipeline.StatusWorking:
		return workingStyle
	}
	return idleStyle
}

// progress is the completed fraction of the file. A failed file is
// finished; a file that compiled clean still has its IR to write.
func (r row) progress() float64 {
	switch r.status {
	case buildpipeline.StatusError:
		return 1
	case buildpipeline.StatusDone:
		switch r.stage {
		case buildpipeline.StageEmit, buildpipeline.StageRun:
			return 1
		case buildpipeline.StageCompile:
			return 0.9
		}
		return 0.1
	case buildpipeline.StatusWorking:
		return stageInfo[r.stage].weight
	}
	return 0
}

func (r row) finished() bool {
	return r.status == buildpipeline.StatusError ||
		(r.status == buildpipeline.StatusDone && r.stage != buildpipeline.StageLoad)
}

type progressModel struct {
	title   string
	events  <-chan buildpipeline.Event
	spinner spinner.Model
	bar     progress.Model
	rows    []row
	byName  map[string]int
	width   int
	done    bool
}

type eventMsg buildpipeline.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders build progress
// for files until events is closed.
func NewProgressModel(title string, files []string, events <-chan buildpipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = workingStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		rows:    make([]row, len(files)),
		byName:  make(map[string]int, len(files)),
		width:   80,
	}
	for i, f := range files {
		m.rows[i] = row{name: f, status: buildpipeline.StatusQueued}
		m.byName[f] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(buildpipeline.Event(msg)), m.next())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

// apply records ev on its file's row. Events for unknown files are ignored.
func (m *progressModel) apply(ev buildpipeline.Event) tea.Cmd {
	i, ok := m.byName[ev.File]
	if !ok {
		return nil
	}
	r := &m.rows[i]
	r.stage, r.status = ev.Stage, ev.Status
	if ev.Elapsed > 0 {
		r.elapsed = ev.Elapsed
	}
	if ev.Status == buildpipeline.StatusError {
		r.err = ev.Err
	}
	return m.bar.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range m.rows {
		total += r.progress()
	}
	return total / float64(len(m.rows))
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	finished := 0
	for _, r := range m.rows {
		if r.finished() {
			finished++
		}
	}
	header := fmt.Sprintf("%s  %d/%d", m.title, finished, len(m.rows))
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")
	nameWidth := max(m.width-16, 20)
	for _, r := range m.rows {
		b.WriteString("  ")
		b.WriteString(r.style().Render(fmt.Sprintf("%12s", r.label())))
		b.WriteString(" ")
		b.WriteString(truncate(r.name, nameWidth))
		if r.elapsed > 0 {
			b.WriteString(dimStyle.Render("  " + r.elapsed.Round(time.Millisecond).String()))
		}
		if r.err != nil {
			b.WriteString("  " + failStyle.Render(truncate(r.err.Error(), 40)))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

// Summary renders the one-line outcome of a build.
func Summary(built, broken int, elapsed time.Duration) string {
	line := okStyle.Bold(true).Render(fmt.Sprintf("%d built", built))
	if broken > 0 {
		line += ", " + failStyle.Bold(true).Render(fmt.Sprintf("%d failed", broken))
	}
	return line + dimStyle.Render(" in "+elapsed.Round(time.Millisecond).String())
}

// truncate shortens value to width display cells, ending in "..." when
// there is room for it.
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
