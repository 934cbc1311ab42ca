// Package ui renders the interactive progress list for batch runs.
package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"r42/internal/driver"
)

// maxRows bounds the file list; busy and recently finished files win.
const maxRows = 12

const statusWidth = 10

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Faint(true)

	statusColors = map[driver.Status]lipgloss.Color{
		driver.StatusWorking:   "6",
		driver.StatusWritten:   "2",
		driver.StatusUnchanged: "2",
		driver.StatusDryRun:    "3",
		driver.StatusSkipped:   "3",
		driver.StatusFailed:    "1",
	}

	tallyOrder = []driver.Status{
		driver.StatusWritten, driver.StatusUnchanged, driver.StatusDryRun, driver.StatusSkipped, driver.StatusFailed,
	}
)

func statusStyle(s driver.Status) lipgloss.Style {
	c, ok := statusColors[s]
	if !ok {
		c = "7"
	}
	return lipgloss.NewStyle().Foreground(c)
}

type row struct {
	path   string
	status driver.Status
	err    string
	// touched orders rows by their last status change.
	touched int
}

type progressModel struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	bar     progress.Model

	rows   []row
	byPath map[string]int
	tally  map[driver.Status]int
	clock  int
	width  int
	done   bool
}

type (
	eventMsg driver.Event
	doneMsg  struct{}
)

// NewProgressModel lists files with their live status until events closes.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	m := &progressModel{
		title:   title,
		events:  events,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(statusStyle(driver.StatusWorking))),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(76)),
		rows:    make([]row, 0, len(files)),
		byPath:  make(map[string]int, len(files)),
		tally:   map[driver.Status]int{},
		width:   80,
	}
	for _, f := range files {
		m.byPath[f] = len(m.rows)
		m.rows = append(m.rows, row{path: f, status: driver.StatusQueued})
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case eventMsg:
		cmd = tea.Batch(m.applyEvent(driver.Event(msg)), m.listenForEvent())
	case doneMsg:
		m.done = true
		cmd = tea.Quit
	case spinner.TickMsg:
		if !m.done {
			m.spinner, cmd = m.spinner.Update(msg)
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
	case progress.FrameMsg:
		var next tea.Model
		next, cmd = m.bar.Update(msg)
		m.bar = next.(progress.Model)
	}
	return m, cmd
}

func (m *progressModel) finished() int {
	n := 0
	for _, c := range m.tally {
		n += c
	}
	return n
}

func (m *progressModel) header() string {
	h := fmt.Sprintf("%s (%d/%d)", m.title, m.finished(), len(m.rows))
	if n := m.tally[driver.StatusFailed]; n > 0 {
		h += fmt.Sprintf(", %d failed", n)
	}
	if m.done {
		return "done: " + h
	}
	return m.spinner.View() + " " + h
}

// visible picks the rows to draw: working files first, then the most
// recently updated, then queued ones in input order.
func (m *progressModel) visible() []row {
	if len(m.rows) <= maxRows {
		return m.rows
	}
	var busy, recent, queued []row
	for _, r := range m.rows {
		switch {
		case r.status == driver.StatusWorking:
			busy = append(busy, r)
		case r.status.Final():
			recent = append(recent, r)
		default:
			queued = append(queued, r)
		}
	}
	slices.SortFunc(recent, func(a, b row) int { return b.touched - a.touched })
	out := append(busy, recent...)
	out = append(out, queued...)
	return out[:maxRows]
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.header()))
	b.WriteString("\n\n")

	nameWidth := max(m.width-statusWidth-4, 20)
	shown := m.visible()
	for _, r := range shown {
		label := statusStyle(r.status).Render(fmt.Sprintf("%*s", statusWidth, r.status))
		fmt.Fprintf(&b, "  %s %s\n", label, truncate(r.path, nameWidth))
		if r.err != "" {
			fmt.Fprintf(&b, "  %*s %s\n", statusWidth, "", errStyle.Render(truncate(r.err, nameWidth)))
		}
	}
	if hidden := len(m.rows) - len(shown); hidden > 0 {
		fmt.Fprintf(&b, "  %*s ... %d more\n", statusWidth, "", hidden)
	}

	var parts []string
	for _, s := range tallyOrder {
		if n := m.tally[s]; n > 0 {
			parts = append(parts, statusStyle(s).Render(fmt.Sprintf("%d %s", n, s)))
		}
	}
	if len(parts) > 0 {
		b.WriteString("\n  " + strings.Join(parts, "  "))
	}
	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		if ev, ok := <-m.events; ok {
			return eventMsg(ev)
		}
		return doneMsg{}
	}
}

// applyEvent records a status change. Once a file reaches a final status
// later events for it are ignored.
func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	i, ok := m.byPath[ev.File]
	if !ok || m.rows[i].status.Final() {
		return nil
	}
	m.clock++
	r := &m.rows[i]
	r.status, r.touched = ev.Status, m.clock
	if ev.Err != nil {
		r.err = ev.Err.Error()
	}
	if !ev.Status.Final() {
		return nil
	}
	m.tally[ev.Status]++
	return m.bar.SetPercent(float64(m.finished()) / float64(len(m.rows)))
}

func truncate(value string, width int) string {
	switch {
	case width <= 0 || runewidth.StringWidth(value) <= width:
		return value
	case width <= 3:
		return runewidth.Truncate(value, width, "")
	default:
		return runewidth.Truncate(value, width, "...")
	}
}
