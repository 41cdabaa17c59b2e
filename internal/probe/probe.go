// Package probe is a terminal monitor for a trajectory load: it runs
// the same load sequence the viewer runs, without opening a window,
// and shows the metadata, per-geometry field inventory, chunk progress
// and the diagnostic tail as they arrive.
package probe

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/trajview/internal/diag"
	"github.com/san-kum/trajview/internal/loader"
	"github.com/san-kum/trajview/internal/scene"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

const diagTail = 8

type model struct {
	session *loader.Session
	log     *diag.Log
	source  string

	loadErr error
	done    bool
	width   int
}

type tickMsg time.Time

type loadDoneMsg struct{ err error }

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// New builds the probe model. The load itself is started by Run.
func New(session *loader.Session, log *diag.Log, source string) tea.Model {
	return model{session: session, log: log, source: source, width: 80}
}

// Run drives the TUI; the load runs on its own goroutine and posts a
// completion message back into the program.
func Run(session *loader.Session, log *diag.Log, source string, load func() error) error {
	p := tea.NewProgram(New(session, log, source))
	go func() {
		p.Send(loadDoneMsg{err: load()})
	}()
	_, err := p.Run()
	return err
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case loadDoneMsg:
		m.done = true
		m.loadErr = msg.err
		return m, nil
	case tickMsg:
		if m.done {
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("   " + cyan.Render("trajview probe") + "  " + dim.Render(m.source) + "\n")
	b.WriteString(dimmer.Render("   "+strings.Repeat("─", 40)) + "\n\n")

	m.viewStatus(&b)
	m.viewMetadata(&b)
	m.viewGeometries(&b)
	m.viewDiagnostics(&b)

	b.WriteString("\n" + dim.Render("   q quit") + "\n")
	return b.String()
}

func (m model) viewStatus(b *strings.Builder) {
	done, total := m.session.Progress()

	switch {
	case m.loadErr != nil:
		b.WriteString("   " + red.Render("●") + " " + red.Render("failed") + "  " + dim.Render(m.loadErr.Error()) + "\n")
	case m.done:
		b.WriteString("   " + green.Render("●") + " " + green.Render("loaded") + "\n")
	default:
		b.WriteString("   " + yellow.Render("○") + " " + yellow.Render("loading") + "\n")
	}

	barWidth := 36
	filled := 0
	if total > 0 {
		filled = int(float64(done) / float64(total) * float64(barWidth))
		if filled > barWidth {
			filled = barWidth
		}
	}
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	b.WriteString(fmt.Sprintf("   %s %s\n\n", bar, dim.Render(fmt.Sprintf("%d/%d chunks", done, total))))
}

func (m model) viewMetadata(b *strings.Builder) {
	// The table is written by the load goroutine; it is safe to read
	// only after the loaded flag flips. Until then the progress bar
	// and diagnostics, which have their own synchronization, carry
	// the display.
	if !m.session.Loaded() {
		b.WriteString(dim.Render("   waiting for metadata") + "\n\n")
		return
	}
	meta := m.session.Table().Meta
	if meta == nil {
		b.WriteString(dim.Render("   no usable metadata") + "\n\n")
		return
	}

	box := make([]string, len(meta.BoxSize))
	for i, v := range meta.BoxSize {
		box[i] = fmt.Sprintf("%.3g", v)
	}
	b.WriteString("   " + dim.Render(fmt.Sprintf("%-12s", "dimension")) + white.Render(fmt.Sprintf("%d", meta.Dimension)) + "\n")
	b.WriteString("   " + dim.Render(fmt.Sprintf("%-12s", "frames")) + white.Render(fmt.Sprintf("%d", meta.FrameCount)) + "\n")
	b.WriteString("   " + dim.Render(fmt.Sprintf("%-12s", "chunk size")) + white.Render(fmt.Sprintf("%d", meta.ChunkSize)) + "\n")
	b.WriteString("   " + dim.Render(fmt.Sprintf("%-12s", "box")) + white.Render(strings.Join(box, " × ")) + "\n\n")
}

func (m model) viewGeometries(b *strings.Builder) {
	if !m.session.Loaded() {
		return
	}
	table := m.session.Table()
	if len(table.Geometries) == 0 {
		return
	}
	for _, g := range table.Geometries {
		b.WriteString("   " + cyan.Render(g.Name) + "  " +
			dim.Render(fmt.Sprintf("%s, %d instances", g.Shape, g.Count)) + "\n")
		for _, name := range sortedFields(g) {
			f := g.Fields[name]
			b.WriteString("     " + dim.Render(fmt.Sprintf("%-14s", name)) +
				dimmer.Render(fmt.Sprintf("%-8s", f.Class)) +
				dimmer.Render(fmt.Sprintf("%d comp, %d values", f.Components, len(f.Data))) + "\n")
		}
	}
	b.WriteString("\n")
}

func (m model) viewDiagnostics(b *strings.Builder) {
	entries := m.log.Entries()
	if len(entries) == 0 {
		b.WriteString("   " + green.Render("no diagnostics") + "\n")
		return
	}
	b.WriteString("   " + yellow.Render(fmt.Sprintf("%d diagnostic(s)", len(entries))) + "\n")
	start := 0
	if len(entries) > diagTail {
		start = len(entries) - diagTail
		b.WriteString(dimmer.Render(fmt.Sprintf("     … %d earlier", start)) + "\n")
	}
	for _, e := range entries[start:] {
		b.WriteString("     " + yellow.Render(e.Kind.String()) + dim.Render(": "+e.Msg) + "\n")
	}
}

func sortedFields(g *scene.Geometry) []string {
	names := make([]string, 0, len(g.Fields))
	for name := range g.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
