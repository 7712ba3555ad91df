// Package tui is a terminal reader that searches the corpus as the user
// types.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/FocuswithJustin/JuniperQuran/core/quran"
	"github.com/FocuswithJustin/JuniperQuran/internal/logging"
	"github.com/FocuswithJustin/JuniperQuran/internal/server"
)

// DefaultLimit bounds the number of ayat rendered per query.
const DefaultLimit = 200

// Model is the Bubble Tea model for the reader.
type Model struct {
	corpus   *quran.Corpus
	limit    int
	input    textinput.Model
	viewport viewport.Model
	results  []result
	total    int
	query    string
	status   string
	ready    bool
}

type result struct {
	sura, aya int
	name      string
	text      string
}

// New creates a model over c. A limit of zero or less uses DefaultLimit.
func New(c *quran.Corpus, limit int) Model {
	if limit <= 0 {
		limit = DefaultLimit
	}
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type to search, or a reference such as 2:255 and Enter"
	ti.Focus()
	ti.CharLimit = server.MaxQueryLength

	m := Model{
		corpus:   c,
		limit:    limit,
		input:    ti,
		viewport: viewport.New(0, 0),
	}
	m.search("")
	return m
}

// Run starts the full-screen program and blocks until the user quits.
func Run(c *quran.Corpus, limit int) error {
	_, err := tea.NewProgram(New(c, limit), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, status, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.render())
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.lookup(strings.TrimSpace(m.input.Value()))
			m.viewport.SetContent(m.render())
			m.viewport.GotoTop()
			return m, nil
		case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := m.input.Value(); q != m.query {
		m.search(q)
		m.viewport.SetContent(m.render())
		m.viewport.GotoTop()
	}
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Quran Reader")
	summary := dimStyle.Render(fmt.Sprintf("%d suras, %d ayat", m.corpus.Len(), m.corpus.VerseCount()))
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

// search recomputes the listing for q. The empty query lists every aya.
func (m *Model) search(q string) {
	m.query = q
	query, err := server.SanitizeQuery(q)
	if err != nil {
		m.total, m.results = 0, nil
		m.status = err.Error()
		return
	}

	start := time.Now()
	m.collect(m.corpus.Search(query))
	logging.SearchPerformed(context.Background(), "tui", query, m.total, time.Since(start))

	switch {
	case m.total == 0:
		m.status = fmt.Sprintf("No ayat match %q", q)
	case m.total > len(m.results):
		m.status = fmt.Sprintf("%d matches, showing the first %d", m.total, len(m.results))
	default:
		m.status = fmt.Sprintf("%d matches", m.total)
	}
}

// lookup shows the ayat named by a reference. Input that is not a
// reference leaves the search listing in place.
func (m *Model) lookup(s string) {
	ref, err := quran.ParseRef(s)
	if err != nil {
		return
	}
	subset, ok := m.corpus.Lookup(ref)
	if !ok {
		m.status = fmt.Sprintf("Reference %s is outside the corpus", ref)
		return
	}
	m.collect(subset)
	m.status = fmt.Sprintf("Reference %s", ref)
}

func (m *Model) collect(s quran.Subset) {
	m.total = s.Len()
	m.results = nil
	for sc := range s.Chapters() {
		for _, match := range sc.Matches() {
			if len(m.results) == m.limit {
				return
			}
			m.results = append(m.results, result{sura: sc.Number, aya: match.Number, name: sc.Chapter.Name, text: match.Text})
		}
	}
}

func (m Model) render() string {
	if len(m.results) == 0 {
		return dimStyle.Render("Nothing to show.")
	}
	var b strings.Builder
	sura := 0
	for _, r := range m.results {
		if r.sura != sura {
			if sura != 0 {
				b.WriteString("\n")
			}
			sura = r.sura
			b.WriteString(suraStyle.Render(fmt.Sprintf("%d. %s", r.sura, r.name)))
			b.WriteString("\n")
		}
		b.WriteString(refStyle.Render(fmt.Sprintf("%d:%d", r.sura, r.aya)))
		b.WriteString(" ")
		b.WriteString(r.text)
		b.WriteString("\n")
	}
	return b.String()
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	suraStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	refStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
