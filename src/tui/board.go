// Package tui provides the terminal status board for the notify bot.
// It lists the last known build status of every job in the status store.
package tui

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"jenkins-notify-bot/src/contracts"
)

// loadTimeout bounds one read of the status store.
const loadTimeout = 10 * time.Second

// Loader reads the current statuses. store.Store.Load satisfies it.
type Loader func(ctx context.Context) (map[string]contracts.BuildStatus, error)

type statusesLoadedMsg struct {
	statuses map[string]contracts.BuildStatus
	err      error
	at       time.Time
}

// Model is the Bubble Tea model for the status board.
type Model struct {
	load     Loader
	list     list.Model
	delegate *Delegate
	header   Header
	styles   *StyleConfig

	items       []Item
	failingOnly bool
	err         error

	width  int
	height int
	ready  bool
}

// NewModel creates a board that reads from load. source is shown in the header.
func NewModel(source string, load Loader) Model {
	styles := DefaultStyles()
	delegate := NewDelegate(styles)

	l := list.New([]list.Item{}, &delegate, 0, 0)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return Model{
		load:     load,
		list:     l,
		delegate: &delegate,
		header:   NewHeader(source, styles),
		styles:   styles,
	}
}

// Init loads the statuses for the first time.
func (m Model) Init() tea.Cmd {
	return m.reload()
}

func (m Model) reload() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		statuses, err := load(ctx)
		return statusesLoadedMsg{statuses: statuses, err: err, at: time.Now()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case statusesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.items = SortedItems(msg.statuses)
		failing := 0
		for _, item := range m.items {
			if item.Failing() {
				failing++
			}
		}
		m.header.SetCounts(len(m.items), failing, msg.at)
		m.applyFilter()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.reload()
		case "tab", "f":
			m.failingOnly = !m.failingOnly
			m.header.SetFailingOnly(m.failingOnly)
			m.applyFilter()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Visible returns the items currently listed.
func (m Model) Visible() []Item {
	out := make([]Item, 0, len(m.list.Items()))
	for _, li := range m.list.Items() {
		if item, ok := li.(Item); ok {
			out = append(out, item)
		}
	}
	return out
}

func (m *Model) applyFilter() {
	visible := make([]Item, 0, len(m.items))
	for _, item := range m.items {
		if m.failingOnly && !item.Failing() {
			continue
		}
		visible = append(visible, item)
	}

	m.delegate.SetJobWidth(visible)
	listItems := make([]list.Item, len(visible))
	for i, item := range visible {
		listItems[i] = item
	}
	m.list.SetItems(listItems)
}

func (m *Model) resize() {
	headerHeight := lipgloss.Height(m.header.Render(m.width))
	// header + help line (1) + panel borders (2)
	listHeight := max(1, m.height-headerHeight-1-2)
	m.list.SetSize(max(0, m.width-2), listHeight)
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Loading build statuses..."
	}

	header := m.header.Render(m.width)

	var body string
	switch {
	case m.err != nil:
		body = lipgloss.NewStyle().Foreground(m.styles.Failure).Padding(1, 2).
			Render(fmt.Sprintf("Failed to load build statuses: %v", m.err))
	case len(m.list.Items()) == 0:
		body = lipgloss.NewStyle().Foreground(m.styles.TextSecondary).Padding(1, 2).
			Render("No jobs to show.")
	default:
		body = m.styles.ListStyle().Render(m.list.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderHelpText())
}

func (m Model) renderHelpText() string {
	keyStyle := lipgloss.NewStyle().Foreground(m.styles.PrimaryBlue).Bold(true)
	sepStyle := lipgloss.NewStyle().Foreground(m.styles.TextSecondary)

	helpText := fmt.Sprintf("%s: Nav %s %s: Failing/All %s %s: Reload %s %s: Quit",
		keyStyle.Render("j/k"), sepStyle.Render("•"),
		keyStyle.Render("Tab"), sepStyle.Render("•"),
		keyStyle.Render("r"), sepStyle.Render("•"),
		keyStyle.Render("q"))

	return m.styles.HelpStyle().Render(helpText)
}

// SortedItems orders jobs with failing builds first, then by name.
func SortedItems(statuses map[string]contracts.BuildStatus) []Item {
	items := make([]Item, 0, len(statuses))
	for _, s := range statuses {
		items = append(items, Item{Status: s})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Failing() != items[j].Failing() {
			return items[i].Failing()
		}
		return items[i].Status.JobName < items[j].Status.JobName
	})
	return items
}

// Run starts the board in the alternate screen and blocks until the user quits.
func Run(source string, load Loader) error {
	p := tea.NewProgram(NewModel(source, load), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
