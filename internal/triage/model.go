package triage

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/openvex/lockaudit/internal/triage/details"
	"github.com/openvex/lockaudit/internal/triage/table"
	"github.com/openvex/lockaudit/pkg/formats"
)

type model struct {
	height, width int

	data formats.Normalized
	// shown is data, minus ignored matches unless showIgnored is set.
	shown formats.Normalized

	mode   Mode
	table  table.Model
	filter textinput.Model

	showDetails bool
	showIgnored bool
	details     details.Model
}

type Mode int

const (
	ModeDataScroll Mode = iota
	ModeFilterEntry
)

func New(data formats.Normalized) tea.Model {
	ms := slices.Clone(data.Matches)

	slices.SortStableFunc(ms, func(a, b formats.Match) int {
		if c := strings.Compare(a.Package.Name, b.Package.Name); c != 0 {
			return c
		}

		return strings.Compare(a.Vulnerability.DisplayID(), b.Vulnerability.DisplayID())
	})
	data.Matches = ms

	m := model{
		data:        data,
		mode:        ModeDataScroll,
		filter:      textinput.Model{},
		showIgnored: true,
	}

	return m.applyIgnoredFilter()
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {

	// Is it a key press?
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

		switch m.mode {
		case ModeDataScroll:
			switch msg.String() {

			case "q":
				return m, tea.Quit

			case "/":
				m.mode = ModeFilterEntry
				m.filter = newFilterTextInput()
				m.filter.Focus()
				m = m.updateComponentSizes()
				return m, textinput.Blink

			case "n":
				if expr := m.filter.Value(); expr != "" {
					updatedTable, err := m.table.FindNext()
					if err == table.NoMatchFound {
						return m, nil
					}

					m.table = updatedTable
					return m, nil
				}

			case "N":
				if expr := m.filter.Value(); expr != "" {
					updatedTable, err := m.table.FindPrevious()
					if err == table.NoMatchFound {
						return m, nil
					}

					m.table = updatedTable
					return m, nil
				}

			case "d":
				m.showDetails = !m.showDetails
				m = m.updateComponentSizes()
				return m, nil

			case "i":
				m.showIgnored = !m.showIgnored
				m = m.applyIgnoredFilter().updateComponentSizes()
				return m, nil
			}

			m.table, cmd = m.table.Update(msg)
			return m, cmd

		case ModeFilterEntry:
			if msg.String() == "enter" {
				expr := m.filter.Value()
				updatedTable, err := m.table.Find(expr)
				if err == table.NoMatchFound {
					return m, nil
				}

				m.table = updatedTable

				m.filter.Blur()
				m.mode = ModeDataScroll
				m = m.updateComponentSizes()
				return m, nil
			}

			if msg.String() == "esc" {
				m.filter.Blur()
				m.mode = ModeDataScroll
				m = m.updateComponentSizes()
				return m, nil
			}

			m.filter, cmd = m.filter.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.width = msg.Width

		m = m.updateComponentSizes()

		return m, nil
	}

	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

// applyIgnoredFilter rebuilds the table from the matches currently shown.
func (m model) applyIgnoredFilter() model {
	sel := formats.Select(m.data)
	if !m.showIgnored {
		sel = sel.WhereIgnored(false)
	}

	m.shown = m.data
	m.shown.Matches = sel.Matches()
	m.table = table.New(m.shown)

	return m
}

func (m model) updateComponentSizes() model {
	tableHeight, detailsHeight := m.expectedComponentHeights()

	m.table = m.table.SetHeight(tableHeight).SetWidth(m.width)
	m.details = m.details.SetHeight(detailsHeight).SetWidth(m.width)

	return m
}

func (m model) View() string {
	output := ""

	output += m.table.View()

	if m.mode == ModeFilterEntry {
		output += "\n" + m.filter.View()
	}

	if m.showDetails && len(m.shown.Matches) > 0 {
		selectedMatch := m.shown.Matches[m.table.IndexSelected()]
		output += "\n" + m.details.For(selectedMatch).View()
	}

	return output
}

func (m model) expectedComponentHeights() (table, details int) {
	table = m.height
	details = 0

	if m.showDetails {
		details = m.height / 2
		table = m.height - details
	}

	if m.mode == ModeFilterEntry {
		table = table - 1
	}

	return
}

func newFilterTextInput() textinput.Model {
	ti := textinput.New()
	ti.Prompt = "Find: "
	ti.Placeholder = "package or advisory"

	return ti
}
