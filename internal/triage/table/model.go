package table

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openvex/lockaudit/pkg/formats"
)

const (
	minWidthPackage = 36
	widthVersion    = 22
	widthAdvisory   = 24
	widthStatus     = 12

	// selection marker
	widthGutter = 2
)

const (
	hexNotSelected = "#777777"
	hexSelected    = "#FFFFFF"
	hexIgnored     = "#4E4E4E"
)

const notFound = -1

var NoMatchFound = errors.New("no row matched expression")

var (
	styleHeaderRow          = lipgloss.NewStyle().Foreground(lipgloss.Color(hexNotSelected)).Bold(true)
	styleDataRowNotSelected = lipgloss.NewStyle().Foreground(lipgloss.Color(hexNotSelected))
	styleDataRowIgnored     = lipgloss.NewStyle().Foreground(lipgloss.Color(hexIgnored)).Strikethrough(true)
	styleDataRowSelected    = lipgloss.NewStyle().Foreground(lipgloss.Color(hexSelected))
)

// Model is a scrolling list of advisory matches with one selected row.
type Model struct {
	windowStart    int
	windowSize     int
	rowSelected    int
	width          int
	findExpression string

	data formats.Normalized
}

func New(data formats.Normalized) Model {
	return Model{
		windowSize: 10,
		data:       data,
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if keyMsg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch keyMsg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		return m.selectAndShowRow(max(m.rowSelected-1, 0)), nil
	case "down", "j":
		return m.selectAndShowRow(max(min(m.rowSelected+1, m.lastRowIndex()), 0)), nil
	case "g":
		return m.selectAndShowRow(0), nil
	case "G":
		return m.selectAndShowRow(max(m.lastRowIndex(), 0)), nil
	case "w":
		return m.pageUp(), nil
	case "z":
		return m.pageDown(), nil
	}

	return m, nil
}

func (m Model) View() string {
	output := m.renderHeaderRow()

	if len(m.data.Matches) == 0 {
		return output + "  No advisories to show.\n"
	}

	for i := m.windowStart; i < m.windowStart+m.windowSize; i++ {
		if i > m.lastRowIndex() {
			output += "\n"
			continue
		}

		output += m.renderDataRow(m.data.Matches[i], i == m.rowSelected)
	}

	return output
}

func (m Model) SetHeight(h int) Model {
	// header row and find prompt
	m.windowSize = max(h-2, 1)
	return m
}

// SetWidth lets the package column take up the space left by the fixed
// columns.
func (m Model) SetWidth(w int) Model {
	m.width = w
	return m
}

// IndexSelected is the index of the selected row in the table data.
func (m Model) IndexSelected() int {
	return m.rowSelected
}

// Find selects the first row matching expr and remembers expr for FindNext
// and FindPrevious.
func (m Model) Find(expr string) (Model, error) {
	m.findExpression = expr

	for i, match := range m.data.Matches {
		if formats.Contains(match, expr) {
			return m.selectAndShowRow(i), nil
		}
	}

	return Model{}, NoMatchFound
}

func (m Model) FindNext() (Model, error) {
	return m.findFrom(1)
}

func (m Model) FindPrevious() (Model, error) {
	return m.findFrom(-1)
}

// findFrom walks the rows from the selection in the given direction, wrapping
// around, and selects the next row matching the remembered expression.
func (m Model) findFrom(step int) (Model, error) {
	total := len(m.data.Matches)
	if total == 0 {
		return Model{}, NoMatchFound
	}

	for offset := 1; offset < total; offset++ {
		i := ((m.rowSelected+step*offset)%total + total) % total
		if formats.Contains(m.data.Matches[i], m.findExpression) {
			return m.selectAndShowRow(i), nil
		}
	}

	return Model{}, NoMatchFound
}

func (m Model) lastRowIndex() int {
	return len(m.data.Matches) - 1
}

func (m Model) windowEnd() int {
	return m.windowStart + m.windowSize - 1
}

func (m Model) packageWidth() int {
	return max(minWidthPackage, m.width-widthGutter-widthVersion-widthAdvisory-widthStatus)
}

func (m Model) renderHeaderRow() string {
	unstyled := "  " +
		renderCell("Package", m.packageWidth()) +
		renderCell("Version", widthVersion) +
		renderCell("Advisory", widthAdvisory) +
		renderCell("Status", widthStatus)

	return styleHeaderRow.Render(unstyled) + "\n"
}

func status(m formats.Match) string {
	if m.Ignored {
		return "ignored"
	}

	return "vulnerable"
}

func (m Model) renderDataRow(match formats.Match, isSelected bool) string {
	version := match.Package.Version
	if match.Package.Dev {
		version += " (dev)"
	}

	row := renderCell(match.Package.Name, m.packageWidth()) +
		renderCell(version, widthVersion) +
		renderCell(match.Vulnerability.DisplayID(), widthAdvisory) +
		renderCell(status(match), widthStatus)

	switch {
	case isSelected:
		row = "> " + styleDataRowSelected.Render(row)
	case match.Ignored:
		row = "  " + styleDataRowIgnored.Render(row)
	default:
		row = styleDataRowNotSelected.Render("  " + row)
	}

	return row + "\n"
}

func renderCell(content string, size int) string {
	padSize := max(size-lipgloss.Width(content), 1)
	return lipgloss.NewStyle().PaddingRight(padSize).Render(content)
}

// pageUp selects the top row of the window, or scrolls one window up when it
// is already selected.
func (m Model) pageUp() Model {
	if m.rowSelected > m.windowStart {
		m.rowSelected = m.windowStart
		return m
	}

	return m.selectAndShowRow(max(m.rowSelected-m.windowSize, 0))
}

// pageDown selects the bottom row of the window, or scrolls one window down
// when it is already selected.
func (m Model) pageDown() Model {
	last := m.lastRowIndex()
	if last < 0 {
		return m
	}

	if end := m.windowEnd(); m.rowSelected < end {
		m.rowSelected = min(end, last)
		return m
	}

	return m.selectAndShowRow(min(m.rowSelected+m.windowSize, last))
}

// selectAndShowRow selects row i and moves the window just far enough to
// show it.
func (m Model) selectAndShowRow(i int) Model {
	m.rowSelected = i

	switch {
	case i < m.windowStart:
		m.windowStart = i
	case i > m.windowEnd():
		m.windowStart = i - (m.windowSize - 1)
	}

	return m
}
