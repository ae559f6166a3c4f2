package details

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openvex/lockaudit/pkg/formats"
)

var (
	detailsStyle    = lipgloss.NewStyle().Background(lipgloss.Color("#222233"))
	fieldNameStyle  = lipgloss.NewStyle().Inherit(detailsStyle).Foreground(lipgloss.Color("#aaaaaa"))
	fieldValueStyle = lipgloss.NewStyle().Inherit(detailsStyle).Foreground(lipgloss.Color("#ffffff"))
)

type Model struct {
	height, width int

	data formats.Match
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(_ tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

func (m Model) View() string {
	output := ""
	output += m.renderFieldNameValue("Package", m.data.Package.Name) + "\n"
	output += m.renderFieldNameValue("Version", m.data.Package.Version) + "\n"
	output += m.renderFieldNameValue("PURL", m.data.Package.PURL) + "\n"
	output += m.renderFieldNameValue("Dependency", dependencyType(m.data.Package)) + "\n"
	output += m.renderFieldNameValue("Package status", packageStatus(m.data.Package)) + "\n"

	output += "\n"

	output += m.renderFieldNameValue("Advisory", m.data.Vulnerability.ID) + "\n"
	output += m.renderFieldNameValue("CVE", m.data.Vulnerability.CVE) + "\n"
	output += m.renderFieldNameValue("Status", advisoryStatus(m.data)) + "\n"
	output += m.renderFieldNameValue("URL", m.data.Vulnerability.URL) + "\n"
	output += m.renderFieldNameValue("Title", m.data.Vulnerability.Title)

	return detailsStyle.Height(m.height).MaxHeight(m.height).Width(m.width).Render(output)
}

func (m Model) SetHeight(h int) Model {
	m.height = h
	return m
}

func (m Model) SetWidth(w int) Model {
	m.width = w
	return m
}

func (m Model) For(data formats.Match) Model {
	m.data = data
	return m
}

func (m Model) renderFieldNameValue(name, value string) string {
	renderedName := fieldNameStyle.Render(name + ":")
	renderedName = stripANSIReset(renderedName)
	renderedValue := fieldValueStyle.Render(value)

	line := renderedName + " " + renderedValue

	return line
}

func packageStatus(p formats.Package) string {
	if p.Ignored {
		return "all advisories ignored"
	}

	return "vulnerable"
}

func dependencyType(p formats.Package) string {
	if p.Dev {
		return "dev"
	}

	return "runtime"
}

func advisoryStatus(m formats.Match) string {
	if m.Ignored {
		return "ignored (whitelisted)"
	}

	return "vulnerable"
}

func stripANSIReset(in string) string {
	const resetSequence = "\x1b[0m"
	return strings.ReplaceAll(in, resetSequence, "")
}
