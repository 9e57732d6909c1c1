package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/vptr/generator"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	ctx      context.Context
	err      error
	cfg      *generator.Config
	report   *generator.Report
	items    []typeItem
	filter   textinput.Model
	width    int
	selected int
	state    modelState
}

type typeItem struct {
	pkg string
	typ generator.TypeReport
}

type modelState int

const (
	stateLoading modelState = iota
	stateSelectType
	stateFilter
	stateShowType
)

func newInteractiveModel(ctx context.Context, cfg *generator.Config) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "type name"
	ti.Prompt = "filter: "
	ti.Width = 40

	return &interactiveModel{
		ctx:    ctx,
		cfg:    cfg,
		filter: ti,
		width:  80,
		state:  stateLoading,
	}
}

type generatedMsg struct {
	err    error
	report *generator.Report
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.generate
}

func (m *interactiveModel) generate() tea.Msg {
	report, err := generator.New(m.cfg).Run(m.ctx)
	return generatedMsg{report: report, err: err}
}

// visible returns the items matching the filter.
func (m *interactiveModel) visible() []typeItem {
	q := strings.ToLower(m.filter.Value())
	if q == "" {
		return m.items
	}
	var out []typeItem
	for _, it := range m.items {
		if strings.Contains(strings.ToLower(it.typ.Name), q) {
			out = append(out, it)
		}
	}
	return out
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		if m.state == stateFilter {
			switch msg.String() {
			case "enter", "esc":
				m.filter.Blur()
				m.state = stateSelectType
				m.selected = 0
				return m, nil
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectType && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectType && m.selected < len(m.visible())-1 {
				m.selected++
			}

		case "/":
			if m.state == stateSelectType {
				m.state = stateFilter
				return m, m.filter.Focus()
			}

		case "enter":
			switch m.state {
			case stateSelectType:
				if len(m.visible()) > 0 {
					m.state = stateShowType
				}
			case stateShowType:
				m.state = stateSelectType
			}

		case "esc":
			if m.state == stateShowType {
				m.state = stateSelectType
			}
		}

	case generatedMsg:
		m.err = msg.err
		m.report = msg.report
		if m.report != nil {
			for _, p := range m.report.Packages {
				for _, t := range p.Types {
					m.items = append(m.items, typeItem{pkg: p.Path, typ: t})
				}
			}
		}
		m.state = stateSelectType
	}

	return m, nil
}

func (m *interactiveModel) View() string {
	if m.state == stateLoading {
		return "Loading packages..."
	}

	var b strings.Builder

	mode := "write"
	if m.cfg.DryRun {
		mode = "dry run"
	}
	b.WriteString(titleStyle.Render("vptrgen"))
	b.WriteString(" ")
	b.WriteString(m.cfg.Dir)
	b.WriteString(" ")
	b.WriteString(helpStyle.Render(mode))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(warnStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	items := m.visible()
	switch m.state {
	case stateSelectType, stateFilter:
		if len(m.items) == 0 {
			b.WriteString("No types request capability slots.\n")
		}
		for i, it := range items {
			line := fmt.Sprintf("%s.%s  %d slots", it.pkg, it.typ.Name, len(it.typ.Slots))
			if i == m.selected && m.state == stateSelectType {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + typeNameStyle.Render(line))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.state == stateFilter {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
			b.WriteString(helpStyle.Render("enter apply • esc done"))
		} else {
			b.WriteString(helpStyle.Render("↑/↓ select • enter show • / filter • q quit"))
		}

	case stateShowType:
		it := items[m.selected]
		b.WriteString(joinNonEmpty(typeNameStyle.Render(it.typ.Name), dimStyle.Render(it.typ.Pos)))
		b.WriteString("\n")
		layout := fmt.Sprintf("size=%d align=%d", it.typ.Size, it.typ.Align)
		if it.typ.Positional {
			layout += " positional"
		}
		b.WriteString(dimStyle.Render(layout))
		b.WriteString("\n\n")
		for _, s := range it.typ.Slots {
			b.WriteString(slotLine(s, m.width))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter back • q quit"))
	}

	return b.String()
}

func runInteractive(ctx context.Context, cfg *generator.Config) error {
	p := tea.NewProgram(newInteractiveModel(ctx, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
