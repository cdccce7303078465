package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/liquidaciones/internal/export"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

// maxPanelDiagnostics caps the diagnostics shown next to the table.
const maxPanelDiagnostics = 12

type ListModel struct {
	CommonModel
	settlementService *settlement.Service
	exportService     *export.Service
	outputDir         string

	table     table.Model
	entries   []*settlement.Entry
	validOnly bool
	details   bool

	loading bool
	err     error
	status  string
}

func NewListModel(setSvc *settlement.Service, expSvc *export.Service, outputDir string) ListModel {
	columns := []table.Column{
		{Title: "Archivo", Width: 24},
		{Title: "Liquidación", Width: 16},
		{Title: "Fecha de pago", Width: 14},
		{Title: "Importe", Width: 18},
		{Title: "Omitidas", Width: 9},
		{Title: "Estado", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ListModel{
		settlementService: setSvc,
		exportService:     expSvc,
		outputDir:         outputDir,
		table:             t,
		loading:           true,
	}
}

func (m ListModel) Title() string { return "Liquidaciones de la sesión" }

func (m ListModel) ShortHelp() string {
	return "Esc: volver | w: escribir planilla | d: diagnósticos | v: solo válidas | r: refrescar"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.entries = msg.entries
		m.refreshTable()

		return m, nil

	case writeWorkbookMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = "Planilla escrita en " + msg.path
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "v":
			m.validOnly = !m.validOnly
			m.refreshTable()

			return m, nil
		case "d":
			m.details = !m.details
			return m, nil
		case "w":
			if e := m.selected(); e != nil {
				return m, m.writeCmd(e)
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Cargando liquidaciones...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	filter := "todas"
	if m.validOnly {
		filter = "solo válidas"
	}

	header := fmt.Sprintf("%d liquidaciones | [v] %s", len(m.visible()), activeStyle(filter))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if e := m.selected(); m.details && e != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(60).
			Render(diagnosticsPanel(e))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = mutedStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func diagnosticsPanel(e *settlement.Entry) string {
	var sb strings.Builder

	sb.WriteString(e.Name + "\n\n")

	if len(e.Document.Diagnostics) == 0 {
		sb.WriteString("Sin diagnósticos.")
		return sb.String()
	}

	for i, d := range e.Document.Diagnostics {
		if i == maxPanelDiagnostics {
			sb.WriteString(fmt.Sprintf("... y %d más", len(e.Document.Diagnostics)-i))
			break
		}

		sb.WriteString(d.String() + "\n")
	}

	return sb.String()
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func (m ListModel) visible() []*settlement.Entry {
	if !m.validOnly {
		return m.entries
	}

	valid := make([]*settlement.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.Valid {
			valid = append(valid, e)
		}
	}

	return valid
}

func (m ListModel) selected() *settlement.Entry {
	entries := m.visible()

	idx := m.table.Cursor()
	if idx < 0 || idx >= len(entries) {
		return nil
	}

	return entries[idx]
}

func (m *ListModel) refreshTable() {
	entries := m.visible()

	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		title, amount := export.Headline(e)

		state := "válida"
		if !e.Valid {
			state = "parcial"
		}

		rows = append(rows, table.Row{
			e.Name,
			title,
			e.Document.PaymentDate(),
			FormatAmount(amount),
			strconv.Itoa(e.Document.Skipped()),
			state,
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadListMsg struct {
	entries []*settlement.Entry
	err     error
}

func (m ListModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := SessionCtx()
		defer cancel()

		entries, err := m.settlementService.List(ctx)

		return loadListMsg{entries: entries, err: err}
	}
}

type writeWorkbookMsg struct {
	path string
	err  error
}

func (m ListModel) writeCmd(e *settlement.Entry) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := SessionCtx()
		defer cancel()

		item, err := m.exportService.Export(ctx, e.ID, m.outputDir)

		return writeWorkbookMsg{path: item.FilePath, err: err}
	}
}
