package view

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/liquidaciones/internal/export"
)

const totalizerTimeout = 2 * time.Minute

type totalizerState int

const (
	totalizerStatePath totalizerState = iota
	totalizerStateWriting
	totalizerStateResult
)

type TotalizerModel struct {
	CommonModel
	exportService *export.Service

	state       totalizerState
	err         error
	form        *huh.Form
	defaultPath string
	path        string
	spinner     spinner.Model
	summary     string
}

func NewTotalizerModel(svc *export.Service, outputDir string) TotalizerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := TotalizerModel{
		exportService: svc,
		state:         totalizerStatePath,
		defaultPath:   filepath.Join(outputDir, "Totalizador.xlsx"),
		spinner:       s,
	}
	m.form = m.buildPathForm()

	return m
}

func (m TotalizerModel) Title() string { return "Armar totalizador" }

func (m TotalizerModel) ShortHelp() string {
	switch m.state {
	case totalizerStateResult:
		return "Esc: volver al menú"
	case totalizerStateWriting:
		return "Generando..."
	}

	return "Esc: volver | Enter: confirmar"
}

func (m TotalizerModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m TotalizerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case totalizerStatePath:
		return m.updatePath(msg)
	case totalizerStateWriting:
		return m.updateWriting(msg)
	case totalizerStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m TotalizerModel) updatePath(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.path = m.form.GetString("path")
	if m.path == "" {
		m.path = m.defaultPath
	}

	m.state = totalizerStateWriting
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.runTotalizerCmd(m.path))
}

func (m TotalizerModel) updateWriting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(totalizerResultMsg); ok {
		m.state = totalizerStateResult
		m.err = result.err
		m.summary = result.body

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m TotalizerModel) buildPathForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Archivo del totalizador").
				Description("El directorio se crea si no existe").
				Placeholder(m.defaultPath),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m TotalizerModel) View() string {
	switch m.state {
	case totalizerStatePath:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case totalizerStateWriting:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Sumando las liquidaciones de la sesión...", m.spinner.View()),
		)

	case totalizerStateResult:
		return m.viewResult()
	}

	return ""
}

func (m TotalizerModel) viewResult() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(
			errorStyle.Render(fmt.Sprintf("Error: %v", m.err)),
		)
	}

	header := successStyle.Bold(true).Render("Totalizador generado: " + m.path)

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			"Liquidaciones:",
			"",
			m.summary,
		),
	)
}

type totalizerResultMsg struct {
	body string
	err  error
}

func (m TotalizerModel) runTotalizerCmd(path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), totalizerTimeout)
		defer cancel()

		if err := m.exportService.WriteTotalizerFile(ctx, path); err != nil {
			return totalizerResultMsg{err: err}
		}

		items, err := m.exportService.Items(ctx)
		if err != nil {
			return totalizerResultMsg{err: err}
		}

		return totalizerResultMsg{body: m.exportService.GenerateSummary(items)}
	}
}
