package view

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

type ClearModel struct {
	CommonModel
	settlementService *settlement.Service

	form   *huh.Form
	done   bool
	status string
	err    error
}

func NewClearModel(svc *settlement.Service) ClearModel {
	return ClearModel{
		settlementService: svc,
		form: huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Key("confirm").
					Title("¿Vaciar la sesión?").
					Description("Se descartan todas las liquidaciones procesadas.").
					Affirmative("Sí").
					Negative("No"),
			),
		).WithWidth(50).WithShowHelp(false),
	}
}

func (m ClearModel) Title() string { return "Vaciar sesión" }

func (m ClearModel) ShortHelp() string { return "Esc: volver" }

func (m ClearModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ClearModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	if result, ok := msg.(clearResultMsg); ok {
		m.done = true
		m.err = result.err

		m.status = "Sesión vacía."
		if result.err != nil {
			m.status = "Error: " + result.err.Error()
		}

		return m, nil
	}

	if m.done {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if !m.form.GetBool("confirm") {
		return m, Back
	}

	return m, m.clearCmd()
}

func (m ClearModel) View() string {
	if !m.done {
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())
	}

	style := successStyle
	if m.err != nil {
		style = errorStyle
	}

	return lipgloss.NewStyle().Padding(2).Render(style.Render(m.status) + "\n\n(Esc para volver)")
}

type clearResultMsg struct {
	err error
}

func (m ClearModel) clearCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := SessionCtx()
		defer cancel()

		return clearResultMsg{err: m.settlementService.Clear(ctx)}
	}
}
