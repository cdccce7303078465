package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/liquidaciones/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/liquidaciones/internal/config"
	"github.com/MrJamesThe3rd/liquidaciones/internal/export"
	"github.com/MrJamesThe3rd/liquidaciones/internal/importer"
	"github.com/MrJamesThe3rd/liquidaciones/internal/importer/cabal"
	"github.com/MrJamesThe3rd/liquidaciones/internal/importer/nacion"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement/store"
)

type model struct {
	settlementService *settlement.Service
	importService     *importer.Service
	exportService     *export.Service
	outputDir         string

	currentView View

	processView   view.ProcessModel
	listView      view.ListModel
	totalizerView view.TotalizerModel
	clearView     view.ClearModel
}

type View int

const (
	ViewMenu      View = 0
	ViewProcess   View = 1
	ViewList      View = 2
	ViewTotalizer View = 3
	ViewClear     View = 4
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rules, err := cfg.Rules()
	if err != nil {
		slog.Error("failed to build parser rules", "error", err)
		os.Exit(1)
	}

	// The program owns the terminal, so parser diagnostics are not logged.
	setSvc := settlement.NewService(store.New(), settlement.WithKeepPartial(cfg.Session.KeepPartial))
	impSvc := importer.NewService(
		importer.WithCabal(cabal.New(cabal.WithRules(rules))),
		importer.WithNacion(nacion.New()),
	)
	expSvc := export.NewService(setSvc)

	return model{
		settlementService: setSvc,
		importService:     impSvc,
		exportService:     expSvc,
		outputDir:         cfg.Export.Dir,
		currentView:       ViewMenu,
		processView:       view.NewProcessModel(impSvc, setSvc, expSvc, cfg.Export.Dir),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewProcess
				m.processView = view.NewProcessModel(m.importService, m.settlementService, m.exportService, m.outputDir)

				return m, m.processView.Init()
			case "2":
				m.currentView = ViewList
				m.listView = view.NewListModel(m.settlementService, m.exportService, m.outputDir)

				return m, m.listView.Init()
			case "3":
				m.currentView = ViewTotalizer
				m.totalizerView = view.NewTotalizerModel(m.exportService, m.outputDir)

				return m, m.totalizerView.Init()
			case "4":
				m.currentView = ViewClear
				m.clearView = view.NewClearModel(m.settlementService)

				return m, m.clearView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewProcess:
		var newModel tea.Model
		newModel, cmd = m.processView.Update(msg)
		m.processView = newModel.(view.ProcessModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewTotalizer:
		var newModel tea.Model
		newModel, cmd = m.totalizerView.Update(msg)
		m.totalizerView = newModel.(view.TotalizerModel)
	case ViewClear:
		var newModel tea.Model
		newModel, cmd = m.clearView.Update(msg)
		m.clearView = newModel.(view.ClearModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Liquidaciones\n\n" +
				"1. Procesar liquidación\n" +
				"2. Ver sesión\n" +
				"3. Armar totalizador\n" +
				"4. Vaciar sesión\n\n" +
				"q. Salir",
		)
	case ViewProcess:
		return m.processView.View()
	case ViewList:
		return m.listView.View()
	case ViewTotalizer:
		return m.totalizerView.View()
	case ViewClear:
		return m.clearView.View()
	}

	return "Vista desconocida"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
