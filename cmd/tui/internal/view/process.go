package view

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/liquidaciones/internal/export"
	"github.com/MrJamesThe3rd/liquidaciones/internal/importer"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

const processTimeout = 2 * time.Minute

type processState int

const (
	processStateFormatSelect processState = iota
	processStateFilePick
	processStateProcessing
	processStateResult
)

type ProcessModel struct {
	CommonModel
	importService     *importer.Service
	settlementService *settlement.Service
	exportService     *export.Service
	outputDir         string

	state      processState
	form       *huh.Form
	filePicker filepicker.Model
	format     importer.Format

	status string
	detail string
	err    error
}

func NewProcessModel(impSvc *importer.Service, setSvc *settlement.Service, expSvc *export.Service, outputDir string) ProcessModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	m := ProcessModel{
		importService:     impSvc,
		settlementService: setSvc,
		exportService:     expSvc,
		outputDir:         outputDir,
		filePicker:        fp,
	}
	m.form = buildFormatForm()

	return m
}

func buildFormatForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("format").
				Title("Tipo de liquidación").
				Options(
					huh.NewOption("Detectar automáticamente", string(importer.FormatAuto)),
					huh.NewOption("CABAL (débito y crédito)", string(importer.FormatCabal)),
					huh.NewOption("Banco Nación", string(importer.FormatNacion)),
				),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ProcessModel) Title() string { return "Procesar liquidación" }

func (m ProcessModel) ShortHelp() string {
	return "Esc: volver | Enter: seleccionar"
}

func (m ProcessModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ProcessModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.handleEsc()
	}

	if result, ok := msg.(processResultMsg); ok {
		m.state = processStateResult
		m.err = result.err
		m.status = result.status
		m.detail = result.detail

		return m, nil
	}

	switch m.state {
	case processStateFormatSelect:
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}

		if m.form.State != huh.StateCompleted {
			return m, cmd
		}

		m.format = importer.Format(m.form.GetString("format"))
		m.state = processStateFilePick

		return m, m.filePicker.Init()

	case processStateFilePick:
		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.state = processStateProcessing
			m.status = fmt.Sprintf("Procesando %s...", filepath.Base(path))

			return m, m.processCmd(path)
		}

		return m, cmd
	}

	return m, nil
}

func (m ProcessModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case processStateFilePick, processStateResult:
		m.state = processStateFormatSelect
		m.form = buildFormatForm()
		m.err = nil
		m.status = ""
		m.detail = ""

		return m, m.form.Init()
	}

	return m, Back
}

func (m ProcessModel) View() string {
	switch m.state {
	case processStateFormatSelect:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())
	case processStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Elegí el archivo de la liquidación (%s):\n\n%s", m.format, m.filePicker.View()),
		)
	case processStateProcessing:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case processStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ProcessModel) viewResult() string {
	style := successStyle
	if m.err != nil {
		style = errorStyle
	}

	body := style.Render(m.status)
	if m.detail != "" {
		body += "\n" + mutedStyle.Render(m.detail)
	}

	return lipgloss.NewStyle().Padding(2).Render(body + "\n\n(Esc para volver)")
}

type processResultMsg struct {
	status string
	detail string
	err    error
}

func (m ProcessModel) processCmd(path string) tea.Cmd {
	format := m.format

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return processResultMsg{status: fmt.Sprintf("Error: %v", err), err: err}
		}
		defer f.Close()

		doc, err := m.importService.Import(format, f)
		if err != nil && !errors.Is(err, settlement.ErrUnidentified) {
			return processResultMsg{status: fmt.Sprintf("Error: %v", err), err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()

		entry, err := m.settlementService.Record(ctx, filepath.Base(path), doc)
		if errors.Is(err, settlement.ErrUnidentified) {
			return processResultMsg{
				status: "No se pudo identificar la liquidación.",
				detail: "Faltan el número de liquidación y la fecha de pago.",
				err:    err,
			}
		}

		if err != nil {
			return processResultMsg{status: fmt.Sprintf("Error: %v", err), err: err}
		}

		item, err := m.exportService.Export(ctx, entry.ID, m.outputDir)
		if err != nil {
			return processResultMsg{status: fmt.Sprintf("Error: %v", err), err: err}
		}

		title, amount := export.Headline(entry)

		return processResultMsg{
			status: fmt.Sprintf("%s procesada: %s", title, item.FilePath),
			detail: fmt.Sprintf("Importe: %s | líneas omitidas: %d", FormatAmount(amount), doc.Skipped()),
		}
	}
}
