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
	"github.com/spf13/afero"

	"github.com/MrJamesThe3rd/mochi/internal/export"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

const exportTimeout = 2 * time.Minute

// formatBackup selects a full JSON snapshot instead of a record export.
const formatBackup export.Format = "backup"

type exportState int

const (
	exportStateOptions exportState = iota
	exportStateTimeframe
	exportStateExporting
	exportStateResult
)

type ExportModel struct {
	CommonModel
	exportService *export.Service
	backups       *export.Backups
	fs            afero.Fs

	state           exportState
	err             error
	timeframePicker TimeframePicker

	form    *huh.Form
	format  *export.Format
	path    *string
	spinner spinner.Model
	summary string
}

func NewExportModel(svc *export.Service, backups *export.Backups, fs afero.Fs) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := ExportModel{
		exportService:   svc,
		backups:         backups,
		fs:              fs,
		timeframePicker: NewTimeframePicker(TimeframeThisMonth),
		format:          new(export.FormatCSV),
		path:            new("./exports"),
		spinner:         s,
	}
	m.form = m.buildOptionsForm()

	return m
}

func (m ExportModel) Title() string { return "Export & Backup" }

func (m ExportModel) ShortHelp() string {
	switch m.state {
	case exportStateResult:
		return "Esc: back to menu"
	case exportStateExporting:
		return "Exporting..."
	}

	return "Esc: back | Enter: confirm"
}

func (m ExportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if tfMsg, ok := msg.(TimeframeSelectedMsg); ok {
		m.state = exportStateExporting
		m.err = nil

		return m, tea.Batch(m.spinner.Tick, m.runExportCmd(tfMsg.Range, *m.format, *m.path))
	}

	switch m.state {
	case exportStateOptions:
		return m.updateOptions(msg)
	case exportStateTimeframe:
		return m.updateTimeframe(msg)
	case exportStateExporting:
		return m.updateExporting(msg)
	case exportStateResult:
		return m.updateResult(msg)
	}

	return m, nil
}

func (m ExportModel) updateOptions(msg tea.Msg) (tea.Model, tea.Cmd) {
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

	if *m.format == formatBackup {
		m.state = exportStateExporting
		m.err = nil

		return m, tea.Batch(m.spinner.Tick, m.runBackupCmd())
	}

	m.state = exportStateTimeframe

	return m, nil
}

func (m ExportModel) updateTimeframe(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
			m.state = exportStateOptions
			m.form = m.buildOptionsForm()

			return m, m.form.Init()
		}
	}

	var cmd tea.Cmd
	m.timeframePicker, cmd = m.timeframePicker.Update(msg)

	return m, cmd
}

func (m ExportModel) updateExporting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(exportResultMsg); ok {
		m.state = exportStateResult
		m.err = result.err
		m.summary = result.body

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ExportModel) updateResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m ExportModel) buildOptionsForm() *huh.Form {
	format := m.format

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[export.Format]().
				Title("What to export").
				Options(
					huh.NewOption("Records as CSV", export.FormatCSV),
					huh.NewOption("Records as Excel workbook", export.FormatXLSX),
					huh.NewOption("Full backup (JSON snapshot)", formatBackup),
				).
				Value(m.format),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Output Path").
				Description("Directory will be created if it doesn't exist").
				Placeholder("./exports").
				Value(m.path),
		).WithHideFunc(func() bool { return *format == formatBackup }),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) View() string {
	switch m.state {
	case exportStateOptions:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case exportStateTimeframe:
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())

	case exportStateExporting:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Writing %s...", m.spinner.View(), *m.format),
		)

	case exportStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ExportModel) viewResult() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(
			lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(fmt.Sprintf("Error: %v", m.err)),
		)
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("46")).
		Render("Export Complete!")

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			m.summary,
		),
	)
}

type exportResultMsg struct {
	body string
	err  error
}

func (m ExportModel) runExportCmd(rng *record.DateRange, format export.Format, dir string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		path, n, err := exportTo(ctx, m.fs, m.exportService, rng, format, dir, time.Now())
		if err != nil {
			return exportResultMsg{err: err}
		}

		return exportResultMsg{body: fmt.Sprintf("Wrote %d records to %s", n, path)}
	}
}

func (m ExportModel) runBackupCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		path, err := m.backups.Save(ctx)
		if err != nil {
			return exportResultMsg{err: err}
		}

		return exportResultMsg{body: "Backup saved to " + path}
	}
}

// exportTo writes the records in rng into a new file under dir.
func exportTo(ctx context.Context, fs afero.Fs, svc *export.Service, rng *record.DateRange, format export.Format, dir string, now time.Time) (string, int, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(dir, export.Filename(format, rng, now))

	f, err := fs.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("creating export file: %w", err)
	}

	n, err := svc.Export(ctx, rng, format, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		_ = fs.Remove(path)
		return "", 0, err
	}

	return path, n, nil
}
