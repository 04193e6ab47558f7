package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/MrJamesThe3rd/mochi/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/mochi/internal/app"
	"github.com/MrJamesThe3rd/mochi/internal/config"
	"github.com/MrJamesThe3rd/mochi/internal/logging"
)

type model struct {
	app *app.App

	currentView View

	recordsView view.RecordsModel
	trashView   view.TrashModel
	budgetsView view.BudgetsModel
	statsView   view.StatisticsModel
	importView  view.ImportModel
	exportView  view.ExportModel
}

type View int

const (
	ViewMenu       View = 0
	ViewRecords    View = 1
	ViewTrash      View = 2
	ViewBudgets    View = 3
	ViewStatistics View = 4
	ViewImport     View = 5
	ViewExport     View = 6
)

func initialModel(a *app.App) model {
	return model{
		app:         a,
		currentView: ViewMenu,
		importView:  view.NewImportModel(a.Importer),
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
				m.currentView = ViewRecords
				m.recordsView = view.NewRecordsModel(m.app.Records, m.app.Categories, m.app.Accounts)

				return m, m.recordsView.Init()
			case "2":
				m.currentView = ViewTrash
				m.trashView = view.NewTrashModel(m.app.Records)

				return m, m.trashView.Init()
			case "3":
				m.currentView = ViewBudgets
				m.budgetsView = view.NewBudgetsModel(m.app.Budgets, m.app.Categories, m.app.Accounts)

				return m, m.budgetsView.Init()
			case "4":
				m.currentView = ViewStatistics
				m.statsView = view.NewStatisticsModel(m.app.Statistics)

				return m, m.statsView.Init()
			case "5":
				m.currentView = ViewImport
				return m, m.importView.Init()
			case "6":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.app.Exporter, m.app.Backups, afero.NewOsFs())

				return m, m.exportView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewRecords:
		var newModel tea.Model
		newModel, cmd = m.recordsView.Update(msg)
		m.recordsView = newModel.(view.RecordsModel)
	case ViewTrash:
		var newModel tea.Model
		newModel, cmd = m.trashView.Update(msg)
		m.trashView = newModel.(view.TrashModel)
	case ViewBudgets:
		var newModel tea.Model
		newModel, cmd = m.budgetsView.Update(msg)
		m.budgetsView = newModel.(view.BudgetsModel)
	case ViewStatistics:
		var newModel tea.Model
		newModel, cmd = m.statsView.Update(msg)
		m.statsView = newModel.(view.StatisticsModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Mochi\n\n" +
				"1. Records\n" +
				"2. Trash\n" +
				"3. Budgets\n" +
				"4. Statistics\n" +
				"5. Import Records\n" +
				"6. Export & Backup\n\n" +
				"q. Quit",
		)
	case ViewRecords:
		return m.withHelp(m.recordsView)
	case ViewTrash:
		return m.withHelp(m.trashView)
	case ViewBudgets:
		return m.withHelp(m.budgetsView)
	case ViewStatistics:
		return m.withHelp(m.statsView)
	case ViewImport:
		return m.withHelp(m.importView)
	case ViewExport:
		return m.withHelp(m.exportView)
	}

	return "Unknown View"
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).PaddingLeft(1)
	helpStyle  = lipgloss.NewStyle().Faint(true).PaddingLeft(1)
)

func (m model) withHelp(v view.View) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(v.Title()),
		v.View(),
		helpStyle.Render(v.ShortHelp()),
	)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs only go to LOG_FILE.
	logger, closer, err := logging.New(io.Discard, logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	slog.SetDefault(logger)

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	p := tea.NewProgram(initialModel(a), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	return nil
}
