package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/mochi/internal/account"
	"github.com/MrJamesThe3rd/mochi/internal/budget"
	"github.com/MrJamesThe3rd/mochi/internal/category"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

type budgetState int

const (
	budgetStateBrowse budgetState = iota
	budgetStateForm
)

// budgetForm holds the huh field bindings.
type budgetForm struct {
	Name     string
	Type     budget.Type
	TargetID string
	Amount   string
	Period   budget.Period
}

type BudgetsModel struct {
	CommonModel
	budgets    *budget.Repository
	categories *category.Repository
	accounts   *account.Repository

	state   budgetState
	table   table.Model
	items   []budget.Budget
	stats   budget.Stats
	form    *huh.Form
	fields  *budgetForm
	targets map[budget.Type][]huh.Option[string]

	loading bool
	err     error
	status  string
}

func NewBudgetsModel(budgets *budget.Repository, categories *category.Repository, accounts *account.Repository) BudgetsModel {
	columns := []table.Column{
		{Title: "Name", Width: 20},
		{Title: "Period", Width: 9},
		{Title: "Window", Width: 23},
		{Title: "Spent", Width: 12},
		{Title: "Amount", Width: 12},
		{Title: "Used", Width: 6},
		{Title: "Days", Width: 5},
		{Title: "State", Width: 10},
	}

	t := newTable(columns, 12)

	return BudgetsModel{
		budgets:    budgets,
		categories: categories,
		accounts:   accounts,
		table:      t,
		loading:    true,
	}
}

func (m BudgetsModel) Title() string { return "Budgets" }

func (m BudgetsModel) ShortHelp() string {
	if m.state == budgetStateForm {
		return "Esc: cancel | Enter/Tab: navigate form"
	}

	return "Esc: back | n: new | t: toggle | r: reset spent | x: delete | s: sync spent"
}

func (m BudgetsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m BudgetsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadBudgetsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.items = msg.budgets
		m.stats = msg.stats
		m.targets = msg.targets
		m.refreshTable()

		return m, nil

	case budgetActionMsg:
		m.state = budgetStateBrowse
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.status = msg.status

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 12)
		return m, nil
	}

	if m.state == budgetStateForm {
		return m.updateForm(msg)
	}

	return m.updateBrowse(msg)
}

func (m BudgetsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "s":
			return m, m.actionCmd("Spent amounts synced.", func(ctx context.Context) error {
				return m.budgets.SyncAllSpent(ctx)
			})
		case "n":
			return m.openForm()
		case "t", "r", "x":
			b, ok := m.selected()
			if !ok {
				return m, nil
			}

			return m, m.itemCmd(keyMsg.String(), b.ID)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m BudgetsModel) selected() (budget.Budget, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.items) {
		return budget.Budget{}, false
	}

	return m.items[idx], true
}

func (m BudgetsModel) openForm() (tea.Model, tea.Cmd) {
	f := &budgetForm{Type: budget.TypeTotal, Period: budget.PeriodMonthly}
	targets := m.targets

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				CharLimit(20).
				Value(&f.Name).
				Validate(huh.ValidateNotEmpty()),

			huh.NewSelect[budget.Type]().
				Title("Applies to").
				Options(
					huh.NewOption("All expenses", budget.TypeTotal),
					huh.NewOption("One category", budget.TypeCategory),
					huh.NewOption("One account", budget.TypeAccount),
				).
				Value(&f.Type),

			huh.NewSelect[budget.Period]().
				Title("Period").
				Options(
					huh.NewOption("This week", budget.PeriodWeekly),
					huh.NewOption("This month", budget.PeriodMonthly),
					huh.NewOption("This year", budget.PeriodYearly),
				).
				Value(&f.Period),

			huh.NewInput().
				Title("Amount").
				Placeholder("500.00").
				Value(&f.Amount).
				Validate(func(s string) error {
					_, err := ParseAmount(s)
					return err
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Target").
				OptionsFunc(func() []huh.Option[string] { return targets[f.Type] }, &f.Type).
				Value(&f.TargetID),
		).WithHideFunc(func() bool { return f.Type == budget.TypeTotal }),
	).WithWidth(50).WithShowHelp(false)

	m.fields = f
	m.state = budgetStateForm
	m.table.Blur()

	return m, m.form.Init()
}

func (m BudgetsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = budgetStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = budgetStateBrowse
	m.form = nil
	m.table.Focus()

	return m, m.createCmd(*m.fields)
}

func (m BudgetsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading budgets...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	header := fmt.Sprintf(
		"Active: %s/%d | Spent %s of %s (%d%%) | Over: %d",
		activeStyle(fmt.Sprint(m.stats.ActiveBudgets)),
		m.stats.TotalBudgets,
		FormatAmount(m.stats.TotalSpentAmount),
		FormatAmount(m.stats.TotalBudgetAmount),
		m.stats.OverallUsagePercentage,
		m.stats.OverSpentBudgets,
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View()),
	)

	if m.state == budgetStateForm && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(54).
			Render("New Budget\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func budgetFlag(b budget.Budget) string {
	switch {
	case !b.IsEnabled:
		return "disabled"
	case b.IsOverSpent():
		return expenseStyle.Render("over")
	case b.NeedsAlert():
		return warnStyle.Render("near limit")
	}

	return "ok"
}

func (m *BudgetsModel) refreshTable() {
	now := time.Now()

	rows := make([]table.Row, 0, len(m.items))
	for _, b := range m.items {
		s := b.Status(now)
		rows = append(rows, table.Row{
			b.Name,
			string(b.Period),
			b.StartDate + " " + b.EndDate,
			FormatAmount(b.Spent),
			FormatAmount(b.Amount),
			fmt.Sprintf("%d%%", s.UsagePercentage),
			fmt.Sprint(s.DaysLeft),
			budgetFlag(b),
		})
	}

	m.table.SetRows(rows)
}

// periodWindow is the calendar week, month or year holding now.
func periodWindow(p budget.Period, now time.Time) record.DateRange {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var start, end time.Time

	switch p {
	case budget.PeriodWeekly:
		offset := int(day.Weekday())
		if offset == 0 {
			offset = 7
		}

		start = day.AddDate(0, 0, -offset+1)
		end = start.AddDate(0, 0, 6)
	case budget.PeriodYearly:
		start = time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(1, 0, -1)
	default:
		start = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, -1)
	}

	return record.DateRange{Start: start.Format(dateLayout), End: end.Format(dateLayout)}
}

// Messages

type loadBudgetsMsg struct {
	budgets []budget.Budget
	stats   budget.Stats
	targets map[budget.Type][]huh.Option[string]
	err     error
}

func (m BudgetsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		budgets, err := m.budgets.FindAll(ctx)
		if err != nil {
			return loadBudgetsMsg{err: err}
		}

		stats, err := m.budgets.Stats(ctx)
		if err != nil {
			return loadBudgetsMsg{err: err}
		}

		cats, err := m.categories.FindByQuery(ctx, category.Query{Type: record.TypeExpense, IsEnabled: new(true)})
		if err != nil {
			return loadBudgetsMsg{err: err}
		}

		accts, err := m.accounts.FindEnabled(ctx)
		if err != nil {
			return loadBudgetsMsg{err: err}
		}

		targets := map[budget.Type][]huh.Option[string]{}
		for _, c := range cats {
			targets[budget.TypeCategory] = append(targets[budget.TypeCategory], huh.NewOption(c.Name, c.ID))
		}

		for _, a := range accts {
			targets[budget.TypeAccount] = append(targets[budget.TypeAccount], huh.NewOption(a.Name, a.ID))
		}

		return loadBudgetsMsg{budgets: budgets, stats: stats, targets: targets}
	}
}

type budgetActionMsg struct {
	status string
	err    error
}

func (m BudgetsModel) actionCmd(status string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := fn(ctx); err != nil {
			return budgetActionMsg{err: err}
		}

		return budgetActionMsg{status: status}
	}
}

func (m BudgetsModel) itemCmd(key, id string) tea.Cmd {
	switch key {
	case "t":
		return m.actionCmd("Budget toggled.", func(ctx context.Context) error {
			_, err := m.budgets.ToggleEnabled(ctx, id)
			return err
		})
	case "r":
		return m.actionCmd("Spent reset.", func(ctx context.Context) error {
			_, err := m.budgets.Reset(ctx, id)
			return err
		})
	default:
		return m.actionCmd("Budget deleted.", func(ctx context.Context) error {
			return m.budgets.Delete(ctx, id)
		})
	}
}

func (m BudgetsModel) createCmd(f budgetForm) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		amount, err := ParseAmount(f.Amount)
		if err != nil {
			return budgetActionMsg{err: err}
		}

		window := periodWindow(f.Period, time.Now())

		b := budget.Budget{
			Name:           f.Name,
			Type:           f.Type,
			Amount:         amount,
			Period:         f.Period,
			StartDate:      window.Start,
			EndDate:        window.End,
			IsEnabled:      true,
			AlertThreshold: budget.DefaultAlertThreshold,
		}

		if f.Type != budget.TypeTotal {
			b.TargetID = f.TargetID
		}

		created, err := m.budgets.Create(ctx, b)
		if err != nil {
			return budgetActionMsg{err: err}
		}

		// Count what was already spent in the window.
		if _, err := m.budgets.SyncSpent(ctx, created.ID); err != nil {
			return budgetActionMsg{err: err}
		}

		return budgetActionMsg{status: "Budget created."}
	}
}
