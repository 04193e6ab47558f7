package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/mochi/internal/record"
	"github.com/MrJamesThe3rd/mochi/internal/statistics"
)

const barWidth = 30

type statsState int

const (
	statsStateTimeframe statsState = iota
	statsStateReport
)

type StatisticsModel struct {
	CommonModel
	stats *statistics.Service

	state           statsState
	timeframePicker TimeframePicker
	label           string

	overview statistics.Overview
	expense  []statistics.CategoryShare
	income   []statistics.CategoryShare
	monthly  []statistics.MonthTotals

	loading bool
}

func NewStatisticsModel(stats *statistics.Service) StatisticsModel {
	return StatisticsModel{
		stats:           stats,
		timeframePicker: NewTimeframePicker(TimeframeThisWeek),
	}
}

func (m StatisticsModel) Title() string { return "Statistics" }

func (m StatisticsModel) ShortHelp() string {
	if m.state == statsStateReport {
		return "Esc: change timeframe"
	}

	return "Esc: back | Enter: select"
}

func (m StatisticsModel) Init() tea.Cmd {
	return nil
}

func (m StatisticsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.state = statsStateReport
		m.label = msg.Label()
		m.loading = true

		return m, m.loadCmd(msg.Range)

	case loadStatsMsg:
		m.loading = false
		m.overview = msg.overview
		m.expense = msg.expense
		m.income = msg.income
		m.monthly = msg.monthly

		return m, nil
	}

	keyMsg, isKey := msg.(tea.KeyMsg)

	if m.state == statsStateReport {
		if isKey && keyMsg.Type == tea.KeyEsc {
			m.state = statsStateTimeframe
			m.timeframePicker.Reset()
		}

		return m, nil
	}

	if isKey && keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
		return m, Back
	}

	var cmd tea.Cmd
	m.timeframePicker, cmd = m.timeframePicker.Update(msg)

	return m, cmd
}

func (m StatisticsModel) View() string {
	if m.state == statsStateTimeframe {
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())
	}

	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Crunching numbers...")
	}

	o := m.overview
	heading := lipgloss.NewStyle().Bold(true)

	summary := fmt.Sprintf(
		"Income   %s\nExpense  %s\nBalance  %s\n\nRecords  %d (%.1f/day)\nAvg/day  %s\nLargest  %s\n\nAssets   %s\nDebts    %s",
		incomeStyle.Render(FormatAmount(o.TotalIncome)),
		expenseStyle.Render(FormatAmount(o.TotalExpense)),
		FormatAmount(o.Balance),
		o.TotalRecords,
		o.AvgDailyRecords,
		FormatAmount(o.AvgDailyExpense),
		FormatAmount(o.MaxExpense),
		FormatAmount(o.TotalAssets),
		FormatAmount(o.TotalDebts),
	)

	left := lipgloss.JoinVertical(lipgloss.Left,
		heading.Render("Overview: "+m.label),
		"",
		summary,
		"",
		heading.Render("Last months"),
		"",
		renderMonthly(m.monthly),
	)

	right := lipgloss.JoinVertical(lipgloss.Left,
		heading.Render("Expenses by category"),
		"",
		renderShares(m.expense, expenseStyle),
		"",
		heading.Render("Income by category"),
		"",
		renderShares(m.income, incomeStyle),
	)

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(42).Render(left),
			right,
		),
	)
}

func renderShares(shares []statistics.CategoryShare, style lipgloss.Style) string {
	if len(shares) == 0 {
		return lipgloss.NewStyle().Faint(true).Render("Nothing recorded.")
	}

	var b strings.Builder
	for _, s := range shares {
		fmt.Fprintf(&b, "%-14s %s %5.1f%% %10s\n",
			s.CategoryName,
			style.Render(bar(s.Percentage)),
			s.Percentage,
			FormatAmount(s.Amount),
		)
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func renderMonthly(months []statistics.MonthTotals) string {
	var b strings.Builder
	for _, mt := range months {
		fmt.Fprintf(&b, "%s  %s  %s\n",
			mt.Month,
			incomeStyle.Render(fmt.Sprintf("%10s", FormatAmount(mt.Income))),
			expenseStyle.Render(fmt.Sprintf("%10s", FormatAmount(mt.Expense))),
		)
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// bar draws pct (0-100) as a fixed-width gauge.
func bar(pct float64) string {
	n := int(pct / 100 * barWidth)
	n = min(max(n, 0), barWidth)

	return strings.Repeat("█", n) + strings.Repeat("░", barWidth-n)
}

type loadStatsMsg struct {
	overview statistics.Overview
	expense  []statistics.CategoryShare
	income   []statistics.CategoryShare
	monthly  []statistics.MonthTotals
}

func (m StatisticsModel) loadCmd(rng *record.DateRange) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		// The service degrades to zero values and logs on failure.
		return loadStatsMsg{
			overview: m.stats.Overview(ctx, rng),
			expense:  m.stats.CategoryBreakdown(ctx, rng, record.TypeExpense),
			income:   m.stats.CategoryBreakdown(ctx, rng, record.TypeIncome),
			monthly:  m.stats.MonthlyComparison(ctx, statistics.DefaultMonths),
		}
	}
}
