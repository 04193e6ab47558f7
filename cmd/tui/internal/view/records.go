package view

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/mochi/internal/account"
	"github.com/MrJamesThe3rd/mochi/internal/category"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

// recordsPageSize bounds how many records one timeframe loads.
const recordsPageSize = 500

type recState int

const (
	recStateTimeframe recState = iota
	recStateList
	recStateForm
)

// recItem wraps a record to implement list.Item.
type recItem struct {
	rec      record.Record
	category string
	account  string
}

func (i recItem) Title() string {
	return fmt.Sprintf("%s  %10s  %s", i.rec.Date, signedAmount(i.rec), i.category)
}

func (i recItem) Description() string {
	parts := []string{i.account}
	if i.rec.Remark != "" {
		parts = append(parts, i.rec.Remark)
	}

	if len(i.rec.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(i.rec.Tags, " #"))
	}

	return strings.Join(parts, " · ")
}

func (i recItem) FilterValue() string {
	return i.category + " " + i.account + " " + i.rec.Remark
}

// recordForm holds the huh field bindings.
type recordForm struct {
	Type       record.Type
	CategoryID string
	AccountID  string
	Amount     string
	Date       string
	Remark     string
}

type RecordsModel struct {
	CommonModel
	records    *record.Repository
	categories *category.Repository
	accounts   *account.Repository

	state           recState
	timeframePicker TimeframePicker
	list            list.Model
	form            *huh.Form
	fields          *recordForm
	editing         *record.Record

	rng       *record.DateRange
	typ       record.Type
	cats      []category.Category
	accts     []account.Account
	catNames  map[string]string
	acctNames map[string]string
	loading   bool
	status    string
}

func NewRecordsModel(records *record.Repository, categories *category.Repository, accounts *account.Repository) RecordsModel {
	l := list.New([]list.Item{}, recItemDelegate{}, 0, 0)
	l.Title = "Records"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return RecordsModel{
		records:         records,
		categories:      categories,
		accounts:        accounts,
		timeframePicker: NewTimeframePicker(TimeframeThisWeek),
		list:            l,
	}
}

func (m RecordsModel) Title() string { return "Records" }

func (m RecordsModel) ShortHelp() string {
	switch m.state {
	case recStateTimeframe:
		return "Esc: back | Enter: select"
	case recStateList:
		return "Esc: back | n: new | Enter: edit | d: delete | t: type | /: filter"
	case recStateForm:
		return "Esc: cancel | Enter/Tab: navigate form"
	}

	return ""
}

func (m RecordsModel) Init() tea.Cmd {
	return nil
}

func (m RecordsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.rng = msg.Range
		m.list.Title = "Records: " + msg.Label()
		m.loading = true
		m.state = recStateList

		return m, m.loadCmd()

	case loadRecordsMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.cats = msg.cats
		m.accts = msg.accts
		m.catNames = make(map[string]string, len(msg.cats))

		for _, c := range msg.cats {
			m.catNames[c.ID] = c.Name
		}

		m.acctNames = make(map[string]string, len(msg.accts))
		for _, a := range msg.accts {
			m.acctNames[a.ID] = a.Name
		}

		m.refreshListItems(msg.recs)

		if msg.total > len(msg.recs) {
			m.status = fmt.Sprintf("Showing the latest %d of %d records.", len(msg.recs), msg.total)
		} else if msg.total == 0 {
			m.status = "No records found."
		}

		return m, nil

	case recordSavedMsg:
		m.state = recStateList
		m.form = nil

		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
			return m, nil
		}

		m.status = msg.status

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil
	}

	switch m.state {
	case recStateTimeframe:
		return m.updateTimeframe(msg)
	case recStateList:
		return m.updateList(msg)
	case recStateForm:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m RecordsModel) updateTimeframe(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
			return m, Back
		}
	}

	var cmd tea.Cmd
	m.timeframePicker, cmd = m.timeframePicker.Update(msg)

	return m, cmd
}

func (m RecordsModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch keyMsg.String() {
		case "esc":
			m.state = recStateTimeframe
			m.timeframePicker.Reset()
			m.status = ""

			return m, nil
		case "enter":
			if selected, ok := m.list.SelectedItem().(recItem); ok {
				return m.openForm(&selected.rec)
			}

			return m, nil
		case "n":
			return m.openForm(nil)
		case "t":
			m.typ = nextTypeFilter(m.typ)
			m.loading = true

			return m, m.loadCmd()
		case "d":
			if selected, ok := m.list.SelectedItem().(recItem); ok {
				return m, m.softDeleteCmd(selected.rec.ID)
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

// openForm edits rec, or creates a new record when rec is nil.
func (m RecordsModel) openForm(rec *record.Record) (tea.Model, tea.Cmd) {
	f := &recordForm{Type: record.TypeExpense, Date: time.Now().Format(dateLayout)}

	if rec != nil {
		f = &recordForm{
			Type:       rec.Type,
			CategoryID: rec.CategoryID,
			AccountID:  rec.AccountID,
			Amount:     FormatAmount(rec.Amount),
			Date:       rec.Date,
			Remark:     rec.Remark,
		}
	}

	var typeField []huh.Field
	if rec == nil {
		typeField = append(typeField, huh.NewSelect[record.Type]().
			Title("Type").
			Options(huh.NewOption("Expense", record.TypeExpense), huh.NewOption("Income", record.TypeIncome)).
			Value(&f.Type))
	}

	cats := m.cats

	fields := append(typeField,
		huh.NewSelect[string]().
			Title("Category").
			OptionsFunc(func() []huh.Option[string] {
				var opts []huh.Option[string]

				for _, c := range cats {
					if c.Type == f.Type && c.IsEnabled {
						opts = append(opts, huh.NewOption(c.Name, c.ID))
					}
				}

				return opts
			}, &f.Type).
			Value(&f.CategoryID),

		huh.NewSelect[string]().
			Title("Account").
			Options(m.accountOptions()...).
			Value(&f.AccountID),

		huh.NewInput().
			Title("Amount").
			Placeholder("12.50").
			Value(&f.Amount).
			Validate(func(s string) error {
				_, err := ParseAmount(s)
				return err
			}),

		huh.NewInput().
			Title("Date").
			Placeholder(dateLayout).
			Value(&f.Date).
			Validate(validDate),

		huh.NewInput().
			Title("Remark").
			CharLimit(100).
			Value(&f.Remark),
	)

	m.fields = f
	m.editing = rec
	m.form = huh.NewForm(huh.NewGroup(fields...)).WithWidth(50).WithShowHelp(false)
	m.state = recStateForm

	return m, m.form.Init()
}

func (m RecordsModel) accountOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(m.accts))
	for _, a := range m.accts {
		if a.IsEnabled {
			opts = append(opts, huh.NewOption(a.Name, a.ID))
		}
	}

	return opts
}

func (m RecordsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = recStateList
			m.form = nil

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	cmd = m.saveCmd()
	m.state = recStateList
	m.form = nil

	return m, cmd
}

func (m RecordsModel) View() string {
	switch m.state {
	case recStateTimeframe:
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())

	case recStateList:
		if m.loading {
			return lipgloss.NewStyle().Padding(2).Render("Loading records...")
		}

		filter := "all"
		if m.typ != "" {
			filter = string(m.typ)
		}

		statusLine := lipgloss.NewStyle().Faint(true).Render("Showing: " + filter) + "\n"
		if m.status != "" {
			statusLine += lipgloss.NewStyle().Faint(true).Render(m.status) + "\n"
		}

		return lipgloss.NewStyle().Padding(1).Render(statusLine + m.list.View())

	case recStateForm:
		if m.form == nil {
			return ""
		}

		title := "New Record"
		if m.editing != nil {
			title = fmt.Sprintf("Edit %s record", m.editing.Type)
		}

		return lipgloss.NewStyle().Padding(1).Render(
			lipgloss.NewStyle().Bold(true).Render(title) + "\n\n" + m.form.View(),
		)
	}

	return ""
}

// nextTypeFilter cycles all, expense, income.
func nextTypeFilter(t record.Type) record.Type {
	switch t {
	case "":
		return record.TypeExpense
	case record.TypeExpense:
		return record.TypeIncome
	}

	return ""
}

func (m *RecordsModel) refreshListItems(recs []record.Record) {
	items := make([]list.Item, len(recs))
	for i, r := range recs {
		items[i] = recItem{rec: r, category: m.catNames[r.CategoryID], account: m.acctNames[r.AccountID]}
	}

	m.list.SetItems(items)
}

// Messages

type loadRecordsMsg struct {
	recs  []record.Record
	total int
	cats  []category.Category
	accts []account.Account
	err   error
}

func (m RecordsModel) loadCmd() tea.Cmd {
	q := record.Query{Type: m.typ, Page: 1, PageSize: recordsPageSize}
	if m.rng != nil {
		q.StartDate, q.EndDate = m.rng.Start, m.rng.End
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		page, err := m.records.FindByQuery(ctx, q)
		if err != nil {
			return loadRecordsMsg{err: err}
		}

		cats, err := m.categories.FindAll(ctx)
		if err != nil {
			return loadRecordsMsg{err: err}
		}

		accts, err := m.accounts.FindAll(ctx)
		if err != nil {
			return loadRecordsMsg{err: err}
		}

		return loadRecordsMsg{recs: page.Items, total: page.Total, cats: cats, accts: accts}
	}
}

type recordSavedMsg struct {
	status string
	err    error
}

func (m RecordsModel) saveCmd() tea.Cmd {
	f := *m.fields
	editing := m.editing
	records := m.records

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		amount, err := ParseAmount(f.Amount)
		if err != nil {
			return recordSavedMsg{err: err}
		}

		if editing == nil {
			_, err := records.Create(ctx, record.Record{
				Type:       f.Type,
				Amount:     amount,
				CategoryID: f.CategoryID,
				AccountID:  f.AccountID,
				Date:       f.Date,
				Remark:     f.Remark,
			})

			return recordSavedMsg{status: "Record added.", err: err}
		}

		_, found, err := records.Update(ctx, editing.ID, record.Patch{
			Amount:     &amount,
			CategoryID: &f.CategoryID,
			AccountID:  &f.AccountID,
			Date:       &f.Date,
			Remark:     &f.Remark,
		})
		if err == nil && !found {
			err = fmt.Errorf("record no longer exists")
		}

		return recordSavedMsg{status: "Saved.", err: err}
	}
}

func (m RecordsModel) softDeleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.records.SoftDelete(ctx, id)

		return recordSavedMsg{status: "Moved to trash.", err: err}
	}
}

// recItemDelegate renders items in the list.
type recItemDelegate struct{}

func (d recItemDelegate) Height() int                             { return 2 }
func (d recItemDelegate) Spacing() int                            { return 0 }
func (d recItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d recItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(recItem)
	if !ok {
		return
	}

	title := i.Title()
	if index == m.Index() {
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("> " + title)
	}

	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintf(w, "    %s\n", lipgloss.NewStyle().Faint(true).Render(i.Description()))
}
