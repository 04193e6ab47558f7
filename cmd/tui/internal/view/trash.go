package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/mochi/internal/record"
)

type trashState int

const (
	trashStateBrowse trashState = iota
	trashStateConfirm
)

type TrashModel struct {
	CommonModel
	records *record.Repository

	state   trashState
	table   table.Model
	recs    []record.Record
	form    *huh.Form
	confirm bool

	loading bool
	err     error
	status  string
}

func NewTrashModel(records *record.Repository) TrashModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Type", Width: 8},
		{Title: "Amount", Width: 12},
		{Title: "Remark", Width: 40},
	}

	t := newTable(columns, 15)

	return TrashModel{
		records: records,
		table:   t,
		loading: true,
	}
}

func (m TrashModel) Title() string { return "Trash" }

func (m TrashModel) ShortHelp() string {
	if m.state == trashStateConfirm {
		return "Enter: confirm | Esc: cancel"
	}

	return "Esc: back | u: restore | x: delete forever | E: empty trash"
}

func (m TrashModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m TrashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadTrashMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.recs = msg.recs
		m.refreshTable()

		return m, nil

	case trashActionMsg:
		m.state = trashStateBrowse
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.status = msg.status

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	if m.state == trashStateConfirm {
		return m.updateConfirm(msg)
	}

	return m.updateBrowse(msg)
}

func (m TrashModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "u":
			if rec, ok := m.selected(); ok {
				return m, m.restoreCmd(rec.ID)
			}

			return m, nil
		case "x":
			if rec, ok := m.selected(); ok {
				return m, m.hardDeleteCmd(rec.ID)
			}

			return m, nil
		case "E":
			if len(m.recs) == 0 {
				return m, nil
			}

			m.confirm = false
			m.form = huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Delete %d records forever?", len(m.recs))).
						Affirmative("Yes").
						Negative("No").
						Value(&m.confirm),
				),
			).WithWidth(45).WithShowHelp(false)
			m.state = trashStateConfirm
			m.table.Blur()

			return m, m.form.Init()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m TrashModel) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = trashStateBrowse
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

	m.state = trashStateBrowse
	m.form = nil
	m.table.Focus()

	if !m.confirm {
		return m, nil
	}

	return m, m.emptyCmd()
}

func (m TrashModel) selected() (record.Record, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.recs) {
		return record.Record{}, false
	}

	return m.recs[idx], true
}

func (m TrashModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading trash...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	header := fmt.Sprintf("Trash: %s records", activeStyle(fmt.Sprint(len(m.recs))))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == trashStateConfirm && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Width(48).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *TrashModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.recs))
	for _, r := range m.recs {
		rows = append(rows, table.Row{
			r.Date,
			string(r.Type),
			FormatAmount(r.Amount),
			r.Remark,
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadTrashMsg struct {
	recs []record.Record
	err  error
}

func (m TrashModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		recs, err := m.records.Trash(ctx)

		return loadTrashMsg{recs: recs, err: err}
	}
}

type trashActionMsg struct {
	status string
	err    error
}

func (m TrashModel) restoreCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.records.Restore(ctx, id)

		return trashActionMsg{status: "Record restored.", err: err}
	}
}

func (m TrashModel) hardDeleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return trashActionMsg{status: "Record deleted forever.", err: m.records.HardDelete(ctx, id)}
	}
}

func (m TrashModel) emptyCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		n, err := m.records.EmptyTrash(ctx)

		return trashActionMsg{status: fmt.Sprintf("Deleted %d records.", n), err: err}
	}
}
