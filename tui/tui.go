// Package tui is a terminal front end for a running tasklist server.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tasklist/models"
)

// Client is the subset of the API client the interface needs.
type Client interface {
	List(ctx context.Context) ([]models.Task, error)
	Create(ctx context.Context, title string) (models.Task, error)
	SetDone(ctx context.Context, id string, done bool) (models.Task, error)
	Toggle(ctx context.Context, id string) (models.Task, error)
	Delete(ctx context.Context, id string) error
}

const requestTimeout = 10 * time.Second

type (
	tasksMsg   []models.Task
	changedMsg string
	errMsg     struct{ err error }
)

type taskItem struct{ models.Task }

func (i taskItem) FilterValue() string { return i.Title }

type itemDelegate struct{}

func (d itemDelegate) Height() int                         { return 1 }
func (d itemDelegate) Spacing() int                        { return 0 }
func (d itemDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(taskItem)
	if !ok {
		return
	}
	box := mutedStyle.Render(boxUnchecked)
	text := it.Title
	if it.Done {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s %s", prefix, box, text, mutedStyle.Render(it.CreatedAt.Local().Format("Jan 2 15:04")))
}

// Model is the bubbletea model. Every change goes to the server and the list
// is reloaded afterwards, so the screen never shows unsaved state.
type Model struct {
	ctx    context.Context
	client Client

	list  list.Model
	tasks []models.Task
	input textinput.Model

	adding     bool
	confirming bool
	status     string
	err        error
}

// New builds the model. Init loads the tasks.
func New(ctx context.Context, client Client) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("task", "tasks")
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.Title = header(nil)

	bindings := []key.Binding{
		key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "done")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
	l.AdditionalShortHelpKeys = func() []key.Binding { return bindings }
	l.AdditionalFullHelpKeys = func() []key.Binding { return bindings }

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New task title..."
	ti.CharLimit = 200

	return Model{ctx: ctx, client: client, list: l, input: ti}
}

// Run starts the interface and blocks until the user quits or ctx ends.
func Run(ctx context.Context, client Client) error {
	p := tea.NewProgram(New(ctx, client), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func header(tasks []models.Task) string {
	s := models.Summarize(tasks)
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Tasks"),
		successStyle.Render("✔"), s.Completed,
		pendingStyle.Render("•"), s.Pending,
		accentStyle.Render("Total"), s.Total,
	)
}

func (m Model) Init() tea.Cmd { return m.load() }

func (m Model) call(fn func(ctx context.Context) (tea.Msg, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, requestTimeout)
		defer cancel()
		msg, err := fn(ctx)
		if err != nil {
			return errMsg{err}
		}
		return msg
	}
}

func (m Model) load() tea.Cmd {
	return m.call(func(ctx context.Context) (tea.Msg, error) {
		tasks, err := m.client.List(ctx)
		return tasksMsg(tasks), err
	})
}

func (m Model) selected() (models.Task, bool) {
	it, ok := m.list.SelectedItem().(taskItem)
	return it.Task, ok
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-3)
		return m, nil
	case tasksMsg:
		m.tasks = msg
		m.err = nil
		items := make([]list.Item, len(msg))
		for i, t := range msg {
			items[i] = taskItem{t}
		}
		m.list.Title = header(msg)
		return m, m.list.SetItems(items)
	case changedMsg:
		m.status = string(msg)
		return m, m.load()
	case errMsg:
		m.err = msg.err
		return m, nil
	case tea.KeyMsg:
		switch {
		case m.adding:
			return m.updateAdding(msg)
		case m.confirming:
			return m.updateConfirm(msg)
		}
		return m.updateBrowsing(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title, err := models.NormalizeTitle(m.input.Value())
		if err != nil {
			m.err = err
			return m, nil
		}
		m.adding = false
		m.input.SetValue("")
		m.input.Blur()
		return m, m.call(func(ctx context.Context) (tea.Msg, error) {
			_, err := m.client.Create(ctx, title)
			return changedMsg("added"), err
		})
	case "esc":
		m.adding = false
		m.input.SetValue("")
		m.input.Blur()
		m.err = nil
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.confirming = false
	task, ok := m.selected()
	if !ok || msg.String() != "y" {
		m.status = "delete cancelled"
		return m, nil
	}
	return m, m.call(func(ctx context.Context) (tea.Msg, error) {
		return changedMsg("deleted"), m.client.Delete(ctx, task.ID)
	})
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.status = ""
		return m, m.load()
	case "a":
		m.adding = true
		m.err = nil
		return m, m.input.Focus()
	case "d":
		if _, ok := m.selected(); ok {
			m.confirming = true
		}
		return m, nil
	case " ":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.call(func(ctx context.Context) (tea.Msg, error) {
			_, err := m.client.Toggle(ctx, task.ID)
			if errors.Is(err, models.ErrUnsupported) {
				// stores without an atomic toggle still accept an explicit value
				_, err = m.client.SetDone(ctx, task.ID, !task.Done)
			}
			return changedMsg("updated"), err
		})
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.list.View())
	b.WriteString("\n")

	switch {
	case m.adding:
		b.WriteString(m.input.View())
	case m.confirming:
		if t, ok := m.selected(); ok {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Delete %q? (y/n)", t.Title)))
		}
	case m.status != "":
		b.WriteString(mutedStyle.Render(m.status))
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("✖ " + m.err.Error()))
	}
	return b.String()
}
