package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todo/internal/core"
	"github.com/valter-silva-au/todo/internal/observability"
	"github.com/valter-silva-au/todo/pkg/models"
)

type boardMode int

const (
	modeList boardMode = iota
	modeDetail
	modeAdd
)

// Add form field indices.
const (
	fieldTitle = iota
	fieldDescription
	fieldLocation
	fieldWhen
	fieldCount
)

type boardModel struct {
	ctx     context.Context
	store   core.TaskStore
	notices *observability.RecordingNotifier

	spec   models.SortSpec
	state  core.LoadState
	tasks  []models.Task
	cursor int
	mode   boardMode
	form   addForm

	notice     string
	noticeKind core.NotificationKind
	err        error

	width  int
	height int
}

type addForm struct {
	inputs []textinput.Model
	focus  int
	err    string
}

// storeLoadedMsg reports that the store finished reading the saved list.
type storeLoadedMsg struct {
	err error
}

// actionDoneMsg reports the outcome of a mutation run off the UI loop.
type actionDoneMsg struct {
	err error
}

// taskAddedMsg reports the outcome of submitting the add form.
type taskAddedMsg struct {
	task models.Task
	err  error
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	selectedRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	formErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newBoardModel(ctx context.Context, store core.TaskStore, notices *observability.RecordingNotifier, spec models.SortSpec) boardModel {
	return boardModel{
		ctx:     ctx,
		store:   store,
		notices: notices,
		spec:    spec,
		state:   store.State(),
	}
}

func (m boardModel) Init() tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		if store.State() != core.StateLoading {
			return storeLoadedMsg{}
		}
		return storeLoadedMsg{err: store.Initialize(ctx)}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case storeLoadedMsg:
		m.err = msg.err
		m.refresh()
		return m, nil

	case actionDoneMsg:
		m.refresh()
		if msg.err != nil {
			m.notice, m.noticeKind = msg.err.Error(), core.NotifyError
		}
		return m, nil

	case taskAddedMsg:
		if msg.err != nil {
			var ve *core.ValidationError
			if errors.As(msg.err, &ve) {
				m.form.err = ve.Message
				return m, nil
			}
			m.form.err = msg.err.Error()
			return m, nil
		}
		m.mode = modeList
		m.refresh()
		m.selectTask(msg.task.ID)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateForm(msg)
		case modeDetail:
			switch msg.String() {
			case "esc", "enter", "backspace", "q":
				m.mode = modeList
			case "ctrl+c":
				return m, tea.Quit
			}
			return m, nil
		default:
			return m.updateList(msg)
		}
	}

	if m.mode == modeAdd {
		return m.updateFocusedInput(msg)
	}
	return m, nil
}

func (m boardModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case "o":
		m.spec = m.spec.NextKey()
		m.refresh()
	case "r":
		m.spec = m.spec.Reversed()
		m.refresh()
	case "enter":
		if _, ok := m.selected(); ok {
			m.mode = modeDetail
		}
	case "a":
		if m.state == core.StateLoading {
			return m, nil
		}
		m.mode = modeAdd
		m.form = newAddForm()
		return m, textinput.Blink
	case "s":
		return m, m.transitionSelected(models.StatusInProgress)
	case "c":
		return m, m.transitionSelected(models.StatusCompleted)
	case "x":
		return m, m.transitionSelected(models.StatusCancelled)
	case "d":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		store, ctx := m.store, m.ctx
		return m, func() tea.Msg {
			return actionDoneMsg{err: store.DeleteTask(ctx, task.ID)}
		}
	}
	return m, nil
}

// transitionSelected returns nil when the selected task cannot move to
// status, so illegal actions are never sent to the store.
func (m boardModel) transitionSelected(status models.TaskStatus) tea.Cmd {
	task, ok := m.selected()
	if !ok || !models.CanTransition(task.Status, status) {
		return nil
	}
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		_, err := store.TransitionStatus(ctx, task.ID, status)
		return actionDoneMsg{err: err}
	}
}

func (m boardModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.mode = modeList
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		m.form.setFocus(m.form.focus + 1)
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.form.setFocus(m.form.focus - 1)
		return m, nil
	case tea.KeyEnter:
		if m.form.focus < fieldCount-1 {
			m.form.setFocus(m.form.focus + 1)
			return m, nil
		}
		return m, m.submitForm()
	}
	return m.updateFocusedInput(msg)
}

func (m boardModel) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	i := m.form.focus
	m.form.inputs[i], cmd = m.form.inputs[i].Update(msg)
	return m, cmd
}

func (m *boardModel) submitForm() tea.Cmd {
	in := m.form.inputs
	when, err := core.ParseExecutionTime(in[fieldWhen].Value(), now())
	if err != nil {
		m.form.err = err.Error()
		return nil
	}
	m.form.err = ""

	input := core.NewTaskInput{
		Title:             in[fieldTitle].Value(),
		Description:       in[fieldDescription].Value(),
		Location:          in[fieldLocation].Value(),
		ExecutionDateTime: when,
	}
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		task, err := store.AddTask(ctx, input)
		return taskAddedMsg{task: task, err: err}
	}
}

// refresh re-reads the projected list and picks up the latest notice.
func (m *boardModel) refresh() {
	m.state = m.store.State()
	m.tasks = m.store.Sorted(m.spec)
	if m.cursor >= len(m.tasks) {
		m.cursor = len(m.tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.notices != nil {
		if msg, kind, ok := m.notices.Last(); ok {
			m.notice, m.noticeKind = msg, kind
		}
	}
}

func (m *boardModel) selectTask(id string) {
	for i, t := range m.tasks {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m boardModel) selected() (models.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return models.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func newAddForm() addForm {
	specs := []struct {
		prompt      string
		placeholder string
		limit       int
	}{
		{"Title:       ", "What needs doing", 120},
		{"Description: ", "optional", 500},
		{"Location:    ", "optional", 120},
		{"When:        ", "YYYY-MM-DD HH:MM or +2h", 40},
	}

	f := addForm{inputs: make([]textinput.Model, fieldCount)}
	for i, s := range specs {
		ti := textinput.New()
		ti.Prompt = s.prompt
		ti.Placeholder = s.placeholder
		ti.CharLimit = s.limit
		ti.Width = 50
		f.inputs[i] = ti
	}
	f.inputs[fieldTitle].Focus()
	return f
}

func (f *addForm) setFocus(i int) {
	if i < 0 || i >= len(f.inputs) {
		return
	}
	f.inputs[f.focus].Blur()
	f.focus = i
	f.inputs[i].Focus()
}

func (m boardModel) View() string {
	if m.width == 0 {
		return msgLoading
	}

	title := titleStyle.Render(" todo ")
	sortLine := dimStyle.Render(fmt.Sprintf("sorted by %s %s", m.spec.Key, m.spec.Direction))
	header := title + "  " + sortLine

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", header, m.err, helpStyle.Render("q: quit"))
	}

	var body, help string
	switch m.mode {
	case modeAdd:
		body = m.renderForm()
		help = "tab/enter: next field | enter on last field: save | esc: cancel"
	case modeDetail:
		body = m.renderDetail()
		help = "esc/enter: back"
	default:
		body = m.renderList()
		help = "j/k: move | enter: details | a: add | o: sort key | r: reverse | q: quit"
	}

	panelWidth := m.width - 4
	if panelWidth < 20 {
		panelWidth = 20
	}
	style := panelStyle
	if m.mode != modeList {
		style = activePanelStyle
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(style.Width(panelWidth).Render(body))
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(observability.RenderNotice(m.notice, m.noticeKind))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

func (m boardModel) renderList() string {
	if msg := emptyStateMessage(m.state, len(m.tasks)); msg != "" {
		return msg
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Tasks (%d)", len(m.tasks))))
	b.WriteString("\n")
	for i, t := range m.tasks {
		status := statusStyle(t.Status).Render(fmt.Sprintf("%-11s", t.Status))
		line := fmt.Sprintf("%-18s  %s", displayTime(t.ExecutionDateTime), t.Title)
		if i == m.cursor {
			b.WriteString("› " + status + "  " + selectedRowStyle.Render(line))
		} else {
			b.WriteString("  " + status + "  " + line)
		}
		b.WriteString("\n")
	}

	if task, ok := m.selected(); ok {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(rowActions(task.Status)))
	}
	return b.String()
}

// rowActions lists the keys that apply to a task in status s.
func rowActions(s models.TaskStatus) string {
	var actions []string
	if models.CanTransition(s, models.StatusInProgress) {
		actions = append(actions, "s: start")
	}
	if models.CanTransition(s, models.StatusCompleted) {
		actions = append(actions, "c: complete")
	}
	if models.CanTransition(s, models.StatusCancelled) {
		actions = append(actions, "x: cancel")
	}
	actions = append(actions, "d: delete")
	return strings.Join(actions, "  ")
}

func (m boardModel) renderDetail() string {
	task, ok := m.selected()
	if !ok {
		return "No task selected."
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(task.Title))
	b.WriteString("\n")
	printTask(&b, task)
	return strings.TrimRight(b.String(), "\n")
}

func (m boardModel) renderForm() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("New task"))
	b.WriteString("\n")
	for _, in := range m.form.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if m.form.err != "" {
		b.WriteString("\n")
		b.WriteString(formErrorStyle.Render(m.form.err))
	}
	return strings.TrimRight(b.String(), "\n")
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Interactive task board",
	Long: `Launch an interactive terminal board listing every task.

Move with j/k or the arrow keys. On the selected task, s starts it, c
completes it, x cancels it and d deletes it; only the actions the task's
status allows are offered. a opens the add form, o switches the sort key,
r reverses the order, enter shows details and q quits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskStore == nil {
			return fmt.Errorf("task store not initialized")
		}

		// Notices are shown inside the board while it owns the terminal.
		if Console != nil {
			prev := Console.SetOutput(io.Discard)
			defer Console.SetOutput(prev)
		}

		model := newBoardModel(commandContext(cmd), TaskStore, Notices, SortSpec)
		p := tea.NewProgram(model, tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
}
