package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/api"
	"taskdeck/internal/models"
	"taskdeck/internal/order"
	"taskdeck/internal/store"
	"taskdeck/internal/ui/keys"
	"taskdeck/internal/ui/styles"
)

func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

var taskStatusOptions = []models.TaskStatus{models.TaskTodo, models.TaskInProgress, models.TaskDone}
var priorityOptions = []models.Priority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh}

func indexOf[T comparable](options []T, value T) int {
	for i, opt := range options {
		if opt == value {
			return i
		}
	}
	return 0
}

// TasksView shows the task list with filtering and manual reordering
type TasksView struct {
	store  *store.Store
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	// Display state: order is the client-local arrangement, byID resolves
	// display IDs back to entities from the filtered canonical set
	cursor          int
	scrollY         int
	order           order.Controller
	byID            map[string]models.Task
	filterProjectID string

	// Project filter dropdown
	dropdownOpen   bool
	dropdownCursor int

	// Reorder mode: the selected row moves with up/down until dropped
	grabbing bool

	// Task creation/editing
	editing      bool
	editingNew   bool
	editTargetID string
	editTitle    textinput.Model
	editDesc     textinput.Model
	editDue      textinput.Model
	statusIdx    int
	priorityIdx  int
	projectIdx   int // 0 = no project, i>0 = projects[i-1]
	editFocusIdx int // 0=title 1=desc 2=status 3=priority 4=due 5=project 6=save
	formErr      string

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string

	loaded bool
}

// NewTasksView creates the tasks view backed by the shared store
func NewTasksView(st *store.Store) *TasksView {
	s := styles.NewStyles()

	editTitle := textinput.New()
	editTitle.Placeholder = "Task title"
	editTitle.CharLimit = 200

	editDesc := textinput.New()
	editDesc.Placeholder = "Description (optional)"
	editDesc.CharLimit = 500

	editDue := textinput.New()
	editDue.Placeholder = "YYYY-MM-DD"
	editDue.CharLimit = 10

	return &TasksView{
		store:     st,
		styles:    s,
		keys:      keys.DefaultKeyMap(),
		byID:      map[string]models.Task{},
		editTitle: editTitle,
		editDesc:  editDesc,
		editDue:   editDue,
	}
}

type tasksRefreshedMsg struct{}
type projectsRefreshedMsg struct{}

// Init fetches tasks and projects (projects feed the filter dropdown)
func (v *TasksView) Init() tea.Cmd {
	return tea.Batch(v.refreshTasks, v.refreshProjects)
}

func (v *TasksView) refreshTasks() tea.Msg {
	v.store.FetchTasks()
	return tasksRefreshedMsg{}
}

func (v *TasksView) refreshProjects() tea.Msg {
	v.store.FetchProjects()
	return projectsRefreshedMsg{}
}

// Capturing reports whether the view wants all key input (modal state)
func (v *TasksView) Capturing() bool {
	return v.editing || v.dropdownOpen || v.confirmingDelete || v.grabbing
}

// resync rebuilds the display order from the filtered canonical collection,
// discarding any manual arrangement.
func (v *TasksView) resync() {
	filtered := order.FilterTasksByProject(v.store.Tasks(), v.filterProjectID)
	v.order.Sync(order.TaskIDs(filtered))
	v.byID = make(map[string]models.Task, len(filtered))
	for _, t := range filtered {
		v.byID[t.ID] = t
	}
	if v.cursor >= v.order.Len() {
		v.cursor = max(0, v.order.Len()-1)
	}
	v.loaded = true
}

func (v *TasksView) selectedTask() (models.Task, bool) {
	id, ok := v.order.At(v.cursor)
	if !ok {
		return models.Task{}, false
	}
	task, ok := v.byID[id]
	return task, ok
}

// Update handles messages
func (v *TasksView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case tasksRefreshedMsg:
		v.resync()
		return v, nil

	case projectsRefreshedMsg:
		return v, nil

	case taskFormErrMsg:
		v.formErr = msg.message
		return v, nil

	case tea.KeyMsg:
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.editing {
			return v.updateEditing(msg)
		}

		if v.dropdownOpen {
			return v.updateDropdown(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TasksView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.grabbing {
		return v.updateGrabbing(msg)
	}

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < v.order.Len()-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Grab):
		if v.order.Len() > 1 {
			v.grabbing = true
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startNewTask()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit), key.Matches(msg, v.keys.Enter):
		if task, ok := v.selectedTask(); ok {
			v.startEditTask(task)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if task, ok := v.selectedTask(); ok {
			v.confirmingDelete = true
			v.deleteTargetID = task.ID
			v.deleteTargetName = task.Title
		}
		return v, nil

	case key.Matches(msg, v.keys.Filter):
		v.dropdownOpen = true
		v.dropdownCursor = 0
		return v, nil

	case msg.String() == "r":
		return v, v.refreshTasks
	}

	return v, nil
}

func (v *TasksView) updateGrabbing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			source, _ := v.order.At(v.cursor)
			target, _ := v.order.At(v.cursor - 1)
			if v.order.Move(source, target) {
				v.cursor--
				v.ensureVisible()
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < v.order.Len()-1 {
			source, _ := v.order.At(v.cursor)
			target, _ := v.order.At(v.cursor + 1)
			if v.order.Move(source, target) {
				v.cursor++
				v.ensureVisible()
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.Grab), key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
		v.grabbing = false
		return v, nil
	}

	return v, nil
}

func (v *TasksView) updateDropdown(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	projects := v.store.Projects()

	switch {
	case key.Matches(msg, v.keys.Back):
		v.dropdownOpen = false
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.dropdownCursor > 0 {
			v.dropdownCursor--
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.dropdownCursor < len(projects) { // +1 for "All Projects"
			v.dropdownCursor++
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.dropdownCursor == 0 {
			v.filterProjectID = ""
		} else {
			v.filterProjectID = projects[v.dropdownCursor-1].ID
		}
		v.dropdownOpen = false
		v.cursor = 0
		v.scrollY = 0
		// Filter change resets the display order
		v.resync()
		return v, nil
	}

	return v, nil
}

func (v *TasksView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id := v.deleteTargetID
		return v, func() tea.Msg {
			v.store.DeleteTask(id)
			return tasksRefreshedMsg{}
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

type taskFormErrMsg struct {
	message string
}

func (v *TasksView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case msg.String() == "ctrl+s":
		return v, v.saveTask()

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % 7
		v.updateEditFocus()
		return v, nil

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + 6) % 7
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.editFocusIdx == 6 {
			return v, v.saveTask()
		}
		v.editFocusIdx++
		v.updateEditFocus()
		return v, nil

	case msg.String() == "left", msg.String() == "right":
		v.cycleSelectField(msg.String() == "right")
		return v, nil
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case 0:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case 1:
		v.editDesc, cmd = v.editDesc.Update(msg)
	case 4:
		v.editDue, cmd = v.editDue.Update(msg)
	}
	return v, cmd
}

func (v *TasksView) cycleSelectField(forward bool) {
	step := func(idx, size int) int {
		if forward {
			return (idx + 1) % size
		}
		return (idx + size - 1) % size
	}

	switch v.editFocusIdx {
	case 2:
		v.statusIdx = step(v.statusIdx, len(taskStatusOptions))
	case 3:
		v.priorityIdx = step(v.priorityIdx, len(priorityOptions))
	case 5:
		v.projectIdx = step(v.projectIdx, len(v.store.Projects())+1)
	}
}

func (v *TasksView) startNewTask() {
	v.editing = true
	v.editingNew = true
	v.editFocusIdx = 0
	v.formErr = ""
	v.editTitle.Reset()
	v.editDesc.Reset()
	v.editDue.Reset()
	v.statusIdx = 0
	v.priorityIdx = 0
	v.projectIdx = v.projectIndexFor(v.filterProjectID)
	v.updateEditFocus()
}

func (v *TasksView) startEditTask(task models.Task) {
	v.editing = true
	v.editingNew = false
	v.editTargetID = task.ID
	v.editFocusIdx = 0
	v.formErr = ""
	v.editTitle.SetValue(task.Title)
	v.editDesc.SetValue(task.Description)
	v.editDue.SetValue(task.DueDate)
	v.statusIdx = indexOf(taskStatusOptions, task.Status)
	v.priorityIdx = indexOf(priorityOptions, task.Priority)
	v.projectIdx = v.projectIndexFor(task.ProjectID)
	v.updateEditFocus()
}

func (v *TasksView) projectIndexFor(projectID string) int {
	if projectID == "" {
		return 0
	}
	for i, p := range v.store.Projects() {
		if p.ID == projectID {
			return i + 1
		}
	}
	return 0
}

func (v *TasksView) updateEditFocus() {
	v.editTitle.Blur()
	v.editDesc.Blur()
	v.editDue.Blur()

	switch v.editFocusIdx {
	case 0:
		v.editTitle.Focus()
	case 1:
		v.editDesc.Focus()
	case 4:
		v.editDue.Focus()
	}
}

func (v *TasksView) saveTask() tea.Cmd {
	title := strings.TrimSpace(v.editTitle.Value())
	if title == "" {
		v.formErr = "Title is required."
		return nil
	}

	due := strings.TrimSpace(v.editDue.Value())
	if due != "" {
		if _, err := time.Parse(models.DateLayout, due); err != nil {
			v.formErr = "Due date must be YYYY-MM-DD."
			return nil
		}
	}

	desc := strings.TrimSpace(v.editDesc.Value())
	status := taskStatusOptions[v.statusIdx]
	priority := priorityOptions[v.priorityIdx]
	projectID := ""
	if projects := v.store.Projects(); v.projectIdx > 0 && v.projectIdx <= len(projects) {
		projectID = projects[v.projectIdx-1].ID
	}

	v.editing = false
	v.formErr = ""

	if v.editingNew {
		in := api.TaskInput{
			Title:       title,
			Description: desc,
			Status:      status,
			Priority:    priority,
			DueDate:     due,
			ProjectID:   projectID,
		}
		return func() tea.Msg {
			v.store.AddTask(in)
			return tasksRefreshedMsg{}
		}
	}

	id := v.editTargetID
	patch := api.TaskPatch{
		Title:       &title,
		Description: &desc,
		Status:      &status,
		Priority:    &priority,
		DueDate:     &due,
		ProjectID:   &projectID,
	}
	return func() tea.Msg {
		v.store.UpdateTask(id, patch)
		return tasksRefreshedMsg{}
	}
}

func (v *TasksView) ensureVisible() {
	// Each task item is 2 lines + 1 margin = 3 lines
	availableHeight := v.height - 10
	if availableHeight < 3 {
		availableHeight = 3
	}
	visibleItems := availableHeight / 3
	if visibleItems < 1 {
		visibleItems = 1
	}

	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

// View renders the view
func (v *TasksView) View() string {
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.editing {
		return v.renderEditForm()
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderTaskList())
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TasksView) renderHeader() string {
	s := v.styles

	filterLabel := "All Projects"
	if v.filterProjectID != "" {
		if p, ok := v.store.ProjectByID(v.filterProjectID); ok {
			filterLabel = p.Name
		}
	}
	filterBtn := s.Button.Render(filterLabel + " ▼")

	title := s.Title.Render("Tasks")
	if v.store.Loading() {
		title += "  " + s.TitleMuted.Render("Loading...")
	}

	header := lipgloss.JoinVertical(lipgloss.Left, title, filterBtn)

	if errMsg := v.store.Err(); errMsg != "" {
		header = lipgloss.JoinVertical(lipgloss.Left, header, s.FormError.Render(errMsg))
	}

	if v.dropdownOpen {
		header += "\n" + v.renderDropdown()
	}
	return header
}

func (v *TasksView) renderDropdown() string {
	s := v.styles
	var items []string

	allStyle := s.ListItem
	if v.dropdownCursor == 0 {
		allStyle = s.ListSelected
	}
	items = append(items, allStyle.Render("All Projects"))

	for i, p := range v.store.Projects() {
		itemStyle := s.ListItem
		if v.dropdownCursor == i+1 {
			itemStyle = s.ListSelected
		}
		label := p.Name
		if p.Color != "" {
			dot := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color))
			label = dot.Render("●") + " " + p.Name
		}
		items = append(items, itemStyle.Render(label))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, items...)
	return s.FilterBar.Render(content)
}

func (v *TasksView) renderTaskList() string {
	s := v.styles

	if !v.loaded {
		return s.TitleMuted.Render("Loading...")
	}

	ids := v.order.IDs()
	if len(ids) == 0 {
		return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	availableHeight := v.height - 10
	if availableHeight < 3 {
		availableHeight = 3
	}
	visibleItems := availableHeight / 3
	if visibleItems < 1 {
		visibleItems = 1
	}

	var items []string
	endIdx := min(v.scrollY+visibleItems, len(ids))

	for i := v.scrollY; i < endIdx; i++ {
		task, ok := v.byID[ids[i]]
		if !ok {
			// Stale ID after a deletion, skipped rather than erroring
			continue
		}
		items = append(items, v.renderTaskItem(task, i == v.cursor))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func statusGlyph(status models.TaskStatus) string {
	switch status {
	case models.TaskInProgress:
		return "◐"
	case models.TaskDone:
		return "●"
	}
	return "○"
}

func (v *TasksView) priorityMark(priority models.Priority) string {
	t := styles.Current
	switch priority {
	case models.PriorityHigh:
		return lipgloss.NewStyle().Foreground(t.Error).Render("!")
	case models.PriorityMedium:
		return lipgloss.NewStyle().Foreground(t.Warning).Render("·")
	}
	return " "
}

func (v *TasksView) renderTaskItem(task models.Task, selected bool) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-4, 20)

	grab := "  "
	if selected && v.grabbing {
		grab = "≡ "
	}

	titleLine := grab + statusGlyph(task.Status) + " " + v.priorityMark(task.Priority) + " " + task.Title

	var details []string
	if task.DueDate != "" {
		details = append(details, "due "+task.DueDate)
	}
	if task.ProjectID != "" {
		if p, ok := v.store.ProjectByID(task.ProjectID); ok {
			details = append(details, p.Name)
		}
	}
	if task.Description != "" {
		details = append(details, task.Description)
	}
	detailLine := s.TitleMuted.Render(strings.Join(details, " • "))
	if len(details) == 0 {
		detailLine = ""
	}

	var titleStyle, detailStyle lipgloss.Style
	if selected {
		titleStyle = s.ListSelected.Width(width)
		detailStyle = s.ListSelected.Width(width)
	} else {
		titleStyle = s.ListItem.Width(width)
		detailStyle = s.ListItem.Width(width)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(titleLine),
		detailStyle.Render(detailLine),
	) + "\n"
}

func (v *TasksView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "New Task"
	if !v.editingNew {
		formTitle = "Edit Task"
	}

	fieldStyle := func(idx int) lipgloss.Style {
		if v.editFocusIdx == idx {
			return s.InputFocused
		}
		return s.Input
	}
	btnStyle := s.Button
	if v.editFocusIdx == 6 {
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	projectLabel := "None"
	if projects := v.store.Projects(); v.projectIdx > 0 && v.projectIdx <= len(projects) {
		projectLabel = projects[v.projectIdx-1].Name
	}

	rows := []string{
		s.Title.Render(formTitle),
		"",
		"Title:",
		fieldStyle(0).Width(inputWidth).Render(v.editTitle.View()),
		"",
		"Description:",
		fieldStyle(1).Width(inputWidth).Render(v.editDesc.View()),
		"",
		"Status:",
		fieldStyle(2).Width(20).Render("◀ " + string(taskStatusOptions[v.statusIdx]) + " ▶"),
		"",
		"Priority:",
		fieldStyle(3).Width(20).Render("◀ " + string(priorityOptions[v.priorityIdx]) + " ▶"),
		"",
		"Due date:",
		fieldStyle(4).Width(16).Render(v.editDue.View()),
		"",
		"Project:",
		fieldStyle(5).Width(inputWidth).Render("◀ " + projectLabel + " ▶"),
		"",
		btnStyle.Render(" Save "),
	}
	if v.formErr != "" {
		rows = append(rows, "", s.FormError.Render(v.formErr))
	}
	rows = append(rows, "",
		s.TitleMuted.Render("Tab: next • ←→: change • Ctrl+S: save • Esc: cancel"))

	form := lipgloss.JoinVertical(lipgloss.Left, rows...)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TasksView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render("n new • e edit • d del • q quit")
	}

	if v.grabbing {
		return v.styles.Help.Render(
			fmt.Sprintf("%s move • %s drop",
				v.styles.HelpKey.Render("↑↓"),
				v.styles.HelpKey.Render("space"),
			),
		)
	}

	return v.styles.Help.Render(
		fmt.Sprintf("%s edit • %s new • %s del • %s filter • %s grab • %s refresh • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("f"),
			v.styles.HelpKey.Render("space"),
			v.styles.HelpKey.Render("r"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *TasksView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(v.deleteTargetName),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
