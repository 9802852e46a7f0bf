package views

import (
	"errors"
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

var projectStatusOptions = []models.ProjectStatus{
	models.ProjectActive,
	models.ProjectCompleted,
	models.ProjectArchived,
	models.ProjectOnHold,
}

// ProjectsView shows the project list with due badges and manual reordering
type ProjectsView struct {
	store  *store.Store
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	cursor  int
	scrollY int
	order   order.Controller
	byID    map[string]models.Project

	grabbing bool

	// Project creation/editing
	editing      bool
	editingNew   bool
	editTargetID string
	editName     textinput.Model
	editDesc     textinput.Model
	editColor    textinput.Model
	editStart    textinput.Model
	editEnd      textinput.Model
	statusIdx    int
	priorityIdx  int
	editFocusIdx int // 0=name 1=desc 2=status 3=priority 4=color 5=start 6=end 7=save
	formErr      string

	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string

	loaded bool
}

// NewProjectsView creates the projects view backed by the shared store
func NewProjectsView(st *store.Store) *ProjectsView {
	s := styles.NewStyles()

	editName := textinput.New()
	editName.Placeholder = "Project name"
	editName.CharLimit = 100

	editDesc := textinput.New()
	editDesc.Placeholder = "Description (optional)"
	editDesc.CharLimit = 500

	editColor := textinput.New()
	editColor.Placeholder = "#7aa2f7"
	editColor.CharLimit = 7

	editStart := textinput.New()
	editStart.Placeholder = "YYYY-MM-DD"
	editStart.CharLimit = 10

	editEnd := textinput.New()
	editEnd.Placeholder = "YYYY-MM-DD"
	editEnd.CharLimit = 10

	return &ProjectsView{
		store:     st,
		styles:    s,
		keys:      keys.DefaultKeyMap(),
		byID:      map[string]models.Project{},
		editName:  editName,
		editDesc:  editDesc,
		editColor: editColor,
		editStart: editStart,
		editEnd:   editEnd,
	}
}

// Init fetches projects
func (v *ProjectsView) Init() tea.Cmd {
	return v.refreshProjects
}

func (v *ProjectsView) refreshProjects() tea.Msg {
	v.store.FetchProjects()
	return projectsRefreshedMsg{}
}

// Capturing reports whether the view wants all key input (modal state)
func (v *ProjectsView) Capturing() bool {
	return v.editing || v.confirmingDelete || v.grabbing
}

func (v *ProjectsView) resync() {
	projects := v.store.Projects()
	v.order.Sync(order.ProjectIDs(projects))
	v.byID = make(map[string]models.Project, len(projects))
	for _, p := range projects {
		v.byID[p.ID] = p
	}
	if v.cursor >= v.order.Len() {
		v.cursor = max(0, v.order.Len()-1)
	}
	v.loaded = true
}

func (v *ProjectsView) selectedProject() (models.Project, bool) {
	id, ok := v.order.At(v.cursor)
	if !ok {
		return models.Project{}, false
	}
	p, ok := v.byID[id]
	return p, ok
}

// Update handles messages
func (v *ProjectsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case projectsRefreshedMsg:
		v.resync()
		return v, nil

	case projectFormErrMsg:
		v.editing = true
		v.formErr = msg.message
		return v, nil

	case tea.KeyMsg:
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.editing {
			return v.updateEditing(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *ProjectsView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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
		v.startNewProject()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit), key.Matches(msg, v.keys.Enter):
		if p, ok := v.selectedProject(); ok {
			v.startEditProject(p)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if p, ok := v.selectedProject(); ok {
			v.confirmingDelete = true
			v.deleteTargetID = p.ID
			v.deleteTargetName = p.Name
		}
		return v, nil

	case msg.String() == "r":
		return v, v.refreshProjects
	}

	return v, nil
}

func (v *ProjectsView) updateGrabbing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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

func (v *ProjectsView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id := v.deleteTargetID
		return v, func() tea.Msg {
			v.store.DeleteProject(id)
			return projectsRefreshedMsg{}
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

type projectFormErrMsg struct {
	message string
}

func (v *ProjectsView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case msg.String() == "ctrl+s":
		return v, v.saveProject()

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % 8
		v.updateEditFocus()
		return v, nil

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + 7) % 8
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.editFocusIdx == 7 {
			return v, v.saveProject()
		}
		v.editFocusIdx++
		v.updateEditFocus()
		return v, nil

	case msg.String() == "left", msg.String() == "right":
		forward := msg.String() == "right"
		step := func(idx, size int) int {
			if forward {
				return (idx + 1) % size
			}
			return (idx + size - 1) % size
		}
		switch v.editFocusIdx {
		case 2:
			v.statusIdx = step(v.statusIdx, len(projectStatusOptions))
			return v, nil
		case 3:
			v.priorityIdx = step(v.priorityIdx, len(priorityOptions))
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case 0:
		v.editName, cmd = v.editName.Update(msg)
	case 1:
		v.editDesc, cmd = v.editDesc.Update(msg)
	case 4:
		v.editColor, cmd = v.editColor.Update(msg)
	case 5:
		v.editStart, cmd = v.editStart.Update(msg)
	case 6:
		v.editEnd, cmd = v.editEnd.Update(msg)
	}
	return v, cmd
}

func (v *ProjectsView) startNewProject() {
	v.editing = true
	v.editingNew = true
	v.editFocusIdx = 0
	v.formErr = ""
	v.editName.Reset()
	v.editDesc.Reset()
	v.editColor.Reset()
	v.editStart.Reset()
	v.editEnd.Reset()
	v.statusIdx = 0
	v.priorityIdx = 0
	v.updateEditFocus()
}

func (v *ProjectsView) startEditProject(p models.Project) {
	v.editing = true
	v.editingNew = false
	v.editTargetID = p.ID
	v.editFocusIdx = 0
	v.formErr = ""
	v.editName.SetValue(p.Name)
	v.editDesc.SetValue(p.Description)
	v.editColor.SetValue(p.Color)
	v.editStart.SetValue(p.StartDate)
	v.editEnd.SetValue(p.EndDate)
	v.statusIdx = indexOf(projectStatusOptions, p.Status)
	v.priorityIdx = indexOf(priorityOptions, p.Priority)
	v.updateEditFocus()
}

func (v *ProjectsView) updateEditFocus() {
	v.editName.Blur()
	v.editDesc.Blur()
	v.editColor.Blur()
	v.editStart.Blur()
	v.editEnd.Blur()

	switch v.editFocusIdx {
	case 0:
		v.editName.Focus()
	case 1:
		v.editDesc.Focus()
	case 4:
		v.editColor.Focus()
	case 5:
		v.editStart.Focus()
	case 6:
		v.editEnd.Focus()
	}
}

func (v *ProjectsView) saveProject() tea.Cmd {
	name := strings.TrimSpace(v.editName.Value())
	if name == "" {
		v.formErr = "Name is required."
		return nil
	}

	start := strings.TrimSpace(v.editStart.Value())
	end := strings.TrimSpace(v.editEnd.Value())
	for _, date := range []string{start, end} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, date); err != nil {
			v.formErr = "Dates must be YYYY-MM-DD."
			return nil
		}
	}

	desc := strings.TrimSpace(v.editDesc.Value())
	color := strings.TrimSpace(v.editColor.Value())
	status := projectStatusOptions[v.statusIdx]
	priority := priorityOptions[v.priorityIdx]

	v.editing = false
	v.formErr = ""

	if v.editingNew {
		in := api.ProjectInput{
			Name:        name,
			Description: desc,
			Status:      status,
			Priority:    priority,
			Color:       color,
			StartDate:   start,
			EndDate:     end,
		}
		return func() tea.Msg {
			// The store refuses to create a project missing either date
			if err := v.store.AddProject(in); err != nil {
				var valErr *store.ValidationError
				if errors.As(err, &valErr) {
					return projectFormErrMsg{message: valErr.Message}
				}
			}
			return projectsRefreshedMsg{}
		}
	}

	id := v.editTargetID
	patch := api.ProjectPatch{
		Name:        &name,
		Description: &desc,
		Status:      &status,
		Priority:    &priority,
		Color:       &color,
		StartDate:   &start,
		EndDate:     &end,
	}
	return func() tea.Msg {
		v.store.UpdateProject(id, patch)
		return projectsRefreshedMsg{}
	}
}

func (v *ProjectsView) ensureVisible() {
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
func (v *ProjectsView) View() string {
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.editing {
		return v.renderEditForm()
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderProjectList())
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *ProjectsView) renderHeader() string {
	s := v.styles

	title := s.Title.Render("Projects")
	if v.store.Loading() {
		title += "  " + s.TitleMuted.Render("Loading...")
	}

	if errMsg := v.store.Err(); errMsg != "" {
		return lipgloss.JoinVertical(lipgloss.Left, title, s.FormError.Render(errMsg))
	}
	return title
}

func (v *ProjectsView) renderProjectList() string {
	s := v.styles

	if !v.loaded {
		return s.TitleMuted.Render("Loading...")
	}

	ids := v.order.IDs()
	if len(ids) == 0 {
		return s.TitleMuted.Render("No projects yet. Press 'n' to add a new project!")
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
		p, ok := v.byID[ids[i]]
		if !ok {
			continue
		}
		items = append(items, v.renderProjectItem(p, i == v.cursor))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *ProjectsView) dueBadge(p models.Project) string {
	switch models.DueStatus(p.EndDate, time.Now()) {
	case models.DueToday:
		return " " + v.styles.BadgeDue.Render("due")
	case models.DueReminder:
		return " " + v.styles.BadgeReminder.Render("ends tomorrow")
	}
	return ""
}

func (v *ProjectsView) renderProjectItem(p models.Project, selected bool) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-4, 20)

	grab := "  "
	if selected && v.grabbing {
		grab = "≡ "
	}

	dot := ""
	if p.Color != "" {
		dot = lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render("●") + " "
	}

	titleLine := grab + dot + p.Name + "  " + s.TitleMuted.Render(string(p.Status)) + v.dueBadge(p)

	var details []string
	if p.Description != "" {
		details = append(details, p.Description)
	}
	if p.StartDate != "" {
		details = append(details, "start "+p.StartDate)
	}
	if p.EndDate != "" {
		details = append(details, "end "+p.EndDate)
	}
	detailLine := s.TitleMuted.Render(strings.Join(details, " • "))

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

func (v *ProjectsView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "New Project"
	if !v.editingNew {
		formTitle = "Edit Project"
	}

	fieldStyle := func(idx int) lipgloss.Style {
		if v.editFocusIdx == idx {
			return s.InputFocused
		}
		return s.Input
	}
	btnStyle := s.Button
	if v.editFocusIdx == 7 {
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	rows := []string{
		s.Title.Render(formTitle),
		"",
		"Name:",
		fieldStyle(0).Width(inputWidth).Render(v.editName.View()),
		"",
		"Description:",
		fieldStyle(1).Width(inputWidth).Render(v.editDesc.View()),
		"",
		"Status:",
		fieldStyle(2).Width(20).Render("◀ " + string(projectStatusOptions[v.statusIdx]) + " ▶"),
		"",
		"Priority:",
		fieldStyle(3).Width(20).Render("◀ " + string(priorityOptions[v.priorityIdx]) + " ▶"),
		"",
		"Color:",
		fieldStyle(4).Width(12).Render(v.editColor.View()),
		"",
		"Start date:",
		fieldStyle(5).Width(16).Render(v.editStart.View()),
		"",
		"End date:",
		fieldStyle(6).Width(16).Render(v.editEnd.View()),
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

func (v *ProjectsView) renderHelp() string {
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
		fmt.Sprintf("%s edit • %s new • %s del • %s grab • %s refresh • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("space"),
			v.styles.HelpKey.Render("r"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *ProjectsView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Project?"),
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
