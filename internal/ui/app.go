package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/localdb"
	"taskdeck/internal/notify"
	"taskdeck/internal/session"
	"taskdeck/internal/store"
	"taskdeck/internal/ui/styles"
	"taskdeck/internal/ui/views"
)

// Currently active tab
type Tab int

const (
	TabTasks Tab = iota
	TabProjects
)

const noticeLifetime = 3 * time.Second

type noticeMsg struct {
	notice notify.Notice
}

type noticeExpiredMsg struct {
	seq int
}

type loggedOutMsg struct{}

type App struct {
	session *session.Store
	store   *store.Store
	db      *localdb.DB
	notices <-chan notify.Notice

	currentTab Tab
	login      *views.LoginView
	tasks      *views.TasksView
	projects   *views.ProjectsView

	notice    *notify.Notice
	noticeSeq int

	styles *styles.Styles
	width  int
	height int
}

// Creates a new application
func NewApp(sess *session.Store, st *store.Store, database *localdb.DB, notices <-chan notify.Notice) *App {
	return &App{
		session:  sess,
		store:    st,
		db:       database,
		notices:  notices,
		login:    views.NewLoginView(sess),
		tasks:    views.NewTasksView(st),
		projects: views.NewProjectsView(st),
		styles:   styles.NewStyles(),
	}
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.listenNotices()}

	if !a.session.IsAuthenticated() {
		cmds = append(cmds, a.login.Init())
		return tea.Batch(cmds...)
	}

	// Restore the last active tab
	if tab, err := a.db.GetSetting("last_tab"); err == nil && tab == "projects" {
		a.currentTab = TabProjects
	}

	cmds = append(cmds,
		a.refreshUser,
		a.tasks.Init(),
		a.projects.Init(),
	)
	return tea.Batch(cmds...)
}

// listenNotices waits for the next notice from the channel. The returned
// cmd re-arms itself from Update after every delivery.
func (a *App) listenNotices() tea.Cmd {
	return func() tea.Msg {
		n, ok := <-a.notices
		if !ok {
			return nil
		}
		return noticeMsg{notice: n}
	}
}

// refreshUser revalidates the persisted token against the server. On
// failure the session logs itself out and the login form takes over.
func (a *App) refreshUser() tea.Msg {
	a.session.RefreshCurrentUser()
	if !a.session.IsAuthenticated() {
		return loggedOutMsg{}
	}
	return nil
}

func (a *App) openTab(tab Tab) tea.Cmd {
	a.currentTab = tab

	name := "tasks"
	if tab == TabProjects {
		name = "projects"
	}
	a.db.SetSetting("last_tab", name)

	var active tea.Model = a.tasks
	if tab == TabProjects {
		active = a.projects
	}
	return tea.Batch(
		active.Init(),
		func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		},
	)
}

func (a *App) activeCapturing() bool {
	switch a.currentTab {
	case TabProjects:
		return a.projects.Capturing()
	default:
		return a.tasks.Capturing()
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Every view tracks its own size
		a.login.Update(msg)
		a.tasks.Update(msg)
		a.projects.Update(msg)
		return a, nil

	case noticeMsg:
		a.notice = &msg.notice
		a.noticeSeq++
		seq := a.noticeSeq
		return a, tea.Batch(
			a.listenNotices(),
			tea.Tick(noticeLifetime, func(time.Time) tea.Msg {
				return noticeExpiredMsg{seq: seq}
			}),
		)

	case noticeExpiredMsg:
		if msg.seq == a.noticeSeq {
			a.notice = nil
		}
		return a, nil

	case views.LoggedIn:
		a.currentTab = TabTasks
		return a, tea.Batch(
			a.tasks.Init(),
			a.projects.Init(),
			func() tea.Msg {
				return tea.WindowSizeMsg{Width: a.width, Height: a.height}
			},
		)

	case loggedOutMsg:
		return a, a.login.Init()

	case tea.KeyMsg:
		if !a.session.IsAuthenticated() {
			break
		}

		switch msg.String() {
		case "tab":
			if !a.activeCapturing() {
				if a.currentTab == TabTasks {
					return a, a.openTab(TabProjects)
				}
				return a, a.openTab(TabTasks)
			}

		case "ctrl+l":
			if !a.activeCapturing() {
				return a, func() tea.Msg {
					a.session.Logout()
					return loggedOutMsg{}
				}
			}
		}
	}

	if !a.session.IsAuthenticated() {
		_, cmd := a.login.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	switch a.currentTab {
	case TabProjects:
		_, cmd = a.projects.Update(msg)
	default:
		_, cmd = a.tasks.Update(msg)
	}

	return a, cmd
}

func (a *App) View() string {
	if !a.session.IsAuthenticated() {
		return a.overlay(a.login.View())
	}

	var body string
	switch a.currentTab {
	case TabProjects:
		body = a.projects.View()
	default:
		body = a.tasks.View()
	}

	return a.overlay(a.tabBar() + "\n" + body)
}

func (a *App) tabBar() string {
	s := a.styles

	tasksLabel := "Tasks"
	projectsLabel := "Projects"
	switch a.currentTab {
	case TabProjects:
		projectsLabel = s.TabActive.Render(projectsLabel)
		tasksLabel = s.TabInactive.Render(tasksLabel)
	default:
		tasksLabel = s.TabActive.Render(tasksLabel)
		projectsLabel = s.TabInactive.Render(projectsLabel)
	}

	user := ""
	if u := a.session.User(); u != nil {
		user = s.TitleMuted.Render(u.Name)
	}

	bar := tasksLabel + "  " + projectsLabel
	if user != "" {
		bar += "   " + user
	}
	return lipgloss.NewStyle().PaddingLeft(2).Render(bar)
}

// overlay attaches the transient notice line below the active view
func (a *App) overlay(body string) string {
	if a.notice == nil {
		return body
	}

	var style lipgloss.Style
	switch a.notice.Level {
	case notify.Success:
		style = a.styles.NoticeSuccess
	case notify.Error:
		style = a.styles.NoticeError
	default:
		style = a.styles.NoticeInfo
	}

	line := style.Render(a.notice.Message)
	return strings.TrimRight(body, "\n") + "\n" + lipgloss.NewStyle().PaddingLeft(2).Render(line)
}
