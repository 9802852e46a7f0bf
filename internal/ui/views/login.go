package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/api"
	"taskdeck/internal/session"
	"taskdeck/internal/ui/keys"
	"taskdeck/internal/ui/styles"
)

// LoggedIn is emitted once the session becomes authenticated
type LoggedIn struct{}

type authDoneMsg struct {
	ok bool
}

// LoginView handles sign in and account creation
type LoginView struct {
	session *session.Store
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	registerMode bool
	email        textinput.Model
	password     textinput.Model
	name         textinput.Model
	focusIdx     int // 0=name(register only) 1=email 2=password 3=submit

	spin           spinner.Model
	authenticating bool
	errMsg         string
}

// NewLoginView creates the login form
func NewLoginView(sess *session.Store) *LoginView {
	s := styles.NewStyles()

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 100
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 100
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	name := textinput.New()
	name.Placeholder = "Your name"
	name.CharLimit = 100

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(styles.Current.Primary)

	return &LoginView{
		session:  sess,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		email:    email,
		password: password,
		name:     name,
		focusIdx: 1,
		spin:     spin,
	}
}

// Init starts the cursor blink
func (v *LoginView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *LoginView) fieldCount() int {
	// name field only participates in registration
	return 4
}

func (v *LoginView) firstField() int {
	if v.registerMode {
		return 0
	}
	return 1
}

// Update handles messages
func (v *LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case spinner.TickMsg:
		if !v.authenticating {
			return v, nil
		}
		var cmd tea.Cmd
		v.spin, cmd = v.spin.Update(msg)
		return v, cmd

	case authDoneMsg:
		v.authenticating = false
		if msg.ok {
			v.password.Reset()
			return v, func() tea.Msg { return LoggedIn{} }
		}
		v.errMsg = v.session.Err()
		return v, nil

	case tea.KeyMsg:
		if v.authenticating {
			return v, nil
		}
		return v.updateKeys(msg)
	}

	return v, nil
}

func (v *LoginView) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return v, tea.Quit

	case key.Matches(msg, v.keys.Tab), msg.String() == "down":
		v.focusIdx++
		if v.focusIdx >= v.fieldCount() {
			v.focusIdx = v.firstField()
		}
		v.updateFocus()
		return v, textinput.Blink

	case msg.String() == "shift+tab", msg.String() == "up":
		v.focusIdx--
		if v.focusIdx < v.firstField() {
			v.focusIdx = v.fieldCount() - 1
		}
		v.updateFocus()
		return v, textinput.Blink

	case msg.String() == "ctrl+r":
		v.registerMode = !v.registerMode
		v.errMsg = ""
		v.focusIdx = v.firstField()
		v.updateFocus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx == 3 {
			return v, v.submit()
		}
		v.focusIdx++
		if v.focusIdx >= v.fieldCount() {
			v.focusIdx = v.firstField()
		}
		v.updateFocus()
		return v, textinput.Blink
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.name, cmd = v.name.Update(msg)
	case 1:
		v.email, cmd = v.email.Update(msg)
	case 2:
		v.password, cmd = v.password.Update(msg)
	}
	return v, cmd
}

func (v *LoginView) updateFocus() {
	v.name.Blur()
	v.email.Blur()
	v.password.Blur()

	switch v.focusIdx {
	case 0:
		v.name.Focus()
	case 1:
		v.email.Focus()
	case 2:
		v.password.Focus()
	}
}

func (v *LoginView) submit() tea.Cmd {
	email := strings.TrimSpace(v.email.Value())
	password := v.password.Value()
	if email == "" || password == "" {
		v.errMsg = "Email and password are required."
		return nil
	}

	name := strings.TrimSpace(v.name.Value())
	if v.registerMode && name == "" {
		v.errMsg = "Name is required."
		return nil
	}

	v.errMsg = ""
	v.authenticating = true

	register := v.registerMode
	auth := func() tea.Msg {
		var err error
		if register {
			err = v.session.Register(api.Registration{Name: name, Email: email, Password: password})
		} else {
			err = v.session.Login(api.Credentials{Email: email, Password: password})
		}
		return authDoneMsg{ok: err == nil}
	}
	return tea.Batch(v.spin.Tick, auth)
}

// View renders the form
func (v *LoginView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 40)

	title := "Sign In"
	action := " Sign In "
	toggleHint := "Ctrl+R: create an account"
	if v.registerMode {
		title = "Create Account"
		action = " Register "
		toggleHint = "Ctrl+R: back to sign in"
	}

	fieldStyle := func(idx int) lipgloss.Style {
		if v.focusIdx == idx {
			return s.InputFocused
		}
		return s.Input
	}
	btnStyle := s.ButtonPrimary
	if v.focusIdx != 3 {
		btnStyle = s.Button
	}

	rows := []string{
		s.Title.Render("taskdeck"),
		s.TitleMuted.Render(title),
		"",
	}
	if v.registerMode {
		rows = append(rows,
			"Name:",
			fieldStyle(0).Width(inputWidth).Render(v.name.View()),
			"",
		)
	}
	rows = append(rows,
		"Email:",
		fieldStyle(1).Width(inputWidth).Render(v.email.View()),
		"",
		"Password:",
		fieldStyle(2).Width(inputWidth).Render(v.password.View()),
		"",
	)

	if v.authenticating {
		rows = append(rows, v.spin.View()+" Signing in...")
	} else {
		rows = append(rows, btnStyle.Render(action))
	}

	if v.errMsg != "" {
		rows = append(rows, "", s.FormError.Render(v.errMsg))
	}

	rows = append(rows, "",
		s.TitleMuted.Render("Tab: next field • Enter: submit • "+toggleHint),
	)

	form := lipgloss.JoinVertical(lipgloss.Left, rows...)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}
