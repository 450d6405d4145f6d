package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/folio/internal/bookshelf"
	"github.com/five82/folio/internal/catalog"
	"github.com/five82/folio/internal/prefs"
)

// authFields is a column of labelled inputs with tab focus cycling, shared
// by the login and signup screens.
type authFields struct {
	labels     []string
	inputs     []textinput.Model
	focus      int
	submitting bool
	err        string
}

func newAuthFields(labels ...string) authFields {
	f := authFields{labels: labels, inputs: make([]textinput.Model, len(labels))}
	for i, label := range labels {
		ti := newTextInput(label, FormInputWidth)
		if label == "Password" {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		f.inputs[i] = ti
	}
	f.setFocus(0)
	return f
}

func (f *authFields) setFocus(i int) {
	n := len(f.inputs)
	f.focus = ((i % n) + n) % n
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

func (f authFields) value(i int) string {
	return f.inputs[i].Value()
}

// update routes a key to the focused input. submit reports that the user
// asked to send the form: ctrl+s anywhere, or enter on the last field.
func (f *authFields) update(msg tea.KeyMsg, keys keyMap) (cmd tea.Cmd, submit bool) {
	switch {
	case key.Matches(msg, keys.Submit):
		return nil, true
	case key.Matches(msg, keys.NextField):
		f.setFocus(f.focus + 1)
		return nil, false
	case key.Matches(msg, keys.PrevField):
		f.setFocus(f.focus - 1)
		return nil, false
	case msg.Type == tea.KeyEnter:
		if f.focus == len(f.inputs)-1 {
			return nil, true
		}
		f.setFocus(f.focus + 1)
		return nil, false
	}
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd, false
}

func (m Model) renderAuthFields(title, subtitle string, f authFields) string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(subtitle))
	b.WriteString("\n\n")
	for i, label := range f.labels {
		b.WriteString(styles.MutedText.Render(label))
		b.WriteString("\n")
		box := styles.Input
		if i == f.focus {
			box = styles.InputFocused
		}
		b.WriteString(box.Render(f.inputs[i].View()))
		b.WriteString("\n")
	}
	switch {
	case f.submitting:
		b.WriteString(styles.MutedText.Render("Please wait…"))
	case f.err != "":
		b.WriteString(styles.DangerText.Render(f.err))
	default:
		b.WriteString(styles.FaintText.Render("enter on the last field or ctrl+s submits, esc goes back"))
	}
	return b.String()
}

// Login

const (
	loginEmail = iota
	loginPassword
)

type loginState struct {
	authFields
}

func newLoginState(email string) loginState {
	s := loginState{authFields: newAuthFields("Email", "Password")}
	if email != "" {
		s.inputs[loginEmail].SetValue(email)
		s.setFocus(loginPassword)
	}
	return s
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		return m.back()
	}
	if m.login.submitting {
		return m, nil
	}
	cmd, submit := m.login.update(msg, m.keys)
	if !submit {
		return m, cmd
	}
	form := catalog.LoginForm{
		Email:    m.login.value(loginEmail),
		Password: m.login.value(loginPassword),
	}
	if err := form.Validate(); err != nil {
		m.login.err = err.Error()
		return m, nil
	}
	m.login.err = ""
	m.login.submitting = true
	return m, loginCmd(m.ctx, m.client, form.Credentials())
}

func (m Model) handleLoginResult(msg loginResultMsg) (Model, tea.Cmd) {
	m.login.submitting = false
	if msg.err != nil {
		return m.flashError(msg.err, "Invalid credentials", "login"), nil
	}
	if err := m.session.Login(msg.resp.Token, msg.resp.User); err != nil {
		m.logger.Warn("persist session failed", zap.Error(err))
	}
	m.logger.Info("logged in", zap.String("user_id", msg.resp.User.ID))

	m.lastEmail = msg.email
	if err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.LastEmail = msg.email }); err != nil {
		m.logger.Warn("save last email failed", zap.Error(err))
	}

	name := msg.resp.User.Name
	if name == "" {
		name = msg.resp.User.Email
	}
	m = m.setFlash("Welcome back, "+name+"!", flashSuccess)
	return m.navigate(route{screen: screenBooks})
}

func (m Model) renderLogin() string {
	return m.renderAuthFields("Login", "Sign in to add books and write reviews. No account? Press esc, then u.", m.login.authFields)
}

// Signup

const (
	signupName = iota
	signupEmail
	signupPassword
)

type signupState struct {
	authFields
}

func newSignupState() signupState {
	return signupState{authFields: newAuthFields("Name", "Email", "Password")}
}

func (m Model) handleSignupKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		return m.back()
	}
	if m.signup.submitting {
		return m, nil
	}
	cmd, submit := m.signup.update(msg, m.keys)
	if !submit {
		return m, cmd
	}
	form := catalog.SignupForm{
		Name:     m.signup.value(signupName),
		Email:    m.signup.value(signupEmail),
		Password: m.signup.value(signupPassword),
	}
	if err := form.Validate(); err != nil {
		m.signup.err = err.Error()
		return m, nil
	}
	m.signup.err = ""
	m.signup.submitting = true
	return m, signupCmd(m.ctx, m.client, form.Registration())
}

// handleSignupResult never creates a session: the user logs in next.
func (m Model) handleSignupResult(msg signupResultMsg) (Model, tea.Cmd) {
	m.signup.submitting = false
	if msg.err != nil {
		return m.flashError(msg.err, bookshelf.GenericMessage, "register"), nil
	}
	m.lastEmail = msg.email
	m = m.setFlash("Registration successful! Please log in with your credentials.", flashSuccess)
	return m.navigate(route{screen: screenLogin})
}

func (m Model) renderSignup() string {
	return m.renderAuthFields("Sign Up", "Create an account to share the books you love.", m.signup.authFields)
}
