package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tote/internal/api"
	"github.com/five82/tote/internal/session"
)

func newLoginForm() form {
	return newForm("Sign in",
		fieldSpec{name: "email", label: "Email"},
		fieldSpec{name: "password", label: "Password", secret: true},
	)
}

func newSignupForm() form {
	return newForm("Create account",
		fieldSpec{name: "name", label: "Name"},
		fieldSpec{name: "email", label: "Email"},
		fieldSpec{name: "phone", label: "Phone", limit: 11},
		fieldSpec{name: "password", label: "Password", secret: true},
		fieldSpec{name: "rePassword", label: "Confirm password", secret: true},
	)
}

// forgotStep is the position in the password reset exchange.
type forgotStep int

const (
	forgotEmail forgotStep = iota
	forgotCode
	forgotPassword
)

type forgotState struct {
	step  forgotStep
	email string
	form  form
}

func newForgotState() forgotState {
	return forgotState{form: forgotForm(forgotEmail)}
}

func forgotForm(step forgotStep) form {
	switch step {
	case forgotCode:
		return newForm("Enter the code sent to your email", fieldSpec{name: "resetCode", label: "Reset code", limit: 6})
	case forgotPassword:
		return newForm("Choose a new password",
			fieldSpec{name: "newPassword", label: "New password", secret: true},
		)
	default:
		return newForm("Reset password", fieldSpec{name: "email", label: "Email"})
	}
}

func nextAuthView(view string) string {
	switch view {
	case ViewLogin:
		return ViewSignup
	case ViewSignup:
		return ViewForgot
	default:
		return ViewLogin
	}
}

func (m Model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		return m.navigate(ViewHome)
	case key.Matches(msg, m.keys.SwitchForm):
		return m.navigate(nextAuthView(m.view))
	}
	if m.client == nil || m.sess == nil {
		return m, nil
	}

	switch m.view {
	case ViewLogin:
		submit, cmd := m.login.update(msg, m.keys)
		if !submit {
			return m, cmd
		}
		creds := api.Credentials{Email: m.login.value("email"), Password: m.login.value("password")}
		if !m.login.check(creds) {
			return m, nil
		}
		return m, signInCmd(m.ctx, m.client, m.sess, creds)

	case ViewSignup:
		submit, cmd := m.signup.update(msg, m.keys)
		if !submit {
			return m, cmd
		}
		req := api.SignUpRequest{
			Name:       m.signup.value("name"),
			Email:      m.signup.value("email"),
			Phone:      m.signup.value("phone"),
			Password:   m.signup.value("password"),
			RePassword: m.signup.value("rePassword"),
		}
		if !m.signup.check(req) {
			return m, nil
		}
		return m, signUpCmd(m.ctx, m.client, m.sess, req)

	default:
		return m.handleForgotKey(msg)
	}
}

func (m Model) handleForgotKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.forgot
	submit, cmd := f.form.update(msg, m.keys)
	if !submit {
		return m, cmd
	}
	ctx, client, sess := m.ctx, m.client, m.sess
	switch f.step {
	case forgotEmail:
		in := struct {
			Email string `json:"email" validate:"required,email"`
		}{Email: f.form.value("email")}
		if !f.form.check(in) {
			return m, nil
		}
		f.email = in.Email
		return m, func() tea.Msg {
			_, err := client.ForgotPassword(ctx, in.Email)
			return forgotStepMsg{step: forgotEmail, err: err}
		}
	case forgotCode:
		in := struct {
			Code string `json:"resetCode" validate:"required,min=4"`
		}{Code: f.form.value("resetCode")}
		if !f.form.check(in) {
			return m, nil
		}
		return m, func() tea.Msg {
			_, err := client.VerifyResetCode(ctx, in.Code)
			return forgotStepMsg{step: forgotCode, err: err}
		}
	default:
		in := struct {
			Password string `json:"newPassword" validate:"required,strongpassword"`
		}{Password: f.form.value("newPassword")}
		if !f.form.check(in) {
			return m, nil
		}
		email := f.email
		return m, func() tea.Msg {
			return forgotStepMsg{step: forgotPassword, err: resetAndLogin(ctx, client, sess, email, in.Password)}
		}
	}
}

func resetAndLogin(ctx context.Context, client *api.Client, sess *session.Store, email, password string) error {
	resp, err := client.ResetPassword(ctx, email, password)
	if err != nil {
		return err
	}
	if resp.Token == "" {
		return nil
	}
	return sess.Login(ctx, resp.Token, sessionUser(resp.User, email))
}

func (m Model) handleAuthMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case authMsg:
		target := &m.login
		fallback := "Login failed. Please try again."
		if msg.form == ViewSignup {
			target = &m.signup
			fallback = "Registration failed. Please try again."
		}
		if msg.err != nil {
			target.fail(msg.err, fallback)
			return m, nil
		}
		target.reset()
		if !msg.signedIn {
			m.setFlash("Account created. Please sign in.")
			return m.navigate(ViewLogin)
		}
		m.setFlash("Welcome back")
		return m.navigate(ViewHome)

	case forgotStepMsg:
		f := &m.forgot
		if msg.err != nil {
			f.form.fail(msg.err, "Something went wrong. Please try again.")
			return m, nil
		}
		switch msg.step {
		case forgotEmail:
			f.step = forgotCode
			f.form = forgotForm(forgotCode)
			m.setFlash("Reset code sent to " + f.email)
		case forgotCode:
			f.step = forgotPassword
			f.form = forgotForm(forgotPassword)
		default:
			m.forgot = newForgotState()
			m.setFlash("Password updated")
			return m.navigate(ternary(m.sessionSnap.Authenticated(), ViewHome, ViewLogin))
		}
	}
	return m, nil
}

func (m Model) renderLogin() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(m.login.render(styles, m.width))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter submit · ctrl+n create account · esc back"))
	return b.String()
}

func (m Model) renderSignup() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(m.signup.render(styles, m.width))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter submit · ctrl+n forgot password · esc back"))
	return b.String()
}

func (m Model) renderForgot() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(m.forgot.form.render(styles, m.width))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter submit · ctrl+n sign in · esc back"))
	return b.String()
}
