package tui

import (
	"context"
	"strings"

	"github.com/anurestate/restate/internal/auth"
	"github.com/anurestate/restate/internal/session"
	tea "github.com/charmbracelet/bubbletea"
)

// sessionMsg carries a provider state change into the program.
type sessionMsg session.Snapshot

type loginDoneMsg struct {
	ok bool
}

type logoutDoneMsg struct {
	ok bool
}

// accountActions runs the login and logout flows and refreshes the shared session once
// they succeed. Navigation afterwards is left to the guard.
type accountActions struct {
	coordinator *auth.Coordinator
	provider    *session.Provider
}

func (a accountActions) login() tea.Cmd {
	if a.coordinator == nil {
		return nil
	}
	return func() tea.Msg {
		ctx := context.Background()
		ok := a.coordinator.Login(ctx)
		if ok && a.provider != nil {
			_ = a.provider.Refetch(ctx, nil)
		}
		return loginDoneMsg{ok: ok}
	}
}

func (a accountActions) logout() tea.Cmd {
	if a.coordinator == nil {
		return nil
	}
	return func() tea.Msg {
		ctx := context.Background()
		ok := a.coordinator.Logout(ctx)
		if ok && a.provider != nil {
			_ = a.provider.Refetch(ctx, nil)
		}
		return logoutDoneMsg{ok: ok}
	}
}

func (a accountActions) refresh() tea.Cmd {
	if a.provider == nil {
		return nil
	}
	return func() tea.Msg {
		_ = a.provider.Refetch(context.Background(), nil)
		return nil
	}
}

// ──────────────────────────────────────────
// Sign in
// ──────────────────────────────────────────

type signInModel struct {
	actions    accountActions
	connecting bool
	failed     bool
}

func (m signInModel) Update(msg tea.Msg) (signInModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		m.connecting = false
		m.failed = !msg.ok
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "enter" && !m.connecting {
			m.connecting = true
			m.failed = false
			return m, m.actions.login()
		}
	}
	return m, nil
}

func (m signInModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(T("sign_in_title")))
	sb.WriteString("\n")
	sb.WriteString(subtitleStyle.Render(T("sign_in_subtitle")))
	sb.WriteString("\n\n")
	if m.connecting {
		sb.WriteString(warningStyle.Render(T("sign_in_connecting")))
		sb.WriteString("\n\n")
	}
	if m.failed {
		sb.WriteString(errorStyle.Render(T("sign_in_failed")))
		sb.WriteString("\n\n")
	}
	sb.WriteString(helpStyle.Render(T("sign_in_help")))
	return sb.String()
}

// ──────────────────────────────────────────
// Profile
// ──────────────────────────────────────────

type profileModel struct {
	actions    accountActions
	user       *session.Identity
	loggingOut bool
	failed     bool
}

func (m profileModel) Update(msg tea.Msg) (profileModel, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionMsg:
		m.user = msg.User
		return m, nil
	case logoutDoneMsg:
		m.loggingOut = false
		m.failed = !msg.ok
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "o":
			if m.loggingOut {
				return m, nil
			}
			m.loggingOut = true
			m.failed = false
			return m, m.actions.logout()
		case "r":
			return m, m.actions.refresh()
		}
	}
	return m, nil
}

func (m profileModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(T("profile_title")))
	sb.WriteString("\n")
	if m.user == nil {
		sb.WriteString(subtitleStyle.Render(T("signed_out")))
		sb.WriteString("\n")
	} else {
		rows := [][2]string{
			{T("profile_name"), m.user.Name},
			{T("profile_email"), m.user.Email},
			{T("profile_id"), m.user.ID},
			{T("profile_avatar"), m.user.Avatar},
		}
		for _, row := range rows {
			sb.WriteString(labelStyle.Render(row[0]))
			sb.WriteString(valueStyle.Render(row[1]))
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")
	if m.loggingOut {
		sb.WriteString(warningStyle.Render(T("logging_out")))
		sb.WriteString("\n")
	}
	if m.failed {
		sb.WriteString(errorStyle.Render(T("logout_failed")))
		sb.WriteString("\n")
	}
	sb.WriteString(helpStyle.Render(T("profile_help")))
	return sb.String()
}
