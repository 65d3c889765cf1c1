package tui

import (
	"context"
	"errors"
	"sync"

	"github.com/anurestate/restate/internal/guard"
	tea "github.com/charmbracelet/bubbletea"
)

var errNotBound = errors.New("tui: navigator is not bound to a program")

// navigateMsg asks the app to replace the current route.
type navigateMsg struct {
	action guard.Action
}

// Navigator delivers guard actions to the running program as messages.
type Navigator struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// NewNavigator creates an unbound navigator. Navigation fails until Bind is called.
func NewNavigator() *Navigator {
	return &Navigator{}
}

// Bind routes navigation to p.
func (n *Navigator) Bind(p *tea.Program) {
	n.bind(p.Send)
}

func (n *Navigator) bind(send func(tea.Msg)) {
	n.mu.Lock()
	n.send = send
	n.mu.Unlock()
}

// Navigate implements guard.Navigator.
func (n *Navigator) Navigate(ctx context.Context, action guard.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	send := n.send
	n.mu.Unlock()
	if send == nil {
		return errNotBound
	}
	send(navigateMsg{action: action})
	return nil
}
