package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
)

func TestLogHookDropsOldest(t *testing.T) {
	t.Parallel()

	hook := NewLogHook(2)
	logger := log.New()
	for _, msg := range []string{"one", "two", "three"} {
		entry := log.NewEntry(logger)
		entry.Level = log.InfoLevel
		entry.Message = "msg-" + msg
		if err := hook.Fire(entry); err != nil {
			t.Fatalf("Fire() error = %v", err)
		}
	}

	var got []string
	for range 2 {
		got = append(got, <-hook.Chan())
	}
	if len(hook.Chan()) != 0 {
		t.Fatal("channel should be drained")
	}
	if want := "msg-two"; !strings.Contains(got[0], want) {
		t.Errorf("first line = %q, want it to contain %q", got[0], want)
	}
	if want := "msg-three"; !strings.Contains(got[1], want) {
		t.Errorf("second line = %q, want it to contain %q", got[1], want)
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line    string
		level   string
		minimum string
		pass    bool
	}{
		{"[2024-01-01 10:00:00] [--------] [debug] x", "debug", "", true},
		{"[2024-01-01 10:00:00] [--------] [debug] x", "debug", "info", false},
		{"[2024-01-01 10:00:00] [--------] [info ] x", "info", "info", true},
		{"[2024-01-01 10:00:00] [--------] [warn ] x", "warn", "info", true},
		{"[2024-01-01 10:00:00] [--------] [info ] x", "info", "warn", false},
		{"[2024-01-01 10:00:00] [--------] [error] x", "error", "error", true},
		{"plain text", "", "", true},
		{"plain text", "", "info", false},
	}
	for _, tt := range tests {
		level := lineLevel(tt.line)
		if level != tt.level {
			t.Errorf("lineLevel(%q) = %q, want %q", tt.line, level, tt.level)
		}
		if got := levelAtLeast(level, tt.minimum); got != tt.pass {
			t.Errorf("levelAtLeast(%q, %q) = %v, want %v", level, tt.minimum, got, tt.pass)
		}
	}
}

func TestLogsModelKeys(t *testing.T) {
	t.Parallel()

	m := newLogsModel(nil)
	m.SetSize(80, 10)
	m, _ = m.Update(logLineMsg("[2024-01-01 10:00:00] [--------] [info ] hello"))
	if len(m.lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(m.lines))
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})
	if m.filter != "warn" {
		t.Errorf("filter = %q, want warn", m.filter)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	if m.autoScroll {
		t.Error("autoScroll should toggle off")
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if len(m.lines) != 0 {
		t.Error("lines should be cleared")
	}
}
