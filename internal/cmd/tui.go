package cmd

import (
	"context"
	"io"
	"os"

	"github.com/anurestate/restate/internal/guard"
	"github.com/anurestate/restate/internal/logging"
	"github.com/anurestate/restate/internal/session"
	"github.com/anurestate/restate/internal/tui"
	log "github.com/sirupsen/logrus"
)

// RunTUI starts the terminal client with the provider in ctx. While it runs, log output is
// shown on the logs screen instead of the terminal, and URLs the browser session would print
// are logged instead.
func RunTUI(ctx context.Context, rt *Runtime) error {
	provider := session.MustFromContext(ctx)

	hook := tui.NewLogHook(2000)
	hook.SetFormatter(&logging.LogFormatter{})
	prevHooks := make(log.LevelHooks, len(log.StandardLogger().Hooks))
	for level, hooks := range log.StandardLogger().Hooks {
		prevHooks[level] = append([]log.Hook(nil), hooks...)
	}
	log.AddHook(hook)

	origStdout := os.Stdout
	origLogOutput := log.StandardLogger().Out
	if !rt.Config.LoggingToFile {
		log.SetOutput(io.Discard)
	}
	urlWriter := log.StandardLogger().WriterLevel(log.InfoLevel)
	origBrowserOut := rt.Browser.Options.Out
	rt.Browser.Options.Out = urlWriter

	defer func() {
		rt.Browser.Options.Out = origBrowserOut
		_ = urlWriter.Close()
		log.SetOutput(origLogOutput)
		log.StandardLogger().ReplaceHooks(prevHooks)
	}()

	nav := tui.NewNavigator()
	g := guard.New(guard.Rules{
		RequireAuth: rt.Config.Guard.RequiresAuth(),
		AuthPaths:   rt.Config.Guard.AuthPaths,
	}, nav)

	return tui.Run(ctx, tui.Deps{
		Provider:    provider,
		Coordinator: rt.Coordinator,
		Properties:  rt.Properties,
		Guard:       g,
		Navigator:   nav,
		Hook:        hook,
	}, origStdout)
}
