package tui

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/anurestate/restate/internal/auth"
	"github.com/anurestate/restate/internal/guard"
	"github.com/anurestate/restate/internal/properties"
	"github.com/anurestate/restate/internal/session"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Routes served by the app. Everything except the sign-in route is protected by the guard.
const (
	routeHome           = guard.DefaultHomePath
	routeExplore        = "/explore"
	routeProfile        = "/profile"
	routeLogs           = "/logs"
	routeSignIn         = guard.DefaultSignInPath
	routeProperties     = "properties"
	routePropertyPrefix = "/" + routeProperties + "/"
)

// tabRoutes are the routes reachable from the tab bar, in display order.
var tabRoutes = []string{routeHome, routeExplore, routeProfile, routeLogs}

type localeChangedMsg struct{}

// Deps wires the app to the rest of the client. A nil dependency disables the screens
// and actions that need it.
type Deps struct {
	Provider    *session.Provider
	Coordinator *auth.Coordinator
	Properties  *properties.Service
	Guard       *guard.Guard
	// Navigator must be the navigator the guard was created with.
	Navigator *Navigator
	Hook      *LogHook
}

// App is the root bubbletea model. It owns the current route and renders the screen
// registered for it. Route changes come from the tab bar and from guard navigations.
type App struct {
	guard    *guard.Guard
	route    string
	redirect string
	session  session.Snapshot

	width  int
	height int
	ready  bool

	// loaded records which data routes were loaded for the current user.
	loaded map[string]bool

	home    homeModel
	explore exploreModel
	profile profileModel
	signIn  signInModel
	logs    logsModel
}

// NewApp creates the root model, starting at the home route.
func NewApp(deps Deps) App {
	actions := accountActions{coordinator: deps.Coordinator, provider: deps.Provider}
	snapshot := session.Snapshot{Loading: true}
	if deps.Provider != nil {
		snapshot = deps.Provider.Snapshot()
	}
	return App{
		guard:   deps.Guard,
		route:   routeHome,
		session: snapshot,
		loaded:  make(map[string]bool),
		home:    newHomeModel(deps.Properties),
		explore: newExploreModel(deps.Properties),
		profile: profileModel{actions: actions, user: snapshot.User},
		signIn:  signInModel{actions: actions},
		logs:    newLogsModel(deps.Hook),
	}
}

func (a App) Init() tea.Cmd {
	if a.guard != nil {
		a.guard.SetRoute(a.route, a.redirect)
	}
	return tea.Batch(a.logs.Init(), a.enterRoute())
}

// Route returns the current route path.
func (a App) Route() string {
	return a.route
}

// navigate replaces the current route and reports it to the guard.
func (a *App) navigate(path, redirect string) tea.Cmd {
	a.route = guard.NormalizePath(path)
	a.redirect = redirect
	if a.guard != nil {
		a.guard.SetRoute(a.route, a.redirect)
	}
	return a.enterRoute()
}

// enterRoute loads the data behind the current route the first time a signed-in user
// sees it.
func (a *App) enterRoute() tea.Cmd {
	if a.session.Loading || !a.session.IsLogged {
		return nil
	}
	switch a.route {
	case routeHome:
		if a.loaded[routeHome] {
			return nil
		}
		a.loaded[routeHome] = true
		return a.home.load()
	case routeExplore:
		return a.explore.enter()
	}
	return nil
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		contentH := max(a.height-4, 1)
		a.logs.SetSize(a.width, contentH)
		a.home.width = a.width
		a.explore.width = a.width
		return a, nil

	case navigateMsg:
		cmd := a.navigate(msg.action.Path, msg.action.Params.Get(guard.RedirectParam))
		return a, cmd

	case sessionMsg:
		if !msg.IsLogged {
			clear(a.loaded)
		}
		a.session = session.Snapshot(msg)
		var cmd tea.Cmd
		a.profile, cmd = a.profile.Update(msg)
		loadCmd := a.enterRoute()
		return a, tea.Batch(cmd, loadCmd)

	case openPropertyMsg:
		path := guard.PathFromSegments(routeProperties, msg.id)
		cmd := a.navigate(path, "")
		openCmd := a.explore.open(strings.TrimPrefix(path, routePropertyPrefix))
		return a, tea.Batch(cmd, openCmd)

	case homeLoadedMsg:
		a.home, _ = a.home.Update(msg)
		return a, nil

	case exploreLoadedMsg, propertyLoadedMsg:
		a.explore, _ = a.explore.Update(msg)
		return a, nil

	case loginDoneMsg:
		a.signIn, _ = a.signIn.Update(msg)
		return a, nil

	case logoutDoneMsg:
		a.profile, _ = a.profile.Update(msg)
		return a, nil

	case logLineMsg:
		var cmd tea.Cmd
		a.logs, cmd = a.logs.Update(msg)
		return a, cmd

	case localeChangedMsg:
		a.logs, _ = a.logs.Update(msg)
		a.explore, _ = a.explore.Update(msg)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	if a.route == routeExplore && a.explore.capturesInput() {
		var cmd tea.Cmd
		a.explore, cmd = a.explore.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "L":
		ToggleLocale()
		return a, func() tea.Msg { return localeChangedMsg{} }
	}

	if a.route == routeSignIn {
		var cmd tea.Cmd
		a.signIn, cmd = a.signIn.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	switch msg.String() {
	case "tab":
		cmd = a.navigate(tabRoutes[(a.activeTab()+1)%len(tabRoutes)], "")
		return a, cmd
	case "shift+tab":
		cmd = a.navigate(tabRoutes[(a.activeTab()+len(tabRoutes)-1)%len(tabRoutes)], "")
		return a, cmd
	}

	switch {
	case a.route == routeHome:
		a.home, cmd = a.home.Update(msg)
	case a.route == routeExplore:
		a.explore, cmd = a.explore.Update(msg)
	case strings.HasPrefix(a.route, routePropertyPrefix):
		if msg.String() == "esc" {
			cmd = a.navigate(routeExplore, "")
		}
	case a.route == routeProfile:
		a.profile, cmd = a.profile.Update(msg)
	case a.route == routeLogs:
		a.logs, cmd = a.logs.Update(msg)
	}
	return a, cmd
}

// activeTab is the tab bar index of the current route. Listing details belong to explore.
func (a App) activeTab() int {
	route := a.route
	if strings.HasPrefix(route, routePropertyPrefix) {
		route = routeExplore
	}
	for i, r := range tabRoutes {
		if r == route {
			return i
		}
	}
	return 0
}

func (a App) View() string {
	if !a.ready {
		return T("initializing")
	}
	if a.route == routeSignIn {
		return a.signIn.View()
	}
	if a.session.Loading && !a.session.IsLogged {
		return subtitleStyle.Render(T("checking_session"))
	}

	var sb strings.Builder
	sb.WriteString(a.renderTabBar())
	sb.WriteString("\n")

	switch {
	case a.route == routeHome:
		sb.WriteString(a.home.View(a.greeting()))
	case a.route == routeExplore:
		sb.WriteString(a.explore.View())
	case strings.HasPrefix(a.route, routePropertyPrefix):
		sb.WriteString(a.explore.DetailView())
	case a.route == routeProfile:
		sb.WriteString(a.profile.View())
	case a.route == routeLogs:
		sb.WriteString(a.logs.View())
	}

	sb.WriteString("\n")
	sb.WriteString(a.renderStatusBar())
	return sb.String()
}

func (a App) greeting() string {
	if a.session.User == nil {
		return T("signed_out")
	}
	return T("signed_in_as") + a.session.User.Name
}

func (a App) renderTabBar() string {
	active := a.activeTab()
	var tabs []string
	for i, name := range TabNames() {
		if i == active {
			tabs = append(tabs, tabActiveStyle.Render(name))
		} else {
			tabs = append(tabs, tabInactiveStyle.Render(name))
		}
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return tabBarStyle.Width(a.width).Render(tabBar)
}

func (a App) renderStatusBar() string {
	left := strings.TrimRight(T("status_left"), " ")
	if a.session.User != nil {
		left += " • " + a.session.User.Email
	}
	right := strings.TrimRight(T("status_right"), " ")

	width := max(a.width, 1)

	// statusBarStyle has left/right padding(1), so content area is width-2.
	contentWidth := max(width-2, 0)

	if lipgloss.Width(left) > contentWidth {
		left = fitStringWidth(left, contentWidth)
		right = ""
	}

	remaining := max(contentWidth-lipgloss.Width(left), 0)
	if lipgloss.Width(right) > remaining {
		right = fitStringWidth(right, remaining)
	}

	gap := max(contentWidth-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return statusBarStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func fitStringWidth(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(text) <= maxWidth {
		return text
	}

	out := ""
	for _, r := range text {
		next := out + string(r)
		if lipgloss.Width(next) > maxWidth {
			break
		}
		out = next
	}
	return out
}

// watchSession forwards provider state to send until ctx ends. Changes are coalesced and
// sent from one goroutine, so the program never sees an older state after a newer one.
func watchSession(ctx context.Context, provider *session.Provider, send func(tea.Msg)) (stop func()) {
	kick := make(chan struct{}, 1)
	notify := func() {
		select {
		case kick <- struct{}{}:
		default:
		}
	}
	cancelSub := provider.Subscribe(func(session.Snapshot) { notify() })
	notify()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-kick:
				send(sessionMsg(provider.Snapshot()))
			}
		}
	}()
	return func() {
		cancelSub()
		cancel()
		<-done
	}
}

// Run starts the TUI and blocks until the user quits or ctx ends. While it runs, the guard
// follows the provider and navigates the app.
// output specifies where bubbletea renders. If nil, defaults to os.Stdout.
func Run(ctx context.Context, deps Deps, output io.Writer) error {
	if output == nil {
		output = os.Stdout
	}
	p := tea.NewProgram(NewApp(deps), tea.WithAltScreen(), tea.WithOutput(output), tea.WithContext(ctx))
	if deps.Navigator != nil {
		deps.Navigator.Bind(p)
	}

	if deps.Provider != nil {
		stopWatch := watchSession(ctx, deps.Provider, p.Send)
		defer stopWatch()

		if deps.Guard != nil {
			guardCtx, stopGuard := context.WithCancel(ctx)
			detach := deps.Guard.Attach(deps.Provider)
			done := make(chan struct{})
			go func() {
				defer close(done)
				deps.Guard.Run(guardCtx)
			}()
			defer func() {
				detach()
				stopGuard()
				<-done
			}()
		}
	}

	final, err := p.Run()
	if app, ok := final.(App); ok {
		app.explore.close()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
