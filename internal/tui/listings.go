package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/anurestate/restate/internal/properties"
	"github.com/anurestate/restate/internal/resource"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// propertyTypes are the type filters offered on the home and explore screens.
var propertyTypes = []string{properties.AllFilter, "House", "Townhouse", "Condo", "Duplex", "Studio", "Villa", "Apartment", "Others"}

// recommendedLimit caps the recommended list on the home screen.
const recommendedLimit = 6

func nextFilter(current string, step int) string {
	idx := 0
	for i, name := range propertyTypes {
		if name == current {
			idx = i
			break
		}
	}
	n := len(propertyTypes)
	return propertyTypes[((idx+step)%n+n)%n]
}

func renderFilters(active string) string {
	parts := make([]string, 0, len(propertyTypes))
	for _, name := range propertyTypes {
		if name == active {
			parts = append(parts, filterActiveStyle.Render(name))
		} else {
			parts = append(parts, filterInactiveStyle.Render(name))
		}
	}
	return labelStyle.Width(0).Render(T("filter")+": ") + lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderCard(p properties.Property, selected bool) string {
	name := p.Name
	if selected {
		name = selectedStyle.Render(name)
	}
	body := fmt.Sprintf("%s\n%s\n%s  ★ %.1f\n%s",
		name,
		subtitleStyle.Render(p.Type),
		priceStyle.Render(fmt.Sprintf("$%.0f", p.Price)),
		p.Rating,
		helpStyle.Render(p.Address))
	return cardStyle.Render(body)
}

func renderCards(list []properties.Property, width, selected int) string {
	if len(list) == 0 {
		return subtitleStyle.Render(T("no_results"))
	}
	perRow := max(1, width/lipgloss.Width(cardStyle.Render("")))
	var rows []string
	for start := 0; start < len(list); start += perRow {
		end := min(start+perRow, len(list))
		cards := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			cards = append(cards, renderCard(list[i], i == selected))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// ──────────────────────────────────────────
// Home
// ──────────────────────────────────────────

type homeLoadedMsg struct {
	home properties.Home
}

type homeModel struct {
	svc     *properties.Service
	filter  string
	home    properties.Home
	loading bool
	width   int
}

func newHomeModel(svc *properties.Service) homeModel {
	return homeModel{svc: svc, filter: properties.AllFilter}
}

func (m *homeModel) load() tea.Cmd {
	if m.svc == nil {
		return nil
	}
	m.loading = true
	svc, f := m.svc, properties.Filter{Filter: m.filter, Limit: recommendedLimit}
	return func() tea.Msg {
		return homeLoadedMsg{home: svc.Home(context.Background(), f)}
	}
}

func (m homeModel) Update(msg tea.Msg) (homeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case homeLoadedMsg:
		m.home = msg.home
		m.loading = false
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "[":
			m.filter = nextFilter(m.filter, -1)
			cmd := m.load()
			return m, cmd
		case "]":
			m.filter = nextFilter(m.filter, 1)
			cmd := m.load()
			return m, cmd
		case "r":
			cmd := m.load()
			return m, cmd
		}
	}
	return m, nil
}

func (m homeModel) View(greeting string) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(greeting))
	sb.WriteString("\n")
	if m.loading {
		sb.WriteString(warningStyle.Render(T("loading")))
		sb.WriteString("\n")
	}
	sb.WriteString(labelStyle.Render(T("featured")))
	sb.WriteString("\n")
	sb.WriteString(renderCards(m.home.Featured, m.width, -1))
	sb.WriteString("\n\n")
	sb.WriteString(labelStyle.Render(T("recommended")))
	sb.WriteString("\n")
	sb.WriteString(renderFilters(m.filter))
	sb.WriteString("\n")
	sb.WriteString(renderCards(m.home.Recommended, m.width, -1))
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render(T("home_help")))
	return sb.String()
}

// ──────────────────────────────────────────
// Explore
// ──────────────────────────────────────────

type exploreLoadedMsg struct {
	state resource.State[[]properties.Property]
}

type propertyLoadedMsg struct {
	property *properties.Property
}

// openPropertyMsg asks the app to show one listing.
type openPropertyMsg struct {
	id string
}

type exploreModel struct {
	res      *resource.Resource[[]properties.Property]
	svc      *properties.Service
	input    textinput.Model
	filter   string
	query    string
	list     []properties.Property
	loading  bool
	selected int
	width    int

	detail       *properties.Property
	detailLoaded bool
}

func newExploreModel(svc *properties.Service) exploreModel {
	ti := textinput.New()
	ti.Placeholder = T("search_placeholder")
	ti.Prompt = "🔍 "
	return exploreModel{svc: svc, input: ti, filter: properties.AllFilter}
}

// filterFromParams reads a properties.Filter back from resource params.
func filterFromParams(params resource.Params) properties.Filter {
	var f properties.Filter
	if v, ok := params["filter"].(string); ok {
		f.Filter = v
	}
	if v, ok := params["query"].(string); ok {
		f.Query = v
	}
	if v, ok := params["limit"].(int); ok {
		f.Limit = v
	}
	return f
}

// ensure creates the listing resource on first use. Its initial fetch lists everything.
func (m *exploreModel) ensure() {
	if m.res != nil || m.svc == nil {
		return
	}
	svc := m.svc
	m.res = resource.New(func(ctx context.Context, params resource.Params) ([]properties.Property, error) {
		return svc.List(ctx, filterFromParams(params)), nil
	})
	m.loading = true
}

// enter is called whenever the explore route becomes active. The first time it waits
// for the initial listing; later visits keep the previous results.
func (m *exploreModel) enter() tea.Cmd {
	if m.res != nil {
		return nil
	}
	m.ensure()
	if m.res == nil {
		return nil
	}
	res := m.res
	return func() tea.Msg {
		<-res.Ready()
		return exploreLoadedMsg{state: res.Snapshot()}
	}
}

func (m *exploreModel) search() tea.Cmd {
	m.ensure()
	if m.res == nil {
		return nil
	}
	m.loading = true
	res := m.res
	params := resource.Params{"filter": m.filter, "query": m.query}
	return func() tea.Msg {
		_ = res.Refetch(context.Background(), params)
		return exploreLoadedMsg{state: res.Snapshot()}
	}
}

func (m *exploreModel) open(id string) tea.Cmd {
	m.detail = nil
	m.detailLoaded = false
	if m.svc == nil {
		return nil
	}
	svc := m.svc
	return func() tea.Msg {
		return propertyLoadedMsg{property: svc.Get(context.Background(), id)}
	}
}

func (m *exploreModel) close() {
	if m.res != nil {
		m.res.Close()
	}
}

func (m exploreModel) Update(msg tea.Msg) (exploreModel, tea.Cmd) {
	switch msg := msg.(type) {
	case localeChangedMsg:
		m.input.Placeholder = T("search_placeholder")
		return m, nil
	case exploreLoadedMsg:
		m.list = msg.state.Data
		m.loading = msg.state.Loading
		m.selected = min(m.selected, max(len(m.list)-1, 0))
		return m, nil
	case propertyLoadedMsg:
		m.detail = msg.property
		m.detailLoaded = true
		return m, nil
	case tea.KeyMsg:
		if m.input.Focused() {
			switch msg.String() {
			case "enter":
				m.query = strings.TrimSpace(m.input.Value())
				m.input.Blur()
				cmd := m.search()
				return m, cmd
			case "esc":
				m.input.SetValue(m.query)
				m.input.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "/":
			cmd := m.input.Focus()
			return m, cmd
		case "[":
			m.filter = nextFilter(m.filter, -1)
			cmd := m.search()
			return m, cmd
		case "]":
			m.filter = nextFilter(m.filter, 1)
			cmd := m.search()
			return m, cmd
		case "r":
			cmd := m.search()
			return m, cmd
		case "up", "k":
			m.selected = max(m.selected-1, 0)
		case "down", "j":
			m.selected = min(m.selected+1, max(len(m.list)-1, 0))
		case "enter":
			if m.selected < len(m.list) {
				id := m.list[m.selected].ID
				return m, func() tea.Msg { return openPropertyMsg{id: id} }
			}
		}
	}
	return m, nil
}

// capturesInput reports whether keys should go to the search box instead of the app.
func (m exploreModel) capturesInput() bool {
	return m.input.Focused()
}

func (m exploreModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	sb.WriteString(renderFilters(m.filter))
	sb.WriteString("\n")
	if m.loading {
		sb.WriteString(warningStyle.Render(T("loading")))
	} else {
		sb.WriteString(subtitleStyle.Render(fmt.Sprintf(T("found"), len(m.list))))
	}
	sb.WriteString("\n")
	sb.WriteString(renderCards(m.list, m.width, m.selected))
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render(T("explore_help")))
	return sb.String()
}

func (m exploreModel) DetailView() string {
	if !m.detailLoaded {
		return warningStyle.Render(T("loading"))
	}
	if m.detail == nil {
		return subtitleStyle.Render(T("no_results")) + "\n" + helpStyle.Render(T("detail_help"))
	}
	p := m.detail
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(p.Name))
	sb.WriteString("\n")
	rows := [][2]string{
		{T("filter"), p.Type},
		{T("price"), fmt.Sprintf("$%.0f", p.Price)},
		{T("rating"), fmt.Sprintf("%.1f", p.Rating)},
		{T("address"), p.Address},
		{T("image"), p.Image},
	}
	for _, row := range rows {
		sb.WriteString(labelStyle.Render(row[0]))
		sb.WriteString(valueStyle.Render(row[1]))
		sb.WriteString("\n")
	}
	sb.WriteString(helpStyle.Render(T("detail_help")))
	return sb.String()
}
