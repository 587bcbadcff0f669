package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/merge5/internal/registry"
	"github.com/vovakirdan/merge5/internal/storage"
)

const (
	statsPanelMinWidth = 84 // below this the stats panel moves under the tabs
	statsPanelWidth    = 24
	scoreboardLimit    = 100
)

// rankOrder selects how the scoreboard ranks results.
type rankOrder int

const (
	rankByScore rankOrder = iota
	rankByTile
)

func (o rankOrder) String() string {
	if o == rankByTile {
		return "best tile"
	}
	return "score"
}

var (
	boardTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	boardDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boardTabStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)
	boardActiveTab  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).Padding(0, 1)
	boardFrameStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

type scoreboardKeys struct {
	Scroll  key.Binding
	Variant key.Binding
	Order   key.Binding
	Back    key.Binding
	Quit    key.Binding
}

func (k scoreboardKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Scroll, k.Variant, k.Order, k.Back, k.Quit}
}

func (k scoreboardKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func newScoreboardKeys() scoreboardKeys {
	return scoreboardKeys{
		Scroll:  key.NewBinding(key.WithKeys("up", "k", "down", "j"), key.WithHelp("↑/↓", "scroll")),
		Variant: key.NewBinding(key.WithKeys("tab", "shift+tab", "left", "right", "h", "l"), key.WithHelp("tab/←/→", "variant")),
		Order:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "rank by")),
		Back:    key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc", "back")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ScoreboardModel lists stored results per variant.
type ScoreboardModel struct {
	variants []registry.GameInfo
	current  int
	order    rankOrder

	store   *storage.Store
	records []storage.ScoreRecord
	stats   *storage.GameStats

	table table.Model
	help  help.Model
	keys  scoreboardKeys

	width, height int

	quitting  bool
	goingBack bool
	embedded  bool // back hands control to the owner instead of quitting
}

// NewScoreboardModel opens the scoreboard on gameID, or on the first
// variant when gameID is empty or unknown.
func NewScoreboardModel(store *storage.Store, gameID string, width, height int) ScoreboardModel {
	m := ScoreboardModel{
		variants: registry.List(),
		store:    store,
		help:     help.New(),
		keys:     newScoreboardKeys(),
		width:    width,
		height:   height,
	}
	for i, v := range m.variants {
		if v.ID == gameID {
			m.current = i
		}
	}
	m.table = m.newTable()
	m.reload()
	return m
}

func (m ScoreboardModel) wide() bool {
	return m.width >= statsPanelMinWidth
}

func (m ScoreboardModel) variantID() string {
	if len(m.variants) == 0 {
		return ""
	}
	return m.variants[m.current].ID
}

func (m ScoreboardModel) newTable() table.Model {
	cols := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Score", Width: 8},
		{Title: "Tile", Width: 6},
		{Title: "Moves", Width: 6},
		{Title: "Player", Width: 10},
		{Title: "Played", Width: 12},
	}
	room := m.width - 6
	if m.wide() {
		room -= statsPanelWidth + 4
	}
	if room < 52 {
		// drop the player column
		cols = append(cols[:4:4], cols[5])
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(max(m.height-10, 3)),
	)
	st := table.DefaultStyles()
	st.Header = st.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	st.Selected = st.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(st)
	return t
}

// reload fetches the current variant's results. Errors leave the board empty.
func (m *ScoreboardModel) reload() {
	m.records, m.stats = nil, nil
	if m.store != nil && len(m.variants) > 0 {
		id := m.variantID()
		if recs, err := m.store.TopScores(id, scoreboardLimit); err == nil {
			m.records = recs
		}
		if st, err := m.store.GameStats(id); err == nil {
			m.stats = st
		}
	}
	m.rank()
}

// rank orders the loaded records and refills the table. TopScores already
// returns them by score.
func (m *ScoreboardModel) rank() {
	recs := m.records
	if m.order == rankByTile {
		recs = append([]storage.ScoreRecord(nil), recs...)
		sort.SliceStable(recs, func(i, j int) bool {
			if recs[i].MaxTile != recs[j].MaxTile {
				return recs[i].MaxTile > recs[j].MaxTile
			}
			return recs[i].Score > recs[j].Score
		})
	}

	withPlayer := len(m.table.Columns()) == 6
	rows := make([]table.Row, 0, len(recs))
	for i, r := range recs {
		row := table.Row{
			fmt.Sprint(i + 1),
			fmt.Sprint(r.Score),
			fmt.Sprint(r.MaxTile),
			fmt.Sprint(r.Moves),
		}
		if withPlayer {
			row = append(row, playerName(r.Player))
		}
		rows = append(rows, append(row, r.CreatedAt.Format("Jan 02 15:04")))
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m *ScoreboardModel) shiftVariant(step int) {
	n := len(m.variants)
	if n == 0 {
		return
	}
	m.current = (m.current + step + n) % n
	m.reload()
}

func (m ScoreboardModel) Init() tea.Cmd {
	return nil
}

func (m ScoreboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.table = m.newTable()
		m.rank()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			if m.embedded {
				return m, nil
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.Order):
			m.order = 1 - m.order
			m.rank()
			return m, nil
		case key.Matches(msg, m.keys.Variant):
			switch msg.String() {
			case "shift+tab", "left", "h":
				m.shiftVariant(-1)
			default:
				m.shiftVariant(1)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ScoreboardModel) View() string {
	if m.quitting || m.goingBack {
		return ""
	}

	var b strings.Builder
	title := "HIGH SCORES"
	if len(m.variants) > 0 {
		title += " · " + m.variants[m.current].Title
	}
	b.WriteString(centerText(boardTitleStyle.Render(title), m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText(m.tabs(), m.width))
	b.WriteString("\n\n")

	body := boardFrameStyle.Render(m.results())
	if m.wide() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, "  ", boardFrameStyle.Render(m.statsPanel()))
	} else if summary := m.summary(); summary != "" {
		b.WriteString(centerText(boardDimStyle.Render(summary), m.width))
		b.WriteString("\n")
	}
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(boardDimStyle.Render(fmt.Sprintf("ranked by %s  ", m.order)))
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m ScoreboardModel) tabs() string {
	tabs := make([]string, len(m.variants))
	for i, v := range m.variants {
		if i == m.current {
			tabs[i] = boardActiveTab.Render(v.ID)
		} else {
			tabs[i] = boardTabStyle.Render(v.ID)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m ScoreboardModel) results() string {
	if len(m.records) == 0 {
		return boardDimStyle.Italic(true).Padding(2, 4).
			Render("No scores recorded yet.\nMerge some tiles to set a high score!")
	}
	return m.table.View()
}

func (m ScoreboardModel) summary() string {
	st := m.stats
	if st == nil || st.GamesCount == 0 {
		return ""
	}
	return fmt.Sprintf("%d games  |  best %d  |  best tile %d  |  avg %.0f",
		st.GamesCount, st.HighScore, st.BestTile, st.AvgScore)
}

func (m ScoreboardModel) statsPanel() string {
	st := m.stats
	if st == nil || st.GamesCount == 0 {
		return lipgloss.NewStyle().Width(statsPanelWidth).Render("No games yet")
	}
	lines := []string{
		boardTitleStyle.Render("Totals"),
		"",
		fmt.Sprintf("Games      %d", st.GamesCount),
		fmt.Sprintf("Best       %d", st.HighScore),
		fmt.Sprintf("Best tile  %d", st.BestTile),
		fmt.Sprintf("Average    %.0f", st.AvgScore),
		fmt.Sprintf("Moves      %d", st.TotalMoves),
	}
	if !st.LastPlayed.IsZero() {
		lines = append(lines, "", boardDimStyle.Render("last "+st.LastPlayed.Format("Jan 02 15:04")))
	}
	return lipgloss.NewStyle().Width(statsPanelWidth).Render(strings.Join(lines, "\n"))
}

// IsGoingBack reports whether the user left with back rather than quit.
func (m ScoreboardModel) IsGoingBack() bool { return m.goingBack }

// IsQuitting reports whether the user asked to quit.
func (m ScoreboardModel) IsQuitting() bool { return m.quitting }

func playerName(p string) string {
	if p == "" {
		return "-"
	}
	return p
}

// RunScoreboard shows the scoreboard as its own program. goBack is true
// when the user pressed back.
func RunScoreboard(store *storage.Store, gameID string, width, height int) (goBack bool, err error) {
	final, err := tea.NewProgram(NewScoreboardModel(store, gameID, width, height), tea.WithAltScreen()).Run()
	if err != nil {
		return false, err
	}
	m, ok := final.(ScoreboardModel)
	return ok && m.IsGoingBack(), nil
}
