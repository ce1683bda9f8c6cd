package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/engine"
	"github.com/jwebster45206/dungeon-engine/pkg/state"
	"github.com/muesli/reflow/wordwrap"
)

const (
	AgentName       = "DM"
	PlaceHolderText = "What do you do? (try: look, search, go north, /help)"
)

type entryKind int

const (
	entryPlayer entryKind = iota
	entryDM
	entryInfo
	entryError
)

type logEntry struct {
	kind entryKind
	text string
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	api          *apiClient
	gameState    *state.GameState
	campaign     *campaign.Campaign
	log          []logEntry
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Campaign selection state
	showCampaignModal bool
	campaigns         []CampaignSummary
	selectedCampaign  int
	loadingCampaigns  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type turnResponseMsg struct {
	text string
	err  error
}

type gameStateMsg struct {
	gameState *state.GameState
	err       error
}

type campaignsLoadedMsg struct {
	campaigns []CampaignSummary
	err       error
}

type gameStateCreatedMsg struct {
	gameState *state.GameState
	campaign  *campaign.Campaign
	room      *engine.RoomView
	err       error
}

type progressTickMsg struct{}

// Torchlit palette, 256-color codes.
const (
	colorTorch  = lipgloss.Color("214")
	colorEmber  = lipgloss.Color("166")
	colorMoss   = lipgloss.Color("108")
	colorWater  = lipgloss.Color("74")
	colorBlood  = lipgloss.Color("160")
	colorStone  = lipgloss.Color("243")
	colorShadow = lipgloss.Color("236")
	colorBone   = lipgloss.Color("230")
)

var (
	logPanelStyle  = lipgloss.NewStyle().Padding(2, 0, 1, 3)
	sidePanelStyle = lipgloss.NewStyle().Padding(2, 2, 0, 0)

	headingStyle = lipgloss.NewStyle().Foreground(colorTorch).Bold(true)
	speakerStyle = lipgloss.NewStyle().Foreground(colorEmber).Bold(true)
	dmStyle      = lipgloss.NewStyle().Foreground(colorMoss)
	playerStyle  = lipgloss.NewStyle().Foreground(colorWater)
	errorStyle   = lipgloss.NewStyle().Foreground(colorBlood)
	busyStyle    = lipgloss.NewStyle().Foreground(colorTorch)
	hintStyle    = lipgloss.NewStyle().Foreground(colorStone)
	ruleStyle    = hintStyle

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(colorEmber).
			Padding(1, 2).
			Background(colorShadow).
			Foreground(colorBone)
	modalHeadingStyle = headingStyle.Align(lipgloss.Center)
	menuItemStyle     = lipgloss.NewStyle().Foreground(colorBone)
	menuCursorStyle   = lipgloss.NewStyle().Foreground(colorShadow).Background(colorTorch).Bold(true)
)

const helpText = `Movement:
• look, go <dir>, or just n/s/e/w/u/d
• unlock <dir>, discover <dir>

Exploring:
• search [roll], take <treasure>
• enemies, treasure, trap <trap>

Bookkeeping:
• hit <enemy> <n>, defeat <enemy>
• hurt <n>, heal <n>, flag <name> on|off

Console:
• /help, /state, /copy (session id), /new
• Ctrl+C - Quit game`

func NewConsoleUI(cfg *ConsoleConfig, api *apiClient) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = hintStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:            cfg,
		api:               api,
		textarea:          ta,
		chatViewport:      chatVp,
		metaViewport:      metaVp,
		showCampaignModal: true,
		loadingCampaigns:  true,
	}
}

func (m *ConsoleUI) addEntry(kind entryKind, text string) {
	m.log = append(m.log, logEntry{kind: kind, text: text})
}

// formatRoom describes a room the way the DM reads it out.
func formatRoom(room *engine.RoomView) string {
	var b strings.Builder
	b.WriteString(room.Name + ". " + room.Description)
	if room.Atmosphere != "" {
		b.WriteString(" " + room.Atmosphere)
	}

	if len(room.Exits) == 0 {
		b.WriteString("\nThere is no obvious way out.")
	} else {
		exits := make([]string, 0, len(room.Exits))
		for _, x := range room.Exits {
			label := x.Direction
			if x.Locked {
				label += " (locked)"
			}
			exits = append(exits, label)
		}
		b.WriteString("\nExits: " + strings.Join(exits, ", "))
	}
	if len(room.Enemies) > 0 {
		b.WriteString("\nEnemies: " + enemyNames(room.Enemies))
	}
	if len(room.Treasure) > 0 {
		b.WriteString("\nYou see: " + treasureNames(room.Treasure))
	}
	return b.String()
}

func enemyNames(enemies []campaign.Enemy) string {
	names := make([]string, 0, len(enemies))
	for _, e := range enemies {
		names = append(names, fmt.Sprintf("%s [%s]", e.Name, e.ID))
	}
	return strings.Join(names, ", ")
}

func treasureNames(treasure []campaign.Treasure) string {
	names := make([]string, 0, len(treasure))
	for _, t := range treasure {
		names = append(names, fmt.Sprintf("%s [%s]", t.Name, t.ID))
	}
	return strings.Join(names, ", ")
}

// writeMetadata renders the side panel for the current session.
func writeMetadata(gs *state.GameState, c *campaign.Campaign) string {
	var b strings.Builder
	section := func(title string, lines ...string) {
		b.WriteString(headingStyle.Render(strings.ToUpper(title)) + "\n")
		for _, l := range lines {
			b.WriteString(l + "\n")
		}
		b.WriteString("\n")
	}

	campaignName := gs.CampaignID
	if c != nil {
		campaignName = c.Name
	}
	section("Session", gs.ID.String()[:8], campaignName)

	p := gs.Player
	section(p.Name,
		fmt.Sprintf("Level %d", p.Level),
		fmt.Sprintf("HP %d/%d", p.Health, p.MaxHealth),
	)

	if cs := gs.Campaign; cs != nil {
		where := cs.CurrentRoomID
		if c != nil {
			if r, ok := c.Room(where); ok {
				where = r.Name
			}
		}
		section("Location", where, fmt.Sprintf("%d rooms visited", cs.VisitedRooms.Len()))
	}

	pack := []string{hintStyle.Render("nothing")}
	if len(p.Inventory) > 0 {
		pack = pack[:0]
		for _, item := range p.Inventory {
			pack = append(pack, "• "+item)
		}
	}
	section("Pack", pack...)

	if cs := gs.Campaign; cs != nil && len(cs.QuestFlags) > 0 {
		var flags []string
		for _, name := range slices.Sorted(maps.Keys(cs.QuestFlags)) {
			mark := "✗"
			if cs.QuestFlags[name] {
				mark = "✓"
			}
			flags = append(flags, mark+" "+displayName(name))
		}
		section("Quest", flags...)
	}

	b.WriteString(hintStyle.Render("Enter acts · /help · /copy · Ctrl+C"))
	return b.String()
}

// writeChatContent rebuilds the log for the current viewport width
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(headingStyle.Render("DUNGEON ENGINE") + "\n\n")
	if m.campaign != nil {
		content.WriteString(m.campaign.Name + "\n")
	}
	content.WriteString("Type commands below to explore. /help lists them.\n\n")
	content.WriteString(ruleStyle.Render(strings.Repeat("─", chatWidth)) + "\n\n")

	for _, e := range m.log {
		switch e.kind {
		case entryPlayer:
			content.WriteString(playerStyle.Render("You: ") + wordwrap.String(e.text, chatWidth-5) + "\n\n")
		case entryDM:
			content.WriteString(formatDMResponse(e.text, chatWidth) + "\n\n")
		case entryInfo:
			content.WriteString(wordwrap.String(e.text, chatWidth) + "\n\n")
		case entryError:
			content.WriteString(errorStyle.Render("Error: "+wordwrap.String(e.text, chatWidth-7)) + "\n\n")
		}
	}

	// If currently loading, add the progress bar
	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

// formatDMResponse wraps a response and styles "Label:" prefixes such as
// "Exits:" and "Enemies:" on each line.
func formatDMResponse(response string, width int) string {
	prefix := AgentName + ": "
	wrapped := wordwrap.String(response, width-len(prefix))
	lines := strings.Split(wrapped, "\n")

	for i, line := range lines {
		if idx := strings.Index(line, ":"); idx > 0 && idx <= 12 && len(strings.Fields(line[:idx])) == 1 {
			lines[i] = speakerStyle.Render(line[:idx+1]) + line[idx+1:]
		}
	}
	return dmStyle.Render(prefix) + strings.Join(lines, "\n")
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadCampaigns()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle campaign modal first
	if m.showCampaignModal && !m.showQuitModal {
		return m.updateCampaignModal(msg)
	}

	// Handle quit modal second
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeChatContent()
		if m.gameState != nil {
			m.metaViewport.SetContent(writeMetadata(m.gameState, m.campaign))
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.addEntry(entryPlayer, input)
			cmd, err := parseCommand(input)
			if err != nil {
				m.addEntry(entryInfo, err.Error())
				m.writeChatContent()
				return m, nil
			}

			m.loading = true
			m.progressTick = 0
			m.writeChatContent()
			return m, tea.Batch(m.run(cmd), progressTick())
		}

	case turnResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.addEntry(entryError, msg.err.Error())
		} else {
			m.addEntry(entryDM, msg.text)
		}
		m.writeChatContent()
		return m, m.refreshGameState()

	case gameStateMsg:
		if msg.err == nil && msg.gameState != nil {
			m.gameState = msg.gameState
			m.metaViewport.SetContent(writeMetadata(m.gameState, m.campaign))
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "/help":
		m.addEntry(entryInfo, headingStyle.Render("Help:")+"\n"+helpText)

	case "/state":
		m.addEntry(entryInfo, writeMetadata(m.gameState, m.campaign))

	case "/copy":
		if err := clipboard.WriteAll(m.gameState.ID.String()); err != nil {
			m.addEntry(entryError, "could not copy to clipboard: "+err.Error())
		} else {
			m.addEntry(entryInfo, "Session ID copied to clipboard.")
		}

	case "/new":
		m.showCampaignModal = true
		m.loadingCampaigns = true
		m.gameState = nil
		m.campaign = nil
		m.log = nil
		m.err = nil
		return m, m.loadCampaigns()

	case "/quit":
		m.showQuitModal = true

	default:
		m.addEntry(entryInfo, fmt.Sprintf("Unknown command %s. Try /help.", input))
	}

	m.writeChatContent()
	return m, nil
}

// run executes a parsed command against the API.
func (m ConsoleUI) run(cmd command) tea.Cmd {
	id := m.gameState.ID
	return func() tea.Msg {
		switch cmd.query {
		case "room":
			room, err := m.api.getRoom(id)
			if err != nil {
				return turnResponseMsg{err: err}
			}
			return turnResponseMsg{text: formatRoom(room)}
		case "enemies":
			enemies, err := m.api.getEnemies(id)
			if err != nil {
				return turnResponseMsg{err: err}
			}
			if len(enemies) == 0 {
				return turnResponseMsg{text: "Nothing hostile is here."}
			}
			return turnResponseMsg{text: "Enemies: " + enemyNames(enemies)}
		case "treasure":
			treasure, err := m.api.getTreasure(id)
			if err != nil {
				return turnResponseMsg{err: err}
			}
			if len(treasure) == 0 {
				return turnResponseMsg{text: "There is nothing left to take here."}
			}
			return turnResponseMsg{text: "Treasure: " + treasureNames(treasure)}
		}

		res, err := m.api.turn(id, cmd.action, cmd.body)
		if err != nil {
			return turnResponseMsg{err: err}
		}
		if res.Success && cmd.action == "move" {
			if room, err := m.api.getRoom(id); err == nil {
				return turnResponseMsg{text: res.Message + "\n" + formatRoom(room)}
			}
		}
		return turnResponseMsg{text: res.Message}
	}
}

func (m ConsoleUI) refreshGameState() tea.Cmd {
	if m.gameState == nil {
		return nil
	}
	id := m.gameState.ID
	return func() tea.Msg {
		gs, err := m.api.getGameState(id)
		return gameStateMsg{gs, err}
	}
}

func (m ConsoleUI) loadCampaigns() tea.Cmd {
	return func() tea.Msg {
		campaigns, err := m.api.listCampaigns()
		return campaignsLoadedMsg{campaigns, err}
	}
}

func (m ConsoleUI) createGame(campaignID string) tea.Cmd {
	characterID := m.config.CharacterID
	return func() tea.Msg {
		gs, err := m.api.createGameState(campaignID, characterID)
		if err != nil {
			return gameStateCreatedMsg{err: err}
		}
		c, err := m.api.getCampaign(campaignID)
		if err != nil {
			return gameStateCreatedMsg{err: err}
		}
		room, err := m.api.getRoom(gs.ID)
		if err != nil {
			return gameStateCreatedMsg{err: err}
		}
		return gameStateCreatedMsg{gameState: gs, campaign: c, room: room}
	}
}

func (m ConsoleUI) updateCampaignModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case campaignsLoadedMsg:
		m.loadingCampaigns = false
		m.selectedCampaign = 0
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.campaigns = msg.campaigns
		}

	case gameStateCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.gameState = msg.gameState
		m.campaign = msg.campaign
		m.showCampaignModal = false
		if m.width > 0 && m.height > 0 {
			m.resize()
		}
		if m.campaign.OpeningNarrative != "" {
			m.addEntry(entryDM, m.campaign.OpeningNarrative)
		}
		m.addEntry(entryDM, formatRoom(msg.room))
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.gameState, m.campaign))
		m.textarea.Focus()
		m.ready = true
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingCampaigns {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		}
		if m.err != nil || m.loading {
			return m, nil
		}

		switch msg.Type {
		case tea.KeyUp:
			if m.selectedCampaign > 0 {
				m.selectedCampaign--
			}
		case tea.KeyDown:
			if m.selectedCampaign < len(m.campaigns)-1 {
				m.selectedCampaign++
			}
		case tea.KeyEnter:
			if len(m.campaigns) > 0 {
				m.loading = true
				return m, m.createGame(m.campaigns[m.selectedCampaign].ID)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if m.showCampaignModal {
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

// centered draws a titled modal box in the middle of the screen.
func (m ConsoleUI) centered(width int, title string, body ...string) string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	parts := append([]string{modalHeadingStyle.Render(title), ""}, body...)
	box := modalStyle.Width(width).Render(strings.Join(parts, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderQuitModal() string {
	return m.centered(50, "Leave the dungeon?",
		"The session stays on the server and can be resumed by id.",
		"",
		hintStyle.Render("y quits · n returns · Ctrl+C forces"),
	)
}

func (m ConsoleUI) renderCampaignModal() string {
	switch {
	case m.loadingCampaigns:
		return m.centered(60, "Campaigns", busyStyle.Render("Reading the campaign list..."))
	case m.err != nil:
		return m.centered(60, "Cannot start",
			errorStyle.Render(m.err.Error()),
			"",
			hintStyle.Render("Ctrl+C exits"),
		)
	case m.loading:
		return m.centered(60, "Campaigns", busyStyle.Render("Lighting torches..."))
	case len(m.campaigns) == 0:
		return m.centered(60, "No campaigns",
			"The API found no campaign files. Add one under data/campaigns and restart it.")
	}

	lines := make([]string, 0, len(m.campaigns)+2)
	for i, c := range m.campaigns {
		if i == m.selectedCampaign {
			lines = append(lines, menuCursorStyle.Render("▶ "+c.Name))
			continue
		}
		lines = append(lines, menuItemStyle.Render("  "+c.Name))
	}
	lines = append(lines, "", hintStyle.Render("↑/↓ choose · Enter starts · Ctrl+C exits"))
	return m.centered(60, "Choose a campaign", lines...)
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if m.showCampaignModal {
		return m.renderCampaignModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := logPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			ruleStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := sidePanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar sweeps a torch back and forth along a dotted corridor
// while a request is in flight.
func (m ConsoleUI) renderProgressBar() string {
	width := min(max(m.chatViewport.Width-6, 10), 60)
	span := 2 * (width - 1)
	pos := m.progressTick % span
	if pos >= width {
		pos = span - pos
	}

	corridor := []rune(strings.Repeat("·", width))
	corridor[pos] = '✦'
	return busyStyle.Render(string(corridor))
}

func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
