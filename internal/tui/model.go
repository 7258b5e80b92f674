package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"video-resolver/internal/registry"
)

// Model represents the main application state
type Model struct {
	state    State
	registry *registry.Registry
	urlInput textinput.Model
	table    table.Model
	history  []Resolution
	pending  bool
	status   string
	width    int
	height   int
	styles   Styles
}

// State represents different screens of the TUI
type State int

const (
	MainMenu State = iota
	ResolveScreen
	History
	Help
)

// Resolution is one finished resolution shown in the history table
type Resolution struct {
	InputURL string
	Platform string
	Status   string
	VideoURL string
	Quality  string
}

// resolveDoneMsg carries a finished resolution back into the update loop
type resolveDoneMsg struct {
	resolution Resolution
}

// Styles holds all the styling for the TUI
type Styles struct {
	title       lipgloss.Style
	subtitle    lipgloss.Style
	menuItem    lipgloss.Style
	input       lipgloss.Style
	status      lipgloss.Style
	errorStatus lipgloss.Style
	table       lipgloss.Style
}

// InitialModel creates the initial model for the TUI
func InitialModel(reg *registry.Registry) Model {
	ti := textinput.New()
	ti.Placeholder = "Paste an Instagram or Facebook post URL..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	columns := []table.Column{
		{Title: "Platform", Width: 10},
		{Title: "Input URL", Width: 34},
		{Title: "Status", Width: 10},
		{Title: "Quality", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	styles := Styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			PaddingTop(1).
			PaddingBottom(1),
		subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			PaddingBottom(1),
		menuItem: lipgloss.NewStyle().
			PaddingLeft(2).
			PaddingRight(2).
			Margin(0, 1),
		input: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(1),
		status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")),
		errorStatus: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87")),
		table: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")),
	}

	return Model{
		state:    MainMenu,
		registry: reg,
		urlInput: ti,
		table:    t,
		history:  []Resolution{},
		styles:   styles,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case resolveDoneMsg:
		m.pending = false
		m.history = append(m.history, msg.resolution)
		m.updateTable()
		if msg.resolution.Status == "resolved" {
			m.status = "Resolved: " + msg.resolution.VideoURL
		} else {
			m.status = "Failed: " + msg.resolution.Status
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == MainMenu || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}

		case "esc":
			if m.state != MainMenu {
				m.state = MainMenu
				return m, nil
			}

		case "1":
			if m.state == MainMenu {
				m.state = ResolveScreen
				return m, nil
			}

		case "2":
			if m.state == MainMenu {
				m.state = History
				return m, nil
			}

		case "3":
			if m.state == MainMenu {
				m.state = Help
				return m, nil
			}

		case "enter":
			if m.state == ResolveScreen && m.urlInput.Value() != "" && !m.pending {
				url := m.urlInput.Value()
				m.urlInput.SetValue("")
				m.pending = true
				m.status = "Resolving..."
				return m, m.resolveCmd(url)
			}
		}
	}

	switch m.state {
	case ResolveScreen:
		m.urlInput, cmd = m.urlInput.Update(msg)
	case History:
		m.table, cmd = m.table.Update(msg)
	}

	return m, cmd
}

// resolveCmd runs one resolution off the update loop
func (m Model) resolveCmd(url string) tea.Cmd {
	reg := m.registry
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		resolver, target, err := reg.GetResolverForURL(url)
		if err != nil {
			return resolveDoneMsg{Resolution{
				InputURL: url,
				Status:   "unsupported",
			}}
		}

		result := resolver.Resolve(ctx, target)
		res := Resolution{
			InputURL: url,
			Platform: string(target.Platform),
		}
		if result.Succeeded() {
			res.Status = "resolved"
			res.VideoURL = result.Outcome.VideoURL
			res.Quality = string(result.Outcome.Quality)
		} else {
			res.Status = string(result.Kind)
		}
		return resolveDoneMsg{res}
	}
}

// View renders the UI
func (m Model) View() string {
	switch m.state {
	case MainMenu:
		return m.renderMainMenu()
	case ResolveScreen:
		return m.renderResolveScreen()
	case History:
		return m.renderHistory()
	case Help:
		return m.renderHelp()
	default:
		return m.renderMainMenu()
	}
}

func (m Model) renderMainMenu() string {
	title := m.styles.title.Render("Video Resolver TUI")
	subtitle := m.styles.subtitle.Render("Resolve Instagram and Facebook post URLs to direct video URLs")

	menu := []string{
		"1. Resolve a URL",
		"2. History",
		"3. Help",
		"",
		"q. Quit",
	}

	var menuItems []string
	for _, item := range menu {
		if item == "" {
			menuItems = append(menuItems, "")
		} else {
			menuItems = append(menuItems, m.styles.menuItem.Render(item))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		"",
		strings.Join(menuItems, "\n"),
	)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderResolveScreen() string {
	title := m.styles.title.Render("Resolve a URL")

	input := m.styles.input.Render(m.urlInput.View())

	statusLine := ""
	if m.status != "" {
		style := m.styles.status
		if strings.HasPrefix(m.status, "Failed") {
			style = m.styles.errorStatus
		}
		statusLine = style.Render(m.status)
	}

	instructions := []string{
		"Supported URL shapes:",
		"• Instagram: https://www.instagram.com/reel/ABC123/",
		"• Facebook: https://www.facebook.com/reel/123456789",
		"• Facebook share: https://www.facebook.com/share/r/XyZ9/",
		"",
		"Press Enter to resolve • ESC to go back",
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		"Enter post URL:",
		input,
		"",
		statusLine,
		"",
		strings.Join(instructions, "\n"),
	)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderHistory() string {
	title := m.styles.title.Render("History")

	tableView := m.styles.table.Render(m.table.View())

	instructions := "↑/↓ to navigate • ESC to go back"

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		tableView,
		"",
		instructions,
	)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderHelp() string {
	title := m.styles.title.Render("Help")

	helpText := []string{
		"Video Resolver TUI Help",
		"",
		"Navigation:",
		"• Use number keys to select menu items",
		"• ESC to go back to main menu",
		"• q or Ctrl+C to quit",
		"",
		"Resolution:",
		"• Paste a post URL and press Enter",
		"• Supported platforms: Instagram, Facebook",
		"• Share links are resolved to canonical URLs first",
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		strings.Join(helpText, "\n"),
		"",
		"ESC to go back",
	)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) updateTable() {
	var rows []table.Row
	for _, res := range m.history {
		rows = append(rows, table.Row{
			res.Platform,
			res.InputURL,
			res.Status,
			res.Quality,
		})
	}
	m.table.SetRows(rows)
}
