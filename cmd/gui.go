package cmd

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spt-mod-manager/db"
	"spt-mod-manager/logger"
	"spt-mod-manager/modstate"
)

// guiCmd represents the gui command
var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Launch the interactive mod browser",
	Long: `Launch an interactive TUI listing every mod in the active profile.
Mods can be enabled and disabled directly from the list.`,
	Run: func(_ *cobra.Command, _ []string) {
		runGUI()
	},
}

func init() {
	rootCmd.AddCommand(guiCmd)
}

// ModInfo represents one row of the mod browser
type ModInfo struct {
	Name       string
	Repository string
	Status     string // "enabled", "disabled", "pinned", "not-installed"
	Enabled    bool
	FileCount  int
	Selectable bool // Whether the mod can be toggled (has tracked files)
}

// Model represents the state of the TUI
type Model struct {
	mods          []ModInfo
	profile       *db.Profile
	manager       *modstate.Manager
	selectedIndex int
	error         string
	message       string
	width         int
	height        int
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case toggleDoneMsg:
		m.message = msg.message
		m.error = msg.err
		m.reloadRow(msg.index)
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}
	case "down", "j":
		if m.selectedIndex < len(m.mods)-1 {
			m.selectedIndex++
		}
	case " ", "enter":
		if len(m.mods) > 0 && m.mods[m.selectedIndex].Selectable {
			return m, m.toggleMod(m.selectedIndex)
		}
	}
	return m, nil
}

type toggleDoneMsg struct {
	index   int
	message string
	err     string
}

// toggleMod flips one mod between enabled and disabled on disk and in
// the database.
func (m Model) toggleMod(index int) tea.Cmd {
	return func() tea.Msg {
		row := m.mods[index]
		mod, err := findMod(m.profile, row.Name)
		if err != nil {
			return toggleDoneMsg{index: index, err: err.Error()}
		}

		if mod.Enabled {
			err = m.manager.Disable(mod.Name, mod.FileList())
		} else {
			err = m.manager.Enable(mod.Name, mod.FileList())
		}
		if err != nil {
			logger.Log.Errorw("Failed to toggle mod", zap.String("mod", mod.Name), zap.Error(err))
			return toggleDoneMsg{index: index, err: err.Error()}
		}

		mod.Enabled = !mod.Enabled
		if err := db.DB.Save(mod).Error; err != nil {
			return toggleDoneMsg{index: index, err: err.Error()}
		}

		verb := "Disabled"
		if mod.Enabled {
			verb = "Enabled"
		}
		return toggleDoneMsg{index: index, message: fmt.Sprintf("%s %s", verb, mod.Name)}
	}
}

func (m *Model) reloadRow(index int) {
	if index < 0 || index >= len(m.mods) {
		return
	}
	mod, err := findMod(m.profile, m.mods[index].Name)
	if err != nil {
		return
	}
	m.mods[index] = modRow(mod)
}

func modRow(mod *db.Mod) ModInfo {
	files := mod.FileList()
	info := ModInfo{
		Name:       mod.Name,
		Repository: mod.Identifier(),
		Enabled:    mod.Enabled,
		FileCount:  len(files),
		Selectable: len(files) > 0,
	}
	switch {
	case len(files) == 0:
		info.Status = "not-installed"
		if mod.Pinned() {
			info.Status = "pinned"
		}
	case !mod.Enabled:
		info.Status = "disabled"
	default:
		info.Status = "enabled"
	}
	return info
}

// View renders the UI
func (m Model) View() string {
	if m.error != "" {
		return fmt.Sprintf("Error: %s\n", m.error)
	}

	if len(m.mods) == 0 {
		return "No mods tracked. Add some with 'add owner/repo'!\n"
	}

	var output string
	output += renderHeader(m.profile.Name)
	output += "\n"

	for i, mod := range m.mods {
		output += m.renderModRow(i, mod)
		output += "\n"
	}

	output += "\n" + renderFooter()

	if m.message != "" {
		output += "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.message)
	}

	return output
}

func renderHeader(profileName string) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Padding(0, 1)

	return headerStyle.Render(fmt.Sprintf("%s  %-38s %-30s %-8s %-15s",
		profileName, "Mod Name", "Repository", "Files", "Status"))
}

func renderFooter() string {
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Italic(true)

	return footerStyle.Render("↑/k: up  ↓/j: down  space: enable/disable  q: quit")
}

func (m Model) renderModRow(index int, mod ModInfo) string {
	var statusColor string
	switch mod.Status {
	case "enabled":
		statusColor = "10" // Green
	case "disabled":
		statusColor = "11" // Yellow
	case "not-installed":
		statusColor = "9" // Red
	default:
		statusColor = "7" // White
	}

	rowStyle := lipgloss.NewStyle().Padding(0, 1)
	if index == m.selectedIndex {
		rowStyle = rowStyle.
			Background(lipgloss.Color("8")).
			Bold(true)
	}

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(statusColor))

	indicator := " "
	if !mod.Selectable {
		indicator = "-"
	}

	// Pad status before applying color to maintain column alignment
	paddedStatus := fmt.Sprintf("%-15s", mod.Status)
	coloredStatus := statusStyle.Render(paddedStatus)

	row := fmt.Sprintf("%s %-39s %-30s %-8d %s",
		indicator,
		truncate(mod.Name, 37),
		truncate(mod.Repository, 28),
		mod.FileCount,
		coloredStatus,
	)

	return rowStyle.Render(row)
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}

func runGUI() {
	bootstrap(".")
	profile := requireActiveProfile()

	mods := make([]ModInfo, 0, len(profile.Mods))
	for i := range profile.Mods {
		mods = append(mods, modRow(&profile.Mods[i]))
	}
	sort.Slice(mods, func(i, j int) bool {
		return strings.ToLower(mods[i].Name) < strings.ToLower(mods[j].Name)
	})

	m := Model{
		mods:    mods,
		profile: profile,
		manager: modstate.New(profile.OutputDir),
		width:   80,
		height:  24,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Log.Fatalw("Failed to run GUI", zap.Error(err))
	}
}
