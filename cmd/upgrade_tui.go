package cmd

import (
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"spt-mod-manager/logger"

	"go.uber.org/zap"
)

// UpgradeModel controls the UI for the upgrade command
type UpgradeModel struct {
	spinner      spinner.Model
	progressChan chan UpgradeProgressMsg
	localOnly    bool
	failed       *atomic.Bool

	// State
	status      string
	downloading []string
	completed   []string
	errors      []string
	summary     string
	done        bool
}

func initialUpgradeModel(localOnly bool, failed *atomic.Bool) UpgradeModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return UpgradeModel{
		spinner:      s,
		progressChan: make(chan UpgradeProgressMsg, 100), // Buffer slightly to avoid blocking
		localOnly:    localOnly,
		failed:       failed,
		status:       "Initializing...",
		downloading:  []string{},
		completed:    []string{},
		errors:       []string{},
	}
}

func (m UpgradeModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.startUpgrade(),
		m.waitForActivity(),
	)
}

func (m UpgradeModel) startUpgrade() tea.Cmd {
	return func() tea.Msg {
		go func() {
			defer close(m.progressChan)
			if runUpgrade(m.localOnly, m.progressChan) {
				m.failed.Store(true)
			}
		}()
		return nil
	}
}

func (m UpgradeModel) waitForActivity() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.progressChan
		if !ok {
			return UpgradeProgressMsg{Type: "done"}
		}
		return msg
	}
}

func (m UpgradeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.done {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case UpgradeProgressMsg:
		switch msg.Type {
		case "done":
			m.done = true
			m.status = "Finished"
			return m, tea.Quit

		case "status":
			m.status = msg.Message

		case "resolved":
			m.status = fmt.Sprintf("Resolved %s", msg.ModName)

		case "download_start":
			m.downloading = append(m.downloading, msg.Asset)

		case "download_success":
			m.removeFromDownloading(msg.Asset)
			m.completed = append(m.completed, fmt.Sprintf("Downloaded %s", msg.Asset))

		case "error":
			name := msg.ModName
			if name == "" {
				name = msg.Asset
			}
			m.errors = append(m.errors, fmt.Sprintf("%s: %s", name, msg.Message))

		case "summary":
			m.summary = msg.Message
		}

		return m, m.waitForActivity()
	}

	return m, nil
}

func (m *UpgradeModel) removeFromDownloading(name string) {
	for i, v := range m.downloading {
		if v == name {
			m.downloading = append(m.downloading[:i], m.downloading[i+1:]...)
			return
		}
	}
}

func (m UpgradeModel) View() string {
	var symbol string
	if m.done {
		symbol = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("✓")
	} else {
		symbol = m.spinner.View()
	}

	s := fmt.Sprintf("\n %s %s\n\n", symbol, m.status)

	if len(m.downloading) > 0 {
		s += lipgloss.NewStyle().Bold(true).Render("Downloading:") + "\n"
		for _, d := range m.downloading {
			s += fmt.Sprintf("  • %s\n", d)
		}
		s += "\n"
	}

	if len(m.errors) > 0 {
		s += lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("Errors:") + "\n"
		for _, e := range m.errors {
			s += fmt.Sprintf("  • %s\n", e)
		}
		s += "\n"
	}

	// Show last few completed
	if len(m.completed) > 0 {
		s += lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("Completed:") + "\n"
		start := 0
		if len(m.completed) > 5 && !m.done {
			start = len(m.completed) - 5
		}
		for i := start; i < len(m.completed); i++ {
			s += fmt.Sprintf("  • %s\n", m.completed[i])
		}
		s += "\n"
	}

	if m.done {
		s += lipgloss.NewStyle().Bold(true).Render(m.summary) + "\n"
	}

	return s
}

// runUpgradeTUI runs the upgrade pipeline behind an interactive progress
// view and reports whether anything failed.
func runUpgradeTUI(localOnly bool) bool {
	var failed atomic.Bool
	m := initialUpgradeModel(localOnly, &failed)

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		logger.Log.Fatalw("Failed to run progress view", zap.Error(err))
	}
	return failed.Load()
}
