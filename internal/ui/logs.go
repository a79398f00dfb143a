package ui

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tote/internal/logtail"
)

const logTailLines = 400

type logsState struct {
	lines   []string
	loading bool
	all     bool // include info and debug lines
	err     error
}

type logLinesMsg struct {
	lines []string
	err   error
}

func readLogsCmd(path string, all bool) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, logTailLines)
		if err != nil {
			return logLinesMsg{err: err}
		}
		if !all {
			lines = logtail.AtLeast(lines, slog.LevelWarn)
		}
		return logLinesMsg{lines: lines}
	}
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c", key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Refresh):
		return m, readLogsCmd(m.logFile, m.logs.all)
	case msg.String() == "a":
		all := !m.logs.all
		m.logs = logsState{loading: true, all: all}
		return m, readLogsCmd(m.logFile, all)
	default:
		m.showLogs = false
		return m, nil
	}
}

// renderLogs shows the tail of the log file, newest last, clipped to the
// terminal height.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	var b strings.Builder
	title := ternary(m.logs.all, "Recent log", "Recent warnings")
	b.WriteString(styles.AccentText.Bold(true).Render(title))
	b.WriteString(styles.FaintText.Render("   " + m.logFile))
	b.WriteString("\n\n")

	switch {
	case m.logs.err != nil:
		b.WriteString(styles.DangerText.Render(m.logs.err.Error()))
	case m.logs.loading && len(m.logs.lines) == 0:
		b.WriteString(styles.MutedText.Render("Reading log..."))
	case len(m.logs.lines) == 0:
		b.WriteString(styles.MutedText.Render("Nothing logged"))
	default:
		lines := m.logs.lines
		if room := m.height - 5; room > 0 && len(lines) > room {
			lines = lines[len(lines)-room:]
		}
		for _, line := range lines {
			style := styles.Text
			if lvl, ok := logtail.Level(line); ok {
				switch {
				case lvl >= slog.LevelError:
					style = styles.DangerText
				case lvl >= slog.LevelWarn:
					style = styles.WarningText
				case lvl < slog.LevelInfo:
					style = styles.FaintText
				}
			}
			b.WriteString(style.Render(truncate(line, max(20, m.width))))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("a all levels · R reload · any key close"))
	return b.String()
}
