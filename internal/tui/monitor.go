package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kelsos/sonar-gate/internal/models"
)

const maxLogLines = 10

type PollUpdate struct {
	Attempt     int
	MaxAttempts int
	Task        models.Task
}

type GateUpdate struct {
	Result models.GateResult
}

type IssuesLoaded struct {
	Issues []models.Issue
}

type LogMessage struct {
	Message string
}

type RunFinished struct {
	Err error
}

type Model struct {
	taskID      models.TaskID
	attempt     int
	maxAttempts int
	status      models.TaskStatus
	gate        *models.GateResult
	issues      []models.Issue
	logs        []string
	spinner     spinner.Model
	progress    progress.Model
	width       int
	height      int
	startTime   time.Time
	finished    bool
	err         error
	quit        bool
}

func NewModel(taskID models.TaskID) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	pr := progress.New(progress.WithDefaultGradient())

	return Model{
		taskID:    taskID,
		status:    models.TaskStatusPending,
		logs:      []string{},
		spinner:   sp,
		progress:  pr,
		width:     80,
		height:    24,
		startTime: time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.handleKeyMsg(msg) {
			m.quit = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m = m.handleWindowSizeMsg(msg)

	case PollUpdate:
		m = m.handlePollUpdate(msg)

	case GateUpdate:
		result := msg.Result
		m.gate = &result

	case IssuesLoaded:
		m.issues = msg.Issues

	case LogMessage:
		m = m.handleLogMessage(msg)

	case RunFinished:
		m.finished = true
		m.err = msg.Err

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		if progressModel, ok := progressModel.(progress.Model); ok {
			m.progress = progressModel
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return true
	}
	return false
}

func (m Model) handleWindowSizeMsg(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.progress.Width = msg.Width - 40
	return m
}

func (m Model) handlePollUpdate(msg PollUpdate) Model {
	m.attempt = msg.Attempt
	m.maxAttempts = msg.MaxAttempts
	m.status = msg.Task.Status
	return m
}

func (m Model) handleLogMessage(msg LogMessage) Model {
	m.logs = append(m.logs, fmt.Sprintf("[%s] %s",
		time.Now().Format("15:04:05"), msg.Message))
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	return m
}

// pollProgress is the share of the attempt budget used so far
func (m Model) pollProgress() float64 {
	if m.maxAttempts == 0 {
		return 0
	}
	return float64(m.attempt) / float64(m.maxAttempts)
}

func (m Model) View() string {
	if m.quit {
		return "Shutting down...\n"
	}

	var s strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginBottom(1)

	s.WriteString(headerStyle.Render("🚦 Quality Gate Monitor"))
	s.WriteString("\n\n")

	summaryStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))

	summary := fmt.Sprintf("Task: %s | Attempt: %d/%d | Elapsed: %s",
		m.taskID, m.attempt, m.maxAttempts, time.Since(m.startTime).Truncate(time.Second))
	s.WriteString(summaryStyle.Render(summary))
	s.WriteString("\n\n")

	sectionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1).
		Width(m.width - 2)

	var status strings.Builder
	status.WriteString("📊 Analysis Status\n")
	status.WriteString(strings.Repeat("─", 60) + "\n")

	statusLine := fmt.Sprintf("%s %-10s", getStatusIcon(m.status), m.status)
	if !m.status.IsTerminal() && !m.finished {
		statusLine += " " + m.spinner.View() + " " + m.progress.ViewAs(m.pollProgress())
	}
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(getStatusColor(m.status)))
	status.WriteString(statusStyle.Render(statusLine) + "\n")

	if m.gate != nil {
		verdictStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(getVerdictColor(m.gate.Verdict)))
		status.WriteString(verdictStyle.Render(fmt.Sprintf("Quality gate: %s", m.gate.RawStatus)) + "\n")
		for _, c := range m.gate.FailedConditions() {
			status.WriteString(fmt.Sprintf("  ✗ %s %s %s (actual %s)\n",
				c.MetricKey, c.Comparator, c.ErrorThreshold, c.ActualValue))
		}
	}

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		status.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	}

	s.WriteString(sectionStyle.Render(status.String()))
	s.WriteString("\n\n")

	if len(m.issues) > 0 {
		var issues strings.Builder
		issues.WriteString(fmt.Sprintf("🐞 Open Issues (%d)\n", len(m.issues)))
		for _, issue := range m.issues {
			issues.WriteString(fmt.Sprintf("%s %s\n", truncate(issue.Location(), 40), issue.Message))
		}
		s.WriteString(sectionStyle.Render(issues.String()))
		s.WriteString("\n\n")
	}

	logSectionStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(m.width - 2).
		Height(8)

	var logSection strings.Builder
	logSection.WriteString("📝 Recent Logs\n")
	for _, log := range m.logs {
		logSection.WriteString(log + "\n")
	}

	s.WriteString(logSectionStyle.Render(logSection.String()))
	s.WriteString("\n\n")

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	footer := "Press 'q' to quit | Logs: ~/.sonar-gate/logs/sonar-gate.log"
	if m.finished {
		footer = "Done. Press 'q' to exit | Logs: ~/.sonar-gate/logs/sonar-gate.log"
	}
	s.WriteString(footerStyle.Render(footer))

	return s.String()
}

func getStatusIcon(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusPending:
		return "⏸"
	case models.TaskStatusRunning:
		return "🔄"
	case models.TaskStatusSuccess:
		return "✅"
	case models.TaskStatusFailed:
		return "❌"
	case models.TaskStatusCanceled:
		return "🚫"
	default:
		return "❓"
	}
}

func getStatusColor(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusPending:
		return "244"
	case models.TaskStatusSuccess:
		return "82"
	case models.TaskStatusFailed, models.TaskStatusCanceled:
		return "196"
	default:
		return "39"
	}
}

func getVerdictColor(verdict models.Verdict) string {
	switch verdict {
	case models.VerdictPass:
		return "82"
	case models.VerdictFail:
		return "196"
	default:
		return "214"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
