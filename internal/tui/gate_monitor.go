package tui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kelsos/sonar-gate/internal/logger"
	"github.com/kelsos/sonar-gate/internal/models"
	"github.com/kelsos/sonar-gate/internal/services"
)

// ErrMonitorClosed is returned when the monitor is quit before the check finished
var ErrMonitorClosed = errors.New("monitor closed before the gate check finished")

type runResult struct {
	outcome *models.Outcome
	err     error
}

type GateMonitor struct {
	gateService *services.GateService
	program     *tea.Program
	lingerDelay time.Duration
}

func NewGateMonitor(gateService *services.GateService) *GateMonitor {
	return &GateMonitor{
		gateService: gateService,
		lingerDelay: 2 * time.Second,
	}
}

func (gm *GateMonitor) Start(taskID models.TaskID, opts ...tea.ProgramOption) {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	gm.program = tea.NewProgram(NewModel(taskID), opts...)

	gm.gateService.SetHooks(services.Hooks{
		OnAttempt: func(attempt, maxAttempts int, task models.Task) {
			gm.send(PollUpdate{Attempt: attempt, MaxAttempts: maxAttempts, Task: task})
			gm.AddLog(fmt.Sprintf("Attempt %d/%d: task is %s", attempt, maxAttempts, task.Status))
		},
		OnGate: func(result models.GateResult) {
			gm.send(GateUpdate{Result: result})
			gm.AddLog(fmt.Sprintf("Quality gate status: %s", result.RawStatus))
		},
		OnIssues: func(issues []models.Issue) {
			gm.send(IssuesLoaded{Issues: issues})
			gm.AddLog(fmt.Sprintf("Loaded %d open issue(s)", len(issues)))
		},
	})
}

func (gm *GateMonitor) Stop() {
	if gm.program != nil {
		gm.program.Quit()
	}
}

func (gm *GateMonitor) AddLog(message string) {
	gm.send(LogMessage{Message: message})
}

func (gm *GateMonitor) send(msg tea.Msg) {
	if gm.program != nil {
		gm.program.Send(msg)
	}
}

// Run executes the gate check while the TUI renders its progress. It blocks until both are done.
func (gm *GateMonitor) Run(taskID models.TaskID) (*models.Outcome, error) {
	if gm.program == nil {
		gm.Start(taskID)
	}

	done := make(chan runResult, 1)
	go func() {
		outcome, err := gm.gateService.Run(taskID)
		if err != nil {
			gm.AddLog(fmt.Sprintf("❌ %v", err))
		} else {
			gm.AddLog("✅ Quality gate passed")
		}
		gm.send(RunFinished{Err: err})
		done <- runResult{outcome: outcome, err: err}

		// Leave the final state on screen for a moment
		time.Sleep(gm.lingerDelay)
		gm.Stop()
	}()

	if _, err := gm.program.Run(); err != nil {
		return nil, fmt.Errorf("failed to run TUI: %w", err)
	}

	select {
	case result := <-done:
		return result.outcome, result.err
	default:
		logger.Warn("Monitor closed while task %s was still being checked", taskID)
		return nil, ErrMonitorClosed
	}
}
