package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelsos/sonar-gate/internal/client"
	"github.com/kelsos/sonar-gate/internal/config"
	"github.com/kelsos/sonar-gate/internal/gate"
	"github.com/kelsos/sonar-gate/internal/logger"
	"github.com/kelsos/sonar-gate/internal/models"
	"github.com/kelsos/sonar-gate/internal/scanner"
)

// Hooks lets a caller follow the progress of a run. Any field may be nil.
type Hooks struct {
	OnAttempt func(attempt, maxAttempts int, task models.Task)
	OnGate    func(result models.GateResult)
	OnIssues  func(issues []models.Issue)
}

// GateService runs the whole check: wait for the task, read the verdict, explain a failure
type GateService struct {
	config *config.Config
	gate   *gate.Gate
	hooks  Hooks
}

// NewGateService creates a new gate service with all dependencies
func NewGateService(cfg *config.Config) *GateService {
	return &GateService{
		config: cfg,
		gate:   gate.NewGate(client.NewAPIClient(cfg)),
	}
}

// SetHooks registers progress callbacks
func (s *GateService) SetHooks(hooks Hooks) {
	s.hooks = hooks
}

// GetConfig returns the current configuration
func (s *GateService) GetConfig() *config.Config {
	return s.config
}

// ResolveTaskID returns the explicit task id when given, otherwise the one from the scanner's
// report-task file. A project key found in the file fills an unset config value.
func (s *GateService) ResolveTaskID(explicit string) (models.TaskID, error) {
	if explicit != "" {
		return models.TaskID(explicit), nil
	}

	if s.config.ReportTaskFile == "" {
		return "", fmt.Errorf("no task id given and no report task file configured")
	}

	reportTask, err := scanner.ReadReportTask(s.config.ReportTaskFile)
	if err != nil {
		return "", err
	}

	if s.config.ProjectKey == "" {
		s.config.ProjectKey = reportTask.ProjectKey
	}

	logger.Info("Using task %s from %s", reportTask.TaskID, s.config.ReportTaskFile)
	if reportTask.DashboardURL != "" {
		logger.Info("Dashboard: %s", reportTask.DashboardURL)
	}

	return reportTask.TaskID, nil
}

// Run waits for the task and checks its quality gate. The returned outcome is never nil; the
// error is non-nil unless the verdict is a pass.
func (s *GateService) Run(taskID models.TaskID) (*models.Outcome, error) {
	start := time.Now()
	outcome := &models.Outcome{}

	err := s.run(taskID, outcome)

	outcome.Elapsed = models.Duration(time.Since(start))
	outcome.FinishedAt = time.Now()
	if err != nil {
		outcome.Error = err.Error()
	}

	return outcome, err
}

func (s *GateService) run(taskID models.TaskID, outcome *models.Outcome) error {
	logger.Info("Waiting for analysis task %s (max %d attempts, every %v)",
		taskID, s.config.MaxAttempts, s.config.PollInterval)

	s.gate.OnAttempt(func(attempt, maxAttempts int, task models.Task) {
		outcome.Attempts = attempt
		if s.hooks.OnAttempt != nil {
			s.hooks.OnAttempt(attempt, maxAttempts, task)
		}
	})

	task, err := s.gate.AwaitCompletion(taskID, s.config.MaxAttempts, s.config.PollInterval)
	outcome.Task = task
	if err != nil {
		return err
	}

	if task.AnalysisID == "" {
		return fmt.Errorf("task %s: %w", taskID, gate.ErrMissingAnalysis)
	}

	result, err := s.gate.FetchGateResult(task.AnalysisID)
	if err != nil {
		return err
	}
	outcome.Gate = result
	if s.hooks.OnGate != nil {
		s.hooks.OnGate(*result)
	}

	if result.Verdict == models.VerdictPass {
		logger.Info("Quality gate passed for analysis %s", result.AnalysisID)
		return nil
	}

	logger.Error("Quality gate status is %s for analysis %s", result.RawStatus, result.AnalysisID)
	for _, c := range result.FailedConditions() {
		logger.Error("Condition failed: %s %s %s (actual: %s)", c.MetricKey, c.Comparator, c.ErrorThreshold, c.ActualValue)
	}

	outcome.Issues = s.collectIssues(task)

	return fmt.Errorf("%w: status %s", gate.ErrGateFailed, result.RawStatus)
}

// collectIssues is diagnostic only; failures are logged and never change the outcome
func (s *GateService) collectIssues(task *models.Task) []models.Issue {
	projectKey := s.config.ProjectKey
	if projectKey == "" {
		projectKey = task.ComponentKey
	}
	if projectKey == "" {
		logger.Warn("No project key known, skipping issue listing")
		return nil
	}

	issues, err := s.gate.FetchIssues(projectKey, s.config.PageSize)
	if err != nil {
		logger.Warn("Failed to fetch issues for %s: %v", projectKey, err)
		return nil
	}

	LogIssues(issues)
	if s.hooks.OnIssues != nil {
		s.hooks.OnIssues(issues)
	}

	return issues
}

// FetchGateResult fetches a single gate verdict
func (s *GateService) FetchGateResult(analysisID models.AnalysisID) (*models.GateResult, error) {
	return s.gate.FetchGateResult(analysisID)
}

// FetchIssues lists unresolved issues for a project
func (s *GateService) FetchIssues(projectKey string) ([]models.Issue, error) {
	return s.gate.FetchIssues(projectKey, s.config.PageSize)
}

// LogIssues prints issues one per line
func LogIssues(issues []models.Issue) {
	logger.Info("Found %d open issue(s)", len(issues))
	for _, issue := range issues {
		if issue.Component == "" {
			logger.Warn("%s", issue.Message)
			continue
		}
		logger.Warn("%s %s", issue.Location(), issue.Message)
	}
}

// IsGateFailure reports whether err means the analysis completed but did not pass
func IsGateFailure(err error) bool {
	return errors.Is(err, gate.ErrGateFailed)
}
