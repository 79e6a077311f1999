package gate

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/kelsos/sonar-gate/internal/client"
	"github.com/kelsos/sonar-gate/internal/logger"
	"github.com/kelsos/sonar-gate/internal/models"
)

const (
	taskEndpoint          = "/api/ce/task"
	projectStatusEndpoint = "/api/qualitygates/project_status"
	issuesEndpoint        = "/api/issues/search"
)

// API is the subset of the analysis host client the gate needs
type API interface {
	Get(endpoint string, result interface{}) error
	GetRaw(endpoint string) ([]byte, error)
}

// AttemptFunc is called after every successfully parsed status fetch
type AttemptFunc func(attempt, maxAttempts int, task models.Task)

// Gate observes an analysis task until it is terminal and reads the verdict of its analysis.
// It keeps no state between calls.
type Gate struct {
	api       API
	sleep     func(time.Duration)
	onAttempt AttemptFunc
}

// NewGate creates a gate reading from the given API
func NewGate(api API) *Gate {
	return &Gate{
		api:   api,
		sleep: time.Sleep,
	}
}

// OnAttempt registers a callback invoked after each poll attempt
func (g *Gate) OnAttempt(fn AttemptFunc) {
	g.onAttempt = fn
}

// AwaitCompletion polls the task status up to maxAttempts times, sleeping pollInterval between
// attempts, and returns as soon as the task is terminal. A failed or canceled task is returned
// together with ErrTaskFailed.
func (g *Gate) AwaitCompletion(taskID models.TaskID, maxAttempts int, pollInterval time.Duration) (*models.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("%w: task id cannot be empty", ErrInvalidArgument)
	}
	if maxAttempts < 1 {
		return nil, fmt.Errorf("%w: max attempts must be at least 1, got %d", ErrInvalidArgument, maxAttempts)
	}
	if pollInterval < 0 {
		return nil, fmt.Errorf("%w: poll interval must be non-negative, got %v", ErrInvalidArgument, pollInterval)
	}

	var last *models.Task
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 && pollInterval > 0 {
			g.sleep(pollInterval)
		}

		task, err := g.FetchTask(taskID)
		if err != nil {
			return last, fmt.Errorf("attempt %d/%d for task %s: %w", attempt, maxAttempts, taskID, err)
		}
		last = task

		if g.onAttempt != nil {
			g.onAttempt(attempt, maxAttempts, *task)
		}

		switch task.Status {
		case models.TaskStatusSuccess:
			logger.Info("Task %s succeeded after %d attempt(s)", taskID, attempt)
			return task, nil
		case models.TaskStatusFailed, models.TaskStatusCanceled:
			if task.ErrorMessage != "" {
				return task, fmt.Errorf("%w: task %s is %s: %s", ErrTaskFailed, taskID, task.Status, task.ErrorMessage)
			}
			return task, fmt.Errorf("%w: task %s is %s", ErrTaskFailed, taskID, task.Status)
		}

		logger.Info("Task %s is %s (attempt %d/%d)", taskID, task.Status, attempt, maxAttempts)
	}

	return last, fmt.Errorf("%w: task %s did not finish after %d attempts (last status: %s)",
		ErrPollTimeout, taskID, maxAttempts, last.Status)
}

// FetchTask reads the current state of a task once
func (g *Gate) FetchTask(taskID models.TaskID) (*models.Task, error) {
	endpoint := taskEndpoint + "?id=" + url.QueryEscape(string(taskID))

	var response models.TaskResponse
	if err := g.api.Get(endpoint, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch task status: %w", err)
	}

	payload := response.Payload()
	status, ok := models.ParseTaskStatus(payload.Status)
	if !ok {
		return nil, fmt.Errorf("%w: task status %q is missing or unknown", ErrMalformedResponse, payload.Status)
	}

	id := models.TaskID(payload.ID)
	if id == "" {
		id = taskID
	}

	return &models.Task{
		ID:           id,
		Status:       status,
		AnalysisID:   models.AnalysisID(payload.AnalysisID),
		ComponentKey: payload.ComponentKey,
		ErrorMessage: payload.ErrorMessage,
	}, nil
}

// FetchGateResult queries the quality gate verdict of a finished analysis. It is not polled.
func (g *Gate) FetchGateResult(analysisID models.AnalysisID) (*models.GateResult, error) {
	if analysisID == "" {
		return nil, fmt.Errorf("%w: analysis id cannot be empty", ErrInvalidArgument)
	}

	endpoint := projectStatusEndpoint + "?analysisId=" + url.QueryEscape(string(analysisID))

	var response models.ProjectStatusResponse
	if err := g.api.Get(endpoint, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch quality gate status: %w", err)
	}

	payload := response.Payload()
	verdict, ok := models.ParseVerdict(payload.Status)
	if !ok {
		return nil, fmt.Errorf("%w: quality gate status is missing", ErrMalformedResponse)
	}

	logger.Debug("Quality gate for analysis %s is %s", analysisID, payload.Status)

	return &models.GateResult{
		AnalysisID: analysisID,
		Verdict:    verdict,
		RawStatus:  payload.Status,
		Conditions: payload.Conditions,
	}, nil
}

// FetchIssues lists unresolved issues of a project. Parsing is best-effort: a body that cannot be
// read as an issue list comes back as a single issue carrying the raw payload.
func (g *Gate) FetchIssues(projectKey string, pageSize int) ([]models.Issue, error) {
	if projectKey == "" {
		return nil, fmt.Errorf("%w: project key cannot be empty", ErrInvalidArgument)
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("%w: page size must be at least 1, got %d", ErrInvalidArgument, pageSize)
	}

	endpoint := client.BuildURLWithParams(issuesEndpoint, map[string]string{
		"componentKeys": projectKey,
		"ps":            strconv.Itoa(pageSize),
		"resolved":      "false",
	})

	body, err := g.api.GetRaw(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issues for %s: %w", projectKey, err)
	}

	issues, err := parseIssues(body)
	if err != nil {
		logger.Warn("Could not parse issues for %s: %v", projectKey, err)
		return []models.Issue{{Message: string(body)}}, nil
	}

	return issues, nil
}

func parseIssues(body []byte) ([]models.Issue, error) {
	var envelope struct {
		Issues json.RawMessage `json:"issues"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if envelope.Issues == nil {
		return nil, fmt.Errorf("issues field is missing")
	}

	var issues []models.Issue
	if err := json.Unmarshal(envelope.Issues, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}
