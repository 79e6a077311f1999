package services

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsos/sonar-gate/internal/config"
	"github.com/kelsos/sonar-gate/internal/gate"
	"github.com/kelsos/sonar-gate/internal/models"
)

type hostResponses struct {
	task   string
	gate   string
	issues string
}

func newTestService(t *testing.T, responses hostResponses) (*GateService, *[]string) {
	t.Helper()
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/api/ce/task":
			_, _ = w.Write([]byte(responses.task))
		case "/api/qualitygates/project_status":
			_, _ = w.Write([]byte(responses.gate))
		case "/api/issues/search":
			if responses.issues == "" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(responses.issues))
		}
	}))
	t.Cleanup(server.Close)

	cfg := config.NewConfig()
	cfg.HostURL = server.URL
	cfg.MaxAttempts = 2
	cfg.PollInterval = 0

	return NewGateService(cfg), &paths
}

func TestRun_PassingGate(t *testing.T) {
	svc, paths := newTestService(t, hostResponses{
		task: `{"task":{"id":"AX1","status":"SUCCESS","analysisId":"AN1","componentKey":"app"}}`,
		gate: `{"projectStatus":{"status":"OK"}}`,
	})

	var gateSeen *models.GateResult
	svc.SetHooks(Hooks{OnGate: func(result models.GateResult) { gateSeen = &result }})

	outcome, err := svc.Run("AX1")
	require.NoError(t, err)

	assert.True(t, outcome.Passed())
	assert.Equal(t, 1, outcome.Attempts)
	require.NotNil(t, gateSeen)
	assert.Equal(t, models.VerdictPass, gateSeen.Verdict)
	assert.NotContains(t, *paths, "/api/issues/search")
}

func TestRun_FailingGateFetchesIssues(t *testing.T) {
	svc, _ := newTestService(t, hostResponses{
		task:   `{"task":{"id":"AX1","status":"SUCCESS","analysisId":"AN1","componentKey":"app"}}`,
		gate:   `{"status":"ERROR"}`,
		issues: `{"issues":[{"component":"app:a.go","line":3,"message":"Fix me"}]}`,
	})

	var issuesSeen []models.Issue
	svc.SetHooks(Hooks{OnIssues: func(issues []models.Issue) { issuesSeen = issues }})

	outcome, err := svc.Run("AX1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, gate.ErrGateFailed))
	assert.True(t, IsGateFailure(err))
	assert.False(t, outcome.Passed())
	require.Len(t, outcome.Issues, 1)
	assert.Equal(t, "Fix me", outcome.Issues[0].Message)
	assert.Equal(t, outcome.Issues, issuesSeen)
	assert.Equal(t, err.Error(), outcome.Error)
}

func TestRun_IssueFetchFailureKeepsGateFailure(t *testing.T) {
	svc, _ := newTestService(t, hostResponses{
		task: `{"task":{"status":"SUCCESS","analysisId":"AN1","componentKey":"app"}}`,
		gate: `{"status":"WARN"}`,
	})

	outcome, err := svc.Run("AX1")

	assert.True(t, errors.Is(err, gate.ErrGateFailed))
	assert.Empty(t, outcome.Issues)
	assert.Equal(t, models.VerdictOther, outcome.Gate.Verdict)
}

func TestRun_MissingAnalysisID(t *testing.T) {
	svc, paths := newTestService(t, hostResponses{
		task: `{"task":{"status":"SUCCESS"}}`,
	})

	_, err := svc.Run("AX1")

	assert.True(t, errors.Is(err, gate.ErrMissingAnalysis))
	assert.True(t, errors.Is(err, gate.ErrMalformedResponse))
	assert.NotContains(t, *paths, "/api/qualitygates/project_status")
}

func TestRun_TimeoutRecordsAttempts(t *testing.T) {
	svc, _ := newTestService(t, hostResponses{task: `{"task":{"status":"PENDING"}}`})

	outcome, err := svc.Run("AX1")

	assert.True(t, errors.Is(err, gate.ErrPollTimeout))
	assert.Equal(t, 2, outcome.Attempts)
	assert.Nil(t, outcome.Gate)
}

func TestResolveTaskID(t *testing.T) {
	svc, _ := newTestService(t, hostResponses{})

	id, err := svc.ResolveTaskID("EXPLICIT")
	require.NoError(t, err)
	assert.Equal(t, models.TaskID("EXPLICIT"), id)

	path := filepath.Join(t.TempDir(), "report-task.txt")
	require.NoError(t, os.WriteFile(path, []byte("projectKey=svc\nceTaskId=FROMFILE\n"), 0600))
	svc.GetConfig().ReportTaskFile = path

	id, err = svc.ResolveTaskID("")
	require.NoError(t, err)
	assert.Equal(t, models.TaskID("FROMFILE"), id)
	assert.Equal(t, "svc", svc.GetConfig().ProjectKey)
}

func TestResolveTaskID_NoSource(t *testing.T) {
	svc, _ := newTestService(t, hostResponses{})
	svc.GetConfig().ReportTaskFile = ""

	_, err := svc.ResolveTaskID("")
	assert.Error(t, err)
}
