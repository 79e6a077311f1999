package scanner

import (
	"fmt"

	"github.com/joho/godotenv"

	"github.com/kelsos/sonar-gate/internal/models"
)

// ReportTask is the metadata the scanner writes after submitting an analysis
type ReportTask struct {
	ProjectKey   string
	ServerURL    string
	DashboardURL string
	TaskID       models.TaskID
	TaskURL      string
}

// ReadReportTask reads a report-task.txt file. The file is a list of key=value lines.
func ReadReportTask(path string) (*ReportTask, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report task file %s: %w", path, err)
	}

	task := &ReportTask{
		ProjectKey:   values["projectKey"],
		ServerURL:    values["serverUrl"],
		DashboardURL: values["dashboardUrl"],
		TaskID:       models.TaskID(values["ceTaskId"]),
		TaskURL:      values["ceTaskUrl"],
	}

	if task.TaskID == "" {
		return nil, fmt.Errorf("report task file %s has no ceTaskId", path)
	}

	return task, nil
}
