package models

import "strings"

type TaskStatus string

const (
	TaskStatusPending  TaskStatus = "pending"
	TaskStatusRunning  TaskStatus = "running"
	TaskStatusSuccess  TaskStatus = "success"
	TaskStatusFailed   TaskStatus = "failed"
	TaskStatusCanceled TaskStatus = "canceled"
)

type TaskID string

type AnalysisID string

// ParseTaskStatus maps a wire status to a TaskStatus. It reports false for empty or unknown values.
func ParseTaskStatus(raw string) (TaskStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PENDING":
		return TaskStatusPending, true
	case "IN_PROGRESS", "RUNNING":
		return TaskStatusRunning, true
	case "SUCCESS":
		return TaskStatusSuccess, true
	case "FAILED":
		return TaskStatusFailed, true
	case "CANCELED", "CANCELLED":
		return TaskStatusCanceled, true
	default:
		return "", false
	}
}

// IsTerminal reports whether no further transition can happen from this status.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusSuccess || s == TaskStatusFailed || s == TaskStatusCanceled
}

type Task struct {
	ID           TaskID     `json:"id"`
	Status       TaskStatus `json:"status"`
	AnalysisID   AnalysisID `json:"analysis_id,omitempty"`
	ComponentKey string     `json:"component_key,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// TaskPayload is the task object as returned by the compute engine endpoint.
type TaskPayload struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	AnalysisID   string `json:"analysisId"`
	ComponentKey string `json:"componentKey"`
	ErrorMessage string `json:"errorMessage"`
}

// TaskResponse accepts both the wrapped {"task":{...}} body and a flat task object.
type TaskResponse struct {
	Task *TaskPayload `json:"task"`
	TaskPayload
}

// Payload returns the wrapped task when present, the flat one otherwise.
func (r TaskResponse) Payload() TaskPayload {
	if r.Task != nil {
		return *r.Task
	}
	return r.TaskPayload
}
