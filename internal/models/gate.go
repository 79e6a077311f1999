package models

import "strings"

type Verdict string

const (
	VerdictPass  Verdict = "pass"
	VerdictFail  Verdict = "fail"
	VerdictOther Verdict = "other"
)

// ParseVerdict maps a gate status to a Verdict. It reports false when the status is empty.
func ParseVerdict(raw string) (Verdict, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return "", false
	case "OK":
		return VerdictPass, true
	case "ERROR":
		return VerdictFail, true
	default:
		return VerdictOther, true
	}
}

type GateCondition struct {
	Status         string `json:"status"`
	MetricKey      string `json:"metricKey"`
	Comparator     string `json:"comparator"`
	ErrorThreshold string `json:"errorThreshold"`
	ActualValue    string `json:"actualValue"`
}

type GateResult struct {
	AnalysisID AnalysisID      `json:"analysis_id"`
	Verdict    Verdict         `json:"verdict"`
	RawStatus  string          `json:"raw_status"`
	Conditions []GateCondition `json:"conditions,omitempty"`
}

// FailedConditions returns the conditions that did not pass.
func (g *GateResult) FailedConditions() []GateCondition {
	var failed []GateCondition
	for _, c := range g.Conditions {
		if c.Status != "" && !strings.EqualFold(c.Status, "OK") {
			failed = append(failed, c)
		}
	}
	return failed
}

type ProjectStatusPayload struct {
	Status     string          `json:"status"`
	Conditions []GateCondition `json:"conditions"`
}

// ProjectStatusResponse accepts both {"projectStatus":{...}} and a flat {"status":...} body.
type ProjectStatusResponse struct {
	ProjectStatus *ProjectStatusPayload `json:"projectStatus"`
	ProjectStatusPayload
}

func (r ProjectStatusResponse) Payload() ProjectStatusPayload {
	if r.ProjectStatus != nil {
		return *r.ProjectStatus
	}
	return r.ProjectStatusPayload
}
