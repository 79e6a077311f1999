package models

import "fmt"

type Issue struct {
	Component string `json:"component"`
	Line      *int   `json:"line,omitempty"`
	Message   string `json:"message"`
	Severity  string `json:"severity,omitempty"`
	Rule      string `json:"rule,omitempty"`
}

// Location renders the issue position, using "?" when the line is unknown.
func (i Issue) Location() string {
	if i.Line == nil {
		return i.Component + ":?"
	}
	return fmt.Sprintf("%s:%d", i.Component, *i.Line)
}

type IssuesResponse struct {
	Total  int     `json:"total"`
	Issues []Issue `json:"issues"`
}
