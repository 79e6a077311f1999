package models

// APIError is a single entry of the error envelope the analysis host returns on non-200 responses.
type APIError struct {
	Msg string `json:"msg"`
}

type ErrorResponse struct {
	Errors []APIError `json:"errors"`
}
