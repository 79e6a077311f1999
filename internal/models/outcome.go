package models

import "time"

// Outcome summarises one gate run, whether it passed or not
type Outcome struct {
	Task       *Task       `json:"task,omitempty"`
	Gate       *GateResult `json:"gate,omitempty"`
	Issues     []Issue     `json:"issues,omitempty"`
	Attempts   int         `json:"attempts"`
	Elapsed    Duration    `json:"elapsed"`
	Error      string      `json:"error,omitempty"`
	FinishedAt time.Time   `json:"finished_at"`
}

// Passed reports whether the analysis finished and its gate verdict is a pass
func (o *Outcome) Passed() bool {
	return o.Error == "" && o.Gate != nil && o.Gate.Verdict == VerdictPass
}

// Duration marshals as a human readable string such as "1m30s"
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}
