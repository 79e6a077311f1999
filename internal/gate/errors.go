package gate

import (
	"errors"
	"fmt"

	"github.com/kelsos/sonar-gate/internal/client"
)

var (
	ErrPollTimeout       = errors.New("poll timeout")
	ErrTaskFailed        = errors.New("task failed")
	ErrMalformedResponse = client.ErrMalformedResponse
	ErrNetwork           = client.ErrNetwork
	ErrGateFailed        = errors.New("quality gate not passed")
	ErrInvalidArgument   = errors.New("invalid argument")

	// ErrMissingAnalysis is a malformed response: a successful task must expose its analysis id.
	ErrMissingAnalysis = fmt.Errorf("%w: missing analysis id", ErrMalformedResponse)
)
