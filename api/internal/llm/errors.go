package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResponse is returned when the upstream call succeeded but carried no text.
	ErrEmptyResponse = errors.New("upstream returned no text")
	ErrMissingAPIKey = errors.New("upstream api key is empty")
)

// UpstreamServiceError is a non-success HTTP reply from the upstream service.
type UpstreamServiceError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamServiceError) Error() string {
	return fmt.Sprintf("%s upstream error: %d - %s", e.Provider, e.Status, e.Body)
}
