package llm

import (
	"context"
	"errors"
	"fmt"
)

// Completer produces text for a prompt. The HTTP client and the Gemini
// client both implement it; callers never care which one they hold.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// TransportError covers request failures and HTTP error statuses, the
// cases where a retry can help. Status is 0 for network-level failures.
type TransportError struct {
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm: status=%d url=%s body=%s", e.Status, e.URL, e.Body)
	}
	return fmt.Sprintf("llm: request %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError means the endpoint answered but the payload held no usable
// text. Retrying would only fetch the same answer.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "llm: " + e.Reason }

// ErrPerplexityUnavailable marks a perplexity score that could not be
// computed. Callers omit the metric instead of failing the run.
var ErrPerplexityUnavailable = errors.New("perplexity unavailable")
