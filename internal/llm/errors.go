package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAgent marks any failure to obtain a reply from the language model.
	ErrAgent = errors.New("agent failure")

	// ErrFatalAPI indicates a non-retryable API error such as exhausted
	// credits, bad credentials or quota limits.
	ErrFatalAPI = errors.New("fatal API error")

	// ErrEmptyReply is returned when the model answers with no text.
	ErrEmptyReply = errors.New("empty reply")
)

var fatalPatterns = []string{
	"credit balance",
	"rate limit",
	"quota exceeded",
	"billing",
	"invalid api key",
	"invalid x-api-key",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

// isFatalAPIError reports whether err looks like a credential or quota
// problem that retrying would not fix.
func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range fatalPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// wrapFatalError wraps err with ErrFatalAPI when it is fatal and returns it
// unchanged otherwise.
func wrapFatalError(err error) error {
	if isFatalAPIError(err) {
		return fmt.Errorf("%w: %w", ErrFatalAPI, err)
	}
	return err
}
