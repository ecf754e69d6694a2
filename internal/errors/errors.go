package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrAPIKeyMissing  = errors.New("youtube api key not configured")
	ErrQuotaExceeded  = errors.New("youtube api quota exceeded")
	ErrRateLimited    = errors.New("rate limited")
	ErrInvalidVideoID = errors.New("invalid video id")
	ErrEngineNotFound = errors.New("playback engine not found")
	ErrEngineNotReady = errors.New("playback engine not ready")
	ErrNetworkError   = errors.New("network error")
	ErrTimeout        = errors.New("request timeout")
	ErrConfigNotFound = errors.New("config file not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// StrumError wraps an error with a user-friendly suggestion.
type StrumError struct {
	Err        error
	Suggestion string
}

func (e *StrumError) Error() string {
	return e.Err.Error()
}

func (e *StrumError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &StrumError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var strumErr *StrumError
	if errors.As(err, &strumErr) && strumErr.Suggestion != "" {
		return strumErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrAPIKeyMissing) || strings.Contains(errStr, "api key") {
		return "Set youtube.api_key in ~/.strumrc or export STRUM_YOUTUBE_API_KEY"
	}

	if errors.Is(err, ErrQuotaExceeded) || strings.Contains(errStr, "quota") {
		return "The daily YouTube API quota is exhausted. Results will be empty until it resets"
	}

	if errors.Is(err, ErrRateLimited) || strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") {
		return "Too many requests. Wait a moment and try again"
	}

	if errors.Is(err, ErrInvalidVideoID) {
		return "The track has a malformed video id. Try another search result"
	}

	if errors.Is(err, ErrEngineNotFound) || strings.Contains(errStr, "executable file not found") {
		return "Install mpv and yt-dlp and make sure they are on your PATH"
	}

	if errors.Is(err, ErrEngineNotReady) {
		return "The player is still starting up. Try again in a moment"
	}

	if errors.Is(err, ErrNetworkError) || errors.Is(err, ErrTimeout) ||
		strings.Contains(errStr, "network") || strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") {
		return "Check your internet connection and try again"
	}

	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) ||
		strings.Contains(errStr, "config") {
		return "Run 'strum config show' to inspect your configuration"
	}

	if strings.Contains(errStr, "500") || strings.Contains(errStr, "server error") {
		return "YouTube is having issues. Try again in a moment"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(p.Errors)))
	for i, err := range p.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}
