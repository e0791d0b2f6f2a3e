package providers

import "strings"

type ErrorType string

const (
	ErrorRate      ErrorType = "rate"
	ErrorQuota     ErrorType = "quota"
	ErrorBlocked   ErrorType = "blocked"
	ErrorContext   ErrorType = "context"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
)

func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "429"), strings.Contains(e, "rate"), strings.Contains(e, "resource_exhausted"), strings.Contains(e, "resource exhausted"):
		return ErrorRate
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "blocked"), strings.Contains(e, "safety"), strings.Contains(e, "prohibited"):
		return ErrorBlocked
	case strings.Contains(e, "context"), strings.Contains(e, "too long"):
		return ErrorContext
	case strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}

// Retryable reports whether an error class should be retried with backoff.
// Only rate limiting qualifies; everything else fails the unit of work on the
// first attempt.
func Retryable(t ErrorType) bool {
	return t == ErrorRate
}
