package insight

import "errors"

var (
	// ErrMissingUserID is returned when a request carries no user identifier.
	ErrMissingUserID = errors.New("userId is required")

	// Generators report these conditions so the cache can degrade instead of failing.
	ErrGeneratorUnavailable = errors.New("text generator is not configured")
	ErrQuotaExceeded        = errors.New("text generator quota exceeded")
	ErrEmptyGeneration      = errors.New("text generator returned no content")
)

// Fallback identifies which degraded-mode message was returned in place of a
// generated insight. The zero value means the text is a real insight.
type Fallback string

const (
	FallbackUnavailable Fallback = "unavailable"
	FallbackQuota       Fallback = "quota_exceeded"
	FallbackEmpty       Fallback = "empty"
)

const (
	UnavailableText = "AI insights are currently unavailable. Please check your OpenAI API configuration."
	QuotaText       = "AI insights are temporarily unavailable because the usage limit has been reached. Please try again later."
	EmptyText       = "Unable to generate insights."
)

func (f Fallback) Text() string {
	switch f {
	case FallbackUnavailable:
		return UnavailableText
	case FallbackQuota:
		return QuotaText
	case FallbackEmpty:
		return EmptyText
	}
	return ""
}
