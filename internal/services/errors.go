package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classifying every failure the command pipeline can surface.
// Callers branch with errors.Is; Wrap attaches component context while
// preserving the marker.
var (
	// ErrNoImage means the resolver exhausted every fallback without finding
	// an image to look up.
	ErrNoImage = errors.New("no image found")
	// ErrSelectionTimedOut means the disambiguation prompt expired before the
	// invoking user picked an attachment.
	ErrSelectionTimedOut = errors.New("selection timed out")
	// ErrGuildQuota means the guild exhausted its shared daily query quota.
	ErrGuildQuota = errors.New("guild quota exceeded")
	// ErrMemberQuota means the invoking user exhausted their personal quota.
	ErrMemberQuota = errors.New("member quota exceeded")
	// ErrBadKeyFormat means a submitted API key is not 40 alphanumerics.
	ErrBadKeyFormat = errors.New("malformed api key")
	// ErrAPIUnavailable means the credential test call failed outright.
	ErrAPIUnavailable = errors.New("identification api unavailable")
	// ErrFreeTierKey means a credential tested fine but is not enhanced tier.
	ErrFreeTierKey = errors.New("api key is not an enhanced account")
	// ErrShortLimit means the short-window remote rate limit was hit.
	ErrShortLimit = errors.New("short api limit reached")
	// ErrDailyLimit means the 24-hour remote rate limit was hit.
	ErrDailyLimit = errors.New("daily api limit reached")
	// ErrInvalidKey means the remote service rejected the credential.
	ErrInvalidKey = errors.New("invalid api key")
	// ErrInvalidImage means the remote service could not read the image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrServiceUnavailable covers any other remote failure.
	ErrServiceUnavailable = errors.New("identification service unavailable")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrServiceUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// DeletesCommandMessage reports whether the invoking message should be removed
// after the failure, so a stale trigger cannot be replayed against the quota.
func DeletesCommandMessage(err error) bool {
	switch {
	case errors.Is(err, ErrShortLimit),
		errors.Is(err, ErrDailyLimit),
		errors.Is(err, ErrInvalidKey),
		errors.Is(err, ErrInvalidImage),
		errors.Is(err, ErrServiceUnavailable):
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
