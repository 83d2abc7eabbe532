package services

import (
	"errors"
	"fmt"
	"net/http"

	"daylist/internal/shared"

	"google.golang.org/api/googleapi"
)

// quota reasons the Data API reports on 403 responses. quotaExceeded and
// dailyLimitExceeded are fatal for the run; the rate-limit reasons clear on
// their own and are retried.
var fatalQuotaReasons = map[string]bool{
	"quotaExceeded":      true,
	"dailyLimitExceeded": true,
}

var transientReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"backendError":          true,
}

// ClassifyError maps a Data API error onto the shared error taxonomy so
// callers can wrap sentinel errors with errors.Is.
//
// Authorization failures and exhausted quota are fatal; rate limits and
// server-side failures are transient and safe to retry.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		// Network-level failures (timeouts, connection resets) are transient.
		return fmt.Errorf("%w: %v", shared.ErrTransientAPI, err)
	}

	switch {
	case gerr.Code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, gerr)
	case gerr.Code == http.StatusForbidden:
		// Fatal quota reasons win over transient ones when both appear.
		for _, item := range gerr.Errors {
			if fatalQuotaReasons[item.Reason] {
				return fmt.Errorf("%w: %v", shared.ErrQuotaExceeded, gerr)
			}
		}
		for _, item := range gerr.Errors {
			if transientReasons[item.Reason] {
				return fmt.Errorf("%w: %v", shared.ErrTransientAPI, gerr)
			}
		}
		// A 403 without a recognized reason is an authorization problem.
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, gerr)
	case gerr.Code == http.StatusNotFound:
		return fmt.Errorf("%w: %v", shared.ErrPlaylistNotFound, gerr)
	case gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500:
		return fmt.Errorf("%w: %v", shared.ErrTransientAPI, gerr)
	default:
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, gerr)
	}
}
