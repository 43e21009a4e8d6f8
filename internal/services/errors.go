package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/songpick/internal/shared"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// Classify maps an error from a Google API call onto the shared taxonomy.
//
// 401 and 403 become [shared.ErrAuthExpired] whichever API returned them, 404 becomes [shared.ErrNotFound] and
// anything else [shared.ErrUpstream]. Errors that are already classified, and context errors, pass through.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	for _, known := range []error{
		shared.ErrAuthRequired, shared.ErrAuthExpired, shared.ErrInvalidInput,
		shared.ErrNotFound, shared.ErrUpstream, shared.ErrConfiguration,
		context.Canceled, context.DeadlineExceeded,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w", shared.ErrAuthExpired, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", shared.ErrNotFound, err)
		}
		return fmt.Errorf("%w: %w", shared.ErrUpstream, err)
	}

	// A rejected refresh inside the transport surfaces as a RetrieveError.
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	return fmt.Errorf("%w: %w", shared.ErrUpstream, err)
}
