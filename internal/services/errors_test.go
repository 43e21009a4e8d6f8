package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/desertthunder/songpick/internal/shared"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"Unauthorized", &googleapi.Error{Code: http.StatusUnauthorized}, shared.ErrAuthExpired},
		{"Forbidden", &googleapi.Error{Code: http.StatusForbidden}, shared.ErrAuthExpired},
		{"Not Found", &googleapi.Error{Code: http.StatusNotFound}, shared.ErrNotFound},
		{"Server Error", &googleapi.Error{Code: http.StatusInternalServerError}, shared.ErrUpstream},
		{"Quota", &googleapi.Error{Code: http.StatusTooManyRequests}, shared.ErrUpstream},
		{"Wrapped API Error", fmt.Errorf("call: %w", &googleapi.Error{Code: http.StatusForbidden}), shared.ErrAuthExpired},
		{"Token Endpoint Rejection", &oauth2.RetrieveError{Response: &http.Response{StatusCode: 400}}, shared.ErrRefreshFailed},
		{"Transport Failure", errors.New("connection reset"), shared.ErrUpstream},
		{"Already Classified", shared.ErrVideoNotFound, shared.ErrVideoNotFound},
		{"Context Canceled", context.Canceled, context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	t.Run("Nil", func(t *testing.T) {
		if err := Classify(nil); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("Keeps Original Error", func(t *testing.T) {
		orig := &googleapi.Error{Code: http.StatusForbidden, Message: "insufficient scopes"}
		var apiErr *googleapi.Error
		if !errors.As(Classify(orig), &apiErr) || apiErr.Message != "insufficient scopes" {
			t.Error("expected the googleapi error to remain reachable")
		}
	})

	t.Run("Maps To Wire Codes", func(t *testing.T) {
		codes := map[int]string{
			http.StatusUnauthorized:       "TOKEN_EXPIRED",
			http.StatusForbidden:          "TOKEN_EXPIRED",
			http.StatusNotFound:           "NOT_FOUND",
			http.StatusServiceUnavailable: "UPSTREAM_ERROR",
		}
		for status, code := range codes {
			if got := shared.Kind(Classify(&googleapi.Error{Code: status})).Code; got != code {
				t.Errorf("status %d: expected %s, got %s", status, code, got)
			}
		}
	})
}
