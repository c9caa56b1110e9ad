// Package domain defines the external image engines used by generation jobs.
package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Generator restyles a source image according to a prompt.
type Generator interface {
	Generate(ctx context.Context, image []byte, mimeType string, prompt string) ([]byte, string, error)
}

// Upscaler enlarges an image into the requested output format.
type Upscaler interface {
	// Configured is false when no credentials are set.
	Configured() bool
	Upscale(ctx context.Context, image []byte, format string) ([]byte, string, error)
}

var (
	ErrNotConfigured  = errors.New("engine_not_configured")
	ErrUnavailable    = errors.New("engine_unavailable")
	ErrRateLimited    = errors.New("engine_rate_limited")
	ErrAuthFailed     = errors.New("engine_auth_failed")
	ErrInvalidRequest = errors.New("engine_invalid_request")
	ErrNoImage        = errors.New("engine_returned_no_image")
)

// MapHTTPError turns a non-2xx response into an engine error and closes the body.
func MapHTTPError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthFailed
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, string(body))
	default:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
}
