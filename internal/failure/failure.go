// Package failure defines the error taxonomy shared by the dialogue pipeline,
// the job aggregator and the provider adapters.
package failure

import (
	"errors"
	"fmt"
	"net/http"
)

// InvalidArgument reports a request that can not be served as given.
// It is always raised before any outbound call is made.
type InvalidArgument struct {
	Field   string
	Message string
}

func (e *InvalidArgument) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid argument: %s", e.Message)
	}
	return fmt.Sprintf("invalid argument: %s - %s", e.Field, e.Message)
}

// UpstreamError reports a non-2xx answer from an external provider.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	text := http.StatusText(e.Status)
	if text == "" {
		text = "unknown status"
	}
	if e.Body == "" {
		return fmt.Sprintf("%s returned %d %s", e.Provider, e.Status, text)
	}
	return fmt.Sprintf("%s returned %d %s: %s", e.Provider, e.Status, text, e.Body)
}

// MalformedResponse reports a provider answer that could not be parsed.
type MalformedResponse struct {
	Provider string
	Err      error
}

func (e *MalformedResponse) Error() string {
	return fmt.Sprintf("%s returned a malformed response: %v", e.Provider, e.Err)
}

func (e *MalformedResponse) Unwrap() error { return e.Err }

// EmptyResponse reports a provider answer that parsed fine but carried
// nothing usable where something was required.
type EmptyResponse struct {
	Provider string
	What     string
}

func (e *EmptyResponse) Error() string {
	if e.What == "" {
		return fmt.Sprintf("%s returned an empty response", e.Provider)
	}
	return fmt.Sprintf("%s returned no %s", e.Provider, e.What)
}

// Invalid is a shorthand for building an InvalidArgument.
func Invalid(field, format string, args ...any) error {
	return &InvalidArgument{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsInvalidArgument reports whether err (or anything it wraps) is an InvalidArgument.
func IsInvalidArgument(err error) bool {
	var target *InvalidArgument
	return errors.As(err, &target)
}

// IsUpstream reports whether err originates at a provider boundary.
func IsUpstream(err error) bool {
	var (
		upstream  *UpstreamError
		malformed *MalformedResponse
		empty     *EmptyResponse
	)
	return errors.As(err, &upstream) || errors.As(err, &malformed) || errors.As(err, &empty)
}
