package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-cleanhttp"
)

// UserAgent is sent with every request made to a vulnerability data provider.
var UserAgent = "cwe-lookup"

// StatusError is returned when a provider answers with anything other than 200 OK.
type StatusError struct {
	Service    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Bad Request - %d", e.StatusCode)
}

// IsStatusError reports whether err (or anything it wraps) is a non-success response from a provider.
func IsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// NewHTTPClient returns a client without shared global state. There is deliberately no request timeout
// beyond the transport defaults.
func NewHTTPClient() *http.Client {
	return cleanhttp.DefaultClient()
}

// Do issues the request and decodes a 200 response body as JSON into dst. Any other status is reported as a
// *StatusError, with the body drained and discarded.
func Do(ctx context.Context, client *http.Client, service string, req *http.Request, dst interface{}) error {
	if client == nil {
		client = NewHTTPClient()
	}
	req = req.WithContext(ctx)
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("unable to reach %s: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Service: service, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("unable to decode %s response: %w", service, err)
	}
	return nil
}
