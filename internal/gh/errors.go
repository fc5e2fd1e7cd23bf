package gh

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ConfigurationError indicates that the client could not be constructed,
// usually because no API token could be resolved.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "github: " + e.Reason
}

// ValidationError indicates that a request was rejected locally (before any
// network traffic) because required fields were missing or malformed.
type ValidationError struct {
	Op      string
	Missing []string
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf(
			"github: %s: missing required fields: %s",
			e.Op, strings.Join(e.Missing, ", "),
		)
	}
	return fmt.Sprintf("github: %s: %s", e.Op, e.Reason)
}

// missingFields returns a ValidationError for every listed field whose value
// is empty, or nil if all are set.
func missingFields(op string, fields map[string]string) *ValidationError {
	var missing []string
	for name, value := range fields {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	// Map iteration order is random; keep the error message stable.
	sort.Strings(missing)
	return &ValidationError{Op: op, Missing: missing}
}

// httpError carries the context shared by every error mapped from an HTTP
// response. It is embedded in the exported per-category types so that callers
// can discriminate with errors.As while still reaching the response details.
type httpError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e httpError) Error() string {
	return fmt.Sprintf("github: %s %s: %s (HTTP %d)", e.Method, e.URL, e.Message, e.StatusCode)
}

// NotFoundError is returned for HTTP 404 responses.
type NotFoundError struct{ httpError }

// AuthorizationError is returned for HTTP 401 and for 403 responses that are
// not rate-limit rejections.
type AuthorizationError struct{ httpError }

// RateLimitError is returned for HTTP 429 and for 403 responses with an
// exhausted rate-limit quota. Reset is the time at which the quota renews
// (zero if the server did not say). The client never waits or retries;
// callers that want to back off can sleep until Reset themselves.
type RateLimitError struct {
	httpError
	Reset time.Time
}

// ConflictError is returned for HTTP 409 responses, and for HTTP 405
// responses from the pull request merge endpoint (which GitHub uses to
// signal "not mergeable").
type ConflictError struct{ httpError }

// TransientError is returned for HTTP 5xx responses. The request may succeed
// if retried later; retrying is the caller's responsibility.
type TransientError struct{ httpError }

// RequestError is returned for any 4xx response not covered by a more
// specific category.
type RequestError struct{ httpError }

// errorBody is the shape of GitHub's JSON error responses.
type errorBody struct {
	Message string `json:"message"`
	Errors  []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
		Message  string `json:"message"`
	} `json:"errors"`
}

func remoteMessage(body []byte, fallback string) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.Message == "" {
		return fallback
	}
	msg := eb.Message
	for _, detail := range eb.Errors {
		switch {
		case detail.Message != "":
			msg += ": " + detail.Message
		case detail.Field != "":
			msg += fmt.Sprintf(": %s.%s %s", detail.Resource, detail.Field, detail.Code)
		}
	}
	return msg
}

// checkResponse maps a non-2xx response onto the error taxonomy. It returns
// nil for any 2xx status.
func checkResponse(method, url string, res *http.Response, body []byte) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	he := httpError{
		Method:     method,
		URL:        url,
		StatusCode: res.StatusCode,
		Message:    remoteMessage(body, res.Status),
	}
	switch {
	case res.StatusCode == http.StatusNotFound:
		return &NotFoundError{he}
	case res.StatusCode == http.StatusTooManyRequests,
		res.StatusCode == http.StatusForbidden && res.Header.Get("X-Ratelimit-Remaining") == "0":
		return &RateLimitError{he, rateLimitReset(res.Header)}
	case res.StatusCode == http.StatusUnauthorized, res.StatusCode == http.StatusForbidden:
		return &AuthorizationError{he}
	case res.StatusCode == http.StatusConflict:
		return &ConflictError{he}
	case res.StatusCode >= 500:
		return &TransientError{he}
	default:
		return &RequestError{he}
	}
}

// rateLimitReset parses the X-Ratelimit-Reset header (seconds since the
// epoch). Returns the zero time if the header is absent or malformed.
func rateLimitReset(h http.Header) time.Time {
	raw := h.Get("X-Ratelimit-Reset")
	if raw == "" {
		return time.Time{}
	}
	epoch, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(epoch, 0)
}

// GraphQLErrorItem is one entry of a GraphQL response's errors array.
type GraphQLErrorItem struct {
	Message string        `json:"message"`
	Type    string        `json:"type,omitempty"`
	Path    []interface{} `json:"path,omitempty"`
}

// GraphQLError is returned whenever a GraphQL response carries a non-empty
// errors array, even if the HTTP status was 200 and even if partial data was
// returned. The partial data is preserved on the error so that callers who
// explicitly want it can still get at it; it is never silently delivered as
// a successful result.
type GraphQLError struct {
	Errors []GraphQLErrorItem
	Data   json.RawMessage
}

func (e *GraphQLError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "github: graphql: unknown error"
	case 1:
		return "github: graphql: " + e.Errors[0].Message
	}
	return fmt.Sprintf(
		"github: graphql: %s (and %d more errors)",
		e.Errors[0].Message, len(e.Errors)-1,
	)
}
