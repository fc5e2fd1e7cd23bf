package gh

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/apogee-eng/apogee/internal/utils/logutils"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	defaultBaseURL    = "https://api.github.com"
	defaultGraphQLURL = "https://api.github.com/graphql"

	acceptDefault = "application/vnd.github+json"
	apiVersion    = "2022-11-28"

	requestTimeout = 10 * time.Second
)

// tokenEnvVars are consulted, in order, when no token is passed explicitly.
var tokenEnvVars = []string{"APOGEE_GITHUB_TOKEN", "GITHUB_API_TOKEN", "GITHUB_TOKEN"}

// Client is a GitHub REST v3 client (plus a typed GraphQL v4 client for the
// aggregation queries). It keeps no mutable state: the token and URLs are
// fixed at construction and every call is an independent request/response
// cycle, so a single Client can be shared freely. It never retries; callers
// that want retry-on-RateLimitError/TransientError semantics implement them
// on top.
type Client struct {
	httpClient *http.Client
	baseURL    string
	graphQLURL string
	gh         *githubv4.Client
}

// ClientOption adjusts a Client during construction.
type ClientOption func(*Client)

// WithBaseURL overrides the REST API base URL (no trailing slash). Used for
// GitHub Enterprise installations and for tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithGraphQLURL overrides the GraphQL endpoint URL.
func WithGraphQLURL(u string) ClientOption {
	return func(c *Client) { c.graphQLURL = u }
}

// NewClient returns a client authenticated with the given token. An empty
// token falls back to the APOGEE_GITHUB_TOKEN, GITHUB_API_TOKEN and
// GITHUB_TOKEN environment variables (in that order); a token naming an
// existing file is read from that file. A *ConfigurationError is returned
// when no token can be resolved.
func NewClient(token string, opts ...ClientOption) (*Client, error) {
	token, err := ResolveToken(token)
	if err != nil {
		return nil, err
	}
	src := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	httpClient := oauth2.NewClient(context.Background(), src)
	c := &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		graphQLURL: defaultGraphQLURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.graphQLURL == defaultGraphQLURL {
		c.gh = githubv4.NewClient(httpClient)
	} else {
		c.gh = githubv4.NewEnterpriseClient(c.graphQLURL, httpClient)
	}
	return c, nil
}

// ResolveToken applies the token fallback rules: an explicit value wins, a
// value naming an existing file is replaced by that file's (trimmed)
// contents, and an empty value falls back to the environment.
func ResolveToken(token string) (string, error) {
	if token == "" {
		for _, name := range tokenEnvVars {
			if v := os.Getenv(name); v != "" {
				token = v
				break
			}
		}
	}
	if token == "" {
		return "", &ConfigurationError{
			Reason: "no GitHub token provided (do you need to configure one?)",
		}
	}
	if info, err := os.Stat(token); err == nil && info.Mode().IsRegular() {
		data, err := os.ReadFile(token)
		if err != nil {
			return "", &ConfigurationError{
				Reason: "cannot read GitHub token file: " + err.Error(),
			}
		}
		token = strings.TrimSpace(string(data))
		if token == "" {
			return "", &ConfigurationError{Reason: "GitHub token file is empty"}
		}
	}
	return token, nil
}

func (c *Client) query(ctx context.Context, query any, variables map[string]any) (reterr error) {
	log := logrus.WithFields(logrus.Fields{
		"variables": logutils.Format("%#+v", variables),
	})
	log.Debug("executing GitHub API query...")
	startTime := time.Now()
	defer func() {
		log := log.WithFields(logrus.Fields{
			"elapsed": time.Since(startTime),
			"result":  logutils.Format("%#+v", query),
		})
		if reterr != nil {
			log.WithError(reterr).Debug("GitHub API query failed")
		} else {
			log.Debug("GitHub API query succeeded")
		}
	}()
	return c.gh.Query(ctx, query, variables)
}

// restURL resolves an endpoint to a full URL. Endpoints must begin with "/";
// absolute URLs (from pagination Link headers) pass through unchanged.
func (c *Client) restURL(endpoint string, query url.Values) string {
	if strings.HasPrefix(endpoint, "https://") || strings.HasPrefix(endpoint, "http://") {
		return endpoint
	}
	if endpoint == "" || endpoint[0] != '/' {
		logrus.WithField("endpoint", endpoint).Panicf("malformed REST endpoint")
	}
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// doRest executes one HTTP round trip against the REST API and maps non-2xx
// responses onto the error taxonomy. The response body is fully read and
// returned together with the response headers (callers follow pagination
// links and inspect rate-limit state through the headers).
func (c *Client) doRest(
	ctx context.Context,
	method string,
	rawurl string,
	accept string,
	body interface{},
) ([]byte, http.Header, error) {
	startTime := time.Now()
	log := logrus.WithFields(logrus.Fields{
		"method": method,
		"url":    rawurl,
	})

	var reqBody io.Reader
	if body != nil {
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to marshal request body to JSON")
		}
		reqBody = bytes.NewBuffer(bodyJSON)
		log = log.WithField("body", logutils.Format("%#+v", body))
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawurl, reqBody)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accept == "" {
		accept = acceptDefault
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	log.Debug("executing GitHub API request...")
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to make API request")
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read response body")
	}
	log.WithFields(logrus.Fields{
		"elapsed": time.Since(startTime),
		"status":  res.StatusCode,
	}).Debug("GitHub API request completed")

	if err := checkResponse(method, rawurl, res, resBody); err != nil {
		log.WithField("body", string(resBody)).Debug("GitHub API request failed")
		return nil, res.Header, err
	}
	return resBody, res.Header, nil
}

// rest executes a REST request to the endpoint (e.g., /repos/:owner/:repo/pulls)
// and unmarshals the response into the given result type (unless it's nil or
// the response has no body).
func (c *Client) rest(
	ctx context.Context,
	method string,
	endpoint string,
	body interface{},
	result interface{},
) error {
	resBody, _, err := c.doRest(ctx, method, c.restURL(endpoint, nil), "", body)
	if err != nil {
		return err
	}
	// Don't try to unmarshal into nil, it will return an error.
	// NOTE: Go is weird with nil ("nil" can be typed or untyped) and this will
	// only capture an untyped nil (i.e., where the result parameter is given as
	// a nil literal), but that should be fine.
	if result == nil || len(resBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(resBody, result); err != nil {
		return errors.Wrap(err, "failed to unmarshal response body")
	}
	return nil
}

// Ptr returns a pointer to the argument.
// It's a convenience function to make working with the API easier: since Go
// disallows pointers-to-literals, and optional input fields are expressed as
// pointers, this function can be used to easily set optional fields to non-nil
// primitives.
// For example, gh.PullRequestCreateOpts{Draft: Ptr(true)}
func Ptr[T any](v T) *T {
	return &v
}
