package gh

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"emperror.dev/errors"
	"github.com/apogee-eng/apogee/internal/utils/logutils"
	"github.com/sirupsen/logrus"
)

// GraphQLClient executes raw GraphQL documents against the v4 API. Unlike
// the typed client, it takes the query text verbatim and surfaces the
// response's errors array as a *GraphQLError, which the typed libraries
// hide. Use it for ad-hoc documents; the typed queries live on Client.
type GraphQLClient struct {
	httpClient *http.Client
	url        string
}

// GraphQL returns a raw-document client sharing this client's credentials
// and endpoint.
func (c *Client) GraphQL() *GraphQLClient {
	return &GraphQLClient{httpClient: c.httpClient, url: c.graphQLURL}
}

// NewGraphQLClient returns a raw GraphQL client with the same token
// resolution rules as NewClient.
func NewGraphQLClient(token string, opts ...ClientOption) (*GraphQLClient, error) {
	c, err := NewClient(token, opts...)
	if err != nil {
		return nil, err
	}
	return c.GraphQL(), nil
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage    `json:"data"`
	Errors []GraphQLErrorItem `json:"errors"`
}

// Query posts the document with the given variables and unmarshals the
// response's data into out (unless out is nil). A response with a non-empty
// errors array returns a *GraphQLError regardless of HTTP status: GraphQL
// reports most failures in-band with a 200, and partial data must never pass
// for a complete result.
func (g *GraphQLClient) Query(
	ctx context.Context,
	document string,
	variables map[string]interface{},
	out interface{},
) error {
	startTime := time.Now()
	log := logrus.WithFields(logrus.Fields{
		"url":       g.url,
		"variables": logutils.Format("%#+v", variables),
	})

	reqBody, err := json.Marshal(graphQLRequest{Query: document, Variables: variables})
	if err != nil {
		return errors.Wrap(err, "failed to marshal GraphQL request")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewBuffer(reqBody))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug("executing GitHub GraphQL request...")
	res, err := g.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to make GraphQL request")
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}
	log.WithFields(logrus.Fields{
		"elapsed": time.Since(startTime),
		"status":  res.StatusCode,
	}).Debug("GitHub GraphQL request completed")

	if err := checkResponse(http.MethodPost, g.url, res, resBody); err != nil {
		return err
	}

	var parsed graphQLResponse
	if err := json.Unmarshal(resBody, &parsed); err != nil {
		return errors.Wrap(err, "failed to unmarshal GraphQL response")
	}
	if len(parsed.Errors) > 0 {
		return &GraphQLError{Errors: parsed.Errors, Data: parsed.Data}
	}
	if out == nil || len(parsed.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(parsed.Data, out); err != nil {
		return errors.Wrap(err, "failed to unmarshal GraphQL response data")
	}
	return nil
}
