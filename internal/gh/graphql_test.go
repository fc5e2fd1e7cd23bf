package gh

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

const issueCountQuery = `
query($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    name
    issues(states: OPEN) { totalCount }
  }
}`

type issueCountResult struct {
	Repository struct {
		Name   string `json:"name"`
		Issues struct {
			TotalCount int `json:"totalCount"`
		} `json:"issues"`
	} `json:"repository"`
}

func TestGraphQLQuery(t *testing.T) {
	var req graphQLRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/graphql", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fmt.Fprint(w, `{"data": {"repository": {"name": "ska", "issues": {"totalCount": 3}}}}`)
	}))

	var result issueCountResult
	err := client.GraphQL().Query(context.Background(), issueCountQuery, map[string]interface{}{
		"owner": "sot",
		"name":  "ska",
	}, &result)
	require.NoError(t, err)
	require.Equal(t, "ska", result.Repository.Name)
	require.Equal(t, 3, result.Repository.Issues.TotalCount)

	require.Equal(t, issueCountQuery, req.Query)
	require.Equal(t, map[string]interface{}{"owner": "sot", "name": "ska"}, req.Variables)
}

func TestGraphQLErrorsDespiteOKStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// GraphQL reports resolution failures in-band with HTTP 200.
		fmt.Fprint(w, `{
			"data": {"repository": null},
			"errors": [
				{"message": "Could not resolve to a Repository with the name 'sot/nope'.", "type": "NOT_FOUND", "path": ["repository"]},
				{"message": "Field 'bogus' doesn't exist on type 'Query'"}
			]
		}`)
	}))

	var result issueCountResult
	err := client.GraphQL().Query(context.Background(), issueCountQuery, nil, &result)

	var gqlErr *GraphQLError
	require.ErrorAs(t, err, &gqlErr)
	require.Len(t, gqlErr.Errors, 2)
	require.Equal(t, "NOT_FOUND", gqlErr.Errors[0].Type)
	require.Contains(t, gqlErr.Error(), "Could not resolve")
	require.Contains(t, gqlErr.Error(), "1 more")

	// The partial data rides on the error, not on the result.
	require.JSONEq(t, `{"repository": null}`, string(gqlErr.Data))
	require.Empty(t, result.Repository.Name)
}

func TestGraphQLVariablesOmittedWhenNil(t *testing.T) {
	var raw map[string]json.RawMessage
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		fmt.Fprint(w, `{"data": {}}`)
	}))

	err := client.GraphQL().Query(context.Background(), `query { viewer { login } }`, nil, nil)
	require.NoError(t, err)
	require.Contains(t, raw, "query")
	require.NotContains(t, raw, "variables")
}

func TestGraphQLTransportErrors(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "Bad credentials"}`)
	}))

	err := client.GraphQL().Query(context.Background(), issueCountQuery, nil, nil)
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)
	require.Contains(t, authErr.Message, "Bad credentials")
}

func TestNewGraphQLClientTokenResolution(t *testing.T) {
	clearTokenEnv(t)
	_, err := NewGraphQLClient("")
	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)

	gql, err := NewGraphQLClient("token-here")
	require.NoError(t, err)
	require.NotNil(t, gql)
}
