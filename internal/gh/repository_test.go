package gh

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRepositoryBySlug(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	repo, err := client.RepositoryBySlug("sot/chandra-aca")
	require.NoError(t, err)
	require.Equal(t, "sot", repo.Owner)
	require.Equal(t, "chandra-aca", repo.Name)

	for _, slug := range []string{"nomatch", "", "/", "owner/"} {
		_, err := client.RepositoryBySlug(slug)
		require.Error(t, err, "slug %q", slug)
	}
}

func TestDispatchEvent(t *testing.T) {
	var body map[string]interface{}
	client, counting := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/repos/sot/skare3/dispatches", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))

	repo := client.Repository("sot", "skare3")

	err := repo.DispatchEvent(context.Background(), "", nil)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Zero(t, counting.requests)

	err = repo.DispatchEvent(context.Background(), "conda-build", map[string]string{
		"package": "chandra-aca",
	})
	require.NoError(t, err)
	require.Equal(t, "conda-build", body["event_type"])
	payload, ok := body["client_payload"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "chandra-aca", payload["package"])
}

func TestMergeBranch(t *testing.T) {
	t.Run("merge commit created", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/repos/sot/ska/merges", r.URL.Path)
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"sha": "deadbeef", "commit": {"message": "Merge fix into master"}}`)
		}))

		commit, err := client.Repository("sot", "ska").MergeBranch(context.Background(), MergeBranchOpts{
			Base: "master",
			Head: "fix",
		})
		require.NoError(t, err)
		require.Equal(t, "deadbeef", commit.SHA)
	})

	t.Run("already merged", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		commit, err := client.Repository("sot", "ska").MergeBranch(context.Background(), MergeBranchOpts{
			Base: "master",
			Head: "fix",
		})
		require.NoError(t, err)
		require.Nil(t, commit)
	})

	t.Run("conflict", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, `{"message": "Merge conflict"}`)
		}))

		_, err := client.Repository("sot", "ska").MergeBranch(context.Background(), MergeBranchOpts{
			Base: "master",
			Head: "fix",
		})
		var conflictErr *ConflictError
		require.ErrorAs(t, err, &conflictErr)
	})

	t.Run("missing fields", func(t *testing.T) {
		client, counting := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		_, err := client.Repository("sot", "ska").MergeBranch(context.Background(), MergeBranchOpts{})
		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
		require.Equal(t, []string{"base", "head"}, valErr.Missing)
		require.Zero(t, counting.requests)
	})
}

func TestContentsGetDecodes(t *testing.T) {
	content := base64.StdEncoding.EncodeToString([]byte("name: chandra-aca\n"))
	// GitHub wraps base64 payloads across lines.
	wrapped := content[:10] + "\\n" + content[10:]
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/sot/skare3/contents/pkg_defs/chandra-aca/meta.yaml", r.URL.Path)
		require.Equal(t, "ref=master", r.URL.RawQuery)
		fmt.Fprintf(
			w,
			`{"type": "file", "path": "pkg_defs/chandra-aca/meta.yaml", "sha": "blob1", "encoding": "base64", "content": "%s"}`,
			wrapped,
		)
	}))

	contents, err := client.Repository("sot", "skare3").Contents.Get(
		context.Background(), "pkg_defs/chandra-aca/meta.yaml", "master",
	)
	require.NoError(t, err)
	data, err := contents.Decode()
	require.NoError(t, err)
	require.Equal(t, "name: chandra-aca\n", string(data))
}

func TestContentsEditFetchesSHA(t *testing.T) {
	var putBody map[string]interface{}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, `{"type": "file", "sha": "oldblob", "encoding": "base64", "content": ""}`)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&putBody))
			fmt.Fprint(w, `{"content": {"sha": "newblob"}, "commit": {"sha": "c0ffee"}}`)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))

	update, err := client.Repository("sot", "ska").Contents.Edit(
		context.Background(), "VERSION",
		ContentsEditOpts{Message: "bump version", Content: []byte("1.2.0\n")},
	)
	require.NoError(t, err)
	require.Equal(t, "c0ffee", update.Commit.SHA)
	require.Equal(t, "oldblob", putBody["sha"], "blob SHA must be looked up when not given")

	decoded, err := base64.StdEncoding.DecodeString(putBody["content"].(string))
	require.NoError(t, err)
	require.Equal(t, "1.2.0\n", string(decoded))
}

func TestContentsEditNewFile(t *testing.T) {
	var putBody map[string]interface{}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "Not Found"}`)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&putBody))
			fmt.Fprint(w, `{"content": {"sha": "newblob"}, "commit": {"sha": "c0ffee"}}`)
		}
	}))

	_, err := client.Repository("sot", "ska").Contents.Edit(
		context.Background(), "NEWFILE",
		ContentsEditOpts{Message: "add file", Content: []byte("hello")},
	)
	require.NoError(t, err)
	_, hasSHA := putBody["sha"]
	require.False(t, hasSHA, "creating a new file must not send a blob SHA")
}

func TestChecksAcceptHeader(t *testing.T) {
	var accept string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		fmt.Fprint(w, `{"total_count": 1, "check_runs": [{"id": 1, "name": "build", "status": "completed", "conclusion": "success"}]}`)
	}))

	runs, err := client.Repository("sot", "ska").Checks.ListForRef("master", nil).All(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "build", runs[0].Name)
	require.Equal(t, acceptChecks, accept)
}

func TestOrganizationRepositories(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orgs/sot/repos", r.URL.Path)
		require.Equal(t, "public", r.URL.Query().Get("type"))
		fmt.Fprint(w, `[{"name": "ska", "full_name": "sot/ska", "owner": {"login": "sot"}}]`)
	}))

	repos, err := client.Organization("sot").Repositories(&OrgRepoListOpts{Type: "public"}).
		All(context.Background())
	require.NoError(t, err)
	require.Len(t, repos, 1)
	require.Equal(t, "sot/ska", repos[0].FullName)
}
