package gh

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// tagsPagesHandler serves /repos/sot/ska/tags as a three-page Link chain.
func tagsPagesHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/sot/ska/tags" {
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		base := "http://" + r.Host + r.URL.Path
		link := func(page int, rel string) string {
			return fmt.Sprintf(`<%s?page=%d>; rel=%q`, base, page, rel)
		}
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", link(2, "next")+", "+link(3, "last"))
			fmt.Fprint(w, `[{"name": "v1.4.0"}, {"name": "v1.3.0"}]`)
		case "2":
			w.Header().Set("Link", link(3, "next")+", "+link(3, "last")+", "+link(1, "first"))
			fmt.Fprint(w, `[{"name": "v1.2.0"}, {"name": "v1.1.0"}]`)
		case "3":
			w.Header().Set("Link", link(1, "first"))
			fmt.Fprint(w, `[{"name": "v1.0.0"}]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})
}

func TestPagesFollowsLinkChain(t *testing.T) {
	client, counting := newTestClient(t, tagsPagesHandler(t))

	pages := client.Repository("sot", "ska").Tags.List(nil)
	require.Zero(t, counting.requests, "constructing the iterator must not fetch")

	var names []string
	ctx := context.Background()
	for pages.Next(ctx) {
		names = append(names, pages.Item().Name)
	}
	require.NoError(t, pages.Err())
	require.Equal(t, []string{"v1.4.0", "v1.3.0", "v1.2.0", "v1.1.0", "v1.0.0"}, names)
	require.Equal(t, 3, counting.requests)

	// Exhaustion is terminal.
	require.False(t, pages.Next(ctx))
	require.False(t, pages.Next(ctx))
	require.NoError(t, pages.Err())
	require.Equal(t, 3, counting.requests)
}

func TestPagesAll(t *testing.T) {
	client, _ := newTestClient(t, tagsPagesHandler(t))

	tags, err := client.Repository("sot", "ska").Tags.List(nil).All(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 5)
	require.Equal(t, "v1.4.0", tags[0].Name)
	require.Equal(t, "v1.0.0", tags[4].Name)
}

func TestPagesFirstFetchIsLazy(t *testing.T) {
	client, counting := newTestClient(t, tagsPagesHandler(t))

	pages := client.Repository("sot", "ska").Tags.List(nil)
	require.Zero(t, counting.requests)
	require.True(t, pages.Next(context.Background()))
	require.Equal(t, 1, counting.requests)
}

func TestPagesEmptyListing(t *testing.T) {
	client, counting := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))

	pages := client.Repository("sot", "ska").Branches.List(nil)
	require.False(t, pages.Next(context.Background()))
	require.NoError(t, pages.Err())
	require.Equal(t, 1, counting.requests)
}

func TestPagesMidIterationError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host + r.URL.Path
		if r.URL.Query().Get("page") == "" {
			w.Header().Set("Link", fmt.Sprintf(`<%s?page=2>; rel="next"`, base))
			fmt.Fprint(w, `[{"name": "v1.1.0"}]`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))

	pages := client.Repository("sot", "ska").Tags.List(nil)
	ctx := context.Background()
	require.True(t, pages.Next(ctx))
	require.Equal(t, "v1.1.0", pages.Item().Name)
	require.False(t, pages.Next(ctx))
	var transientErr *TransientError
	require.ErrorAs(t, pages.Err(), &transientErr)
	// The error is terminal, too.
	require.False(t, pages.Next(ctx))
}

func TestPagesKeyedListing(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host + r.URL.Path
		if r.URL.Query().Get("page") == "" {
			w.Header().Set("Link", fmt.Sprintf(`<%s?page=2>; rel="next"`, base))
			fmt.Fprint(w, `{"total_count": 3, "workflows": [{"name": "CI"}, {"name": "Release"}]}`)
			return
		}
		fmt.Fprint(w, `{"total_count": 3, "workflows": [{"name": "Docs"}]}`)
	}))

	workflows, err := client.Repository("sot", "ska").Workflows.List(nil).All(context.Background())
	require.NoError(t, err)
	require.Len(t, workflows, 3)
	require.Equal(t, "CI", workflows[0].Name)
	require.Equal(t, "Docs", workflows[2].Name)
}

func TestPagesKeyedListingMissingKey(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total_count": 0}`)
	}))

	_, err := client.Repository("sot", "ska").Workflows.List(nil).All(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), `"workflows"`)
}

func TestListOptionsForwarded(t *testing.T) {
	var query string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		fmt.Fprint(w, `[]`)
	}))

	opts := &ReleaseListOpts{}
	opts.PerPage = 50
	opts.Page = 2
	_, err := client.Repository("sot", "ska").Releases.List(opts).All(context.Background())
	require.NoError(t, err)
	require.Contains(t, query, "per_page=50")
	require.Contains(t, query, "page=2")
}

func TestNextPageURL(t *testing.T) {
	for _, tt := range []struct {
		name string
		link string
		want string
	}{
		{
			name: "next and last",
			link: `<https://api.github.com/repos/a/b/tags?page=2>; rel="next", <https://api.github.com/repos/a/b/tags?page=9>; rel="last"`,
			want: "https://api.github.com/repos/a/b/tags?page=2",
		},
		{
			name: "last page",
			link: `<https://api.github.com/repos/a/b/tags?page=1>; rel="first", <https://api.github.com/repos/a/b/tags?page=8>; rel="prev"`,
			want: "",
		},
		{
			name: "no header",
			link: "",
			want: "",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.link != "" {
				header.Set("Link", tt.link)
			}
			require.Equal(t, tt.want, nextPageURL(header))
		})
	}
}
