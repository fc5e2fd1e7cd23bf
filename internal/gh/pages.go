package gh

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"emperror.dev/errors"
)

// ListOptions are the paging parameters shared by all list endpoints.
type ListOptions struct {
	// PerPage sets the page size. Zero uses the server default. The page size
	// only affects the number of round trips, never the set of records
	// returned.
	PerPage int
	// Page is the first page to fetch (1-based). Zero starts at the beginning.
	Page int
}

func (o ListOptions) values(q url.Values) url.Values {
	if q == nil {
		q = url.Values{}
	}
	if o.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(o.PerPage))
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	return q
}

// Pages is a lazy iterator over a paginated list endpoint. Constructing one
// performs no I/O: the first page is fetched on the first call to Next, and
// further pages are fetched on demand by following the response's
// Link: rel="next" header until the server stops sending one.
//
// The iteration order is the server's order, and every record of the
// underlying collection is yielded exactly once. Exhaustion is terminal:
// once Next has returned false it keeps returning false, and re-listing
// requires a fresh iterator from the accessor that produced this one.
type Pages[T any] struct {
	client *Client
	next   string // URL of the next page; empty once the last page was read
	accept string
	unwrap func([]byte) ([]T, error)

	items   []T
	index   int
	current T
	err     error
	done    bool
}

// Next advances the iterator, fetching the next page from the API when the
// current one is used up. It returns false when the listing is exhausted or
// a request failed; after false, check Err.
func (p *Pages[T]) Next(ctx context.Context) bool {
	if p.done {
		return false
	}
	for p.index >= len(p.items) {
		if p.next == "" {
			p.done = true
			return false
		}
		if !p.fetch(ctx) {
			return false
		}
	}
	p.current = p.items[p.index]
	p.index++
	return true
}

// Item returns the record produced by the last successful call to Next.
func (p *Pages[T]) Item() T {
	return p.current
}

// Err returns the error that terminated the iteration, if any.
func (p *Pages[T]) Err() error {
	return p.err
}

// All drains the iterator and returns the remaining records.
func (p *Pages[T]) All(ctx context.Context) ([]T, error) {
	var all []T
	for p.Next(ctx) {
		all = append(all, p.Item())
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return all, nil
}

func (p *Pages[T]) fetch(ctx context.Context) bool {
	body, header, err := p.client.doRest(ctx, http.MethodGet, p.next, p.accept, nil)
	if err != nil {
		p.err = err
		p.done = true
		return false
	}
	items, err := p.unwrap(body)
	if err != nil {
		p.err = errors.Wrap(err, "failed to unmarshal list page")
		p.done = true
		return false
	}
	p.items = items
	p.index = 0
	p.next = nextPageURL(header)
	return true
}

// listPages builds an iterator for an endpoint whose pages are bare JSON
// arrays.
func listPages[T any](c *Client, endpoint string, query url.Values) *Pages[T] {
	return &Pages[T]{
		client: c,
		next:   c.restURL(endpoint, query),
		unwrap: decodeList[T],
	}
}

// listPagesKeyed builds an iterator for an endpoint whose pages wrap the
// list under a key (e.g. {"total_count": 2, "workflows": [...]}).
func listPagesKeyed[T any](c *Client, endpoint string, query url.Values, key string) *Pages[T] {
	return &Pages[T]{
		client: c,
		next:   c.restURL(endpoint, query),
		unwrap: decodeKeyedList[T](key),
	}
}

func decodeList[T any](body []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func decodeKeyedList[T any](key string) func([]byte) ([]T, error) {
	return func(body []byte) ([]T, error) {
		var page map[string]json.RawMessage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, err
		}
		raw, ok := page[key]
		if !ok {
			return nil, errors.Errorf("response has no %q list", key)
		}
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
}

var linkRelNext = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="next"`)

// nextPageURL extracts the rel="next" target from a Link response header.
// Returns "" on the last page.
func nextPageURL(header http.Header) string {
	for _, link := range header.Values("Link") {
		if m := linkRelNext.FindStringSubmatch(link); m != nil {
			return m[1]
		}
	}
	return ""
}
