package gh

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"emperror.dev/errors"
)

// FileContents is a file record from the contents API. Content is
// base64-encoded on the wire; use Decode.
type FileContents struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
	HTMLURL  string `json:"html_url"`
}

// Decode returns the decoded file content. The API wraps the base64 payload
// across multiple lines, which the standard decoder rejects, so whitespace
// is stripped first.
func (f *FileContents) Decode() ([]byte, error) {
	if f.Encoding != "" && f.Encoding != "base64" {
		return nil, errors.Errorf("unsupported content encoding %q", f.Encoding)
	}
	compact := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' {
			return -1
		}
		return r
	}, f.Content)
	data, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode file content")
	}
	return data, nil
}

// ContentsUpdate is the response to a contents edit: the new file record and
// the commit that introduced it.
type ContentsUpdate struct {
	Content FileContents `json:"content"`
	Commit  struct {
		SHA     string `json:"sha"`
		Message string `json:"message"`
	} `json:"commit"`
}

type ContentsService struct {
	endpoint
}

// Get fetches a file's contents at the given ref (the default branch when
// ref is empty).
func (s *ContentsService) Get(ctx context.Context, path, ref string) (*FileContents, error) {
	endpoint := s.path("/contents/%s", path)
	if ref != "" {
		endpoint += "?" + url.Values{"ref": {ref}}.Encode()
	}
	var contents FileContents
	if err := s.client.rest(ctx, http.MethodGet, endpoint, nil, &contents); err != nil {
		return nil, err
	}
	return &contents, nil
}

type ContentsEditOpts struct {
	// Message is the commit message (required).
	Message string
	// Content is the new file content, raw (required); it is base64-encoded
	// on the wire.
	Content []byte
	// SHA is the blob SHA being replaced. When empty it is looked up
	// automatically; a lookup miss means a new file is being created.
	SHA string
	// Branch is the branch to commit to (the default branch when empty).
	Branch string
}

// Edit creates or updates a file through the contents API.
func (s *ContentsService) Edit(ctx context.Context, path string, opts ContentsEditOpts) (*ContentsUpdate, error) {
	if opts.Message == "" || opts.Content == nil {
		missing := []string{}
		if opts.Message == "" {
			missing = append(missing, "message")
		}
		if opts.Content == nil {
			missing = append(missing, "content")
		}
		return nil, &ValidationError{Op: "contents.edit", Missing: missing}
	}
	sha := opts.SHA
	if sha == "" {
		existing, err := s.Get(ctx, path, opts.Branch)
		if err != nil {
			var notFound *NotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
			// New file: no blob to replace.
		} else {
			sha = existing.SHA
		}
	}
	body := struct {
		Message string `json:"message"`
		Content string `json:"content"`
		SHA     string `json:"sha,omitempty"`
		Branch  string `json:"branch,omitempty"`
	}{
		Message: opts.Message,
		Content: base64.StdEncoding.EncodeToString(opts.Content),
		SHA:     sha,
		Branch:  opts.Branch,
	}
	var update ContentsUpdate
	if err := s.client.rest(ctx, http.MethodPut, s.path("/contents/%s", path), body, &update); err != nil {
		return nil, err
	}
	return &update, nil
}
