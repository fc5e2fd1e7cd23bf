package gh

import (
	"net/url"
	"time"
)

// acceptChecks is the media type the check-runs endpoints were introduced
// under. Current API versions accept the standard media type too; the
// preview one is still sent for compatibility with older Enterprise
// installations.
const acceptChecks = "application/vnd.github.antiope-preview+json"

type CheckRun struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	HeadSHA     string     `json:"head_sha"`
	Status      string     `json:"status"`
	Conclusion  string     `json:"conclusion"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	HTMLURL     string     `json:"html_url"`
}

type ChecksService struct {
	endpoint
}

type CheckListOpts struct {
	// CheckName filters by check run name.
	CheckName string
	// Status filters by queued, in_progress or completed.
	Status string
	ListOptions
}

func (o *CheckListOpts) values() url.Values {
	q := url.Values{}
	if o.CheckName != "" {
		q.Set("check_name", o.CheckName)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	return o.ListOptions.values(q)
}

// ListForRef lists the check runs for a commit SHA, branch or tag name.
func (s *ChecksService) ListForRef(ref string, opts *CheckListOpts) *Pages[CheckRun] {
	if opts == nil {
		opts = &CheckListOpts{}
	}
	p := listPagesKeyed[CheckRun](s.client, s.path("/commits/%s/check-runs", ref), opts.values(), "check_runs")
	p.accept = acceptChecks
	return p
}
