// Package conda wraps the conda CLI to look up package records on the
// project's conda channels.
package conda

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"

	"github.com/apogee-eng/apogee/internal/config"
	"github.com/apogee-eng/apogee/internal/utils/executils"
)

// PackageRecord is one build of a package as reported by conda search.
type PackageRecord struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Build       string   `json:"build"`
	BuildNumber int      `json:"build_number"`
	Depends     []string `json:"depends"`
	Channel     string   `json:"channel"`
	Subdir      string   `json:"subdir"`
	FileName    string   `json:"fn"`
}

// UnreachableChannelsError is returned when one or more channels did not
// answer the reachability probe. Channels lists them with credentials
// stripped.
type UnreachableChannelsError struct {
	Channels []string
}

func (e *UnreachableChannelsError) Error() string {
	return "conda channels are not reachable: " + strings.Join(e.Channels, ", ")
}

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandChannel fills {CONDA_PASSWORD}-style placeholders from the
// environment.
func expandChannel(channel string) (string, error) {
	var missing []string
	expanded := placeholder.ReplaceAllStringFunc(channel, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		value, ok := os.LookupEnv(name)
		if !ok {
			missing = append(missing, name)
		}
		return value
	})
	if len(missing) > 0 {
		return "", errors.Errorf(
			"missing expected environment variable: %s", strings.Join(missing, ", "),
		)
	}
	return expanded, nil
}

// redact strips userinfo from a channel URL for display.
func redact(channel string) string {
	u, err := url.Parse(channel)
	if err != nil {
		return channel
	}
	u.User = nil
	return u.String()
}

// channelURLs resolves a channel alias against the configuration. An empty
// alias means "main"; an unknown alias is taken to be a channel URL itself.
func channelURLs(alias string) []string {
	if alias == "" {
		alias = "main"
	}
	if channels, ok := config.Apogee.Conda.Channels[alias]; ok {
		return channels
	}
	return []string{alias}
}

var probeClient = &http.Client{Timeout: 2 * time.Second}

// Search runs conda search for pkg on the given channel alias and returns
// the records keyed by package name. A package that exists on none of the
// channels yields an empty map, not an error.
func Search(ctx context.Context, pkg, alias string) (map[string][]PackageRecord, error) {
	args := []string{"search", pkg, "--override-channels", "--json"}
	var unreachable []string
	for _, channel := range channelURLs(alias) {
		expanded, err := expandChannel(channel)
		if err != nil {
			return nil, err
		}
		if _, err := probeClient.Get(expanded); err != nil {
			unreachable = append(unreachable, redact(channel))
		}
		args = append(args, "--channel", expanded)
	}
	if len(unreachable) > 0 {
		return nil, &UnreachableChannelsError{Channels: unreachable}
	}

	startTime := time.Now()
	cmd := exec.CommandContext(ctx, "conda", args...)
	out, err := cmd.Output()
	// Channel URLs may carry credentials after expansion; log them redacted.
	logArgs := []string{"conda"}
	for _, arg := range args {
		logArgs = append(logArgs, redact(arg))
	}
	logrus.WithFields(logrus.Fields{
		"cmd":     executils.FormatCommandLine(logArgs),
		"elapsed": time.Since(startTime),
	}).Debug("conda search completed")
	// conda search exits non-zero for "not found" but still writes a JSON
	// report; only fail outright when there is nothing to parse.
	if len(out) == 0 && err != nil {
		return nil, errors.Wrapf(err, "conda search %s", pkg)
	}
	return parseSearchOutput(out)
}

// condaError is the shape conda uses to report failures in --json mode.
type condaError struct {
	Error         json.RawMessage `json:"error"`
	ExceptionName string          `json:"exception_name"`
	Message       string          `json:"message"`
}

func parseSearchOutput(out []byte) (map[string][]PackageRecord, error) {
	var ce condaError
	if err := json.Unmarshal(out, &ce); err == nil && len(ce.Error) > 0 {
		if ce.ExceptionName == "PackagesNotFoundError" {
			return map[string][]PackageRecord{}, nil
		}
		if ce.Message != "" {
			return nil, errors.Errorf("conda search: %s", ce.Message)
		}
		return nil, errors.Errorf("conda search: %s", string(ce.Error))
	}
	var result map[string][]PackageRecord
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, errors.Wrap(err, "failed to parse conda search output")
	}
	return result, nil
}

// Latest returns the newest record for pkg from a search result. conda
// normalizes package names to lower case, so the lookup tolerates either
// spelling.
func Latest(result map[string][]PackageRecord, pkg string) (*PackageRecord, bool) {
	records, ok := result[pkg]
	if !ok {
		records, ok = result[strings.ToLower(pkg)]
	}
	if !ok || len(records) == 0 {
		return nil, false
	}
	return &records[len(records)-1], true
}

// LatestVersion returns the newest version of pkg on the channel alias, or
// "" if the package is not on the channel.
func LatestVersion(ctx context.Context, pkg, alias string) (string, error) {
	result, err := Search(ctx, pkg, alias)
	if err != nil {
		return "", err
	}
	record, ok := Latest(result, pkg)
	if !ok {
		return "", nil
	}
	return record.Version, nil
}

// MetaPackage returns the newest version of a meta-package and the versions
// it pins, from one search.
func MetaPackage(ctx context.Context, pkg, alias string) (string, map[string]string, error) {
	result, err := Search(ctx, pkg, alias)
	if err != nil {
		return "", nil, err
	}
	record, ok := Latest(result, pkg)
	if !ok {
		return "", nil, errors.Errorf("%s not found", pkg)
	}
	return record.Version, pinnedDepends(record.Depends), nil
}

// Dependencies returns the pinned dependencies of the newest build of a
// meta-package as a name to version map.
func Dependencies(ctx context.Context, pkg, alias string) (map[string]string, error) {
	_, depends, err := MetaPackage(ctx, pkg, alias)
	return depends, err
}

// pinnedDepends parses "name==version" dependency specs into a map. Specs
// that are not exact pins (version ranges, bare names) are skipped;
// meta-packages pin everything.
func pinnedDepends(specs []string) map[string]string {
	depends := map[string]string{}
	for _, spec := range specs {
		name, version, ok := strings.Cut(spec, "==")
		if !ok {
			continue
		}
		depends[strings.TrimSpace(name)] = strings.TrimSpace(version)
	}
	return depends
}
