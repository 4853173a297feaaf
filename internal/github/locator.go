package github

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Untrusted URLs pass through here before anything touches the network or
// the filesystem. Only a Locator produced by ParseLocator may reach the
// clone step.
const maxURLLength = 500

var (
	ownerPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	repoPattern  = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// Locator identifies one GitHub repository parsed from a validated URL.
type Locator struct {
	Owner    string
	Repo     string
	FullName string // owner/repo
	URL      string // the validated input URL
}

// ValidateURL checks that raw is an HTTPS github.com repository URL with a
// well-formed owner and repo. It is a pure syntactic gate: no network
// access, no filesystem access. Returns (ok, reason).
func ValidateURL(raw string) (bool, string) {
	if raw == "" {
		return false, "URL cannot be empty"
	}
	if len(raw) > maxURLLength {
		return false, "URL is too long"
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return false, "invalid URL format"
	}
	if parsed.Scheme != "https" {
		return false, "URL must use HTTPS"
	}
	if parsed.Host != "github.com" && parsed.Host != "www.github.com" {
		return false, "URL must be a GitHub repository"
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return false, "URL must include owner and repository"
	}

	owner := parts[0]
	repo := strings.TrimSuffix(parts[1], ".git")

	if !ownerPattern.MatchString(owner) {
		return false, "invalid repository owner name"
	}
	if !repoPattern.MatchString(repo) {
		return false, "invalid repository name"
	}

	return true, ""
}

// ParseLocator validates raw and decomposes it into a Locator.
func ParseLocator(raw string) (*Locator, error) {
	if ok, reason := ValidateURL(raw); !ok {
		return nil, fmt.Errorf("invalid repository URL: %s", reason)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid repository URL: %w", err)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	owner := parts[0]
	repo := strings.TrimSuffix(parts[1], ".git")

	return &Locator{
		Owner:    owner,
		Repo:     repo,
		FullName: owner + "/" + repo,
		URL:      raw,
	}, nil
}
