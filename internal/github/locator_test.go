package github

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		ok     bool
		reason string
	}{
		{
			name: "plain repo URL",
			url:  "https://github.com/golang/go",
			ok:   true,
		},
		{
			name: "www host",
			url:  "https://www.github.com/golang/go",
			ok:   true,
		},
		{
			name: "git suffix",
			url:  "https://github.com/golang/go.git",
			ok:   true,
		},
		{
			name: "trailing path segments",
			url:  "https://github.com/golang/go/tree/master/src",
			ok:   true,
		},
		{
			name: "dots and dashes in repo",
			url:  "https://github.com/user/my-repo.v2",
			ok:   true,
		},
		{
			name:   "empty",
			url:    "",
			ok:     false,
			reason: "URL cannot be empty",
		},
		{
			name:   "too long",
			url:    "https://github.com/a/" + strings.Repeat("b", 500),
			ok:     false,
			reason: "URL is too long",
		},
		{
			name:   "http scheme",
			url:    "http://github.com/golang/go",
			ok:     false,
			reason: "URL must use HTTPS",
		},
		{
			name:   "wrong host",
			url:    "https://gitlab.com/golang/go",
			ok:     false,
			reason: "URL must be a GitHub repository",
		},
		{
			name:   "owner only",
			url:    "https://github.com/golang",
			ok:     false,
			reason: "URL must include owner and repository",
		},
		{
			name:   "bare host",
			url:    "https://github.com",
			ok:     false,
			reason: "URL must include owner and repository",
		},
		{
			name:   "space in owner",
			url:    "https://github.com/bad%20owner/repo",
			ok:     false,
			reason: "invalid repository owner name",
		},
		{
			name:   "dot in owner",
			url:    "https://github.com/bad.owner/repo",
			ok:     false,
			reason: "invalid repository owner name",
		},
		{
			name:   "invalid repo characters",
			url:    "https://github.com/owner/re%24po",
			ok:     false,
			reason: "invalid repository name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := ValidateURL(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestParseLocator(t *testing.T) {
	loc, err := ParseLocator("https://github.com/golang/go.git")
	require.NoError(t, err)
	assert.Equal(t, "golang", loc.Owner)
	assert.Equal(t, "go", loc.Repo)
	assert.Equal(t, "golang/go", loc.FullName)
	assert.Equal(t, "https://github.com/golang/go.git", loc.URL)
}

func TestParseLocatorRejectsInvalid(t *testing.T) {
	_, err := ParseLocator("https://gitlab.com/golang/go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid repository URL")
}
