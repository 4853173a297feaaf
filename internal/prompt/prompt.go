// Package prompt deterministically renders an evidence set into the
// generation prompt. Changing the prompt shape is a template edit here,
// never a change to the generation or parsing logic.
package prompt

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/skillforge/skillforge/internal/models"
)

//go:embed skill_prompt.txt
var skillPromptTemplate string

// Caps applied at assembly time. The evidence set may hold more; the
// prompt never does.
const (
	maxReadmeChars     = 8000
	maxStructureLines  = 20
	maxPromptedSamples = 3
)

// Placeholder strings substituted when evidence is absent. Assembly never
// fails on missing evidence.
const (
	noReadme      = "README not found"
	noStructure   = "File structure not available"
	noSamples     = "No code samples available"
	noDescription = "No description available"
)

// Build renders the prompt for one generation request. It is a pure
// function of its input.
func Build(req *models.GenerationRequest) string {
	ev := req.Evidence
	if ev == nil {
		ev = &models.EvidenceSet{}
	}

	repoType := ev.RepoType
	if repoType == "" {
		repoType = "unknown"
	}

	languages := strings.Join(ev.Languages, ", ")
	if languages == "" {
		languages = "Unknown"
	}

	description := noDescription
	if req.Metadata != nil && req.Metadata.Description != nil && *req.Metadata.Description != "" {
		description = *req.Metadata.Description
	}

	readme := ev.Readme
	if readme == "" {
		readme = noReadme
	} else {
		readme = truncate(readme, maxReadmeChars)
	}

	r := strings.NewReplacer(
		"{repo_name}", req.FullName,
		"{repo_url}", req.URL,
		"{repo_type}", repoType,
		"{languages}", languages,
		"{repo_description}", description,
		"{readme_content}", readme,
		"{file_structure}", formatStructure(ev.FileStructure),
		"{code_samples}", formatSamples(ev.CodeSamples),
	)
	return r.Replace(skillPromptTemplate)
}

// truncate caps s at n bytes, backing off to a rune boundary so the
// prompt never carries a split multi-byte character.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func formatStructure(entries []models.Entry) string {
	if len(entries) == 0 {
		return noStructure
	}
	if len(entries) > maxStructureLines {
		entries = entries[:maxStructureLines]
	}
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "- %s (%s)\n", e.Name, e.Kind)
	}
	return sb.String()
}

func formatSamples(samples []models.CodeSample) string {
	if len(samples) == 0 {
		return noSamples
	}
	if len(samples) > maxPromptedSamples {
		samples = samples[:maxPromptedSamples]
	}
	var sb strings.Builder
	for i, s := range samples {
		fmt.Fprintf(&sb, "\n## Sample %d: %s\n\n", i+1, s.Path)
		fmt.Fprintf(&sb, "```%s\n%s\n```\n", s.Language, s.Content)
	}
	return sb.String()
}
