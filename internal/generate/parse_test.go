package generate

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDocJSON(t *testing.T) string {
	t.Helper()
	doc := map[string]any{
		"skill_md": map[string]any{
			"frontmatter": map[string]any{
				"name":        "widget-helper",
				"description": "Helps with widgets",
			},
			"content": "# Widget Helper\n\nUse widgets.",
		},
		"references": []any{
			map[string]any{"filename": "api.md", "content": "API notes"},
		},
		"templates": []any{
			map[string]any{"filename": "example.go", "content": "package main"},
		},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(raw)
}

func TestParseJSONFence(t *testing.T) {
	raw := "Here is the skill:\n```json\n" + validDocJSON(t) + "\n```\n"

	doc, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "widget-helper", doc.SkillMD.Name())
	assert.Equal(t, "Helps with widgets", doc.SkillMD.Description())
	assert.Equal(t, "# Widget Helper\n\nUse widgets.", doc.SkillMD.Content)
	require.Len(t, doc.References, 1)
	assert.Equal(t, "api.md", doc.References[0].Filename)
	require.Len(t, doc.Templates, 1)
	assert.Equal(t, "example.go", doc.Templates[0].Filename)
}

func TestParseGenericFence(t *testing.T) {
	raw := "```\n" + validDocJSON(t) + "\n```"

	doc, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "widget-helper", doc.SkillMD.Name())
}

func TestParseBareJSON(t *testing.T) {
	doc, err := Parse("  \n" + validDocJSON(t) + "\n")
	require.NoError(t, err)
	assert.Equal(t, "widget-helper", doc.SkillMD.Name())
}

func TestParseNestedFences(t *testing.T) {
	// The payload's own content holds a fenced code block. Extraction runs
	// to the last closing marker, so the inner fence does not cut it short.
	inner := map[string]any{
		"skill_md": map[string]any{
			"frontmatter": map[string]any{
				"name":        "fenced",
				"description": "d",
			},
			"content": "Use it like:\n```go\nwidget.New()\n```\n",
		},
		"references": []any{},
		"templates":  []any{},
	}
	payload, err := json.Marshal(inner)
	require.NoError(t, err)
	raw := "```json\n" + string(payload) + "\n```"

	doc, err := Parse(raw)
	require.NoError(t, err)
	assert.Contains(t, doc.SkillMD.Content, "```go")
}

func TestParseUnclosedFence(t *testing.T) {
	// An opening marker with no closing marker yields no candidate.
	_, err := Parse("```json\n{\"skill_md\": {}}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing model response")
}

func TestParseNotJSON(t *testing.T) {
	_, err := Parse("I could not produce a skill for this repository.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing model response")
}

func TestParseRejectsInvalidShape(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
		want string
	}{
		{
			name: "missing skill_md",
			doc: map[string]any{
				"references": []any{},
				"templates":  []any{},
			},
			want: `missing required key "skill_md"`,
		},
		{
			name: "missing templates",
			doc: map[string]any{
				"skill_md":   map[string]any{},
				"references": []any{},
			},
			want: `missing required key "templates"`,
		},
		{
			name: "skill_md not a mapping",
			doc: map[string]any{
				"skill_md":   "oops",
				"references": []any{},
				"templates":  []any{},
			},
			want: "skill_md is not a mapping",
		},
		{
			name: "missing frontmatter",
			doc: map[string]any{
				"skill_md":   map[string]any{"content": "c"},
				"references": []any{},
				"templates":  []any{},
			},
			want: "skill_md missing frontmatter",
		},
		{
			name: "empty name",
			doc: map[string]any{
				"skill_md": map[string]any{
					"frontmatter": map[string]any{"name": "", "description": "d"},
					"content":     "c",
				},
				"references": []any{},
				"templates":  []any{},
			},
			want: "frontmatter missing name",
		},
		{
			name: "missing description",
			doc: map[string]any{
				"skill_md": map[string]any{
					"frontmatter": map[string]any{"name": "n"},
					"content":     "c",
				},
				"references": []any{},
				"templates":  []any{},
			},
			want: "frontmatter missing description",
		},
		{
			name: "references not a sequence",
			doc: map[string]any{
				"skill_md": map[string]any{
					"frontmatter": map[string]any{"name": "n", "description": "d"},
					"content":     "c",
				},
				"references": "nope",
				"templates":  []any{},
			},
			want: "references is not a sequence",
		},
		{
			name: "reference entry missing filename",
			doc: map[string]any{
				"skill_md": map[string]any{
					"frontmatter": map[string]any{"name": "n", "description": "d"},
					"content":     "c",
				},
				"references": []any{map[string]any{"content": "c"}},
				"templates":  []any{},
			},
			want: "references[0] missing filename",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.doc)
			require.NoError(t, err)

			_, err = Parse(string(raw))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestExcerptRuneBoundary(t *testing.T) {
	assert.Equal(t, "short", excerpt("short"))

	// 499 single-byte characters followed by a two-byte rune straddling
	// the cap.
	raw := strings.Repeat("a", 499) + "é" + strings.Repeat("b", 100)
	got := excerpt(raw)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 499), got)
}

func TestParseEmptyLists(t *testing.T) {
	raw := `{
		"skill_md": {
			"frontmatter": {"name": "minimal", "description": "d"},
			"content": "body"
		},
		"references": [],
		"templates": []
	}`

	doc, err := Parse(raw)
	require.NoError(t, err)
	assert.Empty(t, doc.References)
	assert.Empty(t, doc.Templates)
}
