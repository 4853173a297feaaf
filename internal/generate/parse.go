package generate

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/skillforge/skillforge/internal/logging"
	"github.com/skillforge/skillforge/internal/models"
)

const (
	jsonFence    = "```json"
	fence        = "```"
	errorExcerpt = 500
)

// Parse extracts the JSON document embedded in raw model output and
// validates it against the skill-document shape. A failure at any step
// returns an error and no document; there is no partial result and no
// repair pass.
func Parse(raw string) (*models.SkillDocument, error) {
	candidate := extractPayload(raw)

	var generic map[string]any
	if err := json.Unmarshal([]byte(candidate), &generic); err != nil {
		logging.Error("parsing model response", "err", err, "excerpt", excerpt(raw))
		return nil, fmt.Errorf("parsing model response: %w", err)
	}

	doc, err := validate(generic)
	if err != nil {
		logging.Error("invalid skill document", "err", err)
		return nil, err
	}
	return doc, nil
}

// extractPayload picks the JSON candidate out of free-form model output.
// Ordered, first match wins:
//  1. from the first ```json marker to the LAST ``` in the text;
//  2. from the first ``` marker to the last ``` in the text;
//  3. the whole trimmed text.
//
// Anchoring to the last closing marker captures payloads whose generated
// content contains example code fences, at the cost of over-capturing
// when prose with fences follows the payload. Known fragility, kept for
// compatibility with the documents it already accepts.
func extractPayload(raw string) string {
	if i := strings.Index(raw, jsonFence); i != -1 {
		start := i + len(jsonFence)
		end := strings.LastIndex(raw, fence)
		if end < start {
			return ""
		}
		return strings.TrimSpace(raw[start:end])
	}
	if i := strings.Index(raw, fence); i != -1 {
		start := i + len(fence)
		end := strings.LastIndex(raw, fence)
		if end < start {
			return ""
		}
		return strings.TrimSpace(raw[start:end])
	}
	return strings.TrimSpace(raw)
}

func validate(data map[string]any) (*models.SkillDocument, error) {
	for _, key := range []string{"skill_md", "references", "templates"} {
		if _, ok := data[key]; !ok {
			return nil, fmt.Errorf("skill document missing required key %q", key)
		}
	}

	skillMD, ok := data["skill_md"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("skill_md is not a mapping")
	}

	frontmatter, ok := skillMD["frontmatter"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("skill_md missing frontmatter mapping")
	}
	content, ok := skillMD["content"].(string)
	if !ok {
		return nil, fmt.Errorf("skill_md missing content")
	}

	if name, ok := frontmatter["name"].(string); !ok || name == "" {
		return nil, fmt.Errorf("frontmatter missing name")
	}
	if desc, ok := frontmatter["description"].(string); !ok || desc == "" {
		return nil, fmt.Errorf("frontmatter missing description")
	}

	references, err := fileEntries(data["references"], "references")
	if err != nil {
		return nil, err
	}
	templates, err := fileEntries(data["templates"], "templates")
	if err != nil {
		return nil, err
	}

	return &models.SkillDocument{
		SkillMD: models.SkillMD{
			Frontmatter: frontmatter,
			Content:     content,
		},
		References: references,
		Templates:  templates,
	}, nil
}

func fileEntries(v any, field string) ([]models.FileEntry, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s is not a sequence", field)
	}

	entries := make([]models.FileEntry, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is not a mapping", field, i)
		}
		filename, ok := m["filename"].(string)
		if !ok || filename == "" {
			return nil, fmt.Errorf("%s[%d] missing filename", field, i)
		}
		content, ok := m["content"].(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d] missing content", field, i)
		}
		entries = append(entries, models.FileEntry{Filename: filename, Content: content})
	}
	return entries, nil
}

// excerpt caps the logged raw output, backing off to a rune boundary so
// the log line never carries a split multi-byte character.
func excerpt(raw string) string {
	if len(raw) <= errorExcerpt {
		return raw
	}
	n := errorExcerpt
	for n > 0 && !utf8.RuneStart(raw[n]) {
		n--
	}
	return raw[:n]
}
