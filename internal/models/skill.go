package models

import "time"

// SkillDocument is the validated output of one generation attempt. It is
// only ever constructed by the response parser after every structural
// invariant has been checked; downstream builders may trust its shape.
type SkillDocument struct {
	SkillMD    SkillMD     `json:"skill_md"`
	References []FileEntry `json:"references"`
	Templates  []FileEntry `json:"templates"`
}

// SkillMD is the main skill file: a frontmatter mapping (at minimum
// "name" and "description") plus the markdown body.
type SkillMD struct {
	Frontmatter map[string]any `json:"frontmatter"`
	Content     string         `json:"content"`
}

// FileEntry is one generated reference or template file.
type FileEntry struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Name returns the frontmatter name, or "" if absent.
func (s SkillMD) Name() string {
	name, _ := s.Frontmatter["name"].(string)
	return name
}

// Description returns the frontmatter description, or "" if absent.
func (s SkillMD) Description() string {
	desc, _ := s.Frontmatter["description"].(string)
	return desc
}

// Record is one row of generation history.
type Record struct {
	SkillName   string    `json:"skill_name"`
	RepoURL     string    `json:"repo_url"`
	RepoName    string    `json:"repo_name"`
	Description *string   `json:"description,omitempty"`
	Status      string    `json:"status"`
	Error       *string   `json:"error_message,omitempty"`
	ZipPath     *string   `json:"zip_path,omitempty"`
	Installed   bool      `json:"installed"`
	CreatedAt   time.Time `json:"created_at"`
}

// Generation statuses stored in history records.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)
