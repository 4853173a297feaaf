package models

// EvidenceSet is the bounded extraction result for one cloned repository.
// It is built once per clone, consumed by the prompt assembler, and then
// discarded along with the clone directory.
type EvidenceSet struct {
	Readme           string
	FileStructure    []Entry
	CodeSamples      []CodeSample
	RepoType         string
	Languages        []string
	HasDocumentation bool
	TotalFiles       int
}

// Entry is one top-level directory listing item: a name and a kind tag
// ("directory", a file extension such as ".go", or "file").
type Entry struct {
	Name string
	Kind string
}

// CodeSample is one sampled source file, content-capped for prompting.
type CodeSample struct {
	Path     string
	Language string
	Content  string
}

// RepoMetadata is the subset of the GitHub repository metadata endpoint
// response that the pipeline consumes.
type RepoMetadata struct {
	FullName      string   `json:"full_name"`
	Description   *string  `json:"description"`
	HTMLURL       string   `json:"html_url"`
	Stars         int      `json:"stargazers_count"`
	Language      *string  `json:"language"`
	Topics        []string `json:"topics"`
	DefaultBranch string   `json:"default_branch"`
}

// GenerationRequest is the immutable input to one generation call.
type GenerationRequest struct {
	FullName string
	URL      string
	Metadata *RepoMetadata
	Evidence *EvidenceSet
}
