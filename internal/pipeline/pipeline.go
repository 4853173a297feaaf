// Package pipeline orchestrates the end-to-end conversion of a GitHub
// repository into a packaged skill.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/skillforge/skillforge/internal/builder"
	"github.com/skillforge/skillforge/internal/config"
	"github.com/skillforge/skillforge/internal/generate"
	"github.com/skillforge/skillforge/internal/github"
	"github.com/skillforge/skillforge/internal/history"
	"github.com/skillforge/skillforge/internal/logging"
	"github.com/skillforge/skillforge/internal/models"
	"github.com/skillforge/skillforge/internal/packager"
	"github.com/skillforge/skillforge/internal/repo"
	"github.com/skillforge/skillforge/internal/validate"
)

// Options control optional pipeline behavior for one run.
type Options struct {
	// Install copies the built skill into the install directory after
	// packaging.
	Install bool
	// SkipValidate bypasses the validation step.
	SkipValidate bool
	// Progress receives human-readable step updates. May be nil.
	Progress generate.ProgressFunc
}

// Result describes a completed run.
type Result struct {
	SkillName   string
	Description string
	SkillDir    string
	ZipPath     string
	InstallPath string
	Valid       bool
	ValidateMsg string
}

// repoFetcher is the clone/analyze surface the pipeline needs from
// internal/repo.
type repoFetcher interface {
	Clone(ctx context.Context, rawURL string) (string, error)
	Cleanup(path string)
	Analyze(root string) *models.EvidenceSet
}

// metadataClient is the repository metadata surface the pipeline needs
// from internal/github.
type metadataClient interface {
	FetchMetadata(ctx context.Context, owner, repo string) (*models.RepoMetadata, error)
}

// Pipeline wires the stages together. Store is nil when history is not
// configured.
type Pipeline struct {
	cfg        *config.Config
	fetcher    repoFetcher
	github     metadataClient
	builder    *builder.Builder
	validate   *validate.Validator
	packager   *packager.Packager
	store      *history.Store
	newBackend func(ctx context.Context, cfg *config.Config) (generate.Backend, error)
}

func New(cfg *config.Config, store *history.Store) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		fetcher:    repo.NewFetcher(cfg.ScratchDir),
		github:     github.NewClient(cfg.GitHubToken),
		builder:    builder.New(cfg.OutputDir),
		validate:   validate.New(cfg.ValidationScript),
		packager:   packager.New(cfg.OutputDir, cfg.InstallDir),
		store:      store,
		newBackend: generate.NewBackend,
	}
}

// Run converts one repository URL into a packaged skill. The clone is
// removed before Run returns, success or failure. When a history store
// is attached, a pending record is written up front and finalized with
// the outcome.
func (p *Pipeline) Run(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	loc, err := github.ParseLocator(rawURL)
	if err != nil {
		return nil, err
	}

	recordID := p.recordStart(ctx, loc)

	res, err := p.run(ctx, loc, opts)
	p.recordFinish(ctx, recordID, res, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, loc *github.Locator, opts Options) (*Result, error) {
	progress := opts.Progress

	progress.Report("Fetching repository metadata...")
	meta, err := p.github.FetchMetadata(ctx, loc.Owner, loc.Repo)
	if err != nil {
		// Metadata enriches the prompt but is not required.
		logging.Warn("fetching repository metadata", "repo", loc.FullName, "err", err)
		meta = nil
	}

	progress.Report("Cloning repository...")
	clonePath, err := p.fetcher.Clone(ctx, loc.URL)
	if err != nil {
		return nil, err
	}
	defer p.fetcher.Cleanup(clonePath)

	progress.Report("Analyzing repository structure...")
	evidence := p.fetcher.Analyze(clonePath)

	progress.Report("Generating skill content...")
	backend, err := p.newBackend(ctx, p.cfg)
	if err != nil {
		return nil, err
	}
	client := generate.NewClient(backend)

	genCtx := ctx
	if p.cfg.GenTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, p.cfg.GenTimeout)
		defer cancel()
	}
	doc, err := client.Generate(genCtx, &models.GenerationRequest{
		FullName: loc.FullName,
		URL:      loc.URL,
		Metadata: meta,
		Evidence: evidence,
	}, progress)
	if err != nil {
		return nil, err
	}

	progress.Report("Creating skill structure...")
	skillDir, err := p.builder.Build(doc)
	if err != nil {
		return nil, err
	}

	res := &Result{
		SkillName:   doc.SkillMD.Name(),
		Description: doc.SkillMD.Description(),
		SkillDir:    skillDir,
		Valid:       true,
	}

	if !opts.SkipValidate {
		progress.Report("Validating skill...")
		valid, msg := p.validate.Validate(ctx, skillDir)
		res.Valid = valid
		res.ValidateMsg = msg
		if !valid {
			// Validation is advisory; report and continue.
			logging.Warn("skill validation", "skill", res.SkillName, "msg", msg)
			progress.Report("Validation issues: " + msg)
		}
	}

	progress.Report("Packaging skill...")
	zipPath, err := p.packager.Package(skillDir)
	if err != nil {
		// A skill directory that never packaged is not a usable output.
		p.builder.Cleanup(skillDir)
		return nil, err
	}
	res.ZipPath = zipPath

	if opts.Install {
		progress.Report("Installing skill...")
		installPath, err := p.packager.Install(skillDir)
		if err != nil {
			return nil, err
		}
		res.InstallPath = installPath
		progress.Report("Skill installed to " + installPath)
	}

	progress.Report("Done")
	return res, nil
}

// RunBatch converts the URLs strictly in sequence, pausing between
// repositories. One failed repository does not stop the batch; the
// returned map holds the per-URL error, nil on success.
func (p *Pipeline) RunBatch(ctx context.Context, urls []string, opts Options) map[string]error {
	outcomes := make(map[string]error, len(urls))
	for i, url := range urls {
		if i > 0 && p.cfg.BatchPause > 0 {
			opts.Progress.Report(fmt.Sprintf("Pausing %s before next repository...", p.cfg.BatchPause))
			select {
			case <-ctx.Done():
				outcomes[url] = ctx.Err()
				continue
			case <-time.After(p.cfg.BatchPause):
			}
		}

		opts.Progress.Report(fmt.Sprintf("[%d/%d] %s", i+1, len(urls), url))
		_, err := p.Run(ctx, url, opts)
		if err != nil {
			logging.Error("batch item failed", "url", url, "err", err)
		}
		outcomes[url] = err
	}
	return outcomes
}

func (p *Pipeline) recordStart(ctx context.Context, loc *github.Locator) string {
	if p.store == nil {
		return ""
	}
	id, err := p.store.Add(ctx, models.Record{
		RepoURL:  loc.URL,
		RepoName: loc.FullName,
		Status:   models.StatusPending,
	})
	if err != nil {
		logging.Warn("recording generation start", "repo", loc.FullName, "err", err)
		return ""
	}
	return id
}

func (p *Pipeline) recordFinish(ctx context.Context, id string, res *Result, runErr error) {
	if p.store == nil || id == "" {
		return
	}

	fields := map[string]any{}
	if runErr != nil {
		fields["status"] = models.StatusFailed
		fields["error_message"] = runErr.Error()
	} else {
		fields["status"] = models.StatusSuccess
		fields["skill_name"] = res.SkillName
		fields["description"] = res.Description
		fields["zip_path"] = res.ZipPath
		fields["installed"] = res.InstallPath != ""
	}
	if err := p.store.Update(ctx, id, fields); err != nil {
		logging.Warn("recording generation outcome", "err", err)
	}
}
