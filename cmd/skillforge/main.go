package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skillforge/skillforge/internal/builder"
	"github.com/skillforge/skillforge/internal/config"
	"github.com/skillforge/skillforge/internal/github"
	"github.com/skillforge/skillforge/internal/history"
	"github.com/skillforge/skillforge/internal/logging"
	"github.com/skillforge/skillforge/internal/models"
	"github.com/skillforge/skillforge/internal/packager"
	"github.com/skillforge/skillforge/internal/pipeline"
	"github.com/skillforge/skillforge/internal/validate"
)

func main() {
	var verbose bool

	root := &cobra.Command{
		Use:   "skillforge",
		Short: "Convert GitHub repositories into packaged skills",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(verbose, os.Stderr)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		generateCmd(), batchCmd(), validateCmd(), packageCmd(),
		installCmd(), uninstallCmd(), historyCmd(), statsCmd(), schemaCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func printProgress(msg string) {
	fmt.Println("  " + msg)
}

// openStore returns the history store when one is configured, nil
// otherwise. A configured but unreachable store is an error.
func openStore(ctx context.Context, cfg *config.Config) (*history.Store, error) {
	if !cfg.HistoryEnabled() {
		return nil, nil
	}
	return history.Open(ctx, cfg)
}

func generateCmd() *cobra.Command {
	var install, skipValidate bool

	cmd := &cobra.Command{
		Use:   "generate [repo-url]",
		Short: "Generate a skill from a GitHub repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := config.Load()

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer func() { _ = store.Close(ctx) }()
			}

			res, err := pipeline.New(cfg, store).Run(ctx, args[0], pipeline.Options{
				Install:      install,
				SkipValidate: skipValidate,
				Progress:     printProgress,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\nSkill:       %s\n", res.SkillName)
			fmt.Printf("Description: %s\n", res.Description)
			fmt.Printf("Directory:   %s\n", res.SkillDir)
			fmt.Printf("Archive:     %s\n", res.ZipPath)
			if res.InstallPath != "" {
				fmt.Printf("Installed:   %s\n", res.InstallPath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&install, "install", false, "Install the skill after packaging")
	cmd.Flags().BoolVar(&skipValidate, "skip-validate", false, "Skip the validation step")
	return cmd
}

func batchCmd() *cobra.Command {
	var file string
	var install bool

	cmd := &cobra.Command{
		Use:   "batch [repo-url...]",
		Short: "Generate skills for several repositories in sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := config.Load()

			urls := args
			if file != "" {
				fromFile, err := readURLFile(file)
				if err != nil {
					return err
				}
				urls = append(urls, fromFile...)
			}
			if len(urls) == 0 {
				return fmt.Errorf("no repository URLs given (pass arguments or --file)")
			}

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer func() { _ = store.Close(ctx) }()
			}

			outcomes := pipeline.New(cfg, store).RunBatch(ctx, urls, pipeline.Options{
				Install:  install,
				Progress: printProgress,
			})

			failed := 0
			for _, url := range urls {
				if err := outcomes[url]; err != nil {
					failed++
					fmt.Printf("FAILED  %s: %v\n", url, err)
				} else {
					fmt.Printf("OK      %s\n", url)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d repositories failed", failed, len(urls))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "File with one repository URL per line")
	cmd.Flags().BoolVar(&install, "install", false, "Install each skill after packaging")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [skill-dir]",
		Short: "Validate a built skill directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			valid, msg := validate.New(cfg.ValidationScript).Validate(context.Background(), args[0])
			fmt.Println(msg)
			if !valid {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}
}

func packageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "package [skill-dir]",
		Short: "Package a skill directory into a zip archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if !validate.QuickCheck(args[0]) {
				return fmt.Errorf("%s is not a skill directory (no SKILL.md)", args[0])
			}
			zipPath, err := packager.New(cfg.OutputDir, cfg.InstallDir).Package(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Packaged to %s\n", zipPath)
			return nil
		},
	}
}

func installCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install [skill-dir]",
		Short: "Install a built skill into the skills directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if !validate.QuickCheck(args[0]) {
				return fmt.Errorf("%s is not a skill directory (no SKILL.md)", args[0])
			}
			installPath, err := packager.New(cfg.OutputDir, cfg.InstallDir).Install(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Installed to %s\n", installPath)

			fm := builder.ReadFrontmatter(installPath)
			if name, ok := fm["name"].(string); ok {
				fmt.Printf("Skill:       %s\n", name)
			}
			if desc, ok := fm["description"].(string); ok {
				fmt.Printf("Description: %s\n", desc)
			}
			return nil
		},
	}
}

func uninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall [skill-name]",
		Short: "Remove an installed skill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := packager.New(cfg.OutputDir, cfg.InstallDir).Uninstall(args[0]); err != nil {
				return err
			}
			fmt.Printf("Uninstalled %s\n", args[0])
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int
	var search string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show skill generation history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := config.Load()
			if !cfg.HistoryEnabled() {
				return fmt.Errorf("history requires SURREAL_URL to be configured")
			}

			store, err := history.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close(ctx) }()

			var records []models.Record
			if search != "" {
				records, err = store.Search(ctx, search)
			} else {
				records, err = store.List(ctx, limit)
			}
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("No history")
				return nil
			}
			for _, r := range records {
				name := r.SkillName
				if name == "" {
					name = "-"
				}
				line := fmt.Sprintf("%s  %-8s %-30s %s",
					r.CreatedAt.Format("2006-01-02 15:04"), r.Status, name, r.RepoName)
				if r.Installed {
					line += "  [installed]"
				}
				fmt.Println(line)
				if r.Error != nil {
					fmt.Printf("    error: %s\n", *r.Error)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of records to show")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by skill name or repository URL")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show generation counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := config.Load()
			if !cfg.HistoryEnabled() {
				return fmt.Errorf("stats requires SURREAL_URL to be configured")
			}

			store, err := history.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close(ctx) }()

			stats, err := store.GetStats(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Total:      %d\n", stats.Total)
			fmt.Printf("Successful: %d\n", stats.Successful)
			fmt.Printf("Failed:     %d\n", stats.Failed)
			fmt.Printf("Installed:  %d\n", stats.Installed)
			return nil
		},
	}
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Initialize/update the history schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := config.Load()
			if !cfg.HistoryEnabled() {
				return fmt.Errorf("schema requires SURREAL_URL to be configured")
			}

			store, err := history.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close(ctx) }()

			if err := store.InitSchema(ctx); err != nil {
				return err
			}
			fmt.Println("Schema initialized")
			return nil
		},
	}
}

// readURLFile reads one repository URL per line, skipping blank lines
// and # comments.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading URL file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if ok, reason := github.ValidateURL(line); !ok {
			return nil, fmt.Errorf("invalid URL %q: %s", line, reason)
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading URL file: %w", err)
	}
	return urls, nil
}
