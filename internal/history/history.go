// Package history records skill generation runs in SurrealDB. The
// store is optional; the pipeline runs without it when no endpoint is
// configured.
package history

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/surrealdb/surrealdb.go"

	"github.com/skillforge/skillforge/internal/config"
	"github.com/skillforge/skillforge/internal/models"
)

type Store struct {
	db *sdk.DB
}

func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	db, err := sdk.FromEndpointURLString(ctx, cfg.SurrealURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, sdk.Auth{
		Namespace: cfg.SurrealNS,
		Database:  cfg.SurrealDB,
		Username:  cfg.SurrealUser,
		Password:  cfg.SurrealPass,
	}); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("signing in: %w", err)
	}

	if err := db.Use(ctx, cfg.SurrealNS, cfg.SurrealDB); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("selecting ns/db: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close(ctx)
}

func (s *Store) InitSchema(ctx context.Context) error {
	schema := `
DEFINE TABLE IF NOT EXISTS skill SCHEMAFULL;

DEFINE FIELD IF NOT EXISTS skill_name    ON TABLE skill TYPE string;
DEFINE FIELD IF NOT EXISTS repo_url      ON TABLE skill TYPE string;
DEFINE FIELD IF NOT EXISTS repo_name     ON TABLE skill TYPE string;
DEFINE FIELD IF NOT EXISTS description   ON TABLE skill TYPE option<string>;
DEFINE FIELD IF NOT EXISTS status        ON TABLE skill TYPE string;
DEFINE FIELD IF NOT EXISTS error_message ON TABLE skill TYPE option<string>;
DEFINE FIELD IF NOT EXISTS zip_path      ON TABLE skill TYPE option<string>;
DEFINE FIELD IF NOT EXISTS installed     ON TABLE skill TYPE bool;
DEFINE FIELD IF NOT EXISTS created_at    ON TABLE skill TYPE datetime;

DEFINE INDEX IF NOT EXISTS idx_repo_url   ON TABLE skill FIELDS repo_url;
DEFINE INDEX IF NOT EXISTS idx_created_at ON TABLE skill FIELDS created_at;
`
	if _, err := sdk.Query[any](ctx, s.db, schema, nil); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// Add records a new generation run and returns its record ID.
func (s *Store) Add(ctx context.Context, rec models.Record) (string, error) {
	id := fmt.Sprintf("%s_%d", rec.RepoName, time.Now().UnixNano())
	data := map[string]any{
		"skill_name": rec.SkillName,
		"repo_url":   rec.RepoURL,
		"repo_name":  rec.RepoName,
		"status":     rec.Status,
		"installed":  rec.Installed,
		"created_at": time.Now().UTC(),
	}
	// Only set optional fields when present to avoid CBOR NULL vs
	// SurrealDB NONE mismatch.
	if rec.Description != nil {
		data["description"] = *rec.Description
	}
	if rec.Error != nil {
		data["error_message"] = *rec.Error
	}
	if rec.ZipPath != nil {
		data["zip_path"] = *rec.ZipPath
	}

	_, err := sdk.Query[any](ctx, s.db,
		`UPSERT type::thing("skill", $id) MERGE $data`,
		map[string]any{
			"id":   id,
			"data": data,
		})
	if err != nil {
		return "", fmt.Errorf("recording %s: %w", rec.RepoName, err)
	}
	return id, nil
}

// Update merges the given fields into an existing record.
func (s *Store) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	_, err := sdk.Query[any](ctx, s.db,
		`UPDATE type::thing("skill", $id) MERGE $data`,
		map[string]any{
			"id":   id,
			"data": fields,
		})
	if err != nil {
		return fmt.Errorf("updating record %s: %w", id, err)
	}
	return nil
}

// List returns the most recent generation records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]models.Record, error) {
	results, err := sdk.Query[[]models.Record](ctx, s.db,
		`SELECT skill_name, repo_url, repo_name, description, status,
			error_message, zip_path, installed, created_at
		FROM skill ORDER BY created_at DESC LIMIT $limit`,
		map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	if len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}

// Search returns records whose skill name or repository URL contains
// the term, newest first.
func (s *Store) Search(ctx context.Context, term string) ([]models.Record, error) {
	results, err := sdk.Query[[]models.Record](ctx, s.db,
		`SELECT skill_name, repo_url, repo_name, description, status,
			error_message, zip_path, installed, created_at
		FROM skill
		WHERE string::contains(skill_name, $term) OR string::contains(repo_url, $term)
		ORDER BY created_at DESC`,
		map[string]any{"term": term})
	if err != nil {
		return nil, fmt.Errorf("searching history: %w", err)
	}
	if len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}

type Stats struct {
	Total      int
	Successful int
	Failed     int
	Installed  int
}

func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	results, err := sdk.Query[[]map[string]any](ctx, s.db,
		`SELECT
			count() AS total,
			math::sum(IF status = "success" THEN 1 ELSE 0 END) AS successful,
			math::sum(IF status = "failed" THEN 1 ELSE 0 END) AS failed,
			math::sum(IF installed THEN 1 ELSE 0 END) AS installed
		FROM skill GROUP ALL`,
		nil)
	if err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}
	if len(*results) == 0 || len((*results)[0].Result) == 0 {
		return &Stats{}, nil
	}
	row := (*results)[0].Result[0]
	return &Stats{
		Total:      toInt(row["total"]),
		Successful: toInt(row["successful"]),
		Failed:     toInt(row["failed"]),
		Installed:  toInt(row["installed"]),
	}, nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	default:
		return 0
	}
}
