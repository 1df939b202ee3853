package storage

import (
	"context"
	"database/sql"
	"fmt"

	"ewintr.nl/vidsum/model"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

type PostgresInfo struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type Postgres struct {
	db *sql.DB
}

func NewPostgres(info PostgresInfo) (*Postgres, error) {
	db, err := sql.Open("postgres", fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		info.Host, info.Port, info.User, info.Password, info.Database))
	if err != nil {
		return &Postgres{}, err
	}
	p := &Postgres{db: db}
	if err := p.migrate(pgMigration); err != nil {
		return &Postgres{}, err
	}

	return p, nil
}

func (p *Postgres) migrate(wanted []string) error {
	query := `CREATE TABLE IF NOT EXISTS migration
("id" SERIAL PRIMARY KEY, "query" TEXT)`
	if _, err := p.db.Exec(query); err != nil {
		return err
	}

	// find existing
	rows, err := p.db.Query(`SELECT query FROM migration ORDER BY id`)
	if err != nil {
		return err
	}

	existing := []string{}
	for rows.Next() {
		var query string
		if err := rows.Scan(&query); err != nil {
			return err
		}
		existing = append(existing, query)
	}
	rows.Close()

	// compare
	missing, err := compareMigrations(wanted, existing)
	if err != nil {
		return err
	}

	// execute missing
	for _, query := range missing {
		if _, err := p.db.Exec(query); err != nil {
			return err
		}

		// register
		if _, err := p.db.Exec(`
INSERT INTO migration
(query) VALUES ($1)
`, query); err != nil {
			return err
		}
	}

	return nil
}

func compareMigrations(wanted, existing []string) ([]string, error) {
	needed := []string{}
	if len(wanted) < len(existing) {
		return []string{}, fmt.Errorf("not enough migrations")
	}

	for i, want := range wanted {
		switch {
		case i >= len(existing):
			needed = append(needed, want)
		case want == existing[i]:
			// do nothing
		case want != existing[i]:
			return []string{}, fmt.Errorf("incompatible migration: %v", want)
		}
	}

	return needed, nil
}

var pgMigration = []string{
	`CREATE TABLE processing_result (
id uuid PRIMARY KEY,
video_id VARCHAR(11) NOT NULL,
channel_title VARCHAR(255) NOT NULL DEFAULT '',
title VARCHAR(255) NOT NULL DEFAULT '',
success BOOLEAN NOT NULL,
transcript_length INTEGER NOT NULL DEFAULT 0,
summary_length INTEGER NOT NULL DEFAULT 0,
storage_url TEXT NOT NULL DEFAULT '',
error_kind VARCHAR(64) NOT NULL DEFAULT '',
error_detail TEXT NOT NULL DEFAULT '',
created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX processing_result_video_id_idx ON processing_result (video_id)`,
}

// PostgresResultRepository is an append-only log of pipeline outcomes.
// Records are only ever inserted, the pipeline itself stays stateless.
type PostgresResultRepository struct {
	postgres *Postgres
}

func NewPostgresResultRepository(postgres *Postgres) *PostgresResultRepository {
	return &PostgresResultRepository{postgres: postgres}
}

func (r *PostgresResultRepository) Record(ctx context.Context, result model.ProcessingResult) error {
	_, err := r.postgres.db.ExecContext(ctx, `
INSERT INTO processing_result
(id, video_id, channel_title, title, success, transcript_length, summary_length, storage_url, error_kind, error_detail)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		result.ID, string(result.VideoID), result.ChannelTitle, result.Title, result.Success,
		result.TranscriptLength, result.SummaryLength, result.StorageURL, string(result.Kind), result.Detail)
	if err != nil {
		return fmt.Errorf("failed to record processing result: %w", err)
	}

	return nil
}

func (r *PostgresResultRepository) FindLatest(ctx context.Context, limit int) ([]model.ProcessingResult, error) {
	rows, err := r.postgres.db.QueryContext(ctx, `
SELECT id, video_id, channel_title, title, success, transcript_length, summary_length, storage_url, error_kind, error_detail
FROM processing_result
ORDER BY created_at DESC
LIMIT $1`, limit)
	if err != nil {
		return []model.ProcessingResult{}, err
	}
	defer rows.Close()

	results := []model.ProcessingResult{}
	for rows.Next() {
		var result model.ProcessingResult
		var id, videoID, kind string
		if err := rows.Scan(&id, &videoID, &result.ChannelTitle, &result.Title, &result.Success,
			&result.TranscriptLength, &result.SummaryLength, &result.StorageURL, &kind, &result.Detail); err != nil {
			return []model.ProcessingResult{}, err
		}
		result.ID, _ = uuid.Parse(id)
		result.VideoID = model.YoutubeVideoID(videoID)
		result.Kind = model.ErrorKind(kind)
		results = append(results, result)
	}

	return results, rows.Err()
}
