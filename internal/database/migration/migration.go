package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_organizations",
		SQL: `CREATE TABLE IF NOT EXISTS organizations (
  name            TEXT        PRIMARY KEY,
  image_count     BIGINT      NOT NULL DEFAULT 0 CHECK (image_count >= 0),
  selected_doc_id TEXT,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  uid           TEXT        PRIMARY KEY,
  first_name    TEXT        NOT NULL,
  last_name     TEXT        NOT NULL DEFAULT '',
  email         TEXT        NOT NULL,
  organization  TEXT        NOT NULL REFERENCES organizations (name),
  role          TEXT        NOT NULL CHECK (role IN ('admin', 'member')),
  joined_on     TEXT        NOT NULL,
  password_hash TEXT        NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_users_email",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (lower(email));`,
	},
	{
		Name: "create_table_organization_members",
		SQL: `CREATE TABLE IF NOT EXISTS organization_members (
  organization TEXT        NOT NULL REFERENCES organizations (name) ON DELETE CASCADE,
  uid          TEXT        NOT NULL REFERENCES users (uid) ON DELETE CASCADE,
  first_name   TEXT        NOT NULL,
  last_name    TEXT        NOT NULL DEFAULT '',
  email        TEXT        NOT NULL,
  role         TEXT        NOT NULL,
  joined_on    TEXT        NOT NULL,
  joined_at    TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
  PRIMARY KEY (organization, uid)
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  organization   TEXT        NOT NULL REFERENCES organizations (name) ON DELETE CASCADE,
  id             TEXT        NOT NULL,
  image_url      TEXT        NOT NULL,
  storage_path   TEXT        NOT NULL,
  uploader_name  TEXT        NOT NULL DEFAULT '',
  uploader_email TEXT        NOT NULL DEFAULT '',
  uploader_uid   TEXT        NOT NULL,
  date_of_upload TEXT        NOT NULL,
  title          TEXT        NOT NULL DEFAULT '',
  info           TEXT        NOT NULL DEFAULT '',
  event_date     TEXT        NOT NULL DEFAULT '',
  event_on       DATE,
  month_index    SMALLINT    NOT NULL CHECK (month_index BETWEEN 0 AND 11),
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (organization, id)
);`,
	},
	{
		Name: "create_index_documents_event_on",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_event_on ON documents (organization, event_on DESC NULLS LAST);`,
	},
	{
		Name: "create_index_documents_storage_path",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_storage_path ON documents (storage_path);`,
	},
	{
		Name: "create_table_document_month_buckets",
		SQL: `CREATE TABLE IF NOT EXISTS document_month_buckets (
  organization   TEXT        NOT NULL REFERENCES organizations (name) ON DELETE CASCADE,
  month_index    SMALLINT    NOT NULL CHECK (month_index BETWEEN 0 AND 11),
  id             TEXT        NOT NULL,
  image_url      TEXT        NOT NULL,
  storage_path   TEXT        NOT NULL,
  uploader_name  TEXT        NOT NULL DEFAULT '',
  uploader_email TEXT        NOT NULL DEFAULT '',
  uploader_uid   TEXT        NOT NULL,
  date_of_upload TEXT        NOT NULL,
  title          TEXT        NOT NULL DEFAULT '',
  info           TEXT        NOT NULL DEFAULT '',
  event_date     TEXT        NOT NULL DEFAULT '',
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (organization, month_index, id)
);`,
	},
}

// EnsureMigrated checks if the schema exists and runs migrations if it doesn't.
// The month bucket table is created last and serves as the sentinel.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger *slog.Logger, dbHost string) error {
	start := time.Now()
	log := logger.With("component", "database", "db_host", dbHost)

	log.Info("db_migration_check", "status", "starting")

	var exists bool
	query := "SELECT to_regclass('public.document_month_buckets') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		log.Error("db_migration_failed",
			"status", "error",
			"error_message", fmt.Sprintf("failed to check sentinel table: %v", err),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			"status", "success",
			"detail", "schema already exists, skipping migration",
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	log.Info("db_migration_start", "status", "in_progress", "steps", len(steps))

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			log.Error("db_migration_failed",
				"status", "error",
				"migration_step", step.Name,
				"error_message", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
				"step_duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			"status", "success",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	log.Info("db_migration_success",
		"status", "success",
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}
