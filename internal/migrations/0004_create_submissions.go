package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0004, Down0004)
}

func Up0004(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
CREATE TABLE submissions (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    task_id UUID NOT NULL REFERENCES tasks (id),
    uid UUID NOT NULL REFERENCES users (id),
    language TEXT NOT NULL,
    groups JSONB,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);
`)
	if err != nil {
		return err
	}

	statements := []string{
		`CREATE INDEX submissions_uid_index ON submissions (uid);`,
		`CREATE INDEX submissions_task_id_index ON submissions (task_id);`,
		`CREATE INDEX submissions_created_at_index ON submissions (created_at DESC, id);`,
	}
	for _, statement := range statements {
		_, err = tx.ExecContext(ctx, statement)
		if err != nil {
			return err
		}
	}

	return nil
}

func Down0004(ctx context.Context, tx *sql.Tx) error {
	statements := []string{
		`DROP INDEX submissions_created_at_index;`,
		`DROP INDEX submissions_task_id_index;`,
		`DROP INDEX submissions_uid_index;`,
		`DROP TABLE submissions;`,
	}
	for _, statement := range statements {
		_, err := tx.ExecContext(ctx, statement)
		if err != nil {
			return err
		}
	}

	return nil
}
