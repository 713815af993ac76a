package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Vault store (SQLite).
var Migrations = migrate.NewGroup("vault")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_vault_journal",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vault_journal (
    id         TEXT PRIMARY KEY,
    vault_id   TEXT NOT NULL DEFAULT '',
    account    TEXT NOT NULL DEFAULT '',
    kind       TEXT NOT NULL DEFAULT '',
    amount     INTEGER NOT NULL DEFAULT 0,
    held_after INTEGER NOT NULL DEFAULT 0,
    timestamp  TEXT NOT NULL DEFAULT (datetime('now')),
    metadata   TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_vault_journal_vault ON vault_journal (vault_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_vault_journal_account ON vault_journal (vault_id, account, timestamp);
CREATE INDEX IF NOT EXISTS idx_vault_journal_kind ON vault_journal (vault_id, kind, timestamp);
CREATE INDEX IF NOT EXISTS idx_vault_journal_timestamp ON vault_journal (timestamp);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vault_journal`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vault_snapshots",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vault_snapshots (
    id         TEXT PRIMARY KEY,
    vault_id   TEXT NOT NULL DEFAULT '',
    held       INTEGER NOT NULL DEFAULT 0,
    baseline   INTEGER NOT NULL DEFAULT 0,
    accounted  TEXT NOT NULL DEFAULT '{}',
    dosed      INTEGER NOT NULL DEFAULT 0,
    destroyed  INTEGER NOT NULL DEFAULT 0,
    taken_at   TEXT NOT NULL DEFAULT (datetime('now')),
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_vault_snapshots_vault ON vault_snapshots (vault_id, taken_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vault_snapshots`)
				return err
			},
		},
	)
}
