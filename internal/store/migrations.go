package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create plugin tables",
		SQL: `
			CREATE TABLE plugins (
				id             TEXT PRIMARY KEY,
				url            TEXT NOT NULL,
				original_url   TEXT NOT NULL DEFAULT '',
				requested_ref  TEXT NOT NULL,
				ref_kind       TEXT NOT NULL DEFAULT '',
				commit_id      TEXT NOT NULL DEFAULT '',
				enabled        INTEGER NOT NULL DEFAULT 0,
				state          TEXT NOT NULL DEFAULT 'loaded',
				installed_at   TEXT NOT NULL,
				updated_at     TEXT NOT NULL
			);

			CREATE INDEX idx_plugins_url ON plugins (url);

			CREATE TABLE blacklist_overrides (
				plugin_id   TEXT PRIMARY KEY,
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE TABLE registry_meta (
				key    TEXT PRIMARY KEY,
				value  TEXT NOT NULL
			);
		`,
	},
}
