package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a plugin record does not exist.
var ErrNotFound = errors.New("plugin record not found")

// PluginRecord is the persisted projection of an installed plugin. It is the
// only plugin state that survives a process restart; everything else is
// rebuilt from it plus fresh registry and manifest reads.
type PluginRecord struct {
	ID           string
	URL          string
	OriginalURL  string // pre-redirect URL, empty if never redirected
	RequestedRef string
	RefKind      string
	Commit       string
	Enabled      bool
	State        string
	InstalledAt  time.Time
	UpdatedAt    time.Time
}

// PluginStore persists installed-plugin records, blacklist overrides and
// registry cache metadata.
type PluginStore struct {
	db *DB
}

// NewPluginStore creates a plugin store using the given database.
func NewPluginStore(db *DB) *PluginStore {
	return &PluginStore{db: db}
}

// Save inserts or replaces a plugin record. The write is committed before
// Save returns.
func (s *PluginStore) Save(rec PluginRecord) error {
	if rec.InstalledAt.IsZero() {
		rec.InstalledAt = time.Now().UTC()
	}
	rec.UpdatedAt = time.Now().UTC()

	_, err := s.db.sql.Exec(`
		INSERT INTO plugins (id, url, original_url, requested_ref, ref_kind, commit_id, enabled, state, installed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			original_url = excluded.original_url,
			requested_ref = excluded.requested_ref,
			ref_kind = excluded.ref_kind,
			commit_id = excluded.commit_id,
			enabled = excluded.enabled,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		rec.ID, rec.URL, rec.OriginalURL, rec.RequestedRef, rec.RefKind, rec.Commit,
		boolToInt(rec.Enabled), rec.State,
		rec.InstalledAt.Format(time.RFC3339), rec.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving plugin %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns the record for a plugin id, or ErrNotFound.
func (s *PluginStore) Get(id string) (PluginRecord, error) {
	row := s.db.sql.QueryRow(`
		SELECT id, url, original_url, requested_ref, ref_kind, commit_id, enabled, state, installed_at, updated_at
		FROM plugins WHERE id = ?`, id)
	rec, err := scanPlugin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return PluginRecord{}, fmt.Errorf("plugin %s: %w", id, ErrNotFound)
	}
	return rec, err
}

// List returns all plugin records ordered by id.
func (s *PluginStore) List() ([]PluginRecord, error) {
	rows, err := s.db.sql.Query(`
		SELECT id, url, original_url, requested_ref, ref_kind, commit_id, enabled, state, installed_at, updated_at
		FROM plugins ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing plugins: %w", err)
	}
	defer rows.Close()

	var recs []PluginRecord
	for rows.Next() {
		rec, err := scanPlugin(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Delete removes a plugin record. Deleting a missing record is not an error.
func (s *PluginStore) Delete(id string) error {
	if _, err := s.db.sql.Exec("DELETE FROM plugins WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting plugin %s: %w", id, err)
	}
	return nil
}

// SetOverride records that the user explicitly overrode the blacklist for a
// plugin, so they are not asked again after a restart.
func (s *PluginStore) SetOverride(pluginID string) error {
	_, err := s.db.sql.Exec(`
		INSERT INTO blacklist_overrides (plugin_id) VALUES (?)
		ON CONFLICT(plugin_id) DO NOTHING`, pluginID)
	if err != nil {
		return fmt.Errorf("saving blacklist override for %s: %w", pluginID, err)
	}
	return nil
}

// HasOverride reports whether a blacklist override is persisted for a plugin.
func (s *PluginStore) HasOverride(pluginID string) (bool, error) {
	var count int
	err := s.db.sql.QueryRow(
		"SELECT COUNT(*) FROM blacklist_overrides WHERE plugin_id = ?", pluginID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking blacklist override for %s: %w", pluginID, err)
	}
	return count > 0, nil
}

// ClearOverride removes a persisted blacklist override.
func (s *PluginStore) ClearOverride(pluginID string) error {
	if _, err := s.db.sql.Exec("DELETE FROM blacklist_overrides WHERE plugin_id = ?", pluginID); err != nil {
		return fmt.Errorf("clearing blacklist override for %s: %w", pluginID, err)
	}
	return nil
}

// SetMeta stores a registry-cache metadata value (last fetch time, TTL).
func (s *PluginStore) SetMeta(key, value string) error {
	_, err := s.db.sql.Exec(`
		INSERT INTO registry_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("saving registry meta %s: %w", key, err)
	}
	return nil
}

// GetMeta reads a registry-cache metadata value; missing keys return "".
func (s *PluginStore) GetMeta(key string) (string, error) {
	var value string
	err := s.db.sql.QueryRow("SELECT value FROM registry_meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading registry meta %s: %w", key, err)
	}
	return value, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlugin(row scanner) (PluginRecord, error) {
	var rec PluginRecord
	var enabled int
	var installedAt, updatedAt string
	err := row.Scan(
		&rec.ID, &rec.URL, &rec.OriginalURL, &rec.RequestedRef, &rec.RefKind,
		&rec.Commit, &enabled, &rec.State, &installedAt, &updatedAt,
	)
	if err != nil {
		return PluginRecord{}, err
	}
	rec.Enabled = enabled != 0
	if t, err := time.Parse(time.RFC3339, installedAt); err == nil {
		rec.InstalledAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		rec.UpdatedAt = t
	}
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
