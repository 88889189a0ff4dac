// Package sqlite persists per-guild configuration in the shared settings
// database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/apexguild/guildops/internal/app/ports"
	"github.com/apexguild/guildops/internal/db"
)

// SettingsStore implements ports.SettingsStore over SQLite.
type SettingsStore struct {
	database *db.Database
}

// NewSettingsStore wraps an opened database.
func NewSettingsStore(database *db.Database) *SettingsStore {
	return &SettingsStore{database: database}
}

// GetGuildSettings loads one guild's configuration. An unknown guild
// returns zero-valued settings, not an error.
func (s *SettingsStore) GetGuildSettings(ctx context.Context, guildID string) (ports.GuildSettings, error) {
	row := s.database.DB().QueryRowContext(ctx, `
		SELECT guild_id, sheet_id, forms_channel, ocr_channel, member_role, left_role
		FROM guild_settings
		WHERE guild_id = ?`, guildID)

	var out ports.GuildSettings
	err := row.Scan(&out.GuildID, &out.SheetID, &out.FormsChannel, &out.OCRChannel, &out.MemberRole, &out.LeftRole)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.GuildSettings{GuildID: guildID}, nil
	}
	if err != nil {
		return ports.GuildSettings{}, fmt.Errorf("load guild settings: %w", err)
	}
	return out, nil
}

// UpsertGuildSettings writes one guild's configuration in full.
func (s *SettingsStore) UpsertGuildSettings(ctx context.Context, settings ports.GuildSettings) error {
	_, err := s.database.DB().ExecContext(ctx, `
		INSERT INTO guild_settings (guild_id, sheet_id, forms_channel, ocr_channel, member_role, left_role)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			sheet_id = excluded.sheet_id,
			forms_channel = excluded.forms_channel,
			ocr_channel = excluded.ocr_channel,
			member_role = excluded.member_role,
			left_role = excluded.left_role,
			updated_at = CURRENT_TIMESTAMP`,
		settings.GuildID, settings.SheetID, settings.FormsChannel, settings.OCRChannel, settings.MemberRole, settings.LeftRole)
	if err != nil {
		return fmt.Errorf("upsert guild settings: %w", err)
	}
	return nil
}

// CountConfiguredGuilds counts guilds with a sheet configured, for the ops
// status endpoint.
func (s *SettingsStore) CountConfiguredGuilds(ctx context.Context) (int64, error) {
	var count int64
	err := s.database.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM guild_settings WHERE sheet_id != ''`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count configured guilds: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (s *SettingsStore) Close() error {
	return s.database.Close()
}
