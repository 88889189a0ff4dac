package ports

import "context"

// GuildSettings is the per-guild configuration surface. Zero values mean
// "not configured".
type GuildSettings struct {
	GuildID      string
	SheetID      string
	FormsChannel string
	OCRChannel   string
	MemberRole   string
	LeftRole     string
}

// SettingsStore persists per-guild configuration.
type SettingsStore interface {
	GetGuildSettings(ctx context.Context, guildID string) (GuildSettings, error)
	UpsertGuildSettings(ctx context.Context, settings GuildSettings) error
	CountConfiguredGuilds(ctx context.Context) (int64, error)
	Close() error
}
