package observability

import "context"

type contextKey string

const (
	guildIDKey   contextKey = "guild_id"
	channelIDKey contextKey = "channel_id"
	messageIDKey contextKey = "message_id"
)

// WithEvent stamps the identifiers of one inbound Discord event onto the
// context so every log line emitted while handling it carries them.
func WithEvent(ctx context.Context, guildID, channelID, messageID string) context.Context {
	ctx = context.WithValue(ctx, guildIDKey, guildID)
	ctx = context.WithValue(ctx, channelIDKey, channelID)
	return context.WithValue(ctx, messageIDKey, messageID)
}

func GuildIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(guildIDKey).(string)
	return v, ok && v != ""
}

func ChannelIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(channelIDKey).(string)
	return v, ok && v != ""
}

func MessageIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(messageIDKey).(string)
	return v, ok && v != ""
}
