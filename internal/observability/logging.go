package observability

import (
	"context"
	"io"
	"log/slog"
)

type eventAwareHandler struct {
	next slog.Handler
}

// WrapSlogHandler adds Discord event context fields to structured logs.
func WrapSlogHandler(next slog.Handler) slog.Handler {
	if next == nil {
		next = slog.NewTextHandler(io.Discard, nil)
	}
	return &eventAwareHandler{next: next}
}

func (h *eventAwareHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *eventAwareHandler) Handle(ctx context.Context, record slog.Record) error {
	if guildID, ok := GuildIDFromContext(ctx); ok {
		record.AddAttrs(slog.String("guild_id", guildID))
	}
	if channelID, ok := ChannelIDFromContext(ctx); ok {
		record.AddAttrs(slog.String("channel_id", channelID))
	}
	if messageID, ok := MessageIDFromContext(ctx); ok {
		record.AddAttrs(slog.String("message_id", messageID))
	}
	return h.next.Handle(ctx, record)
}

func (h *eventAwareHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &eventAwareHandler{next: h.next.WithAttrs(attrs)}
}

func (h *eventAwareHandler) WithGroup(name string) slog.Handler {
	return &eventAwareHandler{next: h.next.WithGroup(name)}
}
