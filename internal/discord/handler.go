package discord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/apexguild/guildops/internal/app/domain"
	"github.com/apexguild/guildops/internal/app/ports"
	"github.com/apexguild/guildops/internal/app/services"
	"github.com/apexguild/guildops/internal/observability"
	"github.com/apexguild/guildops/internal/workerpool"
)

const historyPageSize = 100

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".webp"}

// historyReader is the slice of the Discord REST client the backfill path
// needs. *discordgo.Session satisfies it.
type historyReader interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

// roleManager is the slice of the Discord REST client role automation needs.
type roleManager interface {
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

// messageReactor is the slice of the Discord REST client reaction feedback
// needs.
type messageReactor interface {
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
}

// rosterSession groups what the screenshot path needs from a session.
type rosterSession interface {
	messageReactor
	roleManager
}

// Handler routes inbound guild messages into the extraction and OCR
// pipelines. It is registered once per gateway session.
type Handler struct {
	settings      ports.SettingsStore
	sync          *services.SyncService
	recognizer    ports.TextRecognizer
	pool          *workerpool.Pool
	http          *http.Client
	log           *slog.Logger
	maxImageBytes int64
}

// NewHandler wires the message handler.
func NewHandler(settings ports.SettingsStore, sync *services.SyncService, recognizer ports.TextRecognizer, pool *workerpool.Pool, log *slog.Logger, maxImageBytes int64) *Handler {
	return &Handler{
		settings:      settings,
		sync:          sync,
		recognizer:    recognizer,
		pool:          pool,
		http:          &http.Client{Timeout: 30 * time.Second},
		log:           log,
		maxImageBytes: maxImageBytes,
	}
}

// Register attaches the gateway callbacks.
func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(h.onMessageCreate)
}

func (h *Handler) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" || m.Author == nil {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	ctx := observability.WithEvent(context.Background(), m.GuildID, m.ChannelID, m.ID)

	settings, err := h.settings.GetGuildSettings(ctx, m.GuildID)
	if err != nil {
		h.log.ErrorContext(ctx, "load guild settings", "error", err)
		return
	}

	if settings.FormsChannel != "" && m.ChannelID == settings.FormsChannel {
		h.handleFormMessage(ctx, s, m.Message, settings)
	}
	if settings.OCRChannel != "" && m.ChannelID == settings.OCRChannel && !m.Author.Bot {
		h.handleRosterImage(ctx, s, m.Message, settings)
	}
}

// handleFormMessage runs extraction and, on a complete record, a one-record
// reconciliation. Extraction failures are expected on this channel and only
// logged at debug; the parse debug command surfaces them on demand.
func (h *Handler) handleFormMessage(ctx context.Context, rest messageReactor, m *discordgo.Message, settings ports.GuildSettings) {
	record, reasons := services.ExtractMembership(PayloadFromMessage(m))
	if len(reasons) > 0 {
		h.log.DebugContext(ctx, "form message skipped", "reasons", strings.Join(reasons, "; "))
		return
	}
	if settings.SheetID == "" {
		return
	}

	if _, err := h.sync.SyncRecords(ctx, m.GuildID, settings.SheetID, []domain.MembershipRecord{record}); err != nil {
		h.log.WarnContext(ctx, "form sync failed", "error", err)
		return
	}
	if err := rest.MessageReactionAdd(m.ChannelID, m.ID, "✅"); err != nil {
		h.log.DebugContext(ctx, "reaction failed", "error", err)
	}
}

// handleRosterImage runs OCR over every image attachment and applies each
// classified transition. OCR failures are logged and otherwise silent; most
// images carry no roster event at all. The 👀 acknowledgement covers every
// classified line, even when the name has no ledger row.
func (h *Handler) handleRosterImage(ctx context.Context, rest rosterSession, m *discordgo.Message, settings ports.GuildSettings) {
	if len(m.Attachments) == 0 || settings.SheetID == "" {
		return
	}

	processed := 0
	for _, att := range m.Attachments {
		if att == nil || !isImageFilename(att.Filename) {
			continue
		}
		if int64(att.Size) > h.maxImageBytes {
			h.log.DebugContext(ctx, "attachment too large", "filename", att.Filename, "size", att.Size)
			continue
		}

		image, err := h.downloadAttachment(ctx, att.URL)
		if err != nil {
			h.log.ErrorContext(ctx, "attachment download failed", "filename", att.Filename, "error", err)
			continue
		}

		text, err := workerpool.Run(ctx, h.pool, func() (string, error) {
			return h.recognizer.Recognize(ctx, image)
		})
		if err != nil {
			h.log.ErrorContext(ctx, "ocr failed", "filename", att.Filename, "error", err)
			continue
		}

		event, ok := services.ClassifyRosterText(services.NormalizeRecognizedText(text))
		if !ok {
			continue
		}
		processed++

		discordID, err := h.sync.ApplyStatusEvent(ctx, m.GuildID, settings.SheetID, event)
		if errors.Is(err, services.ErrRowNotFound) {
			h.log.InfoContext(ctx, "recognized name not in ledger", "ign", event.IGN)
			continue
		}
		if err != nil {
			h.log.WarnContext(ctx, "status update failed", "ign", event.IGN, "error", err)
			continue
		}

		if event.Status == domain.StatusLeft && discordID != "" {
			if err := h.applyLeftRoles(rest, m.GuildID, discordID, settings); err != nil {
				h.log.WarnContext(ctx, "role transition failed", "discord_id", discordID, "error", err)
			}
		}
	}

	if processed > 0 {
		if err := rest.MessageReactionAdd(m.ChannelID, m.ID, "👀"); err != nil {
			h.log.DebugContext(ctx, "reaction failed", "error", err)
		}
	}
}

// applyLeftRoles swaps the member role for the left role when both sides are
// configured. Either side failing is reported to the caller, not fatal to
// the sheet update that already happened.
func (h *Handler) applyLeftRoles(rest roleManager, guildID, discordID string, settings ports.GuildSettings) error {
	if settings.MemberRole != "" {
		if err := rest.GuildMemberRoleRemove(guildID, discordID, settings.MemberRole); err != nil {
			return fmt.Errorf("remove member role: %w", err)
		}
	}
	if settings.LeftRole != "" {
		if err := rest.GuildMemberRoleAdd(guildID, discordID, settings.LeftRole); err != nil {
			return fmt.Errorf("add left role: %w", err)
		}
	}
	return nil
}

// CollectHistory streams a channel's full history through extraction and
// returns every complete record ordered oldest-to-newest, plus how many
// messages were skipped for incomplete extraction.
func (h *Handler) CollectHistory(rest historyReader, channelID string) ([]domain.MembershipRecord, int, error) {
	var records []domain.MembershipRecord
	skipped := 0

	beforeID := ""
	for {
		page, err := rest.ChannelMessages(channelID, historyPageSize, beforeID, "", "")
		if err != nil {
			return nil, 0, fmt.Errorf("read channel history: %w", err)
		}
		if len(page) == 0 {
			break
		}
		for _, m := range page {
			record, reasons := services.ExtractMembership(PayloadFromMessage(m))
			if len(reasons) > 0 {
				skipped++
				continue
			}
			records = append(records, record)
		}
		beforeID = page[len(page)-1].ID
	}

	// Pages arrive newest-first; reverse so within-batch last-write-wins
	// favors the most recent evidence.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, skipped, nil
}

// SyncHistory collects a channel's history and issues exactly one
// reconciliation call for the whole batch.
func (h *Handler) SyncHistory(ctx context.Context, rest historyReader, guildID, channelID, sheetID string) (services.SyncSummary, int, error) {
	records, skipped, err := h.CollectHistory(rest, channelID)
	if err != nil {
		return services.SyncSummary{}, 0, err
	}
	summary, err := h.sync.SyncRecords(ctx, guildID, sheetID, records)
	if err != nil {
		return services.SyncSummary{}, skipped, err
	}
	return summary, skipped, nil
}

func (h *Handler) downloadAttachment(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, h.maxImageBytes))
}

func isImageFilename(filename string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
