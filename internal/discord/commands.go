package discord

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/apexguild/guildops/internal/app/ports"
	"github.com/apexguild/guildops/internal/app/services"
	"github.com/apexguild/guildops/internal/observability"
)

// Commands is the admin command surface: configuration, status, history
// backfill, and a parse debugger for extraction failures.
type Commands struct {
	settings        ports.SettingsStore
	handler         *Handler
	credentialsFile string
	log             *slog.Logger
}

// NewCommands wires the slash-command handlers.
func NewCommands(settings ports.SettingsStore, handler *Handler, credentialsFile string, log *slog.Logger) *Commands {
	return &Commands{settings: settings, handler: handler, credentialsFile: credentialsFile, log: log}
}

var manageGuild = int64(discordgo.PermissionManageGuild)

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "guildops",
			Description:              "Guild membership ledger sync",
			DefaultMemberPermissions: &manageGuild,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "sheet",
					Description: "Set the ledger spreadsheet ID",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "id", Description: "Spreadsheet ID", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "forms",
					Description: "Set the application-forms channel",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Forms channel", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "ocr",
					Description: "Set the roster-screenshot channel",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Screenshot channel", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "roles",
					Description: "Set the member and left roles for automation",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionRole, Name: "member", Description: "Member role", Required: true},
						{Type: discordgo.ApplicationCommandOptionRole, Name: "left", Description: "Left role", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Show current configuration",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "synchistory",
					Description: "Backfill the ledger from a channel's full history",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Channel to scan", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "parse",
					Description: "Debug-parse a message and report extraction reasons",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Channel holding the message", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "message", Description: "Message ID", Required: true},
					},
				},
			},
		},
	}
}

// Register overwrites the application commands and attaches the interaction
// callback.
func (c *Commands) Register(s *discordgo.Session, appID string) error {
	if _, err := s.ApplicationCommandBulkOverwrite(appID, "", commandDefinitions()); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	s.AddHandler(c.onInteraction)
	return nil
}

func (c *Commands) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand || i.GuildID == "" {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != "guildops" || len(data.Options) == 0 {
		return
	}

	ctx := observability.WithEvent(context.Background(), i.GuildID, i.ChannelID, i.ID)
	sub := data.Options[0]

	switch sub.Name {
	case "sheet", "forms", "ocr", "roles":
		c.respond(s, i, c.updateSettings(ctx, s, i, sub))
	case "status":
		c.respond(s, i, c.statusMessage(ctx, i.GuildID))
	case "synchistory":
		c.runHistorySync(ctx, s, i, sub)
	case "parse":
		c.respond(s, i, c.parseMessage(s, sub))
	}
}

func (c *Commands) updateSettings(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) string {
	settings, err := c.settings.GetGuildSettings(ctx, i.GuildID)
	if err != nil {
		return "Failed to load settings: " + err.Error()
	}

	var reply string
	switch sub.Name {
	case "sheet":
		settings.SheetID = strings.TrimSpace(optionString(sub, "id"))
		reply = fmt.Sprintf("Sheet ID set to `%s`.", settings.SheetID)
	case "forms":
		ch := optionChannel(s, sub, "channel")
		settings.FormsChannel = ch
		reply = fmt.Sprintf("Forms channel set to <#%s>.", ch)
	case "ocr":
		ch := optionChannel(s, sub, "channel")
		settings.OCRChannel = ch
		reply = fmt.Sprintf("Screenshot channel set to <#%s>.", ch)
	case "roles":
		member := optionRole(s, sub, "member", i.GuildID)
		left := optionRole(s, sub, "left", i.GuildID)
		settings.MemberRole = member
		settings.LeftRole = left
		reply = fmt.Sprintf("Roles configured: member <@&%s>, left <@&%s>.", member, left)
	}

	settings.GuildID = i.GuildID
	if err := c.settings.UpsertGuildSettings(ctx, settings); err != nil {
		return "Failed to save settings: " + err.Error()
	}
	return reply
}

func (c *Commands) statusMessage(ctx context.Context, guildID string) string {
	settings, err := c.settings.GetGuildSettings(ctx, guildID)
	if err != nil {
		return "Failed to load settings: " + err.Error()
	}

	var b strings.Builder
	b.WriteString("**GuildOps settings**\n")
	b.WriteString("Sheet: " + orNotSet(settings.SheetID, "`"+settings.SheetID+"`") + "\n")
	b.WriteString("Forms channel: " + orNotSet(settings.FormsChannel, "<#"+settings.FormsChannel+">") + "\n")
	b.WriteString("Screenshot channel: " + orNotSet(settings.OCRChannel, "<#"+settings.OCRChannel+">") + "\n")
	b.WriteString("Member role: " + orNotSet(settings.MemberRole, "<@&"+settings.MemberRole+">") + "\n")
	b.WriteString("Left role: " + orNotSet(settings.LeftRole, "<@&"+settings.LeftRole+">") + "\n")

	if _, err := os.Stat(c.credentialsFile); err == nil {
		b.WriteString("Sheets credentials: found")
	} else {
		b.WriteString("Sheets credentials: missing (" + c.credentialsFile + ")")
	}
	return b.String()
}

// runHistorySync defers the response; scanning a full channel history takes
// longer than the interaction ack window.
func (c *Commands) runHistorySync(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	settings, err := c.settings.GetGuildSettings(ctx, i.GuildID)
	if err != nil {
		c.respond(s, i, "Failed to load settings: "+err.Error())
		return
	}
	if settings.SheetID == "" {
		c.respond(s, i, "No sheet configured for this guild.")
		return
	}
	channelID := optionChannel(s, sub, "channel")

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		c.log.WarnContext(ctx, "interaction ack failed", "error", err)
		return
	}

	summary, skipped, err := c.handler.SyncHistory(ctx, s, i.GuildID, channelID, settings.SheetID)
	content := ""
	if err != nil {
		content = "History sync failed: " + err.Error()
	} else {
		content = fmt.Sprintf("History sync complete: %s (%d messages skipped).", summary, skipped)
	}
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: content}); err != nil {
		c.log.WarnContext(ctx, "followup failed", "error", err)
	}
}

func (c *Commands) parseMessage(s *discordgo.Session, sub *discordgo.ApplicationCommandInteractionDataOption) string {
	channelID := optionChannel(s, sub, "channel")
	messageID := strings.TrimSpace(optionString(sub, "message"))

	m, err := s.ChannelMessage(channelID, messageID)
	if err != nil {
		return "Failed to fetch message: " + err.Error()
	}

	record, reasons := services.ExtractMembership(PayloadFromMessage(m))
	if len(reasons) > 0 {
		return "Extraction failed:\n- " + strings.Join(reasons, "\n- ")
	}
	return fmt.Sprintf("Extracted: ID `%s`, IGN `%s`, accepted %s.", record.DiscordID, record.IGN, record.DateAccepted)
}

func (c *Commands) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		c.log.Warn("interaction respond failed", "error", err)
	}
}

func optionString(sub *discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range sub.Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

func optionChannel(s *discordgo.Session, sub *discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range sub.Options {
		if opt.Name == name {
			return opt.ChannelValue(s).ID
		}
	}
	return ""
}

func optionRole(s *discordgo.Session, sub *discordgo.ApplicationCommandInteractionDataOption, name, guildID string) string {
	for _, opt := range sub.Options {
		if opt.Name == name {
			return opt.RoleValue(s, guildID).ID
		}
	}
	return ""
}

func orNotSet(value, formatted string) string {
	if value == "" {
		return "not set"
	}
	return formatted
}
