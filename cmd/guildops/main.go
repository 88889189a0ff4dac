package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	"github.com/apexguild/guildops/internal/adapters/ocr"
	"github.com/apexguild/guildops/internal/adapters/sheets"
	"github.com/apexguild/guildops/internal/adapters/sqlite"
	"github.com/apexguild/guildops/internal/app/ports"
	"github.com/apexguild/guildops/internal/app/services"
	"github.com/apexguild/guildops/internal/config"
	"github.com/apexguild/guildops/internal/db"
	"github.com/apexguild/guildops/internal/discord"
	"github.com/apexguild/guildops/internal/observability"
	"github.com/apexguild/guildops/internal/server"
	"github.com/apexguild/guildops/internal/server/routes"
	"github.com/apexguild/guildops/internal/workerpool"
)

var version = "dev"

func main() {
	log := slog.New(observability.WrapSlogHandler(
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return
	}

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	settings := sqlite.NewSettingsStore(database)

	ctx := context.Background()
	ledger := openLedger(ctx, cfg.Sheets.CredentialsFile)

	pool := workerpool.New(cfg.Workers.PoolSize)
	syncService := services.NewSyncService(ledger, pool, log)
	recognizer := ocr.New(cfg.OCR.Languages...)

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		slog.Error("Failed to create Discord session", "error", err)
		return
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	handler := discord.NewHandler(settings, syncService, recognizer, pool, log, cfg.OCR.MaxImageBytes)
	handler.Register(session)

	if err := session.Open(); err != nil {
		slog.Error("Failed to open Discord gateway", "error", err)
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Error("Failed to close Discord gateway", "error", err)
		}
	}()

	commands := discord.NewCommands(settings, handler, cfg.Sheets.CredentialsFile, log)
	if err := commands.Register(session, session.State.User.ID); err != nil {
		slog.Error("Failed to register commands", "error", err)
		return
	}

	srv := server.New(log)
	srv.RegisterRouter(routes.NewOpsRoutes(settings, cfg.Sheets.CredentialsFile, version))
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("Starting ops server", "port", cfg.Server.Port)
		slog.Error("Closing ops server", "error", srv.Start(addr))
	}()

	slog.Info("GuildOps running", "version", version)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	slog.Info("Shutting down")
}

// openLedger builds the Sheets client when credentials exist. Without them
// the daemon still runs; sync operations surface the configuration error
// verbatim, matching the status command's credential report.
func openLedger(ctx context.Context, credentialsFile string) ports.LedgerClient {
	if _, err := os.Stat(credentialsFile); err != nil {
		slog.Warn("Sheets credentials not found, ledger sync disabled", "path", credentialsFile)
		return unconfiguredLedger{path: credentialsFile}
	}
	client, err := sheets.New(ctx, credentialsFile)
	if err != nil {
		slog.Warn("Sheets client unavailable, ledger sync disabled", "error", err)
		return unconfiguredLedger{path: credentialsFile}
	}
	return client
}

type unconfiguredLedger struct {
	path string
}

func (u unconfiguredLedger) err() error {
	return errors.New("sheets credentials file not found: " + u.path)
}

func (u unconfiguredLedger) ReadGrid(context.Context, string) ([][]string, error) {
	return nil, u.err()
}

func (u unconfiguredLedger) BatchUpdate(context.Context, string, []ports.CellUpdate) error {
	return u.err()
}

func (u unconfiguredLedger) AppendRows(context.Context, string, [][]string) error {
	return u.err()
}
