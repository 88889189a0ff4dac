// Command backfill reconciles an entire channel history into the ledger in
// one pass, over REST only. Useful for first-time setup and for repairing a
// partially synced sheet; re-running is safe and convergent.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	"github.com/apexguild/guildops/internal/adapters/sheets"
	"github.com/apexguild/guildops/internal/adapters/sqlite"
	"github.com/apexguild/guildops/internal/app/services"
	"github.com/apexguild/guildops/internal/config"
	"github.com/apexguild/guildops/internal/db"
	"github.com/apexguild/guildops/internal/discord"
	"github.com/apexguild/guildops/internal/workerpool"
)

func main() {
	ctx := context.Background()
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	guildID := flag.String("guild", "", "guild ID whose settings to use")
	channelID := flag.String("channel", "", "channel ID to scan")
	sheetID := flag.String("sheet", "", "override the configured sheet ID")
	dryRun := flag.Bool("dry-run", false, "extract and plan without writing to the ledger")
	flag.Parse()

	if strings.TrimSpace(*guildID) == "" || strings.TrimSpace(*channelID) == "" {
		flag.Usage()
		os.Exit(2)
	}

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close()

	settings, err := sqlite.NewSettingsStore(database).GetGuildSettings(ctx, *guildID)
	if err != nil {
		log.Fatalf("load guild settings: %v", err)
	}
	target := strings.TrimSpace(*sheetID)
	if target == "" {
		target = settings.SheetID
	}
	if target == "" {
		log.Fatalf("no sheet configured for guild %s and no -sheet override given", *guildID)
	}

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		log.Fatalf("create discord session: %v", err)
	}

	ledger, err := sheets.New(ctx, cfg.Sheets.CredentialsFile)
	if err != nil {
		log.Fatalf("create sheets client: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	pool := workerpool.New(1)
	syncService := services.NewSyncService(ledger, pool, logger)
	handler := discord.NewHandler(nil, syncService, nil, pool, logger, 0)

	records, skipped, err := handler.CollectHistory(session, *channelID)
	if err != nil {
		log.Fatalf("collect history: %v", err)
	}
	log.Printf("extracted %d records, skipped %d messages", len(records), skipped)

	if *dryRun {
		grid, err := ledger.ReadGrid(ctx, target)
		if err != nil {
			log.Fatalf("read ledger: %v", err)
		}
		plan, err := services.PlanReconciliation(services.BuildSnapshot(grid), records)
		if err != nil {
			log.Fatalf("plan reconciliation: %v", err)
		}
		log.Printf("dry run: would append %d rows and issue %d update operations", len(plan.Appends), len(plan.Updates))
		return
	}

	summary, err := syncService.SyncRecords(ctx, *guildID, target, records)
	if err != nil {
		log.Fatalf("sync records: %v", err)
	}
	log.Printf("done: %s", summary)
}
