package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/apexguild/guildops/internal/app/domain"
	"github.com/apexguild/guildops/internal/app/ports"
	"github.com/apexguild/guildops/internal/workerpool"
)

var (
	// ErrRowNotFound indicates no ledger row matched the recognized name.
	// The OCR path never inserts; it only transitions existing rows.
	ErrRowNotFound = errors.New("no ledger row matches the recognized name")
)

// SyncService orchestrates read snapshot → compute plan → apply plan against
// the external ledger. All ledger round trips go through the worker pool so
// a slow call never stalls unrelated event handling. A per-guild mutex keeps
// two planners from computing stale row indices against each other's
// in-flight appends; the gateway dispatches handlers concurrently.
type SyncService struct {
	ledger ports.LedgerClient
	pool   *workerpool.Pool
	log    *slog.Logger

	mu     sync.Mutex
	guilds map[string]*sync.Mutex
}

// NewSyncService constructs a sync service.
func NewSyncService(ledger ports.LedgerClient, pool *workerpool.Pool, log *slog.Logger) *SyncService {
	return &SyncService{
		ledger: ledger,
		pool:   pool,
		log:    log,
		guilds: make(map[string]*sync.Mutex),
	}
}

func (s *SyncService) guildLock(guildID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.guilds[guildID]
	if !ok {
		lock = &sync.Mutex{}
		s.guilds[guildID] = lock
	}
	return lock
}

// SyncRecords reconciles a record batch into the guild's ledger. One batch
// update call and one batch append call at most, regardless of batch size.
// Any ledger failure aborts the whole call with the raw error text; the two
// writes are not transactional with each other, and re-running is safe
// because updates are idempotent and appends only cover still-missing IDs.
func (s *SyncService) SyncRecords(ctx context.Context, guildID, sheetID string, records []domain.MembershipRecord) (SyncSummary, error) {
	lock := s.guildLock(guildID)
	lock.Lock()
	defer lock.Unlock()

	grid, err := workerpool.Run(ctx, s.pool, func() ([][]string, error) {
		return s.ledger.ReadGrid(ctx, sheetID)
	})
	if err != nil {
		return SyncSummary{}, fmt.Errorf("read ledger: %w", err)
	}

	snap := BuildSnapshot(grid)
	plan, err := PlanReconciliation(snap, records)
	if err != nil {
		return SyncSummary{}, err
	}

	updates := plan.Updates
	if plan.HeaderRow != nil {
		header := make([]ports.CellUpdate, 0, len(plan.HeaderRow))
		for i, name := range plan.HeaderRow {
			header = append(header, ports.CellUpdate{Row: 1, Col: i + 1, Value: name})
		}
		updates = append(header, updates...)
	}

	if len(updates) > 0 {
		if err := s.pool.Do(ctx, func() error {
			return s.ledger.BatchUpdate(ctx, sheetID, updates)
		}); err != nil {
			return SyncSummary{}, fmt.Errorf("apply updates: %w", err)
		}
	}
	if len(plan.Appends) > 0 {
		if err := s.pool.Do(ctx, func() error {
			return s.ledger.AppendRows(ctx, sheetID, plan.Appends)
		}); err != nil {
			return SyncSummary{}, fmt.Errorf("apply appends: %w", err)
		}
	}

	summary := SyncSummary{RowsAppended: len(plan.Appends), UpdateOps: len(plan.Updates)}
	s.log.InfoContext(ctx, "ledger reconciled",
		"guild_id", guildID,
		"records", len(records),
		"appended", summary.RowsAppended,
		"update_ops", summary.UpdateOps,
	)
	return summary, nil
}

// ApplyStatusEvent transitions one existing row's Status, located by IGN
// case-insensitively. Returns the row's Discord ID when the column carries
// one, for role automation downstream. Never creates a row.
func (s *SyncService) ApplyStatusEvent(ctx context.Context, guildID, sheetID string, ev domain.StatusEvent) (string, error) {
	lock := s.guildLock(guildID)
	lock.Lock()
	defer lock.Unlock()

	grid, err := workerpool.Run(ctx, s.pool, func() ([][]string, error) {
		return s.ledger.ReadGrid(ctx, sheetID)
	})
	if err != nil {
		return "", fmt.Errorf("read ledger: %w", err)
	}

	snap := BuildSnapshot(grid)
	ignCol, hasIGN := snap.Column(ColumnIGN)
	statusCol, hasStatus := snap.Column(ColumnStatus)
	if !hasIGN || !hasStatus {
		return "", fmt.Errorf("ledger missing %s or %s column (found: %v)", ColumnIGN, ColumnStatus, snap.Header)
	}

	row, ok := RowForIGN(grid, ignCol, ev.IGN)
	if !ok {
		return "", ErrRowNotFound
	}

	if err := s.pool.Do(ctx, func() error {
		return s.ledger.BatchUpdate(ctx, sheetID, []ports.CellUpdate{
			{Row: row, Col: statusCol + 1, Value: string(ev.Status)},
		})
	}); err != nil {
		return "", fmt.Errorf("update status: %w", err)
	}

	var discordID string
	if idCol, ok := snap.Column(ColumnDiscordID); ok && row-1 < len(grid) && idCol < len(grid[row-1]) {
		discordID = strings.TrimSpace(grid[row-1][idCol])
	}

	s.log.InfoContext(ctx, "roster status applied",
		"guild_id", guildID,
		"ign", ev.IGN,
		"status", string(ev.Status),
	)
	return discordID, nil
}
