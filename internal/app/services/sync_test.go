package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/apexguild/guildops/internal/app/domain"
	"github.com/apexguild/guildops/internal/app/ports"
	"github.com/apexguild/guildops/internal/workerpool"
)

// fakeLedger applies plans against an in-memory grid and records call
// counts, standing in for the Sheets adapter.
type fakeLedger struct {
	grid        [][]string
	readErr     error
	updateCalls int
	appendCalls int
}

func (f *fakeLedger) ReadGrid(context.Context, string) ([][]string, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make([][]string, len(f.grid))
	for i, row := range f.grid {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

func (f *fakeLedger) BatchUpdate(_ context.Context, _ string, updates []ports.CellUpdate) error {
	f.updateCalls++
	for _, u := range updates {
		for len(f.grid) < u.Row {
			f.grid = append(f.grid, nil)
		}
		row := f.grid[u.Row-1]
		for len(row) < u.Col {
			row = append(row, "")
		}
		row[u.Col-1] = u.Value
		f.grid[u.Row-1] = row
	}
	return nil
}

func (f *fakeLedger) AppendRows(_ context.Context, _ string, rows [][]string) error {
	f.appendCalls++
	for _, row := range rows {
		f.grid = append(f.grid, append([]string(nil), row...))
	}
	return nil
}

func newTestSyncService(ledger ports.LedgerClient) *SyncService {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSyncService(ledger, workerpool.New(2), log)
}

func TestSyncRecordsAgainstEmptyLedger(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{}
	svc := newTestSyncService(ledger)

	summary, err := svc.SyncRecords(context.Background(), "g1", "sheet", []domain.MembershipRecord{
		{DiscordID: "123", IGN: "TestPlayer123", DateAccepted: "2024-01-01"},
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if summary.RowsAppended != 1 || summary.UpdateOps != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(ledger.grid) != 2 {
		t.Fatalf("expected header plus one data row, got %v", ledger.grid)
	}
	if ledger.grid[0][0] != "Discord ID" {
		t.Fatalf("expected synthesized header, got %v", ledger.grid[0])
	}
	if ledger.grid[1][3] != "Active" {
		t.Fatalf("expected inserted row to default status Active, got %v", ledger.grid[1])
	}
	if ledger.updateCalls != 1 || ledger.appendCalls != 1 {
		t.Fatalf("expected one update call (header) and one append call, got %d/%d", ledger.updateCalls, ledger.appendCalls)
	}
}

func TestSyncRecordsIsIdempotent(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{}
	svc := newTestSyncService(ledger)
	records := []domain.MembershipRecord{
		{DiscordID: "1", IGN: "Alpha", DateAccepted: "2024-01-01"},
		{DiscordID: "2", IGN: "Beta", DateAccepted: "2024-01-02"},
	}

	if _, err := svc.SyncRecords(context.Background(), "g1", "sheet", records); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	rowsAfterFirst := len(ledger.grid)

	summary, err := svc.SyncRecords(context.Background(), "g1", "sheet", records)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if len(ledger.grid) != rowsAfterFirst {
		t.Fatalf("second run changed row count: %d -> %d", rowsAfterFirst, len(ledger.grid))
	}
	if summary.RowsAppended != 0 {
		t.Fatalf("second run must append nothing, got %+v", summary)
	}
	if summary.UpdateOps != 4 {
		t.Fatalf("expected 2 records x 2 operations, got %+v", summary)
	}
}

func TestSyncRecordsUpdatesNeverTouchStatus(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{grid: [][]string{
		{"Discord ID", "IGN", "Date Accepted", "Status"},
		{"123", "OldName", "2023-01-01", "Left"},
	}}
	svc := newTestSyncService(ledger)

	summary, err := svc.SyncRecords(context.Background(), "g1", "sheet", []domain.MembershipRecord{
		{DiscordID: "123", IGN: "NewName", DateAccepted: "2024-02-02"},
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if summary.UpdateOps != 2 || summary.RowsAppended != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if ledger.grid[1][1] != "NewName" || ledger.grid[1][2] != "2024-02-02" {
		t.Fatalf("row not updated: %v", ledger.grid[1])
	}
	if ledger.grid[1][3] != "Left" {
		t.Fatalf("status must survive a forms update, got %v", ledger.grid[1])
	}
}

func TestSyncRecordsSurfacesLedgerErrors(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{readErr: errors.New("credentials expired")}
	svc := newTestSyncService(ledger)

	_, err := svc.SyncRecords(context.Background(), "g1", "sheet", nil)
	if err == nil || !errors.Is(err, ledger.readErr) {
		t.Fatalf("expected raw ledger error to surface, got %v", err)
	}
}

func TestApplyStatusEventUpdatesRowByIGN(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{grid: [][]string{
		{"Discord ID", "IGN", "Date Accepted", "Status"},
		{"900", "ShadowFox", "2024-01-01", "Active"},
	}}
	svc := newTestSyncService(ledger)

	discordID, err := svc.ApplyStatusEvent(context.Background(), "g1", "sheet", domain.StatusEvent{
		IGN:    "shadowfox",
		Status: domain.StatusLeft,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if discordID != "900" {
		t.Fatalf("expected discord ID 900 from the matched row, got %q", discordID)
	}
	if ledger.grid[1][3] != "Left" {
		t.Fatalf("status not updated: %v", ledger.grid[1])
	}
}

func TestApplyStatusEventNeverInsertsRows(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{grid: [][]string{
		{"Discord ID", "IGN", "Date Accepted", "Status"},
	}}
	svc := newTestSyncService(ledger)

	_, err := svc.ApplyStatusEvent(context.Background(), "g1", "sheet", domain.StatusEvent{
		IGN:    "Ghost",
		Status: domain.StatusLeft,
	})
	if !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("expected ErrRowNotFound, got %v", err)
	}
	if len(ledger.grid) != 1 || ledger.appendCalls != 0 {
		t.Fatalf("status events must never create rows: %v", ledger.grid)
	}
}

func TestApplyStatusEventRequiresIGNAndStatusColumns(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{grid: [][]string{
		{"Discord ID", "IGN", "Date Accepted"},
		{"1", "Someone", "2024-01-01"},
	}}
	svc := newTestSyncService(ledger)

	_, err := svc.ApplyStatusEvent(context.Background(), "g1", "sheet", domain.StatusEvent{
		IGN:    "Someone",
		Status: domain.StatusLeft,
	})
	if err == nil {
		t.Fatal("expected configuration error for missing Status column")
	}
}
