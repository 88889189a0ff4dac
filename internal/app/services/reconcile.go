package services

import (
	"fmt"
	"strings"

	"github.com/apexguild/guildops/internal/app/domain"
	"github.com/apexguild/guildops/internal/app/ports"
)

// Canonical ledger column names. Matching against an existing header is
// case-insensitive and whitespace-tolerant; humans edit the sheet.
const (
	ColumnDiscordID    = "Discord ID"
	ColumnIGN          = "IGN"
	ColumnDateAccepted = "Date Accepted"
	ColumnStatus       = "Status"
)

var canonicalHeader = []string{ColumnDiscordID, ColumnIGN, ColumnDateAccepted, ColumnStatus}

// LedgerSnapshot is the ledger's header and key index captured at the start
// of one sync call. It is rebuilt on every sync; the sheet can be edited by
// humans between runs, so staleness is assumed.
type LedgerSnapshot struct {
	Header      []string
	Synthesized bool

	cols    map[string]int
	rowByID map[string]int
}

// BuildSnapshot indexes the grid as read from the ledger. An empty grid (or
// a header row of blank cells) gets the canonical header synthesized,
// Status column included.
func BuildSnapshot(grid [][]string) LedgerSnapshot {
	var header []string
	if len(grid) > 0 {
		header = grid[0]
	}

	empty := true
	for _, h := range header {
		if strings.TrimSpace(h) != "" {
			empty = false
			break
		}
	}

	snap := LedgerSnapshot{Synthesized: empty}
	if empty {
		snap.Header = append([]string(nil), canonicalHeader...)
	} else {
		snap.Header = header
	}

	snap.cols = make(map[string]int, len(snap.Header))
	for i, h := range snap.Header {
		snap.cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	snap.rowByID = make(map[string]int)
	idCol, ok := snap.Column(ColumnDiscordID)
	if !ok {
		return snap
	}
	for i, row := range grid {
		if i == 0 {
			continue
		}
		if idCol >= len(row) {
			continue
		}
		id := strings.TrimSpace(row[idCol])
		if id != "" {
			snap.rowByID[id] = i + 1
		}
	}
	return snap
}

// Column resolves a logical column name to its 0-based position.
func (s LedgerSnapshot) Column(name string) (int, bool) {
	i, ok := s.cols[strings.ToLower(name)]
	return i, ok
}

// RowForID returns the 1-based row index holding the given Discord ID.
func (s LedgerSnapshot) RowForID(discordID string) (int, bool) {
	i, ok := s.rowByID[strings.TrimSpace(discordID)]
	return i, ok
}

// RowForIGN scans the grid for a row whose IGN cell equals ign,
// case-insensitively. Used only by the OCR path, which has no Discord ID.
func RowForIGN(grid [][]string, ignCol int, ign string) (int, bool) {
	want := strings.ToLower(strings.TrimSpace(ign))
	for i, row := range grid {
		if i == 0 || ignCol >= len(row) {
			continue
		}
		if strings.ToLower(strings.TrimSpace(row[ignCol])) == want {
			return i + 1, true
		}
	}
	return 0, false
}

// ReconciliationPlan is the minimal set of writes converging the ledger to
// a record batch. HeaderRow is non-nil only when the ledger was empty and
// the header must be written first. Applied in two batch calls at most,
// then discarded.
type ReconciliationPlan struct {
	HeaderRow []string
	Updates   []ports.CellUpdate
	Appends   [][]string
}

// PlanReconciliation computes update-vs-append per record against the
// snapshot. Known IDs get IGN and Date Accepted cell updates only — Status
// is never touched on update. Unknown IDs become full rows with Status
// defaulted to Active when that column exists. Duplicate IDs within the
// batch resolve last-write-wins without producing duplicate rows.
func PlanReconciliation(snap LedgerSnapshot, records []domain.MembershipRecord) (ReconciliationPlan, error) {
	var plan ReconciliationPlan

	for _, required := range []string{ColumnDiscordID, ColumnIGN, ColumnDateAccepted} {
		if _, ok := snap.Column(required); !ok {
			return plan, fmt.Errorf("ledger missing column %q (found: %v)", required, snap.Header)
		}
	}
	if snap.Synthesized {
		plan.HeaderRow = append([]string(nil), snap.Header...)
	}

	idCol, _ := snap.Column(ColumnDiscordID)
	ignCol, _ := snap.Column(ColumnIGN)
	dateCol, _ := snap.Column(ColumnDateAccepted)
	statusCol, hasStatus := snap.Column(ColumnStatus)

	pendingAppend := make(map[string]int)

	for _, rec := range records {
		id := strings.TrimSpace(rec.DiscordID)
		if id == "" {
			continue
		}

		if row, ok := snap.RowForID(id); ok {
			plan.Updates = append(plan.Updates,
				ports.CellUpdate{Row: row, Col: ignCol + 1, Value: rec.IGN},
				ports.CellUpdate{Row: row, Col: dateCol + 1, Value: rec.DateAccepted},
			)
			continue
		}

		row := make([]string, len(snap.Header))
		row[idCol] = id
		row[ignCol] = rec.IGN
		row[dateCol] = rec.DateAccepted
		if hasStatus {
			row[statusCol] = string(domain.StatusActive)
		}

		if i, dup := pendingAppend[id]; dup {
			plan.Appends[i] = row
			continue
		}
		pendingAppend[id] = len(plan.Appends)
		plan.Appends = append(plan.Appends, row)
	}

	return plan, nil
}

// SyncSummary reports one applied reconciliation. UpdateOps counts cell
// update operations, which is twice the number of distinct records updated
// (IGN and Date Accepted are separate operations).
type SyncSummary struct {
	RowsAppended int
	UpdateOps    int
}

func (s SyncSummary) String() string {
	return fmt.Sprintf("appended %d rows, issued %d update operations", s.RowsAppended, s.UpdateOps)
}
