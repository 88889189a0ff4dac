package services

import (
	"strings"
	"testing"

	"github.com/apexguild/guildops/internal/app/domain"
)

func TestPlanUpdatesExistingRowWithoutTouchingStatus(t *testing.T) {
	t.Parallel()

	grid := [][]string{
		{"Discord ID", "IGN", "Date Accepted", "Status"},
		{"123", "OldName", "2023-01-01", "Active"},
	}
	records := []domain.MembershipRecord{
		{DiscordID: "123", IGN: "NewName", DateAccepted: "2024-02-02"},
	}

	plan, err := PlanReconciliation(BuildSnapshot(grid), records)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.Appends) != 0 {
		t.Fatalf("expected no appends, got %v", plan.Appends)
	}
	if len(plan.Updates) != 2 {
		t.Fatalf("expected 2 update operations, got %v", plan.Updates)
	}
	for _, u := range plan.Updates {
		if u.Row != 2 {
			t.Fatalf("expected updates targeting row 2, got %+v", u)
		}
		if u.Col == 4 {
			t.Fatalf("status column must never be updated: %+v", u)
		}
	}
	if plan.Updates[0].Col != 2 || plan.Updates[0].Value != "NewName" {
		t.Fatalf("expected IGN update first, got %+v", plan.Updates[0])
	}
	if plan.Updates[1].Col != 3 || plan.Updates[1].Value != "2024-02-02" {
		t.Fatalf("expected date update second, got %+v", plan.Updates[1])
	}
}

func TestPlanAppendsUnknownIDWithActiveStatus(t *testing.T) {
	t.Parallel()

	grid := [][]string{{"Discord ID", "IGN", "Date Accepted", "Status"}}
	records := []domain.MembershipRecord{
		{DiscordID: "9", IGN: "Fresh", DateAccepted: "2024-03-03"},
	}

	plan, err := PlanReconciliation(BuildSnapshot(grid), records)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.Updates) != 0 || len(plan.Appends) != 1 {
		t.Fatalf("expected one append only, got %+v", plan)
	}
	want := []string{"9", "Fresh", "2024-03-03", "Active"}
	got := plan.Appends[0]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("append row mismatch at %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestPlanSynthesizesHeaderForEmptyLedger(t *testing.T) {
	t.Parallel()

	records := []domain.MembershipRecord{
		{DiscordID: "1", IGN: "Solo", DateAccepted: "2024-01-01"},
	}

	plan, err := PlanReconciliation(BuildSnapshot(nil), records)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	wantHeader := []string{"Discord ID", "IGN", "Date Accepted", "Status"}
	if len(plan.HeaderRow) != len(wantHeader) {
		t.Fatalf("expected synthesized header, got %v", plan.HeaderRow)
	}
	for i := range wantHeader {
		if plan.HeaderRow[i] != wantHeader[i] {
			t.Fatalf("header mismatch: expected %v, got %v", wantHeader, plan.HeaderRow)
		}
	}
	if len(plan.Appends) != 1 {
		t.Fatalf("expected exactly one appended data row, got %v", plan.Appends)
	}
}

func TestPlanTreatsBlankHeaderRowAsEmpty(t *testing.T) {
	t.Parallel()

	snap := BuildSnapshot([][]string{{"", "  ", ""}})
	if !snap.Synthesized {
		t.Fatal("expected blank header row to be treated as empty")
	}
}

func TestPlanFailsOnMissingRequiredColumn(t *testing.T) {
	t.Parallel()

	grid := [][]string{{"Discord ID", "IGN"}}
	_, err := PlanReconciliation(BuildSnapshot(grid), nil)
	if err == nil {
		t.Fatal("expected error for missing Date Accepted column")
	}
	if !strings.Contains(err.Error(), "Date Accepted") {
		t.Fatalf("error should name the missing column, got %v", err)
	}
}

func TestPlanDuplicateIDsWithinBatchLastWriteWins(t *testing.T) {
	t.Parallel()

	grid := [][]string{{"Discord ID", "IGN", "Date Accepted", "Status"}}
	records := []domain.MembershipRecord{
		{DiscordID: "7", IGN: "FirstTry", DateAccepted: "2024-01-01"},
		{DiscordID: "7", IGN: "Corrected", DateAccepted: "2024-01-02"},
	}

	plan, err := PlanReconciliation(BuildSnapshot(grid), records)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.Appends) != 1 {
		t.Fatalf("duplicate IDs must not append twice, got %v", plan.Appends)
	}
	if plan.Appends[0][1] != "Corrected" {
		t.Fatalf("expected last write to win, got %v", plan.Appends[0])
	}
}

func TestPlanIsCaseAndWhitespaceTolerantOnHeaders(t *testing.T) {
	t.Parallel()

	grid := [][]string{
		{" discord id ", "ign", "DATE ACCEPTED", "status"},
		{"5", "Someone", "2023-06-06", "Active"},
	}
	plan, err := PlanReconciliation(BuildSnapshot(grid), []domain.MembershipRecord{
		{DiscordID: "5", IGN: "Someone", DateAccepted: "2023-06-06"},
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.Updates) != 2 || len(plan.Appends) != 0 {
		t.Fatalf("expected an update pair against the existing row, got %+v", plan)
	}
}

func TestPlanIdempotentAgainstConvergedLedger(t *testing.T) {
	t.Parallel()

	grid := [][]string{
		{"Discord ID", "IGN", "Date Accepted", "Status"},
		{"11", "Stable", "2024-04-04", "Active"},
	}
	records := []domain.MembershipRecord{
		{DiscordID: "11", IGN: "Stable", DateAccepted: "2024-04-04"},
	}

	plan, err := PlanReconciliation(BuildSnapshot(grid), records)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.Appends) != 0 {
		t.Fatalf("second run must not change row count, got appends %v", plan.Appends)
	}
	for _, u := range plan.Updates {
		col := u.Col - 1
		if grid[u.Row-1][col] != u.Value {
			t.Fatalf("expected update to identical value, got %+v", u)
		}
	}
}

func TestRowForIGNMatchesCaseInsensitively(t *testing.T) {
	t.Parallel()

	grid := [][]string{
		{"Discord ID", "IGN", "Date Accepted", "Status"},
		{"1", "ShadowFox", "2024-01-01", "Active"},
	}
	snap := BuildSnapshot(grid)
	ignCol, _ := snap.Column(ColumnIGN)

	row, ok := RowForIGN(grid, ignCol, "shadowfox")
	if !ok || row != 2 {
		t.Fatalf("expected row 2, got %d (ok=%v)", row, ok)
	}
	if _, ok := RowForIGN(grid, ignCol, "Nobody"); ok {
		t.Fatal("expected no match for unknown name")
	}
}
