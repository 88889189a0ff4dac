package services

import (
	"testing"

	"github.com/apexguild/guildops/internal/app/domain"
)

func TestClassifyApprovedApplication(t *testing.T) {
	t.Parallel()

	text := NormalizeRecognizedText("approved GuildMasterX's application to join the guild")
	event, ok := ClassifyRosterText(text)
	if !ok {
		t.Fatal("expected a classification")
	}
	if event.IGN != "GuildMasterX" || event.Status != domain.StatusActive {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestClassifyLeftAfterMemberListMarker(t *testing.T) {
	t.Parallel()

	event, ok := ClassifyRosterText("[Members] ShadowFox has left the guild")
	if !ok {
		t.Fatal("expected a classification")
	}
	if event.IGN != "ShadowFox" || event.Status != domain.StatusLeft {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestClassifyLeftAtStartOfText(t *testing.T) {
	t.Parallel()

	event, ok := ClassifyRosterText("Player3 has left the guild.")
	if !ok {
		t.Fatal("expected a classification")
	}
	if event.IGN != "Player3" || event.Status != domain.StatusLeft {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestClassifyNormalizesLineBrokenOCROutput(t *testing.T) {
	t.Parallel()

	raw := "® [Members]Songbird has\napproved   izzue's application to\njoin the guild. The guild\nflourishes!"
	event, ok := ClassifyRosterText(NormalizeRecognizedText(raw))
	if !ok {
		t.Fatal("expected a classification")
	}
	if event.IGN != "izzue" || event.Status != domain.StatusActive {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestClassifyOrderPrefersApproval(t *testing.T) {
	t.Parallel()

	// Both patterns present; the approval rule is checked first.
	text := "approved Newbie's application to join. Oldtimer has left the guild"
	event, ok := ClassifyRosterText(text)
	if !ok {
		t.Fatal("expected a classification")
	}
	if event.Status != domain.StatusActive || event.IGN != "Newbie" {
		t.Fatalf("expected approval to win, got %+v", event)
	}
}

func TestClassifyIgnoresUnrelatedText(t *testing.T) {
	t.Parallel()

	for _, text := range []string{
		"",
		"a screenshot of a cat",
		"Player1 Active Player2 Left",
		"the guild flourishes",
	} {
		if _, ok := ClassifyRosterText(NormalizeRecognizedText(text)); ok {
			t.Fatalf("expected no classification for %q", text)
		}
	}
}

func TestNormalizeRecognizedText(t *testing.T) {
	t.Parallel()

	got := NormalizeRecognizedText("  a\tb\r\n c  ")
	if got != "a b c" {
		t.Fatalf("expected %q, got %q", "a b c", got)
	}
}
