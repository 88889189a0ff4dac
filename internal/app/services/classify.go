package services

import (
	"regexp"
	"strings"

	"github.com/apexguild/guildops/internal/app/domain"
)

var (
	whitespaceRuns = regexp.MustCompile(`\s+`)

	// "approved <name>'s application to join", possessive optional.
	approvedPattern = regexp.MustCompile(`(?i)approved\s+(.+?)(?:['’]s)?\s+application\s+to\s+join`)
	// "<name> has left the guild", anchored after start-of-text or a
	// sentence/member-list marker so list prefixes like "[Members]" do not
	// bleed into the captured name.
	leftPattern = regexp.MustCompile(`(?i)(?:^|[\].!?])\s*([^\[\].!?]+?)\s+has\s+left\s+the\s+guild`)
)

// NormalizeRecognizedText collapses all whitespace runs to single spaces.
// OCR output is line-broken arbitrarily, so classification always runs on
// the normalized form.
func NormalizeRecognizedText(text string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(text, " "))
}

// ClassifyRosterText applies the ordered status rules to normalized OCR
// text. The second return is false when no rule matches; that is the common
// case and not an error.
func ClassifyRosterText(text string) (domain.StatusEvent, bool) {
	if m := approvedPattern.FindStringSubmatch(text); m != nil {
		return domain.StatusEvent{IGN: strings.TrimSpace(m[1]), Status: domain.StatusActive}, true
	}
	if m := leftPattern.FindStringSubmatch(text); m != nil {
		return domain.StatusEvent{IGN: strings.TrimSpace(m[1]), Status: domain.StatusLeft}, true
	}
	return domain.StatusEvent{}, false
}
