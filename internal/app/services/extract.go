package services

import (
	"regexp"
	"strings"

	"github.com/apexguild/guildops/internal/app/domain"
)

// Extraction failure reasons, reported together rather than first-only.
const (
	ReasonNoConfirmation = "status confirmation 'accepted by' not found in text, embeds, or components"
	ReasonNoDiscordID    = "Discord user ID not found in content or embeds"
	ReasonNoIGN          = "IGN/UID not found in embed fields or markdown headers"
)

// ExtractionFailure lists every unmet extraction requirement, in check order.
// A record is usable only when the list is empty.
type ExtractionFailure []string

var (
	mentionPattern = regexp.MustCompile(`<@!?(\d+)>`)
	// A bold or header marker naming IGN/UID/In-Game, then the next
	// non-empty line of text. The gap between marker and keyword may cross
	// line boundaries; wrapped form questions put them on separate lines.
	ignHeaderPattern = regexp.MustCompile(`(?is)(?:###|\*\*).*?(?:IGN|UID|In-Game)[^\r\n]*[\r\n]+\s*([^\r\n]+)`)
)

// ExtractMembership pulls a membership record out of one message payload.
// Pure function: no I/O, no platform calls. Every check runs even after an
// earlier one fails, so the failure list is complete.
func ExtractMembership(msg domain.MessagePayload) (domain.MembershipRecord, ExtractionFailure) {
	var reasons ExtractionFailure

	embedText := collectEmbedText(msg.Embeds)
	fullText := msg.Content + embedText + collectComponentText(msg.Components)

	if !strings.Contains(strings.ToLower(fullText), "accepted by") {
		reasons = append(reasons, ReasonNoConfirmation)
	}

	discordID := findDiscordID(msg.Content, msg.Embeds, embedText)
	if discordID == "" {
		reasons = append(reasons, ReasonNoDiscordID)
	}

	ign := findIGN(msg.Embeds, fullText)
	if ign == "" {
		reasons = append(reasons, ReasonNoIGN)
	}

	if len(reasons) > 0 {
		return domain.MembershipRecord{}, reasons
	}

	return domain.MembershipRecord{
		DiscordID:    discordID,
		IGN:          ign,
		DateAccepted: msg.Timestamp.Format("2006-01-02"),
	}, nil
}

// findDiscordID searches for a user-mention token, preferring message
// content, then embed fields that look identity-bearing, then all embed
// text as a last resort.
func findDiscordID(content string, embeds []domain.Embed, embedText string) string {
	if m := mentionPattern.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	for _, embed := range embeds {
		for _, field := range embed.Fields {
			name := strings.ToLower(field.Name)
			if !strings.Contains(name, "user") && !strings.Contains(name, "applicant") && !strings.Contains(name, "member") {
				continue
			}
			if m := mentionPattern.FindStringSubmatch(field.Value); m != nil {
				return m[1]
			}
		}
	}
	if m := mentionPattern.FindStringSubmatch(embedText); m != nil {
		return m[1]
	}
	return ""
}

// findIGN tries embed fields first, markdown headers second. First match
// wins; embeds are scanned in order.
func findIGN(embeds []domain.Embed, fullText string) string {
	for _, embed := range embeds {
		for _, field := range embed.Fields {
			name := strings.ToLower(field.Name)
			if strings.Contains(name, "ign") || strings.Contains(name, "uid") || strings.Contains(name, "in-game") {
				if v := strings.TrimSpace(field.Value); v != "" {
					return v
				}
			}
		}
	}
	if m := ignHeaderPattern.FindStringSubmatch(fullText); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func collectEmbedText(embeds []domain.Embed) string {
	var b strings.Builder
	for _, embed := range embeds {
		b.WriteString(" " + embed.Title + " " + embed.Description + " " + embed.Footer)
		for _, field := range embed.Fields {
			b.WriteString(" " + field.Name + " " + field.Value)
		}
	}
	return b.String()
}

// collectComponentText walks a component tree and gathers every text
// capability a node exposes. Missing capabilities are skipped, never an
// error; a node without children is simply a leaf.
func collectComponentText(components []domain.Component) string {
	var b strings.Builder
	for _, comp := range components {
		for _, part := range []string{comp.Label, comp.Placeholder, comp.Value} {
			if part != "" {
				b.WriteString(" " + part)
			}
		}
		for _, opt := range comp.Options {
			b.WriteString(" " + opt.Label + " " + opt.Value + " " + opt.Description)
		}
		b.WriteString(collectComponentText(comp.Children))
	}
	return b.String()
}
