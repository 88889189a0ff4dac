package domain

// MemberStatus is the controlled status vocabulary for a ledger row.
type MemberStatus string

const (
	StatusActive MemberStatus = "Active"
	StatusLeft   MemberStatus = "Left"
)

// MembershipRecord is one normalized unit of membership evidence. DiscordID
// is the canonical row key; IGN may be corrected by later evidence;
// DateAccepted is set once from the source message timestamp. Status is left
// empty by extraction and only defaulted on insert.
type MembershipRecord struct {
	DiscordID    string
	IGN          string
	DateAccepted string
	Status       MemberStatus
}

// StatusEvent is an OCR-classified roster transition. It carries no Discord
// ID; rows are located by IGN, case-insensitively.
type StatusEvent struct {
	IGN    string
	Status MemberStatus
}
