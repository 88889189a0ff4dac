package domain

import "time"

// MessagePayload is one inbound chat message flattened to the parts field
// extraction cares about. Every sub-object is optional; absence means empty.
type MessagePayload struct {
	Content    string
	Embeds     []Embed
	Components []Component
	Timestamp  time.Time
}

// Embed mirrors a chat-platform rich embed.
type Embed struct {
	Title       string
	Description string
	Footer      string
	Fields      []EmbedField
}

// EmbedField is one name/value pair inside an embed.
type EmbedField struct {
	Name  string
	Value string
}

// Component is one node of an interactive-component tree. Any subset of the
// capabilities may be present; a node with no children is a leaf.
type Component struct {
	Label       string
	Placeholder string
	Value       string
	Options     []ComponentOption
	Children    []Component
}

// ComponentOption is a selectable option on a select-style component.
type ComponentOption struct {
	Label       string
	Value       string
	Description string
}

// Attachment is a binary file attached to a message.
type Attachment struct {
	Filename string
	URL      string
	Size     int
}
