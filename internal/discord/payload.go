package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/apexguild/guildops/internal/app/domain"
)

// PayloadFromMessage flattens a gateway message into the domain payload the
// extractor consumes. Every sub-object is optional on the wire; missing
// pieces map to absence, never to an error.
func PayloadFromMessage(m *discordgo.Message) domain.MessagePayload {
	payload := domain.MessagePayload{
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}

	for _, embed := range m.Embeds {
		if embed == nil {
			continue
		}
		e := domain.Embed{
			Title:       embed.Title,
			Description: embed.Description,
		}
		if embed.Footer != nil {
			e.Footer = embed.Footer.Text
		}
		for _, field := range embed.Fields {
			if field == nil {
				continue
			}
			e.Fields = append(e.Fields, domain.EmbedField{Name: field.Name, Value: field.Value})
		}
		payload.Embeds = append(payload.Embeds, e)
	}

	payload.Components = convertComponents(m.Components)
	return payload
}

// convertComponents maps the wire component tree onto the domain sum type.
// Unknown component kinds contribute nothing.
func convertComponents(components []discordgo.MessageComponent) []domain.Component {
	var out []domain.Component
	for _, mc := range components {
		switch c := mc.(type) {
		case *discordgo.ActionsRow:
			out = append(out, domain.Component{Children: convertComponents(c.Components)})
		case discordgo.ActionsRow:
			out = append(out, domain.Component{Children: convertComponents(c.Components)})
		case *discordgo.Button:
			out = append(out, domain.Component{Label: c.Label})
		case discordgo.Button:
			out = append(out, domain.Component{Label: c.Label})
		case *discordgo.SelectMenu:
			out = append(out, convertSelectMenu(*c))
		case discordgo.SelectMenu:
			out = append(out, convertSelectMenu(c))
		case *discordgo.TextInput:
			out = append(out, domain.Component{Label: c.Label, Placeholder: c.Placeholder, Value: c.Value})
		case discordgo.TextInput:
			out = append(out, domain.Component{Label: c.Label, Placeholder: c.Placeholder, Value: c.Value})
		}
	}
	return out
}

func convertSelectMenu(menu discordgo.SelectMenu) domain.Component {
	comp := domain.Component{Placeholder: menu.Placeholder}
	for _, opt := range menu.Options {
		comp.Options = append(comp.Options, domain.ComponentOption{
			Label:       opt.Label,
			Value:       opt.Value,
			Description: opt.Description,
		})
	}
	return comp
}
