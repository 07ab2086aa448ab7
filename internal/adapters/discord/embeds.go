package discord

import (
	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"

	"github.com/jose-valero/topic-bot/internal/domain"
)

func toMessageEmbed(e domain.Embed) *discordgo.MessageEmbed {
	em := embed.NewEmbed().SetColor(e.Color)
	if e.Title != "" {
		em = em.SetTitle(e.Title)
	}
	if e.Description != "" {
		em = em.SetDescription(e.Description)
	}
	if e.Footer != "" {
		em = em.SetFooter(e.Footer)
	}
	for _, f := range e.Fields {
		em = em.AddField(f.Name, f.Value)
		em.Fields[len(em.Fields)-1].Inline = f.Inline
	}
	return em.MessageEmbed
}

func fromMessageEmbed(m *discordgo.MessageEmbed) domain.Embed {
	e := domain.Embed{
		Title:       m.Title,
		Description: m.Description,
		Color:       m.Color,
	}
	if m.Footer != nil {
		e.Footer = m.Footer.Text
	}
	for _, f := range m.Fields {
		if f == nil {
			continue
		}
		e.Fields = append(e.Fields, domain.Field{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return e
}
