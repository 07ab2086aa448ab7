package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/topic-bot/internal/app/service"
	"github.com/jose-valero/topic-bot/internal/domain"
)

// NormalizeEmoji normaliza "<:name:id>" / "<a:name:id>" a "name:id", que es lo que
// espera la API de reacciones. Los emojis unicode quedan igual.
func NormalizeEmoji(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "<"), ">")
		s = strings.TrimPrefix(s, "a:")
		s = strings.TrimPrefix(s, ":")
	}
	return s
}

func toMessage(m *discordgo.Message) domain.Message {
	out := domain.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
	}
	if m.Author != nil {
		out.AuthorID = m.Author.ID
		out.AuthorMention = m.Author.Mention()
	}
	return out
}

func toModMessage(m *discordgo.Message) service.ModMessage {
	out := service.ModMessage{ID: m.ID, ChannelID: m.ChannelID}
	if m.Author != nil {
		out.AuthorID = m.Author.ID
	}
	for _, e := range m.Embeds {
		if e != nil {
			out.Embeds = append(out.Embeds, fromMessageEmbed(e))
		}
	}
	for _, r := range m.Reactions {
		if r != nil && r.Me && r.Emoji != nil {
			out.OwnReactions = append(out.OwnReactions, r.Emoji.APIName())
		}
	}
	return out
}

func formatStatus(st service.StatusReport) string {
	if st.Open {
		return "✅ Topic submissions are open."
	}
	return fmt.Sprintf("⏳ On cooldown until <t:%d:f> (<t:%d:R>).", st.Till.Unix(), st.Till.Unix())
}

func formatHistory(decs []domain.Decision) string {
	if len(decs) == 0 {
		return "ℹ️ No decisions recorded yet."
	}
	var b strings.Builder
	b.WriteString("📋 **Recent decisions**\n")
	for i, d := range decs {
		icon := "✅"
		if d.Verdict == domain.VerdictDenied {
			icon = "❌"
		}
		fmt.Fprintf(&b, "%d) %s **%s** by %s (<t:%d:R>, mod <@%s>)\n",
			i+1, icon, d.Topic, d.AuthorMention, d.DecidedAt.Unix(), d.ModeratorID)
	}
	return b.String()
}
