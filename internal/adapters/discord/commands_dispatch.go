// lógica de InteractionApplicationCommand: sólo parsea la interacción y despacha al servicio
package discord

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/jose-valero/topic-bot/internal/app/service"
)

func (r *Router) handleSlashCommand(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	cmd := ic.ApplicationCommandData()
	ev := r.newEvent("slash").WithFields(logrus.Fields{"cmd": cmd.Name, "by": interactionUser(ic), "guild": ic.GuildID})
	ev.Info("slash command")
	defer ev.done()

	defer func() {
		if rec := recover(); rec != nil {
			ev.WithField("panic", rec).Error("panic en slash command")
			ReplyEphemeral(s, ic, "❌ Unexpected error while running the command.")
		}
	}()

	_ = DeferEphemeral(s, ic)
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	switch cmd.Name {
	case "topic-status":
		ReplyEphemeral(s, ic, formatStatus(r.topics.Status()))

	case "topic-reset":
		if !r.requireAdminOrRoles(s, ic) {
			return
		}
		cleared, err := r.topics.Reset(ctx, interactionUser(ic))
		switch {
		case err != nil:
			ev.WithError(err).Error("reset cooldown")
			ReplyEphemeral(s, ic, "⚠️ Could not reset the cooldown: "+err.Error())
		case !cleared:
			ReplyEphemeral(s, ic, "ℹ️ There was no active cooldown.")
		default:
			ReplyEphemeral(s, ic, "✅ Cooldown cleared, submissions are open.")
		}

	case "topic-history":
		if !r.requireAdminOrRoles(s, ic) {
			return
		}
		limit, _ := optInt(ic, "limit")
		decs, err := r.topics.History(ctx, int(limit))
		switch {
		case errors.Is(err, service.ErrHistoryDisabled):
			ReplyEphemeral(s, ic, "ℹ️ History needs a database backend (STATE_BACKEND=postgres or sqlite).")
		case err != nil:
			ev.WithError(err).Error("history")
			ReplyEphemeral(s, ic, "⚠️ Could not read the history: "+err.Error())
		default:
			ReplyEphemeral(s, ic, formatHistory(decs))
		}

	default:
		ReplyEphemeral(s, ic, "Unknown command.")
	}
}

func optInt(ic *discordgo.InteractionCreate, name string) (int64, bool) {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return 0, false
	}
	for _, o := range ic.ApplicationCommandData().Options {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionInteger {
			return o.IntValue(), true
		}
	}
	return 0, false
}

func interactionUser(ic *discordgo.InteractionCreate) string {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User.ID
	}
	if ic.User != nil {
		return ic.User.ID
	}
	return ""
}
