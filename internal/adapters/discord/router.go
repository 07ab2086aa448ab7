package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/jose-valero/topic-bot/internal/app/service"
	"github.com/jose-valero/topic-bot/internal/domain"
)

const eventTimeout = 12 * time.Second

// RouterCfg agrupa lo que el router necesita fuera del workflow.
type RouterCfg struct {
	// GuildID vacío = no se registran slash commands
	GuildID      string
	AdminRoleIDs []string
	// SubmitWindow limita propuestas por usuario; 0 lo desactiva
	SubmitWindow time.Duration
}

type Router struct {
	s       *discordgo.Session
	topics  *service.TopicService
	guildID string

	adminRoleIDs []string
	limiter      *userLimiter
	log          logrus.FieldLogger

	fatal chan error
}

func NewRouter(s *discordgo.Session, topics *service.TopicService, cfg RouterCfg, log logrus.FieldLogger) *Router {
	return &Router{
		s:            s,
		topics:       topics,
		guildID:      cfg.GuildID,
		adminRoleIDs: cfg.AdminRoleIDs,
		limiter:      newUserLimiter(cfg.SubmitWindow),
		log:          log,
		fatal:        make(chan error, 1),
	}
}

// Fatal entrega errores que deben terminar el proceso (ej. canal configurado inexistente).
func (r *Router) Fatal() <-chan error { return r.fatal }

func (r *Router) Register() error {
	if r.guildID == "" {
		r.log.Info("sin guild configurado, no se registran slash commands")
		return nil
	}
	appID := r.s.State.User.ID
	for _, cmd := range Commands {
		if _, err := r.s.ApplicationCommandCreate(appID, r.guildID, cmd); err != nil {
			return fmt.Errorf("registrando /%s: %w", cmd.Name, err)
		}
	}
	return nil
}

func (r *Router) Handlers() {
	r.s.AddHandler(r.onReady)
	r.s.AddHandler(r.onMessageCreate)
	r.s.AddHandler(r.onReactionAdd)
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic.Type != discordgo.InteractionApplicationCommand {
			return
		}
		r.handleSlashCommand(s, ic)
	})
}

func (r *Router) onReady(s *discordgo.Session, ev *discordgo.Ready) {
	r.topics.SetBotUser(ev.User.ID)
	r.log.WithFields(logrus.Fields{"user": ev.User.Username, "id": ev.User.ID}).Info("✅ conectado")

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	cfg := r.topics.Settings()
	for name, id := range map[string]string{"topic": cfg.TopicChannelID, "moderation": cfg.ModerationChannelID} {
		if _, err := s.Channel(id, discordgo.WithContext(ctx)); err != nil {
			r.fail(fmt.Errorf("canal %s (%s) no accesible: %w", name, id, err))
			return
		}
	}
}

func (r *Router) fail(err error) {
	select {
	case r.fatal <- err:
	default:
	}
}

func (r *Router) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	msg := toMessage(m.Message)
	if !r.topics.IsSubmission(msg) {
		return
	}

	ev := r.newEvent("submission").WithFields(logrus.Fields{"author": msg.AuthorID, "message": msg.ID})
	defer ev.done()
	defer r.recoverEvent(ev.Entry)

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	if !r.limiter.Allow(msg.AuthorID) {
		ev.Info("propuesta descartada por rate limit")
		_ = NewPlatform(s).ReplyEmbed(ctx, msg.ChannelID, msg.ID, domain.NewEmbed(
			domain.WithTitle("Slow down!"),
			domain.WithBody("You are submitting topics too fast, try again in a moment."),
			domain.WithColor(domain.ColorRed),
		))
		return
	}
	if err := r.topics.Submit(ctx, msg); err != nil {
		ev.WithError(err).Error("submit topic")
	}
}

func (r *Router) onReactionAdd(s *discordgo.Session, ev *discordgo.MessageReactionAdd) {
	if s.State.User != nil && ev.UserID == s.State.User.ID {
		return
	}
	if ev.ChannelID != r.topics.Settings().ModerationChannelID {
		return
	}

	e := r.newEvent("reaction").WithFields(logrus.Fields{"message": ev.MessageID, "user": ev.UserID, "emoji": ev.Emoji.APIName()})
	defer e.done()
	defer r.recoverEvent(e.Entry)

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	msg, err := s.ChannelMessage(ev.ChannelID, ev.MessageID, discordgo.WithContext(ctx))
	if err != nil {
		e.WithError(err).Warn("no se pudo leer el mensaje de moderación")
		return
	}
	err = r.topics.HandleReaction(ctx, service.Reaction{
		UserID:  ev.UserID,
		Emoji:   ev.Emoji.APIName(),
		Message: toModMessage(msg),
	})
	if err != nil {
		e.WithError(err).Error("handle reaction")
	}
}

func (r *Router) recoverEvent(log *logrus.Entry) {
	if rec := recover(); rec != nil {
		log.WithField("panic", rec).Error("panic procesando evento")
	}
}
