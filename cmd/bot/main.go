package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	discordrouter "github.com/jose-valero/topic-bot/internal/adapters/discord"
	"github.com/jose-valero/topic-bot/internal/adapters/httpstatus"
	"github.com/jose-valero/topic-bot/internal/app/service"
	"github.com/jose-valero/topic-bot/internal/infra/config"
)

func main() {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.WithField("level", cfg.LogLevel).Warn("LOG_LEVEL inválido, uso info")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// estado
	st, err := openState(ctx, cfg.Runtime, log)
	if err != nil {
		log.WithError(err).Fatal("state backend")
	}
	defer st.Close()
	log.WithField("backend", cfg.StateBackend).Info("✅ estado listo")

	cd := service.NewCooldown(st.cooldown, log.WithField("component", "cooldown"))
	cd.Restore(ctx)

	// Discord session
	auth := strings.TrimSpace(cfg.Token)
	if !strings.HasPrefix(strings.ToLower(auth), "bot ") {
		auth = "Bot " + auth
	}
	s, err := discordgo.New(auth)
	if err != nil {
		log.WithError(err).Fatal("discord session")
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent

	// services
	var opts []service.Option
	if st.decisions != nil {
		opts = append(opts, service.WithDecisionLog(st.decisions))
	}
	topics := service.NewTopicService(
		discordrouter.NewPlatform(s),
		cd,
		service.Settings{
			TopicChannelID:      cfg.Channels.Topic,
			ModerationChannelID: cfg.Channels.Moderation,
			Command:             cfg.Command(),
			ApproveEmoji:        discordrouter.NormalizeEmoji(cfg.Reacts.Approve),
			DenyEmoji:           discordrouter.NormalizeEmoji(cfg.Reacts.Deny),
			TopicChannelPrefix:  cfg.TopicChannelPrefix,
			Cooldown:            cfg.CooldownDuration(),
		},
		log.WithField("component", "topics"),
		opts...,
	)

	// router (handlers antes de Open para recibir el Ready)
	r := discordrouter.NewRouter(s, topics, discordrouter.RouterCfg{
		GuildID:      cfg.Guild,
		AdminRoleIDs: cfg.AdminRoles,
		SubmitWindow: time.Duration(cfg.RateLimitSeconds) * time.Second,
	}, log.WithField("component", "discord"))
	r.Handlers()

	if err := s.Open(); err != nil {
		log.WithError(err).Fatal("discord open")
	}
	defer s.Close()

	if err := r.Register(); err != nil {
		log.WithError(err).Fatal("registrando comandos")
	}
	log.WithField("guild", cfg.Guild).Info("✅ bot listo")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return topics.RunCooldownPoller(gctx, cfg.PollInterval)
	})
	g.Go(func() error {
		return httpstatus.New(topics, log.WithField("component", "http")).Start(gctx, cfg.HTTPAddr)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case err := <-r.Fatal():
			return err
		}
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("bot detenido por error")
		s.Close()
		st.Close()
		os.Exit(1)
	}
	log.Info("apagando")
}
