package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jose-valero/topic-bot/internal/domain"
)

// PollInterval es el intervalo por defecto del poller de cooldown.
const PollInterval = 10 * time.Second

// los claims viven lo suficiente para cubrir eventos duplicados/tardíos
const claimTTL = 24 * time.Hour

// ElapseCooldown limpia el cooldown vencido y avisa en ambos canales. Devuelve
// true si en esta llamada se cerró el cooldown.
func (s *TopicService) ElapseCooldown(ctx context.Context) (bool, error) {
	now := s.now()
	if n := s.claims.prune(now.Add(-claimTTL)); n > 0 {
		s.log.WithField("claims", n).Debug("claims viejos eliminados")
	}

	cleared, _ := s.cooldown.ClearIfElapsed(ctx, now)
	if !cleared {
		return false, nil
	}
	s.log.Info("cooldown terminado")
	return true, s.announceOpen(ctx, "Cooldown elapsed")
}

func (s *TopicService) announceOpen(ctx context.Context, modTitle string) error {
	var errs []error
	if _, err := s.platform.SendEmbed(ctx, s.cfg.ModerationChannelID, "", domain.NewEmbed(domain.WithTitle(modTitle))); err != nil {
		errs = append(errs, fmt.Errorf("moderation announce: %w", err))
	}
	if _, err := s.platform.SendEmbed(ctx, s.cfg.TopicChannelID, "", domain.NewEmbed(domain.WithTitle("Topic submissions are now open"))); err != nil {
		errs = append(errs, fmt.Errorf("topic announce: %w", err))
	}
	return errors.Join(errs...)
}

// RunCooldownPoller revisa el cooldown cada interval hasta que ctx termine.
func (s *TopicService) RunCooldownPoller(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = PollInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			cctx, cancel := context.WithTimeout(ctx, 12*time.Second)
			if _, err := s.ElapseCooldown(cctx); err != nil {
				s.log.WithError(err).Error("error anunciando fin de cooldown")
			}
			cancel()
		}
	}
}
