package service

import (
	"context"
	"errors"
	"time"

	"github.com/jose-valero/topic-bot/internal/domain"
)

var ErrHistoryDisabled = errors.New("decision history is not enabled for this state backend")

type StatusReport struct {
	Open bool
	// Till solo viene cuando el cooldown está activo.
	Till *time.Time
}

func (s *TopicService) Status() StatusReport {
	till, active := s.cooldown.Active(s.now())
	if !active {
		return StatusReport{Open: true}
	}
	return StatusReport{Open: false, Till: &till}
}

// Reset cierra el cooldown a mano. Devuelve false si no había cooldown.
func (s *TopicService) Reset(ctx context.Context, by string) (bool, error) {
	cleared, _ := s.cooldown.Clear(ctx)
	if !cleared {
		return false, nil
	}
	s.log.WithField("by", by).Info("cooldown reseteado por admin")
	return true, s.announceOpen(ctx, "Cooldown reset")
}

func (s *TopicService) History(ctx context.Context, limit int) ([]domain.Decision, error) {
	if s.decisions == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 || limit > 25 {
		limit = 10
	}
	return s.decisions.Recent(ctx, limit)
}
