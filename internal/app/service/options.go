package service

import "time"

type Option func(*TopicService)

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *TopicService) { s.now = now }
}

// WithDecisionLog activa el registro de decisiones; sin él History queda deshabilitado.
func WithDecisionLog(l DecisionLog) Option {
	return func(s *TopicService) { s.decisions = l }
}
