package main

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jose-valero/topic-bot/internal/app/service"
	"github.com/jose-valero/topic-bot/internal/infra/config"
	"github.com/jose-valero/topic-bot/internal/infra/storage"
)

// state agrupa los stores del backend elegido. decisions es nil con el backend file.
type state struct {
	cooldown  service.StateStore
	decisions service.DecisionLog
	db        *sql.DB
}

func (s *state) Close() {
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
}

func openState(ctx context.Context, rt config.Runtime, log logrus.FieldLogger) (*state, error) {
	if strings.EqualFold(rt.StateBackend, "file") {
		return &state{cooldown: storage.NewFileStore(rt.StatePath)}, nil
	}

	d, err := storage.ParseDialect(rt.StateBackend)
	if err != nil {
		return nil, err
	}
	url := rt.DatabaseURL
	if d == storage.SQLite {
		url = rt.SQLitePath
	}

	db, err := storage.Open(ctx, d, url)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(db, d); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.WithField("dialect", d).Info("DB lista y migrada")

	return &state{
		cooldown:  storage.NewCooldownRepo(db, d),
		decisions: storage.NewDecisionRepo(db, d),
		db:        db,
	}, nil
}
