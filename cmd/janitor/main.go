package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"github.com/jose-valero/topic-bot/internal/domain"
	"github.com/jose-valero/topic-bot/internal/infra/storage"
)

const (
	keepDenied   = 30 * 24 * time.Hour
	keepApproved = 365 * 24 * time.Hour
)

type result struct {
	Denied   int64 `json:"denied"`
	Approved int64 `json:"approved"`
}

func handler(ctx context.Context) (result, error) {
	log := logrus.WithField("lambda", "janitor")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Warn("sin DATABASE_URL, nada que limpiar")
		return result{}, nil
	}

	db, err := storage.Open(ctx, storage.Postgres, dsn)
	if err != nil {
		return result{}, fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	repo := storage.NewDecisionRepo(db, storage.Postgres)
	now := time.Now().UTC()

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var res result
	if res.Denied, err = repo.Prune(cctx, now.Add(-keepDenied), domain.VerdictDenied); err != nil {
		return res, fmt.Errorf("prune denied: %w", err)
	}
	if res.Approved, err = repo.Prune(cctx, now.Add(-keepApproved), domain.VerdictApproved); err != nil {
		return res, fmt.Errorf("prune approved: %w", err)
	}
	log.WithFields(logrus.Fields{"denied": res.Denied, "approved": res.Approved}).Info("decisiones purgadas")
	return res, nil
}

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	lambda.Start(handler)
}
