package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/jose-valero/topic-bot/internal/adapters/httpstatus"
)

var db *pgxpool.Pool

func init() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	// sin DATABASE_URL respondemos 503
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logrus.Warn("DATABASE_URL vacío; status sin DB")
		return
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logrus.WithError(err).Error("pgx ParseConfig")
		return
	}
	cfg.MaxConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Error("pgxpool New")
		return
	}
	db = pool
}

// loadTill lee el cooldown persistido; nil si no hay fila o está vacío.
func loadTill(ctx context.Context, pool *pgxpool.Pool) (*time.Time, error) {
	var till *time.Time
	err := pool.QueryRow(ctx, `SELECT cooldown_till FROM cooldown_state WHERE id = 1`).Scan(&till)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return till, err
}

func respond(code int, body any) events.APIGatewayV2HTTPResponse {
	b, _ := json.Marshal(body)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: code,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	logrus.WithFields(logrus.Fields{
		"path":   req.RawPath,
		"method": req.RequestContext.HTTP.Method,
		"ip":     req.RequestContext.HTTP.SourceIP,
	}).Info("status hit")

	if m := req.RequestContext.HTTP.Method; m != "" && m != "GET" {
		return respond(405, map[string]string{"error": "method not allowed"}), nil
	}
	if db == nil {
		return respond(503, map[string]string{"error": "no database"}), nil
	}

	qctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	till, err := loadTill(qctx, db)
	if err != nil {
		logrus.WithError(err).Error("load cooldown")
		return respond(500, map[string]string{"error": "storage"}), nil
	}

	open := till == nil || !time.Now().Before(*till)
	return respond(200, httpstatus.NewBody(open, till)), nil
}

func main() { lambda.Start(handler) }
