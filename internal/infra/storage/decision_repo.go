package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/jose-valero/topic-bot/internal/domain"
)

type DecisionRepo struct {
	db *sql.DB
	d  Dialect
}

func NewDecisionRepo(db *sql.DB, d Dialect) *DecisionRepo { return &DecisionRepo{db: db, d: d} }

// Record inserta la decisión; si ya existe una para ese mensaje de moderación no hace nada.
func (r *DecisionRepo) Record(ctx context.Context, dec domain.Decision) error {
	_, err := r.db.ExecContext(ctx, r.d.rebind(`
INSERT INTO topic_decisions
  (moderation_message_id, submission_message_id, topic, author_mention, moderator_id, verdict, decided_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (moderation_message_id) DO NOTHING
`),
		dec.ModerationMessageID, dec.SubmissionMessageID, dec.Topic, dec.AuthorMention,
		dec.ModeratorID, string(dec.Verdict), r.d.timeArg(dec.DecidedAt),
	)
	return err
}

// Recent devuelve las últimas decisiones, la más nueva primero.
func (r *DecisionRepo) Recent(ctx context.Context, limit int) ([]domain.Decision, error) {
	rows, err := r.db.QueryContext(ctx, r.d.rebind(`
SELECT moderation_message_id, submission_message_id, topic, author_mention, moderator_id, verdict, decided_at
  FROM topic_decisions
 ORDER BY decided_at DESC
 LIMIT $1
`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Decision
	for rows.Next() {
		var (
			dec     domain.Decision
			verdict string
			at      dbTime
		)
		if err := rows.Scan(&dec.ModerationMessageID, &dec.SubmissionMessageID, &dec.Topic, &dec.AuthorMention,
			&dec.ModeratorID, &verdict, &at); err != nil {
			return nil, err
		}
		dec.Verdict = domain.Verdict(verdict)
		dec.DecidedAt = at.Time
		out = append(out, dec)
	}
	return out, rows.Err()
}

// Prune borra las decisiones con esos veredictos anteriores a before.
func (r *DecisionRepo) Prune(ctx context.Context, before time.Time, verdicts ...domain.Verdict) (int64, error) {
	if len(verdicts) == 0 {
		return 0, nil
	}
	names := make([]string, len(verdicts))
	for i, v := range verdicts {
		names[i] = string(v)
	}

	var (
		res sql.Result
		err error
	)
	switch r.d {
	case Postgres:
		res, err = r.db.ExecContext(ctx, `
DELETE FROM topic_decisions
 WHERE decided_at < $1
   AND verdict = ANY($2)
`, before, pq.Array(names))
	default:
		args := []any{r.d.timeArg(before)}
		marks := make([]string, len(names))
		for i, n := range names {
			marks[i] = "?"
			args = append(args, n)
		}
		res, err = r.db.ExecContext(ctx, `
DELETE FROM topic_decisions
 WHERE decided_at < ?
   AND verdict IN (`+strings.Join(marks, ",")+`)
`, args...)
	}
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
