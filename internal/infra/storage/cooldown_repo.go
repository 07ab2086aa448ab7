package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// CooldownRepo guarda cooldown_till en la tabla de una sola fila cooldown_state.
type CooldownRepo struct {
	db *sql.DB
	d  Dialect
}

func NewCooldownRepo(db *sql.DB, d Dialect) *CooldownRepo { return &CooldownRepo{db: db, d: d} }

func (r *CooldownRepo) Save(ctx context.Context, till *time.Time) error {
	var arg any
	if till != nil {
		arg = r.d.timeArg(*till)
	}
	_, err := r.db.ExecContext(ctx, r.d.rebind(`
INSERT INTO cooldown_state (id, cooldown_till, updated_at)
VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE SET
  cooldown_till = EXCLUDED.cooldown_till,
  updated_at    = EXCLUDED.updated_at
`), arg, r.d.timeArg(time.Now()))
	return err
}

func (r *CooldownRepo) Load(ctx context.Context) (*time.Time, error) {
	var till dbTime
	err := r.db.QueryRowContext(ctx, `SELECT cooldown_till FROM cooldown_state WHERE id = 1`).Scan(&till)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !till.Valid {
		return nil, nil
	}
	return &till.Time, nil
}
