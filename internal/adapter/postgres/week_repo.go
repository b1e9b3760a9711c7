package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"trainlog/internal/domain"
	"trainlog/internal/errs"
)

// WeekRepo is the remote store adapter. Records live under a per-user
// namespace; every call resolves the caller identity first and fails with an
// authentication error instead of proceeding anonymously. The adapter never
// retries; retry policy belongs to the sync flush.
type WeekRepo struct {
	db    *DB
	ident domain.Identity
}

// NewWeekRepo wraps a DB as the identity-scoped remote store.
func NewWeekRepo(db *DB, ident domain.Identity) *WeekRepo {
	return &WeekRepo{db: db, ident: ident}
}

var _ domain.RemoteStore = (*WeekRepo)(nil)

// Get retrieves the record for a key, or (nil, nil) when none exists.
func (r *WeekRepo) Get(ctx context.Context, key domain.WeekKey) (*domain.WeekRecord, error) {
	userID, err := r.ident.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	var (
		rec  domain.WeekRecord
		logs []byte
	)
	err = r.db.sql.QueryRowContext(ctx,
		"SELECT iso_year, iso_week, target_value, target_unit, daily_logs, last_modified FROM week_records WHERE user_id = $1 AND week_key = $2;",
		userID, key.String(),
	).Scan(&rec.Year, &rec.Week, &rec.Target.Value, &rec.Target.Unit, &logs, &rec.LastModified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.Network, "remote store", "get "+key.String(), err)
	}
	if err := json.Unmarshal(logs, &rec.DailyLogs); err != nil {
		return nil, errs.Wrap(errs.Serialization, "remote store", "decode daily logs for "+key.String(), err)
	}
	return &rec, nil
}

// Put upserts the record for a key inside the caller's namespace.
func (r *WeekRepo) Put(ctx context.Context, key domain.WeekKey, rec domain.WeekRecord) error {
	userID, err := r.ident.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	logs, err := json.Marshal(rec.DailyLogs)
	if err != nil {
		return errs.Wrap(errs.Serialization, "remote store", "encode daily logs for "+key.String(), err)
	}

	_, err = r.db.sql.ExecContext(ctx,
		`INSERT INTO week_records (user_id, week_key, iso_year, iso_week, target_value, target_unit, daily_logs, last_modified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, week_key) DO UPDATE SET
			target_value = EXCLUDED.target_value,
			target_unit = EXCLUDED.target_unit,
			daily_logs = EXCLUDED.daily_logs,
			last_modified = EXCLUDED.last_modified;`,
		userID, key.String(), rec.Year, rec.Week,
		rec.Target.Value, rec.Target.Unit, logs, rec.LastModified.UTC(),
	)
	if err != nil {
		return errs.Wrap(errs.Network, "remote store", "put "+key.String(), err)
	}
	return nil
}
