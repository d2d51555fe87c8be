package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// Janitor purges expired password reset codes and, when SessionTTL is set,
// bearer sessions older than it.
type Janitor struct {
	DB         *sql.DB
	Interval   time.Duration
	SessionTTL time.Duration
	Log        *zap.Logger

	now func() time.Time
}

// Sweep runs one purge pass and reports how many rows each table lost.
func (j *Janitor) Sweep(ctx context.Context) (codes, sessions int64, err error) {
	now := time.Now
	if j.now != nil {
		now = j.now
	}
	ts := now()

	codes, err = execCount(ctx, j.DB, `DELETE FROM password_resets WHERE expires_at < $1`, ts)
	if err != nil {
		return 0, 0, err
	}
	if j.SessionTTL <= 0 {
		return codes, 0, nil
	}
	sessions, err = execCount(ctx, j.DB, `DELETE FROM sessions WHERE created_at < $1`, ts.Add(-j.SessionTTL))
	if err != nil {
		return codes, 0, err
	}
	return codes, sessions, nil
}

func execCount(ctx context.Context, db *sql.DB, query string, arg any) (int64, error) {
	res, err := db.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Start sweeps every Interval in a goroutine until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	log := j.Log
	if log == nil {
		log = zap.NewNop()
	}
	ticker := time.NewTicker(j.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				codes, sessions, err := j.Sweep(ctx)
				if err != nil {
					log.Error("cleanup sweep failed", zap.Error(err))
					continue
				}
				if codes > 0 || sessions > 0 {
					log.Info("cleanup sweep",
						zap.Int64("reset_codes", codes),
						zap.Int64("sessions", sessions))
				}
			}
		}
	}()
}
