package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fanwatch/fancontrol"
	"fanwatch/logging"
	"fanwatch/monitor"
)

// Attempt outcomes as stored.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// AttemptRecord is one row of recovery_attempts.
type AttemptRecord struct {
	AttemptID  string
	Reason     string
	Adapter    string
	StartedAt  time.Time
	Duration   time.Duration
	Outcome    string
	FailedStep string
	Error      string
}

// AlertRecord is one row of fan_alerts.
type AlertRecord struct {
	CycleID     string
	Adapter     string
	FanSpeedRPM int32
	FanSpeedPct int32
	TempC       int32
	RaisedAt    time.Time
	AlertError  string
}

// Summary counts journal rows since a point in time.
type Summary struct {
	Attempts       int
	FailedAttempts int
	Alerts         int
	ByReason       map[string]int
}

// Journal records recovery attempts and alerts. It implements
// fancontrol.AttemptRecorder and monitor.AlertRecorder.
type Journal struct {
	db     *Database
	writer *AsyncWriter
	logger *logging.Logger
}

var (
	_ fancontrol.AttemptRecorder = (*Journal)(nil)
	_ monitor.AlertRecorder      = (*Journal)(nil)
)

// NewJournal wraps db. Writes go through a background queue once Start is
// called and are synchronous before that.
func NewJournal(db *Database, logger *logging.Logger) *Journal {
	j := &Journal{db: db, logger: logger.Named("journal")}
	j.writer = NewAsyncWriter(DefaultQueueCapacity, func(err error) {
		j.logger.Warn("journal write failed", zap.Error(err))
	})
	return j
}

// OpenJournal opens the database at path and starts the write queue.
func OpenJournal(ctx context.Context, path string, logger *logging.Logger) (*Journal, error) {
	database, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	j := NewJournal(database, logger)
	j.Start()
	return j, nil
}

// Start enables queued writes.
func (j *Journal) Start() {
	j.writer.Start()
}

// RecordAttempt stores a recovery attempt.
func (j *Journal) RecordAttempt(ctx context.Context, a fancontrol.Attempt) error {
	rec := AttemptRecord{
		AttemptID: a.ID,
		Reason:    a.Trigger.Reason,
		Adapter:   a.Trigger.Adapter,
		StartedAt: a.StartedAt,
		Duration:  a.Duration,
		Outcome:   OutcomeOK,
	}
	if a.Err != nil {
		rec.Outcome = OutcomeFailed
		rec.Error = a.Err.Error()
		var se *fancontrol.StepError
		if errors.As(a.Err, &se) {
			rec.FailedStep = se.Step
		}
	}
	return j.write(ctx, func(ctx context.Context) error {
		return j.insertAttempt(ctx, rec)
	})
}

// RecordAlert stores an alert.
func (j *Journal) RecordAlert(ctx context.Context, e monitor.AlertEvent) error {
	rec := AlertRecord{
		CycleID:     e.CycleID,
		Adapter:     e.Adapter,
		FanSpeedRPM: e.Reading.FanSpeedRPM,
		FanSpeedPct: e.Reading.FanSpeedPct,
		TempC:       e.Reading.TempC,
		RaisedAt:    e.At,
	}
	if e.Err != nil {
		rec.AlertError = e.Err.Error()
	}
	return j.write(ctx, func(ctx context.Context) error {
		return j.insertAlert(ctx, rec)
	})
}

func (j *Journal) write(ctx context.Context, fn WriteFunc) error {
	if j.writer.Enqueue(fn) {
		return nil
	}
	return fn(ctx)
}

func (j *Journal) insertAttempt(ctx context.Context, r AttemptRecord) error {
	return j.db.with(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO recovery_attempts (
				attempt_id, reason, adapter, started_at_ms, duration_ms,
				outcome, failed_step, error_message
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.AttemptID, r.Reason, r.Adapter, r.StartedAt.UnixMilli(), r.Duration.Milliseconds(),
			r.Outcome, r.FailedStep, r.Error,
		)
		if err != nil {
			return fmt.Errorf("insert recovery attempt %s: %w", r.AttemptID, err)
		}
		return nil
	})
}

func (j *Journal) insertAlert(ctx context.Context, r AlertRecord) error {
	return j.db.with(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO fan_alerts (
				cycle_id, adapter, fan_speed_rpm, fan_speed_pct, temp_c,
				raised_at_ms, alert_error
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.CycleID, r.Adapter, r.FanSpeedRPM, r.FanSpeedPct, r.TempC,
			r.RaisedAt.UnixMilli(), r.AlertError,
		)
		if err != nil {
			return fmt.Errorf("insert alert for %s: %w", r.Adapter, err)
		}
		return nil
	})
}

// RecentAttempts returns up to limit attempts, newest first.
func (j *Journal) RecentAttempts(ctx context.Context, limit int) ([]AttemptRecord, error) {
	var out []AttemptRecord
	err := j.db.with(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `
			SELECT attempt_id, reason, adapter, started_at_ms, duration_ms,
			       outcome, failed_step, error_message
			FROM recovery_attempts
			ORDER BY started_at_ms DESC, id DESC
			LIMIT ?`, limit)
		if err != nil {
			return fmt.Errorf("query recovery attempts: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var r AttemptRecord
			var startedMS, durationMS int64
			if err := rows.Scan(&r.AttemptID, &r.Reason, &r.Adapter, &startedMS, &durationMS,
				&r.Outcome, &r.FailedStep, &r.Error); err != nil {
				return fmt.Errorf("scan recovery attempt: %w", err)
			}
			r.StartedAt = time.UnixMilli(startedMS)
			r.Duration = time.Duration(durationMS) * time.Millisecond
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}

// RecentAlerts returns up to limit alerts, newest first.
func (j *Journal) RecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	var out []AlertRecord
	err := j.db.with(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `
			SELECT cycle_id, adapter, fan_speed_rpm, fan_speed_pct, temp_c,
			       raised_at_ms, alert_error
			FROM fan_alerts
			ORDER BY raised_at_ms DESC, id DESC
			LIMIT ?`, limit)
		if err != nil {
			return fmt.Errorf("query alerts: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var r AlertRecord
			var raisedMS int64
			if err := rows.Scan(&r.CycleID, &r.Adapter, &r.FanSpeedRPM, &r.FanSpeedPct, &r.TempC,
				&raisedMS, &r.AlertError); err != nil {
				return fmt.Errorf("scan alert: %w", err)
			}
			r.RaisedAt = time.UnixMilli(raisedMS)
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}

// Summarize counts attempts and alerts recorded at or after since.
func (j *Journal) Summarize(ctx context.Context, since time.Time) (Summary, error) {
	s := Summary{ByReason: make(map[string]int)}
	cutoff := since.UnixMilli()

	err := j.db.with(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `
			SELECT reason, outcome, COUNT(*)
			FROM recovery_attempts
			WHERE started_at_ms >= ?
			GROUP BY reason, outcome`, cutoff)
		if err != nil {
			return fmt.Errorf("summarize attempts: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var reason, outcome string
			var n int
			if err := rows.Scan(&reason, &outcome, &n); err != nil {
				return fmt.Errorf("scan summary: %w", err)
			}
			s.Attempts += n
			s.ByReason[reason] += n
			if outcome == OutcomeFailed {
				s.FailedAttempts += n
			}
		}
		if err := rows.Err(); err != nil {
			return err
		}

		if err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM fan_alerts WHERE raised_at_ms >= ?`, cutoff,
		).Scan(&s.Alerts); err != nil {
			return fmt.Errorf("count alerts: %w", err)
		}
		return nil
	})
	return s, err
}

// Flush waits for queued writes and stops queueing; later writes are
// synchronous.
func (j *Journal) Flush(ctx context.Context) error {
	if !j.writer.Stop(ctx) {
		return fmt.Errorf("journal flush: %d writes still queued: %w", j.writer.Pending(), ctx.Err())
	}
	return nil
}

// Close flushes queued writes and closes the database. Its signature matches
// core.ShutdownFunc.
func (j *Journal) Close(ctx context.Context) error {
	flushErr := j.Flush(ctx)
	if err := j.db.Close(); err != nil {
		return err
	}
	return flushErr
}
