// Package store keeps historical call volumes, agent availability and
// agent skills in SQLite and serves the range queries the planner needs.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"workforce-scheduler/models"
)

//go:embed schema.sql
var schema string

// Store is a SQLite-backed source of scheduling inputs.
// Timestamps are stored as Unix seconds and returned in the store's location.
type Store struct {
	db     *sql.DB
	loc    *time.Location
	logger zerolog.Logger
}

// Open opens (creating if needed) the database file at path and applies
// the schema.
func Open(ctx context.Context, path string, loc *time.Location, logger zerolog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s := New(db, loc, logger)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection.
func New(db *sql.DB, loc *time.Location, logger zerolog.Logger) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{db: db, loc: loc, logger: logger.With().Str("component", "store").Logger()}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// SaveSamples upserts samples; a sample for an existing (queue, timestamp)
// replaces the stored one.
func (s *Store) SaveSamples(ctx context.Context, samples []models.HistoricalSample) (int, error) {
	return s.inTx(ctx, len(samples), `INSERT INTO historical_samples(queue_name, ts, call_count, avg_handle_time_seconds)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(queue_name, ts) DO UPDATE SET
			call_count = excluded.call_count,
			avg_handle_time_seconds = excluded.avg_handle_time_seconds`,
		func(stmt *sql.Stmt, i int) error {
			sm := samples[i]
			_, err := stmt.ExecContext(ctx, string(sm.Queue), sm.Timestamp.Unix(), sm.CallCount, sm.AverageHandleTimeSeconds)
			return err
		})
}

// SaveAvailabilities appends availability intervals in the given order.
func (s *Store) SaveAvailabilities(ctx context.Context, intervals []models.AgentAvailability) (int, error) {
	return s.inTx(ctx, len(intervals), `INSERT INTO agent_availabilities(agent_id, start_ts, end_ts, is_available)
		VALUES (?, ?, ?, ?)`,
		func(stmt *sql.Stmt, i int) error {
			iv := intervals[i]
			_, err := stmt.ExecContext(ctx, int64(iv.AgentID), iv.Start.Unix(), iv.End.Unix(), iv.IsAvailable)
			return err
		})
}

// SaveSkills upserts skills; an agent holds at most one skill per queue.
func (s *Store) SaveSkills(ctx context.Context, skills []models.AgentSkill) (int, error) {
	return s.inTx(ctx, len(skills), `INSERT INTO agent_skills(agent_id, queue_name, efficiency, skill_level, is_primary)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(agent_id, queue_name) DO UPDATE SET
			efficiency = excluded.efficiency,
			skill_level = excluded.skill_level,
			is_primary = excluded.is_primary`,
		func(stmt *sql.Stmt, i int) error {
			sk := skills[i]
			_, err := stmt.ExecContext(ctx, int64(sk.AgentID), string(sk.Queue), sk.EfficiencyCoefficient, sk.SkillLevel, sk.IsPrimary)
			return err
		})
}

// Samples returns the samples of the given queues with from <= ts < to,
// newest first.
func (s *Store) Samples(ctx context.Context, queues []models.QueueName, from, to time.Time) ([]models.HistoricalSample, error) {
	if len(queues) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT queue_name, ts, call_count, avg_handle_time_seconds
		FROM historical_samples
		WHERE queue_name IN (%s) AND ts >= ? AND ts < ?
		ORDER BY ts DESC, queue_name`, placeholders(len(queues)))
	args := append(queueArgs(queues), from.Unix(), to.Unix())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []models.HistoricalSample
	for rows.Next() {
		var (
			sm    models.HistoricalSample
			queue string
			ts    int64
		)
		if err := rows.Scan(&queue, &ts, &sm.CallCount, &sm.AverageHandleTimeSeconds); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		sm.Queue = models.QueueName(queue)
		sm.Timestamp = time.Unix(ts, 0).In(s.loc)
		out = append(out, sm)
	}
	return out, rows.Err()
}

// Availabilities returns every interval overlapping [from, to) in the order
// they were saved, which is the order that decides overlapping conflicts.
func (s *Store) Availabilities(ctx context.Context, from, to time.Time) ([]models.AgentAvailability, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT agent_id, start_ts, end_ts, is_available
		FROM agent_availabilities
		WHERE start_ts < ? AND end_ts > ?
		ORDER BY id`, to.Unix(), from.Unix())
	if err != nil {
		return nil, fmt.Errorf("query availabilities: %w", err)
	}
	defer rows.Close()

	var out []models.AgentAvailability
	for rows.Next() {
		var (
			iv         models.AgentAvailability
			agent      int64
			start, end int64
		)
		if err := rows.Scan(&agent, &start, &end, &iv.IsAvailable); err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		iv.AgentID = models.AgentID(agent)
		iv.Start = time.Unix(start, 0).In(s.loc)
		iv.End = time.Unix(end, 0).In(s.loc)
		out = append(out, iv)
	}
	return out, rows.Err()
}

// Skills returns the skills held for the given queues.
func (s *Store) Skills(ctx context.Context, queues []models.QueueName) ([]models.AgentSkill, error) {
	if len(queues) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT agent_id, queue_name, efficiency, skill_level, is_primary
		FROM agent_skills
		WHERE queue_name IN (%s)
		ORDER BY agent_id, queue_name`, placeholders(len(queues)))

	rows, err := s.db.QueryContext(ctx, query, queueArgs(queues)...)
	if err != nil {
		return nil, fmt.Errorf("query skills: %w", err)
	}
	defer rows.Close()

	var out []models.AgentSkill
	for rows.Next() {
		var (
			sk    models.AgentSkill
			agent int64
			queue string
		)
		if err := rows.Scan(&agent, &queue, &sk.EfficiencyCoefficient, &sk.SkillLevel, &sk.IsPrimary); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		sk.AgentID = models.AgentID(agent)
		sk.Queue = models.QueueName(queue)
		out = append(out, sk)
	}
	return out, rows.Err()
}

// DeleteOlderThan removes samples recorded before the cutoff.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM historical_samples WHERE ts < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete samples: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("pruned historical samples")
	return n, nil
}

func (s *Store) inTx(ctx context.Context, n int, query string, exec func(*sql.Stmt, int) error) (int, error) {
	if n == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range n {
		if err := exec(stmt, i); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug().Int("rows", n).Msg("saved rows")
	return n, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func queueArgs(queues []models.QueueName) []any {
	args := make([]any, len(queues))
	for i, q := range queues {
		args[i] = string(q)
	}
	return args
}
