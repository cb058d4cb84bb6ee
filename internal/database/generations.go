package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lawnchairsociety/dungen/internal/genlog"
)

const generationColumns = `entry_id, created_at, input, preset_id, source, model, reason, algorithm,
	params, mission, seed, attempts, success, error, fingerprint, warnings, duration_ms`

// RecordGeneration stores a generation log entry and returns its row ID.
// An entry ID that is already stored fails with genlog.ErrEntryExists.
func (d *Database) RecordGeneration(ctx context.Context, e genlog.Entry) (int64, error) {
	if e.ID == "" {
		return 0, fmt.Errorf("generation entry has no id")
	}
	paramsJSON, err := json.Marshal(e.Params)
	if err != nil {
		return 0, fmt.Errorf("failed to encode params: %w", err)
	}
	missionJSON, err := json.Marshal(e.Mission)
	if err != nil {
		return 0, fmt.Errorf("failed to encode mission: %w", err)
	}

	query := d.qb.BuildWithReturning(`INSERT INTO generation_log (`+generationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, "id")
	args := []any{
		e.ID, e.Timestamp.UTC().Format(time.RFC3339Nano), e.Input, e.PresetID, string(e.Source),
		e.Model, e.Reason, e.Algorithm, string(paramsJSON), string(missionJSON),
		e.Seed, e.Attempts, boolToInt(e.Success), e.Error, e.Fingerprint,
		strings.Join(e.Warnings, "\n"), e.DurationMS,
	}

	var id int64
	if d.dialect.SupportsLastInsertID() {
		var res sql.Result
		res, err = d.db.ExecContext(ctx, query, args...)
		if err == nil {
			id, err = res.LastInsertId()
		}
	} else {
		err = d.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		if d.dialect.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("%w: %s", genlog.ErrEntryExists, e.ID)
		}
		return 0, fmt.Errorf("failed to record generation: %w", err)
	}
	return id, nil
}

// Record implements genlog.Recorder.
func (d *Database) Record(ctx context.Context, e genlog.Entry) error {
	_, err := d.RecordGeneration(ctx, e)
	return err
}

// RecentGenerations returns up to limit entries, newest first. A limit of
// zero or less returns every entry.
func (d *Database) RecentGenerations(ctx context.Context, limit int) ([]genlog.Entry, error) {
	query := `SELECT ` + generationColumns + ` FROM generation_log ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, d.qb.Build(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []genlog.Entry
	for rows.Next() {
		e, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Recent implements genlog.History.
func (d *Database) Recent(ctx context.Context, limit int) ([]genlog.Entry, error) {
	return d.RecentGenerations(ctx, limit)
}

// GetGeneration returns the entry with the given ID, or nil if none exists.
func (d *Database) GetGeneration(ctx context.Context, entryID string) (*genlog.Entry, error) {
	row := d.db.QueryRowContext(ctx, d.qb.Build(`SELECT `+generationColumns+` FROM generation_log WHERE entry_id = ?`), entryID)
	e, err := scanGeneration(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// AlgorithmCounts returns how many successful generations used each
// algorithm.
func (d *Database) AlgorithmCounts(ctx context.Context) (map[string]int, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT algorithm, COUNT(*)
		FROM generation_log
		WHERE success = 1
		GROUP BY algorithm
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var alg string
		var n int
		if err := rows.Scan(&alg, &n); err != nil {
			return nil, err
		}
		counts[alg] = n
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGeneration(s scanner) (genlog.Entry, error) {
	var (
		e                     genlog.Entry
		createdAt, source     string
		paramsJSON, missionJS string
		warnings              string
		success               int
	)
	err := s.Scan(&e.ID, &createdAt, &e.Input, &e.PresetID, &source, &e.Model, &e.Reason, &e.Algorithm,
		&paramsJSON, &missionJS, &e.Seed, &e.Attempts, &success, &e.Error, &e.Fingerprint, &warnings, &e.DurationMS)
	if err != nil {
		return genlog.Entry{}, err
	}

	e.Source = genlog.Source(source)
	e.Success = success != 0
	if e.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return genlog.Entry{}, fmt.Errorf("bad timestamp for %s: %w", e.ID, err)
	}
	if e.Params, err = decodeParams(paramsJSON); err != nil {
		return genlog.Entry{}, fmt.Errorf("bad params for %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(missionJS), &e.Mission); err != nil {
		return genlog.Entry{}, fmt.Errorf("bad mission for %s: %w", e.ID, err)
	}
	if warnings != "" {
		e.Warnings = strings.Split(warnings, "\n")
	}
	return e, nil
}

// decodeParams restores whole numbers as ints so stored parameter sets
// revalidate without rounding.
func decodeParams(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	for k, v := range m {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			m[k] = int(i)
		} else if f, err := n.Float64(); err == nil {
			m[k] = f
		}
	}
	return m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
