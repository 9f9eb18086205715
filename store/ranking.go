package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hazyhaar/rankwatch/idgen"
)

const rankingColumns = `id, keyword, domain, checked_at, found, position,
	link, title, snippet, total_results, search_params`

// InsertRanking appends an observation and returns its ID. Missing ID and
// CheckedAt are filled in. If CheckedAt does not advance past the latest
// stored observation for the same (keyword, domain), as happens with two
// probes in the same millisecond, it is bumped to latest+1 so that insertion order
// and timestamp order always agree.
func (s *Store) InsertRanking(ctx context.Context, r *Ranking) (string, error) {
	if r.ID == "" {
		r.ID = idgen.New()
	}
	if r.CheckedAt == 0 {
		r.CheckedAt = time.Now().UnixMilli()
	}
	if r.SearchParamsJSON == "" {
		r.SearchParamsJSON = "{}"
	}

	var last sql.NullInt64
	err := s.DB.QueryRowContext(ctx,
		`SELECT MAX(checked_at) FROM rankings WHERE keyword = ? AND domain = ?`,
		r.Keyword, r.Domain).Scan(&last)
	if err != nil {
		return "", fmt.Errorf("store: latest checked_at: %w", err)
	}
	if last.Valid && r.CheckedAt <= last.Int64 {
		r.CheckedAt = last.Int64 + 1
	}

	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO rankings (id, keyword, domain, checked_at, found, position,
		link, title, snippet, total_results, search_params)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Keyword, r.Domain, r.CheckedAt, r.Found, r.Position,
		r.Link, r.Title, r.Snippet, r.TotalResults, r.SearchParamsJSON,
	)
	if err != nil {
		return "", fmt.Errorf("store: insert ranking: %w", err)
	}
	return r.ID, nil
}

// History returns the most recent observations for a (keyword, domain)
// pair, newest first.
func (s *Store) History(ctx context.Context, keyword, domain string, limit int) ([]*Ranking, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+rankingColumns+`
		FROM rankings WHERE keyword = ? AND domain = ?
		ORDER BY checked_at DESC LIMIT ?`, keyword, domain, limit)
	if err != nil {
		return nil, fmt.Errorf("store: history: %w", err)
	}
	defer rows.Close()
	return scanRankings(rows)
}

// Latest returns the most recent observation for a (keyword, domain) pair,
// or nil when none exists.
func (s *Store) Latest(ctx context.Context, keyword, domain string) (*Ranking, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+rankingColumns+`
		FROM rankings WHERE keyword = ? AND domain = ?
		ORDER BY checked_at DESC LIMIT 1`, keyword, domain)

	r, err := scanRanking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// ChangesWithin returns all observations for a pair recorded within the
// last given hours, newest first.
func (s *Store) ChangesWithin(ctx context.Context, keyword, domain string, hours int) ([]*Ranking, error) {
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour).UnixMilli()
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+rankingColumns+`
		FROM rankings WHERE keyword = ? AND domain = ? AND checked_at >= ?
		ORDER BY checked_at DESC`, keyword, domain, cutoff)
	if err != nil {
		return nil, fmt.Errorf("store: changes within: %w", err)
	}
	defer rows.Close()
	return scanRankings(rows)
}

// Keywords returns all distinct keywords in the store.
func (s *Store) Keywords(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT keyword FROM rankings ORDER BY keyword`)
}

// Domains returns all distinct domains in the store.
func (s *Store) Domains(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT domain FROM rankings ORDER BY domain`)
}

// PurgeOlderThan deletes observations older than the given number of days
// and returns the number of rows removed.
func (s *Store) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days).UnixMilli()
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM rankings WHERE checked_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("store: purge: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: distinct: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("store: scan distinct: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRanking(row scannable) (*Ranking, error) {
	var r Ranking
	err := row.Scan(&r.ID, &r.Keyword, &r.Domain, &r.CheckedAt, &r.Found,
		&r.Position, &r.Link, &r.Title, &r.Snippet, &r.TotalResults,
		&r.SearchParamsJSON)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanRankings(rows *sql.Rows) ([]*Ranking, error) {
	var result []*Ranking
	for rows.Next() {
		r, err := scanRanking(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan ranking: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
