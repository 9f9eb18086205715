package store

import "context"

// Stats returns aggregate counters for the store.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM rankings`).Scan(&stats.Rankings)
	if err != nil {
		return nil, err
	}
	err = s.DB.QueryRowContext(ctx, `SELECT COUNT(DISTINCT keyword) FROM rankings`).Scan(&stats.Keywords)
	if err != nil {
		return nil, err
	}
	err = s.DB.QueryRowContext(ctx, `SELECT COUNT(DISTINCT domain) FROM rankings`).Scan(&stats.Domains)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
