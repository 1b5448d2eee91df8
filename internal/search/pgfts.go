package search

import (
	"context"
	"database/sql"
	"fmt"
)

// PgFTS searches cards with Postgres full-text search. It is the fallback
// when Meilisearch is absent or unhealthy.
type PgFTS struct {
	db *sql.DB
}

func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Search matches the user's cards against the query text.
func (p *PgFTS) Search(ctx context.Context, q Query) ([]Result, int, error) {
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT ca.id, ca.column_id, ca.title, ca.details
		FROM cards ca
		JOIN columns c ON ca.column_id = c.id
		JOIN boards b ON c.board_id = b.id
		JOIN users u ON b.user_id = u.id
		WHERE u.username = $1
		  AND to_tsvector('english', ca.title || ' ' || ca.details)
		      @@ plainto_tsquery('english', $2)
		ORDER BY ts_rank(
			to_tsvector('english', ca.title || ' ' || ca.details),
			plainto_tsquery('english', $2)
		) DESC
		LIMIT $3
	`, q.Username, q.Text, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts search: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var details string
		if err := rows.Scan(&r.CardID, &r.ColumnID, &r.Title, &details); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Snippet = snippet(details)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgfts rows: %w", err)
	}

	return results, len(results), nil
}

// LoadAllRecords reads every card with its owner, for reindexing into
// Meilisearch.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]CardRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT ca.id, ca.column_id, ca.title, ca.details, u.username
		FROM cards ca
		JOIN columns c ON ca.column_id = c.id
		JOIN boards b ON c.board_id = b.id
		JOIN users u ON b.user_id = u.id
	`)
	if err != nil {
		return nil, fmt.Errorf("pgfts load records: %w", err)
	}
	defer rows.Close()

	var records []CardRecord
	for rows.Next() {
		var rec CardRecord
		if err := rows.Scan(&rec.ID, &rec.ColumnID, &rec.Title, &rec.Details, &rec.Owner); err != nil {
			return nil, fmt.Errorf("pgfts scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgfts record rows: %w", err)
	}

	return records, nil
}
