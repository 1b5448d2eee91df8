package store

import (
	"context"
	"database/sql"
	"fmt"

	"kanbanstudio/api/internal/board"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE username=$1`,
		username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// EnsureUser creates the user if absent. Existing users keep their hash.
func (s *PostgresStore) EnsureUser(ctx context.Context, username, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (username) DO NOTHING
	`, username, passwordHash)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

// EnsureBoard returns the user's board, creating and seeding it on first
// access. Returns sql.ErrNoRows if the user does not exist.
func (s *PostgresStore) EnsureBoard(ctx context.Context, username string) (Board, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Board{}, fmt.Errorf("begin ensure board: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var userID int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username=$1`, username).Scan(&userID); err != nil {
		return Board{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO boards (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return Board{}, fmt.Errorf("insert board: %w", err)
	}

	var b Board
	if err := tx.QueryRowContext(ctx,
		`SELECT id, user_id, name FROM boards WHERE user_id=$1`, userID,
	).Scan(&b.ID, &b.UserID, &b.Name); err != nil {
		return Board{}, fmt.Errorf("read board: %w", err)
	}

	var hasColumns bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM columns WHERE board_id=$1)`, b.ID,
	).Scan(&hasColumns); err != nil {
		return Board{}, fmt.Errorf("check columns: %w", err)
	}

	if !hasColumns {
		for pos, seed := range SeedColumns {
			var columnID int64
			if err := tx.QueryRowContext(ctx, `
				INSERT INTO columns (board_id, title, position)
				VALUES ($1, $2, $3) RETURNING id
			`, b.ID, seed.Title, pos).Scan(&columnID); err != nil {
				return Board{}, fmt.Errorf("seed column %q: %w", seed.Title, err)
			}
			for cardPos, card := range seed.Cards {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO cards (column_id, title, details, position)
					VALUES ($1, $2, $3, $4)
				`, columnID, card.Title, card.Details, cardPos); err != nil {
					return Board{}, fmt.Errorf("seed card %q: %w", card.Title, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Board{}, fmt.Errorf("commit ensure board: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) ListColumns(ctx context.Context, boardID int64) ([]Column, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, board_id, title, position
		FROM columns WHERE board_id=$1 ORDER BY position
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	columns := make([]Column, 0)
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.ID, &c.BoardID, &c.Title, &c.Position); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return columns, nil
}

func (s *PostgresStore) ListCards(ctx context.Context, columnID int64) ([]Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, column_id, title, details, position
		FROM cards WHERE column_id=$1 ORDER BY position
	`, columnID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	cards := make([]Card, 0)
	for rows.Next() {
		var c Card
		if err := rows.Scan(&c.ID, &c.ColumnID, &c.Title, &c.Details, &c.Position); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}

// ColumnBoard resolves column -> board -> user and returns the board id iff
// the column belongs to the named user. Returns sql.ErrNoRows otherwise, so
// foreign and missing columns are indistinguishable to callers.
func (s *PostgresStore) ColumnBoard(ctx context.Context, columnID int64, username string) (int64, error) {
	var boardID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT b.id FROM columns c
		JOIN boards b ON c.board_id = b.id
		JOIN users u ON b.user_id = u.id
		WHERE c.id = $1 AND u.username = $2
	`, columnID, username).Scan(&boardID)
	if err != nil {
		return 0, err
	}
	return boardID, nil
}

// OwnedCard resolves card -> column -> board -> user and returns the card
// iff it belongs to the named user. Returns sql.ErrNoRows otherwise.
func (s *PostgresStore) OwnedCard(ctx context.Context, cardID int64, username string) (Card, error) {
	var c Card
	err := s.db.QueryRowContext(ctx, `
		SELECT ca.id, ca.column_id, ca.title, ca.details, ca.position
		FROM cards ca
		JOIN columns c ON ca.column_id = c.id
		JOIN boards b ON c.board_id = b.id
		JOIN users u ON b.user_id = u.id
		WHERE ca.id = $1 AND u.username = $2
	`, cardID, username).Scan(&c.ID, &c.ColumnID, &c.Title, &c.Details, &c.Position)
	if err != nil {
		return Card{}, err
	}
	return c, nil
}

func (s *PostgresStore) RenameColumn(ctx context.Context, columnID int64, title string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE columns SET title=$1 WHERE id=$2`, title, columnID)
	if err != nil {
		return fmt.Errorf("rename column: %w", err)
	}
	return nil
}

// CreateCard appends a card at the end of the column without touching
// sibling positions.
func (s *PostgresStore) CreateCard(ctx context.Context, columnID int64, title, details string) (Card, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Card{}, fmt.Errorf("begin create card: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var card Card
	err = tx.QueryRowContext(ctx, `
		INSERT INTO cards (column_id, title, details, position)
		VALUES ($1, $2, $3, (SELECT COALESCE(MAX(position), -1) + 1 FROM cards WHERE column_id=$1))
		RETURNING id, column_id, title, details, position
	`, columnID, title, details).Scan(&card.ID, &card.ColumnID, &card.Title, &card.Details, &card.Position)
	if err != nil {
		return Card{}, fmt.Errorf("insert card: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Card{}, fmt.Errorf("commit create card: %w", err)
	}
	return card, nil
}

func (s *PostgresStore) UpdateCard(ctx context.Context, cardID int64, title, details string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE cards SET title=$1, details=$2 WHERE id=$3`,
		title, details, cardID,
	)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return nil
}

// DeleteCard removes the card and reindexes the vacated column in one
// transaction.
func (s *PostgresStore) DeleteCard(ctx context.Context, cardID, columnID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete card: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id=$1`, cardID); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}

	ids, err := columnCardIDs(ctx, tx, columnID)
	if err != nil {
		return err
	}
	if err := writeOrder(ctx, tx, columnID, ids); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete card: %w", err)
	}
	return nil
}

// MoveCard relocates a card within or across columns. The new ordering is
// computed by rebuilding the full ordered id list of each affected column;
// the desired position clamps to the nearest valid end. Source and target
// are rewritten in one transaction so no reader observes the card in both.
func (s *PostgresStore) MoveCard(ctx context.Context, cardID, sourceColumnID, targetColumnID int64, position int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin move card: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if sourceColumnID != targetColumnID {
		sourceIDs, err := columnCardIDs(ctx, tx, sourceColumnID)
		if err != nil {
			return err
		}
		if err := writeOrder(ctx, tx, sourceColumnID, board.Remove(sourceIDs, cardID)); err != nil {
			return err
		}
	}

	targetIDs, err := columnCardIDs(ctx, tx, targetColumnID)
	if err != nil {
		return err
	}
	if err := writeOrder(ctx, tx, targetColumnID, board.Place(targetIDs, cardID, position)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit move card: %w", err)
	}
	return nil
}

// ReindexColumn rewrites the column's card positions to their rank in the
// current order. A column already satisfying the contiguity invariant is
// unchanged.
func (s *PostgresStore) ReindexColumn(ctx context.Context, columnID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reindex: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids, err := columnCardIDs(ctx, tx, columnID)
	if err != nil {
		return err
	}
	if err := writeOrder(ctx, tx, columnID, ids); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reindex: %w", err)
	}
	return nil
}

func columnCardIDs(ctx context.Context, tx *sql.Tx, columnID int64) ([]int64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM cards WHERE column_id=$1 ORDER BY position, id`, columnID)
	if err != nil {
		return nil, fmt.Errorf("list card ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan card id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card ids: %w", err)
	}
	return ids, nil
}

// writeOrder assigns each id its rank in the given order, moving the card
// into the column if it came from elsewhere.
func writeOrder(ctx context.Context, tx *sql.Tx, columnID int64, ids []int64) error {
	for rank, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE cards SET column_id=$1, position=$2 WHERE id=$3`,
			columnID, rank, id,
		); err != nil {
			return fmt.Errorf("write position %d: %w", rank, err)
		}
	}
	return nil
}
