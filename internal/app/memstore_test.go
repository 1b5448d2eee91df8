package app

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"kanbanstudio/api/internal/board"
	"kanbanstudio/api/internal/store"
)

// memStore is an in-memory dataStore with the same ownership and ordering
// semantics as the Postgres store.
type memStore struct {
	mu      sync.Mutex
	users   map[string]store.User
	boards  map[string]store.Board
	columns map[int64]*store.Column
	cards   map[int64]*store.Card
	nextID  int64
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[string]store.User),
		boards:  make(map[string]store.Board),
		columns: make(map[int64]*store.Column),
		cards:   make(map[int64]*store.Card),
		nextID:  1,
	}
}

func (m *memStore) id() int64 {
	v := m.nextID
	m.nextID++
	return v
}

func (m *memStore) Ping(context.Context) error { return nil }

func (m *memStore) GetUserByUsername(_ context.Context, username string) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[username]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (m *memStore) EnsureUser(_ context.Context, username, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; !ok {
		m.users[username] = store.User{ID: m.id(), Username: username, PasswordHash: passwordHash}
	}
	return nil
}

func (m *memStore) EnsureBoard(_ context.Context, username string) (store.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[username]
	if !ok {
		return store.Board{}, sql.ErrNoRows
	}

	b, ok := m.boards[username]
	if !ok {
		b = store.Board{ID: m.id(), UserID: user.ID, Name: "My Board"}
		m.boards[username] = b
		for pos, seed := range store.SeedColumns {
			col := &store.Column{ID: m.id(), BoardID: b.ID, Title: seed.Title, Position: pos}
			m.columns[col.ID] = col
			for cardPos, card := range seed.Cards {
				c := &store.Card{ID: m.id(), ColumnID: col.ID, Title: card.Title, Details: card.Details, Position: cardPos}
				m.cards[c.ID] = c
			}
		}
	}
	return b, nil
}

func (m *memStore) ListColumns(_ context.Context, boardID int64) ([]store.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var columns []store.Column
	for _, col := range m.columns {
		if col.BoardID == boardID {
			columns = append(columns, *col)
		}
	}
	sort.Slice(columns, func(i, j int) bool { return columns[i].Position < columns[j].Position })
	return columns, nil
}

func (m *memStore) ListCards(_ context.Context, columnID int64) ([]store.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.columnCards(columnID), nil
}

func (m *memStore) columnCards(columnID int64) []store.Card {
	var cards []store.Card
	for _, card := range m.cards {
		if card.ColumnID == columnID {
			cards = append(cards, *card)
		}
	}
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Position != cards[j].Position {
			return cards[i].Position < cards[j].Position
		}
		return cards[i].ID < cards[j].ID
	})
	return cards
}

func (m *memStore) ColumnBoard(_ context.Context, columnID int64, username string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.boards[username]
	if !ok {
		return 0, sql.ErrNoRows
	}
	col, ok := m.columns[columnID]
	if !ok || col.BoardID != b.ID {
		return 0, sql.ErrNoRows
	}
	return b.ID, nil
}

func (m *memStore) OwnedCard(_ context.Context, cardID int64, username string) (store.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.boards[username]
	if !ok {
		return store.Card{}, sql.ErrNoRows
	}
	card, ok := m.cards[cardID]
	if !ok {
		return store.Card{}, sql.ErrNoRows
	}
	col, ok := m.columns[card.ColumnID]
	if !ok || col.BoardID != b.ID {
		return store.Card{}, sql.ErrNoRows
	}
	return *card, nil
}

func (m *memStore) RenameColumn(_ context.Context, columnID int64, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if col, ok := m.columns[columnID]; ok {
		col.Title = title
	}
	return nil
}

func (m *memStore) CreateCard(_ context.Context, columnID int64, title, details string) (store.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	maxPos := -1
	for _, card := range m.cards {
		if card.ColumnID == columnID && card.Position > maxPos {
			maxPos = card.Position
		}
	}
	c := &store.Card{ID: m.id(), ColumnID: columnID, Title: title, Details: details, Position: maxPos + 1}
	m.cards[c.ID] = c
	return *c, nil
}

func (m *memStore) UpdateCard(_ context.Context, cardID int64, title, details string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if card, ok := m.cards[cardID]; ok {
		card.Title = title
		card.Details = details
	}
	return nil
}

func (m *memStore) DeleteCard(_ context.Context, cardID, columnID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cards, cardID)
	m.writeOrder(columnID, m.orderedIDs(columnID))
	return nil
}

func (m *memStore) MoveCard(_ context.Context, cardID, sourceColumnID, targetColumnID int64, position int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sourceColumnID != targetColumnID {
		m.writeOrder(sourceColumnID, board.Remove(m.orderedIDs(sourceColumnID), cardID))
	}
	m.writeOrder(targetColumnID, board.Place(m.orderedIDs(targetColumnID), cardID, position))
	return nil
}

func (m *memStore) orderedIDs(columnID int64) []int64 {
	cards := m.columnCards(columnID)
	ids := make([]int64, 0, len(cards))
	for _, card := range cards {
		ids = append(ids, card.ID)
	}
	return ids
}

func (m *memStore) writeOrder(columnID int64, ids []int64) {
	for rank, id := range ids {
		if card, ok := m.cards[id]; ok {
			card.ColumnID = columnID
			card.Position = rank
		}
	}
}
