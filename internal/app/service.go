package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"kanbanstudio/api/internal/ai"
	"kanbanstudio/api/internal/auth"
	"kanbanstudio/api/internal/config"
	"kanbanstudio/api/internal/ratelimit"
	"kanbanstudio/api/internal/search"
	"kanbanstudio/api/internal/store"
)

// Session is an authenticated caller.
type Session struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

// dataStore is the persistence surface the service depends on.
type dataStore interface {
	Ping(ctx context.Context) error
	GetUserByUsername(ctx context.Context, username string) (store.User, error)
	EnsureUser(ctx context.Context, username, passwordHash string) error
	EnsureBoard(ctx context.Context, username string) (store.Board, error)
	ListColumns(ctx context.Context, boardID int64) ([]store.Column, error)
	ListCards(ctx context.Context, columnID int64) ([]store.Card, error)
	ColumnBoard(ctx context.Context, columnID int64, username string) (int64, error)
	OwnedCard(ctx context.Context, cardID int64, username string) (store.Card, error)
	RenameColumn(ctx context.Context, columnID int64, title string) error
	CreateCard(ctx context.Context, columnID int64, title, details string) (store.Card, error)
	UpdateCard(ctx context.Context, cardID int64, title, details string) error
	DeleteCard(ctx context.Context, cardID, columnID int64) error
	MoveCard(ctx context.Context, cardID, sourceColumnID, targetColumnID int64, position int) error
}

// Assistant is the LLM surface used by the chat endpoints. Nil means no
// assistant is configured.
type Assistant interface {
	Converse(ctx context.Context, state ai.BoardState, message string, history []ai.Message) (ai.Reply, error)
	SimpleChat(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	cfg       config.Config
	store     dataStore
	assistant Assistant
	limiter   ratelimit.Limiter
	search    *search.Service
	log       *zap.Logger
}

// New creates the application service. assistant and searcher may be nil.
func New(cfg config.Config, st dataStore, assistant Assistant, limiter ratelimit.Limiter, searcher *search.Service, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		cfg:       cfg,
		store:     st,
		assistant: assistant,
		limiter:   limiter,
		search:    searcher,
		log:       log,
	}
}

// Bootstrap provisions the seed user and their board, then warms the search
// index. Safe to run on every startup.
func (s *Service) Bootstrap(ctx context.Context) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}
	if err := s.store.EnsureUser(ctx, s.cfg.SeedUsername, string(hash)); err != nil {
		return fmt.Errorf("bootstrap user: %w", err)
	}
	if _, err := s.store.EnsureBoard(ctx, s.cfg.SeedUsername); err != nil {
		return fmt.Errorf("bootstrap board: %w", err)
	}
	if s.search != nil {
		s.search.ReindexAll(ctx)
	}
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Login verifies credentials and issues a signed token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials", nil)
		}
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials", nil)
	}

	expiresAt := time.Now().Add(s.cfg.TokenTTL)
	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), user.Username, s.cfg.TokenTTL)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	return Session{Token: token, Username: user.Username, ExpiresAt: expiresAt}, nil
}

// SessionFromToken validates a bearer token and confirms the user still
// exists.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	username, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	if _, err := s.store.GetUserByUsername(ctx, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, auth.ErrInvalidToken
		}
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	return Session{Token: token, Username: username}, nil
}

type CardPayload struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Details  string `json:"details"`
	Position int    `json:"position"`
}

type ColumnPayload struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Position int           `json:"position"`
	Cards    []CardPayload `json:"cards"`
}

// BoardPayload is the board snapshot returned by every board endpoint.
type BoardPayload struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Columns []ColumnPayload `json:"columns"`
}

// LoadBoard assembles the full board for the user, provisioning a seeded
// board on first access.
func (s *Service) LoadBoard(ctx context.Context, session Session) (BoardPayload, error) {
	board, err := s.store.EnsureBoard(ctx, session.Username)
	if err != nil {
		return BoardPayload{}, fmt.Errorf("ensure board: %w", err)
	}

	columns, err := s.store.ListColumns(ctx, board.ID)
	if err != nil {
		return BoardPayload{}, err
	}

	payload := BoardPayload{ID: board.ID, Name: board.Name, Columns: make([]ColumnPayload, 0, len(columns))}
	for _, col := range columns {
		cards, err := s.store.ListCards(ctx, col.ID)
		if err != nil {
			return BoardPayload{}, err
		}
		colPayload := ColumnPayload{
			ID:       col.ID,
			Title:    col.Title,
			Position: col.Position,
			Cards:    make([]CardPayload, 0, len(cards)),
		}
		for _, card := range cards {
			colPayload.Cards = append(colPayload.Cards, CardPayload{
				ID:       card.ID,
				Title:    card.Title,
				Details:  card.Details,
				Position: card.Position,
			})
		}
		payload.Columns = append(payload.Columns, colPayload)
	}
	return payload, nil
}

// RenameColumn updates a column title and returns the refreshed board.
func (s *Service) RenameColumn(ctx context.Context, session Session, columnID int64, title string) (BoardPayload, error) {
	if _, err := s.store.ColumnBoard(ctx, columnID, session.Username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BoardPayload{}, domainError(http.StatusNotFound, "NOT_FOUND", "Column not found", nil)
		}
		return BoardPayload{}, err
	}
	if err := s.store.RenameColumn(ctx, columnID, title); err != nil {
		return BoardPayload{}, err
	}
	return s.LoadBoard(ctx, session)
}

// CreateCard appends a card to the end of the column and returns the
// refreshed board.
func (s *Service) CreateCard(ctx context.Context, session Session, columnID int64, title, details string) (BoardPayload, error) {
	if _, err := s.store.ColumnBoard(ctx, columnID, session.Username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BoardPayload{}, domainError(http.StatusNotFound, "NOT_FOUND", "Column not found", nil)
		}
		return BoardPayload{}, err
	}

	card, err := s.store.CreateCard(ctx, columnID, title, details)
	if err != nil {
		return BoardPayload{}, err
	}
	s.indexCard(session.Username, card)

	return s.LoadBoard(ctx, session)
}

// UpdateCard changes a card's title and/or details. A nil field leaves the
// stored value unchanged.
func (s *Service) UpdateCard(ctx context.Context, session Session, cardID int64, title, details *string) (BoardPayload, error) {
	card, err := s.store.OwnedCard(ctx, cardID, session.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BoardPayload{}, domainError(http.StatusNotFound, "NOT_FOUND", "Card not found", nil)
		}
		return BoardPayload{}, err
	}

	newTitle := card.Title
	if title != nil {
		newTitle = *title
	}
	newDetails := card.Details
	if details != nil {
		newDetails = *details
	}

	if err := s.store.UpdateCard(ctx, cardID, newTitle, newDetails); err != nil {
		return BoardPayload{}, err
	}
	card.Title = newTitle
	card.Details = newDetails
	s.indexCard(session.Username, card)

	return s.LoadBoard(ctx, session)
}

// DeleteCard removes a card; its former column is reindexed so positions
// stay contiguous.
func (s *Service) DeleteCard(ctx context.Context, session Session, cardID int64) (BoardPayload, error) {
	card, err := s.store.OwnedCard(ctx, cardID, session.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BoardPayload{}, domainError(http.StatusNotFound, "NOT_FOUND", "Card not found", nil)
		}
		return BoardPayload{}, err
	}

	if err := s.store.DeleteCard(ctx, card.ID, card.ColumnID); err != nil {
		return BoardPayload{}, err
	}
	if s.search != nil {
		s.search.DeleteCard(card.ID)
	}

	return s.LoadBoard(ctx, session)
}

// MoveCard relocates a card within or across columns. An out-of-range
// position clamps to the nearest end of the target column.
func (s *Service) MoveCard(ctx context.Context, session Session, cardID, targetColumnID int64, position int) (BoardPayload, error) {
	card, err := s.store.OwnedCard(ctx, cardID, session.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BoardPayload{}, domainError(http.StatusNotFound, "NOT_FOUND", "Card not found", nil)
		}
		return BoardPayload{}, err
	}
	if _, err := s.store.ColumnBoard(ctx, targetColumnID, session.Username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BoardPayload{}, domainError(http.StatusNotFound, "NOT_FOUND", "Column not found", nil)
		}
		return BoardPayload{}, err
	}

	if err := s.store.MoveCard(ctx, card.ID, card.ColumnID, targetColumnID, position); err != nil {
		return BoardPayload{}, err
	}
	card.ColumnID = targetColumnID
	s.indexCard(session.Username, card)

	return s.LoadBoard(ctx, session)
}

// SearchCards queries the user's cards. Without a search backend it returns
// an empty result set rather than failing.
func (s *Service) SearchCards(ctx context.Context, session Session, text string, limit int) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: text}
	}
	return s.search.Search(ctx, search.Query{Text: text, Username: session.Username, Limit: limit})
}

func (s *Service) indexCard(username string, card store.Card) {
	if s.search == nil {
		return
	}
	s.search.IndexCard(search.CardRecord{
		ID:       card.ID,
		ColumnID: card.ColumnID,
		Title:    card.Title,
		Details:  card.Details,
		Owner:    username,
	})
}
