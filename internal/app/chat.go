package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"kanbanstudio/api/internal/ai"
)

// ChatResult is the response of the chat endpoint: the assistant's message,
// the operations it requested, and the board after applying them.
type ChatResult struct {
	Message string       `json:"message"`
	Updates []ai.Op      `json:"board_updates"`
	Board   BoardPayload `json:"board"`
}

// Chat runs one assistant turn: rate limit, converse with the board as
// context, apply any requested operations, and return the refreshed board.
func (s *Service) Chat(ctx context.Context, session Session, message string, history []ai.Message) (ChatResult, error) {
	if err := s.checkRateLimit(ctx, session); err != nil {
		return ChatResult{}, err
	}
	if s.assistant == nil {
		return ChatResult{}, domainError(http.StatusServiceUnavailable, "AI_UNAVAILABLE", "AI assistant is not configured", nil)
	}

	board, err := s.LoadBoard(ctx, session)
	if err != nil {
		return ChatResult{}, err
	}

	reply, err := s.assistant.Converse(ctx, boardState(board), message, history)
	if err != nil {
		return ChatResult{}, fmt.Errorf("assistant: %w", err)
	}
	for _, action := range reply.Unknown {
		s.log.Warn("assistant requested unknown action", zap.String("action", action))
	}

	if len(reply.Updates) > 0 {
		s.applyBoardUpdates(ctx, session, reply.Updates)
		if board, err = s.LoadBoard(ctx, session); err != nil {
			return ChatResult{}, err
		}
	}

	updates := reply.Updates
	if updates == nil {
		updates = []ai.Op{}
	}
	return ChatResult{Message: reply.Message, Updates: updates, Board: board}, nil
}

// ChatTest sends a fixed prompt to verify assistant connectivity.
func (s *Service) ChatTest(ctx context.Context, session Session) (string, error) {
	if err := s.checkRateLimit(ctx, session); err != nil {
		return "", err
	}
	if s.assistant == nil {
		return "", domainError(http.StatusServiceUnavailable, "AI_UNAVAILABLE", "AI assistant is not configured", nil)
	}
	reply, err := s.assistant.SimpleChat(ctx, "What is 2+2? Reply with just the number.")
	if err != nil {
		return "", fmt.Errorf("assistant: %w", err)
	}
	return reply, nil
}

// checkRateLimit enforces the per-user chat quota. A broken limiter backend
// fails open so chat stays available.
func (s *Service) checkRateLimit(ctx context.Context, session Session) error {
	if s.limiter == nil {
		return nil
	}
	allowed, err := s.limiter.Allow(ctx, session.Username)
	if err != nil {
		s.log.Warn("rate limiter unavailable, allowing request", zap.Error(err))
		return nil
	}
	if !allowed {
		return domainError(http.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded. Try again later.", nil)
	}
	return nil
}

func boardState(board BoardPayload) ai.BoardState {
	state := ai.BoardState{Columns: make([]ai.ColumnState, 0, len(board.Columns))}
	for _, col := range board.Columns {
		colState := ai.ColumnState{ID: col.ID, Title: col.Title, Cards: make([]ai.CardState, 0, len(col.Cards))}
		for _, card := range col.Cards {
			colState.Cards = append(colState.Cards, ai.CardState{ID: card.ID, Title: card.Title, Details: card.Details})
		}
		state.Columns = append(state.Columns, colState)
	}
	return state
}
