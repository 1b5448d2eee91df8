package app

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"kanbanstudio/api/internal/ai"
)

type fakeAssistant struct {
	converseFn   func(ctx context.Context, state ai.BoardState, message string, history []ai.Message) (ai.Reply, error)
	simpleChatFn func(ctx context.Context, prompt string) (string, error)
}

func (f *fakeAssistant) Converse(ctx context.Context, state ai.BoardState, message string, history []ai.Message) (ai.Reply, error) {
	return f.converseFn(ctx, state, message, history)
}

func (f *fakeAssistant) SimpleChat(ctx context.Context, prompt string) (string, error) {
	if f.simpleChatFn == nil {
		return "4", nil
	}
	return f.simpleChatFn(ctx, prompt)
}

type fakeLimiter struct {
	allow bool
	err   error
	calls int
}

func (f *fakeLimiter) Allow(context.Context, string) (bool, error) {
	f.calls++
	return f.allow, f.err
}

func TestChatWithoutAssistant(t *testing.T) {
	svc, _ := newTestService(t)
	session := loginTestUser(t, svc)

	_, err := svc.Chat(context.Background(), session, "hello", nil)
	assertDomainError(t, err, http.StatusServiceUnavailable)
}

func TestChatRateLimited(t *testing.T) {
	st := newMemStore()
	limiter := &fakeLimiter{allow: false}
	svc := New(testConfig(), st, &fakeAssistant{}, limiter, nil, nil)
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatal(err)
	}
	session := loginTestUser(t, svc)

	_, err := svc.Chat(context.Background(), session, "hello", nil)
	assertDomainError(t, err, http.StatusTooManyRequests)
	if limiter.calls != 1 {
		t.Errorf("limiter calls = %d, want 1", limiter.calls)
	}
}

func TestChatLimiterFailureFailsOpen(t *testing.T) {
	st := newMemStore()
	assistant := &fakeAssistant{
		converseFn: func(context.Context, ai.BoardState, string, []ai.Message) (ai.Reply, error) {
			return ai.Reply{Message: "hi"}, nil
		},
	}
	svc := New(testConfig(), st, assistant, &fakeLimiter{err: errors.New("redis down")}, nil, nil)
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatal(err)
	}
	session := loginTestUser(t, svc)

	result, err := svc.Chat(context.Background(), session, "hello", nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if result.Message != "hi" {
		t.Errorf("message = %q", result.Message)
	}
}

func TestChatAppliesUpdates(t *testing.T) {
	st := newMemStore()
	var seenState ai.BoardState
	assistant := &fakeAssistant{}
	svc := New(testConfig(), st, assistant, nil, nil, nil)
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatal(err)
	}
	session := loginTestUser(t, svc)
	board, _ := svc.LoadBoard(context.Background(), session)
	backlog := board.Columns[0]

	assistant.converseFn = func(_ context.Context, state ai.BoardState, _ string, _ []ai.Message) (ai.Reply, error) {
		seenState = state
		return ai.Reply{
			Message: "Done.",
			Updates: []ai.Op{
				ai.CreateCard{ColumnID: backlog.ID, Title: "From chat", Details: "added"},
				ai.DeleteCard{CardID: backlog.Cards[0].ID},
			},
		}, nil
	}

	result, err := svc.Chat(context.Background(), session, "add and remove", nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if len(seenState.Columns) != 5 {
		t.Errorf("assistant saw %d columns, want 5", len(seenState.Columns))
	}
	if result.Message != "Done." {
		t.Errorf("message = %q", result.Message)
	}
	if len(result.Updates) != 2 {
		t.Errorf("updates = %d, want 2", len(result.Updates))
	}

	cards := result.Board.Columns[0].Cards
	if len(cards) != 2 {
		t.Fatalf("backlog has %d cards, want 2", len(cards))
	}
	if cards[len(cards)-1].Title != "From chat" {
		t.Errorf("last card = %q", cards[len(cards)-1].Title)
	}
	for _, card := range cards {
		if card.ID == backlog.Cards[0].ID {
			t.Error("deleted card still on board")
		}
	}
}

func TestChatSkipsFailingUpdates(t *testing.T) {
	st := newMemStore()
	assistant := &fakeAssistant{}
	svc := New(testConfig(), st, assistant, nil, nil, nil)
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatal(err)
	}
	session := loginTestUser(t, svc)
	board, _ := svc.LoadBoard(context.Background(), session)
	backlog := board.Columns[0]

	// First op targets a card that does not exist; the batch must continue.
	assistant.converseFn = func(context.Context, ai.BoardState, string, []ai.Message) (ai.Reply, error) {
		return ai.Reply{
			Message: "Done.",
			Updates: []ai.Op{
				ai.DeleteCard{CardID: 9999},
				ai.CreateCard{ColumnID: backlog.ID, Title: "Survivor", Details: ""},
			},
		}, nil
	}

	result, err := svc.Chat(context.Background(), session, "do things", nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	cards := result.Board.Columns[0].Cards
	if cards[len(cards)-1].Title != "Survivor" {
		t.Errorf("second op not applied, last card = %q", cards[len(cards)-1].Title)
	}
}

func TestChatAssistantErrorPropagates(t *testing.T) {
	st := newMemStore()
	assistant := &fakeAssistant{
		converseFn: func(context.Context, ai.BoardState, string, []ai.Message) (ai.Reply, error) {
			return ai.Reply{}, errors.New("upstream timeout")
		},
	}
	svc := New(testConfig(), st, assistant, nil, nil, nil)
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatal(err)
	}
	session := loginTestUser(t, svc)

	if _, err := svc.Chat(context.Background(), session, "hello", nil); err == nil {
		t.Fatal("expected error from failing assistant")
	}
}

func TestChatTestWithoutAssistant(t *testing.T) {
	svc, _ := newTestService(t)
	session := loginTestUser(t, svc)

	_, err := svc.ChatTest(context.Background(), session)
	assertDomainError(t, err, http.StatusServiceUnavailable)
}

func TestChatTest(t *testing.T) {
	st := newMemStore()
	svc := New(testConfig(), st, &fakeAssistant{}, nil, nil, nil)
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatal(err)
	}
	session := loginTestUser(t, svc)

	reply, err := svc.ChatTest(context.Background(), session)
	if err != nil {
		t.Fatalf("ChatTest failed: %v", err)
	}
	if reply != "4" {
		t.Errorf("reply = %q", reply)
	}
}
