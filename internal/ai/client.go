package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// CardState is a card as presented to the model.
type CardState struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Details string `json:"details"`
}

type ColumnState struct {
	ID    int64       `json:"id"`
	Title string      `json:"title"`
	Cards []CardState `json:"cards"`
}

// BoardState is the board context injected into the system prompt.
type BoardState struct {
	Columns []ColumnState `json:"columns"`
}

// Message is one turn of prior conversation supplied by the client.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const systemPrompt = `You are an AI assistant for a Kanban board app called Kanban Studio. The user will ask you questions or give you instructions about their board.

You MUST respond with valid JSON matching this exact schema:
{
  "message": "Your text response to the user",
  "board_updates": []
}

board_updates is an array of operations. Each operation is one of:

1. Create a card:
   {"action": "create_card", "column_id": <int>, "title": "<string>", "details": "<string>"}

2. Update a card:
   {"action": "update_card", "card_id": <int>, "title": "<string or null>", "details": "<string or null>"}

3. Move a card:
   {"action": "move_card", "card_id": <int>, "target_column_id": <int>, "position": <int>}

4. Delete a card:
   {"action": "delete_card", "card_id": <int>}

Rules:
- Use the column and card IDs from the board state provided below.
- position is 0-based (0 = top of column).
- Only include board_updates if the user asks you to change the board.
- For normal conversation, return an empty board_updates array.
- Always include a helpful message.
- Respond ONLY with the JSON object, no markdown fences or extra text.

Current board state:
`

// Client talks to the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// Converse sends the user's message with the prior history and the current
// board state, and parses the structured reply. Malformed model output never
// fails the call; it degrades to a plain-text reply.
func (c *Client) Converse(ctx context.Context, state BoardState, message string, history []Message) (Reply, error) {
	boardJSON, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return Reply{}, fmt.Errorf("encode board state: %w", err)
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		var role genai.Role = genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt+string(boardJSON), genai.RoleUser),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return Reply{}, fmt.Errorf("generate content: %w", err)
	}

	return ParseReply(result.Text()), nil
}

// SimpleChat sends a bare prompt with no board context or response schema.
func (c *Client) SimpleChat(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return result.Text(), nil
}
