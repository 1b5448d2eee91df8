package ai

import (
	"encoding/json"
	"fmt"
)

const (
	actionCreateCard = "create_card"
	actionUpdateCard = "update_card"
	actionMoveCard   = "move_card"
	actionDeleteCard = "delete_card"
)

// Op is a single board mutation requested by the assistant.
type Op interface {
	Action() string
}

type CreateCard struct {
	ColumnID int64  `json:"column_id"`
	Title    string `json:"title"`
	Details  string `json:"details"`
}

func (CreateCard) Action() string { return actionCreateCard }

func (op CreateCard) MarshalJSON() ([]byte, error) {
	type alias CreateCard
	return json.Marshal(struct {
		Act string `json:"action"`
		alias
	}{actionCreateCard, alias(op)})
}

// UpdateCard changes a card's title and/or details. A nil field means the
// assistant did not ask to change it.
type UpdateCard struct {
	CardID  int64   `json:"card_id"`
	Title   *string `json:"title"`
	Details *string `json:"details"`
}

func (UpdateCard) Action() string { return actionUpdateCard }

func (op UpdateCard) MarshalJSON() ([]byte, error) {
	type alias UpdateCard
	return json.Marshal(struct {
		Act string `json:"action"`
		alias
	}{actionUpdateCard, alias(op)})
}

type MoveCard struct {
	CardID         int64 `json:"card_id"`
	TargetColumnID int64 `json:"target_column_id"`
	Position       int   `json:"position"`
}

func (MoveCard) Action() string { return actionMoveCard }

func (op MoveCard) MarshalJSON() ([]byte, error) {
	type alias MoveCard
	return json.Marshal(struct {
		Act string `json:"action"`
		alias
	}{actionMoveCard, alias(op)})
}

type DeleteCard struct {
	CardID int64 `json:"card_id"`
}

func (DeleteCard) Action() string { return actionDeleteCard }

func (op DeleteCard) MarshalJSON() ([]byte, error) {
	type alias DeleteCard
	return json.Marshal(struct {
		Act string `json:"action"`
		alias
	}{actionDeleteCard, alias(op)})
}

// Reply is the assistant's structured answer: a chat message plus zero or
// more board operations. Operations with an unrecognized action are dropped
// during decoding and their tags collected in Unknown so callers can log
// them.
type Reply struct {
	Message string   `json:"message"`
	Updates []Op     `json:"board_updates"`
	Unknown []string `json:"-"`
}

func (r *Reply) UnmarshalJSON(data []byte) error {
	var raw struct {
		Message string            `json:"message"`
		Updates []json.RawMessage `json:"board_updates"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Message = raw.Message
	r.Updates = nil
	r.Unknown = nil

	for _, item := range raw.Updates {
		var tag struct {
			Action string `json:"action"`
		}
		if err := json.Unmarshal(item, &tag); err != nil {
			return fmt.Errorf("decode operation tag: %w", err)
		}

		switch tag.Action {
		case actionCreateCard:
			var op CreateCard
			if err := json.Unmarshal(item, &op); err != nil {
				return fmt.Errorf("decode %s: %w", tag.Action, err)
			}
			r.Updates = append(r.Updates, op)
		case actionUpdateCard:
			var op UpdateCard
			if err := json.Unmarshal(item, &op); err != nil {
				return fmt.Errorf("decode %s: %w", tag.Action, err)
			}
			r.Updates = append(r.Updates, op)
		case actionMoveCard:
			var op MoveCard
			if err := json.Unmarshal(item, &op); err != nil {
				return fmt.Errorf("decode %s: %w", tag.Action, err)
			}
			r.Updates = append(r.Updates, op)
		case actionDeleteCard:
			var op DeleteCard
			if err := json.Unmarshal(item, &op); err != nil {
				return fmt.Errorf("decode %s: %w", tag.Action, err)
			}
			r.Updates = append(r.Updates, op)
		default:
			r.Unknown = append(r.Unknown, tag.Action)
		}
	}
	return nil
}
