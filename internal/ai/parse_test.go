package ai

import (
	"encoding/json"
	"testing"
)

func TestParseReplyStrictJSON(t *testing.T) {
	raw := `{"message":"Created it.","board_updates":[{"action":"create_card","column_id":3,"title":"Write docs","details":"API section"}]}`

	reply := ParseReply(raw)

	if reply.Message != "Created it." {
		t.Fatalf("message = %q", reply.Message)
	}
	if len(reply.Updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(reply.Updates))
	}
	op, ok := reply.Updates[0].(CreateCard)
	if !ok {
		t.Fatalf("update type = %T, want CreateCard", reply.Updates[0])
	}
	if op.ColumnID != 3 || op.Title != "Write docs" || op.Details != "API section" {
		t.Fatalf("unexpected op: %+v", op)
	}
}

func TestParseReplyFencedJSON(t *testing.T) {
	raw := "Here you go:\n```json\n{\"message\":\"Moved.\",\"board_updates\":[{\"action\":\"move_card\",\"card_id\":7,\"target_column_id\":2,\"position\":0}]}\n```"

	reply := ParseReply(raw)

	if reply.Message != "Moved." {
		t.Fatalf("message = %q", reply.Message)
	}
	if len(reply.Updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(reply.Updates))
	}
	op, ok := reply.Updates[0].(MoveCard)
	if !ok {
		t.Fatalf("update type = %T, want MoveCard", reply.Updates[0])
	}
	if op.CardID != 7 || op.TargetColumnID != 2 || op.Position != 0 {
		t.Fatalf("unexpected op: %+v", op)
	}
}

func TestParseReplyPlainText(t *testing.T) {
	reply := ParseReply("Sorry, I can only help with your board.")

	if reply.Message != "Sorry, I can only help with your board." {
		t.Fatalf("message = %q", reply.Message)
	}
	if len(reply.Updates) != 0 {
		t.Fatalf("updates = %d, want 0", len(reply.Updates))
	}
}

func TestParseReplyEmpty(t *testing.T) {
	reply := ParseReply("   ")

	if reply.Message != fallbackMessage {
		t.Fatalf("message = %q", reply.Message)
	}
}

func TestParseReplyUnknownActionSkipped(t *testing.T) {
	raw := `{"message":"ok","board_updates":[{"action":"archive_card","card_id":1},{"action":"delete_card","card_id":2}]}`

	reply := ParseReply(raw)

	if len(reply.Updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(reply.Updates))
	}
	if _, ok := reply.Updates[0].(DeleteCard); !ok {
		t.Fatalf("update type = %T, want DeleteCard", reply.Updates[0])
	}
	if len(reply.Unknown) != 1 || reply.Unknown[0] != "archive_card" {
		t.Fatalf("unknown = %v", reply.Unknown)
	}
}

func TestParseReplyUpdateNilMeansUnchanged(t *testing.T) {
	raw := `{"message":"ok","board_updates":[{"action":"update_card","card_id":5,"title":"New title","details":null}]}`

	reply := ParseReply(raw)

	op, ok := reply.Updates[0].(UpdateCard)
	if !ok {
		t.Fatalf("update type = %T, want UpdateCard", reply.Updates[0])
	}
	if op.Title == nil || *op.Title != "New title" {
		t.Fatalf("title = %v", op.Title)
	}
	if op.Details != nil {
		t.Fatalf("details should be nil, got %q", *op.Details)
	}
}

func TestOpMarshalIncludesAction(t *testing.T) {
	data, err := json.Marshal([]Op{
		CreateCard{ColumnID: 1, Title: "a", Details: "b"},
		DeleteCard{CardID: 9},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded[0]["action"] != "create_card" {
		t.Fatalf("first action = %v", decoded[0]["action"])
	}
	if decoded[1]["action"] != "delete_card" {
		t.Fatalf("second action = %v", decoded[1]["action"])
	}
}
