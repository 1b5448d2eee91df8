package app

import (
	"context"

	"go.uber.org/zap"

	"kanbanstudio/api/internal/ai"
)

// applyBoardUpdates applies assistant operations in order. Each operation
// re-verifies ownership; a failed operation is logged and skipped, never
// aborting the rest of the batch.
func (s *Service) applyBoardUpdates(ctx context.Context, session Session, ops []ai.Op) {
	for _, op := range ops {
		var err error
		switch op := op.(type) {
		case ai.CreateCard:
			_, err = s.CreateCard(ctx, session, op.ColumnID, op.Title, op.Details)
		case ai.UpdateCard:
			_, err = s.UpdateCard(ctx, session, op.CardID, op.Title, op.Details)
		case ai.MoveCard:
			_, err = s.MoveCard(ctx, session, op.CardID, op.TargetColumnID, op.Position)
		case ai.DeleteCard:
			_, err = s.DeleteCard(ctx, session, op.CardID)
		default:
			s.log.Warn("unsupported board update", zap.String("action", op.Action()))
			continue
		}
		if err != nil {
			s.log.Warn("failed to apply board update",
				zap.String("action", op.Action()),
				zap.Error(err),
			)
		}
	}
}
