// internal/submission/log.go
package submission

import (
	"context"

	"go.uber.org/zap"

	"njangi/internal/association"
)

// LogSubmitter accepts every draft and records it in the log.
type LogSubmitter struct {
	logger *zap.Logger
}

func NewLogSubmitter(logger *zap.Logger) *LogSubmitter {
	return &LogSubmitter{logger: logger}
}

func (s *LogSubmitter) SubmitAssociation(ctx context.Context, actor association.Actor, draft association.Draft) error {
	memberIDs := make([]string, 0, len(draft.Members))
	for _, m := range draft.Members {
		memberIDs = append(memberIDs, m.ID)
	}

	s.logger.Info("creating association",
		zap.String("actor_id", actor.ID),
		zap.String("actor_username", actor.Username),
		zap.String("name", draft.Name),
		zap.String("description", draft.Description),
		zap.Float64("contribution_amount", draft.ContributionAmount),
		zap.String("contribution_frequency", string(draft.ContributionFrequency)),
		zap.Strings("member_ids", memberIDs),
	)
	return nil
}
