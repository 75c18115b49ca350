// Package extractor finds who a work request is addressed to.
package extractor

import (
	"slices"

	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/rules"
)

// Extract evaluates text and extracts assignment information. The assignor
// is always the sender.
func Extract(text string, senderID types.UserID) model.AssignmentInfo {
	return ExtractMatches(rules.Evaluate(text), senderID, nil)
}

// ExtractMatches extracts assignment information from an evaluated message.
// resolved holds the user IDs the source adapter already resolved from its
// own mention metadata.
//
// Mentioned users are ordered as: <@ID> tokens, then resolved IDs. Plain
// @handle tokens are display names of users the adapter could not resolve
// and are used only when neither of the other two yields a user.
func ExtractMatches(ms rules.MatchSet, senderID types.UserID, resolved []types.UserID) model.AssignmentInfo {
	var mentioned []types.UserID
	for _, id := range slices.Concat(ms.UserMentions(), resolved) {
		if id != "" && !slices.Contains(mentioned, id) {
			mentioned = append(mentioned, id)
		}
	}
	if len(mentioned) == 0 {
		mentioned = ms.HandleMentions()
	}

	info := model.AssignmentInfo{
		AssignorID:       senderID,
		MentionedUserIDs: mentioned,
		IsAssignment:     ms.Has(rules.CategoryAssignment) && len(mentioned) > 0,
	}
	if len(mentioned) > 0 {
		info.AssigneeID = mentioned[0]
	}
	return info
}
