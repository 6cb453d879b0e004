package conversation

import (
	"sort"

	"arbor-server/chat-api/internal/utils/functional"
)

// SortMessages orders messages by creation time, breaking timestamp ties by
// ID. Because IDs come from a single database sequence, this ordering is
// total and deterministic for any input order.
func SortMessages(msgs []*Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}

// MainPrefix returns the prefix of the ordered main-branch messages up to and
// including the message with parentMessageID. When parentMessageID is nil or
// does not appear on the main branch (a fork taken from a non-main message),
// the prefix is empty.
func MainPrefix(main []*Message, parentMessageID *uint) []*Message {
	if parentMessageID == nil {
		return nil
	}
	idx := functional.FindIndex(main, func(msg *Message) bool {
		return msg.ID == *parentMessageID
	})
	if idx < 0 {
		return nil
	}
	return main[:idx+1]
}

// AssembleTranscript concatenates the main prefix implied by the branch's
// fork point with the branch's own messages. Both inputs must already be in
// (created_at, id) order; the concatenation is not re-sorted, so branch
// messages always follow the shared prefix even when timestamps interleave.
func AssembleTranscript(main []*Message, branch *Branch, branchMessages []*Message) []*Message {
	prefix := MainPrefix(main, branch.ParentMessageID)
	transcript := make([]*Message, 0, len(prefix)+len(branchMessages))
	transcript = append(transcript, prefix...)
	transcript = append(transcript, branchMessages...)
	return transcript
}
