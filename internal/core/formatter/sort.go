package formatter

import (
	"sort"
	"time"

	"github.com/neilberkman/chatfmt/pkg/chatexport"
)

// SortOrder describes the ordering applied by SortConversations
const SortOrder = "updated_at desc (fallback inserted_at), undated last"

// SortConversations returns a copy ordered newest first by updated_at,
// falling back to inserted_at. Undated conversations go last and keep
// their relative order, as do conversations with equal dates.
func SortConversations(conversations []chatexport.Conversation) []chatexport.Conversation {
	sorted := make([]chatexport.Conversation, len(conversations))
	copy(sorted, conversations)

	sort.SliceStable(sorted, func(i, j int) bool {
		ti, okI := sorted[i].SortTime()
		tj, okJ := sorted[j].SortTime()
		switch {
		case okI && okJ:
			return ti.After(tj)
		case okI:
			return true
		default:
			return false
		}
	})

	return sorted
}

// FilterWindow keeps conversations whose date falls within [since, until].
// A zero bound is open. Undated conversations are dropped once any bound
// is set.
func FilterWindow(conversations []chatexport.Conversation, since, until time.Time) []chatexport.Conversation {
	if since.IsZero() && until.IsZero() {
		return conversations
	}

	filtered := make([]chatexport.Conversation, 0, len(conversations))
	for _, conv := range conversations {
		t, ok := conv.SortTime()
		if !ok {
			continue
		}
		if !since.IsZero() && t.Before(since) {
			continue
		}
		if !until.IsZero() && t.After(until) {
			continue
		}
		filtered = append(filtered, conv)
	}
	return filtered
}
