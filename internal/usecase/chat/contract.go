package chat

import (
	"context"

	domconv "github.com/kailas-cloud/civicdex/internal/domain/conversation"
	"github.com/kailas-cloud/civicdex/internal/domain/search/query"
	"github.com/kailas-cloud/civicdex/internal/domain/search/result"
)

// Searcher ranks documents for a question.
type Searcher interface {
	Search(ctx context.Context, q *query.Query) ([]result.ScoredResult, error)
}

// ConversationLog records chat turns.
type ConversationLog interface {
	Append(role domconv.Role, text string, sourceCount int) (domconv.Message, error)
}

// DocumentCounter reports the size of the searched corpus.
type DocumentCounter interface {
	Count() int
}
