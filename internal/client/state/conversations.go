package state

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/talkscribe/talkscribe-go/internal/client/api"
	"github.com/talkscribe/talkscribe-go/internal/models"
)

// Conversations caches chat threads, most recent first.
type Conversations struct {
	tracker
	api *api.Client
	log *zap.Logger

	listMu sync.Mutex
	items  []models.Conversation
}

// NewConversations returns an empty conversation cache backed by client.
func NewConversations(client *api.Client, log *zap.Logger) *Conversations {
	if log == nil {
		log = zap.NewNop()
	}
	return &Conversations{api: client, log: log}
}

// Send posts one user message. Continuing an existing thread replaces its
// cached entry in place, keeping list order; a new thread is prepended.
func (s *Conversations) Send(ctx context.Context, message string, conversationID, audioFileID *int64) (models.Conversation, error) {
	s.begin()
	conv, err := s.api.StartConversation(ctx, api.ConversationParams{
		Message:        message,
		ConversationID: conversationID,
		AudioFileID:    audioFileID,
	})
	if err != nil {
		return models.Conversation{}, s.done(err)
	}
	s.upsert(conv)
	return conv, s.done(nil)
}

// Refresh re-fetches the thread list and replaces the cache wholesale.
func (s *Conversations) Refresh(ctx context.Context) error {
	s.begin()
	convs, err := s.api.Conversations(ctx)
	if err != nil {
		return s.done(err)
	}
	s.listMu.Lock()
	s.items = convs
	s.listMu.Unlock()
	return s.done(nil)
}

// Fetch retrieves one thread with its full history and merges it.
func (s *Conversations) Fetch(ctx context.Context, id int64) (models.Conversation, error) {
	s.begin()
	conv, err := s.api.Conversation(ctx, id)
	if err != nil {
		return models.Conversation{}, s.done(err)
	}
	s.upsert(conv)
	return conv, s.done(nil)
}

// All returns a copy of the cached threads in display order.
func (s *Conversations) All() []models.Conversation {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	out := make([]models.Conversation, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the cached thread with the given id.
func (s *Conversations) Get(id int64) (models.Conversation, bool) {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	for _, c := range s.items {
		if c.ID == id {
			return c, true
		}
	}
	return models.Conversation{}, false
}

// upsert replaces a cached thread in place or prepends a new one.
func (s *Conversations) upsert(conv models.Conversation) {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	for i := range s.items {
		if s.items[i].ID == conv.ID {
			s.items[i] = conv
			return
		}
	}
	s.items = append([]models.Conversation{conv}, s.items...)
}
