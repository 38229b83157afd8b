package state

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/talkscribe/talkscribe-go/internal/client/api"
	"github.com/talkscribe/talkscribe-go/internal/models"
)

// Transcriptions caches fetched transcriptions, keyed by the id of the audio
// file they belong to.
type Transcriptions struct {
	tracker
	api *api.Client
	log *zap.Logger

	listMu sync.Mutex
	items  []models.Transcription
}

// NewTranscriptions returns an empty transcription cache backed by client.
func NewTranscriptions(client *api.Client, log *zap.Logger) *Transcriptions {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transcriptions{api: client, log: log}
}

// Fetch retrieves the transcription for an audio file and merges it into the
// cache: an entry for the same audio file is replaced in place, a new one is
// prepended.
func (s *Transcriptions) Fetch(ctx context.Context, audioFileID int64) (models.Transcription, error) {
	s.begin()
	t, err := s.api.Transcription(ctx, audioFileID)
	if err != nil {
		return models.Transcription{}, s.done(err)
	}

	s.listMu.Lock()
	replaced := false
	for i := range s.items {
		if s.items[i].AudioFile.ID == audioFileID {
			s.items[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		s.items = append([]models.Transcription{t}, s.items...)
	}
	s.listMu.Unlock()

	return t, s.done(nil)
}

// All returns a copy of the cached transcriptions in display order.
func (s *Transcriptions) All() []models.Transcription {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	out := make([]models.Transcription, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the cached transcription for the given audio file.
func (s *Transcriptions) Get(audioFileID int64) (models.Transcription, bool) {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	for _, t := range s.items {
		if t.AudioFile.ID == audioFileID {
			return t, true
		}
	}
	return models.Transcription{}, false
}
