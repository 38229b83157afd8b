package state

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/talkscribe/talkscribe-go/internal/client/api"
	"github.com/talkscribe/talkscribe-go/internal/models"
)

// AudioFiles caches the uploaded audio file list, most recent first.
type AudioFiles struct {
	tracker
	api *api.Client
	log *zap.Logger

	listMu sync.Mutex
	files  []models.AudioFile
}

// NewAudioFiles returns an empty audio file cache backed by client.
func NewAudioFiles(client *api.Client, log *zap.Logger) *AudioFiles {
	if log == nil {
		log = zap.NewNop()
	}
	return &AudioFiles{api: client, log: log}
}

// Upload sends one file and merges the server's record into the cache.
func (s *AudioFiles) Upload(ctx context.Context, fileName string, r io.Reader, language string) (models.AudioFile, error) {
	s.begin()
	file, err := s.api.UploadAudio(ctx, fileName, r, language)
	if err != nil {
		return models.AudioFile{}, s.done(err)
	}
	s.upsert(file)
	return file, s.done(nil)
}

// Refresh re-fetches the file list and replaces the cache wholesale.
func (s *AudioFiles) Refresh(ctx context.Context) error {
	s.begin()
	files, err := s.api.AudioFiles(ctx)
	if err != nil {
		return s.done(err)
	}
	s.listMu.Lock()
	s.files = files
	s.listMu.Unlock()
	return s.done(nil)
}

// StartAutoRefresh launches a goroutine that re-fetches the list on the
// given interval while any cached file is still pending. Status transitions
// are only observable by re-fetch, so this is how the shell keeps progress
// visible. The goroutine exits when ctx is cancelled.
func (s *AudioFiles) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !s.anyPending() {
					continue
				}
				if err := s.Refresh(ctx); err != nil {
					s.log.Debug("auto refresh failed", zap.Error(err))
				}
			}
		}
	}()
}

// Analyze runs one AI analysis over a file. Results are not cached here:
// repeated analyses of the same type coexist, so callers accumulate them.
func (s *AudioFiles) Analyze(ctx context.Context, audioFileID int64, t models.AnalysisType) (models.AudioAnalysis, error) {
	s.begin()
	a, err := s.api.Analyze(ctx, audioFileID, t)
	if err != nil {
		return models.AudioAnalysis{}, s.done(err)
	}
	return a, s.done(nil)
}

// Analyses lists the recorded analyses for a file, uncached.
func (s *AudioFiles) Analyses(ctx context.Context, audioFileID int64) ([]models.AudioAnalysis, error) {
	s.begin()
	list, err := s.api.Analyses(ctx, audioFileID)
	if err != nil {
		return nil, s.done(err)
	}
	return list, s.done(nil)
}

// All returns a copy of the cached list in display order.
func (s *AudioFiles) All() []models.AudioFile {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	out := make([]models.AudioFile, len(s.files))
	copy(out, s.files)
	return out
}

// Get returns the cached file with the given id.
func (s *AudioFiles) Get(id int64) (models.AudioFile, bool) {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	for _, f := range s.files {
		if f.ID == id {
			return f, true
		}
	}
	return models.AudioFile{}, false
}

// upsert replaces a cached file in place or prepends a new one.
func (s *AudioFiles) upsert(file models.AudioFile) {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	for i := range s.files {
		if s.files[i].ID == file.ID {
			s.files[i] = file
			return
		}
	}
	s.files = append([]models.AudioFile{file}, s.files...)
}

// anyPending reports whether some cached file may still change status.
func (s *AudioFiles) anyPending() bool {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	for _, f := range s.files {
		if !f.Status.Done() {
			return true
		}
	}
	return false
}
