package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptionFetch_KeyedByAudioFile(t *testing.T) {
	r := routes{
		"/audio/transcription/1/": `{"id":10,"audio_file":{"id":1,"file_name":"a.mp3","status":"completed"},"text":"primeira versão","language":"pt-BR"}`,
		"/audio/transcription/2/": `{"id":11,"audio_file":{"id":2,"file_name":"b.mp3","status":"completed"},"text":"outro arquivo","language":"pt-BR"}`,
	}
	s := NewTranscriptions(newClient(t, r.transport()), nil)

	_, err := s.Fetch(context.Background(), 1)
	require.NoError(t, err)

	r["/audio/transcription/1/"] = `{"id":10,"audio_file":{"id":1,"file_name":"a.mp3","status":"completed"},"text":"versão revisada","language":"pt-BR"}`
	_, err = s.Fetch(context.Background(), 1)
	require.NoError(t, err)

	all := s.All()
	require.Len(t, all, 1, "re-fetching the same file replaces its entry")
	assert.Equal(t, "versão revisada", all[0].Text)

	_, err = s.Fetch(context.Background(), 2)
	require.NoError(t, err)

	all = s.All()
	require.Len(t, all, 2)
	assert.EqualValues(t, 2, all[0].AudioFile.ID, "newest fetch shows first")
	assert.EqualValues(t, 1, all[1].AudioFile.ID)

	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, "versão revisada", got.Text)

	_, ok = s.Get(99)
	assert.False(t, ok)
}

func TestTranscriptionFetch_MissingFileLeavesCacheUntouched(t *testing.T) {
	s := NewTranscriptions(newClient(t, routes{}.transport()), nil)

	_, err := s.Fetch(context.Background(), 5)
	require.Error(t, err)
	assert.Empty(t, s.All())
	assert.NotEmpty(t, s.Err())
	assert.False(t, s.Busy())
}
