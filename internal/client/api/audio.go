package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/talkscribe/talkscribe-go/internal/models"
)

const (
	pathUpload        = "/audio/upload/"
	pathFiles         = "/audio/files/"
	pathTranscription = "/audio/transcription/%d/"
	pathConversation  = "/audio/conversation/"
	pathConversations = "/audio/conversations/"
	pathAnalyze       = "/audio/analyze/"
	pathAnalyses      = "/audio/analyses/%d/"
)

// UploadAudio sends one audio file as multipart form data and returns the
// server's record for it. The whole file is buffered so the request can be
// retried once after a token refresh.
func (c *Client) UploadAudio(ctx context.Context, fileName string, r io.Reader, language string) (models.AudioFile, error) {
	if fileName == "" {
		return models.AudioFile{}, &ValidationError{Message: "file name is required"}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return models.AudioFile{}, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return models.AudioFile{}, fmt.Errorf("read audio file: %w", err)
	}
	if err := w.WriteField("language", language); err != nil {
		return models.AudioFile{}, fmt.Errorf("build upload form: %w", err)
	}
	if err := w.Close(); err != nil {
		return models.AudioFile{}, fmt.Errorf("build upload form: %w", err)
	}

	var file models.AudioFile
	if err := c.do(ctx, http.MethodPost, pathUpload, w.FormDataContentType(), buf.Bytes(), &file, true); err != nil {
		return models.AudioFile{}, err
	}
	return file, nil
}

// AudioFiles lists the caller's uploaded files, most recent first.
func (c *Client) AudioFiles(ctx context.Context) ([]models.AudioFile, error) {
	var files []models.AudioFile
	if err := c.doJSON(ctx, http.MethodGet, pathFiles, nil, &files, true); err != nil {
		return nil, err
	}
	return files, nil
}

// Transcription fetches the transcription of a completed audio file.
func (c *Client) Transcription(ctx context.Context, audioFileID int64) (models.Transcription, error) {
	var t models.Transcription
	path := fmt.Sprintf(pathTranscription, audioFileID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &t, true); err != nil {
		return models.Transcription{}, err
	}
	return t, nil
}

// ConversationParams is the payload for starting or continuing a chat.
// ConversationID continues an existing thread; AudioFileID anchors a new
// thread to an uploaded recording. Both are optional.
type ConversationParams struct {
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversation_id,omitempty"`
	AudioFileID    *int64 `json:"audio_file_id,omitempty"`
}

// StartConversation sends one user message and returns the updated
// conversation, including the assistant's reply.
func (c *Client) StartConversation(ctx context.Context, p ConversationParams) (models.Conversation, error) {
	if strings.TrimSpace(p.Message) == "" {
		return models.Conversation{}, &ValidationError{Message: "message must not be empty"}
	}
	var conv models.Conversation
	if err := c.doJSON(ctx, http.MethodPost, pathConversation, p, &conv, true); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// Conversations lists the caller's chat threads, most recent first.
func (c *Client) Conversations(ctx context.Context) ([]models.Conversation, error) {
	var convs []models.Conversation
	if err := c.doJSON(ctx, http.MethodGet, pathConversations, nil, &convs, true); err != nil {
		return nil, err
	}
	return convs, nil
}

// Conversation fetches a single chat thread with its full message history.
func (c *Client) Conversation(ctx context.Context, id int64) (models.Conversation, error) {
	var conv models.Conversation
	path := fmt.Sprintf(pathConversation+"%d/", id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &conv, true); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// Analyze runs one AI analysis of the given type over an audio file.
// Repeated calls create separate analysis records.
func (c *Client) Analyze(ctx context.Context, audioFileID int64, t models.AnalysisType) (models.AudioAnalysis, error) {
	if !models.ValidAnalysisType(t) {
		return models.AudioAnalysis{}, &ValidationError{Message: fmt.Sprintf("unknown analysis type %q", t)}
	}
	payload := map[string]any{"audio_file_id": audioFileID, "analysis_type": t}
	var a models.AudioAnalysis
	if err := c.doJSON(ctx, http.MethodPost, pathAnalyze, payload, &a, true); err != nil {
		return models.AudioAnalysis{}, err
	}
	return a, nil
}

// Analyses lists all analyses recorded for an audio file.
func (c *Client) Analyses(ctx context.Context, audioFileID int64) ([]models.AudioAnalysis, error) {
	var list []models.AudioAnalysis
	path := fmt.Sprintf(pathAnalyses, audioFileID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list, true); err != nil {
		return nil, err
	}
	return list, nil
}
