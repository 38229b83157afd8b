// Package models defines the wire-level data structures exchanged with the
// TalkScribe HTTP API: users, audio files, transcriptions, conversations,
// and audio analyses.
package models

import (
	"encoding/json"
	"time"
)

// User represents the authenticated account snapshot returned by the server.
// It is replaced wholesale on every fetch, never patched field by field.
type User struct {
	// ID is the unique identifier for the user.
	ID int64 `json:"id"`
	// Email is the address the user signed up with.
	Email string `json:"email"`
	// Username is the optional display name.
	Username string `json:"username,omitempty"`
	// FirstName is the optional given name.
	FirstName string `json:"first_name,omitempty"`
	// LastName is the optional family name.
	LastName string `json:"last_name,omitempty"`
	// IsTester marks accounts enrolled in the beta program.
	IsTester bool `json:"is_tester"`
	// DateJoined is the account creation timestamp.
	DateJoined time.Time `json:"date_joined"`
}

// FileStatus is the processing state of an uploaded audio file.
type FileStatus string

const (
	// StatusUploading means the file transfer is still in progress.
	StatusUploading FileStatus = "uploading"
	// StatusProcessing means the server is transcribing the file.
	StatusProcessing FileStatus = "processing"
	// StatusCompleted means a transcription is available.
	StatusCompleted FileStatus = "completed"
	// StatusFailed means transcription failed permanently.
	StatusFailed FileStatus = "failed"
)

// Done reports whether the status is terminal. Files that are not done may
// still change state and are worth re-fetching.
func (s FileStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed
}

// AudioFile represents an uploaded recording and its processing state.
type AudioFile struct {
	ID         int64      `json:"id"`
	FileName   string     `json:"file_name"`
	FileSize   int64      `json:"file_size"`
	MimeType   string     `json:"mime_type"`
	UploadedAt time.Time  `json:"uploaded_at"`
	Status     FileStatus `json:"status"`
	// Duration is the recording length in seconds, present once processed.
	Duration float64 `json:"duration,omitempty"`
}

// Transcription is the text produced for a completed AudioFile.
// There is at most one transcription per file.
type Transcription struct {
	ID        int64     `json:"id"`
	AudioFile AudioFile `json:"audio_file"`
	Text      string    `json:"text"`
	Language  string    `json:"language"`
	// Confidence is the recognizer's overall score in [0,1], when reported.
	Confidence float64   `json:"confidence,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser marks messages written by the account holder.
	RoleUser Role = "user"
	// RoleAssistant marks messages produced by the AI assistant.
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a conversation. Insertion order is
// chronological order.
type Message struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is an AI chat thread, optionally anchored to an audio file.
type Conversation struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Messages     []Message `json:"messages"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AnalysisType selects the kind of AI analysis to run over a transcription.
type AnalysisType string

const (
	// AnalysisSentiment classifies the overall sentiment of the audio.
	AnalysisSentiment AnalysisType = "sentiment"
	// AnalysisKeywords extracts the most relevant keywords.
	AnalysisKeywords AnalysisType = "keywords"
	// AnalysisSummary produces a short summary.
	AnalysisSummary AnalysisType = "summary"
	// AnalysisTopics segments the audio into discussed topics.
	AnalysisTopics AnalysisType = "topics"
)

// ValidAnalysisType reports whether t names a known analysis kind.
func ValidAnalysisType(t AnalysisType) bool {
	switch t {
	case AnalysisSentiment, AnalysisKeywords, AnalysisSummary, AnalysisTopics:
		return true
	}
	return false
}

// AudioAnalysis is one AI analysis run over an audio file. Repeated runs of
// the same type produce separate records; results are not deduplicated.
type AudioAnalysis struct {
	ID          int64        `json:"id"`
	AudioFileID int64        `json:"audio_file"`
	Type        AnalysisType `json:"analysis_type"`
	// Result is the analysis payload. Its shape depends on Type, so it is
	// kept opaque and decoded by the caller when needed.
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// TokenPair is the credential pair minted by login and refresh.
type TokenPair struct {
	// Access is the short-lived bearer credential.
	Access string `json:"access"`
	// Refresh is the longer-lived credential used to mint new access tokens.
	Refresh string `json:"refresh"`
}

// RegisterResult is the response to a successful registration: the created
// user plus an initial token pair.
type RegisterResult struct {
	User    User   `json:"user"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthState labels the result of a session probe.
type AuthState string

const (
	// StateAuthenticated means a valid session exists.
	StateAuthenticated AuthState = "Authenticated"
	// StateVisitor means no usable session exists.
	StateVisitor AuthState = "Visitor"
)

// AuthStatus is the answer of an idempotent session probe.
type AuthStatus struct {
	Auth AuthState `json:"auth"`
	User *User     `json:"user,omitempty"`
}
