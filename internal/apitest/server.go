// Package apitest provides an in-memory implementation of the TalkScribe
// HTTP API for tests. It issues real HS256 token pairs with refresh
// rotation, enforces bearer auth, and serves canned transcription and
// analysis results, so client, session, and state tests can run against
// actual HTTP instead of hand-rolled transports.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/talkscribe/talkscribe-go/internal/models"
)

const (
	accessTTL  = 5 * time.Minute
	refreshTTL = 24 * time.Hour
)

type account struct {
	user     models.User
	password string
	// refreshIDs holds the jti values of refresh tokens that are still
	// valid. Refresh rotates: the used id is dropped, a new one added.
	refreshIDs map[string]bool
}

// Server is the fake API. Zero state is an empty service with no accounts.
type Server struct {
	secret []byte

	mu        sync.Mutex
	byEmail   map[string]*account
	byID      map[int64]*account
	files     map[int64][]models.AudioFile     // owner id -> files, newest first
	fileOwner map[int64]int64                  // file id -> owner id
	texts     map[int64]models.Transcription   // audio file id -> transcription
	convs     map[int64][]*models.Conversation // owner id -> threads, newest first
	analyses  map[int64][]models.AudioAnalysis // audio file id -> analyses
	nextID    int64
}

// New returns an empty fake service with a random signing secret.
func New() *Server {
	return &Server{
		secret:    []byte(uuid.NewString()),
		byEmail:   make(map[string]*account),
		byID:      make(map[int64]*account),
		files:     make(map[int64][]models.AudioFile),
		fileOwner: make(map[int64]int64),
		texts:     make(map[int64]models.Transcription),
		convs:     make(map[int64][]*models.Conversation),
		analyses:  make(map[int64][]models.AudioAnalysis),
	}
}

// CreateAccount seeds a user so tests can log in without registering.
func (s *Server) CreateAccount(email, password string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createAccountLocked(email, password, "", "", "")
}

func (s *Server) createAccountLocked(email, password, username, first, last string) models.User {
	s.nextID++
	acc := &account{
		user: models.User{
			ID:         s.nextID,
			Email:      email,
			Username:   username,
			FirstName:  first,
			LastName:   last,
			DateJoined: time.Now().UTC(),
		},
		password:   password,
		refreshIDs: make(map[string]bool),
	}
	s.byEmail[email] = acc
	s.byID[acc.user.ID] = acc
	return acc.user
}

// Handler returns the HTTP handler serving the full API contract.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.Use(chiMiddleware.Recoverer)

	r.Route("/accounts", func(r chi.Router) {
		r.Post("/login/", s.handleLogin)
		r.Post("/register/", s.handleRegister)
		r.Post("/refresh/", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(s.bearerAuth)
			r.Get("/get_user/", s.handleGetUser)
			r.Post("/logout/", s.handleLogout)
		})
	})

	r.Route("/audio", func(r chi.Router) {
		r.Use(s.bearerAuth)
		r.Post("/upload/", s.handleUpload)
		r.Get("/files/", s.handleFiles)
		r.Get("/transcription/{id}/", s.handleTranscription)
		r.Post("/conversation/", s.handleConversation)
		r.Get("/conversation/{id}/", s.handleGetConversation)
		r.Get("/conversations/", s.handleConversations)
		r.Post("/analyze/", s.handleAnalyze)
		r.Get("/analyses/{id}/", s.handleAnalyses)
	})

	return r
}

// --- auth ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byEmail[req.Email]
	if !ok || acc.password != req.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, s.issuePairLocked(acc))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[req.Email]; exists {
		writeError(w, http.StatusConflict, "user already exists")
		return
	}
	user := s.createAccountLocked(req.Email, req.Password, req.Username, req.FirstName, req.LastName)
	pair := s.issuePairLocked(s.byEmail[req.Email])
	writeJSON(w, http.StatusOK, models.RegisterResult{User: user, Access: pair.Access, Refresh: pair.Refresh})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	claims, err := s.parseToken(req.Refresh, "refresh")
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	userID, _ := strconv.ParseInt(claims.Subject, 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byID[userID]
	if !ok || !acc.refreshIDs[claims.ID] {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	delete(acc.refreshIDs, claims.ID)
	writeJSON(w, http.StatusOK, s.issuePairLocked(acc))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r)
	writeJSON(w, http.StatusOK, acc.user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	acc := accountFrom(r)
	if claims, err := s.parseToken(req.Refresh, "refresh"); err == nil {
		s.mu.Lock()
		delete(acc.refreshIDs, claims.ID)
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, map[string]any{})
}

// --- audio ---

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer f.Close()
	size, _ := io.Copy(io.Discard, f)
	language := r.FormValue("language")
	if language == "" {
		language = "pt-BR"
	}

	acc := accountFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	file := models.AudioFile{
		ID:         s.nextID,
		FileName:   header.Filename,
		FileSize:   size,
		MimeType:   header.Header.Get("Content-Type"),
		UploadedAt: time.Now().UTC(),
		Status:     models.StatusCompleted,
		Duration:   42,
	}
	s.files[acc.user.ID] = append([]models.AudioFile{file}, s.files[acc.user.ID]...)
	s.fileOwner[file.ID] = acc.user.ID

	s.nextID++
	s.texts[file.ID] = models.Transcription{
		ID:         s.nextID,
		AudioFile:  file,
		Text:       fmt.Sprintf("transcrição de %s", header.Filename),
		Language:   language,
		Confidence: 0.95,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, file)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	files := s.files[acc.user.ID]
	if files == nil {
		files = []models.AudioFile{}
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleTranscription(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	acc := accountFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.texts[id]
	if !ok || s.fileOwner[id] != acc.user.ID {
		writeError(w, http.StatusNotFound, "transcription not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message        string `json:"message"`
		ConversationID *int64 `json:"conversation_id"`
		AudioFileID    *int64 `json:"audio_file_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	acc := accountFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var conv *models.Conversation
	if req.ConversationID != nil {
		for _, c := range s.convs[acc.user.ID] {
			if c.ID == *req.ConversationID {
				conv = c
				break
			}
		}
		if conv == nil {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
	} else {
		s.nextID++
		conv = &models.Conversation{
			ID:        s.nextID,
			Title:     titleFrom(req.Message),
			CreatedAt: now,
		}
		s.convs[acc.user.ID] = append([]*models.Conversation{conv}, s.convs[acc.user.ID]...)
	}

	s.nextID++
	conv.Messages = append(conv.Messages, models.Message{
		ID: s.nextID, Role: models.RoleUser, Content: req.Message, CreatedAt: now,
	})
	s.nextID++
	conv.Messages = append(conv.Messages, models.Message{
		ID: s.nextID, Role: models.RoleAssistant,
		Content:   fmt.Sprintf("resposta para: %s", req.Message),
		CreatedAt: now,
	})
	conv.MessageCount = len(conv.Messages)
	conv.UpdatedAt = now

	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	acc := accountFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.convs[acc.user.ID] {
		if c.ID == id {
			writeJSON(w, http.StatusOK, c)
			return
		}
	}
	writeError(w, http.StatusNotFound, "conversation not found")
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Conversation, 0, len(s.convs[acc.user.ID]))
	for _, c := range s.convs[acc.user.ID] {
		out = append(out, *c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AudioFileID  int64               `json:"audio_file_id"`
		AnalysisType models.AnalysisType `json:"analysis_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !models.ValidAnalysisType(req.AnalysisType) {
		writeError(w, http.StatusBadRequest, "invalid analysis request")
		return
	}

	acc := accountFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fileOwner[req.AudioFileID] != acc.user.ID {
		writeError(w, http.StatusNotFound, "audio file not found")
		return
	}

	s.nextID++
	a := models.AudioAnalysis{
		ID:          s.nextID,
		AudioFileID: req.AudioFileID,
		Type:        req.AnalysisType,
		Result:      cannedResult(req.AnalysisType),
		CreatedAt:   time.Now().UTC(),
	}
	s.analyses[req.AudioFileID] = append(s.analyses[req.AudioFileID], a)
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	acc := accountFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fileOwner[id] != acc.user.ID {
		writeError(w, http.StatusNotFound, "audio file not found")
		return
	}
	list := s.analyses[id]
	if list == nil {
		list = []models.AudioAnalysis{}
	}
	writeJSON(w, http.StatusOK, list)
}

// --- helpers ---

func titleFrom(message string) string {
	const max = 40
	if len(message) <= max {
		return message
	}
	return message[:max]
}

func cannedResult(t models.AnalysisType) json.RawMessage {
	switch t {
	case models.AnalysisSentiment:
		return json.RawMessage(`{"sentiment":"positive","confidence":0.85}`)
	case models.AnalysisKeywords:
		return json.RawMessage(`{"keywords":["áudio","teste"]}`)
	case models.AnalysisSummary:
		return json.RawMessage(`{"summary":"resumo do áudio"}`)
	default:
		return json.RawMessage(`{"topics":["geral"]}`)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
