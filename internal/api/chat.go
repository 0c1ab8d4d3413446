package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"comercia-backend/internal/database"
	"comercia-backend/pkg/api"
)

// ChatFailureReply is the body the widget renders when the chat endpoint
// fails. The endpoint still returns 500, but the body stays usable.
const ChatFailureReply = "Desculpe, tive um problema. Pode tentar novamente?"

// urgencyKeywords flag a user message for admin triage. Matching is a plain
// case-insensitive substring check on the raw message.
var urgencyKeywords = []string{
	"dor no peito", "falta de ar", "desmaio", "avc", "sangramento", "suicida", "emergência",
}

// AIGateway is the slice of the AI client the widget endpoints need.
type AIGateway interface {
	Chat(ctx context.Context, message string, history []api.Turn, images []string) (string, error)
	Transcribe(ctx context.Context, audioB64 string) (string, error)
}

// ChatService serves the three public widget endpoints. They are deliberately
// unauthenticated; the widget is anonymous and the session id is its only
// identity.
type ChatService struct {
	db *gorm.DB
	ai AIGateway
}

func NewChatService(db *gorm.DB, ai AIGateway) *ChatService {
	return &ChatService{db: db, ai: ai}
}

func (s *ChatService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Post("/session", s.CreateSession)
	r.Post("/chat", s.Chat)
	r.Post("/transcribe", s.Transcribe)
}

func (s *ChatService) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := database.CreateSession(r.Context(), s.db, clientIP(r), r.UserAgent())
	if err != nil {
		slog.Error("session creation failed", "error", err)
		WriteJsonResponseWithStatus(w, http.StatusInternalServerError,
			api.SessionResponse{Error: "could not create session"})
		return
	}

	WriteJsonResponse(w, api.SessionResponse{SessionID: session.ID.String()})
}

func (s *ChatService) Chat(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest[api.ChatRequest](r)
	if err != nil || strings.TrimSpace(req.Message) == "" {
		WriteJsonResponseWithStatus(w, http.StatusBadRequest,
			api.ChatResponse{Error: "message is required", Response: ChatFailureReply})
		return
	}

	ctx := r.Context()

	if req.SessionID != "" {
		if err := database.TouchSession(ctx, s.db, req.SessionID); err != nil {
			slog.Warn("could not update session activity", "session_id", req.SessionID, "error", err)
		}
	}

	var flags database.MessageFlags
	lowered := strings.ToLower(req.Message)
	for _, keyword := range urgencyKeywords {
		if strings.Contains(lowered, keyword) {
			flags.Urgency = true
			break
		}
	}

	if _, err := database.InsertMessage(ctx, s.db, req.SessionID, database.RoleUser, req.Message, req.Images, flags); err != nil {
		slog.Error("could not store user message", "session_id", req.SessionID, "error", err)
	}

	reply, err := s.ai.Chat(ctx, req.Message, req.ConversationHistory, req.Images)
	if err != nil {
		slog.Error("chat completion failed", "session_id", req.SessionID, "error", err)
		WriteJsonResponseWithStatus(w, http.StatusInternalServerError,
			api.ChatResponse{Error: err.Error(), Response: ChatFailureReply})
		return
	}

	if _, err := database.InsertMessage(ctx, s.db, req.SessionID, database.RoleAssistant, reply, nil, database.MessageFlags{}); err != nil {
		slog.Error("could not store assistant message", "session_id", req.SessionID, "error", err)
	}

	WriteJsonResponse(w, api.ChatResponse{Response: reply})
}

// Transcribe degrades to an empty transcript on gateway failure so the widget
// treats a broken transcription like silence instead of an error.
func (s *ChatService) Transcribe(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest[api.TranscribeRequest](r)
	if err != nil || req.Audio == "" {
		WriteJsonResponseWithStatus(w, http.StatusBadRequest,
			api.TranscribeResponse{Error: "no audio data provided"})
		return
	}

	text, err := s.ai.Transcribe(r.Context(), req.Audio)
	if err != nil {
		slog.Error("transcription failed", "error", err)
		WriteJsonResponse(w, api.TranscribeResponse{Text: ""})
		return
	}

	WriteJsonResponse(w, api.TranscribeResponse{Text: text})
}

// clientIP prefers proxy headers over the socket address, taking the first
// hop of X-Forwarded-For.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.Index(fwd, ","); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
