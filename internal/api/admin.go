package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"comercia-backend/internal/database"
	"comercia-backend/pkg/api"
)

const defaultSessionListLimit = 100

// AdminService serves the review surface: password login, session listing
// with filters, per-session transcripts, aggregate stats, and a full export.
// Tokens are held in memory only; a restart logs every admin out.
type AdminService struct {
	db       *gorm.DB
	password string

	mu     sync.Mutex
	tokens map[string]bool
}

func NewAdminService(db *gorm.DB, password string) *AdminService {
	return &AdminService{db: db, password: password, tokens: make(map[string]bool)}
}

func (s *AdminService) AddRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", RestHandler(s.Login))

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Get("/sessions", RestHandler(s.ListSessions))
			r.Get("/sessions/{session_id}/messages", RestHandler(s.SessionMessages))
			r.Get("/stats", RestHandler(s.Stats))
			r.Get("/export", RestHandler(s.Export))
		})
	})
}

func (s *AdminService) Login(r *http.Request) (any, error) {
	req, err := ParseRequest[api.AdminLoginRequest](r)
	if err != nil {
		return nil, err
	}

	if s.password == "" || req.Password != s.password {
		return nil, CodedErrorf(http.StatusUnauthorized, "invalid password")
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = true
	s.mu.Unlock()

	return api.AdminLoginResponse{Token: token}, nil
}

func (s *AdminService) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		s.mu.Lock()
		ok := s.tokens[token]
		s.mu.Unlock()

		if token == "" || !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *AdminService) ListSessions(r *http.Request) (any, error) {
	query, err := ParseRequestQueryParams[api.SessionListQuery](r)
	if err != nil {
		return nil, err
	}
	if query.Limit <= 0 {
		query.Limit = defaultSessionListLimit
	}

	// Filters narrow before the limit applies, so a search can reach past
	// the most recent page.
	fetchLimit := query.Limit
	if query.Search != "" || query.Date != "" {
		fetchLimit = -1
	}

	sessions, err := database.ListRecentSessions(r.Context(), s.db, fetchLimit)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "unable to list sessions")
	}

	summaries := make([]api.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		if len(summaries) == query.Limit {
			break
		}
		if !matchesFilters(session, query) {
			continue
		}
		summary, err := s.summarize(r.Context(), session)
		if err != nil {
			return nil, CodedErrorf(http.StatusInternalServerError, "unable to summarize session")
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func (s *AdminService) SessionMessages(r *http.Request) (any, error) {
	sessionID, err := URLParamString(r, "session_id")
	if err != nil {
		return nil, err
	}

	messages, err := database.SessionMessages(r.Context(), s.db, sessionID)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "unable to load session messages")
	}

	out := make([]api.StoredMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, storedMessage(m))
	}
	return out, nil
}

func (s *AdminService) Stats(r *http.Request) (any, error) {
	sessions, err := database.ListRecentSessions(r.Context(), s.db, -1)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "unable to list sessions")
	}

	today := time.Now().UTC().Format("2006-01-02")
	stats := api.AdminStats{TotalSessions: int64(len(sessions))}
	for _, session := range sessions {
		if session.CreatedAt.UTC().Format("2006-01-02") == today {
			stats.TodaySessions++
		}
		urgent, err := database.SessionHasUrgency(r.Context(), s.db, session.ID.String())
		if err != nil {
			return nil, CodedErrorf(http.StatusInternalServerError, "unable to check session flags")
		}
		if urgent {
			stats.UrgentSessions++
		}
	}
	return stats, nil
}

func (s *AdminService) Export(r *http.Request) (any, error) {
	sessions, err := database.ListRecentSessions(r.Context(), s.db, -1)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "unable to list sessions")
	}

	export := api.ExportResponse{ExportedAt: time.Now().UTC()}
	for _, session := range sessions {
		summary, err := s.summarize(r.Context(), session)
		if err != nil {
			return nil, CodedErrorf(http.StatusInternalServerError, "unable to summarize session")
		}

		messages, err := database.SessionMessages(r.Context(), s.db, session.ID.String())
		if err != nil {
			return nil, CodedErrorf(http.StatusInternalServerError, "unable to load session messages")
		}

		entry := api.ExportSession{SessionSummary: summary}
		for _, m := range messages {
			entry.Messages = append(entry.Messages, storedMessage(m))
		}
		export.Sessions = append(export.Sessions, entry)
	}
	return export, nil
}

func (s *AdminService) summarize(ctx context.Context, session database.Session) (api.SessionSummary, error) {
	count, err := database.MessageCount(ctx, s.db, session.ID.String())
	if err != nil {
		return api.SessionSummary{}, err
	}
	urgent, err := database.SessionHasUrgency(ctx, s.db, session.ID.String())
	if err != nil {
		return api.SessionSummary{}, err
	}
	return api.SessionSummary{
		ID:           session.ID.String(),
		CreatedAt:    session.CreatedAt,
		LastSeenAt:   session.LastSeenAt,
		IPAddress:    session.IPAddress,
		UserAgent:    session.UserAgent,
		MessageCount: count,
		HasUrgency:   urgent,
	}, nil
}

func matchesFilters(session database.Session, query api.SessionListQuery) bool {
	if query.Search != "" {
		needle := strings.ToLower(query.Search)
		if !strings.Contains(strings.ToLower(session.ID.String()), needle) &&
			!strings.Contains(strings.ToLower(session.IPAddress), needle) {
			return false
		}
	}
	if query.Date != "" && session.CreatedAt.UTC().Format("2006-01-02") != query.Date {
		return false
	}
	return true
}

func storedMessage(m database.Message) api.StoredMessage {
	out := api.StoredMessage{
		ID:          m.ID.String(),
		SessionID:   m.SessionID,
		CreatedAt:   m.CreatedAt,
		Role:        m.Role,
		ContentText: m.ContentText,
	}
	if len(m.FlagsJSON) > 0 {
		var flags map[string]any
		if err := json.Unmarshal(m.FlagsJSON, &flags); err == nil {
			out.Flags = flags
		}
	}
	return out
}
