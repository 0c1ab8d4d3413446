package api

import "time"

// Wire types for the three public endpoints. The widget and the backend
// share these shapes; field names follow the JSON the widget sends.

type SessionResponse struct {
	SessionID string `json:"sessionId"`
	Error     string `json:"error,omitempty"`
}

// Turn is one prior message sent as conversation context. Attachments are
// never included here, only role and content.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`

	// ConversationHistory carries at most the last 10 prior turns.
	ConversationHistory []Turn `json:"conversationHistory"`

	// Images are data URIs for image attachments on this turn.
	Images []string `json:"images,omitempty"`
}

type ChatResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

type TranscribeRequest struct {
	// Audio is the base64 encoded recording, without a data URI prefix.
	Audio string `json:"audio"`
}

type TranscribeResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Admin surface.

type AdminLoginRequest struct {
	Password string `json:"password"`
}

type AdminLoginResponse struct {
	Token string `json:"token"`
}

type SessionSummary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	LastSeenAt   time.Time `json:"last_seen_at"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent,omitempty"`
	MessageCount int64     `json:"message_count"`
	HasUrgency   bool      `json:"has_urgency"`
}

type SessionListQuery struct {
	// Search matches against session id or IP address.
	Search string `schema:"search"`
	// Date filters sessions created on a given day (YYYY-MM-DD).
	Date  string `schema:"date"`
	Limit int    `schema:"limit"`
}

type StoredMessage struct {
	ID          string         `json:"id"`
	SessionID   string         `json:"session_id"`
	CreatedAt   time.Time      `json:"created_at"`
	Role        string         `json:"role"`
	ContentText string         `json:"content_text"`
	Flags       map[string]any `json:"flags_json,omitempty"`
}

type AdminStats struct {
	TotalSessions  int64 `json:"total_sessions"`
	UrgentSessions int64 `json:"urgent_sessions"`
	TodaySessions  int64 `json:"today_sessions"`
}

type ExportResponse struct {
	ExportedAt time.Time       `json:"exportedAt"`
	Sessions   []ExportSession `json:"sessions"`
}

type ExportSession struct {
	SessionSummary
	Messages []StoredMessage `json:"messages"`
}
