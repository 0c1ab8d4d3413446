package storage

import "context"

// Local conversation persistence. Two interchangeable backends implement the
// same contract: a structured sqlite store and a flat JSON file store. The
// store holds no business logic; the conversation controller is its only
// writer.

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentAudio AttachmentKind = "audio"
	AttachmentFile  AttachmentKind = "file"
)

// Attachment references local content attached to a message. The locator is
// resolvable on this machine only and is not guaranteed durable across
// restarts.
type Attachment struct {
	Kind          AttachmentKind `json:"kind"`
	Locator       string         `json:"locator"`
	DisplayName   string         `json:"display_name,omitempty"`
	Transcription string         `json:"transcription,omitempty"`
}

// Message is one conversational turn. Messages are immutable once written
// and are only ever removed by a bulk clear.
type Message struct {
	ID          string       `gorm:"primaryKey" json:"id"`
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	Timestamp   int64        `json:"timestamp"` // unix millis, the sole ordering key
	Attachments []Attachment `gorm:"serializer:json" json:"attachments,omitempty"`
}

// Session is the conversation identity shared with the backend. A store
// holds at most one session, and it is never rotated once written.
type Session struct {
	ID      string `gorm:"primaryKey" json:"id"`
	Created int64  `json:"createdAt"` // unix millis
}

type Store interface {
	// SaveMessage upserts one message keyed by its id.
	SaveMessage(ctx context.Context, m Message) error

	// Messages returns all messages sorted ascending by timestamp. Only the
	// retrieval path sorts; insertion order carries no guarantee because
	// attachment processing is asynchronous.
	Messages(ctx context.Context) ([]Message, error)

	// ClearMessages removes every stored message.
	ClearMessages(ctx context.Context) error

	SaveSession(ctx context.Context, s Session) error

	// Session returns the stored session, if any.
	Session(ctx context.Context) (Session, bool, error)

	// ClearSession drops the stored session identity.
	ClearSession(ctx context.Context) error
}
