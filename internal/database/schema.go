package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Session is one widget conversation as the backend sees it, keyed by the id
// returned from the session endpoint.
type Session struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time
	LastSeenAt time.Time
	IPAddress  string `gorm:"size:64"`
	UserAgent  string
}

// Message is one stored turn. SessionID is deliberately a plain string with
// no foreign key: a widget whose session issuance failed sends a locally
// generated id that has no session row, and those orphan messages are kept.
type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionID string    `gorm:"size:64;index"`
	CreatedAt time.Time
	Role      string `gorm:"size:20;not null"`

	ContentText     string
	AttachmentsJSON datatypes.JSON `gorm:"type:jsonb"`
	FlagsJSON       datatypes.JSON `gorm:"type:jsonb"` // {"urgency": true}
}
