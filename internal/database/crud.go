package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MessageFlags is the decoded form of Message.FlagsJSON.
type MessageFlags struct {
	Urgency bool `json:"urgency,omitempty"`
}

func CreateSession(ctx context.Context, db *gorm.DB, ipAddress, userAgent string) (Session, error) {
	now := time.Now().UTC()
	session := Session{
		ID:         uuid.New(),
		CreatedAt:  now,
		LastSeenAt: now,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
	}
	if err := db.WithContext(ctx).Create(&session).Error; err != nil {
		return Session{}, fmt.Errorf("error creating session: %w", err)
	}
	return session, nil
}

// TouchSession bumps last_seen_at for a known session. Sessions with locally
// generated ids have no row, so a zero-row update is not an error.
func TouchSession(ctx context.Context, db *gorm.DB, sessionID string) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil
	}
	result := db.WithContext(ctx).Model(&Session{}).Where("id = ?", id).
		Update("last_seen_at", time.Now().UTC())
	if result.Error != nil {
		return fmt.Errorf("error updating session activity: %w", result.Error)
	}
	return nil
}

func InsertMessage(ctx context.Context, db *gorm.DB, sessionID, role, content string, attachments []string, flags MessageFlags) (Message, error) {
	message := Message{
		ID:          uuid.New(),
		SessionID:   sessionID,
		CreatedAt:   time.Now().UTC(),
		Role:        role,
		ContentText: content,
	}

	if len(attachments) > 0 {
		data, err := json.Marshal(attachments)
		if err != nil {
			return Message{}, fmt.Errorf("error serializing attachments: %w", err)
		}
		message.AttachmentsJSON = data
	}

	if flags != (MessageFlags{}) {
		data, err := json.Marshal(flags)
		if err != nil {
			return Message{}, fmt.Errorf("error serializing flags: %w", err)
		}
		message.FlagsJSON = data
	}

	if err := db.WithContext(ctx).Create(&message).Error; err != nil {
		return Message{}, fmt.Errorf("error inserting message: %w", err)
	}
	return message, nil
}

// ListRecentSessions returns sessions newest activity first. A non-positive
// limit returns everything.
func ListRecentSessions(ctx context.Context, db *gorm.DB, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = -1
	}
	var sessions []Session
	if err := db.WithContext(ctx).Order("last_seen_at DESC").Limit(limit).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	return sessions, nil
}

func SessionMessages(ctx context.Context, db *gorm.DB, sessionID string) ([]Message, error) {
	var messages []Message
	if err := db.WithContext(ctx).Where("session_id = ?", sessionID).
		Order("created_at ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("error listing session messages: %w", err)
	}
	return messages, nil
}

func MessageCount(ctx context.Context, db *gorm.DB, sessionID string) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&Message{}).Where("session_id = ?", sessionID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("error counting session messages: %w", err)
	}
	return count, nil
}

// SessionHasUrgency reports whether any message in the session was flagged
// urgent. The flag check happens in Go since jsonb operators are not portable
// across the sqlite and postgres dialects we run on.
func SessionHasUrgency(ctx context.Context, db *gorm.DB, sessionID string) (bool, error) {
	var messages []Message
	if err := db.WithContext(ctx).
		Select("flags_json").
		Where("session_id = ? AND flags_json IS NOT NULL", sessionID).
		Find(&messages).Error; err != nil {
		return false, fmt.Errorf("error checking session flags: %w", err)
	}

	for _, m := range messages {
		var flags MessageFlags
		if err := json.Unmarshal(m.FlagsJSON, &flags); err != nil {
			continue
		}
		if flags.Urgency {
			return true, nil
		}
	}
	return false, nil
}
