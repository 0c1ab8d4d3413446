package storage

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore is the primary backend: a transactional structured store with
// one table per container, created at open time.
type SQLiteStore struct {
	db *gorm.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("could not open sqlite store at %s: %w", path, err)
	}

	if err := db.AutoMigrate(&Message{}, &Session{}); err != nil {
		return nil, fmt.Errorf("could not migrate sqlite store: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveMessage(ctx context.Context, m Message) error {
	if err := s.db.WithContext(ctx).Save(&m).Error; err != nil {
		return fmt.Errorf("could not save message %s: %w", m.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Messages(ctx context.Context) ([]Message, error) {
	var messages []Message
	if err := s.db.WithContext(ctx).Order("timestamp ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("could not load messages: %w", err)
	}
	return messages, nil
}

func (s *SQLiteStore) ClearMessages(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&Message{}).Error; err != nil {
		return fmt.Errorf("could not clear messages: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, sess Session) error {
	if err := s.db.WithContext(ctx).Save(&sess).Error; err != nil {
		return fmt.Errorf("could not save session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&Session{}).Error; err != nil {
		return fmt.Errorf("could not clear session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Session(ctx context.Context) (Session, bool, error) {
	var sessions []Session
	if err := s.db.WithContext(ctx).Limit(1).Find(&sessions).Error; err != nil {
		return Session{}, false, fmt.Errorf("could not load session: %w", err)
	}
	if len(sessions) == 0 {
		return Session{}, false, nil
	}
	return sessions[0], true, nil
}
