package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	messagesFileName = "comercia_messages.json"
	sessionFileName  = "comercia_session.json"
)

// FileStore is the fallback backend: whole-collection read-modify-write
// against flat JSON files. Every message write rereads and rewrites the full
// serialized array, which is O(n) per put and acceptable only because a
// conversation holds tens of messages.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create store directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) messagesPath() string { return filepath.Join(s.dir, messagesFileName) }
func (s *FileStore) sessionPath() string  { return filepath.Join(s.dir, sessionFileName) }

func (s *FileStore) readMessages() ([]Message, error) {
	data, err := os.ReadFile(s.messagesPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read messages file: %w", err)
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("could not parse messages file: %w", err)
	}
	return messages, nil
}

func (s *FileStore) writeMessages(messages []Message) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("could not serialize messages: %w", err)
	}
	if err := os.WriteFile(s.messagesPath(), data, 0644); err != nil {
		return fmt.Errorf("could not write messages file: %w", err)
	}
	return nil
}

func (s *FileStore) SaveMessage(ctx context.Context, m Message) error {
	messages, err := s.readMessages()
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range messages {
		if existing.ID == m.ID {
			messages[i] = m
			replaced = true
			break
		}
	}
	if !replaced {
		messages = append(messages, m)
	}

	return s.writeMessages(messages)
}

func (s *FileStore) Messages(ctx context.Context) ([]Message, error) {
	messages, err := s.readMessages()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp < messages[j].Timestamp
	})
	return messages, nil
}

func (s *FileStore) ClearMessages(ctx context.Context) error {
	if err := os.Remove(s.messagesPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not clear messages file: %w", err)
	}
	return nil
}

func (s *FileStore) SaveSession(ctx context.Context, sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("could not serialize session: %w", err)
	}
	if err := os.WriteFile(s.sessionPath(), data, 0644); err != nil {
		return fmt.Errorf("could not write session file: %w", err)
	}
	return nil
}

func (s *FileStore) ClearSession(ctx context.Context) error {
	if err := os.Remove(s.sessionPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not clear session file: %w", err)
	}
	return nil
}

func (s *FileStore) Session(ctx context.Context) (Session, bool, error) {
	data, err := os.ReadFile(s.sessionPath())
	if os.IsNotExist(err) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("could not read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, false, fmt.Errorf("could not parse session file: %w", err)
	}
	return sess, true, nil
}
