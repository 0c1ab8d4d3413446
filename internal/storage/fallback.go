package storage

import (
	"context"
	"log/slog"
)

// FallbackStore prefers the primary backend and degrades to the fallback one
// operation at a time. The decision is never cached: a flaky primary may
// serve some calls while others land on the fallback. Degradations are
// reported through a side channel so callers never block on, or fail from,
// a lost durable write alone.
type FallbackStore struct {
	primary    Store
	fallback   Store
	onFallback func(op string, err error)
}

var _ Store = (*FallbackStore)(nil)

func NewFallbackStore(primary, fallback Store, onFallback func(op string, err error)) *FallbackStore {
	if onFallback == nil {
		onFallback = func(op string, err error) {
			slog.Warn("primary store failed, using fallback", "op", op, "error", err)
		}
	}
	return &FallbackStore{primary: primary, fallback: fallback, onFallback: onFallback}
}

func (s *FallbackStore) SaveMessage(ctx context.Context, m Message) error {
	if err := s.primary.SaveMessage(ctx, m); err != nil {
		s.onFallback("save_message", err)
		return s.fallback.SaveMessage(ctx, m)
	}
	return nil
}

func (s *FallbackStore) Messages(ctx context.Context) ([]Message, error) {
	messages, err := s.primary.Messages(ctx)
	if err != nil {
		s.onFallback("messages", err)
		return s.fallback.Messages(ctx)
	}
	return messages, nil
}

func (s *FallbackStore) ClearMessages(ctx context.Context) error {
	if err := s.primary.ClearMessages(ctx); err != nil {
		s.onFallback("clear_messages", err)
		return s.fallback.ClearMessages(ctx)
	}
	return nil
}

func (s *FallbackStore) SaveSession(ctx context.Context, sess Session) error {
	if err := s.primary.SaveSession(ctx, sess); err != nil {
		s.onFallback("save_session", err)
		return s.fallback.SaveSession(ctx, sess)
	}
	return nil
}

func (s *FallbackStore) ClearSession(ctx context.Context) error {
	if err := s.primary.ClearSession(ctx); err != nil {
		s.onFallback("clear_session", err)
		return s.fallback.ClearSession(ctx)
	}
	return nil
}

func (s *FallbackStore) Session(ctx context.Context) (Session, bool, error) {
	sess, ok, err := s.primary.Session(ctx)
	if err != nil {
		s.onFallback("session", err)
		return s.fallback.Session(ctx)
	}
	return sess, ok, nil
}
