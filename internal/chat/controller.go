package chat

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"comercia-backend/internal/storage"
	"comercia-backend/pkg/api"
)

// WelcomeMessage is seeded as the first assistant turn of every fresh
// conversation.
const WelcomeMessage = "Olá! Sou a comercIA, assistente virtual da clínica. Como posso ajudar você hoje?\n\nPosso agendar consultas, informar preços de exames, ou orientar sobre sintomas. É só me contar!"

// ApologyMessage is appended as the assistant turn whenever the chat
// boundary fails, keeping user/assistant turn bookkeeping strict.
const ApologyMessage = "Desculpe, tive um problema para processar sua mensagem. Pode tentar novamente?"

// historyWindow is how many prior turns are sent to the chat boundary as
// context.
const historyWindow = 10

// Gateway is the remote boundary the controller talks to.
type Gateway interface {
	CreateSession(ctx context.Context) (string, error)
	Chat(ctx context.Context, req api.ChatRequest) (string, error)
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Notifier surfaces transient user-facing notices.
type Notifier func(text string)

// AttachmentInput names a local file to attach to an outgoing message.
type AttachmentInput struct {
	Path string
	Name string
}

// Controller orchestrates one conversation: it owns the session identity and
// the message list, and is the only writer of both. The local store is the
// source of truth for rendering; the backend is the system of record for
// admin review, and the two are reconciled only through the send protocol.
type Controller struct {
	mu       sync.Mutex
	store    storage.Store
	gateway  Gateway
	recorder Recorder
	notify   Notifier
	now      func() time.Time
	newID    func() string

	messages    []storage.Message
	sessionID   string
	degraded    bool
	recording   bool
	initialized bool
}

type Option func(*Controller)

func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notify = n }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithIDSource(newID func() string) Option {
	return func(c *Controller) { c.newID = newID }
}

func NewController(store storage.Store, gateway Gateway, opts ...Option) *Controller {
	c := &Controller{
		store:   store,
		gateway: gateway,
		notify:  func(string) {},
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init establishes the session and loads history. A stored session always
// wins; otherwise the issuance boundary is called once, and on failure a
// locally generated id is used for the rest of the store's lifetime with no
// later reconciliation. Init never runs twice on the same controller.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	messages, err := c.store.Messages(ctx)
	if err != nil {
		slog.Warn("could not load stored messages, starting empty", "error", err)
		messages = nil
	}
	c.messages = messages

	sess, ok, err := c.store.Session(ctx)
	if err != nil {
		slog.Warn("could not load stored session", "error", err)
		ok = false
	}

	if ok {
		c.sessionID = sess.ID
	} else {
		id, err := c.gateway.CreateSession(ctx)
		if err != nil {
			slog.Warn("session issuance failed, generating local session id", "error", err)
			id = c.newID()
			c.degraded = true
		}
		c.sessionID = id
		c.persistSession(ctx, storage.Session{ID: id, Created: c.now().UnixMilli()})
	}

	if len(c.messages) == 0 {
		c.appendAndPersist(ctx, storage.Message{
			ID:        c.newID(),
			Role:      storage.RoleAssistant,
			Content:   WelcomeMessage,
			Timestamp: c.now().UnixMilli(),
		})
	}

	c.initialized = true
	return nil
}

// SessionID returns the established session identity.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Degraded reports whether the session id was generated locally because the
// issuance boundary failed.
func (c *Controller) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

// Messages returns a copy of the visible conversation.
func (c *Controller) Messages() []storage.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]storage.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Send runs the message send protocol. An empty text with no attachments is
// a no-op. The user message is committed in memory and persisted best-effort
// before the boundary call; a boundary failure yields the fixed apology as
// the assistant turn, so every non-empty send appends exactly one assistant
// message. Send never returns an error for a boundary failure.
func (c *Controller) Send(ctx context.Context, text string, attachments []AttachmentInput) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send(ctx, text, attachments)
}

func (c *Controller) send(ctx context.Context, text string, attachments []AttachmentInput) error {
	if strings.TrimSpace(text) == "" && len(attachments) == 0 {
		return nil
	}

	resolved, images, err := resolveAttachments(attachments)
	if err != nil {
		c.notify("Erro ao processar anexo")
		return err
	}

	userMsg := storage.Message{
		ID:          c.newID(),
		Role:        storage.RoleUser,
		Content:     text,
		Timestamp:   c.now().UnixMilli(),
		Attachments: resolved,
	}

	// Context is the last turns before this message, role and content only.
	history := c.historyTurns()

	c.appendAndPersist(ctx, userMsg)

	reply, err := c.gateway.Chat(ctx, api.ChatRequest{
		SessionID:           c.sessionID,
		Message:             text,
		ConversationHistory: history,
		Images:              images,
	})
	if err != nil {
		slog.Error("chat boundary call failed", "session_id", c.sessionID, "error", err)
		c.notify("Erro ao enviar mensagem. Tente novamente.")
		reply = ApologyMessage
	}

	c.appendAndPersist(ctx, storage.Message{
		ID:        c.newID(),
		Role:      storage.RoleAssistant,
		Content:   reply,
		Timestamp: c.now().UnixMilli(),
	})

	return nil
}

// ClearConversation bulk-clears the stored history and re-seeds the welcome
// message. The session identity is kept.
func (c *Controller) ClearConversation(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.ClearMessages(ctx); err != nil {
		slog.Warn("could not clear stored messages", "error", err)
	}
	c.messages = nil
	c.appendAndPersist(ctx, storage.Message{
		ID:        c.newID(),
		Role:      storage.RoleAssistant,
		Content:   WelcomeMessage,
		Timestamp: c.now().UnixMilli(),
	})
}

func (c *Controller) historyTurns() []api.Turn {
	start := len(c.messages) - historyWindow
	if start < 0 {
		start = 0
	}
	turns := make([]api.Turn, 0, len(c.messages)-start)
	for _, m := range c.messages[start:] {
		turns = append(turns, api.Turn{Role: string(m.Role), Content: m.Content})
	}
	return turns
}

// appendAndPersist commits to the in-memory list unconditionally, then
// attempts the durable write. A persistence failure is logged and does not
// roll back the in-memory state.
func (c *Controller) appendAndPersist(ctx context.Context, m storage.Message) {
	c.messages = append(c.messages, m)
	if err := c.store.SaveMessage(ctx, m); err != nil {
		slog.Warn("could not persist message", "message_id", m.ID, "error", err)
	}
}

func (c *Controller) persistSession(ctx context.Context, s storage.Session) {
	if err := c.store.SaveSession(ctx, s); err != nil {
		slog.Warn("could not persist session", "session_id", s.ID, "error", err)
	}
}

var imageMimes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

var audioExts = map[string]bool{
	".webm": true,
	".ogg":  true,
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
}

// resolveAttachments classifies each input and, for images only, encodes the
// content as an inline data URI for the boundary call. Audio and generic
// files keep a local locator and are never sent to the AI.
func resolveAttachments(inputs []AttachmentInput) ([]storage.Attachment, []string, error) {
	if len(inputs) == 0 {
		return nil, nil, nil
	}

	var resolved []storage.Attachment
	var images []string
	for _, in := range inputs {
		name := in.Name
		if name == "" {
			name = filepath.Base(in.Path)
		}

		ext := strings.ToLower(filepath.Ext(in.Path))
		att := storage.Attachment{Kind: storage.AttachmentFile, Locator: in.Path, DisplayName: name}

		switch {
		case imageMimes[ext] != "":
			att.Kind = storage.AttachmentImage
			data, err := os.ReadFile(in.Path)
			if err != nil {
				return nil, nil, fmt.Errorf("could not read image attachment %s: %w", in.Path, err)
			}
			images = append(images, "data:"+imageMimes[ext]+";base64,"+base64.StdEncoding.EncodeToString(data))
		case audioExts[ext]:
			att.Kind = storage.AttachmentAudio
		}

		resolved = append(resolved, att)
	}
	return resolved, images, nil
}
