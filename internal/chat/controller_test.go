package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comercia-backend/internal/storage"
	"comercia-backend/pkg/api"
)

type fakeGateway struct {
	sessionID    string
	sessionErr   error
	sessionCalls int

	reply     string
	chatErr   error
	chatCalls int
	lastChat  api.ChatRequest

	transcript    string
	transcribeErr error
}

func (g *fakeGateway) CreateSession(ctx context.Context) (string, error) {
	g.sessionCalls++
	if g.sessionErr != nil {
		return "", g.sessionErr
	}
	return g.sessionID, nil
}

func (g *fakeGateway) Chat(ctx context.Context, req api.ChatRequest) (string, error) {
	g.chatCalls++
	g.lastChat = req
	if g.chatErr != nil {
		return "", g.chatErr
	}
	return g.reply, nil
}

func (g *fakeGateway) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if g.transcribeErr != nil {
		return "", g.transcribeErr
	}
	return g.transcript, nil
}

type stubRecorder struct {
	startErr error
	audio    []byte
	stopErr  error
}

func (r *stubRecorder) Start(ctx context.Context) error { return r.startErr }

func (r *stubRecorder) Stop(ctx context.Context) ([]byte, error) { return r.audio, r.stopErr }

func testOptions(t *testing.T) []Option {
	t.Helper()
	at := time.UnixMilli(0)
	seq := 0
	return []Option{
		WithClock(func() time.Time {
			at = at.Add(time.Second)
			return at
		}),
		WithIDSource(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	}
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	return store
}

func TestInitSeedsWelcomeMessage(t *testing.T) {
	gw := &fakeGateway{sessionID: "sess-remote"}
	c := NewController(newTestStore(t), gw, testOptions(t)...)
	require.NoError(t, c.Init(context.Background()))

	messages := c.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, storage.RoleAssistant, messages[0].Role)
	assert.Equal(t, WelcomeMessage, messages[0].Content)
	assert.Equal(t, "sess-remote", c.SessionID())
	assert.False(t, c.Degraded())
	assert.Equal(t, 1, gw.sessionCalls)
}

func TestInitIdempotentAcrossReloads(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	gw := &fakeGateway{sessionID: "sess-remote"}

	first := NewController(store, gw, testOptions(t)...)
	require.NoError(t, first.Init(ctx))

	// A reload re-initializes against the same store: the stored session must
	// win and the issuance boundary must not be called again.
	second := NewController(store, gw, testOptions(t)...)
	require.NoError(t, second.Init(ctx))

	assert.Equal(t, "sess-remote", second.SessionID())
	assert.Equal(t, 1, gw.sessionCalls)
	require.Len(t, second.Messages(), 1)
}

func TestInitDegradedSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	gw := &fakeGateway{sessionErr: errors.New("boundary down")}

	c := NewController(store, gw, testOptions(t)...)
	require.NoError(t, c.Init(ctx))

	assert.True(t, c.Degraded())
	assert.NotEmpty(t, c.SessionID())

	// The degraded id is persisted and reused, never re-issued.
	gw.sessionErr = nil
	gw.sessionID = "sess-late"
	again := NewController(store, gw, testOptions(t)...)
	require.NoError(t, again.Init(ctx))
	assert.Equal(t, c.SessionID(), again.SessionID())
	assert.Equal(t, 1, gw.sessionCalls)
}

func TestSendEmptyIsNoOp(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{sessionID: "s", reply: "oi"}
	c := NewController(newTestStore(t), gw, testOptions(t)...)
	require.NoError(t, c.Init(ctx))

	require.NoError(t, c.Send(ctx, "", nil))
	require.NoError(t, c.Send(ctx, "   \t ", nil))

	assert.Equal(t, 0, gw.chatCalls)
	assert.Len(t, c.Messages(), 1) // welcome only
}

func TestSendAppendsUserAndAssistant(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	gw := &fakeGateway{sessionID: "sess-1", reply: "Claro! Qual dia fica melhor?"}
	c := NewController(store, gw, testOptions(t)...)
	require.NoError(t, c.Init(ctx))

	require.NoError(t, c.Send(ctx, "Quero marcar cardiologista amanhã de manhã", nil))

	messages := c.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, storage.RoleUser, messages[1].Role)
	assert.Equal(t, "Quero marcar cardiologista amanhã de manhã", messages[1].Content)
	assert.Equal(t, storage.RoleAssistant, messages[2].Role)
	assert.Equal(t, "Claro! Qual dia fica melhor?", messages[2].Content)

	assert.Equal(t, "sess-1", gw.lastChat.SessionID)

	// Durable across a simulated reload.
	reloaded := NewController(store, gw, testOptions(t)...)
	require.NoError(t, reloaded.Init(ctx))
	persisted := reloaded.Messages()
	require.Len(t, persisted, 3)
	assert.Equal(t, "Quero marcar cardiologista amanhã de manhã", persisted[1].Content)
	assert.Equal(t, "Claro! Qual dia fica melhor?", persisted[2].Content)
}

func TestSendFailureYieldsApology(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{sessionID: "s", chatErr: errors.New("gateway down")}

	var notices []string
	opts := append(testOptions(t), WithNotifier(func(text string) { notices = append(notices, text) }))
	c := NewController(newTestStore(t), gw, opts...)
	require.NoError(t, c.Init(ctx))

	require.NoError(t, c.Send(ctx, "olá", nil))

	messages := c.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, storage.RoleAssistant, messages[2].Role)
	assert.Equal(t, ApologyMessage, messages[2].Content)
	assert.Contains(t, notices, "Erro ao enviar mensagem. Tente novamente.")
}

func TestSendHistoryWindow(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{sessionID: "s", reply: "ok"}
	c := NewController(newTestStore(t), gw, testOptions(t)...)
	require.NoError(t, c.Init(ctx))

	for i := 0; i < 8; i++ {
		require.NoError(t, c.Send(ctx, fmt.Sprintf("mensagem %d", i), nil))
	}

	// welcome + 8*2 turns exist; the context window holds the 10 turns prior
	// to the final user message, role and content only.
	require.Len(t, c.Messages(), 17)
	require.Len(t, gw.lastChat.ConversationHistory, historyWindow)
	last := gw.lastChat.ConversationHistory[historyWindow-1]
	assert.Equal(t, "ok", last.Content)
	assert.Equal(t, string(storage.RoleAssistant), last.Role)
}

func TestSendImageAttachment(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "pedido.png")
	require.NoError(t, os.WriteFile(imgPath, []byte("fake-png-bytes"), 0644))
	docPath := filepath.Join(dir, "laudo.pdf")
	require.NoError(t, os.WriteFile(docPath, []byte("fake-pdf"), 0644))

	gw := &fakeGateway{sessionID: "s", reply: "recebi a imagem"}
	c := NewController(newTestStore(t), gw, testOptions(t)...)
	require.NoError(t, c.Init(ctx))

	require.NoError(t, c.Send(ctx, "segue o pedido", []AttachmentInput{{Path: imgPath}, {Path: docPath}}))

	messages := c.Messages()
	userMsg := messages[1]
	require.Len(t, userMsg.Attachments, 2)
	assert.Equal(t, storage.AttachmentImage, userMsg.Attachments[0].Kind)
	assert.Equal(t, "pedido.png", userMsg.Attachments[0].DisplayName)
	assert.Equal(t, storage.AttachmentFile, userMsg.Attachments[1].Kind)

	// Only the image is encoded for the boundary call.
	require.Len(t, gw.lastChat.Images, 1)
	assert.True(t, strings.HasPrefix(gw.lastChat.Images[0], "data:image/png;base64,"))
}

func TestAudioTurnFeedsSend(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{sessionID: "s", reply: "anotado", transcript: "quero marcar um exame"}
	rec := &stubRecorder{audio: []byte("webm-bytes")}

	opts := append(testOptions(t), WithRecorder(rec))
	c := NewController(newTestStore(t), gw, opts...)
	require.NoError(t, c.Init(ctx))

	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))

	messages := c.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, "quero marcar um exame", messages[1].Content)
	assert.Equal(t, storage.RoleUser, messages[1].Role)
	assert.Equal(t, 1, gw.chatCalls)
}

func TestEmptyTranscriptionProducesNoMessage(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{sessionID: "s", transcript: ""}
	rec := &stubRecorder{audio: []byte("webm-bytes")}

	var notices []string
	opts := append(testOptions(t),
		WithRecorder(rec),
		WithNotifier(func(text string) { notices = append(notices, text) }),
	)
	c := NewController(newTestStore(t), gw, opts...)
	require.NoError(t, c.Init(ctx))

	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))

	assert.Len(t, c.Messages(), 1) // welcome only, no apology either
	assert.Equal(t, 0, gw.chatCalls)
	assert.Contains(t, notices, "Não foi possível transcrever o áudio")
}

func TestSecondStartRecordingRejected(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{sessionID: "s"}
	rec := &stubRecorder{}

	c := NewController(newTestStore(t), gw, append(testOptions(t), WithRecorder(rec))...)
	require.NoError(t, c.Init(ctx))

	require.NoError(t, c.StartRecording(ctx))
	assert.ErrorIs(t, c.StartRecording(ctx), ErrRecordingActive)

	require.NoError(t, c.StopRecording(ctx))
	// Stopping again without an active capture is a no-op.
	require.NoError(t, c.StopRecording(ctx))
}

func TestClearConversationReseedsWelcome(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	gw := &fakeGateway{sessionID: "s", reply: "ok"}
	c := NewController(store, gw, testOptions(t)...)
	require.NoError(t, c.Init(ctx))
	require.NoError(t, c.Send(ctx, "olá", nil))

	c.ClearConversation(ctx)

	messages := c.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, WelcomeMessage, messages[0].Content)

	stored, err := store.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "s", c.SessionID())
}

func TestPersistenceFailureDoesNotBlockConversation(t *testing.T) {
	ctx := context.Background()

	primary, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	secondary, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	store := storage.NewFallbackStore(&brokenWrites{primary}, secondary, func(string, error) {})

	gw := &fakeGateway{sessionID: "s", reply: "tudo certo"}
	c := NewController(store, gw, testOptions(t)...)
	require.NoError(t, c.Init(ctx))
	require.NoError(t, c.Send(ctx, "oi", nil))

	// In-memory state is intact and the fallback captured the writes.
	require.Len(t, c.Messages(), 3)
	persisted, err := secondary.Messages(ctx)
	require.NoError(t, err)
	assert.Len(t, persisted, 3)
}

type brokenWrites struct {
	storage.Store
}

func (s *brokenWrites) SaveMessage(ctx context.Context, m storage.Message) error {
	return errors.New("disk full")
}
