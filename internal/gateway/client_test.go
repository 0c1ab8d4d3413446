package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comercia-backend/internal/gateway"
	"comercia-backend/pkg/api"
)

func TestCreateSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/session", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.SessionResponse{SessionID: "abc-123"})
	}))
	defer server.Close()

	id, err := gateway.NewClient(server.URL).CreateSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)
}

func TestCreateSessionServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := gateway.NewClient(server.URL).CreateSession(context.Background())
	assert.Error(t, err)
}

func TestChatRelaysRequest(t *testing.T) {
	var received api.ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.ChatResponse{Response: "Claro, posso ajudar."})
	}))
	defer server.Close()

	reply, err := gateway.NewClient(server.URL).Chat(context.Background(), api.ChatRequest{
		SessionID: "abc",
		Message:   "oi",
		ConversationHistory: []api.Turn{
			{Role: "assistant", Content: "Olá!"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Claro, posso ajudar.", reply)
	assert.Equal(t, "abc", received.SessionID)
	assert.Len(t, received.ConversationHistory, 1)
}

func TestChatErrorStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(api.ChatResponse{Error: "gateway down", Response: "Desculpe."})
	}))
	defer server.Close()

	_, err := gateway.NewClient(server.URL).Chat(context.Background(), api.ChatRequest{Message: "oi"})
	assert.Error(t, err)
}

func TestTranscribeEncodesAudio(t *testing.T) {
	var received api.TranscribeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transcribe", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.TranscribeResponse{Text: "quero marcar"})
	}))
	defer server.Close()

	text, err := gateway.NewClient(server.URL).Transcribe(context.Background(), []byte("some-audio"))
	require.NoError(t, err)
	assert.Equal(t, "quero marcar", text)
	assert.Equal(t, "c29tZS1hdWRpbw==", received.Audio)
}
