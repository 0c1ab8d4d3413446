package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// ErrRecordingActive is returned when a capture is started while another one
// is still running. Capture is an exclusive resource.
var ErrRecordingActive = errors.New("a recording is already in progress")

// Recorder captures audio and returns it already encoded. The encoder is a
// platform concern and is treated as a black box here.
type Recorder interface {
	Start(ctx context.Context) error

	// Stop ends the capture and returns the encoded audio. A nil slice means
	// nothing was captured.
	Stop(ctx context.Context) ([]byte, error)
}

// StartRecording begins an audio turn. A second start while recording is
// rejected rather than queued.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.recorder == nil {
		return errors.New("no recorder configured")
	}
	if c.recording {
		return ErrRecordingActive
	}

	if err := c.recorder.Start(ctx); err != nil {
		c.notify("Não foi possível acessar o microfone")
		return fmt.Errorf("could not start recording: %w", err)
	}

	c.recording = true
	c.notify("Gravando áudio...")
	return nil
}

// StopRecording ends the capture and runs the audio turn protocol: encode,
// transcribe, and feed a non-empty transcript into the standard send
// protocol as if typed. An empty or failed transcription surfaces a notice
// and produces no message at all.
func (c *Controller) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.recording {
		return nil
	}
	c.recording = false

	audio, err := c.recorder.Stop(ctx)
	if err != nil {
		c.notify("Erro ao processar áudio")
		return fmt.Errorf("could not stop recording: %w", err)
	}
	if len(audio) == 0 {
		return nil
	}

	c.notify("Processando áudio...")

	text, err := c.gateway.Transcribe(ctx, audio)
	if err != nil {
		slog.Error("transcription boundary call failed", "error", err)
		c.notify("Erro ao processar áudio")
		return nil
	}
	if text == "" {
		c.notify("Não foi possível transcrever o áudio")
		return nil
	}

	return c.send(ctx, text, nil)
}

// Recording reports whether a capture is active.
func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// FileRecorder replays a pre-encoded audio file as a capture. It stands in
// for a microphone where none exists, such as the terminal client.
type FileRecorder struct {
	Path string
}

var _ Recorder = (*FileRecorder)(nil)

func (r *FileRecorder) Start(ctx context.Context) error {
	if _, err := os.Stat(r.Path); err != nil {
		return fmt.Errorf("audio file unavailable: %w", err)
	}
	return nil
}

func (r *FileRecorder) Stop(ctx context.Context) ([]byte, error) {
	return os.ReadFile(r.Path)
}
