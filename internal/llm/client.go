package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"comercia-backend/pkg/api"
)

// Config points the client at an OpenAI-compatible gateway.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Client talks to the AI gateway for both chat completions and audio
// transcription. Transcription rides the same chat completion endpoint using
// a multimodal audio part, so no separate speech API is required of the
// gateway.
type Client struct {
	chat  *lcopenai.LLM
	audio openai.Client
	model string
}

func NewClient(cfg Config) (*Client, error) {
	chatOpts := []lcopenai.Option{
		lcopenai.WithToken(cfg.APIKey),
		lcopenai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		chatOpts = append(chatOpts, lcopenai.WithBaseURL(cfg.BaseURL))
	}
	chat, err := lcopenai.New(chatOpts...)
	if err != nil {
		return nil, fmt.Errorf("could not create chat client: %w", err)
	}

	audioOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		audioOpts = append(audioOpts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		chat:  chat,
		audio: openai.NewClient(audioOpts...),
		model: cfg.Model,
	}, nil
}

// Chat runs one completion over the persona prompt, the prior turns, and the
// new user message. Images arrive as data URIs and are attached to the final
// user turn. An empty completion maps to a fixed fallback reply rather than
// an error.
func (c *Client) Chat(ctx context.Context, message string, history []api.Turn, images []string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, SystemPrompt),
	}
	for _, turn := range history {
		role := llms.ChatMessageTypeHuman
		if turn.Role == "assistant" {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}

	if len(images) > 0 {
		parts := []llms.ContentPart{llms.TextPart(message)}
		for _, img := range images {
			parts = append(parts, llms.ImageURLPart(img))
		}
		messages = append(messages, llms.MessageContent{Role: llms.ChatMessageTypeHuman, Parts: parts})
	} else {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, message))
	}

	resp, err := c.chat.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return EmptyCompletionReply, nil
	}
	return resp.Choices[0].Content, nil
}

// Transcribe sends base64-encoded audio through a multimodal chat completion
// and returns the raw transcript, which may be empty.
func (c *Client) Transcribe(ctx context.Context, audioB64 string) (string, error) {
	res, err := c.audio.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(transcribeInstruction),
				openai.InputAudioContentPart(openai.ChatCompletionContentPartInputAudioInputAudioParam{
					Data:   audioB64,
					Format: "webm",
				}),
			}),
		},
	})
	if err != nil {
		return "", fmt.Errorf("transcription completion failed: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(res.Choices[0].Message.Content), nil
}
