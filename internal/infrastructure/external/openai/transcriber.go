package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/evidence-check/internal/application/port"
)

// ErrEmptyTranscription is returned when the model reads no text
var ErrEmptyTranscription = errors.New("no text read from document")

// Transcriber implements port.OCREngine for handwritten and scanned reports
// using a vision-capable chat model
type Transcriber struct {
	client  *openai.Client
	model   string
	prompts *PromptConfig
	logger  *zap.Logger
}

// NewTranscriber creates a new transcriber. An empty baseURL uses the
// public API.
func NewTranscriber(apiKey, baseURL, model string, prompts *PromptConfig, logger *zap.Logger) *Transcriber {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transcriber{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		prompts: prompts,
		logger:  logger,
	}
}

// Name returns the engine name
func (t *Transcriber) Name() string { return "handwriting" }

// ExtractText transcribes an image of a report
func (t *Transcriber) ExtractText(ctx context.Context, doc port.Document) (string, error) {
	if len(doc.Content) == 0 {
		return "", ErrEmptyTranscription
	}

	mimeType := doc.MimeType
	if mimeType == "" {
		mimeType = mimetype.Detect(doc.Content).String()
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("cannot transcribe %s", mimeType)
	}

	prompt, err := renderTemplate(t.prompts.Transcription.UserTemplate, doc)
	if err != nil {
		return "", err
	}

	t.logger.Debug("Transcribing report image",
		zap.String("name", doc.Name),
		zap.String("mime_type", mimeType),
		zap.Int("size_bytes", len(doc.Content)))

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       t.model,
		MaxTokens:   t.prompts.Transcription.MaxTokens,
		Temperature: t.prompts.Transcription.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: t.prompts.Transcription.System,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(doc.Content)),
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		t.logger.Error("Vision API call failed", zap.Error(err))
		return "", fmt.Errorf("vision API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from vision API")
	}

	text := stripFences(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyTranscription
	}

	t.logger.Info("Report image transcribed",
		zap.String("name", doc.Name),
		zap.Int("characters", len(text)))

	return text, nil
}

// stripFences removes a markdown code block wrapped around the answer
func stripFences(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
