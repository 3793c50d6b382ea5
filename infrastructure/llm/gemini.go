// Package llm contains the model provider implementations behind the
// ports.Provider interface.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"archflow-backend/application/ports"
	"archflow-backend/infrastructure/config"
)

// GeminiProvider implements ports.Provider on top of Google's Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiProvider creates a Gemini-backed provider. A missing API key is
// not an error: the provider is constructed unavailable so the rest of the
// application keeps working without model access.
func NewGeminiProvider(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (*GeminiProvider, error) {
	provider := &GeminiProvider{
		model:  cfg.Model,
		logger: logger,
	}

	if cfg.GeminiAPIKey == "" {
		logger.Warn("Gemini API key not configured, provider will be unavailable")
		return provider, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	provider.client = client

	logger.Info("Gemini provider initialized",
		zap.String("model", cfg.Model),
	)

	return provider, nil
}

// IsAvailable reports whether the provider holds a usable client.
func (p *GeminiProvider) IsAvailable() bool {
	return p.client != nil
}

// Complete sends the conversation to Gemini and returns the raw text of the
// first candidate. System messages become the system instruction, earlier
// turns become chat history, and the final turn is sent as the message.
func (p *GeminiProvider) Complete(ctx context.Context, messages []ports.Message, opts ports.CompletionOptions) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("gemini provider is not configured")
	}

	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(float32(opts.Temperature))
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	if opts.Format == ports.FormatJSON {
		model.ResponseMIMEType = "application/json"
	}

	var system []string
	var turns []ports.Message
	for _, msg := range messages {
		if msg.Role == ports.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		turns = append(turns, msg)
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))},
		}
	}
	if len(turns) == 0 {
		return "", fmt.Errorf("completion requires at least one non-system message")
	}

	session := model.StartChat()
	for _, msg := range turns[:len(turns)-1] {
		session.History = append(session.History, &genai.Content{
			Role:  geminiRole(msg.Role),
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	p.logger.Debug("Sending completion request",
		zap.String("model", p.model),
		zap.Int("messages", len(messages)),
		zap.String("format", opts.Format),
	)

	resp, err := session.SendMessage(ctx, genai.Text(turns[len(turns)-1].Content))
	if err != nil {
		return "", fmt.Errorf("gemini completion failed: %w", err)
	}

	text := collectText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini returned no text candidates")
	}
	return text, nil
}

// Close releases the underlying API client.
func (p *GeminiProvider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

func geminiRole(role string) string {
	if role == ports.RoleAssistant {
		return "model"
	}
	return "user"
}

// collectText concatenates the text parts of the first candidate that
// carries content.
func collectText(resp *genai.GenerateContentResponse) string {
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}
