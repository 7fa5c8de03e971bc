package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/evently/evently/internal/ingestion"
	"github.com/evently/evently/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

// Config holds OpenAI settings for the event-discovery assistant.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	MaxEvents   int // upcoming events included in the prompt context
}

// DefaultConfig returns sensible defaults for chat answers.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:      apiKey,
		Model:       openai.GPT4oMini,
		Temperature: 0.7,
		MaxTokens:   800,
		MaxEvents:   25,
	}
}

// Assistant answers natural-language questions about upcoming events using
// the stored catalog as context.
type Assistant struct {
	client *openai.Client
	cfg    Config
	events ingestion.EventRepository
	logger *slog.Logger
}

// New creates an assistant backed by the OpenAI chat API.
func New(cfg Config, events ingestion.EventRepository, logger *slog.Logger) *Assistant {
	return &Assistant{
		client: openai.NewClient(cfg.APIKey),
		cfg:    cfg,
		events: events,
		logger: logger,
	}
}

const systemPrompt = `You are Evently's event discovery assistant. Answer using only
the event catalog provided below. Recommend concrete events with their dates,
venues and prices when known. If nothing in the catalog matches, say so
instead of inventing events.`

// Ask answers one user message grounded on upcoming stored events.
func (a *Assistant) Ask(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("message is required")
	}

	catalog, err := a.buildCatalog(ctx)
	if err != nil {
		return "", fmt.Errorf("load event context: %w", err)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt + "\n\nEvent catalog:\n" + catalog,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: message,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// buildCatalog renders upcoming events as compact prompt context.
func (a *Assistant) buildCatalog(ctx context.Context) (string, error) {
	now := time.Now().UTC()
	page, err := a.events.Query(ctx, models.EventQuery{
		From:  &now,
		Limit: a.cfg.MaxEvents,
	})
	if err != nil {
		return "", err
	}
	if len(page.Events) == 0 {
		return "(no upcoming events stored)", nil
	}

	var b strings.Builder
	for _, ev := range page.Events {
		fmt.Fprintf(&b, "- %s | starts %s", ev.Name, ev.StartTime.Format(time.RFC1123))
		if ev.VenueName != nil {
			fmt.Fprintf(&b, " | %s", *ev.VenueName)
		}
		if ev.IsFree != nil && *ev.IsFree {
			b.WriteString(" | free")
		} else if ev.MinPrice != nil {
			currency := ""
			if ev.Currency != nil {
				currency = *ev.Currency + " "
			}
			fmt.Fprintf(&b, " | from %s%.2f", currency, *ev.MinPrice)
		}
		if ev.URL != nil {
			fmt.Fprintf(&b, " | %s", *ev.URL)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
