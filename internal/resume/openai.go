package resume

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

const maxPromptChars = 12000

const systemPrompt = `You are a job search assistant. Read the resume and return a strictly valid JSON object with:
"role": the most suitable job title for this candidate,
"experience_level": one of "Internship", "Entry Level", "Mid Level", "Senior Level", "Lead",
"skills": the top 3 technical skills to search with.`

// ChatCompleter is the part of the OpenAI client the extractor needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIExtractor asks a chat model for the profile and falls back to
// another extractor when the call or the answer is unusable.
type OpenAIExtractor struct {
	client   ChatCompleter
	model    string
	fallback Extractor
	logger   logger.Logger
}

// NewOpenAIClient builds the go-openai client for apiKey.
func NewOpenAIClient(apiKey string) *openai.Client {
	return openai.NewClient(apiKey)
}

// NewOpenAIExtractor returns an extractor using client and model.
func NewOpenAIExtractor(client ChatCompleter, model string, fallback Extractor, log logger.Logger) *OpenAIExtractor {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIExtractor{
		client:   client,
		model:    model,
		fallback: fallback,
		logger:   log.Named("resume"),
	}
}

func (o *OpenAIExtractor) Extract(ctx context.Context, text string) (Profile, error) {
	p, err := o.ask(ctx, text)
	if err == nil {
		return p, nil
	}

	o.logger.Warn("openai extraction failed, using fallback", logger.Error(err))
	if o.fallback != nil {
		return o.fallback.Extract(ctx, text)
	}
	return Profile{Role: DefaultRole, ExperienceLevel: "Entry Level"}, nil
}

func (o *OpenAIExtractor) ask(ctx context.Context, text string) (Profile, error) {
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Resume Text:\n" + text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0.3,
	})
	if err != nil {
		return Profile{}, fmt.Errorf("openai call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Profile{}, fmt.Errorf("openai returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.Trim(content, "`\n ")

	var p Profile
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return Profile{}, fmt.Errorf("openai answer is not JSON: %w", err)
	}
	if strings.TrimSpace(p.Role) == "" {
		return Profile{}, fmt.Errorf("openai answer has no role")
	}
	return p, nil
}
