package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"quizhub/internal/domain"
	"quizhub/internal/logger"
)

const assistantCallTimeout = 20 * time.Second

// assistantSystemPrompt pins down what the model may and may not say.
// The question context it receives carries no correct-answer flags, but
// the model is additionally instructed never to guess or reveal one.
const assistantSystemPrompt = `You are a study assistant helping a student during a quiz.
You may explain concepts, define terms, and clarify what the question is asking.
You must NEVER reveal, guess, or hint at which answer choice is correct.
If the student asks for the answer, politely decline and offer to explain the underlying concept instead.
Keep replies under 150 words.`

// OpenAIAssistant implements domain.Assistant on top of an OpenAI chat
// model via langchaingo.
type OpenAIAssistant struct {
	llm *openai.LLM
}

// NewOpenAIAssistant creates the assistant client. An empty API key is
// an error so callers can fall back to a nil assistant.
func NewOpenAIAssistant(apiKey, model string) (*OpenAIAssistant, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is not configured")
	}
	llm, err := openai.New(openai.WithToken(apiKey), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return &OpenAIAssistant{llm: llm}, nil
}

// Chat implements domain.Assistant.
func (a *OpenAIAssistant) Chat(ctx context.Context, message string, qctx *domain.QuestionContext) (string, error) {
	l := logger.Get()

	callCtx, cancel := context.WithTimeout(ctx, assistantCallTimeout)
	defer cancel()

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, assistantSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, buildUserPrompt(message, qctx)),
	}

	resp, err := a.llm.GenerateContent(callCtx, content, llms.WithTemperature(0.7))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			l.Error("Assistant request timed out", zap.Error(err))
			return "", fmt.Errorf("assistant request timed out: %w", err)
		}
		l.Error("Assistant call failed", zap.Error(err))
		return "", fmt.Errorf("assistant call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("assistant returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

func buildUserPrompt(message string, qctx *domain.QuestionContext) string {
	var sb strings.Builder
	if qctx != nil {
		fmt.Fprintf(&sb, "The student is working on this quiz question.\n")
		if qctx.ExamName != "" {
			fmt.Fprintf(&sb, "Exam: %s", qctx.ExamName)
			if qctx.CategoryName != "" {
				fmt.Fprintf(&sb, " (%s)", qctx.CategoryName)
			}
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Question (%s, %s): %s\n", qctx.QuestionType, qctx.Difficulty, qctx.QuestionText)
		if len(qctx.ChoiceTexts) > 0 {
			fmt.Fprintf(&sb, "Choices: %s\n", strings.Join(qctx.ChoiceTexts, " | "))
		}
	}
	fmt.Fprintf(&sb, "\nStudent's question: %s", message)
	return sb.String()
}
