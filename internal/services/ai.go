package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAIEmptyResponse        = errors.New("AI returned an empty summary")
)

// AthleteSummarizer writes a short narrative about an athlete's results.
type AthleteSummarizer interface {
	SummarizeAthlete(ctx context.Context, profile AthleteProfile) (string, error)
}

type AIService struct {
	client *openai.Client
	model  string
}

func NewAIService(apiKey, model string) *AIService {
	return NewAIServiceWithConfig(openai.DefaultConfig(apiKey), model)
}

// NewAIServiceWithConfig allows pointing the client at another base URL.
func NewAIServiceWithConfig(cfg openai.ClientConfig, model string) *AIService {
	if model == "" {
		model = openai.GPT4o
	}
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// SummarizeAthlete asks the model for a coach-facing summary of the
// athlete's best results and trends.
func (s *AIService) SummarizeAthlete(ctx context.Context, profile AthleteProfile) (string, error) {
	if s == nil || s.client == nil {
		return "", ErrAIServiceNotConfigured
	}

	var b strings.Builder
	for _, mb := range profile.Bests {
		fmt.Fprintf(&b, "- %s: best %.2f%s on %s over %d tests",
			mb.Metric.Label(), mb.Best.Value, mb.Units, mb.Best.Date.Format("2006-01-02"), mb.Count)
		if mb.PercentileRank != nil {
			fmt.Fprintf(&b, ", better than or equal to %.0f%% of the organization", *mb.PercentileRank)
		}
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		b.WriteString("- no measurements recorded yet\n")
	}

	prompt := fmt.Sprintf(`You are a strength and conditioning assistant. Write a short summary (at most 120 words) for a coach about this athlete.

Athlete: %s
Sports: %s

Best results:
%s
For timed tests lower is better; for jumps and RSI higher is better.
Mention one strength and one area to work on. Plain text only.`,
		profile.Athlete.FullName(), orDash(profile.Athlete.Sports), b.String())

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrAIEmptyResponse
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", ErrAIEmptyResponse
	}
	return summary, nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
