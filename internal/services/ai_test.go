package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/stats"
)

func newTestAIService(t *testing.T, reply string) (*AIService, *openai.ChatCompletionRequest) {
	t.Helper()
	var captured openai.ChatCompletionRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		resp := openai.ChatCompletionResponse{}
		if reply != "" {
			resp.Choices = []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply},
			}}
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	return NewAIServiceWithConfig(cfg, ""), &captured
}

func TestAIService_SummarizeAthlete(t *testing.T) {
	svc, captured := newTestAIService(t, "  Fast off the mark; work on jumps.  ")

	rank := 80.0
	profile := AthleteProfile{
		Athlete: models.Athlete{FirstName: "Ava", LastName: "Lopez", Sports: "Soccer"},
		Bests: []MetricBest{{
			Metric:         stats.MetricFly10Time,
			Units:          "s",
			Best:           stats.Entry{Value: 1.18, Date: day(2025, 4, 1)},
			Count:          2,
			PercentileRank: &rank,
		}},
	}

	summary, err := svc.SummarizeAthlete(context.Background(), profile)
	require.NoError(t, err)
	assert.Equal(t, "Fast off the mark; work on jumps.", summary)

	assert.Equal(t, openai.GPT4o, captured.Model)
	require.Len(t, captured.Messages, 1)
	prompt := captured.Messages[0].Content
	assert.Contains(t, prompt, "Ava Lopez")
	assert.Contains(t, prompt, "best 1.18s on 2025-04-01")
	assert.Contains(t, prompt, "80% of the organization")
}

func TestAIService_EmptyResponse(t *testing.T) {
	svc, _ := newTestAIService(t, "")

	_, err := svc.SummarizeAthlete(context.Background(), AthleteProfile{})
	assert.ErrorIs(t, err, ErrAIEmptyResponse)
}

func TestAIService_NotConfigured(t *testing.T) {
	var svc *AIService
	_, err := svc.SummarizeAthlete(context.Background(), AthleteProfile{})
	assert.ErrorIs(t, err, ErrAIServiceNotConfigured)
}
