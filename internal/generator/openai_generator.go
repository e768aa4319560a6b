package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fdg312/coach-hub/internal/config"
)

// OpenAIGenerator asks a chat completions model for the weekly plan and
// returns the JSON document found in the answer.
type OpenAIGenerator struct {
	apiKey      string
	model       string
	baseURL     string
	maxTokens   int
	temperature float64
	maxBytes    int64
	httpClient  *http.Client
}

func NewOpenAIGenerator(cfg *config.Config) *OpenAIGenerator {
	timeoutSeconds := cfg.GeneratorTimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 120
	}
	maxMB := cfg.GeneratorMaxResponseMB
	if maxMB <= 0 {
		maxMB = 5
	}
	baseURL := cfg.OpenAIBaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIGenerator{
		apiKey:      cfg.OpenAIAPIKey,
		model:       cfg.OpenAIModel,
		baseURL:     baseURL,
		maxTokens:   cfg.OpenAIMaxOutputTokens,
		temperature: cfg.OpenAITemperature,
		maxBytes:    int64(maxMB) << 20,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) ([]byte, error) {
	userPrompt, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatCompletionsRequest{
		Model:          g.model,
		Temperature:    g.temperature,
		MaxTokens:      g.maxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(userPrompt)},
		},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(resp.Body, g.maxBytes+1))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, err
	}
	if int64(len(responseBody)) > g.maxBytes {
		return nil, fmt.Errorf("openai response exceeds %d bytes", g.maxBytes)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai request failed with status %d", resp.StatusCode)
	}

	var parsed chatCompletionsResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openai response does not contain choices")
	}

	return extractJSONDocument(parsed.Choices[0].Message.Content), nil
}

// extractJSONDocument strips prose and code fences around the outermost
// JSON object. Content without braces is returned as is and fails later.
func extractJSONDocument(content string) []byte {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return []byte(content)
	}
	return []byte(content[start : end+1])
}

const systemPrompt = "Ti si nutricionist koji sastavlja tjedne planove prehrane. " +
	"Korisnik šalje JSON s ciljevima (calculations) i preferencama (preferences). " +
	"Vrati isključivo JSON objekt bez ikakvog teksta oko njega, oblika " +
	"{\"plan\":{\"days\":[{\"date\":\"YYYY-MM-DD\",\"meals\":{\"breakfast\":{...},\"snack1\":{...},\"lunch\":{...},\"snack2\":{...},\"dinner\":{...}},\"dailyTotals\":{\"calories\":0,\"protein\":0,\"carbs\":0,\"fat\":0}}]}}. " +
	"Svaki obrok ima name, description, preparationTip, componentDetails " +
	"([{\"foodName\":\"...\",\"grams\":0}]) te calories, protein, carbs i fat. " +
	"Plan ima točno 7 dana počevši od sutra. Dnevni zbroj kalorija odstupa najviše 5% od targetCalories. " +
	"Poštuj alergije i namirnice koje treba izbjegavati. Opis obroka spominje samo namirnice iz componentDetails. " +
	"Slot bez obroka izostavi ili postavi na null."

type chatCompletionsRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
