// Package ai calls the OpenAI chat-completions API to extract learnable
// phrases from subtitle text.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
)

const systemPrompt = "You are a European Portuguese language tutor. " +
	"From the subtitle text you are given, pick phrases worth learning: " +
	"common colloquial expressions, useful sentence patterns and idioms. " +
	"Answer with a JSON array only, each element an object with keys " +
	"\"portuguese\", \"english\" and \"context\" (the subtitle line the " +
	"phrase came from). No prose, no markdown."

// ExtractedPhrase is one phrase returned by the model.
type ExtractedPhrase struct {
	Portuguese string `json:"portuguese"`
	English    string `json:"english"`
	Context    string `json:"context"`
}

// Extractor is a client for the OpenAI chat-completions API. If the primary
// model fails or returns unusable JSON the fallback model is tried once.
type Extractor struct {
	apiKey        string
	apiURL        string
	model         string
	fallbackModel string
	maxTokens     int
	temperature   float64
	client        *http.Client
	log           *zap.SugaredLogger
}

// New creates an Extractor from the environment. OPENAI_API_KEY is required;
// OPENAI_MODEL and OPENAI_FALLBACK_MODEL override the defaults.
func New(log *zap.SugaredLogger) (*Extractor, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	fallback := os.Getenv("OPENAI_FALLBACK_MODEL")
	if fallback == "" {
		fallback = "gpt-3.5-turbo"
	}
	return &Extractor{
		apiKey:        apiKey,
		apiURL:        "https://api.openai.com/v1/chat/completions",
		model:         model,
		fallbackModel: fallback,
		maxTokens:     2000,
		temperature:   0.3,
		client:        &http.Client{},
		log:           log,
	}, nil
}

// Message represents a message in the chat conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the chat-completions API
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse represents a response from the chat-completions API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ExtractPhrases asks the model for learnable phrases in the subtitle text.
// The primary model is tried first; on transport failure or irreparable
// output the fallback model gets one attempt before the error surfaces.
func (e *Extractor) ExtractPhrases(ctx context.Context, subtitleText string) ([]ExtractedPhrase, string, error) {
	phrases, err := e.extractWith(ctx, e.model, subtitleText)
	if err == nil {
		return phrases, e.model, nil
	}
	e.log.Warnw("phrase extraction failed, trying fallback model",
		"model", e.model, "fallback", e.fallbackModel, "error", err)

	phrases, fbErr := e.extractWith(ctx, e.fallbackModel, subtitleText)
	if fbErr != nil {
		return nil, "", fmt.Errorf("extraction failed with both models: %v; fallback: %w", err, fbErr)
	}
	return phrases, e.fallbackModel, nil
}

func (e *Extractor) extractWith(ctx context.Context, model, subtitleText string) ([]ExtractedPhrase, error) {
	request := ChatRequest{
		Model: model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: subtitleText},
		},
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	}
	requestData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("API error: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	return parsePhrases(response.Choices[0].Message.Content)
}

// parsePhrases decodes the model output, repairing the common failure
// modes first: markdown code fences and prose wrapped around the array.
func parsePhrases(content string) ([]ExtractedPhrase, error) {
	repaired := repairJSON(content)

	var phrases []ExtractedPhrase
	if err := json.Unmarshal([]byte(repaired), &phrases); err != nil {
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}

	kept := phrases[:0]
	for _, p := range phrases {
		p.Portuguese = strings.TrimSpace(p.Portuguese)
		p.English = strings.TrimSpace(p.English)
		if p.Portuguese == "" || p.English == "" {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("model output contained no usable phrases")
	}
	return kept, nil
}

// repairJSON trims markdown fences and anything outside the outermost
// JSON array.
func repairJSON(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}
