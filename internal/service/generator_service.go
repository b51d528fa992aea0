package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"sigquiz/internal/config"
	"sigquiz/internal/model"
	"sigquiz/internal/repository"
)

// GeneratorService sources question pools: from the Gemini API when
// configured, otherwise from the persisted question bank. A Gemini
// failure falls back to the bank (logged); only when both sources fail
// does the request error out.
type GeneratorService struct {
	config       *config.AIConfig
	client       *http.Client
	questionRepo repository.QuestionRepo
}

// NewGeneratorService creates a generator backed by cfg and the bank.
func NewGeneratorService(cfg *config.AIConfig, questionRepo repository.QuestionRepo) *GeneratorService {
	return &GeneratorService{
		config:       cfg,
		client:       &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
		questionRepo: questionRepo,
	}
}

// generatedQuestion is the shape the prompt demands from Gemini.
type generatedQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Correct  int      `json:"correct"`
}

// Pool returns at least count candidate questions with stable ids.
// Generated questions get sequential session-local ids; bank questions
// keep their persisted ids.
func (s *GeneratorService) Pool(ctx context.Context, count int) ([]*model.Question, error) {
	if s.config.IsEnabled() {
		pool, err := s.generate(ctx, count)
		if err == nil {
			return pool, nil
		}
		log.Printf("quiz generation failed, falling back to question bank: %v", err)
	}
	return s.fromBank(ctx)
}

func (s *GeneratorService) fromBank(ctx context.Context) ([]*model.Question, error) {
	questions, err := s.questionRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: question bank: %v", ErrUpstream, err)
	}
	return questions, nil
}

func (s *GeneratorService) generate(ctx context.Context, count int) ([]*model.Question, error) {
	raw, err := s.callGemini(ctx, s.buildPrompt(count))
	if err != nil {
		return nil, err
	}

	var generated []generatedQuestion
	if err := json.Unmarshal([]byte(raw), &generated); err != nil {
		return nil, fmt.Errorf("invalid quiz JSON from model: %w", err)
	}
	if len(generated) < count {
		return nil, fmt.Errorf("model returned %d questions, want %d", len(generated), count)
	}

	pool := make([]*model.Question, 0, len(generated))
	for i, g := range generated {
		if g.Question == "" || len(g.Options) != model.OptionCount ||
			g.Correct < 0 || g.Correct >= len(g.Options) {
			return nil, fmt.Errorf("malformed generated question at index %d", i)
		}
		pool = append(pool, &model.Question{
			ID:      i + 1,
			Text:    g.Question,
			Options: g.Options,
			Correct: g.Correct,
		})
	}
	return pool, nil
}

func (s *GeneratorService) buildPrompt(count int) string {
	return fmt.Sprintf(`You are a JSON generator.
Return ONLY valid JSON.
No markdown.
No explanation.

Format:
[
  {
    "question": "text",
    "options": ["a", "b", "c", "d"],
    "correct": 0
  }
]

Create a %d-question %s quiz. Make the questions diverse across the
topic, including current affairs and some basic numeric questions.
Every question has exactly 4 options and one correct index.`, count, s.config.Topic)
}

// callGemini makes a generateContent request and returns the text of
// the first candidate part.
func (s *GeneratorService) callGemini(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s?key=%s", s.config.ModelEndpoint(), s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: gemini returned %d", ErrUpstream, resp.StatusCode)
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", err
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, nil
	}
	return "", fmt.Errorf("empty response from Gemini")
}
