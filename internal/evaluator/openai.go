package evaluator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode"

	openai "github.com/sashabaranov/go-openai"
)

const defaultJudgeModel = "gpt-4o-mini"

// OpenAIOracle implements Oracle against the OpenAI chat completion API.
// It also talks to Azure OpenAI deployments and any other compatible
// endpoint via BaseURL.
type OpenAIOracle struct {
	mu     sync.RWMutex
	client *openai.Client
	cfg    Config
}

// NewOpenAIOracle creates the LLM-backed judge.
func NewOpenAIOracle(cfg Config) (*OpenAIOracle, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("evaluator API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultJudgeModel
	}
	if cfg.PassScore <= 0 || cfg.PassScore > ScoreMax {
		cfg.PassScore = DefaultPassScore
	}
	return &OpenAIOracle{client: newClient(cfg), cfg: cfg}, nil
}

func newClient(cfg Config) *openai.Client {
	var clientCfg openai.ClientConfig
	if cfg.Provider == "azure" {
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			clientCfg.APIVersion = cfg.APIVersion
		}
	} else {
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
	}
	return openai.NewClientWithConfig(clientCfg)
}

// UpdateAPIKey swaps the credential without restarting; the config
// watcher calls this when the key rotates on disk.
func (o *OpenAIOracle) UpdateAPIKey(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg.APIKey = key
	o.client = newClient(o.cfg)
}

// APIKey returns the credential currently in use.
func (o *OpenAIOracle) APIKey() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.cfg.APIKey
}

// Judge asks the oracle to score the answer 0..4 and maps the score to a
// boolean judgment using the configured pass boundary.
func (o *OpenAIOracle) Judge(ctx context.Context, question, criteria, answer string) (Judgment, error) {
	content, err := o.complete(ctx, judgeSystemPrompt(o.cfg.Domain), judgeUserPrompt(question, criteria, answer))
	if err != nil {
		return Judgment{}, err
	}
	score, err := parseScore(content)
	if err != nil {
		return Judgment{}, err
	}
	return Judgment{Passed: score >= o.cfg.PassScore, Score: score}, nil
}

// Summarize produces the interview feedback text from the judged
// history.
func (o *OpenAIOracle) Summarize(ctx context.Context, results []Result) (string, error) {
	return o.complete(ctx, summarySystemPrompt(o.cfg.Domain), summaryUserPrompt(results))
}

func (o *OpenAIOracle) complete(ctx context.Context, system, user string) (string, error) {
	o.mu.RLock()
	client := o.client
	model := o.cfg.Model
	temperature := o.cfg.Temperature
	o.mu.RUnlock()

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &ErrInvalidResponse{Err: fmt.Errorf("no choices in oracle response")}
	}
	return resp.Choices[0].Message.Content, nil
}

// parseScore extracts the first digit 0..4 from the judge output. The
// prompt demands a bare integer but models occasionally wrap it in
// prose.
func parseScore(content string) (int, error) {
	for _, r := range strings.TrimSpace(content) {
		if unicode.IsDigit(r) {
			score := int(r - '0')
			if score > ScoreMax {
				return 0, &ErrInvalidResponse{Content: content, Err: fmt.Errorf("score %d out of range 0..%d", score, ScoreMax)}
			}
			return score, nil
		}
	}
	return 0, &ErrInvalidResponse{Content: content, Err: fmt.Errorf("no score found in %q", content)}
}

// mapOpenAIError classifies SDK errors into the package's transient
// error types so the retry decorator knows what to do.
func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &ErrRateLimit{RetryAfter: time.Second, Err: err}
		case apiErr.HTTPStatusCode >= http.StatusInternalServerError:
			return &ErrUnavailable{Err: err}
		default:
			return err
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode >= http.StatusInternalServerError || reqErr.HTTPStatusCode == 0 {
			return &ErrUnavailable{Err: err}
		}
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	// Transport-level failure without an HTTP status.
	return &ErrUnavailable{Err: err}
}
