package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

const (
	OpenAIBaseURL      = "https://api.openai.com"
	DefaultChatModel   = "gpt-3.5-turbo"
	DefaultSpeechModel = "tts-1"
	DefaultSpeechVoice = "alloy"

	chatCompletionsPath = "/v1/chat/completions"
	audioSpeechPath     = "/v1/audio/speech"
)

var (
	ErrNarrationFailed = errors.New("openai: chat completion failed")
	ErrSpeechFailed    = errors.New("openai: speech synthesis failed")
)

// OpenAIConfig configures OpenAIClient. Empty fields take the defaults above.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	SpeechModel string
	SpeechVoice string
	Timeout     time.Duration
}

// OpenAIClient narrates report prompts and voices the results. It satisfies
// weather.Narrator and weather.Synthesizer. Calls are never retried: a
// failed completion may already be billed, and the next pass retries the
// location anyway.
type OpenAIClient struct {
	cfg     OpenAIConfig
	client  *resty.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = DefaultSpeechModel
	}
	if cfg.SpeechVoice == "" {
		cfg.SpeechVoice = DefaultSpeechVoice
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetTimeout(cfg.Timeout)

	return &OpenAIClient{cfg: cfg, client: client, circuit: newBreaker("openai")}
}

// post sends req once through the circuit breaker. Transport errors, 429
// and 5xx count against the breaker; other error statuses are returned as
// a response for the caller to report.
func (c *OpenAIClient) post(req *resty.Request, path string) (*resty.Response, error) {
	var resp *resty.Response

	_, err := c.circuit.Execute(func() (interface{}, error) {
		var postErr error
		resp, postErr = req.Post(path)
		if postErr != nil {
			return nil, postErr
		}
		if resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500 {
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode())
		}
		return nil, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
	case err != nil && (resp == nil || !resp.IsError()):
		return nil, err
	}
	return resp, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Narrate sends prompt as a single user message and returns the first choice.
func (c *OpenAIClient) Narrate(ctx context.Context, prompt string) (string, error) {
	var (
		result chatResponse
		failed apiError
	)

	req := c.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:    c.cfg.Model,
			Messages: []chatMessage{{Role: "user", Content: prompt}},
		}).
		SetResult(&result).
		SetError(&failed)

	resp, err := c.post(req, chatCompletionsPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNarrationFailed, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: status %d: %s", ErrNarrationFailed, resp.StatusCode(), failed.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrNarrationFailed)
	}

	return result.Choices[0].Message.Content, nil
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize returns the MP3 rendering of text.
func (c *OpenAIClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	var failed apiError

	req := c.client.R().
		SetContext(ctx).
		SetBody(speechRequest{
			Model:          c.cfg.SpeechModel,
			Input:          text,
			Voice:          c.cfg.SpeechVoice,
			ResponseFormat: "mp3",
		}).
		SetError(&failed)

	resp, err := c.post(req, audioSpeechPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpeechFailed, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d: %s", ErrSpeechFailed, resp.StatusCode(), failed.Error.Message)
	}

	return resp.Body(), nil
}
