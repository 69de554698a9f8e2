// C:\Users\wasab\OneDrive\デスクトップ\PYRO\deepseek\client.go
package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pyrotrack/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.deepseek.com"
	DefaultModel   = "deepseek-chat"
	DefaultTimeout = 60 * time.Second
)

// ErrMissingAPIKey は API キーが未設定の場合に返されます。
var ErrMissingAPIKey = errors.New("请先在设置中配置 DeepSeek API Key")

// ErrUnavailable はサーキットブレーカーが開いている間に返されます。
var ErrUnavailable = errors.New("deepseek service unavailable")

// Config は DeepSeek クライアントの設定です。
// APIKey は呼び出しのたびに評価されるため、設定画面での変更が即座に反映されます。
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	APIKey  func() string
}

// Client は chat/completions を JSON モードで呼び出すクライアントです。
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewClient は Client を生成します。m は nil でも構いません。
func NewClient(cfg Config, log *zap.Logger, m *metrics.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log,
		metrics: m,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "deepseek",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// 入力起因のエラー (キー未設定・応答の解釈失敗) ではブレーカーを開かない
		IsSuccessful: func(err error) bool {
			var rErr *requestError
			return err == nil || !errors.As(err, &rErr) || !rErr.transient
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			m.SetBreakerState(name, int(to))
		},
	})
	return c
}

// requestError は API 呼び出しの失敗です。transient は通信障害・5xx を表します。
type requestError struct {
	status    int
	message   string
	transient bool
}

func (e *requestError) Error() string {
	if e.status == 0 {
		return "deepseek request failed: " + e.message
	}
	return fmt.Sprintf("deepseek request failed (%d): %s", e.status, e.message)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Stream         bool              `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// complete はシステムプロンプトと本文を送り、モデルが返した JSON 文字列を返します。
func (c *Client) complete(ctx context.Context, systemPrompt, userContent string) ([]byte, error) {
	key := ""
	if c.cfg.APIKey != nil {
		key = strings.TrimSpace(c.cfg.APIKey())
	}
	if key == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, key, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.log.Warn("deepseek circuit open", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func (c *Client) post(ctx context.Context, key string, body []byte) ([]byte, error) {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &requestError{message: err.Error(), transient: true}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &requestError{status: resp.StatusCode, message: err.Error(), transient: true}
	}
	c.log.Debug("deepseek response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	var parsed chatResponse
	decodeErr := json.Unmarshal(raw, &parsed)
	if resp.StatusCode != http.StatusOK {
		msg := "DeepSeek API Call Failed"
		if decodeErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return nil, &requestError{
			status:    resp.StatusCode,
			message:   msg,
			transient: resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		}
	}
	if decodeErr != nil {
		return nil, &requestError{status: resp.StatusCode, message: "invalid response body: " + decodeErr.Error()}
	}
	if len(parsed.Choices) == 0 {
		return nil, &requestError{status: resp.StatusCode, message: "response has no choices"}
	}
	return []byte(stripFence(parsed.Choices[0].Message.Content)), nil
}

// stripFence は ```json ... ``` で囲まれた応答から中身を取り出します。
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
