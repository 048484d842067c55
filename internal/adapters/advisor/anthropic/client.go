package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/ogurasousui/comp-decision-engine/internal/core/employee"
)

const (
	defaultEndpoint = "https://api.anthropic.com/v1/messages"
	defaultModel    = "claude-sonnet-4-20250514"
	apiVersion      = "2023-06-01"

	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 1 << 20
	maxTokens        = 1024

	// salaryFloor を下回る提案給与は千単位などの省略表記とみなし、
	// ヒューリスティックの給与で置き換えます。
	salaryFloor = 10_000
)

// Config は Anthropic クライアントの設定です。
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client は Anthropic messages API を使う外部推論アドバイザです。
// compensation.Advisor を実装します。
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewClient は Client を生成します。
func NewClient(cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	endpoint := defaultEndpoint
	if cfg.BaseURL != "" {
		endpoint = strings.TrimSuffix(cfg.BaseURL, "/") + "/v1/messages"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:     cfg.APIKey,
		model:      model,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name はアドバイザ名を返します。提案のソースタグに使われます。
func (c *Client) Name() string {
	return "anthropic"
}

// advisorPayload はサービスに要求する構造化応答です。
type advisorPayload struct {
	Action              string  `json:"action"`
	Confidence          float64 `json:"confidence"`
	Reason              string  `json:"reason"`
	SalaryChangePercent float64 `json:"salary_change_percent"`
	SuggestedSalary     float64 `json:"suggested_salary"`
	SalaryReason        string  `json:"salary_reason"`
}

// Advise は外部サービスに提案を問い合わせ、検証・補正済みの提案を返します。
// サービス到達不能・構造化ペイロード欠如・action 欠落はエラーとして伝播します。
func (c *Client) Advise(ctx context.Context, emp *employee.Employee, heuristic *employee.Suggestion, budget *float64, totalEmployees int) (*employee.Suggestion, error) {
	prompt := buildPrompt(emp, heuristic, budget, totalEmployees)

	text, err := c.send(ctx, prompt)
	if err != nil {
		return nil, err
	}

	payload, err := parsePayload(text)
	if err != nil {
		return nil, err
	}

	act := employee.Action(strings.ToUpper(strings.TrimSpace(payload.Action)))
	if !act.IsValid() {
		return nil, fmt.Errorf("%w: unknown action %q", ErrMalformedPayload, payload.Action)
	}

	suggested := payload.SuggestedSalary
	salaryReason := payload.SalaryReason
	if suggested < salaryFloor {
		suggested = heuristic.SuggestedSalary
		salaryReason = strings.TrimSpace(salaryReason + " (implausibly small amount discarded, market-based fallback used)")
	}

	var diff float64
	var diffPercent int
	if emp.Salary > 0 {
		diff = suggested - emp.Salary
		diffPercent = int(math.Round(100 * diff / emp.Salary))
	}

	estRevenue := emp.Revenue
	if estRevenue <= 0 {
		estRevenue = heuristic.EstimatedRevenue
	}

	return &employee.Suggestion{
		Action:                   act,
		Confidence:               clamp01(payload.Confidence),
		Reason:                   payload.Reason,
		RecommendedChangePercent: payload.SalaryChangePercent,
		CurrentSalary:            emp.Salary,
		SuggestedSalary:          suggested,
		SalaryDifference:         diff,
		SalaryDifferencePercent:  diffPercent,
		SalaryReason:             salaryReason,
		MarketRange:              heuristic.MarketRange,
		Factors:                  heuristic.Factors,
		EstimatedRevenue:         estRevenue,
		EstimatedProfit:          estRevenue - suggested,
		Source:                   c.Name(),
	}, nil
}

// parsePayload は自由形式テキストから構造化ペイロードを取り出して検証します。
func parsePayload(text string) (*advisorPayload, error) {
	raw := extractPayload(text)
	if raw == "" {
		return nil, ErrNoStructuredPayload
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedPayload)
	}
	if !gjson.Get(raw, "action").Exists() {
		return nil, ErrMissingAction
	}

	var payload advisorPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &payload, nil
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// send は messages API を呼び出し、最初のテキストコンテンツを返します。
func (c *Client) send(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("anthropic: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic: request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("anthropic: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("anthropic: parse response: %w", err)
	}
	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return "", ErrEmptyResponse
	}

	return parsed.Content[0].Text, nil
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
