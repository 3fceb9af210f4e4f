// Package ai asks an OpenAI-compatible chat model to diagnose container logs,
// suggest resource optimizations and interpret natural-language commands.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when no API key is configured
var ErrUnavailable = errors.New("AI features require OpenAI API key")

// Config holds LLM client configuration
type Config struct {
	APIKey             string  `yaml:"api_key" env:"API_KEY"`
	BaseURL            string  `yaml:"base_url" env:"BASE_URL"`
	Model              string  `yaml:"model" env:"MODEL" validate:"required"`
	Temperature        float32 `yaml:"temperature" env:"TEMPERATURE" validate:"gte=0,lte=2"`
	CommandTemperature float32 `yaml:"command_temperature" env:"COMMAND_TEMPERATURE" validate:"gte=0,lte=2"`
	MaxLogChars        int     `yaml:"max_log_chars" env:"MAX_LOG_CHARS" validate:"gte=1"`
}

// DefaultConfig returns default LLM configuration
func DefaultConfig() *Config {
	return &Config{
		Model:              openai.GPT4oMini,
		Temperature:        0.3,
		CommandTemperature: 0.2,
		MaxLogChars:        3000,
	}
}

// Severity grades a log diagnosis
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// LogAnalysis is the model's diagnosis of a container's logs
type LogAnalysis struct {
	Diagnosis   string   `json:"diagnosis"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
	Severity    Severity `json:"severity"`
}

// ContainerStats is the usage summary sent for an optimization request
type ContainerStats struct {
	Name        string
	CPUPercent  float64
	MemoryBytes uint64
	MemoryLimit uint64
}

// OptimizationSuggestion is the model's resource advice for a container
type OptimizationSuggestion struct {
	Recommendation   string   `json:"recommendation"`
	PotentialSavings string   `json:"potentialSavings"`
	Actions          []string `json:"actions"`
}

// CommandAction names an API operation a natural-language query maps to
type CommandAction string

const (
	ActionListContainers   CommandAction = "list_containers"
	ActionStartContainer   CommandAction = "start_container"
	ActionStopContainer    CommandAction = "stop_container"
	ActionRestartContainer CommandAction = "restart_container"
	ActionGetLogs          CommandAction = "get_logs"
	ActionGetStats         CommandAction = "get_stats"
	ActionListImages       CommandAction = "list_images"
)

// Interpretation is the model's reading of a natural-language query
type Interpretation struct {
	Intent     string                 `json:"intent"`
	Action     CommandAction          `json:"action"`
	Parameters map[string]interface{} `json:"parameters"`
}

// Analyzer is the LLM-backed operations the HTTP layer depends on
type Analyzer interface {
	AnalyzeLogs(ctx context.Context, logs, containerName string) (*LogAnalysis, error)
	SuggestOptimization(ctx context.Context, stats ContainerStats) (*OptimizationSuggestion, error)
	NaturalLanguageQuery(ctx context.Context, query string) (*Interpretation, error)
}

// Client implements Analyzer with go-openai
type Client struct {
	api    *openai.Client
	config *Config
	logger *zap.Logger
}

// NewClient creates an LLM client. With an empty API key the client still
// works but answers every request with its fallback.
func NewClient(config *Config, logger *zap.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{config: config, logger: logger}
	if config.APIKey != "" {
		oc := openai.DefaultConfig(config.APIKey)
		if config.BaseURL != "" {
			oc.BaseURL = config.BaseURL
		}
		c.api = openai.NewClientWithConfig(oc)
	}
	return c
}

// Enabled returns true if an API key is configured
func (c *Client) Enabled() bool {
	return c.api != nil
}

// complete sends one system/user exchange and decodes the JSON reply into out
func (c *Client) complete(ctx context.Context, system, user string, temperature float32, out interface{}) error {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return err
	}

	content := "{}"
	if len(resp.Choices) > 0 && resp.Choices[0].Message.Content != "" {
		content = resp.Choices[0].Message.Content
	}

	c.logger.Debug("chat completion",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	return nil
}

// AnalyzeLogs diagnoses the tail of a container's logs
func (c *Client) AnalyzeLogs(ctx context.Context, logs, containerName string) (*LogAnalysis, error) {
	if !c.Enabled() {
		return &LogAnalysis{
			Diagnosis:   "AI analysis unavailable - OpenAI API key not configured",
			Issues:      []string{},
			Suggestions: []string{"Configure OPENAI_API_KEY environment variable"},
			Severity:    SeverityLow,
		}, nil
	}

	user := fmt.Sprintf("Container: %s\n\nLogs:\n%s", containerName, tail(logs, c.config.MaxLogChars))

	var analysis LogAnalysis
	if err := c.complete(ctx, logAnalysisPrompt, user, c.config.Temperature, &analysis); err != nil {
		return nil, fmt.Errorf("AI analysis failed: %w", err)
	}
	return &analysis, nil
}

// SuggestOptimization asks for resource advice based on current usage
func (c *Client) SuggestOptimization(ctx context.Context, stats ContainerStats) (*OptimizationSuggestion, error) {
	if !c.Enabled() {
		return &OptimizationSuggestion{
			Recommendation:   "AI optimization unavailable",
			PotentialSavings: "N/A",
			Actions:          []string{"Configure OPENAI_API_KEY"},
		}, nil
	}

	var memoryPercent float64
	if stats.MemoryLimit > 0 {
		memoryPercent = float64(stats.MemoryBytes) / float64(stats.MemoryLimit) * 100
	}

	user := fmt.Sprintf("Container: %s\nCPU Usage: %.2f%%\nMemory Usage: %d bytes (%.1f%% of %d bytes limit)\n\n"+
		"Suggest optimizations to reduce resource usage and costs.",
		stats.Name, stats.CPUPercent, stats.MemoryBytes, memoryPercent, stats.MemoryLimit)

	var suggestion OptimizationSuggestion
	if err := c.complete(ctx, optimizationPrompt, user, c.config.Temperature, &suggestion); err != nil {
		return nil, fmt.Errorf("Optimization analysis failed: %w", err)
	}
	return &suggestion, nil
}

// NaturalLanguageQuery maps a free-form request onto an API action
func (c *Client) NaturalLanguageQuery(ctx context.Context, query string) (*Interpretation, error) {
	if !c.Enabled() {
		return nil, ErrUnavailable
	}

	var interp Interpretation
	if err := c.complete(ctx, commandPrompt, query, c.config.CommandTemperature, &interp); err != nil {
		return nil, fmt.Errorf("Natural language processing failed: %w", err)
	}
	if interp.Parameters == nil {
		interp.Parameters = map[string]interface{}{}
	}
	return &interp, nil
}

// tail returns the last n bytes of s without splitting a UTF-8 sequence
func tail(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	start := len(s) - n
	for start < len(s) && s[start]&0xC0 == 0x80 {
		start++
	}
	return s[start:]
}

var _ Analyzer = (*Client)(nil)
