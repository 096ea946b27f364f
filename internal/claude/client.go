package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eransh/bookwise/internal/extract"
	"github.com/eransh/bookwise/internal/slot"
	"github.com/eransh/bookwise/internal/timeutil"
)

const (
	defaultAPIURL    = "https://api.anthropic.com/v1/messages"
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024
	anthropicVersion = "2023-06-01"
	requestTimeout   = 30 * time.Second
)

// Client is a Claude API client implementing the language-understanding
// capability for slot extraction.
type Client struct {
	apiKey      string
	model       string
	apiURL      string
	httpClient  *http.Client
	temperature float64
}

// NewClient creates a new Claude API client
func NewClient(apiKey, model string, temperature float64) *Client {
	if model == "" {
		model = defaultModel
	}
	if temperature <= 0 {
		temperature = 0.1
	}

	return &Client{
		apiKey:      apiKey,
		model:       model,
		apiURL:      defaultAPIURL,
		temperature: temperature,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// anthropicRequest represents the API request structure
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse represents the API response structure
type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ClassifyAndExtract sends the utterance to Claude and returns the raw
// extraction structure. Relative expressions are resolved by the model
// against referenceTime, which the prompt pins explicitly so a retried turn
// stays reproducible.
func (c *Client) ClassifyAndExtract(
	ctx context.Context,
	utterance string,
	referenceTime time.Time,
	known slot.Model,
) (*extract.Extraction, error) {
	userPrompt := c.buildUserPrompt(utterance, referenceTime, known)

	req := anthropicRequest{
		Model:       c.model,
		MaxTokens:   defaultMaxTokens,
		Temperature: c.temperature,
		System:      SystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: userPrompt},
		},
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("API error: %s - %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	if len(apiResp.Content) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	// Claude might wrap the JSON in markdown.
	responseText := apiResp.Content[0].Text
	jsonStr := extractJSON(responseText)

	var extraction extract.Extraction
	if err := json.Unmarshal([]byte(jsonStr), &extraction); err != nil {
		return nil, fmt.Errorf("failed to parse extraction JSON: %w (response: %s)", err, responseText)
	}

	return &extraction, nil
}

// buildUserPrompt constructs the prompt with the reference time and any
// fields already collected in previous turns.
func (c *Client) buildUserPrompt(utterance string, referenceTime time.Time, known slot.Model) string {
	var prompt bytes.Buffer

	prompt.WriteString("## Reference Time\n\n")
	prompt.WriteString(fmt.Sprintf("Now: %s\n", referenceTime.Format("2006-01-02 15:04 (Monday) MST")))
	prompt.WriteString("Resolve every relative expression (tomorrow, next week, Friday) against this instant.\n")

	prompt.WriteString("\n## Already Collected\n\n")
	prompt.WriteString(describeKnown(known))

	prompt.WriteString("\n## User Utterance\n\n")
	prompt.WriteString(utterance)

	prompt.WriteString("\n\nRespond with your JSON extraction only.")

	return prompt.String()
}

func describeKnown(known slot.Model) string {
	var lines []string

	if known.Intent != slot.IntentUnknown {
		lines = append(lines, fmt.Sprintf("intent: %s", known.Intent))
	}
	if known.DateRange != nil {
		lines = append(lines, fmt.Sprintf("date: %s to %s",
			known.DateRange.Earliest.Format("2006-01-02"),
			known.DateRange.Latest.Format("2006-01-02"),
		))
	}
	if known.TimeRange != nil {
		from, to := "open", "open"
		if known.TimeRange.Earliest != slot.ClockOpen {
			from = timeutil.FormatClock(known.TimeRange.Earliest)
		}
		if known.TimeRange.Latest != slot.ClockOpen {
			to = timeutil.FormatClock(known.TimeRange.Latest)
		}
		lines = append(lines, fmt.Sprintf("time: %s to %s", from, to))
	}
	if known.Duration > 0 {
		lines = append(lines, fmt.Sprintf("duration: %d minutes", int(known.Duration.Minutes())))
	}
	if len(known.Attendees) > 0 {
		lines = append(lines, fmt.Sprintf("attendees: %s", strings.Join(known.Attendees, ", ")))
	}

	if len(lines) == 0 {
		return "Nothing collected yet.\n"
	}
	return strings.Join(lines, "\n") + "\n"
}

// extractJSON attempts to extract JSON from a response that might be wrapped in markdown
func extractJSON(text string) string {
	start := 0
	if idx := findJSONStart(text); idx >= 0 {
		start = idx
	}

	end := len(text)
	if idx := findJSONEnd(text, start); idx >= 0 {
		end = idx + 1
	}

	return text[start:end]
}

func findJSONStart(text string) int {
	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			return i
		}
	}
	return -1
}

func findJSONEnd(text string, start int) int {
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// IsConfigured returns true if the client has an API key
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}
