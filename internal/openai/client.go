// Client for the OpenAI chat completions API, used for audiobook summary
// generation and note quote discussions. The whole feature set degrades
// gracefully when no API key is configured.
package openai

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

	"github.com/tomelib/tome/internal/catalog"
	"github.com/tomelib/tome/pkg/logger"
)

const (
	chatCompletionsEndpoint = "https://api.openai.com/v1/chat/completions"
	requestTimeout          = 2 * time.Minute
)

const summarySystemPrompt = "You are a knowledgeable librarian. Write a short, engaging, spoiler-free " +
	"summary of the audiobook described by the user. Two or three sentences, plain prose, no headings."

const discussSystemPrompt = "You are a thoughtful reading companion. The user is listening to an audiobook " +
	"and wants to discuss a quote from it. Give concise, insightful answers grounded in the quote."

var (
	log = logger.Get("OpenAI")

	ErrNotConfigured = errors.New("openai api key is not configured")
)

type (
	Config struct {
		APIKey       string `yaml:"api_key" env:"OPENAI_API_KEY"`
		SummaryModel string `yaml:"summary_model" env:"OPENAI_SUMMARY_MODEL" env-default:"gpt-4o-mini"`
		ChatModel    string `yaml:"chat_model" env:"OPENAI_CHAT_MODEL" env-default:"gpt-4o-mini"`
	}

	Client struct {
		config     Config
		endpoint   string
		httpClient *http.Client
	}
)

func New(config Config) *Client {
	return &Client{
		config:   config,
		endpoint: chatCompletionsEndpoint,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Enabled reports whether the client is usable; callers treat a disabled
// client as "feature off", not an error.
func (client *Client) Enabled() bool {
	return strings.TrimSpace(client.config.APIKey) != ""
}

// Summarize generates a short summary of an audiobook from its title and
// remote description. Items with no description are skipped, returning an
// empty summary with no error.
func (client *Client) Summarize(ctx context.Context, title string, description string) (string, error) {
	if !client.Enabled() {
		return "", ErrNotConfigured
	}

	if strings.TrimSpace(description) == "" {
		return "", nil
	}

	messages := catalog.Transcript{
		{Role: "system", Content: summarySystemPrompt},
		{Role: catalog.RoleUser, Content: fmt.Sprintf("Title: %s\n\nDescription: %s", title, description)},
	}

	return client.chat(ctx, client.config.SummaryModel, messages)
}

// DiscussQuote advances a quote discussion by one exchange. The first turn
// embeds the quote itself in the user message; follow-up turns carry only
// the new question (or a continuation nudge when none was given). The
// returned transcript is the provided history plus exactly one user and one
// assistant message.
func (client *Client) DiscussQuote(ctx context.Context, quote string, question string, history catalog.Transcript) (catalog.Transcript, string, error) {
	if !client.Enabled() {
		return nil, "", ErrNotConfigured
	}

	question = strings.TrimSpace(question)

	var userContent string
	if len(history) == 0 {
		if question == "" {
			question = "What does this mean?"
		}
		userContent = fmt.Sprintf("%q\n\n%s", quote, question)
	} else {
		if question == "" {
			question = "Go on."
		}
		userContent = question
	}

	messages := make(catalog.Transcript, 0, len(history)+2)
	messages = append(messages, catalog.Message{Role: "system", Content: discussSystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, catalog.Message{Role: catalog.RoleUser, Content: userContent})

	reply, err := client.chat(ctx, client.config.ChatModel, messages)
	if err != nil {
		return nil, "", err
	}

	return history.Extend(userContent, reply), reply, nil
}

func (client *Client) chat(ctx context.Context, model string, messages catalog.Transcript) (string, error) {
	payload := map[string]any{
		"model":       model,
		"messages":    messages,
		"temperature": 0.7,
	}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.endpoint, buf)
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+client.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", decodeAPIError(resp)
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", errors.New("no completion returned")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func decodeAPIError(resp *http.Response) error {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("openai api error: status %d type %s message %s", resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
	}

	log.Debugf("Unstructured error response from OpenAI: %s\n", string(body))
	return fmt.Errorf("openai api error: status %d", resp.StatusCode)
}
