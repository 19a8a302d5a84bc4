package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const extractionSystemPrompt = `You are the AI front desk of a call center.
Your task is to extract the caller's name and age from the call transcript.
The transcript can be full sentences ("Hello, my name is John Doe and I am 30 years old."),
short phrases ("I'm Jane, 25."), comma-separated ("Peter,45"), or just "David 50".

Rules:
1. If no name is found, use an empty string for "name".
2. "age" MUST be an integer. If no valid age is found, use 0.
3. Set "readyForHuman" to true ONLY IF a plausible non-empty name AND a valid non-zero age were extracted.
4. "response" is the next sentence to speak to the caller: ask for whatever is still missing,
   or briefly confirm and announce the transfer when readyForHuman is true.
5. Ignore stray punctuation unless it is part of a typical name.

Reply with a single JSON object: {"name": string, "age": integer, "readyForHuman": boolean, "response": string}`

const verificationSystemPrompt = `You verify caller-provided information for a call center.
Decide whether the extracted name and age are plausible enough to hand the caller to a human agent.

Criteria:
- The name should look like a genuine name (not gibberish, not empty).
- The age should be a plausible human age (greater than 0 and less than 120).
  An age of 0 means it was never properly extracted and is invalid.

Reply with a single JSON object: {"isValid": boolean, "confidenceScore": number between 0 and 1, "reason": string}`

// Client implements both oracles on the OpenAI chat completions API.
//
// Every request carries its own deadline: the webhook response cannot wait on
// a hung upstream, and a timeout surfaces as an ordinary oracle error.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// NewClient builds a Client for the given API key and model.
func NewClient(apiKey, model string, timeout time.Duration) *Client {
	return NewClientWithConfig(openai.DefaultConfig(apiKey), model, timeout)
}

// NewClientWithConfig allows overriding the API base URL (tests, proxies).
func NewClientWithConfig(cfg openai.ClientConfig, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

func (c *Client) Extract(ctx context.Context, transcript string) (Extraction, error) {
	if strings.TrimSpace(transcript) == "" {
		return Extraction{}, ErrEmptyTranscript
	}

	content, err := c.complete(ctx, extractionSystemPrompt, "Transcript of the call so far:\n"+transcript)
	if err != nil {
		return Extraction{}, fmt.Errorf("oracle: extraction failed: %w", err)
	}

	// The model sometimes returns age as a quoted number; decode tolerantly.
	var wire struct {
		Name          string      `json:"name"`
		Age           json.Number `json:"age"`
		ReadyForHuman bool        `json:"readyForHuman"`
		Response      string      `json:"response"`
	}
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return Extraction{}, fmt.Errorf("oracle: malformed extraction output: %w", err)
	}

	age := 0
	if wire.Age != "" {
		if n, err := strconv.Atoi(wire.Age.String()); err == nil && n >= 0 {
			age = n
		}
	}
	out := Extraction{
		Name:          strings.TrimSpace(wire.Name),
		Age:           age,
		ReadyForHuman: wire.ReadyForHuman,
		Response:      strings.TrimSpace(wire.Response),
	}
	// Belt and braces: never hand over without both fields.
	if out.Name == "" || out.Age == 0 {
		out.ReadyForHuman = false
	}
	return out, nil
}

func (c *Client) Verify(ctx context.Context, name string, age int) (Verification, error) {
	input := fmt.Sprintf("Name: %s\nAge: %d", name, age)
	content, err := c.complete(ctx, verificationSystemPrompt, input)
	if err != nil {
		return Verification{}, fmt.Errorf("oracle: verification failed: %w", err)
	}

	var out Verification
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return Verification{}, fmt.Errorf("oracle: malformed verification output: %w", err)
	}
	if out.ConfidenceScore < 0 {
		out.ConfidenceScore = 0
	}
	if out.ConfidenceScore > 1 {
		out.ConfidenceScore = 1
	}
	return out, nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
