package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ewintr.nl/vidsum/model"
	"github.com/sashabaranov/go-openai"
)

const summarizePrompt = `Output MUST be in TWO PARTS:

Part 1: Current Market Snapshot
Part 2: Comprehensive Trading Strategy Analysis

No exceptions: if the video lacks content for one part, still generate both sections with whatever is available.

For Part 1, extract only explicit, time-sensitive information from the transcript: market sentiment, trends, momentum, key price levels, liquidity zones and macro events. Do not include generic market commentary or assumptions.

For Part 2, extract every explicit mention of trading indicators, tools, methods and rules: exact indicator rules and interpretations, key levels and zones, entry/exit/stop-loss rules, position sizing and risk management. Do not include generic trading strategies.

Present both parts as bullet points or short paragraphs with clear headings and no overlap between them. Include only information explicitly mentioned in the transcript. If no explicit details exist for a section, note that no direct content was available.`

// maxTranscriptRunes caps how much transcript is handed to the model. This
// is a lossy cut: anything past the cap is not summarized. The limit exists
// to stay inside the model's context window, not to save tokens.
const maxTranscriptRunes = 48000

type OpenAI struct {
	client *openai.Client
}

func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(apiKey),
	}
}

func (o *OpenAI) Summarize(ctx context.Context, transcript string) (string, error) {
	if runes := []rune(transcript); len(runes) > maxTranscriptRunes {
		transcript = string(runes[:maxTranscriptRunes])
	}

	resp, err := o.client.CreateChatCompletion(ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: summarizePrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: fmt.Sprintf("Video Transcript:\n%s", transcript),
				},
			},
		})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusUnauthorized {
			return "", fmt.Errorf("%w: %v", model.ErrUpstreamAuth, err)
		}

		return "", fmt.Errorf("failed to fetch summary: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summary response contains no choices")
	}

	return resp.Choices[len(resp.Choices)-1].Message.Content, nil
}
