package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/brandpulse/brandpulse/internal/models"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// Classifier turns a candidate batch into a sentiment summary.
type Classifier interface {
	Classify(ctx context.Context, subject string, candidates []models.Snippet) (*models.SentimentSummary, error)
}

// FallbackChain is an explicit two-stage classification strategy: try the
// primary capability, and on any error run the fallback instead. The
// fallback is the local classifier, which cannot fail, so a chain built with
// it never surfaces a classification error to callers.
type FallbackChain struct {
	Primary  Classifier
	Fallback Classifier
}

// Classify runs the primary classifier and falls back on error.
func (c *FallbackChain) Classify(ctx context.Context, subject string, candidates []models.Snippet) (*models.SentimentSummary, error) {
	if c.Primary != nil {
		summary, err := c.Primary.Classify(ctx, subject, candidates)
		if err == nil {
			return summary, nil
		}
		logrus.Warnf("Primary classifier failed for %q, using fallback: %v", subject, err)
	}

	return c.Fallback.Classify(ctx, subject, candidates)
}

// OpenAIClassifier delegates classification to the OpenAI chat API. Each
// request is bounded by its own timeout; a timeout is an ordinary
// classification failure, not a pipeline abort.
type OpenAIClassifier struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClassifier creates a classifier backed by the OpenAI API
func NewOpenAIClassifier(apiKey, model string, timeout time.Duration) *OpenAIClassifier {
	return &OpenAIClassifier{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}
}

// classifierResponse is the structured payload required from the model.
// Pointer fields distinguish absent required fields from zero values.
type classifierResponse struct {
	OverallSentiment *string  `json:"overall_sentiment"`
	PositiveRatio    *int     `json:"positive_ratio"`
	NegativeRatio    *int     `json:"negative_ratio"`
	NeutralRatio     *int     `json:"neutral_ratio"`
	Summary          *string  `json:"summary"`
	KeyThemes        []string `json:"key_themes"`
	PositiveIndices  []int    `json:"positive_indices"`
	NegativeIndices  []int    `json:"negative_indices"`
	NeutralIndices   []int    `json:"neutral_indices"`
}

const systemPrompt = `You are a sentiment analyst. You receive a product name and a numbered list of social media comments about it. Respond with ONLY a JSON object, no prose, with these fields:
"overall_sentiment": one of "positive", "negative", "neutral", "mixed"
"positive_ratio", "negative_ratio", "neutral_ratio": integer percentages over ALL comments, summing to exactly 100
"summary": 2-3 sentence narrative of the overall sentiment
"key_themes": array of short theme strings
"positive_indices", "negative_indices", "neutral_indices": arrays of 1-based comment numbers that best exemplify each sentiment, at most 5 per array`

// Classify sends the numbered candidate list to the model and validates the
// structured response before converting it into a summary.
func (o *OpenAIClassifier) Classify(ctx context.Context, subject string, candidates []models.Snippet) (*models.SentimentSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Product: %s\n\nComments:\n", subject)
	for i, candidate := range candidates {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, candidate.Text)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	var parsed classifierResponse
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("malformed classifier response: %w", err)
	}

	return buildSummary(subject, candidates, &parsed)
}

// buildSummary validates a structured classifier response and maps its
// exemplar indices back onto the candidate snippets.
func buildSummary(subject string, candidates []models.Snippet, parsed *classifierResponse) (*models.SentimentSummary, error) {
	if parsed.OverallSentiment == nil || parsed.PositiveRatio == nil ||
		parsed.NegativeRatio == nil || parsed.NeutralRatio == nil || parsed.Summary == nil {
		return nil, fmt.Errorf("classifier response missing required fields")
	}

	label := models.Label(*parsed.OverallSentiment)
	switch label {
	case models.LabelPositive, models.LabelNegative, models.LabelNeutral, models.LabelMixed:
	default:
		return nil, fmt.Errorf("classifier returned unknown label %q", *parsed.OverallSentiment)
	}

	// Ratios reflect the classifier's judgment over the entire candidate set
	// and are taken as-is, not re-derived from exemplar counts. The only
	// hard requirement is the sum invariant every consumer depends on.
	if *parsed.PositiveRatio+*parsed.NegativeRatio+*parsed.NeutralRatio != 100 {
		return nil, fmt.Errorf("classifier ratios do not sum to 100 (%d/%d/%d)",
			*parsed.PositiveRatio, *parsed.NegativeRatio, *parsed.NeutralRatio)
	}

	exemplars := map[models.Bucket][]models.Exemplar{
		models.BucketPositive: selectExemplars(candidates, parsed.PositiveIndices),
		models.BucketNegative: selectExemplars(candidates, parsed.NegativeIndices),
		models.BucketNeutral:  selectExemplars(candidates, parsed.NeutralIndices),
	}

	return &models.SentimentSummary{
		Subject:          subject,
		OverallLabel:     label,
		PositiveRatio:    *parsed.PositiveRatio,
		NegativeRatio:    *parsed.NegativeRatio,
		NeutralRatio:     *parsed.NeutralRatio,
		NarrativeSummary: *parsed.Summary,
		KeyThemes:        parsed.KeyThemes,
		Exemplars:        exemplars,
	}, nil
}

// selectExemplars maps untrusted 1-based indices onto candidates. Indices
// outside [1, len(candidates)] and duplicates are silently dropped; at most
// 5 exemplars survive, in the order the response listed them.
func selectExemplars(candidates []models.Snippet, indices []int) []models.Exemplar {
	exemplars := []models.Exemplar{}
	used := make(map[int]bool, len(indices))

	for _, idx := range indices {
		if idx < 1 || idx > len(candidates) || used[idx] {
			continue
		}
		used[idx] = true

		candidate := candidates[idx-1]
		exemplars = append(exemplars, models.Exemplar{
			Text:        candidate.Text,
			SourceLabel: candidate.SourceLabel,
			Author:      candidate.Author,
		})

		if len(exemplars) == maxExemplars {
			break
		}
	}

	return exemplars
}
