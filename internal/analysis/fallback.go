package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/brandpulse/brandpulse/internal/models"
)

const maxExemplars = 5

var positiveWords = []string{
	"good", "great", "excellent", "love", "awesome", "fantastic", "amazing",
	"helpful", "works", "solved", "success", "impressive", "recommend",
	"reliable", "smooth", "happy", "best", "perfect", "fast",
}

var negativeWords = []string{
	"bad", "terrible", "awful", "hate", "broken", "error", "fail", "failing",
	"problem", "issue", "bug", "worst", "disappointing", "disappoint", "slow",
	"expensive", "refund", "cancel", "crash", "useless", "scam",
}

// LocalClassifier is the deterministic keyword-based classifier used when the
// external capability is unavailable. It never returns an error: the same
// candidate sequence always produces the identical summary.
type LocalClassifier struct{}

// NewLocalClassifier creates a new local fallback classifier
func NewLocalClassifier() *LocalClassifier {
	return &LocalClassifier{}
}

// Classify buckets each candidate by keyword membership and rolls the counts
// up into ratios, an overall label, exemplars, and a templated narrative.
func (l *LocalClassifier) Classify(ctx context.Context, subject string, candidates []models.Snippet) (*models.SentimentSummary, error) {
	var positiveCount, negativeCount int
	exemplars := map[models.Bucket][]models.Exemplar{
		models.BucketPositive: {},
		models.BucketNegative: {},
		models.BucketNeutral:  {},
	}

	for _, candidate := range candidates {
		bucket := classifyText(candidate.Text)
		switch bucket {
		case models.BucketPositive:
			positiveCount++
		case models.BucketNegative:
			negativeCount++
		}

		if len(exemplars[bucket]) < maxExemplars {
			exemplars[bucket] = append(exemplars[bucket], models.Exemplar{
				Text:        candidate.Text,
				SourceLabel: candidate.SourceLabel,
				Author:      candidate.Author,
			})
		}
	}

	// Rounding error lands in the neutral bucket so the three ratios sum to
	// exactly 100. An empty candidate set yields 0/0/100.
	total := len(candidates)
	if total < 1 {
		total = 1
	}
	positiveRatio := int(math.Round(100 * float64(positiveCount) / float64(total)))
	negativeRatio := int(math.Round(100 * float64(negativeCount) / float64(total)))
	neutralRatio := 100 - positiveRatio - negativeRatio

	label := overallLabel(positiveRatio, negativeRatio)

	return &models.SentimentSummary{
		Subject:          subject,
		OverallLabel:     label,
		PositiveRatio:    positiveRatio,
		NegativeRatio:    negativeRatio,
		NeutralRatio:     neutralRatio,
		NarrativeSummary: narrative(subject, label, positiveRatio, negativeRatio, len(candidates)),
		KeyThemes:        themes(positiveRatio, negativeRatio),
		Exemplars:        exemplars,
	}, nil
}

// classifyText applies the keyword bucket rule: a positive hit with no
// negative hit is positive, a negative hit with no positive hit is negative,
// everything else (neither or both) is neutral.
func classifyText(text string) models.Bucket {
	lowered := strings.ToLower(text)

	hasPositive := containsAny(lowered, positiveWords)
	hasNegative := containsAny(lowered, negativeWords)

	switch {
	case hasPositive && !hasNegative:
		return models.BucketPositive
	case hasNegative && !hasPositive:
		return models.BucketNegative
	default:
		return models.BucketNeutral
	}
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

// overallLabel applies the cutoffs in order; boundaries are strict
// comparisons, so exactly 60 is not "positive" and exactly 40 is not "mixed".
func overallLabel(positiveRatio, negativeRatio int) models.Label {
	switch {
	case positiveRatio > 60:
		return models.LabelPositive
	case negativeRatio > 60:
		return models.LabelNegative
	case positiveRatio > 40 || negativeRatio > 40:
		return models.LabelMixed
	default:
		return models.LabelNeutral
	}
}

func narrative(subject string, label models.Label, positiveRatio, negativeRatio, count int) string {
	return fmt.Sprintf(
		"Keyword-based estimate: sentiment for %s is %s across %d comments (%d%% positive, %d%% negative).",
		subject, label, count, positiveRatio, negativeRatio)
}

// themes is a fixed template keyed off the ratios, not learned from content.
func themes(positiveRatio, negativeRatio int) []string {
	var out []string
	if positiveRatio > 40 {
		out = append(out, "general satisfaction")
	}
	if negativeRatio > 40 {
		out = append(out, "recurring complaints")
	}
	if len(out) == 0 {
		out = append(out, "mixed or neutral feedback")
	}
	return append(out, "keyword-based estimate")
}
