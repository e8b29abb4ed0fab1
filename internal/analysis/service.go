package analysis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/brandpulse/brandpulse/internal/sources"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Service runs the analysis pipeline for one subject: fan-out retrieval,
// dedup, classification, and the final summary stamping.
type Service struct {
	sources          []sources.Source
	classifier       Classifier
	maxSubjectLength int
}

// NewService creates a new analysis service
func NewService(srcs []sources.Source, classifier Classifier, maxSubjectLength int) *Service {
	return &Service{
		sources:          srcs,
		classifier:       classifier,
		maxSubjectLength: maxSubjectLength,
	}
}

// ValidateSubject rejects empty and oversized subject names before any
// pipeline work is attempted.
func (s *Service) ValidateSubject(subject string) error {
	trimmed := strings.TrimSpace(subject)
	if trimmed == "" {
		return fmt.Errorf("%w: subject is empty", models.ErrValidation)
	}
	if utf8.RuneCountInString(trimmed) > s.maxSubjectLength {
		return fmt.Errorf("%w: subject exceeds %d characters", models.ErrValidation, s.maxSubjectLength)
	}
	return nil
}

// Analyze produces a sentiment summary for a subject. A failing source is
// logged and excluded; only a total retrieval miss surfaces, as ErrNoData.
// Classification never fails here because the classifier chain absorbs
// external errors into the local fallback.
func (s *Service) Analyze(ctx context.Context, subject string) (*models.SentimentSummary, error) {
	if err := s.ValidateSubject(subject); err != nil {
		return nil, err
	}
	subject = strings.TrimSpace(subject)

	start := time.Now()
	logrus.Infof("Starting analysis for %q across %d sources", subject, len(s.sources))

	raw := s.retrieve(ctx, subject)

	// Breakdown counts raw per-platform yield, before dedup collapses
	// cross-posted snippets. Ratios and exemplars below operate on the
	// deduplicated set; the two are intentionally not consistent.
	breakdown := make(map[models.Platform]int)
	for _, snippet := range raw {
		breakdown[snippet.Platform]++
	}

	candidates := Dedupe(raw)
	logrus.Infof("Retrieved %d snippets for %q, %d after dedup", len(raw), subject, len(candidates))

	if len(candidates) == 0 {
		return nil, models.ErrNoData
	}

	summary, err := s.classifier.Classify(ctx, subject, candidates)
	if err != nil {
		return nil, fmt.Errorf("classification failed: %w", err)
	}

	summary.ID = uuid.NewString()
	summary.Subject = subject
	summary.TotalAnalyzed = len(candidates)
	summary.SourceBreakdown = breakdown
	summary.GeneratedAt = time.Now().UTC()

	logrus.Infof("Analysis for %q completed in %v: %s (%d/%d/%d)",
		subject, time.Since(start), summary.OverallLabel,
		summary.PositiveRatio, summary.NegativeRatio, summary.NeutralRatio)

	return summary, nil
}

// retrieve fans out over all enabled sources concurrently and merges their
// results only after every source has finished. Source order is fixed at
// construction, and results are merged in that order so a fixed input
// yields a deterministic concatenation for the dedup first-wins rule.
func (s *Service) retrieve(ctx context.Context, subject string) []models.Snippet {
	var wg sync.WaitGroup
	results := make([][]models.Snippet, len(s.sources))

	for i, source := range s.sources {
		if !source.IsEnabled() {
			logrus.Debugf("Source %s disabled, skipping", source.GetName())
			continue
		}

		wg.Add(1)
		go func(i int, src sources.Source) {
			defer wg.Done()

			snippets, err := src.Search(ctx, subject)
			if err != nil {
				logrus.Errorf("Error fetching from %s: %v", src.GetName(), err)
				return
			}

			logrus.Debugf("Found %d snippets from %s", len(snippets), src.GetName())
			results[i] = snippets
		}(i, source)
	}

	wg.Wait()

	var all []models.Snippet
	for _, batch := range results {
		all = append(all, batch...)
	}
	return all
}
