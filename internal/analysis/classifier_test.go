package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClassifier is a mock implementation of the Classifier interface
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, subject string, candidates []models.Snippet) (*models.SentimentSummary, error) {
	args := m.Called(ctx, subject, candidates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SentimentSummary), args.Error(1)
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func validResponse() *classifierResponse {
	return &classifierResponse{
		OverallSentiment: strPtr("positive"),
		PositiveRatio:    intPtr(70),
		NegativeRatio:    intPtr(10),
		NeutralRatio:     intPtr(20),
		Summary:          strPtr("Mostly positive chatter."),
		KeyThemes:        []string{"reliability"},
		PositiveIndices:  []int{1, 2},
		NegativeIndices:  []int{3},
	}
}

func testCandidates(n int) []models.Snippet {
	var out []models.Snippet
	for i := 0; i < n; i++ {
		out = append(out, models.Snippet{
			Text:        "candidate text number",
			SourceLabel: "test",
			Author:      "author",
		})
	}
	return out
}

func TestBuildSummary_Valid(t *testing.T) {
	summary, err := buildSummary("Widget", testCandidates(3), validResponse())

	require.NoError(t, err)
	assert.Equal(t, models.LabelPositive, summary.OverallLabel)
	assert.Equal(t, 70, summary.PositiveRatio)
	assert.Equal(t, "Mostly positive chatter.", summary.NarrativeSummary)
	assert.Len(t, summary.Exemplars[models.BucketPositive], 2)
	assert.Len(t, summary.Exemplars[models.BucketNegative], 1)
	assert.Empty(t, summary.Exemplars[models.BucketNeutral])
}

func TestBuildSummary_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*classifierResponse)
	}{
		{"missing overall sentiment", func(r *classifierResponse) { r.OverallSentiment = nil }},
		{"missing positive ratio", func(r *classifierResponse) { r.PositiveRatio = nil }},
		{"missing negative ratio", func(r *classifierResponse) { r.NegativeRatio = nil }},
		{"missing neutral ratio", func(r *classifierResponse) { r.NeutralRatio = nil }},
		{"missing summary", func(r *classifierResponse) { r.Summary = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := validResponse()
			tt.mutate(resp)

			_, err := buildSummary("Widget", testCandidates(3), resp)
			assert.Error(t, err)
		})
	}
}

func TestBuildSummary_UnknownLabel(t *testing.T) {
	resp := validResponse()
	resp.OverallSentiment = strPtr("ecstatic")

	_, err := buildSummary("Widget", testCandidates(3), resp)
	assert.Error(t, err)
}

func TestBuildSummary_RatiosMustSumTo100(t *testing.T) {
	resp := validResponse()
	resp.NeutralRatio = intPtr(25) // 70+10+25 = 105

	_, err := buildSummary("Widget", testCandidates(3), resp)
	assert.Error(t, err)
}

func TestSelectExemplars_DropsInvalidIndices(t *testing.T) {
	candidates := testCandidates(3)

	// 0 and 4 are out of range, the second 2 is a duplicate
	exemplars := selectExemplars(candidates, []int{0, 2, 4, 2, 1, -7})

	require.Len(t, exemplars, 2)
	assert.Equal(t, candidates[1].Text, exemplars[0].Text)
	assert.Equal(t, candidates[0].Text, exemplars[1].Text)
}

func TestSelectExemplars_TruncatesToFive(t *testing.T) {
	candidates := testCandidates(10)

	exemplars := selectExemplars(candidates, []int{1, 2, 3, 4, 5, 6, 7, 8})

	assert.Len(t, exemplars, 5)
}

func TestSelectExemplars_EmptyIndices(t *testing.T) {
	assert.Empty(t, selectExemplars(testCandidates(3), nil))
}

func TestFallbackChain_UsesPrimaryWhenItSucceeds(t *testing.T) {
	primary := &MockClassifier{}
	expected := &models.SentimentSummary{OverallLabel: models.LabelPositive, PositiveRatio: 80, NeutralRatio: 20}
	primary.On("Classify", mock.Anything, "Widget", mock.Anything).Return(expected, nil)

	chain := &FallbackChain{Primary: primary, Fallback: NewLocalClassifier()}
	summary, err := chain.Classify(context.Background(), "Widget", testCandidates(2))

	require.NoError(t, err)
	assert.Equal(t, expected, summary)
	primary.AssertExpectations(t)
}

func TestFallbackChain_FallsBackOnPrimaryError(t *testing.T) {
	primary := &MockClassifier{}
	primary.On("Classify", mock.Anything, "Widget", mock.Anything).
		Return(nil, errors.New("upstream timeout"))

	chain := &FallbackChain{Primary: primary, Fallback: NewLocalClassifier()}
	summary, err := chain.Classify(context.Background(), "Widget", []models.Snippet{
		snippet("excellent product, works great for me"),
	})

	require.NoError(t, err)
	assert.Equal(t, 100, summary.PositiveRatio+summary.NegativeRatio+summary.NeutralRatio)
	primary.AssertExpectations(t)
}

func TestFallbackChain_NilPrimaryGoesStraightToFallback(t *testing.T) {
	chain := &FallbackChain{Fallback: NewLocalClassifier()}

	summary, err := chain.Classify(context.Background(), "Widget", testCandidates(1))

	require.NoError(t, err)
	assert.NotNil(t, summary)
}
