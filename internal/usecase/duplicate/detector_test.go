package duplicate

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crowsnest-io/spyglass/internal/domain"
)

func item(id, title string) domain.ContentItem {
	return domain.ContentItem{Type: domain.TypePost, ID: id, Title: title}
}

func TestFindDuplicates_ThresholdIsStrict(t *testing.T) {
	// The shared-token ratio of this pair is exactly 0.5: tokens
	// {benefícios, dieta, carb} vs {como, fazer, dieta, carb}, 2 shared
	// over the larger set of 4.
	batch := []domain.ContentItem{
		item("a", "Benefícios da Dieta Low Carb"),
		item("b", "Como Fazer Dieta Low Carb"),
	}

	atBoundary := New(Config{Threshold: 0.5}, zap.NewNop())
	pairs, err := atBoundary.FindDuplicates(context.Background(), domain.TypePost, batch)
	require.NoError(t, err)
	assert.Empty(t, pairs, "a pair scoring exactly the threshold is not a duplicate")

	below := New(Config{Threshold: 0.49}, zap.NewNop())
	pairs, err = below.FindDuplicates(context.Background(), domain.TypePost, batch)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.InDelta(t, 0.5, pairs[0].Similarity, 1e-9)
}

func TestFindDuplicates_CanonicalPairOrdering(t *testing.T) {
	batch := []domain.ContentItem{
		item("zeta", "Complete Keto Diet Guide"),
		item("alpha", "Complete Keto Diet Guide"),
	}

	d := New(Config{}, zap.NewNop())
	pairs, err := d.FindDuplicates(context.Background(), domain.TypePost, batch)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "alpha", pairs[0].ItemA)
	assert.Equal(t, "zeta", pairs[0].ItemB)
	assert.Equal(t, 1.0, pairs[0].Similarity)
	assert.Equal(t, domain.TypePost, pairs[0].Type)
}

func TestFindDuplicates_EmptyTokenItemsSkipped(t *testing.T) {
	// Items whose text yields no tokens (empty, or all-short words) must not
	// pair with each other as trivial 100% matches.
	batch := []domain.ContentItem{
		item("a", ""),
		item("b", ""),
		item("c", "a an of to"),
	}

	d := New(Config{}, zap.NewNop())
	pairs, err := d.FindDuplicates(context.Background(), domain.TypePost, batch)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestFindDuplicates_SortedBySimilarityDesc(t *testing.T) {
	batch := []domain.ContentItem{
		item("a", "ultimate chocolate cake recipe"),
		item("b", "ultimate chocolate cake recipe"),
		item("c", "ultimate chocolate cake ideas"),
	}

	d := New(Config{}, zap.NewNop())
	pairs, err := d.FindDuplicates(context.Background(), domain.TypePost, batch)
	require.NoError(t, err)
	require.NotEmpty(t, pairs)
	assert.Equal(t, "a", pairs[0].ItemA)
	assert.Equal(t, "b", pairs[0].ItemB)
	for i := 1; i < len(pairs); i++ {
		assert.LessOrEqual(t, pairs[i].Similarity, pairs[i-1].Similarity)
	}
}

func TestFindDuplicates_MaxResultsCap(t *testing.T) {
	var batch []domain.ContentItem
	for i := 0; i < 6; i++ {
		batch = append(batch, item(fmt.Sprintf("p%d", i), "identical duplicate title"))
	}

	d := New(Config{MaxResults: 3}, zap.NewNop())
	pairs, err := d.FindDuplicates(context.Background(), domain.TypePost, batch)
	require.NoError(t, err)
	assert.Len(t, pairs, 3, "6 identical items give 15 pairs, capped at 3")
}

func TestFindDuplicates_BatchTooLarge(t *testing.T) {
	batch := make([]domain.ContentItem, 11)
	for i := range batch {
		batch[i] = item(fmt.Sprintf("p%d", i), "some title")
	}

	d := New(Config{MaxBatchSize: 10}, zap.NewNop())
	_, err := d.FindDuplicates(context.Background(), domain.TypePost, batch)
	require.ErrorIs(t, err, domain.ErrBatchTooLarge)
}

func TestFindDuplicates_DescriptionCountsTowardTokens(t *testing.T) {
	batch := []domain.ContentItem{
		{Type: domain.TypeKeyword, ID: "a", Title: "keto", Description: "complete beginner guide"},
		{Type: domain.TypeKeyword, ID: "b", Title: "keto", Description: "complete beginner guide"},
	}

	d := New(Config{}, zap.NewNop())
	pairs, err := d.FindDuplicates(context.Background(), domain.TypeKeyword, batch)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, 1.0, pairs[0].Similarity)
}

func TestFindDuplicates_KeywordsNeedNearExactMatch(t *testing.T) {
	kw := func(id, title string) domain.ContentItem {
		return domain.ContentItem{Type: domain.TypeKeyword, ID: id, Title: title}
	}
	// Shared-token ratio 0.75: {best, keto, diet, plan} vs {easy, keto, diet,
	// plan}. Distinct keywords routinely share most of their tokens, so this
	// is not a duplicate.
	batch := []domain.ContentItem{
		kw("a", "best keto diet plan"),
		kw("b", "easy keto diet plan"),
	}

	d := New(Config{}, zap.NewNop())
	pairs, err := d.FindDuplicates(context.Background(), domain.TypeKeyword, batch)
	require.NoError(t, err)
	assert.Empty(t, pairs, "keyword pairs below the near-exact bar are distinct")

	// The same overlap between posts is a duplicate under the text threshold.
	posts := []domain.ContentItem{
		item("a", "best keto diet plan"),
		item("b", "easy keto diet plan"),
	}
	pairs, err = d.FindDuplicates(context.Background(), domain.TypePost, posts)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.InDelta(t, 0.75, pairs[0].Similarity, 1e-9)
}

func TestFindDuplicates_KeywordCaseAndOrderVariantsReported(t *testing.T) {
	// Same token set after normalization, so the pair clears even the
	// near-exact keyword bar.
	batch := []domain.ContentItem{
		{Type: domain.TypeKeyword, ID: "a", Title: "Keto Diet Plan"},
		{Type: domain.TypeKeyword, ID: "b", Title: "plan diet KETO"},
	}

	d := New(Config{}, zap.NewNop())
	pairs, err := d.FindDuplicates(context.Background(), domain.TypeKeyword, batch)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, 1.0, pairs[0].Similarity)
}

func TestFindDuplicates_KeywordThresholdOverride(t *testing.T) {
	batch := []domain.ContentItem{
		{Type: domain.TypeKeyword, ID: "a", Title: "best keto diet plan"},
		{Type: domain.TypeKeyword, ID: "b", Title: "easy keto diet plan"},
	}

	d := New(Config{KeywordThreshold: 0.7}, zap.NewNop())
	pairs, err := d.FindDuplicates(context.Background(), domain.TypeKeyword, batch)
	require.NoError(t, err)
	require.Len(t, pairs, 1, "a loosened keyword bar admits the 0.75 pair")
}

func TestFindDuplicates_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := []domain.ContentItem{
		item("a", "some longer title here"),
		item("b", "some longer title here"),
	}

	d := New(Config{}, zap.NewNop())
	_, err := d.FindDuplicates(ctx, domain.TypePost, batch)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFindDuplicates_EmptyBatch(t *testing.T) {
	d := New(Config{}, zap.NewNop())
	pairs, err := d.FindDuplicates(context.Background(), domain.TypePost, nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}
