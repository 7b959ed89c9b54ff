package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_IdenticalNamesScoreOne(t *testing.T) {
	assert.Equal(t, 1.0, Score("Cement 50kg", "Cement 50kg"))
}

func TestScore_IsSymmetric(t *testing.T) {
	a, b := "cement 50kg bags", "50kg cement bags"
	assert.Equal(t, Score(a, b), Score(b, a))
}

func TestScore_ReorderedKeywordsStillMatch(t *testing.T) {
	score := Score("cement 50kg bags", "50kg cement bags")
	assert.GreaterOrEqual(t, score, 0.9)
}

func TestScore_ThicknessDescriptorDoesNotBlockMatch(t *testing.T) {
	score := Score("steel bar 12mm", "steel bars 12mm")
	assert.GreaterOrEqual(t, score, 0.7)
}

func TestScore_EmptyInputScoresZero(t *testing.T) {
	assert.Equal(t, 0.0, Score("", "cement"))
	assert.Equal(t, 0.0, Score("cement", ""))
}

func TestScore_UnrelatedNamesScoreLow(t *testing.T) {
	score := Score("cement 50kg bags", "paint 20ltrs")
	assert.Less(t, score, 0.5)
}

func TestClassifyMatch_Thresholds(t *testing.T) {
	assert.Equal(t, MatchExact, ClassifyMatch(0.95))
	assert.Equal(t, MatchExact, ClassifyMatch(1.0))
	assert.Equal(t, MatchSimilar, ClassifyMatch(0.7))
	assert.Equal(t, MatchSimilar, ClassifyMatch(0.94))
	assert.Equal(t, MatchFuzzy, ClassifyMatch(0.5))
	assert.Equal(t, MatchFuzzy, ClassifyMatch(0.69))
	assert.Equal(t, MatchNone, ClassifyMatch(0.49))
}

func TestScoreAtLeastSimilarImpliesSimilarClassification(t *testing.T) {
	score := Score("cement 50kg bags", "50kg cement bags")
	if score >= 0.7 {
		assert.Contains(t, []MatchKind{MatchSimilar, MatchExact}, ClassifyMatch(score))
	}
}

func TestExtractQuantity_RecognizedUnit(t *testing.T) {
	q := ExtractQuantity(NormalizeName("cement 50kg bags"))
	assert.True(t, q.Found)
	assert.Equal(t, "kg", q.Unit)
	assert.Equal(t, 50.0, q.Quantity)
}

func TestExtractQuantity_ThicknessDescriptorIgnoredAsUnit(t *testing.T) {
	q := ExtractQuantity(NormalizeName("steel bar 12mm"))
	assert.NotEqual(t, "mm", q.Unit)
	assert.Equal(t, "piece", q.Unit)
}

func TestExtractQuantity_DefaultsToPieceWhenNoUnit(t *testing.T) {
	q := ExtractQuantity(NormalizeName("widget 5"))
	assert.Equal(t, "piece", q.Unit)
}

func TestExtractKeywords_RemovesStopwordsAndQuantityTokens(t *testing.T) {
	kws := ExtractKeywords(NormalizeName("cement 50kg bags for the bridge"))
	assert.Contains(t, kws, "cement")
	assert.Contains(t, kws, "bags")
	assert.NotContains(t, kws, "for")
	assert.NotContains(t, kws, "the")
}

func TestExtractKeywords_PreservesEmbeddedDecimal(t *testing.T) {
	kws := ExtractKeywords(NormalizeName("Cable 2.5sqmm"))
	assert.Contains(t, kws, "2.5")
}

func TestNormalizeName_CollapsesWhitespaceAndPunctuation(t *testing.T) {
	assert.Equal(t, "cement 50kg bags", NormalizeName("  Cement-50kg_bags  "))
}
