package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := Parse([]byte(`{
	  "general": {
	    "time": ["what time is it", "the current time"],
	    "joke": ["tell me a joke"]
	  }
	}`))
	require.NoError(t, err)
	return catalog
}

func TestRatio(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"what time is it", "what time is it", 1.0},
		{"", "", 1.0},
		{"abc", "", 0.0},
		{"", "abc", 0.0},
		{"abc", "xyz", 0.0},
		{"abcd", "abxy", 0.5},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, Ratio(tc.a, tc.b), 1e-9, "Ratio(%q, %q)", tc.a, tc.b)
		assert.InDelta(t, Ratio(tc.a, tc.b), Ratio(tc.b, tc.a), 1e-9, "asymmetric for %q/%q", tc.a, tc.b)
	}
}

func TestMatchExactPhrase(t *testing.T) {
	result, err := scenarioCatalog(t).Match("what time is it", 0.7)
	require.NoError(t, err)
	require.Equal(t, Matched, result.Kind)
	assert.Equal(t, "general", result.Match.UseCase)
	assert.Equal(t, "time", result.Match.Function)
	assert.InDelta(t, 1.0, result.Match.Similarity, 1e-9)
}

func TestMatchNearPhrase(t *testing.T) {
	result, err := scenarioCatalog(t).Match("tell me a joke please", 0.7)
	require.NoError(t, err)
	require.Equal(t, Matched, result.Kind)
	assert.Equal(t, "joke", result.Match.Function)
	assert.GreaterOrEqual(t, result.Match.Similarity, 0.7)
}

func TestMatchMiss(t *testing.T) {
	result, err := scenarioCatalog(t).Match("xyzzy", 0.7)
	require.NoError(t, err)
	assert.Equal(t, Miss, result.Kind)
}

func TestMatchUppercaseUtterance(t *testing.T) {
	result, err := scenarioCatalog(t).Match("WHAT TIME IS IT", 0.7)
	require.NoError(t, err)
	require.Equal(t, Matched, result.Kind)
	assert.InDelta(t, 1.0, result.Match.Similarity, 1e-9)
}

func TestMatchTieYieldsDisambiguation(t *testing.T) {
	catalog, err := Parse([]byte(`{
	  "general": {
	    "smalltalk": ["what is going on"],
	    "status": ["what is going on"]
	  }
	}`))
	require.NoError(t, err)

	result, err := catalog.Match("what is going on", 0.7)
	require.NoError(t, err)
	require.Equal(t, Ambiguous, result.Kind)
	require.Len(t, result.Candidates, 2)
	// Catalog insertion order is preserved for presentation.
	assert.Equal(t, "smalltalk", result.Candidates[0].Entry.Function)
	assert.Equal(t, "status", result.Candidates[1].Entry.Function)

	selected := result.Candidates[1].Resolve("what is going on")
	assert.Equal(t, "status", selected.Function)
	assert.Equal(t, "general", selected.UseCase)
}

func TestMatchInvalidThreshold(t *testing.T) {
	for _, threshold := range []float64{-0.1, 1.1} {
		_, err := scenarioCatalog(t).Match("anything", threshold)
		require.Error(t, err, "threshold %v", threshold)
	}
}

func TestMatchEmptyUtteranceIsMiss(t *testing.T) {
	for _, threshold := range []float64{0.0, 0.7, 1.0} {
		result, err := scenarioCatalog(t).Match("", threshold)
		require.NoError(t, err)
		assert.Equal(t, Miss, result.Kind)
	}
}

func TestMatchThresholdZeroNeverMisses(t *testing.T) {
	for _, utterance := range []string{"xyzzy", "qqq", "tell me"} {
		result, err := scenarioCatalog(t).Match(utterance, 0.0)
		require.NoError(t, err)
		assert.NotEqual(t, Miss, result.Kind, "utterance %q", utterance)
	}
}

func TestMatchThresholdOneRequiresExactHit(t *testing.T) {
	catalog := scenarioCatalog(t)

	result, err := catalog.Match("the current time", 1.0)
	require.NoError(t, err)
	assert.Equal(t, Matched, result.Kind)

	result, err = catalog.Match("the current times", 1.0)
	require.NoError(t, err)
	assert.Equal(t, Miss, result.Kind)
}

func TestMatchSimilarityRespectsThreshold(t *testing.T) {
	catalog := scenarioCatalog(t)
	for _, utterance := range []string{"what time", "a joke", "current", "time it is what"} {
		for _, threshold := range []float64{0.2, 0.5, 0.8} {
			result, err := catalog.Match(utterance, threshold)
			require.NoError(t, err)
			if result.Kind == Matched {
				assert.GreaterOrEqual(t, result.Match.Similarity, threshold)
			}
			for _, candidate := range result.Candidates {
				assert.GreaterOrEqual(t, candidate.Similarity, threshold)
			}
		}
	}
}

func TestMatchCatalogPhraseAlwaysReachesItsGroup(t *testing.T) {
	catalog := scenarioCatalog(t)
	for _, entry := range catalog.Entries() {
		result, err := catalog.Match(entry.Phrase, DefaultThreshold)
		require.NoError(t, err)
		switch result.Kind {
		case Matched:
			assert.Equal(t, entry.UseCase, result.Match.UseCase)
			assert.Equal(t, entry.Function, result.Match.Function)
		case Ambiguous:
			found := false
			for _, candidate := range result.Candidates {
				if candidate.Entry.UseCase == entry.UseCase && candidate.Entry.Function == entry.Function {
					found = true
				}
			}
			assert.True(t, found, "phrase %q lost its own group", entry.Phrase)
		default:
			t.Fatalf("phrase %q missed its own catalog", entry.Phrase)
		}
	}
}
