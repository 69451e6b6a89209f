package intent

import (
	"fmt"
	"strings"
)

// DefaultThreshold is the minimum similarity for a match.
const DefaultThreshold = 0.7

// Match is the matcher's chosen intent for an utterance.
type Match struct {
	UseCase    string
	Function   string
	Similarity float64
	Utterance  string
}

// ResultKind discriminates the matcher outcome.
type ResultKind int

const (
	// Miss means no (use-case, function) group reached the threshold.
	Miss ResultKind = iota
	// Matched means exactly one group holds the maximum similarity.
	Matched
	// Ambiguous means two or more groups tie at the maximum similarity and
	// the caller must disambiguate with the user.
	Ambiguous
)

// Result is the matcher outcome. Exactly one of Match/Candidates is
// populated, depending on Kind.
type Result struct {
	Kind  ResultKind
	Match Match
	// Candidates holds the tied best exemplars in catalog insertion order
	// when Kind is Ambiguous.
	Candidates []Candidate
}

// Candidate is one of the tied options offered during disambiguation.
type Candidate struct {
	Entry      Entry
	Similarity float64
}

// Resolve converts a disambiguation candidate into a Match for dispatch.
func (c Candidate) Resolve(utterance string) Match {
	return Match{
		UseCase:    c.Entry.UseCase,
		Function:   c.Entry.Function,
		Similarity: c.Similarity,
		Utterance:  utterance,
	}
}

// Ratio computes a symmetric character-bag similarity in [0,1]: twice the
// multiset character intersection over the summed lengths. Identical strings
// score 1.0, strings with no characters in common score 0.0. It is a fast
// upper bound on edit-based similarity, which is sufficient for ranking
// hand-authored trigger phrases.
func Ratio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	var counts [256]int
	other := make(map[rune]int)
	for _, r := range a {
		if r < 256 {
			counts[r]++
		} else {
			other[r]++
		}
	}
	matches := 0
	for _, r := range b {
		if r < 256 {
			if counts[r] > 0 {
				counts[r]--
				matches++
			}
		} else if other[r] > 0 {
			other[r]--
			matches++
		}
	}
	return 2.0 * float64(matches) / float64(len([]rune(a))+len([]rune(b)))
}

// Match ranks every catalog entry against the utterance and returns the best
// (use-case, function) group, a disambiguation between tied groups, or a
// miss. The utterance is lowercased before comparison. For a fixed catalog
// the result is deterministic and tied candidates keep catalog order.
func (c *Catalog) Match(utterance string, threshold float64) (Result, error) {
	if threshold < 0 || threshold > 1 {
		return Result{}, fmt.Errorf("invalid threshold %v: must be within [0,1]", threshold)
	}
	utterance = strings.ToLower(strings.TrimSpace(utterance))
	if utterance == "" {
		return Result{Kind: Miss}, nil
	}

	// Best exemplar per (use-case, function) group, in first-seen order.
	type group struct {
		best       Entry
		similarity float64
	}
	var order []string
	groups := make(map[string]*group)
	for _, entry := range c.entries {
		key := entry.UseCase + "\x00" + entry.Function
		sim := Ratio(utterance, entry.Phrase)
		g, ok := groups[key]
		if !ok {
			groups[key] = &group{best: entry, similarity: sim}
			order = append(order, key)
			continue
		}
		if sim > g.similarity {
			g.best = entry
			g.similarity = sim
		}
	}

	max := 0.0
	for _, key := range order {
		if g := groups[key]; g.similarity > max {
			max = g.similarity
		}
	}
	if max < threshold {
		return Result{Kind: Miss}, nil
	}

	var tied []Candidate
	for _, key := range order {
		if g := groups[key]; g.similarity == max {
			tied = append(tied, Candidate{Entry: g.best, Similarity: g.similarity})
		}
	}
	if len(tied) == 1 {
		return Result{Kind: Matched, Match: tied[0].Resolve(utterance)}, nil
	}
	return Result{Kind: Ambiguous, Candidates: tied}, nil
}
